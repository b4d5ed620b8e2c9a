// Package config loads run settings. Settings come from GitHub
// Actions style INPUT_* environment variables, optionally layered over
// a YAML config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/octoflow-labs/readme-articles/internal/domain"
	"github.com/octoflow-labs/readme-articles/internal/render"
)

// Settings holds everything a single run needs.
type Settings struct {
	// FeedURLs is the comma-separated source list.
	FeedURLs string `mapstructure:"feed_urls"`

	// ArticleLimit caps articles per source and overall; <= 0 means no cap.
	ArticleLimit int `mapstructure:"article_limit"`

	// ArticleType selects the ordering mode: recent or top.
	ArticleType string `mapstructure:"article_type"`

	// GithubToken is passed through to the github publisher; the
	// pipeline itself never reads it.
	GithubToken string `mapstructure:"github_token"`

	ReadmePath  string `mapstructure:"readme_path"`
	MarkerStart string `mapstructure:"marker_start"`
	MarkerEnd   string `mapstructure:"marker_end"`

	EnrichMetadata bool `mapstructure:"enrich_metadata"`

	// Repository (owner/repo) enables the github publisher together
	// with GithubToken.
	Repository    string `mapstructure:"repository"`
	Branch        string `mapstructure:"branch"`
	CommitMessage string `mapstructure:"commit_message"`

	// PublishersFile points at an optional YAML/JSON publishers config.
	PublishersFile string `mapstructure:"publishers_file"`

	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	LogLevel       string `mapstructure:"log_level"`
	Development    bool   `mapstructure:"development"`
}

// Load reads settings from the environment and, when filePath is not
// empty, the given config file. Environment always wins.
func Load(filePath string) (Settings, error) {
	v := viper.New()

	v.SetDefault("feed_urls", "")
	v.SetDefault("article_limit", 5)
	v.SetDefault("article_type", string(domain.ModeRecent))
	v.SetDefault("readme_path", "README.md")
	v.SetDefault("marker_start", render.DefaultMarkers().Start)
	v.SetDefault("marker_end", render.DefaultMarkers().End)
	v.SetDefault("enrich_metadata", false)
	v.SetDefault("github_token", "")
	v.SetDefault("repository", "")
	v.SetDefault("branch", "")
	v.SetDefault("commit_message", "Update articles")
	v.SetDefault("publishers_file", "")
	v.SetDefault("timeout_seconds", 120)
	v.SetDefault("log_level", "info")
	v.SetDefault("development", false)

	v.SetEnvPrefix("input")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if filePath != "" {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config file %s: %w", filePath, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}

	s.ArticleType = strings.ToLower(strings.TrimSpace(s.ArticleType))

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the cross-field constraints.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.FeedURLs) == "" {
		return fmt.Errorf("feed_urls is required")
	}
	switch domain.SelectionMode(s.ArticleType) {
	case domain.ModeRecent, domain.ModeTop:
	default:
		return fmt.Errorf("article_type must be %q or %q, got %q",
			domain.ModeRecent, domain.ModeTop, s.ArticleType)
	}
	if strings.TrimSpace(s.ReadmePath) == "" {
		return fmt.Errorf("readme_path is required")
	}
	if strings.TrimSpace(s.MarkerStart) == "" || strings.TrimSpace(s.MarkerEnd) == "" {
		return fmt.Errorf("marker_start and marker_end must both be set")
	}
	if s.MarkerStart == s.MarkerEnd {
		return fmt.Errorf("marker_start and marker_end must differ")
	}
	return nil
}

// Policy returns the selection policy described by the settings.
func (s Settings) Policy() domain.SelectionPolicy {
	return domain.SelectionPolicy{
		Mode:  domain.SelectionMode(s.ArticleType),
		Limit: s.ArticleLimit,
	}
}

// Markers returns the marker pair described by the settings.
func (s Settings) Markers() render.Markers {
	return render.Markers{Start: s.MarkerStart, End: s.MarkerEnd}
}
