package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/octoflow-labs/readme-articles/internal/config"
	"github.com/octoflow-labs/readme-articles/internal/crawler"
	"github.com/octoflow-labs/readme-articles/internal/domain"
	"github.com/octoflow-labs/readme-articles/internal/harvest"
	"github.com/octoflow-labs/readme-articles/internal/logger"
	"github.com/octoflow-labs/readme-articles/pkg/publishers"
	"github.com/octoflow-labs/readme-articles/pkg/sources"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Fetch, select, render and publish once",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Optional YAML config file; INPUT_* env vars take precedence",
				EnvVars: []string{"README_ARTICLES_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the rendered document instead of publishing",
			},
		},
		Action: func(ctx *cli.Context) error {
			// Local dev convenience; the action environment has no .env.
			_ = godotenv.Load()

			settings, err := config.Load(ctx.String("config"))
			if err != nil {
				return err
			}
			return run(ctx.Context, settings, ctx.Bool("dry-run"))
		},
	}
}

func run(parent context.Context, settings config.Settings, dryRun bool) error {
	log, err := logger.New(settings.LogLevel, settings.Development)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if settings.TimeoutSeconds > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(settings.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	srcs, err := sources.SourcesFromURLs(settings.FeedURLs)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(settings.ReadmePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", settings.ReadmePath, err)
	}

	client := sources.DefaultHTTPClient()
	var scraper crawler.SummaryBackfiller
	if settings.EnrichMetadata {
		scraper = crawler.NewScraper(client, log)
	}

	harvester := harvest.New(sources.DefaultFetcherRegistry(client), scraper, log)

	updated, report, runErr := harvester.Run(ctx, srcs, string(raw), harvest.Options{
		Policy:         settings.Policy(),
		Markers:        settings.Markers(),
		EnrichMetadata: settings.EnrichMetadata,
	})

	logReport(log, report)
	if runErr != nil {
		return runErr
	}

	if dryRun {
		fmt.Print(updated)
		return nil
	}

	evt := buildEvent(updated, report)
	pubs, err := buildPublishers(ctx, settings, log)
	if err != nil {
		return err
	}

	for _, pub := range pubs {
		if err := pub.Publish(ctx, evt); err != nil {
			return fmt.Errorf("publisher %s: %w", pub.ID(), err)
		}
	}
	return nil
}

// buildPublishers assembles the sink list: the configured publishers
// file when present, otherwise a file sink on the README path plus a
// github sink when a repository and token are configured.
func buildPublishers(ctx context.Context, settings config.Settings, log logger.Logger) ([]publishers.Publisher, error) {
	var cfgs []publishers.PublisherConfig

	if settings.PublishersFile != "" {
		reg, err := publishers.LoadRegistry(settings.PublishersFile)
		if err != nil {
			return nil, err
		}
		cfgs = reg.Enabled()
	} else {
		cfgs = append(cfgs, publishers.PublisherConfig{
			ID:   "readme",
			Type: publishers.TypeFile,
			File: &publishers.FilePublisherConfig{Path: settings.ReadmePath},
		})
		if settings.Repository != "" && settings.GithubToken != "" {
			cfgs = append(cfgs, publishers.PublisherConfig{
				ID:   "github",
				Type: publishers.TypeGitHub,
				GitHub: &publishers.GitHubPublisherConfig{
					Repository:    settings.Repository,
					Path:          settings.ReadmePath,
					Branch:        settings.Branch,
					CommitMessage: settings.CommitMessage,
					Token:         settings.GithubToken,
				},
			})
		}
		validated, err := publishers.NewConfigRegistry(cfgs)
		if err != nil {
			return nil, err
		}
		cfgs = validated.Enabled()
	}

	return publishers.BuildAll(ctx, publishers.DefaultRegistry(), cfgs, log)
}

// buildEvent converts the run outcome into the publisher payload.
func buildEvent(doc string, report domain.Report) publishers.Event {
	evt := publishers.Event{
		RunAt:    report.StartedAt,
		Document: doc,
	}

	for _, a := range report.Kept {
		wire := publishers.Article{
			Title:    a.Title,
			URL:      a.URL,
			Summary:  a.Summary,
			ImageURL: a.ImageURL,
			SourceID: a.SourceID,
		}
		if a.HasDate() {
			wire.PublishedAt = a.PublishedAt.Format(time.RFC3339)
		}
		evt.Articles = append(evt.Articles, wire)
	}

	for _, res := range report.Sources {
		summary := publishers.SourceSummary{
			SourceID: res.SourceID,
			URL:      res.URL,
			Articles: res.Articles,
		}
		if res.Err != nil {
			summary.Error = res.Err.Error()
		}
		evt.Sources = append(evt.Sources, summary)
	}
	return evt
}

// logReport emits the per-source summary, also on partial failure.
func logReport(log logger.Logger, report domain.Report) {
	for _, res := range report.Sources {
		obj := map[string]any{
			"source_id": res.SourceID,
			"url":       res.URL,
			"articles":  res.Articles,
		}
		if res.Err != nil {
			obj["error"] = res.Err.Error()
			log.WarnObj("source summary", "source_summary", obj)
			continue
		}
		log.InfoObj("source summary", "source_summary", obj)
	}
	log.InfoObj("articles kept", "article_total", map[string]any{
		"total":    report.TotalKept,
		"duration": report.FinishedAt.Sub(report.StartedAt).String(),
	})
}
