package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// RootApp builds the CLI application.
func RootApp() *cli.App {
	return &cli.App{
		Name:  "readme-articles",
		Usage: "Fetch articles from feeds and write them into a README",
		Description: `Fetches articles from RSS/Atom feeds and dev.to profiles,
		picks the most recent or top entries, and rewrites the
		marker-delimited region of a README file.

		All inputs can be supplied as GitHub Actions style environment
		variables, e.g.:

		INPUT_FEED_URLS=https://blog.example.com/rss,https://dev.to/someone
		INPUT_ARTICLE_LIMIT=5
		INPUT_ARTICLE_TYPE=recent`,
		Commands: []*cli.Command{
			runCmd(),
		},
		// A bare invocation is a run; that is how the action wrapper
		// calls the binary.
		Action: func(ctx *cli.Context) error {
			return ctx.App.Run(append(os.Args[:1:1], "run"))
		},
	}
}

// Execute runs the CLI and exits non-zero on fatal errors.
func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
