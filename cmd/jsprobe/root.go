package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for jsprobe.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jsprobe",
		Short: "Extract embedded JSON and script endpoints from web pages",
		Long: `jsprobe fetches web pages with a fixed delay between requests and reports
what their markup and inline scripts reveal:

- JSON objects found anywhere in the page text
- JSON objects assigned to script variables (var/let/const NAME = {...};)
- API paths, absolute URLs, script files, and fetch/HTTP client calls
  referenced by inline scripts, resolved to absolute URLs

Only analyze sites you are authorized to test.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
