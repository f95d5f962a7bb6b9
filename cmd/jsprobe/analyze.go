package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nao1215/jsprobe/internal/config"
	"github.com/nao1215/jsprobe/internal/extract"
	"github.com/nao1215/jsprobe/internal/fetcher"
	"github.com/nao1215/jsprobe/internal/log"
	"github.com/nao1215/jsprobe/internal/model"
	"github.com/nao1215/jsprobe/internal/pipeline"
	"github.com/nao1215/jsprobe/internal/report"
)

// errAllTargetsFailed is returned when no target could be analyzed.
var errAllTargetsFailed = errors.New("all targets failed")

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [url...]",
		Short: "Analyze web pages for embedded JSON and script endpoints",
		Long: `Analyze fetches each page and reports:
- JSON objects found anywhere in the page text
- JSON objects assigned to variables in inline scripts
- Endpoints referenced by inline scripts (API paths, URLs, .js files,
  fetch/axios/$.ajax/$.get/$.post calls), resolved against the base URL

Requests are spaced by --delay, across all workers.

Examples:
  # Analyze a single page
  jsprobe analyze https://example.com/

  # Analyze a list of pages, two at a time, as JSON
  jsprobe analyze --list urls.txt --batch 2 --json -o report.json

  # Resolve relative endpoints against a different origin
  jsprobe analyze --base-url https://api.example.com https://example.com/app

  # Route requests through a local SOCKS proxy
  jsprobe analyze --proxy socks5://127.0.0.1:9050 https://example.com/

Configuration file (.jsprobe) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      delay: 3s`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	// Target flags
	cmd.Flags().StringP("list", "l", "",
		"Read target URLs from a file (one per line, # starts a comment)")
	cmd.Flags().StringP("base-url", "u", "",
		"Base URL for resolving relative endpoints (default: origin of the first target)")

	// Request flags
	cmd.Flags().DurationP("delay", "d", config.DefaultRequestDelay,
		"Minimum delay between requests")
	cmd.Flags().Bool("leading-delay", false,
		"Also wait the delay before the first request")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of pages analyzed concurrently")
	cmd.Flags().String("proxy", "",
		"Proxy URL (http, https, socks5)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	// Extraction flags
	cmd.Flags().Bool("lenient", false,
		"Accept JavaScript object literals in variable assignments")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .jsprobe, ~/.config/jsprobe/config.yaml, ~/.jsprobe)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().IntP("preview", "p", config.DefaultPreviewLength,
		"Characters shown per JSON finding in the text report (0 shows all)")
	cmd.Flags().BoolP("summary", "s", false,
		"Print a summary table to stderr")
	cmd.Flags().BoolP("resources", "r", false,
		"List referenced scripts and stylesheets in the text report")
	cmd.Flags().BoolP("quiet", "q", false,
		"Suppress status output")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), log.Options{
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAnalyze(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getBoolFlag retrieves a bool flag from the command or the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
		return nil, err
	}
	if cfg.RequestDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}

	leading, err := flags.GetBool("leading-delay")
	if err != nil {
		return nil, err
	}
	if leading {
		cfg.PacingPolicy = fetcher.PaceLeading.String()
	}

	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ProxyURL, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.Lenient, err = flags.GetBool("lenient"); err != nil {
		return nil, err
	}

	jsonReport, err := flags.GetBool("json")
	if err != nil {
		return nil, err
	}
	markdownReport, err := flags.GetBool("markdown")
	if err != nil {
		return nil, err
	}
	switch {
	case jsonReport && markdownReport:
		return nil, config.ErrConflictingReportFormats
	case jsonReport:
		cfg.Format = config.FormatJSON
	case markdownReport:
		cfg.Format = config.FormatMarkdown
	}

	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.PreviewLength, err = flags.GetInt("preview"); err != nil {
		return nil, err
	}
	if cfg.Summary, err = flags.GetBool("summary"); err != nil {
		return nil, err
	}
	if cfg.ShowResources, err = flags.GetBool("resources"); err != nil {
		return nil, err
	}
	if cfg.Quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, err
	}

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// An explicitly given config file must exist. Otherwise a missing
	// file just means no site-specific settings.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	listPath, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	cfg.Targets = append(cfg.Targets, args...)
	if listPath != "" {
		listed, err := readTargetList(listPath)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, listed...)
	}

	return cfg, nil
}

// readTargetList reads one URL per line. Blank lines and lines starting
// with # are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}

// siteDelay returns the request delay for the base site: the larger of the
// global delay and the delay configured for its host.
func siteDelay(cfg *config.Config, baseURL string) time.Duration {
	delay := cfg.RequestDelay
	if cfg.SiteConfigs == nil {
		return delay
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return delay
	}
	sc, err := cfg.SiteConfigs.GetSiteConfig(u.Hostname())
	if err != nil {
		return delay
	}
	return max(delay, sc.Delay)
}

// newAnalyzer builds the fetcher and the analyzer for cfg.
func newAnalyzer(cfg *config.Config, logger *slog.Logger) (*pipeline.Analyzer, error) {
	baseURL, err := cfg.SiteBaseURL()
	if err != nil {
		return nil, err
	}

	site, err := model.NewSiteContext(baseURL, siteDelay(cfg, baseURL))
	if err != nil {
		return nil, err
	}

	policy, err := fetcher.ParsePacingPolicy(cfg.PacingPolicy)
	if err != nil {
		return nil, err
	}

	f, err := fetcher.New(
		fetcher.WithDelay(site.RequestDelay(), policy),
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithProxy(cfg.ProxyURL),
		fetcher.WithHeaders(cfg.SiteConfigs.RequestHeaders),
		fetcher.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	jsonExtractor := extract.NewJSONExtractor(
		extract.WithLenient(cfg.Lenient),
		extract.WithJSONLogger(logger),
	)

	return pipeline.NewAnalyzer(f, site,
		pipeline.WithJSONExtractor(jsonExtractor),
		pipeline.WithEndpointExtractor(extract.NewEndpointExtractor(site, extract.WithEndpointLogger(logger))),
		pipeline.WithAnalyzerLogger(logger),
	), nil
}

// statusPrinter writes progress lines to stderr. Workers report
// concurrently, so every line is written under a lock.
type statusPrinter struct {
	mu      sync.Mutex
	quiet   bool
	info    *pterm.PrefixPrinter
	success *pterm.PrefixPrinter
	failure *pterm.PrefixPrinter
}

func newStatusPrinter(w io.Writer, quiet bool) *statusPrinter {
	return &statusPrinter{
		quiet:   quiet,
		info:    pterm.Info.WithWriter(w),
		success: pterm.Success.WithWriter(w),
		failure: pterm.Error.WithWriter(w),
	}
}

func (s *statusPrinter) Infof(format string, a ...any) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.Printfln(format, a...)
}

// Outcome prints one finished target.
func (s *statusPrinter) Outcome(o model.Outcome, index, total int) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.OK() {
		s.success.Printfln("[%d/%d] %s: %d JSON findings (%d named), %d endpoints",
			index+1, total, o.URL, len(o.Result.Findings), len(o.Result.NamedFindings()), o.Result.Endpoints.Len())
		return
	}
	s.failure.Printfln("[%d/%d] %s: %s", index+1, total, o.URL, o.ErrorMessage)
}

// runAnalyze analyzes every target and writes the report.
func runAnalyze(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	analyzer, err := newAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	status := newStatusPrinter(stderr, cfg.Quiet)
	total := len(cfg.Targets)

	logger.Info("starting analysis",
		"targets", total,
		"site", analyzer.Site().String(),
		"batchSize", cfg.BatchSize,
	)
	status.Infof("Analyzing %d page(s) (concurrency: %d, delay: %s)",
		total, cfg.BatchSize, analyzer.Site().RequestDelay())

	bp := pipeline.NewBatchProcessor(analyzer,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
		pipeline.WithProgress(func(o model.Outcome, i int) {
			status.Outcome(o, i, total)
		}),
	)

	batch, batchErr := bp.ProcessBatch(ctx, cfg.Targets)
	if batchErr != nil {
		logger.Warn("analysis interrupted", "error", batchErr)
	}
	status.Infof("Finished in %s: %d ok / %d failed",
		batch.Elapsed.Round(time.Millisecond), batch.SucceededCount(), batch.FailedCount())

	if total == 1 && !batch.Outcomes[0].OK() {
		o := batch.Outcomes[0]
		return fmt.Errorf("failed to analyze %s: %w", o.URL, o.Err)
	}

	if err := outputReport(cfg, stdout, batch); err != nil {
		return err
	}
	if cfg.ReportFile != "" {
		status.Infof("Report written to %s", cfg.ReportFile)
	}

	if cfg.Summary {
		if _, err := report.NewSummaryWriter(stderr).WriteBatch(batch); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if batchErr != nil {
		return batchErr
	}
	if batch.SucceededCount() == 0 {
		return fmt.Errorf("%w: %d of %d", errAllTargetsFailed, batch.FailedCount(), total)
	}
	return nil
}

// newReportWriter returns the writer for the configured format.
func newReportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch cfg.Format {
	case config.FormatJSON:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case config.FormatMarkdown:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w,
			report.WithPreviewLength(cfg.PreviewLength),
			report.WithResources(cfg.ShowResources),
		)
	}
}

// outputReport writes the report to cfg.ReportFile, or to stdout when no
// file is configured. A single target is reported on its own; several
// targets are reported as a batch.
func outputReport(cfg *config.Config, stdout io.Writer, batch *model.BatchResult) (err error) {
	out := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, openErr := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if openErr != nil {
			return fmt.Errorf("failed to create report file: %w", openErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close report file: %w", cerr)
			}
		}()
		out = f
	}

	w := newReportWriter(cfg, out)
	if len(batch.Outcomes) == 1 {
		_, err = w.Write(batch.Outcomes[0].Result)
	} else {
		_, err = w.WriteBatch(batch)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
