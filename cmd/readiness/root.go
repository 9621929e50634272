package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Bahjat/llm-readiness-checker/internal/model"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/errs"
	"github.com/Bahjat/llm-readiness-checker/internal/platform/logger"
	"github.com/Bahjat/llm-readiness-checker/internal/readiness"
)

const (
	minProbeConcurrency = 1
	maxProbeConcurrency = 16
)

// analyzer is the slice of readiness.Engine the command needs.
type analyzer interface {
	Analyze(ctx context.Context, targetURL string) (*model.AnalysisResult, error)
}

type analyzeOptions struct {
	timeout          time.Duration
	asJSON           bool
	probeConcurrency int
	logLevel         string

	newAnalyzer func(probeConcurrency int) analyzer
	isTerminal  func(w io.Writer) bool
}

func defaultAnalyzer(probeConcurrency int) analyzer {
	return readiness.NewEngine(readiness.NewHTTPClient(), readiness.NewProbeClient(), probeConcurrency)
}

func stdoutIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "readiness",
		Short: "Score how ready a website is for LLM agents",
		Long: `readiness fetches a website and probes its well-known paths to report
which machine-readable signals it offers (llms.txt, feeds, structured data,
APIs, an MCP manifest) together with a 0-100 score and recommendations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(&analyzeOptions{
		newAnalyzer: defaultAnalyzer,
		isTerminal:  stdoutIsTerminal,
	}))
	return root
}

func newAnalyzeCmd(opts *analyzeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze one website",
		Example: `  readiness analyze example.com
  readiness analyze https://example.com --json
  readiness analyze example.com --probe-concurrency 1 --timeout 30s`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.probeConcurrency < minProbeConcurrency || opts.probeConcurrency > maxProbeConcurrency {
				return fmt.Errorf("--probe-concurrency must be between %d and %d, got %d",
					minProbeConcurrency, maxProbeConcurrency, opts.probeConcurrency)
			}
			if opts.timeout <= 0 {
				return fmt.Errorf("--timeout must be positive, got %s", opts.timeout)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runAnalyze(ctx, cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.DurationVar(&opts.timeout, "timeout", 60*time.Second, "Overall analysis timeout")
	f.BoolVar(&opts.asJSON, "json", false, "Print the result as JSON (default when stdout is not a terminal)")
	f.IntVar(&opts.probeConcurrency, "probe-concurrency", 4, "Number of well-known-path probes run at once (1 runs them in order)")
	f.StringVar(&opts.logLevel, "log-level", "ERROR", "Log level written to stderr: DEBUG, INFO, WARN, ERROR")

	return cmd
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, opts *analyzeOptions, target string) error {
	log := logger.NewTo(cmd.ErrOrStderr(), opts.logLevel, "")

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	log.Info("analysis started", "url", target, "probe_concurrency", opts.probeConcurrency)
	start := time.Now()

	result, err := opts.newAnalyzer(opts.probeConcurrency).Analyze(ctx, target)
	if err != nil {
		log.Error("analysis failed", "url", target, "error", err)
		if msg := userMessage(err); msg != "" {
			return errors.New(msg)
		}
		return err
	}
	log.Info("analysis complete", "url", target, "score", result.Score, "elapsed", time.Since(start))

	out := cmd.OutOrStdout()
	if opts.asJSON || !opts.isTerminal(out) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return renderSummary(out, target, result)
}

func userMessage(err error) string {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
