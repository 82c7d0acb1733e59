package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0xmhha/matchstick-go/internal/constants"
	"github.com/0xmhha/matchstick-go/internal/logger"
)

var (
	// Version information (injected at build time)
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// options holds the command-line flags
type options struct {
	configFile  string
	coverage    bool
	recompile   bool
	noColor     bool
	metricsFile string
	logLevel    string
	logFormat   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(execute(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line args and returns the process exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &options{}
	cmd := newRootCmd(opts, stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errTestsFailed):
		return 1
	default:
		logger.NewConsole(stderr, !opts.noColor).Critical("%v", err)
		return 1
	}
}

func newRootCmd(opts *options, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matchstick [suites...]",
		Short: "Unit testing framework for subgraph mappings",
		Long: `Compiles the AssemblyScript test files of a subgraph and runs them
against an in-memory store, with mocked contract calls, data sources and IPFS files.

Positional arguments select suites by their path under the tests folder.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", constants.DefaultConfigFile, "Path to configuration file (YAML)")
	flags.BoolVarP(&opts.coverage, "coverage", "c", false, "Run in coverage report mode")
	flags.BoolVarP(&opts.recompile, "recompile", "r", false, "Force-recompile tests")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (json, console)")

	return cmd
}
