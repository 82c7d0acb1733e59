package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/logrusorgru/aurora/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/compiler"
	"github.com/0xmhha/matchstick-go/coverage"
	"github.com/0xmhha/matchstick-go/host"
	"github.com/0xmhha/matchstick-go/internal/config"
	"github.com/0xmhha/matchstick-go/internal/constants"
	"github.com/0xmhha/matchstick-go/internal/logger"
	"github.com/0xmhha/matchstick-go/manifest"
	"github.com/0xmhha/matchstick-go/schema"
	"github.com/0xmhha/matchstick-go/suite"
	"github.com/0xmhha/matchstick-go/templates"
	"github.com/0xmhha/matchstick-go/wasmhost"
)

// errTestsFailed is returned when the run completed with failing tests.
// The report has already been printed.
var errTestsFailed = errors.New("tests failed")

const logo = `
___  ___      _       _         _   _      _
|  \/  |     | |     | |       | | (_)    | |
| .  . | __ _| |_ ___| |__  ___| |_ _  ___| | __
| |\/| |/ _` + "`" + ` | __/ __| '_ \/ __| __| |/ __| |/ /
| |  | | (_| | || (__| | | \__ \ |_| | (__|   <
\_|  |_/\__,_|\__\___|_| |_|___/\__|_|\___|_|\_\
`

func run(ctx context.Context, opts *options, filters []string, stdout io.Writer) error {
	start := time.Now()

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}
	applyFlags(cfg, opts.logLevel, opts.logFormat)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := initLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	ctx = logger.WithLogger(ctx, log)

	console := logger.NewConsole(stdout, !opts.noColor)
	console.Styled(aurora.RedFg|aurora.BrightFg, "%s", logo)

	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}

	console.Styled(aurora.GreenFg|aurora.BrightFg, "Compiling...\n")
	outputs, err := compileTests(ctx, cfg, m, opts.recompile, filters, console, log)
	if err != nil {
		return err
	}

	if opts.coverage {
		return reportCoverage(ctx, cfg, m, console, log)
	}

	registry := prometheus.NewRegistry()
	metrics := suite.NewMetrics(registry, constants.MetricsNamespace, constants.MetricsSubsystem)

	report, runErr := runTests(ctx, cfg, m, outputs, console, log, metrics)

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, registry); err != nil {
			log.Warn("failed to write metrics file", zap.String("path", opts.metricsFile), zap.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}

	console.Default("\n[%s] Program executed in: %.3fs.", time.Now().Format(time.RFC1123Z), time.Since(start).Seconds())

	if !report.AllPassed() {
		return errTestsFailed
	}
	return nil
}

// loadConfig loads configuration from .env, the config file and environment variables
func loadConfig(configFile string) (*config.Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads environment variables from a .env file if it exists.
func loadDotEnv() error {
	info, err := os.Stat(".env")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat .env: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf(".env exists but is a directory")
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// applyFlags applies command-line flags to configuration
func applyFlags(cfg *config.Config, logLevel, logFormat string) {
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
}

// initLogger initializes the logger based on configuration
func initLogger(level, format string) (*zap.Logger, error) {
	return logger.NewWithConfig(&logger.Config{
		Level:       level,
		Encoding:    format,
		Development: level == "debug",
	})
}

func compileTests(ctx context.Context, cfg *config.Config, m *manifest.Manifest, force bool, filters []string, console *logger.Console, log *zap.Logger) ([]compiler.Output, error) {
	sources, err := compiler.Discover(cfg.TestsFolder, filters)
	if err != nil {
		return nil, err
	}

	ccfg := compiler.DefaultConfig()
	ccfg.LibsFolder = cfg.LibsFolder
	ccfg.TestsFolder = cfg.TestsFolder
	ccfg.ExtraInputs = m.MappingFiles()

	asc, err := compiler.NewAscCompiler(ccfg, console, log)
	if err != nil {
		return nil, err
	}

	outputs, err := asc.Compile(ctx, sources, force)
	var ce *compiler.CompilationError
	if errors.As(err, &ce) {
		for _, o := range ce.Failed {
			console.Raw(string(o.Stderr))
		}
		return nil, errors.New("Please attend to the compilation errors above!")
	}
	return outputs, err
}

func reportCoverage(ctx context.Context, cfg *config.Config, m *manifest.Manifest, console *logger.Console, log *zap.Logger) error {
	console.Styled(aurora.CyanFg, "\nRunning in coverage report mode.\n")

	gen := coverage.NewGenerator(coverage.Config{
		LibsFolder: cfg.LibsFolder,
		BinFolder:  (&compiler.Config{TestsFolder: cfg.TestsFolder}).BinFolder(),
	}, log)
	report, err := gen.Generate(ctx, m.Sources())
	if err != nil {
		return err
	}
	report.Print(console)
	return nil
}

func runTests(ctx context.Context, cfg *config.Config, m *manifest.Manifest, outputs []compiler.Output, console *logger.Console, log *zap.Logger, metrics *suite.Metrics) (*suite.Report, error) {
	schemaPath, err := m.SchemaPath()
	if err != nil {
		return nil, err
	}
	idx, err := schema.LoadFile(schemaPath)
	if err != nil {
		return nil, err
	}

	hostCfg := host.Config{
		Schema:    idx,
		Templates: supportedTemplates(m.TemplateDefs(), console),
		Console:   console,
	}

	rt := wasmhost.NewRuntime(wasmhost.Config{MemoryLimitPages: cfg.Runtime.MemoryLimitPages}, log)
	defer func() { _ = rt.Close(ctx) }()

	var modules []*wasmhost.Module
	defer func() {
		for _, mod := range modules {
			if err := mod.Close(ctx); err != nil {
				log.Warn("failed to close module", zap.String("module", mod.Name()), zap.Error(err))
			}
		}
	}()

	suites := make([]suite.Suite, 0, len(outputs))
	for _, o := range outputs {
		mod, err := rt.LoadFile(ctx, o.Name, o.File, hostCfg)
		if err != nil {
			return nil, err
		}
		modules = append(modules, mod)
		suites = append(suites, suite.Suite{Name: o.Name, Module: mod})
	}

	runner := suite.NewRunner(console, log, metrics)
	report, err := runner.Run(ctx, suites)
	if err != nil {
		return report, err
	}
	runner.Summarize(report)
	return report, nil
}

// supportedTemplates drops the definitions of kinds that cannot be
// instantiated, warning once per definition
func supportedTemplates(defs []templates.Definition, console *logger.Console) []templates.Definition {
	out := make([]templates.Definition, 0, len(defs))
	for _, d := range defs {
		if !templates.Supported(d.Kind) {
			console.Warning("Template with kind `%s` is not supported by matchstick.", d.Kind)
			continue
		}
		out = append(out, d)
	}
	return out
}
