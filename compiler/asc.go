package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/logrusorgru/aurora/v4"
	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/internal/constants"
	"github.com/0xmhha/matchstick-go/internal/logger"
)

// AscCompiler implements the Compiler interface using the asc binary from
// the libs folder
type AscCompiler struct {
	config  *Config
	libs    string
	exec    string
	global  string
	console *logger.Console
	log     *zap.Logger
}

// NewAscCompiler creates a new AssemblyScript compiler instance. console
// and log may be nil.
func NewAscCompiler(config *Config, console *logger.Console, log *zap.Logger) (*AscCompiler, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	libs, err := filepath.Abs(config.LibsFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve libs folder: %w", err)
	}
	if _, err := os.Stat(libs); err != nil {
		return nil, fmt.Errorf("libs folder %s does not exist: %w", config.LibsFolder, err)
	}

	// Create bin directory if it doesn't exist
	if err := os.MkdirAll(config.BinFolder(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create bin directory: %w", err)
	}

	return &AscCompiler{
		config:  config,
		libs:    libs,
		exec:    filepath.Join(libs, constants.AscBinary),
		global:  filepath.Join(libs, constants.GraphTSGlobal),
		console: console,
		log:     logger.WithComponent(log, "compiler"),
	}, nil
}

// Compile compiles every source whose module is missing or stale. Every
// source is attempted; if asc rejected any of them a CompilationError
// carrying all failed outputs is returned.
func (a *AscCompiler) Compile(ctx context.Context, sources []Source, force bool) ([]Output, error) {
	if err := a.ensureCompilerAvailable(); err != nil {
		return nil, err
	}

	outputs := make([]Output, 0, len(sources))
	var failed []Output
	for _, src := range sources {
		out := a.config.OutFile(src.Name)

		stale := force
		if !stale {
			modified, err := IsSourceModified(src.Path, out, a.config.ExtraInputs)
			if err != nil {
				return nil, err
			}
			stale = modified
		}

		if !stale {
			a.info("%s skipped!", src.Name)
			outputs = append(outputs, Output{Name: src.Name, File: out, Skipped: true})
			continue
		}

		a.info("Compiling %s...", src.Name)
		output, err := a.compile(ctx, src, out)
		if err != nil && !errors.Is(err, ErrCompilationFailed) {
			return nil, err
		}
		if err != nil {
			failed = append(failed, output)
		}
		outputs = append(outputs, output)
	}

	if len(failed) > 0 {
		return outputs, &CompilationError{Failed: failed}
	}
	return outputs, nil
}

// ensureCompilerAvailable checks that asc is present in the libs folder
func (a *AscCompiler) ensureCompilerAvailable() error {
	if _, err := os.Stat(a.exec); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrCompilerNotFound, a.exec)
		}
		return err
	}
	return nil
}

// buildAscArgs builds the asc command arguments
func (a *AscCompiler) buildAscArgs(in, out string) []string {
	args := []string{in, a.global, "--lib", a.libs}
	args = append(args, a.config.Options...)
	return append(args, "--outFile", out)
}

// createCompilationContext creates a context with timeout for compilation
func (a *AscCompiler) createCompilationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.Timeout == 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, a.config.Timeout)
}

func (a *AscCompiler) compile(ctx context.Context, src Source, out string) (Output, error) {
	output := Output{Name: src.Name, File: out}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return output, fmt.Errorf("failed to create output directory: %w", err)
	}

	compileCtx, cancel := a.createCompilationContext(ctx)
	if cancel != nil {
		defer cancel()
	}

	args := a.buildAscArgs(src.Path, out)
	a.log.Debug("running asc", zap.String("exec", a.exec), zap.Strings("args", args))

	cmd := exec.CommandContext(compileCtx, a.exec, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output.Stdout = stdout.Bytes()
	output.Stderr = stderr.Bytes()
	if err == nil {
		return output, nil
	}

	if compileCtx.Err() == context.DeadlineExceeded {
		return output, fmt.Errorf("%w: %s", ErrTimeout, src.Name)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		a.log.Debug("asc rejected source", zap.String("source", src.Name), zap.Int("exit", exitErr.ExitCode()))
		return output, fmt.Errorf("%w: %s", ErrCompilationFailed, src.Name)
	}
	return output, fmt.Errorf("internal error during compilation of %s: %w\nCommand path: %s\nGlobals path: %s\nLibs folder: %s",
		src.Name, err, a.exec, a.global, a.libs)
}

func (a *AscCompiler) info(format string, args ...interface{}) {
	if a.console == nil {
		return
	}
	a.console.Info(format, colorArgs(a.console, args)...)
}

func colorArgs(c *logger.Console, args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, arg := range args {
		if s, ok := arg.(string); ok {
			out[i] = c.Paint(s, aurora.BlueFg|aurora.BrightFg)
			continue
		}
		out[i] = arg
	}
	return out
}
