// Package compiler builds AssemblyScript test sources into wasm modules
// with the project's asc, recompiling only what changed.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xmhha/matchstick-go/internal/constants"
)

// Common errors
var (
	// ErrCompilerNotFound is returned when asc is missing from the libs folder
	ErrCompilerNotFound = errors.New("asc compiler not found")

	// ErrCompilationFailed is matched by CompilationError
	ErrCompilationFailed = errors.New("compilation failed")

	// ErrTimeout is returned when asc runs longer than the configured timeout
	ErrTimeout = errors.New("compilation timed out")

	// ErrNoTests is returned when the tests folder holds no test sources
	ErrNoTests = errors.New("no tests have been written yet")

	// ErrNoMatch is returned when no test source matches the suite filters
	ErrNoMatch = errors.New("no tests match set patterns")
)

// Compiler turns test sources into wasm modules
type Compiler interface {
	// Compile builds every source, skipping up-to-date outputs unless force is set
	Compile(ctx context.Context, sources []Source, force bool) ([]Output, error)
}

// Source is one test file. Name is its path under the tests folder,
// lowercased, without the .test.ts suffix.
type Source struct {
	Name string
	Path string
}

// Output is the result of compiling one source
type Output struct {
	Name    string
	File    string
	Skipped bool
	Stdout  []byte
	Stderr  []byte
}

// CompilationError reports the sources asc rejected
type CompilationError struct {
	Failed []Output
}

func (e *CompilationError) Error() string {
	var b strings.Builder
	for _, o := range e.Failed {
		b.Write(o.Stderr)
	}
	b.WriteString("Please attend to the compilation errors above!")
	return b.String()
}

func (e *CompilationError) Is(target error) bool { return target == ErrCompilationFailed }

// Config holds compiler configuration
type Config struct {
	// LibsFolder holds assemblyscript and graph-ts
	LibsFolder string

	// TestsFolder holds the test sources; outputs go to its .bin folder
	TestsFolder string

	// Options are passed to asc after the library arguments
	Options []string

	// ExtraInputs are files whose modification forces a recompile, such
	// as the manifest's mapping files
	ExtraInputs []string

	// Timeout bounds a single asc invocation. 0 disables it.
	Timeout time.Duration
}

// DefaultOptions are the asc flags test modules need: an explicit start
// function, an exported function table and the stub runtime
func DefaultOptions() []string {
	return []string{
		"--explicitStart",
		"--exportTable",
		"--runtime", "stub",
		"--optimize",
		"--debug",
	}
}

// DefaultConfig returns the default compiler configuration
func DefaultConfig() *Config {
	return &Config{
		LibsFolder:  constants.DefaultLibsFolder,
		TestsFolder: constants.DefaultTestsFolder,
		Options:     DefaultOptions(),
		Timeout:     5 * time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LibsFolder == "" {
		return fmt.Errorf("libs folder cannot be empty")
	}
	if c.TestsFolder == "" {
		return fmt.Errorf("tests folder cannot be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

// BinFolder returns the folder compiled modules are written to
func (c *Config) BinFolder() string {
	return filepath.Join(c.TestsFolder, constants.BinFolder)
}

// OutFile returns the module path of the source named name
func (c *Config) OutFile(name string) string {
	return filepath.Join(c.BinFolder(), filepath.FromSlash(name)+".wasm")
}
