// Package coverage reports which manifest handlers the compiled test
// modules call, by scanning their text form for call instructions.
package coverage

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/logrusorgru/aurora/v4"
	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/internal/constants"
	"github.com/0xmhha/matchstick-go/internal/logger"
	"github.com/0xmhha/matchstick-go/manifest"
)

// Config locates the modules and the wasm2wat binary
type Config struct {
	LibsFolder string
	BinFolder  string
}

// Handler is one handler and whether any test module calls it
type Handler struct {
	Name   string
	Tested bool
}

// Source groups the handlers of one data source or template
type Source struct {
	Name     string
	Handlers []Handler
}

// Called returns the number of tested handlers
func (s Source) Called() int {
	n := 0
	for _, h := range s.Handlers {
		if h.Tested {
			n++
		}
	}
	return n
}

// Percentage returns the share of tested handlers, 0 without handlers
func (s Source) Percentage() float64 {
	return percentage(s.Called(), len(s.Handlers))
}

// Report is the coverage of every manifest source
type Report struct {
	Sources []Source
}

// Called returns the number of tested handlers across all sources
func (r *Report) Called() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Called()
	}
	return n
}

// Total returns the number of handlers across all sources
func (r *Report) Total() int {
	n := 0
	for _, s := range r.Sources {
		n += len(s.Handlers)
	}
	return n
}

// Percentage returns the global share of tested handlers
func (r *Report) Percentage() float64 {
	return percentage(r.Called(), r.Total())
}

func percentage(called, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(called) * 100 / float64(total)
}

// Generator converts modules to text and builds reports
type Generator struct {
	config Config
	exec   string
	log    *zap.Logger
}

// NewGenerator creates a generator. log may be nil.
func NewGenerator(config Config, log *zap.Logger) *Generator {
	return &Generator{
		config: config,
		exec:   filepath.Join(config.LibsFolder, constants.Wasm2WatBinary),
		log:    logger.WithComponent(log, "coverage"),
	}
}

// Generate converts every module under the bin folder to .wat and checks
// each handler of sources against all of them
func (g *Generator) Generate(ctx context.Context, sources []manifest.Source) (*Report, error) {
	watFiles, err := g.convert(ctx)
	if err != nil {
		return nil, err
	}

	wats := make([]string, 0, len(watFiles))
	for _, f := range watFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("couldn't read wat file %s: %w", f, err)
		}
		wats = append(wats, string(data))
	}

	return Build(sources, wats), nil
}

// Build checks each handler of sources against the module texts in wats
func Build(sources []manifest.Source, wats []string) *Report {
	report := &Report{}
	for _, src := range sources {
		cov := Source{Name: src.Name}
		for _, h := range src.HandlerNames() {
			tested := false
			for _, wat := range wats {
				if IsCalled(wat, h) {
					tested = true
					break
				}
			}
			cov.Handlers = append(cov.Handlers, Handler{Name: h, Tested: tested})
		}
		report.Sources = append(report.Sources, cov)
	}
	return report
}

// IsCalled reports whether wat holds a call instruction naming handler
func IsCalled(wat, handler string) bool {
	return regexp.MustCompile(`call.+` + regexp.QuoteMeta(handler)).MatchString(wat)
}

// convert runs wasm2wat on every module and returns the .wat paths
func (g *Generator) convert(ctx context.Context) ([]string, error) {
	modules, err := collectWasmFiles(g.config.BinFolder)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(modules))
	for _, m := range modules {
		dest := strings.TrimSuffix(m, filepath.Ext(m)) + ".wat"

		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, g.exec, m, "-o", dest)
		cmd.Stderr = &stderr
		g.log.Debug("running wasm2wat", zap.String("module", m))
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("wasm2wat failed for %s: %w: %s", m, err, stderr.String())
		}
		out = append(out, dest)
	}
	return out, nil
}

func collectWasmFiles(folder string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".wasm") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not get wasm files from %s: %w", folder, err)
	}
	sort.Strings(files)
	return files, nil
}

// Print renders the report on console
func (r *Report) Print(console *logger.Console) {
	console.Styled(aurora.CyanFg, "Generating coverage report 📝\n")

	for _, s := range r.Sources {
		console.Default("Handlers for source '%s':", s.Name)
		for _, h := range s.Handlers {
			if h.Tested {
				console.Styled(aurora.GreenFg, "Handler '%s' is tested.", h.Name)
			} else {
				console.Styled(aurora.RedFg, "Handler '%s' is not tested.", h.Name)
			}
		}
		console.Default("Test coverage: %.1f%% (%d/%d handlers).\n", s.Percentage(), s.Called(), len(s.Handlers))
	}

	console.Default("Global test coverage: %.1f%% (%d/%d handlers).\n", r.Percentage(), r.Called(), r.Total())
}
