package suite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/logrusorgru/aurora/v4"
	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/internal/logger"
	"github.com/0xmhha/matchstick-go/types"
)

// ruleWidth is the width of the rule printed under each suite name
const ruleWidth = 50

// Suite is one compiled test module to run
type Suite struct {
	Name   string
	Module Module
}

// Runner executes test trees strictly sequentially, depth first, and
// renders the report on a Console
type Runner struct {
	console *logger.Console
	log     *zap.Logger
	metrics *Metrics
}

// NewRunner creates a runner. log and metrics may be nil.
func NewRunner(console *logger.Console, log *zap.Logger, metrics *Metrics) *Runner {
	return &Runner{
		console: console,
		log:     logger.WithComponent(log, "runner"),
		metrics: metrics,
	}
}

// Run instantiates, builds and runs every suite in order. A harness-fatal
// error stops the run and is returned together with the partial report.
func (r *Runner) Run(ctx context.Context, suites []Suite) (*Report, error) {
	report := &Report{}
	r.console.Styled(aurora.RedFg|aurora.BrightFg, "\nIgniting tests 🔥")

	for _, s := range suites {
		if err := r.runModule(ctx, s, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (r *Runner) runModule(ctx context.Context, s Suite, report *Report) error {
	log := logger.WithSuite(r.log, s.Name)

	inst, err := s.Module.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiating suite %s: %w", s.Name, err)
	}
	defer func() {
		if err := inst.Close(ctx); err != nil {
			log.Warn("failed to close instance", zap.Error(err))
		}
	}()

	root, err := Build(ctx, inst, CloneDiscoverer{Module: s.Module, Metrics: r.metrics, Logger: log})
	if err != nil {
		return err
	}
	log.Debug("built test tree", zap.Int("tests", CountTests(root)))

	return r.RunSuite(ctx, s.Name, root, report)
}

// RunSuite runs the tree of one suite and adds its results to report
func (r *Runner) RunSuite(ctx context.Context, name string, root *Group, report *Report) error {
	r.metrics.RecordSuite()
	r.console.Styled(aurora.BlueFg|aurora.BrightFg, "\n%s", name)
	r.console.Default("%s", strings.Repeat("-", ruleWidth))

	r.console.Indent()
	defer r.console.ResetIndent()

	if err := r.callHooks(ctx, root.BeforeAll); err != nil {
		return err
	}

	var failures []Failure
	for _, t := range root.Testables {
		if err := r.runTestable(ctx, t, report, &failures); err != nil {
			return err
		}
	}

	if err := r.callHooks(ctx, root.AfterAll); err != nil {
		return err
	}

	if len(failures) > 0 {
		report.Failures = append(report.Failures, SuiteFailures{Suite: name, Tests: failures})
	}
	return nil
}

func (r *Runner) runTestable(ctx context.Context, t Testable, report *Report, failures *[]Failure) error {
	switch t := t.(type) {
	case *Test:
		result, err := r.RunTest(ctx, t)
		if err != nil {
			return err
		}
		if result.Passed {
			report.Passed++
		} else {
			report.Failed++
			*failures = append(*failures, Failure{Name: t.Name, Result: result})
		}

	case *Group:
		r.metrics.RecordGroup()
		if t.Name != "" {
			r.console.Styled(aurora.CyanFg|aurora.BoldFm|aurora.ItalicFm, "%s:", t.Name)
		}
		r.console.Indent()
		defer r.console.Dedent()

		if err := r.callHooks(ctx, t.BeforeAll); err != nil {
			return err
		}
		for _, child := range t.Testables {
			if err := r.runTestable(ctx, child, report, failures); err != nil {
				return err
			}
		}
		if err := r.callHooks(ctx, t.AfterAll); err != nil {
			return err
		}
	}
	return nil
}

// RunTest runs one test with its hooks. Output emitted while the body runs
// is captured into the result. Only harness-fatal errors are returned;
// a failing body is a failed result.
func (r *Runner) RunTest(ctx context.Context, t *Test) (*Result, error) {
	if err := r.callHooks(ctx, t.Before); err != nil {
		return nil, err
	}

	r.console.Accumulate()
	r.console.Indent()
	start := time.Now()

	callErr := t.Func.Call(ctx)
	elapsed := time.Since(start)

	if types.IsFatal(callErr) {
		r.console.Dedent()
		if logs := r.console.Flush(); logs != "" {
			r.console.Raw(logs)
		}
		return nil, callErr
	}

	var passed bool
	switch {
	case callErr == nil && t.ShouldFail:
		r.console.Error("Expected test to fail but it passed successfully!")
	case callErr == nil:
		passed = true
	case t.ShouldFail:
		passed = true
	default:
		r.console.Indent()
		r.console.Debug("%v", callErr)
		r.console.Dedent()
	}

	r.console.Dedent()
	logs := r.console.Flush()

	msg := fmt.Sprintf("%s - %s", t.Name,
		r.console.Paint(fmt.Sprintf("%.3fms", float64(elapsed.Microseconds())/1000), aurora.BlueFg|aurora.BrightFg))
	if passed {
		r.console.Success("%s", msg)
		if logs != "" {
			r.console.Raw(logs)
		}
	} else {
		r.console.Error("%s", msg)
	}

	if err := r.callHooks(ctx, t.After); err != nil {
		return nil, err
	}

	r.metrics.RecordTest(passed, elapsed)
	r.log.Debug("test finished",
		zap.String("test", t.Name),
		zap.Bool("passed", passed),
		zap.Duration("elapsed", elapsed),
	)

	return &Result{Passed: passed, Logs: logs, Elapsed: elapsed, Err: callErr}, nil
}

func (r *Runner) callHooks(ctx context.Context, hooks []Callable) error {
	for _, h := range hooks {
		if err := h.Call(ctx); err != nil {
			r.console.ResetIndent()
			return types.Fatalf("Unexpected error upon calling hook: %w", err)
		}
	}
	r.metrics.RecordHooks(len(hooks))
	return nil
}

// Summarize prints the failed tests and the totals of report
func (r *Runner) Summarize(report *Report) {
	r.console.ResetIndent()

	if report.AllPassed() {
		r.console.Styled(aurora.GreenFg, "\nAll %d tests passed! 😎", report.Passed)
		return
	}

	r.console.Styled(aurora.RedFg, "\nFailed tests:\n")
	for _, sf := range report.Failures {
		r.console.Styled(aurora.BlueFg|aurora.BrightFg|aurora.BoldFm, "%s", sf.Suite)
		r.console.Indent()
		for _, f := range sf.Tests {
			r.console.Styled(aurora.RedFg|aurora.BoldFm, "%s", f.Name)
			if f.Result.Logs != "" {
				r.console.Raw(f.Result.Logs)
			}
		}
		r.console.Dedent()
	}

	r.console.Default("%s, %s, %d total",
		r.console.Paint(fmt.Sprintf("%d failed", report.Failed), aurora.RedFg),
		r.console.Paint(fmt.Sprintf("%d passed", report.Passed), aurora.GreenFg),
		report.Total(),
	)
}
