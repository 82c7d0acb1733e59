package suite

import "time"

// Result is the outcome of one test
type Result struct {
	Passed  bool
	Logs    string
	Elapsed time.Duration
	// Err is the error the test body returned, if any
	Err error
}

// Failure is a failed test and its result
type Failure struct {
	Name   string
	Result *Result
}

// SuiteFailures lists the failed tests of one suite in run order
type SuiteFailures struct {
	Suite string
	Tests []Failure
}

// Report aggregates the results of one or more suites
type Report struct {
	Passed   int
	Failed   int
	Failures []SuiteFailures
}

// Total returns the number of tests run
func (r *Report) Total() int { return r.Passed + r.Failed }

// AllPassed reports whether no test failed
func (r *Report) AllPassed() bool { return r.Failed == 0 }

// Merge adds the counts and failures of o to r
func (r *Report) Merge(o *Report) {
	r.Passed += o.Passed
	r.Failed += o.Failed
	r.Failures = append(r.Failures, o.Failures...)
}

// FailedTests returns suite name -> failed test name -> result
func (r *Report) FailedTests() map[string]map[string]*Result {
	out := make(map[string]map[string]*Result, len(r.Failures))
	for _, sf := range r.Failures {
		byName, ok := out[sf.Suite]
		if !ok {
			byName = make(map[string]*Result)
			out[sf.Suite] = byName
		}
		for _, f := range sf.Tests {
			byName[f.Name] = f.Result
		}
	}
	return out
}
