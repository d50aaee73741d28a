package harness

import "fmt"

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name    string `json:"name"`
	Dialect string `json:"dialect"`

	// SQL and Args are the compiled statement. Args is nil unless the case
	// binds parameters.
	SQL  string `json:"sql"`
	Args []any  `json:"args,omitempty"`

	// ErrorCode is set when compilation failed with a CompileError.
	ErrorCode string `json:"error,omitempty"`

	// Err is any failure before or during compilation.
	Err error `json:"-"`

	// Failures lists every unmet expectation. Empty when the case passed.
	Failures []string `json:"failures,omitempty"`
}

// Pass reports whether every expectation was met.
func (r *CaseResult) Pass() bool {
	return len(r.Failures) == 0
}

func (r *CaseResult) fail(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Result is the outcome of a suite.
type Result struct {
	Suite string `json:"suite"`

	// Pass is true if every case passed.
	Pass bool `json:"pass"`

	// Cases holds one result per case, in suite order.
	Cases []CaseResult `json:"cases"`
}

// NewResult creates an empty passing result.
func NewResult(suite string) *Result {
	return &Result{
		Suite: suite,
		Pass:  true,
		Cases: []CaseResult{},
	}
}

// Add appends a case result and updates Pass.
func (r *Result) Add(cr CaseResult) {
	r.Cases = append(r.Cases, cr)
	if !cr.Pass() {
		r.Pass = false
	}
}

// Failures returns every failure prefixed with its case name.
func (r *Result) Failures() []string {
	var out []string
	for _, c := range r.Cases {
		for _, f := range c.Failures {
			out = append(out, fmt.Sprintf("%s/%s: %s", r.Suite, c.Name, f))
		}
	}
	return out
}

// Counts returns the number of passed and failed cases.
func (r *Result) Counts() (passed, failed int) {
	for _, c := range r.Cases {
		if c.Pass() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
