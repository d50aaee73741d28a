package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/wherec/internal/ir"
)

// Snapshot is the golden form of a suite result: what each case compiled
// to, without pass/fail bookkeeping.
type Snapshot struct {
	Suite string
	Cases []CaseResult
}

// toCanonicalMap converts the snapshot to plain values for
// ir.MarshalCanonical.
func (s *Snapshot) toCanonicalMap() map[string]any {
	cases := make([]any, len(s.Cases))
	for i, c := range s.Cases {
		entry := map[string]any{
			"name":    c.Name,
			"dialect": c.Dialect,
			"sql":     c.SQL,
		}
		if len(c.Args) > 0 {
			entry["args"] = c.Args
		}
		if c.ErrorCode != "" {
			entry["error"] = c.ErrorCode
		} else if c.Err != nil {
			entry["error"] = c.Err.Error()
		}
		cases[i] = entry
	}
	return map[string]any{
		"suite": s.Suite,
		"cases": cases,
	}
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(r *Result) ([]byte, error) {
	snap := Snapshot{Suite: r.Suite, Cases: r.Cases}
	return ir.MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden runs a suite and compares its snapshot with the golden file
// testdata/golden/{suite.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
//
// Expectation failures inside the suite are returned in the Result; the
// golden comparison fails the test through goldie.
func RunWithGolden(t *testing.T, s *Suite, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := New(opts...).Run(context.Background(), s)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, s.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with the golden file named
// name.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
