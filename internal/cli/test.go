package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/alitto/pond"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/roach88/wherec/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // suite file filter (glob pattern)
	Jobs   int    // suite files run concurrently
}

// SuiteResult holds the result of one suite file.
type SuiteResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Passed int      `json:"passed"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Suites []SuiteResult `json:"suites"`
	Passed int           `json:"passed"`
	Failed int           `json:"failed"`
	Total  int           `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <suites-dir>",
		Short: "Run compilation suites",
		Long: `Run the YAML compilation suites in a directory.

Each case compiles a where tree and checks the SQL, bind arguments or error
code it expects. When <suites-dir>/golden/<suite>.golden exists the suite's
output must also match it byte for byte.

Exit codes:
  0 - All suites passed
  1 - One or more suites failed
  2 - Command error (invalid paths, malformed suites, etc.)

Examples:
  wherec test ./suites
  wherec test ./suites --filter "users*"
  wherec test ./suites --update
  wherec test ./suites --jobs 1
  wherec test ./suites --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter suite files by glob pattern")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.NumCPU(), "number of suite files run concurrently")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, suitesDir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if info, err := os.Stat(suitesDir); err != nil || !info.IsDir() {
		return formatter.CommandError(ErrCodeReadFailed, fmt.Sprintf("suites directory not found: %s", suitesDir))
	}

	if opts.Jobs < 1 {
		return formatter.CommandError(ErrCodeBadFlag, "--jobs must be at least 1")
	}

	files, err := findSuiteFiles(suitesDir, opts.Filter)
	if err != nil {
		return formatter.CommandError(ErrCodeBadFlag, err.Error())
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(formatter, TestResult{Suites: []SuiteResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No suites found.")
		return nil
	}

	h := harness.New(harness.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))

	// Each task writes only its own slot; results are reported in file order.
	suites := make([]SuiteResult, len(files))
	pool := pond.New(min(opts.Jobs, len(files)), len(files), pond.Context(ctx))
	for i, file := range files {
		pool.Submit(func() {
			suites[i] = runSuiteFile(ctx, h, file, opts)
		})
	}
	pool.StopAndWait()

	result := TestResult{
		Suites: make([]SuiteResult, 0, len(files)),
		Total:  len(files),
	}
	for i, sr := range suites {
		if sr.File == "" {
			// Cancelled before the task ran.
			reason := "not run"
			if err := context.Cause(ctx); err != nil {
				reason += ": " + err.Error()
			}
			sr = SuiteResult{Name: filepath.Base(files[i]), File: files[i], Errors: []string{reason}}
		}
		formatter.VerboseLog("Ran suite file %s", sr.File)
		if opts.Format != "json" {
			printSuiteResult(cmd, sr, opts.Update)
		}
		result.Suites = append(result.Suites, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(cmd, result)
}

// findSuiteFiles returns the .yaml and .yml files directly in dir whose
// base name (without extension) matches filter, sorted.
func findSuiteFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			if matched, _ := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext)); !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// runSuiteFile loads, runs and golden-checks one suite file.
func runSuiteFile(ctx context.Context, h *harness.Harness, file string, opts *TestOptions) SuiteResult {
	sr := SuiteResult{Name: filepath.Base(file), File: file}

	suite, err := harness.LoadSuite(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("load error: %v", err)}
		return sr
	}
	sr.Name = suite.Name

	result, err := h.Run(ctx, suite)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution error: %v", err)}
		return sr
	}
	sr.Passed, sr.Failed = result.Counts()
	sr.Errors = result.Failures()

	snapshot, err := harness.MarshalSnapshot(result)
	if err != nil {
		sr.Errors = append(sr.Errors, fmt.Sprintf("snapshot error: %v", err))
		return sr
	}

	goldenPath := goldenFilePath(file)
	if opts.Update {
		if err := writeGoldenFile(goldenPath, snapshot); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
		}
	} else if golden, err := os.ReadFile(goldenPath); err == nil {
		if !bytes.Equal(golden, snapshot) {
			sr.Errors = append(sr.Errors,
				"output does not match golden file (run with --update to regenerate)",
				"diff: "+goldenDiff(string(golden), string(snapshot)))
		}
	} else if !os.IsNotExist(err) {
		sr.Errors = append(sr.Errors, fmt.Sprintf("golden comparison failed: %v", err))
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

// goldenFilePath returns the path to the golden file for a suite file.
func goldenFilePath(suiteFile string) string {
	dir := filepath.Dir(suiteFile)
	base := filepath.Base(suiteFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// goldenDiff renders the changes from want to got inline: removed text as
// [-text-] and added text as {+text+}, with long unchanged runs elided.
func goldenDiff(want, got string) string {
	const keep = 20

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, false))

	var b strings.Builder
	for i, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		default:
			r := []rune(d.Text)
			first, last := i == 0, i == len(diffs)-1
			switch {
			case first && !last && len(r) > keep:
				b.WriteString("..." + string(r[len(r)-keep:]))
			case last && !first && len(r) > keep:
				b.WriteString(string(r[:keep]) + "...")
			case !first && !last && len(r) > 2*keep:
				b.WriteString(string(r[:keep]) + "..." + string(r[len(r)-keep:]))
			default:
				b.WriteString(d.Text)
			}
		}
	}
	return b.String()
}

func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func printSuiteResult(cmd *cobra.Command, sr SuiteResult, updated bool) {
	w := cmd.OutOrStdout()
	if !sr.Pass {
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return
	}
	suffix := ""
	if updated {
		suffix = ", golden updated"
	}
	fmt.Fprintf(w, "✓ %s (%d case(s)%s)\n", sr.Name, sr.Passed, suffix)
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}
	if result.Failed > 0 {
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d suite(s) failed", result.Failed),
		}
	}

	if err := formatter.Report(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d suite(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the summary line.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d suite(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All suites passed")
	return nil
}
