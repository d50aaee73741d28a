package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/wherec/internal/dialect"
	"github.com/roach88/wherec/internal/querysql"
)

// DefaultDialect is used when neither the suite nor the case names one.
const DefaultDialect = "postgres"

// Suite is a named list of compilation cases sharing defaults.
type Suite struct {
	// Name identifies the suite and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the suite covers.
	Description string `yaml:"description"`

	// Models is a directory of CUE model definitions.
	// LoadSuite resolves it relative to the suite file.
	Models string `yaml:"models,omitempty"`

	// Dialect is the default dialect of every case.
	Dialect string `yaml:"dialect,omitempty"`

	// Model is the default model of every case.
	Model string `yaml:"model,omitempty"`

	// Cases run in order.
	Cases []Case `yaml:"cases"`
}

// Case is one compilation and its expected outcome.
type Case struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Dialect and Model override the suite defaults.
	Dialect string `yaml:"dialect,omitempty"`
	Model   string `yaml:"model,omitempty"`

	// Prefix qualifies bare attribute columns.
	Prefix string `yaml:"prefix,omitempty"`

	// Bind compiles values to placeholders and collects the arguments.
	Bind bool `yaml:"bind,omitempty"`

	// NoValidate renders values that do not fit their declared type by
	// their runtime shape instead of failing.
	NoValidate bool `yaml:"no_validate,omitempty"`

	// Replacements are injected into ":name" placeholders of raw fragments.
	Replacements map[string]any `yaml:"replacements,omitempty"`

	// Where is the where document.
	Where yaml.Node `yaml:"where"`

	// SQL is the expected fragment. Nil when the case expects an error.
	SQL *string `yaml:"sql,omitempty"`

	// Args are the expected bind arguments (only with Bind).
	Args []any `yaml:"args,omitempty"`

	// Error is the expected compilation error code.
	Error string `yaml:"error,omitempty"`

	// Verify checks the compiled fragment against the dialect.
	Verify bool `yaml:"verify,omitempty"`
}

// DialectName returns the dialect the case compiles for.
func (c *Case) DialectName(s *Suite) string {
	switch {
	case c.Dialect != "":
		return c.Dialect
	case s.Dialect != "":
		return s.Dialect
	}
	return DefaultDialect
}

// ModelName returns the model the case compiles against, or "".
func (c *Case) ModelName(s *Suite) string {
	if c.Model != "" {
		return c.Model
	}
	return s.Model
}

// LoadSuite reads and parses a suite YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	// Strict field validation catches typos like "case:" vs "cases:".
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if suite.Models != "" && !filepath.IsAbs(suite.Models) {
		suite.Models = filepath.Join(filepath.Dir(path), suite.Models)
	}

	if err := ValidateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite %s: %w", path, err)
	}
	return &suite, nil
}

// LoadSuites loads every .yaml and .yml suite in dir, sorted by file name.
func LoadSuites(dir string) ([]*Suite, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read suites directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no suite files found in %s", dir)
	}

	suites := make([]*Suite, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadSuite(p)
		if err != nil {
			return nil, err
		}
		if prev, dup := names[s.Name]; dup {
			return nil, fmt.Errorf("suite name %q is used by both %s and %s", s.Name, prev, p)
		}
		names[s.Name] = p
		suites = append(suites, s)
	}
	return suites, nil
}

// ValidateSuite checks that required fields are present and valid.
func ValidateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	if s.Dialect != "" {
		if _, err := dialect.ByName(s.Dialect); err != nil {
			return err
		}
	}
	if s.Models != "" {
		if info, err := os.Stat(s.Models); err != nil || !info.IsDir() {
			return fmt.Errorf("models directory not found: %s", s.Models)
		}
	}

	seen := make(map[string]bool, len(s.Cases))
	for i := range s.Cases {
		c := &s.Cases[i]
		if err := validateCase(i, c); err != nil {
			return err
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

func validateCase(index int, c *Case) error {
	if c.Name == "" {
		return fmt.Errorf("cases[%d]: name is required", index)
	}
	if c.Where.Kind == 0 {
		return fmt.Errorf("cases[%d] %q: where is required", index, c.Name)
	}
	if c.Dialect != "" {
		if _, err := dialect.ByName(c.Dialect); err != nil {
			return fmt.Errorf("cases[%d] %q: %w", index, c.Name, err)
		}
	}

	switch {
	case c.SQL == nil && c.Error == "":
		return fmt.Errorf("cases[%d] %q: one of sql or error is required", index, c.Name)
	case c.SQL != nil && c.Error != "":
		return fmt.Errorf("cases[%d] %q: sql and error are mutually exclusive", index, c.Name)
	}
	if c.Error != "" && !knownCode(c.Error) {
		return fmt.Errorf("cases[%d] %q: unknown error code %q", index, c.Name, c.Error)
	}
	if len(c.Args) > 0 && !c.Bind {
		return fmt.Errorf("cases[%d] %q: args require bind: true", index, c.Name)
	}
	if c.Verify && c.Error != "" {
		return fmt.Errorf("cases[%d] %q: verify needs a successful compilation", index, c.Name)
	}
	return nil
}

var errorCodes = []querysql.ErrorCode{
	querysql.ErrMalformedInput,
	querysql.ErrUnsupportedOperator,
	querysql.ErrUnsupportedFeature,
	querysql.ErrUndefinedValue,
	querysql.ErrTypeValidation,
}

func knownCode(code string) bool {
	for _, c := range errorCodes {
		if string(c) == code {
			return true
		}
	}
	return false
}
