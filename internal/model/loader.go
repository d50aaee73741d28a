package model

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/wherec/internal/types"
)

// Model definitions live under a top-level "model" struct, one field per
// model. Attributes are either a bare type name or a struct:
//
//	model: User: {
//		table: "users"
//		attributes: {
//			id:    {type: "INTEGER", primaryKey: true}
//			email: {type: "VARCHAR(255)", field: "email_address", allowNull: false}
//			attrs: {type: "HSTORE", opaque: true}
//			name:  "TEXT"
//		}
//		associations: profile: {kind: "hasOne", target: "Profile"}
//	}
//
// Field order is declaration order.

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Loader error codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeDefinition  = "E100" // Malformed model definition
)

// LoadResult contains the models loaded from a directory.
type LoadResult struct {
	Registry  *Registry
	CUEValue  cue.Value
	FileCount int
}

// LoadError is an error found while loading model definitions.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads every model defined in the CUE package in dir.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("models directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing models directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	reg, errs := LoadValue(value, mode)
	return &LoadResult{Registry: reg, CUEValue: value, FileCount: len(cueFiles)}, errs
}

// LoadSource compiles a single CUE source and loads its models.
func LoadSource(filename, src string, mode LoadMode) (*Registry, []error) {
	value := cuecontext.New().CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	return LoadValue(value, mode)
}

// LoadValue registers every field of the top-level "model" struct of v.
func LoadValue(v cue.Value, mode LoadMode) (*Registry, []error) {
	reg := NewRegistry()
	var errs []error

	models := v.LookupPath(cue.ParsePath("model"))
	if !models.Exists() {
		return reg, []error{&LoadError{Code: ErrCodeGeneric, Message: "no models found", Pos: v.Pos()}}
	}

	iter, err := models.Fields()
	if err != nil {
		return reg, []error{formatCUEError(err)}
	}
	for iter.Next() {
		m, err := CompileModel(iter.Selector().Unquoted(), iter.Value())
		if err == nil {
			if addErr := reg.Add(m); addErr != nil {
				err = &LoadError{Code: ErrCodeDefinition, Message: addErr.Error(), Pos: iter.Value().Pos()}
			}
		}
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return reg, errs
			}
		}
	}
	return reg, errs
}

// CompileModel builds a model named name from its CUE definition.
func CompileModel(name string, v cue.Value) (*Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	table := name
	if tv := v.LookupPath(cue.ParsePath("table")); tv.Exists() {
		s, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		table = s
	}
	m := New(name, table)
	m.table = table // an explicit empty table is reported by Validate
	m.pos = v.Pos()

	attrs := v.LookupPath(cue.ParsePath("attributes"))
	if !attrs.Exists() {
		return nil, definitionError(v, "model %s: attributes are required", name)
	}
	iter, err := attrs.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		attr, err := compileAttribute(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		if err := m.AddAttribute(attr); err != nil {
			return nil, definitionError(iter.Value(), "%v", err)
		}
	}

	assocs := v.LookupPath(cue.ParsePath("associations"))
	if assocs.Exists() {
		iter, err := assocs.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			av := iter.Value()
			kind, err := stringField(av, "kind")
			if err != nil {
				return nil, err
			}
			target, err := stringField(av, "target")
			if err != nil {
				return nil, err
			}
			// The kind is checked by Validate so that it is reported with the
			// other definition problems.
			if err := m.addAssociation(Association{As: iter.Selector().Unquoted(), Kind: AssociationKind(kind), Target: target}); err != nil {
				return nil, definitionError(av, "%v", err)
			}
		}
	}
	return m, nil
}

func compileAttribute(name string, v cue.Value) (Attribute, error) {
	attr := Attribute{Name: name, AllowNull: true}

	if v.Kind() == cue.StringKind {
		s, err := v.String()
		if err != nil {
			return attr, formatCUEError(err)
		}
		attr.TypeName = s
	} else {
		s, err := stringField(v, "type")
		if err != nil {
			return attr, err
		}
		attr.TypeName = s
		if attr.Field, err = optionalString(v, "field"); err != nil {
			return attr, err
		}
		for label, dst := range map[string]*bool{
			"primaryKey": &attr.PrimaryKey,
			"allowNull":  &attr.AllowNull,
			"opaque":     &attr.Opaque,
		} {
			fv := v.LookupPath(cue.ParsePath(label))
			if !fv.Exists() {
				continue
			}
			b, err := fv.Bool()
			if err != nil {
				return attr, formatCUEError(err)
			}
			*dst = b
		}
	}

	// Unknown names stay Named here; Validate reports them unless the
	// attribute is marked opaque.
	if t, err := types.Parse(attr.TypeName); err == nil {
		attr.Type = t
	} else {
		attr.Type = types.Named{Name: attr.TypeName}
	}
	attr.Pos = v.Pos()
	return attr, nil
}

func stringField(v cue.Value, label string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(label))
	if !fv.Exists() {
		return "", definitionError(v, "%s is required", label)
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, label string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(label))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func definitionError(v cue.Value, format string, args ...any) *LoadError {
	return &LoadError{Code: ErrCodeDefinition, Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: ErrCodeBuildFailed, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
