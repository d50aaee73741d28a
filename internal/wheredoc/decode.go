package wheredoc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/wherec/internal/queryir"
)

// Format is a document format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("cannot infer document format from %q: use .json, .yaml, .yml or .cue", path)
}

// Error is a decoding error. Pos is "line:col" when the format reports it.
type Error struct {
	Format  Format
	Pos     string
	Message string
}

func (e *Error) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s document %s: %s", e.Format, e.Pos, e.Message)
	}
	return fmt.Sprintf("%s document: %s", e.Format, e.Message)
}

// Decode parses data in the given format.
func Decode(format Format, data []byte) (queryir.Node, error) {
	return decode(format, "", data)
}

// DecodeFile reads and parses the file at path; the format follows the
// extension.
func DecodeFile(path string) (queryir.Node, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading where document: %w", err)
	}
	return decode(format, path, data)
}

func decode(format Format, filename string, data []byte) (queryir.Node, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	case FormatCUE:
		return decodeCUE(filename, data)
	}
	return nil, fmt.Errorf("unknown document format %q", format)
}

// numberPattern is the JSON number grammar.
var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][-+]?[0-9]+)?$`)

// number converts numeric text to int64 or float64 when one of them holds
// the exact value. Anything else stays a json.Number so that large integers
// and long decimals reach SQL digit for digit.
func number(text string) (any, error) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	exact, _, err := apd.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid number %s", text)
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		short, _, err := apd.NewFromString(strconv.FormatFloat(f, 'g', -1, 64))
		if err == nil && short.Cmp(exact) == 0 {
			return f, nil
		}
	}
	return json.Number(text), nil
}

// field is one object entry in source order.
type field struct {
	key   string
	value queryir.Node
}

// object turns decoded entries into a node: the $raw and $value forms, or
// a *Map.
func object(fields []field) (queryir.Node, error) {
	if n, ok, err := operandForm(fields); ok || err != nil {
		return n, err
	}

	m := queryir.M()
	for _, f := range fields {
		key := queryir.ParseKey(f.key)
		if !key.IsOp() && strings.HasPrefix(f.key, "$") && !isAssocKey(f.key) {
			return nil, fmt.Errorf("unknown operator %s", f.key)
		}
		m.Set(key, f.value)
	}
	return m, nil
}

func operandForm(fields []field) (queryir.Node, bool, error) {
	var raw, value, typ queryir.Node
	for _, f := range fields {
		switch f.key {
		case "$raw":
			raw = f.value
		case "$value":
			value = f.value
		case "$type":
			typ = f.value
		default:
			return nil, false, nil
		}
	}

	switch {
	case raw != nil:
		if len(fields) != 1 {
			return nil, true, fmt.Errorf("$raw cannot be combined with other keys")
		}
		s, ok := scalarString(raw)
		if !ok {
			return nil, true, fmt.Errorf("$raw expects a string")
		}
		return queryir.Raw(s), true, nil
	case value != nil:
		v, ok := value.(queryir.Scalar)
		if !ok {
			return nil, true, fmt.Errorf("$value expects a scalar")
		}
		name := ""
		if typ != nil {
			if name, ok = scalarString(typ); !ok {
				return nil, true, fmt.Errorf("$type expects a type name")
			}
		}
		return queryir.Val(v.V, name), true, nil
	case typ != nil:
		return nil, true, fmt.Errorf("$type requires $value")
	}
	return nil, false, nil
}

func scalarString(n queryir.Node) (string, bool) {
	s, ok := n.(queryir.Scalar)
	if !ok {
		return "", false
	}
	str, ok := s.V.(string)
	return str, ok
}

// isAssocKey reports whether key has the "$assoc.attr$" shape, with
// optional suffixes after the closing "$".
func isAssocKey(key string) bool {
	end := strings.IndexByte(key[1:], '$')
	return end > 0 && strings.Contains(key[1:end+1], ".")
}
