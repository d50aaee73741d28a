package wheredoc

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/wherec/internal/queryir"
)

// decodeCUE evaluates a CUE document. A top-level "where" field holds the
// tree when present, so that lists and scalars can be expressed; otherwise
// the whole document is the tree.
func decodeCUE(filename string, data []byte) (queryir.Node, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, &Error{Format: FormatCUE, Message: err.Error()}
	}
	if w := v.LookupPath(cue.ParsePath("where")); w.Exists() {
		v = w
	}
	return cueValue(v)
}

func cueValue(v cue.Value) (queryir.Node, error) {
	fail := func(format string, args ...any) error {
		e := &Error{Format: FormatCUE, Message: fmt.Sprintf(format, args...)}
		if pos := v.Pos(); pos.IsValid() {
			e.Pos = fmt.Sprintf("%d:%d", pos.Line(), pos.Column())
		}
		return e
	}
	if err := v.Err(); err != nil {
		return nil, fail("%v", err)
	}

	switch v.Kind() {
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, fail("%v", err)
		}
		var fields []field
		for iter.Next() {
			n, err := cueValue(iter.Value())
			if err != nil {
				return nil, err
			}
			fields = append(fields, field{key: iter.Selector().Unquoted(), value: n})
		}
		node, err := object(fields)
		if err != nil {
			return nil, fail("%v", err)
		}
		return node, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, fail("%v", err)
		}
		list := queryir.List{}
		for iter.Next() {
			n, err := cueValue(iter.Value())
			if err != nil {
				return nil, err
			}
			list = append(list, n)
		}
		return list, nil
	case cue.NullKind:
		return queryir.Null, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, fail("%v", err)
		}
		return queryir.Scalar{V: b}, nil
	case cue.IntKind, cue.FloatKind:
		raw, err := v.MarshalJSON()
		if err != nil {
			return nil, fail("%v", err)
		}
		n, err := number(string(raw))
		if err != nil {
			return nil, fail("%v", err)
		}
		return queryir.Scalar{V: n}, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, fail("%v", err)
		}
		return queryir.Scalar{V: s}, nil
	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, fail("%v", err)
		}
		return queryir.Scalar{V: b}, nil
	}
	return nil, fail("value must be concrete")
}
