package types

import (
	"fmt"

	"github.com/roach88/wherec/internal/dialect"
)

// ValidationError reports a value that does not fit its type.
type ValidationError struct {
	Value  any
	Type   string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s is not a valid %s", describeValue(e.Value), e.Type)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func invalid(v any, typ, reason string) error {
	return &ValidationError{Value: v, Type: typ, Reason: reason}
}

// FeatureError reports a type the dialect cannot render.
type FeatureError struct {
	Type    string
	Dialect dialect.Name
	Feature dialect.Feature
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s requires %s, which dialect %s does not support", e.Type, e.Feature, e.Dialect)
}

func describeValue(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case []byte:
		return fmt.Sprintf("bytes(%d)", len(t))
	case nil:
		return "null"
	}
	return fmt.Sprintf("%v (%T)", v, v)
}
