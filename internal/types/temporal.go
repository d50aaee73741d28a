package types

import (
	"strings"
	"time"

	"github.com/roach88/wherec/internal/dialect"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// Date is a timestamp (with time zone where the dialect has one).
type Date struct{}

func (Date) Kind() Kind { return KindDate }

func (Date) SQL(d dialect.Dialect) string {
	switch d.Name() {
	case dialect.Postgres:
		return "TIMESTAMP WITH TIME ZONE"
	case dialect.ANSI:
		return "TIMESTAMP"
	default:
		return "DATETIME"
	}
}

func (Date) Validate(v any) error {
	if _, ok := parseTimestamp(v); !ok {
		return invalid(v, "date", "")
	}
	return nil
}

func (Date) Literal(v any, d dialect.Dialect) (string, error) {
	t, ok := parseTimestamp(v)
	if !ok {
		return "", invalid(v, "date", "")
	}
	return d.EscapeString(formatTimestamp(t, d)), nil
}

func (Date) BindValue(v any, _ dialect.Dialect) (any, error) {
	t, ok := parseTimestamp(v)
	if !ok {
		return nil, invalid(v, "date", "")
	}
	return t.UTC(), nil
}

// formatTimestamp renders t in UTC with millisecond precision. MySQL
// DATETIME has no zone suffix.
func formatTimestamp(t time.Time, d dialect.Dialect) string {
	t = t.UTC()
	if d.Name() == dialect.MySQL {
		return t.Format("2006-01-02 15:04:05.000")
	}
	return t.Format("2006-01-02 15:04:05.000 -07:00")
}

// DateOnly is a calendar date without time.
type DateOnly struct{}

func (DateOnly) Kind() Kind { return KindDateOnly }

func (DateOnly) SQL(dialect.Dialect) string { return "DATE" }

func parseDateOnly(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.DateOnly), true
	case string:
		s := strings.TrimSpace(t)
		if _, err := time.Parse(time.DateOnly, s); err == nil {
			return s, true
		}
		if ts, ok := parseTimestamp(s); ok {
			return ts.Format(time.DateOnly), true
		}
	}
	return "", false
}

func (DateOnly) Validate(v any) error {
	if _, ok := parseDateOnly(v); !ok {
		return invalid(v, "dateonly", "")
	}
	return nil
}

func (DateOnly) Literal(v any, d dialect.Dialect) (string, error) {
	s, ok := parseDateOnly(v)
	if !ok {
		return "", invalid(v, "dateonly", "")
	}
	return d.EscapeString(s), nil
}

func (DateOnly) BindValue(v any, _ dialect.Dialect) (any, error) {
	s, ok := parseDateOnly(v)
	if !ok {
		return nil, invalid(v, "dateonly", "")
	}
	return s, nil
}

// Time is a time of day.
type Time struct{}

func (Time) Kind() Kind { return KindTime }

func (Time) SQL(dialect.Dialect) string { return "TIME" }

var timeLayouts = []string{"15:04:05.999999999", "15:04:05", "15:04"}

func parseTimeOfDay(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.Format("15:04:05"), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if _, err := time.Parse(layout, s); err == nil {
				return s, true
			}
		}
	}
	return "", false
}

func (Time) Validate(v any) error {
	if _, ok := parseTimeOfDay(v); !ok {
		return invalid(v, "time", "")
	}
	return nil
}

func (Time) Literal(v any, d dialect.Dialect) (string, error) {
	s, ok := parseTimeOfDay(v)
	if !ok {
		return "", invalid(v, "time", "")
	}
	return d.EscapeString(s), nil
}

func (Time) BindValue(v any, _ dialect.Dialect) (any, error) {
	s, ok := parseTimeOfDay(v)
	if !ok {
		return nil, invalid(v, "time", "")
	}
	return s, nil
}
