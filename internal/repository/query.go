package repository

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParamType tags a bound parameter with the type the store expects.
type ParamType int

const (
	TypeString ParamType = iota
	TypeInt
	TypeFloat
	TypeDate
	TypeTimestamp
	TypeBool
)

func (t ParamType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Query describes one statement: SQL, ordered parameters and their type tags.
//
// Params and Types must have the same length.
type Query struct {
	SQL    string
	Params []any
	Types  []ParamType

	// ExpectRows, when set, is the affected-row count a write must report.
	ExpectRows *int64

	// EmptyMessage, when set, turns an empty SELECT result into an error.
	EmptyMessage string

	// ErrorMessage is the StorageError message used for driver faults.
	ErrorMessage string
}

// ExpectRows is a helper for Query.ExpectRows.
func ExpectRows(n int64) *int64 {
	return &n
}

const defaultErrorMessage = "Query execution failed."

func (q Query) errorMessage() string {
	if q.ErrorMessage == "" {
		return defaultErrorMessage
	}
	return q.ErrorMessage
}

// bind converts every parameter to the Go type the drivers expect for its tag.
func (q Query) bind() ([]any, error) {
	if len(q.Params) != len(q.Types) {
		return nil, fmt.Errorf("%d parameters but %d type tags", len(q.Params), len(q.Types))
	}
	args := make([]any, len(q.Params))
	for i, p := range q.Params {
		v, err := bindParam(p, q.Types[i])
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i+1, err)
		}
		args[i] = v
	}
	return args, nil
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	time.DateTime,
}

func bindParam(v any, t ParamType) (any, error) {
	if v == nil {
		return nil, nil
	}
	if p, ok := v.(*string); ok {
		if p == nil {
			return nil, nil
		}
		v = *p
	}

	switch t {
	case TypeString:
		// Explicit schedule rows arrive as decoded JSON, where a numeric
		// program id is a float64.
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		case float32:
			return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
		case int:
			return strconv.Itoa(x), nil
		case int32:
			return strconv.FormatInt(int64(x), 10), nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		case bool:
			return strconv.FormatBool(x), nil
		case fmt.Stringer:
			return x.String(), nil
		}
	case TypeInt:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int8:
			return int64(x), nil
		case int16:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		case uint8:
			return int64(x), nil
		case uint16:
			return int64(x), nil
		case uint32:
			return int64(x), nil
		case float64:
			if x == math.Trunc(x) {
				return int64(x), nil
			}
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot bind %q as %s", x, t)
			}
			return n, nil
		}
	case TypeFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot bind %q as %s", x, t)
			}
			return f, nil
		}
	case TypeDate, TypeTimestamp:
		var ts time.Time
		switch x := v.(type) {
		case time.Time:
			ts = x
		case string:
			parsed, err := parseTime(x)
			if err != nil {
				return nil, fmt.Errorf("cannot bind %q as %s", x, t)
			}
			ts = parsed
		default:
			return nil, fmt.Errorf("cannot bind %T as %s", v, t)
		}
		if t == TypeDate {
			y, m, d := ts.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
		return ts.UTC(), nil
	case TypeBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int:
			if x == 0 || x == 1 {
				return x == 1, nil
			}
		case int64:
			if x == 0 || x == 1 {
				return x == 1, nil
			}
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err != nil {
				return nil, fmt.Errorf("cannot bind %q as %s", x, t)
			}
			return b, nil
		}
	}
	return nil, fmt.Errorf("cannot bind %T as %s", v, t)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
