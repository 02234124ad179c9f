package agent

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the accepted format for date payload fields.
const DateLayout = "2006-01-02"

// ValidationError reports a payload field that does not have the expected shape.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid payload field '%s': %s", e.Field, e.Message)
}

// Payload narrows fields of a task payload to concrete types.
type Payload map[string]any

// Int returns key as an integer, or def when the key is absent or null.
// JSON numbers must be integral; numeric strings are accepted.
func (p Payload) Int(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return integral(key, v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, &ValidationError{Field: key, Message: "must be an integer"}
		}
		return integral(key, f)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, &ValidationError{Field: key, Message: "must be an integer"}
		}
		return n, nil
	default:
		return 0, &ValidationError{Field: key, Message: fmt.Sprintf("must be an integer, got %T", raw)}
	}
}

// integral accepts floats with no fractional part, such as 2.0.
func integral(key string, v float64) (int, error) {
	if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, &ValidationError{Field: key, Message: "must be an integer"}
	}
	return int(v), nil
}

// Count returns key as a non-negative integer.
func (p Payload) Count(key string, def int) (int, error) {
	n, err := p.Int(key, def)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &ValidationError{Field: key, Message: "must not be negative"}
	}
	return n, nil
}

// String returns key as a string, or def when the key is absent or null.
func (p Payload) String(key, def string) (string, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &ValidationError{Field: key, Message: fmt.Sprintf("must be a string, got %T", raw)}
	}
	return s, nil
}

// Date returns key as a YYYY-MM-DD string, or def when absent.
func (p Payload) Date(key, def string) (string, error) {
	s, err := p.String(key, def)
	if err != nil {
		return "", err
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", &ValidationError{Field: key, Message: "must be a date in YYYY-MM-DD format"}
	}
	return s, nil
}
