package scenario

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mselser95/betview/internal/engine"
)

var errNotNumeric = errors.New("not a number")

// Form holds the raw values of one scenario form, keyed by widget name.
// List selections are []string (or []any once decoded from JSON), flags are
// bools and text fields are strings.
type Form map[string]any

// Selected returns the first selected item of a list widget.
func (f Form) Selected(key string) (string, error) {
	items := f.Selections(key)
	if len(items) == 0 || items[0] == "" {
		return "", fmt.Errorf("%w: %s", ErrSelectionMissing, key)
	}
	return items[0], nil
}

// Selections returns every selected item of a list widget. A plain string
// counts as a single selection.
func (f Form) Selections(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Float parses a numeric text field.
func (f Form) Float(key string) (float64, error) {
	raw := f[key]
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, &InputError{Key: key, Value: raw, Err: err}
		}
		return n, nil
	default:
		return 0, &InputError{Key: key, Value: raw, Err: errNotNumeric}
	}
}

// Percent parses a numeric text field given in percent and returns a ratio.
func (f Form) Percent(key string) (float64, error) {
	n, err := f.Float(key)
	if err != nil {
		return 0, err
	}
	return n / 100, nil
}

// Int parses an integer text field.
func (f Form) Int(key string) (int, error) {
	raw := f[key]
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, &InputError{Key: key, Value: raw, Err: errNotNumeric}
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, &InputError{Key: key, Value: raw, Err: err}
		}
		return n, nil
	default:
		return 0, &InputError{Key: key, Value: raw, Err: errNotNumeric}
	}
}

// IntOr is Int with a default for an absent key.
func (f Form) IntOr(key string, def int) (int, error) {
	if _, ok := f[key]; !ok {
		return def, nil
	}
	return f.Int(key)
}

// Flag reads a checkbox.
func (f Form) Flag(key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	default:
		return false
	}
}

// Text reads a free text field.
func (f Form) Text(key string) string {
	s, _ := f[key].(string)
	return s
}

// DateRange reads the optional DATE_MIN/DATE_MAX bounds of a scenario. A
// bound is only read when its _BOOL checkbox is ticked.
func (f Form) DateRange(suffix string) engine.DateRange {
	var r engine.DateRange
	if f.Flag("DATE_MIN_" + suffix + "_BOOL") {
		r.DateMin = f.Text("DATE_MIN_" + suffix)
		r.TimeMin = engineTime(f.Text("TIME_MIN_" + suffix))
	}
	if f.Flag("DATE_MAX_" + suffix + "_BOOL") {
		r.DateMax = f.Text("DATE_MAX_" + suffix)
		r.TimeMax = engineTime(f.Text("TIME_MAX_" + suffix))
	}
	return r
}

// engineTime converts "14:30" to the engine's "14h30".
func engineTime(t string) string {
	return strings.ReplaceAll(t, ":", "h")
}
