package script

import (
	"fmt"
	"strings"
	"time"

	"go.starlark.net/starlark"
)

// instantValue is what to_instant returns
type instantValue struct {
	t time.Time
}

func (v *instantValue) String() string        { return v.t.Format(time.RFC3339Nano) }
func (v *instantValue) Type() string          { return "instant" }
func (v *instantValue) Freeze()               {}
func (v *instantValue) Truth() starlark.Bool  { return starlark.True }
func (v *instantValue) Hash() (uint32, error) { return starlark.String(v.String()).Hash() }

// starlarkValueAsInterface converts a script value into a cell value
func starlarkValueAsInterface(value starlark.Value) (any, error) {
	switch v := value.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.Int:
		if n, ok := v.Int64(); ok {
			return n, nil
		}
		return v.BigInt(), nil
	case starlark.Float:
		return float64(v), nil
	case starlark.String:
		return string(v), nil
	case *instantValue:
		return v.t, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", value.Type())
}

// toValues converts any iterable into cell values
func toValues(value starlark.Value) ([]any, error) {
	iterable, ok := value.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("want a list, got %s", value.Type())
	}
	iter := iterable.Iterate()
	defer iter.Done()

	var out []any
	var item starlark.Value
	for i := 0; iter.Next(&item); i++ {
		v, err := starlarkValueAsInterface(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// toStrings accepts a single string or a list of strings
func toStrings(value starlark.Value) ([]string, error) {
	if s, ok := value.(starlark.String); ok {
		return []string{string(s)}, nil
	}
	values, err := toValues(value)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("element %d: want a string, got %T", i, v)
		}
		out[i] = s
	}
	return out, nil
}

// parsePeriod accepts ISO-8601 time periods like "PT1S" or "PT1M30S" as
// well as Go durations like "250ms"
func parsePeriod(s string) (time.Duration, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if rest, ok := strings.CutPrefix(upper, "PT"); ok {
		s = strings.ToLower(rest)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid period %q", s)
	}
	return d, nil
}
