package insights

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
)

// wrapperKeys are the keys, in priority order, under which the API wraps a
// scalar inside an object.
var wrapperKeys = []string{"value", "total_value", "total", "count"}

// ScalarValue normalizes any insight value shape to an integer. It accepts a
// bare number, a numeric string, an object wrapping the number under one of
// the known wrapper keys, or a list of such values. Lists collapse to the
// maximum positive element: the API sometimes returns a short time series for
// what should be a single lifetime scalar. Unparseable input normalizes to 0;
// the function never fails.
func ScalarValue(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return int64(x)
	case int:
		return int64(x)
	case int64:
		return x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return int64(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return int64(f)
	case map[string]any:
		for _, key := range wrapperKeys {
			if inner, ok := x[key]; ok {
				return ScalarValue(inner)
			}
		}
		return 0
	case graph.Record:
		return ScalarValue(map[string]any(x))
	case []any:
		var best int64
		for _, item := range x {
			if n := ScalarValue(item); n > best {
				best = n
			}
		}
		return best
	default:
		return 0
	}
}

// ItemValue extracts the raw value of one insight item: the "value" of the
// first entry in its "values" list. The result may itself be a scalar, a
// wrapper object, or a breakdown mapping; callers normalize it further.
func ItemValue(item graph.Record) any {
	values := item.List("values")
	if len(values) == 0 {
		return nil
	}
	first, ok := values[0].(map[string]any)
	if !ok {
		return nil
	}
	return first["value"]
}

// MetricValues flattens a list of insight items into metric name -> raw value.
// Items without a name are skipped.
func MetricValues(items []graph.Record) map[string]any {
	out := make(map[string]any, len(items))
	for _, item := range items {
		name := item.Str("name")
		if name == "" {
			continue
		}
		out[name] = ItemValue(item)
	}
	return out
}
