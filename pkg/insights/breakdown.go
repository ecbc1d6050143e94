package insights

import (
	"fmt"
	"strings"
)

// Gender and age vocabularies for demographic breakdown keys. FEMALE is
// checked before MALE so the longer token wins when both would match.
var (
	genderTokens = []struct{ token, canonical string }{
		{"FEMALE", "F"},
		{"MALE", "M"},
		{"F", "F"},
		{"M", "M"},
	}
	ageBuckets = []string{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}
)

// KeyedBreakdown normalizes a categorical split whose labels are already the
// output keys (reaction types, click types). The value may be a flat mapping,
// or a mapping wrapping the real one under "value"/"total_value". Anything
// else yields an empty map.
func KeyedBreakdown(v any) map[string]int64 {
	m := unwrapMapping(v)
	out := make(map[string]int64, len(m))
	for label, raw := range m {
		out[label] += ScalarValue(raw)
	}
	return out
}

// DemographicBreakdown normalizes an age-bucket-by-gender split to canonical
// "G.bucket" keys (e.g. "F.25-34", "M.65+"). It accepts a flat mapping keyed
// by joined labels, a wrapper mapping, or a list of per-dimension records each
// carrying a list of dimension labels and a value. Labels are tokenized and
// matched against the gender and age vocabularies; the first matching token of
// each vocabulary wins. Entries whose labels match no complete gender+bucket
// pair are dropped, not merged into a catch-all; the count of dropped entries
// is returned for diagnostics. Values landing on the same canonical key sum.
func DemographicBreakdown(v any) (map[string]int64, int) {
	out := make(map[string]int64)
	dropped := 0

	add := func(label string, raw any) {
		key, ok := canonicalDemoKey(label)
		if !ok {
			dropped++
			return
		}
		out[key] += ScalarValue(raw)
	}

	switch x := v.(type) {
	case []any:
		for _, item := range x {
			rec, ok := item.(map[string]any)
			if !ok {
				dropped++
				continue
			}
			add(joinDimensionLabels(rec), breakdownRecordValue(rec))
		}
	default:
		for label, raw := range unwrapMapping(v) {
			add(label, raw)
		}
	}
	return out, dropped
}

// unwrapMapping peels "value"/"total_value" wrappers until a plain mapping
// remains. Non-mapping input yields nil.
func unwrapMapping(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range []string{"value", "total_value"} {
		if inner, ok := m[key].(map[string]any); ok {
			return unwrapMapping(inner)
		}
	}
	return m
}

// joinDimensionLabels joins the dimension label list of a per-dimension result
// record into one matchable string.
func joinDimensionLabels(rec map[string]any) string {
	for _, key := range []string{"dimension_values", "dimensions", "breakdowns"} {
		if labels, ok := rec[key].([]any); ok {
			parts := make([]string, 0, len(labels))
			for _, l := range labels {
				parts = append(parts, fmt.Sprint(l))
			}
			return strings.Join(parts, ".")
		}
	}
	// Some shapes carry the joined label directly.
	for _, key := range []string{"dimension", "key", "name"} {
		if s, ok := rec[key].(string); ok {
			return s
		}
	}
	return ""
}

func breakdownRecordValue(rec map[string]any) any {
	if v, ok := rec["value"]; ok {
		return v
	}
	return rec["total_value"]
}

// canonicalDemoKey matches a joined label against the gender and age
// vocabularies and returns the canonical "G.bucket" key. Matching is
// token-presence based and deliberately permissive: the first token of each
// vocabulary found anywhere in the label wins, so ambiguous labels resolve in
// vocabulary order. Labels missing either dimension do not match.
func canonicalDemoKey(label string) (string, bool) {
	tokens := strings.FieldsFunc(strings.ToUpper(label), func(r rune) bool {
		switch r {
		case '.', ',', '_', ' ', '|', '/', ':':
			return true
		}
		return false
	})

	gender := ""
	for _, g := range genderTokens {
		for _, tok := range tokens {
			if tok == g.token {
				gender = g.canonical
				break
			}
		}
		if gender != "" {
			break
		}
	}
	if gender == "" {
		return "", false
	}

	for _, bucket := range ageBuckets {
		for _, tok := range tokens {
			if tok == bucket {
				return gender + "." + bucket, true
			}
		}
	}
	return "", false
}

// DemographicKeys returns every canonical gender-by-age key in a fixed order:
// all male buckets youngest to oldest, then all female buckets.
func DemographicKeys() []string {
	keys := make([]string, 0, 2*len(ageBuckets))
	for _, g := range []string{"M", "F"} {
		for _, bucket := range ageBuckets {
			keys = append(keys, g+"."+bucket)
		}
	}
	return keys
}
