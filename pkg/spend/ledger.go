package spend

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
)

// sampleLimit caps how many raw spend payloads the ledger retains for the
// debug snapshot.
const sampleLimit = 10

// Ledger caches per-ad spend. Each ad id is fetched at most once per run; the
// cached value is written once and read many times afterwards.
type Ledger struct {
	client *graph.Client
	since  string // YYYY-MM-DD
	until  string // YYYY-MM-DD

	amounts map[string]float64
	samples map[string]graph.Record
}

// NewLedger creates a spend ledger for the given reporting date range.
func NewLedger(client *graph.Client, since, until string) *Ledger {
	return &Ledger{
		client:  client,
		since:   since,
		until:   until,
		amounts: make(map[string]float64),
		samples: make(map[string]graph.Record),
	}
}

// Fetch returns the spend for adID within the ledger's date range, hitting
// the network only on the first call per ad. The insights endpoint reports
// spend as a string-typed decimal; missing or unparseable spend is 0.
func (l *Ledger) Fetch(ctx context.Context, adID string) (float64, error) {
	if amount, ok := l.amounts[adID]; ok {
		return amount, nil
	}

	params := url.Values{
		"fields":            {"spend"},
		"level":             {"ad"},
		"time_range[since]": {l.since},
		"time_range[until]": {l.until},
	}
	payload, err := l.client.Get(ctx, adID+"/insights", params)
	if err != nil {
		return 0, err
	}

	amount := 0.0
	if data := payload.List("data"); len(data) > 0 {
		if first, ok := data[0].(map[string]any); ok {
			amount = ParseAmount(first["spend"])
		}
	}

	l.amounts[adID] = amount
	if len(l.samples) < sampleLimit {
		l.samples[adID] = payload
	}
	return amount, nil
}

// Amount returns the cached spend for adID, or 0 when never fetched.
func (l *Ledger) Amount(adID string) float64 {
	return l.amounts[adID]
}

// Samples returns the retained raw payloads for the debug snapshot.
func (l *Ledger) Samples() map[string]graph.Record {
	return l.samples
}

// ParseAmount normalizes a spend value to a float. The API returns spend as a
// decimal string; numbers pass through and anything else is 0.
func ParseAmount(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
