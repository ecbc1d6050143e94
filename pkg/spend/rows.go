package spend

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
)

// Headers is the fixed column set of the spend report.
var Headers = []string{
	"Post ID",
	"Spent per post",
	"Ad IDs",
	"Ads matched",
	"Since",
	"Until",
	"Graph version",
}

// Row is one spend report row.
type Row struct {
	PostID       string
	Spent        float64
	AdIDs        []string
	AdsMatched   int
	Since        string
	Until        string
	GraphVersion string
}

// Cells renders the row in Headers order for the XLSX writer.
func (r Row) Cells() []any {
	return []any{
		r.PostID,
		r.Spent,
		strings.Join(r.AdIDs, ","),
		r.AdsMatched,
		r.Since,
		r.Until,
		r.GraphVersion,
	}
}

// BuildRows produces one row per post, sorted by publish time then post id so
// the report order is deterministic regardless of listing order. Spend is the
// sum over the post's matched ads, rounded to 2 decimal places; posts without
// matched ads carry 0.
func BuildRows(posts []graph.Record, postToAds map[string][]string, ledger *Ledger, since, until, graphVersion string) []Row {
	sorted := append([]graph.Record(nil), posts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := publishStamp(sorted[i]), publishStamp(sorted[j])
		if ti != tj {
			return ti < tj
		}
		return sorted[i].Str("id") < sorted[j].Str("id")
	})

	rows := make([]Row, 0, len(sorted))
	for _, post := range sorted {
		postID := post.Str("id")
		adIDs := postToAds[postID]

		total := 0.0
		for _, adID := range adIDs {
			total += ledger.Amount(adID)
		}

		rows = append(rows, Row{
			PostID:       postID,
			Spent:        round2(total),
			AdIDs:        adIDs,
			AdsMatched:   len(adIDs),
			Since:        since,
			Until:        until,
			GraphVersion: graphVersion,
		})
	}
	return rows
}

// UniqueAdIDs returns every matched ad id exactly once, ascending, fixing the
// order the spend fetch loop walks.
func UniqueAdIDs(postToAds map[string][]string) []string {
	seen := map[string]bool{}
	var ids []string
	for _, adIDs := range postToAds {
		for _, id := range adIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// publishStamp parses a post's created_time to a sortable Unix timestamp;
// unparseable times sort first.
func publishStamp(post graph.Record) int64 {
	raw := post.Str("created_time")
	if raw == "" {
		return 0
	}
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Unix()
		}
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
