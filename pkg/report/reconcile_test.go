package report

import (
	"testing"
)

func TestComposeInsightsScalars(t *testing.T) {
	row, dropped := ComposeInsights(map[string]any{
		"post_impressions":        float64(1000),
		"post_impressions_unique": float64(800),
		"post_engaged_users":      float64(50),
		"post_comments":           "7",
		"post_shares":             map[string]any{"value": float64(3)},
	})
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if rowInt(row, ColImpressions) != 1000 {
		t.Errorf("Impressions = %d, want 1000", rowInt(row, ColImpressions))
	}
	if rowInt(row, ColImpressionsUniq) != 800 {
		t.Errorf("Impressions (Unique) = %d, want 800", rowInt(row, ColImpressionsUniq))
	}
	if rowInt(row, ColEngagedUsers) != 50 {
		t.Errorf("Engaged users = %d, want 50", rowInt(row, ColEngagedUsers))
	}
	if rowInt(row, ColComments) != 7 {
		t.Errorf("Comments = %d, want 7", rowInt(row, ColComments))
	}
	if rowInt(row, ColShares) != 3 {
		t.Errorf("Shares = %d, want 3", rowInt(row, ColShares))
	}
	// Absent metrics are present and zero.
	if v, ok := row[ColNegative].(int64); !ok || v != 0 {
		t.Errorf("Negative feedback = %#v, want int64(0)", row[ColNegative])
	}
}

func TestImpressionsReplacementPriority(t *testing.T) {
	tests := []struct {
		name    string
		metrics map[string]any
		want    int64
	}{
		{"primary positive", map[string]any{"post_impressions": float64(10), "post_media_view": float64(99)}, 10},
		{"primary zero falls back", map[string]any{"post_impressions": float64(0), "post_media_view": float64(99)}, 99},
		{"primary missing falls back", map[string]any{"post_media_view": float64(42)}, 42},
		{"both absent", map[string]any{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, _ := ComposeInsights(tt.metrics)
			if got := rowInt(row, ColImpressions); got != tt.want {
				t.Errorf("Impressions = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReconcileOrganicPaidTotal(t *testing.T) {
	tests := []struct {
		name                       string
		total, organic, paid       int64
		wantTotal, wantOrg, wantPd int64
	}{
		{"total missing", 0, 70, 30, 100, 70, 30},
		{"organic missing", 100, 0, 30, 100, 70, 30},
		{"paid missing", 100, 70, 0, 100, 70, 30},
		{"all present untouched", 100, 70, 30, 100, 70, 30},
		{"all zero untouched", 0, 0, 0, 0, 0, 0},
		{"part exceeds total floors at zero", 50, 0, 80, 50, 0, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, _ := ComposeInsights(map[string]any{
				"post_impressions":         float64(tt.total),
				"post_impressions_organic": float64(tt.organic),
				"post_impressions_paid":    float64(tt.paid),
			})
			if got := rowInt(row, ColImpressions); got != tt.wantTotal {
				t.Errorf("total = %d, want %d", got, tt.wantTotal)
			}
			if got := rowInt(row, ColImpressionsOrg); got != tt.wantOrg {
				t.Errorf("organic = %d, want %d", got, tt.wantOrg)
			}
			if got := rowInt(row, ColImpressionsPaid); got != tt.wantPd {
				t.Errorf("paid = %d, want %d", got, tt.wantPd)
			}
			// Reconciled triples satisfy total = organic + paid when any
			// derivation happened.
			to, o, p := rowInt(row, ColImpressions), rowInt(row, ColImpressionsOrg), rowInt(row, ColImpressionsPaid)
			if tt.name != "part exceeds total floors at zero" && tt.name != "all present untouched" && to != o+p {
				t.Errorf("total %d != organic %d + paid %d", to, o, p)
			}
		})
	}
}

func TestVideoMonotonicityFixup(t *testing.T) {
	tests := []struct {
		name             string
		threeSec, oneMin int64
		wantThreeSec     int64
	}{
		{"one minute exceeds three second", 10, 25, 25},
		{"already monotonic", 100, 25, 100},
		{"equal", 25, 25, 25},
		{"both zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, _ := ComposeInsights(map[string]any{
				"post_video_views_3s": float64(tt.threeSec),
				"post_video_views_1m": float64(tt.oneMin),
			})
			if got := rowInt(row, ColVideoViews3s); got != tt.wantThreeSec {
				t.Errorf("3-second views = %d, want %d", got, tt.wantThreeSec)
			}
			if got := rowInt(row, ColVideoViews1m); got != tt.oneMin {
				t.Errorf("1-minute views = %d, want %d (unchanged)", got, tt.oneMin)
			}
		})
	}
}

func TestComposeReactions(t *testing.T) {
	row, _ := ComposeInsights(map[string]any{
		"post_reactions_by_type_total": map[string]any{
			"like": float64(10), "love": float64(5), "wow": float64(1),
			"haha": float64(2), "sad": float64(1), "angry": float64(1),
			"care": float64(3), // extra type still counts toward the total
		},
	})
	if got := rowInt(row, ColReactionsLike); got != 10 {
		t.Errorf("like = %d, want 10", got)
	}
	if got := rowInt(row, ColReactionsTotal); got != 23 {
		t.Errorf("total = %d, want 23", got)
	}
}

func TestComposeClicks(t *testing.T) {
	tests := []struct {
		name                           string
		metrics                        map[string]any
		wantTotal, wantLink, wantOther int64
	}{
		{
			"breakdown with explicit total",
			map[string]any{
				"post_clicks":         float64(30),
				"post_clicks_by_type": map[string]any{"link clicks": float64(12), "other clicks": float64(18)},
			},
			30, 12, 18,
		},
		{
			"breakdown backfills missing total",
			map[string]any{
				"post_clicks_by_type": map[string]any{"link clicks": float64(4), "photo view": float64(6)},
			},
			10, 4, 6,
		},
		{
			"underscore link key variant",
			map[string]any{
				"post_clicks_by_type": map[string]any{"link_clicks": float64(8)},
			},
			8, 8, 0,
		},
		{
			"total without breakdown",
			map[string]any{"post_clicks": float64(15)},
			15, 0, 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, _ := ComposeInsights(tt.metrics)
			if got := rowInt(row, ColTotalClicks); got != tt.wantTotal {
				t.Errorf("total clicks = %d, want %d", got, tt.wantTotal)
			}
			if got := rowInt(row, ColLinkClicks); got != tt.wantLink {
				t.Errorf("link clicks = %d, want %d", got, tt.wantLink)
			}
			if got := rowInt(row, ColOtherClicks); got != tt.wantOther {
				t.Errorf("other clicks = %d, want %d", got, tt.wantOther)
			}
		})
	}
}

func TestComposeDemographics(t *testing.T) {
	row, dropped := ComposeInsights(map[string]any{
		"post_video_views_3s_by_age_bucket_and_gender": map[string]any{
			"M.18-24": float64(11),
			"F.65+":   float64(7),
			"U.99":    float64(5),
		},
	})
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if got := rowInt(row, "3s_views_M_18_24"); got != 11 {
		t.Errorf("3s_views_M_18_24 = %d, want 11", got)
	}
	if got := rowInt(row, "3s_views_F_65_plus"); got != 7 {
		t.Errorf("3s_views_F_65_plus = %d, want 7", got)
	}
	if got := rowInt(row, "3s_views_F_18_24"); got != 0 {
		t.Errorf("3s_views_F_18_24 = %d, want 0", got)
	}
}
