package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
	"github.com/hellenic-development/fbpage-exporter/pkg/insights"
)

func TestGroupKey(t *testing.T) {
	tests := []struct {
		name string
		post graph.Record
		want string
	}{
		{"status and type", graph.Record{"status_type": "added_video", "type": "video"}, "added_video|video"},
		{"type only", graph.Record{"type": "photo"}, "|photo"},
		{"status only", graph.Record{"status_type": "mobile_status_update"}, "mobile_status_update|"},
		{"neither", graph.Record{"id": "1"}, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GroupKey(tt.post); got != tt.want {
				t.Errorf("GroupKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBaseRow(t *testing.T) {
	tests := []struct {
		name     string
		post     graph.Record
		wantCol  string
		wantText string
	}{
		{
			"message preferred for title",
			graph.Record{"message": "hello", "story": "Page shared a photo."},
			ColTitle, "hello",
		},
		{
			"story fallback for title",
			graph.Record{"story": "Page shared a photo."},
			ColTitle, "Page shared a photo.",
		},
		{
			"status_type preferred for post type",
			graph.Record{"status_type": "added_photos", "type": "photo"},
			ColPostType, "added_photos",
		},
		{
			"type fallback for post type",
			graph.Record{"type": "photo"},
			ColPostType, "photo",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := BaseRow(tt.post, "Acme Page")
			if got := row[tt.wantCol]; got != tt.wantText {
				t.Errorf("%s = %q, want %q", tt.wantCol, got, tt.wantText)
			}
			if row[ColPageName] != "Acme Page" {
				t.Errorf("Page name = %q", row[ColPageName])
			}
		})
	}
}

// buildServer simulates the insights edge for the end-to-end scenario:
// group discovery returns metricA and metricB, and chosen posts reject
// metricB on the combined fetch.
func buildServer(t *testing.T, rejectB map[string]bool) *httptest.Server {
	t.Helper()
	const metricA, metricB = "post_impressions", "post_engaged_users"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		postID := parts[1]
		metricParam := r.URL.Query().Get("metric")

		if metricParam == "" {
			// Default probe declares both metrics valid.
			json.NewEncoder(w).Encode(map[string]any{"data": []any{
				map[string]any{"name": metricA, "values": []any{map[string]any{"value": float64(100)}}},
				map[string]any{"name": metricB, "values": []any{map[string]any{"value": float64(40)}}},
			}})
			return
		}

		requested := strings.Split(metricParam, ",")
		var items []any
		for _, m := range requested {
			if m == metricB && rejectB[postID] {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, `{"error":{"message":"Metric %s is not supported for this object","type":"OAuthException","code":100}}`, metricB)
				return
			}
			value := float64(100)
			if m == metricB {
				value = 40
			}
			items = append(items, map[string]any{"name": m, "values": []any{map[string]any{"value": value}}})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": items})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBuildRowsEndToEnd(t *testing.T) {
	srv := buildServer(t, map[string]bool{"p2": true})
	client := graph.NewClient("tok", "v23.0",
		graph.WithBaseURL(srv.URL),
		graph.WithThrottle(0),
		graph.WithSleep(func(time.Duration) {}),
	)
	resolver := insights.NewResolver(client, insights.MetricCandidates, nil)
	builder := NewBuilder(resolver, nil)

	posts := []graph.Record{
		{"id": "p1", "message": "first", "created_time": "2026-01-02T10:00:00+0000", "type": "status"},
		{"id": "p2", "message": "second", "created_time": "2026-01-03T10:00:00+0000", "type": "status"},
	}

	rows, err := builder.BuildRows(context.Background(), posts, "Acme Page")
	if err != nil {
		t.Fatalf("BuildRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	// Post 1 carries values for both metrics.
	if got := rowInt(rows[0], ColImpressions); got != 100 {
		t.Errorf("post 1 Impressions = %d, want 100", got)
	}
	if got := rowInt(rows[0], ColEngagedUsers); got != 40 {
		t.Errorf("post 1 Engaged users = %d, want 40", got)
	}

	// Post 2 rejected the engaged-users metric: value only for the survivor.
	if got := rowInt(rows[1], ColImpressions); got != 100 {
		t.Errorf("post 2 Impressions = %d, want 100", got)
	}
	if got := rowInt(rows[1], ColEngagedUsers); got != 0 {
		t.Errorf("post 2 Engaged users = %d, want 0 after rejection", got)
	}

	// The group cache reflects the removal for subsequent posts.
	cached := resolver.Cached("|status")
	if len(cached) != 1 || cached[0] != "post_impressions" {
		t.Errorf("group cache = %v, want [post_impressions]", cached)
	}

	// Full column set on every row.
	for i, row := range rows {
		for _, col := range Columns {
			if _, ok := row[col]; !ok {
				t.Errorf("row %d missing column %q", i, col)
			}
		}
	}
}

func TestBuildRowsFatalAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`)
	}))
	t.Cleanup(srv.Close)

	client := graph.NewClient("tok", "v23.0",
		graph.WithBaseURL(srv.URL),
		graph.WithThrottle(0),
		graph.WithSleep(func(time.Duration) {}),
	)
	resolver := insights.NewResolver(client, insights.MetricCandidates, nil)
	builder := NewBuilder(resolver, nil)

	rows, err := builder.BuildRows(context.Background(),
		[]graph.Record{{"id": "p1"}, {"id": "p2"}}, "Acme Page")
	if !graph.IsFatal(err) {
		t.Fatalf("err = %v, want fatal", err)
	}
	if rows != nil {
		t.Errorf("rows = %v, want nil on fatal abort", rows)
	}
}

func TestBuildRowsDegradesNonFatalFailure(t *testing.T) {
	// Discovery succeeds for the group, then every combined fetch fails with
	// an unclassified permanent error.
	var discovered bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("metric") == "" {
			discovered = true
			json.NewEncoder(w).Encode(map[string]any{"data": []any{
				map[string]any{"name": "post_impressions", "values": []any{map[string]any{"value": float64(9)}}},
			}})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Unexpected error","type":"FacebookApiException","code":1}}`)
	}))
	t.Cleanup(srv.Close)

	client := graph.NewClient("tok", "v23.0",
		graph.WithBaseURL(srv.URL),
		graph.WithThrottle(0),
		graph.WithSleep(func(time.Duration) {}),
	)
	resolver := insights.NewResolver(client, insights.MetricCandidates, nil)
	builder := NewBuilder(resolver, nil)

	rows, err := builder.BuildRows(context.Background(),
		[]graph.Record{{"id": "p1", "message": "still here"}}, "Acme Page")
	if err != nil {
		t.Fatalf("BuildRows() error = %v, want degraded row instead", err)
	}
	if !discovered {
		t.Fatal("discovery never ran")
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0][ColTitle] != "still here" {
		t.Errorf("Title = %q", rows[0][ColTitle])
	}
	if got := rowInt(rows[0], ColImpressions); got != 0 {
		t.Errorf("Impressions = %d, want 0 for degraded row", got)
	}
}

func TestApplyDirectFallbacks(t *testing.T) {
	post := graph.Record{"id": "p1", "shares": map[string]any{"count": float64(12)}}

	row := zeroInsights()
	applyDirectFallbacks(row, post)
	if got := rowInt(row, ColShares); got != 12 {
		t.Errorf("Shares = %d, want 12 from the record fallback", got)
	}

	// Insights value wins when present.
	row = zeroInsights()
	row[ColShares] = int64(5)
	applyDirectFallbacks(row, post)
	if got := rowInt(row, ColShares); got != 5 {
		t.Errorf("Shares = %d, want 5 (insights value kept)", got)
	}
}
