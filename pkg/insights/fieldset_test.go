package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
)

// fieldsetServer rejects configured field sets with a deprecation error and
// serves two linked pages for accepted ones.
func fieldsetServer(t *testing.T, rejected map[string]bool) (*httptest.Server, *[]string) {
	t.Helper()
	var fieldsSeen []string
	var srvURL string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if fields := q.Get("fields"); fields != "" {
			fieldsSeen = append(fieldsSeen, fields)
			if rejected[fields] {
				writeGraphError(w, 12, 0, "(#12) deprecate_post_aggregated_fields_for_attachement is deprecated for versions v3.3 and higher")
				return
			}
		}

		if q.Get("page") == "2" {
			fmt.Fprint(w, `{"data":[{"id":"post_3"}]}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []any{map[string]any{"id": "post_1"}, map[string]any{"id": "post_2"}},
			"paging": map[string]any{
				"next": srvURL + "/v23.0/101/posts?page=2&access_token=embedded",
			},
		})
	}))
	t.Cleanup(srv.Close)
	srvURL = srv.URL
	return srv, &fieldsSeen
}

func fieldsetClient(srv *httptest.Server) *graph.Client {
	return graph.NewClient("tok", "v23.0",
		graph.WithBaseURL(srv.URL),
		graph.WithThrottle(0),
		graph.WithSleep(func(time.Duration) {}),
	)
}

func TestListWithFieldsFirstCandidateAccepted(t *testing.T) {
	srv, seen := fieldsetServer(t, nil)

	candidates := []string{"id,created_time,message", "id,created_time"}
	records, fields, err := ListWithFields(context.Background(), fieldsetClient(srv),
		"101/posts", url.Values{"limit": {"100"}}, candidates, nil)
	if err != nil {
		t.Fatalf("ListWithFields() error = %v", err)
	}
	if fields != candidates[0] {
		t.Errorf("matched fields = %q, want first candidate", fields)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3 across both pages", len(records))
	}
	if len(*seen) != 1 {
		t.Errorf("fields parameter sent %d times, want once (pages never re-negotiate)", len(*seen))
	}
}

func TestListWithFieldsFallsBack(t *testing.T) {
	candidates := []string{"id,message,story,attachments", "id,message,story", "id,message"}
	srv, seen := fieldsetServer(t, map[string]bool{
		candidates[0]: true,
		candidates[1]: true,
	})

	records, fields, err := ListWithFields(context.Background(), fieldsetClient(srv),
		"101/posts", nil, candidates, nil)
	if err != nil {
		t.Fatalf("ListWithFields() error = %v", err)
	}
	if fields != candidates[2] {
		t.Errorf("matched fields = %q, want minimal candidate", fields)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
	if len(*seen) != 3 {
		t.Errorf("expected 3 negotiation attempts, got %d: %v", len(*seen), *seen)
	}
}

func TestListWithFieldsExhaustsCandidates(t *testing.T) {
	candidates := []string{"id,rich", "id,minimal"}
	srv, _ := fieldsetServer(t, map[string]bool{
		candidates[0]: true,
		candidates[1]: true,
	})

	_, _, err := ListWithFields(context.Background(), fieldsetClient(srv),
		"101/posts", nil, candidates, nil)
	if err == nil {
		t.Fatal("ListWithFields() error = nil, want rejection after exhausting candidates")
	}
	if graph.ErrCode(err) != graph.CodeDeprecatedFeature {
		t.Errorf("error code = %d, want %d", graph.ErrCode(err), graph.CodeDeprecatedFeature)
	}
}

func TestListWithFieldsNonFieldErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeGraphError(w, 190, 0, "Error validating access token")
	}))
	t.Cleanup(srv.Close)

	_, _, err := ListWithFields(context.Background(), fieldsetClient(srv),
		"101/posts", nil, []string{"id,a", "id,b"}, nil)
	if !graph.IsFatal(err) {
		t.Errorf("err = %v, want fatal classification surfaced without fallback", err)
	}
}

func TestIsFieldRejection(t *testing.T) {
	tests := []struct {
		name string
		err  *graph.Error
		want bool
	}{
		{
			"deprecation code",
			&graph.Error{Kind: graph.KindInvalidParameter, Code: 12, Message: "deprecated"},
			true,
		},
		{
			"invalid parameter with field language",
			&graph.Error{Kind: graph.KindInvalidParameter, Code: 100, Message: "nonexisting field (attachments)"},
			true,
		},
		{
			"invalid parameter unrelated to fields",
			&graph.Error{Kind: graph.KindInvalidParameter, Code: 100, Message: "Invalid metric"},
			false,
		},
		{
			"permanent kind never negotiable",
			&graph.Error{Kind: graph.KindPermanent, Code: 12, Message: "deprecated"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isFieldRejection(tt.err); got != tt.want {
				t.Errorf("isFieldRejection(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
