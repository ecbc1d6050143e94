package insights

import (
	"context"
	"net/url"
	"strings"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
)

// Resolver discovers which insight metrics are valid for groups of posts
// sharing a structural signature, caches the resolution per group for the
// rest of the run, and narrows a group's cached list when the API later
// rejects one of its metrics for a specific post. One Resolver instance is
// scoped to one export run; it is not safe for concurrent use and does not
// need to be, processing is strictly sequential.
type Resolver struct {
	client     *graph.Client
	logger     graph.Logger
	candidates []string
	cache      map[string][]string
}

// NewResolver creates a Resolver probing with the given metric candidates.
// A nil logger is replaced by a silent one.
func NewResolver(client *graph.Client, candidates []string, logger graph.Logger) *Resolver {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Resolver{
		client:     client,
		logger:     logger,
		candidates: candidates,
		cache:      make(map[string][]string),
	}
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Metrics returns the valid metric list for groupKey, running discovery
// against samplePostID on the first encounter of the group. An empty list
// (with nil error) means the group's posts cannot be queried for insights at
// all; fetches for its members return zeros without touching the network.
func (r *Resolver) Metrics(ctx context.Context, groupKey, samplePostID string) ([]string, error) {
	if cached, ok := r.cache[groupKey]; ok {
		return cached, nil
	}

	valid, err := r.discover(ctx, groupKey, samplePostID)
	if err != nil {
		return nil, err
	}
	r.cache[groupKey] = valid
	if len(valid) == 0 {
		r.logger.Warnf("no valid insight metrics for group %q; its posts will report zeros", groupKey)
	} else {
		r.logger.Infof("valid metrics for group %q: %s", groupKey, strings.Join(valid, ","))
	}
	return valid, nil
}

// Cached returns the current cached metric list for groupKey, or nil.
func (r *Resolver) Cached(groupKey string) []string {
	return r.cache[groupKey]
}

// Resolutions returns a copy of the full per-group resolution state, for the
// debug snapshot.
func (r *Resolver) Resolutions() map[string][]string {
	out := make(map[string][]string, len(r.cache))
	for k, v := range r.cache {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (r *Resolver) discover(ctx context.Context, groupKey, samplePostID string) ([]string, error) {
	r.logger.Infof("discovering valid insight metrics for group %q (once per group)...", groupKey)

	// First try the default-metric query: no metric parameter, let the API
	// return whatever it considers queryable. Every declared name counts.
	payload, err := r.client.Get(ctx, samplePostID+"/insights",
		urlValues("period", "lifetime"),
		graph.NonRetryable(graph.CodeInvalidParameter, graph.CodeNotQueryable))
	if err == nil {
		if names := declaredNames(payload); len(names) > 0 {
			return names, nil
		}
	} else if graph.IsFatal(err) {
		return nil, err
	} else if !graph.IsInvalidParameter(err) {
		return nil, err
	}

	// Default query rejected or empty: probe each candidate individually.
	var valid []string
	for _, metric := range r.candidates {
		_, err := r.client.Get(ctx, samplePostID+"/insights",
			urlValues("metric", metric, "period", "lifetime"),
			graph.NonRetryable(graph.CodeInvalidParameter, graph.CodeNotQueryable))
		if err == nil {
			valid = append(valid, metric)
			continue
		}
		switch {
		case graph.IsFatal(err):
			return nil, err
		case isContextUnusable(err):
			// The whole query context is refused, not just this metric.
			r.logger.Warnf("insights not queryable for group %q (%v); short-circuiting discovery", groupKey, err)
			return nil, nil
		case isInvalidMetric(err):
			r.logger.Infof("metric unsupported/deprecated for group %q; skipping: %s", groupKey, metric)
		default:
			return nil, err
		}
	}
	return valid, nil
}

// Fetch retrieves and returns the raw insight items for postID using the
// group's resolved metric list, narrowing the list when the API rejects a
// specific metric by name. A nil item slice with nil error means the post has
// no queryable metrics; the caller reports zeros.
func (r *Resolver) Fetch(ctx context.Context, groupKey, postID string) ([]graph.Record, error) {
	metrics, err := r.Metrics(ctx, groupKey, postID)
	if err != nil {
		return nil, err
	}

	for len(metrics) > 0 {
		payload, err := r.client.Get(ctx, postID+"/insights",
			urlValues("metric", strings.Join(metrics, ","), "period", "lifetime"),
			graph.NonRetryable(graph.CodeInvalidParameter))
		if err == nil {
			return dataRecords(payload), nil
		}
		if graph.IsFatal(err) || !graph.IsInvalidParameter(err) {
			return nil, err
		}

		// One of the requested metrics is rejected for this post even though
		// group discovery accepted it. Identify it by name in the error
		// message, drop it from the request and the group cache, and retry
		// the narrowed request.
		rejected := findRejectedMetric(err, metrics)
		if rejected == "" {
			return nil, err
		}
		r.logger.Warnf("metric %s rejected for post %s; removing from group %q and retrying", rejected, postID, groupKey)
		metrics = remove(metrics, rejected)
		r.cache[groupKey] = metrics
	}
	return nil, nil
}

// findRejectedMetric locates which of the requested metrics the error message
// names. Longer names are checked first so post_impressions does not shadow
// post_impressions_unique.
func findRejectedMetric(err error, metrics []string) string {
	msg := err.Error()
	best := ""
	for _, m := range metrics {
		if strings.Contains(msg, m) && len(m) > len(best) {
			best = m
		}
	}
	return best
}

func remove(list []string, item string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}

// isInvalidMetric reports whether err rejects a single metric (#100 without
// the unsupported-operation subcode).
func isInvalidMetric(err error) bool {
	return graph.ErrCode(err) == graph.CodeInvalidParameter &&
		graph.ErrSubcode(err) != graph.SubcodeUnsupportedOperation
}

// isContextUnusable reports whether err refuses the whole query context:
// either the object does not support the insights edge (#100 subcode 33) or
// the query is declared not queryable (#3001).
func isContextUnusable(err error) bool {
	if graph.ErrCode(err) == graph.CodeNotQueryable {
		return true
	}
	return graph.ErrCode(err) == graph.CodeInvalidParameter &&
		graph.ErrSubcode(err) == graph.SubcodeUnsupportedOperation
}

func declaredNames(payload graph.Record) []string {
	var names []string
	for _, rec := range dataRecords(payload) {
		if name := rec.Str("name"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func dataRecords(payload graph.Record) []graph.Record {
	items := payload.List("data")
	out := make([]graph.Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, graph.Record(m))
		}
	}
	return out
}

func urlValues(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}
