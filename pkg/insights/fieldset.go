package insights

import (
	"context"
	"net/url"
	"regexp"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
)

// fieldRejectionPattern recognizes field-related rejection language in Graph
// error messages when the error code alone is ambiguous (#100 covers every
// kind of bad parameter).
var fieldRejectionPattern = regexp.MustCompile(`(?i)field|deprecate`)

// ListWithFields lists a paginated endpoint, trying each field-set candidate
// in order until one is accepted. A candidate is abandoned only when the API
// rejects it with the feature-deprecation code or with an invalid-parameter
// error whose message reads as a field rejection; any other failure is
// surfaced as-is. Once a candidate's first page succeeds the traversal is
// pinned to it: subsequent pages follow next-links and never re-negotiate.
// Returns the accumulated records and the field set that matched.
func ListWithFields(ctx context.Context, client *graph.Client, path string, params url.Values, candidates []string, logger graph.Logger, opts ...graph.CollectOption) ([]graph.Record, string, error) {
	var lastErr error

	for i, fields := range candidates {
		p := url.Values{}
		for k, vs := range params {
			p[k] = vs
		}
		p.Set("fields", fields)

		callOpts := graph.WithCallOptions(
			graph.NonRetryable(graph.CodeDeprecatedFeature, graph.CodeInvalidParameter))
		records, err := client.Collect(ctx, path, p, append(opts, callOpts)...)
		if err == nil {
			return records, fields, nil
		}

		lastErr = err
		if !isFieldRejection(err) || i == len(candidates)-1 {
			return nil, "", err
		}
		if logger != nil {
			logger.Warnf("field set rejected for %s; retrying with fallback fields: %s",
				path, candidates[i+1])
		}
	}
	return nil, "", lastErr
}

// isFieldRejection reports whether err rejects the requested field set rather
// than the call itself. Only first-page rejections qualify: the per-call
// non-retryable marking applies to the initial request, so mid-traversal
// errors arrive with a different kind and are never treated as negotiable.
func isFieldRejection(err error) bool {
	if !graph.IsInvalidParameter(err) {
		return false
	}
	if graph.ErrCode(err) == graph.CodeDeprecatedFeature {
		return true
	}
	return fieldRejectionPattern.MatchString(err.Error())
}
