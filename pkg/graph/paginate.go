package graph

import (
	"context"
	"fmt"
	"net/url"
)

// maxPages is a hard ceiling on the number of pages one traversal may follow.
// The API gives no cycle guarantee for paging.next chains; a misbehaving server
// could otherwise loop forever.
const maxPages = 10000

// CollectOption configures a pagination traversal.
type CollectOption func(*collectConfig)

type collectConfig struct {
	limit    int
	callOpts []CallOption
}

// Limit caps the number of accumulated records. The traversal stops issuing
// page requests the instant the cap is reached. Zero means unbounded.
func Limit(n int) CollectOption {
	return func(cc *collectConfig) { cc.limit = n }
}

// WithCallOptions forwards per-call options to the first page request.
// Subsequent pages follow server-supplied absolute links and are issued
// without them: once the first page succeeded, the negotiated parameters are
// fixed for the rest of the traversal.
func WithCallOptions(opts ...CallOption) CollectOption {
	return func(cc *collectConfig) { cc.callOpts = opts }
}

// Collect walks a paginated listing endpoint, accumulating every record in
// the data array of each page, following paging.next links until the server
// stops supplying one. Each next-link is absolute and self-contained, so the
// initial query parameters are discarded after the first page.
func (c *Client) Collect(ctx context.Context, path string, params url.Values, opts ...CollectOption) ([]Record, error) {
	var cc collectConfig
	for _, opt := range opts {
		opt(&cc)
	}

	var records []Record
	nextURL := ""

	for pageNum := 1; ; pageNum++ {
		if pageNum > maxPages {
			return nil, &Error{Kind: KindPermanent,
				Message: fmt.Sprintf("pagination exceeded %d pages for %s; aborting traversal", maxPages, path)}
		}

		var (
			payload Record
			err     error
		)
		if nextURL == "" {
			payload, err = c.Get(ctx, path, params, cc.callOpts...)
		} else {
			payload, err = c.GetURL(ctx, nextURL)
		}
		if err != nil {
			return nil, err
		}

		pg := asPage(payload)

		for _, rec := range pg.Data {
			records = append(records, rec)
			if cc.limit > 0 && len(records) >= cc.limit {
				return records, nil
			}
		}

		if pg.Paging == nil || pg.Paging.Next == "" {
			return records, nil
		}
		nextURL = pg.Paging.Next
	}
}

// asPage reinterprets a parsed payload as a list-response envelope. Items in
// the data array that are not objects are skipped.
func asPage(payload Record) *page {
	pg := &page{}
	for _, item := range payload.List("data") {
		if m, ok := item.(map[string]any); ok {
			pg.Data = append(pg.Data, Record(m))
		}
	}
	if p := payload.Nested("paging"); p != nil {
		pg.Paging = &paging{Next: p.Str("next")}
	}
	return pg
}
