package fbpageexporter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
	"github.com/hellenic-development/fbpage-exporter/pkg/report"
	"github.com/hellenic-development/fbpage-exporter/pkg/spend"
)

// Defaults applied by RunSpend when the corresponding field is zero.
const (
	DefaultSpendOutputFile = "fb_post_spend.xlsx"
	DefaultSpendDebugFile  = "fb_spend_debug.json"
	spendSheetName         = "FB Post Spend"
)

// SpendOptions configures the ad-spend attribution export.
type SpendOptions struct {
	AccessToken  string
	PageID       string
	AdAccountID  string // optional; empty or placeholder yields all-zero spend
	Since        string // inclusive, YYYY-MM-DD
	Until        string // exclusive, YYYY-MM-DD
	GraphVersion string
	OutputFile   string // XLSX destination path
	Debug        bool   // also write a JSON snapshot of the run state
	DebugFile    string
	Logger       Logger // nil = no logging

	GraphOptions []graph.Option
}

// SpendResult contains the spend export output.
type SpendResult struct {
	Rows  []spend.Row
	Stats spend.Stats
}

func (o *SpendOptions) logInfo(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Infof(f, a...)
	}
}

func (o *SpendOptions) logWarn(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Warnf(f, a...)
	}
}

// RunSpend executes the spend attribution pipeline: list the page's posts in
// the date range, map them to the ad account's ads through creative story
// ids, fetch per-ad spend once each, and write the spend-per-post XLSX.
// Unlike the posts export, any API error aborts the run: a partially
// attributed spend report is worse than none.
func RunSpend(ctx context.Context, opts SpendOptions) (*SpendResult, error) {
	if err := validateBase(opts.AccessToken, opts.PageID, opts.Since, opts.Until); err != nil {
		return nil, err
	}
	if opts.GraphVersion == "" {
		opts.GraphVersion = DefaultGraphVersion
	}
	if opts.OutputFile == "" {
		opts.OutputFile = DefaultSpendOutputFile
	}
	if opts.DebugFile == "" {
		opts.DebugFile = DefaultSpendDebugFile
	}

	since, until, err := parseRange(opts.Since, opts.Until)
	if err != nil {
		return nil, err
	}

	accountID, err := spend.NormalizeAdAccountID(opts.AdAccountID)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}
	if accountID == "" {
		opts.logWarn("Ad account id is not set; the report will show zero spend for every post")
	}

	clientOpts := append([]graph.Option{graph.WithLogger(opts.Logger)}, opts.GraphOptions...)
	client := graph.NewClient(opts.AccessToken, opts.GraphVersion, clientOpts...)

	opts.logInfo("Listing posts %s..%s...", opts.Since, opts.Until)
	params := url.Values{
		"fields": {"id,created_time"},
		"since":  {strconv.FormatInt(since, 10)},
		"until":  {strconv.FormatInt(until, 10)},
		"limit":  {strconv.Itoa(postsPageSize)},
	}
	posts, err := client.Collect(ctx, opts.PageID+"/posts", params)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	opts.logInfo("Fetched %d post(s)", len(posts))

	stats := spend.Stats{PostsFetched: len(posts)}
	postIDs := make(map[string]bool, len(posts))
	for _, post := range posts {
		if id := post.Str("id"); id != "" {
			postIDs[id] = true
		}
	}

	postToAds := map[string][]string{}
	if accountID != "" {
		opts.logInfo("Scanning ads of act_%s for story ids...", accountID)
		postToAds, err = spend.MapPostsToAds(ctx, client, accountID, postIDs, &stats)
		if err != nil {
			return nil, fmt.Errorf("map posts to ads: %w", err)
		}
		opts.logInfo("Matched %d of %d post(s) to ads (%d ads scanned)",
			stats.PostsMatchedAds, stats.PostsFetched, stats.AdsScanned)
	}

	ledger := spend.NewLedger(client, opts.Since, opts.Until)
	adIDs := spend.UniqueAdIDs(postToAds)
	opts.logInfo("Fetching spend for %d ad(s)...", len(adIDs))
	for _, adID := range adIDs {
		if _, err := ledger.Fetch(ctx, adID); err != nil {
			return nil, fmt.Errorf("fetch spend for ad %s: %w", adID, err)
		}
	}

	rows := spend.BuildRows(posts, postToAds, ledger, opts.Since, opts.Until, opts.GraphVersion)

	cells := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, row.Cells())
	}
	opts.logInfo("Writing %d row(s) to %s", len(rows), opts.OutputFile)
	if err := report.WriteXLSX(opts.OutputFile, spendSheetName, spend.Headers, cells); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	if opts.Debug {
		snap := spend.NewSnapshot(opts.GraphVersion, opts.PageID, accountID, stats, postToAds, ledger.Samples())
		opts.logInfo("Writing debug snapshot to %s", opts.DebugFile)
		if err := snap.Write(opts.DebugFile); err != nil {
			return nil, fmt.Errorf("write debug snapshot: %w", err)
		}
	}

	return &SpendResult{Rows: rows, Stats: stats}, nil
}
