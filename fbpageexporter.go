package fbpageexporter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
	"github.com/hellenic-development/fbpage-exporter/pkg/insights"
	"github.com/hellenic-development/fbpage-exporter/pkg/report"
)

// Defaults applied by Run when the corresponding Options field is zero.
const (
	DefaultGraphVersion = "v23.0"
	DefaultOutputFile   = "fb_page_posts_report.csv"
	DefaultDryRunLimit  = 25
)

// Placeholder values left in config templates. Treated as unset.
const (
	tokenPlaceholder = "<ACCESS_TOKEN>"
	pagePlaceholder  = "<PAGE_ID>"
)

const postsPageSize = 100

// Options configures the posts export.
type Options struct {
	AccessToken  string
	PageID       string
	Since        string // inclusive, YYYY-MM-DD
	Until        string // exclusive, YYYY-MM-DD
	GraphVersion string // e.g. "v23.0"
	OutputFile   string // CSV destination path
	DryRun       bool   // cap the post listing instead of exporting everything
	DryRunLimit  int    // max posts in dry-run mode, default 25
	Logger       Logger // nil = no logging

	// GraphOptions are passed through to the underlying API client,
	// e.g. graph.WithMaxAttempts or graph.WithHTTPClient.
	GraphOptions []graph.Option
}

// Logger receives progress messages. A nil Logger means silent operation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Result contains the export output.
type Result struct {
	Rows     []report.Row
	PageName string
	FieldSet string // post listing field set that the API accepted

	// MetricResolutions maps post group keys to the metric names that
	// survived discovery and self-healing for that group.
	MetricResolutions map[string][]string
}

// ConfigError marks a configuration problem detected before any network
// traffic: a missing token, a placeholder value, a malformed date. Callers
// that map errors to exit codes can distinguish it with errors.As.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "config: " + e.Reason }

func (o *Options) logInfo(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Infof(f, a...)
	}
}

func (o *Options) logWarn(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Warnf(f, a...)
	}
}

// Run executes the posts export pipeline and returns the result.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := validateBase(opts.AccessToken, opts.PageID, opts.Since, opts.Until); err != nil {
		return nil, err
	}
	if opts.GraphVersion == "" {
		opts.GraphVersion = DefaultGraphVersion
	}
	if opts.OutputFile == "" {
		opts.OutputFile = DefaultOutputFile
	}
	if opts.DryRunLimit <= 0 {
		opts.DryRunLimit = DefaultDryRunLimit
	}

	since, until, err := parseRange(opts.Since, opts.Until)
	if err != nil {
		return nil, err
	}

	clientOpts := append([]graph.Option{graph.WithLogger(opts.Logger)}, opts.GraphOptions...)
	client := graph.NewClient(opts.AccessToken, opts.GraphVersion, clientOpts...)

	opts.logInfo("Fetching page profile...")
	page, err := client.Get(ctx, opts.PageID, url.Values{"fields": {"name"}})
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	pageName := page.Str("name")
	opts.logInfo("Page: %s", pageName)

	params := url.Values{
		"since": {strconv.FormatInt(since, 10)},
		"until": {strconv.FormatInt(until, 10)},
		"limit": {strconv.Itoa(postsPageSize)},
	}
	var collectOpts []graph.CollectOption
	if opts.DryRun {
		opts.logWarn("Dry run: capping listing at %d post(s)", opts.DryRunLimit)
		collectOpts = append(collectOpts, graph.Limit(opts.DryRunLimit))
	}

	opts.logInfo("Listing posts %s..%s...", opts.Since, opts.Until)
	posts, fieldSet, err := insights.ListWithFields(ctx, client, opts.PageID+"/posts", params,
		insights.PostFieldCandidates, opts.Logger, collectOpts...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	opts.logInfo("Fetched %d post(s) with field set %q", len(posts), fieldSet)

	resolver := insights.NewResolver(client, insights.MetricCandidates, opts.Logger)
	builder := report.NewBuilder(resolver, opts.Logger)

	rows, err := builder.BuildRows(ctx, posts, pageName)
	if err != nil {
		return nil, fmt.Errorf("build rows: %w", err)
	}

	opts.logInfo("Writing %d row(s) to %s", len(rows), opts.OutputFile)
	if err := report.WriteCSV(opts.OutputFile, rows); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	return &Result{
		Rows:              rows,
		PageName:          pageName,
		FieldSet:          fieldSet,
		MetricResolutions: resolver.Resolutions(),
	}, nil
}

func validateBase(token, pageID, since, until string) error {
	if token == "" || token == tokenPlaceholder {
		return &ConfigError{Reason: "access token is not set (FB_PAGE_ACCESS_TOKEN)"}
	}
	if pageID == "" || pageID == pagePlaceholder {
		return &ConfigError{Reason: "page id is not set"}
	}
	if since == "" || until == "" {
		return &ConfigError{Reason: "both since and until dates are required"}
	}
	return nil
}

// parseRange converts YYYY-MM-DD dates to UTC midnight Unix timestamps.
func parseRange(since, until string) (int64, int64, error) {
	s, err := time.ParseInLocation("2006-01-02", since, time.UTC)
	if err != nil {
		return 0, 0, &ConfigError{Reason: fmt.Sprintf("invalid since date %q: expected YYYY-MM-DD", since)}
	}
	u, err := time.ParseInLocation("2006-01-02", until, time.UTC)
	if err != nil {
		return 0, 0, &ConfigError{Reason: fmt.Sprintf("invalid until date %q: expected YYYY-MM-DD", until)}
	}
	if !u.After(s) {
		return 0, 0, &ConfigError{Reason: "until date must be after since date"}
	}
	return s.Unix(), u.Unix(), nil
}
