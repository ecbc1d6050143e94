package report

import (
	"context"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
	"github.com/hellenic-development/fbpage-exporter/pkg/insights"
)

// Builder assembles canonical rows for page posts: base fields from the post
// record, insight columns through the metric resolver, and the derived-field
// policy on top. A non-fatal insights failure degrades the single post to
// all-zero metrics; a fatal error aborts the whole build.
type Builder struct {
	resolver *insights.Resolver
	logger   graph.Logger
}

// NewBuilder creates a row builder on top of the given resolver. A nil logger
// is silent.
func NewBuilder(resolver *insights.Resolver, logger graph.Logger) *Builder {
	if logger == nil {
		logger = silentLogger{}
	}
	return &Builder{resolver: resolver, logger: logger}
}

type silentLogger struct{}

func (silentLogger) Infof(string, ...any)  {}
func (silentLogger) Warnf(string, ...any)  {}
func (silentLogger) Errorf(string, ...any) {}

// GroupKey derives the structural signature a post shares with others of its
// capability class: its declared status type and media type. Posts with
// neither share the "default" group.
func GroupKey(post graph.Record) string {
	statusType := post.Str("status_type")
	mediaType := post.Str("type")
	if statusType == "" && mediaType == "" {
		return "default"
	}
	return statusType + "|" + mediaType
}

// BaseRow fills the text columns straight from the post record. Title falls
// back from message to story; post type from status_type to type.
func BaseRow(post graph.Record, pageName string) Row {
	title := post.Str("message")
	if title == "" {
		title = post.Str("story")
	}
	postType := post.Str("status_type")
	if postType == "" {
		postType = post.Str("type")
	}
	return Row{
		ColPostID:      post.Str("id"),
		ColPageName:    pageName,
		ColTitle:       title,
		ColPublishTime: post.Str("created_time"),
		ColPermalink:   post.Str("permalink_url"),
		ColPostType:    postType,
	}
}

// BuildRows produces one canonical row per post, in the order received.
// Every returned row carries the full column set. Only a fatal classification
// aborts the build; any other per-post failure yields that post's row with
// zeroed metrics and processing continues.
func (b *Builder) BuildRows(ctx context.Context, posts []graph.Record, pageName string) ([]Row, error) {
	rows := make([]Row, 0, len(posts))

	for i, post := range posts {
		postID := post.Str("id")
		b.logger.Infof("processing post %d/%d: %s", i+1, len(posts), postID)

		row := BaseRow(post, pageName)
		metricsRow, err := b.buildInsights(ctx, post, postID)
		if err != nil {
			if graph.IsFatal(err) {
				return nil, err
			}
			b.logger.Warnf("insights failed for post %s after retries; using zeroed metrics: %v", postID, err)
			metricsRow = zeroInsights()
		}
		for col, v := range metricsRow {
			row[col] = v
		}
		applyDirectFallbacks(row, post)

		// Every declared column present, defaulted by type.
		for _, col := range Columns {
			if _, ok := row[col]; !ok {
				if baseColumns[col] {
					row[col] = ""
				} else {
					row[col] = int64(0)
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *Builder) buildInsights(ctx context.Context, post graph.Record, postID string) (Row, error) {
	if postID == "" {
		return zeroInsights(), nil
	}
	items, err := b.resolver.Fetch(ctx, GroupKey(post), postID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return zeroInsights(), nil
	}

	row, droppedLabels := ComposeInsights(insights.MetricValues(items))
	if droppedLabels > 0 {
		b.logger.Warnf("post %s: dropped %d demographic breakdown entries with unrecognized labels", postID, droppedLabels)
	}
	return row, nil
}

// applyDirectFallbacks backfills counters available on the post record itself
// when the insights metric yielded zero. Currently only the share count,
// which listing exposes as shares.count under the richest field set.
func applyDirectFallbacks(row Row, post graph.Record) {
	if rowInt(row, ColShares) == 0 {
		if shares := post.Nested("shares"); shares != nil {
			if count := insights.ScalarValue(shares["count"]); count > 0 {
				row[ColShares] = count
			}
		}
	}
}
