// Package insights negotiates working field-sets and metric lists against a
// schema-drifting Graph API and normalizes the heterogeneous value shapes its
// insights endpoints return. Meta deprecates and renames post metrics across
// API versions, and metric availability varies by post type and page
// capability, so nothing here assumes a fixed response schema.
package insights

// PostFieldCandidates are the field-set specifications tried in order, richest
// to minimal, when listing page posts. Some pages reject the aggregated
// attachment fields; the fallback chain keeps listing working without them.
var PostFieldCandidates = []string{
	"id,created_time,permalink_url,message,story,status_type,type,shares",
	"id,created_time,permalink_url,message,story,status_type,type",
	"id,created_time,permalink_url,message,story,type",
	"id,created_time,permalink_url,message,story",
}

// MetricCandidates is the probe list for per-metric discovery. Order matters
// only for probe sequencing; validity is decided per metric.
var MetricCandidates = []string{
	"post_impressions",
	"post_impressions_unique",
	"post_impressions_organic",
	"post_impressions_paid",
	"post_reach",
	"post_reach_organic",
	"post_reach_paid",
	"post_media_view", // replacement for post_impressions on some pages in newer versions
	"post_engaged_users",
	"post_clicks",
	"post_clicks_unique",
	"post_clicks_by_type",
	"post_reactions_by_type_total",
	"post_comments",
	"post_shares",
	"post_negative_feedback",
	"post_negative_feedback_unique",
	"post_video_views_3s",
	"post_video_views_1m",
	"post_video_view_time",
	"post_video_avg_time_watched",
	"post_video_views_3s_by_age_bucket_and_gender",
}
