// Package report composes canonical output rows from post records and
// normalized insight values, and writes them to CSV or XLSX. Every row carries
// the full fixed column set regardless of which metrics the API could supply
// for that post: numeric columns default to 0 and text columns to "".
package report

// Column names of the posts report, in output order.
const (
	ColPostID          = "Post ID"
	ColPageName        = "Page name"
	ColTitle           = "Title"
	ColPublishTime     = "Publish time"
	ColPermalink       = "Permalink"
	ColPostType        = "Post type"
	ColReach           = "Reach"
	ColReachOrganic    = "Reach (Organic)"
	ColReachPaid       = "Reach (Paid/Boosted)"
	ColImpressions     = "Impressions"
	ColImpressionsUniq = "Impressions (Unique)"
	ColImpressionsOrg  = "Impressions (Organic)"
	ColImpressionsPaid = "Impressions (Paid/Boosted)"
	ColEngagedUsers    = "Engaged users"
	ColReactionsTotal  = "Reactions (Total)"
	ColReactionsLike   = "Reactions (like)"
	ColReactionsLove   = "Reactions (love)"
	ColReactionsWow    = "Reactions (wow)"
	ColReactionsHaha   = "Reactions (haha)"
	ColReactionsSad    = "Reactions (sad)"
	ColReactionsAngry  = "Reactions (angry)"
	ColComments        = "Comments"
	ColShares          = "Shares"
	ColTotalClicks     = "Total clicks"
	ColLinkClicks      = "Link Clicks"
	ColOtherClicks     = "Other Clicks"
	ColNegative        = "Negative feedback"
	ColNegativeUniq    = "Negative feedback (Unique)"
	ColVideoViews3s    = "3-second video views"
	ColVideoViews1m    = "1-minute video views"
	ColVideoViewTime   = "Seconds viewed (video view time)"
	ColVideoAvgTime    = "Average seconds viewed (video avg time watched)"
)

// Columns is the fixed, ordered column set of the posts report.
var Columns = []string{
	ColPostID,
	ColPageName,
	ColTitle,
	ColPublishTime,
	ColPermalink,
	ColPostType,
	ColReach,
	ColReachOrganic,
	ColReachPaid,
	ColImpressions,
	ColImpressionsUniq,
	ColImpressionsOrg,
	ColImpressionsPaid,
	ColEngagedUsers,
	ColReactionsTotal,
	ColReactionsLike,
	ColReactionsLove,
	ColReactionsWow,
	ColReactionsHaha,
	ColReactionsSad,
	ColReactionsAngry,
	ColComments,
	ColShares,
	ColTotalClicks,
	ColLinkClicks,
	ColOtherClicks,
	ColNegative,
	ColNegativeUniq,
	ColVideoViews3s,
	ColVideoViews1m,
	ColVideoViewTime,
	ColVideoAvgTime,
	"3s_views_M_18_24",
	"3s_views_M_25_34",
	"3s_views_M_35_44",
	"3s_views_M_45_54",
	"3s_views_M_55_64",
	"3s_views_M_65_plus",
	"3s_views_F_18_24",
	"3s_views_F_25_34",
	"3s_views_F_35_44",
	"3s_views_F_45_54",
	"3s_views_F_55_64",
	"3s_views_F_65_plus",
}

// baseColumns are the text columns filled from the post record itself rather
// than from insights.
var baseColumns = map[string]bool{
	ColPostID:      true,
	ColPageName:    true,
	ColTitle:       true,
	ColPublishTime: true,
	ColPermalink:   true,
	ColPostType:    true,
}

// demoColumns maps canonical demographic breakdown keys to their columns.
var demoColumns = map[string]string{
	"M.18-24": "3s_views_M_18_24",
	"M.25-34": "3s_views_M_25_34",
	"M.35-44": "3s_views_M_35_44",
	"M.45-54": "3s_views_M_45_54",
	"M.55-64": "3s_views_M_55_64",
	"M.65+":   "3s_views_M_65_plus",
	"F.18-24": "3s_views_F_18_24",
	"F.25-34": "3s_views_F_25_34",
	"F.35-44": "3s_views_F_35_44",
	"F.45-54": "3s_views_F_45_54",
	"F.55-64": "3s_views_F_55_64",
	"F.65+":   "3s_views_F_65_plus",
}

// Row is one canonical output row. Base columns hold strings, everything else
// holds int64.
type Row map[string]any

// zeroInsights returns a row fragment with every non-base column set to 0.
func zeroInsights() Row {
	row := make(Row, len(Columns))
	for _, col := range Columns {
		if !baseColumns[col] {
			row[col] = int64(0)
		}
	}
	return row
}
