package report

import (
	"github.com/hellenic-development/fbpage-exporter/pkg/insights"
)

// impressionsPriority lists equivalent metric names for total impressions,
// preferred first. post_media_view replaced post_impressions for some pages
// in newer Graph versions.
var impressionsPriority = []string{"post_impressions", "post_media_view"}

// ComposeInsights converts a metric-name-to-raw-value mapping into a row
// fragment holding every insight column, applying the replacement-metric
// priority lists, breakdown splits, cross-field reconciliation and the video
// monotonicity fixup. Metrics absent from the input stay 0. The second result
// counts demographic breakdown entries dropped for unrecognized labels, so
// callers can surface the loss.
func ComposeInsights(metrics map[string]any) (Row, int) {
	row := zeroInsights()

	row[ColImpressions] = firstPositive(metrics, impressionsPriority)
	row[ColImpressionsUniq] = insights.ScalarValue(metrics["post_impressions_unique"])
	row[ColImpressionsOrg] = insights.ScalarValue(metrics["post_impressions_organic"])
	row[ColImpressionsPaid] = insights.ScalarValue(metrics["post_impressions_paid"])
	row[ColReach] = insights.ScalarValue(metrics["post_reach"])
	row[ColReachOrganic] = insights.ScalarValue(metrics["post_reach_organic"])
	row[ColReachPaid] = insights.ScalarValue(metrics["post_reach_paid"])
	row[ColEngagedUsers] = insights.ScalarValue(metrics["post_engaged_users"])
	row[ColComments] = insights.ScalarValue(metrics["post_comments"])
	row[ColShares] = insights.ScalarValue(metrics["post_shares"])
	row[ColNegative] = insights.ScalarValue(metrics["post_negative_feedback"])
	row[ColNegativeUniq] = insights.ScalarValue(metrics["post_negative_feedback_unique"])

	composeReactions(row, metrics["post_reactions_by_type_total"])
	composeClicks(row, metrics["post_clicks"], metrics["post_clicks_by_type"])

	row[ColVideoViews3s] = insights.ScalarValue(metrics["post_video_views_3s"])
	row[ColVideoViews1m] = insights.ScalarValue(metrics["post_video_views_1m"])
	row[ColVideoViewTime] = insights.ScalarValue(metrics["post_video_view_time"])
	row[ColVideoAvgTime] = insights.ScalarValue(metrics["post_video_avg_time_watched"])

	dropped := composeDemographics(row, metrics["post_video_views_3s_by_age_bucket_and_gender"])

	reconcileParts(row, ColImpressions, ColImpressionsOrg, ColImpressionsPaid)
	reconcileParts(row, ColReach, ColReachOrganic, ColReachPaid)
	fixupVideoMonotonicity(row)

	return row, dropped
}

// firstPositive returns the first metric in the priority list with a positive
// normalized value, or the normalized value of the first name when none is
// positive.
func firstPositive(metrics map[string]any, priority []string) int64 {
	for _, name := range priority {
		if v := insights.ScalarValue(metrics[name]); v > 0 {
			return v
		}
	}
	return insights.ScalarValue(metrics[priority[0]])
}

func composeReactions(row Row, raw any) {
	breakdown := insights.KeyedBreakdown(raw)
	if len(breakdown) == 0 {
		return
	}
	row[ColReactionsLike] = breakdown["like"]
	row[ColReactionsLove] = breakdown["love"]
	row[ColReactionsWow] = breakdown["wow"]
	row[ColReactionsHaha] = breakdown["haha"]
	row[ColReactionsSad] = breakdown["sad"]
	row[ColReactionsAngry] = breakdown["angry"]

	var total int64
	for _, v := range breakdown {
		total += v
	}
	row[ColReactionsTotal] = total
}

func composeClicks(row Row, totalRaw, breakdownRaw any) {
	total := insights.ScalarValue(totalRaw)
	breakdown := insights.KeyedBreakdown(breakdownRaw)

	var link, breakdownTotal int64
	if len(breakdown) > 0 {
		link = breakdown["link clicks"]
		if link == 0 {
			link = breakdown["link_clicks"]
		}
		for _, v := range breakdown {
			breakdownTotal += v
		}
		if total == 0 {
			total = breakdownTotal
		}
	}

	other := breakdownTotal - link
	if other < 0 {
		other = 0
	}

	row[ColTotalClicks] = total
	row[ColLinkClicks] = link
	row[ColOtherClicks] = other
}

func composeDemographics(row Row, raw any) int {
	if raw == nil {
		return 0
	}
	breakdown, dropped := insights.DemographicBreakdown(raw)
	for key, col := range demoColumns {
		if v, ok := breakdown[key]; ok {
			row[col] = v
		}
	}
	return dropped
}

// reconcileParts enforces total = organic + paid for a metric triple. When the
// total is missing it is derived from the parts; when one part is missing it
// is derived from the total and the other part, floored at 0.
func reconcileParts(row Row, totalCol, organicCol, paidCol string) {
	total := rowInt(row, totalCol)
	organic := rowInt(row, organicCol)
	paid := rowInt(row, paidCol)

	switch {
	case total == 0 && (organic > 0 || paid > 0):
		row[totalCol] = organic + paid
	case total > 0 && organic == 0 && paid > 0:
		row[organicCol] = maxInt64(0, total-paid)
	case total > 0 && paid == 0 && organic > 0:
		row[paidCol] = maxInt64(0, total-organic)
	}
}

// fixupVideoMonotonicity raises the 3-second view count to the 1-minute view
// count when the latter exceeds it: view counts cannot increase as the
// dwell-time threshold increases.
func fixupVideoMonotonicity(row Row) {
	threeSec := rowInt(row, ColVideoViews3s)
	oneMin := rowInt(row, ColVideoViews1m)
	if oneMin > threeSec {
		row[ColVideoViews3s] = oneMin
	}
}

func rowInt(row Row, col string) int64 {
	v, _ := row[col].(int64)
	return v
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
