package spend

import (
	"context"
	"net/url"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
)

// adFields is the field specification for the ad listing. Both the
// adcreatives edge and the creative field are requested because accounts
// differ in which one carries the effective story id.
const adFields = "id,adcreatives{effective_object_story_id},creative{effective_object_story_id,id},created_time,updated_time,status"

// Stats aggregates run counters for logs and the debug snapshot.
type Stats struct {
	PostsFetched    int `json:"posts_fetched"`
	AdsScanned      int `json:"ads_scanned"`
	AdsWithStoryID  int `json:"ads_with_story_id"`
	PostsMatchedAds int `json:"posts_matched_to_ads"`
}

// StoryID extracts the page-post story id an ad's creative points at.
// The adcreatives edge is preferred; the inline creative field is the
// fallback. Returns "" when the ad references no story.
func StoryID(ad graph.Record) string {
	if adcreatives := ad.Nested("adcreatives"); adcreatives != nil {
		for _, item := range adcreatives.List("data") {
			creative, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if id, ok := creative["effective_object_story_id"].(string); ok && id != "" {
				return id
			}
		}
	}
	if creative := ad.Nested("creative"); creative != nil {
		if id := creative.Str("effective_object_story_id"); id != "" {
			return id
		}
	}
	return ""
}

// MapPostsToAds walks the ad account's ads and indexes, for every post id in
// postIDs, the ads whose creative story id references it. Ads without a story
// id or pointing at unknown posts are counted and skipped.
func MapPostsToAds(ctx context.Context, client *graph.Client, accountID string, postIDs map[string]bool, stats *Stats) (map[string][]string, error) {
	params := url.Values{
		"fields": {adFields},
		"limit":  {"100"},
	}
	ads, err := client.Collect(ctx, "act_"+accountID+"/ads", params)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string][]string)
	for _, ad := range ads {
		stats.AdsScanned++
		adID := ad.Str("id")
		if adID == "" {
			continue
		}
		storyID := StoryID(ad)
		if storyID == "" {
			continue
		}
		stats.AdsWithStoryID++
		if postIDs[storyID] {
			mapping[storyID] = append(mapping[storyID], adID)
		}
	}
	stats.PostsMatchedAds = len(mapping)
	return mapping, nil
}
