package spend

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/hellenic-development/fbpage-exporter/pkg/graph"
)

// snapshotSampleLimit caps the number of post-to-ads mappings included in the
// debug snapshot.
const snapshotSampleLimit = 10

// Snapshot is the structured debug artifact written when the debug flag is
// set: enough run state to diagnose why a post got the spend it did without
// re-running against the live API.
type Snapshot struct {
	GraphVersion         string                  `json:"graph_version"`
	PageID               string                  `json:"page_id"`
	AdAccountID          string                  `json:"ad_account_id,omitempty"`
	MetricResolutions    map[string][]string     `json:"metric_resolutions,omitempty"`
	Counts               Stats                   `json:"counts"`
	SampleMappings       map[string][]string     `json:"sample_mappings"`
	SampleSpendResponses map[string]graph.Record `json:"sample_spend_responses"`
}

// NewSnapshot assembles a snapshot, truncating the mapping sample
// deterministically (smallest post ids first).
func NewSnapshot(graphVersion, pageID, accountID string, stats Stats, postToAds map[string][]string, spendSamples map[string]graph.Record) Snapshot {
	postIDs := make([]string, 0, len(postToAds))
	for id := range postToAds {
		postIDs = append(postIDs, id)
	}
	sort.Strings(postIDs)
	if len(postIDs) > snapshotSampleLimit {
		postIDs = postIDs[:snapshotSampleLimit]
	}

	sample := make(map[string][]string, len(postIDs))
	for _, id := range postIDs {
		sample[id] = postToAds[id]
	}

	return Snapshot{
		GraphVersion:         graphVersion,
		PageID:               pageID,
		AdAccountID:          accountID,
		Counts:               stats,
		SampleMappings:       sample,
		SampleSpendResponses: spendSamples,
	}
}

// Write serializes the snapshot as indented JSON at path.
func (s Snapshot) Write(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding debug snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing debug snapshot: %w", err)
	}
	return nil
}
