// Package fbpageexporter exports Facebook Page post metadata and insight
// metrics via the Graph API into tabular reports, and attributes ad-account
// spend back to the page posts the ads promote.
//
// The CLI lives in cmd/fbpage-exporter; this root package exposes the same
// pipelines as a Go API so that callers can embed the export in their own
// tools without shelling out.
//
// # Import
//
// The module path contains a hyphen but Go package names cannot, so the
// package is named fbpageexporter:
//
//	import "github.com/hellenic-development/fbpage-exporter" // package fbpageexporter
//
// # Quick start
//
//	result, err := fbpageexporter.Run(fbpageexporter.Options{
//	    AccessToken:  os.Getenv("FB_PAGE_ACCESS_TOKEN"),
//	    PageID:       "101275806400438",
//	    Since:        "2026-01-01",
//	    Until:        "2026-01-31",
//	    GraphVersion: "v23.0",
//	    OutputFile:   "fb_page_posts_report.csv",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Printf("wrote %d rows", len(result.Rows))
//
// # Schema drift
//
// Meta deprecates insight metrics and post fields across Graph versions, and
// availability varies by post type and page capability. The pipeline
// negotiates a working field set for the post listing from a fallback chain,
// discovers valid metrics once per post group, and narrows a group's metric
// list when the API later rejects a metric for a specific post. Posts whose
// insights cannot be fetched at all degrade to all-zero metric columns; only
// token/permission errors abort a run.
//
// # Logging
//
// Pass a [Logger] implementation in [Options.Logger] to receive progress
// messages and degradation warnings. A nil Logger silences all output.
//
// # Spend attribution
//
// [RunSpend] maps the page's posts to the ad account's ads through each
// creative's effective object story id, fetches per-ad spend once, and writes
// a spend-per-post XLSX report. An unset or placeholder ad account id
// produces a report with zero spend everywhere rather than failing.
package fbpageexporter
