package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	fbpageexporter "github.com/hellenic-development/fbpage-exporter"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.2.0"

const tokenEnvVar = "FB_PAGE_ACCESS_TOKEN"

var (
	accessToken  string
	pageID       string
	adAccountID  string
	since        string
	until        string
	graphVersion string
	outputFile   string
	dryRun       bool
	dryRunLimit  int
	debug        bool
	debugFile    string
)

func main() {
	// A missing .env is fine; the token can come from the environment or a flag.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "fbpage-exporter",
		Short: "Export Facebook Page post insights and ad spend",
		Long:  "A tool to export Facebook Page post metadata and insight metrics to CSV, and to attribute ad-account spend to page posts, via the Graph API",
	}

	rootCmd.PersistentFlags().StringVarP(&accessToken, "token", "t", "", "Page access token (default $"+tokenEnvVar+")")
	rootCmd.PersistentFlags().StringVarP(&pageID, "page", "p", "", "Facebook Page ID (required)")
	rootCmd.PersistentFlags().StringVar(&since, "since", "", "Start date, inclusive (YYYY-MM-DD, required)")
	rootCmd.PersistentFlags().StringVar(&until, "until", "", "End date, exclusive (YYYY-MM-DD, required)")
	rootCmd.PersistentFlags().StringVar(&graphVersion, "graph-version", fbpageexporter.DefaultGraphVersion, "Graph API version")

	postsCmd := &cobra.Command{
		Use:   "posts",
		Short: "Export post metadata and insight metrics to CSV",
		Run:   runPosts,
	}
	postsCmd.Flags().StringVarP(&outputFile, "output", "o", fbpageexporter.DefaultOutputFile, "Output CSV file")
	postsCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Cap the post listing instead of exporting everything")
	postsCmd.Flags().IntVar(&dryRunLimit, "dry-run-limit", fbpageexporter.DefaultDryRunLimit, "Max posts in dry-run mode")

	spendCmd := &cobra.Command{
		Use:   "spend",
		Short: "Attribute ad-account spend to page posts and export to XLSX",
		Run:   runSpend,
	}
	spendCmd.Flags().StringVarP(&adAccountID, "ad-account", "a", "", "Ad account ID (with or without act_ prefix)")
	spendCmd.Flags().StringVarP(&outputFile, "output", "o", fbpageexporter.DefaultSpendOutputFile, "Output XLSX file")
	spendCmd.Flags().BoolVar(&debug, "debug", false, "Write a JSON snapshot of the run state")
	spendCmd.Flags().StringVar(&debugFile, "debug-file", fbpageexporter.DefaultSpendDebugFile, "Debug snapshot file")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fbpage-exporter version %s\n", version)
		},
	}

	rootCmd.AddCommand(postsCmd, spendCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runPosts(cmd *cobra.Command, args []string) {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	cyan.Println("\n📄 Facebook Page Posts Export")
	cyan.Println("==============================")
	cyan.Println()

	opts := fbpageexporter.Options{
		AccessToken:  token(),
		PageID:       pageID,
		Since:        since,
		Until:        until,
		GraphVersion: graphVersion,
		OutputFile:   outputFile,
		DryRun:       dryRun,
		DryRunLimit:  dryRunLimit,
		Logger:       &cliLogger{},
	}

	result, err := fbpageexporter.Run(context.Background(), opts)
	if err != nil {
		fail(err)
	}

	cyan.Println("\n📊 Export Summary:")
	fmt.Printf("  • Page: %s\n", result.PageName)
	fmt.Printf("  • Posts: %d\n", len(result.Rows))
	fmt.Printf("  • Field set: %s\n", result.FieldSet)
	for group, metrics := range result.MetricResolutions {
		fmt.Printf("  • Metrics [%s]: %d\n", group, len(metrics))
	}

	green.Printf("\n✨ Successfully exported %d post(s) to %s\n\n", len(result.Rows), outputFile)
}

func runSpend(cmd *cobra.Command, args []string) {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	cyan.Println("\n💰 Facebook Post Spend Export")
	cyan.Println("==============================")
	cyan.Println()

	opts := fbpageexporter.SpendOptions{
		AccessToken:  token(),
		PageID:       pageID,
		AdAccountID:  adAccountID,
		Since:        since,
		Until:        until,
		GraphVersion: graphVersion,
		OutputFile:   outputFile,
		Debug:        debug,
		DebugFile:    debugFile,
		Logger:       &cliLogger{},
	}

	result, err := fbpageexporter.RunSpend(context.Background(), opts)
	if err != nil {
		fail(err)
	}

	stats := result.Stats
	cyan.Println("\n📊 Spend Summary:")
	fmt.Printf("  • Posts: %d\n", stats.PostsFetched)
	fmt.Printf("  • Ads scanned: %d\n", stats.AdsScanned)
	fmt.Printf("  • Ads with story: %d\n", stats.AdsWithStoryID)
	fmt.Printf("  • Posts matched: %d\n", stats.PostsMatchedAds)

	green.Printf("\n✨ Successfully exported %d row(s) to %s\n\n", len(result.Rows), outputFile)
}

// token resolves the access token from the flag or the environment.
func token() string {
	if accessToken != "" {
		return accessToken
	}
	return os.Getenv(tokenEnvVar)
}

// fail prints the error and exits: 2 for configuration problems, 1 otherwise.
func fail(err error) {
	color.New(color.FgRed).Printf("Error: %v\n", err)
	var cfgErr *fbpageexporter.ConfigError
	if errors.As(err, &cfgErr) {
		os.Exit(2)
	}
	os.Exit(1)
}

// cliLogger implements fbpageexporter.Logger with colored terminal output.
type cliLogger struct{}

func (l *cliLogger) Infof(format string, args ...any) {
	color.New(color.FgYellow).Printf(format+"\n", args...)
}

func (l *cliLogger) Warnf(format string, args ...any) {
	color.New(color.FgYellow).Printf("⚠ "+format+"\n", args...)
}

func (l *cliLogger) Errorf(format string, args ...any) {
	color.New(color.FgRed).Printf("✗ "+format+"\n", args...)
}
