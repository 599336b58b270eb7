package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodeClarityCE/vulnerabilities/model"
	"github.com/CodeClarityCE/vulnerabilities/util"
)

var (
	serverURL    string
	analysisFile string
	workspace    string
	searchKey    string
	filters      []string
	sortKey      string
	direction    string
	verbose      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vulns-cli",
	Short: "CLI for the vulnerability aggregation API",
	Long: `A CLI tool for interacting with the vulnerability aggregation API.
Uploads analyzer results and queries the merged vulnerability list
and dashboard stats of a workspace.`,
}

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload an analysis result to the aggregation service",
	RunE:  runUpload,
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the merged vulnerabilities of a workspace",
	RunE:  runList,
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard quick stats of a workspace",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "API server URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	uploadCmd.Flags().StringVarP(&analysisFile, "file", "f", "", "Path to analysis result JSON file (required)")
	uploadCmd.MarkFlagRequired("file")

	listCmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace to query (required)")
	listCmd.Flags().StringVar(&searchKey, "search", "", "Free-text search on advisory id or dependency")
	listCmd.Flags().StringSliceVar(&filters, "filters", nil, "Active filter names")
	listCmd.Flags().StringVar(&sortKey, "sort", "severity", "Sort key")
	listCmd.Flags().StringVar(&direction, "direction", "DESC", "Sort direction (ASC or DESC)")
	listCmd.MarkFlagRequired("workspace")

	statsCmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace to query (required)")
	statsCmd.MarkFlagRequired("workspace")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(analysisFile)
	if err != nil {
		return fmt.Errorf("failed to read analysis file: %w", err)
	}

	// Validate the payload before shipping it
	var analysis model.AnalysisResult
	if err := json.Unmarshal(content, &analysis); err != nil {
		return fmt.Errorf("analysis file is not valid JSON: %w", err)
	}
	if util.IsEmpty(analysis.Workspace) {
		return fmt.Errorf("analysis file has no workspace field")
	}

	if verbose {
		fmt.Printf("Uploading analysis for workspace %s with %d findings\n", analysis.Workspace, len(analysis.Findings))
	}

	endpoint := serverURL + "/api/v1/workspaces/" + url.PathEscape(analysis.Workspace) + "/analyses"
	body, status, err := post(endpoint, content)
	if err != nil {
		return fmt.Errorf("failed to upload analysis: %w", err)
	}
	if status != http.StatusCreated {
		return fmt.Errorf("server rejected analysis (%d): %s", status, string(body))
	}

	fmt.Printf("✓ Successfully uploaded analysis for workspace %s\n", analysis.Workspace)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	params := url.Values{}
	if searchKey != "" {
		params.Set("search", searchKey)
	}
	if len(filters) > 0 {
		params.Set("filters", strings.Join(filters, ","))
	}
	params.Set("sort_key", sortKey)
	params.Set("direction", direction)

	endpoint := fmt.Sprintf("%s/api/v1/workspaces/%s/vulnerabilities?%s", serverURL, url.PathEscape(workspace), params.Encode())
	body, status, err := get(endpoint)
	if err != nil {
		return fmt.Errorf("failed to fetch vulnerabilities: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("server error (%d): %s", status, string(body))
	}

	var response struct {
		Data         []model.MergedVulnerability `json:"data"`
		TotalEntries int                         `json:"total_entries"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	for _, vuln := range response.Data {
		severity := vuln.Severity.Value()
		fmt.Printf("%-22s %5.1f %-8s %d dependencies\n",
			vuln.ID, severity, model.ClassifySeverity(severity), len(vuln.Affected))
	}
	fmt.Printf("%d vulnerabilities total\n", response.TotalEntries)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	endpoint := fmt.Sprintf("%s/api/v1/workspaces/%s/dashboard", serverURL, url.PathEscape(workspace))
	body, status, err := get(endpoint)
	if err != nil {
		return fmt.Errorf("failed to fetch dashboard: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("server error (%d): %s", status, string(body))
	}

	var response struct {
		QuickStats model.QuickStats `json:"quick_stats"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	stats := response.QuickStats
	fmt.Printf("Grade:          %s (score %.2f)\n", stats.Grade, stats.Score)
	fmt.Printf("Findings:       %d\n", stats.TotalFindings)
	fmt.Printf("Critical:       %d\n", stats.CriticalCount)
	fmt.Printf("High:           %d\n", stats.HighCount)
	fmt.Printf("Max severity:   %.1f\n", stats.MaxSeverity)
	fmt.Printf("Mean severity:  %.2f\n", stats.MeanSeverity)
	return nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func post(endpoint string, payload []byte) ([]byte, int, error) {
	resp, err := httpClient().Post(endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func get(endpoint string) ([]byte, int, error) {
	resp, err := httpClient().Get(endpoint)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
