// Package model - analysis result documents as stored in the finding store
package model

import "time"

// AnalysisResult is one stored analyzer run for a project inside a workspace:
// the raw findings plus the precomputed license histogram of the scanned
// dependency tree.
type AnalysisResult struct {
	Key            string         `json:"_key,omitempty"`
	Workspace      string         `json:"workspace"`
	ProjectID      string         `json:"project_id"`
	PackageManager string         `json:"package_manager,omitempty"`
	CreatedOn      time.Time      `json:"created_on"`
	Findings       []Finding      `json:"findings"`
	LicenseCounts  map[string]int `json:"license_counts,omitempty"`
	PolicyIDs      []string       `json:"policy_ids,omitempty"`
	ObjType        string         `json:"objtype,omitempty"`
}

// NewAnalysisResult creates an AnalysisResult with default values.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		ObjType:   "AnalysisResult",
		CreatedOn: time.Now(),
	}
}
