// Package model - MergedVulnerability is the advisory-centric list view built
// fresh per request from the raw finding set.
package model

// VLAIScore is one VLAI classifier result collected from a source match.
type VLAIScore struct {
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// EPSSScore is the Exploit Prediction Scoring System probability/percentile
// pair for an advisory.
type EPSSScore struct {
	Score      float64 `json:"score"`
	Percentile float64 `json:"percentile"`
}

// AffectedVuln is one original finding folded into a merged record.
type AffectedVuln struct {
	AffectedDependency string   `json:"affected_dependency"`
	AffectedVersion    string   `json:"affected_version"`
	Sources            []string `json:"sources"`
}

// MergedVulnerability is one record per distinct advisory id across the
// finding set of a workspace. Severity, weaknesses, EPSS and VLAI are seeded
// from the first-seen finding for the id and never overwritten by later
// occurrences. Never persisted.
type MergedVulnerability struct {
	ID                    string         `json:"vulnerability_id"`
	Affected              []AffectedVuln `json:"affected"`
	Severity              *SeverityScore `json:"severity,omitempty"`
	Weaknesses            []Weakness     `json:"weaknesses,omitempty"`
	Conflict              Conflict       `json:"conflict"`
	VLAI                  []VLAIScore    `json:"vlai,omitempty"`
	EPSS                  EPSSScore      `json:"epss"`
	Description           string         `json:"description,omitempty"`
	IsBlacklisted         bool           `json:"is_blacklisted"`
	BlacklistedByPolicies []string       `json:"blacklisted_by_policies,omitempty"`
}
