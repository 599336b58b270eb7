// Package model - dashboard aggregation outputs
package model

// WeeklySeverityBucket is the severity histogram of one ISO week. At most one
// finding per project contributes to a bucket (first-seen wins), so repeated
// analyses of the same project within a week are not double counted.
type WeeklySeverityBucket struct {
	Week           int      `json:"week"`
	Year           int      `json:"year"`
	Critical       int      `json:"critical"`
	High           int      `json:"high"`
	Medium         int      `json:"medium"`
	Low            int      `json:"low"`
	None           int      `json:"none"`
	SummedSeverity float64  `json:"summed_severity"`
	ProjectIDs     []string `json:"project_ids"`
}

// Distribution is a flat label -> count histogram.
type Distribution map[string]int

// DashboardDistributions groups the flat distributions served together.
type DashboardDistributions struct {
	AttackVector    Distribution `json:"attack_vector"`
	Confidentiality Distribution `json:"confidentiality"`
	Integrity       Distribution `json:"integrity"`
	Availability    Distribution `json:"availability"`
	License         Distribution `json:"license"`
}

// QuickStats is the letter-graded summary shown at the top of the dashboard.
type QuickStats struct {
	Score         float64 `json:"score"`
	Grade         string  `json:"grade"`
	MaxSeverity   float64 `json:"max_severity"`
	MeanSeverity  float64 `json:"mean_severity"`
	TotalFindings int     `json:"total_findings"`
	CriticalCount int     `json:"critical_count"`
	HighCount     int     `json:"high_count"`
}
