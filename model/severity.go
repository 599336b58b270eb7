// Package model - SeverityScore and severity classification
package model

// Severity class labels shared by merge, filtering, and the dashboards
const (
	SeverityClassCritical = "CRITICAL"
	SeverityClassHigh     = "HIGH"
	SeverityClassMedium   = "MEDIUM"
	SeverityClassLow      = "LOW"
	SeverityClassNone     = "NONE"
)

// SeverityScore is the severity information attached to a finding. A nil
// SeverityScore is a valid state meaning "no severity known" and is treated
// as severity 0 / class NONE, never as an error.
type SeverityScore struct {
	Severity                       float64 `json:"severity"`
	SeverityClass                  string  `json:"severity_class"`
	Vector                         string  `json:"vector"`
	Impact                         float64 `json:"impact"`
	Exploitability                 float64 `json:"exploitability"`
	ConfidentialityImpact          string  `json:"confidentiality_impact"`
	IntegrityImpact                string  `json:"integrity_impact"`
	AvailabilityImpact             string  `json:"availability_impact"`
	ConfidentialityImpactNumerical float64 `json:"confidentiality_impact_numerical"`
	IntegrityImpactNumerical       float64 `json:"integrity_impact_numerical"`
	AvailabilityImpactNumerical    float64 `json:"availability_impact_numerical"`
}

// Value returns the numeric severity, treating a nil score as 0.
func (s *SeverityScore) Value() float64 {
	if s == nil {
		return 0
	}
	return s.Severity
}

// ExploitabilityValue returns the exploitability sub-score, treating a nil
// score as 0.
func (s *SeverityScore) ExploitabilityValue() float64 {
	if s == nil {
		return 0
	}
	return s.Exploitability
}

// ClassifySeverity maps a numeric severity to its class label.
// Boundaries: NONE [0,1), LOW [1,2), MEDIUM [2,4), HIGH [4,7), CRITICAL [7,inf).
func ClassifySeverity(severity float64) string {
	switch {
	case severity >= 7:
		return SeverityClassCritical
	case severity >= 4:
		return SeverityClassHigh
	case severity >= 2:
		return SeverityClassMedium
	case severity >= 1:
		return SeverityClassLow
	default:
		return SeverityClassNone
	}
}
