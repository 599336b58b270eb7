// Package model - parsed CVSS results, one struct per schema version
package model

// Cvss2 is the component breakdown and computed scores of a CVSS v2 vector.
type Cvss2 struct {
	BaseScore               float64 `json:"base_score"`
	ExploitabilityScore     float64 `json:"exploitability_score"`
	ImpactScore             float64 `json:"impact_score"`
	AccessVector            string  `json:"access_vector"`
	AccessComplexity        string  `json:"access_complexity"`
	Authentication          string  `json:"authentication"`
	ConfidentialityImpact   string  `json:"confidentiality_impact"`
	IntegrityImpact         string  `json:"integrity_impact"`
	AvailabilityImpact      string  `json:"availability_impact"`
	UserInteractionRequired bool    `json:"user_interaction_required,omitempty"`
}

// Cvss3 is the component breakdown and computed scores of a CVSS v3.0 vector.
type Cvss3 struct {
	BaseScore             float64 `json:"base_score"`
	ExploitabilityScore   float64 `json:"exploitability_score"`
	ImpactScore           float64 `json:"impact_score"`
	AttackVector          string  `json:"attack_vector"`
	AttackComplexity      string  `json:"attack_complexity"`
	PrivilegesRequired    string  `json:"privileges_required"`
	UserInteraction       string  `json:"user_interaction"`
	Scope                 string  `json:"scope"`
	ConfidentialityImpact string  `json:"confidentiality_impact"`
	IntegrityImpact       string  `json:"integrity_impact"`
	AvailabilityImpact    string  `json:"availability_impact"`
}

// Cvss31 is the component breakdown and computed scores of a CVSS v3.1
// vector. Same components as v3.0 but the score rounding differs.
type Cvss31 struct {
	BaseScore             float64 `json:"base_score"`
	ExploitabilityScore   float64 `json:"exploitability_score"`
	ImpactScore           float64 `json:"impact_score"`
	AttackVector          string  `json:"attack_vector"`
	AttackComplexity      string  `json:"attack_complexity"`
	PrivilegesRequired    string  `json:"privileges_required"`
	UserInteraction       string  `json:"user_interaction"`
	Scope                 string  `json:"scope"`
	ConfidentialityImpact string  `json:"confidentiality_impact"`
	IntegrityImpact       string  `json:"integrity_impact"`
	AvailabilityImpact    string  `json:"availability_impact"`
}

// SeverityInfo groups the per-schema-version CVSS results of a report. A nil
// entry means the sources supplied no usable vector for that version.
type SeverityInfo struct {
	Cvss2  *Cvss2  `json:"cvss_2,omitempty"`
	Cvss3  *Cvss3  `json:"cvss_3,omitempty"`
	Cvss31 *Cvss31 `json:"cvss_31,omitempty"`
}
