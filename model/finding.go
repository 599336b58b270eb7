// Package model defines the data structures shared by the vulnerability
// aggregation service: findings, merged vulnerabilities, reports, and
// dashboard aggregates.
package model

// Source names as emitted by the upstream vulnerability finder plugins
const (
	SourceOSV = "OSV"
	SourceNVD = "NVD"
)

// ConflictFlag classifies the agreement between the advisory sources that
// matched a finding.
type ConflictFlag string

const (
	// ConflictNone means no cross-source conflict was detected.
	ConflictNone ConflictFlag = "NO_CONFLICT"
	// ConflictMatchCorrect means both sources matched and agree.
	ConflictMatchCorrect ConflictFlag = "MATCH_CORRECT"
	// ConflictMatchIncorrect means the sources matched but disagree.
	ConflictMatchIncorrect ConflictFlag = "MATCH_INCORRECT"
	// ConflictMatchPossibleIncorrect means the sources may disagree but the
	// evidence is insufficient to be certain.
	ConflictMatchPossibleIncorrect ConflictFlag = "MATCH_POSSIBLE_INCORRECT"
)

// IsNoConflict reports whether the flag means "no conflict". Analyzer results
// written before the flag existed store an empty string; that legacy value is
// treated as NO_CONFLICT everywhere the flag is compared.
func (f ConflictFlag) IsNoConflict() bool {
	return f == ConflictNone || f == ""
}

// Conflict records which source won a disputed match and how the dispute was
// classified.
type Conflict struct {
	Winner string       `json:"conflict_winner"`
	Flag   ConflictFlag `json:"conflict_flag"`
}

// SemVer is the parsed form of a semantic version attached to affected
// version evidence.
type SemVer struct {
	Major         int    `json:"major"`
	Minor         int    `json:"minor"`
	Patch         int    `json:"patch"`
	PreReleaseTag string `json:"pre_release_tag,omitempty"`
	MetaData      string `json:"meta_data,omitempty"`
}

// AffectedRange is a half-open version interval [Introduced, Fixed).
type AffectedRange struct {
	IntroducedSemver SemVer `json:"introduced_semver"`
	FixedSemver      SemVer `json:"fixed_semver"`
}

// AffectedVersion is a single exactly-matched affected version.
type AffectedVersion struct {
	VersionString string `json:"version_string"`
	Semver        SemVer `json:"semver"`
}

// AffectedEvidence is the abstracted affected-version information one source
// supplied for a finding. Exactly one of the three shapes is populated.
type AffectedEvidence struct {
	Ranges    []AffectedRange   `json:"ranges,omitempty"`
	Exact     []AffectedVersion `json:"exact,omitempty"`
	Universal bool              `json:"universal,omitempty"`
}

// IsEmpty reports whether the evidence carries no usable version information.
func (e *AffectedEvidence) IsEmpty() bool {
	return e == nil || (len(e.Ranges) == 0 && len(e.Exact) == 0 && !e.Universal)
}

// SourceMatch holds the per-source match metadata for a finding: the affected
// version evidence the source supplied, and the optional VLAI model output.
type SourceMatch struct {
	Evidence       *AffectedEvidence `json:"evidence,omitempty"`
	VlaiScore      *float64          `json:"vlai_score,omitempty"`
	VlaiConfidence *float64          `json:"vlai_confidence,omitempty"`
}

// HasVlai reports whether the match carries a VLAI model score.
func (m *SourceMatch) HasVlai() bool {
	return m != nil && m.VlaiScore != nil
}

// Finding is one occurrence of an advisory affecting one dependency at one
// installed version, as produced by the finder plugins. Immutable input to
// the aggregation engine.
type Finding struct {
	VulnerabilityID    string         `json:"vulnerability_id"`
	AffectedDependency string         `json:"affected_dependency"`
	AffectedVersion    string         `json:"affected_version"`
	Sources            []string       `json:"sources"`
	Severity           *SeverityScore `json:"severity,omitempty"`
	Weaknesses         []Weakness     `json:"weaknesses,omitempty"`
	OSVMatch           *SourceMatch   `json:"osv_match,omitempty"`
	NVDMatch           *SourceMatch   `json:"nvd_match,omitempty"`
	Conflict           Conflict       `json:"conflict"`
}

// Weakness is a CWE entry attached to a finding, optionally mapped to an
// OWASP Top 10 category. An empty OWASPTop10ID means "uncategorized", not
// "absent".
type Weakness struct {
	WeaknessID          string `json:"weakness_id"`
	WeaknessName        string `json:"weakness_name"`
	WeaknessDescription string `json:"weakness_description"`
	ExtendedDescription string `json:"extended_description,omitempty"`
	OWASPTop10ID        string `json:"owasp_top_10_id"`
	OWASPTop10Name      string `json:"owasp_top_10_name"`
}
