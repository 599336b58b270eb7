// Package model - VulnerabilityDetailsReport is the per (advisory, dependency)
// presentation object assembled by the report generator. Built fresh per
// request, never persisted.
package model

// SourceInfo identifies one advisory feed that contributed to a report.
type SourceInfo struct {
	Name           string `json:"name"`
	VulnURL        string `json:"vuln_url,omitempty"`
	AttributionURL string `json:"attribution_url,omitempty"`
}

// VersionStatus is the affected/not-affected verdict of one source for the
// installed version, with the natural-language justification used for
// cross-source disagreement detection.
type VersionStatus struct {
	Source        string `json:"source"`
	Affected      bool   `json:"affected"`
	Justification string `json:"justification,omitempty"`
}

// VersionInfo describes the affected version range of an advisory plus the
// per-source verdicts for the installed version.
type VersionInfo struct {
	AffectedVersionsString string          `json:"affected_versions_string"`
	InstalledVersion       string          `json:"installed_version"`
	Statuses               []VersionStatus `json:"statuses,omitempty"`
	SourcesDisagree        bool            `json:"sources_disagree"`
}

// VulnerabilityInfo is the advisory-level header of a report.
type VulnerabilityInfo struct {
	VulnerabilityID  string       `json:"vulnerability_id"`
	Description      string       `json:"description"`
	PublishedDate    string       `json:"published_date,omitempty"`
	LastModifiedDate string       `json:"last_modified_date,omitempty"`
	Sources          []SourceInfo `json:"sources"`
	Aliases          []string     `json:"aliases,omitempty"`
	VersionInfo      VersionInfo  `json:"version_info"`
}

// DependencyInfo is the dependency-level section of a report.
type DependencyInfo struct {
	Name             string   `json:"name"`
	InstalledVersion string   `json:"installed_version"`
	PackageManager   string   `json:"package_manager"`
	Description      string   `json:"description,omitempty"`
	Homepage         string   `json:"homepage,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
}

// WeaknessInfo is one resolved CWE entry of a report.
type WeaknessInfo struct {
	WeaknessID          string `json:"weakness_id"`
	WeaknessName        string `json:"weakness_name"`
	WeaknessDescription string `json:"weakness_description"`
	ExtendedDescription string `json:"extended_description,omitempty"`
}

// CommonConsequence is one impact entry of a CWE's common-consequences table.
type CommonConsequence struct {
	Scope  []string `json:"scope,omitempty"`
	Impact []string `json:"impact,omitempty"`
	Note   string   `json:"note,omitempty"`
}

// OwaspInfo is the resolved OWASP Top 10 category of a report, taken from the
// first weakness that carries a category.
type OwaspInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ReferenceInfo is one external reference of a report.
type ReferenceInfo struct {
	URL  string   `json:"url"`
	Tags []string `json:"tags,omitempty"`
}

// PatchInfo lists the versions in which the advisory is fixed.
type PatchInfo struct {
	Patched []string `json:"patched,omitempty"`
}

// OtherInfo carries the odds and ends of a report that have no section of
// their own.
type OtherInfo struct {
	PackageManager string       `json:"package_manager"`
	ConflictFlag   ConflictFlag `json:"conflict_flag"`
}

// VulnerabilityDetailsReport is the full detail view for one advisory on one
// dependency.
type VulnerabilityDetailsReport struct {
	VulnerabilityInfo  VulnerabilityInfo              `json:"vulnerability_info"`
	DependencyInfo     *DependencyInfo                `json:"dependency_info,omitempty"`
	Severities         SeverityInfo                   `json:"severities"`
	Weaknesses         []WeaknessInfo                 `json:"weaknesses,omitempty"`
	CommonConsequences map[string][]CommonConsequence `json:"common_consequences,omitempty"`
	OwaspTop10         *OwaspInfo                     `json:"owasp_top_10,omitempty"`
	References         []ReferenceInfo                `json:"references,omitempty"`
	Patch              PatchInfo                      `json:"patch"`
	Other              OtherInfo                      `json:"other"`
}
