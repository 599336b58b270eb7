// Package model - raw NVD advisory records as stored by the knowledge import
package model

// NVDDescription is one language-tagged description of an NVD record.
type NVDDescription struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// NVDMetric is one CVSS metric entry of an NVD record. Several entries of the
// same schema version may exist, each attributed to a source (the NIST entry
// carries source "nvd@nist.gov").
type NVDMetric struct {
	Source                  string `json:"source"`
	Type                    string `json:"type"`
	VectorString            string `json:"vector_string"`
	UserInteractionRequired bool   `json:"user_interaction_required,omitempty"`
}

// NVDWeakness is a CWE reference of an NVD record.
type NVDWeakness struct {
	Source      string           `json:"source"`
	Type        string           `json:"type"`
	Description []NVDDescription `json:"description"`
}

// NVDReference is one external reference of an NVD record.
type NVDReference struct {
	URL    string   `json:"url"`
	Source string   `json:"source,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// NVDCriteriaDict is the decomposed CPE criteria of an affected source entry.
type NVDCriteriaDict struct {
	Part    string `json:"part"`
	Vendor  string `json:"vendor"`
	Product string `json:"product"`
	Version string `json:"version"`
}

// NVDAffectedSource is one CPE match entry with its version boundaries.
// The bounds are verbatim NVD fields: at most one of Including/Excluding is
// set per side, and all may be empty when the criteria pins an exact version.
type NVDAffectedSource struct {
	CriteriaDict          NVDCriteriaDict `json:"criteria_dict"`
	VersionStartIncluding string          `json:"version_start_including,omitempty"`
	VersionStartExcluding string          `json:"version_start_excluding,omitempty"`
	VersionEndIncluding   string          `json:"version_end_including,omitempty"`
	VersionEndExcluding   string          `json:"version_end_excluding,omitempty"`
}

// NVDItem is the raw NVD advisory record for one CVE id.
type NVDItem struct {
	ID           string              `json:"id"`
	Published    string              `json:"published"`
	LastModified string              `json:"last_modified"`
	VulnStatus   string              `json:"vuln_status,omitempty"`
	Descriptions []NVDDescription    `json:"descriptions,omitempty"`
	Metrics      NVDMetrics          `json:"metrics"`
	Weaknesses   []NVDWeakness       `json:"weaknesses,omitempty"`
	References   []NVDReference      `json:"references,omitempty"`
	Affected     []NVDAffectedSource `json:"affected,omitempty"`
}

// NVDMetrics groups the metric entries by CVSS schema version.
type NVDMetrics struct {
	CvssMetricV2  []NVDMetric `json:"cvss_metric_v2,omitempty"`
	CvssMetricV30 []NVDMetric `json:"cvss_metric_v30,omitempty"`
	CvssMetricV31 []NVDMetric `json:"cvss_metric_v31,omitempty"`
}

// EnglishDescription returns the first description with lang "en", or the
// empty string when none exists.
func (n *NVDItem) EnglishDescription() string {
	if n == nil {
		return ""
	}
	for _, desc := range n.Descriptions {
		if desc.Lang == "en" {
			return desc.Value
		}
	}
	return ""
}
