// Package query implements the list-view transformations over merged
// vulnerabilities: free-text search, categorical filtering with facet counts,
// and sorting. Everything here is a pure function over the in-memory slice;
// callers paginate afterwards.
package query

import (
	"strings"

	"github.com/CodeClarityCE/vulnerabilities/model"
)

// Filter names accepted by FilterVulnerabilities. Names within one category
// are OR-combined, the categories themselves AND-combine.
const (
	FilterSeverityCritical = "severity_critical"
	FilterSeverityHigh     = "severity_high"
	FilterSeverityMedium   = "severity_medium"
	FilterSeverityLow      = "severity_low"
	FilterSeverityNone     = "severity_none"

	FilterOwaspA1            = "owasp_top_10_2021_a1"
	FilterOwaspA2            = "owasp_top_10_2021_a2"
	FilterOwaspA3            = "owasp_top_10_2021_a3"
	FilterOwaspA4            = "owasp_top_10_2021_a4"
	FilterOwaspA5            = "owasp_top_10_2021_a5"
	FilterOwaspA6            = "owasp_top_10_2021_a6"
	FilterOwaspA7            = "owasp_top_10_2021_a7"
	FilterOwaspA8            = "owasp_top_10_2021_a8"
	FilterOwaspA9            = "owasp_top_10_2021_a9"
	FilterOwaspA10           = "owasp_top_10_2021_a10"
	FilterOwaspUncategorized = "owasp_uncategorized"

	FilterConfidentialityImpact = "confidentiality_impact"
	FilterIntegrityImpact       = "integrity_impact"
	FilterAvailabilityImpact    = "availability_impact"

	FilterHideCorrectMatching           = "hide_correct_matching"
	FilterHideIncorrectMatching         = "hide_incorrect_matching"
	FilterHidePossiblyIncorrectMatching = "hide_possibly_incorrect_matching"
)

// owaspFilterIDs maps the per-category filter names to the numeric OWASP
// Top 10 category ids carried on weaknesses.
var owaspFilterIDs = map[string]string{
	FilterOwaspA1:  "1",
	FilterOwaspA2:  "2",
	FilterOwaspA3:  "3",
	FilterOwaspA4:  "4",
	FilterOwaspA5:  "5",
	FilterOwaspA6:  "6",
	FilterOwaspA7:  "7",
	FilterOwaspA8:  "8",
	FilterOwaspA9:  "9",
	FilterOwaspA10: "10",
}

// AllFilterNames lists every filter name, in the order facet counts are
// reported.
var AllFilterNames = []string{
	FilterSeverityCritical,
	FilterSeverityHigh,
	FilterSeverityMedium,
	FilterSeverityLow,
	FilterSeverityNone,
	FilterOwaspA1,
	FilterOwaspA2,
	FilterOwaspA3,
	FilterOwaspA4,
	FilterOwaspA5,
	FilterOwaspA6,
	FilterOwaspA7,
	FilterOwaspA8,
	FilterOwaspA9,
	FilterOwaspA10,
	FilterOwaspUncategorized,
	FilterConfidentialityImpact,
	FilterIntegrityImpact,
	FilterAvailabilityImpact,
	FilterHideCorrectMatching,
	FilterHideIncorrectMatching,
	FilterHidePossiblyIncorrectMatching,
}

// FilterVulnerabilities filters the merged list by free-text search plus the
// active filter set, and reports for every inactive filter name how many
// records would remain if it were also enabled.
func FilterVulnerabilities(vulnerabilities []model.MergedVulnerability, searchKey string, activeFilters []string) ([]model.MergedVulnerability, map[string]int) {
	filtered := applyFilters(vulnerabilities, searchKey, activeFilters)

	active := make(map[string]bool, len(activeFilters))
	for _, name := range activeFilters {
		active[name] = true
	}

	facets := make(map[string]int)
	for _, name := range AllFilterNames {
		if active[name] {
			continue
		}
		facets[name] = len(applyFilters(vulnerabilities, searchKey, append(append([]string{}, activeFilters...), name)))
	}

	return filtered, facets
}

func applyFilters(vulnerabilities []model.MergedVulnerability, searchKey string, activeFilters []string) []model.MergedVulnerability {
	var severity, owasp, impact, hide []string
	for _, name := range activeFilters {
		switch {
		case strings.HasPrefix(name, "severity_"):
			severity = append(severity, name)
		case strings.HasPrefix(name, "owasp_"):
			owasp = append(owasp, name)
		case strings.HasSuffix(name, "_impact"):
			impact = append(impact, name)
		case strings.HasPrefix(name, "hide_"):
			hide = append(hide, name)
		}
	}

	out := make([]model.MergedVulnerability, 0, len(vulnerabilities))
	for _, v := range vulnerabilities {
		if !matchesSearch(v, searchKey) {
			continue
		}
		if !matchesAny(v, severity, matchesSeverityFilter) {
			continue
		}
		if !matchesOwasp(v, owasp) {
			continue
		}
		if !matchesAny(v, impact, matchesImpactFilter) {
			continue
		}
		if hiddenByAny(v, hide) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// matchesSearch is a case-insensitive substring match against the advisory id
// or any affected dependency name.
func matchesSearch(v model.MergedVulnerability, searchKey string) bool {
	if searchKey == "" {
		return true
	}
	needle := strings.ToLower(searchKey)
	if strings.Contains(strings.ToLower(v.ID), needle) {
		return true
	}
	for _, affected := range v.Affected {
		if strings.Contains(strings.ToLower(affected.AffectedDependency), needle) {
			return true
		}
	}
	return false
}

// matchesAny applies one OR-combined filter category. An empty category
// always passes.
func matchesAny(v model.MergedVulnerability, names []string, match func(model.MergedVulnerability, string) bool) bool {
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if match(v, name) {
			return true
		}
	}
	return false
}

func matchesSeverityFilter(v model.MergedVulnerability, name string) bool {
	severity := v.Severity.Value()
	switch name {
	case FilterSeverityCritical:
		return severity >= 7
	case FilterSeverityHigh:
		return severity >= 4 && severity < 7
	case FilterSeverityMedium:
		return severity >= 2 && severity < 4
	case FilterSeverityLow:
		return severity >= 1 && severity < 2
	case FilterSeverityNone:
		return severity >= 0 && severity < 1
	}
	return false
}

// matchesOwasp applies the OWASP category filters. A record whose Weaknesses
// slice is nil is deliberately exempt from all OWASP filtering: absence of
// weakness data must not hide the record from category views.
func matchesOwasp(v model.MergedVulnerability, names []string) bool {
	if len(names) == 0 || v.Weaknesses == nil {
		return true
	}
	for _, name := range names {
		if name == FilterOwaspUncategorized {
			if !hasOwaspCategory(v) {
				return true
			}
			continue
		}
		id, ok := owaspFilterIDs[name]
		if !ok {
			continue
		}
		for _, w := range v.Weaknesses {
			if w.OWASPTop10ID == id {
				return true
			}
		}
	}
	return false
}

func hasOwaspCategory(v model.MergedVulnerability) bool {
	for _, w := range v.Weaknesses {
		if w.OWASPTop10ID != "" {
			return true
		}
	}
	return false
}

// matchesImpactFilter passes when the corresponding CIA impact is present,
// meaning recorded and not NONE.
func matchesImpactFilter(v model.MergedVulnerability, name string) bool {
	if v.Severity == nil {
		return false
	}
	switch name {
	case FilterConfidentialityImpact:
		return impactPresent(v.Severity.ConfidentialityImpact)
	case FilterIntegrityImpact:
		return impactPresent(v.Severity.IntegrityImpact)
	case FilterAvailabilityImpact:
		return impactPresent(v.Severity.AvailabilityImpact)
	}
	return false
}

func impactPresent(impact string) bool {
	return impact != "" && impact != "NONE"
}

// hiddenByAny drops records whose conflict flag one of the hide filters
// targets.
func hiddenByAny(v model.MergedVulnerability, names []string) bool {
	for _, name := range names {
		switch name {
		case FilterHideCorrectMatching:
			if v.Conflict.Flag == model.ConflictMatchCorrect {
				return true
			}
		case FilterHideIncorrectMatching:
			if v.Conflict.Flag == model.ConflictMatchIncorrect {
				return true
			}
		case FilterHidePossiblyIncorrectMatching:
			if v.Conflict.Flag == model.ConflictMatchPossibleIncorrect {
				return true
			}
		}
	}
	return false
}
