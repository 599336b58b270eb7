package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeClarityCE/vulnerabilities/model"
)

func testVulns() []model.MergedVulnerability {
	return []model.MergedVulnerability{
		{
			ID:       "CVE-2021-0001",
			Affected: []model.AffectedVuln{{AffectedDependency: "widget", AffectedVersion: "1.0.0"}},
			Severity: &model.SeverityScore{
				Severity:              9.8,
				ConfidentialityImpact: "HIGH",
				IntegrityImpact:       "HIGH",
				AvailabilityImpact:    "HIGH",
			},
			Weaknesses: []model.Weakness{{WeaknessID: "CWE-79", OWASPTop10ID: "3"}},
			Conflict:   model.Conflict{Flag: model.ConflictMatchCorrect},
		},
		{
			ID:       "CVE-2021-0002",
			Affected: []model.AffectedVuln{{AffectedDependency: "gadget", AffectedVersion: "2.1.0"}},
			Severity: &model.SeverityScore{
				Severity:              3.1,
				ConfidentialityImpact: "NONE",
				IntegrityImpact:       "LOW",
			},
			Weaknesses: []model.Weakness{{WeaknessID: "CWE-400"}},
			Conflict:   model.Conflict{Flag: model.ConflictNone},
		},
		{
			ID:       "GHSA-xxxx-yyyy-zzzz",
			Affected: []model.AffectedVuln{{AffectedDependency: "doohickey", AffectedVersion: "1.5.0"}},
			Severity: &model.SeverityScore{Severity: 5.0},
		},
	}
}

func vulnIDs(vulns []model.MergedVulnerability) []string {
	ids := make([]string, 0, len(vulns))
	for _, v := range vulns {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestFilterSearch(t *testing.T) {
	vulns := testVulns()

	byID, _ := FilterVulnerabilities(vulns, "ghsa", nil)
	assert.Equal(t, []string{"GHSA-xxxx-yyyy-zzzz"}, vulnIDs(byID))

	byDep, _ := FilterVulnerabilities(vulns, "GADGET", nil)
	assert.Equal(t, []string{"CVE-2021-0002"}, vulnIDs(byDep))

	none, _ := FilterVulnerabilities(vulns, "nonexistent", nil)
	assert.Empty(t, none)
}

func TestFilterSeverityBuckets(t *testing.T) {
	vulns := testVulns()

	critical, _ := FilterVulnerabilities(vulns, "", []string{FilterSeverityCritical})
	require.Len(t, critical, 1)
	assert.GreaterOrEqual(t, critical[0].Severity.Value(), 7.0)

	// severity buckets OR-combine
	both, _ := FilterVulnerabilities(vulns, "", []string{FilterSeverityCritical, FilterSeverityHigh})
	assert.Equal(t, []string{"CVE-2021-0001", "GHSA-xxxx-yyyy-zzzz"}, vulnIDs(both))
}

func TestFilterOwasp(t *testing.T) {
	vulns := testVulns()

	injection, _ := FilterVulnerabilities(vulns, "", []string{FilterOwaspA3})
	// the record with nil Weaknesses is exempt from OWASP filtering
	assert.Equal(t, []string{"CVE-2021-0001", "GHSA-xxxx-yyyy-zzzz"}, vulnIDs(injection))

	uncategorized, _ := FilterVulnerabilities(vulns, "", []string{FilterOwaspUncategorized})
	assert.Equal(t, []string{"CVE-2021-0002", "GHSA-xxxx-yyyy-zzzz"}, vulnIDs(uncategorized))
}

func TestFilterImpactPresence(t *testing.T) {
	vulns := testVulns()

	confidentiality, _ := FilterVulnerabilities(vulns, "", []string{FilterConfidentialityImpact})
	assert.Equal(t, []string{"CVE-2021-0001"}, vulnIDs(confidentiality))

	integrity, _ := FilterVulnerabilities(vulns, "", []string{FilterIntegrityImpact})
	assert.Equal(t, []string{"CVE-2021-0001", "CVE-2021-0002"}, vulnIDs(integrity))
}

func TestFilterHideMatching(t *testing.T) {
	vulns := testVulns()

	remaining, _ := FilterVulnerabilities(vulns, "", []string{FilterHideCorrectMatching})
	assert.Equal(t, []string{"CVE-2021-0002", "GHSA-xxxx-yyyy-zzzz"}, vulnIDs(remaining))
}

func TestFilterCategoriesCombineWithAnd(t *testing.T) {
	vulns := testVulns()

	filtered, _ := FilterVulnerabilities(vulns, "", []string{FilterSeverityCritical, FilterIntegrityImpact})
	assert.Equal(t, []string{"CVE-2021-0001"}, vulnIDs(filtered))
}

func TestFacetCounts(t *testing.T) {
	vulns := testVulns()

	_, facets := FilterVulnerabilities(vulns, "", nil)

	// facet counts match an independent recount per bucket
	assert.Equal(t, 1, facets[FilterSeverityCritical])
	assert.Equal(t, 1, facets[FilterSeverityMedium])
	assert.Equal(t, 1, facets[FilterSeverityHigh])
	assert.Equal(t, 0, facets[FilterSeverityLow])

	// an active filter is not reported as a facet
	filtered, activeFacets := FilterVulnerabilities(vulns, "", []string{FilterSeverityCritical})
	require.Len(t, filtered, 1)
	_, present := activeFacets[FilterSeverityCritical]
	assert.False(t, present)

	// facet counts stack on top of the active set
	assert.Equal(t, 1, activeFacets[FilterConfidentialityImpact])
	assert.Equal(t, 0, activeFacets[FilterHideCorrectMatching])
}
