package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CodeClarityCE/vulnerabilities/model"
)

func severityVuln(id string, severity float64) model.MergedVulnerability {
	return model.MergedVulnerability{
		ID:       id,
		Severity: &model.SeverityScore{Severity: severity},
	}
}

func TestSortBySeverity(t *testing.T) {
	vulns := []model.MergedVulnerability{
		severityVuln("a", 3.1),
		severityVuln("b", 9.8),
		{ID: "c"}, // nil severity sorts as 0
		severityVuln("d", 5.0),
	}

	sorted := SortVulnerabilities(vulns, SortKeySeverity, SortDirectionDesc)
	assert.Equal(t, []string{"b", "d", "a", "c"}, vulnIDs(sorted))

	sorted = SortVulnerabilities(vulns, SortKeySeverity, SortDirectionAsc)
	assert.Equal(t, []string{"c", "a", "d", "b"}, vulnIDs(sorted))

	// input order is untouched
	assert.Equal(t, []string{"a", "b", "c", "d"}, vulnIDs(vulns))
}

func TestSortDefaults(t *testing.T) {
	vulns := []model.MergedVulnerability{
		severityVuln("a", 3.1),
		severityVuln("b", 9.8),
	}

	// unknown key and direction fall back to severity DESC
	sorted := SortVulnerabilities(vulns, "no_such_key", "sideways")
	assert.Equal(t, []string{"b", "a"}, vulnIDs(sorted))
}

func TestSortByDepVersion(t *testing.T) {
	mk := func(id, version string) model.MergedVulnerability {
		return model.MergedVulnerability{
			ID:       id,
			Affected: []model.AffectedVuln{{AffectedVersion: version}},
		}
	}
	vulns := []model.MergedVulnerability{
		mk("a", "1.0.0"),
		mk("b", "2.1.0"),
		mk("c", "1.5.0"),
	}

	sorted := SortVulnerabilities(vulns, SortKeyDepVersion, SortDirectionDesc)
	assert.Equal(t, []string{"b", "c", "a"}, vulnIDs(sorted))

	// a missing version sorts as 0.0.0
	vulns = append(vulns, model.MergedVulnerability{ID: "d"})
	sorted = SortVulnerabilities(vulns, SortKeyDepVersion, SortDirectionAsc)
	assert.Equal(t, "d", sorted[0].ID)
}

func TestSortByCve(t *testing.T) {
	vulns := []model.MergedVulnerability{
		{ID: "CVE-2021-0002"},
		{ID: "CVE-2020-9999"},
		{ID: "CVE-2021-0001"},
	}

	sorted := SortVulnerabilities(vulns, SortKeyCve, SortDirectionAsc)
	assert.Equal(t, []string{"CVE-2020-9999", "CVE-2021-0001", "CVE-2021-0002"}, vulnIDs(sorted))
}

// The owasp_top_10 and weakness comparators apply the direction inverted:
// ASC yields descending numeric order. These tests pin the behavior down so
// nobody "fixes" it under consumers that rely on it.
func TestSortByOwaspDirectionIsInverted(t *testing.T) {
	mk := func(id, owaspID string) model.MergedVulnerability {
		return model.MergedVulnerability{
			ID:         id,
			Weaknesses: []model.Weakness{{WeaknessID: "CWE-79", OWASPTop10ID: owaspID}},
		}
	}
	vulns := []model.MergedVulnerability{
		mk("a", "3"),
		mk("b", "1"),
		mk("c", "8"),
		{ID: "d"}, // no categorized weakness sorts lowest
	}

	asc := SortVulnerabilities(vulns, SortKeyOwaspTop10, SortDirectionAsc)
	assert.Equal(t, []string{"c", "a", "b", "d"}, vulnIDs(asc))

	desc := SortVulnerabilities(vulns, SortKeyOwaspTop10, SortDirectionDesc)
	assert.Equal(t, []string{"d", "b", "a", "c"}, vulnIDs(desc))
}

func TestSortByWeaknessDirectionIsInverted(t *testing.T) {
	mk := func(id, cwe string) model.MergedVulnerability {
		return model.MergedVulnerability{
			ID:         id,
			Weaknesses: []model.Weakness{{WeaknessID: cwe}},
		}
	}
	vulns := []model.MergedVulnerability{
		mk("a", "CWE-400"),
		mk("b", "CWE-79"),
		mk("c", "CWE-1321"),
	}

	asc := SortVulnerabilities(vulns, SortKeyWeakness, SortDirectionAsc)
	assert.Equal(t, []string{"c", "a", "b"}, vulnIDs(asc))
}

func TestSortGenericFieldComparator(t *testing.T) {
	vulns := []model.MergedVulnerability{
		{ID: "b", Description: "beta"},
		{ID: "a", Description: "alpha"},
		{ID: "c", Description: "gamma"},
	}

	// generic field sort is inverted like owasp/weakness: ASC is descending
	asc := SortVulnerabilities(vulns, "description", SortDirectionAsc)
	assert.Equal(t, []string{"c", "b", "a"}, vulnIDs(asc))

	// array-valued fields compare as empty strings, preserving input order
	same := SortVulnerabilities(vulns, "affected", SortDirectionAsc)
	assert.Equal(t, []string{"b", "a", "c"}, vulnIDs(same))
}

func TestSortStability(t *testing.T) {
	vulns := []model.MergedVulnerability{
		severityVuln("first", 5.0),
		severityVuln("second", 5.0),
		severityVuln("third", 5.0),
	}

	sorted := SortVulnerabilities(vulns, SortKeySeverity, SortDirectionDesc)
	assert.Equal(t, []string{"first", "second", "third"}, vulnIDs(sorted))
}
