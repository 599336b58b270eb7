package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/osv-scanner/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CodeClarityCE/vulnerabilities/lookup"
	"github.com/CodeClarityCE/vulnerabilities/model"
)

func testProviders() lookup.Providers {
	cwe := &lookup.StaticCWETable{Entries: map[string]lookup.CWEInfo{
		"CWE-79": {
			Name:        "Cross-site Scripting",
			Description: "Improper neutralization of input during web page generation.",
			CommonConsequences: []model.CommonConsequence{
				{Scope: []string{"Confidentiality"}, Impact: []string{"Read Application Data"}},
			},
		},
	}}
	return lookup.Providers{
		CWE:   cwe,
		Owasp: lookup.NewOwaspTop10Table(),
	}
}

func sampleOSVItem() *models.Vulnerability {
	return &models.Vulnerability{
		ID:        "GHSA-aaaa-bbbb-cccc",
		Aliases:   []string{"CVE-2021-1234"},
		Summary:   "XSS in widget",
		Details:   "# Overview\n\nAn XSS issue.\n\n# References\n\n* https://example.com\n",
		Published: time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC),
		Modified:  time.Date(2021, 4, 1, 12, 0, 0, 0, time.UTC),
		Severity: []models.Severity{
			{Type: models.SeverityCVSSV3, Score: "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N"},
		},
		Affected: []models.Affected{
			{
				Package: models.Package{Ecosystem: "npm", Name: "widget"},
				Ranges: []models.Range{
					{Type: models.RangeSemVer, Events: []models.Event{{Introduced: "1.0.0"}, {Fixed: "1.2.3"}}},
				},
			},
		},
		References: []models.Reference{
			{Type: models.ReferenceWeb, URL: "https://example.com/advisory"},
		},
	}
}

func sampleFinding() model.Finding {
	return model.Finding{
		VulnerabilityID:    "GHSA-aaaa-bbbb-cccc",
		AffectedDependency: "widget",
		AffectedVersion:    "1.1.0",
		Sources:            []string{model.SourceOSV},
		Weaknesses: []model.Weakness{
			{WeaknessID: "CWE-79", OWASPTop10ID: "3"},
		},
		OSVMatch: &model.SourceMatch{
			Evidence: &model.AffectedEvidence{
				Ranges: []model.AffectedRange{
					{
						IntroducedSemver: model.SemVer{Major: 1},
						FixedSemver:      model.SemVer{Major: 1, Minor: 2, Patch: 3},
					},
				},
			},
		},
	}
}

func TestGenerateOSVReport(t *testing.T) {
	g := NewGenerator(testProviders(), zap.NewNop())

	report, err := g.GenerateOSVReport(context.Background(), Input{
		Finding:        sampleFinding(),
		PackageManager: "npm",
		OSVItem:        sampleOSVItem(),
	})
	require.NoError(t, err)

	assert.Equal(t, "CVE-2021-1234", report.VulnerabilityInfo.VulnerabilityID)
	assert.Contains(t, report.VulnerabilityInfo.Aliases, "GHSA-aaaa-bbbb-cccc")
	assert.Equal(t, "2021-03-01T12:00:00Z", report.VulnerabilityInfo.PublishedDate)

	require.Len(t, report.VulnerabilityInfo.Sources, 1)
	assert.Equal(t, model.SourceOSV, report.VulnerabilityInfo.Sources[0].Name)

	assert.Equal(t, " Overview\n\nAn XSS issue.", report.VulnerabilityInfo.Description)

	require.Len(t, report.VulnerabilityInfo.VersionInfo.Statuses, 1)
	status := report.VulnerabilityInfo.VersionInfo.Statuses[0]
	assert.Equal(t, model.SourceOSV, status.Source)
	assert.True(t, status.Affected)
	assert.False(t, report.VulnerabilityInfo.VersionInfo.SourcesDisagree)

	require.Len(t, report.Weaknesses, 1)
	assert.Equal(t, "Cross-site Scripting", report.Weaknesses[0].WeaknessName)
	assert.Contains(t, report.CommonConsequences, "CWE-79")

	require.NotNil(t, report.OwaspTop10)
	assert.Equal(t, "3", report.OwaspTop10.ID)

	require.NotNil(t, report.Severities.Cvss31)
	assert.InDelta(t, 6.1, report.Severities.Cvss31.BaseScore, 0.001)

	assert.Equal(t, []string{"1.2.3"}, report.Patch.Patched)
	assert.Equal(t, model.ConflictNone, report.Other.ConflictFlag)
}

func TestGenerateOSVReportMissingAnchor(t *testing.T) {
	g := NewGenerator(testProviders(), zap.NewNop())

	_, err := g.GenerateOSVReport(context.Background(), Input{Finding: sampleFinding()})
	require.Error(t, err)

	var missing *MissingAnchorItem
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, model.SourceOSV, missing.Anchor)
}

func TestGenerateNVDReport(t *testing.T) {
	g := NewGenerator(testProviders(), zap.NewNop())

	finding := sampleFinding()
	finding.VulnerabilityID = "CVE-2021-1234"
	finding.NVDMatch = &model.SourceMatch{}

	nvdItem := &model.NVDItem{
		ID:           "CVE-2021-1234",
		Published:    "2021-03-02T00:00:00",
		LastModified: "2021-04-02T00:00:00",
		Descriptions: []model.NVDDescription{
			{Lang: "es", Value: "descripción"},
			{Lang: "en", Value: "An XSS issue in widget."},
		},
		Metrics: model.NVDMetrics{
			CvssMetricV31: []model.NVDMetric{
				{Source: "nvd@nist.gov", VectorString: "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N"},
			},
		},
		Affected: []model.NVDAffectedSource{
			{
				CriteriaDict:        model.NVDCriteriaDict{Part: "a", Vendor: "widget", Product: "widget"},
				VersionEndExcluding: "1.2.3",
			},
		},
		References: []model.NVDReference{
			{URL: "https://example.com/advisory", Tags: []string{"Vendor Advisory"}},
			{URL: "https://example.com/patch"},
		},
	}

	report, err := g.GenerateNVDReport(context.Background(), Input{
		Finding:        finding,
		PackageManager: "npm",
		OSVItem:        sampleOSVItem(),
		NVDItem:        nvdItem,
	})
	require.NoError(t, err)

	assert.Equal(t, "CVE-2021-1234", report.VulnerabilityInfo.VulnerabilityID)
	assert.Equal(t, "An XSS issue in widget.", report.VulnerabilityInfo.Description)
	assert.Equal(t, "2021-03-02T00:00:00", report.VulnerabilityInfo.PublishedDate)

	require.Len(t, report.VulnerabilityInfo.Sources, 2)
	assert.Equal(t, model.SourceNVD, report.VulnerabilityInfo.Sources[0].Name)
	assert.Equal(t, model.SourceOSV, report.VulnerabilityInfo.Sources[1].Name)

	// the OSV record carried explicit range evidence the match never used
	assert.Equal(t, model.ConflictMatchPossibleIncorrect, report.Other.ConflictFlag)

	// both sources share one reference URL, the other is NVD-only
	assert.Len(t, report.References, 2)
}

func TestSourcesDisagree(t *testing.T) {
	g := NewGenerator(testProviders(), zap.NewNop())

	finding := sampleFinding()
	finding.NVDMatch = &model.SourceMatch{Evidence: &model.AffectedEvidence{Universal: true}}

	report, err := g.GenerateOSVReport(context.Background(), Input{
		Finding:        finding,
		PackageManager: "npm",
		OSVItem:        sampleOSVItem(),
	})
	require.NoError(t, err)

	assert.True(t, report.VulnerabilityInfo.VersionInfo.SourcesDisagree)
}

func TestFrameworkAdvisoryPackageName(t *testing.T) {
	g := NewGenerator(testProviders(), zap.NewNop())

	finding := sampleFinding()
	finding.VulnerabilityID = "framework-widget-2021-01"
	finding.AffectedDependency = "framework-widget"

	report, err := g.GenerateOSVReport(context.Background(), Input{
		Finding:        finding,
		PackageManager: "npm",
		OSVItem:        sampleOSVItem(),
	})
	require.NoError(t, err)

	require.NotNil(t, report.DependencyInfo)
	assert.Equal(t, "widget", report.DependencyInfo.Name)
}

func TestFrameworkAdvisoryPackageNameFromPurl(t *testing.T) {
	g := NewGenerator(testProviders(), zap.NewNop())

	finding := sampleFinding()
	finding.VulnerabilityID = "framework-widget-2021-01"
	finding.AffectedDependency = "framework-widget"

	// No package name, only a purl drowning in qualifiers and a subpath.
	item := sampleOSVItem()
	item.Affected[0].Package.Name = ""
	item.Affected[0].Package.Purl = "pkg:npm/%40acme/widget@1.0.0?checksum=sha256:abc&arch=amd64#src/index.js"

	report, err := g.GenerateOSVReport(context.Background(), Input{
		Finding:        finding,
		PackageManager: "npm",
		OSVItem:        item,
	})
	require.NoError(t, err)

	require.NotNil(t, report.DependencyInfo)
	assert.Equal(t, "@acme/widget", report.DependencyInfo.Name)
}

func TestCWELookupFailureDegrades(t *testing.T) {
	providers := testProviders()
	providers.CWE = &lookup.StaticCWETable{}
	g := NewGenerator(providers, zap.NewNop())

	report, err := g.GenerateOSVReport(context.Background(), Input{
		Finding:        sampleFinding(),
		PackageManager: "npm",
		OSVItem:        sampleOSVItem(),
	})
	require.NoError(t, err)

	assert.Empty(t, report.Weaknesses)
	assert.Empty(t, report.CommonConsequences)
}
