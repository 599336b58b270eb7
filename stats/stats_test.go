package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeClarityCE/vulnerabilities/model"
)

func findingWithSeverity(severity float64) model.Finding {
	return model.Finding{Severity: &model.SeverityScore{Severity: severity}}
}

func TestWeeklySeverityTrend(t *testing.T) {
	week1 := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)  // ISO week 2
	week2 := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) // ISO week 3

	analyses := []model.AnalysisResult{
		{
			ProjectID: "project-a",
			CreatedOn: week1,
			Findings:  []model.Finding{findingWithSeverity(9.8), findingWithSeverity(3.0)},
		},
		{
			// same project, same week: ignored
			ProjectID: "project-a",
			CreatedOn: week1.Add(24 * time.Hour),
			Findings:  []model.Finding{findingWithSeverity(9.8)},
		},
		{
			ProjectID: "project-b",
			CreatedOn: week1,
			Findings:  []model.Finding{findingWithSeverity(5.0)},
		},
		{
			ProjectID: "project-a",
			CreatedOn: week2,
			Findings:  []model.Finding{findingWithSeverity(1.5)},
		},
	}

	buckets := WeeklySeverityTrend(analyses, time.Time{}, time.Time{})
	require.Len(t, buckets, 2)

	first := buckets[0]
	assert.Equal(t, 2, first.Week)
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, 1, first.Critical)
	assert.Equal(t, 1, first.High)
	assert.Equal(t, 1, first.Medium)
	assert.InDelta(t, 17.8, first.SummedSeverity, 0.001)
	assert.ElementsMatch(t, []string{"project-a", "project-b"}, first.ProjectIDs)

	second := buckets[1]
	assert.Equal(t, 3, second.Week)
	assert.Equal(t, 1, second.Low)
}

func TestWeeklySeverityTrendYearBoundary(t *testing.T) {
	// January 1st 2021 still belongs to ISO week 53 of 2020; January 4th
	// is always part of week 1 of its own year.
	analyses := []model.AnalysisResult{
		{
			ProjectID: "p",
			CreatedOn: time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC),
			Findings:  []model.Finding{findingWithSeverity(8.0)},
		},
		{
			ProjectID: "p",
			CreatedOn: time.Date(2021, 1, 4, 12, 0, 0, 0, time.UTC),
			Findings:  []model.Finding{findingWithSeverity(2.0)},
		},
	}

	buckets := WeeklySeverityTrend(analyses, time.Time{}, time.Time{})
	require.Len(t, buckets, 2)

	assert.Equal(t, 2020, buckets[0].Year)
	assert.Equal(t, 53, buckets[0].Week)
	assert.Equal(t, 1, buckets[0].Critical)
	assert.Equal(t, 2021, buckets[1].Year)
	assert.Equal(t, 1, buckets[1].Week)
	assert.Equal(t, 1, buckets[1].Medium)
}

func TestWeeklySeverityTrendRange(t *testing.T) {
	analyses := []model.AnalysisResult{
		{ProjectID: "p", CreatedOn: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Findings: []model.Finding{findingWithSeverity(5)}},
		{ProjectID: "p", CreatedOn: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Findings: []model.Finding{findingWithSeverity(5)}},
	}

	buckets := WeeklySeverityTrend(analyses,
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, buckets, 1)
	assert.Equal(t, 2024, buckets[0].Year)
}

func TestAttackVectorDistribution(t *testing.T) {
	now := time.Now()
	analyses := []model.AnalysisResult{
		{
			CreatedOn: now,
			Findings: []model.Finding{
				{Severity: &model.SeverityScore{Vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"}},
				{Severity: &model.SeverityScore{Vector: "CVSS:3.1/AV:N/AC:H/PR:N/UI:N/S:U/C:L/I:N/A:N"}},
				{Severity: &model.SeverityScore{Vector: "CVSS:3.0/AV:L/AC:L/PR:L/UI:N/S:U/C:H/I:N/A:N"}},
				{Severity: &model.SeverityScore{}}, // no vector, skipped
				{},                                 // no severity, skipped
			},
		},
	}

	dist := AttackVectorDistribution(analyses, time.Time{}, time.Time{})
	assert.Equal(t, model.Distribution{"NETWORK": 2, "LOCAL": 1}, dist)
}

func TestCIAImpactDistributions(t *testing.T) {
	now := time.Now()
	analyses := []model.AnalysisResult{
		{
			CreatedOn: now,
			Findings: []model.Finding{
				{Severity: &model.SeverityScore{ConfidentialityImpact: "HIGH", IntegrityImpact: "HIGH", AvailabilityImpact: "NONE"}},
				{Severity: &model.SeverityScore{ConfidentialityImpact: "LOW"}},
			},
		},
	}

	confidentiality, integrity, availability := CIAImpactDistributions(analyses, time.Time{}, time.Time{})
	assert.Equal(t, model.Distribution{"HIGH": 1, "LOW": 1}, confidentiality)
	assert.Equal(t, model.Distribution{"HIGH": 1, "NONE": 1}, integrity)
	assert.Equal(t, model.Distribution{"NONE": 2}, availability)
}

func TestLicenseDistribution(t *testing.T) {
	now := time.Now()
	analyses := []model.AnalysisResult{
		{CreatedOn: now, LicenseCounts: map[string]int{"MIT": 10, "Apache-2.0": 3}},
		{CreatedOn: now, LicenseCounts: map[string]int{"MIT": 5}},
	}

	dist := LicenseDistribution(analyses, time.Time{}, time.Time{})
	assert.Equal(t, model.Distribution{"MIT": 15, "Apache-2.0": 3}, dist)
}

func TestComputeQuickStats(t *testing.T) {
	findings := []model.Finding{
		findingWithSeverity(9.8),
		findingWithSeverity(5.0),
		{}, // nil severity counts as 0
	}

	stats := ComputeQuickStats(findings)
	assert.Equal(t, 3, stats.TotalFindings)
	assert.InDelta(t, 9.8, stats.MaxSeverity, 0.001)
	assert.InDelta(t, 4.933, stats.MeanSeverity, 0.001)
	assert.Equal(t, 1, stats.CriticalCount)
	assert.Equal(t, 1, stats.HighCount)
	assert.Equal(t, "C+", stats.Grade)
}

func TestComputeQuickStatsEmpty(t *testing.T) {
	stats := ComputeQuickStats(nil)
	assert.Equal(t, 0, stats.TotalFindings)
	assert.Equal(t, "A+", stats.Grade)
}

func TestGradeForScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{0, "A+"},
		{0.05, "A"},
		{0.1, "B+"},
		{0.25, "B"},
		{0.4, "C+"},
		{0.55, "C"},
		{0.7, "D+"},
		{0.85, "D"},
		{1.0, "D"},
		{-0.1, "D"},
		{1.5, "D"},
		{math.NaN(), "D"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, GradeForScore(tt.score), "score %v", tt.score)
	}
}
