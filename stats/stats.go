// Package stats computes the dashboard aggregates over stored analysis
// results: weekly severity histograms, attack-vector and CIA impact
// distributions, license counts, and the letter-graded quick stats.
package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/CodeClarityCE/vulnerabilities/model"
	"github.com/CodeClarityCE/vulnerabilities/util"
)

// WeeklySeverityTrend buckets analysis results into ISO weeks and counts
// finding severities per bucket. Each project contributes at most once per
// week (first analysis wins), so rerunning an analysis within the same week
// does not inflate the trend. Buckets come back in chronological order.
func WeeklySeverityTrend(analyses []model.AnalysisResult, from, to time.Time) []model.WeeklySeverityBucket {
	type weekKey struct {
		year int
		week int
	}
	buckets := make(map[weekKey]*model.WeeklySeverityBucket)

	for _, analysis := range analyses {
		if !inRange(analysis.CreatedOn, from, to) {
			continue
		}
		year, week := analysis.CreatedOn.ISOWeek()
		key := weekKey{year: year, week: week}

		bucket, ok := buckets[key]
		if !ok {
			bucket = &model.WeeklySeverityBucket{Week: week, Year: year}
			buckets[key] = bucket
		}
		if util.Contains(bucket.ProjectIDs, analysis.ProjectID) {
			continue
		}
		bucket.ProjectIDs = append(bucket.ProjectIDs, analysis.ProjectID)

		for _, finding := range analysis.Findings {
			severity := finding.Severity.Value()
			bucket.SummedSeverity += severity
			switch model.ClassifySeverity(severity) {
			case model.SeverityClassCritical:
				bucket.Critical++
			case model.SeverityClassHigh:
				bucket.High++
			case model.SeverityClassMedium:
				bucket.Medium++
			case model.SeverityClassLow:
				bucket.Low++
			default:
				bucket.None++
			}
		}
	}

	out := make([]model.WeeklySeverityBucket, 0, len(buckets))
	for _, bucket := range buckets {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Week < out[j].Week
	})
	return out
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

// AttackVectorDistribution counts the attack vector of every finding
// occurrence in range. No dedup: a shared advisory hitting three dependencies
// counts three times.
func AttackVectorDistribution(analyses []model.AnalysisResult, from, to time.Time) model.Distribution {
	dist := make(model.Distribution)
	eachFinding(analyses, from, to, func(finding model.Finding) {
		if finding.Severity == nil || finding.Severity.Vector == "" {
			return
		}
		dist[attackVectorOf(finding.Severity)]++
	})
	return dist
}

var attackVectorNames = map[string]string{
	"N": "NETWORK",
	"A": "ADJACENT_NETWORK",
	"L": "LOCAL",
	"P": "PHYSICAL",
}

// attackVectorOf extracts the AV component from the stored vector string and
// expands it to its long form.
func attackVectorOf(score *model.SeverityScore) string {
	for _, part := range strings.Split(score.Vector, "/") {
		if value, found := strings.CutPrefix(part, "AV:"); found {
			if name, ok := attackVectorNames[value]; ok {
				return name
			}
			return value
		}
	}
	return "UNKNOWN"
}

// CIAImpactDistributions counts the confidentiality, integrity and
// availability impact labels over every finding occurrence in range.
func CIAImpactDistributions(analyses []model.AnalysisResult, from, to time.Time) (confidentiality, integrity, availability model.Distribution) {
	confidentiality = make(model.Distribution)
	integrity = make(model.Distribution)
	availability = make(model.Distribution)

	eachFinding(analyses, from, to, func(finding model.Finding) {
		if finding.Severity == nil {
			return
		}
		countImpact(confidentiality, finding.Severity.ConfidentialityImpact)
		countImpact(integrity, finding.Severity.IntegrityImpact)
		countImpact(availability, finding.Severity.AvailabilityImpact)
	})
	return confidentiality, integrity, availability
}

func countImpact(dist model.Distribution, impact string) {
	if impact == "" {
		impact = "NONE"
	}
	dist[impact]++
}

// LicenseDistribution sums the precomputed per-license counts across every
// analysis result in range.
func LicenseDistribution(analyses []model.AnalysisResult, from, to time.Time) model.Distribution {
	dist := make(model.Distribution)
	for _, analysis := range analyses {
		if !inRange(analysis.CreatedOn, from, to) {
			continue
		}
		for license, count := range analysis.LicenseCounts {
			dist[license] += count
		}
	}
	return dist
}

func eachFinding(analyses []model.AnalysisResult, from, to time.Time, visit func(model.Finding)) {
	for _, analysis := range analyses {
		if !inRange(analysis.CreatedOn, from, to) {
			continue
		}
		for _, finding := range analysis.Findings {
			visit(finding)
		}
	}
}

// ComputeQuickStats summarizes the findings of one analysis into the graded
// header stats. The score is the mean severity scaled into [0,1].
func ComputeQuickStats(findings []model.Finding) model.QuickStats {
	stats := model.QuickStats{TotalFindings: len(findings)}

	var sum float64
	for _, finding := range findings {
		severity := finding.Severity.Value()
		sum += severity
		if severity > stats.MaxSeverity {
			stats.MaxSeverity = severity
		}
		switch model.ClassifySeverity(severity) {
		case model.SeverityClassCritical:
			stats.CriticalCount++
		case model.SeverityClassHigh:
			stats.HighCount++
		}
	}
	if len(findings) > 0 {
		stats.MeanSeverity = sum / float64(len(findings))
	}
	stats.Score = stats.MeanSeverity / 10
	stats.Grade = GradeForScore(stats.Score)
	return stats
}

// GradeForScore maps a continuous score in [0,1] to the nine-level letter
// grade, lower being better. Out-of-range and NaN scores map to D as the safe
// worst case.
func GradeForScore(score float64) string {
	switch {
	case math.IsNaN(score) || score < 0 || score > 1:
		return "D"
	case score == 0:
		return "A+"
	case score < 0.1:
		return "A"
	case score < 0.25:
		return "B+"
	case score < 0.4:
		return "B"
	case score < 0.55:
		return "C+"
	case score < 0.7:
		return "C"
	case score < 0.85:
		return "D+"
	default:
		return "D"
	}
}
