package report

import (
	"strings"

	"github.com/CodeClarityCE/vulnerabilities/cvss"
	"github.com/CodeClarityCE/vulnerabilities/model"
	"github.com/google/osv-scanner/pkg/models"
	"go.uber.org/zap"
)

// sourceVectors groups the CVSS metric entries one advisory source supplies,
// per schema version.
type sourceVectors struct {
	v2  []model.NVDMetric
	v30 []model.NVDMetric
	v31 []model.NVDMetric
}

func (v sourceVectors) isEmpty() bool {
	return len(v.v2) == 0 && len(v.v30) == 0 && len(v.v31) == 0
}

// vectorsFromNVD collects the metric entries of an NVD record.
func vectorsFromNVD(item *model.NVDItem) sourceVectors {
	if item == nil {
		return sourceVectors{}
	}
	return sourceVectors{
		v2:  item.Metrics.CvssMetricV2,
		v30: item.Metrics.CvssMetricV30,
		v31: item.Metrics.CvssMetricV31,
	}
}

// vectorsFromOSV collects the severity vectors of an OSV record, classified
// by the schema prefix of the vector string. OSV severity entries carry no
// source attribution.
func vectorsFromOSV(item *models.Vulnerability) sourceVectors {
	if item == nil {
		return sourceVectors{}
	}
	var vectors sourceVectors
	for _, severity := range item.Severity {
		metric := model.NVDMetric{VectorString: severity.Score}
		switch {
		case strings.HasPrefix(severity.Score, "CVSS:3.1"):
			vectors.v31 = append(vectors.v31, metric)
		case strings.HasPrefix(severity.Score, "CVSS:3.0"):
			vectors.v30 = append(vectors.v30, metric)
		case strings.HasPrefix(severity.Score, "CVSS:4"):
			// v4 is not scored here
		case string(severity.Type) == "CVSS_V2" || !strings.HasPrefix(severity.Score, "CVSS:"):
			vectors.v2 = append(vectors.v2, metric)
		}
	}
	return vectors
}

// computeSeverities scores the vectors of one source. A malformed vector is
// never replaced with a guessed score: that schema version is omitted and
// scoring continues.
func computeSeverities(vectors sourceVectors, logger *zap.Logger) model.SeverityInfo {
	var info model.SeverityInfo

	if metric, ok := cvss.SelectMetric(vectors.v2); ok {
		result, err := cvss.ComputeCvss2(metric.VectorString)
		if err != nil {
			logger.Sugar().Warnf("skipping CVSS v2 severity: %v", err)
		} else {
			result.UserInteractionRequired = metric.UserInteractionRequired
			info.Cvss2 = result
		}
	}

	if metric, ok := cvss.SelectMetric(vectors.v30); ok {
		result, err := cvss.ComputeCvss3(metric.VectorString)
		if err != nil {
			logger.Sugar().Warnf("skipping CVSS v3.0 severity: %v", err)
		} else {
			info.Cvss3 = result
		}
	}

	if metric, ok := cvss.SelectMetric(vectors.v31); ok {
		result, err := cvss.ComputeCvss31(metric.VectorString)
		if err != nil {
			logger.Sugar().Warnf("skipping CVSS v3.1 severity: %v", err)
		} else {
			info.Cvss31 = result
		}
	}

	return info
}

// severitiesWithFallback scores the primary source's vectors, falling back to
// the secondary source in full when the primary yields no result at all.
func severitiesWithFallback(primary, secondary sourceVectors, logger *zap.Logger) model.SeverityInfo {
	info := computeSeverities(primary, logger)
	if info.Cvss2 == nil && info.Cvss3 == nil && info.Cvss31 == nil && !secondary.isEmpty() {
		return computeSeverities(secondary, logger)
	}
	return info
}
