// Package cvss parses CVSS v2, v3.0 and v3.1 vector strings and computes the
// base, exploitability and impact scores from their components.
package cvss

import (
	"fmt"
	"math"
	"strings"

	"github.com/CodeClarityCE/vulnerabilities/model"
)

// PreferredMetricSource is the metric source that wins when a feed supplies
// several metric entries of the same schema version.
const PreferredMetricSource = "nvd@nist.gov"

// VectorParseError reports a malformed CVSS vector. Callers must omit the
// affected schema version from their output and continue; the error is never
// substituted with a wrong score.
type VectorParseError struct {
	Vector string
	Reason string
}

func (e *VectorParseError) Error() string {
	return fmt.Sprintf("malformed CVSS vector %q: %s", e.Vector, e.Reason)
}

// parseVector splits a vector string into its metric components. The optional
// schema prefix (e.g. "CVSS:3.1") and surrounding parentheses used by some v2
// feeds are stripped before splitting.
func parseVector(vector string) (map[string]string, error) {
	trimmed := strings.Trim(strings.TrimSpace(vector), "()")
	components := map[string]string{}
	for _, part := range strings.Split(trimmed, "/") {
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, ":")
		if !found {
			return nil, &VectorParseError{Vector: vector, Reason: "component " + part + " is not key:value"}
		}
		if key == "CVSS" {
			continue
		}
		components[key] = value
	}
	if len(components) == 0 {
		return nil, &VectorParseError{Vector: vector, Reason: "no components"}
	}
	return components, nil
}

// SelectMetric picks the authoritative metric entry out of several of the
// same schema version: the NIST-attributed entry wins; a sole entry is used
// regardless of source; multiple entries without a NIST one yield no metric,
// which is a valid absence rather than an error.
func SelectMetric(entries []model.NVDMetric) (model.NVDMetric, bool) {
	for _, entry := range entries {
		if entry.Source == PreferredMetricSource {
			return entry, true
		}
	}
	if len(entries) == 1 {
		return entries[0], true
	}
	return model.NVDMetric{}, false
}

// round1 rounds to one decimal, used for the exploitability and impact
// sub-scores of all schema versions.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
