// Package versions reconciles the heterogeneous affected-version information
// the advisory sources supply into one human-readable range description, and
// explains why an installed version is considered vulnerable.
package versions

import (
	"fmt"
	"strings"

	"github.com/CodeClarityCE/vulnerabilities/model"
	"github.com/CodeClarityCE/vulnerabilities/util"
	"github.com/google/osv-scanner/pkg/models"
)

// FrameworkAdvisoryPrefix marks synthetic advisory ids generated for
// framework-level vulnerabilities that have no regular feed entry.
const FrameworkAdvisoryPrefix = "framework-"

// ReconcileInput groups the version evidence available for one finding. The
// raw feed-native structures win over the abstracted evidence because they
// are richer; the evidence is the fallback when no raw data survived. When
// PreferNVD is set the NVD rendering is tried first (NVD-anchored reports),
// otherwise OSV wins.
type ReconcileInput struct {
	VulnerabilityID  string
	InstalledVersion string
	PreferNVD        bool
	Evidence         *model.AffectedEvidence
	OSVAffected      []models.Affected
	NVDAffected      []model.NVDAffectedSource
}

// ReconcileAffectedVersions produces the single affected-versions string of a
// report. The output is deterministic for a given input, so calling it twice
// yields identical strings.
func ReconcileAffectedVersions(in ReconcileInput) string {
	first, second := RenderOSVAffected(in.OSVAffected), RenderNVDAffected(in.NVDAffected)
	if in.PreferNVD {
		first, second = second, first
	}
	if first != "" {
		return first
	}
	if second != "" {
		return second
	}
	if rendered := RenderEvidence(in.Evidence); rendered != "" {
		return rendered
	}
	if strings.HasPrefix(in.VulnerabilityID, FrameworkAdvisoryPrefix) {
		return fmt.Sprintf("%s (check advisory for details)", in.InstalledVersion)
	}
	return ""
}

// osvRangeBounds is the single introduced/fixed/last-affected triple derived
// from the events of one OSV range.
type osvRangeBounds struct {
	introduced   string
	fixed        string
	lastAffected string
}

// deriveBounds folds the events of an OSV range into one bounds triple. An
// explicit introduced version other than the OSV sentinel "0" wins over the
// sentinel, which merely means "since the beginning".
func deriveBounds(r models.Range) osvRangeBounds {
	var bounds osvRangeBounds
	for _, event := range r.Events {
		if event.Introduced != "" {
			if bounds.introduced == "" || bounds.introduced == "0" {
				bounds.introduced = event.Introduced
			}
		}
		if event.Fixed != "" {
			bounds.fixed = event.Fixed
		}
		if event.LastAffected != "" {
			bounds.lastAffected = event.LastAffected
		}
	}
	return bounds
}

// renderBounds renders one derived OSV range as a human-readable phrase, or
// "" when the range carries no usable bound.
func renderBounds(b osvRangeBounds) string {
	introduced := b.introduced
	if introduced == "0" {
		introduced = ""
	}
	switch {
	case introduced != "" && b.fixed != "":
		return fmt.Sprintf("%s up to (but not including) %s", introduced, b.fixed)
	case introduced != "" && b.lastAffected != "":
		return fmt.Sprintf("%s to %s (inclusive)", introduced, b.lastAffected)
	case introduced != "":
		return fmt.Sprintf("%s and later", introduced)
	case b.fixed != "":
		return fmt.Sprintf("before %s (excluding %s)", b.fixed, b.fixed)
	case b.lastAffected != "":
		return fmt.Sprintf("up to %s (inclusive)", b.lastAffected)
	}
	return ""
}

// RenderOSVAffected renders the raw OSV affected entries: exact version lists
// first, then range phrases, joined with ", ". Multiple exact versions get a
// "specific versions: " prefix so the list reads as one clause.
func RenderOSVAffected(affected []models.Affected) string {
	var exact []string
	var parts []string
	seen := map[string]bool{}

	for _, entry := range affected {
		for _, version := range entry.Versions {
			cleaned := strings.TrimPrefix(version, "v")
			if cleaned != "" && !seen[cleaned] {
				seen[cleaned] = true
				exact = append(exact, cleaned)
			}
		}
		for _, r := range entry.Ranges {
			rendered := renderBounds(deriveBounds(r))
			if rendered != "" && !seen[rendered] {
				seen[rendered] = true
				parts = append(parts, rendered)
			}
		}
	}

	if len(exact) > 0 {
		joined := strings.Join(exact, ", ")
		if len(exact) > 1 {
			joined = "specific versions: " + joined
		}
		parts = append([]string{joined}, parts...)
	}

	return strings.Join(parts, ", ")
}

// renderNVDSource renders one NVD CPE match entry, or "" when it carries no
// version information at all.
func renderNVDSource(source model.NVDAffectedSource) string {
	start := source.VersionStartIncluding
	startExclusive := false
	if start == "" && source.VersionStartExcluding != "" {
		start = source.VersionStartExcluding
		startExclusive = true
	}
	end := source.VersionEndIncluding
	endExclusive := false
	if end == "" && source.VersionEndExcluding != "" {
		end = source.VersionEndExcluding
		endExclusive = true
	}

	boundary := func(exclusive bool) string {
		if exclusive {
			return "exclusive"
		}
		return "inclusive"
	}

	switch {
	case start != "" && end != "":
		return fmt.Sprintf("%s (%s) to %s (%s)", start, boundary(startExclusive), end, boundary(endExclusive))
	case start != "" && startExclusive:
		return fmt.Sprintf("after %s", start)
	case start != "":
		return fmt.Sprintf("%s and later", start)
	case end != "" && endExclusive:
		return fmt.Sprintf("before %s", end)
	case end != "":
		return fmt.Sprintf("up to %s (inclusive)", end)
	case source.CriteriaDict.Version == "*" || source.CriteriaDict.Version == "-":
		return "all versions"
	case source.CriteriaDict.Version != "":
		return source.CriteriaDict.Version
	}
	return ""
}

// RenderNVDAffected renders the raw NVD CPE match entries, textually
// deduplicated and joined with ", ".
func RenderNVDAffected(sources []model.NVDAffectedSource) string {
	var parts []string
	for _, source := range sources {
		rendered := renderNVDSource(source)
		if rendered != "" {
			parts = util.AppendUnique(parts, rendered)
		}
	}
	return strings.Join(parts, ", ")
}

// FormatSemVer renders a parsed semver back to its canonical string form.
func FormatSemVer(v model.SemVer) string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.PreReleaseTag != "" {
		s += "-" + v.PreReleaseTag
	}
	return s
}

// RenderEvidence renders the abstracted affected-version evidence: ranges as
// ">= a < b" clauses, exact versions literally, both joined with " || ", and
// the universal flag as "*".
func RenderEvidence(evidence *model.AffectedEvidence) string {
	if evidence.IsEmpty() {
		return ""
	}
	if evidence.Universal {
		return "*"
	}
	if len(evidence.Ranges) > 0 {
		parts := make([]string, 0, len(evidence.Ranges))
		for _, r := range evidence.Ranges {
			parts = append(parts, fmt.Sprintf(">= %s < %s", FormatSemVer(r.IntroducedSemver), FormatSemVer(r.FixedSemver)))
		}
		return strings.Join(parts, " || ")
	}
	parts := make([]string, 0, len(evidence.Exact))
	for _, v := range evidence.Exact {
		parts = append(parts, v.VersionString)
	}
	return strings.Join(parts, " || ")
}
