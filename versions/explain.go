package versions

import (
	"fmt"
	"strings"

	"github.com/CodeClarityCE/vulnerabilities/model"
	"github.com/Masterminds/semver/v3"
)

// ExplainWhyVersionIsVulnerable returns a natural-language justification for
// why the installed version is considered affected by one source's evidence,
// or "" when the evidence does not cover the version (or there is none).
func ExplainWhyVersionIsVulnerable(evidence *model.AffectedEvidence, installedVersion string) string {
	if evidence.IsEmpty() {
		return ""
	}

	if evidence.Universal {
		return "All versions are considered affected."
	}

	if len(evidence.Exact) > 0 {
		listed := make([]string, 0, len(evidence.Exact))
		matched := false
		cleaned := strings.TrimPrefix(installedVersion, "v")
		for _, v := range evidence.Exact {
			listed = append(listed, v.VersionString)
			if strings.TrimPrefix(v.VersionString, "v") == cleaned {
				matched = true
			}
		}
		if matched {
			return fmt.Sprintf("Your version %s is in the list of affected versions: %s", installedVersion, strings.Join(listed, ", "))
		}
		return ""
	}

	installed, err := semver.NewVersion(strings.TrimPrefix(installedVersion, "v"))
	if err != nil {
		return ""
	}
	for _, r := range evidence.Ranges {
		if semverInRange(installed, r) {
			return fmt.Sprintf("Your version %s is within the affected range >= %s < %s",
				installedVersion, FormatSemVer(r.IntroducedSemver), FormatSemVer(r.FixedSemver))
		}
	}
	return ""
}

// semverInRange checks installed against the half-open interval
// [introduced, fixed).
func semverInRange(installed *semver.Version, r model.AffectedRange) bool {
	introduced, err := semver.NewVersion(FormatSemVer(r.IntroducedSemver))
	if err != nil {
		return false
	}
	fixed, err := semver.NewVersion(FormatSemVer(r.FixedSemver))
	if err != nil {
		return false
	}
	return !installed.LessThan(introduced) && installed.LessThan(fixed)
}

// SourcesAgree reports whether two sources justify "this version is
// vulnerable" the same way: their justifications are identical or both empty.
// A difference is surfaced as source disagreement on the report.
func SourcesAgree(justificationA, justificationB string) bool {
	return justificationA == justificationB
}
