package query

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/CodeClarityCE/vulnerabilities/model"
)

// Sort keys and directions accepted by SortVulnerabilities.
const (
	SortKeySeverity       = "severity"
	SortKeyDepVersion     = "dep_version"
	SortKeyExploitability = "exploitability"
	SortKeyOwaspTop10     = "owasp_top_10"
	SortKeyWeakness       = "weakness"
	SortKeyCve            = "cve"

	SortDirectionAsc  = "ASC"
	SortDirectionDesc = "DESC"
)

// SortVulnerabilities returns a stably sorted copy of the merged list.
// Unknown keys default to severity, unknown directions to DESC.
//
// The owasp_top_10, weakness and generic field comparators apply the
// direction inverted relative to its conventional meaning (ASC yields
// descending order). Downstream consumers were built against that behavior,
// so it is kept as is; the tests pin it down.
func SortVulnerabilities(vulnerabilities []model.MergedVulnerability, sortKey string, direction string) []model.MergedVulnerability {
	if direction != SortDirectionAsc && direction != SortDirectionDesc {
		direction = SortDirectionDesc
	}

	compare, inverted := comparatorFor(sortKey)

	ascending := direction == SortDirectionAsc
	if inverted {
		ascending = !ascending
	}

	out := make([]model.MergedVulnerability, len(vulnerabilities))
	copy(out, vulnerabilities)

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j])
		if ascending {
			return c < 0
		}
		return c > 0
	})
	return out
}

type comparator func(a, b model.MergedVulnerability) int

// comparatorFor picks the comparator for a sort key and reports whether its
// direction handling is inverted.
func comparatorFor(sortKey string) (comparator, bool) {
	switch sortKey {
	case SortKeySeverity:
		return compareSeverity, false
	case SortKeyDepVersion:
		return compareDepVersion, false
	case SortKeyExploitability:
		return compareExploitability, false
	case SortKeyOwaspTop10:
		return compareOwasp, true
	case SortKeyWeakness:
		return compareWeakness, true
	case SortKeyCve:
		return compareCve, false
	}
	if field, ok := mergedFieldByJSONName(sortKey); ok {
		return genericFieldComparator(field), true
	}
	return compareSeverity, false
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareSeverity(a, b model.MergedVulnerability) int {
	return compareFloats(a.Severity.Value(), b.Severity.Value())
}

func compareExploitability(a, b model.MergedVulnerability) int {
	return compareFloats(a.Severity.ExploitabilityValue(), b.Severity.ExploitabilityValue())
}

// compareDepVersion compares the installed version of the first affected
// dependency as a semantic version. Missing or unparseable versions count as
// 0.0.0.
func compareDepVersion(a, b model.MergedVulnerability) int {
	return firstAffectedVersion(a).Compare(firstAffectedVersion(b))
}

var zeroVersion = semver.MustParse("0.0.0")

func firstAffectedVersion(v model.MergedVulnerability) *semver.Version {
	if len(v.Affected) == 0 || v.Affected[0].AffectedVersion == "" {
		return zeroVersion
	}
	parsed, err := semver.NewVersion(strings.TrimPrefix(v.Affected[0].AffectedVersion, "v"))
	if err != nil {
		return zeroVersion
	}
	return parsed
}

// compareOwasp compares the numeric OWASP Top 10 category id of the first
// categorized weakness. Records without a category sort lowest.
func compareOwasp(a, b model.MergedVulnerability) int {
	return compareFloats(float64(owaspCategoryID(a)), float64(owaspCategoryID(b)))
}

func owaspCategoryID(v model.MergedVulnerability) int {
	for _, w := range v.Weaknesses {
		if w.OWASPTop10ID == "" {
			continue
		}
		if id, err := strconv.Atoi(w.OWASPTop10ID); err == nil {
			return id
		}
	}
	return 0
}

// compareWeakness compares the numeric CWE id of the first weakness.
func compareWeakness(a, b model.MergedVulnerability) int {
	return compareFloats(float64(cweNumericID(a)), float64(cweNumericID(b)))
}

func cweNumericID(v model.MergedVulnerability) int {
	for _, w := range v.Weaknesses {
		raw := strings.TrimPrefix(w.WeaknessID, "CWE-")
		if id, err := strconv.Atoi(raw); err == nil {
			return id
		}
	}
	return 0
}

func compareCve(a, b model.MergedVulnerability) int {
	return strings.Compare(a.ID, b.ID)
}

// mergedFieldByJSONName resolves a sort key against the json field names of
// MergedVulnerability for the generic comparator.
func mergedFieldByJSONName(name string) (reflect.StructField, bool) {
	t := reflect.TypeOf(model.MergedVulnerability{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("json"), ",")[0]
		if tag == name {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

// genericFieldComparator compares one primitive-valued field as a string.
// Object- and array-valued fields compare as the empty string so an odd sort
// key degrades to a no-op ordering instead of nonsense.
func genericFieldComparator(field reflect.StructField) comparator {
	return func(a, b model.MergedVulnerability) int {
		return strings.Compare(primitiveFieldString(a, field), primitiveFieldString(b, field))
	}
}

func primitiveFieldString(v model.MergedVulnerability, field reflect.StructField) string {
	value := reflect.ValueOf(v).FieldByIndex(field.Index)
	switch value.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(value.Interface())
	default:
		return ""
	}
}
