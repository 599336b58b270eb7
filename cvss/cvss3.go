package cvss

import (
	"math"

	"github.com/CodeClarityCE/vulnerabilities/model"
)

// CVSS v3.x metric weights (CVSS v3.1 specification, section 7.4)
var (
	cvss3AttackVector     = map[string]float64{"N": 0.85, "A": 0.62, "L": 0.55, "P": 0.2}
	cvss3AttackComplexity = map[string]float64{"L": 0.77, "H": 0.44}
	cvss3PrivsUnchanged   = map[string]float64{"N": 0.85, "L": 0.62, "H": 0.27}
	cvss3PrivsChanged     = map[string]float64{"N": 0.85, "L": 0.68, "H": 0.5}
	cvss3UserInteraction  = map[string]float64{"N": 0.85, "R": 0.62}
	cvss3Impact           = map[string]float64{"H": 0.56, "L": 0.22, "N": 0.0}
)

var (
	cvss3AttackVectorNames = map[string]string{"N": "NETWORK", "A": "ADJACENT_NETWORK", "L": "LOCAL", "P": "PHYSICAL"}
	cvss3LowHighNames      = map[string]string{"L": "LOW", "H": "HIGH", "N": "NONE"}
	cvss3UINames           = map[string]string{"N": "NONE", "R": "REQUIRED"}
	cvss3ScopeNames        = map[string]string{"U": "UNCHANGED", "C": "CHANGED"}
	cvss3ImpactNames       = map[string]string{"H": "HIGH", "L": "LOW", "N": "NONE"}
)

// cvss3Scores holds the raw computed v3.x sub-scores before rounding.
type cvss3Scores struct {
	base           float64
	exploitability float64
	impact         float64
}

// computeCvss3Scores evaluates the v3.x base score equations with the given
// rounding function (v3.0 and v3.1 differ only in how Roundup is defined).
func computeCvss3Scores(vector string, components map[string]string, roundup func(float64) float64) (cvss3Scores, error) {
	scope, ok := components["S"]
	if !ok {
		return cvss3Scores{}, &VectorParseError{Vector: vector, Reason: "missing metric S"}
	}
	if _, ok := cvss3ScopeNames[scope]; !ok {
		return cvss3Scores{}, &VectorParseError{Vector: vector, Reason: "unknown value " + scope + " for metric S"}
	}
	changed := scope == "C"

	privWeights := cvss3PrivsUnchanged
	if changed {
		privWeights = cvss3PrivsChanged
	}

	av, err := weight(vector, components, "AV", cvss3AttackVector)
	if err != nil {
		return cvss3Scores{}, err
	}
	ac, err := weight(vector, components, "AC", cvss3AttackComplexity)
	if err != nil {
		return cvss3Scores{}, err
	}
	pr, err := weight(vector, components, "PR", privWeights)
	if err != nil {
		return cvss3Scores{}, err
	}
	ui, err := weight(vector, components, "UI", cvss3UserInteraction)
	if err != nil {
		return cvss3Scores{}, err
	}
	c, err := weight(vector, components, "C", cvss3Impact)
	if err != nil {
		return cvss3Scores{}, err
	}
	i, err := weight(vector, components, "I", cvss3Impact)
	if err != nil {
		return cvss3Scores{}, err
	}
	a, err := weight(vector, components, "A", cvss3Impact)
	if err != nil {
		return cvss3Scores{}, err
	}

	iss := 1 - (1-c)*(1-i)*(1-a)
	var impact float64
	if changed {
		// The changed-scope equation dips below zero when ISS is zero.
		// NVD reports the impact sub-score as 0.0 in that case.
		impact = math.Max(0, 7.52*(iss-0.029)-3.25*math.Pow(iss-0.02, 15))
	} else {
		impact = 6.42 * iss
	}
	exploitability := 8.22 * av * ac * pr * ui

	var base float64
	if impact <= 0 {
		base = 0
	} else if changed {
		base = roundup(math.Min(1.08*(impact+exploitability), 10))
	} else {
		base = roundup(math.Min(impact+exploitability, 10))
	}

	return cvss3Scores{base: base, exploitability: exploitability, impact: impact}, nil
}

// roundup30 is the v3.0 Roundup: smallest number with one decimal place that
// is equal to or higher than its input.
func roundup30(x float64) float64 {
	return math.Ceil(x*10) / 10
}

// roundup31 is the v3.1 Roundup, defined over an integer representation to
// avoid the floating point artifacts that made v3.0 scores differ between
// implementations (v3.1 specification, appendix A).
func roundup31(x float64) float64 {
	i := int(math.Round(x * 100000))
	if i%10000 == 0 {
		return float64(i) / 100000
	}
	return (math.Floor(float64(i)/10000) + 1) / 10
}

// ComputeCvss3 parses a CVSS v3.0 vector string and computes the base scores.
func ComputeCvss3(vector string) (*model.Cvss3, error) {
	components, err := parseVector(vector)
	if err != nil {
		return nil, err
	}
	scores, err := computeCvss3Scores(vector, components, roundup30)
	if err != nil {
		return nil, err
	}
	return &model.Cvss3{
		BaseScore:             scores.base,
		ExploitabilityScore:   round1(scores.exploitability),
		ImpactScore:           round1(scores.impact),
		AttackVector:          cvss3AttackVectorNames[components["AV"]],
		AttackComplexity:      cvss3LowHighNames[components["AC"]],
		PrivilegesRequired:    cvss3LowHighNames[components["PR"]],
		UserInteraction:       cvss3UINames[components["UI"]],
		Scope:                 cvss3ScopeNames[components["S"]],
		ConfidentialityImpact: cvss3ImpactNames[components["C"]],
		IntegrityImpact:       cvss3ImpactNames[components["I"]],
		AvailabilityImpact:    cvss3ImpactNames[components["A"]],
	}, nil
}

// ComputeCvss31 parses a CVSS v3.1 vector string and computes the base scores.
func ComputeCvss31(vector string) (*model.Cvss31, error) {
	components, err := parseVector(vector)
	if err != nil {
		return nil, err
	}
	scores, err := computeCvss3Scores(vector, components, roundup31)
	if err != nil {
		return nil, err
	}
	return &model.Cvss31{
		BaseScore:             scores.base,
		ExploitabilityScore:   round1(scores.exploitability),
		ImpactScore:           round1(scores.impact),
		AttackVector:          cvss3AttackVectorNames[components["AV"]],
		AttackComplexity:      cvss3LowHighNames[components["AC"]],
		PrivilegesRequired:    cvss3LowHighNames[components["PR"]],
		UserInteraction:       cvss3UINames[components["UI"]],
		Scope:                 cvss3ScopeNames[components["S"]],
		ConfidentialityImpact: cvss3ImpactNames[components["C"]],
		IntegrityImpact:       cvss3ImpactNames[components["I"]],
		AvailabilityImpact:    cvss3ImpactNames[components["A"]],
	}, nil
}
