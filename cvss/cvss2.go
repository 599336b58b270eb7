package cvss

import (
	"github.com/CodeClarityCE/vulnerabilities/model"
)

// CVSS v2 metric weights (CVSS v2 guide, section 3.2.1)
var (
	cvss2AccessVector     = map[string]float64{"L": 0.395, "A": 0.646, "N": 1.0}
	cvss2AccessComplexity = map[string]float64{"H": 0.35, "M": 0.61, "L": 0.71}
	cvss2Authentication   = map[string]float64{"M": 0.45, "S": 0.56, "N": 0.704}
	cvss2Impact           = map[string]float64{"N": 0.0, "P": 0.275, "C": 0.66}
)

var (
	cvss2AccessVectorNames = map[string]string{"L": "LOCAL", "A": "ADJACENT_NETWORK", "N": "NETWORK"}
	cvss2ComplexityNames   = map[string]string{"H": "HIGH", "M": "MEDIUM", "L": "LOW"}
	cvss2AuthNames         = map[string]string{"M": "MULTIPLE", "S": "SINGLE", "N": "NONE"}
	cvss2ImpactNames       = map[string]string{"N": "NONE", "P": "PARTIAL", "C": "COMPLETE"}
)

// ComputeCvss2 parses a CVSS v2 vector string (with or without the
// parentheses some feeds wrap it in) and computes the base scores.
func ComputeCvss2(vector string) (*model.Cvss2, error) {
	components, err := parseVector(vector)
	if err != nil {
		return nil, err
	}

	av, err := weight(vector, components, "AV", cvss2AccessVector)
	if err != nil {
		return nil, err
	}
	ac, err := weight(vector, components, "AC", cvss2AccessComplexity)
	if err != nil {
		return nil, err
	}
	au, err := weight(vector, components, "Au", cvss2Authentication)
	if err != nil {
		return nil, err
	}
	c, err := weight(vector, components, "C", cvss2Impact)
	if err != nil {
		return nil, err
	}
	i, err := weight(vector, components, "I", cvss2Impact)
	if err != nil {
		return nil, err
	}
	a, err := weight(vector, components, "A", cvss2Impact)
	if err != nil {
		return nil, err
	}

	impact := 10.41 * (1 - (1-c)*(1-i)*(1-a))
	exploitability := 20 * av * ac * au

	fImpact := 1.176
	if impact == 0 {
		fImpact = 0
	}
	baseScore := round1((0.6*impact + 0.4*exploitability - 1.5) * fImpact)

	return &model.Cvss2{
		BaseScore:             baseScore,
		ExploitabilityScore:   round1(exploitability),
		ImpactScore:           round1(impact),
		AccessVector:          cvss2AccessVectorNames[components["AV"]],
		AccessComplexity:      cvss2ComplexityNames[components["AC"]],
		Authentication:        cvss2AuthNames[components["Au"]],
		ConfidentialityImpact: cvss2ImpactNames[components["C"]],
		IntegrityImpact:       cvss2ImpactNames[components["I"]],
		AvailabilityImpact:    cvss2ImpactNames[components["A"]],
	}, nil
}

// weight looks up the numeric weight of one metric, failing with a
// VectorParseError when the metric is missing or its value is unknown.
func weight(vector string, components map[string]string, metric string, weights map[string]float64) (float64, error) {
	value, ok := components[metric]
	if !ok {
		return 0, &VectorParseError{Vector: vector, Reason: "missing metric " + metric}
	}
	w, ok := weights[value]
	if !ok {
		return 0, &VectorParseError{Vector: vector, Reason: "unknown value " + value + " for metric " + metric}
	}
	return w, nil
}
