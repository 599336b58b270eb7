package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CodeClarityCE/vulnerabilities/lookup"
	"github.com/CodeClarityCE/vulnerabilities/model"
)

type fakeEPSS struct {
	scores map[string]model.EPSSScore
	calls  int
}

func (f *fakeEPSS) LookupEPSS(_ context.Context, advisoryID string) model.EPSSScore {
	f.calls++
	return f.scores[advisoryID]
}

type fakePolicies struct {
	policies map[string]lookup.PolicyContent
}

func (f *fakePolicies) LookupPolicyContent(_ context.Context, _ string, policyID string) (lookup.PolicyContent, error) {
	if content, ok := f.policies[policyID]; ok {
		return content, nil
	}
	return lookup.PolicyContent{}, lookup.ErrNotFound
}

func floatPtr(v float64) *float64 { return &v }

func testFindings() []model.Finding {
	return []model.Finding{
		{
			VulnerabilityID:    "CVE-2021-1234",
			AffectedDependency: "widget",
			AffectedVersion:    "1.1.0",
			Sources:            []string{model.SourceOSV, model.SourceNVD},
			Severity:           &model.SeverityScore{Severity: 9.8, SeverityClass: model.SeverityClassCritical},
			Weaknesses:         []model.Weakness{{WeaknessID: "CWE-79", OWASPTop10ID: "3"}},
			OSVMatch: &model.SourceMatch{
				VlaiScore:      floatPtr(0.91),
				VlaiConfidence: floatPtr(0.8),
			},
			NVDMatch: &model.SourceMatch{},
			Conflict: model.Conflict{Flag: model.ConflictMatchCorrect},
		},
		{
			VulnerabilityID:    "GHSA-xxxx-yyyy-zzzz",
			AffectedDependency: "gadget",
			AffectedVersion:    "2.0.0",
			Sources:            []string{model.SourceOSV},
		},
		{
			VulnerabilityID:    "CVE-2021-1234",
			AffectedDependency: "other-widget",
			AffectedVersion:    "0.9.0",
			Sources:            []string{model.SourceOSV},
			Severity:           &model.SeverityScore{Severity: 2.0},
		},
	}
}

func TestMergeFindings(t *testing.T) {
	epss := &fakeEPSS{scores: map[string]model.EPSSScore{
		"CVE-2021-1234": {Score: 0.42, Percentile: 0.97},
	}}
	m := NewMerger(lookup.Providers{EPSS: epss}, zap.NewNop())

	findings := testFindings()
	merged := m.MergeFindings(context.Background(), Input{
		Findings:  findings,
		Summaries: map[string]string{"CVE-2021-1234": "XSS in widget"},
	})

	// one record per distinct id, first-seen order
	require.Len(t, merged, 2)
	assert.Equal(t, "CVE-2021-1234", merged[0].ID)
	assert.Equal(t, "GHSA-xxxx-yyyy-zzzz", merged[1].ID)

	// every finding lands in exactly one Affected entry
	total := 0
	for _, record := range merged {
		total += len(record.Affected)
	}
	assert.Equal(t, len(findings), total)

	// advisory-level fields come from the first occurrence only
	first := merged[0]
	require.NotNil(t, first.Severity)
	assert.InDelta(t, 9.8, first.Severity.Severity, 0.001)
	assert.Equal(t, "XSS in widget", first.Description)
	assert.InDelta(t, 0.42, first.EPSS.Score, 0.001)
	require.Len(t, first.VLAI, 1)
	assert.Equal(t, model.SourceOSV, first.VLAI[0].Source)
	assert.InDelta(t, 0.91, first.VLAI[0].Score, 0.001)

	require.Len(t, first.Affected, 2)
	assert.Equal(t, "widget", first.Affected[0].AffectedDependency)
	assert.Equal(t, "other-widget", first.Affected[1].AffectedDependency)

	// EPSS fetched once per distinct id, not once per finding
	assert.Equal(t, 2, epss.calls)
}

func TestMergeConflictHeuristic(t *testing.T) {
	m := NewMerger(lookup.Providers{}, zap.NewNop())

	tests := []struct {
		name     string
		finding  model.Finding
		expected model.ConflictFlag
	}{
		{
			name: "cve with nvd match and no recorded conflict is flagged",
			finding: model.Finding{
				VulnerabilityID: "CVE-2020-0001",
				NVDMatch:        &model.SourceMatch{},
			},
			expected: model.ConflictMatchPossibleIncorrect,
		},
		{
			name: "legacy empty flag treated the same",
			finding: model.Finding{
				VulnerabilityID: "CVE-2020-0001",
				NVDMatch:        &model.SourceMatch{},
				Conflict:        model.Conflict{Flag: ""},
			},
			expected: model.ConflictMatchPossibleIncorrect,
		},
		{
			name: "non-cve id is untouched",
			finding: model.Finding{
				VulnerabilityID: "GHSA-xxxx-yyyy-zzzz",
				NVDMatch:        &model.SourceMatch{},
			},
			expected: model.ConflictNone,
		},
		{
			name: "no nvd match is untouched",
			finding: model.Finding{
				VulnerabilityID: "CVE-2020-0001",
			},
			expected: model.ConflictNone,
		},
		{
			name: "recorded conflict wins over the heuristic",
			finding: model.Finding{
				VulnerabilityID: "CVE-2020-0001",
				NVDMatch:        &model.SourceMatch{},
				Conflict:        model.Conflict{Flag: model.ConflictMatchIncorrect},
			},
			expected: model.ConflictMatchIncorrect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := m.MergeFindings(context.Background(), Input{Findings: []model.Finding{tt.finding}})
			require.Len(t, merged, 1)
			assert.Equal(t, tt.expected, merged[0].Conflict.Flag)
		})
	}
}

func TestMergeBlacklist(t *testing.T) {
	policies := &fakePolicies{policies: map[string]lookup.PolicyContent{
		"policy-1": {Name: "Banned advisories", Content: []string{"CVE-2021-1234"}},
	}}
	m := NewMerger(lookup.Providers{Policy: policies}, zap.NewNop())

	merged := m.MergeFindings(context.Background(), Input{
		Findings:  testFindings(),
		OrgID:     "org-1",
		PolicyIDs: []string{"policy-1", "policy-missing"},
	})

	require.Len(t, merged, 2)
	assert.True(t, merged[0].IsBlacklisted)
	assert.Equal(t, []string{"Banned advisories"}, merged[0].BlacklistedByPolicies)
	assert.False(t, merged[1].IsBlacklisted)
}
