// Package merge folds the raw finding list of a workspace into one record per
// distinct advisory id, enriched with EPSS scores and blacklist policy
// membership. The merge is a single pass in first-seen order; the advisory
// level fields of a merged record come from the first finding that mentions
// the id and are never overwritten by later occurrences.
package merge

import (
	"context"

	"go.uber.org/zap"

	"github.com/CodeClarityCE/vulnerabilities/lookup"
	"github.com/CodeClarityCE/vulnerabilities/model"
	"github.com/CodeClarityCE/vulnerabilities/util"
)

// Input is one merge call: the ordered findings of a workspace plus the
// context needed for enrichment. Summaries optionally maps advisory ids to a
// short description shown in the list view; ids without an entry stay
// undescribed. PolicyIDs are the blacklist policies configured on the
// analysis, resolved through the policy provider.
type Input struct {
	Findings  []model.Finding
	Summaries map[string]string
	OrgID     string
	PolicyIDs []string
}

// Merger builds merged vulnerability lists. EPSS and Policy providers are
// optional; a nil provider simply leaves the corresponding fields zeroed.
type Merger struct {
	providers lookup.Providers
	logger    *zap.Logger
}

// NewMerger returns a merger backed by the given lookup providers.
func NewMerger(providers lookup.Providers, logger *zap.Logger) *Merger {
	return &Merger{providers: providers, logger: logger}
}

// MergeFindings folds the findings into one record per advisory id, in
// first-seen order. Every finding contributes exactly one Affected entry to
// its record.
func (m *Merger) MergeFindings(ctx context.Context, in Input) []model.MergedVulnerability {
	blacklist := m.resolveBlacklist(ctx, in.OrgID, in.PolicyIDs)

	byID := make(map[string]int)
	merged := make([]model.MergedVulnerability, 0)

	for _, finding := range in.Findings {
		affected := model.AffectedVuln{
			AffectedDependency: finding.AffectedDependency,
			AffectedVersion:    finding.AffectedVersion,
			Sources:            finding.Sources,
		}

		if idx, seen := byID[finding.VulnerabilityID]; seen {
			merged[idx].Affected = append(merged[idx].Affected, affected)
			continue
		}

		record := model.MergedVulnerability{
			ID:          finding.VulnerabilityID,
			Affected:    []model.AffectedVuln{affected},
			Severity:    finding.Severity,
			Weaknesses:  finding.Weaknesses,
			Conflict:    mergedConflict(finding),
			VLAI:        collectVLAI(finding),
			Description: in.Summaries[finding.VulnerabilityID],
		}
		if m.providers.EPSS != nil {
			record.EPSS = m.providers.EPSS.LookupEPSS(ctx, finding.VulnerabilityID)
		}
		if policies, ok := blacklist[finding.VulnerabilityID]; ok {
			record.IsBlacklisted = true
			record.BlacklistedByPolicies = policies
		}

		byID[finding.VulnerabilityID] = len(merged)
		merged = append(merged, record)
	}

	return merged
}

// mergedConflict applies the cross-source heuristic: a CVE id that NVD also
// matched, without any recorded conflict metadata, is flagged as possibly
// incorrect because some ecosystems never populate the match comparison.
func mergedConflict(finding model.Finding) model.Conflict {
	conflict := finding.Conflict
	if conflict.Flag == "" {
		conflict.Flag = model.ConflictNone
	}
	if conflict.Flag.IsNoConflict() && util.IsCVEID(finding.VulnerabilityID) && finding.NVDMatch != nil {
		conflict.Flag = model.ConflictMatchPossibleIncorrect
	}
	return conflict
}

// collectVLAI gathers the VLAI classifier outputs of every source match that
// carries one, at most one entry per source.
func collectVLAI(finding model.Finding) []model.VLAIScore {
	var scores []model.VLAIScore
	if finding.OSVMatch.HasVlai() {
		scores = append(scores, vlaiScore(model.SourceOSV, finding.OSVMatch))
	}
	if finding.NVDMatch.HasVlai() {
		scores = append(scores, vlaiScore(model.SourceNVD, finding.NVDMatch))
	}
	return scores
}

func vlaiScore(source string, match *model.SourceMatch) model.VLAIScore {
	score := model.VLAIScore{Source: source, Score: *match.VlaiScore}
	if match.VlaiConfidence != nil {
		score.Confidence = *match.VlaiConfidence
	}
	return score
}

// resolveBlacklist resolves the configured policy ids into an advisory id to
// policy names index. A failed policy lookup is logged and skipped, degrading
// to "not blacklisted" for the ids only that policy covers.
func (m *Merger) resolveBlacklist(ctx context.Context, orgID string, policyIDs []string) map[string][]string {
	if m.providers.Policy == nil || len(policyIDs) == 0 {
		return nil
	}

	blacklist := make(map[string][]string)
	for _, policyID := range policyIDs {
		content, err := m.providers.Policy.LookupPolicyContent(ctx, orgID, policyID)
		if err != nil {
			m.logger.Sugar().Warnf("policy lookup for %s failed: %v", policyID, err)
			continue
		}
		for _, advisoryID := range content.Content {
			blacklist[advisoryID] = util.AppendUnique(blacklist[advisoryID], content.Name)
		}
	}
	return blacklist
}
