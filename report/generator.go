// Package report assembles the per (advisory, dependency) detail view from a
// finding plus the raw advisory records of the sources that matched it. Two
// variants exist, one anchored on the OSV record and one on the NVD record;
// they differ only in which source is authoritative for ids, descriptions and
// dates. Generation is stateless: every input is an explicit parameter and
// calls may run concurrently.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/osv-scanner/pkg/models"
	"go.uber.org/zap"

	"github.com/CodeClarityCE/vulnerabilities/lookup"
	"github.com/CodeClarityCE/vulnerabilities/model"
	"github.com/CodeClarityCE/vulnerabilities/util"
	"github.com/CodeClarityCE/vulnerabilities/versions"
)

// MissingAnchorItem is returned when report generation is invoked without the
// advisory record its variant is anchored on. It is fatal for that single
// report only.
type MissingAnchorItem struct {
	Anchor string
}

func (e *MissingAnchorItem) Error() string {
	return fmt.Sprintf("report: missing %s anchor item", e.Anchor)
}

// Input carries everything one report generation call needs. OSVItem and
// NVDItem are optional except for the variant's anchor; ThirdParty is an
// additional advisory feed listed among the sources when present.
type Input struct {
	Finding            model.Finding
	PackageManager     string
	DependencyMetadata *lookup.PackageMetadata
	OSVItem            *models.Vulnerability
	NVDItem            *model.NVDItem
	ThirdParty         *model.SourceInfo
}

// Generator produces vulnerability detail reports. The zero value is not
// usable; construct with NewGenerator.
type Generator struct {
	providers lookup.Providers
	logger    *zap.Logger
}

// NewGenerator returns a report generator backed by the given lookup
// providers.
func NewGenerator(providers lookup.Providers, logger *zap.Logger) *Generator {
	return &Generator{providers: providers, logger: logger}
}

// GenerateOSVReport builds the OSV-anchored detail report.
func (g *Generator) GenerateOSVReport(ctx context.Context, in Input) (*model.VulnerabilityDetailsReport, error) {
	if in.OSVItem == nil {
		return nil, &MissingAnchorItem{Anchor: model.SourceOSV}
	}

	id := osvNativeID(in.OSVItem)

	info := model.VulnerabilityInfo{
		VulnerabilityID:  id,
		Description:      osvDescription(in.OSVItem),
		PublishedDate:    formatOSVTime(in.OSVItem.Published),
		LastModifiedDate: formatOSVTime(in.OSVItem.Modified),
		Sources:          assembleSources(model.SourceOSV, in),
		Aliases:          assembleAliases(id, in),
		VersionInfo:      g.versionInfo(in, false),
	}

	return g.assemble(ctx, in, info, vectorsFromOSV(in.OSVItem), vectorsFromNVD(in.NVDItem), in.Finding.NVDMatch), nil
}

// GenerateNVDReport builds the NVD-anchored detail report.
func (g *Generator) GenerateNVDReport(ctx context.Context, in Input) (*model.VulnerabilityDetailsReport, error) {
	if in.NVDItem == nil {
		return nil, &MissingAnchorItem{Anchor: model.SourceNVD}
	}

	id := in.NVDItem.ID

	info := model.VulnerabilityInfo{
		VulnerabilityID:  id,
		Description:      in.NVDItem.EnglishDescription(),
		PublishedDate:    in.NVDItem.Published,
		LastModifiedDate: in.NVDItem.LastModified,
		Sources:          assembleSources(model.SourceNVD, in),
		Aliases:          assembleAliases(id, in),
		VersionInfo:      g.versionInfo(in, true),
	}

	return g.assemble(ctx, in, info, vectorsFromNVD(in.NVDItem), vectorsFromOSV(in.OSVItem), in.Finding.OSVMatch), nil
}

// assemble finishes the report from the anchor-specific header, running the
// enrichment lookups and the severity computation shared by both variants.
func (g *Generator) assemble(ctx context.Context, in Input, info model.VulnerabilityInfo, primary, secondary sourceVectors, secondaryMatch *model.SourceMatch) *model.VulnerabilityDetailsReport {
	weaknesses, consequences := g.resolveWeaknesses(ctx, in.Finding.Weaknesses)
	dependencyName := g.dependencyName(in)

	report := &model.VulnerabilityDetailsReport{
		VulnerabilityInfo:  info,
		DependencyInfo:     g.dependencyInfo(ctx, in, dependencyName),
		Severities:         severitiesWithFallback(primary, secondary, g.logger),
		Weaknesses:         weaknesses,
		CommonConsequences: consequences,
		OwaspTop10:         g.resolveOwasp(ctx, in.Finding.Weaknesses),
		References:         assembleReferences(in),
		Patch:              model.PatchInfo{Patched: patchedVersions(in)},
		Other: model.OtherInfo{
			PackageManager: in.PackageManager,
			ConflictFlag:   reportConflictFlag(in.Finding, in.OSVItem != nil && in.NVDItem != nil, secondaryMatch),
		},
	}
	return report
}

// osvNativeID prefers a CVE alias over the ecosystem-native OSV id so the
// report lines up with the NVD-anchored view of the same advisory.
func osvNativeID(item *models.Vulnerability) string {
	if util.IsCVEID(item.ID) {
		return item.ID
	}
	for _, alias := range item.Aliases {
		if util.IsCVEID(alias) {
			return alias
		}
	}
	return item.ID
}

func osvDescription(item *models.Vulnerability) string {
	if cleaned := CleanOSVDescription(item.Details); cleaned != "" {
		return cleaned
	}
	return item.Summary
}

func formatOSVTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// assembleSources lists the advisory feeds that contributed, anchor first.
func assembleSources(anchor string, in Input) []model.SourceInfo {
	var sources []model.SourceInfo
	if in.OSVItem != nil {
		sources = append(sources, model.SourceInfo{
			Name:           model.SourceOSV,
			VulnURL:        "https://osv.dev/vulnerability/" + in.OSVItem.ID,
			AttributionURL: "https://osv.dev",
		})
	}
	if in.NVDItem != nil {
		sources = append(sources, model.SourceInfo{
			Name:           model.SourceNVD,
			VulnURL:        "https://nvd.nist.gov/vuln/detail/" + in.NVDItem.ID,
			AttributionURL: "https://nvd.nist.gov",
		})
	}
	if anchor == model.SourceNVD && len(sources) == 2 {
		sources[0], sources[1] = sources[1], sources[0]
	}
	if in.ThirdParty != nil {
		sources = append(sources, *in.ThirdParty)
	}
	return sources
}

// assembleAliases gathers every id either source knows the advisory under,
// minus the id the report itself is keyed on.
func assembleAliases(reportID string, in Input) []string {
	var aliases []string
	add := func(id string) {
		if id != "" && id != reportID {
			aliases = util.AppendUnique(aliases, id)
		}
	}
	if in.OSVItem != nil {
		add(in.OSVItem.ID)
		for _, alias := range in.OSVItem.Aliases {
			add(alias)
		}
	}
	if in.NVDItem != nil {
		add(in.NVDItem.ID)
	}
	return aliases
}

// versionInfo reconciles the affected-version string and computes the
// per-source verdict for the installed version.
func (g *Generator) versionInfo(in Input, preferNVD bool) model.VersionInfo {
	finding := in.Finding

	evidence := matchEvidence(finding.OSVMatch)
	if nvd := matchEvidence(finding.NVDMatch); !nvd.IsEmpty() && (preferNVD || evidence.IsEmpty()) {
		evidence = nvd
	}

	reconciled := versions.ReconcileAffectedVersions(versions.ReconcileInput{
		VulnerabilityID:  finding.VulnerabilityID,
		InstalledVersion: finding.AffectedVersion,
		PreferNVD:        preferNVD,
		Evidence:         evidence,
		OSVAffected:      osvAffected(in.OSVItem),
		NVDAffected:      nvdAffected(in.NVDItem),
	})

	var statuses []model.VersionStatus
	if finding.OSVMatch != nil {
		statuses = append(statuses, sourceStatus(model.SourceOSV, finding.OSVMatch, finding.AffectedVersion))
	}
	if finding.NVDMatch != nil {
		statuses = append(statuses, sourceStatus(model.SourceNVD, finding.NVDMatch, finding.AffectedVersion))
	}

	disagree := false
	if len(statuses) == 2 {
		disagree = !versions.SourcesAgree(statuses[0].Justification, statuses[1].Justification)
	}

	return model.VersionInfo{
		AffectedVersionsString: reconciled,
		InstalledVersion:       finding.AffectedVersion,
		Statuses:               statuses,
		SourcesDisagree:        disagree,
	}
}

func sourceStatus(source string, match *model.SourceMatch, installed string) model.VersionStatus {
	justification := versions.ExplainWhyVersionIsVulnerable(match.Evidence, installed)
	return model.VersionStatus{
		Source:        source,
		Affected:      justification != "",
		Justification: justification,
	}
}

// resolveWeaknesses enriches the finding's CWE entries through the external
// lookup. A failed lookup drops that entry; the report never fails on it.
func (g *Generator) resolveWeaknesses(ctx context.Context, weaknesses []model.Weakness) ([]model.WeaknessInfo, map[string][]model.CommonConsequence) {
	if g.providers.CWE == nil || len(weaknesses) == 0 {
		return nil, nil
	}

	var resolved []model.WeaknessInfo
	consequences := make(map[string][]model.CommonConsequence)
	for _, w := range weaknesses {
		info, err := g.providers.CWE.LookupCWE(ctx, w.WeaknessID)
		if err != nil {
			g.logger.Sugar().Warnf("CWE lookup for %s failed: %v", w.WeaknessID, err)
			continue
		}
		resolved = append(resolved, model.WeaknessInfo{
			WeaknessID:          w.WeaknessID,
			WeaknessName:        info.Name,
			WeaknessDescription: info.Description,
			ExtendedDescription: info.ExtendedDescription,
		})
		if len(info.CommonConsequences) > 0 {
			consequences[w.WeaknessID] = info.CommonConsequences
		}
	}
	if len(consequences) == 0 {
		consequences = nil
	}
	return resolved, consequences
}

// resolveOwasp resolves the OWASP Top 10 category of the first weakness that
// carries one. A failed lookup yields no category, not an error.
func (g *Generator) resolveOwasp(ctx context.Context, weaknesses []model.Weakness) *model.OwaspInfo {
	if g.providers.Owasp == nil {
		return nil
	}
	for _, w := range weaknesses {
		if w.OWASPTop10ID == "" {
			continue
		}
		info, err := g.providers.Owasp.LookupOwaspTop10(ctx, w.OWASPTop10ID)
		if err != nil {
			g.logger.Sugar().Warnf("OWASP lookup for %s failed: %v", w.OWASPTop10ID, err)
			return nil
		}
		return &model.OwaspInfo{ID: info.ID, Name: info.Name, Description: info.Description}
	}
	return nil
}

// dependencyName re-derives the real package name for synthetic framework
// advisories, which carry a placeholder dependency name.
func (g *Generator) dependencyName(in Input) string {
	name := in.Finding.AffectedDependency
	if !strings.HasPrefix(in.Finding.VulnerabilityID, versions.FrameworkAdvisoryPrefix) {
		return name
	}

	if in.OSVItem != nil {
		for _, affected := range in.OSVItem.Affected {
			if util.IsNotEmpty(affected.Package.Name) {
				return affected.Package.Name
			}
			if util.IsNotEmpty(affected.Package.Purl) {
				purl := affected.Package.Purl
				if cleaned, err := util.CleanPURL(purl); err == nil {
					purl = cleaned
				}
				if derived, err := util.PackageNameFromPURL(purl); err == nil {
					return derived
				}
			}
		}
	}
	if in.NVDItem != nil {
		for _, affected := range in.NVDItem.Affected {
			dict := affected.CriteriaDict
			if dict.Product == "" {
				continue
			}
			if dict.Vendor != "" && dict.Vendor != "*" && dict.Vendor != dict.Product {
				return dict.Vendor + "/" + dict.Product
			}
			return dict.Product
		}
	}
	return name
}

// dependencyInfo fills the dependency section from the supplied metadata, or
// the package lookup when none was supplied. Lookup failures degrade to a
// bare name entry.
func (g *Generator) dependencyInfo(ctx context.Context, in Input, name string) *model.DependencyInfo {
	info := &model.DependencyInfo{
		Name:             name,
		InstalledVersion: in.Finding.AffectedVersion,
		PackageManager:   in.PackageManager,
	}

	metadata := in.DependencyMetadata
	if metadata == nil && g.providers.Package != nil {
		if looked, err := g.providers.Package.LookupPackageMetadata(ctx, name); err == nil {
			metadata = &looked
		} else if err != lookup.ErrNotFound {
			g.logger.Sugar().Warnf("package metadata lookup for %s failed: %v", name, err)
		}
	}
	if metadata != nil {
		info.Description = metadata.Description
		info.Homepage = metadata.Homepage
		info.Keywords = metadata.Keywords
	}
	return info
}

// assembleReferences merges the reference lists of both sources, keyed by URL.
func assembleReferences(in Input) []model.ReferenceInfo {
	var refs []model.ReferenceInfo
	seen := make(map[string]bool)

	if in.OSVItem != nil {
		for _, ref := range in.OSVItem.References {
			if ref.URL == "" || seen[ref.URL] {
				continue
			}
			seen[ref.URL] = true
			entry := model.ReferenceInfo{URL: ref.URL}
			if ref.Type != "" {
				entry.Tags = []string{string(ref.Type)}
			}
			refs = append(refs, entry)
		}
	}
	if in.NVDItem != nil {
		for _, ref := range in.NVDItem.References {
			if ref.URL == "" || seen[ref.URL] {
				continue
			}
			seen[ref.URL] = true
			refs = append(refs, model.ReferenceInfo{URL: ref.URL, Tags: ref.Tags})
		}
	}
	return refs
}

// patchedVersions lists the versions in which the advisory is fixed: OSV
// fixed events first, NVD end-excluding bounds as fallback.
func patchedVersions(in Input) []string {
	var patched []string
	if in.OSVItem != nil {
		for _, affected := range in.OSVItem.Affected {
			for _, vrange := range affected.Ranges {
				for _, event := range vrange.Events {
					if event.Fixed != "" {
						patched = util.AppendUnique(patched, event.Fixed)
					}
				}
			}
		}
	}
	if len(patched) == 0 && in.NVDItem != nil {
		for _, affected := range in.NVDItem.Affected {
			if affected.VersionEndExcluding != "" {
				patched = util.AppendUnique(patched, affected.VersionEndExcluding)
			}
		}
	}
	return patched
}

// reportConflictFlag upgrades the finding's flag to MATCH_POSSIBLE_INCORRECT
// when both feeds carry a record for the advisory and the secondary feed
// supplied explicit version evidence that the match never reconciled against.
func reportConflictFlag(finding model.Finding, bothPresent bool, secondaryMatch *model.SourceMatch) model.ConflictFlag {
	flag := finding.Conflict.Flag
	if !flag.IsNoConflict() {
		return flag
	}
	if bothPresent && secondaryMatch != nil && !secondaryMatch.Evidence.IsEmpty() {
		return model.ConflictMatchPossibleIncorrect
	}
	if flag == "" {
		return model.ConflictNone
	}
	return flag
}

func matchEvidence(m *model.SourceMatch) *model.AffectedEvidence {
	if m == nil {
		return nil
	}
	return m.Evidence
}

func osvAffected(item *models.Vulnerability) []models.Affected {
	if item == nil {
		return nil
	}
	return item.Affected
}

func nvdAffected(item *model.NVDItem) []model.NVDAffectedSource {
	if item == nil {
		return nil
	}
	return item.Affected
}
