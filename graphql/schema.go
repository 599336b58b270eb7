// Package graphql provides the GraphQL schema definition and resolvers
package graphql

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/CodeClarityCE/vulnerabilities/database"
	"github.com/CodeClarityCE/vulnerabilities/lookup"
	"github.com/CodeClarityCE/vulnerabilities/merge"
	"github.com/CodeClarityCE/vulnerabilities/model"
	"github.com/CodeClarityCE/vulnerabilities/query"
	"github.com/CodeClarityCE/vulnerabilities/stats"
)

var db database.DBConnection
var merger *merge.Merger

// Init initializes the global database connection and the merge engine used
// by all resolvers.
func Init(dbConn database.DBConnection, providers lookup.Providers, logger *zap.Logger) {
	db = dbConn
	merger = merge.NewMerger(providers, logger)
}

// SeverityClassType defines the GraphQL enum for severity classes
var SeverityClassType = graphql.NewEnum(graphql.EnumConfig{
	Name: "SeverityClass",
	Values: graphql.EnumValueConfigMap{
		"CRITICAL": &graphql.EnumValueConfig{Value: model.SeverityClassCritical},
		"HIGH":     &graphql.EnumValueConfig{Value: model.SeverityClassHigh},
		"MEDIUM":   &graphql.EnumValueConfig{Value: model.SeverityClassMedium},
		"LOW":      &graphql.EnumValueConfig{Value: model.SeverityClassLow},
		"NONE":     &graphql.EnumValueConfig{Value: model.SeverityClassNone},
	},
})

// AffectedType defines the GraphQL object for one affected dependency entry
var AffectedType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Affected",
	Fields: graphql.Fields{
		"affected_dependency": &graphql.Field{Type: graphql.String},
		"affected_version":    &graphql.Field{Type: graphql.String},
		"sources":             &graphql.Field{Type: graphql.NewList(graphql.String)},
	},
})

// SeverityScoreType defines the GraphQL object for the severity details of a vulnerability
var SeverityScoreType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SeverityScore",
	Fields: graphql.Fields{
		"severity":               &graphql.Field{Type: graphql.Float},
		"severity_class":         &graphql.Field{Type: graphql.String},
		"vector":                 &graphql.Field{Type: graphql.String},
		"impact":                 &graphql.Field{Type: graphql.Float},
		"exploitability":         &graphql.Field{Type: graphql.Float},
		"confidentiality_impact": &graphql.Field{Type: graphql.String},
		"integrity_impact":       &graphql.Field{Type: graphql.String},
		"availability_impact":    &graphql.Field{Type: graphql.String},
	},
})

// WeaknessType defines the GraphQL object for a CWE entry
var WeaknessType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Weakness",
	Fields: graphql.Fields{
		"weakness_id":       &graphql.Field{Type: graphql.String},
		"weakness_name":     &graphql.Field{Type: graphql.String},
		"owasp_top_10_id":   &graphql.Field{Type: graphql.String},
		"owasp_top_10_name": &graphql.Field{Type: graphql.String},
	},
})

// EPSSType defines the GraphQL object for the EPSS probability pair
var EPSSType = graphql.NewObject(graphql.ObjectConfig{
	Name: "EPSS",
	Fields: graphql.Fields{
		"score":      &graphql.Field{Type: graphql.Float},
		"percentile": &graphql.Field{Type: graphql.Float},
	},
})

// MergedVulnerabilityType defines the GraphQL object for one merged advisory record
var MergedVulnerabilityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "MergedVulnerability",
	Fields: graphql.Fields{
		"vulnerability_id":        &graphql.Field{Type: graphql.String},
		"description":             &graphql.Field{Type: graphql.String},
		"affected":                &graphql.Field{Type: graphql.NewList(AffectedType)},
		"severity":                &graphql.Field{Type: SeverityScoreType},
		"weaknesses":              &graphql.Field{Type: graphql.NewList(WeaknessType)},
		"conflict_flag":           &graphql.Field{Type: graphql.String},
		"epss":                    &graphql.Field{Type: EPSSType},
		"is_blacklisted":          &graphql.Field{Type: graphql.Boolean},
		"blacklisted_by_policies": &graphql.Field{Type: graphql.NewList(graphql.String)},
	},
})

// WeeklySeverityBucketType defines the GraphQL object for one week of the severity trend
var WeeklySeverityBucketType = graphql.NewObject(graphql.ObjectConfig{
	Name: "WeeklySeverityBucket",
	Fields: graphql.Fields{
		"week":            &graphql.Field{Type: graphql.Int},
		"year":            &graphql.Field{Type: graphql.Int},
		"critical":        &graphql.Field{Type: graphql.Int},
		"high":            &graphql.Field{Type: graphql.Int},
		"medium":          &graphql.Field{Type: graphql.Int},
		"low":             &graphql.Field{Type: graphql.Int},
		"none":            &graphql.Field{Type: graphql.Int},
		"summed_severity": &graphql.Field{Type: graphql.Float},
		"project_ids":     &graphql.Field{Type: graphql.NewList(graphql.String)},
	},
})

// DistributionEntryType defines the GraphQL object for one label/count pair of a distribution
var DistributionEntryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "DistributionEntry",
	Fields: graphql.Fields{
		"label": &graphql.Field{Type: graphql.String},
		"count": &graphql.Field{Type: graphql.Int},
	},
})

// QuickStatsType defines the GraphQL object for the graded dashboard header
var QuickStatsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "QuickStats",
	Fields: graphql.Fields{
		"score":          &graphql.Field{Type: graphql.Float},
		"grade":          &graphql.Field{Type: graphql.String},
		"max_severity":   &graphql.Field{Type: graphql.Float},
		"mean_severity":  &graphql.Field{Type: graphql.Float},
		"total_findings": &graphql.Field{Type: graphql.Int},
		"critical_count": &graphql.Field{Type: graphql.Int},
		"high_count":     &graphql.Field{Type: graphql.Int},
	},
})

func mergedToMap(v model.MergedVulnerability) map[string]interface{} {
	affected := make([]map[string]interface{}, 0, len(v.Affected))
	for _, a := range v.Affected {
		affected = append(affected, map[string]interface{}{
			"affected_dependency": a.AffectedDependency,
			"affected_version":    a.AffectedVersion,
			"sources":             a.Sources,
		})
	}

	var severity map[string]interface{}
	if v.Severity != nil {
		severity = map[string]interface{}{
			"severity":               v.Severity.Severity,
			"severity_class":         v.Severity.SeverityClass,
			"vector":                 v.Severity.Vector,
			"impact":                 v.Severity.Impact,
			"exploitability":         v.Severity.Exploitability,
			"confidentiality_impact": v.Severity.ConfidentialityImpact,
			"integrity_impact":       v.Severity.IntegrityImpact,
			"availability_impact":    v.Severity.AvailabilityImpact,
		}
	}

	weaknesses := make([]map[string]interface{}, 0, len(v.Weaknesses))
	for _, w := range v.Weaknesses {
		weaknesses = append(weaknesses, map[string]interface{}{
			"weakness_id":       w.WeaknessID,
			"weakness_name":     w.WeaknessName,
			"owasp_top_10_id":   w.OWASPTop10ID,
			"owasp_top_10_name": w.OWASPTop10Name,
		})
	}

	return map[string]interface{}{
		"vulnerability_id": v.ID,
		"description":      v.Description,
		"affected":         affected,
		"severity":         severity,
		"weaknesses":       weaknesses,
		"conflict_flag":    string(v.Conflict.Flag),
		"epss": map[string]interface{}{
			"score":      v.EPSS.Score,
			"percentile": v.EPSS.Percentile,
		},
		"is_blacklisted":          v.IsBlacklisted,
		"blacklisted_by_policies": v.BlacklistedByPolicies,
	}
}

func distributionToList(dist model.Distribution) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(dist))
	for label, count := range dist {
		out = append(out, map[string]interface{}{
			"label": label,
			"count": count,
		})
	}
	return out
}

// mergedForWorkspace loads the latest analysis of a workspace and merges its
// findings.
func mergedForWorkspace(ctx context.Context, workspace string) ([]model.MergedVulnerability, error) {
	analysis, err := database.LatestAnalysis(ctx, db.Database, workspace)
	if err != nil {
		return nil, err
	}
	return merger.MergeFindings(ctx, merge.Input{
		Findings:  analysis.Findings,
		PolicyIDs: analysis.PolicyIDs,
	}), nil
}

func stringArg(p graphql.ResolveParams, name string) string {
	if value, ok := p.Args[name].(string); ok {
		return value
	}
	return ""
}

func stringListArg(p graphql.ResolveParams, name string) []string {
	raw, ok := p.Args[name].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// CreateSchema generates and returns the configured GraphQL schema for the API.
func CreateSchema() (graphql.Schema, error) {
	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"vulnerabilities": &graphql.Field{
				Type: graphql.NewList(MergedVulnerabilityType),
				Args: graphql.FieldConfigArgument{
					"workspace": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"search":    &graphql.ArgumentConfig{Type: graphql.String},
					"filters":   &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
					"sort_key":  &graphql.ArgumentConfig{Type: graphql.String},
					"direction": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ctx := context.Background()
					merged, err := mergedForWorkspace(ctx, p.Args["workspace"].(string))
					if err != nil {
						return nil, err
					}

					filtered, _ := query.FilterVulnerabilities(merged, stringArg(p, "search"), stringListArg(p, "filters"))
					sorted := query.SortVulnerabilities(filtered, stringArg(p, "sort_key"), stringArg(p, "direction"))

					out := make([]map[string]interface{}, 0, len(sorted))
					for _, v := range sorted {
						out = append(out, mergedToMap(v))
					}
					return out, nil
				},
			},
			"vulnerability_count": &graphql.Field{
				Type: graphql.NewObject(graphql.ObjectConfig{
					Name: "VulnerabilityCount",
					Fields: graphql.Fields{
						"critical": &graphql.Field{Type: graphql.Int},
						"high":     &graphql.Field{Type: graphql.Int},
						"medium":   &graphql.Field{Type: graphql.Int},
						"low":      &graphql.Field{Type: graphql.Int},
						"none":     &graphql.Field{Type: graphql.Int},
					},
				}),
				Args: graphql.FieldConfigArgument{
					"workspace": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ctx := context.Background()
					merged, err := mergedForWorkspace(ctx, p.Args["workspace"].(string))
					if err != nil {
						return nil, err
					}

					counts := map[string]interface{}{"critical": 0, "high": 0, "medium": 0, "low": 0, "none": 0}
					for _, v := range merged {
						switch model.ClassifySeverity(v.Severity.Value()) {
						case model.SeverityClassCritical:
							counts["critical"] = counts["critical"].(int) + 1
						case model.SeverityClassHigh:
							counts["high"] = counts["high"].(int) + 1
						case model.SeverityClassMedium:
							counts["medium"] = counts["medium"].(int) + 1
						case model.SeverityClassLow:
							counts["low"] = counts["low"].(int) + 1
						default:
							counts["none"] = counts["none"].(int) + 1
						}
					}
					return counts, nil
				},
			},
			"weekly_severity_trend": &graphql.Field{
				Type: graphql.NewList(WeeklySeverityBucketType),
				Args: graphql.FieldConfigArgument{
					"workspace": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ctx := context.Background()
					analyses, err := database.AnalysesByWorkspace(ctx, db.Database, p.Args["workspace"].(string))
					if err != nil {
						return nil, err
					}
					return stats.WeeklySeverityTrend(analyses, time.Time{}, time.Time{}), nil
				},
			},
			"quick_stats": &graphql.Field{
				Type: QuickStatsType,
				Args: graphql.FieldConfigArgument{
					"workspace": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ctx := context.Background()
					analysis, err := database.LatestAnalysis(ctx, db.Database, p.Args["workspace"].(string))
					if err != nil {
						return nil, err
					}
					return stats.ComputeQuickStats(analysis.Findings), nil
				},
			},
			"attack_vector_distribution": &graphql.Field{
				Type: graphql.NewList(DistributionEntryType),
				Args: graphql.FieldConfigArgument{
					"workspace": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ctx := context.Background()
					analyses, err := database.AnalysesByWorkspace(ctx, db.Database, p.Args["workspace"].(string))
					if err != nil {
						return nil, err
					}
					return distributionToList(stats.AttackVectorDistribution(analyses, time.Time{}, time.Time{})), nil
				},
			},
			"license_distribution": &graphql.Field{
				Type: graphql.NewList(DistributionEntryType),
				Args: graphql.FieldConfigArgument{
					"workspace": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ctx := context.Background()
					analyses, err := database.AnalysesByWorkspace(ctx, db.Database, p.Args["workspace"].(string))
					if err != nil {
						return nil, err
					}
					return distributionToList(stats.LicenseDistribution(analyses, time.Time{}, time.Time{})), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: rootQuery,
	})
}
