// package main provides the entry point and API handlers for the
// vulnerability aggregation microservice: finding ingest, the merged
// vulnerability list with filtering/sorting/pagination, per-advisory detail
// reports, the dashboard aggregations, and the GraphQL API.
package main

import (
	"context"
	"errors"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/CodeClarityCE/vulnerabilities/database"
	gqlschema "github.com/CodeClarityCE/vulnerabilities/graphql"
	"github.com/CodeClarityCE/vulnerabilities/lookup"
	"github.com/CodeClarityCE/vulnerabilities/merge"
	"github.com/CodeClarityCE/vulnerabilities/model"
	"github.com/CodeClarityCE/vulnerabilities/query"
	"github.com/CodeClarityCE/vulnerabilities/report"
	"github.com/CodeClarityCE/vulnerabilities/stats"
	"github.com/CodeClarityCE/vulnerabilities/util"
)

var db database.DBConnection
var appLogger *zap.Logger
var providers lookup.Providers
var merger *merge.Merger
var reporter *report.Generator

// IngestResponse returns the result of POST operations
type IngestResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AnalysisKey string `json:"analysis_key,omitempty"`
}

// PaginatedVulnerabilities is the envelope of the merged list endpoint
type PaginatedVulnerabilities struct {
	Success        bool                        `json:"success"`
	Data           []model.MergedVulnerability `json:"data"`
	Page           int                         `json:"page"`
	EntriesPerPage int                         `json:"entries_per_page"`
	TotalEntries   int                         `json:"total_entries"`
	TotalPages     int                         `json:"total_pages"`
	FilterCount    map[string]int              `json:"filter_count"`
}

// DashboardResponse is the combined distribution payload
type DashboardResponse struct {
	Success       bool                         `json:"success"`
	Distributions model.DashboardDistributions `json:"distributions"`
	WeeklyTrend   []model.WeeklySeverityBucket `json:"weekly_trend"`
	QuickStats    model.QuickStats             `json:"quick_stats"`
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func internalError(c *fiber.Ctx, err error) error {
	appLogger.Sugar().Errorf("request failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "internal error",
	})
}

// PostAnalysis ingests one analyzer run for a workspace
func PostAnalysis(c *fiber.Ctx) error {
	analysis := model.NewAnalysisResult()
	if err := c.BodyParser(analysis); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(IngestResponse{
			Success: false,
			Message: "Invalid request body",
		})
	}
	// The path parameter owns the workspace, whatever the payload says.
	analysis.Workspace = c.Params("workspace")
	if analysis.CreatedOn.IsZero() {
		analysis.CreatedOn = time.Now()
	}

	key, err := database.StoreAnalysis(c.Context(), db.Collections["analysis"], analysis)
	if err != nil {
		return internalError(c, err)
	}

	// warm the EPSS cache for the advisory ids this analysis carries
	if epss, ok := providers.EPSS.(*lookup.EPSSClient); ok {
		ids := make([]string, 0, len(analysis.Findings))
		for _, finding := range analysis.Findings {
			if util.IsCVEID(finding.VulnerabilityID) {
				ids = util.AppendUnique(ids, finding.VulnerabilityID)
			}
		}
		go epss.Prefetch(context.Background(), ids)
	}

	return c.Status(fiber.StatusCreated).JSON(IngestResponse{
		Success:     true,
		Message:     "analysis stored",
		AnalysisKey: key,
	})
}

// GetVulnerabilities serves the merged, filtered, sorted and paginated list
// view of a workspace
func GetVulnerabilities(c *fiber.Ctx) error {
	workspace := c.Params("workspace")

	analysis, err := database.LatestAnalysis(c.Context(), db.Database, workspace)
	if err != nil {
		var unknown *database.UnknownWorkspaceError
		if errors.As(err, &unknown) {
			return notFound(c, err.Error())
		}
		return internalError(c, err)
	}

	merged := merger.MergeFindings(c.Context(), merge.Input{
		Findings:  analysis.Findings,
		OrgID:     c.Query("org_id"),
		PolicyIDs: analysis.PolicyIDs,
	})

	var activeFilters []string
	if raw := c.Query("filters"); raw != "" {
		activeFilters = strings.Split(raw, ",")
	}

	filtered, facets := query.FilterVulnerabilities(merged, c.Query("search"), activeFilters)
	sorted := query.SortVulnerabilities(filtered, c.Query("sort_key"), c.Query("direction"))

	page, _ := strconv.Atoi(c.Query("page", "0"))
	entriesPerPage, _ := strconv.Atoi(c.Query("entries_per_page", "20"))
	if page < 0 {
		page = 0
	}
	if entriesPerPage < 1 {
		entriesPerPage = 20
	}

	totalPages := int(math.Ceil(float64(len(sorted)) / float64(entriesPerPage)))
	start := page * entriesPerPage
	if start > len(sorted) {
		start = len(sorted)
	}
	end := start + entriesPerPage
	if end > len(sorted) {
		end = len(sorted)
	}

	return c.JSON(PaginatedVulnerabilities{
		Success:        true,
		Data:           sorted[start:end],
		Page:           page,
		EntriesPerPage: entriesPerPage,
		TotalEntries:   len(sorted),
		TotalPages:     totalPages,
		FilterCount:    facets,
	})
}

// GetVulnerabilityReport serves the detail report for one advisory on one
// dependency, anchored on whichever advisory feed has a record
func GetVulnerabilityReport(c *fiber.Ctx) error {
	workspace := c.Params("workspace")
	advisoryID := c.Params("id")

	analysis, err := database.LatestAnalysis(c.Context(), db.Database, workspace)
	if err != nil {
		var unknown *database.UnknownWorkspaceError
		if errors.As(err, &unknown) {
			return notFound(c, err.Error())
		}
		return internalError(c, err)
	}

	dependency := c.Query("dependency")
	var finding *model.Finding
	for i := range analysis.Findings {
		f := &analysis.Findings[i]
		if f.VulnerabilityID != advisoryID {
			continue
		}
		if dependency != "" && f.AffectedDependency != dependency {
			continue
		}
		finding = f
		break
	}
	if finding == nil {
		return notFound(c, "no finding for advisory "+advisoryID)
	}

	osvItem, err := database.FindOSVItem(c.Context(), db.Database, advisoryID)
	if err != nil {
		return internalError(c, err)
	}
	nvdItem, err := database.FindNVDItem(c.Context(), db.Database, advisoryID)
	if err != nil {
		return internalError(c, err)
	}

	input := report.Input{
		Finding:        *finding,
		PackageManager: analysis.PackageManager,
		OSVItem:        osvItem,
		NVDItem:        nvdItem,
	}

	var details *model.VulnerabilityDetailsReport
	if osvItem != nil {
		details, err = reporter.GenerateOSVReport(c.Context(), input)
	} else {
		details, err = reporter.GenerateNVDReport(c.Context(), input)
	}
	if err != nil {
		var missing *report.MissingAnchorItem
		if errors.As(err, &missing) {
			return notFound(c, "no advisory record for "+advisoryID)
		}
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    details,
	})
}

// GetDashboard serves the combined dashboard aggregates of a workspace
func GetDashboard(c *fiber.Ctx) error {
	workspace := c.Params("workspace")

	analyses, err := database.AnalysesByWorkspace(c.Context(), db.Database, workspace)
	if err != nil {
		var unknown *database.UnknownWorkspaceError
		if errors.As(err, &unknown) {
			return notFound(c, err.Error())
		}
		return internalError(c, err)
	}

	from, to := parseRange(c)

	confidentiality, integrity, availability := stats.CIAImpactDistributions(analyses, from, to)
	latest := analyses[len(analyses)-1]

	return c.JSON(DashboardResponse{
		Success: true,
		Distributions: model.DashboardDistributions{
			AttackVector:    stats.AttackVectorDistribution(analyses, from, to),
			Confidentiality: confidentiality,
			Integrity:       integrity,
			Availability:    availability,
			License:         stats.LicenseDistribution(analyses, from, to),
		},
		WeeklyTrend: stats.WeeklySeverityTrend(analyses, from, to),
		QuickStats:  stats.ComputeQuickStats(latest.Findings),
	})
}

func parseRange(c *fiber.Ctx) (time.Time, time.Time) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			from = parsed
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			to = parsed
		}
	}
	return from, to
}

// ============================================================================
// GraphQL Handler
// ============================================================================

// GraphQLHandler handles GraphQL requests
func GraphQLHandler(schema graphql.Schema) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params struct {
			Query         string                 `json:"query"`
			OperationName string                 `json:"operationName"`
			Variables     map[string]interface{} `json:"variables"`
		}

		if err := c.BodyParser(&params); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"errors": []map[string]interface{}{
					{
						"message": "Invalid request body",
					},
				},
			})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  params.Query,
			VariableValues: params.Variables,
			OperationName:  params.OperationName,
		})

		if len(result.Errors) > 0 {
			log.Printf("GraphQL errors: %v", result.Errors)
		}

		return c.JSON(result)
	}
}

// buildProviders wires the external lookups from the environment
func buildProviders(logger *zap.Logger) lookup.Providers {
	epssTTL := 6 * time.Hour
	if raw := util.GetEnvDefault("EPSS_CACHE_TTL", ""); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			epssTTL = parsed
		}
	}

	return lookup.Providers{
		CWE:     &lookup.StaticCWETable{},
		Owasp:   lookup.NewOwaspTop10Table(),
		EPSS:    lookup.NewEPSSClient(util.GetEnvDefault("EPSS_URL", lookup.DefaultEPSSURL), 4096, epssTTL, logger),
		Policy:  &lookup.PolicyFileProvider{Dir: util.GetEnvDefault("POLICY_DIR", "/etc/vulnerabilities/policies")},
		Package: &lookup.StaticPackageTable{},
	}
}

// newApp builds the Fiber application with middleware and all API routes.
func newApp(schema graphql.Schema) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:     "vulnerabilities API v1.0",
		BodyLimit:   50 * 1024 * 1024, // findings payloads for big dependency trees
		ReadTimeout: time.Second * 60,
	})

	// Middleware
	app.Use(fiberrecover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
		})
	})

	// API routes
	api := app.Group("/api/v1")

	api.Post("/workspaces/:workspace/analyses", PostAnalysis)
	api.Get("/workspaces/:workspace/vulnerabilities", GetVulnerabilities)
	api.Get("/workspaces/:workspace/vulnerabilities/:id/report", GetVulnerabilityReport)
	api.Get("/workspaces/:workspace/dashboard", GetDashboard)

	// GraphQL endpoint
	api.Post("/graphql", GraphQLHandler(schema))

	return app
}

// Main
// ============================================================================

func main() {
	// Initialize database connection
	db = database.InitializeDatabase()
	appLogger = database.InitLogger()

	providers = buildProviders(appLogger)
	merger = merge.NewMerger(providers, appLogger)
	reporter = report.NewGenerator(providers, appLogger)

	// Initialize GraphQL schema
	gqlschema.Init(db, providers, appLogger)
	schema, err := gqlschema.CreateSchema()
	if err != nil {
		log.Fatalf("Failed to create GraphQL schema: %v", err)
	}

	// Create Fiber app
	app := newApp(schema)

	// Get port from environment or default to 3000
	port := os.Getenv("MS_PORT")
	if port == "" {
		port = "3000"
	}

	// Start server
	log.Printf("Starting server on port %s", port)
	log.Printf("GraphQL endpoint available at /api/v1/graphql")
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
