package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gqlschema "github.com/CodeClarityCE/vulnerabilities/graphql"
)

func TestAnalysisIngestRoute(t *testing.T) {
	schema, err := gqlschema.CreateSchema()
	require.NoError(t, err)
	app := newApp(schema)

	// Ingest lives under the workspace, a malformed body is rejected
	// before anything is stored.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workspaces/team-a/analyses", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// There is no workspace-less ingest path.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/analyses", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
