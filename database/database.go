// Package database - Handles all interaction with ArangoDB
package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff"
	"github.com/google/osv-scanner/pkg/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/CodeClarityCE/vulnerabilities/model"
	"github.com/CodeClarityCE/vulnerabilities/util"
)

var logger = InitLogger() // setup the logger

// DBConnection is the structure that defined the database engine and collections
type DBConnection struct {
	Collections map[string]arangodb.Collection
	Database    arangodb.Database
}

// Define a struct to hold the index definition
type indexConfig struct {
	Collection string
	IdxName    string
	IdxField   string
}

var initDone = false          // has the data been initialized
var dbConnection DBConnection // database connection definition

// UnknownWorkspaceError is returned when a requested workspace has no stored
// analysis results. Surfaced to API callers as a not-found condition.
type UnknownWorkspaceError struct {
	Workspace string
}

func (e *UnknownWorkspaceError) Error() string {
	return fmt.Sprintf("unknown workspace %q", e.Workspace)
}

// InitLogger sets up the Zap Logger to log to the console in a human readable format
func InitLogger() *zap.Logger {
	prodConfig := zap.NewProductionConfig()
	prodConfig.Encoding = "console"
	prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	prodConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	logger, _ := prodConfig.Build()
	return logger
}

func dbConnectionConfig(endpoint connection.Endpoint, dbuser string, dbpass string) connection.HttpConfiguration {
	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(dbuser, dbpass),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 90 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// InitializeDatabase is the function for connecting to the db engine, creating the database and collections
func InitializeDatabase() DBConnection {
	const initialInterval = 10 * time.Second
	const maxInterval = 2 * time.Minute

	var db arangodb.Database
	var collections map[string]arangodb.Collection
	const databaseName = "vulnfindings"

	ctx := context.Background()

	if initDone {
		return dbConnection
	}

	False := false
	dbhost := util.GetEnvDefault("ARANGO_HOST", "localhost")
	dbport := util.GetEnvDefault("ARANGO_PORT", "8529")
	dbuser := util.GetEnvDefault("ARANGO_USER", "root")
	dbpass := util.GetEnvDefault("ARANGO_PASS", "")
	dburl := util.GetEnvDefault("ARANGO_URL", "http://"+dbhost+":"+dbport)

	var client arangodb.Client

	//
	// Database connection with backoff retry
	//

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = 0 // Set to 0 for indefinite retries

	err := backoff.RetryNotify(func() error {
		fmt.Println("Attempting to connect to ArangoDB")
		endpoint := connection.NewRoundRobinEndpoints([]string{dburl})
		conn := connection.NewHttpConnection(dbConnectionConfig(endpoint, dbuser, dbpass))

		client = arangodb.NewClient(conn)

		versionInfo, err := client.Version(context.Background())
		if err != nil {
			return err
		}

		logger.Sugar().Infof("Database has version '%s' and license '%s'\n", versionInfo.Version, versionInfo.License)
		return nil

	}, bo, func(err error, _ time.Duration) {
		fmt.Printf("Retrying connection to ArangoDB: %v\n", err)
	})

	if err != nil {
		logger.Sugar().Fatalf("Backoff Error %v\n", err)
	}

	//
	// Database creation
	//

	exists := false
	dblist, _ := client.Databases(ctx)

	for _, dbinfo := range dblist {
		if dbinfo.Name() == databaseName {
			exists = true
			break
		}
	}

	if exists {
		var options arangodb.GetDatabaseOptions
		if db, err = client.GetDatabase(ctx, databaseName, &options); err != nil {
			logger.Sugar().Fatalf("Failed to get Database: %v", err)
		}
	} else {
		if db, err = client.CreateDatabase(ctx, databaseName, nil); err != nil {
			logger.Sugar().Fatalf("Failed to create Database: %v", err)
		}
	}

	//
	// Collection creation for document storage
	//

	collections = make(map[string]arangodb.Collection)
	collectionNames := []string{"analysis", "osv", "nvd"}

	for _, collectionName := range collectionNames {
		var col arangodb.Collection

		exists, _ = db.CollectionExists(ctx, collectionName)
		if exists {
			var options arangodb.GetCollectionOptions
			if col, err = db.GetCollection(ctx, collectionName, &options); err != nil {
				logger.Sugar().Fatalf("Failed to use collection: %v", err)
			}
		} else {
			if col, err = db.CreateCollection(ctx, collectionName, nil); err != nil {
				logger.Sugar().Fatalf("Failed to create collection: %v", err)
			}
		}

		collections[collectionName] = col
	}

	//
	// Index creation for document collections
	//

	idxList := []indexConfig{
		{Collection: "analysis", IdxName: "analysis_workspace", IdxField: "workspace"},
		{Collection: "analysis", IdxName: "analysis_project", IdxField: "project_id"},
		{Collection: "analysis", IdxName: "analysis_created_on", IdxField: "created_on"},
		{Collection: "analysis", IdxName: "analysis_vuln_id", IdxField: "findings[*].vulnerability_id"},
		{Collection: "osv", IdxName: "osv_id", IdxField: "id"},
		{Collection: "osv", IdxName: "osv_aliases", IdxField: "aliases[*]"},
		{Collection: "nvd", IdxName: "nvd_id", IdxField: "id"},
	}

	for _, idx := range idxList {
		found := false

		if indexes, err := collections[idx.Collection].Indexes(ctx); err == nil {
			for _, index := range indexes {
				if idx.IdxName == index.Name {
					found = true
					break
				}
			}
		}

		if !found {
			indexOptions := arangodb.CreatePersistentIndexOptions{
				Unique: &False,
				Sparse: &False,
				Name:   idx.IdxName,
			}

			_, _, err = collections[idx.Collection].EnsurePersistentIndex(ctx, []string{idx.IdxField}, &indexOptions)
			if err != nil {
				logger.Sugar().Fatalln("Error creating index:", err)
			}
		}
	}

	initDone = true

	dbConnection = DBConnection{
		Database:    db,
		Collections: collections,
	}

	return dbConnection
}

// AnalysesByWorkspace returns every stored analysis result of a workspace,
// oldest first. An unknown workspace is an UnknownWorkspaceError, not an
// empty list.
func AnalysesByWorkspace(ctx context.Context, db arangodb.Database, workspace string) ([]model.AnalysisResult, error) {
	query := `
		FOR a IN analysis
			FILTER a.workspace == @workspace
			SORT a.created_on ASC
			RETURN a
	`
	bindVars := map[string]interface{}{
		"workspace": workspace,
	}

	cursor, err := db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: bindVars,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var analyses []model.AnalysisResult
	for cursor.HasMore() {
		var analysis model.AnalysisResult
		if _, err := cursor.ReadDocument(ctx, &analysis); err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}

	if len(analyses) == 0 {
		return nil, &UnknownWorkspaceError{Workspace: workspace}
	}
	return analyses, nil
}

// LatestAnalysis returns the most recent analysis result of a workspace.
func LatestAnalysis(ctx context.Context, db arangodb.Database, workspace string) (*model.AnalysisResult, error) {
	query := `
		FOR a IN analysis
			FILTER a.workspace == @workspace
			SORT a.created_on DESC
			LIMIT 1
			RETURN a
	`
	bindVars := map[string]interface{}{
		"workspace": workspace,
	}

	cursor, err := db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: bindVars,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var analysis model.AnalysisResult
		if _, err := cursor.ReadDocument(ctx, &analysis); err != nil {
			return nil, err
		}
		return &analysis, nil
	}

	return nil, &UnknownWorkspaceError{Workspace: workspace}
}

// StoreAnalysis persists one analysis result document.
func StoreAnalysis(ctx context.Context, col arangodb.Collection, analysis *model.AnalysisResult) (string, error) {
	meta, err := col.CreateDocument(ctx, analysis)
	if err != nil {
		return "", err
	}
	return meta.Key, nil
}

// FindOSVItem looks up a stored OSV advisory by its id or one of its aliases.
// Returns nil when no record exists.
func FindOSVItem(ctx context.Context, db arangodb.Database, advisoryID string) (*models.Vulnerability, error) {
	query := `
		FOR o IN osv
			FILTER o.id == @id OR @id IN o.aliases
			LIMIT 1
			RETURN o
	`
	var item models.Vulnerability
	found, err := findAdvisory(ctx, db, query, advisoryID, &item)
	if err != nil || !found {
		return nil, err
	}
	return &item, nil
}

// FindNVDItem looks up a stored NVD advisory by CVE id. Returns nil when no
// record exists.
func FindNVDItem(ctx context.Context, db arangodb.Database, advisoryID string) (*model.NVDItem, error) {
	query := `
		FOR n IN nvd
			FILTER n.id == @id
			LIMIT 1
			RETURN n
	`
	var item model.NVDItem
	found, err := findAdvisory(ctx, db, query, advisoryID, &item)
	if err != nil || !found {
		return nil, err
	}
	return &item, nil
}

func findAdvisory(ctx context.Context, db arangodb.Database, query string, advisoryID string, out interface{}) (bool, error) {
	bindVars := map[string]interface{}{
		"id": advisoryID,
	}

	cursor, err := db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: bindVars,
	})
	if err != nil {
		return false, err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, out); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}
