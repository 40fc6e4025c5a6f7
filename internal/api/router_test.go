package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/database"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/middleware"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/repository"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/service"
)

const layerBody = `{"type":"FeatureCollection","features":[]}`

func setup(t *testing.T, secret string) (*gin.Engine, *sql.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, database.NewMigrationManager(conn).RunMigrations())

	store := service.NewFileStore(t.TempDir())
	require.NoError(t, store.Put(context.Background(), "states/states.geojson", strings.NewReader(layerBody), int64(len(layerBody))))

	layers := service.NewLayerService([]models.LayerEntry{
		{Name: "States", Path: "states/states.geojson"},
		{Name: "Missing", Path: "missing/missing.geojson"},
	}, store)
	runs := service.NewStageRunService(repository.NewStageRunRepository(conn))
	return SetupRouter(&config.Config{JWTSecret: secret}, layers, runs), conn
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := setup(t, "")
	w := get(r, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestLayers(t *testing.T) {
	r, _ := setup(t, "")

	w := get(r, "/api/v1/layers", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data models.LayerIndex `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Layers, 2)
	assert.Equal(t, "States", resp.Data.Layers[0].Name)

	w = get(r, "/api/v1/layers/States", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, layerBody, w.Body.String())
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	w = get(r, "/api/v1/layers/states/states.geojson", "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/layers/Missing", "").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/layers/Nope", "").Code)
}

func TestRuns(t *testing.T) {
	r, conn := setup(t, "")
	repo := repository.NewStageRunRepository(conn)
	require.NoError(t, repo.Create(&models.StageRun{ID: "run-1", Stage: "corridor"}))

	w := get(r, "/api/v1/runs/run-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"corridor"`)

	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/runs/none", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/runs?limit=5", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/stages", "").Code)
}

func TestAuth(t *testing.T) {
	r, _ := setup(t, "secret")

	assert.Equal(t, http.StatusOK, get(r, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/layers", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/layers", "garbage").Code)

	bad, err := middleware.IssueToken("other", "alice", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/layers", bad).Code)

	expired, err := middleware.IssueToken("secret", "alice", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/layers", expired).Code)

	good, err := middleware.IssueToken("secret", "alice", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/layers", good).Code)
}
