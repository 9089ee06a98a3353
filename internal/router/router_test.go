package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/deppfellow/demo-backend/internal/config"
	"github.com/deppfellow/demo-backend/internal/database"
	"github.com/deppfellow/demo-backend/internal/errs"
	"github.com/deppfellow/demo-backend/internal/handler"
	"github.com/deppfellow/demo-backend/internal/model"
	"github.com/deppfellow/demo-backend/internal/repository"
	"github.com/deppfellow/demo-backend/internal/server"
	"github.com/deppfellow/demo-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	router   *echo.Echo
	server   *server.Server
	services *service.Services
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "items.db"))
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	logger := zerolog.Nop()
	require.NoError(t, database.Migrate(context.Background(), &logger, cfg))

	db, err := database.New(cfg, &logger, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srv := server.NewWithDatabase(cfg, &logger, db)

	repos, err := repository.NewRepositories(srv)
	require.NoError(t, err)

	services, err := service.NewService(srv, repos)
	require.NoError(t, err)

	return &testApp{
		router:   NewRouter(srv, handler.NewHandlers(srv, services)),
		server:   srv,
		services: services,
	}
}

func (a *testApp) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRoot(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{
		"message": "Backend API is running",
		"status":  "healthy",
	}, decode[map[string]string](t, rec))
}

func TestHealthReportsConnectedThenDisconnected(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{
		"status":   "healthy",
		"database": "connected",
	}, decode[map[string]string](t, rec))

	// Simulated outage: the handle is gone but the process keeps serving.
	require.NoError(t, app.server.DB.Close())

	rec = app.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "disconnected", body["database"])
	assert.NotEmpty(t, body["error"])
}

func TestStatusFailsWithServiceUnavailableOnOutage(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body["checks"], "database")
	assert.NotContains(t, body["checks"], "redis")

	require.NoError(t, app.server.DB.Close())

	rec = app.do(t, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decode[map[string]any](t, rec)["status"])
}

func TestCreateThenGet(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/data", `{"name":"Widget","description":"A small widget"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Item](t, rec)
	assert.Positive(t, created.ID)
	assert.Equal(t, "Widget", created.Name)
	assert.Equal(t, "A small widget", created.Description)
	assert.False(t, created.CreatedAt.IsZero())

	rec = app.do(t, http.MethodGet, fmt.Sprintf("/api/data/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Item](t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Description, got.Description)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreateResponseHasExactlyRecordFields(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/data", `{"name":"n","description":"d"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Len(t, body, 4)
	for _, key := range []string{"id", "name", "description", "created_at"} {
		assert.Contains(t, body, key)
	}
}

func TestCreateRejectsMalformedBodies(t *testing.T) {
	app := newTestApp(t)

	bodies := map[string]string{
		"missing description": `{"name":"n"}`,
		"missing name":        `{"description":"d"}`,
		"null name":           `{"name":null,"description":"d"}`,
		"number name":         `{"name":5,"description":"d"}`,
		"broken json":         `{"name":`,
		"empty object":        `{}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/api/data", body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Equal(t, "UNPROCESSABLE_ENTITY", decode[errs.HTTPError](t, rec).Code)
		})
	}

	rec := app.do(t, http.MethodGet, "/api/data", "")
	assert.Empty(t, decode[[]model.Item](t, rec))
}

func TestGetMissingIsNotFound(t *testing.T) {
	app := newTestApp(t)

	for range 2 {
		rec := app.do(t, http.MethodGet, "/api/data/999999", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decode[errs.HTTPError](t, rec)
		assert.Equal(t, "NOT_FOUND", body.Code)
		assert.Equal(t, "Item not found", body.Message)
	}
}

func TestGetRejectsBadIDs(t *testing.T) {
	app := newTestApp(t)

	for _, id := range []string{"abc", "0", "-1", "1.5"} {
		rec := app.do(t, http.MethodGet, "/api/data/"+id, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, id)
	}
}

func TestListAfterSeed(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	_, err := app.services.Items.Seed(ctx)
	require.NoError(t, err)
	_, err = app.services.Items.Seed(ctx)
	require.NoError(t, err)

	rec := app.do(t, http.MethodGet, "/api/data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]model.Item](t, rec)

	require.Len(t, items, len(model.SeedItems))
	for i, seed := range model.SeedItems {
		assert.Equal(t, seed.Name, items[i].Name)
		assert.Equal(t, seed.Description, items[i].Description)
	}

	rec = app.do(t, http.MethodGet, "/api/data/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Item](t, rec), len(model.SeedItems))
}

func TestListStorageErrorIsServerError(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.server.DB.Close())

	rec := app.do(t, http.MethodGet, "/api/data", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[errs.HTTPError](t, rec)
	assert.Equal(t, errs.DatabaseErrorCode, body.Code)
	assert.True(t, strings.HasPrefix(body.Message, "Database error: "))
}

func TestConcurrentCreatesGetUniqueIDs(t *testing.T) {
	app := newTestApp(t)

	const workers = 16
	ids := make([]int64, workers)
	codes := make([]int, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/data",
				strings.NewReader(fmt.Sprintf(`{"name":"item-%d","description":"concurrent"}`, i)))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			app.router.ServeHTTP(rec, req)

			codes[i] = rec.Code
			var item model.Item
			if json.Unmarshal(rec.Body.Bytes(), &item) == nil {
				ids[i] = item.ID
			}
		}()
	}
	wg.Wait()

	seen := map[int64]bool{}
	for i := range workers {
		require.Equal(t, http.StatusCreated, codes[i])
		assert.False(t, seen[ids[i]], "duplicate id %d", ids[i])
		seen[ids[i]] = true
	}
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestDocsAndSpec(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swagger-ui")
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	rec = app.do(t, http.MethodGet, "/static/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[map[string]any](t, rec)
	assert.Contains(t, doc["paths"], "/api/data/{id}")
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/nothing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode[errs.HTTPError](t, rec).Message)
}
