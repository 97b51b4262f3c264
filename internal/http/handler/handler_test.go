package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"userapi/internal/http/middleware"
	"userapi/internal/model"
	"userapi/internal/repository"
	"userapi/internal/repository/memory"
	"userapi/internal/service"
	serviceMocks "userapi/internal/service/mocks"
)

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})

	t.Run("no database configured", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListUsers(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Get("/users/", ListUsers(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("ListUsers", mock.Anything).
			Return([]model.User{{ID: 1, Name: "Alice"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `[{"id":1,"name":"Alice"}]`, readBody(t, resp))
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		mockSvc.On("ListUsers", mock.Anything).Return([]model.User{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "[]", readBody(t, resp))
	})

	t.Run("storage unavailable", func(t *testing.T) {
		mockSvc.On("ListUsers", mock.Anything).
			Return(nil, fmt.Errorf("%w: dial tcp", repository.ErrStorageUnavailable)).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})

	t.Run("unexpected error", func(t *testing.T) {
		mockSvc.On("ListUsers", mock.Anything).Return(nil, errors.New("boom")).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.NotContains(t, readBody(t, resp), "boom")
	})
}

func TestCreateUser(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Post("/users/", CreateUser(mockSvc))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success returns empty body", func(t *testing.T) {
		mockSvc.On("SaveUser", mock.Anything, &model.User{Name: "Bob"}).
			Return(&model.User{ID: 1, Name: "Bob"}, nil).Once()

		resp := post(`{"name":"Bob"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, readBody(t, resp))
		mockSvc.AssertExpectations(t)
	})

	t.Run("client supplied id is forwarded", func(t *testing.T) {
		mockSvc.On("SaveUser", mock.Anything, &model.User{ID: 9, Name: "Nine"}).
			Return(&model.User{ID: 9, Name: "Nine"}, nil).Once()

		resp := post(`{"id":9,"name":"Nine"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := post(`not-json`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "BAD_REQUEST", res.Error.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		resp := post(``)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("constraint violation", func(t *testing.T) {
		mockSvc.On("SaveUser", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: duplicate key", repository.ErrConstraintViolation)).Once()

		resp := post(`{"name":"Eve","email":"dup@example.com"}`)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "CONFLICT", res.Error.Code)
	})

	t.Run("storage unavailable", func(t *testing.T) {
		mockSvc.On("SaveUser", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: timeout", repository.ErrStorageUnavailable)).Once()

		resp := post(`{"name":"Zed"}`)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestCreateSnapshot(t *testing.T) {
	mockSvc := new(serviceMocks.MockSnapshotService)
	app := fiber.New()
	app.Post("/admin/snapshots", CreateSnapshot(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Export", mock.Anything).Return(&service.SnapshotResult{
			Key:  "snapshots/users.json",
			Size: 42,
			ETag: "etag",
			URL:  "https://minio.local/x",
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/admin/snapshots", nil))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var res service.SnapshotResult
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "snapshots/users.json", res.Key)
		assert.Equal(t, "https://minio.local/x", res.URL)
	})

	t.Run("database down", func(t *testing.T) {
		mockSvc.On("Export", mock.Anything).
			Return(nil, fmt.Errorf("%w: refused", repository.ErrStorageUnavailable)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/admin/snapshots", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("upload failed", func(t *testing.T) {
		mockSvc.On("Export", mock.Anything).Return(nil, errors.New("upload snapshot: denied")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/admin/snapshots", nil))
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "SNAPSHOT_FAILED", res.Error.Code)
	})
}

func newScenarioApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	RegisterRoutes(app, Dependencies{
		Users: service.NewUserService(memory.NewUserMemory()),
	})
	return app
}

func getUsers(t *testing.T, app *fiber.App) []map[string]any {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/users/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var users []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	return users
}

func postUser(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/users/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestScenario_CreateThenList(t *testing.T) {
	app := newScenarioApp()

	resp := postUser(t, app, `{"name":"Bob"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, readBody(t, resp))

	users := getUsers(t, app)
	require.Len(t, users, 1)
	assert.Equal(t, "Bob", users[0]["name"])
	assert.NotZero(t, users[0]["id"])
}

func TestScenario_MalformedBody(t *testing.T) {
	app := newScenarioApp()

	resp := postUser(t, app, `not-json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var res errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "BAD_REQUEST", res.Error.Code)
	assert.NotEmpty(t, res.RequestID)
}

func TestScenario_TwoUsersStableOrder(t *testing.T) {
	app := newScenarioApp()

	require.Equal(t, http.StatusOK, postUser(t, app, `{"name":"A"}`).StatusCode)
	require.Equal(t, http.StatusOK, postUser(t, app, `{"name":"B"}`).StatusCode)

	first := getUsers(t, app)
	second := getUsers(t, app)

	require.Len(t, first, 2)
	assert.NotEqual(t, first[0]["id"], first[1]["id"])
	assert.Equal(t, first, second)
}

func TestScenario_EmptyStore(t *testing.T) {
	app := newScenarioApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/users/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", readBody(t, resp))
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	reg := prometheus.NewRegistry()
	RegisterRoutes(app, Dependencies{
		Users:   new(serviceMocks.MockUserService),
		Metrics: reg,
	})

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/users/", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("snapshots disabled without storage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/snapshots", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
