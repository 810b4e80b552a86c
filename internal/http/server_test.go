package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/learnhooks/internal/hooks"
	"github.com/fyrsmithlabs/learnhooks/internal/logging"
	"github.com/fyrsmithlabs/learnhooks/internal/plugin"
	"github.com/fyrsmithlabs/learnhooks/internal/progress"
)

func newTestTracker(t *testing.T) *progress.Tracker {
	t.Helper()
	ctx := context.Background()

	store, err := progress.Open(ctx, filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	catalog, err := plugin.NewCatalog(t.TempDir(), &plugin.Manifest{
		Name: "developer-learning",
		Skills: []plugin.SkillRef{
			{ID: "go-testing", Agent: "backend"},
			{ID: "go-benchmarks", Agent: "backend"},
			{ID: "react-hooks", Agent: "frontend"},
		},
	})
	require.NoError(t, err)

	tracker, err := progress.NewTracker(ctx, store, catalog, progress.Options{})
	require.NoError(t, err)
	return tracker
}

func setupTestServer(t *testing.T, cfg *Config) *Server {
	t.Helper()
	server, err := NewServer(hooks.NewManager(nil, logging.NewNop()), newTestTracker(t), logging.NewNop(), cfg)
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	manager := hooks.NewManager(nil, logging.NewNop())

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(manager, newTestTracker(t), logging.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 9191, server.config.Port)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(manager, newTestTracker(t), nil, nil)
		assert.ErrorContains(t, err, "logger is required")
	})

	t.Run("returns error when manager is nil", func(t *testing.T) {
		_, err := NewServer(nil, newTestTracker(t), logging.NewNop(), nil)
		assert.ErrorContains(t, err, "hook manager cannot be nil")
	})

	t.Run("returns error when tracker is nil", func(t *testing.T) {
		_, err := NewServer(manager, nil, logging.NewNop(), nil)
		assert.ErrorContains(t, err, "tracker cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Skills)
}

func TestHandleMetrics(t *testing.T) {
	server := setupTestServer(t, nil)

	// Run one hook so the hook counters have a sample.
	doJSON(t, server, http.MethodPost, "/api/v1/hooks/on-load", HookRequest{UserID: "metrics-user"})

	rec := doJSON(t, server, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "learnhooks_hook_runs_total")
}

func TestHandleListHooks(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/hooks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HooksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []hooks.HookType{hooks.HookOnLoad, hooks.HookOnSkillInvoke}, resp.Hooks)
}

func TestHandleRunHook_OnLoad(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/hooks/on-load",
		HookRequest{UserID: "u1", UserName: "Ada"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, hooks.HookOnLoad, resp.Hook)
	assert.True(t, resp.Result.Success, resp.Result.Error)
	assert.Equal(t, hooks.LoadedMessage, resp.Result.Message)
	require.Len(t, resp.Notices, 1)
	assert.Equal(t, progress.NoticeWelcome, resp.Notices[0].Kind)
	assert.Equal(t, "Welcome, Ada! 3 skills are waiting for you.", resp.Notices[0].Message)

	// Second load is a returning learner.
	rec = doJSON(t, server, http.MethodPost, "/api/v1/hooks/on-load",
		HookRequest{UserID: "u1", UserName: "Ada"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Notices)
	assert.Equal(t, progress.NoticeResume, resp.Notices[0].Kind)
}

func TestHandleRunHook_OnSkillInvoke(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/hooks/on-skill-invoke",
		HookRequest{UserID: "u2", SkillID: "go-testing"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Result.Success, resp.Result.Error)
	require.NotNil(t, resp.Result.Skill)
	assert.Equal(t, "go-testing", resp.Result.Skill.ID)
	require.Len(t, resp.Notices, 1)
	assert.Equal(t, progress.NoticeRelated, resp.Notices[0].Kind)
	assert.NotEmpty(t, resp.Notices[0].Skills)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/users/u2/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary progress.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.Total)
	require.Len(t, summary.Skills, 1)
	assert.Equal(t, "go-testing", summary.Skills[0].SkillID)
	assert.Equal(t, hooks.StatusInProgress, summary.Skills[0].Status)
}

func TestHandleRunHook_UnknownSkillIsFailedResult(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/hooks/on-skill-invoke",
		HookRequest{UserID: "u3", SkillID: "cobol-basics"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Result.Success)
	assert.Contains(t, resp.Result.Error, "cobol-basics")
}

func TestHandleRunHook_Rejections(t *testing.T) {
	server := setupTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"unknown hook", "/api/v1/hooks/on-install", HookRequest{UserID: "u1"}, http.StatusNotFound},
		{"missing user", "/api/v1/hooks/on-load", HookRequest{}, http.StatusBadRequest},
		{"invalid user id", "/api/v1/hooks/on-load", HookRequest{UserID: "u 1/../x"}, http.StatusBadRequest},
		{"missing skill", "/api/v1/hooks/on-skill-invoke", HookRequest{UserID: "u1"}, http.StatusBadRequest},
		{"malformed body", "/api/v1/hooks/on-load", "not-an-object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, server, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleProgress_Errors(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/users/nobody/progress", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/users/"+strings.Repeat("x", 200)+"/progress", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	server := setupTestServer(t, &Config{Host: "localhost", Port: 9191, RateLimit: 0.001, RateBurst: 2})

	for i := 0; i < 2; i++ {
		rec := doJSON(t, server, http.MethodGet, "/api/v1/hooks", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := doJSON(t, server, http.MethodGet, "/api/v1/hooks", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Probes are exempt.
	rec = doJSON(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_StartShutdown(t *testing.T) {
	server := setupTestServer(t, &Config{Host: "127.0.0.1", Port: 0})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	require.Eventually(t, func() bool { return server.echo.ListenerAddr() != nil }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, server.Shutdown(context.Background()))
	assert.NoError(t, <-errCh)
}
