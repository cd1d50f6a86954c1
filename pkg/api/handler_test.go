package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/composer"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/config"
	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrchestrator struct {
	err   error
	calls []string
}

func (f *fakeOrchestrator) Up(context.Context, string, string) error {
	f.calls = append(f.calls, "up")
	return f.err
}

func (f *fakeOrchestrator) Down(context.Context, string, string) error {
	f.calls = append(f.calls, "down")
	return f.err
}

type fakeLister struct{}

func (fakeLister) ContainerList(context.Context, dockercontainer.ListOptions) ([]dockercontainer.Summary, error) {
	return []dockercontainer.Summary{{ID: "abc", Names: []string{"/microns_api"}, State: "running"}}, nil
}

type fixture struct {
	cfg     *config.Config
	orch    *fakeOrchestrator
	handler http.Handler
}

func newFixture(t *testing.T, origins ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Defaults()
	cfg.ProjectRoot = root
	cfg.RegistryFile = filepath.Join(root, "services.json")
	cfg.ServicesDir = filepath.Join(root, "services")
	cfg.BaseTemplate = filepath.Join(root, "docker", "docker-compose.base.yml")
	cfg.ManifestFile = filepath.Join(root, "docker", "docker-compose.generated.yml")
	if len(origins) == 0 {
		origins = cfg.Server.CORSOrigins
	}

	orch := &fakeOrchestrator{}
	c := composer.New(&cfg, composer.WithOrchestrator(orch), composer.WithContainerLister(fakeLister{}))
	return &fixture{cfg: &cfg, orch: orch, handler: CORS(origins, NewHandler(c).Routes())}
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestListEmpty(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["detected"])
	assert.Equal(t, map[string]any{"managed": []any{}, "infra": []any{}}, body["managed"])
}

func TestListDetectsServices(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	dir := filepath.Join(f.cfg.ServicesDir, "api")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0644))

	_, body := f.do(t, http.MethodGet, "/list", "")
	assert.Equal(t, []any{map[string]any{"name": "api", "path": "/api"}}, body["detected"])
}

func TestAddService(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/services", `{"name":"redis","infra":true,"image":"redis:7","ports":["6379:6379"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Service added successfully.", body["message"])

	_, list := f.do(t, http.MethodGet, "/list", "")
	infra := list["managed"].(map[string]any)["infra"].([]any)
	require.Len(t, infra, 1)
	assert.Equal(t, map[string]any{"name": "redis", "infra": true, "image": "redis:7", "ports": []any{"6379:6379"}}, infra[0])
}

func TestAddServiceRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		body   string
		code   int
	}{
		{name: "missing name", target: "/services", body: `{"volumes":["a:/a"]}`, code: http.StatusBadRequest},
		{name: "infra without image", target: "/services", body: `{"name":"db","infra":true}`, code: http.StatusBadRequest},
		{name: "malformed json", target: "/services", body: `{"name":`, code: http.StatusBadRequest},
		{name: "nested environment", target: "/services", body: `{"name":"db","infra":true,"image":"x","environment":{"A":{"B":1}}}`, code: http.StatusBadRequest},
		{name: "bad replace flag", target: "/services?replace=maybe", body: `{"name":"api"}`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			rec, body := f.do(t, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "error", body["status"])
		})
	}
}

func TestAddServiceDuplicateAndReplace(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/services", `{"name":"api"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := f.do(t, http.MethodPost, "/services", `{"name":"api"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "already registered")

	rec, _ = f.do(t, http.MethodPost, "/services?replace=true", `{"name":"api","volumes":["a:/a"]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteService(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.do(t, http.MethodPost, "/services", `{"name":"api"}`)

	for i := 0; i < 2; i++ {
		rec, body := f.do(t, http.MethodDelete, "/services/api", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "deleted", body["status"])
		assert.Equal(t, "Service 'api' deleted.", body["message"])
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/generate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "generated", body["status"])
	assert.Equal(t, "version: \"3.9\"\nservices: {}\nvolumes: {}\nnetworks:\n  BKnetwork: null\n", body["data"])
	assert.FileExists(t, f.cfg.ManifestFile)
}

func TestGenerateBrokenTemplate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.cfg.BaseTemplate), 0755))
	require.NoError(t, os.WriteFile(f.cfg.BaseTemplate, []byte("- a list\n"), 0644))

	rec, body := f.do(t, http.MethodPost, "/generate", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", body["status"])
}

func TestDockerUpDown(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/docker/up", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Docker containers are up.", body["message"])

	rec, body = f.do(t, http.MethodPost, "/docker/down", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Docker containers are down.", body["message"])
	assert.Equal(t, []string{"up", "down"}, f.orch.calls)
}

func TestDockerUpFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.orch.err = &microns_err.ProcessError{Command: "docker-compose", Args: []string{"up"}, ExitStatus: 1, Output: "ERROR: no such image"}

	rec, body := f.do(t, http.MethodPost, "/docker/up", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "Failed to start Docker containers")
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "microns_api", data[0].(map[string]any)["name"])
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/generate", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("wildcard", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodGet, "/list", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodOptions, "/services/api", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "DELETE")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	})

	t.Run("allow list", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, "https://ui.example.com")

		req := httptest.NewRequest(http.MethodGet, "/list", nil)
		req.Header.Set("Origin", "https://ui.example.com")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, "https://ui.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/list", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec = httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestServerServeAndShutdown(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	srv, err := NewServer("127.0.0.1:0", f.handler)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/list")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
}
