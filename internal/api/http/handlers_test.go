package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorulabs/skills-mcp/internal/api"
	"github.com/yorulabs/skills-mcp/internal/skill"
	"github.com/yorulabs/skills-mcp/internal/skill/executor"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	root := t.TempDir()

	demo := filepath.Join(root, "demo")
	require.NoError(t, os.MkdirAll(filepath.Join(demo, "scripts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(demo, "assets"), 0o755))

	descriptor := "---\nname: demo\ndescription: A demonstration skill.\n---\nInstructions.\n"
	require.NoError(t, os.WriteFile(filepath.Join(demo, skill.DescriptorFile), []byte(descriptor), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(demo, "scripts", "hello.sh"),
		[]byte("#!/bin/bash\necho '{\"greeting\":\"hello\"}'\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(demo, "scripts", "fail.sh"),
		[]byte("#!/bin/bash\necho boom >&2\nexit 1\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(demo, "assets", "tmpl.txt"),
		[]byte("template\n"), 0o644))

	registry := skill.NewRegistry(root)
	service := api.NewService(registry, skill.NewResolver(registry), executor.New(registry))
	return NewHandlers(service)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListSkillsHandler(t *testing.T) {
	h := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.ListSkills(rec, httptest.NewRequest(http.MethodGet, "/api/v1/skills", nil), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(1), body["count"])
}

func TestGetSkillHandler(t *testing.T) {
	h := newTestHandlers(t)

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetSkill(rec, httptest.NewRequest(http.MethodGet, "/api/v1/skills/demo", nil),
			map[string]string{"name": "demo"})

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		detail := body["skill"].(map[string]interface{})
		assert.Equal(t, "demo", detail["name"])
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetSkill(rec, httptest.NewRequest(http.MethodGet, "/api/v1/skills/missing", nil),
			map[string]string{"name": "missing"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, string(skill.KindSkillNotFound), body["error"])
	})
}

func TestGetSkillResourceHandler(t *testing.T) {
	h := newTestHandlers(t)

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetSkillResource(rec,
			httptest.NewRequest(http.MethodGet, "/api/v1/skills/demo/resource?path=assets/tmpl.txt", nil),
			map[string]string{"name": "demo"})

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		resource := body["resource"].(map[string]interface{})
		assert.Equal(t, "template\n", resource["content"])
		assert.Equal(t, string(skill.ResourceAsset), resource["class"])
	})

	t.Run("missing path parameter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetSkillResource(rec,
			httptest.NewRequest(http.MethodGet, "/api/v1/skills/demo/resource", nil),
			map[string]string{"name": "demo"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("path escape", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetSkillResource(rec,
			httptest.NewRequest(http.MethodGet, "/api/v1/skills/demo/resource?path=../demo/SKILL.md", nil),
			map[string]string{"name": "demo"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, string(skill.KindPathEscape), body["error"])
	})
}

func TestExecuteSkillScriptHandler(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test scripts require bash")
	}
	h := newTestHandlers(t)

	t.Run("success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/skills/demo/execute",
			strings.NewReader(`{"script":"hello.sh","params":{"who":"world"}}`))
		h.ExecuteSkillScript(rec, req, map[string]string{"name": "demo"})

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		execution := body["execution"].(map[string]interface{})
		result := execution["result"].(map[string]interface{})
		assert.Equal(t, "hello", result["greeting"])
	})

	t.Run("missing script", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/skills/demo/execute",
			strings.NewReader(`{}`))
		h.ExecuteSkillScript(rec, req, map[string]string{"name": "demo"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/skills/demo/execute",
			strings.NewReader(`not json`))
		h.ExecuteSkillScript(rec, req, map[string]string{"name": "demo"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("script failure carries stderr", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/skills/demo/execute",
			strings.NewReader(`{"script":"fail.sh"}`))
		h.ExecuteSkillScript(rec, req, map[string]string{"name": "demo"})

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, string(skill.KindExecutionFailed), body["error"])
		assert.Contains(t, body["stderr"], "boom")
	})

	t.Run("script not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/skills/demo/execute",
			strings.NewReader(`{"script":"missing.sh"}`))
		h.ExecuteSkillScript(rec, req, map[string]string{"name": "demo"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRefreshSkillsHandler(t *testing.T) {
	h := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.RefreshSkills(rec, httptest.NewRequest(http.MethodPost, "/api/v1/skills/refresh", nil), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, []interface{}{}, body["warnings"])
}

func TestHealthCheckHandler(t *testing.T) {
	h := newTestHandlers(t)

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
}

func TestStatusForKind(t *testing.T) {
	cases := map[skill.Kind]int{
		skill.KindSkillNotFound:      http.StatusNotFound,
		skill.KindScriptNotFound:     http.StatusNotFound,
		skill.KindResourceNotFound:   http.StatusNotFound,
		skill.KindPathEscape:         http.StatusBadRequest,
		skill.KindInvalidIdentifier:  http.StatusBadRequest,
		skill.KindIdentifierMismatch: http.StatusConflict,
		skill.KindExecutionTimeout:   http.StatusGatewayTimeout,
		skill.KindExecutionFailed:    http.StatusBadGateway,
		skill.KindMalformedOutput:    http.StatusBadGateway,
		skill.KindExecutorBusy:       http.StatusTooManyRequests,
		skill.Kind(""):               http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusForKind(kind), string(kind))
	}
}
