// Package http contains the REST handlers that bind the skills facade
// onto the HTTP gateway.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yorulabs/skills-mcp/internal/api"
	"github.com/yorulabs/skills-mcp/internal/skill"
	"github.com/yorulabs/skills-mcp/pkg/logger"
)

// Handlers contains the HTTP handlers over the skills facade.
type Handlers struct {
	service *api.Service
}

// NewHandlers creates HTTP handlers over the facade.
func NewHandlers(service *api.Service) *Handlers {
	return &Handlers{service: service}
}

// ExecuteRequest is the body of POST /skills/{name}/execute.
type ExecuteRequest struct {
	Script string                 `json:"script"`
	Params map[string]interface{} `json:"params,omitempty"`

	// TimeoutSeconds overrides the executor default when positive.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// ListSkills handles GET /skills.
func (h *Handlers) ListSkills(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	skills, err := h.service.ListSkills()
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, map[string]interface{}{
		"count":  len(skills),
		"skills": skills,
		"hint":   "Use GET /skills/{name} to load full instructions for a specific skill",
	})
}

// GetSkill handles GET /skills/{name}.
func (h *Handlers) GetSkill(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	detail, err := h.service.GetSkill(pathParams["name"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, map[string]interface{}{
		"skill": detail,
		"hint":  "Use POST /skills/{name}/execute to run a bundled script",
	})
}

// GetSkillResource handles GET /skills/{name}/resource?path=...
func (h *Handlers) GetSkillResource(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	resourcePath := r.URL.Query().Get("path")
	if resourcePath == "" {
		http.Error(w, "path query parameter is required", http.StatusBadRequest)
		return
	}

	res, err := h.service.GetSkillResource(pathParams["name"], resourcePath)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, map[string]interface{}{"resource": res})
}

// ExecuteSkillScript handles POST /skills/{name}/execute.
func (h *Handlers) ExecuteSkillScript(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Script == "" {
		http.Error(w, "script is required", http.StatusBadRequest)
		return
	}

	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	outcome, err := h.service.ExecuteSkillScript(r.Context(), pathParams["name"], req.Script, req.Params, timeout)
	if err != nil {
		h.writeExecutionError(w, err, outcome)
		return
	}

	h.writeSuccess(w, map[string]interface{}{"execution": outcome})
}

// RefreshSkills handles POST /skills/refresh.
func (h *Handlers) RefreshSkills(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	warnings, err := h.service.RefreshSkills()
	if err != nil {
		h.writeError(w, err)
		return
	}

	if warnings == nil {
		warnings = []skill.ScanWarning{}
	}
	h.writeSuccess(w, map[string]interface{}{"warnings": warnings})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handlers) writeSuccess(w http.ResponseWriter, fields map[string]interface{}) {
	payload := map[string]interface{}{"status": "success"}
	for k, v := range fields {
		payload[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	h.writeErrorFields(w, err, nil)
}

// writeExecutionError attaches stderr and timing from a failed run.
func (h *Handlers) writeExecutionError(w http.ResponseWriter, err error, outcome *api.ExecutionOutcome) {
	fields := map[string]interface{}{}
	if outcome != nil {
		fields["stderr"] = outcome.Stderr
		fields["duration_ms"] = outcome.DurationMS
	}
	h.writeErrorFields(w, err, fields)
}

func (h *Handlers) writeErrorFields(w http.ResponseWriter, err error, extra map[string]interface{}) {
	kind := skill.KindOf(err)
	payload := map[string]interface{}{
		"status":  "error",
		"error":   string(kind),
		"message": err.Error(),
	}
	for k, v := range extra {
		payload[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForKind(kind))
	if encErr := json.NewEncoder(w).Encode(payload); encErr != nil {
		logger.Errorf("Failed to encode error response: %v", encErr)
	}
}

// statusForKind maps the error taxonomy onto HTTP status codes.
func statusForKind(kind skill.Kind) int {
	switch kind {
	case skill.KindSkillNotFound, skill.KindScriptNotFound, skill.KindResourceNotFound:
		return http.StatusNotFound
	case skill.KindPathEscape, skill.KindInvalidIdentifier, skill.KindInvalidDescription, skill.KindMalformedDescriptor:
		return http.StatusBadRequest
	case skill.KindIdentifierMismatch:
		return http.StatusConflict
	case skill.KindExecutionTimeout:
		return http.StatusGatewayTimeout
	case skill.KindExecutionFailed, skill.KindMalformedOutput:
		return http.StatusBadGateway
	case skill.KindExecutorBusy:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
