package server

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/yorulabs/skills-mcp/internal/api"
	"github.com/yorulabs/skills-mcp/internal/mcp"
	"github.com/yorulabs/skills-mcp/internal/skill"
)

// MCP tool names exposed to agents, one per facade operation plus the
// explicit refresh.
const (
	toolListSkills         = "list_skills"
	toolGetSkill           = "get_skill"
	toolGetSkillResource   = "get_skill_resource"
	toolExecuteSkillScript = "execute_skill_script"
	toolRefreshSkills      = "refresh_skills"
)

// SkillsMCPServer binds the skills facade onto an MCP server.
type SkillsMCPServer struct {
	server  *mcp.Server
	service *api.Service
}

// NewSkillsMCPServer creates the MCP binding for the facade.
func NewSkillsMCPServer(service *api.Service, version string) *SkillsMCPServer {
	s := &SkillsMCPServer{
		server:  mcp.NewServer("skills-mcp", version),
		service: service,
	}

	s.server.RegisterHandler(mcp.MethodToolsList, s.handleToolsList)
	s.server.RegisterHandler(mcp.MethodToolsCall, s.handleToolsCall)

	return s
}

// ServeStdio serves MCP over stdin/stdout until EOF or cancellation.
func (s *SkillsMCPServer) ServeStdio(ctx context.Context, reader io.Reader, writer io.Writer) error {
	return s.server.Serve(ctx, reader, writer)
}

// HandleRequest serves a single JSON-RPC request, for the HTTP /mcp
// binding.
func (s *SkillsMCPServer) HandleRequest(ctx context.Context, req *mcp.JSONRPCRequest) (*mcp.JSONRPCResponse, error) {
	return s.server.HandleRequest(ctx, req)
}

func (s *SkillsMCPServer) handleToolsList(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return mcp.ToolsListResult{Tools: toolDefinitions()}, nil
}

func (s *SkillsMCPServer) handleToolsCall(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var call mcp.ToolCallParams
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, err
	}

	result, err := s.dispatch(ctx, call)
	if err != nil {
		// Tool-level failures travel inside the result envelope so the
		// agent sees the taxonomy kind, not a bare protocol error.
		return mcp.TextResult(errorEnvelope(err), true)
	}

	return mcp.TextResult(result, false)
}

func (s *SkillsMCPServer) dispatch(ctx context.Context, call mcp.ToolCallParams) (interface{}, error) {
	args := call.Arguments

	switch call.Name {
	case toolListSkills:
		skills, err := s.service.ListSkills()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"status": "success",
			"count":  len(skills),
			"skills": skills,
			"hint":   "Use get_skill(name) to load full instructions for a specific skill",
		}, nil

	case toolGetSkill:
		detail, err := s.service.GetSkill(stringArg(args, "name"))
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"status": "success",
			"skill":  detail,
			"hint":   "Use execute_skill_script(skill_name, script_name, params) to run a script",
		}, nil

	case toolGetSkillResource:
		res, err := s.service.GetSkillResource(stringArg(args, "skill_name"), stringArg(args, "resource_path"))
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"status":   "success",
			"resource": res,
		}, nil

	case toolExecuteSkillScript:
		params, _ := args["params"].(map[string]interface{})
		var timeout time.Duration
		if secs, ok := args["timeout_seconds"].(float64); ok && secs > 0 {
			timeout = time.Duration(secs * float64(time.Second))
		}

		outcome, err := s.service.ExecuteSkillScript(ctx, stringArg(args, "skill_name"), stringArg(args, "script_name"), params, timeout)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"status":    "success",
			"execution": outcome,
		}, nil

	case toolRefreshSkills:
		warnings, err := s.service.RefreshSkills()
		if err != nil {
			return nil, err
		}
		if warnings == nil {
			warnings = []skill.ScanWarning{}
		}
		return map[string]interface{}{
			"status":   "success",
			"warnings": warnings,
		}, nil

	default:
		return nil, skill.Errorf(skill.KindSkillNotFound, "unknown tool %q", call.Name)
	}
}

func errorEnvelope(err error) map[string]interface{} {
	return map[string]interface{}{
		"status":  "error",
		"error":   string(skill.KindOf(err)),
		"message": err.Error(),
	}
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func toolDefinitions() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        toolListSkills,
			Description: "List all available skills with their name and description. Start here to discover what skills exist before loading or executing them.",
			InputSchema: objectSchema(nil, nil),
		},
		{
			Name:        toolGetSkill,
			Description: "Load a skill's full instructions and its bundled scripts, references and assets.",
			InputSchema: objectSchema(map[string]interface{}{
				"name": stringProp("The skill name, e.g. \"hello-world\""),
			}, []string{"name"}),
		},
		{
			Name:        toolGetSkillResource,
			Description: "Load a reference document or asset bundled with a skill.",
			InputSchema: objectSchema(map[string]interface{}{
				"skill_name":    stringProp("The skill name"),
				"resource_path": stringProp("Relative path, e.g. \"references/api.md\" or \"assets/template.json\""),
			}, []string{"skill_name", "resource_path"}),
		},
		{
			Name:        toolExecuteSkillScript,
			Description: "Execute a script from a skill's scripts/ directory. The script receives the params object as one JSON argument and must print a single JSON object as its result.",
			InputSchema: objectSchema(map[string]interface{}{
				"skill_name":  stringProp("The skill name"),
				"script_name": stringProp("Script file name in the scripts/ directory, e.g. \"greet.py\""),
				"params": map[string]interface{}{
					"type":        "object",
					"description": "Parameters passed to the script",
				},
				"timeout_seconds": map[string]interface{}{
					"type":        "number",
					"description": "Optional timeout override in seconds",
				},
			}, []string{"skill_name", "script_name"}),
		},
		{
			Name:        toolRefreshSkills,
			Description: "Rescan the skills directory and reload all skills.",
			InputSchema: objectSchema(nil, nil),
		},
	}
}

func objectSchema(props map[string]interface{}, required []string) map[string]interface{} {
	if props == nil {
		props = map[string]interface{}{}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}
