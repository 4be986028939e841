// Package api exposes the skill subsystem as a small facade of query
// and execute operations for transport layers (HTTP, MCP, CLI) to bind
// to. It performs no transport concerns itself.
package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yorulabs/skills-mcp/internal/skill"
	"github.com/yorulabs/skills-mcp/internal/skill/executor"
)

// Service composes the registry, resolver and executor into the four
// query/execute operations plus an explicit refresh.
type Service struct {
	registry *skill.Registry
	resolver *skill.Resolver
	executor *executor.Executor
}

// NewService creates the facade over its three collaborators.
func NewService(registry *skill.Registry, resolver *skill.Resolver, exec *executor.Executor) *Service {
	return &Service{
		registry: registry,
		resolver: resolver,
		executor: exec,
	}
}

// SkillSummary is the Level-1 view of a skill: enough for an agent to
// decide whether to load it.
type SkillSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
}

// SkillResources enumerates a skill's bundled files by category.
type SkillResources struct {
	Scripts    []string `json:"scripts"`
	References []string `json:"references"`
	Assets     []string `json:"assets"`
}

// SkillDetail is the Level-2 view: full instructions plus resource
// listing.
type SkillDetail struct {
	skill.Descriptor
	Instructions string         `json:"instructions"`
	Resources    SkillResources `json:"resources"`
}

// ResourceContent is the Level-3 view: one bundled file's content.
type ResourceContent struct {
	Skill   string `json:"skill"`
	Path    string `json:"path"`
	Class   string `json:"class"`
	Content string `json:"content"`
	Size    int64  `json:"size_bytes"`
}

// ExecutionOutcome is the facade view of one script run.
type ExecutionOutcome struct {
	ID         string          `json:"id"`
	Result     json.RawMessage `json:"result"`
	Stderr     string          `json:"stderr,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

// ListSkills returns Level-1 metadata for every loaded skill, in
// discovery order.
func (s *Service) ListSkills() ([]SkillSummary, error) {
	records, err := s.registry.List()
	if err != nil {
		return nil, err
	}

	summaries := make([]SkillSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, SkillSummary{
			Name:        rec.Name,
			Description: rec.Description,
			Path:        rec.Root,
		})
	}
	return summaries, nil
}

// GetSkill returns the full descriptor, instructions and resource
// listing for one skill.
func (s *Service) GetSkill(name string) (*SkillDetail, error) {
	rec, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}

	return &SkillDetail{
		Descriptor:   rec.Descriptor,
		Instructions: rec.Instructions,
		Resources: SkillResources{
			Scripts:    emptyIfNil(rec.Scripts),
			References: emptyIfNil(rec.References),
			Assets:     emptyIfNil(rec.Assets),
		},
	}, nil
}

// GetSkillResource returns one bundled reference or asset file.
func (s *Service) GetSkillResource(name, resourcePath string) (*ResourceContent, error) {
	res, err := s.resolver.Resolve(name, resourcePath)
	if err != nil {
		return nil, err
	}

	return &ResourceContent{
		Skill:   res.Skill,
		Path:    res.Path,
		Class:   string(res.Class),
		Content: string(res.Content),
		Size:    res.Size,
	}, nil
}

// ExecuteSkillScript runs a bundled script with the given parameters.
// The returned outcome is non-nil whenever a process ran, so callers
// see stderr and timing even when err classifies a failure.
func (s *Service) ExecuteSkillScript(ctx context.Context, name, script string, params map[string]interface{}, timeout time.Duration) (*ExecutionOutcome, error) {
	result, err := s.executor.Execute(ctx, skill.ExecutionRequest{
		Skill:   name,
		Script:  script,
		Params:  params,
		Timeout: timeout,
	})

	var outcome *ExecutionOutcome
	if result != nil {
		outcome = &ExecutionOutcome{
			ID:         result.ID,
			Result:     result.Payload,
			Stderr:     result.Stderr,
			DurationMS: result.Duration.Milliseconds(),
		}
	}
	return outcome, err
}

// RefreshSkills forces a rescan of the skills root and returns the
// warnings for any directories that were skipped.
func (s *Service) RefreshSkills() ([]skill.ScanWarning, error) {
	return s.registry.Scan()
}

func emptyIfNil(paths []string) []string {
	if paths == nil {
		return []string{}
	}
	return paths
}
