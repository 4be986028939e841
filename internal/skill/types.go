package skill

import (
	"encoding/json"
	"time"
)

// Descriptor holds the metadata parsed from a skill's SKILL.md
// frontmatter. Name and Description are required; everything else is
// optional.
type Descriptor struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	License       string            `json:"license,omitempty"`
	Compatibility string            `json:"compatibility,omitempty"`
	AllowedTools  []string          `json:"allowed_tools,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Record is a fully loaded skill package. Records are created during a
// registry scan and never mutated afterwards; a rescan replaces the
// whole record set.
type Record struct {
	Descriptor

	// Root is the absolute path of the skill directory.
	Root string

	// Instructions is the SKILL.md body after the frontmatter.
	Instructions string

	// Relative paths of bundled files, sorted, at any depth under the
	// scripts/, references/ and assets/ subtrees.
	Scripts    []string
	References []string
	Assets     []string

	LoadedAt time.Time
}

// ResourceClass distinguishes reference documents from assets.
type ResourceClass string

const (
	ResourceReference ResourceClass = "reference"
	ResourceAsset     ResourceClass = "asset"
)

// Resource is the content of a single bundled file.
type Resource struct {
	Skill   string
	Path    string
	Class   ResourceClass
	Content []byte
	Size    int64
}

// ExecutionRequest asks for one script invocation.
type ExecutionRequest struct {
	Skill  string
	Script string
	Params map[string]interface{}

	// Timeout overrides the executor default when positive.
	Timeout time.Duration
}

// ExecutionResult is the outcome of a script invocation. On failure the
// accompanying *Error classifies the fault and the result still carries
// whatever stderr and timing were captured.
type ExecutionResult struct {
	ID       string
	Payload  json.RawMessage
	Stderr   string
	ExitCode int
	Duration time.Duration
}
