package skill

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Resolver maps (skill, relative path) requests onto files inside a
// skill's references/ or assets/ subtrees.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over the given registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns the content and classification of a bundled resource.
// The path-escape check is lexical and runs before any filesystem
// access.
func (rs *Resolver) Resolve(skillName, resourcePath string) (*Resource, error) {
	rec, err := rs.registry.Get(skillName)
	if err != nil {
		return nil, err
	}

	rel, class, err := classifyResourcePath(resourcePath)
	if err != nil {
		return nil, err
	}

	full := filepath.Join(rec.Root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return nil, Errorf(KindResourceNotFound, "resource %q not found in skill %q", resourcePath, skillName)
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, WrapErr(KindResourceNotFound, err, "failed to read resource %q", resourcePath)
	}

	return &Resource{
		Skill:   skillName,
		Path:    rel,
		Class:   class,
		Content: content,
		Size:    info.Size(),
	}, nil
}

// classifyResourcePath normalizes a requested path, rejects anything
// that would leave the skill root, and classifies it by its top-level
// directory.
func classifyResourcePath(resourcePath string) (string, ResourceClass, error) {
	rel := strings.TrimPrefix(filepath.ToSlash(resourcePath), "/")
	rel = path.Clean(rel)

	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", "", Errorf(KindPathEscape, "resource path %q escapes the skill root", resourcePath)
	}

	switch {
	case strings.HasPrefix(rel, "references/"):
		return rel, ResourceReference, nil
	case strings.HasPrefix(rel, "assets/"):
		return rel, ResourceAsset, nil
	default:
		return "", "", Errorf(KindResourceNotFound, "resource %q must be under references/ or assets/", resourcePath)
	}
}
