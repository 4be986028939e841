package skill

import (
	"errors"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DescriptorFile is the descriptor file name inside every skill package.
const DescriptorFile = "SKILL.md"

const (
	maxNameLength        = 64
	maxDescriptionLength = 1024
)

// namePattern enforces the skill naming invariant: lowercase
// alphanumeric segments joined by single hyphens, no leading or
// trailing hyphen.
var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// frontmatter is the YAML header of a SKILL.md file.
type frontmatter struct {
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description"`
	License       string            `yaml:"license"`
	Compatibility string            `yaml:"compatibility"`
	AllowedTools  []string          `yaml:"allowed-tools"`
	Metadata      map[string]string `yaml:"metadata"`
}

// ParseDescriptor parses SKILL.md content into a Descriptor plus the
// markdown body. It is a pure function of its input; the caller is
// responsible for binding the name to a directory.
func ParseDescriptor(content []byte) (*Descriptor, string, error) {
	header, body, err := splitFrontmatter(string(content))
	if err != nil {
		return nil, "", WrapErr(KindMalformedDescriptor, err, "invalid descriptor header")
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, "", WrapErr(KindMalformedDescriptor, err, "invalid frontmatter YAML")
	}

	if fm.Name == "" {
		return nil, "", Errorf(KindMalformedDescriptor, "required field missing: name")
	}
	if fm.Description == "" {
		return nil, "", Errorf(KindMalformedDescriptor, "required field missing: description")
	}
	if err := ValidateName(fm.Name); err != nil {
		return nil, "", err
	}
	if len(fm.Description) > maxDescriptionLength {
		return nil, "", Errorf(KindInvalidDescription, "description exceeds %d characters", maxDescriptionLength)
	}

	desc := &Descriptor{
		Name:          fm.Name,
		Description:   fm.Description,
		License:       fm.License,
		Compatibility: fm.Compatibility,
		AllowedTools:  fm.AllowedTools,
		Metadata:      fm.Metadata,
	}

	return desc, strings.TrimSpace(body), nil
}

// ValidateName checks a skill identifier against the naming invariant.
func ValidateName(name string) error {
	if name == "" || len(name) > maxNameLength {
		return Errorf(KindInvalidIdentifier, "name must be 1-%d characters, got %d", maxNameLength, len(name))
	}
	if !namePattern.MatchString(name) {
		return Errorf(KindInvalidIdentifier, "name %q must be lowercase alphanumeric with single hyphens", name)
	}
	return nil
}

// splitFrontmatter separates the YAML header (between --- markers) from
// the markdown body.
func splitFrontmatter(content string) (header, body string, err error) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return "", "", errors.New("descriptor must start with YAML frontmatter (---)")
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), nil
		}
	}

	return "", "", errors.New("closing --- marker not found")
}
