package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// skillFrontmatter is the YAML block a SKILL.md file opens with.
type skillFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// SkillTool presents a loaded skill as a read-only, argument-less tool
// whose Execute returns the skill's body, so a loaded skill shows up in
// the registry as just another callable tool.
type SkillTool struct {
	baseTool
	name        string
	description string
	body        string
}

func (s *SkillTool) Name() string        { return s.name }
func (s *SkillTool) Description() string { return s.description }
func (s *SkillTool) InputSchema() Schema {
	return Schema{"type": "object", "properties": map[string]any{}}
}
func (s *SkillTool) IsReadOnly() bool                { return true }
func (s *SkillTool) DefaultRisk() approval.ToolRisk { return approval.RiskSafe }

func (s *SkillTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	return Result{Output: s.body}, nil
}

// loadSkillFile parses one SKILL.md into a SkillTool, following the
// teacher's dynamic-skill loader: optional "---"-delimited YAML
// frontmatter followed by a markdown body; a file with no frontmatter is
// treated as pure body text with the directory name as its skill name.
func loadSkillFile(name, content string) *SkillTool {
	fm := skillFrontmatter{Name: name}
	body := content

	if strings.HasPrefix(content, "---") {
		parts := strings.SplitN(content, "---", 3)
		if len(parts) >= 3 {
			if err := yaml.Unmarshal([]byte(parts[1]), &fm); err == nil {
				body = strings.TrimSpace(parts[2])
				if fm.Name == "" {
					fm.Name = name
				}
			}
		}
	}

	return &SkillTool{name: fm.Name, description: fm.Description, body: body}
}

// LoadSkills loads skills from a directory, one subdirectory per skill
// with a SKILL.md inside, registering each into reg. Missing directories
// are not an error (a workspace need not define any skills).
func LoadSkills(reg *Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Io("read skills directory", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillPath := filepath.Join(dir, entry.Name(), "SKILL.md")
		data, err := os.ReadFile(skillPath)
		if err != nil {
			continue
		}

		tool := loadSkillFile(entry.Name(), string(data))
		if _, exists := reg.Get(tool.Name()); exists {
			continue // project scope wins over user scope
		}
		if err := reg.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// LoadSkillsProjectThenUser loads project-scope skills first (they shadow
// a same-named user-scope skill), then user-scope skills.
func LoadSkillsProjectThenUser(reg *Registry, projectSkillsDir, userSkillsDir string) error {
	if err := LoadSkills(reg, projectSkillsDir); err != nil {
		return err
	}
	return LoadSkills(reg, userSkillsDir)
}
