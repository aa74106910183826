package memory

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"gopkg.in/yaml.v3"

	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// Provenance records which events and patches produced or last touched a document.
type Provenance struct {
	Events   []string `yaml:"events" json:"events"`
	PatchIDs []string `yaml:"patch_ids,omitempty" json:"patch_ids,omitempty"`
}

// Verification records the last hygiene/verification pass over a document.
type Verification struct {
	Verified bool      `yaml:"verified" json:"verified"`
	At       time.Time `yaml:"at,omitempty" json:"at,omitempty"`
	By       string    `yaml:"by,omitempty" json:"by,omitempty"`
}

// Frontmatter is the structured YAML header of a MemoryDoc.
type Frontmatter struct {
	ID           string       `yaml:"id" json:"id"`
	Title        string       `yaml:"title" json:"title"`
	Kind         Kind         `yaml:"kind" json:"kind"`
	Tags         []string     `yaml:"tags" json:"tags"`
	Created      time.Time    `yaml:"created" json:"created"`
	Updated      time.Time    `yaml:"updated" json:"updated"`
	Provenance   Provenance   `yaml:"provenance" json:"provenance"`
	Verification Verification `yaml:"verification,omitempty" json:"verification,omitempty"`
	Session      string       `yaml:"session,omitempty" json:"session,omitempty"`
}

// Doc is a markdown memory document: a frontmatter block followed by a body.
type Doc struct {
	Frontmatter Frontmatter
	Body        string
}

// FileName returns the id translated to a filesystem-safe filename, dots
// replaced by underscores (e.g. "fact.build.commands" -> "fact_build_commands.md").
func (f Frontmatter) FileName() string {
	return strings.ReplaceAll(f.ID, ".", "_") + ".md"
}

const frontmatterDelim = "---"

// Render serializes the document as "---\n<yaml>\n---\n\n<body>".
func Render(doc Doc) (string, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(doc.Frontmatter); err != nil {
		return "", errs.Io("failed to encode frontmatter", err)
	}
	if err := enc.Close(); err != nil {
		return "", errs.Io("failed to close yaml encoder", err)
	}
	return fmt.Sprintf("%s\n%s%s\n\n%s", frontmatterDelim, sb.String(), frontmatterDelim, doc.Body), nil
}

// Parse splits content into frontmatter and body and decodes the
// frontmatter block as YAML.
func Parse(content string) (Doc, error) {
	if !strings.HasPrefix(content, frontmatterDelim) {
		return Doc{}, errs.Parse("document is missing frontmatter delimiter", nil)
	}

	rest := content[len(frontmatterDelim):]
	idx := strings.Index(rest, "\n"+frontmatterDelim)
	if idx == -1 {
		return Doc{}, errs.Parse("document is missing closing frontmatter delimiter", nil)
	}

	yamlBlock := strings.TrimPrefix(rest[:idx], "\n")
	body := rest[idx+len(frontmatterDelim)+1:]
	body = strings.TrimPrefix(body, "\n")

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
		return Doc{}, errs.Parse("failed to parse frontmatter yaml", err)
	}

	return Doc{Frontmatter: fm, Body: body}, nil
}

var (
	tkm     *tiktoken.Tiktoken
	tkmOnce sync.Once
)

func getTokenizer() *tiktoken.Tiktoken {
	tkmOnce.Do(func() {
		var err error
		tkm, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.Printf("memory: failed to load tiktoken encoding, falling back to heuristic: %v", err)
		}
	})
	return tkm
}

// EstimateTokens counts tokens via cl100k_base when the encoding loads,
// falling back to a 4-characters-per-token heuristic otherwise.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if tokenizer := getTokenizer(); tokenizer != nil {
		return len(tokenizer.Encode(text, nil, nil))
	}
	return len([]rune(text)) / 4
}
