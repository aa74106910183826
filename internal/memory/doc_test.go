package memory

import (
	"testing"
	"time"
)

func TestRenderParseRoundtrip(t *testing.T) {
	doc := Doc{
		Frontmatter: Frontmatter{
			ID:      "fact.build.commands",
			Title:   "Build Commands",
			Kind:    KindFact,
			Tags:    []string{"build", "ci"},
			Created: time.Now().UTC().Truncate(time.Second),
			Updated: time.Now().UTC().Truncate(time.Second),
			Provenance: Provenance{Events: []string{"evt-1"}},
		},
		Body: "Run `make test` to verify.\n",
	}

	rendered, err := Render(doc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	parsed, err := Parse(rendered)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parsed.Frontmatter.ID != doc.Frontmatter.ID {
		t.Errorf("ID = %q, want %q", parsed.Frontmatter.ID, doc.Frontmatter.ID)
	}
	if parsed.Frontmatter.Kind != doc.Frontmatter.Kind {
		t.Errorf("Kind = %q, want %q", parsed.Frontmatter.Kind, doc.Frontmatter.Kind)
	}
	if parsed.Body != doc.Body {
		t.Errorf("Body = %q, want %q", parsed.Body, doc.Body)
	}
}

func TestParseMissingFrontmatterDelimiter(t *testing.T) {
	if _, err := Parse("no frontmatter here"); err == nil {
		t.Fatal("Parse() should error on missing frontmatter delimiter")
	}
}

func TestFileNameReplacesDots(t *testing.T) {
	fm := Frontmatter{ID: "fact.build.commands"}
	if got := fm.FileName(); got != "fact_build_commands.md" {
		t.Errorf("FileName() = %q, want fact_build_commands.md", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens("12345678"); got != 2 {
		t.Errorf("EstimateTokens() = %d, want 2", got)
	}
}
