package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Rule identifies a hygiene rule that was violated.
type Rule string

const (
	RuleDuplicateFact    Rule = "duplicate-fact"
	RuleCoreOverSize     Rule = "core-over-size"
	RuleDocOverSize      Rule = "doc-over-size"
	RuleMissingProvenance Rule = "missing-provenance"
	RuleOrphanedDoc      Rule = "orphaned-doc"
)

// Severity classifies how serious a Violation is.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Violation is a single hygiene finding.
type Violation struct {
	Rule         Rule
	Severity     Severity
	DocID        string
	Message      string
	SuggestedFix string
}

// SizeLimits holds a soft/hard token-count pair.
type SizeLimits struct {
	Soft int
	Hard int
}

func (l SizeLimits) ExceedsSoft(tokens int) bool { return tokens > l.Soft }
func (l SizeLimits) ExceedsHard(tokens int) bool { return tokens > l.Hard }

// Config configures the hygiene checker's size limits and provenance policy.
type Config struct {
	DocSoftLimit      int
	DocHardLimit      int
	CoreSoftLimit     int
	CoreHardLimit     int
	RequireProvenance bool
}

// Checker validates memory documents against hygiene rules.
type Checker struct {
	config Config
	root   string
}

// NewChecker creates a Checker rooted at the memory directory (for
// resolving CORE.md and expected document paths).
func NewChecker(config Config, memoryRoot string) *Checker {
	return &Checker{config: config, root: memoryRoot}
}

// CheckAll runs size, provenance, existence, and orphan checks over every
// document named in manifest.
func (c *Checker) CheckAll(manifest Manifest, load func(entry ManifestEntry) (Doc, error)) []Violation {
	var violations []Violation

	if core, err := c.loadCoreMemory(); err == nil {
		if v := c.checkCoreSize(core); v != nil {
			violations = append(violations, *v)
		}
	}

	var docs []Doc
	for _, entry := range manifest.Docs {
		doc, err := load(entry)
		if err != nil {
			continue
		}
		violations = append(violations, c.CheckDoc(doc)...)
		docs = append(docs, doc)
	}

	references := c.collectAllReferences(docs)
	for _, doc := range docs {
		if v := c.checkOrphaned(doc, references, manifest); v != nil {
			violations = append(violations, *v)
		}
	}

	return violations
}

// CheckDoc runs the per-document size, provenance, and existence checks.
func (c *Checker) CheckDoc(doc Doc) []Violation {
	var violations []Violation

	limits := SizeLimits{Soft: c.config.DocSoftLimit, Hard: c.config.DocHardLimit}
	tokens := EstimateTokens(doc.Body)

	switch {
	case limits.ExceedsHard(tokens):
		violations = append(violations, Violation{
			Rule:         RuleDocOverSize,
			Severity:     SeverityError,
			DocID:        doc.Frontmatter.ID,
			Message:      fmt.Sprintf("document exceeds hard limit: %d tokens > %d", tokens, limits.Hard),
			SuggestedFix: fmt.Sprintf("split document into multiple documents under %d tokens", limits.Soft),
		})
	case limits.ExceedsSoft(tokens):
		violations = append(violations, Violation{
			Rule:         RuleDocOverSize,
			Severity:     SeverityWarning,
			DocID:        doc.Frontmatter.ID,
			Message:      fmt.Sprintf("document exceeds soft limit: %d tokens > %d", tokens, limits.Soft),
			SuggestedFix: "consider splitting document or moving less critical content",
		})
	}

	if c.config.RequireProvenance && len(doc.Frontmatter.Provenance.Events) == 0 {
		violations = append(violations, Violation{
			Rule:         RuleMissingProvenance,
			Severity:     SeverityWarning,
			DocID:        doc.Frontmatter.ID,
			Message:      "document missing provenance links",
			SuggestedFix: "add source event ids to document frontmatter",
		})
	}

	expectedPath := filepath.Join(c.root, doc.Frontmatter.Kind.DirName(), doc.Frontmatter.FileName())
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		violations = append(violations, Violation{
			Rule:         RuleOrphanedDoc,
			Severity:     SeverityError,
			DocID:        doc.Frontmatter.ID,
			Message:      fmt.Sprintf("document file missing from filesystem: %s", expectedPath),
			SuggestedFix: "recreate document file or remove from manifest",
		})
	}

	return violations
}

func (c *Checker) checkCoreSize(core string) *Violation {
	tokens := EstimateTokens(core)
	limits := SizeLimits{Soft: c.config.CoreSoftLimit, Hard: c.config.CoreHardLimit}

	switch {
	case limits.ExceedsHard(tokens):
		return &Violation{
			Rule:         RuleCoreOverSize,
			Severity:     SeverityError,
			DocID:        "CORE.md",
			Message:      fmt.Sprintf("core memory exceeds hard limit: %d tokens > %d", tokens, limits.Hard),
			SuggestedFix: "move verbose sections to facts/ or playbooks/",
		}
	case limits.ExceedsSoft(tokens):
		return &Violation{
			Rule:         RuleCoreOverSize,
			Severity:     SeverityWarning,
			DocID:        "CORE.md",
			Message:      fmt.Sprintf("core memory exceeds soft limit: %d tokens > %d", tokens, limits.Soft),
			SuggestedFix: "consider moving some content to semantic memory",
		}
	default:
		return nil
	}
}

func (c *Checker) loadCoreMemory() (string, error) {
	data, err := os.ReadFile(filepath.Join(c.root, "core", "CORE.md"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var (
	linkPattern    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	mentionPattern = regexp.MustCompile(`@([a-z]+\.[a-z.]+)`)
	adrPattern     = regexp.MustCompile(`ADR-(\d{4})`)
)

func (c *Checker) collectAllReferences(docs []Doc) map[string]bool {
	references := map[string]bool{"CORE": true, "CORE.local": true}

	for _, doc := range docs {
		for _, m := range linkPattern.FindAllStringSubmatch(doc.Body, -1) {
			target := m[2]
			if strings.Contains(target, ".md") {
				id := target
				for _, prefix := range []string{"../", "semantic/", "facts/", "decisions/", "playbooks/"} {
					id = strings.TrimPrefix(id, prefix)
				}
				id = strings.TrimSuffix(id, ".md")
				id = strings.ReplaceAll(id, "_", ".")
				references[id] = true
			}
		}
		for _, m := range mentionPattern.FindAllStringSubmatch(doc.Body, -1) {
			references[m[1]] = true
		}
		for _, m := range adrPattern.FindAllStringSubmatch(doc.Body, -1) {
			references["adr."+m[1]] = true
		}
	}

	return references
}

func (c *Checker) checkOrphaned(doc Doc, references map[string]bool, manifest Manifest) *Violation {
	if doc.Frontmatter.ID == "CORE" || doc.Frontmatter.ID == "CORE.local" {
		return nil
	}

	daysOld := time.Since(doc.Frontmatter.Created).Hours() / 24
	if daysOld < 7 {
		return nil
	}

	if doc.Frontmatter.Kind == KindAdr || doc.Frontmatter.Kind == KindCore {
		return nil
	}

	if references[doc.Frontmatter.ID] {
		return nil
	}

	normalizedID := strings.ToLower(strings.TrimPrefix(doc.Frontmatter.ID, "fact."))
	normalizedTitle := strings.ToLower(doc.Frontmatter.Title)
	for _, other := range manifest.Docs {
		if other.ID == doc.Frontmatter.ID {
			continue
		}
		for _, tag := range other.Tags {
			tagLower := strings.ToLower(tag)
			if tagLower == normalizedID || tagLower == normalizedTitle {
				return nil
			}
		}
	}

	return &Violation{
		Rule:         RuleOrphanedDoc,
		Severity:     SeverityWarning,
		DocID:        doc.Frontmatter.ID,
		Message:      "document is not referenced by any other document",
		SuggestedFix: "add links to this document from related facts, or add relevant tags",
	}
}
