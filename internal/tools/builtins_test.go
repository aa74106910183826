package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestReadToolExecute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	r, err := ReadTool{}.Execute(context.Background(), "c1", json.RawMessage(`{"path":"`+path+`"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if r.Output != "hello" {
		t.Errorf("Output = %q, want hello", r.Output)
	}
}

func TestReadToolMissingFile(t *testing.T) {
	_, err := ReadTool{}.Execute(context.Background(), "c1", json.RawMessage(`{"path":"/does/not/exist"}`))
	if err == nil {
		t.Fatal("Execute() should error for a missing file")
	}
}

func TestWriteToolTargetPath(t *testing.T) {
	path, ok := WriteTool{}.TargetPath(json.RawMessage(`{"path":"/tmp/x","content":"y"}`))
	if !ok || path != "/tmp/x" {
		t.Errorf("TargetPath() = %q,%v, want /tmp/x,true", path, ok)
	}
}

func TestEditToolExactUniqueReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	os.WriteFile(path, []byte("package main\n\nfunc old() {}\n"), 0o644)

	_, err := EditTool{}.Execute(context.Background(), "c1", json.RawMessage(`{"path":"`+path+`","target":"func old() {}","replace":"func new() {}"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "package main\n\nfunc new() {}\n" {
		t.Errorf("content = %q", content)
	}
}

func TestEditToolRejectsAmbiguousTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("foo foo"), 0o644)

	_, err := EditTool{}.Execute(context.Background(), "c1", json.RawMessage(`{"path":"`+path+`","target":"foo","replace":"bar"}`))
	if err == nil {
		t.Fatal("Execute() should fail when target occurs more than once")
	}
}

func TestEditToolRejectsMissingTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("hello"), 0o644)

	_, err := EditTool{}.Execute(context.Background(), "c1", json.RawMessage(`{"path":"`+path+`","target":"goodbye","replace":"bar"}`))
	if err == nil {
		t.Fatal("Execute() should fail when target is absent")
	}
}

func TestMultiEditToolAppliesSequentially(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("one two three"), 0o644)

	args := `{"path":"` + path + `","edits":[{"target":"one","replace":"1"},{"target":"two","replace":"2"}]}`
	_, err := MultiEditTool{}.Execute(context.Background(), "c1", json.RawMessage(args))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "1 2 three" {
		t.Errorf("content = %q", content)
	}
}

func TestMultiEditToolAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	original := "one two three"
	os.WriteFile(path, []byte(original), 0o644)

	args := `{"path":"` + path + `","edits":[{"target":"one","replace":"1"},{"target":"missing","replace":"x"}]}`
	_, err := MultiEditTool{}.Execute(context.Background(), "c1", json.RawMessage(args))
	if err == nil {
		t.Fatal("Execute() should fail when any edit in the sequence fails")
	}

	content, _ := os.ReadFile(path)
	if string(content) != original {
		t.Errorf("file should be untouched on partial failure, got %q", content)
	}
}

func TestGrepToolFindsMatches(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha\nbravo\n"), 0o644)

	r, err := GrepTool{}.Execute(context.Background(), "c1", json.RawMessage(`{"pattern":"bra.o","path":"`+dir+`"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if r.Output == "(no matches)" {
		t.Error("expected a match for bravo")
	}
}

func TestGlobToolFindsFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644)

	r, err := GlobTool{}.Execute(context.Background(), "c1", json.RawMessage(`{"pattern":"*.go","path":"`+dir+`"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if r.Output == "(no matches)" {
		t.Error("expected a match for a.go")
	}
}

func TestEchoAndNoopReadOnly(t *testing.T) {
	if !(EchoTool{}).IsReadOnly() || !(NoopTool{}).IsReadOnly() {
		t.Error("echo and noop must both be read-only")
	}
}
