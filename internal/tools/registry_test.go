package tools

import (
	"testing"

	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(NoopTool{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tool, ok := reg.Get("noop")
	if !ok {
		t.Fatal("Get() did not find registered tool")
	}
	if tool.Name() != "noop" {
		t.Errorf("Name() = %q, want noop", tool.Name())
	}
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(NoopTool{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := reg.Register(NoopTool{})
	if err == nil {
		t.Fatal("Register() should fail on duplicate name")
	}
	if !errs.Is(err, errs.KindValidation) {
		t.Errorf("error kind = %v, want Validation", err)
	}
}

func TestRegistryListSortedByName(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(EchoTool{})
	_ = reg.Register(NoopTool{})

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("List() = %d tools, want 2", len(list))
	}
	if list[0].Name() != "echo" || list[1].Name() != "noop" {
		t.Errorf("List() order = [%s, %s], want [echo, noop]", list[0].Name(), list[1].Name())
	}
}

func TestRegistryGetMissing(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Get("nope"); ok {
		t.Fatal("Get() should not find an unregistered tool")
	}
}
