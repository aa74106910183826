package tools

import "github.com/stormlightlabs/thunderus-go/internal/patch"

// RegisterBuiltins registers every built-in tool: noop, echo, read, grep,
// glob, write, edit, multiedit, patch, shell.
// queue may be nil if the caller doesn't intend to register "patch" (e.g.
// a read-only sandbox); all other tools always register.
func RegisterBuiltins(reg *Registry, queue *patch.Queue) error {
	builtins := []Tool{
		NoopTool{},
		EchoTool{},
		ReadTool{},
		GrepTool{},
		GlobTool{},
		WriteTool{},
		EditTool{},
		MultiEditTool{},
		NewShellTool(),
	}
	for _, t := range builtins {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	if queue != nil {
		if err := reg.Register(NewPatchTool(queue)); err != nil {
			return err
		}
	}
	return nil
}
