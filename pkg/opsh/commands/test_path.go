package commands

import (
	"os"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// TestPath reports whether a path exists, as a single Boolean.
type TestPath struct{}

func (c *TestPath) Name() string { return "Test-Path" }

func (c *TestPath) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	path := pathArg(ctx, "")
	if path == "" {
		return nil, invalidOperation("Test-Path requires a path")
	}

	_, err := os.Stat(path)
	return []value.Value{value.FromBool(err == nil)}, nil
}
