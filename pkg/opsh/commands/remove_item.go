package commands

import (
	"os"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// RemoveItem deletes a file, or a whole tree with -Recurse.
type RemoveItem struct{}

func (c *RemoveItem) Name() string { return "Remove-Item" }

func (c *RemoveItem) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	path := pathArg(ctx, "")
	if path == "" {
		return nil, invalidOperation("Remove-Item requires a path")
	}

	recurse, err := ctx.Switch("Recurse")
	if err != nil {
		return nil, err
	}

	if recurse {
		if err := os.RemoveAll(path); err != nil {
			return nil, invalidOperation("cannot remove " + path + ": " + err.Error())
		}
		return nil, nil
	}

	if err := os.Remove(path); err != nil {
		return nil, invalidOperation("cannot remove " + path + ": " + err.Error())
	}
	return nil, nil
}
