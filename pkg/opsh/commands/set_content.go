package commands

import (
	"os"
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// SetContent writes a file. The content comes from -Value, the
// remaining positional arguments, or the pipeline input; sequences
// join with newlines. The write replaces any existing content.
type SetContent struct{}

func (c *SetContent) Name() string { return "Set-Content" }

func (c *SetContent) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	path := pathArg(ctx, "")
	if path == "" {
		return nil, invalidOperation("Set-Content requires a path")
	}

	var pieces []string
	if v, ok := ctx.Param("Value"); ok {
		pieces = append(pieces, v.Display())
	} else if len(ctx.Input) > 0 {
		for _, item := range ctx.Input {
			pieces = append(pieces, item.Display())
		}
	} else {
		// First positional is the path when -Path was not named.
		args := ctx.Args
		if _, named := ctx.Param("Path"); !named && len(args) > 0 {
			args = args[1:]
		}
		for _, a := range args {
			pieces = append(pieces, a.Display())
		}
	}

	content := strings.Join(pieces, "\n")
	if content != "" {
		content += "\n"
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, invalidOperation("cannot write " + path + ": " + err.Error())
	}
	return nil, nil
}
