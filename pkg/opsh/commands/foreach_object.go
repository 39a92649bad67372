package commands

import (
	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// ForEachObject maps the input sequence. With a script-block argument
// each item runs through the block; with -MemberName each item projects
// to the named property, Null when absent.
type ForEachObject struct{}

func (c *ForEachObject) Name() string { return "ForEach-Object" }

func (c *ForEachObject) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	if block, ok := ctx.ScriptBlockArg(); ok {
		out := make([]value.Value, 0, len(ctx.Input))
		for _, item := range ctx.Input {
			v, err := inv.InvokeBlock(block, item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	if props := ctx.PropertyList("MemberName"); len(props) > 0 {
		name := props[0]
		out := make([]value.Value, 0, len(ctx.Input))
		for _, item := range ctx.Input {
			if v, ok := value.GetProperty(item, name); ok {
				out = append(out, v)
			} else {
				out = append(out, value.NULL)
			}
		}
		return out, nil
	}

	return ctx.Input, nil
}
