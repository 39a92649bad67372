package commands

import (
	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// WhereObject filters the input sequence. With a script-block argument
// it keeps items for which the block yields a truthy value; with
// -Property it keeps items whose named property is truthy. Neither
// form given, everything passes through.
type WhereObject struct{}

func (c *WhereObject) Name() string { return "Where-Object" }

func (c *WhereObject) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	if block, ok := ctx.ScriptBlockArg(); ok {
		var out []value.Value
		for _, item := range ctx.Input {
			v, err := inv.InvokeBlock(block, item)
			if err != nil {
				return nil, err
			}
			if v.Truthy() {
				out = append(out, item)
			}
		}
		return out, nil
	}

	if props := ctx.PropertyList("Property"); len(props) > 0 {
		name := props[0]
		var out []value.Value
		for _, item := range ctx.Input {
			if v, ok := value.GetProperty(item, name); ok && v.Truthy() {
				out = append(out, item)
			}
		}
		return out, nil
	}

	return ctx.Input, nil
}
