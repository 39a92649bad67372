package commands

import (
	"strconv"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// SelectObject projects each input object down to the requested
// properties, and truncates the sequence with -First / -Last.
// Properties come from -Property or from bare positional names
// (`Select-Object Name, CPU`). Projection is case-insensitive and the
// output keys carry the requested casing; an absent property is simply
// omitted from the projected object. Items that are not objects pass
// through untouched.
type SelectObject struct{}

func (c *SelectObject) Name() string { return "Select-Object" }

func (c *SelectObject) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	items := ctx.Input

	props := ctx.PropertyList("Property")
	if len(props) == 0 {
		props = ctx.PositionalProperties()
	}

	if len(props) > 0 {
		projected := make([]value.Value, 0, len(items))
		for _, item := range items {
			if _, isObject := item.(*value.Object); !isObject {
				projected = append(projected, item)
				continue
			}
			obj := value.NewObject()
			for _, name := range props {
				if v, ok := value.GetProperty(item, name); ok {
					obj.Set(name, v)
				}
			}
			projected = append(projected, obj)
		}
		items = projected
	}

	if n, ok, err := countParam(ctx, "First"); err != nil {
		return nil, err
	} else if ok {
		if n < len(items) {
			items = items[:n]
		}
	}

	if n, ok, err := countParam(ctx, "Last"); err != nil {
		return nil, err
	} else if ok {
		if n < len(items) {
			items = items[len(items)-n:]
		}
	}

	return items, nil
}

// countParam reads a non-negative integer parameter.
func countParam(ctx *Context, name string) (int, bool, error) {
	v, ok := ctx.Param(name)
	if !ok {
		return 0, false, nil
	}

	f, numeric := value.ToNumber(v)
	if !numeric || f < 0 {
		return 0, false, errInvalidCount(name, v)
	}
	return int(f), true, nil
}

func errInvalidCount(name string, v value.Value) error {
	return invalidOperation("-" + name + " expects a non-negative number, got " + strconv.Quote(v.Display()))
}
