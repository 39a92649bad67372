package commands

import (
	"sort"
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// GroupObject buckets the input sequence by a key: the display string
// of each item, or the joined values of the -Property names (or bare
// positional names). Each output object carries Count, Name and Group;
// -NoElement drops the Group member. Output groups sort by key.
type GroupObject struct{}

func (c *GroupObject) Name() string { return "Group-Object" }

func (c *GroupObject) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	noElement, err := ctx.Switch("NoElement")
	if err != nil {
		return nil, err
	}

	props := ctx.PropertyList("Property")
	if len(props) == 0 {
		props = ctx.PositionalProperties()
	}

	groups := make(map[string][]value.Value)
	var keys []string

	for _, item := range ctx.Input {
		key := groupKey(item, props)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], item)
	}

	sort.Strings(keys)

	out := make([]value.Value, 0, len(keys))
	for _, key := range keys {
		members := groups[key]
		obj := value.NewObject()
		obj.Set("Count", &value.Number{Value: float64(len(members))})
		obj.Set("Name", &value.String{Value: key})
		if !noElement {
			obj.Set("Group", &value.Array{Elements: members})
		}
		out = append(out, obj)
	}
	return out, nil
}

// groupKey derives an item's bucket key: the named properties joined
// with ",", or the item's own display string when no keys are named.
func groupKey(item value.Value, props []string) string {
	if len(props) == 0 {
		return item.Display()
	}

	parts := make([]string, 0, len(props))
	for _, name := range props {
		parts = append(parts, propertyOrNull(item, name).Display())
	}
	return strings.Join(parts, ",")
}
