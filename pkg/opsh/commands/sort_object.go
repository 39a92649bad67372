package commands

import (
	"sort"
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// SortObject sorts its input sequence, or its unrolled positional
// arguments when no input is flowing (`Sort-Object @(3, 1, 2)`).
// -Property names one or more sort keys for object input; bare
// positional names count as sort keys only when pipeline input is
// present, since standalone positional arguments are the data itself.
// -Descending reverses the order.
//
// The comparison is: Nulls first, numeric when both sides coerce,
// case-insensitive string comparison of display strings otherwise.
type SortObject struct{}

func (c *SortObject) Name() string { return "Sort-Object" }

func (c *SortObject) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	descending, err := ctx.Switch("Descending")
	if err != nil {
		return nil, err
	}

	items := ctx.Input
	props := ctx.PropertyList("Property")
	if len(items) > 0 && len(props) == 0 {
		props = ctx.PositionalProperties()
	}
	if len(items) == 0 {
		items = ctx.UnrollArgs()
	}

	sorted := make([]value.Value, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := compareBy(sorted[i], sorted[j], props)
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})

	return sorted, nil
}

// compareBy compares two items, by the given property keys in order
// when any are named, directly otherwise.
func compareBy(a, b value.Value, props []string) int {
	if len(props) == 0 {
		return compareValues(a, b)
	}
	for _, name := range props {
		av := propertyOrNull(a, name)
		bv := propertyOrNull(b, name)
		if cmp := compareValues(av, bv); cmp != 0 {
			return cmp
		}
	}
	return 0
}

func propertyOrNull(v value.Value, name string) value.Value {
	if p, ok := value.GetProperty(v, name); ok {
		return p
	}
	return value.NULL
}

// compareValues orders two values: Nulls sort before everything,
// numbers numerically when both sides coerce, anything else by
// case-insensitive display string.
func compareValues(a, b value.Value) int {
	_, aNull := a.(*value.Null)
	_, bNull := b.(*value.Null)
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return -1
	case bNull:
		return 1
	}

	if an, aok := value.ToNumber(a); aok {
		if bn, bok := value.ToNumber(b); bok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}

	as := strings.ToLower(a.Display())
	bs := strings.ToLower(b.Display())
	return strings.Compare(as, bs)
}
