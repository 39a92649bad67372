// Package value defines the opsh runtime value model: a closed set of
// types behind the Value interface, with the coercion, truthiness,
// display and property rules shared by the evaluator and the commands.
package value

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/ast"
)

// Type identifies a runtime value kind.
type Type string

const (
	NULL_VALUE   Type = "NULL"
	BOOLEAN      Type = "BOOLEAN"
	NUMBER       Type = "NUMBER"
	STRING       Type = "STRING"
	OBJECT       Type = "OBJECT"
	ARRAY        Type = "ARRAY"
	FUNCTION     Type = "FUNCTION"
	SCRIPT_BLOCK Type = "SCRIPT_BLOCK"
)

// Value is the interface implemented by every runtime value.
type Value interface {
	Type() Type
	Display() string
	Truthy() bool
}

// Shared singletons. Null, True and False carry no state, so every use
// shares one instance.
var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

// FromBool maps a native bool onto the shared Boolean singletons.
func FromBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// Null is the absence of a value.
type Null struct{}

func (n *Null) Type() Type      { return NULL_VALUE }
func (n *Null) Display() string { return "" }
func (n *Null) Truthy() bool    { return false }

// Boolean is true or false.
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() Type { return BOOLEAN }
func (b *Boolean) Display() string {
	if b.Value {
		return "True"
	}
	return "False"
}
func (b *Boolean) Truthy() bool { return b.Value }

// Number is a double-precision float.
type Number struct {
	Value float64
}

func (n *Number) Type() Type { return NUMBER }

// Display renders whole numbers without a decimal point.
func (n *Number) Display() string {
	if n.Value == math.Trunc(n.Value) && !math.IsInf(n.Value, 0) {
		return strconv.FormatFloat(n.Value, 'f', 0, 64)
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n *Number) Truthy() bool { return n.Value != 0 }

// String is a text value.
type String struct {
	Value string
}

func (s *String) Type() Type      { return STRING }
func (s *String) Display() string { return s.Value }
func (s *String) Truthy() bool    { return s.Value != "" }

// property pairs a property's original-cased name with its value.
type property struct {
	name  string
	value Value
}

// Object is a string-keyed property map. Lookup is case-insensitive:
// the map is keyed by the lowercased name, and the casing of the first
// write is the one redisplayed afterwards.
type Object struct {
	props map[string]property
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{props: make(map[string]property)}
}

// ObjectFrom builds an object from name/value pairs, in order.
func ObjectFrom(pairs ...any) *Object {
	o := NewObject()
	for i := 0; i+1 < len(pairs); i += 2 {
		o.Set(pairs[i].(string), pairs[i+1].(Value))
	}
	return o
}

func (o *Object) Type() Type { return OBJECT }

// Display renders the object as @{k=v; ...} with keys sorted.
func (o *Object) Display() string {
	keys := o.Keys()
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := o.Get(k)
		parts = append(parts, k+"="+v.Display())
	}
	return "@{" + strings.Join(parts, "; ") + "}"
}

func (o *Object) Truthy() bool { return true }

// Get performs a case-insensitive property read.
func (o *Object) Get(name string) (Value, bool) {
	p, ok := o.props[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return p.value, true
}

// Set updates an existing property (keeping its original casing) or
// inserts a new one under the given casing.
func (o *Object) Set(name string, v Value) {
	key := strings.ToLower(name)
	if existing, ok := o.props[key]; ok {
		o.props[key] = property{name: existing.name, value: v}
		return
	}
	o.props[key] = property{name: name, value: v}
}

// Keys returns the property names in their original casing.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.props))
	for _, p := range o.props {
		keys = append(keys, p.name)
	}
	return keys
}

// Len returns the number of properties.
func (o *Object) Len() int { return len(o.props) }

// Array is an ordered sequence of values.
type Array struct {
	Elements []Value
}

func (a *Array) Type() Type { return ARRAY }

// Display renders the array as @(a, b, ...).
func (a *Array) Display() string {
	parts := make([]string, 0, len(a.Elements))
	for _, e := range a.Elements {
		parts = append(parts, e.Display())
	}
	return "@(" + strings.Join(parts, ", ") + ")"
}

func (a *Array) Truthy() bool { return len(a.Elements) > 0 }

// Function is a named, first-class user function binding.
type Function struct {
	Name       string
	Parameters []*ast.Parameter
	Body       *ast.BlockStatement
}

func (f *Function) Type() Type { return FUNCTION }

func (f *Function) Display() string {
	params := make([]string, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		params = append(params, p.String())
	}
	return "function " + f.Name + "(" + strings.Join(params, ", ") + ")"
}

func (f *Function) Truthy() bool { return true }

// ScriptBlock is an unnamed, storable block of statements.
type ScriptBlock struct {
	Body *ast.BlockStatement
}

func (sb *ScriptBlock) Type() Type      { return SCRIPT_BLOCK }
func (sb *ScriptBlock) Display() string { return sb.Body.String() }
func (sb *ScriptBlock) Truthy() bool    { return true }

// ToNumber coerces a value to a float64. Strings parse as float
// literals, booleans map to 1/0; other types do not coerce.
func ToNumber(v Value) (float64, bool) {
	switch v := v.(type) {
	case *Number:
		return v.Value, true
	case *String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case *Boolean:
		if v.Value {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Equal implements -eq: same-type comparison for Null, Boolean and
// Number, case-insensitive for Strings, false across any other pairing.
func Equal(left, right Value) bool {
	switch l := left.(type) {
	case *Null:
		_, ok := right.(*Null)
		return ok
	case *Boolean:
		r, ok := right.(*Boolean)
		return ok && l.Value == r.Value
	case *Number:
		r, ok := right.(*Number)
		return ok && l.Value == r.Value
	case *String:
		r, ok := right.(*String)
		return ok && strings.EqualFold(l.Value, r.Value)
	default:
		return false
	}
}

// GetProperty reads a property off a value. Objects resolve their own
// properties; Arrays and Strings expose Count/Length.
func GetProperty(v Value, name string) (Value, bool) {
	switch v := v.(type) {
	case *Object:
		return v.Get(name)
	case *Array:
		if strings.EqualFold(name, "Count") || strings.EqualFold(name, "Length") {
			return &Number{Value: float64(len(v.Elements))}, true
		}
		return nil, false
	case *String:
		if strings.EqualFold(name, "Length") {
			return &Number{Value: float64(len(v.Value))}, true
		}
		return nil, false
	default:
		return nil, false
	}
}
