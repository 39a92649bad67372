// Package commands defines the command contract consumed by the
// evaluator - Context, Invoker, Command and the case-insensitive
// Registry - plus the built-in command set registered by RegisterAll.
package commands

import (
	"sort"
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/errors"
	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// Context is the per-invocation bundle passed to a command: the
// pipeline input sequence, the named parameters and the ordered
// positional arguments.
type Context struct {
	Input []value.Value
	Args  []value.Value

	params map[string]namedParam
}

// namedParam keeps the caller's casing next to the value.
type namedParam struct {
	name  string
	value value.Value
}

// NewContext builds a context for the given pipeline input.
func NewContext(input []value.Value) *Context {
	return &Context{Input: input, params: make(map[string]namedParam)}
}

// SetParam stores a named parameter. Lookup is case-insensitive.
func (c *Context) SetParam(name string, v value.Value) {
	c.params[strings.ToLower(name)] = namedParam{name: name, value: v}
}

// Param performs a case-insensitive named-parameter lookup.
func (c *Context) Param(name string) (value.Value, bool) {
	p, ok := c.params[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return p.value, true
}

// Switch interprets an optional parameter as a boolean flag. Absent
// means false; booleans and numbers coerce; the usual true/false
// spellings are accepted for strings.
func (c *Context) Switch(name string) (bool, error) {
	v, ok := c.Param(name)
	if !ok {
		return false, nil
	}

	switch v := v.(type) {
	case *value.Boolean:
		return v.Value, nil
	case *value.Number:
		return v.Value != 0, nil
	case *value.String:
		switch strings.ToLower(strings.TrimSpace(v.Value)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		}
	}
	return false, errors.NewInvalidOperation("invalid boolean value: " + v.Display())
}

// PropertyList interprets a parameter as one or more property names: a
// single string, or an array of strings.
func (c *Context) PropertyList(name string) []string {
	v, ok := c.Param(name)
	if !ok {
		return nil
	}

	switch v := v.(type) {
	case *value.String:
		return []string{v.Value}
	case *value.Array:
		var names []string
		for _, e := range v.Elements {
			if s, ok := e.(*value.String); ok {
				names = append(names, s.Value)
			}
		}
		return names
	default:
		return []string{v.Display()}
	}
}

// PositionalProperties reads property names from the positional
// arguments, for the `$items | Sort-Object Name, CPU` form.
func (c *Context) PositionalProperties() []string {
	var names []string
	for _, a := range c.Args {
		if s, ok := a.(*value.String); ok {
			names = append(names, s.Value)
		}
	}
	return names
}

// ScriptBlockArg returns the first positional argument when it is a
// script block.
func (c *Context) ScriptBlockArg() (*value.ScriptBlock, bool) {
	if len(c.Args) == 0 {
		return nil, false
	}
	sb, ok := c.Args[0].(*value.ScriptBlock)
	return sb, ok
}

// UnrollArgs flattens the positional arguments, expanding one level of
// arrays, for standalone forms like `Sort-Object @(3,1,2)`.
func (c *Context) UnrollArgs() []value.Value {
	var out []value.Value
	for _, a := range c.Args {
		if arr, ok := a.(*value.Array); ok {
			out = append(out, arr.Elements...)
			continue
		}
		out = append(out, a)
	}
	return out
}

// invalidOperation wraps a command-level misuse as a runtime error.
func invalidOperation(detail string) error {
	return errors.NewInvalidOperation(detail)
}

// Invoker is the narrow re-entrant capability handed to commands: it
// invokes a script block with one pipeline item bound to $_, exactly
// as the pipeline machinery does. It is the only evaluator surface a
// command can reach.
type Invoker interface {
	InvokeBlock(block *value.ScriptBlock, item value.Value) (value.Value, error)
}

// Command is the contract every external command satisfies.
type Command interface {
	Name() string
	Run(ctx *Context, inv Invoker) ([]value.Value, error)
}

// Registry is the case-insensitive name to command lookup table.
// The last registration for a name wins.
type Registry struct {
	commands map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command under its own name.
func (r *Registry) Register(cmd Command) {
	r.commands[strings.ToLower(cmd.Name())] = cmd
}

// Get performs a case-insensitive command lookup.
func (r *Registry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for _, cmd := range r.commands {
		names = append(names, cmd.Name())
	}
	sort.Strings(names)
	return names
}
