// Package scope implements the nested, case-insensitive variable
// environments of the evaluator: single scopes, the scope stack, and
// scope-qualifier resolution (global:, local:, script:).
package scope

import (
	"sort"
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// binding pairs a variable's original-cased name with its value.
// The casing of the first write is the one redisplayed afterwards.
type binding struct {
	name  string
	value value.Value
}

// Scope is a single variable environment with case-insensitive lookup.
// The map is keyed by the lowercased name for consistent-time access.
type Scope struct {
	vars map[string]binding
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]binding)}
}

// Get performs a case-insensitive variable read.
func (s *Scope) Get(name string) (value.Value, bool) {
	b, ok := s.vars[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return b.value, true
}

// Set updates an existing binding (keeping its original casing) or
// creates a new one under the given casing.
func (s *Scope) Set(name string, v value.Value) {
	key := strings.ToLower(name)
	if existing, ok := s.vars[key]; ok {
		s.vars[key] = binding{name: existing.name, value: v}
		return
	}
	s.vars[key] = binding{name: name, value: v}
}

// Has reports whether the scope holds a binding for name.
func (s *Scope) Has(name string) bool {
	_, ok := s.vars[strings.ToLower(name)]
	return ok
}

// Names returns the bound names in their original casing, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for _, b := range s.vars {
		names = append(names, b.name)
	}
	sort.Strings(names)
	return names
}

// Stack is the ordered list of scopes: index 0 is the global scope,
// the last entry is the current (innermost) one.
type Stack struct {
	scopes []*Scope
}

// NewStack returns a stack holding only the global scope.
func NewStack() *Stack {
	return &Stack{scopes: []*Scope{NewScope()}}
}

// Depth returns the number of scopes on the stack.
func (st *Stack) Depth() int { return len(st.scopes) }

// Push appends a fresh innermost scope.
func (st *Stack) Push() {
	st.scopes = append(st.scopes, NewScope())
}

// Pop removes the innermost scope. The global scope is never removed;
// popping at depth one is a no-op reporting failure.
func (st *Stack) Pop() bool {
	if len(st.scopes) <= 1 {
		return false
	}
	st.scopes = st.scopes[:len(st.scopes)-1]
	return true
}

// Global returns the outermost scope.
func (st *Stack) Global() *Scope { return st.scopes[0] }

// Current returns the innermost scope.
func (st *Stack) Current() *Scope { return st.scopes[len(st.scopes)-1] }

// Get searches innermost to outermost and returns the first match.
func (st *Stack) Get(name string) (value.Value, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if v, ok := st.scopes[i].Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Set searches innermost to outermost for an existing binding to
// update; absent any match it creates the binding in the innermost
// scope. This is what lets a function body mutate enclosing variables
// unless it shadows them with Define first.
func (st *Stack) Set(name string, v value.Value) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if st.scopes[i].Has(name) {
			st.scopes[i].Set(name, v)
			return
		}
	}
	st.Current().Set(name, v)
}

// Define writes to the innermost scope unconditionally, shadowing any
// outer binding. Used to bind function parameters and $_.
func (st *Stack) Define(name string, v value.Value) {
	st.Current().Set(name, v)
}

// Qualifier selects which scope a qualified variable name targets.
type Qualifier int

const (
	QualifierNone Qualifier = iota
	QualifierGlobal
	QualifierLocal
)

// SplitQualifier parses an optional scope qualifier off a variable
// name. global: and script: both target the global scope; local:
// targets the innermost. An unrecognized prefix before a colon is part
// of the literal variable name, not an error.
func SplitQualifier(name string) (Qualifier, string) {
	idx := strings.Index(name, ":")
	if idx < 0 {
		return QualifierNone, name
	}

	switch strings.ToLower(name[:idx]) {
	case "global", "script":
		return QualifierGlobal, name[idx+1:]
	case "local":
		return QualifierLocal, name[idx+1:]
	default:
		return QualifierNone, name
	}
}

// GetQualified resolves a possibly qualified variable name.
func (st *Stack) GetQualified(name string) (value.Value, bool) {
	qualifier, bare := SplitQualifier(name)
	switch qualifier {
	case QualifierGlobal:
		return st.Global().Get(bare)
	case QualifierLocal:
		return st.Current().Get(bare)
	default:
		return st.Get(bare)
	}
}

// SetQualified assigns through a possibly qualified variable name.
func (st *Stack) SetQualified(name string, v value.Value) {
	qualifier, bare := SplitQualifier(name)
	switch qualifier {
	case QualifierGlobal:
		st.Global().Set(bare, v)
	case QualifierLocal:
		st.Current().Set(bare, v)
	default:
		st.Set(bare, v)
	}
}
