// Package errors provides structured error types for the opsh language.
//
// It defines ScriptError, a unified error type covering lexer, parser and
// runtime failures, with rich metadata for display and programmatic
// handling, plus a catalog of templated error definitions.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and rendering.
type ErrorClass string

const (
	ClassLex       ErrorClass = "lex"       // Tokenizer errors
	ClassParse     ErrorClass = "parse"     // Parser/syntax errors
	ClassType      ErrorClass = "type"      // Type mismatches
	ClassArity     ErrorClass = "arity"     // Wrong argument count/shape
	ClassUndefined ErrorClass = "undefined" // Unknown command or function
	ClassMath      ErrorClass = "math"      // Arithmetic failures
	ClassProperty  ErrorClass = "property"  // Property access failures
	ClassOperator  ErrorClass = "operator"  // Invalid operations (incl. command I/O)
	ClassState     ErrorClass = "state"     // Invalid state (return outside function, ...)
)

// ScriptError represents any error from scanning, parsing or evaluation.
type ScriptError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "TYPE-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`  // File path (if known)
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return e.String()
}

// String returns a single-line representation of the error.
func (e *ScriptError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *ScriptError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassLex:
		sb.WriteString("Lexer error")
	case ClassParse:
		sb.WriteString("Parse error")
	default:
		sb.WriteString("Runtime error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Use: ")
		} else {
			sb.WriteString(" or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *ScriptError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *ScriptError) WithFile(file string) *ScriptError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *ScriptError) WithPosition(line, column int) *ScriptError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsLexError reports whether this is a tokenizer error.
func (e *ScriptError) IsLexError() bool {
	return e.Class == ClassLex
}

// IsParseError reports whether this is a parser error.
func (e *ScriptError) IsParseError() bool {
	return e.Class == ClassParse
}

// IsRuntimeError reports whether this is an evaluation error.
func (e *ScriptError) IsRuntimeError() bool {
	return e.Class != ClassLex && e.Class != ClassParse
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Lexer errors (LEX-0xxx)
	// ========================================
	"LEX-0001": {
		Class:    ClassLex,
		Template: "unexpected character '{{.Char}}'",
	},
	"LEX-0002": {
		Class:    ClassLex,
		Template: "unterminated string",
		Hints:    []string{"close the string with a matching quote"},
	},
	"LEX-0003": {
		Class:    ClassLex,
		Template: "invalid number literal: {{.Literal}}",
	},
	"LEX-0004": {
		Class:    ClassLex,
		Template: "invalid token: {{.Literal}}",
	},

	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected end of input",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "invalid expression starting at '{{.Token}}'",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "invalid statement starting at '{{.Token}}'",
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "invalid operator '{{.Operator}}'",
		Hints:    []string{"comparison operators are -eq, -ne, -gt, -lt, -ge, -le"},
	},

	// ========================================
	// Type errors (TYPE-0xxx)
	// ========================================
	"TYPE-0001": {
		Class:    ClassType,
		Template: "{{.Operation}} expected {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "cannot convert {{.Got}} to a number",
	},

	// ========================================
	// Arity errors (ARITY-0xxx)
	// ========================================
	"ARITY-0001": {
		Class:    ClassArity,
		Template: "`{{.Command}}` expects {{.Want}}, got {{.Got}}",
	},

	// ========================================
	// Undefined errors (UNDEF-0xxx)
	// ========================================
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "unknown command or function: {{.Name}}",
	},

	// ========================================
	// Math errors (MATH-0xxx)
	// ========================================
	"MATH-0001": {
		Class:    ClassMath,
		Template: "division by zero",
	},

	// ========================================
	// Property errors (PROP-0xxx)
	// ========================================
	"PROP-0001": {
		Class:    ClassProperty,
		Template: "invalid property access: {{.Property}} on {{.Type}}",
	},

	// ========================================
	// Operator / invalid-operation errors (OP-0xxx)
	// ========================================
	"OP-0001": {
		Class:    ClassOperator,
		Template: "invalid operation: {{.Detail}}",
	},

	// ========================================
	// State errors (STATE-0xxx)
	// ========================================
	"STATE-0001": {
		Class:    ClassState,
		Template: "return statement outside of a function",
	},
}

// New creates a ScriptError from a catalog code and template data.
func New(code string, data map[string]any) *ScriptError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := fmt.Sprintf("unknown error code %s", code)
		return &ScriptError{
			Class:   ClassOperator,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &ScriptError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a ScriptError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *ScriptError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSimple creates an error without consulting the catalog.
func NewSimple(class ErrorClass, message string) *ScriptError {
	return &ScriptError{
		Class:   class,
		Message: message,
	}
}

// NewInvalidOperation wraps a collaborator failure (I/O, bad arguments)
// as an OP-0001 error with a plain message.
func NewInvalidOperation(detail string) *ScriptError {
	return New("OP-0001", map[string]any{"Detail": detail})
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// editThreshold returns how many edits still count as "close" for a word.
func editThreshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch returns the candidate closest to input, or "" when
// nothing is within the edit-distance threshold. Matching ignores case.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	bestMatch := ""
	bestDistance := -1

	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	for _, candidate := range sorted {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= 0 || bestDistance > editThreshold(input) {
		return ""
	}

	return bestMatch
}

// NewUnknownCommand creates an unknown-command error with an optional
// "Did you mean?" hint drawn from the registered command names.
func NewUnknownCommand(name string, available []string) *ScriptError {
	err := New("UNDEF-0001", map[string]any{"Name": name})

	if suggestion := FindClosestMatch(name, available); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}
