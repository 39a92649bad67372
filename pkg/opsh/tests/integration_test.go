// End-to-end tests: source text through the lexer, parser and
// evaluator, checked against the displayed results.
package tests

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/opsh-lang/opsh/pkg/opsh/commands"
	serrors "github.com/opsh-lang/opsh/pkg/opsh/errors"
	"github.com/opsh-lang/opsh/pkg/opsh/evaluator"
	"github.com/opsh-lang/opsh/pkg/opsh/lexer"
	"github.com/opsh-lang/opsh/pkg/opsh/parser"
	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

func run(t *testing.T, source string) (value.Value, *serrors.ScriptError) {
	t.Helper()

	l := lexer.New(source)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.StructuredErrors(); len(errs) > 0 {
		return nil, errs[0]
	}

	e := evaluator.New(commands.DefaultRegistry())
	e.Warn = func(string) {}
	return e.Eval(program)
}

func TestScripts(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "arithmetic",
			source:   "5 + 3",
			expected: "8",
		},
		{
			name:     "variable roundtrip",
			source:   "$x = 5\n$x",
			expected: "5",
		},
		{
			name: "function call",
			source: `function Add($a, $b) { return $a + $b }
Add 5 10`,
			expected: "15",
		},
		{
			name:     "sort descending",
			source:   "@(3, 1, 2) | Sort-Object -Descending true",
			expected: "@(3, 2, 1)",
		},
		{
			name: "filter and project",
			source: `Get-Process | Where-Object { $_.CPU -gt 10 } | Select-Object Name, CPU | ForEach-Object -MemberName Name`,
			expected: "@(chrome, pwsh)",
		},
		{
			name: "group and count",
			source: `@("a", "b", "a") | Group-Object | ForEach-Object { $_.Count }`,
			expected: "@(2, 1)",
		},
		{
			name: "interpolation",
			source: `$total = 3 * 7
"the answer is $total"`,
			expected: "the answer is 21",
		},
		{
			name: "scope qualifier",
			source: `function Track() { $global:hits = 1 }
Track
$hits`,
			expected: "1",
		},
		{
			name: "stored script block",
			source: `$double = { $_ * 2 }
@(1, 2, 3) | $double | Sort-Object -Descending`,
			expected: "@(6, 4, 2)",
		},
		{
			name: "elseif chain",
			source: `$score = 72
if ($score -ge 90) { "A" } elseif ($score -ge 70) { "B" } else { "C" }`,
			expected: "B",
		},
		{
			name: "where by property",
			source: `@(@{Name = "a"; Active = true}, @{Name = "b"; Active = false}) | Where-Object -Property Active | ForEach-Object { $_.Name }`,
			expected: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := run(t, tt.source)
			if err != nil {
				t.Fatalf("unexpected error: %s", err.Message)
			}
			if diff := cmp.Diff(tt.expected, v.Display()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScriptErrors(t *testing.T) {
	tests := []struct {
		name         string
		source       string
		expectedCode string
		header       string
	}{
		{
			name:         "division by zero",
			source:       "10 / 0",
			expectedCode: "MATH-0001",
			header:       "Runtime error",
		},
		{
			name:         "unterminated string",
			source:       `$msg = "oops`,
			expectedCode: "LEX-0002",
			header:       "Lexer error",
		},
		{
			name:         "stray parameter",
			source:       "5 -foo 3",
			expectedCode: "PARSE-0005",
			header:       "Parse error",
		},
		{
			name:         "unknown command",
			source:       "Get-Procss",
			expectedCode: "UNDEF-0001",
			header:       "Runtime error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.source)
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if err.Code != tt.expectedCode {
				t.Fatalf("expected %s, got %s (%s)", tt.expectedCode, err.Code, err.Message)
			}
			if !strings.HasPrefix(err.PrettyString(), tt.header) {
				t.Errorf("expected header %q, got %q", tt.header, err.PrettyString())
			}
		})
	}
}

func TestErrorPositions(t *testing.T) {
	_, err := run(t, "$x = 1\n10 / 0")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Line != 2 {
		t.Errorf("expected error on line 2, got %d", err.Line)
	}
}
