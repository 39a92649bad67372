package evaluator

import (
	"testing"

	"github.com/opsh-lang/opsh/pkg/opsh/commands"
	serrors "github.com/opsh-lang/opsh/pkg/opsh/errors"
	"github.com/opsh-lang/opsh/pkg/opsh/lexer"
	"github.com/opsh-lang/opsh/pkg/opsh/parser"
	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// Helper to parse and evaluate opsh code
func testEval(t *testing.T, input string) (value.Value, *serrors.ScriptError) {
	t.Helper()

	l := lexer.New(input)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.StructuredErrors(); len(errs) > 0 {
		t.Fatalf("parse error for %q: %s", input, errs[0].Message)
	}

	e := New(commands.DefaultRegistry())
	e.Warn = func(string) {}
	return e.Eval(program)
}

func mustEval(t *testing.T, input string) value.Value {
	t.Helper()

	v, err := testEval(t, input)
	if err != nil {
		t.Fatalf("eval error for %q: %s", input, err.Message)
	}
	return v
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"5 + 3", "8"},
		{"10 - 4", "6"},
		{"6 * 7", "42"},
		{"10 / 4", "2.5"},
		{"10 % 3", "1"},
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"-5 + 8", "3"},
		{"0.1 + 0.2 -gt 0.3", "True"},
		{"\"3\" + 2", "32"},
		{"2 + \"3\"", "23"},
		{"true + 1", "2"},
	}

	for i, tt := range tests {
		v := mustEval(t, tt.input)
		if got := v.Display(); got != tt.expected {
			t.Errorf("tests[%d] (%q) - expected %q, got %q", i, tt.input, tt.expected, got)
		}
	}
}

func TestStringConcatenation(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"foo" + "bar"`, "foobar"},
		{`"n = " + 5`, "n = 5"},
		{`"b = " + true`, "b = True"},
		{`"a = " + @(1, 2)`, "a = @(1, 2)"},
	}

	for i, tt := range tests {
		v := mustEval(t, tt.input)
		s, ok := v.(*value.String)
		if !ok {
			t.Fatalf("tests[%d] - expected String, got %s", i, v.Type())
		}
		if s.Value != tt.expected {
			t.Errorf("tests[%d] - expected %q, got %q", i, tt.expected, s.Value)
		}
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"5 -eq 5", true},
		{"5 -eq 6", false},
		{`"Hello" -eq "hello"`, true},
		{`5 -eq "5"`, false},
		{"5 -ne 6", true},
		{"5 -gt 3", true},
		{"3 -gt 5", false},
		{"3 -lt 5", true},
		{"5 -ge 5", true},
		{"5 -le 4", false},
		{`"10" -gt 9`, true},
	}

	for i, tt := range tests {
		v := mustEval(t, tt.input)
		b, ok := v.(*value.Boolean)
		if !ok {
			t.Fatalf("tests[%d] (%q) - expected Boolean, got %s", i, tt.input, v.Type())
		}
		if b.Value != tt.expected {
			t.Errorf("tests[%d] (%q) - expected %v, got %v", i, tt.input, tt.expected, b.Value)
		}
	}
}

func TestVariables(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"$x = 5\n$x", "5"},
		{"$x = 5\n$X", "5"},
		{"$x = 5\n$x = $x + 1\n$x", "6"},
		{"$undefined", ""},
		{"$x = 10\n\"value: $x\"", "value: 10"},
		{"\"missing: [$nope]\"", "missing: []"},
	}

	for i, tt := range tests {
		v := mustEval(t, tt.input)
		if got := v.Display(); got != tt.expected {
			t.Errorf("tests[%d] (%q) - expected %q, got %q", i, tt.input, tt.expected, got)
		}
	}
}

func TestIfStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`if (true) { "yes" }`, "yes"},
		{`if (false) { "yes" }`, ""},
		{`if (false) { "yes" } else { "no" }`, "no"},
		{`$x = 7
if ($x -gt 10) { "big" } elseif ($x -gt 5) { "medium" } else { "small" }`, "medium"},
		{`if (0) { "t" } else { "f" }`, "f"},
		{`if ("") { "t" } else { "f" }`, "f"},
		{`if (@()) { "t" } else { "f" }`, "f"},
		{`if (@{}) { "t" } else { "f" }`, "t"},
	}

	for i, tt := range tests {
		v := mustEval(t, tt.input)
		if got := v.Display(); got != tt.expected {
			t.Errorf("tests[%d] - expected %q, got %q", i, tt.expected, got)
		}
	}
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"function Add($a, $b) { return $a + $b }\nAdd 5 10", "15"},
		{"function Add($a, $b) { $a + $b }\nAdd 5 10", "15"},
		{"function Add($a, $b = 2) { $a + $b }\nAdd 5", "7"},
		{"function Add($a, $b) { $a + $b }\nadd 5 10", "15"},
		{"function Greet($name) { \"hi $name\" }\nGreet \"ada\"", "hi ada"},
		{"function F($a) { return $a\n\"never\" }\nF 1", "1"},
		{"function F() { if (true) { return 42 }\n0 }\nF", "42"},
	}

	for i, tt := range tests {
		v := mustEval(t, tt.input)
		if got := v.Display(); got != tt.expected {
			t.Errorf("tests[%d] - expected %q, got %q", i, tt.expected, got)
		}
	}
}

func TestFunctionScoping(t *testing.T) {
	// Parameters shadow; plain assignment inside the body updates the
	// enclosing binding when one exists.
	input := `$x = 1
function Bump() { $x = $x + 1 }
Bump
$x`
	v := mustEval(t, input)
	if v.Display() != "2" {
		t.Errorf("expected 2, got %s", v.Display())
	}
}

func TestGlobalQualifier(t *testing.T) {
	input := `function Set() { $global:flag = 42 }
Set
$flag`
	v := mustEval(t, input)
	if v.Display() != "42" {
		t.Errorf("expected 42, got %s", v.Display())
	}
}

func TestNamedArgumentWarning(t *testing.T) {
	l := lexer.New("function F($a) { $a }\nF -a 5")
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.StructuredErrors(); len(errs) > 0 {
		t.Fatalf("parse error: %s", errs[0].Message)
	}

	var warned []string
	e := New(commands.DefaultRegistry())
	e.Warn = func(msg string) { warned = append(warned, msg) }

	if _, err := e.Eval(program); err != nil {
		t.Fatalf("eval error: %s", err.Message)
	}
	if len(warned) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warned))
	}
}

func TestMemberAccess(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`$o = @{Name = "chrome"; CPU = 15.7}
$o.Name`, "chrome"},
		{`$o = @{Name = "chrome"}
$o.NAME`, "chrome"},
		{`$a = @(1, 2, 3)
$a.Count`, "3"},
		{`"hello".Length`, "5"},
	}

	for i, tt := range tests {
		v := mustEval(t, tt.input)
		if got := v.Display(); got != tt.expected {
			t.Errorf("tests[%d] - expected %q, got %q", i, tt.expected, got)
		}
	}
}

func TestPipelines(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"@(1, 2, 3) | Write-Output", "@(1, 2, 3)"},
		{"@(1, 2, 3) | { $_ * 2 }", "@(2, 4, 6)"},
		{"@(1, 2, 3) | { $_ * 2 } | { $_ + 1 }", "@(3, 5, 7)"},
		{"@(3, 1, 2) | Sort-Object", "@(1, 2, 3)"},
		{"@(3, 1, 2) | Sort-Object -Descending true", "@(3, 2, 1)"},
		{"@(3, 1, 2) | Sort-Object -Descending", "@(3, 2, 1)"},
		{"@(1) | { $_ + 41 }", "42"},
		{"5 | { $_ * 2 }", "10"},
		{"@(1, 2, 3) | $_", "@(1, 2, 3)"},
	}

	for i, tt := range tests {
		v := mustEval(t, tt.input)
		if got := v.Display(); got != tt.expected {
			t.Errorf("tests[%d] (%q) - expected %q, got %q", i, tt.input, tt.expected, got)
		}
	}
}

func TestPipelineFold(t *testing.T) {
	// Zero results fold to Null, one to the value itself.
	v := mustEval(t, `@(1, 2, 3) | Where-Object { $_ -gt 10 }`)
	if _, ok := v.(*value.Null); !ok {
		t.Fatalf("expected Null for empty result, got %s", v.Type())
	}

	v = mustEval(t, `@(1, 2, 3) | Where-Object { $_ -gt 2 }`)
	if n, ok := v.(*value.Number); !ok || n.Value != 3 {
		t.Fatalf("expected 3, got %s", v.Display())
	}
}

func TestProcessPipeline(t *testing.T) {
	input := `Get-Process | Where-Object { $_.CPU -gt 10 } | Select-Object Name, CPU`

	v := mustEval(t, input)
	arr, ok := v.(*value.Array)
	if !ok {
		t.Fatalf("expected Array, got %s", v.Type())
	}
	if len(arr.Elements) != 2 {
		t.Fatalf("expected 2 results, got %d", len(arr.Elements))
	}

	for i, want := range []string{"chrome", "pwsh"} {
		obj, ok := arr.Elements[i].(*value.Object)
		if !ok {
			t.Fatalf("result[%d] - expected Object, got %s", i, arr.Elements[i].Type())
		}
		if obj.Len() != 2 {
			t.Errorf("result[%d] - expected only Name and CPU, got %d properties", i, obj.Len())
		}
		name, _ := obj.Get("Name")
		if name == nil || name.Display() != want {
			t.Errorf("result[%d] - expected Name %q, got %v", i, want, name)
		}
		if _, ok := obj.Get("Id"); ok {
			t.Errorf("result[%d] - Id should have been projected away", i)
		}
	}
}

func TestScriptBlockValue(t *testing.T) {
	v := mustEval(t, `$b = { $_ * 2 }
$b`)
	if _, ok := v.(*value.ScriptBlock); !ok {
		t.Fatalf("expected ScriptBlock, got %s", v.Type())
	}

	v = mustEval(t, `$b = { $_ * 2 }
@(1, 2) | $b`)
	if v.Display() != "@(2, 4)" {
		t.Errorf("expected @(2, 4), got %s", v.Display())
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		input        string
		expectedCode string
	}{
		{"10 / 0", "MATH-0001"},
		{"10 % 0", "MATH-0001"},
		{"10 / (5 - 5)", "MATH-0001"},
		{"5 - \"abc\"", "TYPE-0001"},
		{"@(1) -gt 2", "TYPE-0001"},
		{"-\"abc\"", "TYPE-0002"},
		{"Get-Prcoess", "UNDEF-0001"},
		{"NoSuchThing", "UNDEF-0001"},
		{"return 5", "STATE-0001"},
		{`$o = @{A = 1}
$o.B`, "PROP-0001"},
		{`"hi".Missing`, "PROP-0001"},
	}

	for i, tt := range tests {
		_, err := testEval(t, tt.input)
		if err == nil {
			t.Fatalf("tests[%d] (%q) - expected error, got none", i, tt.input)
		}
		if err.Code != tt.expectedCode {
			t.Errorf("tests[%d] (%q) - expected %s, got %s (%s)",
				i, tt.input, tt.expectedCode, err.Code, err.Message)
		}
	}
}

func TestUnknownCommandSuggestion(t *testing.T) {
	_, err := testEval(t, "Get-Procss")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Hints) == 0 {
		t.Fatal("expected a Did-you-mean hint")
	}
}

func TestDivisionByZeroBeforeTypeCheck(t *testing.T) {
	// The zero check fires before the operand coerces.
	_, err := testEval(t, `"abc" / 0`)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Code != "MATH-0001" {
		t.Errorf("expected MATH-0001, got %s", err.Code)
	}
}

func TestHashAndArrayLiterals(t *testing.T) {
	v := mustEval(t, `@{Name = "chrome"; CPU = 15.7}`)
	obj, ok := v.(*value.Object)
	if !ok {
		t.Fatalf("expected Object, got %s", v.Type())
	}
	if obj.Display() != "@{CPU=15.7; Name=chrome}" {
		t.Errorf("display wrong: %s", obj.Display())
	}

	v = mustEval(t, `@(1 + 1, "two", @(3))`)
	arr, ok := v.(*value.Array)
	if !ok {
		t.Fatalf("expected Array, got %s", v.Type())
	}
	if len(arr.Elements) != 3 {
		t.Errorf("expected 3 elements, got %d", len(arr.Elements))
	}
	if arr.Elements[0].Display() != "2" {
		t.Errorf("expected evaluated element 2, got %s", arr.Elements[0].Display())
	}
}

func TestStatePersistsAcrossEvals(t *testing.T) {
	e := New(commands.DefaultRegistry())

	run := func(src string) value.Value {
		l := lexer.New(src)
		p := parser.New(l)
		program := p.ParseProgram()
		if errs := p.StructuredErrors(); len(errs) > 0 {
			t.Fatalf("parse error: %s", errs[0].Message)
		}
		v, err := e.Eval(program)
		if err != nil {
			t.Fatalf("eval error: %s", err.Message)
		}
		return v
	}

	run("$x = 5")
	if v := run("$x + 1"); v.Display() != "6" {
		t.Errorf("expected 6, got %s", v.Display())
	}
	run("function Twice($n) { $n * 2 }")
	if v := run("Twice 21"); v.Display() != "42" {
		t.Errorf("expected 42, got %s", v.Display())
	}
}
