// Package evaluator walks the AST. It owns one scope stack and a
// reference to the command registry, and drives statement evaluation,
// batch pipeline execution, function calls and script-block invocation.
//
// Statement evaluation is three-way: a value, a control-flow marker
// (normal or early return), and an error. Only function-call and
// script-block machinery converts an early return back into a value; a
// return that escapes to top level is an error. Undefined variables
// evaluate to Null.
package evaluator

import (
	"fmt"
	"os"
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/ast"
	"github.com/opsh-lang/opsh/pkg/opsh/commands"
	serrors "github.com/opsh-lang/opsh/pkg/opsh/errors"
	"github.com/opsh-lang/opsh/pkg/opsh/lexer"
	"github.com/opsh-lang/opsh/pkg/opsh/scope"
	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// flow marks how a statement finished.
type flow int

const (
	flowNormal flow = iota
	flowReturn
)

// pipelineVariable is the implicit per-item variable bound in
// script-block invocation and per-item expression stages.
const pipelineVariable = "_"

// Evaluator executes programs against one scope stack and one command
// registry. Scopes persist across Eval calls, which is what keeps a
// REPL session's variables alive.
type Evaluator struct {
	scopes   *scope.Stack
	registry *commands.Registry

	// Warn receives non-fatal diagnostics (e.g. named arguments passed
	// to a user function). Defaults to stderr.
	Warn func(msg string)
}

// New creates an evaluator over the given command registry.
func New(registry *commands.Registry) *Evaluator {
	if registry == nil {
		registry = commands.NewRegistry()
	}
	return &Evaluator{
		scopes:   scope.NewStack(),
		registry: registry,
		Warn: func(msg string) {
			fmt.Fprintln(os.Stderr, "Warning: "+msg)
		},
	}
}

// Scopes exposes the scope stack (used by the shell front end to list
// variables).
func (e *Evaluator) Scopes() *scope.Stack { return e.scopes }

// Registry returns the command registry.
func (e *Evaluator) Registry() *commands.Registry { return e.registry }

// Eval executes a program and returns the value of its last statement.
func (e *Evaluator) Eval(program *ast.Program) (value.Value, *serrors.ScriptError) {
	var result value.Value = value.NULL

	for _, stmt := range program.Statements {
		v, fl, err := e.evalStatement(stmt)
		if err != nil {
			return nil, err
		}
		if fl == flowReturn {
			tok := stmtToken(stmt)
			return nil, serrors.NewWithPosition("STATE-0001", tok.Line, tok.Column, nil)
		}
		result = v
	}

	return result, nil
}

// stmtToken digs out a statement's leading token for error positions.
func stmtToken(stmt ast.Statement) lexer.Token {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return s.Token
	case *ast.AssignmentStatement:
		return s.Token
	case *ast.FunctionStatement:
		return s.Token
	case *ast.IfStatement:
		return s.Token
	case *ast.ReturnStatement:
		return s.Token
	case *ast.PipelineStatement:
		return s.Token
	case *ast.BlockStatement:
		return s.Token
	default:
		return lexer.Token{}
	}
}

func (e *Evaluator) evalStatement(stmt ast.Statement) (value.Value, flow, *serrors.ScriptError) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		v, err := e.evalExpression(s.Expression)
		return v, flowNormal, err

	case *ast.AssignmentStatement:
		v, err := e.evalExpression(s.Value)
		if err != nil {
			return nil, flowNormal, err
		}
		e.scopes.SetQualified(s.Name, v)
		return value.NULL, flowNormal, nil

	case *ast.FunctionStatement:
		fn := &value.Function{Name: s.Name, Parameters: s.Parameters, Body: s.Body}
		e.scopes.Define(s.Name, fn)
		return value.NULL, flowNormal, nil

	case *ast.IfStatement:
		return e.evalIfStatement(s)

	case *ast.ReturnStatement:
		var v value.Value = value.NULL
		if s.Value != nil {
			var err *serrors.ScriptError
			v, err = e.evalExpression(s.Value)
			if err != nil {
				return nil, flowNormal, err
			}
		}
		return v, flowReturn, nil

	case *ast.PipelineStatement:
		v, err := e.executePipelineStatement(s)
		return v, flowNormal, err

	case *ast.BlockStatement:
		return e.evalScopedBlock(s)

	default:
		return value.NULL, flowNormal, nil
	}
}

// evalIfStatement evaluates exactly one branch, pushing a fresh scope
// around the chosen block. No branch taken yields Null.
func (e *Evaluator) evalIfStatement(s *ast.IfStatement) (value.Value, flow, *serrors.ScriptError) {
	cond, err := e.evalExpression(s.Condition)
	if err != nil {
		return nil, flowNormal, err
	}

	if cond.Truthy() {
		return e.evalScopedBlock(s.Consequence)
	}

	switch alt := s.Alternative.(type) {
	case *ast.IfStatement:
		return e.evalIfStatement(alt)
	case *ast.BlockStatement:
		return e.evalScopedBlock(alt)
	default:
		return value.NULL, flowNormal, nil
	}
}

// evalScopedBlock runs a block inside a pushed scope. The deferred pop
// guarantees the scope unwinds on every exit path, errors included.
func (e *Evaluator) evalScopedBlock(block *ast.BlockStatement) (value.Value, flow, *serrors.ScriptError) {
	e.scopes.Push()
	defer e.scopes.Pop()

	return e.evalBlock(block)
}

// evalBlock runs a block's statements in the current scope, yielding
// the last statement's value. Early returns and errors short-circuit.
func (e *Evaluator) evalBlock(block *ast.BlockStatement) (value.Value, flow, *serrors.ScriptError) {
	var result value.Value = value.NULL

	for _, stmt := range block.Statements {
		v, fl, err := e.evalStatement(stmt)
		if err != nil {
			return nil, flowNormal, err
		}
		if fl == flowReturn {
			return v, flowReturn, nil
		}
		result = v
	}

	return result, flowNormal, nil
}

func (e *Evaluator) evalExpression(expr ast.Expression) (value.Value, *serrors.ScriptError) {
	switch ex := expr.(type) {
	case *ast.NumberLiteral:
		return &value.Number{Value: ex.Value}, nil

	case *ast.StringLiteral:
		return &value.String{Value: ex.Value}, nil

	case *ast.BooleanLiteral:
		return value.FromBool(ex.Value), nil

	case *ast.InterpolatedString:
		return e.evalInterpolation(ex), nil

	case *ast.VariableExpression:
		if v, ok := e.scopes.GetQualified(ex.Name); ok {
			return v, nil
		}
		return value.NULL, nil

	case *ast.ArrayLiteral:
		elements := make([]value.Value, 0, len(ex.Elements))
		for _, el := range ex.Elements {
			v, err := e.evalExpression(el)
			if err != nil {
				return nil, err
			}
			elements = append(elements, v)
		}
		return &value.Array{Elements: elements}, nil

	case *ast.HashLiteral:
		obj := value.NewObject()
		for _, pair := range ex.Pairs {
			v, err := e.evalExpression(pair.Value)
			if err != nil {
				return nil, err
			}
			obj.Set(pair.Key, v)
		}
		return obj, nil

	case *ast.ScriptBlockLiteral:
		return &value.ScriptBlock{Body: ex.Body}, nil

	case *ast.PrefixExpression:
		return e.evalPrefix(ex)

	case *ast.InfixExpression:
		return e.evalInfix(ex)

	case *ast.MemberExpression:
		return e.evalMember(ex)

	case *ast.CallExpression:
		return e.evalCall(ex)

	default:
		return value.NULL, nil
	}
}

// evalInterpolation assembles an interpolated string from its literal
// fragments and the display strings of the named variables. Unresolved
// names substitute an empty string.
func (e *Evaluator) evalInterpolation(is *ast.InterpolatedString) value.Value {
	var sb strings.Builder
	for _, part := range is.Parts {
		if !part.Variable {
			sb.WriteString(part.Value)
			continue
		}
		if v, ok := e.scopes.Get(part.Value); ok {
			sb.WriteString(v.Display())
		}
	}
	return &value.String{Value: sb.String()}
}

func (e *Evaluator) evalPrefix(ex *ast.PrefixExpression) (value.Value, *serrors.ScriptError) {
	right, err := e.evalExpression(ex.Right)
	if err != nil {
		return nil, err
	}

	switch ex.Operator {
	case "-":
		n, ok := value.ToNumber(right)
		if !ok {
			return nil, serrors.NewWithPosition("TYPE-0002", ex.Token.Line, ex.Token.Column, map[string]any{
				"Got": typeName(right),
			})
		}
		return &value.Number{Value: -n}, nil
	case "!":
		return value.FromBool(!right.Truthy()), nil
	default:
		return nil, serrors.NewWithPosition("PARSE-0005", ex.Token.Line, ex.Token.Column, map[string]any{
			"Operator": ex.Operator,
		})
	}
}

func (e *Evaluator) evalInfix(ex *ast.InfixExpression) (value.Value, *serrors.ScriptError) {
	left, err := e.evalExpression(ex.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.evalExpression(ex.Right)
	if err != nil {
		return nil, err
	}

	switch ex.Operator {
	case "+":
		return e.evalAdd(ex, left, right)
	case "-", "*", "/", "%":
		return e.evalArithmetic(ex, left, right)
	case "-eq":
		return value.FromBool(value.Equal(left, right)), nil
	case "-ne":
		return value.FromBool(!value.Equal(left, right)), nil
	case "-gt", "-lt", "-ge", "-le":
		return e.evalComparison(ex, left, right)
	default:
		return nil, serrors.NewWithPosition("PARSE-0005", ex.Token.Line, ex.Token.Column, map[string]any{
			"Operator": ex.Operator,
		})
	}
}

// evalAdd implements the overloaded +: numeric addition, except that a
// String on either side stringifies the other operand and concatenates.
func (e *Evaluator) evalAdd(ex *ast.InfixExpression, left, right value.Value) (value.Value, *serrors.ScriptError) {
	if _, ok := left.(*value.String); ok {
		return &value.String{Value: left.Display() + right.Display()}, nil
	}
	if _, ok := right.(*value.String); ok {
		return &value.String{Value: left.Display() + right.Display()}, nil
	}

	l, lok := value.ToNumber(left)
	r, rok := value.ToNumber(right)
	if !lok || !rok {
		return nil, e.typeMismatch(ex, "+", left, right, lok)
	}
	return &value.Number{Value: l + r}, nil
}

func (e *Evaluator) evalArithmetic(ex *ast.InfixExpression, left, right value.Value) (value.Value, *serrors.ScriptError) {
	l, lok := value.ToNumber(left)
	r, rok := value.ToNumber(right)

	// A zero divisor is reported ahead of any operand type problem.
	if (ex.Operator == "/" || ex.Operator == "%") && rok && r == 0 {
		return nil, serrors.NewWithPosition("MATH-0001", ex.Token.Line, ex.Token.Column, nil)
	}

	if !lok || !rok {
		return nil, e.typeMismatch(ex, ex.Operator, left, right, lok)
	}

	switch ex.Operator {
	case "-":
		return &value.Number{Value: l - r}, nil
	case "*":
		return &value.Number{Value: l * r}, nil
	case "/":
		return &value.Number{Value: l / r}, nil
	case "%":
		return &value.Number{Value: float64(int64(l) % int64(r))}, nil
	}
	return value.NULL, nil
}

func (e *Evaluator) evalComparison(ex *ast.InfixExpression, left, right value.Value) (value.Value, *serrors.ScriptError) {
	l, lok := value.ToNumber(left)
	r, rok := value.ToNumber(right)
	if !lok || !rok {
		return nil, e.typeMismatch(ex, ex.Operator, left, right, lok)
	}

	switch ex.Operator {
	case "-gt":
		return value.FromBool(l > r), nil
	case "-lt":
		return value.FromBool(l < r), nil
	case "-ge":
		return value.FromBool(l >= r), nil
	case "-le":
		return value.FromBool(l <= r), nil
	}
	return value.FALSE, nil
}

// typeMismatch builds a TYPE-0001 naming the operation and the operand
// that failed to coerce.
func (e *Evaluator) typeMismatch(ex *ast.InfixExpression, op string, left, right value.Value, leftOK bool) *serrors.ScriptError {
	bad := left
	if leftOK {
		bad = right
	}
	return serrors.NewWithPosition("TYPE-0001", ex.Token.Line, ex.Token.Column, map[string]any{
		"Operation": op,
		"Expected":  "number",
		"Got":       typeName(bad),
	})
}

func typeName(v value.Value) string {
	return strings.ToLower(string(v.Type()))
}

// evalMember performs a property get. An absent property is an error
// here; the tolerance for absent properties inside projection commands
// lives in those commands, not in the evaluator.
func (e *Evaluator) evalMember(ex *ast.MemberExpression) (value.Value, *serrors.ScriptError) {
	obj, err := e.evalExpression(ex.Object)
	if err != nil {
		return nil, err
	}

	if v, ok := value.GetProperty(obj, ex.Property); ok {
		return v, nil
	}
	return nil, serrors.NewWithPosition("PROP-0001", ex.Token.Line, ex.Token.Column, map[string]any{
		"Property": ex.Property,
		"Type":     typeName(obj),
	})
}

// evalCall resolves a bare call: user functions first, then the
// command registry (with no pipeline input).
func (e *Evaluator) evalCall(call *ast.CallExpression) (value.Value, *serrors.ScriptError) {
	if v, ok := e.scopes.Get(call.Name); ok {
		if fn, ok := v.(*value.Function); ok {
			return e.callFunction(call, fn)
		}
	}

	if _, ok := e.registry.Get(call.Name); ok {
		out, err := e.runCommand(call, nil)
		if err != nil {
			return nil, err
		}
		return foldSequence(out), nil
	}

	scriptErr := serrors.NewUnknownCommand(call.Name, e.callableNames())
	return nil, scriptErr.WithPosition(call.Token.Line, call.Token.Column)
}

// callableNames collects registered commands and in-scope function
// names for "Did you mean?" hints.
func (e *Evaluator) callableNames() []string {
	names := e.registry.Names()
	for _, n := range e.scopes.Global().Names() {
		if v, ok := e.scopes.Get(n); ok {
			if _, isFn := v.(*value.Function); isFn {
				names = append(names, n)
			}
		}
	}
	return names
}

// callFunction binds positional arguments to parameters in order,
// falling back to defaults (evaluated inside the new scope) and then
// Null. Named arguments are not supported on user functions and are
// reported as a warning. An early return raised in the body is caught
// here and becomes the function's result.
func (e *Evaluator) callFunction(call *ast.CallExpression, fn *value.Function) (value.Value, *serrors.ScriptError) {
	var positional []value.Value
	for _, arg := range call.Args {
		if arg.Name != "" {
			e.Warn(fmt.Sprintf("named argument -%s ignored: function %s takes positional arguments only", arg.Name, fn.Name))
			continue
		}
		v, err := e.evalExpression(arg.Value)
		if err != nil {
			return nil, err
		}
		positional = append(positional, v)
	}

	e.scopes.Push()
	defer e.scopes.Pop()

	for i, param := range fn.Parameters {
		switch {
		case i < len(positional):
			e.scopes.Define(param.Name, positional[i])
		case param.Default != nil:
			v, err := e.evalExpression(param.Default)
			if err != nil {
				return nil, err
			}
			e.scopes.Define(param.Name, v)
		default:
			e.scopes.Define(param.Name, value.NULL)
		}
	}

	v, _, err := e.evalBlock(fn.Body)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// InvokeBlock invokes a script block with one item bound to the
// pipeline variable $_. It implements commands.Invoker, giving
// script-block-consuming commands their re-entrant capability.
func (e *Evaluator) InvokeBlock(block *value.ScriptBlock, item value.Value) (value.Value, error) {
	e.scopes.Push()
	defer e.scopes.Pop()

	e.scopes.Define(pipelineVariable, item)

	v, _, err := e.evalBlock(block.Body)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// executePipelineStatement runs the whole pipeline and folds the final
// sequence: zero results to Null, one to that value, more to an Array.
func (e *Evaluator) executePipelineStatement(stmt *ast.PipelineStatement) (value.Value, *serrors.ScriptError) {
	var current []value.Value

	for _, stage := range stmt.Stages {
		next, err := e.executeStage(stage, current)
		if err != nil {
			return nil, e.asScriptError(err, stmt.Token)
		}
		current = next
	}

	return foldSequence(current), nil
}

// asScriptError normalizes a stage error, attaching the statement
// position when none is set.
func (e *Evaluator) asScriptError(err error, tok lexer.Token) *serrors.ScriptError {
	if scriptErr, ok := err.(*serrors.ScriptError); ok {
		if scriptErr.Line == 0 {
			return scriptErr.WithPosition(tok.Line, tok.Column)
		}
		return scriptErr
	}
	return serrors.NewInvalidOperation(err.Error()).WithPosition(tok.Line, tok.Column)
}

// foldSequence collapses a command/pipeline output sequence into a
// single statement value.
func foldSequence(seq []value.Value) value.Value {
	switch len(seq) {
	case 0:
		return value.NULL
	case 1:
		return seq[0]
	default:
		return &value.Array{Elements: seq}
	}
}

// executeStage feeds one stage its input sequence and collects its
// output sequence. Stage N runs to completion before stage N+1 starts;
// this is a batch pipeline, not a streamed one.
func (e *Evaluator) executeStage(stage ast.Expression, input []value.Value) ([]value.Value, error) {
	switch st := stage.(type) {
	case *ast.CallExpression:
		// User functions in a stage behave like any other expression;
		// registered commands get the whole input sequence at once.
		if !e.isUserFunction(st.Name) {
			out, err := e.runCommand(st, input)
			if err != nil {
				return nil, err
			}
			return out, nil
		}
		return e.expressionStage(stage, input)

	case *ast.ScriptBlockLiteral:
		if len(input) == 0 {
			// An uninvoked block is just a value.
			v, err := e.evalExpression(st)
			if err != nil {
				return nil, err
			}
			return []value.Value{v}, nil
		}
		return e.blockStage(&value.ScriptBlock{Body: st.Body}, input)

	case *ast.VariableExpression:
		// A variable holding a script block runs like an inline one.
		if v, ok := e.scopes.GetQualified(st.Name); ok {
			if block, isBlock := v.(*value.ScriptBlock); isBlock && len(input) > 0 {
				return e.blockStage(block, input)
			}
		}
		return e.expressionStage(stage, input)

	default:
		return e.expressionStage(stage, input)
	}
}

// isUserFunction reports whether name resolves to a Function in scope.
func (e *Evaluator) isUserFunction(name string) bool {
	if v, ok := e.scopes.Get(name); ok {
		_, isFn := v.(*value.Function)
		return isFn
	}
	return false
}

// blockStage invokes a script block once per input item.
func (e *Evaluator) blockStage(block *value.ScriptBlock, input []value.Value) ([]value.Value, error) {
	output := make([]value.Value, 0, len(input))
	for _, item := range input {
		v, err := e.InvokeBlock(block, item)
		if err != nil {
			return nil, err
		}
		output = append(output, v)
	}
	return output, nil
}

// expressionStage runs a plain expression stage: per-item with $_
// bound, or once with array unrolling when no input is flowing.
func (e *Evaluator) expressionStage(stage ast.Expression, input []value.Value) ([]value.Value, error) {
	if len(input) == 0 {
		v, err := e.evalExpression(stage)
		if err != nil {
			return nil, err
		}
		// A head-of-pipeline array seeds one item per element.
		if arr, ok := v.(*value.Array); ok {
			return arr.Elements, nil
		}
		return []value.Value{v}, nil
	}

	output := make([]value.Value, 0, len(input))
	for _, item := range input {
		v, err := e.evalWithPipelineItem(stage, item)
		if err != nil {
			return nil, err
		}
		output = append(output, v)
	}
	return output, nil
}

// evalWithPipelineItem evaluates an expression once with $_ bound.
func (e *Evaluator) evalWithPipelineItem(expr ast.Expression, item value.Value) (value.Value, *serrors.ScriptError) {
	e.scopes.Push()
	defer e.scopes.Pop()

	e.scopes.Define(pipelineVariable, item)
	return e.evalExpression(expr)
}

// runCommand dispatches a call stage to the registry, evaluating its
// arguments in the current scope.
func (e *Evaluator) runCommand(call *ast.CallExpression, input []value.Value) ([]value.Value, *serrors.ScriptError) {
	cmd, ok := e.registry.Get(call.Name)
	if !ok {
		scriptErr := serrors.NewUnknownCommand(call.Name, e.callableNames())
		return nil, scriptErr.WithPosition(call.Token.Line, call.Token.Column)
	}

	ctx := commands.NewContext(input)
	for _, arg := range call.Args {
		v, err := e.evalExpression(arg.Value)
		if err != nil {
			return nil, err
		}
		if arg.Name != "" {
			ctx.SetParam(arg.Name, v)
		} else {
			ctx.Args = append(ctx.Args, v)
		}
	}

	out, err := cmd.Run(ctx, e)
	if err != nil {
		if scriptErr, ok := err.(*serrors.ScriptError); ok {
			if scriptErr.Line == 0 {
				return nil, scriptErr.WithPosition(call.Token.Line, call.Token.Column)
			}
			return nil, scriptErr
		}
		scriptErr := serrors.NewInvalidOperation(err.Error())
		return nil, scriptErr.WithPosition(call.Token.Line, call.Token.Column)
	}
	return out, nil
}
