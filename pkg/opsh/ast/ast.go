// Package ast defines the abstract syntax tree produced by the parser.
package ast

import (
	"bytes"
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/lexer"
)

// Node is the interface implemented by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement is a node that appears at statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: an ordered sequence of statements.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for i, s := range p.Statements {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(s.String())
	}
	return out.String()
}

// ExpressionStatement wraps a bare expression at statement position.
type ExpressionStatement struct {
	Token      lexer.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

// AssignmentStatement is `$name = expression`. Name may carry a scope
// qualifier (`global:x`), which the evaluator interprets.
type AssignmentStatement struct {
	Token lexer.Token // the VARIABLE token
	Name  string
	Value Expression
}

func (as *AssignmentStatement) statementNode()       {}
func (as *AssignmentStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignmentStatement) String() string {
	var out bytes.Buffer
	out.WriteString("$")
	out.WriteString(as.Name)
	out.WriteString(" = ")
	if as.Value != nil {
		out.WriteString(as.Value.String())
	}
	return out.String()
}

// Parameter is one function parameter with an optional default expression.
type Parameter struct {
	Token   lexer.Token // the VARIABLE token
	Name    string
	Default Expression // nil when no default
}

func (p *Parameter) String() string {
	var out bytes.Buffer
	out.WriteString("$")
	out.WriteString(p.Name)
	if p.Default != nil {
		out.WriteString(" = ")
		out.WriteString(p.Default.String())
	}
	return out.String()
}

// FunctionStatement is `function Name($a, $b = default) { ... }`.
type FunctionStatement struct {
	Token      lexer.Token // the FUNCTION token
	Name       string
	Parameters []*Parameter
	Body       *BlockStatement
}

func (fs *FunctionStatement) statementNode()       {}
func (fs *FunctionStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *FunctionStatement) String() string {
	var out bytes.Buffer
	params := make([]string, 0, len(fs.Parameters))
	for _, p := range fs.Parameters {
		params = append(params, p.String())
	}
	out.WriteString("function ")
	out.WriteString(fs.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") ")
	out.WriteString(fs.Body.String())
	return out.String()
}

// IfStatement is a conditional. Alternative is either a *BlockStatement
// (plain else), a nested *IfStatement (elseif), or nil.
type IfStatement struct {
	Token       lexer.Token // the IF token
	Condition   Expression
	Consequence *BlockStatement
	Alternative Statement
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(is.Condition.String())
	out.WriteString(") ")
	out.WriteString(is.Consequence.String())
	if is.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(is.Alternative.String())
	}
	return out.String()
}

// ReturnStatement is `return` with an optional expression.
type ReturnStatement struct {
	Token lexer.Token // the RETURN token
	Value Expression  // nil for a bare return
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	var out bytes.Buffer
	out.WriteString("return")
	if rs.Value != nil {
		out.WriteString(" ")
		out.WriteString(rs.Value.String())
	}
	return out.String()
}

// PipelineStatement is an ordered sequence of |-separated stage expressions.
type PipelineStatement struct {
	Token  lexer.Token // the first token of the first stage
	Stages []Expression
}

func (ps *PipelineStatement) statementNode()       {}
func (ps *PipelineStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PipelineStatement) String() string {
	stages := make([]string, 0, len(ps.Stages))
	for _, s := range ps.Stages {
		stages = append(stages, s.String())
	}
	return strings.Join(stages, " | ")
}

// BlockStatement is a brace-delimited sequence of statements.
type BlockStatement struct {
	Token      lexer.Token // the LBRACE token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for i, s := range bs.Statements {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(s.String())
	}
	out.WriteString(" }")
	return out.String()
}

// VariableExpression is `$name`, `$scope:name`, or the pipeline variable `$_`.
type VariableExpression struct {
	Token lexer.Token // the VARIABLE token
	Name  string
}

func (ve *VariableExpression) expressionNode()      {}
func (ve *VariableExpression) TokenLiteral() string { return ve.Token.Literal }
func (ve *VariableExpression) String() string       { return "$" + ve.Name }

// NumberLiteral is a numeric literal.
type NumberLiteral struct {
	Token lexer.Token
	Value float64
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return nl.Token.Literal }

// StringLiteral is a plain (non-interpolated) string literal.
type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return "\"" + sl.Value + "\"" }

// InterpolatedString is a double-quoted string with variable parts.
type InterpolatedString struct {
	Token lexer.Token
	Parts []lexer.StringPart
}

func (is *InterpolatedString) expressionNode()      {}
func (is *InterpolatedString) TokenLiteral() string { return is.Token.Literal }
func (is *InterpolatedString) String() string       { return "\"" + is.Token.Literal + "\"" }

// BooleanLiteral is `true` or `false`.
type BooleanLiteral struct {
	Token lexer.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) String() string       { return bl.Token.Literal }

// PrefixExpression is a unary operator applied to an operand.
type PrefixExpression struct {
	Token    lexer.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(pe.Operator)
	out.WriteString(pe.Right.String())
	out.WriteString(")")
	return out.String()
}

// InfixExpression is a binary operator applied to two operands.
type InfixExpression struct {
	Token    lexer.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" ")
	out.WriteString(ie.Operator)
	out.WriteString(" ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")
	return out.String()
}

// MemberExpression is `object.Property`.
type MemberExpression struct {
	Token    lexer.Token // the DOT token
	Object   Expression
	Property string
}

func (me *MemberExpression) expressionNode()      {}
func (me *MemberExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MemberExpression) String() string {
	return me.Object.String() + "." + me.Property
}

// Argument is one call argument, positional or `-Name value` named.
type Argument struct {
	Name  string // "" for positional
	Value Expression
}

func (a *Argument) String() string {
	if a.Name != "" {
		return "-" + a.Name + " " + a.Value.String()
	}
	return a.Value.String()
}

// CallExpression is a command or function invocation by name.
type CallExpression struct {
	Token lexer.Token // the IDENT token
	Name  string
	Args  []Argument
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	var out bytes.Buffer
	out.WriteString(ce.Name)
	for _, a := range ce.Args {
		out.WriteString(" ")
		out.WriteString(a.String())
	}
	return out.String()
}

// ScriptBlockLiteral is a brace-delimited block used as a first-class value.
type ScriptBlockLiteral struct {
	Token lexer.Token // the LBRACE token
	Body  *BlockStatement
}

func (sb *ScriptBlockLiteral) expressionNode()      {}
func (sb *ScriptBlockLiteral) TokenLiteral() string { return sb.Token.Literal }
func (sb *ScriptBlockLiteral) String() string       { return sb.Body.String() }

// ArrayLiteral is `@(e1, e2, ...)`.
type ArrayLiteral struct {
	Token    lexer.Token // the AT_LPAREN token
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) String() string {
	elements := make([]string, 0, len(al.Elements))
	for _, e := range al.Elements {
		elements = append(elements, e.String())
	}
	return "@(" + strings.Join(elements, ", ") + ")"
}

// HashPair is one ordered key = expression entry of a hashtable literal.
type HashPair struct {
	Key   string
	Value Expression
}

// HashLiteral is `@{ key = expr; ... }` with insertion order preserved.
type HashLiteral struct {
	Token lexer.Token // the AT_LBRACE token
	Pairs []HashPair
}

func (hl *HashLiteral) expressionNode()      {}
func (hl *HashLiteral) TokenLiteral() string { return hl.Token.Literal }
func (hl *HashLiteral) String() string {
	pairs := make([]string, 0, len(hl.Pairs))
	for _, p := range hl.Pairs {
		pairs = append(pairs, p.Key+" = "+p.Value.String())
	}
	return "@{" + strings.Join(pairs, "; ") + "}"
}
