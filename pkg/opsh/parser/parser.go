// Package parser turns the token stream into an AST. Statements are
// parsed by dispatch on the leading token; expressions use Pratt
// parsing with a fixed precedence table. The first error aborts the
// parse - later errors are usually cascading noise.
package parser

import (
	"fmt"
	"strconv"

	"github.com/opsh-lang/opsh/pkg/opsh/ast"
	serrors "github.com/opsh-lang/opsh/pkg/opsh/errors"
	"github.com/opsh-lang/opsh/pkg/opsh/lexer"
)

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	COMPARISON // -eq, -ne, -gt, -lt, -ge, -le
	SUM        // + -
	PRODUCT    // * / %
	PREFIX     // -x or !x
	MEMBER     // object.Property
)

// precedences maps tokens to their precedence
var precedences = map[lexer.TokenType]int{
	lexer.EQ:       COMPARISON,
	lexer.NE:       COMPARISON,
	lexer.GT:       COMPARISON,
	lexer.LT:       COMPARISON,
	lexer.GE:       COMPARISON,
	lexer.LE:       COMPARISON,
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.ASTERISK: PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.PERCENT:  PRODUCT,
	lexer.DOT:      MEMBER,
}

// Parser consumes a fixed token vector with a cursor. Holding the whole
// vector makes the unbounded lookahead for pipeline detection cheap.
type Parser struct {
	tokens []lexer.Token
	pos    int // index of curToken in tokens

	structuredErrors []*serrors.ScriptError

	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a parser over the lexer's full token stream. A scan error
// is carried over as the parser's (only) error.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{}

	for {
		tok := l.NextToken()
		if tok.Type == lexer.ILLEGAL {
			if lerr := l.Err(); lerr != nil {
				p.structuredErrors = append(p.structuredErrors, lerr)
			}
			p.tokens = append(p.tokens, lexer.Token{Type: lexer.EOF, Line: tok.Line, Column: tok.Column})
			break
		}
		p.tokens = append(p.tokens, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseCallExpression)
	p.registerPrefix(lexer.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.INTERP_STRING, p.parseInterpolatedString)
	p.registerPrefix(lexer.VARIABLE, p.parseVariable)
	p.registerPrefix(lexer.TRUE, p.parseBoolean)
	p.registerPrefix(lexer.FALSE, p.parseBoolean)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpression)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(lexer.LBRACE, p.parseScriptBlockLiteral)
	p.registerPrefix(lexer.AT_LPAREN, p.parseArrayLiteral)
	p.registerPrefix(lexer.AT_LBRACE, p.parseHashLiteral)
	p.registerPrefix(lexer.PARAM, p.parseStrayParameter)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	p.registerInfix(lexer.PLUS, p.parseInfixExpression)
	p.registerInfix(lexer.MINUS, p.parseInfixExpression)
	p.registerInfix(lexer.ASTERISK, p.parseInfixExpression)
	p.registerInfix(lexer.SLASH, p.parseInfixExpression)
	p.registerInfix(lexer.PERCENT, p.parseInfixExpression)
	p.registerInfix(lexer.EQ, p.parseInfixExpression)
	p.registerInfix(lexer.NE, p.parseInfixExpression)
	p.registerInfix(lexer.GT, p.parseInfixExpression)
	p.registerInfix(lexer.LT, p.parseInfixExpression)
	p.registerInfix(lexer.GE, p.parseInfixExpression)
	p.registerInfix(lexer.LE, p.parseInfixExpression)
	p.registerInfix(lexer.DOT, p.parseMemberExpression)

	// Prime curToken and peekToken.
	if len(p.tokens) > 0 {
		p.curToken = p.tokens[0]
	}
	if len(p.tokens) > 1 {
		p.peekToken = p.tokens[1]
	} else {
		p.peekToken = p.curToken
	}

	return p
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// Errors returns parser errors as strings (convenience method for tests).
// Prefer StructuredErrors() for production code.
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		if err.Line > 0 {
			result[i] = fmt.Sprintf("line %d, column %d: %s", err.Line, err.Column, err.Message)
		} else {
			result[i] = err.Message
		}
	}
	return result
}

// StructuredErrors returns parser errors as structured ScriptError objects.
func (p *Parser) StructuredErrors() []*serrors.ScriptError {
	return p.structuredErrors
}

// addError records a catalog error. Only the first error is kept.
func (p *Parser) addError(code string, line, column int, data map[string]any) {
	if len(p.structuredErrors) > 0 {
		return
	}
	p.structuredErrors = append(p.structuredErrors, serrors.NewWithPosition(code, line, column, data))
}

func (p *Parser) nextToken() {
	if p.pos+1 < len(p.tokens) {
		p.pos++
	}
	p.curToken = p.tokens[p.pos]
	if p.pos+1 < len(p.tokens) {
		p.peekToken = p.tokens[p.pos+1]
	} else {
		p.peekToken = p.curToken
	}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

// expectPeek advances when the next token matches, else records an error.
func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError("PARSE-0001", p.peekToken.Line, p.peekToken.Column, map[string]any{
		"Expected": t.String(),
		"Got":      p.peekToken.Literal,
	})
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// isSeparator reports whether a token type ends a statement.
func isSeparator(t lexer.TokenType) bool {
	return t == lexer.NEWLINE || t == lexer.SEMICOLON
}

// isTerminator reports whether a token type ends an expression: a
// statement separator, end of input, or a closing brace.
func isTerminator(t lexer.TokenType) bool {
	return isSeparator(t) || t == lexer.EOF || t == lexer.RBRACE
}

// skipSeparators consumes any run of newline/semicolon tokens.
func (p *Parser) skipSeparators() {
	for isSeparator(p.curToken.Type) {
		p.nextToken()
	}
}

// ParseProgram parses the whole token stream into a Program.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}

	p.skipSeparators()
	for !p.curTokenIs(lexer.EOF) && len(p.structuredErrors) == 0 {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.endStatement()
		p.skipSeparators()
	}

	return program
}

// endStatement checks that the statement is properly terminated and
// steps onto the separator.
func (p *Parser) endStatement() {
	if len(p.structuredErrors) > 0 {
		return
	}
	if p.peekTokenIs(lexer.EOF) || isSeparator(p.peekToken.Type) || p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		return
	}
	p.addError("PARSE-0001", p.peekToken.Line, p.peekToken.Column, map[string]any{
		"Expected": "end of statement",
		"Got":      p.peekToken.Literal,
	})
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.FUNCTION:
		return p.parseFunctionStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.VARIABLE:
		if p.peekTokenIs(lexer.ASSIGN) {
			return p.parseAssignmentStatement()
		}
	}

	if p.pipelineAhead() {
		return p.parsePipelineStatement()
	}

	return p.parseExpressionStatement()
}

// pipelineAhead scans forward from the current token, respecting
// nesting depth, and reports whether a '|' occurs at depth 0 before the
// statement ends.
func (p *Parser) pipelineAhead() bool {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case lexer.LPAREN, lexer.AT_LPAREN, lexer.LBRACE, lexer.AT_LBRACE:
			depth++
		case lexer.RPAREN:
			depth--
		case lexer.RBRACE:
			if depth == 0 {
				return false
			}
			depth--
		case lexer.PIPE:
			if depth == 0 {
				return true
			}
		case lexer.NEWLINE, lexer.SEMICOLON, lexer.EOF:
			if depth == 0 {
				return false
			}
		}
	}
	return false
}

func (p *Parser) parsePipelineStatement() ast.Statement {
	stmt := &ast.PipelineStatement{Token: p.curToken}

	stage := p.parseExpression(LOWEST)
	if stage == nil {
		return nil
	}
	stmt.Stages = append(stmt.Stages, stage)

	for p.peekTokenIs(lexer.PIPE) {
		p.nextToken() // onto '|'
		p.nextToken() // onto the next stage
		stage := p.parseExpression(LOWEST)
		if stage == nil {
			return nil
		}
		stmt.Stages = append(stmt.Stages, stage)
	}

	return stmt
}

func (p *Parser) parseAssignmentStatement() ast.Statement {
	stmt := &ast.AssignmentStatement{Token: p.curToken, Name: p.curToken.Literal}

	p.nextToken() // onto '='
	p.nextToken() // onto the value expression

	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}

	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	if isTerminator(p.peekToken.Type) {
		return stmt // bare return
	}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}

	return stmt
}

// parseIfStatement parses `if (cond) { ... }` with optional elseif
// chains and a final else. An elseif becomes a nested IfStatement in
// the alternative slot.
func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	stmt.Consequence = p.parseBlockStatement()
	if stmt.Consequence == nil {
		return nil
	}

	switch {
	case p.peekTokenIs(lexer.ELSEIF):
		p.nextToken()
		alt := p.parseIfStatement()
		if alt == nil {
			return nil
		}
		stmt.Alternative = alt
	case p.peekTokenIs(lexer.ELSE):
		p.nextToken()
		if !p.expectPeek(lexer.LBRACE) {
			return nil
		}
		alt := p.parseBlockStatement()
		if alt == nil {
			return nil
		}
		stmt.Alternative = alt
	}

	return stmt
}

func (p *Parser) parseFunctionStatement() ast.Statement {
	stmt := &ast.FunctionStatement{Token: p.curToken}

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal

	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		stmt.Parameters = p.parseFunctionParameters()
		if stmt.Parameters == nil && len(p.structuredErrors) > 0 {
			return nil
		}
	}

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	if stmt.Body == nil {
		return nil
	}

	return stmt
}

// parseFunctionParameters parses `($a, $b = default, ...)` with the
// cursor on the opening paren.
func (p *Parser) parseFunctionParameters() []*ast.Parameter {
	params := []*ast.Parameter{}

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return params
	}

	for {
		if !p.expectPeek(lexer.VARIABLE) {
			return nil
		}
		param := &ast.Parameter{Token: p.curToken, Name: p.curToken.Literal}

		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken() // onto '='
			p.nextToken() // onto the default expression
			param.Default = p.parseExpression(LOWEST)
			if param.Default == nil {
				return nil
			}
		}
		params = append(params, param)

		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return params
}

// parseBlockStatement parses a brace block with the cursor on '{'.
func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}

	p.nextToken()
	p.skipSeparators()

	for !p.curTokenIs(lexer.RBRACE) {
		if p.curTokenIs(lexer.EOF) {
			p.addError("PARSE-0002", p.curToken.Line, p.curToken.Column, nil)
			return nil
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		block.Statements = append(block.Statements, stmt)
		p.endStatement()
		if len(p.structuredErrors) > 0 {
			return nil
		}
		p.skipSeparators()
	}

	return block
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}

	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}

	return stmt
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.addError("PARSE-0003", p.curToken.Line, p.curToken.Column, map[string]any{
			"Token": p.curToken.Literal,
		})
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !isTerminator(p.peekToken.Type) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit := &ast.NumberLiteral{Token: p.curToken}

	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError("PARSE-0003", p.curToken.Line, p.curToken.Column, map[string]any{
			"Token": p.curToken.Literal,
		})
		return nil
	}
	lit.Value = v

	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseInterpolatedString() ast.Expression {
	return &ast.InterpolatedString{Token: p.curToken, Parts: p.curToken.Parts}
}

func (p *Parser) parseVariable() ast.Expression {
	return &ast.VariableExpression{Token: p.curToken, Name: p.curToken.Literal}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(lexer.TRUE)}
}

// parseStrayParameter rejects a named-argument name found in
// expression position (e.g. `5 -foo 3`).
func (p *Parser) parseStrayParameter() ast.Expression {
	p.addError("PARSE-0005", p.curToken.Line, p.curToken.Column, map[string]any{
		"Operator": "-" + p.curToken.Literal,
	})
	return nil
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Literal}

	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		return nil
	}

	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}

	return expr
}

func (p *Parser) parseMemberExpression(left ast.Expression) ast.Expression {
	expr := &ast.MemberExpression{Token: p.curToken, Object: left}

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	expr.Property = p.curToken.Literal

	return expr
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}

	return expr
}

func (p *Parser) parseScriptBlockLiteral() ast.Expression {
	tok := p.curToken

	body := p.parseBlockStatement()
	if body == nil {
		return nil
	}

	return &ast.ScriptBlockLiteral{Token: tok, Body: body}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	arr := &ast.ArrayLiteral{Token: p.curToken}

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return arr
	}

	for {
		p.nextToken()
		elem := p.parseExpression(LOWEST)
		if elem == nil {
			return nil
		}
		arr.Elements = append(arr.Elements, elem)

		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return arr
}

// parseHashLiteral parses `@{ key = expr; ... }`. Entries are separated
// by semicolons or newlines; insertion order is preserved.
func (p *Parser) parseHashLiteral() ast.Expression {
	hash := &ast.HashLiteral{Token: p.curToken}

	p.nextToken()
	p.skipSeparators()

	for !p.curTokenIs(lexer.RBRACE) {
		if p.curTokenIs(lexer.EOF) {
			p.addError("PARSE-0002", p.curToken.Line, p.curToken.Column, nil)
			return nil
		}

		var key string
		switch p.curToken.Type {
		case lexer.IDENT, lexer.STRING:
			key = p.curToken.Literal
		default:
			p.addError("PARSE-0001", p.curToken.Line, p.curToken.Column, map[string]any{
				"Expected": "hashtable key",
				"Got":      p.curToken.Literal,
			})
			return nil
		}

		if !p.expectPeek(lexer.ASSIGN) {
			return nil
		}
		p.nextToken()
		val := p.parseExpression(LOWEST)
		if val == nil {
			return nil
		}
		hash.Pairs = append(hash.Pairs, ast.HashPair{Key: key, Value: val})

		p.nextToken()
		p.skipSeparators()
	}

	return hash
}

// parseCallExpression parses an identifier at expression-head position.
// Every such identifier is a call; the heuristic only decides whether
// the following tokens are its arguments. A bare call has none.
func (p *Parser) parseCallExpression() ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Name: p.curToken.Literal}

	// A comma directly after the name belongs to the surrounding list
	// (`@(foo, bar)` is two elements, not a call with one argument);
	// commas only separate arguments once the list has started.
	if p.peekTokenIs(lexer.COMMA) || !p.startsArguments(p.peekToken.Type) {
		return call
	}

	for p.startsArguments(p.peekToken.Type) {
		p.nextToken()

		if p.curTokenIs(lexer.COMMA) {
			continue // optional separators between arguments
		}

		if p.curTokenIs(lexer.PARAM) {
			name := p.curToken.Literal
			if p.startsArguments(p.peekToken.Type) && !p.peekTokenIs(lexer.PARAM) {
				p.nextToken()
				val := p.parseArgumentValue()
				if val == nil {
					return nil
				}
				call.Args = append(call.Args, ast.Argument{Name: name, Value: val})
			} else {
				// Valueless switch parameter: -Recurse, -Raw, ...
				call.Args = append(call.Args, ast.Argument{Name: name, Value: &ast.BooleanLiteral{Token: p.curToken, Value: true}})
			}
			continue
		}

		val := p.parseArgumentValue()
		if val == nil {
			return nil
		}
		call.Args = append(call.Args, ast.Argument{Value: val})
	}

	return call
}

// startsArguments reports whether a token can begin (or continue) the
// argument list of a call: anything but a pipe, statement terminator,
// closing bracket, binary operator, assignment or member access.
func (p *Parser) startsArguments(t lexer.TokenType) bool {
	switch t {
	case lexer.PIPE, lexer.NEWLINE, lexer.SEMICOLON, lexer.EOF,
		lexer.RPAREN, lexer.RBRACE, lexer.ASSIGN, lexer.DOT,
		lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT,
		lexer.EQ, lexer.NE, lexer.GT, lexer.LT, lexer.GE, lexer.LE:
		return false
	default:
		return true
	}
}

// parseArgumentValue parses one call argument. A bare identifier is a
// word argument (it evaluates as its own text, the way `Sort-Object
// Name` passes the string "Name"); anything else is a normal expression.
func (p *Parser) parseArgumentValue() ast.Expression {
	if p.curTokenIs(lexer.IDENT) {
		return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
	}
	return p.parseExpression(LOWEST)
}
