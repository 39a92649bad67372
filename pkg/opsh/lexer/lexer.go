// Package lexer turns opsh source text into a stream of located tokens.
//
// Newlines are significant (they separate statements) so the scanner
// emits NEWLINE tokens instead of skipping them. The first scan error
// poisons the lexer: every later call returns the same ILLEGAL token.
package lexer

import (
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/errors"
)

// Lexer scans opsh source byte by byte, tracking line and column.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number
	err          *errors.ScriptError
}

// New creates a new lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// Err returns the first scan error, or nil.
func (l *Lexer) Err() *errors.ScriptError {
	return l.err
}

// Tokenize scans the whole input. Scanning aborts on the first error.
func Tokenize(input string) ([]Token, *errors.ScriptError) {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == ILLEGAL {
			return nil, l.err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // NUL represents EOF
		l.position = l.readPosition
		return
	}

	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// skipSpace skips spaces, tabs, carriage returns and # comments.
// Newlines are statement separators and are left in place.
func (l *Lexer) skipSpace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '#':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}

// newToken builds a single-character token at the current position.
func (l *Lexer) newToken(tokenType TokenType, ch byte) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: l.line, Column: l.column}
}

// fail records the first scan error and returns a poisoned ILLEGAL token.
func (l *Lexer) fail(code string, line, column int, data map[string]any) Token {
	if l.err == nil {
		l.err = errors.NewWithPosition(code, line, column, data)
	}
	return Token{Type: ILLEGAL, Literal: "", Line: line, Column: column}
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() Token {
	if l.err != nil {
		return Token{Type: ILLEGAL, Line: l.err.Line, Column: l.err.Column}
	}

	l.skipSpace()

	var tok Token

	switch l.ch {
	case '\n':
		tok = Token{Type: NEWLINE, Literal: "\\n", Line: l.line, Column: l.column}
	case '=':
		tok = l.newToken(ASSIGN, l.ch)
	case '+':
		tok = l.newToken(PLUS, l.ch)
	case '*':
		tok = l.newToken(ASTERISK, l.ch)
	case '/':
		tok = l.newToken(SLASH, l.ch)
	case '%':
		tok = l.newToken(PERCENT, l.ch)
	case '!':
		tok = l.newToken(BANG, l.ch)
	case ',':
		tok = l.newToken(COMMA, l.ch)
	case ';':
		tok = l.newToken(SEMICOLON, l.ch)
	case '.':
		tok = l.newToken(DOT, l.ch)
	case '|':
		tok = l.newToken(PIPE, l.ch)
	case '(':
		tok = l.newToken(LPAREN, l.ch)
	case ')':
		tok = l.newToken(RPAREN, l.ch)
	case '{':
		tok = l.newToken(LBRACE, l.ch)
	case '}':
		tok = l.newToken(RBRACE, l.ch)
	case '@':
		line, col := l.line, l.column
		switch l.peekChar() {
		case '(':
			l.readChar()
			tok = Token{Type: AT_LPAREN, Literal: "@(", Line: line, Column: col}
		case '{':
			l.readChar()
			tok = Token{Type: AT_LBRACE, Literal: "@{", Line: line, Column: col}
		default:
			return l.fail("LEX-0001", line, col, map[string]any{"Char": "@"})
		}
	case '-':
		return l.readDash()
	case '$':
		return l.readVariable()
	case '\'':
		return l.readSingleQuoted()
	case '"':
		return l.readDoubleQuoted()
	case 0:
		tok = Token{Type: EOF, Literal: "", Line: l.line, Column: l.column}
	default:
		switch {
		case isDigit(l.ch):
			return l.readNumber()
		case isLetter(l.ch):
			return l.readIdentifier()
		default:
			return l.fail("LEX-0001", l.line, l.column, map[string]any{"Char": string(l.ch)})
		}
	}

	l.readChar()
	return tok
}

// readDash disambiguates the leading '-': followed by a letter it is
// either a comparison keyword (-eq and friends) or a named-argument
// name (-Descending), otherwise it is arithmetic minus. The parser
// rejects a PARAM token found in expression position.
func (l *Lexer) readDash() Token {
	line, col := l.line, l.column

	if !isLetter(l.peekChar()) || l.peekChar() == '_' {
		tok := l.newToken(MINUS, l.ch)
		l.readChar()
		return tok
	}

	l.readChar() // past '-'
	start := l.position
	for isIdentChar(l.ch) {
		l.readChar()
	}
	word := l.input[start:l.position]

	if tokType, ok := dashOperators[strings.ToLower(word)]; ok {
		return Token{Type: tokType, Literal: "-" + word, Line: line, Column: col}
	}

	return Token{Type: PARAM, Literal: word, Line: line, Column: col}
}

// readVariable scans $name, $scope:name, and the pipeline variable $_.
func (l *Lexer) readVariable() Token {
	line, col := l.line, l.column

	l.readChar() // past '$'
	if !isLetter(l.ch) && !isDigit(l.ch) {
		return l.fail("LEX-0004", line, col, map[string]any{"Literal": "$"})
	}

	start := l.position
	for isIdentChar(l.ch) {
		l.readChar()
	}
	// Scope qualifier: one colon, followed by more identifier characters.
	if l.ch == ':' && isIdentChar(l.peekChar()) {
		l.readChar()
		for isIdentChar(l.ch) {
			l.readChar()
		}
	}

	name := l.input[start:l.position]
	return Token{Type: VARIABLE, Literal: name, Line: line, Column: col}
}

// readNumber scans digits with at most one decimal point.
func (l *Lexer) readNumber() Token {
	line, col := l.line, l.column

	start := l.position
	dots := 0
	for isDigit(l.ch) || l.ch == '.' {
		if l.ch == '.' {
			if !isDigit(l.peekChar()) {
				break // trailing dot is member access, not part of the number
			}
			dots++
		}
		l.readChar()
	}
	literal := l.input[start:l.position]

	if dots > 1 {
		return l.fail("LEX-0003", line, col, map[string]any{"Literal": literal})
	}

	return Token{Type: NUMBER, Literal: literal, Line: line, Column: col}
}

// readIdentifier scans an identifier, allowing interior hyphens so that
// multi-word command names such as Get-ChildItem form a single token.
func (l *Lexer) readIdentifier() Token {
	line, col := l.line, l.column

	start := l.position
	for isIdentChar(l.ch) || (l.ch == '-' && isIdentChar(l.peekChar())) {
		l.readChar()
	}
	literal := l.input[start:l.position]

	return Token{Type: LookupIdent(literal), Literal: literal, Line: line, Column: col}
}

// readSingleQuoted scans a raw string. No interpolation and no backslash
// escapes; a doubled quote stands for one literal quote character.
func (l *Lexer) readSingleQuoted() Token {
	line, col := l.line, l.column

	var sb strings.Builder
	l.readChar() // past opening quote
	for {
		switch l.ch {
		case 0:
			return l.fail("LEX-0002", line, col, nil)
		case '\'':
			if l.peekChar() == '\'' {
				sb.WriteByte('\'')
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // past closing quote
			return Token{Type: STRING, Literal: sb.String(), Line: line, Column: col}
		default:
			sb.WriteByte(l.ch)
			l.readChar()
		}
	}
}

// readDoubleQuoted scans an interpolated string into literal and variable
// parts. When no variable part occurs the token collapses to a plain STRING.
func (l *Lexer) readDoubleQuoted() Token {
	line, col := l.line, l.column

	var parts []StringPart
	var sb strings.Builder

	flushLiteral := func() {
		if sb.Len() > 0 {
			parts = append(parts, StringPart{Value: sb.String()})
			sb.Reset()
		}
	}

	l.readChar() // past opening quote
	for {
		switch l.ch {
		case 0:
			return l.fail("LEX-0002", line, col, nil)
		case '"':
			l.readChar() // past closing quote
			flushLiteral()
			return l.finishDoubleQuoted(parts, line, col)
		case '\\':
			l.decodeEscape(&sb)
		case '$':
			if isLetter(l.peekChar()) {
				flushLiteral()
				l.readChar() // past '$'
				start := l.position
				for isIdentChar(l.ch) {
					l.readChar()
				}
				parts = append(parts, StringPart{Value: l.input[start:l.position], Variable: true})
				continue
			}
			sb.WriteByte('$')
			l.readChar()
		default:
			sb.WriteByte(l.ch)
			l.readChar()
		}
	}
}

// decodeEscape consumes a backslash escape, writing the decoded bytes.
// Unknown escapes pass through literally, backslash included.
func (l *Lexer) decodeEscape(sb *strings.Builder) {
	l.readChar() // past '\'
	ch := l.ch
	l.readChar()

	switch ch {
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case '\\', '"', '\'', '$':
		sb.WriteByte(ch)
	case 0:
		sb.WriteByte('\\')
	default:
		sb.WriteByte('\\')
		sb.WriteByte(ch)
	}
}

// finishDoubleQuoted builds the final token from the scanned parts.
func (l *Lexer) finishDoubleQuoted(parts []StringPart, line, col int) Token {
	hasVariable := false
	for _, p := range parts {
		if p.Variable {
			hasVariable = true
			break
		}
	}

	if !hasVariable {
		var sb strings.Builder
		for _, p := range parts {
			sb.WriteString(p.Value)
		}
		return Token{Type: STRING, Literal: sb.String(), Line: line, Column: col}
	}

	var raw strings.Builder
	for _, p := range parts {
		if p.Variable {
			raw.WriteByte('$')
		}
		raw.WriteString(p.Value)
	}
	return Token{Type: INTERP_STRING, Literal: raw.String(), Line: line, Column: col, Parts: parts}
}
