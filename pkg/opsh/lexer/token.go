package lexer

import "fmt"

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF
	NEWLINE // statement separator

	// Identifiers and literals
	IDENT         // Get-ChildItem, Add, foo
	NUMBER        // 42, 3.14
	STRING        // "hello", 'hello'
	INTERP_STRING // "count: $n" (carries Parts)
	VARIABLE      // $x, $global:x, $_

	// Operators
	ASSIGN   // =
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	PERCENT  // %
	BANG     // !

	// Comparison operators (dash keywords)
	EQ // -eq
	NE // -ne
	GT // -gt
	LT // -lt
	GE // -ge
	LE // -le

	// Named-argument name: any other -word (literal carries the bare name)
	PARAM // -Descending, -Path, ...

	// Delimiters
	COMMA     // ,
	SEMICOLON // ;
	DOT       // .
	PIPE      // |
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	AT_LPAREN // @( array literal opener
	AT_LBRACE // @{ hashtable literal opener

	// Keywords
	IF       // "if"
	ELSEIF   // "elseif"
	ELSE     // "else"
	FUNCTION // "function"
	RETURN   // "return"
	TRUE     // "true"
	FALSE    // "false"
)

// StringPart is one fragment of an interpolated string: either literal
// text or a variable reference to be resolved at evaluation time.
type StringPart struct {
	Value    string
	Variable bool
}

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
	Parts   []StringPart // non-nil only for INTERP_STRING
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case NEWLINE:
		return "NEWLINE"
	case IDENT:
		return "IDENT"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case INTERP_STRING:
		return "INTERP_STRING"
	case VARIABLE:
		return "VARIABLE"
	case ASSIGN:
		return "ASSIGN"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case ASTERISK:
		return "ASTERISK"
	case SLASH:
		return "SLASH"
	case PERCENT:
		return "PERCENT"
	case BANG:
		return "BANG"
	case EQ:
		return "EQ"
	case NE:
		return "NE"
	case GT:
		return "GT"
	case LT:
		return "LT"
	case GE:
		return "GE"
	case LE:
		return "LE"
	case PARAM:
		return "PARAM"
	case COMMA:
		return "COMMA"
	case SEMICOLON:
		return "SEMICOLON"
	case DOT:
		return "DOT"
	case PIPE:
		return "PIPE"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case AT_LPAREN:
		return "AT_LPAREN"
	case AT_LBRACE:
		return "AT_LBRACE"
	case IF:
		return "IF"
	case ELSEIF:
		return "ELSEIF"
	case ELSE:
		return "ELSE"
	case FUNCTION:
		return "FUNCTION"
	case RETURN:
		return "RETURN"
	case TRUE:
		return "TRUE"
	case FALSE:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

// Keywords map for identifying language keywords
var keywords = map[string]TokenType{
	"if":       IF,
	"elseif":   ELSEIF,
	"else":     ELSE,
	"function": FUNCTION,
	"return":   RETURN,
	"true":     TRUE,
	"false":    FALSE,
}

// Comparison operator keywords, recognized after a leading dash.
var dashOperators = map[string]TokenType{
	"eq": EQ,
	"ne": NE,
	"gt": GT,
	"lt": LT,
	"ge": GE,
	"le": LE,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
