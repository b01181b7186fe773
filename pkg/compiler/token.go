package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENT // variable / function / type name
	NUM   // raw integer literal text; numeric conversion is deferred to the parser

	// Keywords (tried before the general identifier rule)
	RETURN // "return"
	STRUCT // "struct"
	IF     // "if"
	ELSE   // "else"
	WHILE  // "while"

	// Operators: + - * / = ! < > and the two-character == != <= >=.
	// The Lexeme carries the exact operator text.
	OP

	// Control / punctuation characters: ( ) [ ] { } ; ,
	CTRL
)

var tokenNames = [...]string{
	EOF:    "EOF",
	IDENT:  "IDENT",
	NUM:    "NUM",
	RETURN: "RETURN",
	STRUCT: "STRUCT",
	IF:     "IF",
	ELSE:   "ELSE",
	WHILE:  "WHILE",
	OP:     "OP",
	CTRL:   "CTRL",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Span is a half-open [Start, End) range of rune offsets into the source,
// plus the 1-based line on which the span starts. Tokens carry one, and the
// parser propagates them into AST nodes so diagnostics can point back at
// the source.
type Span struct {
	Start int
	End   int
	Line  int
}

func (s Span) String() string {
	return fmt.Sprintf("line %d [%d:%d]", s.Line, s.Start, s.End)
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Span   Span
}

func (t Token) String() string {
	return fmt.Sprintf("%-7s %-14q  %s", t.Type, t.Lexeme, t.Span)
}
