package compiler

import (
	"fmt"
	"unicode"
)

// keywords maps source text to its keyword TokenType. scanIdent consults this
// table before falling back to IDENT, so reserved words are never lexed as
// identifiers even though the identifier rule also matches their spelling.
var keywords = map[string]TokenType{
	"return": RETURN,
	"struct": STRUCT,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
}

// LexError reports the first position at which no lexical rule matched.
// Lexing is all-or-nothing: the parser never sees a partial token stream.
type LexError struct {
	Span Span
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Span.Line, e.Msg)
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening "//" must already have been consumed.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// skipBlockComment discards everything up to and including the closing "*/".
// The opening "/*" must already have been consumed.
func (l *Lexer) skipBlockComment(open Span) error {
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.peek2() == '/' {
			l.advance() // *
			l.advance() // /
			return nil
		}
		l.advance()
	}
	return &LexError{Span: open, Msg: fmt.Sprintf("unterminated block comment (opened on line %d)", open.Line)}
}

// scanIdent collects a full identifier or keyword token. The match is greedy:
// the maximal run of identifier characters is consumed before the keyword
// table is consulted. The first character (letter or '_') must still be at
// l.peek().
func (l *Lexer) scanIdent() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENT
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Span: Span{Start: start, End: l.pos, Line: line}}
}

// scanNum collects the maximal run of decimal digits. The digits are kept as
// raw text; the parser converts them to a sized integer later.
// The first digit must still be at l.peek().
func (l *Lexer) scanNum() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	return Token{Type: NUM, Lexeme: string(l.src[start:l.pos]), Span: Span{Start: start, End: l.pos, Line: line}}
}

// nextToken skips whitespace/comments and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	// Skip whitespace and both comment styles in a loop so that
	// a comment followed immediately by more whitespace is handled.
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			return Token{Type: EOF, Span: Span{Start: l.pos, End: l.pos, Line: l.line}}, nil
		}
		if l.peek() == '/' && l.peek2() == '/' {
			l.advance()
			l.advance()
			l.skipLineComment()
			continue
		}
		if l.peek() == '/' && l.peek2() == '*' {
			open := Span{Start: l.pos, End: l.pos + 2, Line: l.line}
			l.advance()
			l.advance()
			if err := l.skipBlockComment(open); err != nil {
				return Token{}, err
			}
			continue
		}
		break
	}

	ch := l.peek()
	line := l.line
	start := l.pos

	// Rule order matters: identifier/keyword, then number, then the
	// operator and punctuation rules below.
	if unicode.IsLetter(ch) || ch == '_' {
		return l.scanIdent(), nil
	}
	if unicode.IsDigit(ch) {
		return l.scanNum(), nil
	}

	op := func(text string) Token {
		return Token{Type: OP, Lexeme: text, Span: Span{Start: start, End: l.pos, Line: line}}
	}
	ctrl := func(text string) Token {
		return Token{Type: CTRL, Lexeme: text, Span: Span{Start: start, End: l.pos, Line: line}}
	}

	l.advance() // consume the character before the switch
	switch ch {
	case '(', ')', '[', ']', '{', '}', ';', ',':
		return ctrl(string(ch)), nil

	case '+', '-', '*', '/':
		return op(string(ch)), nil

	// Two-character operators are matched greedily: "==" must win over
	// two consecutive "=" tokens.
	case '=':
		if l.peek() == '=' {
			l.advance()
			return op("=="), nil
		}
		return op("="), nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return op("!="), nil
		}
		return op("!"), nil
	case '<':
		if l.peek() == '=' {
			l.advance()
			return op("<="), nil
		}
		return op("<"), nil
	case '>':
		if l.peek() == '=' {
			l.advance()
			return op(">="), nil
		}
		return op(">"), nil

	default:
		return Token{}, &LexError{
			Span: Span{Start: start, End: l.pos, Line: line},
			Msg:  fmt.Sprintf("unexpected character %q", ch),
		}
	}
}

// Lex tokenises src and returns all tokens including the final EOF token.
// Whitespace and comments never appear in the result. It returns a non-nil
// *LexError on the first illegal character or unterminated comment.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
