package compiler

import (
	"errors"
	"reflect"
	"testing"
)

// tok is the span-free view of a Token used by the lexing tables; exact
// offsets get their own test below.
type tok struct {
	tt     TokenType
	lexeme string
	line   int
}

func summarize(tokens []Token) []tok {
	out := make([]tok, len(tokens))
	for i, t := range tokens {
		out[i] = tok{tt: t.Type, lexeme: t.Lexeme, line: t.Span.Line}
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []tok
		wantErr  bool
	}{
		{
			name:  "Empty",
			input: "",
			expected: []tok{
				{EOF, "", 1},
			},
		},
		{
			name:  "Operators and Punctuation",
			input: "+ - * / = == != ! < <= > >= ( ) { } [ ] ; ,",
			expected: []tok{
				{OP, "+", 1},
				{OP, "-", 1},
				{OP, "*", 1},
				{OP, "/", 1},
				{OP, "=", 1},
				{OP, "==", 1},
				{OP, "!=", 1},
				{OP, "!", 1},
				{OP, "<", 1},
				{OP, "<=", 1},
				{OP, ">", 1},
				{OP, ">=", 1},
				{CTRL, "(", 1},
				{CTRL, ")", 1},
				{CTRL, "{", 1},
				{CTRL, "}", 1},
				{CTRL, "[", 1},
				{CTRL, "]", 1},
				{CTRL, ";", 1},
				{CTRL, ",", 1},
				{EOF, "", 1},
			},
		},
		{
			name:  "Keywords and Identifiers",
			input: "return struct if else while variableName _under_score",
			expected: []tok{
				{RETURN, "return", 1},
				{STRUCT, "struct", 1},
				{IF, "if", 1},
				{ELSE, "else", 1},
				{WHILE, "while", 1},
				{IDENT, "variableName", 1},
				{IDENT, "_under_score", 1},
				{EOF, "", 1},
			},
		},
		{
			name:  "Numbers Stay Raw Text",
			input: "0 123 007",
			expected: []tok{
				{NUM, "0", 1},
				{NUM, "123", 1},
				{NUM, "007", 1},
				{EOF, "", 1},
			},
		},
		{
			name:  "Greedy Two-Character Operators",
			input: "===",
			expected: []tok{
				{OP, "==", 1},
				{OP, "=", 1},
				{EOF, "", 1},
			},
		},
		{
			name:  "Comments Never Reach The Parser",
			input: "x // comment\n y /* block\n comment */ z",
			expected: []tok{
				{IDENT, "x", 1},
				{IDENT, "y", 2},
				{IDENT, "z", 3},
				{EOF, "", 3},
			},
		},
		{
			name:  "Number Then Identifier",
			input: "12ab",
			expected: []tok{
				{NUM, "12", 1},
				{IDENT, "ab", 1},
				{EOF, "", 1},
			},
		},
		{
			name:    "Unexpected Character",
			input:   "int x = @;",
			wantErr: true,
		},
		{
			name:    "Unterminated Block Comment",
			input:   "/* start",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Lex(%q) succeeded, want error", tt.input)
				}
				var lexErr *LexError
				if !errors.As(err, &lexErr) {
					t.Fatalf("Lex(%q) returned %T, want *LexError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lex(%q) failed: %v", tt.input, err)
			}
			if got := summarize(tokens); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Lex(%q)\n got %v\nwant %v", tt.input, got, tt.expected)
			}
		})
	}
}

// TestLexSpans pins the exact rune offsets tokens carry; diagnostics depend
// on them.
func TestLexSpans(t *testing.T) {
	tokens, err := Lex("ab + 12")
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	expected := []Token{
		{Type: IDENT, Lexeme: "ab", Span: Span{Start: 0, End: 2, Line: 1}},
		{Type: OP, Lexeme: "+", Span: Span{Start: 3, End: 4, Line: 1}},
		{Type: NUM, Lexeme: "12", Span: Span{Start: 5, End: 7, Line: 1}},
		{Type: EOF, Lexeme: "", Span: Span{Start: 7, End: 7, Line: 1}},
	}
	if !reflect.DeepEqual(tokens, expected) {
		t.Errorf("Lex(\"ab + 12\")\n got %v\nwant %v", tokens, expected)
	}
}

// TestLexKeywordPriority checks the ordered-choice tie-break: the keyword
// rule is tried before the general identifier rule, so an exact keyword
// spelling never lexes as an identifier, while a longer word starting with
// one still does (the identifier match is greedy).
func TestLexKeywordPriority(t *testing.T) {
	tokens, err := Lex("return returns whiled while")
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	expected := []tok{
		{RETURN, "return", 1},
		{IDENT, "returns", 1},
		{IDENT, "whiled", 1},
		{WHILE, "while", 1},
		{EOF, "", 1},
	}
	if got := summarize(tokens); !reflect.DeepEqual(got, expected) {
		t.Errorf("got %v, want %v", got, expected)
	}
}

// TestLexErrorPosition checks that the error names the offending character
// and line.
func TestLexErrorPosition(t *testing.T) {
	_, err := Lex("int x = 1;\nint y = #;")
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("got %T (%v), want *LexError", err, err)
	}
	if lexErr.Span.Line != 2 {
		t.Errorf("error line = %d, want 2", lexErr.Span.Line)
	}
}

// TestLexDeterminism re-runs the lexer and expects identical output.
func TestLexDeterminism(t *testing.T) {
	src := "int main() { return fib(10) + 1; } // trailing"
	first, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	second, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed on rerun: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs over the same source disagree:\n%v\n%v", first, second)
	}
}
