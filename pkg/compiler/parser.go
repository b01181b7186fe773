package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
//
// Grammar (PEG: alternatives are tried in the listed order, first match wins):
//
//	program    = definition* EOF
//	definition = structDef / funcDef              (keyword rule before the
//	                                               general identifier rule)
//	structDef  = "struct" IDENT "{" (param ";")* "}" ";"
//	funcDef    = IDENT IDENT "(" (param ("," param)*)? ")" "{" stmt* "}"
//	param      = IDENT IDENT                      (type, then name)
//	stmt       = returnStmt / ifStmt / whileStmt / assignStmt
//	returnStmt = "return" expr ";"
//	ifStmt     = "if" "(" expr ")" "{" stmt* "}" ("else" "{" stmt* "}")?
//	whileStmt  = "while" "(" expr ")" "{" stmt* "}"
//	assignStmt = IDENT IDENT "=" expr ";"
//	expr       = comparison
//	comparison = sum (("=="|"!="|"<"|">"|"<="|">=") sum)?
//	sum        = product (("+"|"-") product)*
//	product    = unary (("*"|"/") unary)*
//	unary      = "-" unary / postfix
//	postfix    = atom ("(" (expr ("," expr)*)? ")")?
//	atom       = NUM / "(" expr ")" / IDENT
//
// Errors never abort the pass. A failed statement or definition is recorded
// as one Diagnostic, the token cursor is resynchronised past a balancing
// delimiter, and parsing resumes, so a single malformed construct cannot
// suppress the well-formed ones that follow it.
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
	diags       []Diagnostic
}

// parseError is the internal failure value threaded through the productions.
// It becomes a Diagnostic at the recovery point that catches it.
type parseError struct {
	span Span
	msg  string
	fix  string
}

func (e *parseError) Error() string { return e.msg }

func newParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// errorf builds a parseError whose message carries the offending source line,
// so rendered diagnostics show the construct that failed.
func (p *Parser) errorf(tok Token, format string, args ...any) *parseError {
	msg := fmt.Sprintf(format, args...)
	lineIdx := tok.Span.Line - 1 // lines are 1-based

	snippet := "<source unavailable>"
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}

	return &parseError{span: tok.Span, msg: fmt.Sprintf("%s\n  |> %s", msg, snippet)}
}

// report converts a production failure into a collected Diagnostic.
func (p *Parser) report(err error) {
	if pe, ok := err.(*parseError); ok {
		p.diags = append(p.diags, Diagnostic{Span: pe.span, Msg: pe.msg, Fix: pe.fix})
		return
	}
	p.diags = append(p.diags, Diagnostic{Msg: err.Error()})
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	return p.peekAt(0)
}

// peekAt returns the token at the given offset from the current position.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+offset]
}

// prev returns the most recently consumed token.
func (p *Parser) prev() Token {
	if p.pos == 0 {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos-1]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt. On a mismatch the
// token is left in place so the recovery scan sees it too.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return p.advance(), nil
}

func (p *Parser) atCtrl(ch string) bool {
	tok := p.peek()
	return tok.Type == CTRL && tok.Lexeme == ch
}

func (p *Parser) atOp(op string) bool {
	tok := p.peek()
	return tok.Type == OP && tok.Lexeme == op
}

// expectCtrl consumes the current token if it is the given punctuation
// character, leaving it in place otherwise.
func (p *Parser) expectCtrl(ch string) (Token, error) {
	tok := p.peek()
	if tok.Type != CTRL || tok.Lexeme != ch {
		return tok, p.errorf(tok, "expected %q, got %s (%q)", ch, tok.Type, tok.Lexeme)
	}
	return p.advance(), nil
}

// expectSemi is expectCtrl(";") with a suggested fix attached.
func (p *Parser) expectSemi(after string) (Token, error) {
	tok := p.peek()
	if tok.Type != CTRL || tok.Lexeme != ";" {
		err := p.errorf(tok, "expected ';' after %s, got %s (%q)", after, tok.Type, tok.Lexeme)
		err.fix = "add ';'"
		return tok, err
	}
	return p.advance(), nil
}

// spanBetween joins the start of a and the end of b.
func spanBetween(a, b Span) Span {
	return Span{Start: a.Start, End: b.End, Line: a.Line}
}

//  Recovery

// syncStatement scans to the end of the damaged statement: past the next ';'
// that sits outside any nested delimiters, or up to (not past) the '}' that
// closes the enclosing block. The scan restarts from the statement's first
// token so that delimiters consumed before the failure still count, and a ';'
// or '}' inside a malformed argument list does not end the scan early.
func (p *Parser) syncStatement(from int) {
	p.pos = from
	parens := 0 // ( and [ nesting, counted together
	braces := 0
	for {
		tok := p.peek()
		if tok.Type == EOF {
			return
		}
		if tok.Type == CTRL {
			switch tok.Lexeme {
			case "(", "[":
				parens++
			case ")", "]":
				if parens > 0 {
					parens--
				}
			case "{":
				braces++
			case "}":
				if braces == 0 {
					return // the enclosing block's close: stop before it
				}
				braces--
			case ";":
				if parens == 0 && braces == 0 {
					p.advance()
					return
				}
			}
		}
		p.advance()
	}
}

// syncTopLevel scans forward to the start of the next plausible top-level
// definition. If the damaged definition had already opened a brace block, the
// scan consumes up to and including the balancing '}' (and a trailing ';',
// which closes a struct definition); otherwise it stops as soon as a
// definition-shaped prefix appears at nesting depth zero.
func (p *Parser) syncTopLevel() {
	depth := 0
	entered := false
	for {
		tok := p.peek()
		if tok.Type == EOF {
			return
		}
		if tok.Type == CTRL {
			switch tok.Lexeme {
			case "{":
				depth++
				entered = true
			case "}":
				if depth > 0 {
					depth--
				}
				if entered && depth == 0 {
					p.advance()
					if p.atCtrl(";") {
						p.advance()
					}
					return
				}
			}
		}
		if !entered && depth == 0 {
			if tok.Type == STRUCT {
				return
			}
			if tok.Type == IDENT && p.peekAt(1).Type == IDENT &&
				p.peekAt(2).Type == CTRL && p.peekAt(2).Lexeme == "(" {
				return // looks like the next function header
			}
		}
		p.advance()
	}
}

//  Definitions

// parseDefinition tries the struct rule first: "struct" is a keyword token,
// so a definition starting with its exact spelling can never be mistaken for
// a function whose return type happens to look the same.
func (p *Parser) parseDefinition() (Def, error) {
	if p.peek().Type == STRUCT {
		return p.parseStructDef()
	}
	return p.parseFuncDef()
}

func (p *Parser) parseStructDef() (Def, error) {
	kw := p.advance() // STRUCT
	nameTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectCtrl("{"); err != nil {
		return nil, err
	}

	var fields []Param
	for !p.atCtrl("}") && p.peek().Type != EOF {
		field, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSemi("struct field"); err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	if _, err := p.expectCtrl("}"); err != nil {
		return nil, err
	}
	semi, err := p.expectSemi("struct definition")
	if err != nil {
		return nil, err
	}

	return &StructDef{
		Name:   nameTok.Lexeme,
		Fields: fields,
		Span:   spanBetween(kw.Span, semi.Span),
	}, nil
}

func (p *Parser) parseFuncDef() (Def, error) {
	retTok, err := p.expect(IDENT)
	if err != nil {
		tok := p.peek()
		return nil, p.errorf(tok, "expected definition, got %s (%q)", tok.Type, tok.Lexeme)
	}
	nameTok, err := p.expect(IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectCtrl("("); err != nil {
		return nil, err
	}

	var params []Param
	if !p.atCtrl(")") {
		for {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.atCtrl(",") {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expectCtrl(")"); err != nil {
		return nil, err
	}

	body, closeTok, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}

	return &FuncDef{
		Name:   nameTok.Lexeme,
		Params: params,
		Ret:    retTok.Lexeme,
		Body:   body,
		Span:   spanBetween(retTok.Span, closeTok.Span),
	}, nil
}

// parseParam parses one "type name" pair.
func (p *Parser) parseParam() (Param, error) {
	tyTok, err := p.expect(IDENT)
	if err != nil {
		return Param{}, err
	}
	nameTok, err := p.expect(IDENT)
	if err != nil {
		return Param{}, err
	}
	return Param{Type: tyTok.Lexeme, Name: nameTok.Lexeme}, nil
}

//  Statements

// parseBraceBlock parses "{" stmt* "}" and returns the closing brace token.
// Statement failures are contained here: each one becomes a Diagnostic and a
// BadStmt placeholder, and parsing resumes at the resynchronised cursor.
func (p *Parser) parseBraceBlock() ([]Stmt, Token, error) {
	if _, err := p.expectCtrl("{"); err != nil {
		return nil, Token{}, err
	}

	var stmts []Stmt
	for !p.atCtrl("}") && p.peek().Type != EOF {
		before := p.pos
		stmt, err := p.parseStatement()
		if err != nil {
			p.report(err)
			p.syncStatement(before)
			start := p.tokens[before].Span
			stmts = append(stmts, &BadStmt{Span: spanBetween(start, p.prev().Span)})
			if p.pos == before {
				p.advance() // always make progress
			}
			continue
		}
		stmts = append(stmts, stmt)
	}

	closeTok, err := p.expectCtrl("}")
	if err != nil {
		return stmts, closeTok, err
	}
	return stmts, closeTok, nil
}

// parseStatement dispatches on the leading token; the keyword rules come
// first, then the qualified-declaration rule with cursor backtracking.
func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case RETURN:
		return p.parseReturn()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case IDENT:
		if stmt, matched, err := p.tryParseAssign(); matched {
			return stmt, err
		}
		return nil, p.errorf(tok, "expected statement, got bare identifier %q", tok.Lexeme)
	default:
		return nil, p.errorf(tok, "expected statement, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// parseReturn parses  return expr ;
func (p *Parser) parseReturn() (Stmt, error) {
	kw := p.advance() // RETURN
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	semi, err := p.expectSemi("return value")
	if err != nil {
		return nil, err
	}
	return &ReturnStmt{Expr: expr, Span: spanBetween(kw.Span, semi.Span)}, nil
}

// tryParseAssign attempts the qualified-declaration rule  IDENT IDENT = expr ;
// While the "type name =" prefix is still being matched, a mismatch restores
// the saved cursor and reports no match so the next alternative can run.
// Once the prefix has committed, failures are real errors.
func (p *Parser) tryParseAssign() (Stmt, bool, error) {
	save := p.pos

	tyTok := p.advance()
	if tyTok.Type != IDENT {
		p.pos = save
		return nil, false, nil
	}
	nameTok := p.advance()
	if nameTok.Type != IDENT {
		p.pos = save
		return nil, false, nil
	}
	if !p.atOp("=") {
		p.pos = save
		return nil, false, nil
	}
	p.advance() // =

	expr, err := p.parseExpr()
	if err != nil {
		return nil, true, err
	}
	semi, err := p.expectSemi("initialiser")
	if err != nil {
		return nil, true, err
	}
	return &AssignStmt{
		Type: tyTok.Lexeme,
		Name: nameTok.Lexeme,
		Expr: expr,
		Span: spanBetween(tyTok.Span, semi.Span),
	}, true, nil
}

// parseIf parses  if ( cond ) { then } [ else { else } ]
func (p *Parser) parseIf() (Stmt, error) {
	kw := p.advance() // IF
	if _, err := p.expectCtrl("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectCtrl(")"); err != nil {
		return nil, err
	}
	then, closeTok, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}

	var elseBody []Stmt
	if p.peek().Type == ELSE {
		p.advance()
		elseBody, closeTok, err = p.parseBraceBlock()
		if err != nil {
			return nil, err
		}
		if elseBody == nil {
			elseBody = []Stmt{} // distinguish "else {}" from no else at all
		}
	}

	return &IfStmt{
		Cond: cond,
		Then: then,
		Else: elseBody,
		Span: spanBetween(kw.Span, closeTok.Span),
	}, nil
}

// parseWhile parses  while ( cond ) { body }
func (p *Parser) parseWhile() (Stmt, error) {
	kw := p.advance() // WHILE
	if _, err := p.expectCtrl("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectCtrl(")"); err != nil {
		return nil, err
	}
	body, closeTok, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body, Span: spanBetween(kw.Span, closeTok.Span)}, nil
}

//  Expressions

var cmpOps = map[string]BinOp{
	"==": Eq, "!=": Ne, "<": Lt, ">": Gt, "<=": Le, ">=": Ge,
}

// parseExpr is the entry point for expression parsing.
func (p *Parser) parseExpr() (Expr, error) {
	return p.parseComparison()
}

// parseComparison handles the single optional comparison operator.
// Comparisons do not chain: a == b == c is a parse error at the second ==.
func (p *Parser) parseComparison() (Expr, error) {
	expr, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	if tok.Type == OP {
		if op, ok := cmpOps[tok.Lexeme]; ok {
			p.advance()
			right, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			expr = &BinaryExpr{
				Op: op, Left: expr, Right: right,
				Span: spanBetween(expr.Pos(), right.Pos()),
			}
		}
	}
	return expr, nil
}

// parseSum handles + and -
func (p *Parser) parseSum() (Expr, error) {
	expr, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.atOp("+") || p.atOp("-") {
		op := Add
		if p.advance().Lexeme == "-" {
			op = Sub
		}
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{
			Op: op, Left: expr, Right: right,
			Span: spanBetween(expr.Pos(), right.Pos()),
		}
	}
	return expr, nil
}

// parseProduct handles * and /
func (p *Parser) parseProduct() (Expr, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.atOp("*") || p.atOp("/") {
		op := Mul
		if p.advance().Lexeme == "/" {
			op = Div
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{
			Op: op, Left: expr, Right: right,
			Span: spanBetween(expr.Pos(), right.Pos()),
		}
	}
	return expr, nil
}

// parseUnary handles prefix - (negation). Repeated minus signs nest.
func (p *Parser) parseUnary() (Expr, error) {
	if p.atOp("-") {
		minus := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NegExpr{Expr: right, Span: spanBetween(minus.Span, right.Pos())}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles the call suffix  name(args)
func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	if p.atCtrl("(") {
		varRef, ok := expr.(*VarRef)
		if !ok {
			// Computed callees like (f)(x) are not in the subset.
			return nil, p.errorf(p.peek(), "expected function name before '('")
		}
		p.advance() // (
		var args []Expr
		if !p.atCtrl(")") {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.atCtrl(",") {
					break
				}
				p.advance()
			}
		}
		closeTok, err := p.expectCtrl(")")
		if err != nil {
			return nil, err
		}
		expr = &CallExpr{
			Name: varRef.Name,
			Args: args,
			Span: spanBetween(varRef.Span, closeTok.Span),
		}
	}
	return expr, nil
}

// parseAtom handles literals, variable references, and parenthesised
// expressions. Alternatives run in that order; NUM and IDENT are disjoint
// token types so the only real choice point is the parenthesis.
func (p *Parser) parseAtom() (Expr, error) {
	tok := p.peek()
	switch {
	case tok.Type == NUM:
		p.advance()
		val, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "integer literal %q overflows a 64-bit int", tok.Lexeme)
		}
		return &IntLit{Value: val, Span: tok.Span}, nil

	case tok.Type == IDENT:
		p.advance()
		return &VarRef{Name: tok.Lexeme, Span: tok.Span}, nil

	case tok.Type == CTRL && tok.Lexeme == "(":
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectCtrl(")"); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, p.errorf(tok, "expected expression, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

//  Entry point

// Parse builds a Program from the token slice. It always returns a
// best-effort AST together with every Diagnostic collected along the way;
// a non-empty diagnostic slice means the AST may contain BadStmt
// placeholders or be missing definitions that could not be recovered.
func Parse(tokens []Token, rawSource string) (*Program, []Diagnostic) {
	p := newParser(tokens, rawSource)
	prog := &Program{}
	for p.peek().Type != EOF {
		before := p.pos
		def, err := p.parseDefinition()
		if err != nil {
			p.report(err)
			p.syncTopLevel()
		} else {
			prog.Defs = append(prog.Defs, def)
		}
		if p.pos == before {
			p.advance() // always make progress
		}
	}
	return prog, p.diags
}
