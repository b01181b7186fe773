package compiler

import (
	"fmt"
	"strings"
)

// Program is an ordered sequence of top-level definitions. Name uniqueness is
// not enforced here; the interpreter checks it when it builds its function
// table.
type Program struct {
	Defs []Def
}

// Param is one (type, name) pair in a function signature or struct body.
type Param struct {
	Type string
	Name string
}

func (p Param) String() string { return p.Type + " " + p.Name }

//  Definition nodes

// Def is implemented by every top-level definition.
type Def interface {
	defNode()
	Pos() Span
	String() string
}

// FuncDef represents  ret name(params) { body }
type FuncDef struct {
	Name   string
	Params []Param
	Ret    string
	Body   []Stmt
	Span   Span
}

func (*FuncDef) defNode() {}
func (f *FuncDef) Pos() Span   { return f.Span }
func (f *FuncDef) String() string {
	return fmt.Sprintf("FuncDef(%s %s, params=%v, body=%d stmts)", f.Ret, f.Name, f.Params, len(f.Body))
}

// StructDef represents  struct Name { type field; ... };
type StructDef struct {
	Name   string
	Fields []Param
	Span   Span
}

func (*StructDef) defNode() {}
func (s *StructDef) Pos() Span { return s.Span }
func (s *StructDef) String() string {
	return fmt.Sprintf("StructDef(struct %s, fields=%v)", s.Name, s.Fields)
}

//  Statement nodes

// Stmt is implemented by every node that appears in a function body.
type Stmt interface {
	stmtNode()
	Pos() Span
	String() string
}

// ReturnStmt represents  return expr;
// It short-circuits the remaining statements of the enclosing function.
type ReturnStmt struct {
	Expr Expr
	Span Span
}

func (*ReturnStmt) stmtNode() {}
func (r *ReturnStmt) Pos() Span { return r.Span }
func (r *ReturnStmt) String() string {
	return fmt.Sprintf("ReturnStmt(%s)", r.Expr)
}

// AssignStmt represents a typed declaration with initialiser:  int x = expr;
type AssignStmt struct {
	Type string
	Name string
	Expr Expr
	Span Span
}

func (*AssignStmt) stmtNode() {}
func (a *AssignStmt) Pos() Span { return a.Span }
func (a *AssignStmt) String() string {
	return fmt.Sprintf("AssignStmt(%s %s = %s)", a.Type, a.Name, a.Expr)
}

// IfStmt represents  if (cond) { then } [else { else }]
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt // nil when no else branch was written
	Span Span
}

func (*IfStmt) stmtNode() {}
func (i *IfStmt) Pos() Span { return i.Span }
func (i *IfStmt) String() string {
	if i.Else != nil {
		return fmt.Sprintf("IfStmt(%s, then=%d, else=%d)", i.Cond, len(i.Then), len(i.Else))
	}
	return fmt.Sprintf("IfStmt(%s, then=%d)", i.Cond, len(i.Then))
}

// WhileStmt represents  while (cond) { body }
type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Span Span
}

func (*WhileStmt) stmtNode() {}
func (w *WhileStmt) Pos() Span { return w.Span }
func (w *WhileStmt) String() string {
	return fmt.Sprintf("WhileStmt(%s, body=%d)", w.Cond, len(w.Body))
}

// BadStmt is the placeholder left behind when statement parsing failed and
// the parser resynchronised past the damage. It keeps the surrounding
// well-formed statements in the tree.
type BadStmt struct {
	Span Span
}

func (*BadStmt) stmtNode() {}
func (b *BadStmt) Pos() Span   { return b.Span }
func (b *BadStmt) String() string { return "BadStmt" }

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	Pos() Span
	String() string
}

// IntLit is an integer constant. The lexer keeps literals as raw digit text;
// the parser converts them to int64 when it builds this node.
type IntLit struct {
	Value int64
	Span  Span
}

func (*IntLit) exprNode() {}
func (l *IntLit) Pos() Span   { return l.Span }
func (l *IntLit) String() string { return fmt.Sprintf("%d", l.Value) }

// VarRef is a read of a named variable.
type VarRef struct {
	Name string
	Span Span
}

func (*VarRef) exprNode() {}
func (v *VarRef) Pos() Span   { return v.Span }
func (v *VarRef) String() string { return v.Name }

// NegExpr is unary arithmetic negation.
type NegExpr struct {
	Expr Expr
	Span Span
}

func (*NegExpr) exprNode() {}
func (n *NegExpr) Pos() Span   { return n.Span }
func (n *NegExpr) String() string { return fmt.Sprintf("(-%s)", n.Expr) }

// BinOp identifies the operator of a BinaryExpr.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Eq
	Ne
	Lt
	Gt
	Le
	Ge
)

var binOpText = [...]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/",
	Eq: "==", Ne: "!=", Lt: "<", Gt: ">", Le: "<=", Ge: ">=",
}

func (op BinOp) String() string {
	if int(op) >= 0 && int(op) < len(binOpText) {
		return binOpText[op]
	}
	return fmt.Sprintf("BinOp(%d)", int(op))
}

// BinaryExpr represents Left Op Right.
type BinaryExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
	Span  Span
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) Pos() Span { return b.Span }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// CallExpr represents name(args).
type CallExpr struct {
	Name string
	Args []Expr
	Span Span
}

func (*CallExpr) exprNode() {}
func (c *CallExpr) Pos() Span { return c.Span }
func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

// BadExpr is the expression counterpart of BadStmt.
type BadExpr struct {
	Span Span
}

func (*BadExpr) exprNode() {}
func (b *BadExpr) Pos() Span   { return b.Span }
func (b *BadExpr) String() string { return "BadExpr" }
