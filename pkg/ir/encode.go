// Package ir persists the AST as a JSON tree and loads it back. The tree is
// a direct structural mirror of the AST: tagged unions become single-key
// objects whose key names the variant, sequences become arrays. Source
// positions are not part of the tree, so a decoded AST carries zero spans.
package ir

import (
	"encoding/json"
	"fmt"

	"minic/pkg/compiler"
)

// param mirrors compiler.Param in the persisted tree.
type param struct {
	Name string `json:"name"`
	Ty   string `json:"ty"`
}

type funcBody struct {
	Name   string            `json:"name"`
	Params []param           `json:"params"`
	Ret    string            `json:"ret"`
	Body   []json.RawMessage `json:"body"`
}

type structBody struct {
	Name   string  `json:"name"`
	Fields []param `json:"fields"`
}

type assignBody struct {
	Ty   string          `json:"ty"`
	Name string          `json:"name"`
	Expr json.RawMessage `json:"expr"`
}

type ifBody struct {
	Cond json.RawMessage   `json:"cond"`
	Then []json.RawMessage `json:"then"`
	Else []json.RawMessage `json:"else,omitempty"`
}

type whileBody struct {
	Cond json.RawMessage   `json:"cond"`
	Body []json.RawMessage `json:"body"`
}

type callBody struct {
	Name string            `json:"name"`
	Args []json.RawMessage `json:"args"`
}

// binTags maps a binary operator to its variant tag in the persisted tree.
var binTags = map[compiler.BinOp]string{
	compiler.Add: "Add",
	compiler.Sub: "Sub",
	compiler.Mul: "Mul",
	compiler.Div: "Div",
	compiler.Eq:  "Eq",
	compiler.Ne:  "Ne",
	compiler.Lt:  "Lt",
	compiler.Gt:  "Gt",
	compiler.Le:  "Le",
	compiler.Ge:  "Ge",
}

// tagged wraps a payload in the single-key object form {"Tag": payload}.
func tagged(tag string, payload any) (json.RawMessage, error) {
	return json.Marshal(map[string]any{tag: payload})
}

// Encode serialises a Program to its persisted tree. It refuses a Program
// that still contains recovery placeholders: a partial parse has no faithful
// tree shape, and silently dropping the damaged nodes would break the
// round-trip law.
func Encode(prog *compiler.Program) ([]byte, error) {
	defs := make([]json.RawMessage, 0, len(prog.Defs))
	for _, def := range prog.Defs {
		raw, err := encodeDef(def)
		if err != nil {
			return nil, err
		}
		defs = append(defs, raw)
	}
	return json.Marshal(struct {
		Defs []json.RawMessage `json:"defs"`
	}{Defs: defs})
}

func encodeDef(def compiler.Def) (json.RawMessage, error) {
	switch d := def.(type) {
	case *compiler.FuncDef:
		body, err := encodeStmts(d.Body)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", d.Name, err)
		}
		params := make([]param, 0, len(d.Params))
		for _, p := range d.Params {
			params = append(params, param{Name: p.Name, Ty: p.Type})
		}
		return tagged("Func", funcBody{Name: d.Name, Params: params, Ret: d.Ret, Body: body})

	case *compiler.StructDef:
		fields := make([]param, 0, len(d.Fields))
		for _, f := range d.Fields {
			fields = append(fields, param{Name: f.Name, Ty: f.Type})
		}
		return tagged("Struct", structBody{Name: d.Name, Fields: fields})

	default:
		return nil, fmt.Errorf("cannot encode definition node %T", def)
	}
}

func encodeStmts(stmts []compiler.Stmt) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(stmts))
	for _, s := range stmts {
		raw, err := encodeStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func encodeStmt(stmt compiler.Stmt) (json.RawMessage, error) {
	switch s := stmt.(type) {
	case *compiler.ReturnStmt:
		expr, err := encodeExpr(s.Expr)
		if err != nil {
			return nil, err
		}
		return tagged("Return", expr)

	case *compiler.AssignStmt:
		expr, err := encodeExpr(s.Expr)
		if err != nil {
			return nil, err
		}
		return tagged("Assign", assignBody{Ty: s.Type, Name: s.Name, Expr: expr})

	case *compiler.IfStmt:
		cond, err := encodeExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := encodeStmts(s.Then)
		if err != nil {
			return nil, err
		}
		body := ifBody{Cond: cond, Then: then}
		if len(s.Else) > 0 {
			elseStmts, err := encodeStmts(s.Else)
			if err != nil {
				return nil, err
			}
			body.Else = elseStmts
		}
		return tagged("If", body)

	case *compiler.WhileStmt:
		cond, err := encodeExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := encodeStmts(s.Body)
		if err != nil {
			return nil, err
		}
		return tagged("While", whileBody{Cond: cond, Body: body})

	case *compiler.BadStmt:
		return nil, fmt.Errorf("cannot encode a partial parse: statement at %s did not parse", s.Span)

	default:
		return nil, fmt.Errorf("cannot encode statement node %T", stmt)
	}
}

func encodeExpr(expr compiler.Expr) (json.RawMessage, error) {
	switch e := expr.(type) {
	case *compiler.IntLit:
		return tagged("Int", e.Value)

	case *compiler.VarRef:
		return tagged("Var", e.Name)

	case *compiler.NegExpr:
		inner, err := encodeExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		return tagged("Neg", inner)

	case *compiler.BinaryExpr:
		left, err := encodeExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return tagged(binTags[e.Op], [2]json.RawMessage{left, right})

	case *compiler.CallExpr:
		args := make([]json.RawMessage, 0, len(e.Args))
		for _, a := range e.Args {
			raw, err := encodeExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, raw)
		}
		return tagged("Call", callBody{Name: e.Name, Args: args})

	case *compiler.BadExpr:
		return nil, fmt.Errorf("cannot encode a partial parse: expression at %s did not parse", e.Span)

	default:
		return nil, fmt.Errorf("cannot encode expression node %T", expr)
	}
}
