package ir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"minic/pkg/compiler"
)

// DecodeError reports a malformed persisted tree: a shape that does not
// mirror any AST variant. Decoding is strict: unknown tags, unknown or
// missing fields, and wrong-arity operand arrays are all rejected rather
// than defaulted.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "ir: " + e.Reason }

func errf(format string, args ...any) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// binOps is the inverse of binTags.
var binOps = func() map[string]compiler.BinOp {
	m := make(map[string]compiler.BinOp, len(binTags))
	for op, tag := range binTags {
		m[tag] = op
	}
	return m
}()

// Decode parses a persisted tree back into a Program. The result carries no
// source spans; the tree never had any.
func Decode(data []byte) (*compiler.Program, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, errf("malformed document: %v", err)
	}
	defsRaw, ok := top["defs"]
	if !ok {
		return nil, errf(`missing required key "defs"`)
	}
	for key := range top {
		if key != "defs" {
			return nil, errf("unknown top-level key %q", key)
		}
	}

	var rawDefs []json.RawMessage
	if err := json.Unmarshal(defsRaw, &rawDefs); err != nil {
		return nil, errf(`"defs" must be an array: %v`, err)
	}

	prog := &compiler.Program{}
	for i, raw := range rawDefs {
		def, err := decodeDef(raw)
		if err != nil {
			return nil, errf("defs[%d]: %v", i, err)
		}
		prog.Defs = append(prog.Defs, def)
	}
	return prog, nil
}

// splitTag takes apart the single-key object form {"Tag": payload}.
func splitTag(raw json.RawMessage) (string, json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", nil, fmt.Errorf("expected a tagged object: %v", err)
	}
	if len(obj) != 1 {
		return "", nil, fmt.Errorf("expected exactly one variant tag, got %d keys", len(obj))
	}
	for tag, payload := range obj {
		return tag, payload, nil
	}
	return "", nil, fmt.Errorf("expected a tagged object")
}

// strictUnmarshal decodes payload into out, rejecting unknown fields.
func strictUnmarshal(payload json.RawMessage, out any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func decodeDef(raw json.RawMessage) (compiler.Def, error) {
	tag, payload, err := splitTag(raw)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "Func":
		var fb struct {
			Name   *string            `json:"name"`
			Params *[]param           `json:"params"`
			Ret    *string            `json:"ret"`
			Body   *[]json.RawMessage `json:"body"`
		}
		if err := strictUnmarshal(payload, &fb); err != nil {
			return nil, fmt.Errorf("Func: %v", err)
		}
		if fb.Name == nil || fb.Params == nil || fb.Ret == nil || fb.Body == nil {
			return nil, fmt.Errorf("Func: missing required field (need name, params, ret, body)")
		}
		body, err := decodeStmts(*fb.Body)
		if err != nil {
			return nil, fmt.Errorf("Func %s: %v", *fb.Name, err)
		}
		return &compiler.FuncDef{
			Name:   *fb.Name,
			Params: decodeParams(*fb.Params),
			Ret:    *fb.Ret,
			Body:   body,
		}, nil

	case "Struct":
		var sb struct {
			Name   *string  `json:"name"`
			Fields *[]param `json:"fields"`
		}
		if err := strictUnmarshal(payload, &sb); err != nil {
			return nil, fmt.Errorf("Struct: %v", err)
		}
		if sb.Name == nil || sb.Fields == nil {
			return nil, fmt.Errorf("Struct: missing required field (need name, fields)")
		}
		return &compiler.StructDef{Name: *sb.Name, Fields: decodeParams(*sb.Fields)}, nil

	default:
		return nil, fmt.Errorf("unknown definition tag %q", tag)
	}
}

func decodeParams(ps []param) []compiler.Param {
	var out []compiler.Param
	for _, p := range ps {
		out = append(out, compiler.Param{Type: p.Ty, Name: p.Name})
	}
	return out
}

func decodeStmts(raws []json.RawMessage) ([]compiler.Stmt, error) {
	var out []compiler.Stmt
	for i, raw := range raws {
		stmt, err := decodeStmt(raw)
		if err != nil {
			return nil, fmt.Errorf("body[%d]: %v", i, err)
		}
		out = append(out, stmt)
	}
	return out, nil
}

func decodeStmt(raw json.RawMessage) (compiler.Stmt, error) {
	tag, payload, err := splitTag(raw)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "Return":
		expr, err := decodeExpr(payload)
		if err != nil {
			return nil, fmt.Errorf("Return: %v", err)
		}
		return &compiler.ReturnStmt{Expr: expr}, nil

	case "Assign":
		var ab struct {
			Ty   *string          `json:"ty"`
			Name *string          `json:"name"`
			Expr *json.RawMessage `json:"expr"`
		}
		if err := strictUnmarshal(payload, &ab); err != nil {
			return nil, fmt.Errorf("Assign: %v", err)
		}
		if ab.Ty == nil || ab.Name == nil || ab.Expr == nil {
			return nil, fmt.Errorf("Assign: missing required field (need ty, name, expr)")
		}
		expr, err := decodeExpr(*ab.Expr)
		if err != nil {
			return nil, fmt.Errorf("Assign %s: %v", *ab.Name, err)
		}
		return &compiler.AssignStmt{Type: *ab.Ty, Name: *ab.Name, Expr: expr}, nil

	case "If":
		var ib struct {
			Cond *json.RawMessage   `json:"cond"`
			Then *[]json.RawMessage `json:"then"`
			Else *[]json.RawMessage `json:"else"` // optional: absent means no else branch
		}
		if err := strictUnmarshal(payload, &ib); err != nil {
			return nil, fmt.Errorf("If: %v", err)
		}
		if ib.Cond == nil || ib.Then == nil {
			return nil, fmt.Errorf("If: missing required field (need cond, then)")
		}
		cond, err := decodeExpr(*ib.Cond)
		if err != nil {
			return nil, fmt.Errorf("If: %v", err)
		}
		then, err := decodeStmts(*ib.Then)
		if err != nil {
			return nil, fmt.Errorf("If: %v", err)
		}
		stmt := &compiler.IfStmt{Cond: cond, Then: then}
		if ib.Else != nil {
			elseStmts, err := decodeStmts(*ib.Else)
			if err != nil {
				return nil, fmt.Errorf("If: %v", err)
			}
			if elseStmts == nil {
				elseStmts = []compiler.Stmt{}
			}
			stmt.Else = elseStmts
		}
		return stmt, nil

	case "While":
		var wb struct {
			Cond *json.RawMessage   `json:"cond"`
			Body *[]json.RawMessage `json:"body"`
		}
		if err := strictUnmarshal(payload, &wb); err != nil {
			return nil, fmt.Errorf("While: %v", err)
		}
		if wb.Cond == nil || wb.Body == nil {
			return nil, fmt.Errorf("While: missing required field (need cond, body)")
		}
		cond, err := decodeExpr(*wb.Cond)
		if err != nil {
			return nil, fmt.Errorf("While: %v", err)
		}
		body, err := decodeStmts(*wb.Body)
		if err != nil {
			return nil, fmt.Errorf("While: %v", err)
		}
		return &compiler.WhileStmt{Cond: cond, Body: body}, nil

	default:
		return nil, fmt.Errorf("unknown statement tag %q", tag)
	}
}

func decodeExpr(raw json.RawMessage) (compiler.Expr, error) {
	tag, payload, err := splitTag(raw)
	if err != nil {
		return nil, err
	}

	if op, ok := binOps[tag]; ok {
		var operands []json.RawMessage
		if err := json.Unmarshal(payload, &operands); err != nil {
			return nil, fmt.Errorf("%s: operands must be an array: %v", tag, err)
		}
		if len(operands) != 2 {
			return nil, fmt.Errorf("%s: expected exactly 2 operands, got %d", tag, len(operands))
		}
		left, err := decodeExpr(operands[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", tag, err)
		}
		right, err := decodeExpr(operands[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", tag, err)
		}
		return &compiler.BinaryExpr{Op: op, Left: left, Right: right}, nil
	}

	switch tag {
	case "Int":
		var v int64
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, fmt.Errorf("Int: payload must be a 64-bit integer: %v", err)
		}
		return &compiler.IntLit{Value: v}, nil

	case "Var":
		var name string
		if err := json.Unmarshal(payload, &name); err != nil {
			return nil, fmt.Errorf("Var: payload must be a string: %v", err)
		}
		return &compiler.VarRef{Name: name}, nil

	case "Neg":
		inner, err := decodeExpr(payload)
		if err != nil {
			return nil, fmt.Errorf("Neg: %v", err)
		}
		return &compiler.NegExpr{Expr: inner}, nil

	case "Call":
		var cb struct {
			Name *string            `json:"name"`
			Args *[]json.RawMessage `json:"args"`
		}
		if err := strictUnmarshal(payload, &cb); err != nil {
			return nil, fmt.Errorf("Call: %v", err)
		}
		if cb.Name == nil || cb.Args == nil {
			return nil, fmt.Errorf("Call: missing required field (need name, args)")
		}
		var args []compiler.Expr
		for i, rawArg := range *cb.Args {
			arg, err := decodeExpr(rawArg)
			if err != nil {
				return nil, fmt.Errorf("Call %s: args[%d]: %v", *cb.Name, i, err)
			}
			args = append(args, arg)
		}
		return &compiler.CallExpr{Name: *cb.Name, Args: args}, nil

	default:
		return nil, fmt.Errorf("unknown expression tag %q", tag)
	}
}
