package interp

import (
	"fmt"
	"math"

	"minic/pkg/compiler"
)

// DefaultMaxDepth bounds call nesting before StackExhausted is raised. Deep
// enough for real recursion, shallow enough to fail long before the host
// stack does.
const DefaultMaxDepth = 10000

// Interpreter holds the immutable function table shared by every call. The
// AST behind it is never written to; each call gets its own environment.
type Interpreter struct {
	// MaxDepth may be lowered before Run to bound recursion more tightly.
	MaxDepth int

	funcs map[string]*compiler.FuncDef
}

// env is one call frame: the mapping from names to values for a single
// invocation. Frames are independent; nothing is captured across calls.
type env map[string]int64

// New builds the function table from all definitions in prog. Struct
// definitions share the namespace (they carry no runtime behaviour but a
// name collision is still a definition error).
func New(prog *compiler.Program) (*Interpreter, error) {
	in := &Interpreter{
		MaxDepth: DefaultMaxDepth,
		funcs:    make(map[string]*compiler.FuncDef),
	}
	seen := make(map[string]bool)
	for _, def := range prog.Defs {
		switch d := def.(type) {
		case *compiler.FuncDef:
			if seen[d.Name] {
				return nil, DuplicateDefinition{Name: d.Name}
			}
			seen[d.Name] = true
			in.funcs[d.Name] = d
		case *compiler.StructDef:
			if seen[d.Name] {
				return nil, DuplicateDefinition{Name: d.Name}
			}
			seen[d.Name] = true
		default:
			return nil, fmt.Errorf("unsupported definition node %T", def)
		}
	}
	return in, nil
}

// Run executes the named entry function with no arguments and returns its
// result. The entry function must be defined and must declare no parameters.
func (in *Interpreter) Run(entry string) (int64, error) {
	fn, ok := in.funcs[entry]
	if !ok {
		return 0, UndefinedEntryPoint{Name: entry}
	}
	return in.call(fn, nil, 0)
}

// call evaluates one function invocation in a fresh frame.
func (in *Interpreter) call(fn *compiler.FuncDef, args []int64, depth int) (int64, error) {
	if len(args) != len(fn.Params) {
		return 0, ArityMismatch{Name: fn.Name, Want: len(fn.Params), Got: len(args)}
	}
	if depth >= in.MaxDepth {
		return 0, StackExhausted{Depth: in.MaxDepth}
	}

	frame := make(env, len(fn.Params))
	for i, p := range fn.Params {
		frame[p.Name] = args[i]
	}

	val, returned, err := in.execBlock(fn.Body, frame, depth)
	if err != nil {
		return 0, err
	}
	if !returned {
		return 0, MissingReturn{Name: fn.Name}
	}
	return val, nil
}

// execBlock runs statements in order. returned reports whether a return
// statement fired, which unwinds the enclosing function immediately.
func (in *Interpreter) execBlock(stmts []compiler.Stmt, frame env, depth int) (val int64, returned bool, err error) {
	for _, stmt := range stmts {
		val, returned, err = in.execStmt(stmt, frame, depth)
		if err != nil || returned {
			return val, returned, err
		}
	}
	return 0, false, nil
}

func (in *Interpreter) execStmt(stmt compiler.Stmt, frame env, depth int) (int64, bool, error) {
	switch s := stmt.(type) {
	case *compiler.ReturnStmt:
		val, err := in.evalExpr(s.Expr, frame, depth)
		if err != nil {
			return 0, false, err
		}
		return val, true, nil

	case *compiler.AssignStmt:
		val, err := in.evalExpr(s.Expr, frame, depth)
		if err != nil {
			return 0, false, err
		}
		frame[s.Name] = val
		return 0, false, nil

	case *compiler.IfStmt:
		cond, err := in.evalExpr(s.Cond, frame, depth)
		if err != nil {
			return 0, false, err
		}
		if cond != 0 {
			return in.execBlock(s.Then, frame, depth)
		}
		return in.execBlock(s.Else, frame, depth)

	case *compiler.WhileStmt:
		for {
			cond, err := in.evalExpr(s.Cond, frame, depth)
			if err != nil {
				return 0, false, err
			}
			if cond == 0 {
				return 0, false, nil
			}
			val, returned, err := in.execBlock(s.Body, frame, depth)
			if err != nil || returned {
				return val, returned, err
			}
		}

	case *compiler.BadStmt:
		return 0, false, InvalidNode{Span: s.Span}

	default:
		return 0, false, fmt.Errorf("unsupported statement node %T", stmt)
	}
}

// evalExpr is a pure recursive function over the expression tree.
func (in *Interpreter) evalExpr(expr compiler.Expr, frame env, depth int) (int64, error) {
	switch e := expr.(type) {
	case *compiler.IntLit:
		return e.Value, nil

	case *compiler.VarRef:
		val, ok := frame[e.Name]
		if !ok {
			return 0, UndefinedVariable{Name: e.Name, Span: e.Span}
		}
		return val, nil

	case *compiler.NegExpr:
		val, err := in.evalExpr(e.Expr, frame, depth)
		if err != nil {
			return 0, err
		}
		if val == math.MinInt64 {
			return 0, ArithmeticOverflow{Op: "-", Span: e.Span}
		}
		return -val, nil

	case *compiler.BinaryExpr:
		left, err := in.evalExpr(e.Left, frame, depth)
		if err != nil {
			return 0, err
		}
		right, err := in.evalExpr(e.Right, frame, depth)
		if err != nil {
			return 0, err
		}
		return in.applyBinOp(e, left, right)

	case *compiler.CallExpr:
		fn, ok := in.funcs[e.Name]
		if !ok {
			return 0, UndefinedFunction{Name: e.Name, Span: e.Span}
		}
		args := make([]int64, len(e.Args))
		for i, argExpr := range e.Args {
			argVal, err := in.evalExpr(argExpr, frame, depth)
			if err != nil {
				return 0, err
			}
			args[i] = argVal
		}
		return in.call(fn, args, depth+1)

	case *compiler.BadExpr:
		return 0, InvalidNode{Span: e.Span}

	default:
		return 0, fmt.Errorf("unsupported expression node %T", expr)
	}
}

// applyBinOp computes Left Op Right with checked 64-bit signed arithmetic.
// Comparisons yield 1 or 0.
func (in *Interpreter) applyBinOp(e *compiler.BinaryExpr, left, right int64) (int64, error) {
	boolToInt := func(b bool) int64 {
		if b {
			return 1
		}
		return 0
	}

	switch e.Op {
	case compiler.Add:
		if (right > 0 && left > math.MaxInt64-right) || (right < 0 && left < math.MinInt64-right) {
			return 0, ArithmeticOverflow{Op: "+", Span: e.Span}
		}
		return left + right, nil

	case compiler.Sub:
		if (right < 0 && left > math.MaxInt64+right) || (right > 0 && left < math.MinInt64+right) {
			return 0, ArithmeticOverflow{Op: "-", Span: e.Span}
		}
		return left - right, nil

	case compiler.Mul:
		if left != 0 && right != 0 {
			if (left == -1 && right == math.MinInt64) || (right == -1 && left == math.MinInt64) {
				return 0, ArithmeticOverflow{Op: "*", Span: e.Span}
			}
			if prod := left * right; prod/left != right {
				return 0, ArithmeticOverflow{Op: "*", Span: e.Span}
			}
		}
		return left * right, nil

	case compiler.Div:
		if right == 0 {
			return 0, DivisionByZero{Span: e.Span}
		}
		if left == math.MinInt64 && right == -1 {
			return 0, ArithmeticOverflow{Op: "/", Span: e.Span}
		}
		return left / right, nil

	case compiler.Eq:
		return boolToInt(left == right), nil
	case compiler.Ne:
		return boolToInt(left != right), nil
	case compiler.Lt:
		return boolToInt(left < right), nil
	case compiler.Gt:
		return boolToInt(left > right), nil
	case compiler.Le:
		return boolToInt(left <= right), nil
	case compiler.Ge:
		return boolToInt(left >= right), nil

	default:
		return 0, fmt.Errorf("unsupported binary operator %v", e.Op)
	}
}
