package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ignoreSpans drops source positions from comparisons; span bookkeeping is
// covered separately.
var ignoreSpans = cmpopts.IgnoreTypes(Span{})

func parseSource(t *testing.T, src string) (*Program, []Diagnostic) {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q) failed: %v", src, err)
	}
	return Parse(tokens, src)
}

// mustParse fails the test on any diagnostic.
func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, diags := parseSource(t, src)
	if len(diags) != 0 {
		t.Fatalf("Parse(%q) produced diagnostics: %v", src, diags)
	}
	return prog
}

// TestParse verifies the AST produced for valid inputs.
func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Def
	}{
		{
			name:  "Return Constant",
			input: "int main() { return 1 + 1; }",
			expected: []Def{
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&ReturnStmt{Expr: &BinaryExpr{
						Op:    Add,
						Left:  &IntLit{Value: 1},
						Right: &IntLit{Value: 1},
					}},
				}},
			},
		},
		{
			name:  "Multiplication Binds Tighter",
			input: "int main() { return 2 + 3 * 4; }",
			expected: []Def{
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&ReturnStmt{Expr: &BinaryExpr{
						Op:   Add,
						Left: &IntLit{Value: 2},
						Right: &BinaryExpr{
							Op:    Mul,
							Left:  &IntLit{Value: 3},
							Right: &IntLit{Value: 4},
						},
					}},
				}},
			},
		},
		{
			name:  "Parentheses Override Precedence",
			input: "int main() { return (2 + 3) * 4; }",
			expected: []Def{
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&ReturnStmt{Expr: &BinaryExpr{
						Op: Mul,
						Left: &BinaryExpr{
							Op:    Add,
							Left:  &IntLit{Value: 2},
							Right: &IntLit{Value: 3},
						},
						Right: &IntLit{Value: 4},
					}},
				}},
			},
		},
		{
			name:  "Subtraction Is Left Associative",
			input: "int main() { return 10 - 4 - 3; }",
			expected: []Def{
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&ReturnStmt{Expr: &BinaryExpr{
						Op: Sub,
						Left: &BinaryExpr{
							Op:    Sub,
							Left:  &IntLit{Value: 10},
							Right: &IntLit{Value: 4},
						},
						Right: &IntLit{Value: 3},
					}},
				}},
			},
		},
		{
			name:  "Nested Negation",
			input: "int main() { return - -5; }",
			expected: []Def{
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&ReturnStmt{Expr: &NegExpr{Expr: &NegExpr{Expr: &IntLit{Value: 5}}}},
				}},
			},
		},
		{
			name:  "Call With Arguments",
			input: "int main() { return add(1, 2 * x); }",
			expected: []Def{
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&ReturnStmt{Expr: &CallExpr{
						Name: "add",
						Args: []Expr{
							&IntLit{Value: 1},
							&BinaryExpr{
								Op:    Mul,
								Left:  &IntLit{Value: 2},
								Right: &VarRef{Name: "x"},
							},
						},
					}},
				}},
			},
		},
		{
			name:  "Zero Argument Call",
			input: "int main() { return f(); }",
			expected: []Def{
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&ReturnStmt{Expr: &CallExpr{Name: "f"}},
				}},
			},
		},
		{
			name:  "Function Parameters",
			input: "int add(int a, int b) { return a + b; }",
			expected: []Def{
				&FuncDef{
					Name:   "add",
					Ret:    "int",
					Params: []Param{{Type: "int", Name: "a"}, {Type: "int", Name: "b"}},
					Body: []Stmt{
						&ReturnStmt{Expr: &BinaryExpr{
							Op:    Add,
							Left:  &VarRef{Name: "a"},
							Right: &VarRef{Name: "b"},
						}},
					},
				},
			},
		},
		{
			name:  "Struct Definition",
			input: "struct Point { int x; int y; };",
			expected: []Def{
				&StructDef{
					Name:   "Point",
					Fields: []Param{{Type: "int", Name: "x"}, {Type: "int", Name: "y"}},
				},
			},
		},
		{
			name:  "Typed Assignment",
			input: "int main() { int x = f(2) * 3; return x; }",
			expected: []Def{
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&AssignStmt{Type: "int", Name: "x", Expr: &BinaryExpr{
						Op:    Mul,
						Left:  &CallExpr{Name: "f", Args: []Expr{&IntLit{Value: 2}}},
						Right: &IntLit{Value: 3},
					}},
					&ReturnStmt{Expr: &VarRef{Name: "x"}},
				}},
			},
		},
		{
			name:  "If Else",
			input: "int main() { if (x < 10) { return 1; } else { return 2; } }",
			expected: []Def{
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&IfStmt{
						Cond: &BinaryExpr{
							Op:    Lt,
							Left:  &VarRef{Name: "x"},
							Right: &IntLit{Value: 10},
						},
						Then: []Stmt{&ReturnStmt{Expr: &IntLit{Value: 1}}},
						Else: []Stmt{&ReturnStmt{Expr: &IntLit{Value: 2}}},
					},
				}},
			},
		},
		{
			name:  "While Loop",
			input: "int main() { int i = 0; while (i != 3) { int i = i + 1; } return i; }",
			expected: []Def{
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&AssignStmt{Type: "int", Name: "i", Expr: &IntLit{Value: 0}},
					&WhileStmt{
						Cond: &BinaryExpr{
							Op:    Ne,
							Left:  &VarRef{Name: "i"},
							Right: &IntLit{Value: 3},
						},
						Body: []Stmt{
							&AssignStmt{Type: "int", Name: "i", Expr: &BinaryExpr{
								Op:    Add,
								Left:  &VarRef{Name: "i"},
								Right: &IntLit{Value: 1},
							}},
						},
					},
					&ReturnStmt{Expr: &VarRef{Name: "i"}},
				}},
			},
		},
		{
			name:  "Two Definitions In Order",
			input: "struct S { int v; };\nint main() { return 0; }",
			expected: []Def{
				&StructDef{Name: "S", Fields: []Param{{Type: "int", Name: "v"}}},
				&FuncDef{Name: "main", Ret: "int", Body: []Stmt{
					&ReturnStmt{Expr: &IntLit{Value: 0}},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustParse(t, tt.input)
			if diff := cmp.Diff(tt.expected, prog.Defs, ignoreSpans); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

// TestParseDeterminism re-runs the whole front end and compares everything,
// spans included.
func TestParseDeterminism(t *testing.T) {
	src := `
struct Pair { int a; int b; };
int fib(int n) {
	if (n < 2) { return n; }
	return fib(n - 1) + fib(n - 2);
}
int main() { return fib(10); }
`
	first := mustParse(t, src)
	second := mustParse(t, src)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("two parses of the same source disagree:\n%s", diff)
	}
}

// TestParseSpans verifies nodes map back to their source range.
func TestParseSpans(t *testing.T) {
	src := "int main() { return 42; }"
	prog := mustParse(t, src)

	fn, ok := prog.Defs[0].(*FuncDef)
	if !ok {
		t.Fatalf("Defs[0] is %T, want *FuncDef", prog.Defs[0])
	}
	if fn.Pos().Start != 0 || fn.Pos().End != len(src) {
		t.Errorf("FuncDef span = %v, want to cover the whole definition", fn.Pos())
	}

	ret := fn.Body[0].(*ReturnStmt)
	if src[ret.Pos().Start:ret.Pos().End] != "return 42;" {
		t.Errorf("ReturnStmt span %v covers %q, want %q",
			ret.Pos(), src[ret.Pos().Start:ret.Pos().End], "return 42;")
	}
	lit := ret.Expr.(*IntLit)
	if src[lit.Pos().Start:lit.Pos().End] != "42" {
		t.Errorf("IntLit span %v covers %q, want %q",
			lit.Pos(), src[lit.Pos().Start:lit.Pos().End], "42")
	}
}

// TestParseChainedComparisonRejected pins the grammar decision that
// comparisons do not associate.
func TestParseChainedComparisonRejected(t *testing.T) {
	_, diags := parseSource(t, "int main() { return 1 < 2 < 3; }")
	if len(diags) == 0 {
		t.Fatal("chained comparison parsed without diagnostics")
	}
}
