package ast

import (
	"encoding/json"
	"testing"
)

func TestToJSONRoundTripsFnShape(t *testing.T) {
	prog := &Program{
		Fns: []*FnDecl{
			{
				Name:      "add",
				Params:    []string{"a", "b"},
				HasResult: true,
				Body: Block{Stmts: []Stmt{
					&ReturnVal{Expr: &BinOp{
						Op:  0,
						LHS: &VarRef{Name: "a"},
						RHS: &VarRef{Name: "b"},
					}},
				}},
			},
		},
	}

	out, err := ToJSON(prog)
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	fns, ok := decoded["fns"].([]any)
	if !ok || len(fns) != 1 {
		t.Fatalf("expected 1 fn, got %v", decoded["fns"])
	}
	fn := fns[0].(map[string]any)
	if fn["type"] != "FnDecl" || fn["name"] != "add" || fn["hasResult"] != true {
		t.Fatalf("unexpected fn node: %v", fn)
	}
	body := fn["body"].([]any)
	if len(body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(body))
	}
	ret := body[0].(map[string]any)
	if ret["type"] != "ReturnVal" {
		t.Fatalf("expected ReturnVal, got %v", ret["type"])
	}
}
