package symbol

import (
	"testing"

	"github.com/NorthIsUp/awk-language-server/internal/position"
)

func TestKindLabel(t *testing.T) {
	cases := map[Kind]string{
		GlobalVariable: "global variable",
		LocalVariable:  "local variable",
		Parameter:      "parameter",
		Function:       "function",
	}
	for kind, want := range cases {
		if got := kind.Label(); got != want {
			t.Errorf("%v.Label() = %q, want %q", kind, got, want)
		}
	}
}

func TestDefinitionRange(t *testing.T) {
	def := Definition{
		Position: position.Position{Line: 3, Character: 4},
		Name:     "counter",
	}
	r := def.Range()
	if r.Start != def.Position {
		t.Errorf("range start = %v, want %v", r.Start, def.Position)
	}
	want := position.Position{Line: 3, Character: 4 + uint32(len("counter"))}
	if r.End != want {
		t.Errorf("range end = %v, want %v", r.End, want)
	}
}

func TestScopeInFunction(t *testing.T) {
	if FileScope.InFunction() {
		t.Errorf("file scope should not be in a function")
	}
	fn := &Definition{Name: "f", Kind: Function}
	s := Scope{Function: fn}
	if !s.InFunction() {
		t.Errorf("scope with a function should be in a function")
	}
}

func TestFormatDocComment(t *testing.T) {
	raw := "## Adds two numbers.\n## Returns their sum.\n"
	got := FormatDocComment(raw)
	want := "Adds two numbers.\nReturns their sum.\n"
	if got != want {
		t.Errorf("FormatDocComment() = %q, want %q", got, want)
	}
}

func TestFormatDocCommentEmpty(t *testing.T) {
	if got := FormatDocComment(""); got != "" {
		t.Errorf("FormatDocComment(\"\") = %q, want empty", got)
	}
}
