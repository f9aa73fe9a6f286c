package reference

import (
	"reflect"
	"testing"

	"github.com/NorthIsUp/awk-language-server/internal/awkparser"
)

// recordingCallbacks captures every event Parse reports, in order, so tests
// can assert on the exact callback stream a real parse produces.
type recordingCallbacks struct {
	defines  []defineEvent
	uses     []useEvent
	includes []includeEvent
	arities  []awkparser.FuncDef
	calls    []callEvent
	params   []paramEvent
}

type defineEvent struct {
	kind       awkparser.SymbolKind
	scope      string
	name       string
	line, col  int
	docComment string
}

type useEvent struct {
	kind      awkparser.SymbolKind
	scope     string
	name      string
	line, col int
}

type includeEvent struct {
	filename string
	relative bool
	line     int
}

type callEvent struct {
	isStart   bool
	line, col int
}

type paramEvent struct {
	index     int
	isStart   bool
	line, col int
}

func (r *recordingCallbacks) OnDefine(kind awkparser.SymbolKind, scope, name string, line, col int, docComment string) {
	r.defines = append(r.defines, defineEvent{kind, scope, name, line, col, docComment})
}

func (r *recordingCallbacks) OnUse(kind awkparser.SymbolKind, scope, name string, line, col int) {
	r.uses = append(r.uses, useEvent{kind, scope, name, line, col})
}

func (r *recordingCallbacks) OnInclude(filename string, relative bool, line, col, length int) {
	r.includes = append(r.includes, includeEvent{filename, relative, line})
}

func (r *recordingCallbacks) OnMessage(severity awkparser.Severity, subType, msg string, line, col, length int) {
}

func (r *recordingCallbacks) OnFunctionCall(isStart bool, line, col int) {
	r.calls = append(r.calls, callEvent{isStart, line, col})
}

func (r *recordingCallbacks) OnParameter(index int, isStart bool, line, col int) {
	r.params = append(r.params, paramEvent{index, isStart, line, col})
}

func (r *recordingCallbacks) OnArity(def awkparser.FuncDef) {
	r.arities = append(r.arities, def)
}

func (r *recordingCallbacks) hasUse(kind awkparser.SymbolKind, name string) bool {
	for _, u := range r.uses {
		if u.kind == kind && u.name == name {
			return true
		}
	}
	return false
}

func (r *recordingCallbacks) hasDefine(kind awkparser.SymbolKind, name string) bool {
	for _, d := range r.defines {
		if d.kind == kind && d.name == name {
			return true
		}
	}
	return false
}

// Scenario 1 (spec.md §8): BEGIN { x = 1; print y } reports both x and y as
// global-variable uses, and defines neither explicitly, since the reference
// parser (like any AWK parser) has no way to distinguish an assignment from
// any other use; the implicit-global definition is synthesized upstream by
// internal/document, not by the parser.
func TestParseImplicitGlobalUsage(t *testing.T) {
	cb := &recordingCallbacks{}
	err := New().Parse(`BEGIN { x = 1; print y }`, "foo", awkparser.ModeStrict, cb)
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if !cb.hasUse(awkparser.GlobalVariable, "x") {
		t.Errorf("expected a use of x, got %+v", cb.uses)
	}
	if !cb.hasUse(awkparser.GlobalVariable, "y") {
		t.Errorf("expected a use of y, got %+v", cb.uses)
	}
	if cb.hasDefine(awkparser.GlobalVariable, "x") || cb.hasDefine(awkparser.GlobalVariable, "y") {
		t.Errorf("expected no explicit global definitions from a bare assignment, got %+v", cb.defines)
	}
}

// Scenario 2 (spec.md §8): a.awk and b.awk each @include the other. Parse
// only ever reports its own document's own include directive; the cycle
// itself is a docgraph property, not something the parser needs to detect.
func TestParseIncludeCycleDirectives(t *testing.T) {
	a := &recordingCallbacks{}
	if err := New().Parse(`@include "b.awk"`, "a", awkparser.ModeStrict, a); err != nil {
		t.Fatalf("parsing a.awk returned an error: %v", err)
	}
	if len(a.includes) != 1 || a.includes[0].filename != "b.awk" || !a.includes[0].relative {
		t.Fatalf("expected one relative include of b.awk, got %+v", a.includes)
	}

	b := &recordingCallbacks{}
	if err := New().Parse(`@include "a.awk"`, "b", awkparser.ModeStrict, b); err != nil {
		t.Fatalf("parsing b.awk returned an error: %v", err)
	}
	if len(b.includes) != 1 || b.includes[0].filename != "a.awk" || !b.includes[0].relative {
		t.Fatalf("expected one relative include of a.awk, got %+v", b.includes)
	}
}

// Scenario 3 (spec.md §8): lib.awk's function f(x,y){return x+y} reports the
// definition, its arity, and both parameters as parameter-scoped uses in the
// body.
func TestParseArityAcrossInclude(t *testing.T) {
	cb := &recordingCallbacks{}
	err := New().Parse("function f(x,y){return x+y}", "lib", awkparser.ModeStrict, cb)
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if !cb.hasDefine(awkparser.Function, "f") {
		t.Fatalf("expected a definition of f, got %+v", cb.defines)
	}
	if len(cb.arities) != 1 {
		t.Fatalf("expected exactly one OnArity event, got %d", len(cb.arities))
	}
	got := cb.arities[0]
	if got.Name != "f" || !reflect.DeepEqual(got.Parameters, []string{"x", "y"}) {
		t.Errorf("unexpected arity report: %+v", got)
	}
	if !cb.hasUse(awkparser.Parameter, "x") || !cb.hasUse(awkparser.Parameter, "y") {
		t.Errorf("expected x and y to be reported as parameter uses in the body, got %+v", cb.uses)
	}
}

// Continuation of scenario 3: main.awk's call site reports f as a function
// use bracketed by a function-call span, with one parameter marker for the
// single argument.
func TestParseFunctionCallArguments(t *testing.T) {
	cb := &recordingCallbacks{}
	err := New().Parse("@include \"lib.awk\"\nBEGIN{print f(1)}", "main", awkparser.ModeStrict, cb)
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if len(cb.includes) != 1 || cb.includes[0].filename != "lib.awk" {
		t.Fatalf("expected the @include directive to be reported, got %+v", cb.includes)
	}
	if !cb.hasUse(awkparser.Function, "f") {
		t.Fatalf("expected f to be reported as a function use, got %+v", cb.uses)
	}
	var starts, ends int
	for _, c := range cb.calls {
		if c.isStart {
			starts++
		} else {
			ends++
		}
	}
	if starts != 1 || ends != 1 {
		t.Errorf("expected exactly one call-start and one call-end event, got starts=%d ends=%d", starts, ends)
	}
	if len(cb.params) != 2 {
		t.Fatalf("expected 2 parameter markers (start+end) for the single argument, got %d: %+v", len(cb.params), cb.params)
	}
}

// Scenario 5 (spec.md §8): function f(a){ a reports a as both a parameter
// definition (via OnArity) and, on the trailing incomplete line, as a
// parameter use rather than a global, confirming the reference parser
// tracks its brace-depth function scope even across an unclosed body.
func TestParseCompletionScopingParameterUse(t *testing.T) {
	cb := &recordingCallbacks{}
	err := New().Parse("function f(a){ a", "scratch", awkparser.ModeStrict, cb)
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if len(cb.arities) != 1 || !reflect.DeepEqual(cb.arities[0].Parameters, []string{"a"}) {
		t.Fatalf("expected f's arity to list a single parameter a, got %+v", cb.arities)
	}
	if !cb.hasUse(awkparser.Parameter, "a") {
		t.Errorf("expected the trailing a to be reported as a parameter use, got %+v", cb.uses)
	}
	if cb.hasUse(awkparser.GlobalVariable, "a") {
		t.Errorf("did not expect a to be reported as a global variable use, got %+v", cb.uses)
	}
}

// Round-trip property (spec.md §8): parsing the same text twice produces an
// identical callback stream.
func TestParseIsIdempotent(t *testing.T) {
	text := "function f(x,y){return x+y}\nBEGIN{print f(1,2)}"
	first := &recordingCallbacks{}
	second := &recordingCallbacks{}
	if err := New().Parse(text, "doc", awkparser.ModeStrict, first); err != nil {
		t.Fatalf("first parse returned an error: %v", err)
	}
	if err := New().Parse(text, "doc", awkparser.ModeStrict, second); err != nil {
		t.Fatalf("second parse returned an error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected two parses of the same text to produce identical event streams")
	}
}

func TestParseDoesNotPanicOnUnclosedBrace(t *testing.T) {
	cb := &recordingCallbacks{}
	if err := New().Parse("function f(a) {", "scratch", awkparser.ModeStrict, cb); err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
}
