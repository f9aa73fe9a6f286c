package adapter

import (
	"errors"
	"testing"

	"github.com/NorthIsUp/awk-language-server/internal/awkparser"
	"github.com/NorthIsUp/awk-language-server/internal/awkparser/awkparsertest"
	"github.com/NorthIsUp/awk-language-server/internal/document"
	"github.com/NorthIsUp/awk-language-server/internal/position"
	"github.com/NorthIsUp/awk-language-server/internal/symbol"
)

func TestDetectModeShebangOverride(t *testing.T) {
	text := "#!/usr/bin/gawk -f\nBEGIN { print 1 }"
	if got := DetectMode(text, awkparser.ModeStrict); got != awkparser.ModeGawk {
		t.Errorf("expected shebang to override to gawk mode, got %v", got)
	}
}

func TestDetectModeNoShebang(t *testing.T) {
	text := "BEGIN { print 1 }"
	if got := DetectMode(text, awkparser.ModeStrict); got != awkparser.ModeStrict {
		t.Errorf("expected mode to pass through unchanged, got %v", got)
	}
}

func TestBaseNameHintSuppressesConstantsSuffix(t *testing.T) {
	if got := BaseNameHint("errorsConstants"); got != "" {
		t.Errorf("expected Constants-suffixed base name to be suppressed, got %q", got)
	}
	if got := BaseNameHint("utils"); got != "utils" {
		t.Errorf("expected non-suffixed base name to pass through, got %q", got)
	}
}

func TestRunRegistersDefinitionAndArity(t *testing.T) {
	script := awkparsertest.Script{
		awkparsertest.Define(awkparser.Function, "", "add", 1, 1, "## Adds two numbers."),
		awkparsertest.Arity(awkparser.FuncDef{Name: "add", Parameters: []string{"a", "b"}, FirstOptional: -1, Line: 1, Col: 1}),
	}
	doc := document.New("file:///a.awk")
	Run(doc, "function add(a, b) { return a + b }", "a", Options{}, awkparsertest.New(script), nil)

	defs := doc.Definitions(symbol.Function, "add")
	if len(defs) != 1 {
		t.Fatalf("expected one definition of add, got %d", len(defs))
	}
	def := defs[0]
	if len(def.Parameters) != 2 {
		t.Errorf("expected 2 parameters recorded via OnArity, got %d", len(def.Parameters))
	}
	if def.DocComment != "Adds two numbers." {
		t.Errorf("doc comment = %q, want stripped form", def.DocComment)
	}
	if def.Position != (position.Position{Line: 0, Character: 0}) {
		t.Errorf("expected 1-based parser position converted to 0-based, got %v", def.Position)
	}
}

func TestRunUsageIncludesDefineSite(t *testing.T) {
	script := awkparsertest.Script{
		awkparsertest.Define(awkparser.GlobalVariable, "", "count", 1, 1, ""),
	}
	doc := document.New("file:///a.awk")
	Run(doc, "count = 1", "a", Options{}, awkparsertest.New(script), nil)

	if len(doc.UsedSymbols) != 1 || !doc.UsedSymbols[0].IsDefine {
		t.Fatalf("expected the definition site to also be recorded as a define-usage, got %+v", doc.UsedSymbols)
	}
}

func TestRunDeliversIncludeToHandler(t *testing.T) {
	script := awkparsertest.Script{
		awkparsertest.Include("lib.awk", true, 2, 1, 10),
	}
	doc := document.New("file:///a.awk")

	var got string
	handler := includeHandlerFunc(func(filename string, relative bool, site position.Range) {
		got = filename
	})
	Run(doc, "@include \"lib.awk\"", "a", Options{}, awkparsertest.New(script), handler)

	if got != "lib.awk" {
		t.Errorf("expected the include handler to observe lib.awk, got %q", got)
	}
}

func TestRunFiltersStylisticWarningsByOption(t *testing.T) {
	script := awkparsertest.Script{
		awkparsertest.Message(awkparser.SeverityWarning, "comma", "missing semicolon", 1, 1, 1),
		awkparsertest.Message(awkparser.SeverityWarning, "future", "reserved word", 1, 5, 1),
	}
	doc := document.New("file:///a.awk")
	Run(doc, "x", "a", Options{StylisticWarnings: StylisticWarnings{MissingSemicolon: false, Compatibility: true}}, awkparsertest.New(script), nil)

	if len(doc.ParseDiagnostics) != 1 {
		t.Fatalf("expected only the compatibility warning to survive, got %d", len(doc.ParseDiagnostics))
	}
	if doc.ParseDiagnostics[0].SubType != "future" {
		t.Errorf("expected the surviving diagnostic to be the future warning, got %q", doc.ParseDiagnostics[0].SubType)
	}
}

func TestRunRecordsCrashDiagnostic(t *testing.T) {
	p := awkparsertest.New(nil)
	p.FailAfter = 0
	p.Err = errors.New("unexpected token")
	p.SetLastSymbolPos(3, 4)

	doc := document.New("file:///a.awk")
	result := Run(doc, "line1\nline2\nline3\nbad", "a", Options{}, p, nil)

	if !result.Crashed {
		t.Fatalf("expected Run to report a crash")
	}
	if len(doc.ParseDiagnostics) != 1 {
		t.Fatalf("expected a crash diagnostic to be attached, got %d", len(doc.ParseDiagnostics))
	}
	want := position.Position{Line: 2, Character: 3}
	if doc.ParseDiagnostics[0].Range.Start != want {
		t.Errorf("crash diagnostic anchored at %v, want %v", doc.ParseDiagnostics[0].Range.Start, want)
	}
}

func TestRunRecoversFromParserPanic(t *testing.T) {
	doc := document.New("file:///a.awk")
	result := Run(doc, "x", "a", Options{}, panicParser{}, nil)
	if !result.Crashed {
		t.Fatalf("expected a panicking parser to be reported as crashed")
	}
	if len(doc.ParseDiagnostics) != 1 {
		t.Fatalf("expected a crash diagnostic, got %d", len(doc.ParseDiagnostics))
	}
}

type includeHandlerFunc func(filename string, relative bool, site position.Range)

func (f includeHandlerFunc) HandleInclude(filename string, relative bool, site position.Range) {
	f(filename, relative, site)
}

type panicParser struct{}

func (panicParser) Parse(text, baseNameHint string, fileModeHint awkparser.Mode, cb awkparser.Callbacks) error {
	panic("boom")
}

func (panicParser) LastSymbolPos() (line, col int) { return 1, 1 }
