package query

import (
	"testing"

	"github.com/NorthIsUp/awk-language-server/internal/calltree"
	"github.com/NorthIsUp/awk-language-server/internal/config"
	"github.com/NorthIsUp/awk-language-server/internal/docgraph"
	"github.com/NorthIsUp/awk-language-server/internal/position"
	"github.com/NorthIsUp/awk-language-server/internal/symbol"
)

func pos(line, col uint32) position.Position {
	return position.Position{Line: line, Character: col}
}

func defaultConfig() config.Config {
	cfg, _ := config.Load(nil)
	return cfg
}

func TestHoverBuiltin(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.AddUsage(symbol.Usage{Position: pos(0, 0), Kind: symbol.GlobalVariable, Name: "NR"})
	doc.SortUsages()

	text, ok := Hover(g, defaultConfig(), "file:///a.awk", pos(0, 0))
	if !ok {
		t.Fatalf("expected a hover result for NR")
	}
	if text == "" {
		t.Errorf("expected non-empty hover text for a builtin")
	}
}

func TestHoverUserDefinedFunction(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.AddDefinition(&symbol.Definition{Position: pos(0, 9), Kind: symbol.Function, Name: "add", Parameters: []string{"a", "b"}})
	doc.AddUsage(symbol.Usage{Position: pos(1, 0), Kind: symbol.Function, Name: "add"})
	doc.SortUsages()

	text, ok := Hover(g, defaultConfig(), "file:///a.awk", pos(1, 0))
	if !ok {
		t.Fatalf("expected a hover result for add")
	}
	if text == "" {
		t.Errorf("expected non-empty hover text")
	}
}

func TestHoverUndeclaredFunctionPlaceholder(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.AddUsage(symbol.Usage{Position: pos(0, 0), Kind: symbol.Function, Name: "mystery"})
	doc.SortUsages()

	text, ok := Hover(g, defaultConfig(), "file:///a.awk", pos(0, 0))
	if !ok {
		t.Fatalf("expected a placeholder hover for an undeclared function")
	}
	if text != "function (undeclared)" {
		t.Errorf("hover text = %q, want the undeclared-function placeholder", text)
	}
}

func TestDefinitionExcludesImplicit(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.AddUsage(symbol.Usage{Position: pos(0, 0), Kind: symbol.GlobalVariable, Name: "count"})
	doc.AddUsage(symbol.Usage{Position: pos(1, 0), Kind: symbol.GlobalVariable, Name: "count"})
	doc.SortUsages()

	locs := Definition(g, "file:///a.awk", pos(1, 0))
	if len(locs) != 0 {
		t.Fatalf("expected no definition results for a purely-implicit global, got %d", len(locs))
	}
}

func TestDefinitionResolvesExplicit(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.AddDefinition(&symbol.Definition{Document: "file:///a.awk", Position: pos(0, 0), Kind: symbol.Function, Name: "add"})
	doc.AddUsage(symbol.Usage{Position: pos(1, 0), Kind: symbol.Function, Name: "add"})
	doc.SortUsages()

	locs := Definition(g, "file:///a.awk", pos(1, 0))
	if len(locs) != 1 || locs[0].URI != "file:///a.awk" {
		t.Fatalf("expected one definition in a.awk, got %+v", locs)
	}
}

func TestReferencesAcrossDocumentsNoScopeRestriction(t *testing.T) {
	g := docgraph.New()
	a, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	b, _ := g.GetOrCreatePlaceholder("file:///b.awk")
	a.AddDefinition(&symbol.Definition{Document: "file:///a.awk", Position: pos(0, 0), Kind: symbol.Function, Name: "add"})
	a.AddUsage(symbol.Usage{Position: pos(1, 0), Kind: symbol.Function, Name: "add"})
	b.AddUsage(symbol.Usage{Position: pos(2, 0), Kind: symbol.Function, Name: "add"})
	a.SortUsages()
	b.SortUsages()

	locs := References(g, "file:///a.awk", pos(1, 0), false)
	if len(locs) != 2 {
		t.Fatalf("expected references from both documents, got %d: %+v", len(locs), locs)
	}
}

func TestReferencesIncludeDeclaration(t *testing.T) {
	g := docgraph.New()
	a, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	a.AddDefinition(&symbol.Definition{Document: "file:///a.awk", Position: pos(0, 0), Kind: symbol.Function, Name: "add"})
	a.AddUsage(symbol.Usage{Position: pos(1, 0), Kind: symbol.Function, Name: "add"})
	a.SortUsages()

	without := References(g, "file:///a.awk", pos(1, 0), false)
	with := References(g, "file:///a.awk", pos(1, 0), true)
	if len(with) != len(without)+1 {
		t.Fatalf("expected includeDeclaration to add exactly one result, got %d vs %d", len(with), len(without))
	}
}

func TestCompletionListsBuiltinsAndUserSymbols(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.AddDefinition(&symbol.Definition{Kind: symbol.Function, Name: "myfunc"})

	items := Completion(g, defaultConfig(), "file:///a.awk", pos(0, 0))
	var sawBuiltin, sawUser bool
	for _, it := range items {
		if it.IsBuiltin && it.Label == "NR" {
			sawBuiltin = true
		}
		if it.Label == "myfunc" {
			sawUser = true
		}
	}
	if !sawBuiltin {
		t.Errorf("expected a builtin completion item")
	}
	if !sawUser {
		t.Errorf("expected a user-defined completion item")
	}
}

func TestCompletionScopedToEnclosingFunction(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	fn := &symbol.Definition{Kind: symbol.Function, Name: "f"}
	doc.AddDefinition(&symbol.Definition{Kind: symbol.LocalVariable, Name: "localOnly", Scope: symbol.Scope{Function: fn}})
	doc.FunctionBlocks = []calltree.FunctionBlock{
		{Start: pos(1, 0), End: pos(5, 0), Function: fn},
	}

	inside := Completion(g, defaultConfig(), "file:///a.awk", pos(2, 0))
	outside := Completion(g, defaultConfig(), "file:///a.awk", pos(10, 0))

	hasLocal := func(items []CompletionItem) bool {
		for _, it := range items {
			if it.Label == "localOnly" {
				return true
			}
		}
		return false
	}
	if !hasLocal(inside) {
		t.Errorf("expected the local variable to be offered inside its function")
	}
	if hasLocal(outside) {
		t.Errorf("expected the local variable to be hidden at file scope")
	}
}

func TestCompletionOffersGlobalFirstUsedInsideFunction(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	fn := &symbol.Definition{Kind: symbol.Function, Name: "f"}
	doc.FunctionBlocks = []calltree.FunctionBlock{
		{Start: pos(1, 0), End: pos(5, 0), Function: fn},
	}
	doc.AddUsage(symbol.Usage{Position: pos(2, 0), Kind: symbol.GlobalVariable, Name: "count", Scope: symbol.Scope{Function: fn}})
	doc.SortUsages()

	inside := Completion(g, defaultConfig(), "file:///a.awk", pos(2, 0))
	outside := Completion(g, defaultConfig(), "file:///a.awk", pos(10, 0))

	hasGlobal := func(items []CompletionItem) bool {
		for _, it := range items {
			if it.Label == "count" {
				return true
			}
		}
		return false
	}
	if !hasGlobal(inside) {
		t.Errorf("expected the global to be offered inside the function where it was first used")
	}
	if !hasGlobal(outside) {
		t.Errorf("expected a global first used inside a function to still be offered at file scope")
	}
}

func TestDocumentSymbols(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.AddDefinition(&symbol.Definition{Kind: symbol.Function, Name: "b", Position: pos(5, 0)})
	doc.AddDefinition(&symbol.Definition{Kind: symbol.Function, Name: "a", Position: pos(1, 0)})

	syms := DocumentSymbols(g, "file:///a.awk")
	if len(syms) != 2 {
		t.Fatalf("expected 2 document symbols, got %d", len(syms))
	}
	if syms[0].Name != "a" || syms[1].Name != "b" {
		t.Errorf("expected symbols ordered by position, got %+v", syms)
	}
}

func TestWorkspaceSymbolsPrefixMatch(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.AddDefinition(&symbol.Definition{Kind: symbol.Function, Name: "process_line"})
	doc.AddDefinition(&symbol.Definition{Kind: symbol.Function, Name: "process_file"})
	doc.AddDefinition(&symbol.Definition{Kind: symbol.Function, Name: "other"})

	syms := WorkspaceSymbols(g, "process_")
	if len(syms) != 2 {
		t.Fatalf("expected 2 matches for prefix process_, got %d", len(syms))
	}
}

func TestSignatureHelpUserFunction(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.AddDefinition(&symbol.Definition{Kind: symbol.Function, Name: "add", Parameters: []string{"a", "b"}, FirstOptional: -1})
	doc.ParameterUsage = []calltree.ParameterUsage{
		{FunctionName: "add", ParameterIndex: 0, Position: pos(0, 4)},
		{FunctionName: "add", ParameterIndex: -1, Position: pos(0, 5)},
	}

	help, ok := SignatureHelp(g, defaultConfig(), "file:///a.awk", pos(0, 4))
	if !ok {
		t.Fatalf("expected signature help to resolve")
	}
	if help.ActiveParameter != 0 {
		t.Errorf("ActiveParameter = %d, want 0", help.ActiveParameter)
	}
	if len(help.Parameters) != 2 {
		t.Errorf("expected 2 parameters listed, got %d", len(help.Parameters))
	}
}

func TestSignatureHelpPastLastArgument(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.AddDefinition(&symbol.Definition{Kind: symbol.Function, Name: "add", Parameters: []string{"a", "b"}, FirstOptional: -1})
	doc.ParameterUsage = []calltree.ParameterUsage{
		{FunctionName: "add", ParameterIndex: 0, Position: pos(0, 4)},
		{FunctionName: "add", ParameterIndex: -1, Position: pos(0, 5)},
	}

	_, ok := SignatureHelp(g, defaultConfig(), "file:///a.awk", pos(0, 6))
	if ok {
		t.Fatalf("expected no signature help once the cursor is past the closing marker")
	}
}

func TestSignatureHelpBuiltinFunction(t *testing.T) {
	g := docgraph.New()
	doc, _ := g.GetOrCreatePlaceholder("file:///a.awk")
	doc.ParameterUsage = []calltree.ParameterUsage{
		{FunctionName: "substr", ParameterIndex: 0, Position: pos(0, 7)},
	}

	help, ok := SignatureHelp(g, defaultConfig(), "file:///a.awk", pos(0, 7))
	if !ok {
		t.Fatalf("expected signature help for a builtin function")
	}
	if len(help.Parameters) != 3 {
		t.Errorf("expected substr's 3 parameters, got %d", len(help.Parameters))
	}
}
