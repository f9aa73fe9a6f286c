// Package query implements the read-only operations spec.md §4.6 describes:
// hover, definition, references, completion, document/workspace symbols,
// and signature help. Every function here reads document graph state
// between wrap-ups and never mutates it (spec.md §2's data flow note),
// grounded in structure on internal/server/definition_handlers.go and
// textdocument_handlers.go's per-request pure-lookup style, translated from
// glsp's protocol.* types to this repo's own position/symbol types; the
// protocol boundary lives entirely in internal/server.
package query

import (
	"sort"
	"strings"

	"github.com/NorthIsUp/awk-language-server/internal/builtins"
	"github.com/NorthIsUp/awk-language-server/internal/calltree"
	"github.com/NorthIsUp/awk-language-server/internal/config"
	"github.com/NorthIsUp/awk-language-server/internal/docgraph"
	"github.com/NorthIsUp/awk-language-server/internal/document"
	"github.com/NorthIsUp/awk-language-server/internal/position"
	"github.com/NorthIsUp/awk-language-server/internal/symbol"
)

// Location is a range within a specific document.
type Location struct {
	URI   string
	Range position.Range
}

// aggregateDefinitions returns every definition of (kind, name) across
// every live document whose scope matches enclosing: file-scope
// definitions from any document, plus function-scoped definitions whose
// scope is exactly enclosing (which, since scope pointers are per-document,
// only ever matches definitions in the same document as enclosing itself).
// This single helper implements spec.md §4.2's scoping rule for every query
// that needs it.
func aggregateDefinitions(graph *docgraph.Graph, kind symbol.Kind, name string, enclosing *symbol.Definition) []*symbol.Definition {
	var out []*symbol.Definition
	for _, d := range graph.All() {
		for _, def := range d.Definitions(kind, name) {
			if def.Scope.Function == nil || def.Scope.Function == enclosing {
				out = append(out, def)
			}
		}
	}
	return out
}

// FindSymbolForPosition resolves uri/pos to the usage covering it.
func FindSymbolForPosition(graph *docgraph.Graph, uri string, pos position.Position) (symbol.Usage, bool) {
	doc, ok := graph.Get(uri)
	if !ok {
		return symbol.Usage{}, false
	}
	return doc.FindUsage(pos)
}

// signature renders a function's parenthesized parameter list, e.g. "(a, b)".
func signature(params []string) string {
	return "(" + strings.Join(params, ", ") + ")"
}

func formatDefinitionHover(def *symbol.Definition) string {
	var b strings.Builder
	b.WriteString(def.Kind.Label())
	if def.Kind == symbol.Function {
		b.WriteString(signature(def.Parameters))
	}
	if def.DocComment != "" {
		b.WriteString("\n\n")
		b.WriteString(def.DocComment)
	}
	return b.String()
}

func formatBuiltinHover(e builtins.Entry) string {
	var b strings.Builder
	if e.Kind == builtins.FunctionKind {
		b.WriteString("function ")
		b.WriteString(e.Name)
		b.WriteString(signature(e.Parameters))
	} else {
		b.WriteString("variable ")
		b.WriteString(e.Name)
	}
	if e.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(e.Description)
	}
	return b.String()
}

// placeholder text spec.md §4.6 uses when no definition is found, for kinds
// where an undefined reference is still meaningful to describe.
func placeholderHover(kind symbol.Kind) (string, bool) {
	switch kind {
	case symbol.Function:
		return "function (undeclared)", true
	case symbol.GlobalVariable:
		return "global variable", true
	default:
		return "", false
	}
}

// Hover implements spec.md §4.6's Hover operation.
func Hover(graph *docgraph.Graph, cfg config.Config, uri string, pos position.Position) (string, bool) {
	doc, ok := graph.Get(uri)
	if !ok {
		return "", false
	}
	usage, ok := doc.FindUsage(pos)
	if !ok {
		return "", false
	}
	gawk := cfg.Mode == "gawk"
	if entry, ok := builtins.Lookup(usage.Name, gawk); ok {
		return formatBuiltinHover(entry), true
	}

	enclosing := doc.EnclosingFunction(pos)
	defs := aggregateDefinitions(graph, usage.Kind, usage.Name, enclosing)
	if len(defs) == 0 {
		return placeholderHover(usage.Kind)
	}
	parts := make([]string, 0, len(defs))
	for _, def := range defs {
		parts = append(parts, formatDefinitionHover(def))
	}
	return strings.Join(parts, "\n---\n"), true
}

// Definition implements spec.md §4.6's Definition operation: the same
// aggregation as Hover, excluding implicit definitions.
func Definition(graph *docgraph.Graph, uri string, pos position.Position) []Location {
	doc, ok := graph.Get(uri)
	if !ok {
		return nil
	}
	usage, ok := doc.FindUsage(pos)
	if !ok {
		return nil
	}
	enclosing := doc.EnclosingFunction(pos)
	defs := aggregateDefinitions(graph, usage.Kind, usage.Name, enclosing)

	var locs []Location
	for _, def := range defs {
		if def.IsImplicit {
			continue
		}
		locs = append(locs, Location{URI: def.Document, Range: def.Range()})
	}
	return locs
}

// References implements spec.md §4.6's References operation: every usage
// (and, if requested, every definition) matching (kind, name) across every
// document, with no scope restriction (per spec.md's explicit wording).
func References(graph *docgraph.Graph, uri string, pos position.Position, includeDeclaration bool) []Location {
	doc, ok := graph.Get(uri)
	if !ok {
		return nil
	}
	usage, ok := doc.FindUsage(pos)
	if !ok {
		return nil
	}

	var locs []Location
	for _, d := range graph.All() {
		if includeDeclaration {
			for _, def := range d.DefinedSymbols[usage.Kind][usage.Name] {
				locs = append(locs, Location{URI: def.Document, Range: def.Range()})
			}
		}
		for _, u := range d.UsedSymbols {
			if u.Kind == usage.Kind && u.Name == usage.Name {
				locs = append(locs, Location{URI: d.URI, Range: u.Range()})
			}
		}
	}
	return locs
}

// CompletionItem is one entry offered by Completion.
type CompletionItem struct {
	Label         string
	Kind          symbol.Kind
	IsBuiltin     bool
	Documentation string
}

// Completion implements spec.md §4.6's Completion operation.
func Completion(graph *docgraph.Graph, cfg config.Config, uri string, pos position.Position) []CompletionItem {
	gawk := cfg.Mode == "gawk"
	var items []CompletionItem
	for _, e := range builtins.All(gawk) {
		items = append(items, CompletionItem{Label: e.Name, IsBuiltin: true, Documentation: e.Description})
	}

	doc, ok := graph.Get(uri)
	if !ok {
		return items
	}
	enclosing := doc.EnclosingFunction(pos)

	// name -> set of distinct non-empty doc comments observed.
	type entry struct {
		kind     symbol.Kind
		comments map[string]bool
	}
	byName := make(map[string]*entry)
	var order []string

	for _, d := range graph.All() {
		for kind, byKindName := range d.DefinedSymbols {
			for name, defs := range byKindName {
				for _, def := range defs {
					if def.Scope.Function != nil && def.Scope.Function != enclosing {
						continue
					}
					e, ok := byName[name]
					if !ok {
						e = &entry{kind: kind, comments: make(map[string]bool)}
						byName[name] = e
						order = append(order, name)
					}
					if def.DocComment != "" {
						e.comments[def.DocComment] = true
					}
				}
			}
		}
	}

	sort.Strings(order)
	for _, name := range order {
		e := byName[name]
		if len(e.comments) == 0 {
			items = append(items, CompletionItem{Label: name, Kind: e.kind})
			continue
		}
		docs := make([]string, 0, len(e.comments))
		for c := range e.comments {
			docs = append(docs, c)
		}
		sort.Strings(docs)
		for _, c := range docs {
			items = append(items, CompletionItem{Label: name, Kind: e.kind, Documentation: c})
		}
	}
	return items
}

// DocumentSymbol is one entry returned by DocumentSymbols.
type DocumentSymbol struct {
	Name  string
	Range position.Range
}

// DocumentSymbols implements spec.md §4.6's Document symbols operation:
// functions defined in the document.
func DocumentSymbols(graph *docgraph.Graph, uri string) []DocumentSymbol {
	doc, ok := graph.Get(uri)
	if !ok {
		return nil
	}
	var out []DocumentSymbol
	for name, defs := range doc.DefinedSymbols[symbol.Function] {
		for _, def := range defs {
			out = append(out, DocumentSymbol{Name: name, Range: def.Range()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start.Less(out[j].Range.Start) })
	return out
}

// WorkspaceSymbol is one entry returned by WorkspaceSymbols.
type WorkspaceSymbol struct {
	Name string
	URI  string
	Location
}

// WorkspaceSymbols implements spec.md §4.6's Workspace symbols operation:
// every function across every document whose name starts with query. Unlike
// the teacher's approximate bitap matcher (used for free-text note titles),
// spec.md defines this operation as an exact prefix match over function
// names, so a case-sensitive strings.HasPrefix check is used instead.
func WorkspaceSymbols(graph *docgraph.Graph, query string) []WorkspaceSymbol {
	var out []WorkspaceSymbol
	for _, d := range graph.All() {
		for name, defs := range d.DefinedSymbols[symbol.Function] {
			if !strings.HasPrefix(name, query) {
				continue
			}
			for _, def := range defs {
				out = append(out, WorkspaceSymbol{Name: name, URI: d.URI, Location: Location{URI: d.URI, Range: def.Range()}})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SignatureHelpResult is the result of SignatureHelp, empty (nil Parameters) when
// no active call is found at the cursor.
type SignatureHelpResult struct {
	Label           string
	Parameters      []string
	ActiveParameter int
}

func nearestMarker(items []calltree.ParameterUsage, pos position.Position) (calltree.ParameterUsage, bool) {
	idx := position.SearchSorted(items, pos, func(p calltree.ParameterUsage) position.Position { return p.Position })
	if idx < len(items) && items[idx].Position == pos {
		return items[idx], true
	}
	if idx-1 >= 0 {
		return items[idx-1], true
	}
	return calltree.ParameterUsage{}, false
}

// SignatureHelp implements spec.md §4.6's Signature help operation.
func SignatureHelp(graph *docgraph.Graph, cfg config.Config, uri string, pos position.Position) (SignatureHelpResult, bool) {
	doc, ok := graph.Get(uri)
	if !ok {
		return SignatureHelpResult{}, false
	}
	marker, ok := nearestMarker(doc.ParameterUsage, pos)
	if !ok || (marker.ParameterIndex == -1 && marker.Position.Less(pos)) {
		return SignatureHelpResult{}, false
	}

	activeParam := marker.ParameterIndex
	if activeParam < 0 {
		activeParam = 0
	}

	if def := resolveFunction(graph, doc, marker.FunctionName); def != nil {
		return SignatureHelpResult{Label: marker.FunctionName + signature(def.Parameters), Parameters: def.Parameters, ActiveParameter: activeParam}, true
	}
	gawk := cfg.Mode == "gawk"
	if entry, ok := builtins.Lookup(marker.FunctionName, gawk); ok && entry.Kind == builtins.FunctionKind {
		return SignatureHelpResult{Label: marker.FunctionName + signature(entry.Parameters), Parameters: entry.Parameters, ActiveParameter: activeParam}, true
	}
	return SignatureHelpResult{Label: marker.FunctionName + "(): Undeclared function", ActiveParameter: activeParam}, true
}

// resolveFunction prefers a definition reachable from doc's file scope,
// falling back to any document that defines the name (spec.md §4.5's callee
// resolution order: in-scope, then file scope in any reachable document).
func resolveFunction(graph *docgraph.Graph, doc *document.Document, name string) *symbol.Definition {
	if defs := doc.Definitions(symbol.Function, name); len(defs) > 0 {
		return defs[0]
	}
	for _, d := range graph.All() {
		if defs := d.Definitions(symbol.Function, name); len(defs) > 0 {
			return defs[0]
		}
	}
	return nil
}
