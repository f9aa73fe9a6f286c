// Package analysis implements the cross-document semantic analyzer
// (spec.md §4.5): given the set of documents altered by the latest batch
// and the subset whose function signatures changed, it computes the
// transitive closure of includers, re-checks every call site's arity
// against the resolved callee, and attaches analysis diagnostics. It is
// grounded on internal/cache/graph.go's reachability walk (the same
// transitive-closure-over-backlinks shape docgraph.ReachableIncluders
// exposes) and command_handler.go's altered-set-driven processing.
package analysis

import (
	"fmt"

	"github.com/NorthIsUp/awk-language-server/internal/builtins"
	"github.com/NorthIsUp/awk-language-server/internal/calltree"
	"github.com/NorthIsUp/awk-language-server/internal/config"
	"github.com/NorthIsUp/awk-language-server/internal/docgraph"
	"github.com/NorthIsUp/awk-language-server/internal/document"
	"github.com/NorthIsUp/awk-language-server/internal/position"
	"github.com/NorthIsUp/awk-language-server/internal/symbol"
)

// AlteredSets holds the two per-batch registers spec.md §4.5 describes.
// The queue accumulates these across a batch and hands them to Run, which
// consumes and clears them (spec.md §8's "after wrap-up, alteredDocuments
// and documentsWithAlteredDefinitions are empty").
type AlteredSets struct {
	AlteredDocuments               map[string]bool
	DocumentsWithAlteredDefinitions map[string]bool
}

// NewAlteredSets returns a pair of empty registers.
func NewAlteredSets() *AlteredSets {
	return &AlteredSets{
		AlteredDocuments:                make(map[string]bool),
		DocumentsWithAlteredDefinitions: make(map[string]bool),
	}
}

// Run performs one wrap-up's semantic analysis and clears sets afterward.
func Run(graph *docgraph.Graph, cfg config.Config, sets *AlteredSets) {
	toCheck := make(map[string]bool)
	for uri := range sets.AlteredDocuments {
		toCheck[uri] = true
	}
	for uri := range sets.DocumentsWithAlteredDefinitions {
		toCheck[uri] = true
		for includer := range graph.ReachableIncluders(uri) {
			toCheck[includer] = true
		}
	}

	for uri := range toCheck {
		doc, ok := graph.Get(uri)
		if !ok {
			continue
		}
		doc.AnalysisDiagnostics = nil
		if !cfg.StylisticWarnings.CheckFunctionCalls {
			continue
		}
		checkDocument(graph, doc)
	}

	for uri := range sets.AlteredDocuments {
		delete(sets.AlteredDocuments, uri)
	}
	for uri := range sets.DocumentsWithAlteredDefinitions {
		delete(sets.DocumentsWithAlteredDefinitions, uri)
	}
}

func checkDocument(graph *docgraph.Graph, doc *document.Document) {
	for _, root := range doc.PositionTree {
		walkCalls(graph, doc, root)
	}
}

func walkCalls(graph *docgraph.Graph, doc *document.Document, node *calltree.Node) {
	if node.FunctionName != "" {
		checkCall(graph, doc, node)
	}
	for _, child := range node.Children {
		walkCalls(graph, doc, child)
	}
}

// callee describes the resolved shape of a call target, whichever source it
// came from.
type callee struct {
	parameterCount int
	firstOptional  int
}

func resolveCallee(graph *docgraph.Graph, doc *document.Document, name string) (callee, bool) {
	if defs := doc.Definitions(symbol.Function, name); len(defs) > 0 {
		def := defs[0]
		return callee{parameterCount: len(def.Parameters), firstOptional: def.FirstOptional}, true
	}
	for _, d := range graph.All() {
		if defs := d.Definitions(symbol.Function, name); len(defs) > 0 {
			def := defs[0]
			return callee{parameterCount: len(def.Parameters), firstOptional: def.FirstOptional}, true
		}
	}
	if entry, ok := builtins.Lookup(name, true); ok && entry.Kind == builtins.FunctionKind {
		return callee{parameterCount: len(entry.Parameters), firstOptional: entry.FirstOptional}, true
	}
	return callee{}, false
}

func checkCall(graph *docgraph.Graph, doc *document.Document, node *calltree.Node) {
	c, ok := resolveCallee(graph, doc, node.FunctionName)
	if !ok {
		return
	}
	minArgs := c.parameterCount
	if c.firstOptional >= 0 {
		minArgs = c.firstOptional
	}
	maxArgs := c.parameterCount
	if node.ArgumentCount >= minArgs && node.ArgumentCount <= maxArgs {
		return
	}
	doc.AnalysisDiagnostics = append(doc.AnalysisDiagnostics, symbol.Diagnostic{
		Range:    position.NewRange(node.Range.Start, len(node.FunctionName)),
		Severity: symbol.SeverityWarning,
		Message:  fmt.Sprintf("wrong number of arguments to function %s: got %d, expected %s", node.FunctionName, node.ArgumentCount, arityDescription(minArgs, maxArgs)),
	})
}

func arityDescription(minArgs, maxArgs int) string {
	if minArgs == maxArgs {
		return fmt.Sprintf("%d", minArgs)
	}
	return fmt.Sprintf("%d to %d", minArgs, maxArgs)
}
