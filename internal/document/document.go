// Package document holds the per-file analysis state spec.md §3 describes:
// diagnostics, definition/usage tables, the call-position tree, and the two
// include-edge maps a document keeps its own side of.
package document

import (
	"github.com/NorthIsUp/awk-language-server/internal/calltree"
	"github.com/NorthIsUp/awk-language-server/internal/position"
	"github.com/NorthIsUp/awk-language-server/internal/symbol"
)

// Document is the in-memory analysis state for one source file URI. Every
// field mirrors a bullet of spec.md §3's Document description.
type Document struct {
	URI string

	// Text is the last text this document was parsed from. The queue reads
	// it to re-enqueue open documents when the configuration changes; a
	// reparse of unchanged text is not skipped.
	Text string

	ParseDiagnostics    []symbol.Diagnostic
	AnalysisDiagnostics []symbol.Diagnostic

	// DefinedSymbols maps kind -> name -> ordered list of definitions, in
	// the order the parser reported them.
	DefinedSymbols map[symbol.Kind]map[string][]*symbol.Definition

	// UsedSymbols is kept sorted by position after every parse (spec.md §8
	// invariant); resolved via position.FindCovering.
	UsedSymbols []symbol.Usage

	// PositionTree is the raw nested call-span tree from the most recent
	// parse (spec.md §3's positionTree field).
	PositionTree []*calltree.Node
	// ParameterUsage is the flattened, sorted marker list signature help
	// binary-searches.
	ParameterUsage []calltree.ParameterUsage
	// FunctionBlocks is the sorted, non-overlapping list of function bodies
	// used to resolve which scope a cursor position falls in.
	FunctionBlocks []calltree.FunctionBlock

	// Includes maps an included document's URI to the site ranges in this
	// document that named it (a document can @include the same file twice).
	Includes map[string][]position.Range
	// IncludedBy maps an includer document's URI to the site ranges, in
	// that includer, that name this document. This is the inverse edge;
	// spec.md §3's invariant `includedBy(B) contains A iff includes(A)
	// contains B` is maintained by internal/docgraph across both sides.
	IncludedBy map[string][]position.Range
}

// New returns an empty document ready for its first parse.
func New(uri string) *Document {
	return &Document{
		URI:            uri,
		DefinedSymbols: make(map[symbol.Kind]map[string][]*symbol.Definition),
		Includes:       make(map[string][]position.Range),
		IncludedBy:     make(map[string][]position.Range),
	}
}

// ResetForReparse clears everything a parse regenerates from scratch, but
// leaves IncludedBy untouched: that edge is owned by the includers, not by
// this document's own parse. Includes is cleared here; internal/queue
// diffs the old and new sets to remove edges the new parse no longer names.
func (d *Document) ResetForReparse() {
	d.ParseDiagnostics = nil
	d.AnalysisDiagnostics = nil
	d.DefinedSymbols = make(map[symbol.Kind]map[string][]*symbol.Definition)
	d.UsedSymbols = nil
	d.PositionTree = nil
	d.ParameterUsage = nil
	d.FunctionBlocks = nil
	d.Includes = make(map[string][]position.Range)
}

// AddDefinition registers def under its (kind, name) bucket, in the order
// the parser reports it.
func (d *Document) AddDefinition(def *symbol.Definition) {
	byName, ok := d.DefinedSymbols[def.Kind]
	if !ok {
		byName = make(map[string][]*symbol.Definition)
		d.DefinedSymbols[def.Kind] = byName
	}
	byName[def.Name] = append(byName[def.Name], def)
}

// AddUsage appends u to UsedSymbols (not yet sorted; SortUsages does that
// once per parse) and, for a non-define global-variable usage with no
// existing definition in this document, synthesizes the implicit definition
// spec.md §4.2 requires. Usages recorded at a definition site (IsDefine)
// never trigger this: an explicit definition was already added for them.
func (d *Document) AddUsage(u symbol.Usage) {
	d.UsedSymbols = append(d.UsedSymbols, u)
	if u.IsDefine || u.Kind != symbol.GlobalVariable {
		return
	}
	if len(d.DefinedSymbols[symbol.GlobalVariable][u.Name]) > 0 {
		return
	}
	d.AddDefinition(&symbol.Definition{
		Document:   d.URI,
		Position:   u.Position,
		Kind:       symbol.GlobalVariable,
		Name:       u.Name,
		Scope:      symbol.FileScope,
		IsImplicit: true,
	})
}

// SortUsages sorts UsedSymbols by position, restoring the invariant a fresh
// parse's append order does not itself guarantee (parser events are not
// always emitted in strict source order across nested constructs).
func (d *Document) SortUsages() {
	position.SortByPosition(d.UsedSymbols, func(u symbol.Usage) position.Position { return u.Position })
}

// FinishParse takes the call-tree builder used during this parse and files
// its flattened output onto the document, per finishPositionTree
// (spec.md §4.3).
func (d *Document) FinishParse(builder *calltree.Builder, endOfText position.Position) {
	params, blocks := builder.Finish(endOfText)
	d.PositionTree = builder.Roots()
	d.ParameterUsage = params
	d.FunctionBlocks = blocks
	d.SortUsages()
}

// FindUsage resolves pos to the usage covering it, per findSymbolForPosition
// (spec.md §4.6): a usage covers pos iff they share a line and pos falls
// within [start, start+len(name)].
func (d *Document) FindUsage(pos position.Position) (symbol.Usage, bool) {
	return position.FindCovering(d.UsedSymbols, pos,
		func(u symbol.Usage) position.Position { return u.Position },
		func(u symbol.Usage) position.Range { return u.Range() },
	)
}

// EnclosingFunction resolves pos to the function whose block contains it, or
// nil for file scope, per spec.md §4.2's scoping rule.
func (d *Document) EnclosingFunction(pos position.Position) *symbol.Definition {
	for i := range d.FunctionBlocks {
		b := &d.FunctionBlocks[i]
		if !pos.Less(b.Start) && pos.LessOrEqual(b.End) {
			return b.Function
		}
	}
	return nil
}

// Definitions returns every definition of the given kind and name in this
// document, in parse order.
func (d *Document) Definitions(kind symbol.Kind, name string) []*symbol.Definition {
	return d.DefinedSymbols[kind][name]
}

// AllDiagnostics returns parse and analysis diagnostics concatenated, the
// combination the wrap-up phase publishes (spec.md §4.4), capped at max if
// max > 0.
func (d *Document) AllDiagnostics(max int) []symbol.Diagnostic {
	all := make([]symbol.Diagnostic, 0, len(d.ParseDiagnostics)+len(d.AnalysisDiagnostics))
	all = append(all, d.ParseDiagnostics...)
	all = append(all, d.AnalysisDiagnostics...)
	if max > 0 && len(all) > max {
		all = all[:max]
	}
	return all
}

// FuncSignature is the observable shape of a function definition that
// matters for cross-document arity checking: its name and parameter names.
type FuncSignature struct {
	ParameterNames []string
	FirstOptional  int
}

// FuncSignatures returns the current signature of every function defined in
// this document, used by the queue to detect whether a parse changed the
// set of function signatures (spec.md §4.5's documentsWithAlteredDefinitions
// trigger).
func (d *Document) FuncSignatures() map[string]FuncSignature {
	out := make(map[string]FuncSignature)
	for name, defs := range d.DefinedSymbols[symbol.Function] {
		if len(defs) == 0 {
			continue
		}
		def := defs[0]
		out[name] = FuncSignature{ParameterNames: append([]string(nil), def.Parameters...), FirstOptional: def.FirstOptional}
	}
	return out
}
