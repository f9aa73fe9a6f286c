// Package calltree builds the nested tree of function-call spans emitted
// during a parse (spec.md §4.3) and flattens it into the two structures the
// query layer consumes: a sorted list of function blocks for scope
// resolution, and a sorted list of parameter-position markers for signature
// help.
package calltree

import (
	"github.com/NorthIsUp/awk-language-server/internal/position"
	"github.com/NorthIsUp/awk-language-server/internal/symbol"
)

// ParameterUsage marks the boundary of one argument of a function call.
// A closing marker has ParameterIndex == -1 (spec.md §4.3's sentinel), used
// by signature help to detect a cursor positioned past the last argument.
type ParameterUsage struct {
	FunctionName   string
	ParameterIndex int
	Position       position.Position
}

// FunctionBlock is the lexical extent of a function body, used to resolve
// which definitions are in scope at a given cursor position (spec.md §4.2).
type FunctionBlock struct {
	Start, End position.Position
	Function   *symbol.Definition
}

// callSpan is one node of the in-progress call tree.
type callSpan struct {
	functionName string
	start        position.Position
	end          position.Position
	closed       bool
	parent       *callSpan
	children     []*callSpan
	// argCount is the observed argument count, tracked as
	// max(parameterIndex)+1 across every BeginParameter seen while this
	// span was innermost, so the semantic analyzer can check it against the
	// callee's recorded arity without re-deriving it from ParameterUsage.
	argCount int
}

// Builder accumulates function-call and parameter events during a single
// parse and produces the flattened, sorted structures finishPositionTree
// hands to the document.
type Builder struct {
	stack []*callSpan
	roots []*callSpan
	// params holds every parameter marker observed so far, across all calls,
	// in the order the events arrived; Finish sorts it by position.
	params []ParameterUsage

	blocks map[*symbol.Definition]*FunctionBlock
	order  []*symbol.Definition
}

// NewBuilder returns an empty Builder ready to consume one parse's events.
func NewBuilder() *Builder {
	return &Builder{
		blocks: make(map[*symbol.Definition]*FunctionBlock),
	}
}

// BeginCall opens a new call span nested inside whatever call is currently
// open, if any. name is the callee name resolved by the adapter from the
// immediately preceding function-name usage (spec.md §6's onFunctionCall
// event itself carries no name).
func (b *Builder) BeginCall(name string, pos position.Position) {
	span := &callSpan{functionName: name, start: pos}
	if len(b.stack) > 0 {
		parent := b.stack[len(b.stack)-1]
		span.parent = parent
		parent.children = append(parent.children, span)
	} else {
		b.roots = append(b.roots, span)
	}
	b.stack = append(b.stack, span)
}

// EndCall closes the innermost open call span at pos.
func (b *Builder) EndCall(pos position.Position) {
	if len(b.stack) == 0 {
		return
	}
	top := b.stack[len(b.stack)-1]
	top.end = pos
	top.closed = true
	b.stack = b.stack[:len(b.stack)-1]
}

// BeginParameter records the start of an argument of the innermost open
// call.
func (b *Builder) BeginParameter(index int, pos position.Position) {
	name := b.innermostCallName()
	b.params = append(b.params, ParameterUsage{FunctionName: name, ParameterIndex: index, Position: pos})
	if len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		if index+1 > top.argCount {
			top.argCount = index + 1
		}
	}
}

// EndParameter records the end of an argument of the innermost open call as
// a sentinel marker (ParameterIndex == -1).
func (b *Builder) EndParameter(pos position.Position) {
	name := b.innermostCallName()
	b.params = append(b.params, ParameterUsage{FunctionName: name, ParameterIndex: -1, Position: pos})
}

func (b *Builder) innermostCallName() string {
	if len(b.stack) == 0 {
		return ""
	}
	return b.stack[len(b.stack)-1].functionName
}

// ExtendBlock grows def's lexical block to cover pos, seeding it at def's
// own definition position the first time it is observed. AWK forbids nested
// function definitions, so blocks built this way never overlap: each
// function's members carry only that function as their enclosing scope.
func (b *Builder) ExtendBlock(def *symbol.Definition, pos position.Position) {
	block, ok := b.blocks[def]
	if !ok {
		block = &FunctionBlock{Start: def.Position, End: def.Position, Function: def}
		b.blocks[def] = block
		b.order = append(b.order, def)
	}
	if pos.Less(block.Start) {
		block.Start = pos
	}
	if block.End.Less(pos) {
		block.End = pos
	}
}

// Node is the read-only, exported view of one call span, kept on the
// document as spec.md §3's positionTree field. Nothing in the query layer
// currently walks it (signature help and scoping both use the flattened
// ParameterUsage/FunctionBlock lists instead), but it is retained since the
// data model names it explicitly.
type Node struct {
	FunctionName  string
	Range         position.Range
	ArgumentCount int
	Children      []*Node
}

func snapshot(s *callSpan) *Node {
	n := &Node{FunctionName: s.functionName, Range: position.Range{Start: s.start, End: s.end}, ArgumentCount: s.argCount}
	for _, c := range s.children {
		n.Children = append(n.Children, snapshot(c))
	}
	return n
}

// Roots returns a snapshot of the top-level call spans built so far.
func (b *Builder) Roots() []*Node {
	roots := make([]*Node, 0, len(b.roots))
	for _, r := range b.roots {
		roots = append(roots, snapshot(r))
	}
	return roots
}

// Finish closes any still-open call spans at endOfText (a crashed or
// truncated parse can leave spans open) and returns the sorted parameter
// marker list and sorted function block list.
func (b *Builder) Finish(endOfText position.Position) ([]ParameterUsage, []FunctionBlock) {
	for len(b.stack) > 0 {
		b.EndCall(endOfText)
	}

	params := make([]ParameterUsage, len(b.params))
	copy(params, b.params)
	position.SortByPosition(params, func(p ParameterUsage) position.Position { return p.Position })

	blocks := make([]FunctionBlock, 0, len(b.order))
	for _, def := range b.order {
		blocks = append(blocks, *b.blocks[def])
	}
	position.SortByPosition(blocks, func(fb FunctionBlock) position.Position { return fb.Start })

	return params, blocks
}
