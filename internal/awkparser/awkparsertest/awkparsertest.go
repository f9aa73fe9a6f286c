// Package awkparsertest is a deterministic test double for
// internal/awkparser.Parser: it replays a scripted list of callback events
// instead of actually parsing AWK source, the same role the teacher's
// literal parser fixtures play for its tree-sitter-backed parser.
package awkparsertest

import "github.com/NorthIsUp/awk-language-server/internal/awkparser"

// Event is one scripted callback invocation.
type Event func(cb awkparser.Callbacks)

// Define scripts an OnDefine call.
func Define(kind awkparser.SymbolKind, scope, name string, line, col int, doc string) Event {
	return func(cb awkparser.Callbacks) { cb.OnDefine(kind, scope, name, line, col, doc) }
}

// Use scripts an OnUse call.
func Use(kind awkparser.SymbolKind, scope, name string, line, col int) Event {
	return func(cb awkparser.Callbacks) { cb.OnUse(kind, scope, name, line, col) }
}

// Include scripts an OnInclude call.
func Include(filename string, relative bool, line, col, length int) Event {
	return func(cb awkparser.Callbacks) { cb.OnInclude(filename, relative, line, col, length) }
}

// Message scripts an OnMessage call.
func Message(sev awkparser.Severity, subType, msg string, line, col, length int) Event {
	return func(cb awkparser.Callbacks) { cb.OnMessage(sev, subType, msg, line, col, length) }
}

// CallStart scripts the opening OnFunctionCall event.
func CallStart(line, col int) Event {
	return func(cb awkparser.Callbacks) { cb.OnFunctionCall(true, line, col) }
}

// CallEnd scripts the closing OnFunctionCall event.
func CallEnd(line, col int) Event {
	return func(cb awkparser.Callbacks) { cb.OnFunctionCall(false, line, col) }
}

// ParamStart scripts the opening OnParameter event for argument index.
func ParamStart(index, line, col int) Event {
	return func(cb awkparser.Callbacks) { cb.OnParameter(index, true, line, col) }
}

// ParamEnd scripts the closing OnParameter event for argument index.
func ParamEnd(index, line, col int) Event {
	return func(cb awkparser.Callbacks) { cb.OnParameter(index, false, line, col) }
}

// Arity scripts an OnArity call.
func Arity(def awkparser.FuncDef) Event {
	return func(cb awkparser.Callbacks) { cb.OnArity(def) }
}

// Parser replays a fixed Script against whatever Callbacks it is invoked
// with, ignoring the text it is given: tests build the script by hand to
// represent what a real parse of that text would report.
type Parser struct {
	Script Script
	// FailAfter, when >= 0, stops the replay after that many events and
	// returns Err, simulating a parser crash mid-parse (spec.md §7).
	FailAfter int
	Err       error

	lastLine, lastCol int
}

// Script is an ordered list of scripted events.
type Script []Event

// New returns a Parser that replays script in full and never fails.
func New(script Script) *Parser {
	return &Parser{Script: script, FailAfter: -1}
}

// Parse ignores text and baseNameHint/fileModeHint (tests script mode
// effects directly via the events they choose to include), replaying the
// script against cb.
func (p *Parser) Parse(text string, baseNameHint string, fileModeHint awkparser.Mode, cb awkparser.Callbacks) error {
	for i, evt := range p.Script {
		if p.FailAfter >= 0 && i >= p.FailAfter {
			return p.Err
		}
		evt(cb)
	}
	if p.FailAfter >= 0 && p.FailAfter == len(p.Script) {
		return p.Err
	}
	return nil
}

// LastSymbolPos returns the position recorded by the most recent
// position-bearing event replayed. Since events are plain closures over
// Callbacks rather than self-describing structs, tests that rely on
// LastSymbolPos should set it explicitly via SetLastSymbolPos.
func (p *Parser) LastSymbolPos() (line, col int) {
	return p.lastLine, p.lastCol
}

// SetLastSymbolPos lets a test pin the position a simulated crash should be
// anchored at.
func (p *Parser) SetLastSymbolPos(line, col int) {
	p.lastLine, p.lastCol = line, col
}
