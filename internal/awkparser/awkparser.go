// Package awkparser defines the contract between the core and the AWK
// grammar/parser, treated as an external black-box collaborator: it is
// invoked with a text string and reports back over a fixed set of callback
// slots (spec.md §1, §6). No concrete grammar is vendored here; production
// binaries link a real implementation of Parser, and internal/adapter
// consumes only this interface.
package awkparser

// SymbolKind mirrors internal/symbol.Kind without importing it, keeping this
// package free of any dependency beyond what the contract itself needs.
type SymbolKind int

const (
	GlobalVariable SymbolKind = iota
	LocalVariable
	Parameter
	Function
)

// Severity mirrors internal/symbol.Severity.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Mode selects the AWK dialect a parse should use.
type Mode int

const (
	ModeStrict Mode = iota
	ModeGawk
)

// FuncDef is the observed signature of a function definition, reported once
// per definition via OnArity so the adapter can call
// registerNumberOfParameters (spec.md §4.3).
type FuncDef struct {
	Name          string
	Parameters    []string
	FirstOptional int
	Line, Col     int
}

// Callbacks is the full set of event slots a parse reports through. Every
// position is 1-based, converted to 0-based by the adapter at the boundary
// (spec.md §4.3.1).
type Callbacks interface {
	OnDefine(kind SymbolKind, scope string, name string, line, col int, docComment string)
	OnUse(kind SymbolKind, scope string, name string, line, col int)
	OnInclude(filename string, relative bool, line, col, length int)
	OnMessage(severity Severity, subType, msg string, line, col, length int)
	OnFunctionCall(isStart bool, line, col int)
	OnParameter(index int, isStart bool, line, col int)
	OnArity(def FuncDef)
}

// Parser parses one document's text and reports through cb. baseNameHint is
// the document's file base name (used by the parser to associate top-level
// symbols, per spec.md §4.7's `Constants`-suffix suppression); fileModeHint
// is the effective dialect after any shebang override has been applied.
//
// LastSymbolPos reports the position of the last token the parser observed,
// used to anchor a crash diagnostic when Parse panics or returns an error
// (spec.md §7).
type Parser interface {
	Parse(text string, baseNameHint string, fileModeHint Mode, cb Callbacks) error
	LastSymbolPos() (line, col int)
}
