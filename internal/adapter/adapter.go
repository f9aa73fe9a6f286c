// Package adapter binds the awkparser.Callbacks black-box contract to a
// document's mutations: converting 1-based parser positions to 0-based,
// building the call-position tree, resolving scope names to function
// definitions, and detecting the shebang mode override and the
// `Constants`-suffix base-name suppression (spec.md §4.3, §4.7). It is
// grounded on the shape of internal/sitteradapter.go and
// internal/parser/incremental_parser.go: a thin translation layer between
// an external parser's event stream and this repo's own position/document
// types.
package adapter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/NorthIsUp/awk-language-server/internal/awkparser"
	"github.com/NorthIsUp/awk-language-server/internal/calltree"
	"github.com/NorthIsUp/awk-language-server/internal/document"
	"github.com/NorthIsUp/awk-language-server/internal/position"
	"github.com/NorthIsUp/awk-language-server/internal/symbol"
)

// shebangMode matches spec.md §4.7's dialect-detecting shebang pattern.
var shebangMode = regexp.MustCompile(`^#!(.*[^a-z])?([a-z]?awk) +-f`)

// constantsSuffix is the file-base-name suffix that suppresses the parser's
// file-to-symbol association heuristic. Per spec.md §9's Open Question, the
// rationale is undocumented upstream; the behavior is preserved unexplained.
const constantsSuffix = "Constants"

// DetectMode returns the dialect a parse of text should use: the shebang
// override if the first line matches, otherwise globalMode unchanged.
func DetectMode(text string, globalMode awkparser.Mode) awkparser.Mode {
	firstLine := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine = text[:idx]
	}
	if shebangMode.MatchString(firstLine) {
		return awkparser.ModeGawk
	}
	return globalMode
}

// BaseNameHint returns the base-name hint the parser should receive: empty
// when baseName ends in "Constants", suppressing the association heuristic;
// baseName unchanged otherwise.
func BaseNameHint(baseName string) string {
	if strings.HasSuffix(baseName, constantsSuffix) {
		return ""
	}
	return baseName
}

// IncludeHandler is notified of every OnInclude event, with the site
// already converted to a 0-based range. Implemented by internal/queue,
// which owns filesystem access and read scheduling; adapter only reports
// the event, breaking what would otherwise be an adapter<->queue import
// cycle.
type IncludeHandler interface {
	HandleInclude(filename string, relative bool, site position.Range)
}

// StylisticWarnings mirrors the configuration keys that gate which parser
// sub-type messages become diagnostics (spec.md §6's configuration table).
type StylisticWarnings struct {
	MissingSemicolon bool
	Compatibility    bool
}

// Options configures one parse.
type Options struct {
	Mode              awkparser.Mode
	StylisticWarnings StylisticWarnings
}

// Result summarizes the outcome of Run, for the queue's altered-set
// bookkeeping (spec.md §4.5).
type Result struct {
	// Crashed is true when the parser returned an error or panicked; a
	// generic diagnostic was already attached at lastSymbolPos.
	Crashed bool
}

// Run parses text into doc: it resets doc, drives parser.Parse through an
// adapter implementing awkparser.Callbacks, and files the resulting
// diagnostics, symbol tables, and call-position structures onto doc.
// includeHandler receives every OnInclude event; it may be nil if the
// caller does not care about includes (e.g. a document known to have none).
func Run(doc *document.Document, text, baseName string, opts Options, parser awkparser.Parser, includeHandler IncludeHandler) Result {
	doc.ResetForReparse()
	doc.Text = text

	mode := DetectMode(text, opts.Mode)
	hint := BaseNameHint(baseName)

	a := &callbacks{
		doc:            doc,
		builder:        calltree.NewBuilder(),
		opts:           opts,
		includeHandler: includeHandler,
		functionDefs:   make(map[string]*symbol.Definition),
	}

	crashed := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				crashed = true
				line, col := parser.LastSymbolPos()
				reportCrash(doc, line, col, fmt.Sprintf("parser panic: %v", r))
			}
		}()
		if err := parser.Parse(text, hint, mode, a); err != nil {
			crashed = true
			line, col := parser.LastSymbolPos()
			reportCrash(doc, line, col, err.Error())
		}
	}()

	doc.FinishParse(a.builder, endOfText(text))
	return Result{Crashed: crashed}
}

func reportCrash(doc *document.Document, line, col int, detail string) {
	pos := toPosition(line, col)
	doc.ParseDiagnostics = append(doc.ParseDiagnostics, symbol.Diagnostic{
		Range:    position.NewRange(pos, 0),
		Severity: symbol.SeverityError,
		Message:  "internal parser error: " + detail,
	})
}

// endOfText returns the 0-based position one past the last character of
// text, used to close any call spans still open after a crashed parse.
func endOfText(text string) position.Position {
	lines := strings.Split(text, "\n")
	last := lines[len(lines)-1]
	return position.Position{Line: uint32(len(lines) - 1), Character: uint32(len([]rune(last)))}
}

// toPosition converts the parser's 1-based (line, col) to a 0-based
// position, per spec.md §4.3's adapter-boundary conversion rule.
func toPosition(line, col int) position.Position {
	l, c := line-1, col-1
	if l < 0 {
		l = 0
	}
	if c < 0 {
		c = 0
	}
	return position.Position{Line: uint32(l), Character: uint32(c)}
}

func toKind(k awkparser.SymbolKind) symbol.Kind {
	switch k {
	case awkparser.LocalVariable:
		return symbol.LocalVariable
	case awkparser.Parameter:
		return symbol.Parameter
	case awkparser.Function:
		return symbol.Function
	default:
		return symbol.GlobalVariable
	}
}

func toSeverity(s awkparser.Severity) symbol.Severity {
	switch s {
	case awkparser.SeverityWarning:
		return symbol.SeverityWarning
	case awkparser.SeverityInformation:
		return symbol.SeverityInformation
	case awkparser.SeverityHint:
		return symbol.SeverityHint
	default:
		return symbol.SeverityError
	}
}

// callbacks implements awkparser.Callbacks for a single parse.
type callbacks struct {
	doc            *document.Document
	builder        *calltree.Builder
	opts           Options
	includeHandler IncludeHandler

	functionDefs map[string]*symbol.Definition
	// pendingCallName is the name most recently reported by an OnUse(kind
	// == Function, ...) event, consumed by the next OnFunctionCall(true).
	pendingCallName string
}

func (a *callbacks) scopeOf(name string) symbol.Scope {
	if name == "" {
		return symbol.FileScope
	}
	if def, ok := a.functionDefs[name]; ok {
		return symbol.Scope{Function: def}
	}
	return symbol.FileScope
}

func (a *callbacks) OnDefine(kind awkparser.SymbolKind, scope string, name string, line, col int, docComment string) {
	pos := toPosition(line, col)
	def := &symbol.Definition{
		Document:      a.doc.URI,
		Position:      pos,
		Kind:          toKind(kind),
		Name:          name,
		DocComment:    symbol.FormatDocComment(docComment),
		Scope:         a.scopeOf(scope),
		FirstOptional: -1,
	}
	a.doc.AddDefinition(def)
	if def.Kind == symbol.Function {
		a.functionDefs[name] = def
	}
	if def.Scope.InFunction() {
		a.builder.ExtendBlock(def.Scope.Function, pos)
	}
	// The parser also reports the definition site as a usage (spec.md's
	// define-kind-as-boolean-flag Design Note), so find-references includes it.
	a.doc.AddUsage(symbol.Usage{
		Document: a.doc.URI,
		Position: pos,
		Kind:     def.Kind,
		Name:     name,
		IsDefine: true,
		Scope:    def.Scope,
	})
}

func (a *callbacks) OnUse(kind awkparser.SymbolKind, scope string, name string, line, col int) {
	pos := toPosition(line, col)
	k := toKind(kind)
	sc := a.scopeOf(scope)
	a.doc.AddUsage(symbol.Usage{
		Document: a.doc.URI,
		Position: pos,
		Kind:     k,
		Name:     name,
		Scope:    sc,
	})
	if sc.InFunction() {
		a.builder.ExtendBlock(sc.Function, pos)
	}
	if k == symbol.Function {
		a.pendingCallName = name
	}
}

func (a *callbacks) OnInclude(filename string, relative bool, line, col, length int) {
	if a.includeHandler == nil {
		return
	}
	pos := toPosition(line, col)
	a.includeHandler.HandleInclude(filename, relative, position.NewRange(pos, length))
}

func (a *callbacks) OnMessage(severity awkparser.Severity, subType, msg string, line, col, length int) {
	if subType == "comma" && !a.opts.StylisticWarnings.MissingSemicolon {
		return
	}
	if subType == "future" && !a.opts.StylisticWarnings.Compatibility {
		return
	}
	pos := toPosition(line, col)
	a.doc.ParseDiagnostics = append(a.doc.ParseDiagnostics, symbol.Diagnostic{
		Range:    position.NewRange(pos, length),
		Severity: toSeverity(severity),
		Message:  msg,
		SubType:  subType,
	})
}

func (a *callbacks) OnFunctionCall(isStart bool, line, col int) {
	pos := toPosition(line, col)
	if isStart {
		a.builder.BeginCall(a.pendingCallName, pos)
		a.pendingCallName = ""
		return
	}
	a.builder.EndCall(pos)
}

func (a *callbacks) OnParameter(index int, isStart bool, line, col int) {
	pos := toPosition(line, col)
	if isStart {
		a.builder.BeginParameter(index, pos)
		return
	}
	a.builder.EndParameter(pos)
}

func (a *callbacks) OnArity(def awkparser.FuncDef) {
	fd, ok := a.functionDefs[def.Name]
	if !ok {
		return
	}
	fd.Parameters = append([]string(nil), def.Parameters...)
	fd.FirstOptional = def.FirstOptional
}
