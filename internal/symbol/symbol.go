// Package symbol defines the value types shared by every document: the two
// kinds of symbol records (definitions and usages) and the diagnostics the
// parser and semantic analyzer attach to a document.
package symbol

import (
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/NorthIsUp/awk-language-server/internal/position"
)

// Kind identifies what a symbol denotes. There is no separate "define-kind"
// enumeration (spec.md Design Note): a usage recorded at a definition site
// sets Usage.IsDefine instead of doubling the kind space.
type Kind int

const (
	GlobalVariable Kind = iota
	LocalVariable
	Parameter
	Function
)

// String returns the Go identifier for the kind ("GlobalVariable").
func (k Kind) String() string {
	switch k {
	case GlobalVariable:
		return "GlobalVariable"
	case LocalVariable:
		return "LocalVariable"
	case Parameter:
		return "Parameter"
	case Function:
		return "Function"
	default:
		return "Unknown"
	}
}

// Label returns the lower-case, space-delimited display form used in hover
// text ("global variable"), derived from String() rather than hand-listed.
func (k Kind) Label() string {
	return strcase.ToDelimited(k.String(), ' ')
}

// Severity mirrors the LSP DiagnosticSeverity levels the parser and analyzer
// can report.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Diagnostic is a single parse, include-resolution, style, or semantic
// finding attached to a document.
type Diagnostic struct {
	Range    position.Range
	Severity Severity
	Message  string
	// SubType is the parser's raw sub-type name ("comma", "future") for
	// style warnings, empty otherwise. Per spec.md §9 the sub-type names are
	// canonical; configuration labels for them are cosmetic only.
	SubType string
}

// Scope identifies the lexical scope a definition or usage resolves within:
// either file scope (Function == nil) or the body of a specific function.
type Scope struct {
	Function *Definition
}

// FileScope is the zero value Scope, i.e. no enclosing function.
var FileScope = Scope{}

// InFunction reports whether the scope is a function body, not file scope.
func (s Scope) InFunction() bool { return s.Function != nil }

// Definition is a single definition record: a place in a document where a
// name of a given kind comes into existence.
type Definition struct {
	Document   string // owning document URI
	Position   position.Position
	Kind       Kind
	Name       string
	DocComment string
	Scope      Scope
	// IsImplicit marks a synthetic definition created by the implicit-global
	// rule (spec.md §4.2): a global-variable usage with no prior definition
	// in the same document creates one at the usage site.
	IsImplicit bool
	// Parameters holds the ordered parameter names for a Function
	// definition, populated by registerNumberOfParameters (spec.md §4.3) as
	// the parser reports the signature. len(Parameters) is the arity the
	// semantic analyzer checks callers against. Unused for other kinds.
	Parameters []string
	// FirstOptional is the index of the first parameter gawk treats as
	// optional (extra scratch locals declared as parameters), or -1 if
	// every parameter is required.
	FirstOptional int
}

// Range returns the definition's name-sized range in its owning document.
func (d Definition) Range() position.Range {
	return position.NewRange(d.Position, len(d.Name))
}

// Usage is a single recorded reference to a name.
type Usage struct {
	Document string
	Position position.Position
	Kind     Kind
	Name     string
	// IsDefine marks a usage emitted at a definition site (spec.md Design
	// Note). The query layer downgrades these to their base kind before use;
	// they are otherwise ordinary usages and participate in find-references.
	IsDefine bool
	Scope    Scope
}

// Range returns the usage's name-sized range.
func (u Usage) Range() position.Range {
	return position.NewRange(u.Position, len(u.Name))
}

// FormatDocComment strips the common "##" + whitespace prefix from every
// line of a doc-comment block, per spec.md §4.6's completion-item alignment
// rule, and joins what remains with newlines.
func FormatDocComment(raw string) string {
	if raw == "" {
		return ""
	}
	lines := strings.Split(raw, "\n")
	common := -1
	for i, line := range lines {
		line = strings.TrimPrefix(strings.TrimLeft(line, " \t"), "##")
		lines[i] = line
		if strings.TrimSpace(line) == "" {
			continue
		}
		if n := len(line) - len(strings.TrimLeft(line, " \t")); common < 0 || n < common {
			common = n
		}
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
		} else if common > 0 {
			lines[i] = line[common:]
		}
	}
	return strings.Join(lines, "\n")
}
