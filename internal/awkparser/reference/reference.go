// Package reference is a minimal, line-oriented default implementation of
// awkparser.Parser, wired into cmd/awk-language-server so the binary runs
// out of the box. It recognizes function definitions, @include directives,
// and identifier/call usages well enough to exercise the rest of the core,
// but it is not a real AWK grammar: it does not tokenize string or regex
// literals, does not track expression precedence, and does not validate
// syntax. Per awkparser's own package doc, a production deployment is
// expected to replace this with a real parser; this package exists so the
// module has a runnable default rather than none.
package reference

import (
	"regexp"
	"strings"

	"github.com/NorthIsUp/awk-language-server/internal/awkparser"
)

var (
	includeRe  = regexp.MustCompile(`^\s*@include\s+"([^"]+)"`)
	functionRe = regexp.MustCompile(`^\s*function\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)`)
	identRe    = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	commentRe  = regexp.MustCompile(`#.*$`)
)

var keywords = map[string]bool{
	"BEGIN": true, "END": true, "function": true, "func": true, "if": true, "else": true,
	"while": true, "for": true, "do": true, "break": true, "continue": true, "next": true,
	"nextfile": true, "exit": true, "return": true, "delete": true, "in": true, "getline": true,
	"print": true, "printf": true,
}

// Reference implements awkparser.Parser.
type Reference struct {
	lastLine, lastCol int
}

// New returns a ready-to-use reference parser.
func New() *Reference {
	return &Reference{}
}

func (r *Reference) LastSymbolPos() (line, col int) {
	return r.lastLine, r.lastCol
}

// Parse scans text one line at a time, tracking brace depth to know which
// function body (if any) the current line belongs to.
func (r *Reference) Parse(text, baseNameHint string, fileModeHint awkparser.Mode, cb awkparser.Callbacks) error {
	lines := strings.Split(text, "\n")

	var funcStack []funcScope
	for lineNo, raw := range lines {
		line := lineNo + 1
		r.lastLine, r.lastCol = line, len(raw)+1

		if m := includeRe.FindStringSubmatchIndex(raw); m != nil {
			filename := raw[m[2]:m[3]]
			cb.OnInclude(filename, !strings.HasPrefix(filename, "/"), line, m[2], len(filename))
			continue
		}

		code := stripComment(raw)

		if m := functionRe.FindStringSubmatchIndex(code); m != nil {
			name := code[m[2]:m[3]]
			paramList := code[m[4]:m[5]]
			params := splitParams(paramList)
			col := m[2] - len("function ")
			if col < 0 {
				col = 0
			}
			cb.OnDefine(awkparser.Function, currentScope(funcStack), name, line, col+1, "")
			cb.OnArity(awkparser.FuncDef{Name: name, Parameters: params, FirstOptional: -1, Line: line, Col: col + 1})
			funcStack = append(funcStack, funcScope{name: name, params: params, depth: strings.Count(code, "{") - strings.Count(code, "}")})
			scanUsagesExcluding(cb, code[m[1]:], line, m[1], currentScope(funcStack), funcStack)
			continue
		}

		if len(funcStack) > 0 {
			top := &funcStack[len(funcStack)-1]
			top.depth += strings.Count(code, "{") - strings.Count(code, "}")
			if top.depth <= 0 {
				funcStack = funcStack[:len(funcStack)-1]
			}
		}

		scanUsagesExcluding(cb, code, line, 0, currentScope(funcStack), funcStack)
	}
	return nil
}

type funcScope struct {
	name   string
	params []string
	depth  int
}

func currentScope(stack []funcScope) string {
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1].name
}

func isParam(stack []funcScope, name string) bool {
	if len(stack) == 0 {
		return false
	}
	for _, p := range stack[len(stack)-1].params {
		if p == name {
			return true
		}
	}
	return false
}

func stripComment(line string) string {
	return commentRe.ReplaceAllString(line, "")
}

func splitParams(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// scanUsagesExcluding reports every identifier in code as a use, treating an
// identifier immediately followed by '(' as a function call (with naive,
// non-nested-comma parameter markers) and every other identifier as a
// parameter use (if it names a parameter of the enclosing function) or a
// global variable use otherwise. baseCol offsets column numbers when code is
// a suffix of the original line.
func scanUsagesExcluding(cb awkparser.Callbacks, code string, line, baseCol int, scope string, funcStack []funcScope) {
	for _, loc := range identRe.FindAllStringIndex(code, -1) {
		name := code[loc[0]:loc[1]]
		if keywords[name] {
			continue
		}
		col := baseCol + loc[0] + 1

		followedByParen := loc[1] < len(code) && code[loc[1]] == '('
		if followedByParen {
			cb.OnUse(awkparser.Function, scope, name, line, col)
			openCol := baseCol + loc[1] + 1
			cb.OnFunctionCall(true, line, openCol)
			args := extractArgs(code, loc[1])
			argCol := baseCol + loc[1] + 2
			for i, arg := range args {
				trimmed := strings.TrimSpace(arg)
				if trimmed == "" && len(args) == 1 {
					break
				}
				cb.OnParameter(i, true, line, argCol)
				cb.OnParameter(i, false, line, argCol+len(arg))
				argCol += len(arg) + 1
			}
			cb.OnFunctionCall(false, line, openCol+len(code)-loc[1])
			continue
		}

		if isParam(funcStack, name) {
			cb.OnUse(awkparser.Parameter, scope, name, line, col)
			continue
		}
		cb.OnUse(awkparser.GlobalVariable, scope, name, line, col)
	}
}

// extractArgs does a naive top-level comma split of the parenthesized
// argument list starting at open (the index of '(' in code). It does not
// track nested strings; adequate for a reference scanner, not for real code
// with string literals containing commas or parentheses.
func extractArgs(code string, open int) []string {
	depth := 0
	start := open + 1
	var args []string
	for i := open; i < len(code); i++ {
		switch code[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				args = append(args, code[start:i])
				return args
			}
		case ',':
			if depth == 1 {
				args = append(args, code[start:i])
				start = i + 1
			}
		}
	}
	if start < len(code) {
		args = append(args, code[start:])
	}
	return args
}
