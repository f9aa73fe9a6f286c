// Package builtins is the static, read-only table of AWK built-in
// variables and functions (spec.md §1's fourth external collaborator, §4.7's
// built-in table). It never mutates at runtime; hover and signature help
// consult it directly, filtered by the current mode.
package builtins

// Kind distinguishes a built-in variable from a built-in function.
type Kind int

const (
	VariableKind Kind = iota
	FunctionKind
)

// Entry describes one built-in symbol.
type Entry struct {
	Name       string
	Kind       Kind
	Parameters []string
	// FirstOptional is the index of the first optional parameter, or -1 if
	// all parameters are required.
	FirstOptional int
	// AWK marks the symbol as available in strict-AWK mode; false means the
	// symbol is a gawk extension only.
	AWK         bool
	Description string
}

// table mirrors internal/config/config.go's defaultConfig style: a single
// package-level literal rather than code that builds the table at init time.
var table = map[string]Entry{
	"NR":         {Name: "NR", Kind: VariableKind, AWK: true, Description: "Number of input records read so far."},
	"NF":         {Name: "NF", Kind: VariableKind, AWK: true, Description: "Number of fields in the current record."},
	"FS":         {Name: "FS", Kind: VariableKind, AWK: true, Description: "Input field separator."},
	"OFS":        {Name: "OFS", Kind: VariableKind, AWK: true, Description: "Output field separator."},
	"RS":         {Name: "RS", Kind: VariableKind, AWK: true, Description: "Input record separator."},
	"ORS":        {Name: "ORS", Kind: VariableKind, AWK: true, Description: "Output record separator."},
	"FILENAME":   {Name: "FILENAME", Kind: VariableKind, AWK: true, Description: "Name of the current input file."},
	"FNR":        {Name: "FNR", Kind: VariableKind, AWK: true, Description: "Number of records read from the current input file."},
	"SUBSEP":     {Name: "SUBSEP", Kind: VariableKind, AWK: true, Description: "Subscript separator for multi-dimensional arrays."},
	"RSTART":     {Name: "RSTART", Kind: VariableKind, AWK: true, Description: "Start position of the last match() call."},
	"RLENGTH":    {Name: "RLENGTH", Kind: VariableKind, AWK: true, Description: "Length of the last match() call, or -1."},
	"ENVIRON":    {Name: "ENVIRON", Kind: VariableKind, AWK: true, Description: "Array of environment variables."},
	"ARGC":       {Name: "ARGC", Kind: VariableKind, AWK: true, Description: "Number of command-line arguments."},
	"ARGV":       {Name: "ARGV", Kind: VariableKind, AWK: true, Description: "Array of command-line arguments."},
	"IGNORECASE": {Name: "IGNORECASE", Kind: VariableKind, AWK: false, Description: "Gawk extension: case-insensitive matching when non-zero."},
	"PROCINFO":   {Name: "PROCINFO", Kind: VariableKind, AWK: false, Description: "Gawk extension: array of process/environment introspection values."},

	"length":  {Name: "length", Kind: FunctionKind, Parameters: []string{"s"}, FirstOptional: 0, AWK: true, Description: "Return the length of s, or of $0 if omitted."},
	"substr":  {Name: "substr", Kind: FunctionKind, Parameters: []string{"s", "m", "n"}, FirstOptional: 2, AWK: true, Description: "Return the at-most-n-character substring of s starting at position m."},
	"index":   {Name: "index", Kind: FunctionKind, Parameters: []string{"s", "t"}, FirstOptional: -1, AWK: true, Description: "Return the position at which string t first occurs in s, or 0."},
	"split":   {Name: "split", Kind: FunctionKind, Parameters: []string{"s", "a", "fs"}, FirstOptional: 2, AWK: true, Description: "Split s into array a using fs, returning the number of elements."},
	"sub":     {Name: "sub", Kind: FunctionKind, Parameters: []string{"regex", "repl", "target"}, FirstOptional: 2, AWK: true, Description: "Substitute the first match of regex in target with repl."},
	"gsub":    {Name: "gsub", Kind: FunctionKind, Parameters: []string{"regex", "repl", "target"}, FirstOptional: 2, AWK: true, Description: "Substitute every match of regex in target with repl."},
	"match":   {Name: "match", Kind: FunctionKind, Parameters: []string{"s", "regex"}, FirstOptional: -1, AWK: true, Description: "Return the position of regex in s, setting RSTART and RLENGTH."},
	"sprintf": {Name: "sprintf", Kind: FunctionKind, Parameters: []string{"format", "args"}, FirstOptional: 1, AWK: true, Description: "Return a formatted string, as printf would produce."},
	"sin":     {Name: "sin", Kind: FunctionKind, Parameters: []string{"x"}, FirstOptional: -1, AWK: true, Description: "Return the sine of x, in radians."},
	"cos":     {Name: "cos", Kind: FunctionKind, Parameters: []string{"x"}, FirstOptional: -1, AWK: true, Description: "Return the cosine of x, in radians."},
	"atan2":   {Name: "atan2", Kind: FunctionKind, Parameters: []string{"y", "x"}, FirstOptional: -1, AWK: true, Description: "Return the arctangent of y/x, in radians."},
	"exp":     {Name: "exp", Kind: FunctionKind, Parameters: []string{"x"}, FirstOptional: -1, AWK: true, Description: "Return e to the power x."},
	"log":     {Name: "log", Kind: FunctionKind, Parameters: []string{"x"}, FirstOptional: -1, AWK: true, Description: "Return the natural logarithm of x."},
	"sqrt":    {Name: "sqrt", Kind: FunctionKind, Parameters: []string{"x"}, FirstOptional: -1, AWK: true, Description: "Return the square root of x."},
	"int":     {Name: "int", Kind: FunctionKind, Parameters: []string{"x"}, FirstOptional: -1, AWK: true, Description: "Truncate x toward zero."},
	"rand":    {Name: "rand", Kind: FunctionKind, FirstOptional: -1, AWK: true, Description: "Return a pseudo-random number n, 0 <= n < 1."},
	"srand":   {Name: "srand", Kind: FunctionKind, Parameters: []string{"seed"}, FirstOptional: 0, AWK: true, Description: "Seed the random number generator, returning the previous seed."},
	"tolower": {Name: "tolower", Kind: FunctionKind, Parameters: []string{"s"}, FirstOptional: -1, AWK: true, Description: "Return a copy of s with all letters lower-cased."},
	"toupper": {Name: "toupper", Kind: FunctionKind, Parameters: []string{"s"}, FirstOptional: -1, AWK: true, Description: "Return a copy of s with all letters upper-cased."},
	"close":   {Name: "close", Kind: FunctionKind, Parameters: []string{"filename"}, FirstOptional: -1, AWK: true, Description: "Close a file or pipe opened for I/O; return its exit status."},
	"system":  {Name: "system", Kind: FunctionKind, Parameters: []string{"command"}, FirstOptional: -1, AWK: true, Description: "Run command via the shell, returning its exit status."},
	"getline": {Name: "getline", Kind: FunctionKind, FirstOptional: -1, AWK: true, Description: "Read the next input record."},
	"printf":  {Name: "printf", Kind: FunctionKind, Parameters: []string{"format", "args"}, FirstOptional: 1, AWK: true, Description: "Print a formatted string, as sprintf would produce."},

	"gensub":     {Name: "gensub", Kind: FunctionKind, Parameters: []string{"regex", "repl", "how", "target"}, FirstOptional: 3, AWK: false, Description: "Gawk extension: like sub/gsub, returning the result instead of mutating in place."},
	"strftime":   {Name: "strftime", Kind: FunctionKind, Parameters: []string{"format", "timestamp"}, FirstOptional: 0, AWK: false, Description: "Gawk extension: format a Unix timestamp."},
	"systime":    {Name: "systime", Kind: FunctionKind, FirstOptional: -1, AWK: false, Description: "Gawk extension: return the current Unix timestamp."},
	"mktime":     {Name: "mktime", Kind: FunctionKind, Parameters: []string{"spec"}, FirstOptional: -1, AWK: false, Description: "Gawk extension: convert a date-time spec to a Unix timestamp."},
	"asort":      {Name: "asort", Kind: FunctionKind, Parameters: []string{"source", "dest"}, FirstOptional: 1, AWK: false, Description: "Gawk extension: sort source's values into dest, by index."},
	"typeof":     {Name: "typeof", Kind: FunctionKind, Parameters: []string{"x"}, FirstOptional: -1, AWK: false, Description: "Gawk extension: return a string describing x's type."},
	"and":        {Name: "and", Kind: FunctionKind, Parameters: []string{"a", "b"}, FirstOptional: -1, AWK: false, Description: "Gawk extension: bitwise AND of a and b."},
	"or":         {Name: "or", Kind: FunctionKind, Parameters: []string{"a", "b"}, FirstOptional: -1, AWK: false, Description: "Gawk extension: bitwise OR of a and b."},
	"xor":        {Name: "xor", Kind: FunctionKind, Parameters: []string{"a", "b"}, FirstOptional: -1, AWK: false, Description: "Gawk extension: bitwise XOR of a and b."},
	"lshift":     {Name: "lshift", Kind: FunctionKind, Parameters: []string{"a", "count"}, FirstOptional: -1, AWK: false, Description: "Gawk extension: shift a left by count bits."},
	"rshift":     {Name: "rshift", Kind: FunctionKind, Parameters: []string{"a", "count"}, FirstOptional: -1, AWK: false, Description: "Gawk extension: shift a right by count bits."},
}

// Lookup returns the built-in entry for name, if any, filtered by mode:
// gawk mode sees every entry, strict mode only entries with AWK == true.
func Lookup(name string, gawkMode bool) (Entry, bool) {
	e, ok := table[name]
	if !ok {
		return Entry{}, false
	}
	if !gawkMode && !e.AWK {
		return Entry{}, false
	}
	return e, true
}

// All returns every entry visible under the given mode, for completion.
func All(gawkMode bool) []Entry {
	out := make([]Entry, 0, len(table))
	for _, e := range table {
		if gawkMode || e.AWK {
			out = append(out, e)
		}
	}
	return out
}
