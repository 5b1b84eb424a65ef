// Package analysis runs the full document pipeline: parse, symbol
// registration, scope and flow checking, type and consistency checking.
// Analysis is pure and synchronous; a Result is an immutable snapshot the
// caller can query or discard, so concurrent analysis of different
// versions needs no coordination here.
package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/theTechGoose/rune/notation"
	"github.com/theTechGoose/rune/notation/parser"
)

// Options tune the advisory checks.
type Options struct {
	// ColumnLimit is the soft line-length limit; zero disables it.
	ColumnLimit int
}

// DefaultOptions is the conventional configuration.
func DefaultOptions() Options {
	return Options{ColumnLimit: 80}
}

// Result is one complete analysis of one document version.
type Result struct {
	Document    *notation.Document
	Symbols     *SymbolTable
	Diagnostics []notation.Diagnostic

	lines []string
}

// Analyze runs the pipeline with default options.
func Analyze(text string) *Result {
	return AnalyzeWith(text, DefaultOptions())
}

// AnalyzeWith runs the pipeline. Diagnostics come back sorted by position,
// severity and message, so equal input yields byte-identical output.
func AnalyzeWith(text string, opts Options) *Result {
	doc, diags := parser.Parse(text)

	table, symDiags := BuildSymbols(doc)
	diags = append(diags, symDiags...)
	diags = append(diags, checkFlow(doc, table)...)
	diags = append(diags, checkTypes(doc, table)...)

	lines := strings.Split(text, "\n")
	if opts.ColumnLimit > 0 {
		for i, line := range lines {
			if n := utf8.RuneCountInString(strings.TrimRight(line, "\r")); n > opts.ColumnLimit {
				diags = append(diags, notation.Warnf(
					notation.LineSpan(i, opts.ColumnLimit, n),
					"line exceeds %d columns (%d)", opts.ColumnLimit, n))
			}
		}
	}

	notation.SortDiagnostics(diags)
	return &Result{
		Document:    doc,
		Symbols:     table,
		Diagnostics: diags,
		lines:       lines,
	}
}

// HasErrors reports whether any diagnostic is error-severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == notation.SeverityError {
			return true
		}
	}
	return false
}

// DescribeAt returns the stored description of the definition enclosing
// pos, if the position falls inside a described [TYP] or [DTO] block.
func (r *Result) DescribeAt(pos notation.Position) (string, bool) {
	for _, sym := range r.Symbols.Symbols() {
		block := sym.Span
		switch sym.Kind {
		case SymbolType:
			block = sym.Type.BlockSpan
		case SymbolContract:
			block = sym.Contract.BlockSpan
		}
		if block.Contains(pos) && sym.Description() != "" {
			return sym.Description(), true
		}
	}
	return "", false
}

// ResolveDefinition maps a reference occurrence at pos to the defining
// span of the named symbol.
func (r *Result) ResolveDefinition(pos notation.Position) (notation.Span, bool) {
	word := r.wordAt(pos)
	if word == "" {
		return notation.Span{}, false
	}
	sym := r.Symbols.Lookup(word)
	if sym == nil {
		return notation.Span{}, false
	}
	return sym.Span, true
}

// FindReferences returns every recorded use site of the named symbol.
func (r *Result) FindReferences(name string) []notation.Span {
	sym := r.Symbols.Lookup(name)
	if sym == nil {
		return nil
	}
	uses := make([]notation.Span, len(sym.Uses))
	copy(uses, sym.Uses)
	return uses
}

// ScopeAt replays the enclosing requirement's steps up to pos and returns
// the live bindings there, sorted by name. Positions outside any
// requirement have no scope.
func (r *Result) ScopeAt(pos notation.Position) []Binding {
	for _, req := range r.Document.Requirements {
		if pos.Line < req.Span.Start.Line || pos.Line > req.Span.End.Line {
			continue
		}
		c := &flowChecker{table: r.Symbols, mute: true}
		return c.requirement(req, &pos).sorted()
	}
	return nil
}

// wordAt extracts the identifier under pos.
func (r *Result) wordAt(pos notation.Position) string {
	if pos.Line < 0 || pos.Line >= len(r.lines) {
		return ""
	}
	line := r.lines[pos.Line]
	if pos.Column < 0 || pos.Column > len(line) {
		return ""
	}

	isWord := func(c byte) bool {
		return c == '_' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}
	start, end := pos.Column, pos.Column
	for start > 0 && isWord(line[start-1]) {
		start--
	}
	for end < len(line) && isWord(line[end]) {
		end++
	}
	return line[start:end]
}
