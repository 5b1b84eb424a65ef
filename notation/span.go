package notation

import "fmt"

// Position is a zero-based line/column location in a document.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Before reports whether p precedes q in document order.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Span is a half-open source range [Start, End).
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// LineSpan returns a span covering columns [start, end) of a single line.
func LineSpan(line, start, end int) Span {
	return Span{
		Start: Position{Line: line, Column: start},
		End:   Position{Line: line, Column: end},
	}
}

// Contains reports whether p falls inside the span. The end position is
// treated as inclusive so that a cursor at the last character still hits.
func (s Span) Contains(p Position) bool {
	if p.Line < s.Start.Line || p.Line > s.End.Line {
		return false
	}
	if p.Line == s.Start.Line && p.Column < s.Start.Column {
		return false
	}
	if p.Line == s.End.Line && p.Column > s.End.Column {
		return false
	}
	return true
}

// String renders the span as "line:col-line:col" with one-based lines for
// human-facing output.
func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d:%d",
		s.Start.Line+1, s.Start.Column, s.End.Line+1, s.End.Column)
}
