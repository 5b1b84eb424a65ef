// Package scanner classifies raw source lines into the small set of shapes
// the parser consumes. Classification is context-passing: the parser tells
// the scanner what the grammar can accept next (a pending description, the
// indent of the step a fault list could attach to) and the scanner decides
// from the line's own shape plus that context. No global state survives
// between lines.
package scanner

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind is the shape of one classified line.
type Kind int

const (
	// KindBlank is an empty or whitespace-only line.
	KindBlank Kind = iota
	// KindComment is a full-line // comment.
	KindComment
	// KindFaultList is a failure-mode line under a step: lowercase words,
	// digits, hyphens and spaces, indented past the step.
	KindFaultList
	// KindDescription is a prose description line under a [TYP] or [DTO]
	// header, at exactly four spaces.
	KindDescription
	// KindStructural is everything the parser reads as grammar: bracket
	// tags, signatures, property lists.
	KindStructural
)

// String returns the classifier's name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindFaultList:
		return "fault list"
	case KindDescription:
		return "description"
	case KindStructural:
		return "structural"
	default:
		return "unknown"
	}
}

// Expect names what the grammar can accept at four-space indent on the
// next line. Only [TYP] and [DTO] headers open a description position.
type Expect int

const (
	ExpectNone Expect = iota
	ExpectTypeDescription
	ExpectContractDescription
)

// Context is the grammar state the parser passes into classification.
// StepIndent is the indentation of the most recent step line, or zero
// when no step can take a fault list.
type Context struct {
	Expect     Expect
	StepIndent int
}

// Line is one classified source line. Text has the indent stripped and
// trailing whitespace trimmed; Raw is the line as read.
type Line struct {
	Number int
	Indent int
	Text   string
	Raw    string
	Kind   Kind
}

// Classify decides the shape of one raw line under ctx. It fails only on
// lines no shape can claim; the parser reports the error and resynchronizes.
func Classify(raw string, number int, ctx Context) (Line, error) {
	line := Line{Number: number, Raw: raw}

	trimmed := strings.TrimRight(raw, " \t")
	if trimmed == "" {
		line.Kind = KindBlank
		return line, nil
	}

	indent := 0
	for indent < len(trimmed) && trimmed[indent] == ' ' {
		indent++
	}
	if indent < len(trimmed) && trimmed[indent] == '\t' {
		return line, fmt.Errorf("line %d: tab in indentation; indent with spaces", number+1)
	}
	line.Indent = indent
	line.Text = trimmed[indent:]

	switch {
	case strings.HasPrefix(line.Text, "//"):
		line.Kind = KindComment
	case isFaultList(line, ctx):
		line.Kind = KindFaultList
	case isDescription(line, ctx):
		line.Kind = KindDescription
	case isStructural(line.Text):
		line.Kind = KindStructural
	default:
		return line, fmt.Errorf("line %d: unrecognized line shape %q", number+1, line.Text)
	}
	return line, nil
}

// isFaultList reports whether the line is a failure-mode list entry: it
// must sit deeper than the step it attaches to and have the fault shape.
func isFaultList(line Line, ctx Context) bool {
	if ctx.StepIndent == 0 || line.Indent < ctx.StepIndent+2 {
		return false
	}
	return FaultShape(line.Text)
}

// FaultShape reports whether text has the failure-mode shape: only
// lowercase letters, digits, hyphens and spaces, with at least one letter.
// The parser also uses this to tell a fault list with no step to attach to
// apart from plain garbage.
func FaultShape(text string) bool {
	hasLetter := false
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			hasLetter = true
		case r >= '0' && r <= '9', r == '-', r == ' ':
		default:
			return false
		}
	}
	return hasLetter
}

// isDescription reports whether the line is the prose description of a
// pending [TYP] or [DTO] header: exactly four spaces in, starting with a
// lowercase letter, and not shaped like code.
func isDescription(line Line, ctx Context) bool {
	if ctx.Expect == ExpectNone || line.Indent != 4 {
		return false
	}
	first := []rune(line.Text)[0]
	if !unicode.IsLower(first) {
		return false
	}
	return !looksLikeCode(line.Text)
}

// looksLikeCode rejects description candidates whose shape belongs to the
// grammar: a two-letter boundary prefix, a return call, or a dotted call
// whose paren opens before any colon.
func looksLikeCode(text string) bool {
	if len(text) >= 3 && text[2] == ':' {
		return true
	}
	if strings.HasPrefix(text, "return(") {
		return true
	}
	dot := strings.IndexByte(text, '.')
	if dot < 0 {
		return false
	}
	paren := strings.IndexByte(text, '(')
	colon := strings.IndexByte(text, ':')
	return paren > dot && (colon < 0 || paren < colon)
}

// isStructural reports whether the line opens with a bracket tag or has a
// call-signature shape the parser can attempt.
func isStructural(text string) bool {
	if strings.HasPrefix(text, "[") {
		return true
	}
	// Continuation or one-line signatures: anything with call punctuation.
	return strings.ContainsAny(text, "():,")
}
