// Package parser builds the document tree from classified lines in one
// forward pass. It is fail-soft: structural errors are collected as
// diagnostics and parsing continues at the next line classifiable at or
// below the enclosing indentation. Block nesting is tracked with an
// explicit indentation stack; a polymorphic step closes implicitly when a
// line at or below its own indentation appears.
package parser

import (
	"strings"

	"github.com/theTechGoose/rune/notation"
	"github.com/theTechGoose/rune/notation/scanner"
)

// Indentation levels of the grammar: block headers at column zero,
// requirement steps four spaces in, case bodies eight.
const (
	stepIndent = 4
	caseIndent = 8
)

// Parse analyzes text into a document tree plus the structural diagnostics
// found along the way. The returned document is always non-nil; with a
// clean parse the diagnostic slice is empty.
func Parse(text string) (*notation.Document, []notation.Diagnostic) {
	p := &parser{
		raw:   strings.Split(text, "\n"),
		doc:   &notation.Document{},
		stack: []int{0},
	}
	p.run()
	return p.doc, p.diags
}

type parser struct {
	raw   []string
	doc   *notation.Document
	diags []notation.Diagnostic

	// stack holds the child indentation of each open container:
	// document (0), requirement body (4), case body (8).
	stack []int

	req        *notation.Requirement
	poly       *notation.Step
	cse        *notation.Case
	lastStep   *notation.Step
	lastIndent int

	pendingTyp *notation.TypeDef
	pendingDto *notation.DtoDef

	blanks  int
	seenReq bool // a requirement block precedes the current line
}

func (p *parser) errorf(span notation.Span, format string, args ...any) {
	p.diags = append(p.diags, notation.Errorf(span, format, args...))
}

func (p *parser) warnf(span notation.Span, format string, args ...any) {
	p.diags = append(p.diags, notation.Warnf(span, format, args...))
}

func (p *parser) run() {
	for i := 0; i < len(p.raw); i++ {
		line, err := scanner.Classify(stripInline(p.raw[i]), i, p.context())
		if err != nil {
			i = p.classifyFailure(p.raw[i], i)
			continue
		}

		switch line.Kind {
		case scanner.KindBlank:
			p.flushPending()
			p.blanks++
		case scanner.KindComment:
			p.blanks = 0
		case scanner.KindDescription:
			p.attachDescription(line)
			p.blanks = 0
		case scanner.KindFaultList:
			p.attachFaults(line)
			p.blanks = 0
		case scanner.KindStructural:
			i = p.structural(line, i)
			p.blanks = 0
		}
	}
	p.flushPending()
}

// context tells the classifier what the grammar can accept next.
func (p *parser) context() scanner.Context {
	ctx := scanner.Context{}
	switch {
	case p.pendingTyp != nil:
		ctx.Expect = scanner.ExpectTypeDescription
	case p.pendingDto != nil:
		ctx.Expect = scanner.ExpectContractDescription
	}
	if p.lastStep != nil {
		ctx.StepIndent = p.lastIndent
	}
	return ctx
}

// classifyFailure reports an uninterpretable line and discards the subtree
// nested under it, returning the index of the last consumed line.
func (p *parser) classifyFailure(raw string, i int) int {
	trimmed := strings.TrimRight(raw, " \t")
	indent := len(trimmed) - len(strings.TrimLeft(trimmed, " "))
	text := strings.TrimLeft(trimmed, " ")
	span := notation.LineSpan(i, indent, indent+len(text))

	if indent >= stepIndent+2 && scanner.FaultShape(text) {
		p.errorf(span, "fault list with no preceding step")
	} else if strings.ContainsRune(trimmed, '\t') {
		p.errorf(span, "tab in indentation; indent with spaces")
	} else {
		p.errorf(span, "unrecognized line shape %q", text)
	}
	p.flushPending()
	return p.resync(i, indent)
}

// resync skips lines nested deeper than indent, returning the index of the
// last skipped line.
func (p *parser) resync(i, indent int) int {
	for i+1 < len(p.raw) {
		next := p.raw[i+1]
		trimmed := strings.TrimRight(next, " \t")
		if trimmed == "" {
			break
		}
		nextIndent := len(trimmed) - len(strings.TrimLeft(trimmed, " \t"))
		if nextIndent <= indent {
			break
		}
		i++
	}
	return i
}

// pop closes containers until the stack's child indentation is at or below
// the given line indentation.
func (p *parser) pop(indent int) {
	for len(p.stack) > 1 && indent < p.stack[len(p.stack)-1] {
		switch p.stack[len(p.stack)-1] {
		case caseIndent:
			p.poly = nil
			p.cse = nil
		case stepIndent:
			p.req = nil
			p.lastStep = nil
		}
		p.stack = p.stack[:len(p.stack)-1]
	}
}

func (p *parser) top() int { return p.stack[len(p.stack)-1] }

// flushPending closes an open [TYP]/[DTO] description position. A contract
// without its required description is an error; a type alias without one is
// fine.
func (p *parser) flushPending() {
	if p.pendingDto != nil && p.pendingDto.Description == "" {
		p.errorf(p.pendingDto.Span, "contract %q is missing its description line", p.pendingDto.Name)
	}
	p.pendingTyp = nil
	p.pendingDto = nil
}

func (p *parser) attachDescription(line scanner.Line) {
	end := notation.Position{Line: line.Number, Column: line.Indent + len(line.Text)}
	switch {
	case p.pendingTyp != nil:
		p.pendingTyp.Description = joinProse(p.pendingTyp.Description, line.Text)
		p.pendingTyp.BlockSpan.End = end
	case p.pendingDto != nil:
		p.pendingDto.Description = joinProse(p.pendingDto.Description, line.Text)
		p.pendingDto.BlockSpan.End = end
	}
}

func joinProse(existing, text string) string {
	if existing == "" {
		return text
	}
	return existing + " " + text
}

// attachFaults adds the line's space-separated fault names to the step the
// classifier matched them against. A name repeated within one step's fault
// set is an error citing the first occurrence.
func (p *parser) attachFaults(line scanner.Line) {
	offset := 0
	for _, name := range strings.Fields(line.Text) {
		start := line.Indent + offset + strings.Index(line.Text[offset:], name)
		offset = start - line.Indent + len(name)
		span := notation.LineSpan(line.Number, start, start+len(name))

		if prev := findFault(p.lastStep.Faults, name); prev != nil {
			p.diags = append(p.diags,
				notation.Errorf(span, "duplicate fault %q on step", name).WithRelated(prev.Span))
			continue
		}
		p.lastStep.Faults = append(p.lastStep.Faults, notation.Fault{Name: name, Span: span})
	}
}

func findFault(faults []notation.Fault, name string) *notation.Fault {
	for i := range faults {
		if faults[i].Name == name {
			return &faults[i]
		}
	}
	return nil
}

// structural dispatches one grammar line, returning the index of the last
// consumed line (signatures may span several).
func (p *parser) structural(line scanner.Line, i int) int {
	p.pop(line.Indent)
	p.flushPending()

	text := line.Text
	switch {
	case strings.HasPrefix(text, "[REQ]"):
		return p.reqHeader(line, i)
	case strings.HasPrefix(text, "[DTO]"):
		p.dtoHeader(line)
		return i
	case strings.HasPrefix(text, "[TYP]"):
		p.typHeader(line)
		return i
	case strings.HasPrefix(text, "[PLY]"):
		return p.polyStep(line, i)
	case strings.HasPrefix(text, "[CSE]"):
		p.caseOpener(line)
		return i
	case strings.HasPrefix(text, "[RET]"):
		p.tagStep(line, notation.StepReturn, "[RET] missing value")
		return i
	case strings.HasPrefix(text, "[CTR]"):
		p.tagStep(line, notation.StepConstructor, "[CTR] missing class name")
		return i
	default:
		return p.callStep(line, i)
	}
}

func lineSpanOf(line scanner.Line) notation.Span {
	return notation.LineSpan(line.Number, line.Indent, line.Indent+len(line.Text))
}

func (p *parser) reqHeader(line scanner.Line, i int) int {
	span := lineSpanOf(line)
	if line.Indent != 0 {
		p.errorf(span, "[REQ] must start at column 0, found at column %d", line.Indent)
		return p.resync(i, line.Indent)
	}
	if p.seenReq && p.blanks < 2 {
		p.warnf(span, "expected double blank line between requirements")
	}

	text, last := p.joinSignature(line.Text, i, line.Indent)
	span.End = notation.Position{Line: last, Column: len(strings.TrimRight(p.raw[last], " \t"))}

	req, err := parseReqSignature(strings.TrimPrefix(text, "[REQ]"), span)
	if err != nil {
		p.errorf(span, "%v", err)
		return p.resync(last, line.Indent)
	}
	req.HeaderSpan = span
	req.Span = span
	p.doc.Requirements = append(p.doc.Requirements, req)
	p.req = req
	p.lastStep = nil
	p.seenReq = true
	p.stack = append(p.stack, stepIndent)
	return last
}

func (p *parser) dtoHeader(line scanner.Line) {
	span := lineSpanOf(line)
	if line.Indent != 0 {
		p.errorf(span, "[DTO] must start at column 0, found at column %d", line.Indent)
		return
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line.Text, "[DTO]"))
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		p.errorf(span, "[DTO] missing property list")
		return
	}
	def := &notation.DtoDef{
		Name:      strings.TrimSpace(rest[:colon]),
		Span:      span,
		BlockSpan: span,
	}
	for _, prop := range notation.SplitTop(rest[colon+1:], ',') {
		def.Properties = append(def.Properties, parseProperty(prop, span))
	}
	p.doc.Contracts = append(p.doc.Contracts, def)
	p.pendingDto = def
	p.seenReq = false
}

func (p *parser) typHeader(line scanner.Line) {
	span := lineSpanOf(line)
	if line.Indent != 0 {
		p.errorf(span, "[TYP] must start at column 0, found at column %d", line.Indent)
		return
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line.Text, "[TYP]"))
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		p.errorf(span, "[TYP] missing type expression")
		return
	}
	underlying := strings.TrimSpace(rest[colon+1:])
	def := &notation.TypeDef{
		Name:           strings.TrimSpace(rest[:colon]),
		Underlying:     notation.ParseTypeExpr(underlying, span),
		UnderlyingText: underlying,
		Span:           span,
		BlockSpan:      span,
	}
	p.doc.Types = append(p.doc.Types, def)
	p.pendingTyp = def
	p.seenReq = false
}

func (p *parser) polyStep(line scanner.Line, i int) int {
	span := lineSpanOf(line)
	if p.req == nil || line.Indent != stepIndent || p.top() != stepIndent {
		p.errorf(span, "[PLY] only valid as a requirement step at column %d", stepIndent)
		return p.resync(i, line.Indent)
	}

	text, last := p.joinSignature(line.Text, i, line.Indent)
	span.End = notation.Position{Line: last, Column: len(strings.TrimRight(p.raw[last], " \t"))}

	sig, err := parseSignature(strings.TrimPrefix(text, "[PLY]"), span)
	if err != nil {
		p.errorf(span, "%v", err)
		return p.resync(last, line.Indent)
	}
	step := &notation.Step{
		Kind:   notation.StepPoly,
		Noun:   sig.Noun,
		Verb:   sig.Verb,
		Static: sig.Static,
		Params: sig.Params,
		Return: sig.Return,
		Span:   span,
	}
	p.appendStep(step, stepIndent)
	p.poly = step
	p.cse = nil
	p.stack = append(p.stack, caseIndent)
	return last
}

func (p *parser) caseOpener(line scanner.Line) {
	span := lineSpanOf(line)
	if p.poly == nil || line.Indent != caseIndent {
		p.errorf(span, "[CSE] outside an open polymorphic step")
		return
	}
	name := strings.TrimSpace(strings.TrimPrefix(line.Text, "[CSE]"))
	if name == "" {
		p.errorf(span, "[CSE] missing case name")
		return
	}
	p.cse = &notation.Case{Name: name, Span: span}
	p.poly.Cases = append(p.poly.Cases, p.cse)
	p.lastStep = nil
}

// tagStep handles the one-line [RET] and [CTR] step forms.
func (p *parser) tagStep(line scanner.Line, kind notation.StepKind, missing string) {
	span := lineSpanOf(line)
	value := strings.TrimSpace(line.Text[5:])
	if value == "" {
		p.errorf(span, "%s", missing)
		return
	}
	p.appendStep(&notation.Step{Kind: kind, Value: value, Span: span}, line.Indent)
}

func (p *parser) callStep(line scanner.Line, i int) int {
	span := lineSpanOf(line)

	text, last := p.joinSignature(line.Text, i, line.Indent)
	if last != i {
		span.End = notation.Position{Line: last, Column: len(strings.TrimRight(p.raw[last], " \t"))}
	}

	kind := notation.StepCall
	boundary := ""
	if len(text) >= 3 && text[2] == ':' && isLowerAlpha(text[0]) && isLowerAlpha(text[1]) {
		kind = notation.StepBoundary
		boundary = text[:2]
		text = text[3:]
	}

	sig, err := parseSignature(text, span)
	if err != nil {
		p.errorf(span, "%v", err)
		return p.resync(last, line.Indent)
	}
	step := &notation.Step{
		Kind:     kind,
		Noun:     sig.Noun,
		Verb:     sig.Verb,
		Static:   sig.Static,
		Boundary: boundary,
		Params:   sig.Params,
		Return:   sig.Return,
		Span:     span,
	}
	p.appendStep(step, line.Indent)
	return last
}

// appendStep places a parsed step in the container its indentation names.
func (p *parser) appendStep(step *notation.Step, indent int) {
	switch {
	case indent == stepIndent && p.req != nil && p.top() == stepIndent:
		p.req.Steps = append(p.req.Steps, step)
		p.req.Span.End = step.Span.End
	case indent == caseIndent && p.top() == caseIndent:
		if p.cse == nil {
			p.errorf(step.Span, "step before any [CSE] case in polymorphic block")
			return
		}
		p.cse.Steps = append(p.cse.Steps, step)
	case p.req == nil:
		p.errorf(step.Span, "step outside a requirement block")
		return
	default:
		p.errorf(step.Span, "step at unsupported indentation %d; expected %d", indent, p.top())
		return
	}
	p.lastStep = step
	p.lastIndent = indent
}

// joinSignature collects the continuation lines of a signature whose
// parameter list spans multiple physical lines, returning the joined text
// and the index of the last line consumed. Only an unclosed parenthesis
// opens a continuation; a balanced line stands alone and any shape error
// in it belongs to that line. Continuations must keep the opening line's
// indentation.
func (p *parser) joinSignature(text string, i, indent int) (string, int) {
	depth := strings.Count(text, "(") - strings.Count(text, ")")
	if depth <= 0 {
		return text, i
	}
	joined := text
	for i+1 < len(p.raw) {
		i++
		raw := stripInline(p.raw[i])
		trimmed := strings.TrimRight(raw, " \t")
		if trimmed == "" {
			p.errorf(notation.LineSpan(i, 0, 0), "unterminated signature: blank line inside parameter list")
			return joined, i
		}
		contIndent := len(trimmed) - len(strings.TrimLeft(trimmed, " "))
		if contIndent != indent {
			p.errorf(notation.LineSpan(i, 0, contIndent),
				"inconsistent indentation: expected %d spaces, got %d", indent, contIndent)
		}
		part := strings.TrimSpace(trimmed)
		joined += " " + part
		depth += strings.Count(part, "(") - strings.Count(part, ")")
		if depth <= 0 && strings.Contains(part, "):") {
			return joined, i
		}
	}
	return joined, i
}

// parseProperty reads one contract property: a name with optional plural
// array marker (s) and optional ? suffix.
func parseProperty(text string, span notation.Span) notation.Property {
	prop := notation.Property{Text: text, Span: span}
	ref := text
	if strings.HasSuffix(ref, "?") {
		prop.Optional = true
		ref = strings.TrimSuffix(ref, "?")
	}
	if strings.HasSuffix(ref, "(s)") {
		prop.Array = true
		ref = strings.TrimSuffix(ref, "(s)")
	}
	prop.Ref = strings.TrimSpace(ref)
	return prop
}

// stripInline removes a trailing // comment, leaving full-line comments
// for the classifier.
func stripInline(raw string) string {
	trimmed := strings.TrimLeft(raw, " ")
	if strings.HasPrefix(trimmed, "//") {
		return raw
	}
	if pos := strings.Index(raw, "//"); pos >= 0 {
		return strings.TrimRight(raw[:pos], " ")
	}
	return raw
}

func isLowerAlpha(c byte) bool { return c >= 'a' && c <= 'z' }
