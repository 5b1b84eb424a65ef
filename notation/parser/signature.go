package parser

import (
	"fmt"
	"strings"

	"github.com/theTechGoose/rune/notation"
)

// signature is the decomposed form of subject SEP verb(params): return.
type signature struct {
	Noun   string
	Verb   string
	Static bool
	Params []notation.Param
	Return *notation.TypeExpr
}

// parseSignature decomposes a step signature. text must already have any
// boundary prefix and tag stripped.
func parseSignature(text string, span notation.Span) (*signature, error) {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open < 0 {
		return nil, fmt.Errorf("malformed signature %q: missing parameter list", text)
	}
	closeIdx := matchingParen(text, open)
	if closeIdx < 0 {
		return nil, fmt.Errorf("malformed signature %q: unbalanced parentheses", text)
	}

	noun, verb, static, err := splitSubject(text[:open])
	if err != nil {
		return nil, err
	}

	sig := &signature{Noun: noun, Verb: verb, Static: static}
	for _, part := range notation.SplitTop(text[open+1:closeIdx], ',') {
		sig.Params = append(sig.Params, parseParam(part, span))
	}

	rest := strings.TrimSpace(text[closeIdx+1:])
	if rest != "" {
		if !strings.HasPrefix(rest, ":") {
			return nil, fmt.Errorf("malformed signature %q: expected ':' after parameter list", text)
		}
		sig.Return = notation.ParseTypeExpr(rest[1:], span)
	}
	return sig, nil
}

// splitSubject separates noun and verb around the instance (.) or static
// (::) operator.
func splitSubject(head string) (noun, verb string, static bool, err error) {
	head = strings.TrimSpace(head)
	if pos := strings.Index(head, "::"); pos >= 0 {
		noun, verb, static = strings.TrimSpace(head[:pos]), strings.TrimSpace(head[pos+2:]), true
	} else if pos := strings.IndexByte(head, '.'); pos >= 0 {
		noun, verb = strings.TrimSpace(head[:pos]), strings.TrimSpace(head[pos+1:])
	} else {
		return "", "", false, fmt.Errorf("malformed signature %q: missing '.' or '::'", head)
	}
	if noun == "" || verb == "" {
		return "", "", false, fmt.Errorf("malformed signature %q: empty subject or verb", head)
	}
	return noun, verb, static, nil
}

// parseParam reads one parameter entry: an inline {a, b} contract literal,
// a name: type pair, or a bare reference.
func parseParam(text string, span notation.Span) notation.Param {
	text = strings.TrimSpace(text)
	param := notation.Param{Span: span}

	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		param.Inline = notation.SplitTop(text[1:len(text)-1], ',')
		return param
	}
	if colon := strings.IndexByte(text, ':'); colon >= 0 {
		param.Name = strings.TrimSpace(text[:colon])
		param.Type = notation.ParseTypeExpr(text[colon+1:], span)
		return param
	}
	param.Name = text
	return param
}

// parseReqSignature decomposes a requirement header. The input clause is a
// single contract name or an inline {a, b} literal; the output is a type
// expression.
func parseReqSignature(text string, span notation.Span) (*notation.Requirement, error) {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open < 0 {
		return nil, fmt.Errorf("malformed requirement %q: missing input clause", text)
	}
	closeIdx := matchingParen(text, open)
	if closeIdx < 0 {
		return nil, fmt.Errorf("malformed requirement %q: unbalanced parentheses", text)
	}
	rest := strings.TrimSpace(text[closeIdx+1:])
	if !strings.HasPrefix(rest, ":") || strings.TrimSpace(rest[1:]) == "" {
		return nil, fmt.Errorf("malformed requirement %q: missing output type", text)
	}

	noun, verb, _, err := splitSubject(text[:open])
	if err != nil {
		return nil, fmt.Errorf("malformed requirement %q: %v", text, err)
	}

	req := &notation.Requirement{
		Noun:   noun,
		Verb:   verb,
		Output: notation.ParseTypeExpr(rest[1:], span),
		Span:   span,
	}

	inner := strings.TrimSpace(text[open+1 : closeIdx])
	if inner != "" {
		input := &notation.InputRef{Span: span}
		if strings.HasPrefix(inner, "{") && strings.HasSuffix(inner, "}") {
			input.Inline = notation.SplitTop(inner[1:len(inner)-1], ',')
		} else {
			input.Name = inner
		}
		req.Input = input
	}
	return req, nil
}

// matchingParen returns the index of the parenthesis closing the one at
// open, honoring nesting and double quotes, or -1 if unbalanced.
func matchingParen(s string, open int) int {
	depth := 0
	inQuote := false
	for i := open; i < len(s); i++ {
		switch {
		case s[i] == '"':
			inQuote = !inQuote
		case inQuote:
		case s[i] == '(':
			depth++
		case s[i] == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
