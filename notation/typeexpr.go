package notation

import "strings"

// ContractSuffix is the reserved name suffix marking a data contract.
const ContractSuffix = "Dto"

// HasContractSuffix reports whether name is shaped like a data contract
// reference.
func HasContractSuffix(name string) bool {
	return strings.HasSuffix(name, ContractSuffix) && name != ContractSuffix
}

// TypeKind discriminates the forms a type expression can take.
type TypeKind int

const (
	// TypeName is a bare reference: a primitive, a [TYP] name, or a
	// contract name.
	TypeName TypeKind = iota
	// TypeGeneric is a parametric built-in such as Array<url>.
	TypeGeneric
	// TypeTuple is a fixed sequence of named types: [id, name].
	TypeTuple
	// TypeEnum is a closed string-literal enumeration: "a" | "b".
	TypeEnum
	// TypeUnion joins alternative type expressions with |.
	TypeUnion
	// TypeArray is the postfix array form: UrlDto[].
	TypeArray
)

// TypeExpr is a parsed type expression.
type TypeExpr struct {
	Kind     TypeKind
	Name     string      // TypeName value, or the generic base
	Args     []*TypeExpr // generic arguments, union members, tuple elements
	Elem     *TypeExpr   // array element
	Literals []string    // enumeration members, without quotes
	Span     Span
}

// primitives are the fixed built-in type names. Uint8Array is the opaque
// binary form, Class marks constructible types, Primitive is the union
// alias over the scalar primitives.
var primitives = map[string]bool{
	"string":     true,
	"number":     true,
	"boolean":    true,
	"void":       true,
	"Uint8Array": true,
	"Class":      true,
	"Primitive":  true,
}

// IsPrimitive reports whether name is a fixed built-in primitive.
func IsPrimitive(name string) bool { return primitives[name] }

// genericArity maps parametric built-in bases to their argument count.
var genericArity = map[string]int{
	"Array":      1,
	"Set":        1,
	"Promise":    1,
	"Partial":    1,
	"Required":   1,
	"ReturnType": 1,
	"Record":     2,
	"Map":        2,
	"Pick":       2,
	"Omit":       2,
}

// GenericArity returns the expected argument count for a parametric
// built-in base, and whether the base is known.
func GenericArity(base string) (int, bool) {
	n, ok := genericArity[base]
	return n, ok
}

// ParseTypeExpr parses a type expression. It never fails: malformed input
// degrades to a TypeName carrying the raw text, leaving resolution errors
// to the checker. Empty input yields nil.
func ParseTypeExpr(text string, span Span) *TypeExpr {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if parts := SplitTop(text, '|'); len(parts) > 1 {
		return parseUnion(parts, span)
	}

	if strings.HasSuffix(text, "[]") {
		elem := ParseTypeExpr(strings.TrimSuffix(text, "[]"), span)
		return &TypeExpr{Kind: TypeArray, Elem: elem, Span: span}
	}

	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		inner := text[1 : len(text)-1]
		expr := &TypeExpr{Kind: TypeTuple, Span: span}
		for _, part := range SplitTop(inner, ',') {
			if arg := ParseTypeExpr(part, span); arg != nil {
				expr.Args = append(expr.Args, arg)
			}
		}
		return expr
	}

	if open := strings.IndexByte(text, '<'); open > 0 && strings.HasSuffix(text, ">") {
		expr := &TypeExpr{
			Kind: TypeGeneric,
			Name: strings.TrimSpace(text[:open]),
			Span: span,
		}
		inner := text[open+1 : len(text)-1]
		for _, part := range SplitTop(inner, ',') {
			if arg := ParseTypeExpr(part, span); arg != nil {
				expr.Args = append(expr.Args, arg)
			}
		}
		return expr
	}

	if lit, ok := stringLiteral(text); ok {
		return &TypeExpr{Kind: TypeEnum, Literals: []string{lit}, Span: span}
	}

	return &TypeExpr{Kind: TypeName, Name: text, Span: span}
}

// parseUnion builds either a closed enumeration (all members quoted) or a
// general union.
func parseUnion(parts []string, span Span) *TypeExpr {
	literals := make([]string, 0, len(parts))
	allLiterals := true
	for _, part := range parts {
		if lit, ok := stringLiteral(strings.TrimSpace(part)); ok {
			literals = append(literals, lit)
		} else {
			allLiterals = false
			break
		}
	}
	if allLiterals {
		return &TypeExpr{Kind: TypeEnum, Literals: literals, Span: span}
	}

	expr := &TypeExpr{Kind: TypeUnion, Span: span}
	for _, part := range parts {
		if arg := ParseTypeExpr(part, span); arg != nil {
			expr.Args = append(expr.Args, arg)
		}
	}
	return expr
}

// stringLiteral unwraps a double-quoted literal.
func stringLiteral(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// String renders the canonical form used for structural comparison.
func (t *TypeExpr) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeName:
		return t.Name
	case TypeArray:
		return t.Elem.String() + "[]"
	case TypeGeneric:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		return t.Name + "<" + strings.Join(args, ", ") + ">"
	case TypeTuple:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		return "[" + strings.Join(args, ", ") + "]"
	case TypeEnum:
		quoted := make([]string, len(t.Literals))
		for i, l := range t.Literals {
			quoted[i] = `"` + l + `"`
		}
		return strings.Join(quoted, " | ")
	case TypeUnion:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		return strings.Join(args, " | ")
	default:
		return t.Name
	}
}

// IsVoid reports whether the expression is the bare void primitive.
func (t *TypeExpr) IsVoid() bool {
	return t != nil && t.Kind == TypeName && t.Name == "void"
}

// SplitTop splits s on sep occurrences at nesting depth zero, honoring
// <>, [], {}, () and double quotes. Empty segments are dropped.
func SplitTop(s string, sep byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '<' || c == '[' || c == '{' || c == '(':
			depth++
		case c == '>' || c == ']' || c == '}' || c == ')':
			depth--
		case c == sep && depth == 0:
			if part := strings.TrimSpace(s[start:i]); part != "" {
				parts = append(parts, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}
