package analysis

import (
	"strings"

	"github.com/theTechGoose/rune/notation"
)

// firstSig pins the shape of a subject/verb pair at its first textual
// occurrence. Later occurrences are compared against it structurally.
type firstSig struct {
	params string
	ret    string
	span   notation.Span
}

// typeChecker resolves type expressions, enforces boundary constraints and
// signature consistency, and tracks symbol usage for the unused pass.
type typeChecker struct {
	table *SymbolTable
	diags []notation.Diagnostic
	sigs  map[string]firstSig
	reqs  map[string]notation.Span
}

func checkTypes(doc *notation.Document, table *SymbolTable) []notation.Diagnostic {
	c := &typeChecker{
		table: table,
		sigs:  map[string]firstSig{},
		reqs:  map[string]notation.Span{},
	}
	for _, def := range doc.Types {
		c.typeDef(def)
	}
	for _, def := range doc.Contracts {
		c.contractDef(def)
	}
	for _, req := range doc.Requirements {
		c.requirement(req)
	}
	c.unused()
	return c.diags
}

func (c *typeChecker) errorf(span notation.Span, format string, args ...any) {
	c.diags = append(c.diags, notation.Errorf(span, format, args...))
}

func (c *typeChecker) warnf(span notation.Span, format string, args ...any) {
	c.diags = append(c.diags, notation.Warnf(span, format, args...))
}

// typeDef checks that a [TYP] alias stays on primitive ground: its
// underlying expression may use primitives, known generics, tuples and
// string-literal enumerations, but never another definition.
func (c *typeChecker) typeDef(def *notation.TypeDef) {
	if def.Underlying == nil {
		c.errorf(def.Span, "type %q has an empty type expression", def.Name)
		return
	}
	c.primitiveExpr(def.Name, def.Underlying)
}

func (c *typeChecker) primitiveExpr(owner string, expr *notation.TypeExpr) {
	switch expr.Kind {
	case notation.TypeName:
		switch {
		case notation.IsPrimitive(expr.Name):
		case notation.HasContractSuffix(expr.Name):
			c.errorf(expr.Span, "type %q cannot reference contract %q; types are built from primitives", owner, expr.Name)
		case c.table.TypeOf(expr.Name) != nil:
			c.errorf(expr.Span, "type %q cannot reference type %q; types are built from primitives", owner, expr.Name)
		}
	case notation.TypeGeneric:
		arity, known := notation.GenericArity(expr.Name)
		if !known {
			c.errorf(expr.Span, "unknown parametric type %q", expr.Name)
		} else if len(expr.Args) != arity {
			c.errorf(expr.Span, "%s expects %d type arguments, got %d", expr.Name, arity, len(expr.Args))
		}
		for _, arg := range expr.Args {
			c.primitiveExpr(owner, arg)
		}
	case notation.TypeArray:
		c.primitiveExpr(owner, expr.Elem)
	case notation.TypeTuple, notation.TypeUnion:
		for _, arg := range expr.Args {
			c.primitiveExpr(owner, arg)
		}
	case notation.TypeEnum:
	}
}

// contractDef checks the [DTO] naming convention and resolves every
// property reference.
func (c *typeChecker) contractDef(def *notation.DtoDef) {
	if !notation.HasContractSuffix(def.Name) {
		c.errorf(def.Span, "contract name %q must end in %q", def.Name, notation.ContractSuffix)
	}

	seen := map[string]notation.Span{}
	for _, prop := range def.Properties {
		if first, ok := seen[prop.Ref]; ok {
			c.diags = append(c.diags,
				notation.Errorf(prop.Span, "duplicate property %q in %s", prop.Ref, def.Name).WithRelated(first))
			continue
		}
		seen[prop.Ref] = prop.Span

		switch {
		case c.table.ContractOf(prop.Ref) != nil:
			c.table.MarkUse(prop.Ref, prop.Span)
		case c.table.TypeOf(prop.Ref) != nil:
			c.table.MarkUse(prop.Ref, prop.Span)
		case prop.Array:
			c.errorf(prop.Span, "array property %q references undefined type %q", prop.Text, prop.Ref)
		default:
			c.warnf(prop.Span, "property %q references an undefined type or contract", prop.Ref)
		}
	}
}

func (c *typeChecker) requirement(req *notation.Requirement) {
	name := req.Name()
	if first, ok := c.reqs[name]; ok {
		c.diags = append(c.diags,
			notation.Errorf(req.HeaderSpan, "duplicate requirement %q", name).WithRelated(first))
	} else {
		c.reqs[name] = req.HeaderSpan
	}

	if req.Input != nil && req.Input.Name != "" {
		if !notation.HasContractSuffix(req.Input.Name) {
			c.errorf(req.Input.Span, "requirement input %q must be a data contract or inline literal", req.Input.Name)
		} else if c.table.ContractOf(req.Input.Name) == nil {
			c.warnf(req.Input.Span, "contract %q is not defined", req.Input.Name)
		} else {
			c.table.MarkUse(req.Input.Name, req.Input.Span)
		}
	}
	c.resolveExpr(req.Output)

	for _, step := range req.Steps {
		c.checkStep(step)
	}
}

func (c *typeChecker) checkStep(step *notation.Step) {
	switch step.Kind {
	case notation.StepCall, notation.StepPoly:
		c.consistency(step)
		c.resolveParams(step)
		c.resolveExpr(step.Return)
		if step.Return == nil {
			c.errorf(step.Span, "step is missing its return type")
		}
		for _, cse := range step.Cases {
			for _, s := range cse.Steps {
				c.checkStep(s)
			}
		}

	case notation.StepBoundary:
		c.consistency(step)
		c.resolveParams(step)
		c.resolveExpr(step.Return)
		if step.Return == nil {
			c.errorf(step.Span, "step is missing its return type")
		}
		edge, ok := notation.BoundaryEdges[step.Boundary]
		if !ok {
			c.errorf(step.Span, "invalid boundary prefix %q", step.Boundary+":")
			return
		}
		for _, param := range step.Params {
			if !c.boundaryParamOK(param) {
				c.errorf(param.Span, "%s boundary parameter %q must be a data contract or primitive",
					edge, paramText(param))
			}
		}
		if step.Return != nil && !c.boundaryExprOK(step.Return) {
			c.errorf(step.Span, "%s boundary must return a data contract or primitive, got %q",
				edge, step.Return.String())
		}

	case notation.StepReturn:
		c.table.MarkUse(step.Value, step.Span)

	case notation.StepConstructor:
		def := c.table.TypeOf(step.Value)
		switch {
		case def == nil:
			c.warnf(step.Span, "type %q is not defined", step.Value)
		case def.Underlying == nil || def.Underlying.String() != "Class":
			c.errorf(step.Span, "%q must be a Class type to be constructed, got %q",
				step.Value, def.UnderlyingText)
		default:
			c.table.MarkUse(step.Value, step.Span)
		}
	}
}

// consistency compares a call against the first occurrence of its
// subject/verb pair; the first occurrence fixes parameter count, order,
// types and return type for the whole document.
func (c *typeChecker) consistency(step *notation.Step) {
	sep := "."
	if step.Static {
		sep = "::"
	}
	key := step.Noun + sep + step.Verb
	params := canonicalParams(step.Params)
	ret := step.Return.String()

	if first, ok := c.sigs[key]; ok {
		if first.params != params || first.ret != ret {
			c.diags = append(c.diags, notation.Errorf(step.Span,
				"inconsistent signature for %q: first occurrence declares (%s): %s, got (%s): %s",
				key, first.params, first.ret, params, ret).WithRelated(first.span))
		}
		return
	}
	c.sigs[key] = firstSig{params: params, ret: ret, span: step.Span}
}

func canonicalParams(params []notation.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, paramText(p))
	}
	return strings.Join(parts, ", ")
}

func paramText(p notation.Param) string {
	switch {
	case len(p.Inline) > 0:
		return "{" + strings.Join(p.Inline, ", ") + "}"
	case p.Type != nil:
		return p.Name + ": " + p.Type.String()
	default:
		return p.Name
	}
}

// resolveParams records symbol usage inside parameter lists and resolves
// declared parameter types.
func (c *typeChecker) resolveParams(step *notation.Step) {
	for _, param := range step.Params {
		for _, member := range param.Inline {
			c.table.MarkUse(member, param.Span)
		}
		if param.Type != nil {
			c.resolveExpr(param.Type)
			continue
		}
		if param.Name != "" {
			c.table.MarkUse(param.Name, param.Span)
		}
	}
}

// resolveExpr walks a type expression, marking usage of defined symbols
// and flagging unresolved references. Unresolved names are advisory: a
// step may produce a scope-local name the document never defines.
func (c *typeChecker) resolveExpr(expr *notation.TypeExpr) {
	if expr == nil {
		return
	}
	switch expr.Kind {
	case notation.TypeName:
		if notation.IsPrimitive(expr.Name) {
			return
		}
		if c.table.Lookup(expr.Name) != nil {
			c.table.MarkUse(expr.Name, expr.Span)
			return
		}
		if notation.HasContractSuffix(expr.Name) {
			c.warnf(expr.Span, "contract %q is not defined", expr.Name)
		}
	case notation.TypeGeneric:
		arity, known := notation.GenericArity(expr.Name)
		if !known {
			c.errorf(expr.Span, "unknown parametric type %q", expr.Name)
		} else if len(expr.Args) != arity {
			c.errorf(expr.Span, "%s expects %d type arguments, got %d", expr.Name, arity, len(expr.Args))
		}
		for _, arg := range expr.Args {
			c.resolveExpr(arg)
		}
	case notation.TypeArray:
		c.resolveExpr(expr.Elem)
	case notation.TypeTuple, notation.TypeUnion:
		for _, arg := range expr.Args {
			c.resolveExpr(arg)
		}
	case notation.TypeEnum:
	}
}

// boundaryParamOK applies the boundary crossing rule to one parameter:
// only contracts and primitive-resolving names may cross a system edge.
// Inline literals are structural contracts and always cross.
func (c *typeChecker) boundaryParamOK(param notation.Param) bool {
	if len(param.Inline) > 0 {
		return true
	}
	if param.Type != nil {
		return c.boundaryExprOK(param.Type)
	}
	return c.boundaryName(param.Name)
}

func (c *typeChecker) boundaryExprOK(expr *notation.TypeExpr) bool {
	switch expr.Kind {
	case notation.TypeName:
		return c.boundaryName(expr.Name)
	case notation.TypeArray:
		return c.boundaryExprOK(expr.Elem)
	case notation.TypeGeneric:
		for _, arg := range expr.Args {
			if !c.boundaryExprOK(arg) {
				return false
			}
		}
		return true
	case notation.TypeTuple, notation.TypeUnion:
		for _, arg := range expr.Args {
			if !c.boundaryExprOK(arg) {
				return false
			}
		}
		return true
	case notation.TypeEnum:
		return true
	}
	return false
}

func (c *typeChecker) boundaryName(name string) bool {
	if notation.HasContractSuffix(name) || notation.IsPrimitive(name) {
		return true
	}
	if def := c.table.TypeOf(name); def != nil && def.Underlying != nil {
		return def.Underlying.Kind == notation.TypeName && notation.IsPrimitive(def.Underlying.Name)
	}
	return false
}

// unused flags every definition the checker never marked, in registration
// order for deterministic output.
func (c *typeChecker) unused() {
	for _, sym := range c.table.Symbols() {
		if len(sym.Uses) == 0 {
			c.warnf(sym.Span, "%s %q is defined but never used", sym.Kind, sym.Name)
		}
	}
}
