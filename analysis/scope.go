package analysis

import (
	"sort"

	"github.com/theTechGoose/rune/notation"
)

// Binding is one live name in a requirement's scope. The notation keys
// scope by type identity, so Name and Type usually coincide; flattened
// contract properties bind under their property reference.
type Binding struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type scope map[string]Binding

func (s scope) fork() scope {
	next := make(scope, len(s))
	for k, v := range s {
		next[k] = v
	}
	return next
}

func (s scope) sorted() []Binding {
	out := make([]Binding, 0, len(s))
	for _, b := range s {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// flowChecker replays each requirement's steps against a growing scope.
// Scope never crosses requirement boundaries.
type flowChecker struct {
	table *SymbolTable
	diags []notation.Diagnostic
	mute  bool // scope replay for queries collects no diagnostics
}

func checkFlow(doc *notation.Document, table *SymbolTable) []notation.Diagnostic {
	c := &flowChecker{table: table}
	for _, req := range doc.Requirements {
		c.requirement(req, nil)
	}
	return c.diags
}

func (c *flowChecker) errorf(span notation.Span, format string, args ...any) {
	if !c.mute {
		c.diags = append(c.diags, notation.Errorf(span, format, args...))
	}
}

func (c *flowChecker) warnf(span notation.Span, format string, args ...any) {
	if !c.mute {
		c.diags = append(c.diags, notation.Warnf(span, format, args...))
	}
}

// requirement walks one block. With a stop position the walk halts before
// the first step at or past it and returns the scope as it stood there.
func (c *flowChecker) requirement(req *notation.Requirement, stop *notation.Position) scope {
	sc := scope{}
	c.seed(sc, req)

	var produced string
	producedSpan := req.HeaderSpan
	for _, step := range req.Steps {
		if stop != nil && !step.Span.Start.Before(*stop) {
			return sc
		}
		var stopped bool
		produced, sc, stopped = c.step(sc, step, stop)
		if stopped {
			return sc
		}
		producedSpan = step.Span
	}
	if stop != nil {
		return sc
	}
	// A header-only block satisfies nothing yet; common mid-edit, not an
	// output violation.
	if len(req.Steps) == 0 {
		return sc
	}

	declared := req.Output.String()
	if produced != declared {
		c.errorf(producedSpan, "unsatisfied output: block declares %q but its last step produces %q",
			declared, displayName(produced))
	}
	return sc
}

func displayName(s string) string {
	if s == "" {
		return "nothing"
	}
	return s
}

// seed initializes scope from the declared input: the members of an inline
// literal, or the recursively flattened properties of a named contract.
func (c *flowChecker) seed(sc scope, req *notation.Requirement) {
	if req.Input == nil {
		return
	}
	for _, name := range req.Input.Inline {
		sc[name] = Binding{Name: name, Type: name}
	}
	if req.Input.Name != "" {
		visited := map[string]bool{}
		reported := false
		c.flatten(sc, req.Input.Name, req.Input.Span, visited, &reported)
	}
}

// flatten merges a contract's properties into scope, recursing through
// contract-typed properties. The visited set is per resolution; revisiting
// a contract is a cycle, reported once.
func (c *flowChecker) flatten(sc scope, name string, span notation.Span, visited map[string]bool, reported *bool) {
	if visited[name] {
		if !*reported {
			c.errorf(span, "contract cycle detected while flattening %q", name)
			*reported = true
		}
		return
	}
	visited[name] = true

	def := c.table.ContractOf(name)
	if def == nil {
		return
	}
	for _, prop := range def.Properties {
		if c.table.ContractOf(prop.Ref) != nil {
			c.flatten(sc, prop.Ref, span, visited, reported)
			continue
		}
		sc[prop.Ref] = Binding{Name: prop.Ref, Type: prop.Ref}
	}
}

// step validates one step against scope and merges what it produces. It
// returns the step's output name, the scope to continue with, and whether
// a stop position inside a polymorphic case ended the walk.
func (c *flowChecker) step(sc scope, step *notation.Step, stop *notation.Position) (string, scope, bool) {
	switch step.Kind {
	case notation.StepCall, notation.StepBoundary:
		c.subject(sc, step)
		c.params(sc, step)
		c.merge(sc, step.Return, step.Span)
		return step.Return.String(), sc, false

	case notation.StepPoly:
		c.subject(sc, step)
		c.params(sc, step)
		declared := step.Return.String()
		for _, cse := range step.Cases {
			fork := sc.fork()
			var produced string
			for _, s := range cse.Steps {
				if stop != nil && !s.Span.Start.Before(*stop) {
					return declared, fork, true
				}
				var stopped bool
				produced, fork, stopped = c.step(fork, s, stop)
				if stopped {
					return declared, fork, true
				}
			}
			if produced != declared {
				c.errorf(cse.Span, "case %q must produce %q declared by its polymorphic step, got %q",
					cse.Name, declared, displayName(produced))
			}
		}
		c.merge(sc, step.Return, step.Span)
		return declared, sc, false

	case notation.StepReturn:
		if _, ok := sc[step.Value]; !ok && c.table.ContractOf(step.Value) == nil {
			c.errorf(step.Span, "%q is not in scope; produce it with a previous step", step.Value)
		}
		return step.Value, sc, false

	case notation.StepConstructor:
		sc[step.Value] = Binding{Name: step.Value, Type: step.Value}
		return step.Value, sc, false
	}
	return "", sc, false
}

// subject enforces that instance-call subjects were produced earlier in
// the block. Static calls address the type itself and need no binding.
func (c *flowChecker) subject(sc scope, step *notation.Step) {
	if step.Static {
		return
	}
	if _, ok := sc[step.Noun]; !ok {
		c.errorf(step.Span, "%q is out of scope; produce it with a previous step or use a static call (::)",
			step.Noun)
	}
}

// params resolves every bare parameter reference against scope. Typed
// name: type pairs declare shape rather than reference a binding, and
// inline literals resolve member by member.
func (c *flowChecker) params(sc scope, step *notation.Step) {
	for _, param := range step.Params {
		switch {
		case len(param.Inline) > 0:
			for _, member := range param.Inline {
				c.resolveRef(sc, member, param.Span)
			}
		case param.Type != nil:
		case param.Name != "":
			c.resolveRef(sc, param.Name, param.Span)
		}
	}
}

func (c *flowChecker) resolveRef(sc scope, name string, span notation.Span) {
	if _, ok := sc[name]; ok {
		return
	}
	if c.table.ContractOf(name) != nil {
		return
	}
	c.errorf(span, "parameter %q is not in scope; it must come from a previous step or the block input", name)
}

// merge binds a step's declared return into scope keyed by the type's own
// name. Rebinding an existing key aliases it, which is legal but loud. A
// contract return also brings its flattened properties into scope.
func (c *flowChecker) merge(sc scope, ret *notation.TypeExpr, span notation.Span) {
	if ret == nil || ret.IsVoid() {
		return
	}
	key := ret.String()
	if _, ok := sc[key]; ok {
		c.warnf(span, "%q rebinds a name already in scope; the earlier binding is shadowed", key)
	}
	sc[key] = Binding{Name: key, Type: key}

	if ret.Kind == notation.TypeName && c.table.ContractOf(ret.Name) != nil {
		visited := map[string]bool{}
		reported := false
		c.flatten(sc, ret.Name, span, visited, &reported)
	}
}
