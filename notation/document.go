package notation

// BoundaryEdges maps each boundary prefix to the system edge it names.
// A step carrying one of these prefixes crosses out of pure computation.
var BoundaryEdges = map[string]string{
	"db": "database",
	"fs": "filesystem",
	"mq": "message queue",
	"ex": "external service",
	"os": "object store",
	"lg": "log",
}

// Document is the parsed form of one rune source file. Blocks appear in
// source order within each slice.
type Document struct {
	Requirements []*Requirement
	Types        []*TypeDef
	Contracts    []*DtoDef
}

// InputRef is the input clause of a requirement signature: either a named
// contract reference or an inline literal listing property names.
type InputRef struct {
	Name   string   // contract name; empty for inline literals
	Inline []string // property names of an inline {a, b} literal
	Span   Span
}

// Requirement is a [REQ] block: a behavior named noun.verb with a declared
// input contract, output type, and an ordered step sequence.
type Requirement struct {
	Noun       string
	Verb       string
	Input      *InputRef
	Output     *TypeExpr
	Steps      []*Step
	HeaderSpan Span // the signature line(s)
	Span       Span // header through last step
}

// Name returns the requirement's dotted identity.
func (r *Requirement) Name() string { return r.Noun + "." + r.Verb }

// StepKind discriminates the step forms inside a requirement body.
type StepKind int

const (
	// StepCall is a plain method step: noun.verb(params): Return or
	// Noun::verb(params): Return.
	StepCall StepKind = iota
	// StepBoundary is a call crossing a system edge, marked by a
	// two-letter prefix such as db: or fs:.
	StepBoundary
	// StepPoly is a [PLY] dispatch step carrying [CSE] cases.
	StepPoly
	// StepReturn is a [RET] value step ending a case body.
	StepReturn
	// StepConstructor is a [CTR] className instantiation step.
	StepConstructor
)

// Param is one argument in a step or requirement signature.
type Param struct {
	Name   string
	Type   *TypeExpr // nil for bare references
	Inline []string  // property names of an inline {a, b} literal
	Span   Span
}

// Fault is one named failure mode listed under a step.
type Fault struct {
	Name string
	Span Span
}

// Case is a [CSE] arm of a polymorphic step. Its body follows the same
// step grammar as a requirement body, one level deeper.
type Case struct {
	Name  string
	Steps []*Step
	Span  Span
}

// Step is one line (or multi-line signature) of a requirement body.
// Fields are populated per Kind: Noun/Verb/Params/Return for calls and
// boundary calls, Cases and Return for poly steps, Value for returns,
// Value (the class name) for constructors.
type Step struct {
	Kind     StepKind
	Noun     string
	Verb     string
	Static   bool   // Noun::verb rather than noun.verb
	Boundary string // boundary prefix without the colon, e.g. "db"
	Params   []Param
	Return   *TypeExpr
	Faults   []Fault
	Cases    []*Case
	Value    string // [RET] value or [CTR] class name
	Span     Span
}

// TypeDef is a [TYP] block: a named alias over a type expression, with an
// optional prose description.
type TypeDef struct {
	Name           string
	Underlying     *TypeExpr
	UnderlyingText string
	Description    string
	Span           Span // the header line
	BlockSpan      Span // header plus description
}

// Property is one entry of a contract's property list.
type Property struct {
	Text     string // as written, including markers
	Ref      string // referenced type name, markers stripped
	Array    bool   // plural form: url(s)
	Optional bool   // trailing ?
	Span     Span
}

// DtoDef is a [DTO] block: a named data contract with a property list and
// a required prose description.
type DtoDef struct {
	Name        string
	Properties  []Property
	Description string
	Span        Span // the header line
	BlockSpan   Span // header plus description
}
