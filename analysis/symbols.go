package analysis

import (
	"github.com/theTechGoose/rune/notation"
)

// SymbolKind discriminates what a symbol table entry defines.
type SymbolKind int

const (
	// SymbolType is a [TYP] alias definition.
	SymbolType SymbolKind = iota
	// SymbolContract is a [DTO] data contract definition.
	SymbolContract
)

func (k SymbolKind) String() string {
	if k == SymbolContract {
		return "contract"
	}
	return "type"
}

// Symbol is one named definition plus its recorded use sites. Uses start
// empty; only the consistency checker appends to them.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Type     *notation.TypeDef // set when Kind is SymbolType
	Contract *notation.DtoDef  // set when Kind is SymbolContract
	Span     notation.Span
	Uses     []notation.Span
}

// Description returns the prose attached to the definition, if any.
func (s *Symbol) Description() string {
	switch s.Kind {
	case SymbolType:
		return s.Type.Description
	case SymbolContract:
		return s.Contract.Description
	}
	return ""
}

// SymbolTable holds every definition in registration order. Registration is
// append-only; resolution and usage tracking happen in a later pass.
type SymbolTable struct {
	order  []*Symbol
	byName map[string]*Symbol
}

// BuildSymbols registers every type and contract definition in document
// order. A repeated name is an error citing the first definition's span;
// the first registration wins.
func BuildSymbols(doc *notation.Document) (*SymbolTable, []notation.Diagnostic) {
	table := &SymbolTable{byName: make(map[string]*Symbol)}
	var diags []notation.Diagnostic

	for _, def := range doc.Types {
		diags = table.register(&Symbol{
			Name: def.Name,
			Kind: SymbolType,
			Type: def,
			Span: def.Span,
		}, diags)
	}
	for _, def := range doc.Contracts {
		diags = table.register(&Symbol{
			Name:     def.Name,
			Kind:     SymbolContract,
			Contract: def,
			Span:     def.Span,
		}, diags)
	}
	return table, diags
}

func (t *SymbolTable) register(sym *Symbol, diags []notation.Diagnostic) []notation.Diagnostic {
	if first, ok := t.byName[sym.Name]; ok {
		return append(diags,
			notation.Errorf(sym.Span, "duplicate definition of %q", sym.Name).WithRelated(first.Span))
	}
	t.byName[sym.Name] = sym
	t.order = append(t.order, sym)
	return diags
}

// Lookup returns the symbol defined under name, or nil.
func (t *SymbolTable) Lookup(name string) *Symbol {
	return t.byName[name]
}

// Symbols returns every entry in registration order.
func (t *SymbolTable) Symbols() []*Symbol {
	return t.order
}

// MarkUse records a use site against name, if defined.
func (t *SymbolTable) MarkUse(name string, span notation.Span) {
	if sym := t.byName[name]; sym != nil {
		sym.Uses = append(sym.Uses, span)
	}
}

// TypeOf returns the [TYP] definition under name, or nil.
func (t *SymbolTable) TypeOf(name string) *notation.TypeDef {
	if sym := t.byName[name]; sym != nil && sym.Kind == SymbolType {
		return sym.Type
	}
	return nil
}

// ContractOf returns the [DTO] definition under name, or nil.
func (t *SymbolTable) ContractOf(name string) *notation.DtoDef {
	if sym := t.byName[name]; sym != nil && sym.Kind == SymbolContract {
		return sym.Contract
	}
	return nil
}
