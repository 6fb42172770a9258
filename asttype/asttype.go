// Package asttype implements the AST type deducer of spec.md §4.9: it maps
// a canonicalized, left-factored grammar plus its production/symbol
// attributes to a typed tree schema - structs per production, sum types
// per alternation, vectors for repetition, options for optional - applying
// attribute-driven collapsing and a boxed-cycle-breaking pass.
package asttype

import (
	"fmt"

	"github.com/kestrel-lang/gramble/grammar"
	"github.com/kestrel-lang/gramble/ierr"
)

// Kind distinguishes the variants of the AST schema's type graph (spec.md
// §3 "AST type schema"). Ref is this package's own addition: a named
// reference to another entry of Schema.Types, kept distinct from the
// container kinds so cycle detection only ever has to walk Ref edges.
type Kind int

const (
	KindStruct Kind = iota
	KindEnum
	KindVec
	KindOption
	KindTerminal
	KindBox
	KindRef
)

// TypeRef is one node of the type graph. Struct and Enum are always the
// root of a named Schema.Types entry; Vec/Option/Box/Terminal/Ref appear
// inline inside a Field's Type, a Variant's Type, or another container's
// Elem.
type TypeRef struct {
	Kind Kind
	Name string // for KindStruct/KindEnum (schema key) and KindRef (target key)

	Elem *TypeRef // for KindVec/KindOption/KindBox

	Fields   []Field   // for KindStruct
	Variants []Variant // for KindEnum
}

// Field is one struct member: a terminal, a reference to another deduced
// type, or a Vec/Option/Box wrapping one.
type Field struct {
	Name string
	Type *TypeRef
}

// Variant is one alternative of an Enum, naming the production it came
// from and the Struct type of that production's fields.
type Variant struct {
	Name            string
	ProductionIndex int
	Type            *TypeRef
}

// Schema is a directed graph of types, one named entry per non-terminal,
// in the non-terminal's insertion order (spec.md §4.9 "Deterministic
// naming ... ensures stable output").
type Schema struct {
	Order []string
	Types map[string]*TypeRef
}

// Of returns the named type, or nil if unknown.
func (s *Schema) Of(name string) *TypeRef { return s.Types[name] }

// Options configures the deducer (spec.md §6 "Configuration surface").
type Options struct {
	// MinimizeBoxedTypes, when set, chooses the feedback-edge set greedily
	// over each cycle's strongly connected component to minimize the
	// number of Box insertions, rather than boxing every edge inside a
	// cyclic SCC.
	MinimizeBoxedTypes bool

	// UserTypeName overrides the deduced type name for a non-terminal.
	UserTypeName map[string]string
}

// Deduce maps g to its AST type schema (spec.md §4.9). g must already be
// canonicalized and left-factored; its productions' attributes are read
// directly to collapse CollectionStart/AddToCollection into Vec and
// OptionalSome/OptionalNone into Option.
func Deduce(g *grammar.Grammar, opts Options) (*Schema, error) {
	schema := &Schema{Types: map[string]*TypeRef{}}

	for _, nt := range g.NonTerminals() {
		schema.Order = append(schema.Order, nt)
	}

	for _, nt := range g.NonTerminals() {
		t, err := deduceOne(g, nt)
		if err != nil {
			return nil, err
		}
		if userName, ok := opts.UserTypeName[nt]; ok {
			t.Name = userName
		}
		schema.Types[nt] = t
	}

	// a field naming a non-terminal that collapsed into Vec or Option holds
	// that container inline (List's field is Vec<Num>, not a Ref to it).
	for _, nt := range schema.Order {
		holders := []*TypeRef{schema.Types[nt]}
		for _, v := range schema.Types[nt].Variants {
			holders = append(holders, v.Type)
		}
		for _, h := range holders {
			for i, f := range h.Fields {
				if tgt := schema.Types[f.Type.Name]; f.Type.Kind == KindRef && tgt != nil && (tgt.Kind == KindVec || tgt.Kind == KindOption) {
					h.Fields[i].Type = &TypeRef{Kind: tgt.Kind, Elem: tgt.Elem}
				}
			}
		}
	}

	breakCycles(schema, opts.MinimizeBoxedTypes)

	return schema, nil
}

func deduceOne(g *grammar.Grammar, nt string) (*TypeRef, error) {
	prods := g.ProductionsOf(nt)

	if isOptionalPair(prods) {
		return deduceOptional(nt, prods)
	}
	if isRepetitionPair(prods) {
		return deduceRepetition(g, nt, prods)
	}
	if len(prods) == 1 {
		return &TypeRef{Kind: KindStruct, Name: nt, Fields: fieldsOf(prods[0])}, nil
	}

	variants := make([]Variant, len(prods))
	for i, p := range prods {
		variants[i] = Variant{
			Name:            fmt.Sprintf("%sAlt%d", nt, i),
			ProductionIndex: p.Index,
			Type:            &TypeRef{Kind: KindStruct, Name: fmt.Sprintf("%sAlt%d", nt, i), Fields: fieldsOf(p)},
		}
	}
	return &TypeRef{Kind: KindEnum, Name: nt, Variants: variants}, nil
}

func isOptionalPair(prods []grammar.Production) bool {
	if len(prods) != 2 {
		return false
	}
	var sawSome, sawNone bool
	for _, p := range prods {
		switch p.Attr {
		case grammar.ProdAttrOptionalSome:
			sawSome = true
		case grammar.ProdAttrOptionalNone:
			sawNone = true
		}
	}
	return sawSome && sawNone
}

func isRepetitionPair(prods []grammar.Production) bool {
	if len(prods) != 2 {
		return false
	}
	var sawStart, sawAdd bool
	for _, p := range prods {
		switch p.Attr {
		case grammar.ProdAttrCollectionStart:
			sawStart = true
		case grammar.ProdAttrAddToCollection:
			sawAdd = true
		}
	}
	return sawStart && sawAdd
}

// deduceOptional collapses an OptionalSome/OptionalNone production pair
// into Option<Inner> (spec.md §4.9). Inner is the lone non-clipped RHS
// symbol's type when the Some production carries exactly one, else a
// synthetic struct of its fields.
func deduceOptional(nt string, prods []grammar.Production) (*TypeRef, error) {
	var some *grammar.Production
	var sawNone bool
	for i := range prods {
		if prods[i].Attr == grammar.ProdAttrOptionalSome {
			some = &prods[i]
		}
		if prods[i].Attr == grammar.ProdAttrOptionalNone {
			if !prods[i].IsEpsilon() {
				return nil, &ierr.AttributeViolation{ProductionIndex: prods[i].Index, Msg: "OptionalNone production must have an empty RHS"}
			}
			sawNone = true
		}
	}
	if some == nil || !sawNone {
		return nil, &ierr.AttributeViolation{ProductionIndex: prods[0].Index, Msg: "OptionalSome without matching OptionalNone"}
	}

	fields := fieldsOf(*some)
	var inner *TypeRef
	if len(fields) == 1 {
		inner = fields[0].Type
	} else {
		inner = &TypeRef{Kind: KindStruct, Name: nt + "Content", Fields: fields}
	}
	return &TypeRef{Kind: KindOption, Name: nt, Elem: inner}, nil
}

// deduceRepetition collapses a CollectionStart/AddToCollection production
// pair into Vec<Elem> (spec.md §4.9). Elem is the type of the field marked
// with the RepetitionAnchor attribute.
func deduceRepetition(g *grammar.Grammar, nt string, prods []grammar.Production) (*TypeRef, error) {
	var add *grammar.Production
	for i := range prods {
		if prods[i].Attr == grammar.ProdAttrAddToCollection {
			add = &prods[i]
		}
	}
	if add == nil {
		return nil, &ierr.AttributeViolation{ProductionIndex: prods[0].Index, Msg: "CollectionStart without matching AddToCollection"}
	}

	var elem *TypeRef
	for _, s := range add.RHS {
		if s.Attr == grammar.AttrClipped {
			continue
		}
		if s.Attr == grammar.AttrRepetitionAnchor {
			elem = symbolType(s)
			break
		}
	}
	if elem == nil {
		// fall back to the first non-tail-recursive symbol: the tail
		// recursion onto nt itself is always the final RHS symbol.
		for _, s := range add.RHS {
			if s.Kind == grammar.KindNonTerminal && s.NonTerminal == nt {
				continue
			}
			if s.Attr == grammar.AttrClipped {
				continue
			}
			elem = symbolType(s)
			break
		}
	}
	if elem == nil {
		return nil, &ierr.AttributeViolation{ProductionIndex: add.Index, Msg: "repetition has no element symbol to collapse into Vec"}
	}

	return &TypeRef{Kind: KindVec, Name: nt, Elem: elem}, nil
}

func fieldsOf(p grammar.Production) []Field {
	var fields []Field
	for i, s := range p.RHS {
		if s.Kind == grammar.KindSwitch || s.Attr == grammar.AttrClipped {
			continue
		}
		// the repetition tail's recursive reference to its own
		// non-terminal is structural, not a field of the element type.
		if s.Kind == grammar.KindNonTerminal && s.NonTerminal == p.LHS && i == len(p.RHS)-1 && p.Attr == grammar.ProdAttrAddToCollection {
			continue
		}
		fields = append(fields, Field{Name: fieldName(s, i), Type: symbolType(s)})
	}
	return fields
}

func fieldName(s grammar.Symbol, pos int) string {
	if s.Kind == grammar.KindNonTerminal {
		return s.NonTerminal
	}
	return fmt.Sprintf("field%d", pos)
}

func symbolType(s grammar.Symbol) *TypeRef {
	if s.Kind == grammar.KindTerminal {
		return &TypeRef{Kind: KindTerminal}
	}
	return &TypeRef{Kind: KindRef, Name: s.NonTerminal}
}
