// Package symbols holds the canonical numbering of terminals (non-terminals
// are identified by name in package grammar), and the five reserved
// pseudo-terminals every grammar
// carries regardless of what the user wrote. Every k-tuple downstream is a
// sequence of the TerminalIndex values minted here, so identity and
// stability of this numbering is what the rest of the analysis pipeline's
// determinism guarantees rest on.
package symbols

// TerminalIndex identifies a terminal uniquely within one grammar. It is
// stable for the lifetime of that Grammar value (see the Grammar invariant
// in the grammar package), but is not meaningful across different Grammar
// values.
type TerminalIndex int

// Reserved pseudo-terminal indices. These are always present, always first,
// and always in this order, so that two grammars built with the same user
// terminals get the same indices for the reserved ones.
const (
	EOI TerminalIndex = iota
	NewLine
	Whitespace
	LineComment
	BlockComment

	firstUserTerminal
)

// reservedNames gives the display name for each reserved pseudo-terminal, in
// index order.
var reservedNames = [...]string{
	EOI:          "$",
	NewLine:      "NEW_LINE",
	Whitespace:   "WHITESPACE",
	LineComment:  "LINE_COMMENT",
	BlockComment: "BLOCK_COMMENT",
}

// IsReserved returns whether idx names one of the five reserved
// pseudo-terminals.
func IsReserved(idx TerminalIndex) bool {
	return idx >= 0 && int(idx) < len(reservedNames)
}

// ReservedName returns the display name of a reserved pseudo-terminal index,
// or "" if idx is not reserved.
func ReservedName(idx TerminalIndex) string {
	if !IsReserved(idx) {
		return ""
	}
	return reservedNames[idx]
}

// TerminalKind distinguishes how a Terminal's pattern is interpreted.
type TerminalKind int

const (
	// KindLiteral matches an exact, fixed string.
	KindLiteral TerminalKind = iota
	// KindRegex matches a regular expression.
	KindRegex
	// KindCharClass matches a single character drawn from a class.
	KindCharClass
)

func (k TerminalKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindRegex:
		return "regex"
	case KindCharClass:
		return "charclass"
	default:
		return "unknown"
	}
}

// Alphabet interns terminal names to stable TerminalIndex values for one
// grammar, in first-seen order, with the reserved pseudo-terminals always
// occupying indices 0-4.
type Alphabet struct {
	byName  map[string]TerminalIndex
	byIndex []string
}

// NewAlphabet returns an Alphabet pre-seeded with the reserved
// pseudo-terminals.
func NewAlphabet() *Alphabet {
	a := &Alphabet{byName: map[string]TerminalIndex{}}
	for i := TerminalIndex(0); int(i) < len(reservedNames); i++ {
		a.byName[reservedNames[i]] = i
		a.byIndex = append(a.byIndex, reservedNames[i])
	}
	return a
}

// Intern returns the stable index for name, minting a fresh one (in
// first-seen order, starting after the reserved terminals) if it has not
// been seen before in this Alphabet.
func (a *Alphabet) Intern(name string) TerminalIndex {
	if idx, ok := a.byName[name]; ok {
		return idx
	}
	idx := TerminalIndex(len(a.byIndex))
	a.byName[name] = idx
	a.byIndex = append(a.byIndex, name)
	return idx
}

// Lookup returns the index already assigned to name and whether it has been
// interned.
func (a *Alphabet) Lookup(name string) (TerminalIndex, bool) {
	idx, ok := a.byName[name]
	return idx, ok
}

// Name returns the display name for idx, or "" if out of range.
func (a *Alphabet) Name(idx TerminalIndex) string {
	if int(idx) < 0 || int(idx) >= len(a.byIndex) {
		return ""
	}
	return a.byIndex[idx]
}

// Len returns the number of terminals interned, including the reserved
// pseudo-terminals.
func (a *Alphabet) Len() int {
	return len(a.byIndex)
}
