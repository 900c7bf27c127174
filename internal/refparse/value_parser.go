package refparse

import "strings"

// ValueKind classifies a parsed scalar string.
type ValueKind int

const (
	// KindLiteral marks a plain string with no reference syntax.
	KindLiteral ValueKind = iota
	// KindSingletonRef marks "$name": a reference to a named singleton.
	KindSingletonRef
	// KindTypeRef marks "$schema$": a reference to the registered type
	// itself rather than an instance.
	KindTypeRef
)

// ValueRef is the parsed form of a scalar string.
type ValueRef struct {
	Kind ValueKind

	// Name is the singleton name for KindSingletonRef, or the schema id
	// (with optional "@version") for KindTypeRef.
	Name string
}

// ValueParser classifies bare string scalars. Reference syntax takes
// precedence over literal interpretation; implementations decide validity,
// the resolver never guesses.
type ValueParser interface {
	Parse(value string) (*ValueRef, error)
}

// SigilParser is the default ValueParser for the "$" reference grammar.
type SigilParser struct{}

// NewSigilParser builds the default scalar parser.
func NewSigilParser() *SigilParser { return &SigilParser{} }

// Parse implements ValueParser.
func (p *SigilParser) Parse(value string) (*ValueRef, error) {
	if len(value) < 2 || value[0] != '$' {
		return &ValueRef{Kind: KindLiteral}, nil
	}
	if strings.HasSuffix(value, "$") {
		return &ValueRef{Kind: KindTypeRef, Name: value[1 : len(value)-1]}, nil
	}
	return &ValueRef{Kind: KindSingletonRef, Name: value[1:]}, nil
}
