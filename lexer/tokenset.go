package lexer

import "strings"

// TokenSet is an immutable set of token types.
type TokenSet uint64

// NewTokenSet returns a set holding the given types.
func NewTokenSet(types ...TokenType) TokenSet {
	var s TokenSet
	for _, t := range types {
		s |= 1 << uint(t)
	}
	return s
}

// Contains reports whether t is in the set.
func (s TokenSet) Contains(t TokenType) bool {
	if t < 0 || t >= tokenTypeCount {
		return false
	}
	return s&(1<<uint(t)) != 0
}

// Union returns the types present in either set.
func (s TokenSet) Union(o TokenSet) TokenSet {
	return s | o
}

// Types lists the members in declaration order.
func (s TokenSet) Types() []TokenType {
	var out []TokenType
	for t := TokenType(0); t < tokenTypeCount; t++ {
		if s.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s TokenSet) String() string {
	names := make([]string, 0, 8)
	for _, t := range s.Types() {
		names = append(names, t.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}
