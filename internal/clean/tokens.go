package clean

import (
	"sort"
	"strings"
)

// DefaultMissingTokens are the cell spellings, compared case-insensitively
// after whitespace normalization, that mean "no value".
var DefaultMissingTokens = []string{"", "-", "error", "n/a", "na", "null", "unknown"}

// TokenSet is a case-insensitive set of missing-value spellings.
type TokenSet map[string]struct{}

// NewTokenSet builds a set from tokens. Tokens are whitespace-normalized
// and lower-cased, so " N/A " and "n/a" are the same entry.
func NewTokenSet(tokens []string) TokenSet {
	set := make(TokenSet, len(tokens))
	for _, tok := range tokens {
		set[strings.ToLower(collapseSpace(tok))] = struct{}{}
	}
	return set
}

// Contains reports whether s (already whitespace-normalized) is a missing
// token.
func (ts TokenSet) Contains(s string) bool {
	_, ok := ts[strings.ToLower(s)]
	return ok
}

// Sorted returns the tokens in lexical order for display.
func (ts TokenSet) Sorted() []string {
	out := make([]string, 0, len(ts))
	for tok := range ts {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// collapseSpace trims s and replaces every internal whitespace run with a
// single space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
