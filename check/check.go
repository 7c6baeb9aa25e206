// Package check reports likely mistakes in a parsed template
package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/LingHeChen/sstree/ast"
	"github.com/LingHeChen/sstree/grammar"
	"github.com/LingHeChen/sstree/lexer"
	"github.com/LingHeChen/sstree/parser"
)

// maxEdits bounds the distance of a keyword suggestion
const maxEdits = 2

// Kind classifies a finding
type Kind int

const (
	UnclosedStatement Kind = iota
	UnclosedBlock
	MismatchedTerminator
	UnknownKeyword
)

var kindNames = [...]string{
	UnclosedStatement:    "unclosed-statement",
	UnclosedBlock:        "unclosed-block",
	MismatchedTerminator: "mismatched-terminator",
	UnknownKeyword:       "unknown-keyword",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Finding is one reported problem
type Finding struct {
	Kind       Kind
	Pos        ast.Position
	Message    string
	Suggestion string
}

func (f Finding) String() string {
	s := fmt.Sprintf("%s: %s: %s", f.Pos, f.Kind, f.Message)
	if f.Suggestion != "" {
		s += fmt.Sprintf(" (did you mean %q?)", f.Suggestion)
	}
	return s
}

// Checker inspects tokens and trees built with one set of grammar tables
type Checker struct {
	tables     *grammar.Tables
	candidates []string
}

// New creates a checker. A nil tables value selects grammar.SilverStripe().
func New(tables *grammar.Tables) *Checker {
	if tables == nil {
		tables = grammar.SilverStripe()
	}
	c := &Checker{tables: tables}
	c.candidates = append(c.candidates, tables.Keywords()...)
	for _, kw := range tables.StructuralKeywords() {
		c.candidates = append(c.candidates, "end_"+kw)
	}
	sort.Strings(c.candidates)
	return c
}

// Source tokenizes, parses and checks template source
func Source(input string) ([]Finding, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	tree := parser.New(nil).ParseTokens(tokens)
	return New(nil).Check(tokens, tree), nil
}

// Check returns the findings for a token stream and the tree parsed from
// it, ordered by source offset.
func (c *Checker) Check(tokens []lexer.Token, tree *ast.Node) []Finding {
	var out []Finding
	c.walk(tree, nil, &out)
	out = append(out, c.keywords(tokens)...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos.Offset < out[j].Pos.Offset
	})
	return out
}

func (c *Checker) walk(n, parent *ast.Node, out *[]Finding) {
	if n.IsLeaf() {
		return
	}
	inBlock := parent != nil && parent.Type == ast.BlockStatement

	switch {
	case n.Type == ast.Error:
		*out = append(*out, Finding{Kind: UnclosedStatement, Pos: n.Pos(), Message: n.Message})
	case n.Type == c.tables.Terminator && !inBlock:
		*out = append(*out, Finding{
			Kind:    MismatchedTerminator,
			Pos:     n.Pos(),
			Message: fmt.Sprintf("%s does not close an open block", keyword(n)),
		})
	case c.tables.IsStructural(n.Type) && !inBlock:
		*out = append(*out, Finding{
			Kind:    UnclosedBlock,
			Pos:     n.Pos(),
			Message: fmt.Sprintf("unclosed %s block", keyword(n)),
		})
	}

	for _, child := range n.Children {
		c.walk(child, n, out)
	}
}

// keywords flags block heads whose first word is a near miss of a known
// keyword.
func (c *Checker) keywords(tokens []lexer.Token) []Finding {
	var out []Finding
	for i, tok := range tokens {
		if tok.Type != lexer.BLOCK_START {
			continue
		}
		next := c.nextSignificant(tokens, i+1)
		if next == nil || next.Type != lexer.IDENTIFIER {
			continue
		}
		guess := c.Suggest(next.Literal)
		if guess == "" {
			continue
		}
		out = append(out, Finding{
			Kind:       UnknownKeyword,
			Pos:        ast.Position{Line: next.Line, Column: next.Column, Offset: next.Offset},
			Message:    fmt.Sprintf("unknown block keyword %q", next.Literal),
			Suggestion: guess,
		})
	}
	return out
}

// Suggest returns the known keyword closest to word, or "" when none is
// close enough.
func (c *Checker) Suggest(word string) string {
	if word == "" {
		return ""
	}
	ranks := fuzzy.RankFindFold(word, c.candidates)
	sort.Sort(ranks)
	if len(ranks) > 0 && acceptable(word, ranks[0].Distance) {
		return ranks[0].Target
	}

	best, bestDist := "", maxEdits+1
	for _, cand := range c.candidates {
		d := fuzzy.LevenshteinDistance(strings.ToLower(word), cand)
		if d < bestDist {
			best, bestDist = cand, d
		}
	}
	if acceptable(word, bestDist) {
		return best
	}
	return ""
}

func acceptable(word string, dist int) bool {
	return dist <= maxEdits && dist < len(word)
}

func (c *Checker) nextSignificant(tokens []lexer.Token, from int) *lexer.Token {
	for i := from; i < len(tokens); i++ {
		if !c.tables.Trivia.Contains(tokens[i].Type) {
			return &tokens[i]
		}
	}
	return nil
}

// keyword returns the first word of a block head
func keyword(head *ast.Node) string {
	for _, tok := range head.Tokens() {
		if tok.Type != lexer.BLOCK_START && tok.Type != lexer.WHITESPACE {
			return tok.Literal
		}
	}
	return head.Type.String()
}
