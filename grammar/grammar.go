// Package grammar holds the tables that classify template block heads
package grammar

import (
	"sort"

	"github.com/LingHeChen/sstree/ast"
	"github.com/LingHeChen/sstree/lexer"
)

// Tokens names the token types the parser keys on.
type Tokens struct {
	VarStart     lexer.TokenType
	VarEnd       lexer.TokenType
	Theme        lexer.TokenType
	String       lexer.TokenType
	Identifier   lexer.TokenType
	FieldSep     lexer.TokenType
	ArgOpen      lexer.TokenType
	ArgClose     lexer.TokenType
	CommentStart lexer.TokenType
	CommentEnd   lexer.TokenType
	BlockStart   lexer.TokenType
	BlockEnd     lexer.TokenType
}

type keyword struct {
	literal string
	typ     ast.NodeType
	follow  lexer.TokenSet
}

// Tables maps block keywords onto node types and the tokens allowed in
// their heads. Tables are read-only once built and may be shared between
// parsers.
type Tables struct {
	Tokens     Tokens
	Trivia     lexer.TokenSet
	Terminator ast.NodeType

	// Arguments lists the tokens that may appear between ArgOpen and
	// ArgClose of a field reference call.
	Arguments lexer.TokenSet

	keywords   map[lexer.TokenType]keyword
	structural map[ast.NodeType]bool
	branch     map[ast.NodeType]bool
}

// Follow returns the tokens allowed in a block head opened by kw.
func (t *Tables) Follow(kw lexer.TokenType) (lexer.TokenSet, bool) {
	k, ok := t.keywords[kw]
	return k.follow, ok
}

// NodeType returns the node type of a block head opened by kw.
func (t *Tables) NodeType(kw lexer.TokenType) (ast.NodeType, bool) {
	k, ok := t.keywords[kw]
	return k.typ, ok
}

// IsStructural reports whether blocks of type nt open a body that expects
// a terminator.
func (t *Tables) IsStructural(nt ast.NodeType) bool {
	return t.structural[nt]
}

// IsBranch reports whether nt splits the body of the enclosing block.
func (t *Tables) IsBranch(nt ast.NodeType) bool {
	return t.branch[nt]
}

// Keywords lists the literal keywords known to the tables, sorted.
func (t *Tables) Keywords() []string {
	out := make([]string, 0, len(t.keywords))
	for _, k := range t.keywords {
		if k.literal != "" {
			out = append(out, k.literal)
		}
	}
	sort.Strings(out)
	return out
}

// StructuralKeywords lists the keywords that open a body, sorted.
func (t *Tables) StructuralKeywords() []string {
	var out []string
	for _, k := range t.keywords {
		if t.structural[k.typ] {
			out = append(out, k.literal)
		}
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------
// SilverStripe tables
// ---------------------------------------------------------

var (
	head = lexer.NewTokenSet(lexer.BLOCK_START, lexer.BLOCK_END)

	reference = lexer.NewTokenSet(
		lexer.VAR, lexer.IDENTIFIER, lexer.DOT, lexer.LPAREN, lexer.RPAREN,
		lexer.COMMA, lexer.NUMBER, lexer.STRING,
	)

	condition = reference.Union(lexer.NewTokenSet(lexer.OPERATOR, lexer.THEME_VAR))
)

var silverStripe = &Tables{
	Tokens: Tokens{
		VarStart:     lexer.VAR,
		VarEnd:       lexer.VAR,
		Theme:        lexer.THEME_VAR,
		String:       lexer.STRING,
		Identifier:   lexer.IDENTIFIER,
		FieldSep:     lexer.DOT,
		ArgOpen:      lexer.LPAREN,
		ArgClose:     lexer.RPAREN,
		CommentStart: lexer.COMMENT_START,
		CommentEnd:   lexer.COMMENT_END,
		BlockStart:   lexer.BLOCK_START,
		BlockEnd:     lexer.BLOCK_END,
	},
	Trivia:     lexer.NewTokenSet(lexer.WHITESPACE),
	Terminator: ast.BlockEndStatement,
	Arguments:  reference,
	keywords: map[lexer.TokenType]keyword{
		lexer.IF:       {"if", ast.IfStatement, head.Union(condition).Union(lexer.NewTokenSet(lexer.IF))},
		lexer.ELSE_IF:  {"else_if", ast.ElseIfStatement, head.Union(condition).Union(lexer.NewTokenSet(lexer.ELSE_IF))},
		lexer.ELSE:     {"else", ast.ElseStatement, head.Union(lexer.NewTokenSet(lexer.ELSE))},
		lexer.LOOP:     {"loop", ast.LoopStatement, head.Union(reference).Union(lexer.NewTokenSet(lexer.LOOP))},
		lexer.WITH:     {"with", ast.WithStatement, head.Union(reference).Union(lexer.NewTokenSet(lexer.WITH))},
		lexer.CONTROL:  {"control", ast.ControlStatement, head.Union(reference).Union(lexer.NewTokenSet(lexer.CONTROL))},
		lexer.CACHED:   {"cached", ast.CachedStatement, head.Union(condition).Union(lexer.NewTokenSet(lexer.CACHED))},
		lexer.UNCACHED: {"uncached", ast.UncachedStatement, head.Union(lexer.NewTokenSet(lexer.UNCACHED))},
		lexer.INCLUDE:  {"include", ast.IncludeStatement, head.Union(condition).Union(lexer.NewTokenSet(lexer.INCLUDE))},
		lexer.REQUIRE:  {"require", ast.RequireStatement, head.Union(reference).Union(lexer.NewTokenSet(lexer.REQUIRE, lexer.THEME_VAR))},
		lexer.BASE_TAG: {"base_tag", ast.BaseTagStatement, head.Union(lexer.NewTokenSet(lexer.BASE_TAG))},
		lexer.END:      {"", ast.BlockEndStatement, head.Union(lexer.NewTokenSet(lexer.END))},
	},
	structural: map[ast.NodeType]bool{
		ast.IfStatement:       true,
		ast.LoopStatement:     true,
		ast.WithStatement:     true,
		ast.ControlStatement:  true,
		ast.CachedStatement:   true,
		ast.UncachedStatement: true,
	},
	branch: map[ast.NodeType]bool{
		ast.ElseIfStatement: true,
		ast.ElseStatement:   true,
	},
}

// SilverStripe returns the tables for SilverStripe 3 templates.
func SilverStripe() *Tables {
	return silverStripe
}
