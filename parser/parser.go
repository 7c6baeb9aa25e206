// Package parser builds the concrete syntax tree of a SilverStripe template
// in a single pass over its tokens.
package parser

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/LingHeChen/sstree/ast"
	"github.com/LingHeChen/sstree/builder"
	"github.com/LingHeChen/sstree/grammar"
	"github.com/LingHeChen/sstree/lexer"
)

const unclosedStatement = "unclosed %s statement"

// Parser holds configuration shared by parses. It keeps no per-parse
// state, so one Parser may run several parses concurrently.
type Parser struct {
	tables *grammar.Tables
	logger *slog.Logger
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger used for debug tracing
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a parser over the given grammar tables. A nil tables value
// selects grammar.SilverStripe().
func New(tables *grammar.Tables, opts ...Option) *Parser {
	if tables == nil {
		tables = grammar.SilverStripe()
	}
	p := &Parser{
		tables: tables,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tables returns the grammar tables the parser was built with.
func (p *Parser) Tables() *grammar.Tables {
	return p.tables
}

// Parse consumes every token of b and returns a tree rooted at a node of
// type root whose only child is the top-level Statements node. It never
// fails: malformed input yields local Error nodes or loose tokens.
func (p *Parser) Parse(root ast.NodeType, b *builder.Builder) *ast.Node {
	s := &state{Parser: p, b: b, tok: p.tables.Tokens}

	rootMarker := b.Mark()
	wrapperMarker := b.Mark()
	s.parseTree()
	wrapperMarker.Done(ast.Statements)
	rootMarker.Done(root)
	return b.Tree()
}

// ParseTokens parses a token slice into a File tree.
func (p *Parser) ParseTokens(tokens []lexer.Token) *ast.Node {
	return p.Parse(ast.File, builder.New(tokens, p.tables.Trivia))
}

// ParseString tokenizes and parses template source.
func (p *Parser) ParseString(input string) (*ast.Node, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return p.ParseTokens(tokens), nil
}

// ParseFile parses template source with the SilverStripe tables
func ParseFile(input string) (*ast.Node, error) {
	return New(nil).ParseString(input)
}

// ---------------------------------------------------------
// Per-parse state
// ---------------------------------------------------------

// A nil record means the concern is idle; a non-nil record always holds a
// live marker.
type (
	varState struct {
		m builder.Marker
	}
	blockState struct {
		m       builder.Marker
		literal string
		typ     ast.NodeType
		follow  lexer.TokenSet
	}
	commentState struct {
		m builder.Marker
	}
	// themeState waits for the path after a completed ThemeDir node.
	themeState struct {
		m builder.Marker
	}
	// chainState tracks the innermost node of a field reference chain.
	// depth counts the open argument lists of the reference; a chain
	// started inside them keeps the enclosing one in outer.
	chainState struct {
		last  builder.Marker
		depth int
		outer *chainState
	}
)

// frame is one open structural block: its completed head, the keyword
// text, and the statements of the branch being read.
type frame struct {
	opener  builder.Marker
	literal string
	body    builder.Marker
}

type state struct {
	*Parser
	b   *builder.Builder
	tok grammar.Tokens

	peekToken *lexer.Token

	variable *varState
	block    *blockState
	comment  *commentState
	theme    *themeState
	chain    *chainState

	frames []frame
}

func (s *state) nextToken() lexer.Token {
	if s.peekToken == nil {
		t := s.b.Peek()
		s.peekToken = &t
	}
	return *s.peekToken
}

func (s *state) parseTree() {
	for !s.b.EOF() {
		typ := s.b.TokenType()
		s.beforeConsume(typ)
		s.b.Advance()
		s.afterConsume(typ)
		s.peekToken = nil
	}
	s.eofCleanup()
}

func (s *state) beforeConsume(typ lexer.TokenType) {
	if typ == s.tok.VarStart {
		if s.variable != nil {
			s.variable.m.Drop()
		}
		s.variable = &varState{m: s.b.Mark()}
	}
	if typ == s.tok.CommentStart {
		if s.comment != nil {
			s.comment.m.Drop()
		}
		s.comment = &commentState{m: s.b.Mark()}
	}
	if typ == s.tok.Theme {
		s.theme = &themeState{m: s.b.Mark()}
	}

	if typ == s.tok.BlockStart && s.block == nil {
		next := s.nextToken()
		if follow, ok := s.tables.Follow(next.Type); ok {
			nt, _ := s.tables.NodeType(next.Type)
			s.block = &blockState{
				m:       s.b.Mark(),
				literal: next.Literal,
				typ:     nt,
				follow:  follow,
			}
		}
	}

	if s.theme != nil && typ != s.tok.Theme && typ != s.tok.String {
		s.theme = nil
	}
}

func (s *state) afterConsume(typ lexer.TokenType) {
	if typ == s.tok.VarEnd && s.variable != nil {
		s.variable.m.Done(ast.NamedVar)
		s.startChain(s.variable.m)
		s.variable = nil
	}

	if typ == s.tok.Theme && s.theme != nil {
		s.theme.m.Done(ast.ThemeDir)
	}

	if typ == s.tok.String && s.theme != nil {
		s.theme.m.Precede().Done(ast.ThemeFilePath)
		s.theme = nil
	}

	if typ == s.tok.Identifier && s.chain != nil && s.chain.depth == 0 {
		ref := s.chain.last.Precede()
		ref.Done(ast.FieldReference)
		s.chain.last = ref
	}

	if typ == s.tok.CommentEnd && s.comment != nil {
		s.comment.m.Done(ast.CommentStatement)
		s.comment = nil
	}

	if typ == s.tok.BlockEnd && s.block != nil {
		blk := s.block
		s.block = nil
		blk.m.Done(blk.typ)
		s.matchBlock(blk)
	}

	if s.block != nil && !s.block.follow.Contains(typ) {
		s.logger.Debug("dropping block head", "keyword", s.block.literal, "token", typ.String())
		s.block.m.Drop()
		s.block = nil
	}

	s.continueChain(typ)
}

// startChain begins a field reference chain at a completed variable. Inside
// an argument list the new chain nests; elsewhere it replaces the old one.
func (s *state) startChain(v builder.Marker) {
	for s.chain != nil && s.chain.depth == 0 && s.chain.outer != nil {
		s.chain = s.chain.outer
	}
	if s.chain != nil && s.chain.depth > 0 {
		s.chain = &chainState{last: v, outer: s.chain}
		return
	}
	s.chain = &chainState{last: v}
}

// continueChain keeps the chain alive through field separators, identifiers
// and argument lists. Any other token ends the innermost chain and is then
// offered to the enclosing one.
func (s *state) continueChain(typ lexer.TokenType) {
	for s.chain != nil {
		c := s.chain
		if c.depth == 0 {
			switch typ {
			case s.tok.VarEnd, s.tok.Identifier, s.tok.FieldSep:
				return
			case s.tok.ArgOpen:
				c.depth++
				return
			}
		} else if s.tables.Arguments.Contains(typ) {
			switch typ {
			case s.tok.ArgOpen:
				c.depth++
			case s.tok.ArgClose:
				c.depth--
			}
			return
		}
		s.chain = c.outer
	}
}

// matchBlock nests a just completed block head: structural heads open a
// frame, branches split the frame's body, and terminators close the frame
// when their text is end_ followed by the opening keyword.
func (s *state) matchBlock(blk *blockState) {
	switch {
	case s.tables.IsStructural(blk.typ):
		s.frames = append(s.frames, frame{
			opener:  blk.m,
			literal: blk.literal,
			body:    s.b.Mark(),
		})
		s.logger.Debug("block opened", "keyword", blk.literal, "depth", len(s.frames))

	case s.tables.IsBranch(blk.typ):
		if len(s.frames) == 0 {
			return
		}
		top := &s.frames[len(s.frames)-1]
		top.body.DoneBefore(ast.Statements, blk.m)
		top.body = s.b.Mark()
		s.logger.Debug("branch", "keyword", blk.literal, "block", top.literal)

	case blk.typ == s.tables.Terminator:
		if len(s.frames) == 0 {
			return
		}
		top := s.frames[len(s.frames)-1]
		s.frames = s.frames[:len(s.frames)-1]
		if blk.literal == "end_"+top.literal {
			top.body.DoneBefore(ast.Statements, blk.m)
			top.opener.Precede().Done(ast.BlockStatement)
			s.logger.Debug("block closed", "keyword", top.literal, "depth", len(s.frames))
			return
		}
		top.body.Drop()
		s.logger.Debug("mismatched terminator", "want", "end_"+top.literal, "got", blk.literal)
	}
}

func (s *state) eofCleanup() {
	if s.block != nil {
		s.logger.Debug("unclosed statement", "keyword", s.block.literal)
		s.block.m.Error(fmt.Sprintf(unclosedStatement, s.block.literal))
		s.block = nil
	}
	if s.comment != nil {
		s.comment.m.Drop()
		s.comment = nil
	}
	if s.variable != nil {
		s.variable.m.Drop()
		s.variable = nil
	}
	for len(s.frames) > 0 {
		top := s.frames[len(s.frames)-1]
		s.frames = s.frames[:len(s.frames)-1]
		top.body.Drop()
	}
	s.theme = nil
	s.chain = nil
}
