// Package builder turns a token slice into a tree through span markers
package builder

import "github.com/LingHeChen/sstree/lexer"

// Cursor walks a token slice one significant token at a time. Trivia
// tokens are skipped but keep their index, so markers opened and closed
// by the Builder still cover them.
type Cursor struct {
	tokens  []lexer.Token
	trivia  lexer.TokenSet
	pos     int // index of the current significant token
	lastEnd int // index just past the last consumed significant token
}

// NewCursor creates a Cursor over tokens. EOF tokens are discarded.
func NewCursor(tokens []lexer.Token, trivia lexer.TokenSet) *Cursor {
	kept := make([]lexer.Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Type != lexer.EOF {
			kept = append(kept, tok)
		}
	}
	c := &Cursor{tokens: kept, trivia: trivia}
	c.pos = c.skipTrivia(0)
	return c
}

func (c *Cursor) skipTrivia(i int) int {
	for i < len(c.tokens) && c.trivia.Contains(c.tokens[i].Type) {
		i++
	}
	return i
}

// EOF reports whether every significant token has been consumed.
func (c *Cursor) EOF() bool {
	return c.pos >= len(c.tokens)
}

// Token returns the current token, or an EOF token at the end.
func (c *Cursor) Token() lexer.Token {
	if c.EOF() {
		return c.eofToken()
	}
	return c.tokens[c.pos]
}

// TokenType returns the type of the current token.
func (c *Cursor) TokenType() lexer.TokenType {
	return c.Token().Type
}

// TokenText returns the literal of the current token.
func (c *Cursor) TokenText() string {
	return c.Token().Literal
}

// Advance consumes the current token.
func (c *Cursor) Advance() {
	if c.EOF() {
		return
	}
	c.lastEnd = c.pos + 1
	c.pos = c.skipTrivia(c.pos + 1)
}

// Peek returns the significant token after the current one without
// moving the cursor.
func (c *Cursor) Peek() lexer.Token {
	if c.EOF() {
		return c.eofToken()
	}
	i := c.skipTrivia(c.pos + 1)
	if i >= len(c.tokens) {
		return c.eofToken()
	}
	return c.tokens[i]
}

func (c *Cursor) eofToken() lexer.Token {
	tok := lexer.Token{Type: lexer.EOF}
	if n := len(c.tokens); n > 0 {
		last := c.tokens[n-1]
		tok.Line = last.Line
		tok.Offset = last.Offset + len(last.Literal)
	}
	return tok
}

// Len returns the number of tokens, trivia included.
func (c *Cursor) Len() int {
	return len(c.tokens)
}
