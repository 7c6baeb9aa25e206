// Package lexer provides tokenization for SilverStripe templates
package lexer

import (
	"fmt"
	"strings"

	plexer "github.com/alecthomas/participle/v2/lexer"
)

// TokenType represents the type of token
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	BAD_CHARACTER
	WHITESPACE
	CONTENT

	// Variables and theme directives
	VAR       // $ or {$
	VAR_CLOSE // } closing a braced variable
	THEME_VAR // $ThemeDir
	STRING    // "quoted", 'quoted' or the path after $ThemeDir

	// Expression parts
	IDENTIFIER
	DOT
	COMMA
	LPAREN
	RPAREN
	OPERATOR
	NUMBER

	// Delimiters
	BLOCK_START   // <%
	BLOCK_END     // %>
	COMMENT_START // <%--
	COMMENT_END   // --%>
	COMMENT_TEXT

	// Keywords
	IF
	ELSE_IF
	ELSE
	LOOP
	WITH
	CONTROL
	CACHED
	UNCACHED
	INCLUDE
	REQUIRE
	BASE_TAG
	END // end_<name>

	tokenTypeCount
)

var tokenNames = map[TokenType]string{
	EOF:           "EOF",
	BAD_CHARACTER: "BAD_CHARACTER",
	WHITESPACE:    "WHITESPACE",
	CONTENT:       "CONTENT",
	VAR:           "VAR",
	VAR_CLOSE:     "VAR_CLOSE",
	THEME_VAR:     "THEME_VAR",
	STRING:        "STRING",
	IDENTIFIER:    "IDENTIFIER",
	DOT:           "DOT",
	COMMA:         "COMMA",
	LPAREN:        "LPAREN",
	RPAREN:        "RPAREN",
	OPERATOR:      "OPERATOR",
	NUMBER:        "NUMBER",
	BLOCK_START:   "BLOCK_START",
	BLOCK_END:     "BLOCK_END",
	COMMENT_START: "COMMENT_START",
	COMMENT_END:   "COMMENT_END",
	COMMENT_TEXT:  "COMMENT_TEXT",
	IF:            "IF",
	ELSE_IF:       "ELSE_IF",
	ELSE:          "ELSE",
	LOOP:          "LOOP",
	WITH:          "WITH",
	CONTROL:       "CONTROL",
	CACHED:        "CACHED",
	UNCACHED:      "UNCACHED",
	INCLUDE:       "INCLUDE",
	REQUIRE:       "REQUIRE",
	BASE_TAG:      "BASE_TAG",
	END:           "END",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
	Offset  int
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%s, %q, L%d:C%d}", t.Type, t.Literal, t.Line, t.Column)
}

// ---------------------------------------------------------
// Lexer rules
// ---------------------------------------------------------

// ruleTypes maps participle rule names onto token types.
var ruleTypes = map[string]TokenType{
	"Whitespace":   WHITESPACE,
	"ArgSpace":     WHITESPACE,
	"Content":      CONTENT,
	"Var":          VAR,
	"VarBrace":     VAR,
	"VarClose":     VAR_CLOSE,
	"ThemeVar":     THEME_VAR,
	"String":       STRING,
	"ThemePath":    STRING,
	"Ident":        IDENTIFIER,
	"Dot":          DOT,
	"Comma":        COMMA,
	"LParen":       LPAREN,
	"RParen":       RPAREN,
	"Operator":     OPERATOR,
	"Number":       NUMBER,
	"BlockStart":   BLOCK_START,
	"BlockEnd":     BLOCK_END,
	"CommentStart": COMMENT_START,
	"CommentEnd":   COMMENT_END,
	"CommentText":  COMMENT_TEXT,
	"If":           IF,
	"ElseIf":       ELSE_IF,
	"Else":         ELSE,
	"Loop":         LOOP,
	"With":         WITH,
	"Control":      CONTROL,
	"Cached":       CACHED,
	"Uncached":     UNCACHED,
	"Include":      INCLUDE,
	"Require":      REQUIRE,
	"BaseTag":      BASE_TAG,
	"End":          END,
	"Bad":          BAD_CHARACTER,
}

const (
	identPattern  = `[A-Za-z_][A-Za-z0-9_]*`
	stringPattern = `"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`

	// $ThemeDir/css/x.css or $ThemeDir("x.css")
	themePathPattern = `/[^\s"'<>()]*|\(\s*(?:` + stringPattern + `)\s*\)|` + stringPattern
)

var ssLexer = plexer.MustStateful(plexer.Rules{
	"Root": {
		{Name: "CommentStart", Pattern: `<%--`, Action: plexer.Push("Comment")},
		{Name: "BlockStart", Pattern: `<%`, Action: plexer.Push("Block")},
		{Name: "ThemeVar", Pattern: `\$ThemeDir`, Action: plexer.Push("Theme")},
		{Name: "VarBrace", Pattern: `\{\$`, Action: plexer.Push("BracedReference")},
		{Name: "Var", Pattern: `\$`, Action: plexer.Push("Reference")},
		{Name: "Content", Pattern: `[^$<{]+|[<{]`},
	},
	"Comment": {
		{Name: "CommentEnd", Pattern: `--%>`, Action: plexer.Pop()},
		{Name: "CommentText", Pattern: `[^-]+|-`},
	},
	"Block": {
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "BlockEnd", Pattern: `%>`, Action: plexer.Pop()},
		{Name: "BlockStart", Pattern: `<%`},
		{Name: "End", Pattern: `end_[A-Za-z0-9_]+`},
		{Name: "ElseIf", Pattern: `else_if\b`},
		{Name: "Else", Pattern: `else\b`},
		{Name: "If", Pattern: `if\b`},
		{Name: "Loop", Pattern: `loop\b`},
		{Name: "With", Pattern: `with\b`},
		{Name: "Control", Pattern: `control\b`},
		{Name: "Uncached", Pattern: `uncached\b`},
		{Name: "Cached", Pattern: `cached\b`},
		{Name: "Include", Pattern: `include\b`},
		{Name: "Require", Pattern: `require\b`},
		{Name: "BaseTag", Pattern: `base_tag\b`},
		{Name: "ThemeVar", Pattern: `\$ThemeDir`, Action: plexer.Push("Theme")},
		{Name: "Var", Pattern: `\$`, Action: plexer.Push("Reference")},
		{Name: "String", Pattern: stringPattern},
		{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
		{Name: "Operator", Pattern: `==|!=|<=|>=|&&|\|\||[=<>!+*/-]`},
		{Name: "Ident", Pattern: identPattern},
		{Name: "Dot", Pattern: `\.`},
		{Name: "Comma", Pattern: `,`},
		{Name: "LParen", Pattern: `\(`},
		{Name: "RParen", Pattern: `\)`},
		{Name: "Bad", Pattern: `.`},
	},
	"Reference": {
		{Name: "Ident", Pattern: identPattern},
		{Name: "Dot", Pattern: `\.`},
		{Name: "LParen", Pattern: `\(`, Action: plexer.Push("Args")},
		plexer.Return(),
	},
	"BracedReference": {
		{Name: "VarClose", Pattern: `\}`, Action: plexer.Pop()},
		plexer.Include("Reference"),
	},
	"Args": {
		{Name: "RParen", Pattern: `\)`, Action: plexer.Pop()},
		{Name: "ArgSpace", Pattern: `[ \t]+`},
		{Name: "Var", Pattern: `\$`, Action: plexer.Push("Reference")},
		{Name: "String", Pattern: stringPattern},
		{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
		{Name: "Comma", Pattern: `,`},
		{Name: "Ident", Pattern: identPattern},
		{Name: "Dot", Pattern: `\.`},
		plexer.Return(),
	},
	"Theme": {
		{Name: "ThemePath", Pattern: themePathPattern, Action: plexer.Pop()},
		plexer.Return(),
	},
})

// symbolTypes translates participle's token types into ours.
var symbolTypes = func() map[plexer.TokenType]TokenType {
	m := make(map[plexer.TokenType]TokenType)
	for name, sym := range ssLexer.Symbols() {
		if t, ok := ruleTypes[name]; ok {
			m[sym] = t
		}
	}
	return m
}()

// ---------------------------------------------------------
// Lexer
// ---------------------------------------------------------

// Lexer tokenizes SilverStripe template source
type Lexer struct {
	lex  plexer.Lexer
	err  error
	done bool
}

// New creates a new Lexer
func New(input string) *Lexer {
	l := &Lexer{}
	lex, err := ssLexer.LexString("", input)
	if err != nil {
		l.err = err
		l.done = true
		return l
	}
	l.lex = lex
	return l
}

// NextToken returns the next token. After the input is exhausted, or after
// a tokenizer failure, it keeps returning EOF.
func (l *Lexer) NextToken() Token {
	if l.done {
		return Token{Type: EOF}
	}
	ptok, err := l.lex.Next()
	if err != nil {
		l.err = err
		l.done = true
		return Token{Type: EOF}
	}
	tok := Token{
		Literal: ptok.Value,
		Line:    ptok.Pos.Line,
		Column:  ptok.Pos.Column,
		Offset:  ptok.Pos.Offset,
	}
	if ptok.EOF() {
		l.done = true
		tok.Type = EOF
		return tok
	}
	t, ok := symbolTypes[ptok.Type]
	if !ok {
		t = BAD_CHARACTER
	}
	tok.Type = t
	return tok
}

// Err returns the first tokenizer failure, if any.
func (l *Lexer) Err() error {
	return l.err
}

// Tokenize returns all tokens from input, terminated by an EOF token
func Tokenize(input string) ([]Token, error) {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	if l.err != nil {
		return tokens, fmt.Errorf("tokenize: %w", l.err)
	}
	return tokens, nil
}

// Join concatenates token literals, reproducing the source they cover.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Literal)
	}
	return b.String()
}
