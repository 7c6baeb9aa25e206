// Package ast defines the concrete syntax tree for SilverStripe templates
package ast

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LingHeChen/sstree/lexer"
)

// NodeType identifies what a tree node represents
type NodeType int

const (
	Token NodeType = iota // leaf wrapping one lexer token
	File
	Statements
	NamedVar
	FieldReference
	CommentStatement
	ThemeDir
	ThemeFilePath
	BlockStatement
	IfStatement
	ElseIfStatement
	ElseStatement
	LoopStatement
	WithStatement
	ControlStatement
	CachedStatement
	UncachedStatement
	IncludeStatement
	RequireStatement
	BaseTagStatement
	BlockEndStatement
	Error
)

var nodeTypeNames = map[NodeType]string{
	Token:             "Token",
	File:              "File",
	Statements:        "Statements",
	NamedVar:          "NamedVar",
	FieldReference:    "FieldReference",
	CommentStatement:  "CommentStatement",
	ThemeDir:          "ThemeDir",
	ThemeFilePath:     "ThemeFilePath",
	BlockStatement:    "BlockStatement",
	IfStatement:       "IfStatement",
	ElseIfStatement:   "ElseIfStatement",
	ElseStatement:     "ElseStatement",
	LoopStatement:     "LoopStatement",
	WithStatement:     "WithStatement",
	ControlStatement:  "ControlStatement",
	CachedStatement:   "CachedStatement",
	UncachedStatement: "UncachedStatement",
	IncludeStatement:  "IncludeStatement",
	RequireStatement:  "RequireStatement",
	BaseTagStatement:  "BaseTagStatement",
	BlockEndStatement: "BlockEndStatement",
	Error:             "Error",
}

func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NodeType(%d)", t)
}

// Position represents a location in source code
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ---------------------------------------------------------
// Node
// ---------------------------------------------------------

// Node is one element of the tree. Leaves have Type Token and carry the
// lexer token; every other node only has children.
type Node struct {
	Type     NodeType
	Tok      *lexer.Token
	Children []*Node
	Message  string // set on Error nodes
}

// IsLeaf reports whether n wraps a single token.
func (n *Node) IsLeaf() bool {
	return n.Type == Token
}

// Pos returns the position of the first token covered by n. Empty nodes
// report the zero Position.
func (n *Node) Pos() Position {
	if n.IsLeaf() {
		return Position{Line: n.Tok.Line, Column: n.Tok.Column, Offset: n.Tok.Offset}
	}
	for _, c := range n.Children {
		if leaf := c.firstLeaf(); leaf != nil {
			return leaf.Pos()
		}
	}
	return Position{}
}

func (n *Node) firstLeaf() *Node {
	if n.IsLeaf() {
		return n
	}
	for _, c := range n.Children {
		if leaf := c.firstLeaf(); leaf != nil {
			return leaf
		}
	}
	return nil
}

// Text returns the source text covered by n.
func (n *Node) Text() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n.IsLeaf() {
		b.WriteString(n.Tok.Literal)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// Tokens returns the leaves under n in source order.
func (n *Node) Tokens() []lexer.Token {
	var out []lexer.Token
	Walk(n, func(c *Node) bool {
		if c.IsLeaf() {
			out = append(out, *c.Tok)
		}
		return true
	})
	return out
}

// Composite returns the non-leaf children of n.
func (n *Node) Composite() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if !c.IsLeaf() {
			out = append(out, c)
		}
	}
	return out
}

// Leaf returns the first direct leaf child of the given token type.
func (n *Node) Leaf(t lexer.TokenType) *lexer.Token {
	for _, c := range n.Children {
		if c.IsLeaf() && c.Tok.Type == t {
			return c.Tok
		}
	}
	return nil
}

// FieldPath unwinds a chain of nested field references into the names it
// spells, innermost first: $a.b.c yields [a b c]. It returns nil for nodes
// that are neither FieldReference nor NamedVar.
func (n *Node) FieldPath() []string {
	switch n.Type {
	case NamedVar:
		return []string{}
	case FieldReference:
	default:
		return nil
	}
	// The first child is the chain being extended; later references are
	// call arguments.
	var path []string
	var name string
	for i, c := range n.Children {
		switch {
		case i == 0 && (c.Type == FieldReference || c.Type == NamedVar):
			path = c.FieldPath()
		case c.IsLeaf() && c.Tok.Type == lexer.IDENTIFIER:
			name = c.Tok.Literal
		}
	}
	if path == nil {
		path = []string{}
	}
	return append(path, name)
}

// ---------------------------------------------------------
// Traversal
// ---------------------------------------------------------

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Find returns every node of the given type under n, including n itself.
func Find(n *Node, t NodeType) []*Node {
	var out []*Node
	Walk(n, func(c *Node) bool {
		if c.Type == t {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Count returns the number of nodes of type t under n.
func Count(n *Node, t NodeType) int {
	return len(Find(n, t))
}

// ---------------------------------------------------------
// Debug output
// ---------------------------------------------------------

// Dump renders the tree with one node per line, two spaces per level.
// Leaves print as TYPE("text").
func (n *Node) Dump() string {
	var b strings.Builder
	n.dump(&b, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	switch {
	case n.IsLeaf():
		fmt.Fprintf(b, "%s(%q)\n", n.Tok.Type, n.Tok.Literal)
		return
	case n.Type == Error:
		fmt.Fprintf(b, "Error: %s\n", n.Message)
	default:
		b.WriteString(n.Type.String())
		b.WriteByte('\n')
	}
	for _, c := range n.Children {
		c.dump(b, depth+1)
	}
}

// Sexpr renders only the composite structure, e.g.
// (File (Statements (NamedVar))).
func (n *Node) Sexpr() string {
	if n.IsLeaf() {
		return ""
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(n.Type.String())
	for _, c := range n.Children {
		if c.IsLeaf() {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(c.Sexpr())
	}
	b.WriteByte(')')
	return b.String()
}

type jsonNode struct {
	Type     string     `json:"type"`
	Token    string     `json:"token,omitempty"`
	Text     string     `json:"text,omitempty"`
	Pos      string     `json:"pos,omitempty"`
	Message  string     `json:"message,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

func (n *Node) toJSON() jsonNode {
	j := jsonNode{Type: n.Type.String(), Message: n.Message}
	if n.IsLeaf() {
		j.Token = n.Tok.Type.String()
		j.Text = n.Tok.Literal
		j.Pos = n.Pos().String()
		return j
	}
	for _, c := range n.Children {
		j.Children = append(j.Children, c.toJSON())
	}
	return j
}

// MarshalJSON renders the tree for external tooling.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

// ---------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------

// Diagnostic is a message attached to a node of the tree
type Diagnostic struct {
	Pos     Position
	Message string
	Text    string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Pos, d.Message)
}

// Diagnostics collects the messages of every Error node under root.
func Diagnostics(root *Node) []Diagnostic {
	var out []Diagnostic
	Walk(root, func(n *Node) bool {
		if n.Type == Error {
			out = append(out, Diagnostic{Pos: n.Pos(), Message: n.Message, Text: n.Text()})
		}
		return true
	})
	return out
}
