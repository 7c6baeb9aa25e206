// Package outline summarizes a template tree as nested scopes
package outline

import (
	"fmt"
	"strings"

	"github.com/LingHeChen/sstree/ast"
	"github.com/LingHeChen/sstree/lexer"
)

// Ref is a named occurrence in the source
type Ref struct {
	Name string
	Pos  ast.Position
}

func (r Ref) String() string {
	return fmt.Sprintf("%s@%s", r.Name, r.Pos)
}

// Scope represents the body of a block statement. The file itself is the
// root scope.
type Scope struct {
	Name     string
	Pos      ast.Position
	Refs     []Ref
	Themes   []Ref
	Includes []Ref
	Requires []Ref
	Children []*Scope

	vars   map[string]Ref
	parent *Scope
}

// NewScope creates a new scope
func NewScope(name string, parent *Scope) *Scope {
	s := &Scope{
		Name:   name,
		vars:   make(map[string]Ref),
		parent: parent,
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Parent returns the enclosing scope, or nil for the root
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Set records the first reference to a top-level variable name
func (s *Scope) Set(name string, ref Ref) {
	if _, ok := s.vars[name]; !ok {
		s.vars[name] = ref
	}
}

// Get gets a variable referenced in this scope only
func (s *Scope) Get(name string) (Ref, bool) {
	ref, ok := s.vars[name]
	return ref, ok
}

// Lookup gets a variable, looking up parent scopes
func (s *Scope) Lookup(name string) (Ref, bool) {
	if ref, ok := s.vars[name]; ok {
		return ref, true
	}
	if s.parent != nil {
		return s.parent.Lookup(name)
	}
	return Ref{}, false
}

// Depth returns the number of enclosing scopes
func (s *Scope) Depth() int {
	d := 0
	for p := s.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// String renders the scope tree, one scope per line, with its references
func (s *Scope) String() string {
	var b strings.Builder
	s.write(&b, 0)
	return b.String()
}

func (s *Scope) write(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s\n", indent, s.Name)
	for _, group := range []struct {
		label string
		refs  []Ref
	}{
		{"ref", s.Refs},
		{"theme", s.Themes},
		{"include", s.Includes},
		{"require", s.Requires},
	} {
		for _, r := range group.refs {
			fmt.Fprintf(b, "%s  - %s %s\n", indent, group.label, r)
		}
	}
	for _, c := range s.Children {
		c.write(b, depth+1)
	}
}

// ---------------------------------------------------------
// Building
// ---------------------------------------------------------

// Build walks a parsed tree and returns its root scope
func Build(root *ast.Node) *Scope {
	s := NewScope("file", nil)
	s.Pos = root.Pos()
	collect(s, root)
	return s
}

func collect(s *Scope, n *ast.Node) {
	for _, c := range n.Children {
		visit(s, c)
	}
}

func visit(s *Scope, n *ast.Node) {
	switch n.Type {
	case ast.Token:
		return

	case ast.BlockStatement:
		parts := n.Composite()
		if len(parts) == 0 {
			return
		}
		// The opening head is evaluated in the enclosing scope.
		head := parts[0]
		visit(s, head)
		inner := NewScope(headName(head), s)
		inner.Pos = head.Pos()
		for _, p := range parts[1:] {
			switch p.Type {
			case ast.Statements:
				collect(inner, p)
			case ast.BlockEndStatement:
			default:
				visit(inner, p)
			}
		}

	case ast.FieldReference, ast.NamedVar:
		path := n.FieldPath()
		if len(path) == 0 {
			return
		}
		ref := Ref{Name: strings.Join(path, "."), Pos: n.Pos()}
		s.Refs = append(s.Refs, ref)
		s.Set(path[0], ref)
		visitArgs(s, n)

	case ast.ThemeFilePath:
		if tok := n.Leaf(lexer.STRING); tok != nil {
			s.Themes = append(s.Themes, Ref{Name: strings.Trim(tok.Literal, "()\"' \t"), Pos: n.Pos()})
		}

	case ast.IncludeStatement:
		if name := headArgs(n); name != "" {
			s.Includes = append(s.Includes, Ref{Name: name, Pos: n.Pos()})
		}
		collect(s, n)

	case ast.RequireStatement:
		if name := headArgs(n); name != "" {
			s.Requires = append(s.Requires, Ref{Name: name, Pos: n.Pos()})
		}
		collect(s, n)

	default:
		collect(s, n)
	}
}

// visitArgs records references nested in the call arguments of a chain.
func visitArgs(s *Scope, ref *ast.Node) {
	for ref != nil && ref.Type == ast.FieldReference && len(ref.Children) > 0 {
		for _, c := range ref.Children[1:] {
			visit(s, c)
		}
		ref = ref.Children[0]
	}
}

// headArgs returns the source text between a head's keyword and its
// closing delimiter.
func headArgs(head *ast.Node) string {
	var b strings.Builder
	seenKeyword := false
	for _, tok := range head.Tokens() {
		switch {
		case tok.Type == lexer.BLOCK_START || tok.Type == lexer.BLOCK_END:
			continue
		case !seenKeyword:
			if tok.Type != lexer.WHITESPACE {
				seenKeyword = true
			}
			continue
		}
		b.WriteString(tok.Literal)
	}
	return strings.TrimSpace(b.String())
}

func headName(head *ast.Node) string {
	var keyword string
	for _, tok := range head.Tokens() {
		if tok.Type != lexer.BLOCK_START && tok.Type != lexer.WHITESPACE {
			keyword = tok.Literal
			break
		}
	}
	if args := headArgs(head); args != "" {
		return keyword + " " + args
	}
	return keyword
}
