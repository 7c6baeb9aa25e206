package builder

import (
	"fmt"

	"github.com/LingHeChen/sstree/ast"
	"github.com/LingHeChen/sstree/lexer"
)

type markerState uint8

const (
	stateOpen markerState = iota
	stateDone
	stateDropped
)

func (s markerState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateDone:
		return "done"
	default:
		return "dropped"
	}
}

// production is one marker's record in the arena. start and end are token
// indices; end is exclusive and only meaningful once the marker is done.
type production struct {
	start int
	end   int
	typ   ast.NodeType
	msg   string
	state markerState
}

// event is a start or done entry in the ordered production list. Nesting
// in the final tree follows the order of events, not only their indices,
// which is what lets Precede and DoneBefore splice spans retroactively.
type event struct {
	id   int
	done bool
}

// Builder combines a Cursor with an arena of span markers.
type Builder struct {
	*Cursor
	prods  []production
	events []event
}

// New returns a Builder over tokens, skipping the trivia types.
func New(tokens []lexer.Token, trivia lexer.TokenSet) *Builder {
	return &Builder{Cursor: NewCursor(tokens, trivia)}
}

// Marker is a handle on an arena production. Exactly one of Done,
// DoneBefore, Error or Drop must be applied to each marker.
type Marker struct {
	b  *Builder
	id int
}

// Mark opens a marker at the current token.
func (b *Builder) Mark() Marker {
	id := len(b.prods)
	b.prods = append(b.prods, production{start: b.pos, end: -1})
	b.events = append(b.events, event{id: id})
	return Marker{b: b, id: id}
}

func (m Marker) prod() *production {
	return &m.b.prods[m.id]
}

func (m Marker) require(op string, want markerState) {
	if m.b == nil {
		panic(fmt.Sprintf("builder: %s on zero Marker", op))
	}
	if st := m.prod().state; st != want {
		panic(fmt.Sprintf("builder: %s on %s marker #%d", op, st, m.id))
	}
}

// Done completes the marker as a node of type t covering every token
// consumed since it was opened.
func (m Marker) Done(t ast.NodeType) {
	m.require("Done", stateOpen)
	p := m.prod()
	p.typ = t
	p.end = max(m.b.lastEnd, p.start)
	p.state = stateDone
	m.b.events = append(m.b.events, event{id: m.id, done: true})
}

// Error completes the marker as an Error node carrying msg.
func (m Marker) Error(msg string) {
	m.Done(ast.Error)
	m.prod().msg = msg
}

// Drop discards the marker. Tokens and nodes it covered stay in place and
// become children of its parent.
func (m Marker) Drop() {
	m.require("Drop", stateOpen)
	m.prod().state = stateDropped
	i := m.b.startEvent(m.id)
	m.b.events = append(m.b.events[:i], m.b.events[i+1:]...)
}

// Precede opens a new marker that starts where m starts, so that
// completing it later wraps m. m may be open or done.
func (m Marker) Precede() Marker {
	if m.b == nil {
		panic("builder: Precede on zero Marker")
	}
	if m.prod().state == stateDropped {
		panic(fmt.Sprintf("builder: Precede on dropped marker #%d", m.id))
	}
	b := m.b
	id := len(b.prods)
	b.prods = append(b.prods, production{start: m.prod().start, end: -1})
	b.insertEvent(b.startEvent(m.id), event{id: id})
	return Marker{b: b, id: id}
}

// DoneBefore completes the marker as a node of type t ending where before
// starts. before must have been opened after m.
func (m Marker) DoneBefore(t ast.NodeType, before Marker) {
	m.require("DoneBefore", stateOpen)
	if before.b != m.b || before.prod().state == stateDropped {
		panic(fmt.Sprintf("builder: DoneBefore #%d with invalid marker", m.id))
	}
	at := m.b.startEvent(before.id)
	if at < m.b.startEvent(m.id) {
		panic(fmt.Sprintf("builder: DoneBefore #%d before earlier marker #%d", m.id, before.id))
	}
	p := m.prod()
	p.typ = t
	p.end = max(before.prod().start, p.start)
	p.state = stateDone
	m.b.insertEvent(at, event{id: m.id, done: true})
}

func (b *Builder) startEvent(id int) int {
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].id == id && !b.events[i].done {
			return i
		}
	}
	panic(fmt.Sprintf("builder: no start event for marker #%d", id))
}

func (b *Builder) insertEvent(i int, ev event) {
	b.events = append(b.events, event{})
	copy(b.events[i+1:], b.events[i:])
	b.events[i] = ev
}

// Unresolved returns the number of markers that are still open.
func (b *Builder) Unresolved() int {
	n := 0
	for _, p := range b.prods {
		if p.state == stateOpen {
			n++
		}
	}
	return n
}

// Tree assembles the completed markers into a node tree. Markers still
// open are ignored as if dropped. If two done markers overlap without
// nesting, the inner one is cut short where the outer one ends.
//
// When a single node spans the input it is returned directly, otherwise
// the top-level nodes are wrapped in a File node.
func (b *Builder) Tree() *ast.Node {
	type openNode struct {
		id   int
		node *ast.Node
	}
	var (
		container = &ast.Node{Type: ast.File}
		stack     []openNode
		loose     []*ast.Node
		closed    = make([]bool, len(b.prods))
		emitted   int
	)

	flush := func(upto int) {
		for ; emitted < upto && emitted < len(b.tokens); emitted++ {
			leaf := &ast.Node{Type: ast.Token, Tok: &b.tokens[emitted]}
			if len(stack) == 0 {
				loose = append(loose, leaf)
				continue
			}
			top := stack[len(stack)-1].node
			top.Children = append(top.Children, leaf)
		}
	}

	for _, ev := range b.events {
		p := &b.prods[ev.id]
		if p.state != stateDone {
			continue
		}
		if !ev.done {
			flush(p.start)
			n := &ast.Node{Type: p.typ, Message: p.msg}
			if len(stack) == 0 {
				n.Children, loose = loose, nil
				container.Children = append(container.Children, n)
			} else {
				top := stack[len(stack)-1].node
				top.Children = append(top.Children, n)
			}
			stack = append(stack, openNode{id: ev.id, node: n})
			continue
		}
		if closed[ev.id] {
			continue
		}
		k := len(stack) - 1
		for k >= 0 && stack[k].id != ev.id {
			k--
		}
		if k < 0 {
			continue
		}
		flush(p.end)
		for j := len(stack) - 1; j >= k; j-- {
			closed[stack[j].id] = true
		}
		stack = stack[:k]
	}
	flush(len(b.tokens))

	if len(loose) > 0 {
		if n := len(container.Children); n > 0 {
			last := container.Children[n-1]
			last.Children = append(last.Children, loose...)
		} else {
			container.Children = loose
		}
	}
	if len(container.Children) == 1 && !container.Children[0].IsLeaf() {
		return container.Children[0]
	}
	return container
}
