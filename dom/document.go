package dom

import (
	"fmt"
	"sort"
	"strings"
)

// Document is an ordered set of attached nodes plus the attach broadcast.
type Document struct {
	nodes   []*Node
	subs    map[int]func()
	nextSub int
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{subs: make(map[int]func())}
}

// OnAttach implements Bus.
func (d *Document) OnAttach(fn func()) func() {
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	return func() { delete(d.subs, id) }
}

// Subscribers returns the number of attach subscriptions.
func (d *Document) Subscribers() int {
	return len(d.subs)
}

// Query implements Bus. Supported selectors are "#id", ".class", "[attr]"
// and "[attr=value]". Unsupported selectors match nothing.
func (d *Document) Query(selector string) Element {
	n := d.Find(selector)
	if n == nil {
		return nil
	}
	return n
}

// Find is Query returning the concrete node.
func (d *Document) Find(selector string) *Node {
	sel, err := parseSelector(selector)
	if err != nil {
		return nil
	}
	for _, n := range d.nodes {
		if n.matches(sel) {
			return n
		}
	}
	return nil
}

// Nodes returns the attached nodes in document order.
func (d *Document) Nodes() []*Node {
	out := make([]*Node, len(d.nodes))
	copy(out, d.nodes)
	return out
}

// Append attaches nodes at the end of the document and broadcasts an attach
// signal.
func (d *Document) Append(nodes ...*Node) {
	for _, n := range nodes {
		n.attached = true
	}
	d.nodes = append(d.nodes, nodes...)
	d.Broadcast()
}

// Swap replaces the node with id target by fragment. The old node receives
// its removal signal before the fragment is attached; the attach signal is
// broadcast afterwards. If no node has that id the fragment is appended.
func (d *Document) Swap(target string, fragment ...*Node) {
	idx := -1
	for i, n := range d.nodes {
		if n.id == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		d.Append(fragment...)
		return
	}

	old := d.nodes[idx]
	old.remove()

	for _, n := range fragment {
		n.attached = true
	}
	rest := append([]*Node{}, d.nodes[idx+1:]...)
	d.nodes = append(append(d.nodes[:idx], fragment...), rest...)
	d.Broadcast()
}

// Remove detaches the node with the given id, firing its removal signal.
// It reports whether a node was removed.
func (d *Document) Remove(id string) bool {
	for i, n := range d.nodes {
		if n.id == id {
			d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)
			n.remove()
			return true
		}
	}
	return false
}

// Clear removes every node, firing each removal signal once.
func (d *Document) Clear() {
	nodes := d.nodes
	d.nodes = nil
	for _, n := range nodes {
		n.remove()
	}
}

// Broadcast fires the attach signal. Subscriptions added while the signal is
// being delivered wait for the next broadcast.
func (d *Document) Broadcast() {
	ids := make([]int, 0, len(d.subs))
	for id := range d.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := d.subs[id]; ok {
			fn()
		}
	}
}

type selectorKind int

const (
	selectID selectorKind = iota
	selectClass
	selectAttr
)

type selector struct {
	kind     selectorKind
	name     string
	value    string
	hasValue bool
}

func parseSelector(s string) (selector, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#") && len(s) > 1:
		return selector{kind: selectID, name: s[1:]}, nil
	case strings.HasPrefix(s, ".") && len(s) > 1:
		return selector{kind: selectClass, name: s[1:]}, nil
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") && len(s) > 2:
		body := s[1 : len(s)-1]
		name, value, hasValue := strings.Cut(body, "=")
		value = strings.Trim(value, `"'`)
		return selector{kind: selectAttr, name: name, value: value, hasValue: hasValue}, nil
	}
	return selector{}, fmt.Errorf("unsupported selector %q", s)
}
