package dom

import "strings"

// Node is an element of a Document.
type Node struct {
	id      string
	classes []string
	attrs   map[string]string
	text    string
	content any

	attached    bool
	removed     bool
	removeHooks []func()
}

// NewNode creates a detached node with the given id.
func NewNode(id string) *Node {
	return &Node{id: id, attrs: make(map[string]string)}
}

// WithAttr sets an attribute and returns n for chaining.
func (n *Node) WithAttr(name, value string) *Node {
	n.attrs[name] = value
	if name == "class" {
		n.classes = strings.Fields(value)
	}
	return n
}

// WithText sets the initial text content and returns n for chaining.
func (n *Node) WithText(text string) *Node {
	n.text = text
	return n
}

// ID returns the node id.
func (n *Node) ID() string {
	return n.id
}

// Attr returns the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// Text returns the text content.
func (n *Node) Text() string {
	return n.text
}

// SetText replaces the text content.
func (n *Node) SetText(text string) {
	n.text = text
}

// Content returns the mounted content.
func (n *Node) Content() any {
	return n.content
}

// Mount attaches rendered content, such as a chart, to the node.
func (n *Node) Mount(content any) {
	n.content = content
}

// Attached reports whether the node is currently in a document.
func (n *Node) Attached() bool {
	return n.attached
}

// OnRemove registers fn to run when the node is removed. Hooks registered on
// an already removed node never run.
func (n *Node) OnRemove(fn func()) {
	if n.removed {
		return
	}
	n.removeHooks = append(n.removeHooks, fn)
}

// remove fires the removal hooks exactly once.
func (n *Node) remove() {
	if n.removed {
		return
	}
	n.removed = true
	n.attached = false
	hooks := n.removeHooks
	n.removeHooks = nil
	for _, fn := range hooks {
		fn()
	}
	n.content = nil
}

func (n *Node) matches(sel selector) bool {
	switch sel.kind {
	case selectID:
		return n.id == sel.name
	case selectClass:
		for _, c := range n.classes {
			if c == sel.name {
				return true
			}
		}
		return false
	case selectAttr:
		v, ok := n.attrs[sel.name]
		if !ok {
			return false
		}
		return !sel.hasValue || v == sel.value
	}
	return false
}
