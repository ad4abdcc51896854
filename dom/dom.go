// Package dom models the lifecycle signals of a partially swapped page.
//
// A Document broadcasts an attach signal after every swap and lets callers
// query the nodes that are currently present. Each Node carries removal hooks
// that fire exactly once, immediately before the node leaves the document.
// Documents are not safe for concurrent use; hosts drive them from a single
// event loop.
package dom

// Element is the view of a node that widgets bind to.
type Element interface {
	ID() string
	Attr(name string) (string, bool)
	Text() string
	SetText(text string)
	// Content returns what was mounted into the element, if anything.
	Content() any
	Mount(content any)
	// OnRemove registers fn to run once when this element is removed.
	OnRemove(fn func())
}

// Bus is the lifecycle event source widgets subscribe to.
type Bus interface {
	// OnAttach subscribes fn to every attach broadcast and returns a function
	// that unsubscribes it.
	OnAttach(fn func()) (unsubscribe func())
	// Query returns the first attached element matching selector, or nil.
	Query(selector string) Element
}
