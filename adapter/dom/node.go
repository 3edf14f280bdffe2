package dom

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/trickstertwo/xpubsub"
)

const (
	DocumentName   = "#document"
	ShadowRootName = "#shadow-root"
)

// Node is one node of the tree. Nodes are compared by identity.
type Node struct {
	name string

	mu        sync.RWMutex
	parent    *Node
	children  []*Node
	host      *Node // set on shadow roots
	shadow    *Node
	listeners map[string][]registration

	loaded atomic.Bool
}

type registration struct {
	listener xpubsub.EventListener
	capture  bool
}

var _ xpubsub.Target = (*Node)(nil)

// NewDocument returns a new root node.
func NewDocument() *Node { return NewElement(DocumentName) }

// NewElement returns a detached node.
func NewElement(name string) *Node {
	return &Node{name: name, listeners: make(map[string][]registration)}
}

func (n *Node) Name() string { return n.name }

func (n *Node) String() string {
	if n.IsShadowRoot() {
		return fmt.Sprintf("%s(%s)", ShadowRootName, n.Host().name)
	}
	return n.name
}

// AppendChild moves child under n and returns it. It returns nil and leaves
// the tree unchanged when child is a shadow root or an ancestor of n, hosts
// included, since either would break the tree.
func (n *Node) AppendChild(child *Node) *Node {
	if child == nil || child.IsShadowRoot() || n.hasInclusiveAncestor(child) {
		return nil
	}
	if old := child.Parent(); old != nil {
		old.RemoveChild(child)
	}

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()

	child.mu.Lock()
	child.parent = n
	child.mu.Unlock()
	return child
}

// RemoveChild detaches child from n. It reports whether child was a child of n.
func (n *Node) RemoveChild(child *Node) bool {
	n.mu.Lock()
	idx := -1
	for i, c := range n.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		n.mu.Unlock()
		return false
	}
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	n.mu.Unlock()

	child.mu.Lock()
	child.parent = nil
	child.mu.Unlock()
	return true
}

func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// AttachShadow returns the shadow root hosted by n, creating it on first call.
func (n *Node) AttachShadow() *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.shadow == nil {
		root := NewElement(ShadowRootName)
		root.host = n
		n.shadow = root
	}
	return n.shadow
}

func (n *Node) ShadowRoot() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.shadow
}

// Host returns the element hosting n when n is a shadow root.
func (n *Node) Host() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.host
}

func (n *Node) IsShadowRoot() bool { return n.Host() != nil }

// IsSameNode reports whether t is this very node.
func (n *Node) IsSameNode(t xpubsub.Target) bool {
	other, ok := t.(*Node)
	return ok && other == n
}

// Contains reports whether other is n or a descendant of n in the same tree.
// Shadow boundaries are not crossed.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.Parent() {
		if cur == n {
			return true
		}
	}
	return false
}

// hasInclusiveAncestor reports whether a is n or one of its ancestors,
// following shadow roots to their hosts.
func (n *Node) hasInclusiveAncestor(a *Node) bool {
	for cur := n; cur != nil; {
		if cur == a {
			return true
		}
		cur.mu.RLock()
		next := cur.parent
		if next == nil {
			next = cur.host
		}
		cur.mu.RUnlock()
		cur = next
	}
	return false
}

// AddEventListener registers l for the target and bubble phases of eventType.
func (n *Node) AddEventListener(eventType string, l xpubsub.EventListener) {
	n.addListener(eventType, l, false)
}

// AddCaptureListener registers l for the capture and target phases of eventType.
func (n *Node) AddCaptureListener(eventType string, l xpubsub.EventListener) {
	n.addListener(eventType, l, true)
}

func (n *Node) addListener(eventType string, l xpubsub.EventListener, capture bool) {
	if l == nil {
		return
	}
	n.mu.Lock()
	n.listeners[eventType] = append(n.listeners[eventType], registration{listener: l, capture: capture})
	n.mu.Unlock()
}

// ListenerCount returns the number of native listeners for eventType.
func (n *Node) ListenerCount(eventType string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners[eventType])
}

// ContentLoaded fires DOMContentLoaded on n once; later calls do nothing.
func (n *Node) ContentLoaded() error {
	if n.loaded.Swap(true) {
		return nil
	}
	_, err := n.DispatchEvent(xpubsub.NewEvent(ContentLoadedEvent, xpubsub.EventInit{}))
	return err
}
