// Package uitree builds the declarative UI trees rendered by the frontend.
//
// A tree is a flat map of keyed elements plus the key of the root:
//
//	{"_type": "ui-tree", "root": "chart-card", "elements": {"chart-card": {...}}}
//
// Children reference other elements by key.
package uitree

// TreeType is the discriminator the frontend uses to detect a UI tree payload.
const TreeType = "ui-tree"

// Tree is a complete UI tree.
type Tree struct {
	Type     string             `json:"_type"`
	Root     string             `json:"root"`
	Elements map[string]Element `json:"elements"`
}

// Element is a single keyed node of a UI tree.
type Element struct {
	Key      string         `json:"key"`
	Type     string         `json:"type"`
	Props    map[string]any `json:"props"`
	Children []string       `json:"children,omitempty"`
}

// New creates a tree rooted at root from the given elements.
func New(root string, elements ...Element) Tree {
	t := Tree{Type: TreeType, Root: root, Elements: make(map[string]Element, len(elements))}
	for _, e := range elements {
		t.Elements[e.Key] = e
	}
	return t
}

// Builder assembles a tree incrementally. The first added element becomes
// the root unless SetRoot is called.
type Builder struct {
	root     string
	elements map[string]Element
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{elements: make(map[string]Element)}
}

// Add inserts or replaces an element.
func (b *Builder) Add(e Element) *Builder {
	b.elements[e.Key] = e
	if b.root == "" {
		b.root = e.Key
	}
	return b
}

// SetRoot overrides the root key.
func (b *Builder) SetRoot(key string) *Builder {
	b.root = key
	return b
}

// Build returns the finished tree.
func (b *Builder) Build() Tree {
	elements := make(map[string]Element, len(b.elements))
	for k, v := range b.elements {
		elements[k] = v
	}
	return Tree{Type: TreeType, Root: b.root, Elements: elements}
}
