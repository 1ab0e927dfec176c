// Package scene is a minimal host tree for driving save sessions without an
// engine: named nodes with ordered children, embedded into tagged types.
package scene

import "github.com/danmuck/krgsave/internal/persist"

// Base gives an embedding type its name and children.
type Base struct {
	name     string
	children []persist.Node
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) SetName(name string) {
	b.name = name
}

func (b *Base) Children() []persist.Node {
	return b.children
}

// Add appends children in order; nil children are ignored.
func (b *Base) Add(children ...persist.Node) {
	for _, c := range children {
		if c != nil {
			b.children = append(b.children, c)
		}
	}
}

// Group is an untagged container node.
type Group struct {
	Base
}

func NewGroup(name string, children ...persist.Node) *Group {
	g := &Group{}
	g.SetName(name)
	g.Add(children...)
	return g
}

// Walk visits root and its descendants in pre-order.
func Walk(root persist.Node, fn func(n persist.Node, depth int)) {
	type frame struct {
		node  persist.Node
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node == nil {
			continue
		}
		fn(f.node, f.depth)
		children := f.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.depth + 1})
		}
	}
}
