package rft

import "strings"

// Node is one function application in a tree. A node without children
// reads the pixel coordinates directly.
type Node struct {
	Fn       Func
	Children []*Node
}

// BuildTree draws a tree from the pool. Every node above depth zero gets
// exactly Arity children; nodes at depth zero are drawn from the leaf set.
func BuildTree(p *Pool, depth int) *Node {
	if depth <= 0 {
		return &Node{Fn: p.Leaf()}
	}
	n := &Node{Fn: p.Random()}
	n.Children = make([]*Node, n.Fn.Arity)
	for i := range n.Children {
		n.Children[i] = BuildTree(p, depth-1)
	}
	return n
}

// Eval evaluates the tree post-order at the normalised point (x, y).
func (n *Node) Eval(x, y float64) float64 {
	var buf [5]float64
	if len(n.Children) == 0 {
		buf[0], buf[1] = x, y
		return n.Fn.F(buf[:n.Fn.Arity])
	}
	for i, c := range n.Children {
		buf[i] = c.Eval(x, y)
	}
	return n.Fn.F(buf[:n.Fn.Arity])
}

func (n *Node) Depth() int {
	d := 0
	for _, c := range n.Children {
		d = max(d, c.Depth()+1)
	}
	return d
}

// String prints the tree as nested calls, with x and y at the leaves.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	b.WriteString(n.Fn.Name)
	b.WriteByte('(')
	if len(n.Children) == 0 {
		b.WriteString("x")
		if n.Fn.Arity == 2 {
			b.WriteString(", y")
		}
	}
	for i, c := range n.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		c.write(b)
	}
	b.WriteByte(')')
}
