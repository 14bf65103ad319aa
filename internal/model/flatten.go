package model

// Flatten returns every node reachable from root, each exactly once, in
// first-visit order. Traversal is depth-first: a node is emitted, then its
// children (see Children) before its siblings.
//
// Shared sub-trees and cycles are visited once. Nodes without an ID are
// walked through so their children are still found, but they are not part
// of the output. When two distinct nodes carry the same ID only the first
// one visited is emitted.
func Flatten(root *Node) []*Node {
	if root == nil {
		return nil
	}
	f := flattener{
		seen: make(map[*Node]bool),
		ids:  make(map[string]bool),
	}
	f.visit(root)
	return f.out
}

type flattener struct {
	seen map[*Node]bool
	ids  map[string]bool
	out  []*Node
}

func (f *flattener) visit(root *Node) {
	// Explicit stack so very deep trees cannot exhaust the goroutine stack.
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil || f.seen[n] {
			continue
		}
		f.seen[n] = true

		if n.ID != "" && !f.ids[n.ID] {
			f.ids[n.ID] = true
			f.out = append(f.out, n)
		}

		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			if !f.seen[children[i]] {
				stack = append(stack, children[i])
			}
		}
	}
}
