package tree

// Walk visits n and its descendants depth-first. fn returns false to skip a
// node's children.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Find returns the first node decoded at path, or nil.
func (n *Node) Find(path string) *Node {
	var found *Node
	Walk(n, func(c *Node, _ int) bool {
		if found != nil {
			return false
		}
		if c.Path == path {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node decoded at path, in tree order.
func (n *Node) FindAll(path string) []*Node {
	var out []*Node
	Walk(n, func(c *Node, _ int) bool {
		if c.Path == path {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Errors returns every node that carries an error marker.
func (n *Node) Errors() []*Node {
	var out []*Node
	Walk(n, func(c *Node, _ int) bool {
		if c.Err != nil {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	count := 0
	Walk(n, func(*Node, int) bool {
		count++
		return true
	})
	return count
}
