package nodes

// replica is one copy of a subgraph made by cloneSubgraph.
type replica struct {
	entry Node
	// exits are the copies wired to the boundary node.
	exits []Node
}

// Clone copies the subgraph reachable from entry up to boundary, which is
// shared rather than copied. Parents outside the subgraph are not copied.
// Every copy has fresh edges, data and barrier state.
func Clone(entry, boundary Node) Node {
	return cloneSubgraph(entry, boundary).entry
}

// cloneSubgraph copies each reachable node exactly once, so a join inside
// the subgraph keeps all of its parents. Copies wired to boundary are
// returned as exits; adding them to boundary's parents is up to the caller.
func cloneSubgraph(entry, boundary Node) replica {
	if entry == boundary {
		return replica{entry: boundary}
	}

	memo := make(map[Node]Node)
	var exits []Node
	var copyNode func(n Node) Node
	copyNode = func(n Node) Node {
		if c, ok := memo[n]; ok {
			return c
		}
		c := n.blank()
		memo[n] = c
		for _, child := range n.Children() {
			if child == boundary {
				c.AddChild(boundary)
				exits = append(exits, c)
				continue
			}
			cc := copyNode(child)
			c.AddChild(cc)
			cc.AddParent(c)
		}
		return c
	}

	root := copyNode(entry)
	for _, c := range memo {
		c.rebind(memo)
	}
	return replica{entry: root, exits: exits}
}

// stampLoopCounter tags every function between entry and boundary.
func stampLoopCounter(entry, boundary Node, loop string, counter int) {
	seen := make(map[Node]struct{})
	var visit func(n Node)
	visit = func(n Node) {
		if n == boundary {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		n.setLoopCounter(loop, counter)
		for _, c := range n.Children() {
			visit(c)
		}
	}
	visit(entry)
}
