package regalloc

import "math"

// Graph coloring register allocation (Chaitin/Briggs with conservative
// coalescing).
//
// Each cycle runs simplify, coalesce, freeze and optimistic push until the
// live graph is empty, then select pops the removal stack and colors. If
// select leaves nodes uncolored, the cheapest of them is spilled for good
// and the cycle restarts; the graph is never rebuilt.

type nodeState uint8

const (
	nodeLive nodeState = iota
	nodeStacked
	nodeSpilled
	nodeCoalesced
)

const noColor = -1

// removal is a removal stack entry: the node and the live neighbors it had
// when it left the graph.
type removal struct {
	node      int
	neighbors []int
}

type colorer struct {
	s *AllocationSession
	g *InterferenceGraph
	k int

	state  []nodeState
	degree []int
	color  []int
	alias  []int
	stack  []removal

	result *Result
}

func (s *AllocationSession) color() *Result {
	g := s.graph.Clone()
	n := g.Len()
	c := &colorer{
		s:      s,
		g:      g,
		k:      s.opts.Registers,
		state:  make([]nodeState, n),
		degree: make([]int, n),
		color:  make([]int, n),
		alias:  make([]int, n),
		result: newResult(),
	}
	for i := range c.alias {
		c.alias[i] = i
		c.color[i] = noColor
	}
	if s.opts.DisableCoalescing {
		for i := range g.moves {
			g.moves[i] = IntSet{}
		}
	}

	if c.k == 0 {
		for i := 0; i < n; i++ {
			c.spillNode(i)
		}
		return c.buildResult()
	}

	for iter := 1; ; iter++ {
		invariant(iter <= n+1, "coloring did not converge after %d cycles", iter-1)
		invariant(len(c.stack) == 0, "removal stack holds %d nodes at cycle start", len(c.stack))
		c.result.Stats.Iterations = iter

		c.startCycle()
		c.reduce()
		potential := c.selectColors()
		invariant(len(c.stack) == 0, "removal stack holds %d nodes after select", len(c.stack))

		if len(potential) == 0 {
			break
		}
		victim := c.cheapest(potential)
		s.log.Debug("spill", "value", g.values[victim], "weight", g.weights[victim],
			"degree", c.degree[victim], "cycle", iter)
		c.spillNode(victim)
	}
	return c.buildResult()
}

// startCycle returns every remaining node to the live graph, uncolored.
func (c *colorer) startCycle() {
	for n := range c.state {
		if c.state[n] == nodeStacked {
			c.state[n] = nodeLive
		}
		c.color[n] = noColor
	}
	for n := range c.state {
		if c.state[n] == nodeLive {
			c.degree[n] = c.liveDegree(n)
		}
	}
}

func (c *colorer) liveDegree(n int) int {
	d := 0
	c.g.adj[n].Range(func(m int) {
		if c.state[m] == nodeLive {
			d++
		}
	})
	return d
}

// reduce empties the live graph onto the removal stack.
func (c *colorer) reduce() {
	for {
		if n := c.pickSimplify(); n >= 0 {
			c.push(n)
			continue
		}
		if c.coalesce() {
			continue
		}
		if n := c.pickFreeze(); n >= 0 {
			c.s.log.Debug("freeze", "value", c.g.values[n])
			c.freeze(n)
			continue
		}
		if n := c.pickOptimistic(); n >= 0 {
			c.s.log.Debug("optimistic push", "value", c.g.values[n], "degree", c.degree[n])
			c.freeze(n)
			c.push(n)
			continue
		}
		return
	}
}

func (c *colorer) moveRelated(n int) bool {
	return !c.g.moves[n].Empty()
}

// pickSimplify returns the lowest live node with degree < k that is not
// move related, or -1.
func (c *colorer) pickSimplify() int {
	for n, st := range c.state {
		if st == nodeLive && c.degree[n] < c.k && !c.moveRelated(n) {
			return n
		}
	}
	return -1
}

// push removes n from the live graph onto the removal stack.
func (c *colorer) push(n int) {
	var saved []int
	c.g.adj[n].Range(func(m int) {
		if c.state[m] == nodeLive {
			saved = append(saved, m)
			c.degree[m]--
		}
	})
	c.state[n] = nodeStacked
	c.stack = append(c.stack, removal{node: n, neighbors: saved})
}

// coalesce performs one coalescing step and reports whether anything
// changed. Moves between interfering nodes are discarded; the first
// move-related pair passing the Briggs test is merged.
func (c *colorer) coalesce() bool {
	for a, st := range c.state {
		if st != nodeLive {
			continue
		}
		for _, b := range c.g.moves[a].Slice() {
			if c.state[b] != nodeLive {
				continue
			}
			if c.g.adj[a].Contains(b) {
				c.dropMove(a, b)
				return true
			}
			if c.briggs(a, b) {
				lo, hi := a, b
				if hi < lo {
					lo, hi = hi, lo
				}
				c.merge(lo, hi)
				return true
			}
		}
	}
	return false
}

// briggs reports whether merging a and b leaves fewer than k neighbors of
// significant degree.
func (c *colorer) briggs(a, b int) bool {
	neighbors := c.g.adj[a].Union(c.g.adj[b])
	high := 0
	neighbors.Range(func(m int) {
		if c.state[m] == nodeLive && c.degree[m] >= c.k {
			high++
		}
	})
	return high < c.k
}

// merge folds b into a: b's edges and moves are redirected to a and b
// leaves the graph.
func (c *colorer) merge(a, b int) {
	g := c.g
	g.adj[b].Range(func(m int) {
		g.adj[m].Remove(b)
		if c.state[m] == nodeLive {
			c.degree[m]--
		}
		if m == a || g.adj[a].Contains(m) {
			return
		}
		g.adj[a].Add(m)
		g.adj[m].Add(a)
		if c.state[m] == nodeLive {
			c.degree[m]++
			c.degree[a]++
		}
	})
	g.adj[b] = IntSet{}

	g.moves[b].Range(func(m int) {
		g.moves[m].Remove(b)
		if m != a {
			g.moves[a].Add(m)
			g.moves[m].Add(a)
		}
	})
	g.moves[b] = IntSet{}
	g.moves[a].Remove(b)

	g.weights[a] += g.weights[b]
	c.alias[b] = a
	c.state[b] = nodeCoalesced
	c.result.Stats.Coalesced++
	c.s.log.Debug("coalesce", "into", g.values[a], "from", g.values[b])
}

func (c *colorer) dropMove(a, b int) {
	c.g.moves[a].Remove(b)
	c.g.moves[b].Remove(a)
}

// pickFreeze returns the lowest live, low-degree, move-related node, or -1.
func (c *colorer) pickFreeze() int {
	for n, st := range c.state {
		if st == nodeLive && c.degree[n] < c.k && c.moveRelated(n) {
			return n
		}
	}
	return -1
}

// freeze gives up on coalescing n.
func (c *colorer) freeze(n int) {
	for _, m := range c.g.moves[n].Slice() {
		c.dropMove(n, m)
	}
}

// pickOptimistic returns the live node cheapest to spill, or -1 once the
// live graph is empty. It is pushed in the hope that select still finds a
// color for it.
func (c *colorer) pickOptimistic() int {
	var live []int
	for n, st := range c.state {
		if st == nodeLive {
			live = append(live, n)
		}
	}
	if len(live) == 0 {
		return -1
	}
	return c.cheapest(live)
}

// cheapest returns the node with the lowest weight/degree ratio; ties go
// to the lower weight, then the lower node id.
func (c *colorer) cheapest(nodes []int) int {
	best := -1
	var bestCost float64
	for _, n := range nodes {
		cost := c.spillCost(n)
		if best < 0 || cost < bestCost ||
			(cost == bestCost && c.g.weights[n] < c.g.weights[best]) ||
			(cost == bestCost && c.g.weights[n] == c.g.weights[best] && n < best) {
			best, bestCost = n, cost
		}
	}
	return best
}

func (c *colorer) spillCost(n int) float64 {
	if c.degree[n] == 0 {
		// Removing a node with no neighbors relieves no pressure
		return math.Inf(1)
	}
	return c.g.weights[n] / float64(c.degree[n])
}

func (c *colorer) find(n int) int {
	for c.alias[n] != n {
		n = c.alias[n]
	}
	return n
}

// selectColors drains the removal stack, restoring each node's saved edges
// and giving it the lowest color none of its colored neighbors use. Nodes
// left without a color are returned as potential spills.
func (c *colorer) selectColors() []int {
	var potential []int
	for len(c.stack) > 0 {
		top := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		n := top.node

		c.state[n] = nodeLive

		var used IntSet
		for _, m := range top.neighbors {
			if col := c.color[c.find(m)]; col != noColor {
				used.Add(col)
			}
		}
		for col := 0; col < c.k; col++ {
			if !used.Contains(col) {
				c.color[n] = col
				break
			}
		}
		if c.color[n] == noColor {
			potential = append(potential, n)
		}
	}
	for n, st := range c.state {
		if st == nodeLive {
			c.degree[n] = c.liveDegree(n)
		}
	}
	return potential
}

// spillNode removes n from the graph permanently. Values coalesced into n
// share its stack slot.
func (c *colorer) spillNode(n int) {
	g := c.g
	g.adj[n].Range(func(m int) {
		g.adj[m].Remove(n)
		if c.state[m] == nodeLive {
			c.degree[m]--
		}
	})
	g.adj[n] = IntSet{}
	for _, m := range g.moves[n].Slice() {
		c.dropMove(n, m)
	}
	c.state[n] = nodeSpilled
	c.color[n] = noColor

	slot := c.result.spill(g.values[n])
	for m := range c.alias {
		if m != n && c.state[m] == nodeCoalesced && c.find(m) == n {
			c.result.spillInto(g.values[m], slot)
		}
	}
}

func (c *colorer) buildResult() *Result {
	for n := range c.state {
		r := c.find(n)
		if c.state[r] == nodeSpilled {
			continue
		}
		invariant(c.color[r] != noColor, "value %d left uncolored", c.g.values[n])
		c.result.Assignment[c.g.values[n]] = Register{Index: uint32(c.color[r])}
		if r == n {
			c.result.Stats.ColoredNodes++
		}
	}
	return c.result
}
