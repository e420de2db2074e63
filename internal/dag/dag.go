// Package dag provides the directed graph over table lineage used for
// orchestration ordering and impact analysis. Edges point from source
// tables to the targets they feed. Malformed input can produce cycles,
// so detection reports the offending path instead of assuming
// acyclicity.
package dag

import (
	"fmt"
	"sort"

	"github.com/layerline-io/layerline/internal/schema"
)

// Node is one table in the lineage graph. Table is nil for external
// nodes: upstream names referenced by mappings that never resolved to a
// parsed table.
type Node struct {
	ID    string
	Table *schema.Table
}

// External reports whether the node is an unresolved upstream
// reference rather than a parsed table.
func (n *Node) External() bool {
	return n.Table == nil
}

// Graph is a directed graph keyed by table name.
type Graph struct {
	nodes    map[string]*Node
	children map[string][]string // source -> targets it feeds
	parents  map[string][]string // target -> sources feeding it
}

// New creates an empty lineage graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddTable adds a parsed table as a node. Re-adding upgrades an
// external placeholder to a real table node.
func (g *Graph) AddTable(t *schema.Table) {
	if n, ok := g.nodes[t.Name]; ok {
		n.Table = t
		return
	}
	g.nodes[t.Name] = &Node{ID: t.Name, Table: t}
	g.children[t.Name] = []string{}
	g.parents[t.Name] = []string{}
}

// AddExternal adds a placeholder node for an upstream name with no
// parsed table behind it.
func (g *Graph) AddExternal(name string) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	g.nodes[name] = &Node{ID: name}
	g.children[name] = []string{}
	g.parents[name] = []string{}
}

// AddEdge records that target is fed from source. Both nodes must
// already exist. Duplicate edges are collapsed; self-edges are
// rejected.
func (g *Graph) AddEdge(source, target string) error {
	if _, ok := g.nodes[source]; !ok {
		return fmt.Errorf("source node %q does not exist", source)
	}
	if _, ok := g.nodes[target]; !ok {
		return fmt.Errorf("target node %q does not exist", target)
	}
	if source == target {
		return fmt.Errorf("self-referential lineage: %s", source)
	}
	if !contains(g.children[source], target) {
		g.children[source] = append(g.children[source], target)
	}
	if !contains(g.parents[target], source) {
		g.parents[target] = append(g.parents[target], source)
	}
	return nil
}

// Node returns the named node, if present.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Parents returns the direct upstream sources of a node.
func (g *Graph) Parents(name string) []string {
	return g.parents[name]
}

// Children returns the direct downstream targets of a node.
func (g *Graph) Children(name string) []string {
	return g.children[name]
}

// Nodes returns all nodes sorted by ID for deterministic output.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, c := range g.children {
		n += len(c)
	}
	return n
}

// DetectCycle reports whether the graph contains a cycle, returning the
// cycle path when one exists.
func (g *Graph) DetectCycle() (bool, []string) {
	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cycle []string
	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		inStack[id] = true
		for _, child := range g.children[id] {
			if !visited[child] {
				cameFrom[child] = id
				if dfs(child) {
					return true
				}
			} else if inStack[child] {
				cycle = []string{child}
				for cur := id; cur != child; cur = cameFrom[cur] {
					cycle = append([]string{cur}, cycle...)
				}
				cycle = append([]string{child}, cycle...)
				return true
			}
		}
		inStack[id] = false
		return false
	}

	for _, id := range sortedIDs(g.nodes) {
		if !visited[id] {
			if dfs(id) {
				return true, cycle
			}
		}
	}
	return false, nil
}

// TopoSort returns nodes with every source before the targets it feeds.
// Returns an error naming the cycle path if the graph is cyclic.
func (g *Graph) TopoSort() ([]*Node, error) {
	if cyclic, path := g.DetectCycle(); cyclic {
		return nil, fmt.Errorf("lineage cycle detected: %v", path)
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parent := range g.parents[id] {
			visit(parent)
		}
		result = append(result, g.nodes[id])
	}

	for _, id := range sortedIDs(g.nodes) {
		visit(id)
	}
	return result, nil
}

// Levels groups node IDs by execution level: level 0 has no upstream
// dependencies, level N depends only on earlier levels. Nodes within a
// level are independent of each other.
func (g *Graph) Levels() ([][]string, error) {
	if cyclic, path := g.DetectCycle(); cyclic {
		return nil, fmt.Errorf("lineage cycle detected: %v", path)
	}

	assigned := make(map[string]int)
	var level func(id string) int
	level = func(id string) int {
		if l, ok := assigned[id]; ok {
			return l
		}
		max := -1
		for _, parent := range g.parents[id] {
			if pl := level(parent); pl > max {
				max = pl
			}
		}
		assigned[id] = max + 1
		return max + 1
	}

	maxLevel := 0
	for id := range g.nodes {
		if l := level(id); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for id, l := range assigned {
		levels[l] = append(levels[l], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Upstream returns every node reachable by walking parent edges from
// the given node, up to maxDepth hops (0 means unlimited). Results are
// sorted.
func (g *Graph) Upstream(name string, maxDepth int) []string {
	return g.walk(name, maxDepth, g.parents)
}

// Downstream returns every node reachable by walking child edges from
// the given node, up to maxDepth hops (0 means unlimited). Results are
// sorted.
func (g *Graph) Downstream(name string, maxDepth int) []string {
	return g.walk(name, maxDepth, g.children)
}

func (g *Graph) walk(start string, maxDepth int, next map[string][]string) []string {
	seen := make(map[string]bool)
	frontier := []string{start}
	for depth := 0; len(frontier) > 0 && (maxDepth == 0 || depth < maxDepth); depth++ {
		var nextFrontier []string
		for _, id := range frontier {
			for _, neighbor := range next[id] {
				if neighbor == start || seen[neighbor] {
					continue
				}
				seen[neighbor] = true
				nextFrontier = append(nextFrontier, neighbor)
			}
		}
		frontier = nextFrontier
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortedIDs(nodes map[string]*Node) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
