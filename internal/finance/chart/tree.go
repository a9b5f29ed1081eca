package chart

import (
	"sort"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
)

// Tree is a parent-indexed arena over a flat node set. Children are
// resolved by index at read time, so rebuilding is a pure function over
// the records and ownership cycles cannot form.
type Tree struct {
	nodes    map[int64]Node
	children map[int64][]int64
	roots    []int64
}

// BuildTree assembles parent/child links from flat records. A node
// whose parent id does not resolve becomes a root. Cycles and mixed
// classifications within a subtree are rejected.
func BuildTree(nodes []Node) (*Tree, error) {
	t := &Tree{
		nodes:    make(map[int64]Node, len(nodes)),
		children: make(map[int64][]int64),
	}
	for _, n := range nodes {
		if _, dup := t.nodes[n.ID]; dup {
			return nil, finshared.Validationf("cuenta contable %d duplicada", n.ID)
		}
		t.nodes[n.ID] = n
	}
	for _, n := range nodes {
		if n.ParentID != nil {
			if _, ok := t.nodes[*n.ParentID]; ok {
				t.children[*n.ParentID] = append(t.children[*n.ParentID], n.ID)
				continue
			}
		}
		t.roots = append(t.roots, n.ID)
	}

	// Walking up from every node must terminate at a root; a repeat
	// visit means the parent chain loops.
	for _, n := range nodes {
		seen := map[int64]bool{n.ID: true}
		current := n
		for current.ParentID != nil {
			parent, ok := t.nodes[*current.ParentID]
			if !ok {
				break
			}
			if seen[parent.ID] {
				return nil, finshared.Validationf("ciclo en el plan de cuentas (nodo %d)", n.ID)
			}
			seen[parent.ID] = true
			if parent.Classification != current.Classification {
				return nil, finshared.Validationf("clasificacion de %s difiere de su ancestro %s", current.Code, parent.Code)
			}
			current = parent
		}
	}

	sortByCode := func(ids []int64) {
		sort.Slice(ids, func(i, j int) bool {
			return t.nodes[ids[i]].Code < t.nodes[ids[j]].Code
		})
	}
	sortByCode(t.roots)
	for id := range t.children {
		sortByCode(t.children[id])
	}
	return t, nil
}

// Roots returns the root nodes in code order.
func (t *Tree) Roots() []Node {
	return t.resolve(t.roots)
}

// Children returns the direct children of id in code order.
func (t *Tree) Children(id int64) []Node {
	return t.resolve(t.children[id])
}

// Get looks up a node by id.
func (t *Tree) Get(id int64) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) resolve(ids []int64) []Node {
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.nodes[id])
	}
	return out
}

// NestedNode is the hierarchical view of a node with its descendants.
type NestedNode struct {
	Node
	Children []*NestedNode `json:"hijos,omitempty"`
}

// Nested materialises the arena as a nested hierarchy, depth-first.
func (t *Tree) Nested() []*NestedNode {
	out := make([]*NestedNode, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.nested(id))
	}
	return out
}

func (t *Tree) nested(id int64) *NestedNode {
	node := &NestedNode{Node: t.nodes[id]}
	for _, childID := range t.children[id] {
		node.Children = append(node.Children, t.nested(childID))
	}
	return node
}
