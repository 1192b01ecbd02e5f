package rollup

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/tagtree/internal/hierarchy"
)

// Kind classifies a node by which card set represents it.
type Kind int

const (
	// Empty nodes have no direct and no rolled-up cards.
	Empty Kind = iota
	// Leaf nodes carry at least one card directly and are represented by those cards.
	Leaf
	// ParentOnly nodes exist only through their descendants and are represented
	// by the rolled-up set.
	ParentOnly
)

func (k Kind) String() string {
	switch k {
	case Leaf:
		return "leaf"
	case ParentOnly:
		return "parent-only"
	default:
		return "empty"
	}
}

var emptyBitmap = roaring.New()

// Node is the rolled-up view of one tag path.
type Node struct {
	Tag       string
	Direct    *roaring.Bitmap // cards carrying Tag verbatim
	RolledUp  *roaring.Bitmap // Direct ∪ every descendant's RolledUp
	Children  []string
	Ancestors []string
}

// DirectCount returns |Direct|.
func (n *Node) DirectCount() int { return int(n.Direct.GetCardinality()) }

// HierarchicalCount returns |RolledUp|.
func (n *Node) HierarchicalCount() int { return int(n.RolledUp.GetCardinality()) }

// ChildrenCount returns the number of rolled-up cards not carried directly.
func (n *Node) ChildrenCount() int { return n.HierarchicalCount() - n.DirectCount() }

// Kind classifies the node. A node with direct cards is a Leaf even when it has
// children; a node without direct cards but with rolled-up cards is ParentOnly.
func (n *Node) Kind() Kind {
	switch {
	case !n.Direct.IsEmpty():
		return Leaf
	case !n.RolledUp.IsEmpty():
		return ParentOnly
	default:
		return Empty
	}
}

// Cards returns the set representing the node: Direct for leaves, RolledUp for
// parent-only nodes and an empty set otherwise. The bitmap must not be modified.
func (n *Node) Cards() *roaring.Bitmap {
	switch n.Kind() {
	case Leaf:
		return n.Direct
	case ParentOnly:
		return n.RolledUp
	default:
		return emptyBitmap
	}
}

// Result holds one Node per tag path of the forest and index.
type Result struct {
	nodes map[string]*Node
	tags  []string
}

// Aggregate rolls card sets up the forest. Paths are processed deepest first so
// every child is final before its parent reads it; one pass suffices.
func Aggregate(idx *Index, forest *hierarchy.Forest) *Result {
	tags := idx.Tags()
	for _, p := range forest.Parents() {
		if !idx.Has(p) {
			tags = append(tags, p)
		}
	}
	depth := make(map[string]int, len(tags))
	for _, t := range tags {
		depth[t] = hierarchy.Depth(t)
	}
	sort.Slice(tags, func(i, j int) bool {
		di, dj := depth[tags[i]], depth[tags[j]]
		if di != dj {
			return di > dj
		}
		return tags[i] < tags[j]
	})

	nodes := make(map[string]*Node, len(tags))
	for _, tag := range tags {
		direct := idx.Direct(tag)
		if direct == nil {
			direct = emptyBitmap
		}
		rolled := direct.Clone()
		children := forest.Children(tag)
		for _, child := range children {
			if done, ok := nodes[child]; ok {
				rolled.Or(done.RolledUp)
			} else if cd := idx.Direct(child); cd != nil {
				// Unreachable with depth ordering; floor at the child's direct set.
				rolled.Or(cd)
			}
		}
		rolled.RunOptimize()

		ancestors := forest.Ancestors(tag)
		if children == nil {
			children = []string{}
		}
		nodes[tag] = &Node{
			Tag:       tag,
			Direct:    direct,
			RolledUp:  rolled,
			Children:  children,
			Ancestors: ancestors,
		}
	}

	sort.Strings(tags)
	return &Result{nodes: nodes, tags: tags}
}

// Node returns the node of tag.
func (r *Result) Node(tag string) (*Node, bool) {
	n, ok := r.nodes[tag]
	return n, ok
}

// Tags returns every tag path of the result, sorted.
func (r *Result) Tags() []string { return r.tags }

// Len returns the number of nodes.
func (r *Result) Len() int { return len(r.tags) }

// Each calls fn for every node in tag order.
func (r *Result) Each(fn func(n *Node)) {
	for _, t := range r.tags {
		fn(r.nodes[t])
	}
}

// ParentOnlyCount returns the number of ParentOnly nodes.
func (r *Result) ParentOnlyCount() int {
	n := 0
	for _, node := range r.nodes {
		if node.Kind() == ParentOnly {
			n++
		}
	}
	return n
}
