package main

import (
	"bytes"
	"fmt"
)

// Tree rules
// - A tree is a rooted phylogenetic tree. Leaves are taxa and carry names,
// internal nodes usually don't.
// - Every node except the root has exactly one parent and a branch length,
// which is the length of the edge between the node and its parent. The root
// has no edge above it, so its BranchLen is 0 and stays 0.
// - Nodes live in a flat slice and refer to each other by index. Nothing is
// ever removed from the slice, so an index is stable for the lifetime of the
// tree.

type Node struct {
	Name      string
	BranchLen float64
	Parent    int64
	Children  []int64
}

type Tree struct {
	Nodes []Node
	Root  int64
}

const (
	TopologyYuleHarding = "yule-harding"
	TopologyUniform     = "uniform"
	TopologyCaterpillar = "caterpillar"
	TopologyBalanced    = "balanced"
	TopologyStar        = "star"
)

const (
	BranchLengthUniform     = "uniform"
	BranchLengthExponential = "exponential"
	BranchLengthGamma       = "gamma"
)

// Default range for generated branch lengths, in expected substitutions per
// site. Branches shorter than the minimum are invisible to the simulation and
// branches longer than the maximum are saturated, so values outside this range
// only make the output harder to look at.
const DefaultMinBranchLen = 0.001
const DefaultMeanBranchLen = 0.1
const DefaultMaxBranchLen = 0.999

func NewTree() Tree {
	t := Tree{}
	t.Nodes = append(t.Nodes, Node{Parent: -1})
	t.Root = 0
	return t
}

// AddNode appends a new node as a child of parent and returns its index.
func (t *Tree) AddNode(parent int64, name string) int64 {
	idx := int64(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{Name: name, Parent: parent})
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
	return idx
}

func (t *Tree) IsLeaf(i int64) bool {
	return len(t.Nodes[i].Children) == 0
}

// Leaves returns the indices of all leaves in depth-first order. This order is
// the canonical order of taxa everywhere: in alignments, in output files and
// in regression hashes.
func (t *Tree) Leaves() []int64 {
	var leaves []int64
	var visit func(i int64)
	visit = func(i int64) {
		if t.IsLeaf(i) {
			leaves = append(leaves, i)
			return
		}
		for _, c := range t.Nodes[i].Children {
			visit(c)
		}
	}
	visit(t.Root)
	return leaves
}

func (t *Tree) NumLeaves() int64 {
	return int64(len(t.Leaves()))
}

func (t *Tree) LeafNames() []string {
	var names []string
	for _, i := range t.Leaves() {
		names = append(names, t.Nodes[i].Name)
	}
	return names
}

// TreeLength returns the sum of all branch lengths.
func (t *Tree) TreeLength() float64 {
	total := 0.0
	for i := range t.Nodes {
		total += t.Nodes[i].BranchLen
	}
	return total
}

// SplitEdge inserts a new internal node in the middle of the edge above node
// i and hangs a new leaf off it. This is the single growing operation from
// which the random topologies are built.
func (t *Tree) SplitEdge(i int64, leafName string) int64 {
	parent := t.Nodes[i].Parent
	if parent == -1 {
		panic(fmt.Errorf("cannot split the edge above the root"))
	}

	internal := int64(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{Parent: parent})

	// Replace i with the new internal node in the parent's child list.
	for k, c := range t.Nodes[parent].Children {
		if c == i {
			t.Nodes[parent].Children[k] = internal
			break
		}
	}
	t.Nodes[i].Parent = internal
	t.Nodes[internal].Children = append(t.Nodes[internal].Children, i)

	leaf := int64(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{Name: leafName, Parent: internal})
	t.Nodes[internal].Children = append(t.Nodes[internal].Children, leaf)
	return leaf
}

// GenerateTopology builds a random tree shape over numTaxa leaves named
// t1..tN. Randomness comes only from r, so the same generator state always
// produces the same shape.
func GenerateTopology(r *Rand, numTaxa int64, mode string) Tree {
	if numTaxa < 3 {
		Check(fmt.Errorf("need at least 3 taxa, got %d", numTaxa))
	}

	switch mode {
	case TopologyYuleHarding:
		return growTree(r, numTaxa, true)
	case TopologyUniform:
		return growTree(r, numTaxa, false)
	case TopologyCaterpillar:
		return caterpillarTree(numTaxa)
	case TopologyBalanced:
		return balancedTree(numTaxa)
	case TopologyStar:
		return starTree(numTaxa)
	default:
		Check(fmt.Errorf("invalid topology mode: %s", mode))
		return Tree{}
	}
}

// growTree grows a binary tree one leaf at a time by splitting a random edge.
// In the Yule-Harding process only edges above leaves are candidates, which is
// the standard speciation model. In the uniform (PDA) process every edge is a
// candidate, which makes every labeled shape equally likely.
func growTree(r *Rand, numTaxa int64, leavesOnly bool) Tree {
	t := NewTree()
	t.AddNode(t.Root, "t1")
	t.AddNode(t.Root, "t2")

	for k := int64(3); k <= numTaxa; k++ {
		var candidates []int64
		for i := int64(0); i < int64(len(t.Nodes)); i++ {
			if i == t.Root {
				continue
			}
			if leavesOnly && !t.IsLeaf(i) {
				continue
			}
			candidates = append(candidates, i)
		}
		pick := candidates[r.RInt(0, int64(len(candidates))-1)]
		t.SplitEdge(pick, fmt.Sprintf("t%d", k))
	}
	Assert(t.NumLeaves() == numTaxa)
	return t
}

func caterpillarTree(numTaxa int64) Tree {
	t := NewTree()
	cur := t.Root
	for k := int64(1); k <= numTaxa-2; k++ {
		t.AddNode(cur, fmt.Sprintf("t%d", k))
		cur = t.AddNode(cur, "")
	}
	t.AddNode(cur, fmt.Sprintf("t%d", numTaxa-1))
	t.AddNode(cur, fmt.Sprintf("t%d", numTaxa))
	return t
}

func balancedTree(numTaxa int64) Tree {
	t := NewTree()
	var build func(parent int64, lo, hi int64)
	build = func(parent int64, lo, hi int64) {
		if lo == hi {
			t.AddNode(parent, fmt.Sprintf("t%d", lo))
			return
		}
		node := t.AddNode(parent, "")
		mid := (lo + hi) / 2
		build(node, lo, mid)
		build(node, mid+1, hi)
	}
	mid := (1 + numTaxa) / 2
	build(t.Root, 1, mid)
	build(t.Root, mid+1, numTaxa)
	return t
}

func starTree(numTaxa int64) Tree {
	t := NewTree()
	for k := int64(1); k <= numTaxa; k++ {
		t.AddNode(t.Root, fmt.Sprintf("t%d", k))
	}
	return t
}

// AssignBranchLengths draws a length for every edge in the tree. The modes
// mirror the distributions the run can ask for: uniform draws directly from
// [min, max], exponential and gamma draw from the distribution with the given
// mean and redraw until the value lands inside [min, max]. Redrawing instead
// of clamping keeps the distribution shape; clamping would pile mass onto the
// two endpoints.
func AssignBranchLengths(t *Tree, r *Rand, mode string, min, mean, max float64) {
	if min > max || mean < min || mean > max {
		Check(fmt.Errorf("invalid branch length range: min %f mean %f max %f",
			min, mean, max))
	}

	for i := range t.Nodes {
		if int64(i) == t.Root {
			continue
		}
		t.Nodes[i].BranchLen = drawBranchLength(r, mode, min, mean, max)
	}
}

// gammaBranchShape is the shape of the gamma distribution used for the gamma
// branch length mode. Shape 2 keeps the distribution unimodal with a mild
// right tail, which looks like branch lengths from real trees.
const gammaBranchShape = 2.0

func drawBranchLength(r *Rand, mode string, min, mean, max float64) float64 {
	switch mode {
	case BranchLengthUniform:
		return r.RFloat(min, max)
	case BranchLengthExponential:
		for {
			l := r.RExp(mean)
			if l >= min && l <= max {
				return l
			}
		}
	case BranchLengthGamma:
		for {
			l := r.RGamma(gammaBranchShape, mean/gammaBranchShape)
			if l >= min && l <= max {
				return l
			}
		}
	default:
		Check(fmt.Errorf("invalid branch length mode: %s", mode))
		return 0
	}
}

// GenerateRandomTree builds a random Yule-Harding tree over numTaxa taxa with
// branch lengths drawn according to branchLengthMode, and returns it in
// Newick format. The same (numTaxa, seed, branchLengthMode) triple always
// returns the same string.
func GenerateRandomTree(numTaxa int64, seed int64, branchLengthMode string) string {
	r := NewRand(seed)
	t := GenerateTopology(&r, numTaxa, TopologyYuleHarding)
	AssignBranchLengths(&t, &r, branchLengthMode,
		DefaultMinBranchLen, DefaultMeanBranchLen, DefaultMaxBranchLen)
	return t.Newick()
}

// StateBytes returns bytes that represent the tree as perceived from the
// outside: the shape, the leaf names and the branch lengths, in depth-first
// order. Two trees with the same StateBytes are the same tree for regression
// purposes, even if their node slices are laid out differently.
func (t *Tree) StateBytes() []byte {
	buf := new(bytes.Buffer)
	var visit func(i int64)
	visit = func(i int64) {
		SerializeString(buf, t.Nodes[i].Name)
		Serialize(buf, t.Nodes[i].BranchLen)
		Serialize(buf, int64(len(t.Nodes[i].Children)))
		for _, c := range t.Nodes[i].Children {
			visit(c)
		}
	}
	visit(t.Root)
	return buf.Bytes()
}
