package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomTree_ReturnsANonEmptyTree(t *testing.T) {
	newick := GenerateRandomTree(5, 42, BranchLengthUniform)
	assert.Greater(t, len(newick), 0)
}

func TestGenerateRandomTree_SameSeedSameTree(t *testing.T) {
	n1 := GenerateRandomTree(20, 42, BranchLengthUniform)
	n2 := GenerateRandomTree(20, 42, BranchLengthUniform)
	assert.Equal(t, n1, n2)

	n3 := GenerateRandomTree(20, 43, BranchLengthUniform)
	assert.NotEqual(t, n1, n3)
}

func TestGenerateRandomTree_ContainsAllTaxa(t *testing.T) {
	newick := GenerateRandomTree(30, 7, BranchLengthExponential)
	tree := ParseNewick(newick)
	require.Equal(t, int64(30), tree.NumLeaves())

	names := map[string]bool{}
	for _, name := range tree.LeafNames() {
		names[name] = true
	}
	for k := 1; k <= 30; k++ {
		assert.True(t, names[fmt.Sprintf("t%d", k)], "missing taxon t%d", k)
	}
}

func TestGenerateRandomTree_RejectsBadInput(t *testing.T) {
	assert.Panics(t, func() { GenerateRandomTree(2, 42, BranchLengthUniform) })
	assert.Panics(t, func() { GenerateRandomTree(5, 42, "bogus") })
}

func TestGenerateTopology_NumberOfLeaves(t *testing.T) {
	for _, mode := range []string{TopologyYuleHarding, TopologyUniform,
		TopologyCaterpillar, TopologyBalanced, TopologyStar} {
		for _, numTaxa := range []int64{3, 4, 5, 17, 100} {
			r := NewRand(1)
			tree := GenerateTopology(&r, numTaxa, mode)
			assert.Equal(t, numTaxa, tree.NumLeaves(),
				"mode %s, %d taxa", mode, numTaxa)
		}
	}
}

func TestGenerateTopology_GrownTreesAreBinary(t *testing.T) {
	for _, mode := range []string{TopologyYuleHarding, TopologyUniform} {
		r := NewRand(9)
		tree := GenerateTopology(&r, 50, mode)
		for i := range tree.Nodes {
			if !tree.IsLeaf(int64(i)) {
				assert.Equal(t, 2, len(tree.Nodes[i].Children),
					"mode %s, node %d", mode, i)
			}
		}
	}
}

func TestGenerateTopology_Caterpillar(t *testing.T) {
	r := NewRand(0)
	tree := GenerateTopology(&r, 6, TopologyCaterpillar)
	// A caterpillar over n taxa has exactly n-1 internal nodes in a chain.
	internals := 0
	for i := range tree.Nodes {
		if !tree.IsLeaf(int64(i)) {
			internals++
			assert.Equal(t, 2, len(tree.Nodes[i].Children))
		}
	}
	assert.Equal(t, 5, internals)
}

func TestGenerateTopology_Star(t *testing.T) {
	r := NewRand(0)
	tree := GenerateTopology(&r, 8, TopologyStar)
	assert.Equal(t, 8, len(tree.Nodes[tree.Root].Children))
	for _, c := range tree.Nodes[tree.Root].Children {
		assert.True(t, tree.IsLeaf(c))
	}
}

func TestAssignBranchLengths_RespectsTheRange(t *testing.T) {
	for _, mode := range []string{BranchLengthUniform,
		BranchLengthExponential, BranchLengthGamma} {
		r := NewRand(3)
		tree := GenerateTopology(&r, 40, TopologyYuleHarding)
		AssignBranchLengths(&tree, &r, mode, 0.01, 0.1, 0.5)
		for i := range tree.Nodes {
			if int64(i) == tree.Root {
				assert.Equal(t, 0.0, tree.Nodes[i].BranchLen)
				continue
			}
			assert.GreaterOrEqual(t, tree.Nodes[i].BranchLen, 0.01,
				"mode %s", mode)
			assert.LessOrEqual(t, tree.Nodes[i].BranchLen, 0.5,
				"mode %s", mode)
		}
	}
}

func TestAssignBranchLengths_RejectsBadRange(t *testing.T) {
	r := NewRand(0)
	tree := GenerateTopology(&r, 5, TopologyYuleHarding)
	assert.Panics(t, func() {
		AssignBranchLengths(&tree, &r, BranchLengthUniform, 0.5, 0.1, 0.01)
	})
}

func TestSplitEdge(t *testing.T) {
	tree := NewTree()
	a := tree.AddNode(tree.Root, "a")
	tree.AddNode(tree.Root, "b")
	leaf := tree.SplitEdge(a, "c")

	assert.Equal(t, int64(3), tree.NumLeaves())
	assert.Equal(t, "c", tree.Nodes[leaf].Name)
	// a now hangs off the new internal node, which hangs off the root.
	internal := tree.Nodes[a].Parent
	assert.NotEqual(t, tree.Root, internal)
	assert.Equal(t, tree.Root, tree.Nodes[internal].Parent)

	assert.Panics(t, func() { tree.SplitEdge(tree.Root, "d") })
}

func TestSplitEdge_RandomTreesStayConsistent(t *testing.T) {
	// Grow trees by splitting random edges and check the structural
	// invariants hold at every step.
	RSeed(0)
	for range 20 {
		tree := NewTree()
		tree.AddNode(tree.Root, "t1")
		tree.AddNode(tree.Root, "t2")
		numTaxa := RInt(3, 30)
		for k := int64(3); k <= numTaxa; k++ {
			pick := RInt(1, int64(len(tree.Nodes))-1)
			tree.SplitEdge(pick, fmt.Sprintf("t%d", k))
		}

		require.Equal(t, numTaxa, tree.NumLeaves())
		for i := range tree.Nodes {
			if int64(i) == tree.Root {
				continue
			}
			// Every non-root node appears exactly once in its parent's
			// child list.
			count := 0
			for _, c := range tree.Nodes[tree.Nodes[i].Parent].Children {
				if c == int64(i) {
					count++
				}
			}
			require.Equal(t, 1, count, "node %d", i)
		}
	}
}

func TestTreeLength(t *testing.T) {
	tree := ParseNewick("((t1:0.1,t2:0.2):0.05,t3:0.3);")
	assert.InDelta(t, 0.65, tree.TreeLength(), 1e-12)
}

func TestTree_StateBytesSeesBranchLengths(t *testing.T) {
	t1 := ParseNewick("((t1:0.1,t2:0.2):0.05,t3:0.3);")
	t2 := ParseNewick("((t1:0.1,t2:0.2):0.05,t3:0.3);")
	assert.Equal(t, t1.StateBytes(), t2.StateBytes())

	t2.Nodes[1].BranchLen += 0.001
	assert.NotEqual(t, t1.StateBytes(), t2.StateBytes())
}

func TestTree_LeavesAreInDepthFirstOrder(t *testing.T) {
	tree := ParseNewick("((t1:0.1,t2:0.2):0.05,(t3:0.1,t4:0.1):0.1);")
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, tree.LeafNames())
}

func TestGenerateRandomTree_NewickLooksSane(t *testing.T) {
	newick := GenerateRandomTree(5, 42, BranchLengthUniform)
	assert.True(t, strings.HasPrefix(newick, "("))
	assert.True(t, strings.HasSuffix(newick, ";"))
	assert.Equal(t, strings.Count(newick, "("), strings.Count(newick, ")"))
}
