package main

// Sequence simulation
// -------------------
//
// The simulation walks the tree from the root down. The root gets an
// ancestral sequence, either drawn from the model's state frequencies or
// supplied by the run. Every branch then transforms the parent sequence into
// the child sequence, site by site: compute the transition matrix for the
// branch length scaled by the site's rate, accumulate the parent state's row
// and draw the child state with one uniform number and a binary search. Only
// the leaf sequences make it into the alignment; the internal ones exist just
// long enough to produce their children.
//
// The walk is strictly deterministic: sites in order, children in tree order,
// every random draw from the one Rand that was passed in. Two calls with the
// same tree, model, parameters and generator state produce identical
// alignments. The regression tests stand on this.

// RandomSequence draws a sequence of the given length from the model's state
// frequencies.
func RandomSequence(r *Rand, m *Model, length int64) []int64 {
	acc := make([]float64, m.NumStates)
	copy(acc, m.Freqs)
	AccumulateRows(acc, 1, m.NumStates)

	seq := make([]int64, length)
	for i := range seq {
		seq[i] = SampleAccumulated(r, acc, 0, m.NumStates)
	}
	return seq
}

// SimulateDataset evolves one alignment along the tree. ancestral is the root
// sequence; nil means draw one from the model. rateParams controls per-site
// rate heterogeneity.
func SimulateDataset(t *Tree, m *Model, seqLength int64, ancestral []int64,
	rateParams RateParams, r *Rand) Alignment {
	siteRates := DrawSiteRates(r, rateParams, seqLength)
	Assert(int64(len(siteRates)) == seqLength)

	rootSeq := ancestral
	if rootSeq == nil {
		rootSeq = RandomSequence(r, m, seqLength)
	}
	Assert(int64(len(rootSeq)) == seqLength)

	seqs := make([][]int64, len(t.Nodes))
	seqs[t.Root] = rootSeq
	simulateSubtree(t, m, seqs, siteRates, r, t.Root)

	aln := NewAlignment(t.LeafNames(), seqLength)
	for row, leaf := range t.Leaves() {
		copy(aln.Row(int64(row)), seqs[leaf])
	}
	return aln
}

func simulateSubtree(t *Tree, m *Model, seqs [][]int64, siteRates []float64,
	r *Rand, node int64) {
	parentSeq := seqs[node]
	n := m.NumStates

	for _, child := range t.Nodes[node].Children {
		branchLen := t.Nodes[child].BranchLen
		childSeq := make([]int64, len(parentSeq))

		// One accumulated transition matrix per distinct site rate on this
		// branch. With discrete gamma there are at most a handful of rates,
		// so the cache stays tiny.
		matrices := map[float64][]float64{}

		for site := range parentSeq {
			rate := siteRates[site]
			if rate == 0 {
				// Invariant site: nothing can happen on any branch.
				childSeq[site] = parentSeq[site]
				continue
			}
			acc, ok := matrices[rate]
			if !ok {
				acc = make([]float64, n*n)
				m.TransMatrix(branchLen*rate, acc)
				AccumulateRows(acc, n, n)
				matrices[rate] = acc
			}
			start := parentSeq[site] * n
			childSeq[site] = SampleAccumulated(r, acc, start, n)
		}

		seqs[child] = childSeq
		simulateSubtree(t, m, seqs, siteRates, r, child)
	}
}
