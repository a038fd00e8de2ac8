package main

import (
	"crypto/sha256"
	"encoding/hex"
)

// RegressionId returns a string which uniquely identifies the output of a
// run. It is a hash of the generated tree and of every dataset's states. It
// is meant to check that the simulation still produces the exact same output
// after a refactorization.
//
// What does "the same output" mean here?
//
// Option 1 - hash the output files
// --------------------------------
//
// The most straightforward check is to hash the .phy/.fa files. But then any
// cosmetic change to the writers - a different number of decimals, a changed
// separator - becomes a breaking change, even though the simulation itself
// produced the same trees and the same states. I want to be free to change
// formatting without invalidating every recorded hash.
//
// Option 2 - hash the in-memory structures
// ----------------------------------------
//
// I could hash the Tree and Alignment structs directly, all bits. But that
// ties the hash to implementation details: the layout of the node slice, the
// order in which nodes happen to be allocated. Refactoring the internals
// would then be a breaking change even when the simulated data is identical.
//
// Option 3 - hash a declared external state (selected)
// ----------------------------------------------------
//
// Tree and Alignment each define StateBytes(): the parts of them that the
// outside world can perceive - shape, names, branch lengths, states - in a
// canonical order. RegressionId hashes exactly those. The implementation may
// change freely underneath; if the RegressionId of a recorded run changes,
// the simulation's observable behavior changed, and that is precisely what I
// want to catch.
//
// RegressionId is meant to be used this way:
// - Compute the RegressionId for a run.
// - Refactor the simulation.
// - Compute the RegressionId for the same run. Same id: the refactoring did
// not alter a single state in a single dataset. Different id: something now
// simulates differently, go find out what.
func RegressionId(run *Run) string {
	hash := sha256.New()

	tree, alignments := run.Execute()
	hash.Write(tree.StateBytes())
	for i := range alignments {
		hash.Write(alignments[i].StateBytes())
	}

	return hex.EncodeToString(hash.Sum(nil))
}
