package main

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// InputVersion is the version of the byte representation of the Run
// structure. If the Run structure changes such that serializing it produces a
// different array of bytes, then InputVersion must change as well.
// InputVersion tracks saved runs: an executable can replay any run with the
// same InputVersion and SimulationVersion as the ones compiled into it. If
// only the InputVersion differs, the run can be translated by loading the old
// structure and writing the new one. Out of the three versions,
// InputVersion is the one expected to change the least often.
const InputVersion = 1

// SimulationVersion is the version of the simulation semantics: the topology
// processes, the branch length distributions, the substitution models, the
// order of random draws. Any change that makes a seed produce different
// output bumps SimulationVersion, even if the Run bytes look the same.
const SimulationVersion = 1

// ReleaseVersion labels a built executable. It changes much more often than
// the other two: whenever upload is switched on or off, whenever asserts are
// switched on or off, whenever anything a user can observe changes.
const ReleaseVersion = 1

// Run represents all the input of a simulation. Given a Run and a compatible
// simulation, the same trees and alignments come out at the end, bit for bit.
// Everything needed for that is stored inline: a run made from a user's tree
// file keeps the tree text itself, and an ancestral sequence taken from an
// alignment file keeps the resolved states. A run file never depends on other
// files still existing.
type Run struct {
	InputVersion      int64
	SimulationVersion int64
	ReleaseVersion    int64
	Id                uuid.UUID
	Seed              int64

	// Tree: either generate one...
	NumTaxa          int64
	TopologyMode     string
	BranchLengthMode string
	MinBranchLen     float64
	MeanBranchLen    float64
	MaxBranchLen     float64
	// ...or use this one.
	TreeNewick string

	// Model.
	ModelName string
	FreqMode  string
	Freqs     []float64
	Kappa     float64
	Exchange  []float64

	// Sequences.
	SeqLength     int64
	Alpha         float64
	NumCategories int64
	PInvariant    float64
	Ancestral     []int64
	NumDatasets   int64
}

func (run *Run) Serialize() []byte {
	buf := new(bytes.Buffer)
	Serialize(buf, run.InputVersion)
	Serialize(buf, run.SimulationVersion)
	Serialize(buf, run.ReleaseVersion)
	Serialize(buf, run.Id)
	Serialize(buf, run.Seed)
	Serialize(buf, run.NumTaxa)
	SerializeString(buf, run.TopologyMode)
	SerializeString(buf, run.BranchLengthMode)
	Serialize(buf, run.MinBranchLen)
	Serialize(buf, run.MeanBranchLen)
	Serialize(buf, run.MaxBranchLen)
	SerializeString(buf, run.TreeNewick)
	SerializeString(buf, run.ModelName)
	SerializeString(buf, run.FreqMode)
	SerializeSlice(buf, run.Freqs)
	Serialize(buf, run.Kappa)
	SerializeSlice(buf, run.Exchange)
	Serialize(buf, run.SeqLength)
	Serialize(buf, run.Alpha)
	Serialize(buf, run.NumCategories)
	Serialize(buf, run.PInvariant)
	SerializeSlice(buf, run.Ancestral)
	Serialize(buf, run.NumDatasets)
	return Zip(buf.Bytes())
}

func DeserializeRun(data []byte) (run Run) {
	buf := bytes.NewBuffer(Unzip(data))
	Deserialize(buf, &run.InputVersion)
	if run.InputVersion != InputVersion {
		Check(fmt.Errorf("can't deserialize this run - we are at "+
			"InputVersion %d and the run was recorded with InputVersion %d",
			InputVersion, run.InputVersion))
	}
	Deserialize(buf, &run.SimulationVersion)
	Deserialize(buf, &run.ReleaseVersion)
	Deserialize(buf, &run.Id)
	Deserialize(buf, &run.Seed)
	Deserialize(buf, &run.NumTaxa)
	DeserializeString(buf, &run.TopologyMode)
	DeserializeString(buf, &run.BranchLengthMode)
	Deserialize(buf, &run.MinBranchLen)
	Deserialize(buf, &run.MeanBranchLen)
	Deserialize(buf, &run.MaxBranchLen)
	DeserializeString(buf, &run.TreeNewick)
	DeserializeString(buf, &run.ModelName)
	DeserializeString(buf, &run.FreqMode)
	DeserializeSlice(buf, &run.Freqs)
	Deserialize(buf, &run.Kappa)
	DeserializeSlice(buf, &run.Exchange)
	Deserialize(buf, &run.SeqLength)
	Deserialize(buf, &run.Alpha)
	Deserialize(buf, &run.NumCategories)
	Deserialize(buf, &run.PInvariant)
	DeserializeSlice(buf, &run.Ancestral)
	Deserialize(buf, &run.NumDatasets)
	return
}

// Prepare builds the tree and the model of a run. The two share one random
// stream seeded with the run's seed, in a fixed order: topology, branch
// lengths, then random model frequencies if asked for. This order is part of
// SimulationVersion.
func (run *Run) Prepare() (Tree, Model) {
	r := NewRand(run.Seed)
	var t Tree
	if run.TreeNewick != "" {
		t = ParseNewick(run.TreeNewick)
	} else {
		t = GenerateTopology(&r, run.NumTaxa, run.TopologyMode)
		AssignBranchLengths(&t, &r, run.BranchLengthMode,
			run.MinBranchLen, run.MeanBranchLen, run.MaxBranchLen)
	}
	m := NewModel(run.ModelName, run.FreqMode, run.Freqs, run.Kappa,
		run.Exchange, &r)
	return t, m
}

// Execute runs the whole simulation: the tree, then every dataset. Each
// dataset has its own generator seeded from the run seed and the dataset
// index, so datasets are independent streams and can be simulated in
// parallel with bit-identical results at any parallelism.
func (run *Run) Execute() (Tree, []Alignment) {
	t, m := run.Prepare()

	var ancestral []int64
	if len(run.Ancestral) > 0 {
		if int64(len(run.Ancestral)) != run.SeqLength {
			Check(fmt.Errorf("ancestral sequence has %d states, run wants "+
				"%d sites", len(run.Ancestral), run.SeqLength))
		}
		ancestral = run.Ancestral
	}
	rateParams := RateParams{
		Alpha:         run.Alpha,
		NumCategories: run.NumCategories,
		PInvariant:    run.PInvariant,
	}

	alignments := make([]Alignment, run.NumDatasets)
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i := int64(0); i < run.NumDatasets; i++ {
		g.Go(func() error {
			r := NewRand(run.Seed + 1 + i)
			alignments[i] = SimulateDataset(&t, &m, run.SeqLength, ancestral,
				rateParams, &r)
			return nil
		})
	}
	Check(g.Wait())
	return t, alignments
}
