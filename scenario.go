package main

import (
	"strings"

	"github.com/google/uuid"
)

// A Scenario is a simulation described in a YAML file: what tree, what model,
// what sequences. Scenarios are how I set up reproducible experiments and
// test fixtures without recompiling. Everything operational (where output
// goes, whether runs are recorded or uploaded) lives in the Config instead;
// a scenario only describes the simulation itself.
type Scenario struct {
	Seed             int64     `yaml:"Seed"`
	NumTaxa          int64     `yaml:"NumTaxa"`
	TopologyMode     string    `yaml:"TopologyMode"`
	BranchLengthMode string    `yaml:"BranchLengthMode"`
	MinBranchLen     float64   `yaml:"MinBranchLen"`
	MeanBranchLen    float64   `yaml:"MeanBranchLen"`
	MaxBranchLen     float64   `yaml:"MaxBranchLen"`
	TreeNewick       string    `yaml:"TreeNewick"`
	Model            string    `yaml:"Model"`
	FreqMode         string    `yaml:"FreqMode"`
	Freqs            []float64 `yaml:"Freqs"`
	Kappa            float64   `yaml:"Kappa"`
	Exchange         []float64 `yaml:"Exchange"`
	SeqLength        int64     `yaml:"SeqLength"`
	Alpha            float64   `yaml:"Alpha"`
	NumCategories    int64     `yaml:"NumCategories"`
	PInvariant       float64   `yaml:"PInvariant"`
	NumDatasets      int64     `yaml:"NumDatasets"`
}

// GetRun turns a scenario into a Run, filling in the defaults for everything
// the YAML left out. A scenario that only says NumTaxa and Seed is a valid
// experiment.
func (s *Scenario) GetRun() (run Run) {
	run.InputVersion = InputVersion
	run.SimulationVersion = SimulationVersion
	run.ReleaseVersion = ReleaseVersion
	run.Id = uuid.New()
	run.Seed = s.Seed

	run.NumTaxa = s.NumTaxa
	run.TopologyMode = defaultString(s.TopologyMode, TopologyYuleHarding)
	run.BranchLengthMode = defaultString(s.BranchLengthMode, BranchLengthUniform)
	run.MinBranchLen = defaultFloat(s.MinBranchLen, DefaultMinBranchLen)
	run.MeanBranchLen = defaultFloat(s.MeanBranchLen, DefaultMeanBranchLen)
	run.MaxBranchLen = defaultFloat(s.MaxBranchLen, DefaultMaxBranchLen)
	run.TreeNewick = strings.TrimSpace(s.TreeNewick)

	run.ModelName = defaultString(s.Model, ModelJC)
	run.FreqMode = defaultString(s.FreqMode, FreqsEqual)
	run.Freqs = s.Freqs
	run.Kappa = s.Kappa
	run.Exchange = s.Exchange

	run.SeqLength = defaultInt(s.SeqLength, 1000)
	run.Alpha = s.Alpha
	run.NumCategories = defaultInt(s.NumCategories, 4)
	run.PInvariant = s.PInvariant
	run.NumDatasets = defaultInt(s.NumDatasets, 1)
	return
}

func defaultString(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

func defaultInt(val, def int64) int64 {
	if val == 0 {
		return def
	}
	return val
}

func defaultFloat(val, def float64) float64 {
	if val == 0 {
		return def
	}
	return val
}
