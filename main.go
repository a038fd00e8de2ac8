package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Config holds the operational settings: where input comes from, where output
// goes, whether runs are recorded and uploaded. What gets simulated is
// described separately by the scenario file, so that experiment definitions
// can be shared and versioned without dragging machine-local paths along.
type Config struct {
	ScenarioFile      string `yaml:"ScenarioFile"`
	TreeFile          string `yaml:"TreeFile"`
	AncestralFile     string `yaml:"AncestralFile"`
	AncestralPosition int64  `yaml:"AncestralPosition"`
	OutputPrefix      string `yaml:"OutputPrefix"`
	OutputFormat      string `yaml:"OutputFormat"`
	Compress          bool   `yaml:"Compress"`
	RecordToFile      bool   `yaml:"RecordToFile"`
	RecordingFile     string `yaml:"RecordingFile"`
	UploadRuns        bool   `yaml:"UploadRuns"`
}

var log *zap.SugaredLogger

var configPath string
var flagNumTaxa int64
var flagSeed int64
var flagBranchLengthMode string

var rootCmd = &cobra.Command{
	Use:   "phylosim",
	Short: "deterministic phylogenetic tree and alignment simulator",
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "generate a random tree and print it as Newick",
	Run: func(cmd *cobra.Command, args []string) {
		seed := flagSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		newick := GenerateRandomTree(flagNumTaxa, seed, flagBranchLengthMode)
		log.Infow("generated tree",
			"taxa", flagNumTaxa, "seed", seed, "mode", flagBranchLengthMode)
		fmt.Println(newick)
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "simulate alignments along a tree, as described by the scenario",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		var scenario Scenario
		LoadYAML(os.DirFS(".").(FS), cfg.ScenarioFile, &scenario)
		run := scenario.GetRun()
		if flagSeed != 0 {
			run.Seed = flagSeed
		}
		if run.Seed == 0 {
			run.Seed = time.Now().UnixNano()
		}

		if cfg.TreeFile != "" {
			run.TreeNewick = strings.TrimSpace(string(ReadFile(cfg.TreeFile)))
		}
		if cfg.AncestralFile != "" {
			resolveAncestral(&run, &cfg)
		}

		// IMPORTANT: save the run before executing it. If a bug in the
		// simulation crashes the program, we want the input that caused the
		// crash on disk before the crash happens.
		if cfg.RecordToFile {
			WriteFile(cfg.RecordingFile, run.Serialize())
			log.Infow("recorded run", "file", cfg.RecordingFile, "id", run.Id)
		}

		executeAndWrite(&run, &cfg)

		if cfg.UploadRuns {
			UploadRun(getUsername(), &run)
			log.Infow("uploaded run", "id", run.Id)
		}
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <runfile>",
	Short: "re-execute a recorded run and print its regression id",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		run := DeserializeRun(ReadFile(args[0]))
		if run.SimulationVersion != SimulationVersion {
			log.Warnw("simulation version mismatch, output may differ from "+
				"the original run",
				"recorded", run.SimulationVersion, "current", SimulationVersion)
		}
		executeAndWrite(&run, &cfg)
		fmt.Println(RegressionId(&run))
	},
}

func loadConfig() (cfg Config) {
	LoadYAML(os.DirFS(".").(FS), configPath, &cfg)
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = "phylosim"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = FormatPhylip
	}
	return
}

// resolveAncestral reads the ancestral sequence out of an existing alignment
// and stores its states in the run, so that the run stays replayable after
// the alignment file is gone. The sequence length of the run is overwritten
// by the length of the ancestral sequence.
func resolveAncestral(run *Run, cfg *Config) {
	names, seqs := ReadSequences(cfg.AncestralFile)
	pos := cfg.AncestralPosition
	if pos < 1 || pos > int64(len(seqs)) {
		Check(fmt.Errorf("the position of the ancestral sequence (%d) is "+
			"outside the input file (%d sequences)", pos, len(seqs)))
	}
	run.Ancestral = StatesFromString(seqs[pos-1], ModelStateChars(run.ModelName))
	run.SeqLength = int64(len(run.Ancestral))
	log.Infow("using ancestral sequence",
		"file", cfg.AncestralFile, "name", names[pos-1], "sites", run.SeqLength)
}

func executeAndWrite(run *Run, cfg *Config) {
	start := time.Now()
	tree, alignments := run.Execute()

	if dir := filepath.Dir(cfg.OutputPrefix); dir != "." {
		MakeDir(dir)
	}
	treeFile := cfg.OutputPrefix + ".treefile"
	WriteFile(treeFile, []byte(tree.Newick()+"\n"))

	chars := ModelStateChars(run.ModelName)
	for i := range alignments {
		path := AlignmentFileName(cfg.OutputPrefix, int64(i),
			cfg.OutputFormat, cfg.Compress)
		WriteAlignmentFile(&alignments[i], chars, cfg.OutputFormat, path,
			cfg.Compress)
	}
	log.Infow("simulation done",
		"taxa", tree.NumLeaves(),
		"datasets", len(alignments),
		"sites", run.SeqLength,
		"tree", treeFile,
		"elapsed", time.Since(start))
}

func getUsername() string {
	if user := os.Getenv("PHYLOSIM_USER"); user != "" {
		return user
	}
	return "vali-dev"
}

func main() {
	logger, err := zap.NewDevelopment()
	Check(err)
	defer func() { _ = logger.Sync() }()
	log = logger.Sugar()

	rootCmd.PersistentFlags().StringVar(&configPath, "config",
		"data/config.yaml", "path to the config file")
	generateCmd.Flags().Int64Var(&flagNumTaxa, "numtaxa", 10,
		"number of taxa")
	generateCmd.Flags().Int64Var(&flagSeed, "seed", 0,
		"random seed; 0 means the current time")
	generateCmd.Flags().StringVar(&flagBranchLengthMode, "brlen-mode",
		BranchLengthUniform, "branch length mode: uniform, exponential, gamma")
	simulateCmd.Flags().Int64Var(&flagSeed, "seed", 0,
		"override the scenario seed; 0 keeps it")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replayCmd)
	err = rootCmd.Execute()
	Check(err)
}
