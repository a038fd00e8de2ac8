package main

import "bytes"

// Alignment is a dense matrix of numerical states: one row per sequence, one
// column per site. Row order is the canonical leaf order of the tree it was
// simulated on. States are indices into the model's StateChars; converting to
// letters only happens at the output boundary.
type Alignment struct {
	cells    []int64
	numSeqs  int64
	numSites int64
	Names    []string
}

func NewAlignment(names []string, numSites int64) Alignment {
	a := Alignment{}
	a.Names = names
	a.numSeqs = int64(len(names))
	a.numSites = numSites
	a.cells = make([]int64, a.numSeqs*numSites)
	return a
}

func (a *Alignment) Set(seq, site, state int64) {
	a.cells[seq*a.numSites+site] = state
}

func (a *Alignment) Get(seq, site int64) int64 {
	return a.cells[seq*a.numSites+site]
}

// Row returns the states of one sequence. It is a view into the alignment,
// not a copy.
func (a *Alignment) Row(seq int64) []int64 {
	return a.cells[seq*a.numSites : (seq+1)*a.numSites]
}

func (a *Alignment) NumSeqs() int64 {
	return a.numSeqs
}

func (a *Alignment) NumSites() int64 {
	return a.numSites
}

// StateBytes returns bytes that represent the alignment as perceived from the
// outside: the names and the states, in order. Used by the regression hash.
func (a *Alignment) StateBytes() []byte {
	buf := new(bytes.Buffer)
	Serialize(buf, a.numSeqs)
	Serialize(buf, a.numSites)
	for _, name := range a.Names {
		SerializeString(buf, name)
	}
	SerializeSlice(buf, a.cells)
	return buf.Bytes()
}
