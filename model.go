package main

import (
	"fmt"
	"math"
)

// Substitution models
// -------------------
//
// A model is a continuous-time Markov chain over the states of the sequence
// type: 4 states for DNA, 2 for binary data, 20 for amino acids. The
// simulation only ever needs one thing from a model: the transition
// probability matrix P(t) = exp(Qt) for a branch of length t. The rate matrix
// Q is normalized so that one unit of branch length means one expected
// substitution per site at equilibrium, which is the convention every tree in
// and out of this program uses.
//
// The equal-frequency models (JC, BIN, POISSON, K2P's special structure
// aside) could all use closed formulas. Only the pure n-state symmetric ones
// actually do; everything else goes through the eigendecomposition of Q,
// because one code path that is correct for GTR is also correct for its
// special cases F81, K2P and HKY, and I'd rather test one path than four
// formulas.

const (
	ModelJC      = "JC"
	ModelF81     = "F81"
	ModelK2P     = "K2P"
	ModelHKY     = "HKY"
	ModelGTR     = "GTR"
	ModelBinary  = "BIN"
	ModelPoisson = "POISSON"
)

const (
	FreqsEqual  = "equal"
	FreqsRandom = "random"
	FreqsUser   = "user"
)

type Model struct {
	Name      string
	NumStates int64
	Freqs     []float64
	Kappa     float64
	// Exchange holds the GTR exchangeabilities in the order
	// AC, AG, AT, CG, CT, GT.
	Exchange []float64

	// Eigensystem of Q for the models without a closed formula.
	// P(t)[i][j] = sum_k right[i][k] * exp(vals[k]*t) * left[k][j].
	eigenVals  []float64
	eigenRight []float64
	eigenLeft  []float64
}

// NewModel builds a substitution model. freqMode decides where the state
// frequencies come from: equal, drawn at random from r and normalized, or
// taken from freqs. Models with built-in equal frequencies ignore freqMode.
// kappa is only read by K2P/HKY, exchange only by GTR.
func NewModel(name string, freqMode string, freqs []float64, kappa float64,
	exchange []float64, r *Rand) Model {
	m := Model{Name: name, Kappa: kappa}

	switch name {
	case ModelJC:
		m.NumStates = 4
	case ModelBinary:
		m.NumStates = 2
	case ModelPoisson:
		m.NumStates = 20
	case ModelF81, ModelK2P, ModelHKY, ModelGTR:
		m.NumStates = 4
	default:
		Check(fmt.Errorf("invalid model: %s", name))
	}

	switch name {
	case ModelJC, ModelBinary, ModelPoisson, ModelK2P:
		m.Freqs = equalFreqs(m.NumStates)
	default:
		switch freqMode {
		case FreqsEqual:
			m.Freqs = equalFreqs(m.NumStates)
		case FreqsRandom:
			m.Freqs = randomFreqs(r, m.NumStates)
		case FreqsUser:
			if int64(len(freqs)) != m.NumStates {
				Check(fmt.Errorf("model %s needs %d frequencies, got %d",
					name, m.NumStates, len(freqs)))
			}
			m.Freqs = normalizedFreqs(freqs)
		default:
			Check(fmt.Errorf("invalid frequency mode: %s", freqMode))
		}
	}

	switch name {
	case ModelF81:
		m.Exchange = []float64{1, 1, 1, 1, 1, 1}
	case ModelK2P, ModelHKY:
		if kappa <= 0 {
			Check(fmt.Errorf("model %s needs kappa > 0, got %f", name, kappa))
		}
		m.Exchange = []float64{1, kappa, 1, 1, kappa, 1}
	case ModelGTR:
		if len(exchange) != 6 {
			Check(fmt.Errorf("model GTR needs 6 exchangeabilities, got %d",
				len(exchange)))
		}
		m.Exchange = append([]float64{}, exchange...)
	}

	if m.Exchange != nil {
		m.decompose()
	}
	return m
}

func equalFreqs(n int64) []float64 {
	freqs := make([]float64, n)
	for i := range freqs {
		freqs[i] = 1.0 / float64(n)
	}
	return freqs
}

func randomFreqs(r *Rand, n int64) []float64 {
	freqs := make([]float64, n)
	for i := range freqs {
		freqs[i] = r.RFloat01()
	}
	return normalizedFreqs(freqs)
}

func normalizedFreqs(freqs []float64) []float64 {
	sum := 0.0
	for _, f := range freqs {
		if f <= 0 {
			Check(fmt.Errorf("state frequencies must be positive, got %f", f))
		}
		sum += f
	}
	out := make([]float64, len(freqs))
	for i := range freqs {
		out[i] = freqs[i] / sum
	}
	return out
}

// StateChars returns the character for each numerical state, in state order.
func (m *Model) StateChars() string {
	return ModelStateChars(m.Name)
}

// ModelStateChars returns the state characters of a model by name, without
// building the model. The ancestral sequence has to be decoded before the
// model exists.
func ModelStateChars(name string) string {
	switch name {
	case ModelBinary:
		return "01"
	case ModelPoisson:
		return "ARNDCQEGHILKMFPSTWYV"
	default:
		return "ACGT"
	}
}

// decompose builds the normalized rate matrix Q from the exchangeabilities
// and frequencies, then diagonalizes it. Q is reversible, so the similarity
// transform B = D^{1/2} Q D^{-1/2} with D = diag(freqs) is symmetric and a
// plain Jacobi rotation finds its eigensystem.
func (m *Model) decompose() {
	n := m.NumStates
	q := make([]float64, n*n)
	idx := int64(0)
	for i := int64(0); i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := m.Exchange[idx]
			idx++
			q[i*n+j] = s * m.Freqs[j]
			q[j*n+i] = s * m.Freqs[i]
		}
	}
	mu := 0.0
	for i := int64(0); i < n; i++ {
		rowSum := 0.0
		for j := int64(0); j < n; j++ {
			if i != j {
				rowSum += q[i*n+j]
			}
		}
		q[i*n+i] = -rowSum
		mu += m.Freqs[i] * rowSum
	}
	for i := range q {
		q[i] /= mu
	}

	// Symmetrize: b[i][j] = sqrt(pi_i/pi_j) * q[i][j].
	b := make([]float64, n*n)
	for i := int64(0); i < n; i++ {
		for j := int64(0); j < n; j++ {
			b[i*n+j] = math.Sqrt(m.Freqs[i]/m.Freqs[j]) * q[i*n+j]
		}
	}

	vals, vecs := jacobiEigen(b, n)
	m.eigenVals = vals
	m.eigenRight = make([]float64, n*n)
	m.eigenLeft = make([]float64, n*n)
	for i := int64(0); i < n; i++ {
		for k := int64(0); k < n; k++ {
			m.eigenRight[i*n+k] = vecs[i*n+k] / math.Sqrt(m.Freqs[i])
			m.eigenLeft[k*n+i] = vecs[i*n+k] * math.Sqrt(m.Freqs[i])
		}
	}
}

// TransMatrix fills p (NumStates x NumStates, row-major) with the transition
// probabilities for a branch of length t. Each row is a probability
// distribution over child states given the parent state.
func (m *Model) TransMatrix(t float64, p []float64) {
	n := m.NumStates
	if m.Exchange == nil {
		// n-state symmetric model: closed formula.
		e := math.Exp(-float64(n) / float64(n-1) * t)
		same := 1.0/float64(n) + (1.0-1.0/float64(n))*e
		diff := (1.0 - e) / float64(n)
		for i := int64(0); i < n; i++ {
			for j := int64(0); j < n; j++ {
				if i == j {
					p[i*n+j] = same
				} else {
					p[i*n+j] = diff
				}
			}
		}
		return
	}

	exps := make([]float64, n)
	for k := int64(0); k < n; k++ {
		exps[k] = math.Exp(m.eigenVals[k] * t)
	}
	for i := int64(0); i < n; i++ {
		rowSum := 0.0
		for j := int64(0); j < n; j++ {
			v := 0.0
			for k := int64(0); k < n; k++ {
				v += m.eigenRight[i*n+k] * exps[k] * m.eigenLeft[k*n+j]
			}
			// Roundoff can push a probability a hair below zero; the sampler
			// must never see that.
			if v < 0 {
				v = 0
			}
			p[i*n+j] = v
			rowSum += v
		}
		for j := int64(0); j < n; j++ {
			p[i*n+j] /= rowSum
		}
	}
}

// AccumulateRows converts each row of a probability matrix into running sums,
// so that a state can be drawn from a row with a single uniform number and a
// binary search.
func AccumulateRows(p []float64, numRows, numCols int64) {
	for r := int64(0); r < numRows; r++ {
		for c := int64(1); c < numCols; c++ {
			p[r*numCols+c] += p[r*numCols+c-1]
		}
	}
}

// SampleAccumulated draws an index from an accumulated probability row of
// length n starting at start. Binary search for the first entry >= the drawn
// number. Roundoff can make the last entry land just under 1; in that case
// the last index is the right answer.
func SampleAccumulated(r *Rand, acc []float64, start, n int64) int64 {
	u := r.RFloat01()
	lo, hi := int64(0), n-1
	for lo < hi {
		mid := (lo + hi) / 2
		if u <= acc[start+mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// jacobiEigen diagonalizes the symmetric matrix a (row-major, n x n) with
// cyclic Jacobi rotations. It returns the eigenvalues and the matrix whose
// columns are the corresponding eigenvectors. a is destroyed.
func jacobiEigen(a []float64, n int64) ([]float64, []float64) {
	v := make([]float64, n*n)
	for i := int64(0); i < n; i++ {
		v[i*n+i] = 1
	}

	for sweep := 0; sweep < 100; sweep++ {
		off := 0.0
		for i := int64(0); i < n; i++ {
			for j := i + 1; j < n; j++ {
				off += a[i*n+j] * a[i*n+j]
			}
		}
		if off < 1e-30 {
			break
		}

		for i := int64(0); i < n; i++ {
			for j := i + 1; j < n; j++ {
				if a[i*n+j] == 0 {
					continue
				}
				theta := (a[j*n+j] - a[i*n+i]) / (2 * a[i*n+j])
				t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				if theta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				for k := int64(0); k < n; k++ {
					aik := a[i*n+k]
					ajk := a[j*n+k]
					a[i*n+k] = c*aik - s*ajk
					a[j*n+k] = s*aik + c*ajk
				}
				for k := int64(0); k < n; k++ {
					aki := a[k*n+i]
					akj := a[k*n+j]
					a[k*n+i] = c*aki - s*akj
					a[k*n+j] = s*aki + c*akj
				}
				for k := int64(0); k < n; k++ {
					vki := v[k*n+i]
					vkj := v[k*n+j]
					v[k*n+i] = c*vki - s*vkj
					v[k*n+j] = s*vki + c*vkj
				}
			}
		}
	}

	vals := make([]float64, n)
	for i := int64(0); i < n; i++ {
		vals[i] = a[i*n+i]
	}
	return vals, v
}
