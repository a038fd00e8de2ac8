package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allModels(r *Rand) []Model {
	return []Model{
		NewModel(ModelJC, FreqsEqual, nil, 0, nil, r),
		NewModel(ModelBinary, FreqsEqual, nil, 0, nil, r),
		NewModel(ModelPoisson, FreqsEqual, nil, 0, nil, r),
		NewModel(ModelF81, FreqsUser, []float64{0.1, 0.2, 0.3, 0.4}, 0, nil, r),
		NewModel(ModelK2P, FreqsEqual, nil, 2.0, nil, r),
		NewModel(ModelHKY, FreqsUser, []float64{0.3, 0.2, 0.2, 0.3}, 2.5, nil, r),
		NewModel(ModelGTR, FreqsRandom, nil, 0,
			[]float64{1, 2, 1.5, 1.2, 3, 1}, r),
	}
}

func TestModel_RowsAreProbabilityDistributions(t *testing.T) {
	r := NewRand(11)
	for _, m := range allModels(&r) {
		n := m.NumStates
		p := make([]float64, n*n)
		for _, brlen := range []float64{0.001, 0.1, 0.5, 2.0, 10.0} {
			m.TransMatrix(brlen, p)
			for i := int64(0); i < n; i++ {
				rowSum := 0.0
				for j := int64(0); j < n; j++ {
					assert.GreaterOrEqual(t, p[i*n+j], 0.0,
						"model %s, t %f", m.Name, brlen)
					rowSum += p[i*n+j]
				}
				assert.InDelta(t, 1.0, rowSum, 1e-9,
					"model %s, t %f, row %d", m.Name, brlen, i)
			}
		}
	}
}

func TestModel_NoEvolutionOverZeroTime(t *testing.T) {
	r := NewRand(12)
	for _, m := range allModels(&r) {
		n := m.NumStates
		p := make([]float64, n*n)
		m.TransMatrix(0, p)
		for i := int64(0); i < n; i++ {
			for j := int64(0); j < n; j++ {
				expected := 0.0
				if i == j {
					expected = 1.0
				}
				assert.InDelta(t, expected, p[i*n+j], 1e-9,
					"model %s, entry %d,%d", m.Name, i, j)
			}
		}
	}
}

func TestModel_LongBranchesForgetTheParent(t *testing.T) {
	// As t grows, every row converges to the state frequencies: the child
	// state becomes independent of the parent state.
	r := NewRand(13)
	for _, m := range allModels(&r) {
		n := m.NumStates
		p := make([]float64, n*n)
		m.TransMatrix(500, p)
		for i := int64(0); i < n; i++ {
			for j := int64(0); j < n; j++ {
				assert.InDelta(t, m.Freqs[j], p[i*n+j], 1e-6,
					"model %s, entry %d,%d", m.Name, i, j)
			}
		}
	}
}

func TestModel_F81WithEqualFreqsMatchesJC(t *testing.T) {
	// F81 goes through the eigendecomposition, JC through the closed
	// formula. With equal frequencies they are the same model, so the two
	// code paths must agree.
	r := NewRand(14)
	jc := NewModel(ModelJC, FreqsEqual, nil, 0, nil, &r)
	f81 := NewModel(ModelF81, FreqsEqual, nil, 0, nil, &r)

	pJC := make([]float64, 16)
	pF81 := make([]float64, 16)
	for _, brlen := range []float64{0.01, 0.1, 1.0, 3.0} {
		jc.TransMatrix(brlen, pJC)
		f81.TransMatrix(brlen, pF81)
		for k := range pJC {
			assert.InDelta(t, pJC[k], pF81[k], 1e-9, "t %f, entry %d", brlen, k)
		}
	}
}

func TestModel_FrequenciesSumToOne(t *testing.T) {
	r := NewRand(15)
	for _, m := range allModels(&r) {
		sum := 0.0
		for _, f := range m.Freqs {
			assert.Greater(t, f, 0.0)
			sum += f
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "model %s", m.Name)
	}
}

func TestModel_RandomFreqsAreDeterministic(t *testing.T) {
	r1 := NewRand(16)
	r2 := NewRand(16)
	m1 := NewModel(ModelGTR, FreqsRandom, nil, 0, []float64{1, 1, 1, 1, 1, 1}, &r1)
	m2 := NewModel(ModelGTR, FreqsRandom, nil, 0, []float64{1, 1, 1, 1, 1, 1}, &r2)
	assert.Equal(t, m1.Freqs, m2.Freqs)
}

func TestModel_RejectsBadInput(t *testing.T) {
	r := NewRand(17)
	assert.Panics(t, func() { NewModel("bogus", FreqsEqual, nil, 0, nil, &r) })
	assert.Panics(t, func() {
		NewModel(ModelHKY, FreqsUser, []float64{0.5, 0.5}, 2, nil, &r)
	})
	assert.Panics(t, func() { NewModel(ModelHKY, FreqsEqual, nil, 0, nil, &r) })
	assert.Panics(t, func() { NewModel(ModelGTR, FreqsEqual, nil, 0, nil, &r) })
	assert.Panics(t, func() {
		NewModel(ModelF81, FreqsUser, []float64{0.5, 0.5, 0.5, -0.5}, 0, nil, &r)
	})
	assert.Panics(t, func() { NewModel(ModelF81, "bogus", nil, 0, nil, &r) })
}

func TestModel_StateChars(t *testing.T) {
	r := NewRand(18)
	for _, m := range allModels(&r) {
		require.Equal(t, m.NumStates, int64(len(m.StateChars())),
			"model %s", m.Name)
	}
	assert.Equal(t, "ACGT", ModelStateChars(ModelJC))
	assert.Equal(t, "01", ModelStateChars(ModelBinary))
	assert.Equal(t, 20, len(ModelStateChars(ModelPoisson)))
}

func TestAccumulateRows(t *testing.T) {
	p := []float64{0.1, 0.2, 0.3, 0.4, 0.4, 0.3, 0.2, 0.1}
	AccumulateRows(p, 2, 4)
	assert.InDelta(t, 0.1, p[0], 1e-12)
	assert.InDelta(t, 0.3, p[1], 1e-12)
	assert.InDelta(t, 0.6, p[2], 1e-12)
	assert.InDelta(t, 1.0, p[3], 1e-12)
	assert.InDelta(t, 1.0, p[7], 1e-12)
}

func TestSampleAccumulated_FollowsTheDistribution(t *testing.T) {
	acc := []float64{0.5, 0.75, 1.0}
	r := NewRand(19)
	counts := [3]int64{}
	n := 100000
	for range n {
		counts[SampleAccumulated(&r, acc, 0, 3)]++
	}
	assert.InDelta(t, 0.5, float64(counts[0])/float64(n), 0.01)
	assert.InDelta(t, 0.25, float64(counts[1])/float64(n), 0.01)
	assert.InDelta(t, 0.25, float64(counts[2])/float64(n), 0.01)
}
