package model_selection

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/pkg/errors"
)

func checkPartition(t *testing.T, folds []Fold, n int) {
	t.Helper()
	seen := make([]int, n)
	for _, f := range folds {
		assert.Equal(t, n, len(f.TrainIndices)+len(f.TestIndices))
		for _, idx := range f.TestIndices {
			seen[idx]++
		}
		test := make(map[int]bool, len(f.TestIndices))
		for _, idx := range f.TestIndices {
			test[idx] = true
		}
		for _, idx := range f.TrainIndices {
			assert.False(t, test[idx], "index %d in both train and test", idx)
		}
	}
	for idx, c := range seen {
		assert.Equal(t, 1, c, "index %d appears in %d test folds", idx, c)
	}
}

func TestKFold(t *testing.T) {
	X := mat.NewDense(10, 1, nil)

	folds, err := NewKFold(3, false, 0).Split(X, nil)
	require.NoError(t, err)
	require.Len(t, folds, 3)
	checkPartition(t, folds, 10)

	assert.Equal(t, []int{0, 1, 2, 3}, folds[0].TestIndices)
	assert.Equal(t, []int{4, 5, 6}, folds[1].TestIndices)
	assert.Equal(t, []int{7, 8, 9}, folds[2].TestIndices)
}

func TestKFoldShuffleIsReproducible(t *testing.T) {
	X := mat.NewDense(25, 2, nil)

	a, err := NewKFold(5, true, 42).Split(X, nil)
	require.NoError(t, err)
	b, err := NewKFold(5, true, 42).Split(X, nil)
	require.NoError(t, err)
	c, err := NewKFold(5, true, 43).Split(X, nil)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	checkPartition(t, a, 25)
}

func TestSplittersUseSuppliedRand(t *testing.T) {
	X := mat.NewDense(25, 1, nil)
	y := mat.NewDense(25, 1, nil)
	for i := 0; i < 25; i++ {
		y.Set(i, 0, float64(i%2))
	}
	newRand := func() *rand.Rand { return rand.New(rand.NewPCG(9, 9)) }

	kf := NewKFold(5, true, 42)
	kf.Rand = newRand()
	a, err := kf.Split(X, nil)
	require.NoError(t, err)
	// Seed 9 through RandomSeed builds the same PCG(9, 9) generator.
	b, err := NewKFold(5, true, 9).Split(X, nil)
	require.NoError(t, err)
	assert.Equal(t, b, a, "RandomSeed is ignored when Rand is set")
	checkPartition(t, a, 25)

	skf := NewStratifiedKFold(5, true, 42)
	skf.Rand = newRand()
	sa, err := skf.Split(X, y)
	require.NoError(t, err)
	sb, err := NewStratifiedKFold(5, true, 9).Split(X, y)
	require.NoError(t, err)
	assert.Equal(t, sb, sa)
}

func TestStratifiedKFoldKeepsProportions(t *testing.T) {
	// 12 samples of class 0, 6 of class 1, interleaved
	labels := make([]float64, 18)
	for i := range labels {
		if i%3 == 2 {
			labels[i] = 1
		}
	}
	X := mat.NewDense(18, 1, nil)
	y := mat.NewDense(18, 1, labels)

	folds, err := NewStratifiedKFold(3, true, 7).Split(X, y)
	require.NoError(t, err)
	checkPartition(t, folds, 18)

	for _, f := range folds {
		counts := ClassCounts(y, f.TestIndices)
		assert.Equal(t, 4, counts[0])
		assert.Equal(t, 2, counts[1])
	}

	again, err := NewStratifiedKFold(3, true, 7).Split(X, y)
	require.NoError(t, err)
	assert.Equal(t, folds, again)
}

func TestStratifiedKFoldFoldSizesBalanced(t *testing.T) {
	// three classes of 4 samples over 3 folds: remainders must not pile up on fold 0
	labels := []float64{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2}
	X := mat.NewDense(12, 1, nil)
	y := mat.NewDense(12, 1, labels)

	folds, err := NewStratifiedKFold(3, false, 0).Split(X, y)
	require.NoError(t, err)

	sizes := []int{len(folds[0].TestIndices), len(folds[1].TestIndices), len(folds[2].TestIndices)}
	sort.Ints(sizes)
	assert.Equal(t, []int{4, 4, 4}, sizes)
}

func TestSplitErrors(t *testing.T) {
	X := mat.NewDense(3, 1, nil)

	_, err := NewKFold(1, false, 0).Split(X, nil)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))

	_, err = NewKFold(4, false, 0).Split(X, nil)
	assert.Error(t, err)

	_, err = NewStratifiedKFold(2, false, 0).Split(X, nil)
	assert.True(t, errors.Is(err, errors.ErrNoClasses))

	_, err = NewStratifiedKFold(2, false, 0).Split(X, mat.NewDense(2, 1, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}
