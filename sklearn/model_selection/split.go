// Package model_selection provides the cross-validation splitters used to
// build the per-fold data loaders.
package model_selection

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/pkg/errors"
)

// Splitter produces train/test index sets.
type Splitter interface {
	Split(X, y mat.Matrix) ([]Fold, error)
	GetNSplits() int
}

// Fold is one train/test partition of the sample indices.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits samples into NSplits consecutive folds, optionally after a
// seeded shuffle. The first n % NSplits folds hold one extra sample.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int64
	// Rand, when set, is used for shuffling instead of a generator seeded
	// with RandomSeed.
	Rand *rand.Rand
}

// NewKFold creates a KFold splitter.
func NewKFold(nSplits int, shuffle bool, randomSeed int64) *KFold {
	return &KFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// GetNSplits returns the number of folds.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates the folds. y is ignored.
func (kf *KFold) Split(X, _ mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if err := checkSplits("KFold.Split", kf.NSplits, nSamples); err != nil {
		return nil, err
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := source(kf.Rand, kf.RandomSeed)
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	assignment := make([]int, nSamples)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits
	current := 0
	for f := 0; f < kf.NSplits; f++ {
		size := foldSize
		if f < remainder {
			size++
		}
		for _, idx := range indices[current : current+size] {
			assignment[idx] = f
		}
		current += size
	}

	folds := buildFolds(kf.NSplits, indices, assignment)
	return folds, nil
}

// StratifiedKFold keeps the class proportions of y in every fold. Classes are
// processed in ascending label order and dealt round-robin over the folds, so
// every fold receives either floor or ceil of its share of each class.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int64
	// Rand, when set, is used for shuffling instead of a generator seeded
	// with RandomSeed.
	Rand *rand.Rand
}

// NewStratifiedKFold creates a StratifiedKFold splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int64) *StratifiedKFold {
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// GetNSplits returns the number of folds.
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates the stratified folds from the labels in the first column of y.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if err := checkSplits("StratifiedKFold.Split", skf.NSplits, nSamples); err != nil {
		return nil, err
	}
	if y == nil {
		return nil, errors.WithStack(errors.ErrNoClasses)
	}
	if ry, _ := y.Dims(); ry != nSamples {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", nSamples, ry, 0)
	}

	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}
	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	var r *rand.Rand
	if skf.Shuffle {
		r = source(skf.Rand, skf.RandomSeed)
	}

	assignment := make([]int, nSamples)
	order := make([]int, 0, nSamples)
	next := 0
	for _, label := range labels {
		indices := classIndices[label]
		if r != nil {
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
		for _, idx := range indices {
			assignment[idx] = next % skf.NSplits
			next++
		}
		order = append(order, indices...)
	}

	return buildFolds(skf.NSplits, order, assignment), nil
}

// ClassCounts returns the number of samples per label in the given rows of y.
func ClassCounts(y mat.Matrix, rows []int) map[float64]int {
	counts := make(map[float64]int)
	for _, i := range rows {
		counts[y.At(i, 0)]++
	}
	return counts
}

func checkSplits(op string, nSplits, nSamples int) error {
	if nSplits < 2 {
		return errors.NewValidationError("n_splits", "must be at least 2", nSplits)
	}
	if nSamples == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if nSplits > nSamples {
		return errors.NewValueError(op, "n_splits cannot be greater than the number of samples")
	}
	return nil
}

// buildFolds turns a fold assignment into index sets. Test indices keep the
// order in which samples were visited; train indices are ascending.
func buildFolds(nSplits int, order, assignment []int) []Fold {
	folds := make([]Fold, nSplits)
	for _, idx := range order {
		f := assignment[idx]
		folds[f].TestIndices = append(folds[f].TestIndices, idx)
	}
	for f := range folds {
		folds[f].TrainIndices = make([]int, 0, len(assignment)-len(folds[f].TestIndices))
		for idx, a := range assignment {
			if a != f {
				folds[f].TrainIndices = append(folds[f].TrainIndices, idx)
			}
		}
	}
	return folds
}

func source(r *rand.Rand, seed int64) *rand.Rand {
	if r != nil {
		return r
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}
