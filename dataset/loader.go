package dataset

import (
	"iter"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/core/rng"
	"github.com/YuminosukeSato/nam/pkg/errors"
	"github.com/YuminosukeSato/nam/pkg/log"
	"github.com/YuminosukeSato/nam/sklearn/model_selection"
)

// Batch はローダーが返すミニバッチ
type Batch struct {
	X *mat.Dense    // batch×features
	Y *mat.VecDense // ターゲット
	W *mat.VecDense // サンプル重み

	// Indices はデータセット内の行番号
	Indices []int
}

// Size はバッチ内のサンプル数を返す
func (b Batch) Size() int { return len(b.Indices) }

// DataLoader はデータセットの一部をミニバッチに分けて返す
type DataLoader struct {
	ds        *NAMDataset
	indices   []int
	order     []int
	batchSize int
	shuffle   bool
	seed      uint64
	stream    uint64
	rand      *rand.Rand
}

// NewDataLoader はindicesで指定した行のローダーを作成する。
// shuffleがtrueの場合、Batchesを呼ぶたびに（エポックごとに）順序を並べ替える。
func NewDataLoader(ds *NAMDataset, indices []int, batchSize int, shuffle bool, seed uint64, stream uint64) (*DataLoader, error) {
	if batchSize < 1 {
		return nil, errors.NewValidationError("batch_size", "must be positive", batchSize)
	}
	n := ds.Len()
	for _, i := range indices {
		if i < 0 || i >= n {
			return nil, errors.NewValueError("NewDataLoader", "index out of range")
		}
	}
	l := &DataLoader{
		ds:        ds,
		indices:   append([]int(nil), indices...),
		batchSize: batchSize,
		shuffle:   shuffle,
		seed:      seed,
		stream:    stream,
	}
	l.Reset()
	return l, nil
}

// Len はローダーのサンプル数を返す
func (l *DataLoader) Len() int { return len(l.indices) }

// NumBatches はエポックあたりのバッチ数を返す（最後のバッチは短い場合がある）
func (l *DataLoader) NumBatches() int {
	return (len(l.indices) + l.batchSize - 1) / l.batchSize
}

// BatchSize はバッチサイズを返す
func (l *DataLoader) BatchSize() int { return l.batchSize }

// Shuffled はエポックごとに並べ替えるかどうかを返す
func (l *DataLoader) Shuffled() bool { return l.shuffle }

// Indices はローダーが扱う行番号を返す
func (l *DataLoader) Indices() []int {
	return append([]int(nil), l.indices...)
}

// Reset は乱数系列を初期状態に戻す。Reset後のエポック列は作成直後と同じになる。
func (l *DataLoader) Reset() {
	l.rand = rand.New(rand.NewPCG(l.seed, l.stream))
	l.order = append(l.order[:0], l.indices...)
}

// Batches は1エポック分のバッチを返すイテレータ
//
//	for batch := range loader.Batches() {
//	    out, _, err := nam.Forward(batch.X)
//	}
func (l *DataLoader) Batches() iter.Seq[Batch] {
	if l.shuffle {
		l.rand.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	order := append([]int(nil), l.order...)
	return func(yield func(Batch) bool) {
		for start := 0; start < len(order); start += l.batchSize {
			end := min(start+l.batchSize, len(order))
			if !yield(l.batch(order[start:end])) {
				return
			}
		}
	}
}

func (l *DataLoader) batch(rows []int) Batch {
	nf := l.ds.NumFeatures()
	b := Batch{
		X:       mat.NewDense(len(rows), nf, nil),
		Y:       mat.NewVecDense(len(rows), nil),
		W:       mat.NewVecDense(len(rows), nil),
		Indices: append([]int(nil), rows...),
	}
	for k, i := range rows {
		b.X.SetRow(k, l.ds.x.RawRowView(i))
		b.Y.SetVec(k, l.ds.y.At(i, 0))
		b.W.SetVec(k, l.ds.w[i])
	}
	return b
}

// Fold は1つの分割の学習用・検証用ローダー
type Fold struct {
	Index int
	Train *DataLoader
	Val   *DataLoader
}

// DataLoaders はk-fold交差検証のローダーを作成する。
// stratifiedがtrueの場合はクラス比率を保つ層化分割を使う。
// 分割はseeds.Split、学習用ローダーの並べ替えはseeds.Shuffleから決まる。
func (d *NAMDataset) DataLoaders(nSplits, batchSize int, shuffle, stratified bool, seeds *rng.Seeds) ([]Fold, error) {
	if seeds == nil {
		return nil, errors.NewValueError("DataLoaders", "random streams are required")
	}
	var splitter model_selection.Splitter
	if stratified {
		skf := model_selection.NewStratifiedKFold(nSplits, shuffle, seeds.Seed())
		skf.Rand = seeds.Split
		splitter = skf
	} else {
		kf := model_selection.NewKFold(nSplits, shuffle, seeds.Seed())
		kf.Rand = seeds.Split
		splitter = kf
	}

	splits, err := splitter.Split(d.x, d.y)
	if err != nil {
		return nil, errors.Wrap(err, "failed to split dataset")
	}

	logger := log.GetLoggerWithName("dataset")
	loaderSeed := seeds.Shuffle.Uint64()
	folds := make([]Fold, len(splits))
	for f, s := range splits {
		train, err := NewDataLoader(d, s.TrainIndices, batchSize, shuffle, loaderSeed, uint64(f+1))
		if err != nil {
			return nil, err
		}
		val, err := NewDataLoader(d, s.TestIndices, batchSize, false, loaderSeed, 0)
		if err != nil {
			return nil, err
		}
		folds[f] = Fold{Index: f, Train: train, Val: val}

		logger.Debug("Created fold",
			log.FoldKey, f,
			"train_samples", train.Len(),
			"val_samples", val.Len(),
			log.BatchesKey, train.NumBatches(),
		)
	}
	return folds, nil
}
