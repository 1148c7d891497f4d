package models

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/config"
	"github.com/YuminosukeSato/nam/core/model"
	"github.com/YuminosukeSato/nam/core/rng"
	"github.com/YuminosukeSato/nam/dataset"
	"github.com/YuminosukeSato/nam/pkg/errors"
)

func randomInput(rows, cols int, seed int64) *mat.Dense {
	r := rng.New(seed)
	x := mat.NewDense(rows, cols, nil)
	x.Apply(func(_, _ int, _ float64) float64 { return r.Float64()*2 - 1 }, x)
	return x
}

func TestDNNForwardShape(t *testing.T) {
	cfg := config.Defaults()
	d, err := NewDNN(cfg, "DNNModel", 4, 3, cfg.DNNDropout, rng.New(1))
	require.NoError(t, err)

	for _, batch := range []int{1, 7, 32} {
		out, err := d.Forward(randomInput(batch, 4, 2))
		require.NoError(t, err)
		r, c := out.Dims()
		assert.Equal(t, batch, r, "batch dimension is preserved")
		assert.Equal(t, 3, c)
	}

	want := (4*100 + 100) + DNNHiddenLayers*(100*100+100) + (100*3 + 3)
	assert.Equal(t, want, d.NumParams())
	assert.Equal(t, DNNBiasInit, d.Parameters()[1].Value.At(0, 0))

	_, err = d.Forward(randomInput(2, 5, 2))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestNewDNNValidation(t *testing.T) {
	cfg := config.Defaults()
	_, err := NewDNN(cfg, "DNN", 0, 1, 0.1, rng.New(1))
	assert.Error(t, err)
	_, err = NewDNN(cfg, "DNN", 1, 1, 1.0, rng.New(1))
	assert.Error(t, err)
}

func TestFeatureNNLayout(t *testing.T) {
	tests := []struct {
		name       string
		activation string
		shallow    bool
		hidden     []int
		numUnits   int
		wantParams int
	}{
		{
			name:       "exu deep",
			activation: config.ActivationExU,
			hidden:     []int{64, 32},
			numUnits:   64,
			// ExU(1→64) + LinReLU(64→64) + LinReLU(64→32) + Linear(32→1)
			wantParams: (64 + 1) + (64*64 + 64) + (64*32 + 64) + (32 + 1),
		},
		{
			name:       "relu shallow",
			activation: config.ActivationReLU,
			shallow:    true,
			hidden:     []int{64, 32},
			numUnits:   16,
			wantParams: (16 + 1) + (16 + 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Activation = tt.activation
			cfg.HiddenSizes = tt.hidden
			f, err := NewFeatureNN(cfg, "fnn", 0, tt.numUnits, tt.shallow, rng.New(3))
			require.NoError(t, err)
			assert.Equal(t, tt.wantParams, f.NumParams())

			out, err := f.Forward(randomInput(10, 1, 4))
			require.NoError(t, err)
			r, c := out.Dims()
			assert.Equal(t, 10, r)
			assert.Equal(t, 1, c)
		})
	}
}

func newTestNAM(t *testing.T, seed int64, numInputs int) *NAM {
	t.Helper()
	cfg := config.Defaults()
	cfg.HiddenSizes = []int{8}
	n, err := NewNAM(cfg, "NAMModel", numInputs, []int{8}, false, cfg.FeatureDropout, rng.InitRandomSeeds(seed))
	require.NoError(t, err)
	return n
}

func TestNAMOutputIsSumOfFeatureOutputs(t *testing.T) {
	n := newTestNAM(t, 2021, 4)
	n.Bias.Value.Set(0, 0, 0.5)
	n.Eval()

	x := randomInput(16, 4, 5)
	out, featureOut, err := n.Forward(x)
	require.NoError(t, err)

	individual, err := n.CalcOutputs(x)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(individual, featureOut, 1e-12), "feature dropout is the identity in eval mode")

	r, c := out.Dims()
	require.Equal(t, 16, r)
	require.Equal(t, 1, c)
	for i := 0; i < r; i++ {
		want := 0.5
		for j := 0; j < 4; j++ {
			col := mat.NewDense(1, 1, []float64{x.At(i, j)})
			fo, err := n.FeatureNNs[j].Forward(col)
			require.NoError(t, err)
			want += fo.At(0, 0)
		}
		assert.InDelta(t, want, out.At(i, 0), 1e-9)
	}
}

func TestNAMTrainModeAppliesFeatureDropout(t *testing.T) {
	n := newTestNAM(t, 7, 3)
	n.Eval()
	x := randomInput(64, 3, 6)
	evalOut, _, err := n.Forward(x)
	require.NoError(t, err)

	n.Train()
	assert.Equal(t, model.ModeTrain, n.Mode())
	trainOut, _, err := n.Forward(x)
	require.NoError(t, err)
	assert.False(t, mat.EqualApprox(evalOut, trainOut, 1e-12))
}

func TestNAMInitializationIsReproducible(t *testing.T) {
	a := newTestNAM(t, 2021, 4)
	b := newTestNAM(t, 2021, 4)
	c := newTestNAM(t, 2022, 4)

	assert.Equal(t, StateDict(a), StateDict(b))
	assert.NotEqual(t, StateDict(a), StateDict(c))
}

func TestNAMUnits(t *testing.T) {
	units, err := ExpandUnits([]int{32}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{32, 32, 32}, units)

	units, err = ExpandUnits([]int{4, 8}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 8}, units)

	_, err = ExpandUnits([]int{4, 8}, 3)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))

	cfg := config.Defaults()
	cfg.HiddenSizes = nil
	n, err := NewNAM(cfg, "NAMModel", 2, []int{4, 8}, true, 0, rng.InitRandomSeeds(1))
	require.NoError(t, err)
	assert.Equal(t, 4, n.FeatureNNs[0].NumUnits)
	assert.Equal(t, 8, n.FeatureNNs[1].NumUnits)
	assert.Equal(t, 1+(4+1+4+1)+(8+1+8+1), n.NumParams())
}

func TestNAMDimensionMismatch(t *testing.T) {
	n := newTestNAM(t, 1, 4)
	_, _, err := n.Forward(randomInput(3, 2, 1))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 4, dimErr.Expected)
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.th")
	src := newTestNAM(t, 1, 3)
	require.NoError(t, Save(src, path, map[string]string{"seed": "1"}))

	dst := newTestNAM(t, 99, 3)
	header, err := Load(dst, path)
	require.NoError(t, err)
	assert.Equal(t, "NAM", header.ModelType)

	src.Eval()
	dst.Eval()
	x := randomInput(5, 3, 2)
	want, err := src.Predict(x)
	require.NoError(t, err)
	got, err := dst.Predict(x)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))

	d, err := NewDNN(config.Defaults(), "DNN", 3, 1, 0.1, rng.New(1))
	require.NoError(t, err)
	_, err = Load(d, path)
	assert.Error(t, err, "a NAM checkpoint cannot be loaded into a DNN")

	other := newTestNAM(t, 1, 4)
	_, err = Load(other, path)
	assert.Error(t, err, "shapes must match")
}

func TestSummary(t *testing.T) {
	n := newTestNAM(t, 1, 2)
	n.FeatureNames = []string{"a", "b"}
	s := n.Summary()
	require.NoError(t, s.Validate())
	assert.Equal(t, "NAM", s.ModelType)
	assert.Equal(t, n.NumParams(), s.NumParams)
	assert.Equal(t, "NAMModel._bias", s.Layers[0].Name)
}

func writeDataset(t *testing.T, n int, classify bool) *dataset.NAMDataset {
	t.Helper()
	var b strings.Builder
	b.WriteString("x1,x2,y,w\n")
	for i := 0; i < n; i++ {
		y := float64(i) / float64(n)
		if classify {
			y = float64(i % 2)
		}
		fmt.Fprintf(&b, "%d,%d,%g,%d\n", i, n-i, y, 1+i%3)
	}
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	ds, err := dataset.Load(dataset.Options{
		CSVFile:         path,
		FeaturesColumns: []string{"x1", "x2"},
		TargetsColumn:   "y",
		WeightsColumn:   "w",
		Regression:      !classify,
		Scaler:          "minmax",
	})
	require.NoError(t, err)
	return ds
}

func TestEvaluate(t *testing.T) {
	t.Run("regression", func(t *testing.T) {
		ds := writeDataset(t, 30, false)
		folds, err := ds.DataLoaders(3, 8, true, false, rng.InitRandomSeeds(2021))
		require.NoError(t, err)

		n := newTestNAM(t, 2021, 2)
		n.Train()
		scores, err := Evaluate(n, folds[0].Val, true)
		require.NoError(t, err)
		assert.Equal(t, 10, scores.Samples)
		assert.InDelta(t, math.Sqrt(scores.Loss), scores.RMSE, 1e-12)
		assert.False(t, math.IsNaN(scores.MAE))
		assert.False(t, math.IsNaN(scores.R2))
		assert.LessOrEqual(t, scores.R2, 1.0)
		assert.True(t, math.IsNaN(scores.Accuracy))
		assert.Equal(t, model.ModeTrain, n.Mode(), "the previous mode is restored")

		again, err := Evaluate(n, folds[0].Val, true)
		require.NoError(t, err)
		assert.Equal(t, scores.Loss, again.Loss, "evaluation is deterministic")
	})

	t.Run("classification", func(t *testing.T) {
		ds := writeDataset(t, 30, true)
		folds, err := ds.DataLoaders(3, 8, true, true, rng.InitRandomSeeds(2021))
		require.NoError(t, err)

		d, err := NewDNN(config.Defaults(), "DNN", 2, 1, 0.15, rng.New(3))
		require.NoError(t, err)
		d.Eval()
		scores, err := Evaluate(d, folds[1].Val, false)
		require.NoError(t, err)
		assert.Positive(t, scores.Loss)
		assert.True(t, scores.Accuracy >= 0 && scores.Accuracy <= 1)
		assert.True(t, scores.AUC >= 0 && scores.AUC <= 1)
		assert.True(t, math.IsNaN(scores.R2), "R2 only applies to regression")
		assert.Equal(t, model.ModeEval, d.Mode())
	})

	t.Run("non-binary targets", func(t *testing.T) {
		ds := writeDataset(t, 30, false)
		folds, err := ds.DataLoaders(3, 8, false, false, rng.InitRandomSeeds(2021))
		require.NoError(t, err)
		_, err = Evaluate(newTestNAM(t, 1, 2), folds[0].Val, false)
		var valErr *errors.ValueError
		assert.True(t, errors.As(err, &valErr))
	})
}
