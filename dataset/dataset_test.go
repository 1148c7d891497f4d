package dataset

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/nam/core/rng"
	"github.com/YuminosukeSato/nam/pkg/errors"
	"github.com/YuminosukeSato/nam/preprocessing"
)

const gallup = `income_2,WP1219,WP1220,weo_gdpc_con_ppp,country,wgt
1,0,30,1000,Japan,1.0
2,1,40,2000,Chile,0.5
3,0,50,3000,Japan,2.0
4,1,,4000,Chile,1.0
5,0,60,5000,Japan,1.5
6,1,70,6000,Chile,1.0
7,0,80,7000,Japan,1.0
8,1,90,8000,Chile,0.25
9,0,20,9000,Japan,1.0
10,1,25,10000,Chile,1.0
`

var gallupFeatures = []string{"income_2", "WP1219", "WP1220", "weo_gdpc_con_ppp"}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadGallup(t *testing.T, scaler string) *NAMDataset {
	t.Helper()
	ds, err := Load(Options{
		CSVFile:         writeCSV(t, gallup),
		FeaturesColumns: gallupFeatures,
		TargetsColumn:   "country",
		WeightsColumn:   "wgt",
		Scaler:          scaler,
	})
	require.NoError(t, err)
	return ds
}

func TestLoadDropsMissingAndEncodesLabels(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	ds := loadGallup(t, preprocessing.ScalerNone)

	assert.Equal(t, 9, ds.Len(), "the row with an empty WP1220 is dropped")
	assert.Equal(t, 4, ds.NumFeatures())
	assert.Equal(t, gallupFeatures, ds.FeatureNames())
	assert.Equal(t, []string{"Chile", "Japan"}, ds.Classes())

	features, target, weight := ds.At(1)
	assert.Equal(t, []float64{2, 1, 40, 2000}, features)
	assert.Equal(t, 0.0, target, "Chile sorts first")
	assert.Equal(t, 0.5, weight)

	var dropped *errors.DroppedRowsWarning
	var converted *errors.DataConversionWarning
	for _, w := range warnings {
		errors.As(w, &dropped)
		errors.As(w, &converted)
	}
	require.NotNil(t, dropped)
	assert.Equal(t, 1, dropped.Dropped)
	assert.NotNil(t, converted)
}

func TestLoadTreatsNAMarkersAsMissing(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	for _, cell := range []string{
		"", "NAN", "Nan", "-nan", "-NaN", "n/a", "N/A", "#N/A", "#N/A N/A", "#NA",
		"<NA>", "None", "null", "1.#IND", "-1.#IND", "1.#QNAN", "-1.#QNAN",
	} {
		t.Run(cell, func(t *testing.T) {
			ds, err := Load(Options{
				CSVFile:         writeCSV(t, "a,y\n1,0\n"+cell+",1\n3,0\n4,1\n"),
				FeaturesColumns: []string{"a"},
				TargetsColumn:   "y",
			})
			require.NoError(t, err)
			require.Equal(t, 3, ds.Len(), "the marked row is dropped")
			for i := 0; i < ds.Len(); i++ {
				x, _, _ := ds.At(i)
				assert.False(t, math.IsNaN(x[0]))
			}
		})
	}
}

func TestLoadScalesFeatures(t *testing.T) {
	ds := loadGallup(t, preprocessing.ScalerMinMax)
	features, _, _ := ds.At(0)
	assert.InDelta(t, -1, features[0], 1e-12)
	last, _, _ := ds.At(ds.Len() - 1)
	assert.InDelta(t, 1, last[3], 1e-12)
	require.NotNil(t, ds.Scaler())
	assert.Equal(t, 1.0, ds.RawFeatures().At(0, 0))
}

func TestLoadWithoutWeightsColumn(t *testing.T) {
	ds, err := Load(Options{
		CSVFile:         writeCSV(t, gallup),
		FeaturesColumns: []string{"income_2"},
		TargetsColumn:   "weo_gdpc_con_ppp",
		Regression:      true,
	})
	require.NoError(t, err)
	for _, w := range ds.Weights() {
		assert.Equal(t, 1.0, w)
	}
	assert.Nil(t, ds.Classes())
	_, target, _ := ds.At(2)
	assert.Equal(t, 3000.0, target)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		opts    Options
		check   func(t *testing.T, err error)
	}{
		{
			name:    "missing column",
			content: gallup,
			opts:    Options{FeaturesColumns: []string{"income_3"}, TargetsColumn: "country"},
			check: func(t *testing.T, err error) {
				var colErr *errors.ColumnNotFoundError
				require.True(t, errors.As(err, &colErr))
				assert.Equal(t, "income_3", colErr.Column)
				assert.Contains(t, err.Error(), "data.csv")
			},
		},
		{
			name:    "non-numeric feature",
			content: "a,y\n1,0\nx,1\n",
			opts:    Options{FeaturesColumns: []string{"a"}, TargetsColumn: "y"},
			check: func(t *testing.T, err error) {
				var parseErr *errors.ParseError
				require.True(t, errors.As(err, &parseErr))
				assert.Equal(t, 3, parseErr.Row)
				assert.Equal(t, "a", parseErr.Column)
			},
		},
		{
			name:    "negative weight",
			content: "a,y,w\n1,0,-1\n",
			opts:    Options{FeaturesColumns: []string{"a"}, TargetsColumn: "y", WeightsColumn: "w"},
			check: func(t *testing.T, err error) {
				var valErr *errors.ValidationError
				assert.True(t, errors.As(err, &valErr))
			},
		},
		{
			name:    "string target in regression",
			content: "a,y\n1,0\n2,high\n",
			opts:    Options{FeaturesColumns: []string{"a"}, TargetsColumn: "y", Regression: true},
			check: func(t *testing.T, err error) {
				var parseErr *errors.ParseError
				require.True(t, errors.As(err, &parseErr))
				assert.Equal(t, 3, parseErr.Row)
			},
		},
		{
			name:    "only missing rows",
			content: "a,y\nNA,0\n",
			opts:    Options{FeaturesColumns: []string{"a"}, TargetsColumn: "y"},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, errors.ErrEmptyData))
			},
		},
	}
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.CSVFile = writeCSV(t, tt.content)
			_, err := Load(tt.opts)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestDataLoadersPartition(t *testing.T) {
	ds := loadGallup(t, preprocessing.ScalerMinMax)

	seeds := rng.InitRandomSeeds(2021)
	folds, err := ds.DataLoaders(3, 2, true, true, seeds)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	var all []int
	for i, f := range folds {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, ds.Len(), f.Train.Len()+f.Val.Len())
		assert.False(t, f.Val.Shuffled())
		all = append(all, f.Val.Indices()...)
	}
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, all)

	again, err := ds.DataLoaders(3, 2, true, true, rng.InitRandomSeeds(2021))
	require.NoError(t, err)
	for i := range folds {
		assert.Equal(t, folds[i].Val.Indices(), again[i].Val.Indices(), "same seed, same folds")
		assert.Equal(t, epochOrder(folds[i].Train), epochOrder(again[i].Train), "same seed, same epoch order")
	}

	_, err = ds.DataLoaders(3, 2, true, true, nil)
	assert.Error(t, err)
}

func TestDataLoadersDrawFromRunStreams(t *testing.T) {
	ds := loadGallup(t, preprocessing.ScalerNone)
	used := rng.InitRandomSeeds(11)
	_, err := ds.DataLoaders(3, 2, true, false, used)
	require.NoError(t, err)

	fresh := rng.InitRandomSeeds(11)
	assert.NotEqual(t, fresh.Split.Uint64(), used.Split.Uint64(), "fold assignment consumes the split stream")
	assert.NotEqual(t, fresh.Shuffle.Uint64(), used.Shuffle.Uint64(), "loader seeding consumes the shuffle stream")
}

func epochOrder(l *DataLoader) []int {
	var idx []int
	for b := range l.Batches() {
		idx = append(idx, b.Indices...)
	}
	return idx
}

func TestDataLoaderBatches(t *testing.T) {
	ds := loadGallup(t, preprocessing.ScalerNone)
	loader, err := NewDataLoader(ds, []int{0, 1, 2, 3, 4}, 2, false, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, loader.NumBatches())
	var sizes []int
	for b := range loader.Batches() {
		sizes = append(sizes, b.Size())
		r, c := b.X.Dims()
		assert.Equal(t, b.Size(), r)
		assert.Equal(t, 4, c)
		assert.Equal(t, b.Size(), b.W.Len())
	}
	assert.Equal(t, []int{2, 2, 1}, sizes, "the last batch is short")
}

func TestDataLoaderShuffleReset(t *testing.T) {
	ds := loadGallup(t, preprocessing.ScalerNone)
	loader, err := NewDataLoader(ds, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, 9, true, 7, 1)
	require.NoError(t, err)

	epoch := func() []int {
		var idx []int
		for b := range loader.Batches() {
			idx = append(idx, b.Indices...)
		}
		return idx
	}
	first := epoch()
	second := epoch()
	assert.NotEqual(t, first, second, "training loaders reshuffle every epoch")
	assert.ElementsMatch(t, first, second)

	loader.Reset()
	assert.Equal(t, first, epoch())
}

func TestDescribeAndPlot(t *testing.T) {
	ds := loadGallup(t, preprocessing.ScalerMinMax)
	stats := ds.Describe()
	require.Len(t, stats, 4)
	assert.Equal(t, "income_2", stats[0].Name)
	assert.Equal(t, 1.0, stats[0].Min)
	assert.Equal(t, 10.0, stats[0].Max)

	paths, err := ds.PlotFeatureHistograms(filepath.Join(t.TempDir(), "plots"))
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
