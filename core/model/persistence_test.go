package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	Weights map[string][]float64
	Bias    float64
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.th")
	in := testState{Weights: map[string][]float64{"fnn.0.weight": {1, 2, 3}}, Bias: 0.5}

	require.NoError(t, SaveCheckpoint(path, NewHeader("NAM", map[string]string{"seed": "2021"}), in))

	var out testState
	header, err := LoadCheckpoint(path, "NAM", &out)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, "2021", header.Metadata["seed"])
	assert.Equal(t, CheckpointVersion, header.Version)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestCheckpointModelTypeMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCheckpoint(&buf, NewHeader("DNN", nil), testState{}))

	var out testState
	_, err := ReadCheckpoint(&buf, "NAM", &out)
	assert.Error(t, err)
}

func TestCheckpointRejectsForeignFormat(t *testing.T) {
	var buf bytes.Buffer
	h := NewHeader("NAM", nil)
	h.Format = "other"
	require.NoError(t, WriteCheckpoint(&buf, h, testState{}))

	var out testState
	_, err := ReadCheckpoint(&buf, "", &out)
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	s := &Summary{
		ModelType: "NAM",
		NumParams: 6,
		Features:  []string{"a", "b"},
		Layers: []LayerSummary{
			{Name: "bias", Rows: 1, Cols: 1, Params: 1},
			{Name: "w", Rows: 1, Cols: 5, Params: 5},
		},
	}
	require.NoError(t, s.Validate())
	assert.Equal(t, "NAM(params=6, features=[a, b])", s.String())

	s.NumParams = 7
	assert.Error(t, s.Validate())
}

func TestBaseEstimatorState(t *testing.T) {
	var e BaseEstimator
	assert.False(t, e.IsFitted())
	e.SetFitted()
	assert.Equal(t, "fitted", e.State().String())
	e.Reset()
	assert.False(t, e.IsFitted())
	assert.Equal(t, "eval", ModeEval.String())
}
