package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/config"
	"github.com/YuminosukeSato/nam/core/model"
	"github.com/YuminosukeSato/nam/core/parallel"
	"github.com/YuminosukeSato/nam/core/rng"
	"github.com/YuminosukeSato/nam/nn"
	"github.com/YuminosukeSato/nam/pkg/errors"
)

// parallelThreshold is the number of features up to which the FeatureNNs run
// on the calling goroutine.
const parallelThreshold = 1

// NAM is a Neural Additive Model: one FeatureNN per input feature, dropout
// over the per-feature outputs and a scalar bias.
//
//	out = Σ_i dropout(f_i(x_i)) + bias
type NAM struct {
	Base

	NumInputs      int
	NumUnits       []int
	Shallow        bool
	FeatureDropout float64
	FeatureNames   []string

	FeatureNNs []*FeatureNN
	Bias       *nn.Parameter

	dropout *nn.Dropout
}

// ExpandUnits resolves the num_units setting for numInputs features. A single
// value is used for every feature; otherwise there must be one value per
// feature.
func ExpandUnits(numUnits []int, numInputs int) ([]int, error) {
	switch len(numUnits) {
	case 1:
		out := make([]int, numInputs)
		for i := range out {
			out[i] = numUnits[0]
		}
		return out, nil
	case numInputs:
		return append([]int(nil), numUnits...), nil
	default:
		return nil, errors.NewValidationError("num_units",
			fmt.Sprintf("expected 1 or %d values", numInputs), numUnits)
	}
}

// NewNAM builds a NAM over numInputs features. Each FeatureNN draws its
// parameters and dropout masks from its own stream derived from seeds, so the
// initialization does not depend on the order the subnetworks are built in.
func NewNAM(cfg *config.Config, name string, numInputs int, numUnits []int, shallow bool, featureDropout float64, seeds *rng.Seeds) (*NAM, error) {
	if numInputs < 1 {
		return nil, errors.NewValidationError("num_inputs", "must be positive", numInputs)
	}
	if featureDropout < 0 || featureDropout >= 1 {
		return nil, errors.NewValidationError("feature_dropout", "must be in [0, 1)", featureDropout)
	}
	units, err := ExpandUnits(numUnits, numInputs)
	if err != nil {
		return nil, err
	}

	n := &NAM{
		Base:           NewBase(cfg, name),
		NumInputs:      numInputs,
		NumUnits:       units,
		Shallow:        shallow,
		FeatureDropout: featureDropout,
		FeatureNNs:     make([]*FeatureNN, numInputs),
		Bias:           nn.NewParameter(name+"._bias", 1, 1, nn.Constant(0), 1, 1),
		dropout:        nn.NewDropout(featureDropout, seeds.Derive(name+".dropout")),
	}
	for i := range n.FeatureNNs {
		fnnName := fmt.Sprintf("%s.feature_nns.%d", name, i)
		if n.FeatureNNs[i], err = NewFeatureNN(cfg, fnnName, i, units[i], shallow, seeds.Derive(fnnName)); err != nil {
			return nil, errors.Wrapf(err, "failed to build FeatureNN %d", i)
		}
	}
	return n, nil
}

// CalcOutputs runs every FeatureNN on its column of x and returns the
// [batch, NumInputs] matrix of per-feature outputs before feature dropout.
func (n *NAM) CalcOutputs(x mat.Matrix) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != n.NumInputs {
		return nil, errors.NewDimensionError("NAM.CalcOutputs", n.NumInputs, cols, 1)
	}

	outputs := mat.NewDense(rows, n.NumInputs, nil)
	err := parallel.ForEach(n.NumInputs, parallelThreshold, "NAM.FeatureNN", func(i int) error {
		col := mat.NewDense(rows, 1, mat.Col(nil, i, x))
		out, err := n.FeatureNNs[i].Forward(col)
		if err != nil {
			return errors.Wrapf(err, "feature %d", i)
		}
		// Each goroutine writes only column i.
		for r := 0; r < rows; r++ {
			outputs.Set(r, i, out.At(r, 0))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outputs, nil
}

// Forward returns the [batch, 1] prediction and the [batch, NumInputs]
// per-feature outputs after feature dropout.
func (n *NAM) Forward(x mat.Matrix) (out, featureOut *mat.Dense, err error) {
	defer errors.Recover(&err, "NAM.Forward")

	individual, err := n.CalcOutputs(x)
	if err != nil {
		return nil, nil, err
	}
	if featureOut, err = n.dropout.Forward(individual); err != nil {
		return nil, nil, err
	}

	rows, _ := featureOut.Dims()
	bias := n.Bias.Value.At(0, 0)
	out = mat.NewDense(rows, 1, nil)
	for r := 0; r < rows; r++ {
		sum := bias
		for _, v := range featureOut.RawRowView(r) {
			sum += v
		}
		out.Set(r, 0, sum)
	}
	if err := errors.CheckMatrix("NAM.Forward", out); err != nil {
		return nil, nil, err
	}
	return out, featureOut, nil
}

// Predict implements Model.
func (n *NAM) Predict(x mat.Matrix) (*mat.Dense, error) {
	out, _, err := n.Forward(x)
	return out, err
}

// Parameters implements Model. The bias comes first, followed by the
// parameters of each FeatureNN in feature order.
func (n *NAM) Parameters() []*nn.Parameter {
	params := []*nn.Parameter{n.Bias}
	for _, f := range n.FeatureNNs {
		params = append(params, f.Parameters()...)
	}
	return params
}

// NumParams implements Model.
func (n *NAM) NumParams() int { return nn.NumParams(n.Parameters()) }

// Train implements Model.
func (n *NAM) Train() { n.setModeAll(model.ModeTrain) }

// Eval implements Model.
func (n *NAM) Eval() { n.setModeAll(model.ModeEval) }

func (n *NAM) setModeAll(mode model.Mode) {
	n.setMode(mode, n.dropout)
	for _, f := range n.FeatureNNs {
		f.setMode(mode, f.net)
	}
}

// Type implements Model.
func (n *NAM) Type() string { return "NAM" }

// Summary implements Model.
func (n *NAM) Summary() *model.Summary {
	hidden := []int(nil)
	if n.Config != nil {
		hidden = n.Config.HiddenSizes
	}
	activation := ""
	if len(n.FeatureNNs) > 0 {
		activation = n.FeatureNNs[0].Activation
	}
	return summarize(n, n.FeatureNames, map[string]interface{}{
		"num_inputs":      n.NumInputs,
		"num_units":       n.NumUnits,
		"shallow":         n.Shallow,
		"hidden_sizes":    hidden,
		"activation":      activation,
		"feature_dropout": n.FeatureDropout,
	})
}
