package models

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/config"
	"github.com/YuminosukeSato/nam/core/model"
	"github.com/YuminosukeSato/nam/nn"
	"github.com/YuminosukeSato/nam/pkg/errors"
)

// FeatureNN is the subnetwork that maps one input feature to its additive
// contribution. Its first layer is ExU or LinReLU with NumUnits units,
// followed unless Shallow by LinReLU layers of HiddenSizes, and a final
// Linear layer to one output. Dropout follows every layer.
type FeatureNN struct {
	Base

	InputShape  int
	NumUnits    int
	FeatureNum  int
	Shallow     bool
	HiddenSizes []int
	Activation  string
	Dropout     float64

	net *nn.Sequential
}

// NewFeatureNN builds the subnetwork of feature featureNum. Activation,
// hidden sizes and dropout come from cfg.
func NewFeatureNN(cfg *config.Config, name string, featureNum, numUnits int, shallow bool, r *rand.Rand) (*FeatureNN, error) {
	if numUnits < 1 {
		return nil, errors.NewValidationError("num_units", "must be positive", numUnits)
	}
	f := &FeatureNN{
		Base:        NewBase(cfg, name),
		InputShape:  1,
		NumUnits:    numUnits,
		FeatureNum:  featureNum,
		Shallow:     shallow,
		HiddenSizes: append([]int(nil), cfg.HiddenSizes...),
		Activation:  cfg.Activation,
		Dropout:     cfg.Dropout,
		net:         nn.NewSequential(),
	}

	idx := 0
	layer := func() string {
		s := fmt.Sprintf("%s.model.%d", name, idx)
		idx += 2
		return s
	}

	switch f.Activation {
	case config.ActivationExU:
		f.net.Add(nn.NewExU(layer(), f.InputShape, numUnits, r))
	case config.ActivationReLU:
		f.net.Add(nn.NewLinReLU(layer(), f.InputShape, numUnits, r))
	default:
		return nil, errors.NewValidationError("activation", "must be \"exu\" or \"relu\"", f.Activation)
	}
	f.net.Add(nn.NewDropout(f.Dropout, r))

	in := numUnits
	if !shallow {
		for _, h := range f.HiddenSizes {
			f.net.Add(nn.NewLinReLU(layer(), in, h, r))
			f.net.Add(nn.NewDropout(f.Dropout, r))
			in = h
		}
	}
	f.net.Add(nn.NewLinear(layer(), in, 1, nn.UniformFanIn(r), nn.UniformFanIn(r)))
	f.net.Add(nn.NewDropout(f.Dropout, r))
	return f, nil
}

// Forward maps a [batch, 1] column to its [batch, 1] contribution.
func (f *FeatureNN) Forward(x mat.Matrix) (*mat.Dense, error) {
	return f.net.Forward(x)
}

// Predict implements Model.
func (f *FeatureNN) Predict(x mat.Matrix) (*mat.Dense, error) { return f.Forward(x) }

// Parameters implements Model.
func (f *FeatureNN) Parameters() []*nn.Parameter { return f.net.Parameters() }

// NumParams implements Model.
func (f *FeatureNN) NumParams() int { return nn.NumParams(f.Parameters()) }

// Train implements Model.
func (f *FeatureNN) Train() { f.setMode(model.ModeTrain, f.net) }

// Eval implements Model.
func (f *FeatureNN) Eval() { f.setMode(model.ModeEval, f.net) }

// Type implements Model.
func (f *FeatureNN) Type() string { return "FeatureNN" }

// Summary implements Model.
func (f *FeatureNN) Summary() *model.Summary {
	return summarize(f, nil, map[string]interface{}{
		"feature_num":  f.FeatureNum,
		"num_units":    f.NumUnits,
		"shallow":      f.Shallow,
		"hidden_sizes": f.HiddenSizes,
		"activation":   f.Activation,
		"dropout":      f.Dropout,
	})
}
