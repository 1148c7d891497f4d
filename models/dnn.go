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

// DNN layout: an input layer, DNNHiddenLayers hidden layers of DNNWidth units
// and a linear output layer.
const (
	DNNWidth        = 100
	DNNHiddenLayers = 9
	DNNBiasInit     = 0.01
)

// DNN is the fully connected baseline network. Every Linear layer but the
// last is followed by ReLU and dropout.
type DNN struct {
	Base

	InputShape  int
	OutputShape int
	Dropout     float64

	net *nn.Sequential
}

// NewDNN builds a DNN with Kaiming-normal weights and biases of 0.01. r
// drives both the initialization and the dropout masks.
func NewDNN(cfg *config.Config, name string, inputShape, outputShape int, dropout float64, r *rand.Rand) (*DNN, error) {
	switch {
	case inputShape < 1:
		return nil, errors.NewValidationError("input_shape", "must be positive", inputShape)
	case outputShape < 1:
		return nil, errors.NewValidationError("output_shape", "must be positive", outputShape)
	case dropout < 0 || dropout >= 1:
		return nil, errors.NewValidationError("dnn_dropout", "must be in [0, 1)", dropout)
	}

	d := &DNN{
		Base:        NewBase(cfg, name),
		InputShape:  inputShape,
		OutputShape: outputShape,
		Dropout:     dropout,
		net:         nn.NewSequential(),
	}
	weight, bias := nn.KaimingNormal(r), nn.Constant(DNNBiasInit)
	in := inputShape
	for i := 0; i <= DNNHiddenLayers; i++ {
		layer := fmt.Sprintf("%s.model.%d", name, 3*i)
		d.net.Add(nn.NewLinear(layer, in, DNNWidth, weight, bias))
		d.net.Add(nn.NewReLU())
		d.net.Add(nn.NewDropout(dropout, r))
		in = DNNWidth
	}
	d.net.Add(nn.NewLinear(fmt.Sprintf("%s.model.%d", name, 3*(DNNHiddenLayers+1)), in, outputShape, weight, bias))
	return d, nil
}

// Forward returns the [batch, OutputShape] output.
func (d *DNN) Forward(x mat.Matrix) (out *mat.Dense, err error) {
	defer errors.Recover(&err, "DNN.Forward")
	if out, err = d.net.Forward(x); err != nil {
		return nil, err
	}
	return out, errors.CheckMatrix("DNN.Forward", out)
}

// Predict implements Model.
func (d *DNN) Predict(x mat.Matrix) (*mat.Dense, error) { return d.Forward(x) }

// Parameters implements Model.
func (d *DNN) Parameters() []*nn.Parameter { return d.net.Parameters() }

// NumParams implements Model.
func (d *DNN) NumParams() int { return nn.NumParams(d.Parameters()) }

// Train implements Model.
func (d *DNN) Train() { d.setMode(model.ModeTrain, d.net) }

// Eval implements Model.
func (d *DNN) Eval() { d.setMode(model.ModeEval, d.net) }

// Type implements Model.
func (d *DNN) Type() string { return "DNN" }

// Summary implements Model.
func (d *DNN) Summary() *model.Summary {
	return summarize(d, nil, map[string]interface{}{
		"input_shape":   d.InputShape,
		"output_shape":  d.OutputShape,
		"dropout":       d.Dropout,
		"hidden_width":  DNNWidth,
		"hidden_layers": DNNHiddenLayers,
	})
}
