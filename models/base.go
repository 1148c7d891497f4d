// Package models builds the DNN baseline and the Neural Additive Model.
//
// Models are constructed and initialized from a config.Config, run forward
// passes on gonum matrices, can be evaluated on a data loader and are saved
// as gob checkpoints. They carry no optimizer; weights only change through
// LoadStateDict.
package models

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/config"
	"github.com/YuminosukeSato/nam/core/model"
	"github.com/YuminosukeSato/nam/nn"
)

// Model is implemented by every network in this package.
type Model interface {
	// Predict returns the [batch, out] output of the network.
	Predict(x mat.Matrix) (*mat.Dense, error)
	Parameters() []*nn.Parameter
	NumParams() int
	// Train enables dropout; Eval disables it.
	Train()
	Eval()
	Mode() model.Mode
	Name() string
	// Type names the architecture in checkpoints and summaries.
	Type() string
	Summary() *model.Summary
}

// Base holds what every model shares: its configuration, its name and its
// current mode.
type Base struct {
	Config *config.Config
	name   string
	mode   model.Mode
}

// NewBase creates a Base in training mode.
func NewBase(cfg *config.Config, name string) Base {
	return Base{Config: cfg, name: name, mode: model.ModeTrain}
}

// Name returns the name given at construction.
func (b *Base) Name() string { return b.name }

// Mode returns the current mode.
func (b *Base) Mode() model.Mode { return b.mode }

func (b *Base) setMode(mode model.Mode, modules ...nn.Module) {
	b.mode = mode
	for _, m := range modules {
		m.SetMode(mode)
	}
}

// StateDict returns a copy of the parameters of m.
func StateDict(m Model) nn.StateDict {
	return nn.StateDictOf(m.Parameters())
}

// LoadStateDict replaces the parameters of m with the values in sd.
func LoadStateDict(m Model, sd nn.StateDict) error {
	return nn.LoadStateDict(m.Parameters(), sd)
}

func summarize(m Model, features []string, hyper map[string]interface{}) *model.Summary {
	return &model.Summary{
		ModelType:       m.Type(),
		NumParams:       m.NumParams(),
		Features:        features,
		Layers:          nn.Summarize(m.Parameters()),
		Hyperparameters: hyper,
	}
}
