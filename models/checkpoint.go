package models

import (
	"github.com/YuminosukeSato/nam/core/model"
	"github.com/YuminosukeSato/nam/nn"
	"github.com/YuminosukeSato/nam/pkg/errors"
	"github.com/YuminosukeSato/nam/pkg/log"
)

type checkpointState struct {
	Name   string
	Params nn.StateDict
}

// Save writes the parameters of m to path.
func Save(m Model, path string, metadata map[string]string) error {
	state := checkpointState{Name: m.Name(), Params: StateDict(m)}
	if err := model.SaveCheckpoint(path, model.NewHeader(m.Type(), metadata), state); err != nil {
		return errors.NewModelError("models.Save", "checkpoint", err)
	}
	log.GetLoggerWithName("models").Info("Saved checkpoint",
		log.ModelNameKey, m.Name(),
		log.ModelTypeKey, m.Type(),
		log.ModelPathKey, path,
	)
	return nil
}

// Load restores the parameters of m from a checkpoint written by Save. The
// checkpoint must hold a model of the same type and shape.
func Load(m Model, path string) (model.Header, error) {
	var state checkpointState
	header, err := model.LoadCheckpoint(path, m.Type(), &state)
	if err != nil {
		return header, errors.NewModelError("models.Load", "checkpoint", err)
	}
	if err := LoadStateDict(m, state.Params); err != nil {
		return header, errors.NewModelError("models.Load", "state dict", err)
	}
	return header, nil
}
