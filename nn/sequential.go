package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/core/model"
	"github.com/YuminosukeSato/nam/pkg/errors"
)

// Sequential chains modules; each output is the next module's input.
type Sequential struct {
	modules []Module
}

// NewSequential creates a Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{modules: modules}
}

// Add appends a module.
func (s *Sequential) Add(m Module) {
	s.modules = append(s.modules, m)
}

// Len returns the number of modules.
func (s *Sequential) Len() int { return len(s.modules) }

// Module returns the module at index i.
func (s *Sequential) Module(i int) Module { return s.modules[i] }

// Forward implements Module.
func (s *Sequential) Forward(x mat.Matrix) (*mat.Dense, error) {
	if len(s.modules) == 0 {
		return nil, errors.NewModelError("Sequential.Forward", "no modules", nil)
	}
	var (
		out *mat.Dense
		err error
		in  = x
	)
	for _, m := range s.modules {
		if out, err = m.Forward(in); err != nil {
			return nil, err
		}
		in = out
	}
	return out, nil
}

// Parameters implements Module.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// SetMode implements Module.
func (s *Sequential) SetMode(mode model.Mode) {
	for _, m := range s.modules {
		m.SetMode(mode)
	}
}
