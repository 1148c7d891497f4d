package nn

import (
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/core/model"
	"github.com/YuminosukeSato/nam/pkg/errors"
)

// ReLU applies max(0, x) element-wise.
type ReLU struct{}

// NewReLU creates a ReLU layer.
func NewReLU() *ReLU { return &ReLU{} }

// Forward implements Module.
func (*ReLU) Forward(x mat.Matrix) (*mat.Dense, error) {
	var out mat.Dense
	out.Apply(relu, x)
	return &out, nil
}

// Parameters implements Module.
func (*ReLU) Parameters() []*Parameter { return nil }

// SetMode implements Module.
func (*ReLU) SetMode(model.Mode) {}

// Dropout zeroes each value with probability P in training mode and scales
// the survivors by 1/(1-P). In evaluation mode it is the identity.
type Dropout struct {
	P float64

	mu   sync.Mutex
	mode model.Mode
	rand *rand.Rand
}

// NewDropout creates a Dropout layer drawing its masks from r. It starts in
// training mode.
func NewDropout(p float64, r *rand.Rand) *Dropout {
	return &Dropout{P: p, rand: r}
}

// Forward implements Module. The input is never modified.
func (d *Dropout) Forward(x mat.Matrix) (*mat.Dense, error) {
	if d.P < 0 || d.P >= 1 {
		return nil, errors.NewValidationError("dropout", "must be in [0, 1)", d.P)
	}
	out := mat.DenseCopyOf(x)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mode == model.ModeEval || d.P == 0 {
		return out, nil
	}
	scale := 1 / (1 - d.P)
	out.Apply(func(_, _ int, v float64) float64 {
		if d.rand.Float64() < d.P {
			return 0
		}
		return v * scale
	}, out)
	return out, nil
}

// Parameters implements Module.
func (*Dropout) Parameters() []*Parameter { return nil }

// SetMode implements Module.
func (d *Dropout) SetMode(mode model.Mode) {
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
}
