// Package nn implements the layers NAM and DNN models are built from.
//
// Layers work on gonum matrices laid out as [batch, features]. Every layer
// validates the width of its input and returns a DimensionError on mismatch
// instead of panicking inside gonum.
//
//	seq := nn.NewSequential(
//	    nn.NewExU("fnn.0", 1, 64, r),
//	    nn.NewDropout(0.5, r),
//	    nn.NewLinear("fnn.2", 64, 1, nn.UniformFanIn(r), nn.UniformFanIn(r)),
//	)
//	out, err := seq.Forward(x)
package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/core/model"
	"github.com/YuminosukeSato/nam/pkg/errors"
)

// Module is a layer or a container of layers.
type Module interface {
	// Forward computes the output for a [batch, in] input.
	Forward(x mat.Matrix) (*mat.Dense, error)

	// Parameters returns the parameters of the module and of every nested
	// module. Layers without parameters return nil.
	Parameters() []*Parameter

	// SetMode switches between training and evaluation behaviour.
	SetMode(mode model.Mode)
}

func checkWidth(op string, x mat.Matrix, want int) (rows int, err error) {
	r, c := x.Dims()
	if c != want {
		return 0, errors.NewDimensionError(op, want, c, 1)
	}
	if r == 0 {
		return 0, errors.NewModelError(op, "empty batch", errors.ErrEmptyData)
	}
	return r, nil
}
