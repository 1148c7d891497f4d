package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/core/model"
)

// Linear computes y = x·W + b with W of shape [in, out] and b of shape [1, out].
type Linear struct {
	In, Out int
	Weight  *Parameter
	Bias    *Parameter
}

// NewLinear creates a Linear layer whose parameters are named
// name+".weight" and name+".bias".
func NewLinear(name string, in, out int, weightInit, biasInit Initializer) *Linear {
	return &Linear{
		In:     in,
		Out:    out,
		Weight: NewParameter(name+".weight", in, out, weightInit, in, out),
		Bias:   NewParameter(name+".bias", 1, out, biasInit, in, out),
	}
}

// Forward implements Module.
func (l *Linear) Forward(x mat.Matrix) (*mat.Dense, error) {
	rows, err := checkWidth("Linear.Forward", x, l.In)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, l.Out, nil)
	out.Mul(x, l.Weight.Value)
	bias := l.Bias.Value.RawRowView(0)
	for i := 0; i < rows; i++ {
		row := out.RawRowView(i)
		for j := range row {
			row[j] += bias[j]
		}
	}
	return out, nil
}

// Parameters implements Module.
func (l *Linear) Parameters() []*Parameter { return []*Parameter{l.Weight, l.Bias} }

// SetMode implements Module.
func (l *Linear) SetMode(model.Mode) {}

// ExU is the exp-centred unit layer of NAM:
//
//	y = clip(relu((x - b)·exp(W)), 0, 1)
//
// W has shape [in, out] and the centring bias b has shape [1, in].
type ExU struct {
	In, Out int
	Weight  *Parameter
	Bias    *Parameter
}

// NewExU creates an ExU layer with W ~ TruncatedNormal(4, 0.5) and
// b ~ TruncatedNormal(0, 0.5).
func NewExU(name string, in, out int, r *rand.Rand) *ExU {
	return &ExU{
		In:     in,
		Out:    out,
		Weight: NewParameter(name+".weights", in, out, TruncatedNormal(r, 4.0, 0.5), in, out),
		Bias:   NewParameter(name+".bias", 1, in, TruncatedNormal(r, 0, 0.5), in, out),
	}
}

// Forward implements Module.
func (e *ExU) Forward(x mat.Matrix) (*mat.Dense, error) {
	rows, err := checkWidth("ExU.Forward", x, e.In)
	if err != nil {
		return nil, err
	}
	var expW mat.Dense
	expW.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, e.Weight.Value)

	out := mat.NewDense(rows, e.Out, nil)
	out.Mul(centre(x, e.Bias), &expW)
	out.Apply(func(_, _ int, v float64) float64 { return math.Min(math.Max(v, 0), 1) }, out)
	return out, nil
}

// Parameters implements Module.
func (e *ExU) Parameters() []*Parameter { return []*Parameter{e.Weight, e.Bias} }

// SetMode implements Module.
func (e *ExU) SetMode(model.Mode) {}

// LinReLU computes y = relu((x - b)·W) with W of shape [in, out] and the
// centring bias b of shape [1, in].
type LinReLU struct {
	In, Out int
	Weight  *Parameter
	Bias    *Parameter
}

// NewLinReLU creates a LinReLU layer with Xavier-uniform W and
// b ~ TruncatedNormal(0, 0.5).
func NewLinReLU(name string, in, out int, r *rand.Rand) *LinReLU {
	return &LinReLU{
		In:     in,
		Out:    out,
		Weight: NewParameter(name+".weights", in, out, XavierUniform(r), in, out),
		Bias:   NewParameter(name+".bias", 1, in, TruncatedNormal(r, 0, 0.5), in, out),
	}
}

// Forward implements Module.
func (l *LinReLU) Forward(x mat.Matrix) (*mat.Dense, error) {
	rows, err := checkWidth("LinReLU.Forward", x, l.In)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, l.Out, nil)
	out.Mul(centre(x, l.Bias), l.Weight.Value)
	out.Apply(relu, out)
	return out, nil
}

// Parameters implements Module.
func (l *LinReLU) Parameters() []*Parameter { return []*Parameter{l.Weight, l.Bias} }

// SetMode implements Module.
func (l *LinReLU) SetMode(model.Mode) {}

// centre returns x - b with b broadcast over the rows.
func centre(x mat.Matrix, b *Parameter) *mat.Dense {
	bias := b.Value.RawRowView(0)
	var out mat.Dense
	out.Apply(func(_, j int, v float64) float64 { return v - bias[j] }, x)
	return &out
}

func relu(_, _ int, v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
