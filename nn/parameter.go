package nn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/core/model"
	"github.com/YuminosukeSato/nam/pkg/errors"
)

// Parameter is a named weight matrix of a layer.
type Parameter struct {
	Name  string
	Value *mat.Dense
}

// NewParameter allocates a rows×cols parameter and fills it with init.
// fanIn and fanOut are passed to the initializer.
func NewParameter(name string, rows, cols int, init Initializer, fanIn, fanOut int) *Parameter {
	data := make([]float64, rows*cols)
	init(data, fanIn, fanOut)
	return &Parameter{Name: name, Value: mat.NewDense(rows, cols, data)}
}

// Len returns the number of scalar values.
func (p *Parameter) Len() int {
	r, c := p.Value.Dims()
	return r * c
}

// NumParams counts the scalar values of params.
func NumParams(params []*Parameter) int {
	n := 0
	for _, p := range params {
		n += p.Len()
	}
	return n
}

// Tensor is the serialized form of a parameter.
type Tensor struct {
	Rows int
	Cols int
	Data []float64
}

// StateDict maps parameter names to their values.
type StateDict map[string]Tensor

// StateDictOf copies the values of params into a StateDict.
func StateDictOf(params []*Parameter) StateDict {
	sd := make(StateDict, len(params))
	for _, p := range params {
		r, c := p.Value.Dims()
		data := make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			data = append(data, p.Value.RawRowView(i)...)
		}
		sd[p.Name] = Tensor{Rows: r, Cols: c, Data: data}
	}
	return sd
}

// LoadStateDict copies the values of sd into params. Every parameter must be
// present with the same shape.
func LoadStateDict(params []*Parameter, sd StateDict) error {
	for _, p := range params {
		t, ok := sd[p.Name]
		if !ok {
			return errors.NewValueError("LoadStateDict", "missing parameter "+p.Name)
		}
		r, c := p.Value.Dims()
		if t.Rows != r || t.Cols != c || len(t.Data) != r*c {
			return errors.NewValueError("LoadStateDict", "shape mismatch for "+p.Name)
		}
		p.Value = mat.NewDense(r, c, append([]float64(nil), t.Data...))
	}
	return nil
}

// Summarize lists the shape of every parameter.
func Summarize(params []*Parameter) []model.LayerSummary {
	out := make([]model.LayerSummary, 0, len(params))
	for _, p := range params {
		r, c := p.Value.Dims()
		out = append(out, model.LayerSummary{Name: p.Name, Rows: r, Cols: c, Params: r * c})
	}
	return out
}
