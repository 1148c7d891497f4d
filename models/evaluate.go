package models

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/core/model"
	"github.com/YuminosukeSato/nam/dataset"
	"github.com/YuminosukeSato/nam/metrics"
	"github.com/YuminosukeSato/nam/pkg/errors"
)

// Scores are the weighted metrics of one evaluation pass. Metrics that do not
// apply to the task are NaN.
type Scores struct {
	Samples int
	// Loss is the MSE for regression and the binary cross-entropy otherwise.
	Loss     float64
	RMSE     float64
	MAE      float64
	R2       float64
	Accuracy float64
	AUC      float64
	Duration time.Duration
}

// Evaluate runs m in evaluation mode over every batch of loader and scores
// the predictions against the targets. Classification treats the output as a
// logit and requires 0/1 targets. The previous mode of m is restored.
func Evaluate(m Model, loader *dataset.DataLoader, regression bool) (Scores, error) {
	start := time.Now()
	if m.Mode() == model.ModeTrain {
		defer m.Train()
	}
	m.Eval()

	n := loader.Len()
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	weights := mat.NewVecDense(n, nil)
	k := 0
	for batch := range loader.Batches() {
		out, err := m.Predict(batch.X)
		if err != nil {
			return Scores{}, err
		}
		for i := 0; i < batch.Size(); i++ {
			y := batch.Y.AtVec(i)
			pred := out.At(i, 0)
			if !regression {
				if y != 0 && y != 1 {
					return Scores{}, errors.NewValueError("Evaluate", "classification targets must be 0 or 1")
				}
				pred = errors.Sigmoid(pred)
			}
			yTrue.SetVec(k, y)
			yPred.SetVec(k, pred)
			weights.SetVec(k, batch.W.AtVec(i))
			k++
		}
	}

	s := Scores{Samples: n, RMSE: math.NaN(), MAE: math.NaN(), R2: math.NaN(), Accuracy: math.NaN(), AUC: math.NaN()}
	var err error
	if regression {
		if s.Loss, err = metrics.MSE(yTrue, yPred, weights); err != nil {
			return Scores{}, err
		}
		if s.RMSE, err = metrics.RMSE(yTrue, yPred, weights); err != nil {
			return Scores{}, err
		}
		if s.MAE, err = metrics.MAE(yTrue, yPred, weights); err != nil {
			return Scores{}, err
		}
		if s.R2, err = metrics.R2Score(yTrue, yPred, weights); err != nil {
			return Scores{}, err
		}
	} else {
		if s.Loss, err = metrics.BinaryCrossEntropy(yTrue, yPred, weights); err != nil {
			return Scores{}, err
		}
		if s.Accuracy, err = metrics.Accuracy(yTrue, yPred, weights); err != nil {
			return Scores{}, err
		}
		// AUC is undefined when the split holds a single class.
		if auc, err := metrics.ROCAUC(yTrue, yPred, weights); err == nil {
			s.AUC = auc
		}
	}
	s.Duration = time.Since(start)
	return s, nil
}
