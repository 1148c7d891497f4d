package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		weights *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect prediction",
			yTrue: mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			yPred: mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			want:  0.0,
		},
		{
			name:  "unweighted",
			yTrue: mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred: mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			want:  0.25,
		},
		{
			name:    "weighted",
			yTrue:   mat.NewVecDense(3, []float64{10.0, 20.0, 30.0}),
			yPred:   mat.NewVecDense(3, []float64{12.0, 18.0, 33.0}),
			weights: mat.NewVecDense(3, []float64{1, 1, 2}),
			want:    (4.0 + 4.0 + 2*9.0) / 4.0,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			yPred:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			wantErr: true,
		},
		{
			name:    "zero weights",
			yTrue:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			yPred:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			weights: mat.NewVecDense(2, []float64{0, 0}),
			wantErr: true,
		},
		{
			name:    "negative weight",
			yTrue:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			yPred:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			weights: mat.NewVecDense(2, []float64{1, -1}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(tt.yTrue, tt.yPred, tt.weights)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MSE() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("MSE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRMSEAndMAE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{2, 2, 3, 6})
	w := mat.NewVecDense(4, []float64{1, 1, 1, 1})

	rmse, err := RMSE(yTrue, yPred, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := math.Sqrt(5.0 / 4.0); math.Abs(rmse-want) > 1e-10 {
		t.Errorf("RMSE() = %v, want %v", rmse, want)
	}

	mae, err := MAE(yTrue, yPred, w)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mae-0.75) > 1e-10 {
		t.Errorf("MAE() = %v, want 0.75", mae)
	}
}

func TestR2Score(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	r2, err := R2Score(yTrue, yTrue, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r2 != 1 {
		t.Errorf("R2Score(perfect) = %v, want 1", r2)
	}

	mean := mat.NewVecDense(4, []float64{2.5, 2.5, 2.5, 2.5})
	r2, err = R2Score(yTrue, mean, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r2) > 1e-12 {
		t.Errorf("R2Score(mean) = %v, want 0", r2)
	}
}

func TestClassificationMetrics(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{0, 0, 1, 1})
	prob := mat.NewVecDense(4, []float64{0.1, 0.6, 0.4, 0.9})

	acc, err := Accuracy(yTrue, prob, nil)
	if err != nil {
		t.Fatal(err)
	}
	if acc != 0.5 {
		t.Errorf("Accuracy() = %v, want 0.5", acc)
	}

	acc, err = Accuracy(yTrue, prob, mat.NewVecDense(4, []float64{3, 0, 0, 1}))
	if err != nil {
		t.Fatal(err)
	}
	if acc != 1 {
		t.Errorf("weighted Accuracy() = %v, want 1", acc)
	}

	bce, err := BinaryCrossEntropy(yTrue, prob, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := -(math.Log(0.9) + math.Log(0.4) + math.Log(0.4) + math.Log(0.9)) / 4
	if math.Abs(bce-want) > 1e-10 {
		t.Errorf("BinaryCrossEntropy() = %v, want %v", bce, want)
	}

	auc, err := ROCAUC(yTrue, prob, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(auc-0.75) > 1e-10 {
		t.Errorf("ROCAUC() = %v, want 0.75", auc)
	}

	tied := mat.NewVecDense(4, []float64{0.5, 0.5, 0.5, 0.5})
	if auc, _ := ROCAUC(yTrue, tied, nil); auc != 0.5 {
		t.Errorf("ROCAUC(tied) = %v, want 0.5", auc)
	}

	if _, err := ROCAUC(mat.NewVecDense(2, []float64{1, 1}), mat.NewVecDense(2, []float64{0.2, 0.3}), nil); err == nil {
		t.Error("ROCAUC() with a single class should fail")
	}
}
