// Package metrics はサンプル重み付きの評価指標を提供する。
// 重みにnilを渡すと全てのサンプルを同じ重みで扱う。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/pkg/errors"
)

// checkInputs は入力の長さと重みを検証し、重みの合計を返す
func checkInputs(op string, yTrue, yPred, weights *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	if weights == nil {
		return float64(n), nil
	}
	if weights.Len() != n {
		return 0, errors.NewDimensionError(op, n, weights.Len(), 0)
	}
	var total float64
	for i := 0; i < n; i++ {
		w := weights.AtVec(i)
		if w < 0 {
			return 0, errors.NewValueError(op, "sample weights must be non-negative")
		}
		total += w
	}
	if total == 0 {
		return 0, errors.NewValueError(op, "sample weights sum to zero")
	}
	return total, nil
}

func weightAt(weights *mat.VecDense, i int) float64 {
	if weights == nil {
		return 1
	}
	return weights.AtVec(i)
}

// MSE は重み付き平均二乗誤差を計算する
//
//	MSE = Σ w_i (y_i - ŷ_i)² / Σ w_i
func MSE(yTrue, yPred, weights *mat.VecDense) (float64, error) {
	total, err := checkInputs("MSE", yTrue, yPred, weights)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < yTrue.Len(); i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += weightAt(weights, i) * diff * diff
	}
	return sum / total, nil
}

// RMSE は重み付き平方根平均二乗誤差を計算する
func RMSE(yTrue, yPred, weights *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred, weights)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は重み付き平均絶対誤差を計算する
func MAE(yTrue, yPred, weights *mat.VecDense) (float64, error) {
	total, err := checkInputs("MAE", yTrue, yPred, weights)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < yTrue.Len(); i++ {
		sum += weightAt(weights, i) * math.Abs(yTrue.AtVec(i)-yPred.AtVec(i))
	}
	return sum / total, nil
}

// R2Score は重み付き決定係数を計算する。
// ターゲットが定数の場合、予測が完全なら1、そうでなければ0を返す
func R2Score(yTrue, yPred, weights *mat.VecDense) (float64, error) {
	total, err := checkInputs("R2Score", yTrue, yPred, weights)
	if err != nil {
		return 0, err
	}
	n := yTrue.Len()
	var mean float64
	for i := 0; i < n; i++ {
		mean += weightAt(weights, i) * yTrue.AtVec(i)
	}
	mean /= total

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		w := weightAt(weights, i)
		res := yTrue.AtVec(i) - yPred.AtVec(i)
		dev := yTrue.AtVec(i) - mean
		ssRes += w * res * res
		ssTot += w * dev * dev
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}
