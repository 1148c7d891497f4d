package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/nam/pkg/errors"
)

// BinaryCrossEntropy は重み付き二値交差エントロピーを計算する。
// yProbは陽性クラスの確率（シグモイド出力）
func BinaryCrossEntropy(yTrue, yProb, weights *mat.VecDense) (float64, error) {
	total, err := checkInputs("BinaryCrossEntropy", yTrue, yProb, weights)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < yTrue.Len(); i++ {
		y, p := yTrue.AtVec(i), yProb.AtVec(i)
		sum -= weightAt(weights, i) * (y*errors.StabilizeLog(p) + (1-y)*errors.StabilizeLog(1-p))
	}
	return sum / total, nil
}

// Accuracy は確率0.5を閾値とした重み付き正解率を計算する
func Accuracy(yTrue, yProb, weights *mat.VecDense) (float64, error) {
	total, err := checkInputs("Accuracy", yTrue, yProb, weights)
	if err != nil {
		return 0, err
	}
	var correct float64
	for i := 0; i < yTrue.Len(); i++ {
		pred := 0.0
		if yProb.AtVec(i) >= 0.5 {
			pred = 1
		}
		if pred == yTrue.AtVec(i) {
			correct += weightAt(weights, i)
		}
	}
	return correct / total, nil
}

// ROCAUC は重み付きROC曲線下面積を計算する。同じスコアの組は0.5として数える。
// 陽性または陰性のサンプルがない場合はエラーを返す
func ROCAUC(yTrue, yScore, weights *mat.VecDense) (float64, error) {
	if _, err := checkInputs("ROCAUC", yTrue, yScore, weights); err != nil {
		return 0, err
	}
	n := yTrue.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return yScore.AtVec(order[a]) < yScore.AtVec(order[b])
	})

	// スコアの昇順に走査し、各陽性サンプルより低いスコアの陰性の重みを積算する
	var negBelow, posTotal, negTotal, area float64
	for start := 0; start < n; {
		end := start
		var pos, neg float64
		for end < n && yScore.AtVec(order[end]) == yScore.AtVec(order[start]) {
			i := order[end]
			if yTrue.AtVec(i) >= 0.5 {
				pos += weightAt(weights, i)
			} else {
				neg += weightAt(weights, i)
			}
			end++
		}
		area += pos * (negBelow + 0.5*neg)
		negBelow += neg
		posTotal += pos
		negTotal += neg
		start = end
	}
	if posTotal == 0 || negTotal == 0 {
		return 0, errors.NewValueError("ROCAUC", "only one class present in y_true")
	}
	return area / (posTotal * negTotal), nil
}
