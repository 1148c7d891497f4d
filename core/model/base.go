// Package model はスケーラーとネットワークが共有する状態管理と、
// チェックポイントの保存・読み込みを提供する。
package model

// EstimatorState はスケーラーなどの学習状態を表す
type EstimatorState int

const (
	// NotFitted は統計量がまだ計算されていない状態
	NotFitted EstimatorState = iota
	// Fitted はFitが完了した状態
	Fitted
)

func (s EstimatorState) String() string {
	if s == Fitted {
		return "fitted"
	}
	return "not_fitted"
}

// BaseEstimator はFitを持つ構造体に埋め込んで使う
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted はFitが完了しているかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted は学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// State は現在の状態を返す
func (e *BaseEstimator) State() EstimatorState {
	return e.state
}

// Reset は未学習状態に戻す
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}

// Mode はネットワークの実行モード。Dropoutの挙動だけが変わる
type Mode int

const (
	// ModeTrain ではDropoutが有効
	ModeTrain Mode = iota
	// ModeEval ではDropoutは恒等写像
	ModeEval
)

func (m Mode) String() string {
	if m == ModeEval {
		return "eval"
	}
	return "train"
}
