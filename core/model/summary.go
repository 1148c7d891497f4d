package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LayerSummary は1つのパラメータの形状
type LayerSummary struct {
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	Params int    `json:"params"`
}

// Summary はモデル構造の要約（ログ出力とsummary.json用）
type Summary struct {
	// ModelType はモデルの種類（NAM, DNN）
	ModelType string `json:"model_type"`

	// NumParams はパラメータの総数
	NumParams int `json:"num_params"`

	// Features は入力特徴量の名前
	Features []string `json:"features,omitempty"`

	Layers []LayerSummary `json:"layers"`

	// Hyperparameters はモデル構築時の設定
	Hyperparameters map[string]interface{} `json:"hyperparameters"`
}

// Validate はSummaryの整合性を検証する
func (s *Summary) Validate() error {
	if s.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}
	total := 0
	for _, l := range s.Layers {
		if l.Rows*l.Cols != l.Params {
			return fmt.Errorf("layer %s: %dx%d does not match %d params", l.Name, l.Rows, l.Cols, l.Params)
		}
		total += l.Params
	}
	if total != s.NumParams {
		return fmt.Errorf("num_params %d does not match layer total %d", s.NumParams, total)
	}
	return nil
}

// ToJSON はSummaryをインデント付きJSONにする
func (s *Summary) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// WriteFile はSummaryをJSONファイルとして書き出す
func (s *Summary) WriteFile(path string) error {
	data, err := s.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// String はprint(model)相当の1行表示
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(params=%d", s.ModelType, s.NumParams)
	if len(s.Features) > 0 {
		fmt.Fprintf(&b, ", features=[%s]", strings.Join(s.Features, ", "))
	}
	b.WriteString(")")
	return b.String()
}
