// Package dataset は NAM 実験用の CSV データセットと k-fold データローダーを提供する。
package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/nam/pkg/errors"
	"github.com/YuminosukeSato/nam/pkg/log"
	"github.com/YuminosukeSato/nam/preprocessing"
)

// Options はデータセットの読み込み設定
type Options struct {
	CSVFile         string
	FeaturesColumns []string
	TargetsColumn   string
	// WeightsColumn が空の場合は全ての重みを1とする
	WeightsColumn string
	// Regression がtrueの場合、ターゲットは数値でなければならない
	Regression bool
	// Scaler は preprocessing.NewScaler に渡す種類名
	Scaler string
}

// NAMDataset はCSVから読み込んだ特徴量・ターゲット・サンプル重み
type NAMDataset struct {
	file         string
	featureNames []string
	targetName   string
	classes      []string

	raw    *mat.Dense // スケーリング前の特徴量
	x      *mat.Dense
	y      *mat.Dense // n×1
	w      []float64
	scaler preprocessing.Scaler
}

// FeatureStats は特徴量1列の要約統計量
type FeatureStats struct {
	Name string
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// 欠損値とみなすセルの値（pandas read_csv のデフォルト na_values と同じ）
var missingValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true,
	"-1.#IND": true, "-1.#QNAN": true, "-NaN": true, "-nan": true,
	"1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// Load はCSVファイルを読み込みNAMDatasetを作成する
func Load(opts Options) (*NAMDataset, error) {
	logger := log.GetLoggerWithName("dataset")

	f, err := os.Open(opts.CSVFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", opts.CSVFile)
	}
	defer f.Close()

	ds, err := read(f, opts)
	if err != nil {
		return nil, err
	}

	if opts.Scaler != "" {
		scaler, err := preprocessing.NewScaler(opts.Scaler)
		if err != nil {
			return nil, err
		}
		if scaler != nil {
			scaled, err := scaler.FitTransform(ds.raw)
			if err != nil {
				return nil, errors.Wrap(err, "failed to scale features")
			}
			ds.x = mat.DenseCopyOf(scaled)
			ds.scaler = scaler
		}
	}

	logger.Info("Loaded dataset",
		log.FileKey, opts.CSVFile,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, ds.NumFeatures(),
		log.ClassesKey, len(ds.classes),
	)
	return ds, nil
}

func read(r io.Reader, opts Options) (*NAMDataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("dataset.Load", "missing header row", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read header of %s", opts.CSVFile)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	lookup := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, errors.NewColumnNotFoundError(name, opts.CSVFile, header)
		}
		return i, nil
	}

	if len(opts.FeaturesColumns) == 0 {
		return nil, errors.NewValidationError("features_columns", "at least one feature column is required", opts.FeaturesColumns)
	}
	featureIdx := make([]int, len(opts.FeaturesColumns))
	for j, name := range opts.FeaturesColumns {
		if featureIdx[j], err = lookup(name); err != nil {
			return nil, err
		}
	}
	targetIdx, err := lookup(opts.TargetsColumn)
	if err != nil {
		return nil, err
	}
	weightIdx := -1
	if opts.WeightsColumn != "" {
		if weightIdx, err = lookup(opts.WeightsColumn); err != nil {
			return nil, err
		}
	}

	selected := append(append([]int(nil), featureIdx...), targetIdx)
	if weightIdx >= 0 {
		selected = append(selected, weightIdx)
	}

	var (
		features []float64
		targets  []string
		rowNums  []int
		weights  []float64
		dropped  int
	)
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", opts.CSVFile)
		}
		if hasMissing(record, selected) {
			dropped++
			continue
		}
		for j, i := range featureIdx {
			v, err := parseCell(record[i])
			if err != nil {
				return nil, errors.NewParseError(opts.CSVFile, row, opts.FeaturesColumns[j], record[i])
			}
			features = append(features, v)
		}
		targets = append(targets, strings.TrimSpace(record[targetIdx]))
		rowNums = append(rowNums, row)

		weight := 1.0
		if weightIdx >= 0 {
			v, err := parseCell(record[weightIdx])
			if err != nil {
				return nil, errors.NewParseError(opts.CSVFile, row, opts.WeightsColumn, record[weightIdx])
			}
			if v < 0 {
				return nil, errors.NewValidationError(opts.WeightsColumn, "sample weights must be non-negative", v)
			}
			weight = v
		}
		weights = append(weights, weight)
	}

	if dropped > 0 {
		errors.Warn(errors.NewDroppedRowsWarning(opts.CSVFile, dropped, len(targets)))
	}
	if len(targets) == 0 {
		return nil, errors.NewModelError("dataset.Load", "no complete rows in "+opts.CSVFile, errors.ErrEmptyData)
	}

	ds := &NAMDataset{
		file:         opts.CSVFile,
		featureNames: append([]string(nil), opts.FeaturesColumns...),
		targetName:   opts.TargetsColumn,
		raw:          mat.NewDense(len(targets), len(featureIdx), features),
		w:            weights,
	}
	if ds.y, ds.classes, err = encodeTargets(targets, rowNums, opts); err != nil {
		return nil, err
	}
	ds.x = ds.raw
	return ds, nil
}

// encodeTargets は数値ターゲットをそのまま使い、文字列ターゲットは
// ソート順のクラス番号に変換する
func encodeTargets(values []string, rows []int, opts Options) (*mat.Dense, []string, error) {
	y := mat.NewDense(len(values), 1, nil)
	numeric := true
	for i, s := range values {
		v, err := parseCell(s)
		if err != nil {
			if opts.Regression {
				return nil, nil, errors.NewParseError(opts.CSVFile, rows[i], opts.TargetsColumn, s)
			}
			numeric = false
			break
		}
		y.Set(i, 0, v)
	}
	if numeric {
		return y, nil, nil
	}

	seen := make(map[string]bool)
	for _, s := range values {
		seen[s] = true
	}
	classes := make([]string, 0, len(seen))
	for s := range seen {
		classes = append(classes, s)
	}
	sort.Strings(classes)
	code := make(map[string]float64, len(classes))
	for i, s := range classes {
		code[s] = float64(i)
	}
	for i, s := range values {
		y.Set(i, 0, code[s])
	}
	errors.Warn(errors.NewDataConversionWarning("string", "float64",
		"target column "+opts.TargetsColumn+" encoded as "+strconv.Itoa(len(classes))+" class indices"))
	return y, classes, nil
}

func hasMissing(record []string, cols []int) bool {
	for _, i := range cols {
		if i >= len(record) || isMissing(record[i]) {
			return true
		}
	}
	return false
}

// isMissing は欠損値マーカー、またはNaNとして解釈されるセル（"NAN"など）を欠損とみなす
func isMissing(cell string) bool {
	if missingValues[strings.TrimSpace(cell)] {
		return true
	}
	v, err := parseCell(cell)
	return err == nil && math.IsNaN(v)
}

func parseCell(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Len はサンプル数を返す
func (d *NAMDataset) Len() int {
	r, _ := d.x.Dims()
	return r
}

// At はi番目のサンプルの特徴量・ターゲット・重みを返す
func (d *NAMDataset) At(i int) (features []float64, target float64, weight float64) {
	return mat.Row(nil, i, d.x), d.y.At(i, 0), d.w[i]
}

// NumFeatures は特徴量の数を返す
func (d *NAMDataset) NumFeatures() int {
	_, c := d.x.Dims()
	return c
}

// FeatureNames は特徴量の列名を返す
func (d *NAMDataset) FeatureNames() []string {
	return append([]string(nil), d.featureNames...)
}

// TargetName はターゲットの列名を返す
func (d *NAMDataset) TargetName() string { return d.targetName }

// Classes はエンコードされたクラスラベルをクラス番号順に返す。
// ターゲットが数値の場合はnil
func (d *NAMDataset) Classes() []string {
	return append([]string(nil), d.classes...)
}

// Features は（スケーリング後の）特徴量行列を返す
func (d *NAMDataset) Features() mat.Matrix { return d.x }

// RawFeatures はスケーリング前の特徴量行列を返す
func (d *NAMDataset) RawFeatures() mat.Matrix { return d.raw }

// Targets はn×1のターゲット行列を返す
func (d *NAMDataset) Targets() mat.Matrix { return d.y }

// Weights はサンプル重みを返す
func (d *NAMDataset) Weights() []float64 {
	return append([]float64(nil), d.w...)
}

// Scaler は特徴量に適用したスケーラーを返す。スケーリングしていない場合はnil
func (d *NAMDataset) Scaler() preprocessing.Scaler { return d.scaler }

// Describe はスケーリング前の各特徴量の要約統計量を返す
func (d *NAMDataset) Describe() []FeatureStats {
	n := d.Len()
	col := make([]float64, n)
	out := make([]FeatureStats, d.NumFeatures())
	for j := range out {
		mat.Col(col, j, d.raw)
		mean, std := stat.MeanStdDev(col, d.w)
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)
		out[j] = FeatureStats{
			Name: d.featureNames[j],
			Mean: mean,
			Std:  std,
			Min:  sorted[0],
			Max:  sorted[n-1],
		}
	}
	return out
}
