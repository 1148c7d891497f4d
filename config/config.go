// Package config holds the experiment configuration: defaults, merging of a
// JSON5 file, NAM_* environment variables and command line flags, and the
// per-run output directory layout.
package config

import (
	"github.com/YuminosukeSato/nam/pkg/errors"
	"github.com/YuminosukeSato/nam/preprocessing"
)

// Activations accepted for the first FeatureNN layer.
const (
	ActivationExU  = "exu"
	ActivationReLU = "relu"
)

// DeviceCPU is the only device the models execute on.
const DeviceCPU = "cpu"

// Config is the mutable experiment configuration. Every field is JSON
// serializable; the JSON keys double as flag names.
type Config struct {
	ConfigFile string `json:"config_file,omitempty"`

	Device         string `json:"device" env:"DEVICE"`
	Seed           int64  `json:"seed" env:"SEED"`
	ExperimentName string `json:"experiment_name" env:"EXPERIMENT_NAME"`
	OutputDir      string `json:"output_dir" env:"OUTPUT_DIR"`
	LogLevel       string `json:"log_level" env:"LOG_LEVEL"`

	// Dataset
	CSVFile         string   `json:"csv_file" env:"CSV_FILE"`
	FeaturesColumns []string `json:"features_columns" env:"FEATURES_COLUMNS"`
	TargetsColumn   []string `json:"targets_column" env:"TARGETS_COLUMN"`
	WeightsColumn   []string `json:"weights_column" env:"WEIGHTS_COLUMN"`
	Regression      bool     `json:"regression" env:"REGRESSION"`
	Scaler          string   `json:"scaler" env:"SCALER"`
	PlotFeatures    bool     `json:"plot_features" env:"PLOT_FEATURES"`

	// Cross validation and loaders
	NSplits   int  `json:"n_splits" env:"N_SPLITS"`
	BatchSize int  `json:"batch_size" env:"BATCH_SIZE"`
	Shuffle   bool `json:"shuffle" env:"SHUFFLE"`

	// Architecture
	NumUnits       int     `json:"num_units" env:"NUM_UNITS"`
	Shallow        bool    `json:"shallow" env:"SHALLOW"`
	HiddenSizes    []int   `json:"hidden_sizes" env:"HIDDEN_SIZES"`
	Activation     string  `json:"activation" env:"ACTIVATION"`
	Dropout        float64 `json:"dropout" env:"DROPOUT"`
	FeatureDropout float64 `json:"feature_dropout" env:"FEATURE_DROPOUT"`
	UseDNN         bool    `json:"use_dnn" env:"USE_DNN"`
	DNNDropout     float64 `json:"dnn_dropout" env:"DNN_DROPOUT"`

	// Training hyperparameters. They are recorded in config.json for the
	// training code that consumes the experiment; nothing here reads them.
	NumEpochs             int     `json:"num_epochs" env:"NUM_EPOCHS"`
	LearningRate          float64 `json:"lr" env:"LR"`
	DecayRate             float64 `json:"decay_rate" env:"DECAY_RATE"`
	L2Regularization      float64 `json:"l2_regularization" env:"L2_REGULARIZATION"`
	OutputRegularization  float64 `json:"output_regularization" env:"OUTPUT_REGULARIZATION"`
	EarlyStoppingPatience int     `json:"early_stopping_patience" env:"EARLY_STOPPING_PATIENCE"`

	SaveInitCheckpoint bool `json:"save_init_checkpoint" env:"SAVE_INIT_CHECKPOINT"`

	// Derived by Prepare.
	RunID     string `json:"run_id,omitempty"`
	RunDir    string `json:"run_dir,omitempty"`
	LogDir    string `json:"log_dir,omitempty"`
	CkptDir   string `json:"ckpt_dir,omitempty"`
	ModelPath string `json:"model_path,omitempty"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Device:         DeviceCPU,
		Seed:           2021,
		ExperimentName: "NAM",
		OutputDir:      "output",
		LogLevel:       "info",

		CSVFile:         "data/GALLUP.csv",
		FeaturesColumns: []string{"income_2", "WP1219", "WP1220", "weo_gdpc_con_ppp"},
		TargetsColumn:   []string{"country"},
		WeightsColumn:   []string{"wgt"},
		Regression:      false,
		Scaler:          preprocessing.ScalerMinMax,
		PlotFeatures:    false,

		NSplits:   3,
		BatchSize: 1024,
		Shuffle:   true,

		NumUnits:       64,
		Shallow:        false,
		HiddenSizes:    []int{64, 32},
		Activation:     ActivationExU,
		Dropout:        0.5,
		FeatureDropout: 0.5,
		UseDNN:         false,
		DNNDropout:     0.15,

		NumEpochs:             1,
		LearningRate:          3e-4,
		DecayRate:             0.995,
		L2Regularization:      0.5,
		OutputRegularization:  0.5,
		EarlyStoppingPatience: 50,
	}
}

// Validate checks the fields the bootstrap and the models depend on.
func (c *Config) Validate() error {
	switch {
	case c.NSplits < 2:
		return errors.NewValidationError("n_splits", "must be at least 2", c.NSplits)
	case c.BatchSize < 1:
		return errors.NewValidationError("batch_size", "must be positive", c.BatchSize)
	case c.NumUnits < 1:
		return errors.NewValidationError("num_units", "must be positive", c.NumUnits)
	case c.Activation != ActivationExU && c.Activation != ActivationReLU:
		return errors.NewValidationError("activation", "must be \"exu\" or \"relu\"", c.Activation)
	case len(c.FeaturesColumns) == 0:
		return errors.NewValidationError("features_columns", "at least one feature column is required", c.FeaturesColumns)
	case len(c.TargetsColumn) != 1:
		return errors.NewValidationError("targets_column", "exactly one target column is required", c.TargetsColumn)
	case len(c.WeightsColumn) > 1:
		return errors.NewValidationError("weights_column", "at most one weight column is supported", c.WeightsColumn)
	case c.Scaler != preprocessing.ScalerMinMax && c.Scaler != preprocessing.ScalerStandard && c.Scaler != preprocessing.ScalerNone:
		return errors.NewValidationError("scaler", "must be minmax, standard or none", c.Scaler)
	case c.CSVFile == "":
		return errors.NewValidationError("csv_file", "must not be empty", c.CSVFile)
	}
	for _, d := range []struct {
		name string
		p    float64
	}{
		{"dropout", c.Dropout},
		{"feature_dropout", c.FeatureDropout},
		{"dnn_dropout", c.DNNDropout},
	} {
		if d.p < 0 || d.p >= 1 {
			return errors.NewValidationError(d.name, "must be in [0, 1)", d.p)
		}
	}
	for _, h := range c.HiddenSizes {
		if h < 1 {
			return errors.NewValidationError("hidden_sizes", "sizes must be positive", c.HiddenSizes)
		}
	}
	return nil
}

// ResolveDevice returns the device the models run on. Any device other than
// "cpu" raises a DeviceFallbackWarning and is replaced by "cpu".
func (c *Config) ResolveDevice() string {
	if c.Device != DeviceCPU {
		errors.Warn(errors.NewDeviceFallbackWarning(c.Device, DeviceCPU))
		c.Device = DeviceCPU
	}
	return c.Device
}

// WeightsColumnName returns the weight column, or "" when none is configured.
func (c *Config) WeightsColumnName() string {
	if len(c.WeightsColumn) == 0 {
		return ""
	}
	return c.WeightsColumn[0]
}
