package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/titanous/json5"

	"github.com/YuminosukeSato/nam/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NAM_"

// Load builds the configuration from, in increasing precedence: Defaults, the
// JSON5 file named by --config, NAM_* variables in environ and the flags in
// args. A flag only takes effect when it is given explicitly. When environ is
// nil the process environment is used. The result is validated.
func Load(args []string, environ map[string]string) (*Config, error) {
	// The first pass only finds --config; flag errors surface here too.
	scratch := Defaults()
	if err := newFlagSet(scratch, io.Discard).Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, errors.NewConfigError("flags", err)
	}

	cfg := Defaults()
	if scratch.ConfigFile != "" {
		if err := cfg.LoadFile(scratch.ConfigFile); err != nil {
			return nil, err
		}
	}

	if environ == nil {
		environ = env.ToMap(os.Environ())
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return nil, errors.NewConfigError("env", err)
	}

	if err := newFlagSet(cfg, io.Discard).Parse(args); err != nil {
		return nil, errors.NewConfigError("flags", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the JSON5 document at path onto c. Keys missing from the
// document keep their current values. Derived fields in the document, as
// written by Save for an earlier run, are ignored.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewConfigError("file", errors.Wrapf(err, "read %s", path))
	}
	if err := json5.Unmarshal(data, c); err != nil {
		return errors.NewConfigError("file", errors.Wrapf(err, "parse %s", path))
	}
	c.ConfigFile = path
	c.clearDerived()
	return nil
}

// Usage writes the flag documentation to w.
func Usage(w io.Writer) {
	fs := newFlagSet(Defaults(), w)
	fmt.Fprintf(w, "Usage of nam:\n")
	fs.PrintDefaults()
}

func newFlagSet(c *Config, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("nam", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "JSON5 configuration file")
	fs.StringVar(&c.Device, "device", c.Device, "compute device (only cpu is available)")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed")
	fs.StringVar(&c.ExperimentName, "experiment_name", c.ExperimentName, "experiment name")
	fs.StringVar(&c.OutputDir, "output_dir", c.OutputDir, "root directory for experiment runs")
	fs.StringVar(&c.LogLevel, "log_level", c.LogLevel, "debug, info, warn or error")

	fs.StringVar(&c.CSVFile, "csv_file", c.CSVFile, "CSV dataset with a header row")
	fs.Var((*stringList)(&c.FeaturesColumns), "features_columns", "comma separated feature columns")
	fs.Var((*stringList)(&c.TargetsColumn), "targets_column", "target column")
	fs.Var((*stringList)(&c.WeightsColumn), "weights_column", "sample weight column, empty for none")
	fs.BoolVar(&c.Regression, "regression", c.Regression, "regression task (classification otherwise)")
	fs.StringVar(&c.Scaler, "scaler", c.Scaler, "feature scaling: minmax ([-1, 1]), standard or none")
	fs.BoolVar(&c.PlotFeatures, "plot_features", c.PlotFeatures, "write feature histograms to the log directory")

	fs.IntVar(&c.NSplits, "n_splits", c.NSplits, "number of cross-validation folds")
	fs.IntVar(&c.BatchSize, "batch_size", c.BatchSize, "batch size")
	fs.BoolVar(&c.Shuffle, "shuffle", c.Shuffle, "shuffle before splitting and every epoch")

	fs.IntVar(&c.NumUnits, "num_units", c.NumUnits, "units of the first FeatureNN layer")
	fs.BoolVar(&c.Shallow, "shallow", c.Shallow, "FeatureNNs without hidden layers")
	fs.Var((*intList)(&c.HiddenSizes), "hidden_sizes", "comma separated FeatureNN hidden layer sizes")
	fs.StringVar(&c.Activation, "activation", c.Activation, "first FeatureNN layer: exu or relu")
	fs.Float64Var(&c.Dropout, "dropout", c.Dropout, "dropout inside FeatureNNs")
	fs.Float64Var(&c.FeatureDropout, "feature_dropout", c.FeatureDropout, "dropout over whole feature outputs")
	fs.BoolVar(&c.UseDNN, "use_dnn", c.UseDNN, "build the DNN baseline instead of a NAM")
	fs.Float64Var(&c.DNNDropout, "dnn_dropout", c.DNNDropout, "dropout of the DNN baseline")

	fs.IntVar(&c.NumEpochs, "num_epochs", c.NumEpochs, "training epochs")
	fs.Float64Var(&c.LearningRate, "lr", c.LearningRate, "learning rate")
	fs.Float64Var(&c.DecayRate, "decay_rate", c.DecayRate, "learning rate decay")
	fs.Float64Var(&c.L2Regularization, "l2_regularization", c.L2Regularization, "weight decay")
	fs.Float64Var(&c.OutputRegularization, "output_regularization", c.OutputRegularization, "feature output penalty")
	fs.IntVar(&c.EarlyStoppingPatience, "early_stopping_patience", c.EarlyStoppingPatience, "early stopping patience in epochs")

	fs.BoolVar(&c.SaveInitCheckpoint, "save_init_checkpoint", c.SaveInitCheckpoint, "save the initialized model to model_path")
	return fs
}

type stringList []string

func (s *stringList) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = nil
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

type intList []int

func (l *intList) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(v string) error {
	*l = nil
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid size %q", part)
		}
		*l = append(*l, n)
	}
	return nil
}
