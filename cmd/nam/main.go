// Command nam sets up a Neural Additive Model experiment: it merges the
// configuration, creates the run directories, seeds the random streams, loads
// the dataset into k-fold loaders and instantiates the model.
//
//	nam --config experiment.json5 --csv_file data/GALLUP.csv --n_splits 5
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/YuminosukeSato/nam/config"
	"github.com/YuminosukeSato/nam/core/rng"
	"github.com/YuminosukeSato/nam/dataset"
	"github.com/YuminosukeSato/nam/models"
	"github.com/YuminosukeSato/nam/pkg/errors"
	"github.com/YuminosukeSato/nam/pkg/log"
)

// LogFileName is the log file written inside the run's logs directory.
const LogFileName = "nam.log"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args, nil)
	if errors.Is(err, flag.ErrHelp) {
		config.Usage(os.Stderr)
		return 0
	}
	if err != nil {
		log.GetLogger().Error("Invalid configuration", log.ErrAttrKey, err)
		return 1
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.GetLogger().Error("Invalid log level", log.ErrAttrKey, err)
		return 1
	}
	if err := cfg.Prepare(time.Now()); err != nil {
		log.GetLogger().Error("Failed to create experiment directories", log.ErrAttrKey, err)
		return 1
	}

	pretty := isatty.IsTerminal(os.Stdout.Fd())
	logger, closer, err := log.NewZerologFileLogger(filepath.Join(cfg.LogDir, LogFileName), level, pretty)
	if err != nil {
		log.GetLogger().Error("Failed to open log file", log.ErrAttrKey, err)
		return 1
	}
	defer closer.Close()
	defer log.SetLogger(log.GetLogger())
	log.SetLogger(logger.With("run_id", cfg.RunID))
	errors.SetZerologWarnFunc(logger.WarnFunc())
	defer errors.SetZerologWarnFunc(nil)

	if err := experiment(cfg); err != nil {
		log.GetLogger().Error("Experiment failed", log.ErrAttrKey, err)
		return 1
	}
	return 0
}

func experiment(cfg *config.Config) error {
	logger := log.GetLoggerWithName("main")
	logger.Debug("Experiment directories ready",
		log.OutputDirKey, cfg.OutputDir,
		log.LogDirKey, cfg.LogDir,
		log.CkptDirKey, cfg.CkptDir,
		log.ModelPathKey, cfg.ModelPath,
	)

	path, err := cfg.Save("config.json")
	if err != nil {
		return err
	}
	logger.Info("Saving configuration file", log.FileKey, path)

	device := cfg.ResolveDevice()
	seeds := rng.InitRandomSeeds(cfg.Seed)

	ds, err := dataset.Load(dataset.Options{
		CSVFile:         cfg.CSVFile,
		FeaturesColumns: cfg.FeaturesColumns,
		TargetsColumn:   cfg.TargetsColumn[0],
		WeightsColumn:   cfg.WeightsColumnName(),
		Regression:      cfg.Regression,
		Scaler:          cfg.Scaler,
	})
	if err != nil {
		return err
	}
	for _, s := range ds.Describe() {
		logger.Debug("Feature summary",
			"feature", s.Name, "mean", s.Mean, "std", s.Std, "min", s.Min, "max", s.Max)
	}
	if cfg.PlotFeatures {
		paths, err := ds.PlotFeatureHistograms(filepath.Join(cfg.LogDir, "plots"))
		if err != nil {
			return err
		}
		logger.Info("Saved feature histograms", "count", len(paths))
	}

	folds, err := ds.DataLoaders(cfg.NSplits, cfg.BatchSize, cfg.Shuffle, !cfg.Regression, seeds)
	if err != nil {
		return err
	}
	logger.Info("Created data loaders",
		log.SplitsKey, len(folds),
		log.BatchSizeKey, cfg.BatchSize,
		"stratified", !cfg.Regression,
	)

	m, err := buildModel(cfg, ds, seeds)
	if err != nil {
		return err
	}
	summary := m.Summary()
	logger.Info("Model created",
		log.ModelNameKey, m.Name(),
		log.ModelTypeKey, m.Type(),
		log.ParamsKey, summary.NumParams,
		log.DeviceKey, device,
		"summary", summary.String(),
	)
	if err := summary.WriteFile(filepath.Join(cfg.CkptDir, "summary.json")); err != nil {
		return errors.Wrap(err, "write model summary")
	}

	if err := logBaselineScores(m, folds, cfg.Regression); err != nil {
		return err
	}

	if cfg.SaveInitCheckpoint {
		metadata := map[string]string{
			"run_id": cfg.RunID,
			"seed":   strconv.FormatInt(seeds.Seed(), 10),
			"device": device,
		}
		if err := models.Save(m, cfg.ModelPath, metadata); err != nil {
			return err
		}
	}
	return nil
}

func buildModel(cfg *config.Config, ds *dataset.NAMDataset, seeds *rng.Seeds) (models.Model, error) {
	numInputs := ds.NumFeatures()
	if cfg.UseDNN {
		return models.NewDNN(cfg, "DNNModel", numInputs, 1, cfg.DNNDropout, seeds.Weights)
	}
	nam, err := models.NewNAM(cfg, "NAMModel", numInputs, []int{cfg.NumUnits}, cfg.Shallow, cfg.FeatureDropout, seeds)
	if err != nil {
		return nil, err
	}
	nam.FeatureNames = ds.FeatureNames()
	return nam, nil
}

// logBaselineScores logs the validation scores of the untrained model on
// every fold. Targets that binary metrics cannot score only produce a warning.
func logBaselineScores(m models.Model, folds []dataset.Fold, regression bool) error {
	logger := log.GetLoggerWithName("main")
	for _, f := range folds {
		scores, err := models.Evaluate(m, f.Val, regression)
		var valueErr *errors.ValueError
		if errors.As(err, &valueErr) {
			logger.Warn("Skipping baseline validation scores", log.ErrAttrKey, err)
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "evaluate fold %d", f.Index)
		}
		logger.Info(fmt.Sprintf("Fold %d untrained validation scores", f.Index),
			log.FoldKey, f.Index,
			log.SamplesKey, scores.Samples,
			log.LossKey, scores.Loss,
			log.RMSEKey, scores.RMSE,
			log.MAEKey, scores.MAE,
			log.R2Key, scores.R2,
			log.AccuracyKey, scores.Accuracy,
			log.AUCKey, scores.AUC,
			log.DurationMsKey, scores.Duration.Milliseconds(),
		)
	}
	return nil
}
