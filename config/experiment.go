package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/nam/pkg/errors"
	"github.com/YuminosukeSato/nam/pkg/log"
)

// RunDirLayout is the time layout of run directory names, Exp_2006-01-02_150405.
const RunDirLayout = "2006-01-02_150405"

// ModelFileName is the checkpoint file inside the ckpts directory.
const ModelFileName = "model.th"

// Prepare makes OutputDir absolute and creates
//
//	<output_dir>/Exp_<timestamp>/logs
//	<output_dir>/Exp_<timestamp>/ckpts
//
// setting RunDir, LogDir, CkptDir and ModelPath, and assigns a RunID when
// none is set. Existing directories are reused, so calling Prepare twice with
// the same time is harmless.
func (c *Config) Prepare(now time.Time) error {
	logger := log.GetLoggerWithName("config")

	outputDir, err := filepath.Abs(c.OutputDir)
	if err != nil {
		return errors.Wrapf(err, "resolve output dir %s", c.OutputDir)
	}
	c.OutputDir = outputDir
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return errors.Wrapf(err, "create output dir %s", c.OutputDir)
	}
	logger.Debug("Creating output dir", log.OutputDirKey, c.OutputDir)

	c.RunDir = filepath.Join(c.OutputDir, "Exp_"+now.Format(RunDirLayout))
	if err := os.MkdirAll(c.RunDir, 0o755); err != nil {
		return errors.Wrapf(err, "create run dir %s", c.RunDir)
	}
	logger.Debug("Creating run exp folder", "run_dir", c.RunDir)

	c.LogDir = filepath.Join(c.RunDir, "logs")
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return errors.Wrapf(err, "create log dir %s", c.LogDir)
	}

	c.CkptDir = filepath.Join(c.RunDir, "ckpts")
	if err := os.MkdirAll(c.CkptDir, 0o755); err != nil {
		return errors.Wrapf(err, "create checkpoint dir %s", c.CkptDir)
	}
	c.ModelPath = filepath.Join(c.CkptDir, ModelFileName)
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
	return nil
}

// clearDerived resets the fields Prepare computes.
func (c *Config) clearDerived() {
	c.RunID = ""
	c.RunDir = ""
	c.LogDir = ""
	c.CkptDir = ""
	c.ModelPath = ""
}

// Save writes c as indented JSON to path and returns the absolute path written.
func (c *Config) Save(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", path)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(abs, append(data, '\n'), 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", abs)
	}
	return abs, nil
}

// ReadSaved reads a config written by Save.
func ReadSaved(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	c := &Config{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return c, nil
}
