// Package nam sets up experiments for Neural Additive Models (NAMs).
//
// A NAM predicts with a sum of per-feature subnetworks (FeatureNNs) plus a
// bias, so the learned contribution of every feature can be inspected on its
// own. This module provides the scaffolding around the model:
//
//   - config: defaults merged with a JSON5 file, NAM_* environment variables
//     and command line flags, plus the Exp_<timestamp>/{logs,ckpts} layout
//   - core/rng: seeded random streams for splitting, shuffling and weights
//   - dataset: CSV datasets with feature, target and weight columns and
//     k-fold (optionally stratified) data loaders
//   - nn: ExU, LinReLU, Linear, ReLU and Dropout layers on gonum matrices
//   - models: the NAM, its FeatureNNs and a fully connected DNN baseline,
//     with evaluation and gob checkpoints
//
// # Quick Start
//
//	go run ./cmd/nam --csv_file data/GALLUP.csv --n_splits 3 --save_init_checkpoint
//
// The command writes config.json to the working directory and creates
//
//	output/Exp_2006-01-02_150405/logs/nam.log
//	output/Exp_2006-01-02_150405/ckpts/model.th
//
// # Error Handling
//
// Errors carry stack traces from github.com/cockroachdb/errors. Typed errors
// such as DimensionError or ColumnNotFoundError live in pkg/errors and are
// logged with their fields by the zerolog backend of pkg/log. Warnings (rows
// dropped for missing values, labels encoded to classes, device fallback) go
// through errors.Warn and end up in the same log.
package nam
