// Standard attribute keys for NAM experiment logging.
//
// Keys follow a dotted hierarchy ("model.name", "data.samples") so log lines
// from the bootstrap, the dataset and the models can be filtered uniformly.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the model instance, e.g. "NAMModel" or "FeatureNN_2".
	ModelNameKey = "model.name"

	// ModelTypeKey is the architecture: "NAM", "FeatureNN" or "DNN".
	ModelTypeKey = "model.type"

	// OperationKey is the operation being performed, see the Operation* values.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the entry.
	ComponentKey = "ml.component"

	// PhaseKey is the lifecycle phase, see the Phase* values.
	PhaseKey = "ml.phase"

	// ParamsKey is the number of scalar parameters of a model.
	ParamsKey = "model.params"

	// ActivationKey is the first-layer activation of a FeatureNN ("exu" or "relu").
	ActivationKey = "model.activation"
)

// Data shape.
const (
	SamplesKey   = "data.samples"
	FeaturesKey  = "data.features"
	TargetsKey   = "data.targets"
	ClassesKey   = "data.classes"
	BatchSizeKey = "data.batch_size"
	BatchesKey   = "data.batches"

	// FoldKey is the zero-based cross-validation fold index.
	FoldKey = "data.fold"

	// SplitsKey is the number of cross-validation folds.
	SplitsKey = "data.splits"

	// FileKey is a file read or written by the operation.
	FileKey = "data.file"
)

// Metrics and timing.
const (
	DurationMsKey = "perf.duration_ms"
	LossKey       = "metrics.loss"
	RMSEKey       = "metrics.rmse"
	MAEKey        = "metrics.mae"
	R2Key         = "metrics.r2"
	AccuracyKey   = "metrics.accuracy"
	AUCKey        = "metrics.auc"
)

// Configuration and environment.
const (
	RandomSeedKey = "config.random_seed"
	DeviceKey     = "config.device"
	OutputDirKey  = "config.output_dir"
	LogDirKey     = "config.log_dir"
	CkptDirKey    = "config.ckpt_dir"
	ModelPathKey  = "config.model_path"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	SuggestionKey = "error.suggestion"
)

// Standard values.
const (
	OperationLoad     = "load"
	OperationSplit    = "split"
	OperationForward  = "forward"
	OperationEvaluate = "evaluate"
	OperationSave     = "save"

	PhaseBootstrap  = "bootstrap"
	PhaseData       = "data"
	PhaseModel      = "model"
	PhaseValidation = "validation"

	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorMissingColumn     = "MISSING_COLUMN"
)
