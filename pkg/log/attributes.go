// Standard attribute keys used across training, evaluation and
// prediction logging. Hierarchical names keep the JSON output
// filterable.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the model or filter type.
	// Examples: "DecisionTreeClassifier", "StringToNominal"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "evaluate",
	// "save", "load"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "dataset", "preprocessing", "evaluation"
	ComponentKey = "ml.component"
)

// Data shape and characteristics.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of columns being processed.
	FeaturesKey = "data.features"

	// PathKey is the source or destination file path.
	PathKey = "data.path"
)

// Evaluation metrics.
const (
	// AccuracyKey is the overall accuracy of an evaluation run.
	AccuracyKey = "metric.accuracy"

	// FoldsKey is the number of cross-validation folds.
	FoldsKey = "metric.folds"

	// SeedKey is the random seed used for fold assignment.
	SeedKey = "metric.seed"
)
