package model

import "gonum.org/v1/gonum/mat"

// Fitter is the interface for trainable models.
type Fitter interface {
	// Fit trains the model on X (n_samples × n_features) and y
	// (n_samples × 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for models that can predict.
type Predictor interface {
	// Predict returns an n_samples × 1 matrix of predicted labels.
	Predict(X mat.Matrix) (*mat.Dense, error)
}

// Scorer is the interface for models that can score themselves.
type Scorer interface {
	// Score returns the mean accuracy on the given data and labels.
	Score(X, y mat.Matrix) float64
}

// Classifier combines the interfaces a classification model exposes.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// PredictProba returns probability estimates for each class.
	PredictProba(X mat.Matrix) (*mat.Dense, error)
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	// Save writes the model to a file.
	Save(path string) error

	// Load reads the model from a file.
	Load(path string) error
}
