// Package detector ties the workflow together: load labeled
// transactions, run the preprocessing pipeline, fit a decision tree,
// cross-validate it, persist the whole detector as one unit, and
// classify new transactions against the captured schema.
package detector

import (
	"log/slog"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/akhilimadabathuni/FraudDetectionModel/core/model"
	"github.com/akhilimadabathuni/FraudDetectionModel/dataset"
	"github.com/akhilimadabathuni/FraudDetectionModel/evaluation"
	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
	logattr "github.com/akhilimadabathuni/FraudDetectionModel/pkg/log"
	"github.com/akhilimadabathuni/FraudDetectionModel/preprocessing"
	"github.com/akhilimadabathuni/FraudDetectionModel/tree"
)

// FraudLabel is the class dictionary value that marks a fraudulent
// transaction.
const FraudLabel = "1"

// Verdict values returned by classification.
const (
	VerdictFraud = "FRAUD"
	VerdictLegit = "LEGIT"
)

// Transaction is one record to classify, keyed by attribute name in the
// detector's processed schema. Attributes absent from the map are
// treated as missing.
type Transaction map[string]string

// Prediction is the classification outcome for one transaction.
type Prediction struct {
	Label   string    // class dictionary value, e.g. "1"
	Verdict string    // VerdictFraud or VerdictLegit
	Proba   []float64 // class distribution in schema dictionary order
}

// Detector is the persisted unit: the fitted filter pipeline, the
// schema the filters produced, and the fitted tree. Saving and loading
// round-trips all three together so a reloaded detector classifies
// exactly like the original.
type Detector struct {
	Pipeline *preprocessing.Pipeline
	Schema   *dataset.Dataset
	Tree     *tree.DecisionTreeClassifier

	trainData *dataset.Dataset // transformed training data, not persisted
	treeOpts  []tree.Option
}

// Option configures a Detector before training.
type Option func(*Detector)

// WithTreeOptions forwards hyperparameters to the underlying
// classifier.
func WithTreeOptions(opts ...tree.Option) Option {
	return func(d *Detector) { d.treeOpts = append(d.treeOpts, opts...) }
}

// WithPipeline replaces the default transaction pipeline.
func WithPipeline(p *preprocessing.Pipeline) Option {
	return func(d *Detector) { d.Pipeline = p }
}

// New creates an untrained detector with the standard transaction
// pipeline.
func New(opts ...Option) *Detector {
	d := &Detector{Pipeline: preprocessing.NewFraudPipeline()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Train fits the pipeline on the raw dataset, captures the processed
// schema, and fits the tree on the processed data. The processed data
// is kept in memory for Evaluate.
func (d *Detector) Train(raw *dataset.Dataset) error {
	processed, err := d.Pipeline.FitTransform(raw)
	if err != nil {
		return errors.Wrap(err, "preprocessing failed")
	}

	X, y, err := processed.Matrices()
	if err != nil {
		return errors.Wrap(err, "failed to build training matrices")
	}

	opts := append([]tree.Option{
		tree.WithCategoricalFeatures(processed.CategoricalFeatures()),
	}, d.treeOpts...)
	clf := tree.NewDecisionTreeClassifier(opts...)
	if err := clf.Fit(X, y); err != nil {
		return errors.Wrap(err, "training failed")
	}

	d.Schema = processed.Structure()
	d.Tree = clf
	d.trainData = processed

	slog.Info("detector trained",
		slog.String(logattr.ModelNameKey, "DecisionTreeClassifier"),
		slog.String(logattr.OperationKey, "fit"),
		slog.Int(logattr.SamplesKey, processed.NumRows()),
		slog.Int(logattr.FeaturesKey, processed.NumAttributes()-1),
		slog.Int("tree.depth", clf.GetDepth()),
		slog.Int("tree.leaves", clf.GetNLeaves()),
	)
	return nil
}

// TrainCSV loads a labeled CSV file and trains on it.
func (d *Detector) TrainCSV(path string) error {
	raw, err := dataset.NewCSVLoader().Load(path)
	if err != nil {
		return err
	}
	slog.Info("training data loaded",
		slog.String(logattr.ComponentKey, "dataset"),
		slog.String(logattr.PathKey, path),
		slog.Int(logattr.SamplesKey, raw.NumRows()),
		slog.Int(logattr.FeaturesKey, raw.NumAttributes()),
	)
	return d.Train(raw)
}

// Evaluate cross-validates a fresh tree with the detector's
// hyperparameters over the processed training data. Folds run
// sequentially; the same seed always reproduces the same report.
func (d *Detector) Evaluate(folds int, seed int) (*evaluation.Report, error) {
	if d.trainData == nil {
		return nil, errors.NewNotFittedError("Detector", "Evaluate")
	}
	X, y, err := d.trainData.Matrices()
	if err != nil {
		return nil, err
	}

	opts := append([]tree.Option{
		tree.WithCategoricalFeatures(d.trainData.CategoricalFeatures()),
	}, d.treeOpts...)
	factory := func() *tree.DecisionTreeClassifier {
		return tree.NewDecisionTreeClassifier(opts...)
	}

	splitter := evaluation.NewStratifiedKFold(folds, true, seed)
	report, err := evaluation.CrossValidate(factory, X, y, splitter, d.Tree.Classes())
	if err != nil {
		return nil, err
	}

	slog.Info("cross-validation finished",
		slog.String(logattr.OperationKey, "evaluate"),
		slog.Int(logattr.FoldsKey, folds),
		slog.Int(logattr.SeedKey, seed),
		slog.Float64(logattr.AccuracyKey, report.Accuracy),
	)
	return report, nil
}

// ClassValues returns the printable class dictionary of the processed
// schema.
func (d *Detector) ClassValues() ([]string, error) {
	if d.Schema == nil {
		return nil, errors.NewNotFittedError("Detector", "ClassValues")
	}
	classAttr, err := d.Schema.ClassAttribute()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), classAttr.Values...), nil
}

// DumpTree renders the fitted tree with attribute and category names
// from the processed schema.
func (d *Detector) DumpTree() (string, error) {
	if d.Tree == nil || d.Schema == nil {
		return "", errors.NewNotFittedError("Detector", "DumpTree")
	}

	featureIdx := d.Schema.FeatureIndexes()
	names := make([]string, len(featureIdx))
	values := make([][]string, len(featureIdx))
	for k, j := range featureIdx {
		attr := &d.Schema.Attributes[j]
		names[k] = attr.Name
		if attr.Type == dataset.Nominal {
			values[k] = attr.Values
		}
	}

	classValues, err := d.ClassValues()
	if err != nil {
		return "", err
	}
	return tree.ExportText(d.Tree, names, values, classValues)
}

// featureVector resolves a transaction against the processed schema
// into the tree's feature order. Unknown attribute names are rejected;
// absent attributes and unknown nominal values become missing.
func (d *Detector) featureVector(tx Transaction) ([]float64, error) {
	known := make(map[string]bool, len(d.Schema.Attributes))
	for i := range d.Schema.Attributes {
		known[d.Schema.Attributes[i].Name] = true
	}
	for name := range tx {
		if !known[name] {
			return nil, errors.NewValueError("Detector.featureVector",
				"unknown attribute "+strconv.Quote(name))
		}
	}

	featureIdx := d.Schema.FeatureIndexes()
	x := make([]float64, len(featureIdx))
	for k, j := range featureIdx {
		attr := &d.Schema.Attributes[j]
		raw, ok := tx[attr.Name]
		if !ok || raw == "" || raw == "?" {
			x[k] = missing
			continue
		}
		switch attr.Type {
		case dataset.Numeric:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.NewDataFormatError("Detector.featureVector", attr.Name,
					"not a numeric value: "+strconv.Quote(raw))
			}
			x[k] = v
		default:
			idx := attr.IndexOf(raw)
			if idx < 0 {
				errors.Warn(errors.NewUndefinedMetricWarning("classification",
					"unseen value "+strconv.Quote(raw)+" for attribute "+attr.Name, 0))
				x[k] = missing
				continue
			}
			x[k] = float64(idx)
		}
	}
	return x, nil
}

// Classify scores a single transaction and returns its prediction.
func (d *Detector) Classify(tx Transaction) (*Prediction, error) {
	preds, err := d.PredictBatch([]Transaction{tx})
	if err != nil {
		return nil, err
	}
	return &preds[0], nil
}

// PredictBatch is the batch prediction entry point: it resolves each
// transaction against the processed schema and scores all of them with
// the fitted tree.
func (d *Detector) PredictBatch(txs []Transaction) ([]Prediction, error) {
	if d.Tree == nil || d.Schema == nil || !d.Tree.IsFitted() {
		return nil, errors.NewNotFittedError("Detector", "PredictBatch")
	}
	if len(txs) == 0 {
		return nil, errors.NewValueError("Detector.PredictBatch", "no transactions")
	}

	classAttr, err := d.Schema.ClassAttribute()
	if err != nil {
		return nil, err
	}

	preds := make([]Prediction, len(txs))
	for i, tx := range txs {
		x, err := d.featureVector(tx)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d", i)
		}
		label, err := d.Tree.PredictOne(x)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d", i)
		}

		value, ok := classAttr.ValueOf(int(label))
		if !ok {
			return nil, errors.NewValueError("Detector.PredictBatch",
				"predicted label outside the class dictionary")
		}
		verdict := VerdictLegit
		if value == FraudLabel {
			verdict = VerdictFraud
		}
		preds[i] = Prediction{Label: value, Verdict: verdict, Proba: d.proba(x)}
	}
	return preds, nil
}

// PredictDataset replays the fitted pipeline over a raw dataset with
// the training schema and scores every row. The class column may be
// unlabeled; it is ignored.
func (d *Detector) PredictDataset(raw *dataset.Dataset) ([]Prediction, error) {
	if d.Tree == nil || d.Schema == nil || !d.Tree.IsFitted() {
		return nil, errors.NewNotFittedError("Detector", "PredictDataset")
	}

	processed, err := d.Pipeline.Transform(raw)
	if err != nil {
		return nil, errors.Wrap(err, "preprocessing failed")
	}
	if !processed.Structure().EqualSchema(d.Schema) {
		return nil, errors.NewDataFormatError("Detector.PredictDataset", "",
			"dataset schema does not match the training schema")
	}

	X, err := processed.FeatureMatrix()
	if err != nil {
		return nil, err
	}
	labels, err := d.Tree.Predict(X)
	if err != nil {
		return nil, err
	}

	classAttr, err := d.Schema.ClassAttribute()
	if err != nil {
		return nil, err
	}

	n, p := X.Dims()
	preds := make([]Prediction, n)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		value, ok := classAttr.ValueOf(int(labels.At(i, 0)))
		if !ok {
			return nil, errors.NewValueError("Detector.PredictDataset",
				"predicted label outside the class dictionary")
		}
		verdict := VerdictLegit
		if value == FraudLabel {
			verdict = VerdictFraud
		}
		copyRow(row, i, X)
		preds[i] = Prediction{Label: value, Verdict: verdict, Proba: d.proba(row)}
	}
	return preds, nil
}

// missing marks an absent or unresolvable cell value.
var missing = math.NaN()

// proba returns the leaf class distribution for one feature vector, or
// nil if scoring fails.
func (d *Detector) proba(x []float64) []float64 {
	m, err := d.Tree.PredictProba(mat.NewDense(1, len(x), x))
	if err != nil {
		return nil
	}
	_, k := m.Dims()
	out := make([]float64, k)
	for j := 0; j < k; j++ {
		out[j] = m.At(0, j)
	}
	return out
}

func copyRow(dst []float64, i int, X *mat.Dense) {
	mat.Row(dst, i, X)
}

// Save writes the detector to path in the versioned container format.
func (d *Detector) Save(path string) error {
	if d.Tree == nil || d.Schema == nil {
		return errors.NewNotFittedError("Detector", "Save")
	}
	if err := model.SaveModel(d, path); err != nil {
		return err
	}
	slog.Info("detector saved",
		slog.String(logattr.OperationKey, "save"),
		slog.String(logattr.PathKey, path),
	)
	return nil
}

// Load populates the receiver from a detector previously written by
// Save. The loaded detector classifies identically to the saved one but
// cannot Evaluate until retrained, since training data is not persisted.
func (d *Detector) Load(path string) error {
	if err := model.LoadModel(d, path); err != nil {
		return err
	}
	if d.Tree == nil || d.Schema == nil || d.Pipeline == nil {
		return errors.NewStorageError("Load", path, errors.StorageCorrupt,
			errors.New("container decoded without a fitted detector"))
	}
	d.trainData = nil
	slog.Info("detector loaded",
		slog.String(logattr.OperationKey, "load"),
		slog.String(logattr.PathKey, path),
	)
	return nil
}

// Load reads a detector from path.
func Load(path string) (*Detector, error) {
	d := &Detector{}
	if err := d.Load(path); err != nil {
		return nil, err
	}
	return d, nil
}
