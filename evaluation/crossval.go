// Package evaluation implements k-fold cross-validation and reporting
// for fraud classifiers.
package evaluation

import (
	"log/slog"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/akhilimadabathuni/FraudDetectionModel/metrics"
	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
	logattr "github.com/akhilimadabathuni/FraudDetectionModel/pkg/log"
	"github.com/akhilimadabathuni/FraudDetectionModel/tree"
)

// KFoldSplitter defines interface for cross-validation splitters
type KFoldSplitter interface {
	Split(X, y mat.Matrix) []CVFold
	GetNSplits() int
}

// CVFold represents a single fold in cross-validation
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a new k-fold splitter. At least 2 splits are
// required; CrossValidate rejects splitters configured with fewer.
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold
func (kf *KFold) Split(X, _ mat.Matrix) []CVFold {
	if kf.NSplits < 2 {
		return nil
	}
	nSamples, _ := X.Dims()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]CVFold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])

		testSet := make(map[int]bool, testSize)
		for _, idx := range testIndices {
			testSet[idx] = true
		}
		trainIndices := make([]int, 0, nSamples-testSize)
		for _, idx := range indices {
			if !testSet[idx] {
				trainIndices = append(trainIndices, idx)
			}
		}

		folds[i] = CVFold{
			TrainIndices: trainIndices,
			TestIndices:  testIndices,
		}
		currentIdx += testSize
	}

	return folds
}

// StratifiedKFold implements stratified k-fold cross-validation. Each
// fold preserves the class proportions of the full dataset.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewStratifiedKFold creates a new stratified k-fold splitter. At least
// 2 splits are required; CrossValidate rejects splitters configured
// with fewer.
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int) *StratifiedKFold {
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold. The
// same seed always yields the same folds: classes are processed in
// ascending label order and one PCG stream drives all shuffles.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) []CVFold {
	if skf.NSplits < 2 {
		return nil
	}
	nSamples, _ := X.Dims()

	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}

	labels := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
		for _, label := range labels {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]CVFold, skf.NSplits)
	for i := 0; i < skf.NSplits; i++ {
		folds[i] = CVFold{
			TrainIndices: make([]int, 0),
			TestIndices:  make([]int, 0),
		}
	}

	// Distribute each class across folds
	for _, label := range labels {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		currentIdx := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			for j := 0; j < testSize && currentIdx < nClass; j++ {
				folds[i].TestIndices = append(folds[i].TestIndices, indices[currentIdx])
				currentIdx++
			}
		}
	}

	// Build train sets (all samples not in test)
	for i := 0; i < skf.NSplits; i++ {
		testSet := make(map[int]bool)
		for _, idx := range folds[i].TestIndices {
			testSet[idx] = true
		}
		for j := 0; j < nSamples; j++ {
			if !testSet[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}

	return folds
}

// TreeFactory builds a fresh, unfitted classifier for one fold.
type TreeFactory func() *tree.DecisionTreeClassifier

// CrossValidate trains and scores one classifier per fold, sequentially,
// and aggregates the per-fold confusion matrices into a single report.
// The classes slice pins the report's class list so that folds missing a
// class still produce full matrices.
func CrossValidate(factory TreeFactory, X, y mat.Matrix, splitter KFoldSplitter, classes []float64) (*Report, error) {
	if splitter.GetNSplits() < 2 {
		return nil, errors.NewValidationError("folds", "cross-validation needs at least 2 folds", splitter.GetNSplits())
	}

	folds := splitter.Split(X, y)
	if len(folds) == 0 {
		return nil, errors.NewValueError("CrossValidate", "splitter produced no folds")
	}

	n, _ := X.Dims()
	report := NewReport(len(folds), classes)

	for foldIdx, fold := range folds {
		if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
			return nil, errors.NewValueError("CrossValidate",
				"fold with empty train or test partition; reduce the number of folds")
		}

		trainX, trainY := extractSubset(X, y, fold.TrainIndices)
		testX, testY := extractSubset(X, y, fold.TestIndices)

		clf := factory()
		if err := clf.Fit(trainX, trainY); err != nil {
			return nil, errors.Wrapf(err, "fold %d training failed", foldIdx+1)
		}

		pred, err := clf.Predict(testX)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d prediction failed", foldIdx+1)
		}

		trueVec := columnVec(testY)
		predVec := columnVec(pred)
		cm, err := metrics.NewConfusionMatrix(trueVec, predVec, classes)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d scoring failed", foldIdx+1)
		}
		acc, err := metrics.Accuracy(trueVec, predVec)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d scoring failed", foldIdx+1)
		}

		if err := report.addFold(foldIdx, acc, cm); err != nil {
			return nil, err
		}

		slog.Debug("fold evaluated",
			slog.String(logattr.OperationKey, "cross_validate"),
			slog.Int("fold", foldIdx+1),
			slog.Int(logattr.FoldsKey, len(folds)),
			slog.Float64(logattr.AccuracyKey, acc),
		)
	}

	report.finalize(n)
	return report, nil
}

// extractSubset extracts subset of data based on indices
func extractSubset(X, y mat.Matrix, indices []int) (mat.Matrix, mat.Matrix) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	sortedIndices := make([]int, len(indices))
	copy(sortedIndices, indices)
	sort.Ints(sortedIndices)

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)

	for i, idx := range sortedIndices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}

	return xSubset, ySubset
}

func columnVec(m mat.Matrix) *mat.VecDense {
	n, _ := m.Dims()
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
