// Package metrics provides classification quality measures over label
// vectors: accuracy, confusion matrices, per-class precision, recall
// and F1, and Cohen's kappa.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

// Accuracy computes the fraction of exactly matching labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix counts label pairs. Classes lists the distinct labels
// in ascending order; Counts[i][j] is the number of samples whose true
// label is Classes[i] and predicted label is Classes[j].
type ConfusionMatrix struct {
	Classes []float64
	Counts  [][]int
}

// NewConfusionMatrix builds the confusion matrix over the union of the
// labels appearing in yTrue and yPred, plus any extra labels given in
// classes (so a fold that never sees a class still yields a full matrix).
func NewConfusionMatrix(yTrue, yPred *mat.VecDense, classes []float64) (*ConfusionMatrix, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("NewConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("NewConfusionMatrix", n, yPred.Len(), 0)
	}

	// NaN labels cannot be counted: a NaN map key never matches on
	// lookup, so such a sample would land in the wrong cell.
	seen := make(map[float64]bool)
	for _, c := range classes {
		if math.IsNaN(c) {
			return nil, errors.NewValueError("NewConfusionMatrix", "class list contains NaN")
		}
		seen[c] = true
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(yTrue.AtVec(i)) || math.IsNaN(yPred.AtVec(i)) {
			return nil, errors.NewValueError("NewConfusionMatrix",
				fmt.Sprintf("NaN label at sample %d", i))
		}
		seen[yTrue.AtVec(i)] = true
		seen[yPred.AtVec(i)] = true
	}
	sorted := make([]float64, 0, len(seen))
	for c := range seen {
		sorted = append(sorted, c)
	}
	sort.Float64s(sorted)

	index := make(map[float64]int, len(sorted))
	for i, c := range sorted {
		index[c] = i
	}

	counts := make([][]int, len(sorted))
	for i := range counts {
		counts[i] = make([]int, len(sorted))
	}
	for i := 0; i < n; i++ {
		counts[index[yTrue.AtVec(i)]][index[yPred.AtVec(i)]]++
	}
	return &ConfusionMatrix{Classes: sorted, Counts: counts}, nil
}

// Total returns the number of samples in the matrix.
func (cm *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range cm.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// Correct returns the number of samples on the diagonal.
func (cm *ConfusionMatrix) Correct() int {
	correct := 0
	for i := range cm.Counts {
		correct += cm.Counts[i][i]
	}
	return correct
}

// Add accumulates another matrix over the same class list into cm.
func (cm *ConfusionMatrix) Add(other *ConfusionMatrix) error {
	if len(other.Classes) != len(cm.Classes) {
		return errors.NewDimensionError("ConfusionMatrix.Add", len(cm.Classes), len(other.Classes), 0)
	}
	for i, c := range cm.Classes {
		if other.Classes[i] != c {
			return errors.NewValueError("ConfusionMatrix.Add", "class lists differ")
		}
	}
	for i := range cm.Counts {
		for j := range cm.Counts[i] {
			cm.Counts[i][j] += other.Counts[i][j]
		}
	}
	return nil
}

// ClassReport holds per-class precision, recall, F1 and support.
type ClassReport struct {
	Class     float64
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// ClassReports derives per-class precision, recall and F1 from the
// confusion matrix. A class with no predicted (or no true) samples gets
// a zero metric and raises an UndefinedMetricWarning through the
// package warning handler.
func (cm *ConfusionMatrix) ClassReports() []ClassReport {
	reports := make([]ClassReport, len(cm.Classes))
	for i, class := range cm.Classes {
		tp := float64(cm.Counts[i][i])
		predicted := 0.0
		actual := 0.0
		for j := range cm.Classes {
			predicted += float64(cm.Counts[j][i])
			actual += float64(cm.Counts[i][j])
		}

		if predicted == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("precision",
				fmt.Sprintf("no predicted samples for class %g", class), 0))
		}
		if actual == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("recall",
				fmt.Sprintf("no true samples for class %g", class), 0))
		}

		precision := errors.SafeDivide(tp, predicted)
		recall := errors.SafeDivide(tp, actual)
		f1 := errors.SafeDivide(2*precision*recall, precision+recall)

		reports[i] = ClassReport{
			Class:     class,
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   int(actual),
		}
	}
	return reports
}

// CohenKappa computes chance-corrected agreement from the confusion
// matrix.
func (cm *ConfusionMatrix) CohenKappa() float64 {
	total := float64(cm.Total())
	if total == 0 {
		return 0
	}
	observed := float64(cm.Correct()) / total

	expected := 0.0
	for i := range cm.Classes {
		rowSum := 0.0
		colSum := 0.0
		for j := range cm.Classes {
			rowSum += float64(cm.Counts[i][j])
			colSum += float64(cm.Counts[j][i])
		}
		expected += (rowSum / total) * (colSum / total)
	}
	return errors.SafeDivide(observed-expected, 1-expected)
}
