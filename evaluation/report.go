package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/akhilimadabathuni/FraudDetectionModel/metrics"
	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

// Report aggregates cross-validation results: per-fold accuracies plus
// a confusion matrix pooled over every fold's test partition.
type Report struct {
	FoldAccuracies []float64
	Matrix         *metrics.ConfusionMatrix
	ClassReports   []metrics.ClassReport

	Accuracy  float64 // pooled over all test partitions
	Kappa     float64
	Correct   int
	Incorrect int
	Total     int
}

// NewReport creates an empty report for nFolds folds over the given
// class labels.
func NewReport(nFolds int, classes []float64) *Report {
	counts := make([][]int, len(classes))
	for i := range counts {
		counts[i] = make([]int, len(classes))
	}
	return &Report{
		FoldAccuracies: make([]float64, nFolds),
		Matrix: &metrics.ConfusionMatrix{
			Classes: append([]float64(nil), classes...),
			Counts:  counts,
		},
	}
}

func (r *Report) addFold(fold int, accuracy float64, cm *metrics.ConfusionMatrix) error {
	if fold < 0 || fold >= len(r.FoldAccuracies) {
		return errors.NewValueError("Report.addFold", "fold index out of range")
	}
	r.FoldAccuracies[fold] = accuracy
	return r.Matrix.Add(cm)
}

func (r *Report) finalize(total int) {
	r.Total = total
	r.Correct = r.Matrix.Correct()
	r.Incorrect = r.Matrix.Total() - r.Correct
	r.Accuracy = errors.SafeDivide(float64(r.Correct), float64(r.Matrix.Total()))
	r.Kappa = r.Matrix.CohenKappa()
	r.ClassReports = r.Matrix.ClassReports()
}

// MeanAccuracy returns the mean of the per-fold accuracies.
func (r *Report) MeanAccuracy() float64 {
	if len(r.FoldAccuracies) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range r.FoldAccuracies {
		sum += a
	}
	return sum / float64(len(r.FoldAccuracies))
}

// StdAccuracy returns the sample standard deviation of the per-fold
// accuracies.
func (r *Report) StdAccuracy() float64 {
	if len(r.FoldAccuracies) <= 1 {
		return 0
	}
	mean := r.MeanAccuracy()
	sumSq := 0.0
	for _, a := range r.FoldAccuracies {
		diff := a - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(r.FoldAccuracies)-1))
}

// Summary renders the aggregate statistics block.
func (r *Report) Summary() string {
	var sb strings.Builder
	sb.WriteString("=== Stratified cross-validation ===\n")
	sb.WriteString("=== Summary ===\n\n")
	fmt.Fprintf(&sb, "Correctly Classified Instances   %8d    %8.4f %%\n",
		r.Correct, 100*r.Accuracy)
	fmt.Fprintf(&sb, "Incorrectly Classified Instances %8d    %8.4f %%\n",
		r.Incorrect, 100*(1-r.Accuracy))
	fmt.Fprintf(&sb, "Kappa statistic                  %12.4f\n", r.Kappa)
	fmt.Fprintf(&sb, "Mean fold accuracy               %12.4f (+/- %.4f)\n",
		r.MeanAccuracy(), r.StdAccuracy())
	fmt.Fprintf(&sb, "Total Number of Instances        %8d\n", r.Total)
	return sb.String()
}

// DetailString renders the per-class precision, recall and F1 block.
// classValues holds the printable name of each class in r.Matrix.Classes
// order.
func (r *Report) DetailString(classValues []string) string {
	var sb strings.Builder
	sb.WriteString("=== Detailed Accuracy By Class ===\n\n")
	sb.WriteString("                 Precision  Recall  F-Measure  Class\n")
	for i, cr := range r.ClassReports {
		name := fmt.Sprintf("%g", cr.Class)
		if i < len(classValues) {
			name = classValues[i]
		}
		fmt.Fprintf(&sb, "                 %9.3f  %6.3f  %9.3f  %s\n",
			cr.Precision, cr.Recall, cr.F1, name)
	}
	return sb.String()
}

// MatrixString renders the confusion matrix with letter column labels,
// one row per true class.
func (r *Report) MatrixString(classValues []string) string {
	k := len(r.Matrix.Classes)

	width := 4
	for _, row := range r.Matrix.Counts {
		for _, c := range row {
			if w := len(fmt.Sprintf("%d", c)); w+1 > width {
				width = w + 1
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("=== Confusion Matrix ===\n\n")
	for j := 0; j < k; j++ {
		fmt.Fprintf(&sb, "%*c", width, 'a'+j)
	}
	sb.WriteString("   <-- classified as\n")
	for i, row := range r.Matrix.Counts {
		for _, c := range row {
			fmt.Fprintf(&sb, "%*d", width, c)
		}
		name := fmt.Sprintf("%g", r.Matrix.Classes[i])
		if i < len(classValues) {
			name = classValues[i]
		}
		fmt.Fprintf(&sb, " |   %c = %s\n", 'a'+i, name)
	}
	return sb.String()
}
