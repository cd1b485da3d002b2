package tree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

// ExportText renders the fitted tree as an indented rule listing.
// featureNames holds one name per feature-matrix column; featureValues
// holds the category dictionary for categorical columns (nil entries
// for numeric columns); classValues holds the printable class labels.
//
// Each leaf line ends with the training class distribution in the form
// "(n)" or "(n/e)" where n is the sample count and e the number of
// samples the leaf misclassifies.
func ExportText(t *DecisionTreeClassifier, featureNames []string, featureValues [][]string, classValues []string) (string, error) {
	if !t.IsFitted() {
		return "", errors.NewNotFittedError("DecisionTreeClassifier", "ExportText")
	}
	if len(featureNames) != t.nFeatures_ {
		return "", errors.NewDimensionError("tree.ExportText", t.nFeatures_, len(featureNames), 1)
	}
	if len(classValues) != t.nClasses_ {
		return "", errors.NewDimensionError("tree.ExportText", t.nClasses_, len(classValues), 1)
	}

	w := &textWriter{
		tree:          t,
		featureNames:  featureNames,
		featureValues: featureValues,
		classValues:   classValues,
	}
	var sb strings.Builder
	if t.root.isLeaf {
		sb.WriteString(": " + w.leafLabel(t.root) + "\n")
	} else {
		w.write(&sb, t.root, 0)
	}
	fmt.Fprintf(&sb, "\nNumber of Leaves  : \t%d\n", t.GetNLeaves())
	fmt.Fprintf(&sb, "\nSize of the tree : \t%d\n", nodeCount(t.root))
	return sb.String(), nil
}

type textWriter struct {
	tree          *DecisionTreeClassifier
	featureNames  []string
	featureValues [][]string
	classValues   []string
}

func (w *textWriter) write(sb *strings.Builder, nd *node, depth int) {
	indent := strings.Repeat("|   ", depth)
	left, right := w.branchLabels(nd)

	w.writeBranch(sb, indent, left, nd.left, depth)
	w.writeBranch(sb, indent, right, nd.right, depth)
}

func (w *textWriter) writeBranch(sb *strings.Builder, indent, label string, child *node, depth int) {
	if child.isLeaf {
		fmt.Fprintf(sb, "%s%s: %s\n", indent, label, w.leafLabel(child))
		return
	}
	fmt.Fprintf(sb, "%s%s\n", indent, label)
	w.write(sb, child, depth+1)
}

// branchLabels returns the condition text for the left and right child.
func (w *textWriter) branchLabels(nd *node) (string, string) {
	name := w.featureNames[nd.feature]
	if nd.categorical {
		value := w.categoryName(nd.feature, nd.threshold)
		return fmt.Sprintf("%s = %s", name, value),
			fmt.Sprintf("%s != %s", name, value)
	}
	thr := strconv.FormatFloat(nd.threshold, 'f', -1, 64)
	return fmt.Sprintf("%s <= %s", name, thr),
		fmt.Sprintf("%s > %s", name, thr)
}

func (w *textWriter) categoryName(feature int, value float64) string {
	idx := int(value)
	if feature < len(w.featureValues) {
		if dict := w.featureValues[feature]; idx >= 0 && idx < len(dict) {
			return dict[idx]
		}
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func (w *textWriter) leafLabel(nd *node) string {
	total := 0.0
	for _, c := range nd.classCounts {
		total += c
	}
	wrong := total - nd.classCounts[nd.prediction]
	dist := fmt.Sprintf("(%.1f)", total)
	if wrong > 0 {
		dist = fmt.Sprintf("(%.1f/%.1f)", total, wrong)
	}
	return w.classValues[nd.prediction] + " " + dist
}

func nodeCount(nd *node) int {
	if nd == nil {
		return 0
	}
	return 1 + nodeCount(nd.left) + nodeCount(nd.right)
}
