// Package tree implements a decision-tree classifier over mixed numeric
// and categorical features. Induction recursively partitions on the
// split with the largest impurity decrease (gini or entropy criterion);
// numeric features split on thresholds, categorical features on
// equality against one category. Fitting is deterministic: the same
// training matrix and hyperparameters always produce the same tree.
package tree

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/akhilimadabathuni/FraudDetectionModel/core/model"
	"github.com/akhilimadabathuni/FraudDetectionModel/core/parallel"
	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

// predictParallelThreshold is the batch size above which Predict fans
// out across CPU cores.
const predictParallelThreshold = 1024

// DecisionTreeClassifier is a CART-family classifier.
type DecisionTreeClassifier struct {
	model.BaseEstimator

	criterion           string
	maxDepth            int // 0 means no depth limit
	minSamplesSplit     int
	minSamplesLeaf      int
	categoricalFeatures []int

	root                *node
	classes_            []float64
	nClasses_           int
	nFeatures_          int
	featureImportances_ []float64
}

// node is one tree node. Leaves carry the class distribution; internal
// nodes carry the split and route missing values to the child that
// received more training samples.
type node struct {
	isLeaf      bool
	feature     int
	threshold   float64
	categorical bool // equality split: x == threshold goes left
	missingLeft bool
	left        *node
	right       *node

	samples     int
	classCounts []float64
	prediction  int // index into classes_
}

// Option configures a DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

// WithCriterion selects the split criterion, "gini" or "entropy".
func WithCriterion(c string) Option {
	return func(t *DecisionTreeClassifier) { t.criterion = c }
}

// WithMaxDepth limits the tree depth (root depth is 0). Zero means no limit.
func WithMaxDepth(d int) Option {
	return func(t *DecisionTreeClassifier) { t.maxDepth = d }
}

// WithMinSamplesSplit sets the minimum samples required to attempt a split.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum samples required in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.minSamplesLeaf = n }
}

// WithCategoricalFeatures marks feature-matrix columns whose values are
// category indices. These split by equality rather than threshold.
func WithCategoricalFeatures(features []int) Option {
	return func(t *DecisionTreeClassifier) {
		t.categoricalFeatures = append([]int(nil), features...)
	}
}

// NewDecisionTreeClassifier creates a classifier with scikit-learn-like
// defaults: gini criterion, unlimited depth, min_samples_split=2,
// min_samples_leaf=1.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		criterion:       "gini",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(dt)
	}
	return dt
}

// Fit trains the tree on X (n_samples × n_features) and y (n_samples × 1).
// Labels may be any float values; they are collected and sorted into the
// class list. Missing feature values must be NaN.
func (t *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Fit")

	n, p := X.Dims()
	yr, yc := y.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yr != n {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", n, yr, 0)
	}
	if yc != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "y must be a column vector")
	}
	if t.criterion != "gini" && t.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be \"gini\" or \"entropy\"", t.criterion)
	}
	for _, f := range t.categoricalFeatures {
		if f < 0 || f >= p {
			return errors.NewValidationError("categorical_features", "feature index out of range", f)
		}
	}

	// Collect the sorted class list and map labels to class indices.
	// NaN labels are rejected: a NaN map key is unreachable on lookup,
	// so a missing label would silently collapse to class index 0.
	distinct := make(map[float64]bool)
	for i := 0; i < n; i++ {
		v := y.At(i, 0)
		if math.IsNaN(v) {
			return errors.NewValueError("DecisionTreeClassifier.Fit",
				fmt.Sprintf("missing label in row %d; every training row needs a class value", i))
		}
		distinct[v] = true
	}
	classes := make([]float64, 0, len(distinct))
	for v := range distinct {
		classes = append(classes, v)
	}
	sort.Float64s(classes)
	classIndex := make(map[float64]int, len(classes))
	for i, v := range classes {
		classIndex[v] = i
	}

	t.classes_ = classes
	t.nClasses_ = len(classes)
	t.nFeatures_ = p
	t.featureImportances_ = make([]float64, p)

	labels := make([]int, n)
	for i := 0; i < n; i++ {
		labels[i] = classIndex[y.At(i, 0)]
	}

	catSet := make(map[int]bool, len(t.categoricalFeatures))
	for _, f := range t.categoricalFeatures {
		catSet[f] = true
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	b := &builder{
		X:          X,
		labels:     labels,
		nClasses:   len(classes),
		nFeatures:  p,
		total:      n,
		criterion:  t.criterion,
		maxDepth:   t.maxDepth,
		minSplit:   t.minSamplesSplit,
		minLeaf:    t.minSamplesLeaf,
		catSet:     catSet,
		importance: t.featureImportances_,
	}
	t.root = b.build(indices, 0)

	normalize(t.featureImportances_)
	t.SetFitted()
	return nil
}

// Predict returns an n_samples × 1 matrix of predicted class labels.
// Large batches are scored in parallel across rows.
func (t *DecisionTreeClassifier) Predict(X mat.Matrix) (*mat.Dense, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "Predict")
	}
	n, p := X.Dims()
	if p != t.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.Predict", t.nFeatures_, p, 1)
	}

	out := mat.NewDense(n, 1, nil)
	parallel.ParallelizeWithThreshold(n, predictParallelThreshold, func(start, end int) {
		row := make([]float64, p)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			leaf := t.traverse(row)
			out.Set(i, 0, t.classes_[leaf.prediction])
		}
	})
	return out, nil
}

// PredictOne classifies a single feature vector and returns the
// predicted label.
func (t *DecisionTreeClassifier) PredictOne(x []float64) (float64, error) {
	if !t.IsFitted() {
		return 0, errors.NewNotFittedError("DecisionTreeClassifier", "PredictOne")
	}
	if len(x) != t.nFeatures_ {
		return 0, errors.NewDimensionError("DecisionTreeClassifier.PredictOne", t.nFeatures_, len(x), 1)
	}
	return t.classes_[t.traverse(x).prediction], nil
}

// PredictProba returns an n_samples × n_classes matrix of class
// probability estimates (leaf class frequencies).
func (t *DecisionTreeClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}
	n, p := X.Dims()
	if p != t.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", t.nFeatures_, p, 1)
	}

	out := mat.NewDense(n, t.nClasses_, nil)
	row := make([]float64, p)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		leaf := t.traverse(row)
		total := float64(leaf.samples)
		for j, c := range leaf.classCounts {
			out.Set(i, j, c/total)
		}
	}
	return out, nil
}

// Score returns the mean accuracy on the given data and labels.
func (t *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := t.Predict(X)
	if err != nil {
		return 0
	}
	n, _ := y.Dims()
	if n == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < n; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n)
}

// Classes returns the sorted class labels seen during fitting.
func (t *DecisionTreeClassifier) Classes() []float64 {
	return append([]float64(nil), t.classes_...)
}

// GetFeatureImportances returns the normalized impurity-decrease
// importance of each feature.
func (t *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), t.featureImportances_...)
}

// GetDepth returns the depth of the fitted tree (a lone leaf has depth 0).
func (t *DecisionTreeClassifier) GetDepth() int {
	return depth(t.root)
}

// GetNLeaves returns the number of leaves in the fitted tree.
func (t *DecisionTreeClassifier) GetNLeaves() int {
	return leaves(t.root)
}

// GetParams returns the hyperparameters.
func (t *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":            t.criterion,
		"max_depth":            t.maxDepth,
		"min_samples_split":    t.minSamplesSplit,
		"min_samples_leaf":     t.minSamplesLeaf,
		"categorical_features": append([]int(nil), t.categoricalFeatures...),
	}
}

// SetParams sets hyperparameters from a map. Unknown keys are rejected.
func (t *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "criterion":
			v, ok := value.(string)
			if !ok {
				return errors.NewValidationError(key, "must be a string", value)
			}
			t.criterion = v
		case "max_depth":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			t.maxDepth = v
		case "min_samples_split":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			t.minSamplesSplit = v
		case "min_samples_leaf":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			t.minSamplesLeaf = v
		case "categorical_features":
			v, ok := value.([]int)
			if !ok {
				return errors.NewValidationError(key, "must be []int", value)
			}
			t.categoricalFeatures = append([]int(nil), v...)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// String returns a short description of the classifier.
func (t *DecisionTreeClassifier) String() string {
	if !t.IsFitted() {
		return fmt.Sprintf("DecisionTreeClassifier(criterion=%s, max_depth=%d)", t.criterion, t.maxDepth)
	}
	return fmt.Sprintf("DecisionTreeClassifier(criterion=%s, max_depth=%d, n_classes=%d, n_leaves=%d)",
		t.criterion, t.maxDepth, t.nClasses_, t.GetNLeaves())
}

func (t *DecisionTreeClassifier) traverse(x []float64) *node {
	nd := t.root
	for !nd.isLeaf {
		v := x[nd.feature]
		goLeft := false
		switch {
		case math.IsNaN(v):
			goLeft = nd.missingLeft
		case nd.categorical:
			goLeft = v == nd.threshold
		default:
			goLeft = v <= nd.threshold
		}
		if goLeft {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}
	return nd
}

func depth(nd *node) int {
	if nd == nil || nd.isLeaf {
		return 0
	}
	l := depth(nd.left)
	r := depth(nd.right)
	if l > r {
		return l + 1
	}
	return r + 1
}

func leaves(nd *node) int {
	if nd == nil {
		return 0
	}
	if nd.isLeaf {
		return 1
	}
	return leaves(nd.left) + leaves(nd.right)
}

func normalize(values []float64) {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range values {
		values[i] /= sum
	}
}

// ===========================================================================
//
//	Induction
//
// ===========================================================================

type builder struct {
	X          mat.Matrix
	labels     []int
	nClasses   int
	nFeatures  int
	total      int
	criterion  string
	maxDepth   int
	minSplit   int
	minLeaf    int
	catSet     map[int]bool
	importance []float64
}

type split struct {
	feature     int
	threshold   float64
	categorical bool
	decrease    float64
	left        []int
	right       []int
	missing     []int
}

func (b *builder) build(indices []int, dep int) *node {
	counts := b.countClasses(indices)
	nd := &node{
		samples:     len(indices),
		classCounts: counts,
		prediction:  argmax(counts),
	}

	if b.isPure(counts) ||
		len(indices) < b.minSplit ||
		(b.maxDepth > 0 && dep >= b.maxDepth) {
		nd.isLeaf = true
		return nd
	}

	best := b.bestSplit(indices, counts)
	if best == nil {
		nd.isLeaf = true
		return nd
	}

	// Rows with a missing split value follow the child that received
	// more training samples.
	missingLeft := len(best.left) >= len(best.right)
	if missingLeft {
		best.left = append(best.left, best.missing...)
	} else {
		best.right = append(best.right, best.missing...)
	}

	b.importance[best.feature] += float64(len(indices)) / float64(b.total) * best.decrease

	nd.feature = best.feature
	nd.threshold = best.threshold
	nd.categorical = best.categorical
	nd.missingLeft = missingLeft
	nd.left = b.build(best.left, dep+1)
	nd.right = b.build(best.right, dep+1)
	return nd
}

func (b *builder) countClasses(indices []int) []float64 {
	counts := make([]float64, b.nClasses)
	for _, i := range indices {
		counts[b.labels[i]]++
	}
	return counts
}

func (b *builder) isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func (b *builder) impurity(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	switch b.criterion {
	case "entropy":
		e := 0.0
		for _, c := range counts {
			if c == 0 {
				continue
			}
			p := c / total
			e -= p * math.Log2(p)
		}
		return e
	default: // gini
		g := 1.0
		for _, c := range counts {
			p := c / total
			g -= p * p
		}
		return g
	}
}

func (b *builder) bestSplit(indices []int, parentCounts []float64) *split {
	var best *split

	for feature := 0; feature < b.nFeatures; feature++ {
		var cand *split
		if b.catSet[feature] {
			cand = b.bestCategoricalSplit(indices, feature)
		} else {
			cand = b.bestNumericSplit(indices, feature)
		}
		if cand == nil {
			continue
		}
		if best == nil || cand.decrease > best.decrease {
			best = cand
		}
	}
	return best
}

// splitEval computes the impurity decrease for a candidate partition of
// the non-missing rows.
func (b *builder) splitEval(leftCounts, rightCounts []float64, nLeft, nRight float64) float64 {
	n := nLeft + nRight
	parent := make([]float64, b.nClasses)
	for i := range parent {
		parent[i] = leftCounts[i] + rightCounts[i]
	}
	parentImp := b.impurity(parent, n)
	childImp := (nLeft*b.impurity(leftCounts, nLeft) + nRight*b.impurity(rightCounts, nRight)) / n
	return parentImp - childImp
}

func (b *builder) bestNumericSplit(indices []int, feature int) *split {
	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, 0, len(indices))
	var missing []int
	for _, i := range indices {
		v := b.X.At(i, feature)
		if math.IsNaN(v) {
			missing = append(missing, i)
			continue
		}
		pairs = append(pairs, pair{value: v, index: i})
	}
	if len(pairs) < 2*b.minLeaf {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].value != pairs[j].value {
			return pairs[i].value < pairs[j].value
		}
		return pairs[i].index < pairs[j].index
	})

	leftCounts := make([]float64, b.nClasses)
	rightCounts := make([]float64, b.nClasses)
	for _, p := range pairs {
		rightCounts[b.labels[p.index]]++
	}

	var best *split
	for cut := 1; cut < len(pairs); cut++ {
		lbl := b.labels[pairs[cut-1].index]
		leftCounts[lbl]++
		rightCounts[lbl]--

		if pairs[cut-1].value == pairs[cut].value {
			continue // no threshold separates equal values
		}
		if cut < b.minLeaf || len(pairs)-cut < b.minLeaf {
			continue
		}

		decrease := b.splitEval(leftCounts, rightCounts, float64(cut), float64(len(pairs)-cut))
		if decrease <= 1e-12 {
			continue
		}
		if best == nil || decrease > best.decrease {
			threshold := (pairs[cut-1].value + pairs[cut].value) / 2
			left := make([]int, 0, cut)
			right := make([]int, 0, len(pairs)-cut)
			for k, p := range pairs {
				if k < cut {
					left = append(left, p.index)
				} else {
					right = append(right, p.index)
				}
			}
			best = &split{
				feature:   feature,
				threshold: threshold,
				decrease:  decrease,
				left:      left,
				right:     right,
				missing:   missing,
			}
		}
	}
	return best
}

func (b *builder) bestCategoricalSplit(indices []int, feature int) *split {
	byValue := make(map[float64][]int)
	var missing []int
	nonMissing := 0
	for _, i := range indices {
		v := b.X.At(i, feature)
		if math.IsNaN(v) {
			missing = append(missing, i)
			continue
		}
		byValue[v] = append(byValue[v], i)
		nonMissing++
	}
	if len(byValue) < 2 {
		return nil
	}

	// Deterministic candidate order.
	values := make([]float64, 0, len(byValue))
	for v := range byValue {
		values = append(values, v)
	}
	sort.Float64s(values)

	var best *split
	for _, v := range values {
		inGroup := byValue[v]
		if len(inGroup) < b.minLeaf || nonMissing-len(inGroup) < b.minLeaf {
			continue
		}

		leftCounts := make([]float64, b.nClasses)
		rightCounts := make([]float64, b.nClasses)
		var left, right []int
		for _, group := range values {
			for _, i := range byValue[group] {
				if group == v {
					leftCounts[b.labels[i]]++
					left = append(left, i)
				} else {
					rightCounts[b.labels[i]]++
					right = append(right, i)
				}
			}
		}

		decrease := b.splitEval(leftCounts, rightCounts, float64(len(left)), float64(len(right)))
		if decrease <= 1e-12 {
			continue
		}
		if best == nil || decrease > best.decrease {
			best = &split{
				feature:     feature,
				threshold:   v,
				categorical: true,
				decrease:    decrease,
				left:        left,
				right:       right,
				missing:     missing,
			}
		}
	}
	return best
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// ===========================================================================
//
//	Serialization
//
// ===========================================================================

// treeState mirrors the classifier with exported fields for gob.
type treeState struct {
	Criterion           string
	MaxDepth            int
	MinSamplesSplit     int
	MinSamplesLeaf      int
	CategoricalFeatures []int
	Classes             []float64
	NFeatures           int
	FeatureImportances  []float64
	Root                *nodeState
}

type nodeState struct {
	IsLeaf      bool
	Feature     int
	Threshold   float64
	Categorical bool
	MissingLeft bool
	Samples     int
	ClassCounts []float64
	Prediction  int
	Left        *nodeState
	Right       *nodeState
}

func exportNode(nd *node) *nodeState {
	if nd == nil {
		return nil
	}
	return &nodeState{
		IsLeaf:      nd.isLeaf,
		Feature:     nd.feature,
		Threshold:   nd.threshold,
		Categorical: nd.categorical,
		MissingLeft: nd.missingLeft,
		Samples:     nd.samples,
		ClassCounts: nd.classCounts,
		Prediction:  nd.prediction,
		Left:        exportNode(nd.left),
		Right:       exportNode(nd.right),
	}
}

func importNode(ns *nodeState) *node {
	if ns == nil {
		return nil
	}
	return &node{
		isLeaf:      ns.IsLeaf,
		feature:     ns.Feature,
		threshold:   ns.Threshold,
		categorical: ns.Categorical,
		missingLeft: ns.MissingLeft,
		samples:     ns.Samples,
		classCounts: ns.ClassCounts,
		prediction:  ns.Prediction,
		left:        importNode(ns.Left),
		right:       importNode(ns.Right),
	}
}

// GobEncode implements gob.GobEncoder.
func (t *DecisionTreeClassifier) GobEncode() ([]byte, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "GobEncode")
	}
	state := treeState{
		Criterion:           t.criterion,
		MaxDepth:            t.maxDepth,
		MinSamplesSplit:     t.minSamplesSplit,
		MinSamplesLeaf:      t.minSamplesLeaf,
		CategoricalFeatures: t.categoricalFeatures,
		Classes:             t.classes_,
		NFeatures:           t.nFeatures_,
		FeatureImportances:  t.featureImportances_,
		Root:                exportNode(t.root),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, errors.Wrap(err, "failed to encode tree state")
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder. The decoded classifier is marked
// fitted and predicts identically to the encoded one.
func (t *DecisionTreeClassifier) GobDecode(data []byte) error {
	var state treeState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return errors.Wrap(err, "failed to decode tree state")
	}
	t.criterion = state.Criterion
	t.maxDepth = state.MaxDepth
	t.minSamplesSplit = state.MinSamplesSplit
	t.minSamplesLeaf = state.MinSamplesLeaf
	t.categoricalFeatures = state.CategoricalFeatures
	t.classes_ = state.Classes
	t.nClasses_ = len(state.Classes)
	t.nFeatures_ = state.NFeatures
	t.featureImportances_ = state.FeatureImportances
	t.root = importNode(state.Root)
	t.SetFitted()
	return nil
}
