// Package dataset provides the in-memory tabular data model for the
// fraud detection pipeline: typed columns loaded from a delimited file,
// with a designated class column. Cell storage is float64 throughout;
// string and nominal columns store an index into the attribute's value
// dictionary, and NaN marks a missing value.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

// AttributeType classifies a column.
type AttributeType int

const (
	// Numeric columns hold real values.
	Numeric AttributeType = iota
	// String columns hold free text with an open, growing dictionary.
	String
	// Nominal columns hold values from a closed dictionary fixed at
	// filter-fit time. The classifier consumes category indices.
	Nominal
)

func (t AttributeType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case String:
		return "string"
	case Nominal:
		return "nominal"
	default:
		return "unknown"
	}
}

// Attribute describes one column: its name, type, and (for string or
// nominal columns) the value dictionary. The position of a value in
// Values is its category index.
type Attribute struct {
	Name   string
	Type   AttributeType
	Values []string

	lookup map[string]int
}

// NewNumericAttribute creates a numeric column descriptor.
func NewNumericAttribute(name string) Attribute {
	return Attribute{Name: name, Type: Numeric}
}

// NewStringAttribute creates a free-text column descriptor.
func NewStringAttribute(name string) Attribute {
	return Attribute{Name: name, Type: String}
}

// NewNominalAttribute creates a categorical column descriptor with a
// fixed value dictionary.
func NewNominalAttribute(name string, values []string) Attribute {
	return Attribute{Name: name, Type: Nominal, Values: append([]string(nil), values...)}
}

// IndexOf returns the category index of value, or -1 when the value is
// not in the dictionary.
func (a *Attribute) IndexOf(value string) int {
	if a.lookup == nil || len(a.lookup) != len(a.Values) {
		a.lookup = make(map[string]int, len(a.Values))
		for i, v := range a.Values {
			a.lookup[v] = i
		}
	}
	if i, ok := a.lookup[value]; ok {
		return i
	}
	return -1
}

// Intern returns the category index of value, adding it to the
// dictionary when absent. Only valid for String columns while loading.
func (a *Attribute) Intern(value string) int {
	if i := a.IndexOf(value); i >= 0 {
		return i
	}
	a.Values = append(a.Values, value)
	i := len(a.Values) - 1
	a.lookup[value] = i
	return i
}

// ValueOf returns the dictionary entry for a category index.
func (a *Attribute) ValueOf(index int) (string, bool) {
	if index < 0 || index >= len(a.Values) {
		return "", false
	}
	return a.Values[index], true
}

// Equal reports whether two attributes have the same name, type, and
// dictionary (same entries in the same order).
func (a *Attribute) Equal(other *Attribute) bool {
	if a.Name != other.Name || a.Type != other.Type || len(a.Values) != len(other.Values) {
		return false
	}
	for i, v := range a.Values {
		if other.Values[i] != v {
			return false
		}
	}
	return true
}

// clone deep-copies the attribute (the lazy lookup map is rebuilt on
// demand in the copy).
func (a *Attribute) clone() Attribute {
	return Attribute{
		Name:   a.Name,
		Type:   a.Type,
		Values: append([]string(nil), a.Values...),
	}
}

// Dataset is an ordered collection of rows sharing one schema.
// ClassIndex designates the label column; -1 means no label.
type Dataset struct {
	Attributes []Attribute
	Rows       [][]float64
	ClassIndex int
}

// New creates an empty dataset over the given schema with no class
// column designated.
func New(attrs []Attribute) *Dataset {
	copied := make([]Attribute, len(attrs))
	for i := range attrs {
		copied[i] = attrs[i].clone()
	}
	return &Dataset{Attributes: copied, ClassIndex: -1}
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int { return len(d.Rows) }

// NumAttributes returns the number of columns.
func (d *Dataset) NumAttributes() int { return len(d.Attributes) }

// SetClassIndex designates the label column.
func (d *Dataset) SetClassIndex(i int) error {
	if i < -1 || i >= len(d.Attributes) {
		return errors.NewValueError("Dataset.SetClassIndex",
			"class index out of range")
	}
	d.ClassIndex = i
	return nil
}

// ClassAttribute returns the label column descriptor.
func (d *Dataset) ClassAttribute() (*Attribute, error) {
	if d.ClassIndex < 0 {
		return nil, errors.NewValueError("Dataset.ClassAttribute", "no class column designated")
	}
	return &d.Attributes[d.ClassIndex], nil
}

// AppendRow adds a row. The value count must match the schema.
func (d *Dataset) AppendRow(values []float64) error {
	if len(values) != len(d.Attributes) {
		return errors.NewDimensionError("Dataset.AppendRow", len(d.Attributes), len(values), 1)
	}
	row := make([]float64, len(values))
	copy(row, values)
	d.Rows = append(d.Rows, row)
	return nil
}

// Value returns the raw cell value at (row, col).
func (d *Dataset) Value(row, col int) float64 {
	return d.Rows[row][col]
}

// StringValue renders the cell at (row, col) as text: the dictionary
// entry for string/nominal columns, "?" for missing values.
func (d *Dataset) StringValue(row, col int) string {
	v := d.Rows[row][col]
	if math.IsNaN(v) {
		return "?"
	}
	attr := &d.Attributes[col]
	if attr.Type == Numeric {
		return ""
	}
	s, _ := attr.ValueOf(int(v))
	return s
}

// Structure returns a zero-row dataset sharing this dataset's schema
// and class designation. This is what the prediction path builds new
// records against.
func (d *Dataset) Structure() *Dataset {
	s := New(d.Attributes)
	s.ClassIndex = d.ClassIndex
	return s
}

// EqualSchema reports whether two datasets have identical schemas:
// same column count, names, types, dictionaries, and class index.
func (d *Dataset) EqualSchema(other *Dataset) bool {
	if len(d.Attributes) != len(other.Attributes) || d.ClassIndex != other.ClassIndex {
		return false
	}
	for i := range d.Attributes {
		if !d.Attributes[i].Equal(&other.Attributes[i]) {
			return false
		}
	}
	return true
}

// Matrices splits the dataset into a feature matrix X (class column
// excluded) and a label column vector y. It fails when no class column
// is designated or the dataset has no rows.
func (d *Dataset) Matrices() (X, y *mat.Dense, err error) {
	if d.ClassIndex < 0 {
		return nil, nil, errors.NewValueError("Dataset.Matrices", "no class column designated")
	}
	n := d.NumRows()
	if n == 0 {
		return nil, nil, errors.NewModelError("Dataset.Matrices", "empty dataset", errors.ErrEmptyData)
	}
	p := d.NumAttributes() - 1

	X = mat.NewDense(n, p, nil)
	y = mat.NewDense(n, 1, nil)
	for i, row := range d.Rows {
		k := 0
		for j, v := range row {
			if j == d.ClassIndex {
				y.Set(i, 0, v)
				continue
			}
			X.Set(i, k, v)
			k++
		}
	}
	return X, y, nil
}

// FeatureMatrix returns only the feature matrix for rows whose label is
// absent or irrelevant (prediction time).
func (d *Dataset) FeatureMatrix() (*mat.Dense, error) {
	if d.ClassIndex < 0 {
		return nil, errors.NewValueError("Dataset.FeatureMatrix", "no class column designated")
	}
	n := d.NumRows()
	if n == 0 {
		return nil, errors.NewModelError("Dataset.FeatureMatrix", "empty dataset", errors.ErrEmptyData)
	}
	p := d.NumAttributes() - 1

	X := mat.NewDense(n, p, nil)
	for i, row := range d.Rows {
		k := 0
		for j, v := range row {
			if j == d.ClassIndex {
				continue
			}
			X.Set(i, k, v)
			k++
		}
	}
	return X, nil
}

// FeatureIndexes maps feature-matrix column positions back to dataset
// column positions (the class column is skipped).
func (d *Dataset) FeatureIndexes() []int {
	idx := make([]int, 0, len(d.Attributes)-1)
	for j := range d.Attributes {
		if j == d.ClassIndex {
			continue
		}
		idx = append(idx, j)
	}
	return idx
}

// CategoricalFeatures returns the feature-matrix column positions of
// nominal columns. The classifier treats these as equality-split
// features rather than threshold features.
func (d *Dataset) CategoricalFeatures() []int {
	var cats []int
	k := 0
	for j := range d.Attributes {
		if j == d.ClassIndex {
			continue
		}
		if d.Attributes[j].Type == Nominal {
			cats = append(cats, k)
		}
		k++
	}
	return cats
}
