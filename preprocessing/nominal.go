package preprocessing

import (
	"math"
	"sort"
	"strconv"

	"github.com/akhilimadabathuni/FraudDetectionModel/dataset"
	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

// StringToNominal converts free-text columns within a range
// specification to nominal columns. The category dictionary of each
// converted column is the set of distinct values observed at fit time,
// in order of first appearance; replaying the filter on later data maps
// values through that fitted dictionary, never through a refitted one.
// A value outside the fitted dictionary becomes a missing value and
// raises an UndefinedMetricWarning-style process warning.
type StringToNominal struct {
	// Spec is the 1-based column range specification ("first-last"
	// covers every column).
	Spec string

	// InputColumns is the column count of the fit-time schema.
	InputColumns int

	// Dictionaries maps converted column positions to their fitted
	// category dictionaries.
	Dictionaries map[int][]string

	// Names records the fit-time column names for schema validation.
	Names map[int]string
}

// NewStringToNominal creates the filter for a range specification.
func NewStringToNominal(spec string) *StringToNominal {
	return &StringToNominal{Spec: spec}
}

// Name implements Filter.
func (s *StringToNominal) Name() string { return "StringToNominal" }

func (s *StringToNominal) fitted() bool { return s.InputColumns > 0 }

// Fit captures the category dictionary of every string column covered
// by the range specification.
func (s *StringToNominal) Fit(ds *dataset.Dataset) error {
	positions, err := parseRange(s.Spec, ds.NumAttributes())
	if err != nil {
		return err
	}

	dicts := make(map[int][]string)
	names := make(map[int]string)
	for _, pos := range positions {
		attr := &ds.Attributes[pos]
		if attr.Type != dataset.String {
			continue
		}
		dicts[pos] = append([]string(nil), attr.Values...)
		names[pos] = attr.Name
	}

	s.InputColumns = ds.NumAttributes()
	s.Dictionaries = dicts
	s.Names = names
	return nil
}

// Transform converts the fitted columns of ds to nominal, mapping cell
// values through the fitted dictionaries.
func (s *StringToNominal) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if !s.fitted() {
		return nil, errors.NewNotFittedError(s.Name(), "Transform")
	}
	if ds.NumAttributes() != s.InputColumns {
		return nil, errors.NewDimensionError(s.Name()+".Transform", s.InputColumns, ds.NumAttributes(), 1)
	}

	attrs := make([]dataset.Attribute, ds.NumAttributes())
	for j := range ds.Attributes {
		dict, converted := s.Dictionaries[j]
		if !converted {
			attrs[j] = ds.Attributes[j]
			continue
		}
		if ds.Attributes[j].Name != s.Names[j] {
			return nil, errors.NewDataFormatError(s.Name()+".Transform", "",
				"column "+strconv.Itoa(j+1)+" is "+ds.Attributes[j].Name+", fitted on "+s.Names[j])
		}
		attrs[j] = dataset.NewNominalAttribute(ds.Attributes[j].Name, dict)
	}

	out := dataset.New(attrs)
	out.ClassIndex = ds.ClassIndex
	for i, row := range ds.Rows {
		mapped := make([]float64, len(row))
		copy(mapped, row)
		for j := range s.Dictionaries {
			v := row[j]
			if math.IsNaN(v) {
				continue
			}
			value := ds.StringValue(i, j)
			idx := out.Attributes[j].IndexOf(value)
			if idx < 0 {
				errors.Warn(errors.Newf("StringToNominal: value %q in column %s not in fitted dictionary, treating as missing",
					value, out.Attributes[j].Name))
				mapped[j] = math.NaN()
				continue
			}
			mapped[j] = float64(idx)
		}
		out.Rows = append(out.Rows, mapped)
	}
	return out, nil
}

// FitTransform implements Filter.
func (s *StringToNominal) FitTransform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if err := s.Fit(ds); err != nil {
		return nil, err
	}
	return s.Transform(ds)
}

// NumericToNominal converts numeric columns within a range
// specification to nominal columns whose dictionary holds the distinct
// observed values, sorted ascending and formatted minimally (so a
// binary 0/1 label becomes the stable dictionary ["0", "1"]). The
// classifier returns dictionary indices, so ordering must be identical
// across training and prediction runs; sorting makes it independent of
// row order.
type NumericToNominal struct {
	// Spec is the 1-based column range specification ("last" covers
	// only the label column).
	Spec string

	// InputColumns is the column count of the fit-time schema.
	InputColumns int

	// Dictionaries maps converted column positions to their fitted
	// category dictionaries.
	Dictionaries map[int][]string

	// Names records the fit-time column names for schema validation.
	Names map[int]string
}

// NewNumericToNominal creates the filter for a range specification.
func NewNumericToNominal(spec string) *NumericToNominal {
	return &NumericToNominal{Spec: spec}
}

// Name implements Filter.
func (n *NumericToNominal) Name() string { return "NumericToNominal" }

func (n *NumericToNominal) fitted() bool { return n.InputColumns > 0 }

// formatNumeric renders a numeric value the way it enters a nominal
// dictionary: minimal decimal representation.
func formatNumeric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Fit captures the sorted distinct values of every numeric column
// covered by the range specification.
func (n *NumericToNominal) Fit(ds *dataset.Dataset) error {
	positions, err := parseRange(n.Spec, ds.NumAttributes())
	if err != nil {
		return err
	}

	dicts := make(map[int][]string)
	names := make(map[int]string)
	for _, pos := range positions {
		attr := &ds.Attributes[pos]
		if attr.Type != dataset.Numeric {
			continue
		}

		distinct := make(map[float64]bool)
		for _, row := range ds.Rows {
			if !math.IsNaN(row[pos]) {
				distinct[row[pos]] = true
			}
		}
		values := make([]float64, 0, len(distinct))
		for v := range distinct {
			values = append(values, v)
		}
		sort.Float64s(values)

		dict := make([]string, len(values))
		for i, v := range values {
			dict[i] = formatNumeric(v)
		}
		dicts[pos] = dict
		names[pos] = attr.Name
	}

	n.InputColumns = ds.NumAttributes()
	n.Dictionaries = dicts
	n.Names = names
	return nil
}

// Transform converts the fitted columns of ds to nominal, mapping each
// numeric cell to its fitted dictionary index.
func (n *NumericToNominal) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if !n.fitted() {
		return nil, errors.NewNotFittedError(n.Name(), "Transform")
	}
	if ds.NumAttributes() != n.InputColumns {
		return nil, errors.NewDimensionError(n.Name()+".Transform", n.InputColumns, ds.NumAttributes(), 1)
	}

	attrs := make([]dataset.Attribute, ds.NumAttributes())
	for j := range ds.Attributes {
		dict, converted := n.Dictionaries[j]
		if !converted {
			attrs[j] = ds.Attributes[j]
			continue
		}
		if ds.Attributes[j].Name != n.Names[j] {
			return nil, errors.NewDataFormatError(n.Name()+".Transform", "",
				"column "+strconv.Itoa(j+1)+" is "+ds.Attributes[j].Name+", fitted on "+n.Names[j])
		}
		attrs[j] = dataset.NewNominalAttribute(ds.Attributes[j].Name, dict)
	}

	out := dataset.New(attrs)
	out.ClassIndex = ds.ClassIndex
	for _, row := range ds.Rows {
		mapped := make([]float64, len(row))
		copy(mapped, row)
		for j := range n.Dictionaries {
			v := row[j]
			if math.IsNaN(v) {
				continue
			}
			idx := out.Attributes[j].IndexOf(formatNumeric(v))
			if idx < 0 {
				errors.Warn(errors.Newf("NumericToNominal: value %v in column %s not in fitted dictionary, treating as missing",
					v, out.Attributes[j].Name))
				mapped[j] = math.NaN()
				continue
			}
			mapped[j] = float64(idx)
		}
		out.Rows = append(out.Rows, mapped)
	}
	return out, nil
}

// FitTransform implements Filter.
func (n *NumericToNominal) FitTransform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if err := n.Fit(ds); err != nil {
		return nil, err
	}
	return n.Transform(ds)
}
