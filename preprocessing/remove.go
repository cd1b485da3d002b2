package preprocessing

import (
	"log/slog"
	"strings"

	"github.com/akhilimadabathuni/FraudDetectionModel/dataset"
	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
	mllog "github.com/akhilimadabathuni/FraudDetectionModel/pkg/log"
)

// RemoveColumns drops a fixed set of columns given by a 1-based range
// specification against the raw schema, e.g. "2,5-7" for the identifier
// columns of the transaction data. Positions are resolved and validated
// once, at fit time; replaying on a dataset with a different column
// count fails rather than guessing.
type RemoveColumns struct {
	// Spec is the 1-based column range specification.
	Spec string

	// Positions are the resolved 0-based positions to drop.
	Positions []int

	// InputColumns is the column count of the fit-time schema.
	InputColumns int

	// RemovedNames records the names of the dropped columns, for
	// diagnostics.
	RemovedNames []string
}

// NewRemoveColumns creates the filter for a range specification.
func NewRemoveColumns(spec string) *RemoveColumns {
	return &RemoveColumns{Spec: spec}
}

// Name implements Filter.
func (r *RemoveColumns) Name() string { return "RemoveColumns" }

func (r *RemoveColumns) fitted() bool { return r.InputColumns > 0 }

// Fit resolves the range specification against the dataset's schema.
// A position beyond the actual column count is a fatal configuration
// error, as is removing the class column.
func (r *RemoveColumns) Fit(ds *dataset.Dataset) error {
	positions, err := parseRange(r.Spec, ds.NumAttributes())
	if err != nil {
		return err
	}

	names := make([]string, 0, len(positions))
	for _, pos := range positions {
		if pos == ds.ClassIndex {
			return errors.NewDataFormatError("RemoveColumns.Fit", "",
				"range "+r.Spec+" removes the class column "+ds.Attributes[pos].Name)
		}
		names = append(names, ds.Attributes[pos].Name)
	}

	r.Positions = positions
	r.InputColumns = ds.NumAttributes()
	r.RemovedNames = names

	slog.Debug("resolved removal columns",
		mllog.ModelNameKey, r.Name(),
		mllog.OperationKey, "fit",
		"spec", r.Spec,
		"removed", strings.Join(names, ","),
	)
	return nil
}

// Transform returns a copy of ds without the fitted columns.
func (r *RemoveColumns) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if !r.fitted() {
		return nil, errors.NewNotFittedError(r.Name(), "Transform")
	}
	if ds.NumAttributes() != r.InputColumns {
		return nil, errors.NewDimensionError(r.Name()+".Transform", r.InputColumns, ds.NumAttributes(), 1)
	}

	drop := make(map[int]bool, len(r.Positions))
	for _, pos := range r.Positions {
		drop[pos] = true
	}

	var attrs []dataset.Attribute
	newClass := -1
	for j := range ds.Attributes {
		if drop[j] {
			continue
		}
		if j == ds.ClassIndex {
			newClass = len(attrs)
		}
		attrs = append(attrs, ds.Attributes[j])
	}
	if ds.ClassIndex >= 0 && newClass == -1 {
		return nil, errors.NewDataFormatError(r.Name()+".Transform", "", "class column was removed")
	}

	out := dataset.New(attrs)
	out.ClassIndex = newClass
	for _, row := range ds.Rows {
		kept := make([]float64, 0, len(attrs))
		for j, v := range row {
			if drop[j] {
				continue
			}
			kept = append(kept, v)
		}
		out.Rows = append(out.Rows, kept)
	}
	return out, nil
}

// FitTransform implements Filter.
func (r *RemoveColumns) FitTransform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if err := r.Fit(ds); err != nil {
		return nil, err
	}
	return r.Transform(ds)
}
