// Package preprocessing provides the column filters applied between
// loading a transaction dataset and fitting the classifier. Filters are
// fitted once, on the training data; their captured parameters are then
// replayed on any later dataset, so prediction-time inputs always see
// the training-time column structure and category dictionaries.
package preprocessing

import (
	"encoding/gob"
	"strconv"
	"strings"

	"github.com/akhilimadabathuni/FraudDetectionModel/dataset"
	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

// Filter is one reversible column transform.
type Filter interface {
	// Fit captures the filter's parameters from a dataset.
	Fit(ds *dataset.Dataset) error

	// Transform applies the captured parameters to a dataset and
	// returns the transformed copy. The input is not modified.
	Transform(ds *dataset.Dataset) (*dataset.Dataset, error)

	// FitTransform fits on ds and transforms it in one step.
	FitTransform(ds *dataset.Dataset) (*dataset.Dataset, error)

	// Name identifies the filter in errors and logs.
	Name() string
}

func init() {
	// The pipeline gob-encodes its filters through the Filter
	// interface; the concrete types must be registered.
	gob.Register(&RemoveColumns{})
	gob.Register(&StringToNominal{})
	gob.Register(&NumericToNominal{})
}

// Pipeline is an ordered list of filters fitted and replayed as a unit.
type Pipeline struct {
	Filters []Filter
}

// NewPipeline creates a pipeline over the given filters, applied in order.
func NewPipeline(filters ...Filter) *Pipeline {
	return &Pipeline{Filters: filters}
}

// NewFraudPipeline builds the fixed filter chain for the transaction
// workflow: drop the identifier columns (customer id, origin zip,
// merchant id, merchant zip at 1-based positions 2, 5, 6, 7), convert
// remaining free-text columns to nominal, then convert the numeric
// label column to nominal.
func NewFraudPipeline() *Pipeline {
	return NewPipeline(
		NewRemoveColumns("2,5-7"),
		NewStringToNominal("first-last"),
		NewNumericToNominal("last"),
	)
}

// FitTransform fits each filter in order, feeding it the output of the
// previous one, and returns the fully transformed dataset.
func (p *Pipeline) FitTransform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	current := ds
	for _, f := range p.Filters {
		out, err := f.FitTransform(current)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline filter %s", f.Name())
		}
		current = out
	}
	return current, nil
}

// Transform replays the fitted parameters of every filter, in order,
// without refitting. Prediction-time data goes through here so the
// training-time dictionaries are reused exactly.
func (p *Pipeline) Transform(ds *dataset.Dataset) (*dataset.Dataset, error) {
	current := ds
	for _, f := range p.Filters {
		out, err := f.Transform(current)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline filter %s", f.Name())
		}
		current = out
	}
	return current, nil
}

// TransformStructure replays the fitted filters against a zero-row copy
// of ds, yielding the post-pipeline schema without touching any data.
func (p *Pipeline) TransformStructure(ds *dataset.Dataset) (*dataset.Dataset, error) {
	return p.Transform(ds.Structure())
}

// parseRange parses a 1-based column range specification
// such as "2,5-7", "first-last" or "last" against a schema of n
// columns, returning sorted unique 0-based positions.
func parseRange(spec string, n int) ([]int, error) {
	resolve := func(token string) (int, error) {
		switch token {
		case "first":
			return 1, nil
		case "last":
			return n, nil
		default:
			v, err := strconv.Atoi(token)
			if err != nil {
				return 0, errors.NewValidationError("range", "invalid column token", token)
			}
			return v, nil
		}
	}

	seen := make(map[int]bool)
	var positions []int
	add := func(pos int) error {
		if pos < 1 || pos > n {
			return errors.NewDataFormatError("parseRange", "",
				"position "+strconv.Itoa(pos)+" out of range for "+strconv.Itoa(n)+" columns")
		}
		if !seen[pos-1] {
			seen[pos-1] = true
			positions = append(positions, pos-1)
		}
		return nil
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, "-"); idx > 0 {
			lo, err := resolve(part[:idx])
			if err != nil {
				return nil, err
			}
			hi, err := resolve(part[idx+1:])
			if err != nil {
				return nil, err
			}
			if lo > hi {
				return nil, errors.NewValidationError("range", "descending range", part)
			}
			for pos := lo; pos <= hi; pos++ {
				if err := add(pos); err != nil {
					return nil, err
				}
			}
			continue
		}
		pos, err := resolve(part)
		if err != nil {
			return nil, err
		}
		if err := add(pos); err != nil {
			return nil, err
		}
	}

	if len(positions) == 0 {
		return nil, errors.NewValidationError("range", "empty range specification", spec)
	}

	// Insertion kept them unique; ranges and tokens may interleave, so sort.
	for i := 1; i < len(positions); i++ {
		for j := i; j > 0 && positions[j-1] > positions[j]; j-- {
			positions[j-1], positions[j] = positions[j], positions[j-1]
		}
	}
	return positions, nil
}
