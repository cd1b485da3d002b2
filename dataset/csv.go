package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

// CSVLoader reads a delimited text file with a header row into a
// Dataset. Column types are inferred per column: numeric when every
// non-empty value parses as a number, string otherwise. The last
// column is designated as the class column.
type CSVLoader struct {
	// Comma is the field delimiter (default ',').
	Comma rune
}

// NewCSVLoader creates a loader with the default comma delimiter.
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{Comma: ','}
}

// Load parses the file at path. It fails with a DataFormatError when
// the file is absent, empty, or has rows whose field count disagrees
// with the header.
func (l *CSVLoader) Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataFormatError("CSVLoader.Load", path, "file cannot be opened: "+err.Error())
	}
	defer file.Close()

	return l.Read(file, path)
}

// Read parses CSV content from r. The path argument is used only for
// error reporting and may be empty.
func (l *CSVLoader) Read(r io.Reader, path string) (*Dataset, error) {
	reader := csv.NewReader(r)
	if l.Comma != 0 {
		reader.Comma = l.Comma
	}
	// The csv package enforces a uniform field count against the first
	// record (the header).
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewDataFormatError("CSVLoader.Read", path, "malformed CSV: "+err.Error())
	}
	if len(records) == 0 {
		return nil, errors.NewDataFormatError("CSVLoader.Read", path, "file is empty")
	}
	header := records[0]
	body := records[1:]
	if len(body) == 0 {
		return nil, errors.NewDataFormatError("CSVLoader.Read", path, "no data rows after header")
	}

	// Per-column type inference over the full body.
	numeric := make([]bool, len(header))
	for j := range numeric {
		numeric[j] = true
	}
	for _, record := range body {
		for j, field := range record {
			if field == "" || !numeric[j] {
				continue
			}
			if _, perr := strconv.ParseFloat(field, 64); perr != nil {
				numeric[j] = false
			}
		}
	}

	attrs := make([]Attribute, len(header))
	for j, name := range header {
		if numeric[j] {
			attrs[j] = NewNumericAttribute(name)
		} else {
			attrs[j] = NewStringAttribute(name)
		}
	}

	ds := New(attrs)
	for i, record := range body {
		row := make([]float64, len(header))
		for j, field := range record {
			switch {
			case field == "":
				row[j] = math.NaN()
			case ds.Attributes[j].Type == Numeric:
				v, perr := strconv.ParseFloat(field, 64)
				if perr != nil {
					return nil, errors.NewDataFormatError("CSVLoader.Read", path,
						"row "+strconv.Itoa(i+1)+": invalid numeric value "+strconv.Quote(field))
				}
				row[j] = v
			default:
				row[j] = float64(ds.Attributes[j].Intern(field))
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	if err := ds.SetClassIndex(len(attrs) - 1); err != nil {
		return nil, err
	}
	return ds, nil
}
