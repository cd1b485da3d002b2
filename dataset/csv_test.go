package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

const sampleCSV = `step,customer,age,gender,zipcodeOri,merchant,zipMerchant,category,amount,fraud
1,C1093826151,4,M,28007,M348934600,28007,es_transportation,4.55,0
1,C352968107,2,F,28007,M348934600,28007,es_transportation,39.68,0
180,C1093826151,3,M,28007,M1053599405,28007,es_travel,834.76,1
180,C352968107,4,M,28007,M348934600,28007,es_food,22.50,0
`

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCSVLoader_Load(t *testing.T) {
	ds, err := NewCSVLoader().Load(writeTempCSV(t, sampleCSV))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if ds.NumAttributes() != 10 {
		t.Fatalf("NumAttributes = %d, want 10", ds.NumAttributes())
	}
	if ds.NumRows() != 4 {
		t.Fatalf("NumRows = %d, want 4", ds.NumRows())
	}
	if ds.ClassIndex != 9 {
		t.Errorf("ClassIndex = %d, want 9 (last column)", ds.ClassIndex)
	}

	wantTypes := map[string]AttributeType{
		"step":     Numeric,
		"customer": String,
		"age":      Numeric,
		"gender":   String,
		"category": String,
		"amount":   Numeric,
		"fraud":    Numeric,
	}
	for name, wantType := range wantTypes {
		found := false
		for i := range ds.Attributes {
			if ds.Attributes[i].Name == name {
				found = true
				if ds.Attributes[i].Type != wantType {
					t.Errorf("attribute %s: type = %v, want %v", name, ds.Attributes[i].Type, wantType)
				}
			}
		}
		if !found {
			t.Errorf("attribute %s missing from schema", name)
		}
	}

	// String dictionaries intern values in order of appearance.
	var category *Attribute
	for i := range ds.Attributes {
		if ds.Attributes[i].Name == "category" {
			category = &ds.Attributes[i]
		}
	}
	want := []string{"es_transportation", "es_travel", "es_food"}
	if len(category.Values) != len(want) {
		t.Fatalf("category dictionary = %v, want %v", category.Values, want)
	}
	for i, v := range want {
		if category.Values[i] != v {
			t.Errorf("category dictionary[%d] = %v, want %v", i, category.Values[i], v)
		}
	}

	if got := ds.StringValue(2, 7); got != "es_travel" {
		t.Errorf("StringValue(2, category) = %v, want es_travel", got)
	}
	if got := ds.Value(2, 8); got != 834.76 {
		t.Errorf("Value(2, amount) = %v, want 834.76", got)
	}
}

func TestCSVLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "header only", content: "a,b,c\n"},
		{name: "ragged row", content: "a,b,c\n1,2,3\n4,5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVLoader().Load(writeTempCSV(t, tt.content))
			if err == nil {
				t.Fatal("Expected error")
			}
			var dfErr *errors.DataFormatError
			if !errors.As(err, &dfErr) {
				t.Errorf("Expected *DataFormatError, got %T: %v", err, err)
			}
		})
	}
}

func TestCSVLoader_MissingFile(t *testing.T) {
	_, err := NewCSVLoader().Load(filepath.Join(t.TempDir(), "no_such_file.csv"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	var dfErr *errors.DataFormatError
	if !errors.As(err, &dfErr) {
		t.Errorf("Expected *DataFormatError, got %T: %v", err, err)
	}
}

func TestCSVLoader_MissingValues(t *testing.T) {
	content := "x,label\n,0\n2.5,1\n"
	ds, err := NewCSVLoader().Read(strings.NewReader(content), "")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := ds.StringValue(0, 0); got != "?" {
		t.Errorf("missing cell renders as %q, want \"?\"", got)
	}
	if ds.Attributes[0].Type != Numeric {
		t.Errorf("column with empty cells should still infer numeric, got %v", ds.Attributes[0].Type)
	}
}
