package dataset

import (
	"math"
	"testing"
)

func buildLabeled(t *testing.T) *Dataset {
	t.Helper()
	ds := New([]Attribute{
		NewNumericAttribute("amount"),
		NewNominalAttribute("category", []string{"es_food", "es_travel"}),
		NewNominalAttribute("fraud", []string{"0", "1"}),
	})
	if err := ds.SetClassIndex(2); err != nil {
		t.Fatal(err)
	}
	rows := [][]float64{
		{22.50, 0, 0},
		{834.76, 1, 1},
		{15.00, 0, 0},
	}
	for _, r := range rows {
		if err := ds.AppendRow(r); err != nil {
			t.Fatal(err)
		}
	}
	return ds
}

func TestDataset_Matrices(t *testing.T) {
	ds := buildLabeled(t)

	X, y, err := ds.Matrices()
	if err != nil {
		t.Fatalf("Matrices failed: %v", err)
	}

	r, c := X.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("X dims = (%d, %d), want (3, 2)", r, c)
	}
	if X.At(1, 0) != 834.76 || X.At(1, 1) != 1 {
		t.Errorf("X row 1 = (%v, %v), want (834.76, 1)", X.At(1, 0), X.At(1, 1))
	}
	if y.At(1, 0) != 1 {
		t.Errorf("y[1] = %v, want 1", y.At(1, 0))
	}
}

func TestDataset_Structure(t *testing.T) {
	ds := buildLabeled(t)

	s := ds.Structure()
	if s.NumRows() != 0 {
		t.Errorf("Structure should have zero rows, got %d", s.NumRows())
	}
	if !ds.EqualSchema(s) {
		t.Error("Structure schema should equal source schema")
	}

	// Mutating the structure's dictionaries must not leak back.
	s.Attributes[1].Values[0] = "mutated"
	if ds.Attributes[1].Values[0] != "es_food" {
		t.Error("Structure must deep-copy attribute dictionaries")
	}
}

func TestDataset_EqualSchema(t *testing.T) {
	ds := buildLabeled(t)

	other := buildLabeled(t)
	if !ds.EqualSchema(other) {
		t.Error("Identical schemas should compare equal")
	}

	other.Attributes[1].Values = []string{"es_travel", "es_food"} // reordered vocabulary
	if ds.EqualSchema(other) {
		t.Error("Reordered dictionary should not compare equal")
	}
}

func TestDataset_CategoricalFeatures(t *testing.T) {
	ds := buildLabeled(t)

	cats := ds.CategoricalFeatures()
	if len(cats) != 1 || cats[0] != 1 {
		t.Errorf("CategoricalFeatures = %v, want [1]", cats)
	}
}

func TestDataset_AppendRowMismatch(t *testing.T) {
	ds := buildLabeled(t)
	if err := ds.AppendRow([]float64{1, 2}); err == nil {
		t.Error("Expected error for short row")
	}
}

func TestAttribute_InternAndLookup(t *testing.T) {
	attr := NewStringAttribute("merchant")

	a := attr.Intern("M348934600")
	b := attr.Intern("M1053599405")
	if a != 0 || b != 1 {
		t.Errorf("Intern order = (%d, %d), want (0, 1)", a, b)
	}
	if got := attr.Intern("M348934600"); got != 0 {
		t.Errorf("Re-interning = %d, want 0", got)
	}
	if got := attr.IndexOf("unseen"); got != -1 {
		t.Errorf("IndexOf(unseen) = %d, want -1", got)
	}
}

func TestDataset_MissingValueRendering(t *testing.T) {
	ds := New([]Attribute{NewNumericAttribute("x")})
	if err := ds.AppendRow([]float64{math.NaN()}); err != nil {
		t.Fatal(err)
	}
	if got := ds.StringValue(0, 0); got != "?" {
		t.Errorf("StringValue for NaN = %q, want \"?\"", got)
	}
}
