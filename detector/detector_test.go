package detector

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/akhilimadabathuni/FraudDetectionModel/dataset"
	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
	"github.com/akhilimadabathuni/FraudDetectionModel/tree"
)

const trainingCSV = `step,customer,age,gender,zipcodeOri,merchant,zipMerchant,category,amount,fraud
1,C1000,4,M,28007,M348934600,28007,es_transportation,26.89,0
2,C1001,2,F,28007,M348934600,28007,es_transportation,14.52,0
5,C1002,3,F,28007,M348934600,28007,es_transportation,35.72,0
9,C1003,5,M,28007,M348934600,28007,es_transportation,10.35,0
12,C1004,1,F,28007,M348934600,28007,es_transportation,22.18,0
20,C1005,4,M,28007,M348934600,28007,es_transportation,31.47,0
33,C1006,2,F,28007,M348934600,28007,es_transportation,18.90,0
47,C1007,3,M,28007,M348934600,28007,es_transportation,27.63,0
58,C1008,5,F,28007,M348934600,28007,es_transportation,12.05,0
71,C1009,2,M,28007,M348934600,28007,es_transportation,39.84,0
90,C1010,3,F,28007,M980657600,28007,es_food,41.22,0
95,C1011,4,M,28007,M980657600,28007,es_food,58.10,0
110,C1012,1,F,28007,M980657600,28007,es_food,22.50,0
125,C1013,5,M,28007,M980657600,28007,es_food,36.77,0
140,C1014,3,F,28007,M1053599405,28007,es_travel,61.30,0
155,C1015,2,M,28007,M1053599405,28007,es_travel,84.95,0
160,C1016,4,F,28007,M1053599405,28007,es_travel,834.76,1
170,C1017,3,M,28007,M1053599405,28007,es_travel,1200.00,1
180,C1018,5,F,28007,M1053599405,28007,es_travel,922.15,1
190,C1019,2,M,28007,M1053599405,28007,es_travel,655.40,1
`

func writeTrainingCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(trainingCSV), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func trainedDetector(t *testing.T) *Detector {
	t.Helper()
	d := New()
	if err := d.TrainCSV(writeTrainingCSV(t)); err != nil {
		t.Fatalf("TrainCSV failed: %v", err)
	}
	return d
}

func TestDetector_Train(t *testing.T) {
	d := trainedDetector(t)

	if !d.Tree.IsFitted() {
		t.Fatal("Tree should be fitted after training")
	}

	// The pipeline drops customer, zipcodeOri, merchant and zipMerchant
	want := []string{"step", "age", "gender", "category", "amount", "fraud"}
	if len(d.Schema.Attributes) != len(want) {
		t.Fatalf("Expected %d schema columns, got %d", len(want), len(d.Schema.Attributes))
	}
	for i, name := range want {
		if d.Schema.Attributes[i].Name != name {
			t.Errorf("Column %d: expected %q, got %q", i, name, d.Schema.Attributes[i].Name)
		}
	}

	classValues, err := d.ClassValues()
	if err != nil {
		t.Fatalf("ClassValues failed: %v", err)
	}
	if !reflect.DeepEqual(classValues, []string{"0", "1"}) {
		t.Errorf("Expected class dictionary [0 1], got %v", classValues)
	}
}

func TestDetector_Train_MissingLabel(t *testing.T) {
	// The last row has an empty fraud cell, which loads as a missing
	// value. Training must reject it rather than grow a phantom class.
	csv := `step,customer,age,gender,zipcodeOri,merchant,zipMerchant,category,amount,fraud
1,C1000,4,M,28007,M348934600,28007,es_transportation,26.89,0
2,C1001,2,F,28007,M1053599405,28007,es_travel,834.76,1
5,C1002,3,F,28007,M348934600,28007,es_transportation,14.52,0
9,C1003,5,M,28007,M1053599405,28007,es_travel,922.15,1
12,C1004,1,F,28007,M348934600,28007,es_transportation,35.72,
`
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	d := New()
	err := d.TrainCSV(path)
	if err == nil {
		t.Fatal("TrainCSV should fail when a row has no class value")
	}
	if !strings.Contains(err.Error(), "missing label") {
		t.Errorf("Expected a missing-label error, got: %v", err)
	}
	if d.Tree != nil {
		t.Error("Detector must not keep a tree after a failed training run")
	}
}

func TestDetector_Classify(t *testing.T) {
	d := trainedDetector(t)

	fraud, err := d.Classify(Transaction{
		"step": "180", "age": "3", "gender": "F",
		"category": "es_travel", "amount": "800.0",
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if fraud.Verdict != VerdictFraud {
		t.Errorf("High-value travel transaction should be %s, got %s", VerdictFraud, fraud.Verdict)
	}
	if fraud.Label != "1" {
		t.Errorf("Expected label 1, got %s", fraud.Label)
	}

	legit, err := d.Classify(Transaction{
		"step": "42", "age": "2", "gender": "M",
		"category": "es_transportation", "amount": "25.0",
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if legit.Verdict != VerdictLegit {
		t.Errorf("Small transportation transaction should be %s, got %s", VerdictLegit, legit.Verdict)
	}
	if len(legit.Proba) != 2 {
		t.Errorf("Expected 2-class distribution, got %v", legit.Proba)
	}
}

func TestDetector_Classify_MissingAndUnseen(t *testing.T) {
	d := trainedDetector(t)

	var warned int
	errors.SetWarningHandler(func(error) { warned++ })
	defer errors.SetWarningHandler(func(error) {})

	// Unseen category value maps to missing and still classifies
	pred, err := d.Classify(Transaction{
		"step": "10", "age": "3", "gender": "F",
		"category": "es_piracy", "amount": "20.0",
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if pred.Verdict != VerdictFraud && pred.Verdict != VerdictLegit {
		t.Errorf("Expected a verdict, got %q", pred.Verdict)
	}
	if warned == 0 {
		t.Error("Expected a warning for the unseen category value")
	}

	// Absent attributes are treated as missing
	if _, err := d.Classify(Transaction{"amount": "30.0"}); err != nil {
		t.Errorf("Sparse transaction should classify, got %v", err)
	}

	// Unknown attribute names are rejected
	if _, err := d.Classify(Transaction{"merchant": "M348934600"}); err == nil {
		t.Error("Expected error for an attribute the pipeline removed")
	}

	// Non-numeric text in a numeric attribute is rejected
	if _, err := d.Classify(Transaction{"amount": "lots"}); err == nil {
		t.Error("Expected error for a malformed numeric value")
	}
}

func TestDetector_Evaluate(t *testing.T) {
	d := trainedDetector(t)

	report, err := d.Evaluate(5, 1)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(report.FoldAccuracies) != 5 {
		t.Fatalf("Expected 5 folds, got %d", len(report.FoldAccuracies))
	}
	if report.Total != 20 {
		t.Errorf("Expected 20 instances, got %d", report.Total)
	}
	if len(report.Matrix.Classes) != 2 {
		t.Errorf("Expected a 2x2 confusion matrix, got classes %v", report.Matrix.Classes)
	}

	// Same seed reproduces the report exactly
	again, err := d.Evaluate(5, 1)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !reflect.DeepEqual(report.FoldAccuracies, again.FoldAccuracies) {
		t.Error("Same seed should reproduce fold accuracies")
	}
	if !reflect.DeepEqual(report.Matrix.Counts, again.Matrix.Counts) {
		t.Error("Same seed should reproduce the confusion matrix")
	}

	untrained := New()
	if _, err := untrained.Evaluate(5, 1); err == nil {
		t.Error("Evaluate before training should fail")
	}
}

func TestDetector_SaveLoad(t *testing.T) {
	d := trainedDetector(t)
	path := filepath.Join(t.TempDir(), "fraud_detector.model")

	if err := d.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !loaded.Schema.EqualSchema(d.Schema) {
		t.Error("Loaded schema differs from the saved one")
	}

	// The reloaded detector must classify exactly like the original
	txs := []Transaction{
		{"step": "180", "age": "3", "gender": "F", "category": "es_travel", "amount": "800.0"},
		{"step": "42", "age": "2", "gender": "M", "category": "es_transportation", "amount": "25.0"},
		{"step": "110", "age": "1", "gender": "F", "category": "es_food", "amount": "22.50"},
	}
	orig, err := d.PredictBatch(txs)
	if err != nil {
		t.Fatalf("PredictBatch failed: %v", err)
	}
	restored, err := loaded.PredictBatch(txs)
	if err != nil {
		t.Fatalf("PredictBatch on loaded detector failed: %v", err)
	}
	for i := range orig {
		if orig[i].Verdict != restored[i].Verdict {
			t.Errorf("Transaction %d: original %s, restored %s",
				i, orig[i].Verdict, restored[i].Verdict)
		}
	}

	// Evaluate needs training data, which is not persisted
	if _, err := loaded.Evaluate(5, 1); err == nil {
		t.Error("Evaluate on a loaded detector should fail")
	}
}

func TestDetector_Load_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "nope.model"))
	var storageErr *errors.StorageError
	if !errors.As(err, &storageErr) || storageErr.Kind != errors.StorageMissing {
		t.Errorf("Expected a missing-file storage error, got %v", err)
	}

	garbage := filepath.Join(dir, "garbage.model")
	if err := os.WriteFile(garbage, []byte("this is not a model file"), 0o644); err != nil {
		t.Fatalf("Failed to write garbage file: %v", err)
	}
	_, err = Load(garbage)
	if !errors.As(err, &storageErr) || storageErr.Kind != errors.StorageWrongFormat {
		t.Errorf("Expected a wrong-format storage error, got %v", err)
	}

	untrained := New()
	if err := untrained.Save(filepath.Join(dir, "x.model")); err == nil {
		t.Error("Save before training should fail")
	}
}

func TestDetector_PredictDataset(t *testing.T) {
	d := trainedDetector(t)

	// Replaying the training file must reproduce its labels
	raw, err := dataset.NewCSVLoader().Load(writeTrainingCSV(t))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	preds, err := d.PredictDataset(raw)
	if err != nil {
		t.Fatalf("PredictDataset failed: %v", err)
	}
	if len(preds) != 20 {
		t.Fatalf("Expected 20 predictions, got %d", len(preds))
	}
	correct := 0
	for i, p := range preds {
		want := strconv.FormatFloat(raw.Value(i, raw.ClassIndex), 'f', -1, 64)
		if p.Label == want {
			correct++
		}
	}
	if correct != 20 {
		t.Errorf("Expected all training rows reproduced, got %d/20", correct)
	}
}

func TestDetector_TreeDump(t *testing.T) {
	d := trainedDetector(t)

	dump, err := d.DumpTree()
	if err != nil {
		t.Fatalf("DumpTree failed: %v", err)
	}
	if !strings.Contains(dump, "Number of Leaves") {
		t.Errorf("Dump missing footer:\n%s", dump)
	}
	// Splits print schema attribute names, not indices
	named := false
	for _, name := range []string{"amount", "category", "step", "age", "gender"} {
		if strings.Contains(dump, name) {
			named = true
		}
	}
	if !named {
		t.Errorf("Dump should reference attribute names:\n%s", dump)
	}

	if _, err := New().DumpTree(); err == nil {
		t.Error("DumpTree before training should fail")
	}
}

func TestDetector_TreeOptions(t *testing.T) {
	d := New(WithTreeOptions(tree.WithMaxDepth(1), tree.WithCriterion("entropy")))
	if err := d.TrainCSV(writeTrainingCSV(t)); err != nil {
		t.Fatalf("TrainCSV failed: %v", err)
	}
	if depth := d.Tree.GetDepth(); depth > 1 {
		t.Errorf("max_depth=1 violated: depth %d", depth)
	}
	if d.Tree.GetParams()["criterion"] != "entropy" {
		t.Errorf("Criterion option not applied: %v", d.Tree.GetParams())
	}
}
