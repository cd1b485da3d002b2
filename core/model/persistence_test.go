package model

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

type stubModel struct {
	Name    string
	Weights []float64
}

func TestSaveLoadModel_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stub.model")

	original := &stubModel{Name: "stub", Weights: []float64{0.5, -1.25, 3}}
	if err := SaveModel(original, path); err != nil {
		t.Fatalf("SaveModel failed: %v", err)
	}

	var loaded stubModel
	if err := LoadModel(&loaded, path); err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}

	if loaded.Name != original.Name {
		t.Errorf("Name = %v, want %v", loaded.Name, original.Name)
	}
	if len(loaded.Weights) != len(original.Weights) {
		t.Fatalf("Weights length = %d, want %d", len(loaded.Weights), len(original.Weights))
	}
	for i, w := range original.Weights {
		if loaded.Weights[i] != w {
			t.Errorf("Weights[%d] = %v, want %v", i, loaded.Weights[i], w)
		}
	}
}

func TestLoadModel_Missing(t *testing.T) {
	var m stubModel
	err := LoadModel(&m, filepath.Join(t.TempDir(), "no_such.model"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}

	var stErr *errors.StorageError
	if !errors.As(err, &stErr) {
		t.Fatalf("Expected *StorageError, got %T: %v", err, err)
	}
	if stErr.Kind != errors.StorageMissing {
		t.Errorf("Kind = %v, want %v", stErr.Kind, errors.StorageMissing)
	}
}

func TestLoadModel_WrongFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.model")
	if err := os.WriteFile(path, []byte("this is not a model container"), 0o644); err != nil {
		t.Fatal(err)
	}

	var m stubModel
	err := LoadModel(&m, path)
	if err == nil {
		t.Fatal("Expected error for non-container file")
	}

	var stErr *errors.StorageError
	if !errors.As(err, &stErr) {
		t.Fatalf("Expected *StorageError, got %T: %v", err, err)
	}
	if stErr.Kind != errors.StorageWrongFormat {
		t.Errorf("Kind = %v, want %v", stErr.Kind, errors.StorageWrongFormat)
	}
}

func TestLoadModel_UnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(containerTag[:])
	if err := binary.Write(&buf, binary.BigEndian, uint32(99)); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "future.model")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	var m stubModel
	err := LoadModel(&m, path)
	var stErr *errors.StorageError
	if !errors.As(err, &stErr) {
		t.Fatalf("Expected *StorageError, got %T: %v", err, err)
	}
	if stErr.Kind != errors.StorageWrongFormat {
		t.Errorf("Kind = %v, want %v", stErr.Kind, errors.StorageWrongFormat)
	}
}

func TestLoadModel_CorruptPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteModel(&stubModel{Name: "x"}, &buf); err != nil {
		t.Fatal(err)
	}
	// Chop the gob payload mid-stream, keeping the header intact.
	truncated := buf.Bytes()[:buf.Len()-3]

	path := filepath.Join(t.TempDir(), "torn.model")
	if err := os.WriteFile(path, truncated, 0o644); err != nil {
		t.Fatal(err)
	}

	var m stubModel
	err := LoadModel(&m, path)
	if err == nil {
		t.Fatal("Expected error for truncated payload")
	}

	var stErr *errors.StorageError
	if !errors.As(err, &stErr) {
		t.Fatalf("Expected *StorageError, got %T: %v", err, err)
	}
	if stErr.Kind != errors.StorageCorrupt {
		t.Errorf("Kind = %v, want %v", stErr.Kind, errors.StorageCorrupt)
	}
}
