package model

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"os"

	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
)

// Persisted models are framed in a small versioned container so a load
// failure can distinguish "not a model file" from "model file damaged":
//
//	[4]byte magic tag | uint32 big-endian version | gob payload
//
// The payload itself is opaque gob, matching whatever type the caller
// passes to LoadModel.
var containerTag = [4]byte{'F', 'D', 'M', 'C'}

// ContainerVersion is the current container format version.
const ContainerVersion uint32 = 1

// SaveModel writes a model to a file inside the versioned container.
//
// Example:
//
//	var det detector.Detector
//	// ... fit ...
//	err := model.SaveModel(&det, "fraud_detector.model")
func SaveModel(m interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create model file %s", filename)
	}
	defer file.Close()

	if err := WriteModel(m, file); err != nil {
		return errors.Wrapf(err, "failed to write model file %s", filename)
	}
	return nil
}

// LoadModel reads a model previously written by SaveModel into m, which
// must be a pointer to the same concrete type. It fails with a
// StorageError whose kind reports whether the file was missing, not a
// model container, written by an unsupported version, or corrupt.
func LoadModel(m interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewStorageError("LoadModel", filename, errors.StorageMissing, err)
		}
		return errors.NewStorageError("LoadModel", filename, errors.StorageCorrupt, err)
	}
	defer file.Close()

	if err := ReadModel(m, file); err != nil {
		var stErr *errors.StorageError
		if errors.As(err, &stErr) {
			// Re-wrap with the file path attached.
			return errors.NewStorageError("LoadModel", filename, stErr.Kind, stErr.Err)
		}
		return errors.NewStorageError("LoadModel", filename, errors.StorageCorrupt, err)
	}
	return nil
}

// WriteModel writes the container frame and gob payload to w.
func WriteModel(m interface{}, w io.Writer) error {
	if _, err := w.Write(containerTag[:]); err != nil {
		return errors.Wrap(err, "failed to write container tag")
	}
	if err := binary.Write(w, binary.BigEndian, ContainerVersion); err != nil {
		return errors.Wrap(err, "failed to write container version")
	}

	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// ReadModel reads a container frame and gob payload from r into m.
func ReadModel(m interface{}, r io.Reader) error {
	var tag [4]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return errors.NewStorageError("ReadModel", "", errors.StorageWrongFormat,
			errors.Wrap(err, "missing container tag"))
	}
	if !bytes.Equal(tag[:], containerTag[:]) {
		return errors.NewStorageError("ReadModel", "", errors.StorageWrongFormat,
			errors.Newf("not a model container (tag %q)", tag))
	}

	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return errors.NewStorageError("ReadModel", "", errors.StorageWrongFormat,
			errors.Wrap(err, "missing container version"))
	}
	if version != ContainerVersion {
		return errors.NewStorageError("ReadModel", "", errors.StorageWrongFormat,
			errors.Newf("unsupported container version %d (supported: %d)", version, ContainerVersion))
	}

	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(m); err != nil {
		return errors.NewStorageError("ReadModel", "", errors.StorageCorrupt, err)
	}
	return nil
}
