package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MetadataPath resolves the sidecar JSON for a model file. Tries
// <stem>.json first, then <stem>_metadata.json.
func MetadataPath(modelPath string) string {
	stem := strings.TrimSuffix(modelPath, filepath.Ext(modelPath))
	primary := stem + ".json"
	if _, err := os.Stat(primary); err == nil {
		return primary
	}
	return stem + "_metadata.json"
}

// LoadMetadata reads and validates the metadata sidecar for a model.
func LoadMetadata(modelPath string) (Metadata, error) {
	metadataPath := MetadataPath(modelPath)

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: reading metadata %s: %v", ErrModelLoad, metadataPath, err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: parsing metadata %s: %v", ErrModelLoad, metadataPath, err)
	}

	if len(meta.Classes) == 0 {
		return Metadata{}, fmt.Errorf("%w: metadata %s lists no classes", ErrModelLoad, metadataPath)
	}
	if len(meta.InputShape) == 0 || len(meta.OutputShape) == 0 {
		return Metadata{}, fmt.Errorf("%w: metadata %s missing tensor shapes", ErrModelLoad, metadataPath)
	}
	if meta.ImageSize <= 0 {
		return Metadata{}, fmt.Errorf("%w: metadata %s has invalid image_size %d", ErrModelLoad, metadataPath, meta.ImageSize)
	}

	return meta, nil
}
