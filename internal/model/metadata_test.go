package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMetadata(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const validMetadata = `{
	"input_shape": [1, 3, 224, 224],
	"output_shape": [1, 3],
	"classes": ["beagle", "pug", "corgi"],
	"image_size": 224,
	"architecture": "resnet34",
	"accuracy": 0.93
}`

func TestLoadMetadataFromStemSidecar(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "pets.onnx")
	writeMetadata(t, filepath.Join(dir, "pets.json"), validMetadata)

	meta, err := LoadMetadata(modelPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"beagle", "pug", "corgi"}, meta.Classes)
	assert.Equal(t, 224, meta.ImageSize)
	assert.Equal(t, "resnet34", meta.Architecture)
	assert.InDelta(t, 0.93, meta.Accuracy, 1e-9)
}

func TestLoadMetadataFallsBackToMetadataSuffix(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "pets.onnx")
	writeMetadata(t, filepath.Join(dir, "pets_metadata.json"), validMetadata)

	meta, err := LoadMetadata(modelPath)
	require.NoError(t, err)
	assert.Len(t, meta.Classes, 3)
}

func TestLoadMetadataMissingSidecar(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "pets.onnx")

	_, err := LoadMetadata(modelPath)
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestLoadMetadataRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"broken json", `{"classes": [`},
		{"no classes", `{"input_shape": [1], "output_shape": [1], "image_size": 224, "classes": []}`},
		{"no shapes", `{"classes": ["a"], "image_size": 224}`},
		{"bad image size", `{"input_shape": [1], "output_shape": [1], "classes": ["a"], "image_size": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			modelPath := filepath.Join(dir, "pets.onnx")
			writeMetadata(t, filepath.Join(dir, "pets.json"), tt.content)

			_, err := LoadMetadata(modelPath)
			assert.ErrorIs(t, err, ErrModelLoad)
		})
	}
}
