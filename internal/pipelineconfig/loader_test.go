package pipelineconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocateModuleDirLayer(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pipeline.yaml"), "appName: demo\n")

	got, err := Locate(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "pipeline.yaml"), got)
}

func TestLocateConfigSubdirLayer(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config", "orders-canvas-config.yaml"), "appName: demo\n")

	got, err := Locate(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "config", "orders-canvas-config.yaml"), got)
}

func TestLocateAmbiguous(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pipeline.yaml"), "appName: demo\n")
	writeFile(t, filepath.Join(dir, "pipeline.yml"), "appName: demo\n")

	_, err := Locate(dir)
	require.ErrorIs(t, err, ErrAmbiguous)
}

func TestLocateNoneFound(t *testing.T) {
	dir := t.TempDir()
	got, err := Locate(dir)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestIsAcceptedFilename(t *testing.T) {
	require.True(t, isAcceptedFilename("pipeline.yaml"))
	require.True(t, isAcceptedFilename("orders-canvas-config.yaml"))
	require.False(t, isAcceptedFilename("random.yaml"))
}

func TestLoadParsesSteps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	writeFile(t, path, `
appName: demo
steps:
  - name: fetchOrder
    inputType: OrderId
    outputType: OrderDto
    cardinality: ONE_ONE
    service: com.example.OrderService
`)

	file, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "demo", file.AppName)
	require.Len(t, file.Steps, 1)
	require.Equal(t, "fetchOrder", file.Steps[0].Name)
}

func TestLoadRejectsStepMissingRequiredFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	writeFile(t, path, `
appName: demo
steps:
  - inputType: OrderId
    outputType: OrderDto
    service: com.example.OrderService
`)

	_, err := Load(path)
	require.Error(t, err)
}
