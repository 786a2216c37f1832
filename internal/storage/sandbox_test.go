package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteRoundTrip(t *testing.T) {
	sb, err := NewSandbox(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, sb.AtomicWrite("metadata/order.json", []byte(`["A","B"]`)))

	data, err := sb.ReadFile("metadata/order.json")
	require.NoError(t, err)
	assert.Equal(t, `["A","B"]`, string(data))

	ok, err := sb.Exists("metadata/order.json")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	sb, err := NewSandbox(dir)
	require.NoError(t, err)

	require.NoError(t, sb.AtomicWrite("clients.properties", []byte("a=b\n")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "clients.properties", entries[0].Name())
}

func TestAtomicWriteOverwrites(t *testing.T) {
	sb, err := NewSandbox(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, sb.AtomicWrite("telemetry.json", []byte("v1")))
	require.NoError(t, sb.AtomicWrite("telemetry.json", []byte("v2")))

	data, err := sb.ReadFile("telemetry.json")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestEscapingPathsRejected(t *testing.T) {
	sb, err := NewSandbox(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, sb.AtomicWrite("../outside.txt", []byte("x")))
	assert.Error(t, sb.AtomicWrite("a/../../outside.txt", []byte("x")))
	assert.Error(t, sb.AtomicWrite(string(filepath.Separator)+"abs.txt", []byte("x")))

	_, err = sb.ReadFile("../secret")
	assert.Error(t, err)
}

func TestDotDotInsideRootAllowed(t *testing.T) {
	sb, err := NewSandbox(t.TempDir())
	require.NoError(t, err)

	// Collapses to gen/b.txt, still inside the root.
	require.NoError(t, sb.AtomicWrite("gen/a/../b.txt", []byte("x")))

	ok, err := sb.Exists("gen/b.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExistsMissing(t *testing.T) {
	sb, err := NewSandbox(t.TempDir())
	require.NoError(t, err)

	ok, err := sb.Exists("nope.json")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewSandboxCreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "module-a")
	sb, err := NewSandbox(dir)
	require.NoError(t, err)

	info, err := os.Stat(sb.BaseDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
