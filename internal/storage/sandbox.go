// Package storage confines generated-artifact writes to a module's
// output directory. The Generation and Infrastructure phases hand it
// relative artifact paths (generated source, order.json,
// telemetry.json, clients.properties); anything resolving outside the
// root is rejected rather than written.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sandbox is a root-confined artifact writer.
type Sandbox struct {
	root string
}

// NewSandbox roots a Sandbox at dir, creating it when absent.
func NewSandbox(dir string) (*Sandbox, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolving %s: %w", dir, err)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("storage: creating %s: %w", root, err)
	}
	return &Sandbox{root: root}, nil
}

// BaseDir returns the absolute sandbox root.
func (s *Sandbox) BaseDir() string { return s.root }

// resolve maps rel onto an absolute path under the root. Absolute
// inputs and paths that climb out of the root are rejected.
func (s *Sandbox) resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("storage: absolute path %s not allowed", rel)
	}
	abs := filepath.Join(s.root, rel)
	inside, err := filepath.Rel(s.root, abs)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: path %s escapes output directory", rel)
	}
	return abs, nil
}

// AtomicWrite writes data to rel through a temp file and rename, so a
// crashed compile never leaves a half-written artifact behind.
func (s *Sandbox) AtomicWrite(rel string, data []byte) error {
	target, err := s.resolve(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("storage: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("storage: temp file for %s: %w", rel, err)
	}
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		if writeErr != nil {
			return fmt.Errorf("storage: writing %s: %w", rel, writeErr)
		}
		return fmt.Errorf("storage: writing %s: %w", rel, closeErr)
	}
	if err := os.Chmod(tmp.Name(), 0o640); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: writing %s: %w", rel, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: publishing %s: %w", rel, err)
	}
	return nil
}

// ReadFile reads an artifact back, for verification and tests.
func (s *Sandbox) ReadFile(rel string) ([]byte, error) {
	path, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: reading %s: %w", rel, err)
	}
	return data, nil
}

// Exists reports whether rel names an existing artifact.
func (s *Sandbox) Exists(rel string) (bool, error) {
	path, err := s.resolve(rel)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: stat %s: %w", rel, err)
	}
	return true, nil
}
