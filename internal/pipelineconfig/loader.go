package pipelineconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// acceptedFilenames is the closed set of exact pipeline configuration
// filenames the loader recognizes, independent of the
// "-canvas-config.yaml" suffix rule.
var acceptedFilenames = map[string]bool{
	"pipeline.yaml":        true,
	"pipeline.yml":         true,
	"pipeline-config.yaml": true,
}

const canvasConfigSuffix = "-canvas-config.yaml"

// ErrAmbiguous is returned when more than one candidate file is found
// at the same search-path layer.
var ErrAmbiguous = errors.New("pipelineconfig: ambiguous configuration, multiple candidates at the same layer")

func isAcceptedFilename(name string) bool {
	if acceptedFilenames[name] {
		return true
	}
	return len(name) > len(canvasConfigSuffix) && name[len(name)-len(canvasConfigSuffix):] == canvasConfigSuffix
}

// candidatesIn lists accepted filenames present directly inside dir,
// sorted for deterministic error messages.
func candidatesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var found []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isAcceptedFilename(e.Name()) {
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(found)
	return found, nil
}

// isAggregatorDir reports whether dir looks like an "aggregator"
// project directory: it has no sources of its own but lists nested
// modules via a pom.xml/go.work-style marker. The marker used here is
// a directory named "config" alongside one or more sibling directories
// that are themselves modules (contain go.mod).
func isAggregatorDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	hasConfig := false
	moduleCount := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if e.Name() == "config" {
			hasConfig = true
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), "go.mod")); err == nil {
			moduleCount++
		}
	}
	return hasConfig && moduleCount > 0
}

// Locate walks the configuration search path: module directory -> config/
// subdirectory -> src/main/resources/ -> nearest ancestor aggregator
// directory and its config/ subdirectory. It returns the empty string
// with a nil error when nothing is found, and ErrAmbiguous when a
// single layer contains more than one accepted candidate.
func Locate(moduleDir string) (string, error) {
	layers := []string{
		moduleDir,
		filepath.Join(moduleDir, "config"),
		filepath.Join(moduleDir, "src", "main", "resources"),
	}

	for _, layer := range layers {
		found, err := candidatesIn(layer)
		if err != nil {
			return "", err
		}
		if len(found) > 1 {
			return "", fmt.Errorf("%w: %v", ErrAmbiguous, found)
		}
		if len(found) == 1 {
			return found[0], nil
		}
	}

	dir := filepath.Dir(moduleDir)
	for {
		if isAggregatorDir(dir) {
			aggregatorLayers := []string{dir, filepath.Join(dir, "config")}
			for _, layer := range aggregatorLayers {
				found, err := candidatesIn(layer)
				if err != nil {
					return "", err
				}
				if len(found) > 1 {
					return "", fmt.Errorf("%w: %v", ErrAmbiguous, found)
				}
				if len(found) == 1 {
					return found[0], nil
				}
			}
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// Load parses the pipeline configuration file at path.
func Load(path string) (*PipelineFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipelineconfig: read %s: %w", path, err)
	}
	var file PipelineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("pipelineconfig: parse %s: %w", path, err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("pipelineconfig: %s: %w", path, err)
	}
	return &file, nil
}

// LoadRuntimeMapping parses a runtime mapping document.
func LoadRuntimeMapping(path string) (*RuntimeMappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipelineconfig: read %s: %w", path, err)
	}
	var file RuntimeMappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("pipelineconfig: parse %s: %w", path, err)
	}
	return &file, nil
}
