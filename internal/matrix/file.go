// SPDX-License-Identifier: MPL-2.0

package matrix

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitproto/bitbench/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed matrix_schema.cue
var matrixSchema []byte

// ErrUnsupportedMatrixFormat is returned for matrix files with an unknown extension.
var ErrUnsupportedMatrixFormat = errors.New("unsupported matrix file format")

type (
	// File is the on-disk matrix declaration shared by the CUE, TOML and YAML formats.
	File struct {
		Targets []FileTarget `json:"targets" toml:"targets" yaml:"targets"`
	}

	// FileTarget declares one target group.
	FileTarget struct {
		Name      string         `json:"name" toml:"name" yaml:"name"`
		DependsOn []string       `json:"depends_on,omitempty" toml:"depends_on,omitempty" yaml:"depends_on,omitempty"`
		Scenarios []FileScenario `json:"scenarios,omitempty" toml:"scenarios,omitempty" yaml:"scenarios,omitempty"`
	}

	// FileScenario declares one scenario. Empty mode and level default to
	// "standard" and "none".
	FileScenario struct {
		Backend string `json:"backend" toml:"backend" yaml:"backend"`
		Mode    string `json:"mode,omitempty" toml:"mode,omitempty" yaml:"mode,omitempty"`
		Filter  string `json:"filter,omitempty" toml:"filter,omitempty" yaml:"filter,omitempty"`
		Level   string `json:"level,omitempty" toml:"level,omitempty" yaml:"level,omitempty"`
	}
)

// LoadFile reads a matrix file and returns its targets. The format is chosen by
// extension: .cue, .toml, .yaml or .yml.
func LoadFile(path string) (*TargetSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read matrix file: %w", err)
	}

	var f *File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		f, err = ParseCUE(data, path)
	case ".toml":
		f, err = ParseTOML(data, path)
	case ".yaml", ".yml":
		f, err = ParseYAML(data, path)
	default:
		return nil, fmt.Errorf("%w %q (use .cue, .toml, .yaml)", ErrUnsupportedMatrixFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return f.TargetSet()
}

// ParseCUE decodes a CUE matrix file after validating it against #Matrix.
func ParseCUE(data []byte, filename string) (*File, error) {
	res, err := cueutil.ParseAndDecode[File](matrixSchema, data, "#Matrix", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// ParseTOML decodes a TOML matrix file. Unknown keys are rejected.
func ParseTOML(data []byte, filename string) (*File, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}
	var f File
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &f, nil
}

// ParseYAML decodes a YAML matrix file. Unknown keys are rejected.
func ParseYAML(data []byte, filename string) (*File, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return nil, err
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &f, nil
}

// TargetSet converts the declaration into validated targets.
func (f *File) TargetSet() (*TargetSet, error) {
	if len(f.Targets) == 0 {
		return nil, &InvalidTargetError{Name: "", Reason: "matrix file declares no targets"}
	}
	targets := make([]Target, 0, len(f.Targets))
	for i, ft := range f.Targets {
		t := Target{Name: ft.Name, DependsOn: ft.DependsOn}
		for j, fs := range ft.Scenarios {
			s, err := fs.Scenario()
			if err != nil {
				return nil, fmt.Errorf("targets[%d].scenarios[%d]: %w", i, j, err)
			}
			t.Scenarios = append(t.Scenarios, s)
		}
		targets = append(targets, t)
	}
	return NewTargetSet(targets...)
}

// Scenario parses the declaration into a normalized Scenario.
func (fs FileScenario) Scenario() (Scenario, error) {
	b, err := ParseBackend(fs.Backend)
	if err != nil {
		return Scenario{}, err
	}
	m, err := ParseMode(fs.Mode, fs.Filter)
	if err != nil {
		return Scenario{}, err
	}
	l, err := ParseOptimizationLevel(fs.Level)
	if err != nil {
		return Scenario{}, err
	}
	if l != LevelNone && !b.SupportsNativeOptimization() {
		return Scenario{}, &InvalidScenarioError{
			Scenario:    Scenario{Backend: b, Mode: m, Level: l},
			FieldErrors: []error{fmt.Errorf("%w: backend %s does not support native optimization", ErrInvalidOptimizationLevel, b)},
		}
	}
	return NewScenario(b, m, l), nil
}
