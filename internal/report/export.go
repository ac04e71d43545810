// SPDX-License-Identifier: MPL-2.0

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bitproto/bitbench/internal/orchestrator"
)

type (
	// Document is the machine-readable record of a run.
	Document struct {
		State              string              `json:"state" yaml:"state"`
		Halted             bool                `json:"halted,omitempty" yaml:"halted,omitempty"`
		Canceled           bool                `json:"canceled,omitempty" yaml:"canceled,omitempty"`
		Started            time.Time           `json:"started" yaml:"started"`
		Elapsed            string              `json:"elapsed" yaml:"elapsed"`
		Scenarios          []ScenarioDoc       `json:"scenarios" yaml:"scenarios"`
		Generations        []GenerationDoc     `json:"generations" yaml:"generations"`
		GenerationFailures []GenerationFailDoc `json:"generation_failures,omitempty" yaml:"generation_failures,omitempty"`
		Comparison         *Comparison         `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	}

	// ScenarioDoc is one scenario outcome.
	ScenarioDoc struct {
		Label        string        `json:"label" yaml:"label"`
		Backend      string        `json:"backend" yaml:"backend"`
		Mode         string        `json:"mode" yaml:"mode"`
		Filter       string        `json:"filter,omitempty" yaml:"filter,omitempty"`
		Level        string        `json:"level" yaml:"level"`
		Status       string        `json:"status" yaml:"status"`
		Duration     string        `json:"duration,omitempty" yaml:"duration,omitempty"`
		Error        string        `json:"error,omitempty" yaml:"error,omitempty"`
		Output       string        `json:"output,omitempty" yaml:"output,omitempty"`
		Measurements []Measurement `json:"measurements,omitempty" yaml:"measurements,omitempty"`
	}

	// GenerationDoc is one successful generation.
	GenerationDoc struct {
		Pair      string   `json:"pair" yaml:"pair"`
		OutputDir string   `json:"output_dir" yaml:"output_dir"`
		Files     []string `json:"files" yaml:"files"`
		Digest    string   `json:"digest" yaml:"digest"`
		Duration  string   `json:"duration" yaml:"duration"`
	}

	// GenerationFailDoc is one failed generation.
	GenerationFailDoc struct {
		Backend string `json:"backend" yaml:"backend"`
		Mode    string `json:"mode" yaml:"mode"`
		Filter  string `json:"filter,omitempty" yaml:"filter,omitempty"`
		Error   string `json:"error" yaml:"error"`
	}
)

// NewDocument converts sum. ex and cmp may be nil.
func NewDocument(sum *orchestrator.Summary, ex *Extractor, cmp *Comparison) *Document {
	doc := &Document{
		State:       sum.State.String(),
		Halted:      sum.Halted,
		Canceled:    sum.Canceled,
		Started:     sum.Started,
		Elapsed:     sum.Elapsed().String(),
		Scenarios:   make([]ScenarioDoc, 0, len(sum.Outcomes)),
		Generations: make([]GenerationDoc, 0, len(sum.Generations)),
		Comparison:  cmp,
	}

	for _, o := range sum.Outcomes {
		sd := ScenarioDoc{
			Label:   o.Scenario.Label(),
			Backend: o.Scenario.Backend.String(),
			Mode:    string(o.Scenario.Mode.Kind),
			Filter:  o.Scenario.Mode.Filter,
			Level:   o.Scenario.Level.String(),
			Status:  string(o.Status),
			Output:  o.Output,
		}
		if o.Status != orchestrator.StatusSkipped {
			sd.Duration = o.Duration.String()
		}
		if o.Err != nil {
			sd.Error = o.Err.Error()
		}
		if ex != nil && o.Status == orchestrator.StatusSucceeded {
			sd.Measurements = ex.Extract(o.Output)
		}
		doc.Scenarios = append(doc.Scenarios, sd)
	}

	for _, g := range sum.Generations {
		doc.Generations = append(doc.Generations, GenerationDoc{
			Pair:      g.Pair.String(),
			OutputDir: g.OutputDir,
			Files:     g.Files,
			Digest:    g.Digest,
			Duration:  g.Duration.String(),
		})
	}

	for _, f := range sum.GenerationFailures {
		doc.GenerationFailures = append(doc.GenerationFailures, GenerationFailDoc{
			Backend: f.Backend().String(),
			Mode:    string(f.Mode()),
			Filter:  f.Filter(),
			Error:   f.Err.Error(),
		})
	}
	return doc
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// WriteYAML writes doc as YAML.
func WriteYAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return nil
}
