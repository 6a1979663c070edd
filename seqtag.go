// Package seqtag labels token sequences with a linear-chain CRF.
//
// The crf subpackage holds the engine; this package wraps it in a small
// facade for the common load/train/tag/save workflow:
//
//	tagger, _ := seqtag.Load("model.json")
//	labels, _ := tagger.Tag([][]string{{"w=john", "shape=Xxxx"}, {"w=smith", "shape=Xxxx"}})
//	fmt.Println(labels) // ["B-PER", "I-PER"]
package seqtag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/happyhackingspace/seqtag/crf"
)

// Tagger wraps a trained CRF model. It is read-only and safe for
// concurrent use.
type Tagger struct {
	model *crf.Model
}

// New loads a tagger from "model.json", searching the current directory
// and parent directories up to the module root (where go.mod lives).
func New() (*Tagger, error) {
	path, err := findModel("model.json")
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	return Load(path)
}

func findModel(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found", name)
}

// Load reads a trained model from a JSON file.
func Load(path string) (*Tagger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	model := crf.NewModel()
	if err := json.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	return &Tagger{model: model}, nil
}

// FromModel wraps an already trained or imported model.
func FromModel(model *crf.Model) (*Tagger, error) {
	if !model.Trained() {
		return nil, fmt.Errorf("seqtag: %w", crf.ErrUntrainedModel)
	}
	return &Tagger{model: model}, nil
}

// Save writes the model to a JSON file. The write is atomic: the file
// is either the previous model or the new one, never a torn mix.
func (t *Tagger) Save(path string) error {
	if t.model == nil {
		return fmt.Errorf("seqtag: %w", crf.ErrUntrainedModel)
	}
	data, err := json.MarshalIndent(t.model, "", "  ")
	if err != nil {
		return fmt.Errorf("seqtag: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("seqtag: %w", err)
	}
	return nil
}

// Tag labels a feature sequence. The result has one label per input
// position; an empty input yields an empty result.
func (t *Tagger) Tag(features [][]string) ([]string, error) {
	if t.model == nil {
		return nil, fmt.Errorf("seqtag: %w", crf.ErrUntrainedModel)
	}
	labels, err := t.model.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	return labels, nil
}

// TagMarginals returns per-position label probabilities instead of a
// single best path.
func (t *Tagger) TagMarginals(features [][]string) ([]map[string]float64, error) {
	if t.model == nil {
		return nil, fmt.Errorf("seqtag: %w", crf.ErrUntrainedModel)
	}
	marginals, err := t.model.PredictMarginals(features)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	return marginals, nil
}

// Model exposes the underlying CRF model, e.g. for snapshot export.
func (t *Tagger) Model() *crf.Model {
	return t.model
}
