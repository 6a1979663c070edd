package crf

import (
	"encoding/json"
	"fmt"
)

// IndexPair is one (string, id) entry of an exported alphabet.
type IndexPair struct {
	Value string `json:"value"`
	ID    int    `json:"id"`
}

// Snapshot is the serializable form of a model: the flat weight vector,
// both alphabets as (string, id) pairs, the dimensions the weight
// layout depends on, and optionally the hyperparameters. A nil
// Hyperparameters field means "keep whatever the importing model
// already has".
//
// Snapshots round-trip: exporting, importing, and exporting again
// yields identical weights and identical index pairs.
type Snapshot struct {
	Weights         []float64        `json:"weights"`
	FeatureIndex    []IndexPair      `json:"feature_index"`
	LabelIndex      []IndexPair      `json:"label_index"`
	NumFeatures     int              `json:"num_features"`
	NumLabels       int              `json:"num_labels"`
	Hyperparameters *Hyperparameters `json:"hyperparameters,omitempty"`
}

// Export captures the model as a Snapshot. The snapshot owns its own
// copies; mutating it does not touch the model. Export fails with
// ErrUntrainedModel before a successful Train or import.
func (m *Model) Export() (*Snapshot, error) {
	if !m.Trained() {
		return nil, ErrUntrainedModel
	}

	weights := make([]float64, len(m.Weights))
	copy(weights, m.Weights)

	params := m.Params
	return &Snapshot{
		Weights:         weights,
		FeatureIndex:    exportPairs(m.Features),
		LabelIndex:      exportPairs(m.Labels),
		NumFeatures:     m.Features.Size(),
		NumLabels:       m.Labels.Size(),
		Hyperparameters: &params,
	}, nil
}

func exportPairs(a *Alphabet) []IndexPair {
	pairs := make([]IndexPair, a.Size())
	for id, s := range a.Strings() {
		pairs[id] = IndexPair{Value: s, ID: id}
	}
	return pairs
}

// ImportSnapshot replaces the model's parameters with the snapshot's.
// The snapshot is validated first; on any failure the model is left
// untouched. Hyperparameters are overwritten only when the snapshot
// carries them.
func (m *Model) ImportSnapshot(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot: %w", ErrMalformedModelData)
	}
	if snap.NumLabels <= 0 || snap.NumFeatures < 0 {
		return fmt.Errorf("num_features=%d num_labels=%d: %w",
			snap.NumFeatures, snap.NumLabels, ErrMalformedModelData)
	}

	// The weight vector is the emission block plus the transition
	// block.
	want := snap.NumFeatures*snap.NumLabels + snap.NumLabels*snap.NumLabels
	if len(snap.Weights) != want {
		return fmt.Errorf("weights length %d, want %d: %w", len(snap.Weights), want, ErrMalformedModelData)
	}

	features, err := importPairs(snap.FeatureIndex, snap.NumFeatures, "feature_index")
	if err != nil {
		return err
	}
	labels, err := importPairs(snap.LabelIndex, snap.NumLabels, "label_index")
	if err != nil {
		return err
	}

	weights := make([]float64, len(snap.Weights))
	copy(weights, snap.Weights)

	m.Features = features
	m.Labels = labels
	m.Weights = weights
	if snap.Hyperparameters != nil {
		m.Params = *snap.Hyperparameters
	}
	return nil
}

// importPairs rebuilds an alphabet from (string, id) pairs, requiring
// the ids to cover 0..size-1 exactly.
func importPairs(pairs []IndexPair, size int, field string) (*Alphabet, error) {
	if len(pairs) != size {
		return nil, fmt.Errorf("%s has %d entries, want %d: %w", field, len(pairs), size, ErrMalformedModelData)
	}
	a := &Alphabet{
		ids:     make(map[string]int, size),
		strings: make([]string, size),
	}
	seen := make([]bool, size)
	for _, p := range pairs {
		if p.ID < 0 || p.ID >= size {
			return nil, fmt.Errorf("%s id %d out of range: %w", field, p.ID, ErrMalformedModelData)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%s id %d assigned twice: %w", field, p.ID, ErrMalformedModelData)
		}
		if _, dup := a.ids[p.Value]; dup {
			return nil, fmt.Errorf("%s value %q assigned twice: %w", field, p.Value, ErrMalformedModelData)
		}
		seen[p.ID] = true
		a.ids[p.Value] = p.ID
		a.strings[p.ID] = p.Value
	}
	return a, nil
}

// MarshalJSON lets a model be serialized directly; it emits the
// snapshot form.
func (m *Model) MarshalJSON() ([]byte, error) {
	snap, err := m.Export()
	if err != nil {
		return nil, err
	}
	return json.Marshal(snap)
}

// UnmarshalJSON restores a model from its snapshot form.
func (m *Model) UnmarshalJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedModelData, err)
	}
	return m.ImportSnapshot(&snap)
}
