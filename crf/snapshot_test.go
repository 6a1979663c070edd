package crf

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	model := trainTwoPositionModel(t)

	snap, err := model.Export()
	if err != nil {
		t.Fatal(err)
	}

	restored := NewModel()
	if err := restored.ImportSnapshot(snap); err != nil {
		t.Fatal(err)
	}

	again, err := restored.Export()
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(again.Weights, snap.Weights) {
		t.Error("weights changed across export/import/export")
	}
	if !slices.Equal(again.FeatureIndex, snap.FeatureIndex) {
		t.Errorf("feature index changed: %v vs %v", again.FeatureIndex, snap.FeatureIndex)
	}
	if !slices.Equal(again.LabelIndex, snap.LabelIndex) {
		t.Errorf("label index changed: %v vs %v", again.LabelIndex, snap.LabelIndex)
	}
	if again.NumFeatures != snap.NumFeatures || again.NumLabels != snap.NumLabels {
		t.Error("dimensions changed across round trip")
	}

	// The restored model scores identically.
	a, err := model.Predict([][]string{{"F1"}, {"F2"}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := restored.Predict([][]string{{"F1"}, {"F2"}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a, b) {
		t.Errorf("predictions diverge after round trip: %v vs %v", a, b)
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	model := trainTwoPositionModel(t)

	data, err := json.Marshal(model)
	if err != nil {
		t.Fatal(err)
	}

	restored := NewModel()
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(restored.Weights, model.Weights) {
		t.Error("weights changed across JSON round trip")
	}
	if restored.Params != model.Params {
		t.Errorf("Params = %+v, want %+v", restored.Params, model.Params)
	}
}

func TestExportUntrained(t *testing.T) {
	model := NewModel()
	if _, err := model.Export(); !errors.Is(err, ErrUntrainedModel) {
		t.Errorf("err = %v, want ErrUntrainedModel", err)
	}
}

func TestExportIsACopy(t *testing.T) {
	model := trainTwoPositionModel(t)
	snap, err := model.Export()
	if err != nil {
		t.Fatal(err)
	}
	snap.Weights[0] += 100
	again, err := model.Export()
	if err != nil {
		t.Fatal(err)
	}
	if again.Weights[0] == snap.Weights[0] {
		t.Error("mutating an exported snapshot reached the model's weights")
	}
}

func TestImportMalformed(t *testing.T) {
	valid := func() *Snapshot {
		return &Snapshot{
			Weights:      make([]float64, 2*2+2*2),
			FeatureIndex: []IndexPair{{Value: "f0", ID: 0}, {Value: "f1", ID: 1}},
			LabelIndex:   []IndexPair{{Value: "A", ID: 0}, {Value: "B", ID: 1}},
			NumFeatures:  2,
			NumLabels:    2,
		}
	}

	cases := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"missing weights", func(s *Snapshot) { s.Weights = nil }},
		{"short weights", func(s *Snapshot) { s.Weights = s.Weights[:3] }},
		{"missing feature index", func(s *Snapshot) { s.FeatureIndex = nil }},
		{"missing label index", func(s *Snapshot) { s.LabelIndex = nil }},
		{"feature id out of range", func(s *Snapshot) { s.FeatureIndex[1].ID = 7 }},
		{"duplicate feature id", func(s *Snapshot) { s.FeatureIndex[1].ID = 0 }},
		{"duplicate label value", func(s *Snapshot) { s.LabelIndex[1].Value = "A" }},
		{"zero labels", func(s *Snapshot) { s.NumLabels = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := valid()
			tc.mutate(snap)
			model := NewModel()
			if err := model.ImportSnapshot(snap); !errors.Is(err, ErrMalformedModelData) {
				t.Errorf("err = %v, want ErrMalformedModelData", err)
			}
			if model.Trained() {
				t.Error("failed import left the model in a trained state")
			}
		})
	}

	model := NewModel()
	if err := model.ImportSnapshot(nil); !errors.Is(err, ErrMalformedModelData) {
		t.Errorf("nil snapshot err = %v, want ErrMalformedModelData", err)
	}
}

func TestImportHyperparameters(t *testing.T) {
	snap := &Snapshot{
		Weights:      make([]float64, 1*1+1*1),
		FeatureIndex: []IndexPair{{Value: "f", ID: 0}},
		LabelIndex:   []IndexPair{{Value: "L", ID: 0}},
		NumFeatures:  1,
		NumLabels:    1,
	}

	// Without hyperparameters the importing model keeps its own.
	model := NewModel()
	model.Params.LearningRate = 0.125
	if err := model.ImportSnapshot(snap); err != nil {
		t.Fatal(err)
	}
	if model.Params.LearningRate != 0.125 {
		t.Errorf("LearningRate = %v, want 0.125 (kept)", model.Params.LearningRate)
	}

	// With hyperparameters they overwrite the defaults.
	snap.Hyperparameters = &Hyperparameters{LearningRate: 0.75, MaxIterations: 42, Regularization: 0.3, Tolerance: 1e-2}
	if err := model.ImportSnapshot(snap); err != nil {
		t.Fatal(err)
	}
	if model.Params != *snap.Hyperparameters {
		t.Errorf("Params = %+v, want %+v", model.Params, *snap.Hyperparameters)
	}
}
