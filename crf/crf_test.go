package crf

import (
	"math"
	"testing"
)

func TestAlphabet(t *testing.T) {
	a := NewAlphabet()
	id0 := a.Add("suffix=ing")
	id1 := a.Add("lower")
	id2 := a.Add("suffix=ing") // duplicate

	if id0 != 0 || id1 != 1 || id2 != 0 {
		t.Errorf("IDs: %d, %d, %d; want 0, 1, 0", id0, id1, id2)
	}
	if a.Size() != 2 {
		t.Errorf("Size = %d, want 2", a.Size())
	}
	if a.Lookup("missing") != -1 {
		t.Error("Lookup of an unknown string should return -1")
	}
	if a.String(1) != "lower" {
		t.Errorf("String(1) = %q, want %q", a.String(1), "lower")
	}
}

func TestTrainAssignsDenseIDs(t *testing.T) {
	examples := []Example{
		{
			Features: [][]string{{"w=the", "bias"}, {"w=cat", "bias"}},
			Labels:   []string{"O", "B"},
		},
		{
			Features: [][]string{{"w=cat"}, {"w=sat", "bias"}},
			Labels:   []string{"B", "I"},
		},
	}
	config := DefaultTrainerConfig()
	config.MaxIterations = 1

	model, err := Train(examples, config)
	if err != nil {
		t.Fatal(err)
	}

	// First-seen order across the corpus, no gaps.
	wantFeatures := []string{"w=the", "bias", "w=cat", "w=sat"}
	for id, f := range wantFeatures {
		if got := model.Features.Lookup(f); got != id {
			t.Errorf("feature %q has id %d, want %d", f, got, id)
		}
	}
	wantLabels := []string{"O", "B", "I"}
	for id, l := range wantLabels {
		if got := model.Labels.Lookup(l); got != id {
			t.Errorf("label %q has id %d, want %d", l, got, id)
		}
	}
	if model.Features.Size() != len(wantFeatures) {
		t.Errorf("feature count = %d, want %d", model.Features.Size(), len(wantFeatures))
	}
	if got, want := len(model.Weights), model.numWeights(); got != want {
		t.Errorf("weight vector length = %d, want %d", got, want)
	}
}

func TestStateScoresIgnoreUnknownFeatures(t *testing.T) {
	model := NewModel()
	model.Labels.Add("A")
	model.Labels.Add("B")
	model.Features.Add("known")
	model.Weights = make([]float64, model.numWeights())
	model.Weights[model.emissionIndex(0, 0)] = 1.5
	model.Weights[model.emissionIndex(0, 1)] = -0.5

	resolved := model.resolveFeatures([][]string{{"known", "never-seen"}})
	scores := model.stateScores(resolved)

	if scores[0][0] != 1.5 || scores[0][1] != -0.5 {
		t.Errorf("scores = %v, want [1.5 -0.5]", scores[0])
	}

	// A position with only unknown features scores 0 for every label.
	resolved = model.resolveFeatures([][]string{{"never-seen", "also-unseen"}})
	scores = model.stateScores(resolved)
	if scores[0][0] != 0 || scores[0][1] != 0 {
		t.Errorf("scores for unknown-only position = %v, want zeros", scores[0])
	}
}

func TestWeightLayout(t *testing.T) {
	model := NewModel()
	model.Labels.Add("A")
	model.Labels.Add("B")
	model.Labels.Add("C")
	model.Features.Add("f0")
	model.Features.Add("f1")

	if got := model.transOffset(); got != 6 {
		t.Errorf("transOffset = %d, want 6", got)
	}
	if got := model.numWeights(); got != 15 {
		t.Errorf("numWeights = %d, want 15", got)
	}
	if got := model.emissionIndex(1, 2); got != 5 {
		t.Errorf("emissionIndex(1,2) = %d, want 5", got)
	}
	if got := model.transitionIndex(2, 1); got != 6+2*3+1 {
		t.Errorf("transitionIndex(2,1) = %d, want %d", got, 6+2*3+1)
	}
}

func TestForwardBackward(t *testing.T) {
	stateScores := [][]float64{
		{1.0, 0.5},
		{0.3, 2.0},
	}
	transScores := [][]float64{
		{0.1, 0.2},
		{0.3, 0.1},
	}

	lat := forwardBackward(stateScores, transScores)

	if math.IsNaN(lat.logZ) || math.IsInf(lat.logZ, 0) {
		t.Errorf("logZ = %v, expected finite", lat.logZ)
	}

	for pos := 0; pos < 2; pos++ {
		sum := lat.marginals[pos][0] + lat.marginals[pos][1]
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("marginals at pos=%d sum to %v, want 1.0", pos, sum)
		}
	}

	// Verify logZ against brute-force enumeration of all paths.
	paths := [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	Z := 0.0
	for _, p := range paths {
		Z += math.Exp(stateScores[0][p[0]] + stateScores[1][p[1]] + transScores[p[0]][p[1]])
	}
	if math.Abs(lat.logZ-math.Log(Z)) > 1e-9 {
		t.Errorf("logZ = %v, want %v", lat.logZ, math.Log(Z))
	}

	// Pairwise marginals over one transition sum to 1 as well.
	pairs := lat.pairwiseMarginals(stateScores, transScores)
	sum := 0.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			sum += pairs[0][i][j]
		}
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("pairwise marginals sum to %v, want 1.0", sum)
	}
}

func TestForwardBackwardSinglePosition(t *testing.T) {
	stateScores := [][]float64{{2.0, 1.0, 0.0}}
	transScores := [][]float64{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	}

	lat := forwardBackward(stateScores, transScores)

	Z := math.Exp(2.0) + math.Exp(1.0) + 1.0
	if math.Abs(lat.logZ-math.Log(Z)) > 1e-9 {
		t.Errorf("logZ = %v, want %v", lat.logZ, math.Log(Z))
	}
	if math.Abs(lat.marginals[0][0]-math.Exp(2.0)/Z) > 1e-9 {
		t.Errorf("marginal = %v, want %v", lat.marginals[0][0], math.Exp(2.0)/Z)
	}
	if lat.pairwiseMarginals(stateScores, transScores) != nil {
		t.Error("pairwise marginals for a length-1 sequence should be nil")
	}
}

func TestForwardBackwardUnderflowedFirstPosition(t *testing.T) {
	// Emission exps below ~exp(-745) underflow to 0. A fully
	// underflowed first position must not poison the lattice with
	// Inf scale factors or NaN marginals.
	stateScores := [][]float64{
		{-800, -800},
		{0, 0},
	}
	transScores := [][]float64{
		{0, 0},
		{0, 0},
	}

	lat := forwardBackward(stateScores, transScores)
	if math.IsNaN(lat.logZ) {
		t.Fatalf("logZ = %v, want a number", lat.logZ)
	}
	for pos := 0; pos < 2; pos++ {
		for y := 0; y < 2; y++ {
			if math.IsNaN(lat.marginals[pos][y]) || math.IsInf(lat.marginals[pos][y], 0) {
				t.Fatalf("marginal at pos=%d label=%d is %v", pos, y, lat.marginals[pos][y])
			}
		}
	}
}

func TestForwardBackwardLongSequenceStaysFinite(t *testing.T) {
	// Large weights over a long sequence overflow the unscaled
	// formulation; the rescaled one must stay finite.
	T, L := 400, 3
	stateScores := make([][]float64, T)
	for pos := 0; pos < T; pos++ {
		stateScores[pos] = []float64{50, 40, 30}
	}
	transScores := [][]float64{
		{10, 5, 1},
		{5, 10, 1},
		{1, 1, 10},
	}

	lat := forwardBackward(stateScores, transScores)
	if math.IsInf(lat.logZ, 0) || math.IsNaN(lat.logZ) {
		t.Fatalf("logZ = %v, expected finite", lat.logZ)
	}
	for pos := 0; pos < T; pos++ {
		sum := 0.0
		for y := 0; y < L; y++ {
			sum += lat.marginals[pos][y]
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Fatalf("marginals at pos=%d sum to %v", pos, sum)
		}
	}
}
