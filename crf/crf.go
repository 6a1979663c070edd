// Package crf implements a linear-chain Conditional Random Field over
// symbolic features.
//
// The engine is label-alphabet-agnostic: callers supply, for every
// sequence position, a set of feature strings, and (for training) a
// parallel sequence of label strings. Feature generation itself is the
// caller's concern and must be reproducible between training and
// inference.
package crf

// Alphabet maps strings to dense integer IDs in first-seen order.
// IDs start at 0 and have no gaps; once assigned they never change.
type Alphabet struct {
	ids     map[string]int
	strings []string
}

// NewAlphabet creates an empty alphabet.
func NewAlphabet() *Alphabet {
	return &Alphabet{ids: make(map[string]int)}
}

// Add interns a string and returns its ID, assigning the next dense ID
// if the string has not been seen before.
func (a *Alphabet) Add(s string) int {
	if id, ok := a.ids[s]; ok {
		return id
	}
	id := len(a.strings)
	a.ids[s] = id
	a.strings = append(a.strings, s)
	return id
}

// Lookup returns the ID for a string, or -1 if it was never added.
func (a *Alphabet) Lookup(s string) int {
	if id, ok := a.ids[s]; ok {
		return id
	}
	return -1
}

// String returns the string for an ID. IDs are dense, so this is a
// direct slice index.
func (a *Alphabet) String(id int) string {
	return a.strings[id]
}

// Strings returns all interned strings in ID order.
func (a *Alphabet) Strings() []string {
	return a.strings
}

// Size returns the number of interned strings.
func (a *Alphabet) Size() int {
	return len(a.strings)
}

// Hyperparameters control the gradient-ascent trainer. They are stored
// on the model so an exported snapshot carries them along.
type Hyperparameters struct {
	LearningRate   float64 `json:"learning_rate"`
	MaxIterations  int     `json:"max_iterations"`
	Regularization float64 `json:"regularization"`
	Tolerance      float64 `json:"tolerance"`
}

// DefaultHyperparameters returns the trainer defaults.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		LearningRate:   0.5,
		MaxIterations:  200,
		Regularization: 0.01,
		Tolerance:      1e-6,
	}
}

// Example is one training sequence: per-position feature sets and a
// parallel gold label sequence of the same length.
type Example struct {
	Features [][]string
	Labels   []string
}

// Model holds the parameters of a trained linear-chain CRF.
//
// Weights is a single flat vector: an emission block indexed by
// featureID*numLabels + labelID, followed by a transition block indexed
// by transOffset + fromLabelID*numLabels + toLabelID. Transitions get
// their own block rather than synthetic feature strings, so decoding
// never touches the feature alphabet in its inner loop.
//
// A Model is mutated only by Train; afterwards it is read-only and safe
// for concurrent Predict calls.
type Model struct {
	Labels   *Alphabet
	Features *Alphabet
	Weights  []float64
	Params   Hyperparameters
}

// NewModel creates an empty, untrained model with default
// hyperparameters.
func NewModel() *Model {
	return &Model{
		Labels:   NewAlphabet(),
		Features: NewAlphabet(),
		Params:   DefaultHyperparameters(),
	}
}

// Trained reports whether the model holds usable parameters, either
// from Train or from an imported snapshot.
func (m *Model) Trained() bool {
	return m != nil && m.Labels != nil && m.Features != nil &&
		m.Labels.Size() > 0 && len(m.Weights) == m.numWeights()
}

func (m *Model) numLabels() int {
	return m.Labels.Size()
}

// transOffset is where the transition block starts in Weights.
func (m *Model) transOffset() int {
	return m.Features.Size() * m.numLabels()
}

func (m *Model) numWeights() int {
	L := m.numLabels()
	return m.Features.Size()*L + L*L
}

func (m *Model) emissionIndex(featureID, labelID int) int {
	return featureID*m.numLabels() + labelID
}

func (m *Model) transitionIndex(fromLabelID, toLabelID int) int {
	return m.transOffset() + fromLabelID*m.numLabels() + toLabelID
}

// resolveFeatures maps feature strings to IDs, silently dropping
// strings absent from the vocabulary: an unseen feature contributes
// score 0 for every label, it is never an error.
func (m *Model) resolveFeatures(features [][]string) [][]int {
	resolved := make([][]int, len(features))
	for t, position := range features {
		for _, f := range position {
			if id := m.Features.Lookup(f); id >= 0 {
				resolved[t] = append(resolved[t], id)
			}
		}
	}
	return resolved
}

// stateScores computes the [T][L] emission score matrix for a sequence
// of resolved feature IDs: the sum of emission weights of the active
// features at each position, per label.
func (m *Model) stateScores(resolved [][]int) [][]float64 {
	L := m.numLabels()
	scores := make([][]float64, len(resolved))
	for t, position := range resolved {
		scores[t] = make([]float64, L)
		for _, f := range position {
			base := f * L
			for y := 0; y < L; y++ {
				scores[t][y] += m.Weights[base+y]
			}
		}
	}
	return scores
}

// transScores returns the [L][L] transition score matrix.
func (m *Model) transScores() [][]float64 {
	L := m.numLabels()
	trans := make([][]float64, L)
	for i := 0; i < L; i++ {
		trans[i] = make([]float64, L)
		for j := 0; j < L; j++ {
			trans[i][j] = m.Weights[m.transitionIndex(i, j)]
		}
	}
	return trans
}
