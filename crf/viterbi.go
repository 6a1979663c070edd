package crf

import "math"

// viterbi computes the highest-scoring label path in the log domain.
// Ties are broken toward the lowest label ID: the max scan uses a
// strict > comparison, so the first candidate encountered wins.
func viterbi(stateScores, transScores [][]float64) []int {
	T := len(stateScores)
	if T == 0 {
		return nil
	}
	L := len(stateScores[0])

	dp := make([][]float64, T)
	backptr := make([][]int, T)

	dp[0] = make([]float64, L)
	copy(dp[0], stateScores[0])

	for t := 1; t < T; t++ {
		dp[t] = make([]float64, L)
		backptr[t] = make([]int, L)
		for y := 0; y < L; y++ {
			best := math.Inf(-1)
			bestPrev := 0
			for prev := 0; prev < L; prev++ {
				if s := dp[t-1][prev] + transScores[prev][y]; s > best {
					best = s
					bestPrev = prev
				}
			}
			dp[t][y] = best + stateScores[t][y]
			backptr[t][y] = bestPrev
		}
	}

	best := math.Inf(-1)
	bestLabel := 0
	for y := 0; y < L; y++ {
		if dp[T-1][y] > best {
			best = dp[T-1][y]
			bestLabel = y
		}
	}

	path := make([]int, T)
	path[T-1] = bestLabel
	for t := T - 1; t > 0; t-- {
		path[t-1] = backptr[t][path[t]]
	}
	return path
}

// Predict returns the Viterbi label sequence for a feature sequence.
// The result always has the same length as the input; an empty input
// yields an empty sequence without any scoring. Feature strings never
// seen in training contribute score 0 for every label.
func (m *Model) Predict(features [][]string) ([]string, error) {
	if !m.Trained() {
		return nil, ErrUntrainedModel
	}
	if len(features) == 0 {
		return []string{}, nil
	}

	resolved := m.resolveFeatures(features)
	path := viterbi(m.stateScores(resolved), m.transScores())

	labels := make([]string, len(path))
	for t, y := range path {
		labels[t] = m.Labels.String(y)
	}
	return labels, nil
}

// PredictMarginals returns, for each position, the marginal probability
// of every label given the whole input sequence.
func (m *Model) PredictMarginals(features [][]string) ([]map[string]float64, error) {
	if !m.Trained() {
		return nil, ErrUntrainedModel
	}
	if len(features) == 0 {
		return []map[string]float64{}, nil
	}

	resolved := m.resolveFeatures(features)
	lat := forwardBackward(m.stateScores(resolved), m.transScores())

	out := make([]map[string]float64, len(features))
	for t := range features {
		out[t] = make(map[string]float64, m.numLabels())
		for y := 0; y < m.numLabels(); y++ {
			out[t][m.Labels.String(y)] = lat.marginals[t][y]
		}
	}
	return out, nil
}
