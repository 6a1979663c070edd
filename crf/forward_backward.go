package crf

import "math"

// lattice holds the forward-backward quantities for one sequence.
// Alpha and beta are rescaled per position (Rabiner-style), so the
// direct exponentials never overflow on long sequences or large
// weights. scale[t] is the factor each alpha[t][*] was multiplied by.
type lattice struct {
	logZ      float64
	alpha     [][]float64 // [T][L], rescaled forward variables
	beta      [][]float64 // [T][L], rescaled backward variables
	scale     []float64   // [T]
	marginals [][]float64 // [T][L], P(y_t = j | x)
}

func expMatrix(scores [][]float64) [][]float64 {
	out := make([][]float64, len(scores))
	for i, row := range scores {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = math.Exp(v)
		}
	}
	return out
}

// forwardBackward runs the rescaled forward-backward algorithm over a
// sequence given its [T][L] emission scores and [L][L] transition
// scores, producing the log partition function and per-position label
// marginals.
func forwardBackward(stateScores, transScores [][]float64) lattice {
	T := len(stateScores)
	if T == 0 {
		return lattice{}
	}
	L := len(stateScores[0])

	expState := expMatrix(stateScores)
	expTrans := expMatrix(transScores)

	alpha := make([][]float64, T)
	scale := make([]float64, T)

	// The first position has no transition contribution.
	alpha[0] = make([]float64, L)
	sum := 0.0
	for y := 0; y < L; y++ {
		alpha[0][y] = expState[0][y]
		sum += alpha[0][y]
	}
	if sum == 0 {
		scale[0] = 1.0
	} else {
		scale[0] = 1.0 / sum
	}
	for y := 0; y < L; y++ {
		alpha[0][y] *= scale[0]
	}

	for t := 1; t < T; t++ {
		alpha[t] = make([]float64, L)
		sum = 0
		for y := 0; y < L; y++ {
			var s float64
			for prev := 0; prev < L; prev++ {
				s += alpha[t-1][prev] * expTrans[prev][y]
			}
			alpha[t][y] = s * expState[t][y]
			sum += alpha[t][y]
		}
		if sum == 0 {
			scale[t] = 1.0
		} else {
			scale[t] = 1.0 / sum
		}
		for y := 0; y < L; y++ {
			alpha[t][y] *= scale[t]
		}
	}

	// Backward pass reuses the forward scale factors.
	beta := make([][]float64, T)
	beta[T-1] = make([]float64, L)
	for y := 0; y < L; y++ {
		beta[T-1][y] = scale[T-1]
	}
	for t := T - 2; t >= 0; t-- {
		beta[t] = make([]float64, L)
		for y := 0; y < L; y++ {
			var s float64
			for next := 0; next < L; next++ {
				s += expTrans[y][next] * expState[t+1][next] * beta[t+1][next]
			}
			beta[t][y] = s * scale[t]
		}
	}

	// Z is recovered from the scale factors: logZ = -sum(log scale[t]).
	logZ := 0.0
	for t := 0; t < T; t++ {
		logZ -= math.Log(scale[t])
	}

	marginals := make([][]float64, T)
	for t := 0; t < T; t++ {
		marginals[t] = make([]float64, L)
		for y := 0; y < L; y++ {
			marginals[t][y] = alpha[t][y] * beta[t][y] / scale[t]
		}
	}

	return lattice{
		logZ:      logZ,
		alpha:     alpha,
		beta:      beta,
		scale:     scale,
		marginals: marginals,
	}
}

// pairwiseMarginals computes P(y_{t-1}=i, y_t=j | x) for every adjacent
// position pair, a [T-1][L][L] tensor. Returns nil for sequences
// shorter than two positions.
func (lat lattice) pairwiseMarginals(stateScores, transScores [][]float64) [][][]float64 {
	T := len(stateScores)
	if T <= 1 {
		return nil
	}
	L := len(stateScores[0])

	expState := expMatrix(stateScores)
	expTrans := expMatrix(transScores)

	pairs := make([][][]float64, T-1)
	for t := 0; t < T - 1; t++ {
		pairs[t] = make([][]float64, L)
		for i := 0; i < L; i++ {
			pairs[t][i] = make([]float64, L)
			for j := 0; j < L; j++ {
				pairs[t][i][j] = lat.alpha[t][i] * expTrans[i][j] * expState[t+1][j] * lat.beta[t+1][j]
			}
		}
	}
	return pairs
}

// goldPathScore sums the emission and transition scores along a gold
// label path.
func goldPathScore(stateScores, transScores [][]float64, labels []int) float64 {
	score := 0.0
	for t, y := range labels {
		score += stateScores[t][y]
		if t > 0 {
			score += transScores[labels[t-1]][y]
		}
	}
	return score
}
