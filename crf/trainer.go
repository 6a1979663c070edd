package crf

import (
	"fmt"
	"log/slog"
	"math"
)

// TrainerConfig holds the training hyperparameters plus an optional
// progress callback invoked once per iteration with the regularized
// corpus log-likelihood.
type TrainerConfig struct {
	LearningRate   float64
	MaxIterations  int
	Regularization float64 // L2 coefficient
	Tolerance      float64 // stop when |LL_t - LL_{t-1}| falls below this
	Progress       func(iteration int, logLikelihood float64)
}

// DefaultTrainerConfig returns the default training configuration.
func DefaultTrainerConfig() TrainerConfig {
	p := DefaultHyperparameters()
	return TrainerConfig{
		LearningRate:   p.LearningRate,
		MaxIterations:  p.MaxIterations,
		Regularization: p.Regularization,
		Tolerance:      p.Tolerance,
	}
}

func (c TrainerConfig) hyperparameters() Hyperparameters {
	return Hyperparameters{
		LearningRate:   c.LearningRate,
		MaxIterations:  c.MaxIterations,
		Regularization: c.Regularization,
		Tolerance:      c.Tolerance,
	}
}

// resolvedExample is a training sequence with strings replaced by
// dense IDs, computed once before the iteration loop.
type resolvedExample struct {
	features [][]int
	labels   []int
}

// Train fits a linear-chain CRF by full-batch L2-regularized gradient
// ascent on the conditional log-likelihood.
//
// Weights start at zero. Each iteration runs forward-backward over the
// entire corpus, accumulating the gradient (empirical feature counts
// minus model expectations) and the log-likelihood; the regularization
// term is then applied once, and the single weight update follows. The
// loop stops early when the log-likelihood change falls below
// Tolerance, or at MaxIterations; hitting the cap is not an error.
//
// The corpus is validated up front: Train returns ErrEmptyTrainingSet
// for a corpus with no usable positions and ErrLengthMismatch for any
// feature/label length disagreement, in both cases without building any
// model state.
func Train(examples []Example, config TrainerConfig) (*Model, error) {
	usable := 0
	for i, ex := range examples {
		if len(ex.Features) != len(ex.Labels) {
			return nil, fmt.Errorf("example %d: %d feature positions vs %d labels: %w",
				i, len(ex.Features), len(ex.Labels), ErrLengthMismatch)
		}
		usable += len(ex.Labels)
	}
	if usable == 0 {
		return nil, ErrEmptyTrainingSet
	}

	model := NewModel()
	model.Params = config.hyperparameters()

	// First-seen order over the corpus fixes the dense IDs.
	for _, ex := range examples {
		for _, position := range ex.Features {
			for _, f := range position {
				model.Features.Add(f)
			}
		}
		for _, label := range ex.Labels {
			model.Labels.Add(label)
		}
	}

	resolved := make([]resolvedExample, 0, len(examples))
	for _, ex := range examples {
		if len(ex.Labels) == 0 {
			continue
		}
		re := resolvedExample{
			features: make([][]int, len(ex.Features)),
			labels:   make([]int, len(ex.Labels)),
		}
		for t, position := range ex.Features {
			for _, f := range position {
				re.features[t] = append(re.features[t], model.Features.Lookup(f))
			}
			re.labels[t] = model.Labels.Lookup(ex.Labels[t])
		}
		resolved = append(resolved, re)
	}

	L := model.numLabels()
	transOffset := model.transOffset()
	numWeights := model.numWeights()

	w := make([]float64, numWeights)
	grad := make([]float64, numWeights)
	model.Weights = w

	prevLL := math.Inf(-1)
	for iter := 0; iter < config.MaxIterations; iter++ {
		for i := range grad {
			grad[i] = 0
		}
		ll := 0.0
		transScores := model.transScores()

		for _, re := range resolved {
			T := len(re.labels)
			stateScores := model.stateScores(re.features)

			lat := forwardBackward(stateScores, transScores)
			ll += goldPathScore(stateScores, transScores, re.labels) - lat.logZ

			// Emission gradient: +1 for each active feature under the
			// gold label, minus the model's marginal for every label.
			for t := 0; t < T; t++ {
				gold := re.labels[t]
				for _, f := range re.features[t] {
					base := f * L
					grad[base+gold] += 1.0
					for y := 0; y < L; y++ {
						grad[base+y] -= lat.marginals[t][y]
					}
				}
			}

			// Transition gradient, from pairwise marginals.
			if T > 1 {
				pairs := lat.pairwiseMarginals(stateScores, transScores)
				for t := 0; t < T - 1; t++ {
					grad[transOffset+re.labels[t]*L+re.labels[t+1]] += 1.0
					for i := 0; i < L; i++ {
						base := transOffset + i*L
						for j := 0; j < L; j++ {
							grad[base+j] -= pairs[t][i][j]
						}
					}
				}
			}
		}

		// Regularization is applied once per corpus pass, after
		// accumulation: a quadratic penalty on the objective and its
		// derivative on the gradient.
		if config.Regularization > 0 {
			for i := 0; i < numWeights; i++ {
				ll -= 0.5 * config.Regularization * w[i] * w[i]
				grad[i] -= config.Regularization * w[i]
			}
		}

		slog.Debug("CRF training iteration", "iteration", iter+1, "log_likelihood", ll)
		if config.Progress != nil {
			config.Progress(iter+1, ll)
		}

		// Single batch update per iteration; gradients were fully
		// accumulated over the corpus first.
		for i := 0; i < numWeights; i++ {
			w[i] += config.LearningRate * grad[i]
		}

		if math.Abs(ll-prevLL) < config.Tolerance {
			slog.Debug("CRF training converged", "iteration", iter+1, "log_likelihood", ll)
			break
		}
		prevLL = ll
	}

	return model, nil
}
