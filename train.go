package seqtag

import (
	"fmt"

	"github.com/happyhackingspace/seqtag/crf"
)

// TrainConfig holds configuration for training.
type TrainConfig struct {
	Trainer crf.TrainerConfig
}

// EvalConfig holds configuration for cross-validation evaluation.
type EvalConfig struct {
	Folds   int
	Trainer crf.TrainerConfig
}

// EvalResult holds cross-validation evaluation results.
type EvalResult struct {
	TokenAccuracy    float64
	SequenceAccuracy float64
	TokenCorrect     int
	TokenTotal       int
	SequenceCorrect  int
	SequenceTotal    int
}

// trainerWithDefaults fills hyperparameters that would make training a
// no-op (a zero learning rate or a zero iteration cap) from the
// defaults. Zero regularization and zero tolerance are legitimate
// choices and are left alone.
func trainerWithDefaults(trainer crf.TrainerConfig) crf.TrainerConfig {
	defaults := crf.DefaultTrainerConfig()
	if trainer.LearningRate == 0 {
		trainer.LearningRate = defaults.LearningRate
	}
	if trainer.MaxIterations == 0 {
		trainer.MaxIterations = defaults.MaxIterations
	}
	return trainer
}

// Train fits a tagger on the given labeled sequences.
func Train(examples []crf.Example, config *TrainConfig) (*Tagger, error) {
	trainer := crf.DefaultTrainerConfig()
	if config != nil {
		trainer = trainerWithDefaults(config.Trainer)
	}
	model, err := crf.Train(examples, trainer)
	if err != nil {
		return nil, fmt.Errorf("seqtag: %w", err)
	}
	return &Tagger{model: model}, nil
}

// Evaluate runs k-fold cross-validation over the examples, reporting
// token accuracy and whole-sequence accuracy. Each fold trains a fresh
// model on the remaining folds and scores the held-out sequences.
func Evaluate(examples []crf.Example, config *EvalConfig) (*EvalResult, error) {
	nFolds := 10
	trainer := crf.DefaultTrainerConfig()
	if config != nil {
		if config.Folds > 0 {
			nFolds = config.Folds
		}
		trainer = trainerWithDefaults(config.Trainer)
	}
	if len(examples) < 2 {
		return nil, fmt.Errorf("seqtag: need at least 2 examples for cross-validation, got %d", len(examples))
	}
	if nFolds > len(examples) {
		nFolds = len(examples)
	}
	if nFolds < 2 {
		nFolds = 2
	}

	result := &EvalResult{}
	for _, testIdx := range kFold(len(examples), nFolds) {
		testSet := makeTestSet(len(examples), testIdx)
		trainSet := make([]crf.Example, 0, len(examples)-len(testIdx))
		for i, ex := range examples {
			if !testSet[i] {
				trainSet = append(trainSet, ex)
			}
		}

		model, err := crf.Train(trainSet, trainer)
		if err != nil {
			return nil, fmt.Errorf("seqtag: %w", err)
		}

		for _, idx := range testIdx {
			ex := examples[idx]
			pred, err := model.Predict(ex.Features)
			if err != nil {
				return nil, fmt.Errorf("seqtag: %w", err)
			}
			allCorrect := true
			for t := range ex.Labels {
				if pred[t] == ex.Labels[t] {
					result.TokenCorrect++
				} else {
					allCorrect = false
				}
				result.TokenTotal++
			}
			if allCorrect {
				result.SequenceCorrect++
			}
			result.SequenceTotal++
		}
	}

	if result.TokenTotal > 0 {
		result.TokenAccuracy = float64(result.TokenCorrect) / float64(result.TokenTotal)
	}
	if result.SequenceTotal > 0 {
		result.SequenceAccuracy = float64(result.SequenceCorrect) / float64(result.SequenceTotal)
	}
	return result, nil
}

// kFold assigns example indices to folds round-robin and returns the
// test indices per fold.
func kFold(n, nFolds int) [][]int {
	folds := make([][]int, nFolds)
	for i := 0; i < n; i++ {
		fold := i % nFolds
		folds[fold] = append(folds[fold], i)
	}
	return folds
}

func makeTestSet(n int, testIdx []int) []bool {
	set := make([]bool, n)
	for _, i := range testIdx {
		set[i] = true
	}
	return set
}
