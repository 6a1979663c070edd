package crf

import "errors"

// Error kinds returned by the engine. All are synchronous and
// caller-recoverable; none leaves a model in a partially mutated state.
var (
	// ErrUntrainedModel is returned by Predict and Export when the
	// model has neither been trained nor imported.
	ErrUntrainedModel = errors.New("crf: model has not been trained or imported")

	// ErrEmptyTrainingSet is returned by Train when no usable examples
	// are supplied.
	ErrEmptyTrainingSet = errors.New("crf: empty training set")

	// ErrLengthMismatch is returned by Train when an example's feature
	// and label sequences differ in length. Such examples are rejected
	// outright, never truncated or padded.
	ErrLengthMismatch = errors.New("crf: feature and label sequence lengths differ")

	// ErrMalformedModelData is returned by snapshot import when
	// required fields are missing or inconsistent.
	ErrMalformedModelData = errors.New("crf: malformed model data")
)
