package ml

import (
	"errors"
	"fmt"

	"servicepredict/internal/features"
	"servicepredict/internal/vehicle"
)

// Failure kinds of the model path. Each one downgrades a prediction to the
// fallback heuristic; none of them fails the caller.
var (
	ErrArtifactUnavailable = errors.New("artifact unavailable")
	ErrSchemaMismatch      = features.ErrSchemaMismatch
	ErrInput               = vehicle.ErrInvalidInput
	ErrInferenceFailure    = errors.New("inference failure")
)

// Stage names the step of the model path that failed.
type Stage string

const (
	StageLoad   Stage = "load"
	StageEncode Stage = "encode"
	StageInfer  Stage = "infer"
)

// PredictionError is the failure returned by a model path attempt.
type PredictionError struct {
	Stage Stage
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// Kind maps err to a short label used in metrics and the journal.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrArtifactUnavailable):
		return "artifact_unavailable"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrInput):
		return "input_error"
	case errors.Is(err, ErrInferenceFailure):
		return "inference_failure"
	default:
		return "unknown"
	}
}
