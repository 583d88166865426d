package ml

import (
	"fmt"

	"servicepredict/internal/features"
)

// Engine runs a loaded model against one encoded feature row.
type Engine struct{}

// Infer transforms row through the artifact's schema and evaluates the
// model. Failures wrap ErrInferenceFailure; column problems additionally
// wrap ErrSchemaMismatch.
func (Engine) Infer(m Model, row features.Row) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = 0, fmt.Errorf("%w: panic during evaluation: %v", ErrInferenceFailure, r)
		}
	}()

	if m == nil || m.Artifact() == nil {
		return 0, fmt.Errorf("%w: no model loaded", ErrInferenceFailure)
	}

	x, err := m.Artifact().Schema.Transform(row)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInferenceFailure, err)
	}

	v, err = m.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInferenceFailure, err)
	}
	return v, nil
}
