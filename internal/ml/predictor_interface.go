// Package ml serves service-interval predictions: it loads a trained
// artifact, runs inference over an encoded feature row, and falls back to a
// deterministic heuristic whenever the model path fails.
//
// Two variants share the same machinery. The mileage variant predicts the
// odometer reading of the next service, the days variant the number of days
// until it.
package ml

import (
	"context"

	"servicepredict/internal/vehicle"
)

// Model is a loaded artifact bound to one prediction variant.
type Model interface {
	// Variant is the prediction target the model was trained for.
	Variant() vehicle.Variant

	// Artifact exposes the underlying trained pipeline.
	Artifact() *Artifact

	// Predict evaluates the regressor on a transformed feature vector and
	// applies the variant's output rule.
	Predict(x []float64) (float64, error)
}

// ArtifactLoader produces a Model for a variant from an artifact source.
type ArtifactLoader interface {
	Load(ctx context.Context, variant vehicle.Variant, source string) (Model, error)
}
