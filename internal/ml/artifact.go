package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"servicepredict/internal/features"
	"servicepredict/internal/vehicle"
)

// Artifact is a trained pipeline: the column transform bound to the
// regressor that consumes its output. It is never mutated after load.
type Artifact struct {
	Variant   vehicle.Variant `json:"variant"`
	Version   string          `json:"version"`
	TrainedAt time.Time       `json:"trained_at"`
	Schema    features.Schema `json:"schema"`
	Regressor Regressor       `json:"regressor"`
}

// Validate checks internal consistency of the artifact.
func (a *Artifact) Validate() error {
	if !a.Variant.IsValid() {
		return fmt.Errorf("unknown variant %q", a.Variant)
	}
	if err := a.Schema.Validate(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := a.Regressor.validate(a.Schema.Width()); err != nil {
		return fmt.Errorf("regressor: %w", err)
	}
	return nil
}

// DecodeArtifact parses and validates a serialized artifact.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}
	return &a, nil
}

// Encode serializes the artifact.
func (a *Artifact) Encode() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// Mileage results are emitted as int64.
const maxMileageOutput = 1 << 63

// MileageModel predicts the odometer reading of the next service. Results
// are truncated to whole miles.
type MileageModel struct {
	art *Artifact
}

func (m *MileageModel) Variant() vehicle.Variant { return vehicle.VariantMileage }
func (m *MileageModel) Artifact() *Artifact      { return m.art }

func (m *MileageModel) Predict(x []float64) (float64, error) {
	v, err := m.art.Regressor.Predict(x)
	if err != nil {
		return 0, err
	}
	if err := checkScalar(v); err != nil {
		return 0, err
	}
	if v >= maxMileageOutput {
		return 0, fmt.Errorf("regressor produced out of range mileage %g", v)
	}
	return math.Trunc(v), nil
}

// DaysModel predicts days until the next service. Results are not rounded.
type DaysModel struct {
	art *Artifact
}

func (m *DaysModel) Variant() vehicle.Variant { return vehicle.VariantDays }
func (m *DaysModel) Artifact() *Artifact      { return m.art }

func (m *DaysModel) Predict(x []float64) (float64, error) {
	v, err := m.art.Regressor.Predict(x)
	if err != nil {
		return 0, err
	}
	if err := checkScalar(v); err != nil {
		return 0, err
	}
	return v, nil
}

// NewModel binds art to the model shape of the requested variant. The
// artifact must have been trained for that variant.
func NewModel(variant vehicle.Variant, art *Artifact) (Model, error) {
	if art == nil {
		return nil, fmt.Errorf("%w: nil artifact", ErrArtifactUnavailable)
	}
	if art.Variant != variant {
		return nil, fmt.Errorf("%w: artifact was trained for %q, not %q", ErrArtifactUnavailable, art.Variant, variant)
	}
	switch variant {
	case vehicle.VariantMileage:
		return &MileageModel{art: art}, nil
	case vehicle.VariantDays:
		return &DaysModel{art: art}, nil
	default:
		return nil, fmt.Errorf("%w: unknown variant %q", ErrArtifactUnavailable, variant)
	}
}

func checkScalar(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("regressor produced non-finite value %v", v)
	}
	if v < 0 {
		return fmt.Errorf("regressor produced negative value %.4f", v)
	}
	return nil
}
