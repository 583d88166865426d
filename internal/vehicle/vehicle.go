// Package vehicle defines the per-invocation request model for service
// interval prediction: the vehicle's attributes and its service state.
package vehicle

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidInput marks a request that is missing a required field or
// carries a malformed value.
var ErrInvalidInput = errors.New("invalid input")

// MaxMileage is the largest odometer reading accepted as real.
const MaxMileage = 1e9

// Variant selects the prediction target.
type Variant string

const (
	VariantMileage Variant = "mileage" // next service odometer reading
	VariantDays    Variant = "days"    // days until next service
)

// ParseVariant returns the variant named by s (case-insensitive).
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if !v.IsValid() {
		return "", fmt.Errorf("unknown variant %q", s)
	}
	return v, nil
}

// IsValid reports whether v is a known variant.
func (v Variant) IsValid() bool {
	switch v {
	case VariantMileage, VariantDays:
		return true
	}
	return false
}

func (v Variant) String() string {
	return string(v)
}

// FuelType is a lower-cased fuel label. Values outside the known set are
// kept as given.
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
)

// VehicleType is a lower-cased body style label.
type VehicleType string

const (
	TypeTruck     VehicleType = "truck"
	TypeSUV       VehicleType = "suv"
	TypeSedan     VehicleType = "sedan"
	TypeHatchback VehicleType = "hatchback"
)

// NormalizeFuel lower-cases and trims a fuel label.
func NormalizeFuel(s string) FuelType {
	return FuelType(strings.ToLower(strings.TrimSpace(s)))
}

// NormalizeType lower-cases and trims a body style label.
func NormalizeType(s string) VehicleType {
	return VehicleType(strings.ToLower(strings.TrimSpace(s)))
}

// Attributes are the immutable facts about the vehicle.
type Attributes struct {
	Make        string
	Model       string
	Year        int
	FuelType    string
	VehicleType string
	Color       string
}

// ServiceState is the odometer history. ServiceType is only used by the
// days variant.
type ServiceState struct {
	Mileage            float64
	LastServiceMileage float64
	ServiceType        string
}

// Request is one prediction request. It is built fresh for every
// invocation and never stored.
type Request struct {
	Attributes Attributes
	State      ServiceState
}

// MilesSinceLastService is the distance driven since the last service.
func (r Request) MilesSinceLastService() float64 {
	return r.State.Mileage - r.State.LastServiceMileage
}

// Validate checks that every field the variant needs is present and
// well-formed. The returned error wraps ErrInvalidInput.
func (r Request) Validate(variant Variant) error {
	var missing []string
	a, s := r.Attributes, r.State

	if strings.TrimSpace(a.Make) == "" {
		missing = append(missing, "make")
	}
	if a.Year <= 0 {
		missing = append(missing, "year")
	}
	switch variant {
	case VariantMileage:
		if strings.TrimSpace(a.Model) == "" {
			missing = append(missing, "model")
		}
		if strings.TrimSpace(a.FuelType) == "" {
			missing = append(missing, "fuelType")
		}
		if strings.TrimSpace(a.VehicleType) == "" {
			missing = append(missing, "vehicleType")
		}
		if strings.TrimSpace(a.Color) == "" {
			missing = append(missing, "color")
		}
	case VariantDays:
		if strings.TrimSpace(s.ServiceType) == "" {
			missing = append(missing, "serviceType")
		}
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidInput, variant)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}

	if !finite(s.Mileage) || !finite(s.LastServiceMileage) {
		return fmt.Errorf("%w: odometer readings must be finite", ErrInvalidInput)
	}
	if s.Mileage < 0 {
		return fmt.Errorf("%w: mileage %.0f is negative", ErrInvalidInput, s.Mileage)
	}
	if s.LastServiceMileage < 0 {
		return fmt.Errorf("%w: last service mileage %.0f is negative", ErrInvalidInput, s.LastServiceMileage)
	}
	if s.Mileage > MaxMileage || s.LastServiceMileage > MaxMileage {
		return fmt.Errorf("%w: odometer readings above %.0f are not plausible", ErrInvalidInput, float64(MaxMileage))
	}
	if s.LastServiceMileage > s.Mileage {
		return fmt.Errorf("%w: last service mileage %.0f exceeds current mileage %.0f",
			ErrInvalidInput, s.LastServiceMileage, s.Mileage)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
