package ml

import (
	"math"

	"servicepredict/internal/vehicle"
)

// FallbackConfig holds the rule tables of the fallback heuristic.
type FallbackConfig struct {
	// BaseIntervals is the service interval in miles per body style.
	BaseIntervals   map[vehicle.VehicleType]float64
	DefaultInterval float64

	// FuelBonuses extends the interval per fuel type. Missing types add 0.
	FuelBonuses map[vehicle.FuelType]float64

	// The year factor is (year-YearPivot)/YearSpan + 1 clamped to
	// [MinYearFactor, MaxYearFactor].
	YearPivot     int
	YearSpan      float64
	MinYearFactor float64
	MaxYearFactor float64

	// DefaultDays is the days variant answer.
	DefaultDays float64
}

// DefaultFallbackConfig returns the production rule tables.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		BaseIntervals: map[vehicle.VehicleType]float64{
			vehicle.TypeTruck:     7500,
			vehicle.TypeSUV:       6000,
			vehicle.TypeSedan:     5000,
			vehicle.TypeHatchback: 4500,
		},
		DefaultInterval: 5000,
		FuelBonuses: map[vehicle.FuelType]float64{
			vehicle.FuelDiesel:   1500,
			vehicle.FuelElectric: 2500,
			vehicle.FuelHybrid:   1000,
		},
		YearPivot:     2015,
		YearSpan:      10,
		MinYearFactor: 0.8,
		MaxYearFactor: 1.2,
		DefaultDays:   180,
	}
}

// Fallback computes model-free predictions. Every method is a total
// function of its inputs.
type Fallback struct {
	cfg FallbackConfig
}

// NewFallback returns a heuristic over cfg.
func NewFallback(cfg FallbackConfig) *Fallback {
	return &Fallback{cfg: cfg}
}

// Config returns the rule tables in use.
func (f *Fallback) Config() FallbackConfig {
	return f.cfg
}

// Predict dispatches to the variant's rule.
func (f *Fallback) Predict(variant vehicle.Variant, req vehicle.Request) float64 {
	if variant == vehicle.VariantDays {
		return f.Days(req)
	}
	return f.Mileage(req)
}

// Mileage returns the odometer reading at which the next service is due,
// truncated to whole miles.
func (f *Fallback) Mileage(req vehicle.Request) float64 {
	a := req.Attributes
	interval := f.Interval(a.VehicleType, a.FuelType, a.Year)
	return math.Trunc(odometer(req.State.Mileage) + interval)
}

// odometer maps readings that cannot be real (NaN, infinite, negative or
// above vehicle.MaxMileage) to 0.
func odometer(m float64) float64 {
	if math.IsNaN(m) || m < 0 || m > vehicle.MaxMileage {
		return 0
	}
	return m
}

// Days returns the flat days-until-service default.
func (f *Fallback) Days(vehicle.Request) float64 {
	return f.cfg.DefaultDays
}

// Interval is the year-adjusted service interval for a vehicle.
func (f *Fallback) Interval(vehicleType, fuelType string, year int) float64 {
	base, ok := f.cfg.BaseIntervals[vehicle.NormalizeType(vehicleType)]
	if !ok {
		base = f.cfg.DefaultInterval
	}
	bonus := f.cfg.FuelBonuses[vehicle.NormalizeFuel(fuelType)]
	return (base + bonus) * f.YearFactor(year)
}

// YearFactor scales the interval for newer vehicles.
func (f *Fallback) YearFactor(year int) float64 {
	span := f.cfg.YearSpan
	if span == 0 {
		span = 1
	}
	factor := float64(year-f.cfg.YearPivot)/span + 1
	return math.Max(f.cfg.MinYearFactor, math.Min(f.cfg.MaxYearFactor, factor))
}
