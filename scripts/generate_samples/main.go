package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"servicepredict/internal/ml"
	"servicepredict/internal/vehicle"
)

type catalogEntry struct {
	make, model, vehicleType string
}

var catalog = []catalogEntry{
	{"Toyota", "Hilux", "truck"},
	{"Ford", "F-150", "truck"},
	{"Toyota", "RAV4", "suv"},
	{"Kia", "Sportage", "suv"},
	{"Honda", "Civic", "sedan"},
	{"BMW", "320i", "sedan"},
	{"Volkswagen", "Golf", "hatchback"},
	{"Renault", "Clio", "hatchback"},
}

var (
	fuels        = []string{"petrol", "diesel", "electric", "hybrid"}
	colors       = []string{"white", "black", "silver", "red", "blue"}
	serviceTypes = []string{"oil_change", "tyres", "brakes", "inspection"}
)

// Daily distance used to turn remaining miles into days, per service type.
var serviceDailyMiles = map[string]float64{
	"oil_change": 30,
	"tyres":      12,
	"brakes":     18,
	"inspection": 25,
}

func main() {
	var (
		variant = flag.String("variant", "mileage", "Prediction variant to generate samples for")
		count   = flag.Int("n", 500, "Number of samples")
		seed    = flag.Int64("seed", 1, "Random seed")
		noise   = flag.Float64("noise", 250, "Standard deviation of label noise (miles)")
		out     = flag.String("out", "", "Output file (stdout when empty)")
	)
	flag.Parse()

	v, err := vehicle.ParseVariant(*variant)
	if err != nil {
		log.Fatalf("Invalid variant: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Generating %d %s samples (seed %d)\n", *count, v, *seed)

	samples := generateSamples(rand.New(rand.NewSource(*seed)), v, *count, *noise)

	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode samples: %v", err)
	}

	if *out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("Failed to write samples: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d samples to %s\n", len(samples), *out)
}

// generateSamples labels synthetic vehicles with the fallback heuristic's
// interval plus gaussian noise, so a trained artifact starts out close to
// the rule tables.
func generateSamples(rng *rand.Rand, variant vehicle.Variant, n int, noise float64) []ml.Sample {
	fb := ml.NewFallback(ml.DefaultFallbackConfig())
	samples := make([]ml.Sample, 0, n)

	for i := 0; i < n; i++ {
		entry := catalog[rng.Intn(len(catalog))]
		year := 2005 + rng.Intn(21)
		mileage := math.Round(5000 + rng.Float64()*145000)
		since := math.Round(rng.Float64() * 9000)
		last := math.Max(0, mileage-since)

		s := ml.Sample{
			Make:               entry.make,
			Model:              entry.model,
			Year:               year,
			FuelType:           fuels[rng.Intn(len(fuels))],
			VehicleType:        entry.vehicleType,
			Color:              colors[rng.Intn(len(colors))],
			Mileage:            mileage,
			LastServiceMileage: last,
		}

		interval := fb.Interval(s.VehicleType, s.FuelType, s.Year) + rng.NormFloat64()*noise
		switch variant {
		case vehicle.VariantMileage:
			s.Target = math.Max(mileage, math.Round(last+interval))
		case vehicle.VariantDays:
			s.ServiceType = serviceTypes[rng.Intn(len(serviceTypes))]
			remaining := math.Max(0, last+interval-mileage)
			s.Target = math.Round(remaining / serviceDailyMiles[s.ServiceType])
		}
		samples = append(samples, s)
	}
	return samples
}
