package ml

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"servicepredict/internal/features"
	"servicepredict/internal/vehicle"
)

var fixedNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func testEncoder() *features.Encoder {
	return &features.Encoder{Now: func() time.Time { return fixedNow }}
}

// linearMileageArtifact predicts mileage + 5000.7, plus 2000 for trucks.
func linearMileageArtifact() *Artifact {
	return &Artifact{
		Variant:   vehicle.VariantMileage,
		Version:   "test-mileage-1",
		TrainedAt: fixedNow.Add(-48 * time.Hour),
		Schema: features.Schema{
			Numeric: []string{features.ColMileage, features.ColLastServiceMileage, features.ColYear},
			Categorical: []features.CategoricalColumn{
				{Name: features.ColMake, Categories: []string{"Ford", "Toyota"}},
				{Name: features.ColModel, Categories: []string{"Hilux"}},
				{Name: features.ColFuelType, Categories: []string{"diesel", "petrol"}},
				{Name: features.ColVehicleType, Categories: []string{"sedan", "truck"}},
				{Name: features.ColColor, Categories: []string{"white"}},
			},
		},
		Regressor: Regressor{
			Kind:         RegressorLinear,
			Intercept:    5000.7,
			Coefficients: []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 2000, 0},
		},
	}
}

// forestDaysArtifact averages a mileage split and a service type split.
func forestDaysArtifact() *Artifact {
	return &Artifact{
		Variant: vehicle.VariantDays,
		Version: "test-days-1",
		Schema: features.Schema{
			Numeric: []string{features.ColYear, features.ColMileage, features.ColLastServiceMileage},
			Categorical: []features.CategoricalColumn{
				{Name: features.ColMake, Categories: []string{"Toyota"}},
				{Name: features.ColServiceType, Categories: []string{"oil_change", "tyres"}},
			},
		},
		Regressor: Regressor{
			Kind: RegressorForest,
			Trees: []Tree{
				{Nodes: []Node{
					{Feature: 1, Threshold: 50000, Left: 1, Right: 2},
					{Left: -1, Right: -1, Value: 120.5},
					{Left: -1, Right: -1, Value: 60},
				}},
				{Nodes: []Node{
					{Feature: 4, Threshold: 0.5, Left: 1, Right: 2},
					{Left: -1, Right: -1, Value: 200},
					{Left: -1, Right: -1, Value: 150.25},
				}},
			},
		},
	}
}

func truckRequest() vehicle.Request {
	return vehicle.Request{
		Attributes: vehicle.Attributes{
			Make:        "Toyota",
			Model:       "Hilux",
			Year:        2015,
			FuelType:    "diesel",
			VehicleType: "truck",
			Color:       "white",
		},
		State: vehicle.ServiceState{
			Mileage:            42000,
			LastServiceMileage: 35000,
			ServiceType:        "oil_change",
		},
	}
}

func writeArtifact(t *testing.T, art *Artifact) string {
	t.Helper()
	data, err := art.Encode()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), string(art.Variant)+"_model.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
