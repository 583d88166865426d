package ml

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicepredict/internal/features"
	"servicepredict/internal/vehicle"
)

func mileageSamples() []Sample {
	makes := []string{"Ford", "Toyota", "Honda"}
	types := []string{"truck", "sedan", "suv"}
	fuels := []string{"diesel", "petrol", "hybrid"}

	var samples []Sample
	for i := 0; i < 30; i++ {
		mileage := 10000 + float64(i)*3700
		samples = append(samples, Sample{
			Make:               makes[i%3],
			Model:              "M" + makes[i%3],
			Year:               2010 + i%9,
			FuelType:           fuels[(i/3)%3],
			VehicleType:        types[(i/2)%3],
			Color:              []string{"red", "black"}[i%2],
			Mileage:            mileage,
			LastServiceMileage: mileage - 2500,
			Target:             mileage + 6000,
		})
	}
	return samples
}

func TestTrain_RecoversLinearRelation(t *testing.T) {
	art, err := Train(mileageSamples(), TrainOptions{
		Variant: vehicle.VariantMileage,
		Version: "fit-1",
		Encoder: testEncoder(),
		Now:     func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	require.NoError(t, art.Validate())

	assert.Equal(t, "fit-1", art.Version)
	assert.Equal(t, RegressorLinear, art.Regressor.Kind)
	assert.True(t, art.TrainedAt.Equal(fixedNow))

	m, err := NewModel(vehicle.VariantMileage, art)
	require.NoError(t, err)

	req := truckRequest()
	req.Attributes.Make = "Honda"
	req.State.Mileage = 55555
	req.State.LastServiceMileage = 53055
	row, err := testEncoder().Encode(vehicle.VariantMileage, req)
	require.NoError(t, err)

	v, err := Engine{}.Infer(m, row)
	require.NoError(t, err)
	assert.InDelta(t, 55555+6000, v, 1.0)
}

func TestTrain_LearnsSortedCategories(t *testing.T) {
	art, err := Train(mileageSamples(), TrainOptions{Variant: vehicle.VariantMileage, Encoder: testEncoder()})
	require.NoError(t, err)

	var makes []string
	for _, c := range art.Schema.Categorical {
		if c.Name == features.ColMake {
			makes = c.Categories
		}
	}
	assert.Equal(t, []string{"Ford", "Honda", "Toyota"}, makes)
	assert.NotEmpty(t, art.Version)
}

func TestTrain_DaysSchema(t *testing.T) {
	samples := []Sample{
		{Make: "Ford", Year: 2018, Mileage: 30000, LastServiceMileage: 25000, ServiceType: "oil_change", Target: 170},
		{Make: "Ford", Year: 2012, Mileage: 90000, LastServiceMileage: 85000, ServiceType: "tyres", Target: 95},
		{Make: "Kia", Year: 2021, Mileage: 12000, LastServiceMileage: 2000, ServiceType: "oil_change", Target: 200},
		{Make: "Kia", Year: 2016, Mileage: 60000, LastServiceMileage: 50000, ServiceType: "brakes", Target: 120},
	}

	art, err := Train(samples, TrainOptions{Variant: vehicle.VariantDays, Encoder: testEncoder()})
	require.NoError(t, err)
	assert.Equal(t, vehicle.VariantDays, art.Variant)
	assert.ElementsMatch(t, []string{
		features.ColYear, features.ColMileage, features.ColLastServiceMileage,
		features.ColMake, features.ColServiceType,
	}, art.Schema.Columns())

	// the fitted artifact round-trips through the loader and serves the days variant
	path := writeArtifact(t, art)
	p := newTestPredictor(&MockMetrics{})
	res := p.Predict(context.Background(), Query{Variant: vehicle.VariantDays, ModelSource: path, Request: truckRequest()})
	assert.Equal(t, art.Version, res.ArtifactVersion)
	assert.NotEqual(t, "artifact_unavailable", res.Reason())
}

func TestTrain_Errors(t *testing.T) {
	_, err := Train(mileageSamples(), TrainOptions{Variant: "weeks"})
	assert.Error(t, err)

	_, err = Train(nil, TrainOptions{Variant: vehicle.VariantMileage})
	assert.Error(t, err)

	invalid := []Sample{{Make: "Ford", Year: 2015, Mileage: 100, LastServiceMileage: 500, Target: 1000}}
	_, err = Train(invalid, TrainOptions{Variant: vehicle.VariantMileage})
	assert.Error(t, err, "every sample fails validation")
}
