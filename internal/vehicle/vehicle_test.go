package vehicle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		Attributes: Attributes{
			Make: "Toyota", Model: "Hilux", Year: 2015,
			FuelType: "diesel", VehicleType: "truck", Color: "white",
		},
		State: ServiceState{Mileage: 42000, LastServiceMileage: 35000, ServiceType: "oil_change"},
	}
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" Mileage ")
	require.NoError(t, err)
	assert.Equal(t, VariantMileage, v)

	v, err = ParseVariant("DAYS")
	require.NoError(t, err)
	assert.Equal(t, VariantDays, v)

	_, err = ParseVariant("weeks")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, FuelDiesel, NormalizeFuel(" Diesel"))
	assert.Equal(t, TypeSUV, NormalizeType("SUV "))
	assert.Equal(t, FuelType("lpg"), NormalizeFuel("LPG"), "unknown labels are kept")
}

func TestRequest_MilesSinceLastService(t *testing.T) {
	assert.Equal(t, 7000.0, validRequest().MilesSinceLastService())
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		variant Variant
		mutate  func(r *Request)
		wantErr bool
	}{
		{"valid mileage", VariantMileage, func(*Request) {}, false},
		{"valid days", VariantDays, func(*Request) {}, false},
		{"days ignores color", VariantDays, func(r *Request) { r.Attributes.Color = "" }, false},
		{"mileage ignores service type", VariantMileage, func(r *Request) { r.State.ServiceType = "" }, false},
		{"equal readings", VariantMileage, func(r *Request) { r.State.LastServiceMileage = 42000 }, false},
		{"missing make", VariantMileage, func(r *Request) { r.Attributes.Make = " " }, true},
		{"missing year", VariantDays, func(r *Request) { r.Attributes.Year = 0 }, true},
		{"missing model", VariantMileage, func(r *Request) { r.Attributes.Model = "" }, true},
		{"missing fuel", VariantMileage, func(r *Request) { r.Attributes.FuelType = "" }, true},
		{"missing vehicle type", VariantMileage, func(r *Request) { r.Attributes.VehicleType = "" }, true},
		{"missing service type", VariantDays, func(r *Request) { r.State.ServiceType = "" }, true},
		{"negative mileage", VariantMileage, func(r *Request) { r.State.Mileage = -1; r.State.LastServiceMileage = -2 }, true},
		{"negative last service", VariantDays, func(r *Request) { r.State.LastServiceMileage = -1 }, true},
		{"last service ahead of odometer", VariantMileage, func(r *Request) { r.State.LastServiceMileage = 50000 }, true},
		{"NaN mileage", VariantDays, func(r *Request) { r.State.Mileage = math.NaN() }, true},
		{"infinite mileage", VariantMileage, func(r *Request) { r.State.Mileage = math.Inf(1) }, true},
		{"implausible mileage", VariantMileage, func(r *Request) { r.State.Mileage = 1e300 }, true},
		{"mileage at the limit", VariantMileage, func(r *Request) { r.State.Mileage = MaxMileage }, false},
		{"unknown variant", Variant("weeks"), func(*Request) {}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			err := r.Validate(tt.variant)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequest_ValidateListsMissingFields(t *testing.T) {
	r := Request{}
	err := r.Validate(VariantMileage)
	require.Error(t, err)
	for _, field := range []string{"make", "year", "model", "fuelType", "vehicleType", "color"} {
		assert.Contains(t, err.Error(), field)
	}
}
