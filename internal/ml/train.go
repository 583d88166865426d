package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"servicepredict/internal/features"
	"servicepredict/internal/vehicle"
)

// DefaultRidgeLambda keeps the one-hot blocks identifiable without
// visibly shrinking the fit.
const DefaultRidgeLambda = 1e-6

// Sample is one labelled training observation.
type Sample struct {
	Make               string  `json:"make"`
	Model              string  `json:"model,omitempty"`
	Year               int     `json:"year"`
	FuelType           string  `json:"fuelType,omitempty"`
	VehicleType        string  `json:"vehicleType,omitempty"`
	Color              string  `json:"color,omitempty"`
	Mileage            float64 `json:"mileage"`
	LastServiceMileage float64 `json:"last_service_mileage"`
	ServiceType        string  `json:"service_type,omitempty"`
	Target             float64 `json:"target"`
}

// Request converts the sample's inputs into a prediction request.
func (s Sample) Request() vehicle.Request {
	return vehicle.Request{
		Attributes: vehicle.Attributes{
			Make:        s.Make,
			Model:       s.Model,
			Year:        s.Year,
			FuelType:    s.FuelType,
			VehicleType: s.VehicleType,
			Color:       s.Color,
		},
		State: vehicle.ServiceState{
			Mileage:            s.Mileage,
			LastServiceMileage: s.LastServiceMileage,
			ServiceType:        s.ServiceType,
		},
	}
}

// TrainOptions configures Train.
type TrainOptions struct {
	Variant vehicle.Variant
	Lambda  float64
	Version string
	Encoder *features.Encoder
	Now     func() time.Time
}

// TrainingSchema returns the column layout each variant is trained on.
func TrainingSchema(variant vehicle.Variant) (features.Schema, error) {
	switch variant {
	case vehicle.VariantMileage:
		return features.Schema{
			Numeric: []string{features.ColMileage, features.ColLastServiceMileage, features.ColYear},
			Categorical: []features.CategoricalColumn{
				{Name: features.ColMake}, {Name: features.ColModel}, {Name: features.ColFuelType},
				{Name: features.ColVehicleType}, {Name: features.ColColor},
			},
		}, nil
	case vehicle.VariantDays:
		return features.Schema{
			Numeric: []string{features.ColYear, features.ColMileage, features.ColLastServiceMileage},
			Categorical: []features.CategoricalColumn{
				{Name: features.ColMake}, {Name: features.ColServiceType},
			},
		}, nil
	}
	return features.Schema{}, fmt.Errorf("unknown variant %q", variant)
}

// Train fits a linear artifact by ridge least squares. Samples that fail
// validation are skipped.
func Train(samples []Sample, opts TrainOptions) (*Artifact, error) {
	schema, err := TrainingSchema(opts.Variant)
	if err != nil {
		return nil, err
	}
	enc := opts.Encoder
	if enc == nil {
		enc = features.NewEncoder()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	lambda := opts.Lambda
	if lambda <= 0 {
		lambda = DefaultRidgeLambda
	}

	rows := make([]features.Row, 0, len(samples))
	targets := make([]float64, 0, len(samples))
	for i, s := range samples {
		row, err := enc.Encode(opts.Variant, s.Request())
		if err != nil {
			log.Warn().Err(err).Int("sample", i).Msg("skipping training sample")
			continue
		}
		if math.IsNaN(s.Target) || math.IsInf(s.Target, 0) || s.Target < 0 {
			log.Warn().Int("sample", i).Float64("target", s.Target).Msg("skipping training sample with invalid target")
			continue
		}
		rows = append(rows, row)
		targets = append(targets, s.Target)
	}
	if len(rows) == 0 {
		return nil, errors.New("no usable training samples")
	}

	for i := range schema.Categorical {
		schema.Categorical[i].Categories = categories(rows, schema.Categorical[i].Name)
	}

	x := mat.NewDense(len(rows), schema.Width(), nil)
	for i, row := range rows {
		vec, err := schema.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		x.SetRow(i, vec)
	}

	intercept, coef, err := ridge(x, targets, lambda)
	if err != nil {
		return nil, err
	}

	version := opts.Version
	if version == "" {
		version = now().UTC().Format("20060102-150405")
	}
	art := &Artifact{
		Variant:   opts.Variant,
		Version:   version,
		TrainedAt: now().UTC(),
		Schema:    schema,
		Regressor: Regressor{
			Kind:         RegressorLinear,
			Intercept:    intercept,
			Coefficients: coef,
		},
	}
	if err := art.Validate(); err != nil {
		return nil, fmt.Errorf("trained artifact: %w", err)
	}

	log.Info().
		Str("variant", opts.Variant.String()).
		Str("version", version).
		Int("samples", len(rows)).
		Int("features", schema.Width()).
		Msg("artifact trained")
	return art, nil
}

// ridge solves min |y - b0 - Xb|^2 + lambda|b|^2 on standardised columns
// and maps the solution back to raw units. The intercept is not penalised.
func ridge(x *mat.Dense, y []float64, lambda float64) (float64, []float64, error) {
	n, p := x.Dims()

	means := make([]float64, p)
	scales := make([]float64, p)
	z := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		col := mat.Col(nil, j, x)
		var mean, sq float64
		for _, v := range col {
			mean += v
		}
		mean /= float64(n)
		for _, v := range col {
			sq += (v - mean) * (v - mean)
		}
		scale := math.Sqrt(sq / float64(n))
		if scale == 0 {
			scale = 1
		}
		means[j], scales[j] = mean, scale
		for i, v := range col {
			z.Set(i, j, (v-mean)/scale)
		}
	}

	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(n)
	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - yMean
	}

	var gram mat.SymDense
	gram.SymOuterK(1, z.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+lambda)
	}

	var zty mat.VecDense
	zty.MulVec(z.T(), mat.NewVecDense(n, yc))

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return 0, nil, errors.New("normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &zty); err != nil {
		return 0, nil, fmt.Errorf("solve normal equations: %w", err)
	}

	coef := make([]float64, p)
	intercept := yMean
	for j := 0; j < p; j++ {
		coef[j] = beta.AtVec(j) / scales[j]
		intercept -= coef[j] * means[j]
	}
	return intercept, coef, nil
}

func categories(rows []features.Row, column string) []string {
	seen := make(map[string]bool)
	for _, row := range rows {
		if c, ok := row.Lookup(column); ok {
			seen[c.Label] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
