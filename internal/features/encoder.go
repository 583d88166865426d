// Package features turns a vehicle.Request into the column layout a trained
// artifact expects and applies the artifact's trained column transform.
package features

import (
	"fmt"
	"time"

	"servicepredict/internal/vehicle"
)

// Column names shared with the training side.
const (
	ColMileage            = "mileage"
	ColLastServiceMileage = "last_service_mileage"
	ColMake               = "make"
	ColModel              = "model"
	ColYear               = "year"
	ColFuelType           = "fuelType"
	ColVehicleType        = "vehicleType"
	ColColor              = "color"
	ColServiceType        = "service_type"
	ColMilesSinceLast     = "miles_since_last"
	ColVehicleAge         = "vehicle_age"
)

// Kind tells numeric and categorical cells apart.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Cell is one named value of a feature row.
type Cell struct {
	Name  string
	Kind  Kind
	Num   float64
	Label string
}

// Row is an ordered feature row for a single request.
type Row struct {
	Cells []Cell
}

// Lookup returns the cell named name.
func (r Row) Lookup(name string) (Cell, bool) {
	for _, c := range r.Cells {
		if c.Name == name {
			return c, true
		}
	}
	return Cell{}, false
}

// Columns returns the row's column names in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		cols[i] = c.Name
	}
	return cols
}

func (r *Row) num(name string, v float64) {
	r.Cells = append(r.Cells, Cell{Name: name, Kind: Numeric, Num: v})
}

func (r *Row) cat(name, v string) {
	r.Cells = append(r.Cells, Cell{Name: name, Kind: Categorical, Label: v})
}

// Encoder builds feature rows. Now supplies the current year for the
// derived vehicle age; it defaults to time.Now.
type Encoder struct {
	Now func() time.Time
}

// NewEncoder returns an Encoder using the wall clock.
func NewEncoder() *Encoder {
	return &Encoder{Now: time.Now}
}

// Encode validates req and lays it out for the given variant. Validation
// failures wrap vehicle.ErrInvalidInput.
func (e *Encoder) Encode(variant vehicle.Variant, req vehicle.Request) (Row, error) {
	if err := req.Validate(variant); err != nil {
		return Row{}, err
	}

	a, s := req.Attributes, req.State
	var row Row
	switch variant {
	case vehicle.VariantMileage:
		row.Cells = make([]Cell, 0, 8)
		row.num(ColMileage, s.Mileage)
		row.num(ColLastServiceMileage, s.LastServiceMileage)
		row.cat(ColMake, a.Make)
		row.cat(ColModel, a.Model)
		row.num(ColYear, float64(a.Year))
		row.cat(ColFuelType, a.FuelType)
		row.cat(ColVehicleType, a.VehicleType)
		row.cat(ColColor, a.Color)
	case vehicle.VariantDays:
		row.Cells = make([]Cell, 0, 7)
		row.cat(ColMake, a.Make)
		row.num(ColYear, float64(a.Year))
		row.num(ColMileage, s.Mileage)
		row.num(ColLastServiceMileage, s.LastServiceMileage)
		row.cat(ColServiceType, s.ServiceType)
		row.num(ColMilesSinceLast, req.MilesSinceLastService())
		row.num(ColVehicleAge, float64(e.now().Year()-a.Year))
	default:
		return Row{}, fmt.Errorf("%w: unknown variant %q", vehicle.ErrInvalidInput, variant)
	}
	return row, nil
}

func (e *Encoder) now() time.Time {
	if e == nil || e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
