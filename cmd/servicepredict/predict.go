package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"servicepredict/internal/metrics"
	"servicepredict/internal/ml"
	"servicepredict/internal/storage"
	"servicepredict/internal/vehicle"
)

const (
	mileageArgCount = 9
	daysArgCount    = 6
)

func (a *app) mileageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mileage <modelPath> <mileage> <lastServiceMileage> <make> <model> <year> <fuelType> <vehicleType> <color>",
		Short: "Predict the odometer reading of the next service",
		// Arguments are positional values, and negative numbers must reach
		// validation instead of being read as flags.
		DisableFlagParsing: true,
		Args:               exactArgs(mileageArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.predict(cmd, vehicle.VariantMileage, args)
		},
	}
}

func (a *app) daysCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "days <modelPath> <currentMileage> <lastServiceMileage> <serviceType> <make> <year>",
		Short:              "Predict the number of days until the next service",
		DisableFlagParsing: true,
		Args:               exactArgs(daysArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.predict(cmd, vehicle.VariantDays, args)
		},
	}
}

func (a *app) predict(cmd *cobra.Command, variant vehicle.Variant, args []string) error {
	q := parseQuery(variant, args)

	p := ml.New(ml.NewFallback(a.settings.FallbackConfig()),
		ml.WithLoader(ml.NewLoader(a.settings.ArtifactTimeout)),
		ml.WithMetrics(metrics.NewWrapper(a.metrics)),
	)
	res := p.Predict(cmd.Context(), q)

	if res.Source == ml.SourceFallback {
		fmt.Fprintf(a.stderr, "fallback: %v\n", res.Err)
	}
	fmt.Fprintln(a.stdout, formatValue(res))

	a.record(res)
	a.flushMetrics()
	return nil
}

// parseQuery maps positional arguments onto a request. Fields that fail to
// parse keep their zero value and are reported through Query.InputErr.
func parseQuery(variant vehicle.Variant, args []string) ml.Query {
	var p argParser
	q := ml.Query{Variant: variant, ModelSource: args[0]}

	switch variant {
	case vehicle.VariantMileage:
		q.Request = vehicle.Request{
			Attributes: vehicle.Attributes{
				Make:        args[3],
				Model:       args[4],
				Year:        p.integer("year", args[5]),
				FuelType:    args[6],
				VehicleType: args[7],
				Color:       args[8],
			},
			State: vehicle.ServiceState{
				Mileage:            p.number("mileage", args[1]),
				LastServiceMileage: p.number("lastServiceMileage", args[2]),
			},
		}
	case vehicle.VariantDays:
		q.Request = vehicle.Request{
			Attributes: vehicle.Attributes{
				Make: args[4],
				Year: p.integer("year", args[5]),
			},
			State: vehicle.ServiceState{
				Mileage:            p.number("currentMileage", args[1]),
				LastServiceMileage: p.number("lastServiceMileage", args[2]),
				ServiceType:        args[3],
			},
		}
	}

	q.InputErr = p.err()
	return q
}

type argParser struct {
	errs []error
}

func (p *argParser) number(name, s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s %q is not a number", name, s))
		return 0
	}
	return v
}

func (p *argParser) integer(name, s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s %q is not an integer", name, s))
		return 0
	}
	return v
}

func (p *argParser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", vehicle.ErrInvalidInput, errors.Join(p.errs...))
}

// formatValue renders mileage as an integer and days in shortest form.
func formatValue(res ml.Result) string {
	if res.Variant == vehicle.VariantMileage {
		return strconv.FormatInt(int64(res.Value), 10)
	}
	return strconv.FormatFloat(res.Value, 'f', -1, 64)
}

func (a *app) record(res ml.Result) {
	j := a.openJournal()
	if j == nil {
		return
	}
	defer j.Close()

	rec := storage.Record{
		Timestamp:       a.now(),
		Variant:         res.Variant.String(),
		Value:           res.Value,
		Source:          string(res.Source),
		Kind:            res.Reason(),
		Stage:           string(res.Stage()),
		ArtifactVersion: res.ArtifactVersion,
		DurationMS:      float64(res.Duration.Microseconds()) / 1000,
	}
	if err := j.Append(rec); err != nil {
		log.Warn().Err(err).Msg("failed to journal prediction")
	}
}
