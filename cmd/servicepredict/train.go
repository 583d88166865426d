package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"servicepredict/internal/ml"
	"servicepredict/internal/vehicle"
)

type trainFlags struct {
	variant string
	samples string
	out     string
	version string
	lambda  float64
}

func (a *app) trainCmd() *cobra.Command {
	var f trainFlags
	cmd := &cobra.Command{
		Use:   "train --variant <mileage|days> --samples <file|-> [--out <artifact>]",
		Short: "Fit a linear artifact from labelled samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.train(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.variant, "variant", "", "prediction variant (mileage or days)")
	cmd.Flags().StringVar(&f.samples, "samples", "", "JSON array of samples, - for stdin")
	cmd.Flags().StringVar(&f.out, "out", "", "artifact output path (stdout when empty)")
	cmd.Flags().StringVar(&f.version, "version", "", "artifact version (defaults to the training timestamp)")
	cmd.Flags().Float64Var(&f.lambda, "lambda", ml.DefaultRidgeLambda, "ridge regularisation strength")
	_ = cmd.MarkFlagRequired("variant")
	_ = cmd.MarkFlagRequired("samples")
	return cmd
}

func (a *app) train(cmd *cobra.Command, f trainFlags) error {
	variant, err := vehicle.ParseVariant(f.variant)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	samples, err := readSamples(cmd.InOrStdin(), f.samples)
	if err != nil {
		return err
	}

	art, err := ml.Train(samples, ml.TrainOptions{
		Variant: variant,
		Lambda:  f.lambda,
		Version: f.version,
		Now:     a.now,
	})
	if err != nil {
		return fmt.Errorf("train %s: %w", variant, err)
	}

	data, err := art.Encode()
	if err != nil {
		return err
	}

	if f.out == "" {
		_, err = fmt.Fprintln(a.stdout, string(data))
		return err
	}
	if err := os.WriteFile(f.out, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	log.Info().Str("path", f.out).Str("version", art.Version).Msg("artifact written")
	return nil
}

func readSamples(stdin io.Reader, source string) ([]ml.Sample, error) {
	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}

	var samples []ml.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	return samples, nil
}
