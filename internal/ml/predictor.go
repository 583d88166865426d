package ml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"servicepredict/internal/features"
	"servicepredict/internal/vehicle"
)

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	PredictionsInc(variant, source string)
	FallbacksInc(variant, kind string)
	InferenceLatencyObserve(float64)
	ArtifactLoadObserve(float64)
	ArtifactAgeSet(float64)
}

// Source records whether a result came from the model or the heuristic.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Query is one prediction request as received at the process boundary.
// InputErr carries argument parsing failures; fields that failed to parse
// hold their zero value.
type Query struct {
	Variant     vehicle.Variant
	ModelSource string
	Request     vehicle.Request
	InputErr    error
}

// Result is the single scalar answer for a Query. Err is the model path
// failure that caused a fallback, nil for model results.
type Result struct {
	Variant         vehicle.Variant
	Value           float64
	Source          Source
	Err             error
	ArtifactVersion string
	Duration        time.Duration
}

// Reason is the failure kind behind a fallback result.
func (r Result) Reason() string {
	return Kind(r.Err)
}

// Stage is the model path step that failed, empty for model results.
func (r Result) Stage() Stage {
	var perr *PredictionError
	if errors.As(r.Err, &perr) {
		return perr.Stage
	}
	return ""
}

// Predictor drives Loader -> Encoder -> Engine and downgrades any failure
// to the fallback heuristic.
type Predictor struct {
	loader   ArtifactLoader
	encoder  *features.Encoder
	engine   Engine
	fallback *Fallback
	metrics  MetricsInterface
}

// Option customises a Predictor.
type Option func(*Predictor)

// WithLoader replaces the default filesystem/HTTP loader.
func WithLoader(l ArtifactLoader) Option {
	return func(p *Predictor) { p.loader = l }
}

// WithEncoder replaces the wall-clock encoder.
func WithEncoder(e *features.Encoder) Option {
	return func(p *Predictor) { p.encoder = e }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m MetricsInterface) Option {
	return func(p *Predictor) { p.metrics = m }
}

// New creates a Predictor that falls back to fb.
func New(fb *Fallback, opts ...Option) *Predictor {
	if fb == nil {
		fb = NewFallback(DefaultFallbackConfig())
	}
	p := &Predictor{
		loader:   NewLoader(DefaultFetchTimeout),
		encoder:  features.NewEncoder(),
		fallback: fb,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict always returns exactly one result.
func (p *Predictor) Predict(ctx context.Context, q Query) Result {
	start := time.Now()

	res, err := p.attempt(ctx, q)
	if err != nil {
		res = p.useFallback(q, res.ArtifactVersion, err)
	}
	res.Duration = time.Since(start)

	if p.metrics != nil {
		p.metrics.PredictionsInc(q.Variant.String(), string(res.Source))
	}
	return res
}

// attempt runs the model path. On failure the returned Result carries only
// what was learned before the failing stage.
func (p *Predictor) attempt(ctx context.Context, q Query) (res Result, err error) {
	stage := StageLoad
	defer func() {
		if r := recover(); r != nil {
			err = &PredictionError{Stage: stage, Err: fmt.Errorf("%w: panic: %v", ErrInferenceFailure, r)}
		}
	}()

	loadStart := time.Now()
	model, err := p.loader.Load(ctx, q.Variant, q.ModelSource)
	if p.metrics != nil {
		p.metrics.ArtifactLoadObserve(time.Since(loadStart).Seconds())
	}
	if err != nil {
		if !errors.Is(err, ErrArtifactUnavailable) {
			err = fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
		}
		return res, &PredictionError{Stage: StageLoad, Err: err}
	}

	art := model.Artifact()
	res.ArtifactVersion = art.Version
	if p.metrics != nil && !art.TrainedAt.IsZero() {
		p.metrics.ArtifactAgeSet(time.Since(art.TrainedAt).Seconds())
	}

	stage = StageEncode
	if q.InputErr != nil {
		ierr := q.InputErr
		if !errors.Is(ierr, ErrInput) {
			ierr = fmt.Errorf("%w: %v", ErrInput, ierr)
		}
		return res, &PredictionError{Stage: StageEncode, Err: ierr}
	}
	row, err := p.encoder.Encode(q.Variant, q.Request)
	if err != nil {
		return res, &PredictionError{Stage: StageEncode, Err: err}
	}

	stage = StageInfer
	inferStart := time.Now()
	v, err := p.engine.Infer(model, row)
	if p.metrics != nil {
		p.metrics.InferenceLatencyObserve(time.Since(inferStart).Seconds())
	}
	if err != nil {
		return res, &PredictionError{Stage: StageInfer, Err: err}
	}

	res.Variant = q.Variant
	res.Value = v
	res.Source = SourceModel
	return res, nil
}

// useFallback selects the fallback for the failure kind and computes it.
func (p *Predictor) useFallback(q Query, version string, err error) Result {
	var level zerolog.Level
	switch {
	case errors.Is(err, ErrArtifactUnavailable):
		level = zerolog.WarnLevel
	case errors.Is(err, ErrInput):
		level = zerolog.WarnLevel
	case errors.Is(err, ErrSchemaMismatch), errors.Is(err, ErrInferenceFailure):
		level = zerolog.ErrorLevel
	default:
		level = zerolog.ErrorLevel
		err = fmt.Errorf("%w: %w", ErrInferenceFailure, err)
	}

	value := p.fallback.Predict(q.Variant, q.Request)

	log.WithLevel(level).
		Err(err).
		Str("variant", q.Variant.String()).
		Str("kind", Kind(err)).
		Float64("fallback", value).
		Msg("model path failed, using fallback heuristic")

	if p.metrics != nil {
		p.metrics.FallbacksInc(q.Variant.String(), Kind(err))
	}

	return Result{
		Variant:         q.Variant,
		Value:           value,
		Source:          SourceFallback,
		Err:             err,
		ArtifactVersion: version,
	}
}
