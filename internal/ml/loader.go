package ml

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"servicepredict/internal/vehicle"
)

// DefaultFetchTimeout bounds remote artifact downloads.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxArtifactSize caps how many bytes a single artifact may occupy.
const DefaultMaxArtifactSize int64 = 64 << 20

// Loader reads artifacts from the filesystem or, for http(s) sources, over
// the network. It keeps no state between loads.
type Loader struct {
	client  *resty.Client
	maxSize int64
}

// NewLoader returns a Loader whose remote fetches give up after timeout.
func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Loader{client: client, maxSize: DefaultMaxArtifactSize}
}

// SetMaxSize changes the artifact size cap. Non-positive values restore the
// default.
func (l *Loader) SetMaxSize(n int64) *Loader {
	if n <= 0 {
		n = DefaultMaxArtifactSize
	}
	l.maxSize = n
	return l
}

func (l *Loader) limit() int64 {
	if l.maxSize <= 0 {
		return DefaultMaxArtifactSize
	}
	return l.maxSize
}

// Load reads exactly one artifact from source and binds it to variant. Any
// failure wraps ErrArtifactUnavailable.
func (l *Loader) Load(ctx context.Context, variant vehicle.Variant, source string) (Model, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: empty artifact source", ErrArtifactUnavailable)
	}

	data, modTime, err := l.read(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactUnavailable, source, err)
	}

	art, err := DecodeArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactUnavailable, source, err)
	}
	if art.TrainedAt.IsZero() {
		art.TrainedAt = modTime
	}

	model, err := NewModel(variant, art)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("source", source).
		Str("variant", variant.String()).
		Str("version", art.Version).
		Str("regressor", art.Regressor.Kind).
		Int("features", art.Schema.Width()).
		Msg("artifact loaded")
	return model, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, time.Time, error) {
	if isRemote(source) {
		return l.fetch(ctx, source)
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, time.Time{}, err
	}
	if info.IsDir() {
		return nil, time.Time{}, errors.New("path is a directory")
	}
	if info.Size() > l.limit() {
		return nil, time.Time{}, fmt.Errorf("artifact is %d bytes, limit is %d", info.Size(), l.limit())
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, info.ModTime(), nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, time.Time, error) {
	client := l.client
	if client == nil {
		client = resty.New().SetTimeout(DefaultFetchTimeout)
	}

	resp, err := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("fetch: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return nil, time.Time{}, fmt.Errorf("fetch: unexpected status %d", resp.StatusCode())
	}

	capBytes := l.limit()
	if resp.RawResponse != nil && resp.RawResponse.ContentLength > capBytes {
		return nil, time.Time{}, fmt.Errorf("fetch: artifact is %d bytes, limit is %d", resp.RawResponse.ContentLength, capBytes)
	}
	data, err := io.ReadAll(io.LimitReader(body, capBytes+1))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("fetch: read body: %w", err)
	}
	if int64(len(data)) > capBytes {
		return nil, time.Time{}, fmt.Errorf("fetch: artifact exceeds %d bytes", capBytes)
	}

	var modTime time.Time
	if lm := resp.Header().Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			modTime = t
		}
	}
	return data, modTime, nil
}

func isRemote(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
