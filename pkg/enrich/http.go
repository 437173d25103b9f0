package enrich

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/fluence-xyz/indexer/pkg/log"
	"github.com/fluence-xyz/indexer/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPMetadataFetcher fetches a token_uri document over HTTP, shaped
// like health.HTTPChecker: a context-scoped request with an explicit
// timeout and an explicit status-range check, rather than trusting
// http.Client's zero-value (no timeout at all).
type HTTPMetadataFetcher struct {
	Client *http.Client
	logger zerolog.Logger
}

// NewHTTPMetadataFetcher builds a fetcher bounding every request to
// timeout.
func NewHTTPMetadataFetcher(timeout time.Duration) *HTTPMetadataFetcher {
	return &HTTPMetadataFetcher{
		Client: &http.Client{Timeout: timeout},
		logger: log.WithComponent("enricher"),
	}
}

// Fetch performs the GET and validates the response (§4.7). Every
// outcome — transport error, non-2xx, bad JSON, missing fields — is
// reported through MetadataFetchTotal so operators can see enrichment
// health without the failure ever propagating past lift_token.
func (f *HTTPMetadataFetcher) Fetch(ctx context.Context, tokenURI string) (*Metadata, error) {
	requestID := uuid.New().String()
	logger := f.logger.With().Str("request_id", requestID).Str("token_uri", tokenURI).Logger()

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.MetadataFetchDuration)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURI, nil)
	if err != nil {
		metrics.MetadataFetchTotal.WithLabelValues("http_error").Inc()
		logger.Debug().Err(err).Msg("failed to build metadata request")
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		outcome := "http_error"
		if ctx.Err() != nil {
			outcome = "timeout"
		}
		metrics.MetadataFetchTotal.WithLabelValues(outcome).Inc()
		logger.Debug().Err(err).Msg("metadata fetch failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.MetadataFetchTotal.WithLabelValues("http_error").Inc()
		logger.Debug().Int("status", resp.StatusCode).Msg("metadata fetch returned non-2xx")
		return nil, ErrInvalidMetadata
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil || !json.Valid(raw) {
		metrics.MetadataFetchTotal.WithLabelValues("invalid").Inc()
		logger.Debug().Err(err).Msg("metadata document is not valid JSON")
		return nil, ErrInvalidMetadata
	}

	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		metrics.MetadataFetchTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidMetadata
	}
	m.Raw = raw

	if err := Validate(&m); err != nil {
		metrics.MetadataFetchTotal.WithLabelValues("invalid").Inc()
		logger.Debug().Msg("metadata document missing required fields")
		return nil, err
	}

	metrics.MetadataFetchTotal.WithLabelValues("ok").Inc()
	return &m, nil
}
