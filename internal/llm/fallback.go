package llm

import (
	"context"

	"github.com/digital-twin-ai/platform/internal/observability/metrics"
	"github.com/digital-twin-ai/platform/pkg/logging"
)

// FallbackClient wraps a primary client with a fallback provider.
// If the primary fails, it automatically retries with the fallback.
type FallbackClient struct {
	primary  Client
	fallback Client
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
}

// NewFallbackClient creates a fallback-enabled client. If fallback is
// nil, only the primary provider is used.
func NewFallbackClient(primary, fallback Client, m *metrics.ChatMetrics, logger *logging.Logger) *FallbackClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{
		primary:  primary,
		fallback: fallback,
		metrics:  m,
		logger:   logger,
	}
}

// Complete sends the request to the primary client, retrying with the
// fallback on failure.
func (c *FallbackClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	c.logger.Warn("primary LLM failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)
	if c.fallback == nil {
		return Response{}, err
	}

	fallbackResp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return Response{}, fallbackErr
	}

	c.logger.Info("fallback LLM succeeded after primary failure")
	c.metrics.ObserveFallback()
	return fallbackResp, nil
}
