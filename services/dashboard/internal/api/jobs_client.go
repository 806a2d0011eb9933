package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"jobhub/common/cache"
	"jobhub/common/telemetry"
	"jobhub/services/dashboard/internal/config"
	"jobhub/services/dashboard/internal/errors"
	"jobhub/services/dashboard/internal/models"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobhub/dashboard/api")

const (
	APIKeyHeader = "x-api-key"
	cacheKey     = "jobhub:remote:jobs"
	maxBodyBytes = 16 << 20
)

// JobSource is the remote job API. Failures are FETCH domain errors.
type JobSource interface {
	FetchRemoteJobs(ctx context.Context) ([]models.RawJob, error)
	// Invalidate drops any cached payload so the next fetch goes to the API.
	Invalidate(ctx context.Context) error
}

type jobSourceClient struct {
	client *http.Client
	logger *zap.Logger
	config *config.Config
	cache  cache.Cache
}

func NewJobSource(logger *zap.Logger, config *config.Config, c cache.Cache) JobSource {
	return &jobSourceClient{
		client: &http.Client{
			Timeout: config.JobsAPITimeout,
		},
		logger: logger,
		config: config,
		cache:  c,
	}
}

func (c *jobSourceClient) FetchRemoteJobs(ctx context.Context) ([]models.RawJob, error) {
	ctx, span := tracer.Start(ctx, "FetchRemoteJobs")
	defer span.End()

	var cached []byte
	err := c.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		c.logger.Debug("cache hit for remote jobs")
		return DecodePayload(cached)
	} else if !stderrors.Is(err, cache.ErrNotFound) {
		span.SetAttributes(telemetry.String("cache.result", "error"))
		span.RecordError(err)
		c.logger.Warn("cache error for remote jobs", zap.Error(err))
	} else {
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	}

	url := c.config.JobsAPIURL
	c.logger.Debug("fetching remote jobs", zap.String("url", url))
	span.SetAttributes(telemetry.String("http.url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Fetch("creating request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.JobsAPIKey != "" {
		req.Header.Set(APIKeyHeader, c.config.JobsAPIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("failed to execute request", zap.Error(err))
		return nil, errors.Fetch("executing request", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(
		telemetry.Int("http.status_code", resp.StatusCode),
		telemetry.String("http.method", http.MethodGet),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("unexpected status code", zap.Int("status_code", resp.StatusCode))
		return nil, errors.Fetch(fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		return nil, errors.Fetch("reading response", err)
	}

	raws, err := DecodePayload(body)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("failed to decode response", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(telemetry.Int("jobs.count", len(raws)))
	c.logger.Info("fetched remote jobs", zap.Int("count", len(raws)))

	if err := c.cache.Set(ctx, cacheKey, body, c.config.CacheTTL); err != nil {
		c.logger.Warn("failed to cache remote jobs", zap.Error(err))
	}

	return raws, nil
}

func (c *jobSourceClient) Invalidate(ctx context.Context) error {
	if err := c.cache.Delete(ctx, cacheKey); err != nil && !stderrors.Is(err, cache.ErrNotFound) {
		return err
	}
	return nil
}

// DecodePayload accepts either a bare array of job objects or an object with
// the array under "data". Other well-formed JSON yields no jobs; malformed
// JSON is a FETCH error. Non-object array elements are skipped.
func DecodePayload(body []byte) ([]models.RawJob, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Fetch("decoding response", err)
	}

	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		items, _ = v["data"].([]any)
	}

	raws := make([]models.RawJob, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			raws = append(raws, models.RawJob(obj))
		}
	}
	return raws, nil
}
