// Package pipeline is the HTTP client for the remote generation pipeline.
package pipeline

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/metrics"
	"github.com/example/llmtxt/internal/ports/secondary"
)

// DefaultTimeout bounds a single pipeline call. Batches can be slow.
const DefaultTimeout = 120 * time.Second

// Pipeline endpoints, relative to the base URL.
const (
	stepPrepare  = "prepare_generation"
	stepBatch    = "process_batch"
	stepFinalize = "finalize"
)

// ErrNotConfigured is returned by every call when no base URL is set.
var ErrNotConfigured = errors.New("generation pipeline base URL is not configured")

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Client implements secondary.GenerationPipeline over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewClient creates a pipeline client. A non-positive timeout selects DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, collector *metrics.Collector, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if collector == nil {
		collector = metrics.NewCollector(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		metrics: collector,
		logger:  logging.Component(logger, "pipeline"),
	}
}

type prepareRequest struct {
	WebsiteURL string          `json:"websiteUrl"`
	OutputType string          `json:"outputType"`
	UserData   json.RawMessage `json:"userData"`
}

type prepareResponse struct {
	JobID string `json:"job_id"`
	Total int    `json:"total"`
}

type batchRequest struct {
	JobID string `json:"job_id"`
	Start int    `json:"start"`
	Size  int    `json:"size"`
}

type batchResponse struct {
	Processed int `json:"processed"`
}

type finalizeResponse struct {
	SummaryText string `json:"llms_text"`
	FullText    string `json:"llms_full_text"`
	ZipMode     bool   `json:"is_zip_mode"`
	ZipData     string `json:"zip_data"`
}

// Prepare registers a generation job for websiteURL.
func (c *Client) Prepare(ctx context.Context, websiteURL, outputType string) (*secondary.PreparedJob, error) {
	var out prepareResponse
	body := prepareRequest{WebsiteURL: websiteURL, OutputType: outputType, UserData: json.RawMessage("null")}
	if err := c.call(ctx, http.MethodPost, stepPrepare, nil, body, &out); err != nil {
		return nil, err
	}
	if out.JobID == "" {
		return nil, fmt.Errorf("%s: response carried no job_id", stepPrepare)
	}
	if out.Total < 0 {
		return nil, fmt.Errorf("%s: negative total %d", stepPrepare, out.Total)
	}
	return &secondary.PreparedJob{JobID: out.JobID, Total: out.Total}, nil
}

// ProcessBatch asks the pipeline to process size items from start. It returns
// the number of items processed so far.
func (c *Client) ProcessBatch(ctx context.Context, jobID string, start, size int) (int, error) {
	var out batchResponse
	if err := c.call(ctx, http.MethodPost, stepBatch, nil, batchRequest{JobID: jobID, Start: start, Size: size}, &out); err != nil {
		return 0, err
	}
	return out.Processed, nil
}

// Finalize fetches the job's output. Archive data arrives hex encoded.
func (c *Client) Finalize(ctx context.Context, jobID string) (*secondary.GenerationOutput, error) {
	var out finalizeResponse
	if err := c.call(ctx, http.MethodGet, stepFinalize, url.Values{"job_id": {jobID}}, nil, &out); err != nil {
		return nil, err
	}

	result := &secondary.GenerationOutput{
		SummaryText: out.SummaryText,
		FullText:    out.FullText,
		ZipMode:     out.ZipMode,
	}
	if out.ZipMode {
		data, err := hex.DecodeString(out.ZipData)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid zip_data: %w", stepFinalize, err)
		}
		result.ZipData = data
	}
	return result, nil
}

// call performs one JSON round trip and records its outcome.
func (c *Client) call(ctx context.Context, method, step string, query url.Values, in, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	status := "error"
	defer func() {
		c.metrics.PipelineRequests.WithLabelValues(step, status).Inc()
	}()

	endpoint := c.baseURL + "/" + step
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", step, err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("pipeline call",
		zap.String("step", step),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		status = fmt.Sprintf("%d", resp.StatusCode)
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, step, strings.TrimSpace(string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", step, err)
	}
	status = "ok"
	return nil
}

var _ secondary.GenerationPipeline = (*Client)(nil)
