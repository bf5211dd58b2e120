// Package client talks to the external pipeline API. The console owns no
// pipeline state of its own; everything here is a thin, typed HTTP surface.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/openfuse/console/internal/models"
)

// APIError is a structured error from the pipeline API, carrying the
// server-provided message. Callers show the message verbatim; anything else
// (network failure, unexpected shape) stays a generic error.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type PipelineAPI struct {
	baseURL string
	http    *http.Client
}

func NewPipelineAPI(baseURL string, httpClient *http.Client) (*PipelineAPI, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid pipeline API URL %q", baseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &PipelineAPI{
		baseURL: trimmed,
		http:    httpClient,
	}, nil
}

func (c *PipelineAPI) CreatePipeline(ctx context.Context, input models.PipelineCreateInput) (models.Pipeline, error) {
	var out models.Pipeline
	err := c.do(ctx, http.MethodPost, "/api/v1/pipelines", input, &out)
	return out, err
}

func (c *PipelineAPI) UpdatePipeline(ctx context.Context, id int64, input models.PipelineUpdateInput) (models.Pipeline, error) {
	var out models.Pipeline
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/pipelines/%d", id), input, &out)
	return out, err
}

func (c *PipelineAPI) GetPipeline(ctx context.Context, id int64) (models.Pipeline, error) {
	var out models.Pipeline
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/pipelines/%d", id), nil, &out)
	return out, err
}

func (c *PipelineAPI) DeletePipeline(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/pipelines/%d", id), nil, nil)
}

func (c *PipelineAPI) RunPipeline(ctx context.Context, id int64) (models.Job, error) {
	var out models.Job
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/pipelines/%d/run", id), struct{}{}, &out)
	return out, err
}

func (c *PipelineAPI) ListPipelines(ctx context.Context, status models.PipelineStatus) (models.PipelineList, error) {
	path := "/api/v1/pipelines"
	if status != "" {
		path += "?status_filter=" + url.QueryEscape(string(status))
	}

	var out models.PipelineList
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *PipelineAPI) ListPipelineJobs(ctx context.Context, id int64) (models.JobList, error) {
	var out models.JobList
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/pipelines/%d/jobs", id), nil, &out)
	return out, err
}

// JobFilter narrows ListJobs; zero values mean "unfiltered".
type JobFilter struct {
	Status     models.JobStatus
	PipelineID int64
	Skip       int
	Limit      int
}

func (c *PipelineAPI) ListJobs(ctx context.Context, filter JobFilter) (models.JobList, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status_filter", string(filter.Status))
	}
	if filter.PipelineID > 0 {
		params.Set("pipeline_id", strconv.FormatInt(filter.PipelineID, 10))
	}
	if filter.Skip > 0 {
		params.Set("skip", strconv.Itoa(filter.Skip))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/api/v1/jobs"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out models.JobList
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// ValidateConnectorConfig asks the server to validate a working connector
// configuration. An invalid config comes back as an *APIError whose message
// is the single aggregate validation message.
func (c *PipelineAPI) ValidateConnectorConfig(ctx context.Context, connectorName string, config map[string]any) (models.ValidationResult, error) {
	if config == nil {
		config = map[string]any{}
	}
	body := struct {
		Config map[string]any `json:"config"`
	}{Config: config}

	var out models.ValidationResult
	err := c.do(ctx, http.MethodPost, "/api/v1/connectors/"+url.PathEscape(connectorName)+"/validate", body, &out)
	return out, err
}

func (c *PipelineAPI) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(payload, resp.Status),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// errorMessage extracts the server's human-readable message from an error
// body; it understands both {"detail": ...} and {"message": ...} shapes.
func errorMessage(payload []byte, fallback string) string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fallback
}
