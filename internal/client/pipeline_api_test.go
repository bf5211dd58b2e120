package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfuse/console/internal/models"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) *PipelineAPI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api, err := NewPipelineAPI(server.URL, server.Client())
	require.NoError(t, err)
	return api
}

func TestNewPipelineAPIRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "not-a-url", "/relative"} {
		_, err := NewPipelineAPI(raw, nil)
		assert.Error(t, err, "url %q", raw)
	}
}

func TestCreatePipeline(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/pipelines", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("content-type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var input map[string]any
		require.NoError(t, json.Unmarshal(body, &input))
		assert.Equal(t, "postgres", input["source_connector"])
		// empty optional fields must be absent, not ""
		_, hasDescription := input["description"]
		assert.False(t, hasDescription)
		_, hasCron := input["schedule_cron"]
		assert.False(t, hasCron)

		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "name": "p", "status": "draft", "replication_mode": "full_table", "batch_size": 10000}`))
	})

	created, err := api.CreatePipeline(context.Background(), models.PipelineCreateInput{
		Name:                 "p",
		SourceConnector:      "postgres",
		SourceConfig:         map[string]any{"host": "db"},
		DestinationConnector: "bigquery",
		DestinationConfig:    map[string]any{"project_id": "x"},
		ReplicationMode:      models.ReplicationFullTable,
		BatchSize:            models.DefaultBatchSize,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
}

func TestValidateConnectorConfigInvalid(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/connectors/postgres/validate", r.URL.Path)
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "host is required"}`))
	})

	_, err := api.ValidateConnectorConfig(context.Background(), "postgres", map[string]any{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "host is required", apiErr.Message)
}

func TestValidateConnectorConfigValid(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Config map[string]any `json:"config"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.NotNil(t, payload.Config)

		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"name": "postgres", "valid": true}`))
	})

	result, err := api.ValidateConnectorConfig(context.Background(), "postgres", nil)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestErrorMessageFallsBackToStatus(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>nope</html>"))
	})

	_, err := api.GetPipeline(context.Background(), 1)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Contains(t, apiErr.Message, "502")
}

func TestDeletePipelineNoContent(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, api.DeletePipeline(context.Background(), 3))
}

func TestUpdatePipelinePartialPayload(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)

		body, _ := io.ReadAll(r.Body)
		var input map[string]any
		require.NoError(t, json.Unmarshal(body, &input))
		assert.Equal(t, "renamed", input["name"])
		_, hasStatus := input["status"]
		assert.False(t, hasStatus)

		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"id": 3, "name": "renamed", "status": "active", "replication_mode": "full_table", "batch_size": 500}`))
	})

	name := "renamed"
	updated, err := api.UpdatePipeline(context.Background(), 3, models.PipelineUpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
}

func TestListJobsFilter(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "failed", q.Get("status_filter"))
		assert.Equal(t, "9", q.Get("pipeline_id"))
		assert.Equal(t, "25", q.Get("limit"))

		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"jobs": [{"id": 1, "pipeline_id": 9, "status": "failed", "rows_synced": 0, "created_at": "2025-01-01T00:00:00Z"}], "total": 1}`))
	})

	jobs, err := api.ListJobs(context.Background(), JobFilter{
		Status:     models.JobStatusFailed,
		PipelineID: 9,
		Limit:      25,
	})
	require.NoError(t, err)
	require.Len(t, jobs.Jobs, 1)
	assert.Equal(t, models.JobStatusFailed, jobs.Jobs[0].Status)
}
