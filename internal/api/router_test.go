package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfuse/console/internal/catalog"
	"github.com/openfuse/console/internal/kv"
	"github.com/openfuse/console/internal/models"
	"github.com/openfuse/console/internal/service"
)

type staticCatalog struct{}

func (staticCatalog) ListConnectors(_ context.Context, capability models.Capability) []models.Connector {
	var out []models.Connector
	for _, c := range catalog.FallbackConnectors() {
		if capability == "" || c.HasCapability(capability) {
			out = append(out, c)
		}
	}
	return out
}

func (sc staticCatalog) Search(ctx context.Context, capability models.Capability, term string) []models.Connector {
	var out []models.Connector
	for _, c := range sc.ListConnectors(ctx, capability) {
		if c.Matches(term) {
			out = append(out, c)
		}
	}
	return out
}

func (sc staticCatalog) Get(ctx context.Context, name string) (models.Connector, bool) {
	for _, c := range sc.ListConnectors(ctx, "") {
		if c.Name == name {
			return c, true
		}
	}
	return models.Connector{}, false
}

type stubPipelineAPI struct {
	created models.Pipeline
}

func (s *stubPipelineAPI) CreatePipeline(_ context.Context, _ models.PipelineCreateInput) (models.Pipeline, error) {
	return s.created, nil
}

func (s *stubPipelineAPI) UpdatePipeline(_ context.Context, _ int64, _ models.PipelineUpdateInput) (models.Pipeline, error) {
	return s.created, nil
}

func (s *stubPipelineAPI) GetPipeline(_ context.Context, id int64) (models.Pipeline, error) {
	return models.Pipeline{ID: id}, nil
}

func (s *stubPipelineAPI) ValidateConnectorConfig(_ context.Context, name string, _ map[string]any) (models.ValidationResult, error) {
	return models.ValidationResult{Name: name, Valid: true}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	sessions := service.NewSessionManager(
		staticCatalog{},
		&stubPipelineAPI{created: models.Pipeline{ID: 77}},
		kv.NewMemoryStore(),
		time.Hour,
		log,
	)
	t.Cleanup(sessions.Shutdown)

	return NewRouter(log, staticCatalog{}, sessions)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthz(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodGet, "/api/v1/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListConnectors(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/connectors", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp connectorListResponse
	decodeInto(t, rec, &resp)
	assert.NotEmpty(t, resp.Connectors)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/connectors?capability=destination&search=warehouse", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &resp)
	require.NotEmpty(t, resp.Connectors)
	for _, c := range resp.Connectors {
		assert.True(t, c.HasCapability(models.CapabilityDestination))
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/connectors?capability=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetConnector(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/connectors/postgres", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var c models.Connector
	decodeInto(t, rec, &c)
	assert.Equal(t, "postgres", c.Name)
	assert.Equal(t, "PostgreSQL", c.Title)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/connectors/launchpad", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetConnectorForm(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/connectors/postgres/form", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp connectorFormResponse
	decodeInto(t, rec, &resp)
	assert.Equal(t, "postgres", resp.Connector)
	require.NotEmpty(t, resp.Fields)

	// field order follows the schema's declared property order
	assert.Equal(t, "host", resp.Fields[0].Name)
	passwordIdx := -1
	for i, f := range resp.Fields {
		if f.Name == "password" {
			passwordIdx = i
			break
		}
	}
	require.GreaterOrEqual(t, passwordIdx, 0)
	assert.Equal(t, "password", string(resp.Fields[passwordIdx].Widget))
	assert.True(t, resp.Fields[passwordIdx].Required)
}

func TestBuilderSessionFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/builder/sessions",
		createSessionRequest{Mode: "create"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var state sessionStateJSON
	decodeInto(t, rec, &state)
	require.NotEmpty(t, state.SessionID)
	assert.True(t, state.Ready)
	assert.Equal(t, 0, state.Step)
	assert.Equal(t, []string{"Connectors", "Configuration", "Review"}, state.StepLabels)
	assert.False(t, state.CanContinue)

	base := "/api/v1/builder/sessions/" + state.SessionID

	rec = doJSON(t, router, http.MethodPost, base+"/connector",
		selectConnectorRequest{Role: "source", Connector: "postgres"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/connector",
		selectConnectorRequest{Role: "destination", Connector: "snowflake"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &state)
	assert.True(t, state.CanContinue)
	assert.Equal(t, "PostgreSQL to Snowflake", state.Name)

	rec = doJSON(t, router, http.MethodPost, base+"/field",
		setFieldRequest{Role: "source", Field: "password", Value: "hunter2"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &state)

	// editable field keeps the secret, review preview masks it
	var passwordValue any
	for _, f := range state.Source.Fields {
		if f.Name == "password" {
			passwordValue = f.Value
		}
	}
	assert.Equal(t, "hunter2", passwordValue)
	require.NotNil(t, state.Review)
	assert.Equal(t, "********", state.Review.SourceConfig["password"])

	rec = doJSON(t, router, http.MethodPost, base+"/continue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &state)
	assert.Equal(t, 1, state.Step)

	rec = doJSON(t, router, http.MethodPost, base+"/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var validated validateResponse
	decodeInto(t, rec, &validated)
	assert.Equal(t, "ok", string(validated.Outcome))

	rec = doJSON(t, router, http.MethodPost, base+"/continue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &state)
	assert.Equal(t, 2, state.Step)
	assert.True(t, state.CanSubmit)

	rec = doJSON(t, router, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var submitted submitResponse
	decodeInto(t, rec, &submitted)
	assert.True(t, submitted.Saved)
	assert.Equal(t, int64(77), submitted.PipelineID)

	rec = doJSON(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionSettingsAndErrors(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/builder/sessions",
		createSessionRequest{Mode: "create"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var state sessionStateJSON
	decodeInto(t, rec, &state)
	base := "/api/v1/builder/sessions/" + state.SessionID

	name := "Nightly"
	mode := models.ReplicationIncrementalKey
	batch := 500
	rec = doJSON(t, router, http.MethodPost, base+"/settings",
		updateSettingsRequest{Name: &name, ReplicationMode: &mode, BatchSize: &batch})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &state)
	assert.Equal(t, "Nightly", state.Name)
	assert.Equal(t, models.ReplicationIncrementalKey, state.ReplicationMode)
	assert.Equal(t, 500, state.BatchSize)

	bad := models.ReplicationMode("sideways")
	rec = doJSON(t, router, http.MethodPost, base+"/settings",
		updateSettingsRequest{ReplicationMode: &bad})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/connector",
		selectConnectorRequest{Role: "source", Connector: "snowflake"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/builder/sessions",
		createSessionRequest{Mode: "sideways"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/builder/sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
