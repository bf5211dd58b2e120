// Package api exposes the console's HTTP surface: connector catalogue
// browsing, rendered configuration forms, and the builder session
// endpoints driving the pipeline creation workflow.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openfuse/console/internal/models"
	"github.com/openfuse/console/internal/service"
)

// ConnectorCatalog is the catalogue surface the handlers need. Lookups
// never fail; a connector is either known or not.
type ConnectorCatalog interface {
	ListConnectors(ctx context.Context, capability models.Capability) []models.Connector
	Search(ctx context.Context, capability models.Capability, term string) []models.Connector
	Get(ctx context.Context, name string) (models.Connector, bool)
}

type handler struct {
	log *slog.Logger

	catalog  ConnectorCatalog
	sessions *service.SessionManager
}

func NewRouter(log *slog.Logger, catalog ConnectorCatalog, sessions *service.SessionManager) http.Handler {
	h := handler{
		log: log,

		catalog:  catalog,
		sessions: sessions,
	}

	r := mux.NewRouter()

	r.HandleFunc("/api/v1/healthz", h.healthz).Methods("GET")

	r.HandleFunc("/api/v1/connectors", h.listConnectors).Methods("GET")
	r.HandleFunc("/api/v1/connectors/{name}", h.getConnector).Methods("GET")
	r.HandleFunc("/api/v1/connectors/{name}/form", h.getConnectorForm).Methods("GET")

	r.HandleFunc("/api/v1/builder/sessions", h.createSession).Methods("POST")
	r.HandleFunc("/api/v1/builder/sessions/{id}", h.getSession).Methods("GET")
	r.HandleFunc("/api/v1/builder/sessions/{id}", h.closeSession).Methods("DELETE")
	r.HandleFunc("/api/v1/builder/sessions/{id}/connector", h.selectConnector).Methods("POST")
	r.HandleFunc("/api/v1/builder/sessions/{id}/field", h.setField).Methods("POST")
	r.HandleFunc("/api/v1/builder/sessions/{id}/settings", h.updateSettings).Methods("POST")
	r.HandleFunc("/api/v1/builder/sessions/{id}/validate", h.validateConfigs).Methods("POST")
	r.HandleFunc("/api/v1/builder/sessions/{id}/back", h.stepBack).Methods("POST")
	r.HandleFunc("/api/v1/builder/sessions/{id}/continue", h.stepContinue).Methods("POST")
	r.HandleFunc("/api/v1/builder/sessions/{id}/submit", h.submit).Methods("POST")

	r.Use(Recovery(log), RequestLogging(log))

	return r
}

func (*handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func parseCapability(raw string) (models.Capability, bool) {
	if raw == "" {
		return "", true
	}
	capability := models.Capability(raw)
	return capability, capability.Valid()
}
