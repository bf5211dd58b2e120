package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openfuse/console/internal/models"
	"github.com/openfuse/console/internal/schemaform"
)

type connectorListResponse struct {
	Connectors []models.Connector `json:"connectors"`
}

func (h *handler) listConnectors(w http.ResponseWriter, r *http.Request) {
	capability, ok := parseCapability(r.URL.Query().Get("capability"))
	if !ok {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("unknown capability %q", r.URL.Query().Get("capability")))
		return
	}

	connectors := h.catalog.Search(r.Context(), capability, r.URL.Query().Get("search"))
	if connectors == nil {
		connectors = []models.Connector{}
	}
	jsonResponse(w, http.StatusOK, connectorListResponse{Connectors: connectors})
}

func (h *handler) getConnector(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	connector, ok := h.catalog.Get(r.Context(), name)
	if !ok {
		jsonError(w, http.StatusNotFound, fmt.Sprintf("connector %q does not exist", name))
		return
	}
	jsonResponse(w, http.StatusOK, connector)
}

type connectorFormResponse struct {
	Connector string             `json:"connector"`
	Fields    []schemaform.Field `json:"fields"`
}

// getConnectorForm renders the connector's configuration schema as an
// ordered field list with no values filled in.
func (h *handler) getConnectorForm(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	connector, ok := h.catalog.Get(r.Context(), name)
	if !ok {
		jsonError(w, http.StatusNotFound, fmt.Sprintf("connector %q does not exist", name))
		return
	}
	jsonResponse(w, http.StatusOK, connectorFormResponse{
		Connector: connector.Name,
		Fields:    schemaform.Render(&connector.ConfigSchema, nil),
	})
}
