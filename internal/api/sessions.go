package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openfuse/console/internal/builder"
	"github.com/openfuse/console/internal/models"
	"github.com/openfuse/console/internal/service"
)

type createSessionRequest struct {
	Mode       builder.Mode `json:"mode"`
	PipelineID int64        `json:"pipeline_id,omitempty"`
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, err := h.sessions.CreateSession(r.Context(), req.Mode, req.PipelineID)
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.withSession(w, s.ID, func(b *builder.Builder) error {
		jsonResponse(w, http.StatusCreated, sessionState(s.ID, b))
		return nil
	})
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	h.renderSession(w, r, func(*builder.Builder) error { return nil })
}

func (h *handler) closeSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.CloseSession(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

type selectConnectorRequest struct {
	Role      builder.Role `json:"role"`
	Connector string       `json:"connector"`
}

func (h *handler) selectConnector(w http.ResponseWriter, r *http.Request) {
	var req selectConnectorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.renderSession(w, r, func(b *builder.Builder) error {
		switch req.Role {
		case builder.RoleSource:
			return b.SelectSource(r.Context(), req.Connector)
		case builder.RoleDestination:
			return b.SelectDestination(r.Context(), req.Connector)
		default:
			return fmt.Errorf("unknown role %q", req.Role)
		}
	})
}

type setFieldRequest struct {
	Role  builder.Role `json:"role"`
	Field string       `json:"field"`
	Value any          `json:"value"`
}

func (h *handler) setField(w http.ResponseWriter, r *http.Request) {
	var req setFieldRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.renderSession(w, r, func(b *builder.Builder) error {
		switch req.Role {
		case builder.RoleSource:
			b.SetSourceField(r.Context(), req.Field, req.Value)
		case builder.RoleDestination:
			b.SetDestinationField(r.Context(), req.Field, req.Value)
		default:
			return fmt.Errorf("unknown role %q", req.Role)
		}
		return nil
	})
}

// updateSettingsRequest carries only the fields present in the request
// body; absent fields leave the session state untouched.
type updateSettingsRequest struct {
	Name            *string                 `json:"name,omitempty"`
	Description     *string                 `json:"description,omitempty"`
	ScheduleCron    *string                 `json:"schedule_cron,omitempty"`
	ReplicationMode *models.ReplicationMode `json:"replication_mode,omitempty"`
	IncrementalKey  *string                 `json:"incremental_key,omitempty"`
	BatchSize       *int                    `json:"batch_size,omitempty"`
}

func (h *handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.renderSession(w, r, func(b *builder.Builder) error {
		if req.Name != nil {
			b.SetName(r.Context(), *req.Name)
		}
		if req.Description != nil {
			b.SetDescription(r.Context(), *req.Description)
		}
		if req.ScheduleCron != nil {
			b.SetScheduleCron(r.Context(), *req.ScheduleCron)
		}
		if req.ReplicationMode != nil {
			if err := b.SetReplicationMode(r.Context(), *req.ReplicationMode); err != nil {
				return err
			}
		}
		if req.IncrementalKey != nil {
			b.SetIncrementalKey(r.Context(), *req.IncrementalKey)
		}
		if req.BatchSize != nil {
			b.SetBatchSize(r.Context(), *req.BatchSize)
		}
		return nil
	})
}

type validateResponse struct {
	Outcome builder.OutcomeKind `json:"outcome"`
	State   sessionStateJSON    `json:"state"`
}

func (h *handler) validateConfigs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.sessions.GetSession(id)
	if err != nil {
		h.sessionError(w, id, err)
		return
	}

	err = s.With(func(b *builder.Builder) error {
		outcome := b.ValidateConfigs(r.Context())
		jsonResponse(w, http.StatusOK, validateResponse{
			Outcome: outcome.Kind,
			State:   sessionState(id, b),
		})
		return nil
	})
	if err != nil {
		h.sessionError(w, id, err)
	}
}

func (h *handler) stepBack(w http.ResponseWriter, r *http.Request) {
	h.renderSession(w, r, func(b *builder.Builder) error {
		b.Back()
		return nil
	})
}

func (h *handler) stepContinue(w http.ResponseWriter, r *http.Request) {
	h.renderSession(w, r, func(b *builder.Builder) error {
		b.Continue(r.Context())
		return nil
	})
}

type submitResponse struct {
	PipelineID int64            `json:"pipeline_id,omitempty"`
	Saved      bool             `json:"saved"`
	State      sessionStateJSON `json:"state"`
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.sessions.GetSession(id)
	if err != nil {
		h.sessionError(w, id, err)
		return
	}

	err = s.With(func(b *builder.Builder) error {
		pipelineID, saved := b.Submit(r.Context())
		jsonResponse(w, http.StatusOK, submitResponse{
			PipelineID: pipelineID,
			Saved:      saved,
			State:      sessionState(id, b),
		})
		return nil
	})
	if err != nil {
		h.sessionError(w, id, err)
	}
}

// renderSession runs fn on the session's builder and responds with the
// resulting full session state. A non-nil error from fn becomes a 422
// without writing state.
func (h *handler) renderSession(w http.ResponseWriter, r *http.Request, fn func(*builder.Builder) error) {
	id := mux.Vars(r)["id"]
	s, err := h.sessions.GetSession(id)
	if err != nil {
		h.sessionError(w, id, err)
		return
	}

	err = s.With(func(b *builder.Builder) error {
		if err := fn(b); err != nil {
			return err
		}
		jsonResponse(w, http.StatusOK, sessionState(id, b))
		return nil
	})
	if err != nil {
		h.sessionError(w, id, err)
	}
}

func (h *handler) withSession(w http.ResponseWriter, id string, fn func(*builder.Builder) error) {
	s, err := h.sessions.GetSession(id)
	if err != nil {
		h.sessionError(w, id, err)
		return
	}
	if err := s.With(fn); err != nil {
		h.sessionError(w, id, err)
	}
}

func (h *handler) sessionError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionClosed):
		jsonError(w, http.StatusNotFound, fmt.Sprintf("builder session %q does not exist", id))
	default:
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
	}
}
