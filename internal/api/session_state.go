package api

import (
	"github.com/openfuse/console/internal/builder"
	"github.com/openfuse/console/internal/models"
	"github.com/openfuse/console/internal/schemaform"
)

type noticeJSON struct {
	Tone    builder.Tone `json:"tone"`
	Message string       `json:"message"`
}

type connectorSideJSON struct {
	Connector string             `json:"connector,omitempty"`
	Fields    []schemaform.Field `json:"fields,omitempty"`
	Errors    map[string]string  `json:"errors,omitempty"`
}

type reviewJSON struct {
	SourceConfig      map[string]any `json:"source_config"`
	DestinationConfig map[string]any `json:"destination_config"`
}

// sessionStateJSON is the full renderable state of one builder session.
// Secrets only ever appear in the editable field values; the review block
// is always masked.
type sessionStateJSON struct {
	SessionID string       `json:"session_id"`
	Mode      builder.Mode `json:"mode"`
	Ready     bool         `json:"ready"`

	Step       int      `json:"step"`
	StepLabels []string `json:"step_labels"`

	Source      connectorSideJSON `json:"source"`
	Destination connectorSideJSON `json:"destination"`

	Name            string                 `json:"name"`
	Description     string                 `json:"description,omitempty"`
	ScheduleCron    string                 `json:"schedule_cron,omitempty"`
	ReplicationMode models.ReplicationMode `json:"replication_mode"`
	IncrementalKey  string                 `json:"incremental_key,omitempty"`
	BatchSize       int                    `json:"batch_size"`

	Review *reviewJSON `json:"review,omitempty"`

	Notice      *noticeJSON `json:"notice,omitempty"`
	Validating  bool        `json:"validating"`
	Submitting  bool        `json:"submitting"`
	CanContinue bool        `json:"can_continue"`
	CanSubmit   bool        `json:"can_submit"`
}

func sessionState(id string, b *builder.Builder) sessionStateJSON {
	state := sessionStateJSON{
		SessionID: id,
		Mode:      b.Mode(),
		Ready:     b.Ready(),

		Step:       b.Step(),
		StepLabels: b.StepLabels(),

		Source: connectorSideJSON{
			Connector: b.SourceConnectorName(),
			Fields:    b.SourceForm(),
			Errors:    b.SourceErrors(),
		},
		Destination: connectorSideJSON{
			Connector: b.DestinationConnectorName(),
			Fields:    b.DestinationForm(),
			Errors:    b.DestinationErrors(),
		},

		Name:            b.Name(),
		Description:     b.Description(),
		ScheduleCron:    b.ScheduleCron(),
		ReplicationMode: b.ReplicationMode(),
		IncrementalKey:  b.IncrementalKey(),
		BatchSize:       b.BatchSize(),

		Validating:  b.Validating(),
		Submitting:  b.Submitting(),
		CanContinue: b.CanContinue(),
		CanSubmit:   b.CanSubmit(),
	}

	if notice := b.Notice(); notice != nil {
		state.Notice = &noticeJSON{Tone: notice.Tone, Message: notice.Message}
	}

	if source, destination := b.ReviewPreview(); source != nil || destination != nil {
		state.Review = &reviewJSON{
			SourceConfig:      source,
			DestinationConfig: destination,
		}
	}

	return state
}
