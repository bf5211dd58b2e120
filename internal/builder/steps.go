package builder

import (
	"context"
	"strings"

	"github.com/openfuse/console/internal/models"
)

// Back moves one step backwards. Always permitted, never below the first
// step, and never triggers validation.
func (b *Builder) Back() {
	if b.closed {
		return
	}
	if b.step > 0 {
		b.step--
	}
}

// CanContinue reports whether the forward action is currently actionable.
// On the connector selection step that means both roles are chosen; the
// control stays disabled otherwise rather than failing on click.
func (b *Builder) CanContinue() bool {
	if !b.ready || b.validating || b.submitting || b.onReviewStep() {
		return false
	}
	if b.mode == ModeCreate && b.step == 0 {
		_, okSource := b.connectorByName(b.sourceName)
		_, okDestination := b.connectorByName(b.destinationName)
		return okSource && okDestination
	}
	return true
}

// Continue advances one step. Leaving the configuration step requires both
// connector configurations to pass remote validation first; the step does
// not advance until validation succeeds. Returns whether the step changed.
func (b *Builder) Continue(ctx context.Context) bool {
	if b.closed || !b.CanContinue() {
		return false
	}

	if b.onConfigureStep() {
		if outcome := b.ValidateConfigs(ctx); !outcome.OK() {
			return false
		}
		if b.closed {
			return false
		}
	}

	if b.step < b.totalSteps()-1 {
		b.step++
		return true
	}
	return false
}

// CanSubmit mirrors the Review step's action availability: a non-blank name
// and no submission already in flight.
func (b *Builder) CanSubmit() bool {
	return b.ready && b.onReviewStep() && !b.submitting && strings.TrimSpace(b.name) != ""
}

// Submit performs the final create or update call. On success the draft is
// discarded (create mode) and the resulting pipeline ID is returned for the
// host to navigate to. On failure the workflow stays on Review with an
// error notice and remains resubmittable.
func (b *Builder) Submit(ctx context.Context) (int64, bool) {
	if b.closed || !b.CanSubmit() {
		return 0, false
	}

	source, okSource := b.connectorByName(b.sourceName)
	destination, okDestination := b.connectorByName(b.destinationName)
	if !okSource || !okDestination {
		b.setNotice(ToneError, "Select both connectors before submitting.")
		return 0, false
	}

	b.submitting = true
	defer func() { b.submitting = false }()
	b.notice = nil

	var (
		saved models.Pipeline
		err   error
	)
	if b.mode == ModeCreate {
		saved, err = b.api.CreatePipeline(ctx, b.createPayload(source, destination))
	} else {
		saved, err = b.api.UpdatePipeline(ctx, b.pipelineID, b.updatePayload())
	}

	if b.closed {
		return 0, false
	}
	if err != nil {
		b.setNotice(ToneError, apiErrorMessage(err, "Unable to save pipeline."))
		return 0, false
	}

	if b.mode == ModeCreate {
		b.discardDraft(ctx)
	} else {
		b.pipeline = &saved
	}
	return saved.ID, true
}

// createPayload assembles the creation request: name and description are
// trimmed, and empty optional fields are omitted entirely rather than sent
// as empty strings.
func (b *Builder) createPayload(source, destination models.Connector) models.PipelineCreateInput {
	return models.PipelineCreateInput{
		Name:                 strings.TrimSpace(b.name),
		Description:          strings.TrimSpace(b.description),
		SourceConnector:      source.Name,
		SourceConfig:         b.sourceConfig,
		DestinationConnector: destination.Name,
		DestinationConfig:    b.destinationConfig,
		ScheduleCron:         strings.TrimSpace(b.scheduleCron),
		ReplicationMode:      b.replicationMode,
		IncrementalKey:       strings.TrimSpace(b.incrementalKey),
		BatchSize:            b.batchSize,
	}
}

func (b *Builder) updatePayload() models.PipelineUpdateInput {
	name := strings.TrimSpace(b.name)
	input := models.PipelineUpdateInput{
		Name:              &name,
		SourceConfig:      b.sourceConfig,
		DestinationConfig: b.destinationConfig,
		ReplicationMode:   &b.replicationMode,
		BatchSize:         &b.batchSize,
	}
	if description := strings.TrimSpace(b.description); description != "" {
		input.Description = &description
	}
	if cron := strings.TrimSpace(b.scheduleCron); cron != "" {
		input.ScheduleCron = &cron
	}
	if key := strings.TrimSpace(b.incrementalKey); key != "" {
		input.IncrementalKey = &key
	}
	return input
}
