package builder

import (
	"context"
	"errors"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/openfuse/console/internal/kv"
	"github.com/openfuse/console/internal/models"
)

// DraftKey is the fixed draft store key. One draft per store: the console
// assumes a single user working on one pipeline at a time.
const DraftKey = "openfuse.pipelineDraft.v1"

type draft struct {
	SourceConnectorName      string                 `json:"sourceConnectorName,omitempty"`
	DestinationConnectorName string                 `json:"destinationConnectorName,omitempty"`
	SourceConfig             map[string]any         `json:"sourceConfig,omitempty"`
	DestinationConfig        map[string]any         `json:"destinationConfig,omitempty"`
	Name                     string                 `json:"name,omitempty"`
	Description              string                 `json:"description,omitempty"`
	ScheduleCron             string                 `json:"scheduleCron,omitempty"`
	ReplicationMode          models.ReplicationMode `json:"replicationMode,omitempty"`
	IncrementalKey           string                 `json:"incrementalKey,omitempty"`
	BatchSize                int                    `json:"batchSize,omitempty"`
}

// persistDraft overwrites the draft entry with the full workflow state.
// Create mode only; editing an existing pipeline never touches the draft.
// Store failures are logged and otherwise ignored: losing a draft write must
// not break the workflow.
func (b *Builder) persistDraft(ctx context.Context) {
	if b.mode != ModeCreate {
		return
	}

	encoded, err := json.Marshal(draft{
		SourceConnectorName:      b.sourceName,
		DestinationConnectorName: b.destinationName,
		SourceConfig:             b.sourceConfig,
		DestinationConfig:        b.destinationConfig,
		Name:                     b.name,
		Description:              b.description,
		ScheduleCron:             b.scheduleCron,
		ReplicationMode:          b.replicationMode,
		IncrementalKey:           b.incrementalKey,
		BatchSize:                b.batchSize,
	})
	if err != nil {
		b.log.Warn("failed to encode pipeline draft", slog.Any("error", err))
		return
	}

	if err := b.drafts.Put(ctx, DraftKey, string(encoded)); err != nil {
		b.log.Warn("failed to persist pipeline draft", slog.Any("error", err))
	}
}

// restoreDraft seeds the workflow from a previously saved draft. A missing
// or unparseable entry is treated as "no draft".
func (b *Builder) restoreDraft(ctx context.Context) {
	raw, err := b.drafts.Get(ctx, DraftKey)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			b.log.Warn("failed to read pipeline draft", slog.Any("error", err))
		}
		return
	}

	var saved draft
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		b.log.Warn("ignoring corrupt pipeline draft", slog.Any("error", err))
		return
	}

	b.sourceName = saved.SourceConnectorName
	b.destinationName = saved.DestinationConnectorName
	b.sourceConfig = cloneConfig(saved.SourceConfig)
	b.destinationConfig = cloneConfig(saved.DestinationConfig)
	b.name = saved.Name
	b.description = saved.Description
	b.scheduleCron = saved.ScheduleCron
	if saved.ReplicationMode.Valid() {
		b.replicationMode = saved.ReplicationMode
	}
	b.incrementalKey = saved.IncrementalKey
	if saved.BatchSize > 0 {
		b.batchSize = saved.BatchSize
	}
}

// discardDraft removes the draft entry after a successful creation.
func (b *Builder) discardDraft(ctx context.Context) {
	if err := b.drafts.Delete(ctx, DraftKey); err != nil {
		b.log.Warn("failed to discard pipeline draft", slog.Any("error", err))
	}
}
