package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/openfuse/console/internal/models"
	"github.com/openfuse/console/internal/schemaform"
)

var errConnectorsImmutable = fmt.Errorf("connector identities cannot change on an existing pipeline")

// SelectSource picks the source connector; create mode only.
func (b *Builder) SelectSource(ctx context.Context, name string) error {
	return b.selectConnector(ctx, RoleSource, name)
}

// SelectDestination picks the destination connector; create mode only.
func (b *Builder) SelectDestination(ctx context.Context, name string) error {
	return b.selectConnector(ctx, RoleDestination, name)
}

func (b *Builder) selectConnector(ctx context.Context, role Role, name string) error {
	if b.closed {
		return nil
	}
	if b.mode == ModeEdit {
		return errConnectorsImmutable
	}

	connector, ok := b.connectorByName(name)
	if !ok {
		return fmt.Errorf("unknown connector %q", name)
	}

	capability := models.CapabilitySource
	if role == RoleDestination {
		capability = models.CapabilityDestination
	}
	if !connector.HasCapability(capability) {
		return fmt.Errorf("connector %q cannot act as %s", name, role)
	}

	if role == RoleSource {
		b.sourceName = name
	} else {
		b.destinationName = name
	}

	b.maybeAutoName()
	b.persistDraft(ctx)
	return nil
}

// SetSourceField applies one raw form edit to the source configuration.
func (b *Builder) SetSourceField(ctx context.Context, field string, raw any) {
	if b.closed {
		return
	}
	b.sourceConfig = b.updateConfig(b.sourceName, b.sourceConfig, field, raw)
	b.persistDraft(ctx)
}

// SetDestinationField applies one raw form edit to the destination
// configuration.
func (b *Builder) SetDestinationField(ctx context.Context, field string, raw any) {
	if b.closed {
		return
	}
	b.destinationConfig = b.updateConfig(b.destinationName, b.destinationConfig, field, raw)
	b.persistDraft(ctx)
}

func (b *Builder) updateConfig(connectorName string, config map[string]any, field string, raw any) map[string]any {
	var schema *models.ConnectorSchema
	if connector, ok := b.connectorByName(connectorName); ok {
		schema = &connector.ConfigSchema
	}
	return schemaform.UpdateField(schema, config, field, raw)
}

// SetName records a manual name edit. Clearing the name re-arms
// auto-naming.
func (b *Builder) SetName(ctx context.Context, name string) {
	if b.closed {
		return
	}
	b.name = name
	b.maybeAutoName()
	b.persistDraft(ctx)
}

func (b *Builder) SetDescription(ctx context.Context, description string) {
	if b.closed {
		return
	}
	b.description = description
	b.persistDraft(ctx)
}

func (b *Builder) SetScheduleCron(ctx context.Context, cron string) {
	if b.closed {
		return
	}
	b.scheduleCron = cron
	b.persistDraft(ctx)
}

func (b *Builder) SetReplicationMode(ctx context.Context, mode models.ReplicationMode) error {
	if b.closed {
		return nil
	}
	if !mode.Valid() {
		return fmt.Errorf("unknown replication mode %q", mode)
	}
	b.replicationMode = mode
	b.persistDraft(ctx)
	return nil
}

func (b *Builder) SetIncrementalKey(ctx context.Context, key string) {
	if b.closed {
		return
	}
	b.incrementalKey = key
	b.persistDraft(ctx)
}

// SetBatchSize stores the batch size as entered. The minimum of 1 is an
// input hint, not a local gate; the server is authoritative.
func (b *Builder) SetBatchSize(ctx context.Context, size int) {
	if b.closed {
		return
	}
	b.batchSize = size
	b.persistDraft(ctx)
}

// maybeAutoName fills an empty name from the selected connector titles.
// It only fires while the trimmed name is empty, so a manual edit is never
// overwritten by a later connector change.
func (b *Builder) maybeAutoName() {
	if strings.TrimSpace(b.name) != "" {
		return
	}
	source, okSource := b.connectorByName(b.sourceName)
	destination, okDestination := b.connectorByName(b.destinationName)
	if !okSource || !okDestination {
		return
	}
	b.name = source.Title + " to " + destination.Title
}
