// Package builder implements the multi-step pipeline creation and editing
// workflow: connector selection, schema-driven configuration with
// server-side validation gating, draft persistence, and final submission.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openfuse/console/internal/kv"
	"github.com/openfuse/console/internal/models"
	"github.com/openfuse/console/internal/redact"
	"github.com/openfuse/console/internal/schemaform"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

type Role string

const (
	RoleSource      Role = "source"
	RoleDestination Role = "destination"
)

// FormErrorKey is the pseudo-field under which an aggregate validation
// message is stored; the server reports one message per connector, not
// per-field errors.
const FormErrorKey = "_form"

// CatalogLister resolves the available connectors; it never fails (the
// accessor falls back to a bundled catalogue).
type CatalogLister interface {
	ListConnectors(ctx context.Context, capability models.Capability) []models.Connector
}

// PipelineAPI is the slice of the external pipeline API the workflow needs.
type PipelineAPI interface {
	CreatePipeline(ctx context.Context, input models.PipelineCreateInput) (models.Pipeline, error)
	UpdatePipeline(ctx context.Context, id int64, input models.PipelineUpdateInput) (models.Pipeline, error)
	GetPipeline(ctx context.Context, id int64) (models.Pipeline, error)
	ValidateConnectorConfig(ctx context.Context, connectorName string, config map[string]any) (models.ValidationResult, error)
}

type Config struct {
	Mode       Mode
	PipelineID int64

	Catalog CatalogLister
	API     PipelineAPI
	Drafts  kv.Store
	Logger  *slog.Logger
}

// Builder owns one workflow session. It is not safe for concurrent use; the
// session layer serializes access, matching the single-writer ownership of
// the working configuration maps and the draft entry.
type Builder struct {
	mode       Mode
	pipelineID int64

	catalog CatalogLister
	api     PipelineAPI
	drafts  kv.Store
	log     *slog.Logger

	closed bool
	ready  bool

	connectors []models.Connector
	pipeline   *models.Pipeline

	step int

	sourceName        string
	destinationName   string
	sourceConfig      map[string]any
	destinationConfig map[string]any
	sourceErrors      map[string]string
	destinationErrors map[string]string

	name            string
	description     string
	scheduleCron    string
	replicationMode models.ReplicationMode
	incrementalKey  string
	batchSize       int

	notice     *Notice
	validating bool
	submitting bool
}

func New(cfg Config) (*Builder, error) {
	switch cfg.Mode {
	case ModeCreate, ModeEdit:
	default:
		return nil, fmt.Errorf("unknown builder mode %q", cfg.Mode)
	}
	if cfg.Mode == ModeEdit && cfg.PipelineID <= 0 {
		return nil, errors.New("edit mode requires a pipeline id")
	}
	if cfg.Catalog == nil || cfg.API == nil || cfg.Drafts == nil {
		return nil, errors.New("catalog, API, and draft store are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Builder{
		mode:       cfg.Mode,
		pipelineID: cfg.PipelineID,
		catalog:    cfg.Catalog,
		api:        cfg.API,
		drafts:     cfg.Drafts,
		log:        cfg.Logger,

		sourceConfig:      map[string]any{},
		destinationConfig: map[string]any{},
		sourceErrors:      map[string]string{},
		destinationErrors: map[string]string{},
		replicationMode:   models.ReplicationFullTable,
		batchSize:         models.DefaultBatchSize,
	}, nil
}

// Bootstrap loads the connector catalog and, depending on mode, either
// restores a saved draft or fetches the pipeline under edit. The two loads
// are independent reads and run concurrently in edit mode. Failures surface
// as a notice; Ready reports whether step content can be shown.
func (b *Builder) Bootstrap(ctx context.Context) {
	if b.closed {
		return
	}
	b.notice = nil

	if b.mode == ModeCreate {
		connectors := b.catalog.ListConnectors(ctx, "")
		if b.closed {
			return
		}
		b.connectors = connectors
		b.restoreDraft(ctx)
		b.maybeAutoName()
		b.ready = true
		return
	}

	var (
		wg         sync.WaitGroup
		connectors []models.Connector
		pipeline   models.Pipeline
		loadErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		connectors = b.catalog.ListConnectors(ctx, "")
	}()
	go func() {
		defer wg.Done()
		pipeline, loadErr = b.api.GetPipeline(ctx, b.pipelineID)
	}()
	wg.Wait()

	if b.closed {
		return
	}

	b.connectors = connectors
	if loadErr != nil {
		b.setNotice(ToneError, apiErrorMessage(loadErr, "Unable to load pipeline details."))
		return
	}

	b.pipeline = &pipeline
	b.sourceName = pipeline.SourceConnector
	b.destinationName = pipeline.DestinationConnector
	b.sourceConfig = cloneConfig(pipeline.SourceConfig)
	b.destinationConfig = cloneConfig(pipeline.DestinationConfig)
	b.name = pipeline.Name
	b.description = pipeline.Description
	b.scheduleCron = pipeline.ScheduleCron
	b.replicationMode = pipeline.ReplicationMode
	b.incrementalKey = pipeline.IncrementalKey
	if pipeline.BatchSize > 0 {
		b.batchSize = pipeline.BatchSize
	}
	b.ready = true
}

// Close marks the session as torn down: in-flight results are discarded and
// later mutations become no-ops.
func (b *Builder) Close() {
	b.closed = true
}

func (b *Builder) setNotice(tone Tone, message string) {
	b.notice = &Notice{Tone: tone, Message: message}
}

func (b *Builder) connectorByName(name string) (models.Connector, bool) {
	for _, c := range b.connectors {
		if c.Name == name {
			return c, true
		}
	}
	return models.Connector{}, false
}

func cloneConfig(config map[string]any) map[string]any {
	out := make(map[string]any, len(config))
	for k, v := range config {
		out[k] = v
	}
	return out
}

func (b *Builder) Mode() Mode           { return b.mode }
func (b *Builder) PipelineID() int64    { return b.pipelineID }
func (b *Builder) Ready() bool          { return b.ready }
func (b *Builder) Step() int            { return b.step }
func (b *Builder) Notice() *Notice      { return b.notice }
func (b *Builder) Validating() bool     { return b.validating }
func (b *Builder) Submitting() bool     { return b.submitting }
func (b *Builder) Name() string         { return b.name }
func (b *Builder) Description() string  { return b.description }
func (b *Builder) ScheduleCron() string { return b.scheduleCron }
func (b *Builder) IncrementalKey() string {
	return b.incrementalKey
}
func (b *Builder) ReplicationMode() models.ReplicationMode { return b.replicationMode }
func (b *Builder) BatchSize() int                          { return b.batchSize }

// StepLabels returns the workflow's step names: three in create mode, two in
// edit mode (connector identities are immutable once a pipeline exists).
func (b *Builder) StepLabels() []string {
	if b.mode == ModeCreate {
		return []string{"Connectors", "Configuration", "Review"}
	}
	return []string{"Configuration", "Review"}
}

func (b *Builder) totalSteps() int {
	return len(b.StepLabels())
}

func (b *Builder) onConfigureStep() bool {
	if b.mode == ModeCreate {
		return b.step == 1
	}
	return b.step == 0
}

func (b *Builder) onReviewStep() bool {
	return b.step == b.totalSteps()-1
}

func (b *Builder) SourceConnectorName() string      { return b.sourceName }
func (b *Builder) DestinationConnectorName() string { return b.destinationName }

func (b *Builder) SourceConnector() (models.Connector, bool) {
	return b.connectorByName(b.sourceName)
}

func (b *Builder) DestinationConnector() (models.Connector, bool) {
	return b.connectorByName(b.destinationName)
}

func (b *Builder) SourceConfig() map[string]any {
	return cloneConfig(b.sourceConfig)
}

func (b *Builder) DestinationConfig() map[string]any {
	return cloneConfig(b.destinationConfig)
}

func (b *Builder) SourceErrors() map[string]string {
	return cloneErrors(b.sourceErrors)
}

func (b *Builder) DestinationErrors() map[string]string {
	return cloneErrors(b.destinationErrors)
}

func cloneErrors(errs map[string]string) map[string]string {
	out := make(map[string]string, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}

// Options lists selectable connectors for a role, narrowed by a free-text
// search term matched against name, title, and tags.
func (b *Builder) Options(role Role, term string) []models.Connector {
	capability := models.CapabilitySource
	if role == RoleDestination {
		capability = models.CapabilityDestination
	}

	options := make([]models.Connector, 0, len(b.connectors))
	for _, c := range b.connectors {
		if !c.HasCapability(capability) {
			continue
		}
		if !c.Matches(term) {
			continue
		}
		options = append(options, c)
	}
	return options
}

// SourceForm renders the source connector's configuration form; nil when no
// source connector is selected.
func (b *Builder) SourceForm() []schemaform.Field {
	connector, ok := b.connectorByName(b.sourceName)
	if !ok {
		return nil
	}
	return schemaform.Render(&connector.ConfigSchema, b.sourceConfig)
}

func (b *Builder) DestinationForm() []schemaform.Field {
	connector, ok := b.connectorByName(b.destinationName)
	if !ok {
		return nil
	}
	return schemaform.Render(&connector.ConfigSchema, b.destinationConfig)
}

// ReviewPreview returns display-safe copies of both working configurations
// with secret fields redacted. Only the preview is masked; the live editable
// values keep the real secrets.
func (b *Builder) ReviewPreview() (source, destination map[string]any) {
	source = b.sourceConfig
	if connector, ok := b.connectorByName(b.sourceName); ok {
		source = redact.MaskConfig(&connector.ConfigSchema, b.sourceConfig)
	}
	destination = b.destinationConfig
	if connector, ok := b.connectorByName(b.destinationName); ok {
		destination = redact.MaskConfig(&connector.ConfigSchema, b.destinationConfig)
	}
	return source, destination
}
