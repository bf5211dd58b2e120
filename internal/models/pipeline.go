package models

type PipelineStatus string

const (
	PipelineStatusDraft   PipelineStatus = "draft"
	PipelineStatusActive  PipelineStatus = "active"
	PipelineStatusPaused  PipelineStatus = "paused"
	PipelineStatusFailed  PipelineStatus = "failed"
	PipelineStatusDeleted PipelineStatus = "deleted"
)

type ReplicationMode string

const (
	ReplicationFullTable      ReplicationMode = "full_table"
	ReplicationIncrementalKey ReplicationMode = "incremental_key"
	ReplicationLogBased       ReplicationMode = "log_based"
)

func (m ReplicationMode) Valid() bool {
	switch m {
	case ReplicationFullTable, ReplicationIncrementalKey, ReplicationLogBased:
		return true
	default:
		return false
	}
}

const DefaultBatchSize = 10000

// Pipeline is the server-owned pipeline record as returned by the pipeline
// API. The console reads it; the scheduler and workers live elsewhere.
type Pipeline struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	SourceConnector      string          `json:"source_connector"`
	SourceConfig         map[string]any  `json:"source_config"`
	DestinationConnector string          `json:"destination_connector"`
	DestinationConfig    map[string]any  `json:"destination_config"`
	ScheduleCron         string          `json:"schedule_cron,omitempty"`
	Status               PipelineStatus  `json:"status"`
	ReplicationMode      ReplicationMode `json:"replication_mode"`
	IncrementalKey       string          `json:"incremental_key,omitempty"`
	BatchSize            int             `json:"batch_size"`
	CreatedAt            string          `json:"created_at"`
	UpdatedAt            string          `json:"updated_at"`
}

type PipelineList struct {
	Pipelines []Pipeline `json:"pipelines"`
	Total     int        `json:"total"`
}

// PipelineCreateInput is the create payload. Optional string fields are
// omitted entirely when empty; the server expects absence, not "".
type PipelineCreateInput struct {
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	SourceConnector      string          `json:"source_connector"`
	SourceConfig         map[string]any  `json:"source_config"`
	DestinationConnector string          `json:"destination_connector"`
	DestinationConfig    map[string]any  `json:"destination_config"`
	ScheduleCron         string          `json:"schedule_cron,omitempty"`
	ReplicationMode      ReplicationMode `json:"replication_mode,omitempty"`
	IncrementalKey       string          `json:"incremental_key,omitempty"`
	BatchSize            int             `json:"batch_size,omitempty"`
}

// PipelineUpdateInput is a partial PATCH payload; nil fields are not sent.
type PipelineUpdateInput struct {
	Name              *string          `json:"name,omitempty"`
	Description       *string          `json:"description,omitempty"`
	SourceConfig      map[string]any   `json:"source_config,omitempty"`
	DestinationConfig map[string]any   `json:"destination_config,omitempty"`
	ScheduleCron      *string          `json:"schedule_cron,omitempty"`
	Status            *PipelineStatus  `json:"status,omitempty"`
	ReplicationMode   *ReplicationMode `json:"replication_mode,omitempty"`
	IncrementalKey    *string          `json:"incremental_key,omitempty"`
	BatchSize         *int             `json:"batch_size,omitempty"`
}

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

type Job struct {
	ID           int64     `json:"id"`
	PipelineID   int64     `json:"pipeline_id"`
	Status       JobStatus `json:"status"`
	RowsSynced   int64     `json:"rows_synced"`
	ErrorMessage string    `json:"error_message,omitempty"`
	StartedAt    string    `json:"started_at,omitempty"`
	CompletedAt  string    `json:"completed_at,omitempty"`
	CreatedAt    string    `json:"created_at"`
}

type JobList struct {
	Jobs  []Job `json:"jobs"`
	Total int   `json:"total"`
}

// ValidationResult is the pipeline API's answer to a connector config
// validation call. Invalid configs surface as an API error instead, carrying
// a single aggregate message.
type ValidationResult struct {
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
}
