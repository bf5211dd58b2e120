// Package catalog resolves the set of available connectors. The connector
// registry lives in the pipeline API; when it is unreachable or returns
// garbage, the accessor falls back to the embedded catalogue so the console
// always has a non-empty connector list.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"

	"github.com/openfuse/console/internal/models"
)

const (
	connectorsPath = "/api/v1/connectors"

	fetchAttempts = 3
	fetchDelay    = 250 * time.Millisecond
)

type Accessor struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewAccessor builds a catalog accessor for the given API base URL. An empty
// or unparseable base URL is allowed; the accessor then serves the embedded
// fallback only.
func NewAccessor(baseURL string, httpClient *http.Client, log *slog.Logger) *Accessor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Accessor{
		baseURL: normalizeBaseURL(baseURL, log),
		http:    httpClient,
		log:     log,
	}
}

func normalizeBaseURL(raw string, log *slog.Logger) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		log.Warn("ignoring invalid connector API URL", slog.String("url", trimmed))
		return ""
	}
	return strings.TrimSuffix(parsed.String(), "/")
}

// ListConnectors returns the available connectors, optionally filtered by
// capability. It never fails: any remote problem resolves to the bundled
// fallback catalogue.
func (a *Accessor) ListConnectors(ctx context.Context, capability models.Capability) []models.Connector {
	connectors := a.load(ctx)
	if capability == "" {
		return connectors
	}

	filtered := make([]models.Connector, 0, len(connectors))
	for _, c := range connectors {
		if c.HasCapability(capability) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// Search narrows a capability-filtered listing by a free-text term matched
// against connector names, titles, and tags.
func (a *Accessor) Search(ctx context.Context, capability models.Capability, term string) []models.Connector {
	connectors := a.ListConnectors(ctx, capability)
	if strings.TrimSpace(term) == "" {
		return connectors
	}

	matched := make([]models.Connector, 0, len(connectors))
	for _, c := range connectors {
		if c.Matches(term) {
			matched = append(matched, c)
		}
	}
	return matched
}

// Get returns a single connector by machine name.
func (a *Accessor) Get(ctx context.Context, name string) (models.Connector, bool) {
	for _, c := range a.load(ctx) {
		if c.Name == name {
			return c, true
		}
	}
	return models.Connector{}, false
}

func (a *Accessor) load(ctx context.Context) []models.Connector {
	if a.baseURL == "" {
		return FallbackConnectors()
	}

	remote, err := a.fetchRemote(ctx)
	if err != nil {
		a.log.Warn("connector API unreachable, using bundled catalogue",
			slog.String("url", a.baseURL), slog.Any("error", err))
		return FallbackConnectors()
	}

	sane := sanitize(remote)
	if len(sane) == 0 {
		a.log.Warn("connector API returned no usable connectors, using bundled catalogue")
		return FallbackConnectors()
	}
	return sane
}

func (a *Accessor) fetchRemote(ctx context.Context) ([]models.Connector, error) {
	var connectors []models.Connector

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+connectorsPath, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("build request: %w", err))
			}

			resp, err := a.http.Do(req)
			if err != nil {
				return fmt.Errorf("fetch connectors: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("fetch connectors: unexpected status %d", resp.StatusCode)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read connectors response: %w", err)
			}

			var payload struct {
				Connectors []models.Connector `json:"connectors"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode connectors response: %w", err))
			}

			connectors = payload.Connectors
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(fetchDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return connectors, nil
}

// sanitize drops entries missing the fields every connector must carry.
func sanitize(connectors []models.Connector) []models.Connector {
	sane := make([]models.Connector, 0, len(connectors))
	for _, c := range connectors {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Title) == "" {
			continue
		}
		sane = append(sane, c)
	}
	return sane
}
