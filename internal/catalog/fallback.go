package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/openfuse/console/internal/models"
)

// catalog.json is generated from the connector registry metadata of a live
// pipeline API; it is kept in sync by the release process.
//
//go:embed catalog.json
var fallbackCatalogJSON []byte

var fallbackOnce = sync.OnceValues(func() ([]models.Connector, error) {
	var connectors []models.Connector
	if err := json.Unmarshal(fallbackCatalogJSON, &connectors); err != nil {
		return nil, fmt.Errorf("decode embedded catalogue: %w", err)
	}
	return connectors, nil
})

// FallbackConnectors returns the bundled connector catalogue. The embedded
// data is validated at build time by tests, so a decode failure here is a
// programming error.
func FallbackConnectors() []models.Connector {
	connectors, err := fallbackOnce()
	if err != nil {
		panic(err)
	}

	out := make([]models.Connector, len(connectors))
	copy(out, connectors)
	return out
}
