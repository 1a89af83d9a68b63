package store

import (
	"fmt"
	"os"
	"path/filepath"

	"tryon-backend/internal/models"
)

// Store bundles the four flat-file collections backing the service, one per
// stream kind.
type Store struct {
	Products     *Collection[models.Product]
	TryOns       *Collection[models.TryOnRequest]
	HelpRequests *Collection[models.HelpRequest]
	Catalog      *Collection[models.CatalogProduct]
}

// Open creates the data directory if needed, wires up the collections and
// writes empty files for any that do not exist yet.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		Products:     NewCollection[models.Product](filepath.Join(dataDir, "products.json")),
		TryOns:       NewCollection[models.TryOnRequest](filepath.Join(dataDir, "requests.json")),
		HelpRequests: NewCollection[models.HelpRequest](filepath.Join(dataDir, "help_requests.json")),
		Catalog:      NewCollection[models.CatalogProduct](filepath.Join(dataDir, "catalog.json")),
	}

	if err := s.Products.Init(); err != nil {
		return nil, err
	}
	if err := s.TryOns.Init(); err != nil {
		return nil, err
	}
	if err := s.HelpRequests.Init(); err != nil {
		return nil, err
	}
	if err := s.Catalog.Init(); err != nil {
		return nil, err
	}
	return s, nil
}
