package application

import (
	"context"
	"fmt"

	"bicho/domain/entities"
	"bicho/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// LoadCatalog reads a catalog snapshot. Invalid rows are logged and left out; lookups
// for them report the configuration error to the wagers that use them.
func LoadCatalog(ctx context.Context, repo interfaces.CatalogRepository) (*entities.Catalog, error) {
	betTypes, err := repo.GetBetTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bet types: %w", err)
	}
	placements, err := repo.GetPlacements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load placements: %w", err)
	}
	schedules, err := repo.GetDrawSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load draw schedules: %w", err)
	}

	catalog := entities.NewCatalog(betTypes, placements, schedules)
	for _, problem := range catalog.Problems() {
		log.WithError(problem).Error("Rejected catalog entry")
	}
	return catalog, nil
}
