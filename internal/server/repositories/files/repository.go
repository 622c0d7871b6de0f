// Package files persists file metadata records.
package files

import (
	"context"

	"github.com/dmitrijs2005/fileshare/internal/server/models"
)

// Repository is the metadata catalog contract consumed by the orchestrators.
// Lookups by id or (name, owner) return common.ErrNotFound when no record
// matches.
type Repository interface {
	Save(ctx context.Context, file *models.File) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.File, error)
	FindAllByOwner(ctx context.Context, owner string) ([]*models.File, error)
	CountByOwner(ctx context.Context, owner string) (int, error)
	FindByNameAndOwner(ctx context.Context, name, owner string) (*models.File, error)
	FindAllByName(ctx context.Context, name string) ([]*models.File, error)
	FindByCategories(ctx context.Context, categories []string) ([]*models.File, error)
	FindByTagsContaining(ctx context.Context, tags []string) ([]*models.File, error)
}
