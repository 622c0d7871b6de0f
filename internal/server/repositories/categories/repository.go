// Package categories persists the category catalog.
package categories

import (
	"context"

	"github.com/dmitrijs2005/fileshare/internal/server/models"
)

type Repository interface {
	Save(ctx context.Context, category *models.Category) error
	FindAll(ctx context.Context) ([]*models.Category, error)
}
