package services

import (
	"context"

	"github.com/dmitrijs2005/fileshare/internal/server/models"
	"github.com/dmitrijs2005/fileshare/internal/server/repositories/categories"
)

// CategoryService exposes the category catalog.
type CategoryService struct {
	repo categories.Repository
}

func NewCategoryService(repo categories.Repository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) GetAllCategories(ctx context.Context) ([]*models.Category, error) {
	return s.repo.FindAll(ctx)
}
