// Package httpapi exposes the file-sharing operations over HTTP: streaming
// upload and download, per-owner listings, public search and the category
// catalog.
package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/fileshare/internal/logging"
	"github.com/dmitrijs2005/fileshare/internal/server/models"
	"github.com/dmitrijs2005/fileshare/internal/server/services"
)

// FileService is the slice of the file orchestrator the handlers consume.
type FileService interface {
	Upload(ctx context.Context, req *models.UploadRequest, content io.Reader) (*models.File, error)
	Download(ctx context.Context, requester, fileID, password string) (*services.DownloadResult, error)
	FetchAllFiles(ctx context.Context, owner string) ([]*models.File, error)
	FetchByNameAndOwner(ctx context.Context, owner, name, password string) (*models.File, error)
	Delete(ctx context.Context, requester, fileID string) (*models.File, error)
	UpdateInfo(ctx context.Context, requester string, file *models.File) (*models.File, error)
	SearchByCategory(ctx context.Context, categories []string) ([]*models.File, error)
	GetByTags(ctx context.Context, tags []string) ([]*models.File, error)
	FindByName(ctx context.Context, name string) ([]*models.File, error)
}

// CategoryService lists the category catalog.
type CategoryService interface {
	GetAllCategories(ctx context.Context) ([]*models.Category, error)
}

type Server struct {
	address    string
	logger     logging.Logger
	files      FileService
	categories CategoryService
	jwtSecret  []byte
	transfers  chan struct{}
}

func NewServer(address string, logger logging.Logger, files FileService, categories CategoryService, secretKey string, maxTransfers int) *Server {
	return &Server{
		address:    address,
		logger:     logger.With("module", "http_server"),
		files:      files,
		categories: categories,
		jwtSecret:  []byte(secretKey),
		transfers:  make(chan struct{}, maxTransfers),
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/files/upload", s.requireAuth(s.limitTransfers(s.handleUpload)))
	mux.HandleFunc("GET /api/v1/files/download/{id}", s.limitTransfers(s.handleDownload))
	mux.HandleFunc("GET /api/v1/files/getAll/{username}", s.requireAuth(s.handleGetAll))
	mux.HandleFunc("GET /api/v1/files/byName/{name}", s.handleByName)
	mux.HandleFunc("GET /api/v1/files/byCategory", s.handleByCategory)
	mux.HandleFunc("GET /api/v1/files/byTags", s.handleByTags)
	mux.HandleFunc("DELETE /api/v1/files/{id}", s.requireAuth(s.handleDelete))
	mux.HandleFunc("PUT /api/v1/files/info", s.requireAuth(s.handleUpdateInfo))
	mux.HandleFunc("GET /api/v1/categories", s.handleCategories)

	return s.identity(mux)
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
