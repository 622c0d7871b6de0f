// Package services implements the upload and download orchestrators, the
// access gate and the category catalog of the file-sharing backend.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/fileshare/internal/common"
	"github.com/dmitrijs2005/fileshare/internal/logging"
	sc "github.com/dmitrijs2005/fileshare/internal/server/config"
	"github.com/dmitrijs2005/fileshare/internal/server/models"
	"github.com/dmitrijs2005/fileshare/internal/server/objstore"
	"github.com/dmitrijs2005/fileshare/internal/server/repositories/files"
)

// FileService drives uploads and downloads against the object store and the
// metadata catalog.
type FileService struct {
	repo     files.Repository
	store    objstore.Store
	config   *sc.Config
	logger   logging.Logger
	validate *validator.Validate
	locks    *keyedMutex
}

func NewFileService(repo files.Repository, store objstore.Store, config *sc.Config, logger logging.Logger) *FileService {
	return &FileService{
		repo:     repo,
		store:    store,
		config:   config,
		logger:   logger.With("module", "files"),
		validate: validator.New(),
		locks:    newKeyedMutex(),
	}
}

// uploadSession tracks one in-flight multipart upload: the object key, the
// store-assigned upload id, the monotonic part counter and the integrity tag
// collected for each uploaded part. It is owned by a single Upload call and
// never shared between goroutines.
type uploadSession struct {
	key      string
	uploadID string
	nextPart int32
	parts    map[int32]string
}

// DownloadResult carries the response metadata and the object content
// stream. Body is single-pass and must be closed by the caller.
type DownloadResult struct {
	ContentType   string
	ContentLength int64
	Filename      string
	Body          io.ReadCloser
}

// Upload streams content into a new object and, once the object is complete,
// persists its metadata record. Checks run in order and short-circuit:
// standard-tier quota first, then (owner, name) uniqueness; both are issued
// before any store call and are serialized per owner. Every initiated
// multipart upload ends in exactly one of Complete or Abort.
//
// When the metadata save fails after a successful completion, the object is
// already durable; the error is surfaced and the orphaned object is left
// behind rather than deleted.
func (s *FileService) Upload(ctx context.Context, req *models.UploadRequest, content io.Reader) (*models.File, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	unlock := s.locks.Lock(req.Owner)
	defer unlock()

	if req.Role == models.RoleStandard {
		count, err := s.repo.CountByOwner(ctx, req.Owner)
		if err != nil {
			return nil, fmt.Errorf("counting files: %w", err)
		}
		if count >= s.config.MaxFilesPerUser {
			return nil, common.ErrQuotaExceeded
		}
	}

	if _, err := s.repo.FindByNameAndOwner(ctx, req.Name, req.Owner); err == nil {
		return nil, common.ErrNameConflict
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("checking name: %w", err)
	}

	file := &models.File{
		ID:          uuid.New().String(),
		Owner:       req.Owner,
		Name:        req.Name,
		Length:      req.ContentLength,
		UploadDate:  time.Now(),
		IsPrivate:   true,
		Description: req.Description,
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadID, err := s.store.Initiate(ctx, file.ID, contentType, map[string]string{"filename": file.Name})
	if err != nil {
		return nil, err
	}

	session := &uploadSession{key: file.ID, uploadID: uploadID, parts: make(map[int32]string)}

	// Stop the reassembler goroutine if we bail out mid-stream.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	completed := false
	defer func() {
		if completed {
			return
		}
		abortCtx := context.WithoutCancel(ctx)
		if err := s.store.Abort(abortCtx, session.key, session.uploadID); err != nil {
			s.logger.Error(abortCtx, "aborting multipart upload failed", "key", session.key, "error", err)
		}
	}()

	for p := range reassemble(ctx, content, s.config.MultipartMinSize, s.config.UploadBufferDepth) {
		if p.err != nil {
			return nil, fmt.Errorf("reading content: %w", p.err)
		}

		session.nextPart++
		etag, err := s.store.PutPart(ctx, session.key, session.uploadID, session.nextPart, p.data)
		if err != nil {
			return nil, err
		}
		session.parts[session.nextPart] = etag
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.store.Complete(ctx, session.key, session.uploadID, session.parts); err != nil {
		return nil, err
	}
	completed = true

	if err := s.repo.Save(ctx, file); err != nil {
		s.logger.Error(ctx, "metadata save failed after completed upload", "key", file.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataPersist, err)
	}

	s.logger.Info(ctx, "upload complete", "key", file.ID, "owner", file.Owner, "parts", len(session.parts))

	return file, nil
}

// Download resolves the record, applies the access gate and returns the
// object stream with its response metadata. The suggested filename comes
// from the object metadata ("filename", matched case-insensitively), falling
// back to the object key.
func (s *FileService) Download(ctx context.Context, requester, fileID, password string) (*DownloadResult, error) {
	file, err := s.repo.FindByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if !canRead(file, requester, password) {
		return nil, common.ErrAccessDenied
	}

	obj, err := s.store.GetObject(ctx, file.ID)
	if err != nil {
		return nil, err
	}

	return &DownloadResult{
		ContentType:   obj.ContentType,
		ContentLength: obj.ContentLength,
		Filename:      metadataFilename(obj.Metadata, file.ID),
		Body:          obj.Body,
	}, nil
}

// FetchByNameAndOwner resolves a record by display name and owner, applying
// the password check when the record carries one.
func (s *FileService) FetchByNameAndOwner(ctx context.Context, owner, name, password string) (*models.File, error) {
	file, err := s.repo.FindByNameAndOwner(ctx, name, owner)
	if err != nil {
		return nil, err
	}
	if file.Password != "" && file.Password != password {
		return nil, common.ErrAccessDenied
	}
	return file, nil
}

// FetchAllFiles lists every record belonging to owner.
func (s *FileService) FetchAllFiles(ctx context.Context, owner string) ([]*models.File, error) {
	return s.repo.FindAllByOwner(ctx, owner)
}

// Delete removes the object and then its metadata record. Only the owner may
// delete. The two deletes are not transactional: when the metadata delete
// fails after the object is gone it is retried once, then surfaced.
func (s *FileService) Delete(ctx context.Context, requester, fileID string) (*models.File, error) {
	file, err := s.repo.FindByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if !isOwner(file, requester) {
		return nil, common.ErrAccessDenied
	}

	if err := s.store.DeleteObject(ctx, file.ID); err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, file.ID); err != nil {
		s.logger.Warn(ctx, "metadata delete failed, retrying", "key", file.ID, "error", err)
		if err := s.repo.Delete(ctx, file.ID); err != nil {
			s.logger.Error(ctx, "metadata record orphaned: object deleted but record remains", "key", file.ID, "error", err)
			return nil, fmt.Errorf("%w: %v", common.ErrMetadataPersist, err)
		}
	}

	s.logger.Info(ctx, "file deleted", "key", file.ID, "owner", file.Owner)

	return file, nil
}

// UpdateInfo replaces the stored record with the incoming one. Only the
// owner may update; the record is persisted verbatim, with no field merge.
func (s *FileService) UpdateInfo(ctx context.Context, requester string, file *models.File) (*models.File, error) {
	existing, err := s.repo.FindByID(ctx, file.ID)
	if err != nil {
		return nil, err
	}

	if !isOwner(existing, requester) {
		return nil, common.ErrAccessDenied
	}

	if err := s.repo.Save(ctx, file); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataPersist, err)
	}

	return file, nil
}

// SearchByCategory returns the public records assigned to any of the given
// categories.
func (s *FileService) SearchByCategory(ctx context.Context, categories []string) ([]*models.File, error) {
	result, err := s.repo.FindByCategories(ctx, categories)
	if err != nil {
		return nil, err
	}
	return onlyPublic(result), nil
}

// GetByTags returns the public records carrying any of the given tags.
func (s *FileService) GetByTags(ctx context.Context, tags []string) ([]*models.File, error) {
	result, err := s.repo.FindByTagsContaining(ctx, tags)
	if err != nil {
		return nil, err
	}
	return onlyPublic(result), nil
}

// FindByName returns the public records with the given display name.
func (s *FileService) FindByName(ctx context.Context, name string) ([]*models.File, error) {
	result, err := s.repo.FindAllByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return onlyPublic(result), nil
}

func onlyPublic(in []*models.File) []*models.File {
	result := make([]*models.File, 0, len(in))
	for _, f := range in {
		if !f.IsPrivate {
			result = append(result, f)
		}
	}
	return result
}

func metadataFilename(metadata map[string]string, fallback string) string {
	for k, v := range metadata {
		if strings.EqualFold(k, "filename") {
			return v
		}
	}
	return fallback
}
