package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/fileshare/internal/common"
	"github.com/dmitrijs2005/fileshare/internal/server/models"
)

type fileResponse struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Length      int64     `json:"length"`
	UploadDate  time.Time `json:"upload_date"`
	IsPrivate   bool      `json:"is_private"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
}

type categoryResponse struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// updateInfoRequest is the complete replacement record: the stored record is
// overwritten with it field for field, so clients submit every attribute.
type updateInfoRequest struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Password    string    `json:"password"`
	Length      int64     `json:"length"`
	UploadDate  time.Time `json:"upload_date"`
	IsPrivate   bool      `json:"is_private"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Categories  []string  `json:"categories"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:          f.ID,
		Owner:       f.Owner,
		Name:        f.Name,
		Length:      f.Length,
		UploadDate:  f.UploadDate,
		IsPrivate:   f.IsPrivate,
		Description: f.Description,
		Tags:        f.Tags,
		Categories:  f.Categories,
	}
}

func toFileResponses(in []*models.File) []fileResponse {
	out := make([]fileResponse, 0, len(in))
	for _, f := range in {
		out = append(out, toFileResponse(f))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service-layer errors onto HTTP statuses. Store
// transport failures surface as 502 rather than leaking the upstream status.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, common.ErrAccessDenied):
		writeError(w, http.StatusForbidden, common.ErrAccessDenied.Error())
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, common.ErrNotFound.Error())
	case errors.Is(err, common.ErrNameConflict):
		writeError(w, http.StatusConflict, common.ErrNameConflict.Error())
	case errors.Is(err, common.ErrQuotaExceeded):
		writeError(w, http.StatusConflict, common.ErrQuotaExceeded.Error())
	case errors.Is(err, common.ErrMetadataPersist):
		s.logger.Error(r.Context(), "metadata persist failure", "error", err)
		writeError(w, http.StatusInternalServerError, common.ErrMetadataPersist.Error())
	default:
		var opErr *common.OpError
		if errors.As(err, &opErr) {
			s.logger.Error(r.Context(), "object store failure", "op", opErr.Op, "code", opErr.Code, "error", err)
			writeError(w, http.StatusBadGateway, fmt.Sprintf("%s failed", opErr.Op))
			return
		}
		s.logger.Error(r.Context(), "internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// handleUpload streams the raw request body into the store. The declared
// Content-Length is required; chunked requests without one are rejected.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	if r.ContentLength < 0 {
		writeError(w, http.StatusLengthRequired, "content length required")
		return
	}

	req := &models.UploadRequest{
		Owner:         claims.UserID,
		Name:          r.Header.Get("X-File-Name"),
		ContentType:   r.Header.Get("Content-Type"),
		ContentLength: r.ContentLength,
		Description:   r.Header.Get("X-File-Description"),
		Role:          models.Role(claims.Role),
	}

	file, err := s.files.Upload(r.Context(), req, r.Body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(file))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var requester string
	if claims := claimsFrom(r.Context()); claims != nil {
		requester = claims.UserID
	}

	result, err := s.files.Download(r.Context(), requester, r.PathValue("id"), r.URL.Query().Get("password"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	if result.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}

	if _, err := io.Copy(w, result.Body); err != nil {
		// headers are already out; nothing to do but log
		s.logger.Warn(r.Context(), "download stream interrupted", "error", err)
	}
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	username := r.PathValue("username")

	if claims.UserID != username {
		writeError(w, http.StatusForbidden, common.ErrAccessDenied.Error())
		return
	}

	result, err := s.files.FetchAllFiles(r.Context(), username)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponses(result))
}

func (s *Server) handleByName(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	// with an owner the lookup is exact and password-gated
	if owner := r.URL.Query().Get("owner"); owner != "" {
		file, err := s.files.FetchByNameAndOwner(r.Context(), owner, name, r.URL.Query().Get("password"))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toFileResponse(file))
		return
	}

	result, err := s.files.FindByName(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponses(result))
}

func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request) {
	categories := r.URL.Query()["category"]
	if len(categories) == 0 {
		writeError(w, http.StatusBadRequest, "at least one category is required")
		return
	}

	result, err := s.files.SearchByCategory(r.Context(), categories)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponses(result))
}

func (s *Server) handleByTags(w http.ResponseWriter, r *http.Request) {
	tags := r.URL.Query()["tag"]
	if len(tags) == 0 {
		writeError(w, http.StatusBadRequest, "at least one tag is required")
		return
	}

	result, err := s.files.GetByTags(r.Context(), tags)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponses(result))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	file, err := s.files.Delete(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(file))
}

// handleUpdateInfo replaces the metadata record with the submitted one. The
// owner comes from the verified identity, never from the request body.
func (s *Server) handleUpdateInfo(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req updateInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "file id is required")
		return
	}

	file := &models.File{
		ID:          req.ID,
		Owner:       claims.UserID,
		Name:        req.Name,
		Password:    req.Password,
		Length:      req.Length,
		UploadDate:  req.UploadDate,
		IsPrivate:   req.IsPrivate,
		Description: req.Description,
		Tags:        req.Tags,
		Categories:  req.Categories,
	}

	updated, err := s.files.UpdateInfo(r.Context(), claims.UserID, file)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(updated))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	result, err := s.categories.GetAllCategories(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(result))
	for _, c := range result {
		out = append(out, categoryResponse{Name: c.Name, Description: c.Description})
	}

	writeJSON(w, http.StatusOK, out)
}
