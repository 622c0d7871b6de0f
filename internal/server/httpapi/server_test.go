package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fileshare/internal/common"
	"github.com/dmitrijs2005/fileshare/internal/logging"
	"github.com/dmitrijs2005/fileshare/internal/server/auth"
	"github.com/dmitrijs2005/fileshare/internal/server/models"
	"github.com/dmitrijs2005/fileshare/internal/server/services"
)

const testSecret = "test-secret"

type fakeFiles struct {
	mu sync.Mutex

	err error

	uploadReq    *models.UploadRequest
	uploadBody   []byte
	uploadResult *models.File

	downloadRequester string
	downloadID        string
	downloadPassword  string
	downloadResult    *services.DownloadResult
	downloadGate      chan struct{}

	deleteRequester string
	deleteID        string

	updateRequester string
	updateFile      *models.File

	listResult []*models.File
	single     *models.File
}

func (f *fakeFiles) Upload(ctx context.Context, req *models.UploadRequest, content io.Reader) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadReq = req
	f.uploadBody, _ = io.ReadAll(content)
	if f.err != nil {
		return nil, f.err
	}
	return f.uploadResult, nil
}

func (f *fakeFiles) Download(ctx context.Context, requester, fileID, password string) (*services.DownloadResult, error) {
	f.mu.Lock()
	f.downloadRequester = requester
	f.downloadID = fileID
	f.downloadPassword = password
	gate := f.downloadGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.downloadResult, nil
}

func (f *fakeFiles) FetchAllFiles(ctx context.Context, owner string) ([]*models.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

func (f *fakeFiles) FetchByNameAndOwner(ctx context.Context, owner, name, password string) (*models.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.single, nil
}

func (f *fakeFiles) Delete(ctx context.Context, requester, fileID string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteRequester = requester
	f.deleteID = fileID
	if f.err != nil {
		return nil, f.err
	}
	return f.single, nil
}

func (f *fakeFiles) UpdateInfo(ctx context.Context, requester string, file *models.File) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateRequester = requester
	f.updateFile = file
	if f.err != nil {
		return nil, f.err
	}
	return file, nil
}

func (f *fakeFiles) SearchByCategory(ctx context.Context, categories []string) ([]*models.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

func (f *fakeFiles) GetByTags(ctx context.Context, tags []string) ([]*models.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

func (f *fakeFiles) FindByName(ctx context.Context, name string) ([]*models.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listResult, nil
}

type fakeCategories struct {
	result []*models.Category
	err    error
}

func (f *fakeCategories) GetAllCategories(ctx context.Context) ([]*models.Category, error) {
	return f.result, f.err
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestHandler(files *fakeFiles, categories *fakeCategories, maxTransfers int) http.Handler {
	s := NewServer("localhost:0", testLogger(), files, categories, testSecret, maxTransfers)
	return s.routes()
}

func bearerToken(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, role, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestUpload(t *testing.T) {
	files := &fakeFiles{uploadResult: &models.File{ID: "f1", Owner: "alice", Name: "report.pdf"}}
	handler := newTestHandler(files, &fakeCategories{}, 2)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", strings.NewReader("file content"))
	req.Header.Set("Authorization", bearerToken(t, "alice", "premium"))
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("X-File-Name", "report.pdf")
	req.Header.Set("X-File-Description", "quarterly report")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// identity comes from the token, attributes from the headers
	assert.Equal(t, "alice", files.uploadReq.Owner)
	assert.Equal(t, models.RolePremium, files.uploadReq.Role)
	assert.Equal(t, "report.pdf", files.uploadReq.Name)
	assert.Equal(t, "application/pdf", files.uploadReq.ContentType)
	assert.Equal(t, int64(len("file content")), files.uploadReq.ContentLength)
	assert.Equal(t, "quarterly report", files.uploadReq.Description)
	assert.Equal(t, "file content", string(files.uploadBody))

	var resp fileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "f1", resp.ID)
}

func TestUpload_RequiresToken(t *testing.T) {
	handler := newTestHandler(&fakeFiles{}, &fakeCategories{}, 2)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", strings.NewReader("data"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpload_InvalidToken(t *testing.T) {
	handler := newTestHandler(&fakeFiles{}, &fakeCategories{}, 2)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", strings.NewReader("data"))
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpload_LengthRequired(t *testing.T) {
	handler := newTestHandler(&fakeFiles{}, &fakeCategories{}, 2)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", strings.NewReader("data"))
	req.Header.Set("Authorization", bearerToken(t, "alice", "standard"))
	req.ContentLength = -1

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusLengthRequired, rec.Code)
}

func TestUpload_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"quota", common.ErrQuotaExceeded, http.StatusConflict},
		{"name conflict", common.ErrNameConflict, http.StatusConflict},
		{"validation", common.ErrValidation, http.StatusBadRequest},
		{"metadata persist", common.ErrMetadataPersist, http.StatusInternalServerError},
		{"store failure", &common.OpError{Op: "upload", Code: 503, Text: "503 Slow Down"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(&fakeFiles{err: tt.err}, &fakeCategories{}, 2)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", strings.NewReader("data"))
			req.Header.Set("Authorization", bearerToken(t, "alice", "standard"))
			req.Header.Set("X-File-Name", "a.txt")

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDownload_Anonymous(t *testing.T) {
	files := &fakeFiles{downloadResult: &services.DownloadResult{
		ContentType:   "text/plain",
		ContentLength: 5,
		Filename:      "notes.txt",
		Body:          io.NopCloser(strings.NewReader("hello")),
	}}
	handler := newTestHandler(files, &fakeCategories{}, 2)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/download/f1?password=pw", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", files.downloadRequester)
	assert.Equal(t, "f1", files.downloadID)
	assert.Equal(t, "pw", files.downloadPassword)

	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="notes.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "5", rec.Header().Get("Content-Length"))
}

func TestDownload_IdentityFromToken(t *testing.T) {
	files := &fakeFiles{downloadResult: &services.DownloadResult{
		Body: io.NopCloser(strings.NewReader("")),
	}}
	handler := newTestHandler(files, &fakeCategories{}, 2)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/download/f1", nil)
	req.Header.Set("Authorization", bearerToken(t, "alice", "standard"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", files.downloadRequester)
}

func TestDownload_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", common.ErrNotFound, http.StatusNotFound},
		{"access denied", common.ErrAccessDenied, http.StatusForbidden},
		{"store failure", &common.OpError{Op: "download", Code: 500, Text: "500 Internal Server Error"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(&fakeFiles{err: tt.err}, &fakeCategories{}, 2)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/files/download/f1", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTransferLimit(t *testing.T) {
	gate := make(chan struct{})
	files := &fakeFiles{
		downloadGate:   gate,
		downloadResult: &services.DownloadResult{Body: io.NopCloser(strings.NewReader(""))},
	}
	handler := newTestHandler(files, &fakeCategories{}, 1)

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/files/download/f1", nil)
		close(started)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}()

	<-started
	// wait until the first request holds the only slot
	require.Eventually(t, func() bool {
		files.mu.Lock()
		defer files.mu.Unlock()
		return files.downloadID != ""
	}, time.Second, time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/download/f2", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	close(gate)
	<-done

	// slot released, next transfer goes through
	files.downloadGate = nil
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/download/f3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetAll(t *testing.T) {
	files := &fakeFiles{listResult: []*models.File{{ID: "f1", Owner: "alice"}}}
	handler := newTestHandler(files, &fakeCategories{}, 2)

	// listing someone else's files is forbidden
	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/getAll/alice", nil)
	req.Header.Set("Authorization", bearerToken(t, "bob", "standard"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/files/getAll/alice", nil)
	req.Header.Set("Authorization", bearerToken(t, "alice", "standard"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []fileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "f1", resp[0].ID)
}

func TestByName(t *testing.T) {
	files := &fakeFiles{
		listResult: []*models.File{{ID: "f1", Name: "doc"}},
		single:     &models.File{ID: "f2", Name: "doc", Owner: "alice"},
	}
	handler := newTestHandler(files, &fakeCategories{}, 2)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/byName/doc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []fileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/byName/doc?owner=alice", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var one fileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, "f2", one.ID)
}

func TestByCategoryAndTags(t *testing.T) {
	files := &fakeFiles{listResult: []*models.File{{ID: "f1"}}}
	handler := newTestHandler(files, &fakeCategories{}, 2)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/byCategory", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/byCategory?category=docs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/byTags", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/byTags?tag=go&tag=db", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDelete(t *testing.T) {
	files := &fakeFiles{single: &models.File{ID: "f1", Owner: "alice"}}
	handler := newTestHandler(files, &fakeCategories{}, 2)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/files/f1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/files/f1", nil)
	req.Header.Set("Authorization", bearerToken(t, "alice", "standard"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", files.deleteRequester)
	assert.Equal(t, "f1", files.deleteID)
}

func TestUpdateInfo(t *testing.T) {
	files := &fakeFiles{}
	handler := newTestHandler(files, &fakeCategories{}, 2)

	body := `{"id":"f1","name":"renamed","is_private":false,"tags":["go"]}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/files/info", strings.NewReader(body))
	req.Header.Set("Authorization", bearerToken(t, "alice", "standard"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", files.updateRequester)
	assert.Equal(t, "alice", files.updateFile.Owner, "owner comes from the token")
	assert.Equal(t, "renamed", files.updateFile.Name)
	assert.Equal(t, []string{"go"}, files.updateFile.Tags)
}

func TestUpdateInfo_BadBody(t *testing.T) {
	handler := newTestHandler(&fakeFiles{}, &fakeCategories{}, 2)

	for _, body := range []string{"{not json", `{"name":"no id"}`} {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/files/info", strings.NewReader(body))
		req.Header.Set("Authorization", bearerToken(t, "alice", "standard"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestCategories(t *testing.T) {
	cats := &fakeCategories{result: []*models.Category{{Name: "docs", Description: "documents"}}}
	handler := newTestHandler(&fakeFiles{}, cats, 2)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []categoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "docs", resp[0].Name)
}

func TestCategories_Error(t *testing.T) {
	handler := newTestHandler(&fakeFiles{}, &fakeCategories{err: errors.New("db down")}, 2)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
