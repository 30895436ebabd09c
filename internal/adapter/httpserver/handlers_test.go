package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/httpserver"
	"github.com/fairyhunter13/resume-matcher/internal/config"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/internal/usecase"
)

type resumeRepoStub struct {
	resume domain.Resume
	getErr error
	rows   []domain.RankedResume
}

func (s *resumeRepoStub) Create(_ domain.Context, r domain.Resume) (string, error) { return r.ID, nil }
func (s *resumeRepoStub) Get(_ domain.Context, _ string) (domain.Resume, error) {
	return s.resume, s.getErr
}
func (s *resumeRepoStub) MarkProcessing(_ domain.Context, _ string) error        { return nil }
func (s *resumeRepoStub) MarkExtracted(_ domain.Context, _, _ string) error      { return nil }
func (s *resumeRepoStub) MarkNeedsOCR(_ domain.Context, _, _ string) error       { return nil }
func (s *resumeRepoStub) MarkFailed(_ domain.Context, _, _ string) error         { return nil }
func (s *resumeRepoStub) MarkProcessed(_ domain.Context, _, _ string, _ domain.ParsedResumeSections, _ []float32, _ string) error {
	return nil
}
func (s *resumeRepoStub) TopByEmbedding(_ domain.Context, _ []float32, _ int) ([]domain.RankedResume, error) {
	return s.rows, nil
}

type jdRepoStub struct {
	jd  domain.JobDescription
	err error
}

func (s *jdRepoStub) Create(_ domain.Context, jd domain.JobDescription) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "jd-1", nil
}
func (s *jdRepoStub) Get(_ domain.Context, _ string) (domain.JobDescription, error) {
	return s.jd, s.err
}

type fileStoreStub struct{}

func (fileStoreStub) Save(_ domain.Context, resumeID, _ string, _ []byte) (string, error) {
	return "/uploads/" + resumeID, nil
}

type queueStub struct{ err error }

func (q queueStub) EnqueueProcess(_ domain.Context, _ domain.ProcessTaskPayload) error { return q.err }

type embedderStub struct{}

func (embedderStub) Embed(_ domain.Context, _ string) ([]float32, error) {
	return []float32{0.6, 0.8}, nil
}
func (embedderStub) ModelName() string { return "all-MiniLM-L6-v2" }

func newTestServer(resumes *resumeRepoStub, jds *jdRepoStub) *httpserver.Server {
	cfg := config.Config{MaxUploadMB: 10}
	return httpserver.NewServer(cfg,
		usecase.NewResumeService(resumes, fileStoreStub{}, queueStub{}),
		usecase.NewJobDescriptionService(jds, embedderStub{}),
		usecase.NewMatchService(jds, resumes),
		nil, nil, nil)
}

func newRouter(s *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Post("/resumes", s.UploadResumeHandler())
	r.Get("/resumes/{id}", s.GetResumeHandler())
	r.Get("/resumes/{id}/text", s.GetResumeTextHandler())
	r.Post("/job-descriptions", s.CreateJobDescriptionHandler())
	r.Get("/job-descriptions/{id}", s.GetJobDescriptionHandler())
	r.Post("/match", s.MatchHandler())
	r.Get("/healthz", s.HealthzHandler())
	r.Get("/readyz", s.ReadyzHandler())
	return r
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestUploadResume_Success(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &jdRepoStub{}))

	body, ct := multipartBody(t, "file", "cv.pdf", []byte("%PDF-1.4 test document"))
	req := httptest.NewRequest(http.MethodPost, "/resumes", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decodeBody(t, rec)
	assert.NotEmpty(t, m["resume_id"])
	assert.Equal(t, "cv.pdf", m["filename"])
	assert.Equal(t, "application/pdf", m["content_type"])
	assert.Equal(t, "UPLOADED", m["status"])
}

func TestUploadResume_MissingFile(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &jdRepoStub{}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/resumes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
}

func TestUploadResume_NotMultipart(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &jdRepoStub{}))

	req := httptest.NewRequest(http.MethodPost, "/resumes", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetResume_NotFound(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{getErr: domain.ErrNotFound}, &jdRepoStub{}))

	req := httptest.NewRequest(http.MethodGet, "/resumes/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestGetResumeText(t *testing.T) {
	t.Parallel()
	raw := "extracted resume text"
	repo := &resumeRepoStub{resume: domain.Resume{ID: "r-1", Status: domain.ResumeExtracted, RawText: &raw}}
	h := newRouter(newTestServer(repo, &jdRepoStub{}))

	req := httptest.NewRequest(http.MethodGet, "/resumes/r-1/text", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	m := decodeBody(t, rec)
	assert.Equal(t, "r-1", m["id"])
	assert.Equal(t, "EXTRACTED", m["status"])
	assert.Equal(t, raw, m["raw_text"])
}

func TestCreateJobDescription_Success(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &jdRepoStub{}))

	req := httptest.NewRequest(http.MethodPost, "/job-descriptions",
		strings.NewReader(`{"title":"Backend Engineer","content":"We need python and docker."}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decodeBody(t, rec)
	assert.Equal(t, "jd-1", m["jd_id"])
	assert.Equal(t, "Backend Engineer", m["title"])
	assert.Equal(t, "CREATED", m["status"])
}

func TestCreateJobDescription_MissingContent(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &jdRepoStub{}))

	req := httptest.NewRequest(http.MethodPost, "/job-descriptions", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation failed")
}

func matchReadyJD() domain.JobDescription {
	return domain.JobDescription{
		ID:             "jd-1",
		CleanText:      "python and docker required",
		Embedding:      []float32{0.6, 0.8},
		EmbeddingModel: "all-MiniLM-L6-v2",
		Status:         domain.JobDescriptionCreated,
	}
}

func TestMatch_DefaultTopK(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &jdRepoStub{jd: matchReadyJD()}))

	req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{"jd_id":"jd-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decodeBody(t, rec)
	assert.Equal(t, float64(10), m["top_k"])
	assert.Equal(t, "jd-1", m["jd_id"])
}

func TestMatch_TopKOutOfRange(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &jdRepoStub{jd: matchReadyJD()}))

	for _, body := range []string{`{"jd_id":"jd-1","top_k":0}`, `{"jd_id":"jd-1","top_k":101}`} {
		req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
	}
}

func TestMatch_UnknownJobDescription(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &jdRepoStub{err: domain.ErrNotFound}))

	req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{"jd_id":"missing"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatch_MissingEmbedding(t *testing.T) {
	t.Parallel()
	jd := matchReadyJD()
	jd.Embedding = nil
	h := newRouter(newTestServer(&resumeRepoStub{}, &jdRepoStub{jd: jd}))

	req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(`{"jd_id":"jd-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FAILED_PRECONDITION")
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	h := newRouter(newTestServer(&resumeRepoStub{}, &jdRepoStub{}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	t.Parallel()
	srv := newTestServer(&resumeRepoStub{}, &jdRepoStub{})
	srv.DBCheck = func(context.Context) error { return nil }
	srv.RedisCheck = func(context.Context) error { return nil }
	srv.TikaCheck = func(context.Context) error { return nil }
	h := newRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	srv.DBCheck = func(context.Context) error { return errors.New("connection refused") }
	h = newRouter(srv)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
