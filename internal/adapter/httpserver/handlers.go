package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/resume-matcher/internal/config"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg             config.Config
	Resumes         usecase.ResumeService
	JobDescriptions usecase.JobDescriptionService
	Matcher         usecase.MatchService
	DBCheck         func(ctx context.Context) error
	RedisCheck      func(ctx context.Context) error
	TikaCheck       func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, resumes usecase.ResumeService, jds usecase.JobDescriptionService, matcher usecase.MatchService, dbCheck, redisCheck, tikaCheck func(context.Context) error) *Server {
	return &Server{
		Cfg:             cfg,
		Resumes:         resumes,
		JobDescriptions: jds,
		Matcher:         matcher,
		DBCheck:         dbCheck,
		RedisCheck:      redisCheck,
		TikaCheck:       tikaCheck,
	}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// UploadResumeHandler accepts a multipart resume upload on field "file".
// Content sniffing records the detected MIME as the declared content type;
// it never rejects; format decisions belong to the processing pipeline.
func (s *Server) UploadResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code:    "INVALID_ARGUMENT",
					Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: file required", domain.ErrInvalidArgument), map[string]string{"field": "file"})
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: file read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		contentType := mimetype.Detect(data).String()

		res, err := s.Resumes.Upload(r.Context(), header.Filename, contentType, data)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"resume_id":    res.ID,
			"filename":     res.Filename,
			"content_type": res.ContentType,
			"status":       string(res.Status),
		})
	}
}

// GetResumeHandler returns the full resume record including pipeline outputs.
func (s *Server) GetResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		res, err := s.Resumes.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, resumeEnvelope(res))
	}
}

// GetResumeTextHandler returns the raw extracted text for one resume.
func (s *Server) GetResumeTextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		res, err := s.Resumes.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":       res.ID,
			"status":   string(res.Status),
			"raw_text": res.RawText,
		})
	}
}

// CreateJobDescriptionHandler creates a job description; cleaning and
// embedding happen inline before the response is written.
func (s *Server) CreateJobDescriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content" validate:"required,max=50000"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		jd, err := s.JobDescriptions.Create(r.Context(), req.Title, req.Content)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"jd_id":  jd.ID,
			"title":  jd.Title,
			"status": string(jd.Status),
		})
	}
}

// GetJobDescriptionHandler returns the full job description record.
func (s *Server) GetJobDescriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		jd, err := s.JobDescriptions.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"jd_id":           jd.ID,
			"title":           jd.Title,
			"content":         jd.Content,
			"clean_text":      jd.CleanText,
			"embedding_model": jd.EmbeddingModel,
			"status":          string(jd.Status),
			"created_at":      jd.CreatedAt,
		})
	}
}

// MatchHandler computes a ranked match for a job description.
func (s *Server) MatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			JDID string `json:"jd_id" validate:"required"`
			TopK *int   `json:"top_k"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		topK := usecase.DefaultTopK
		if req.TopK != nil {
			topK = *req.TopK
		}
		resp, err := s.Matcher.Match(r.Context(), req.JDID, topK)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HealthzHandler reports process liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the Postgres, Redis and Tika dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	probes := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"db", s.DBCheck},
		{"redis", s.RedisCheck},
		{"tika", s.TikaCheck},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, len(probes))
		ok := true
		for _, p := range probes {
			if p.fn == nil {
				continue
			}
			c := check{Name: p.name, OK: true}
			if err := p.fn(ctx); err != nil {
				c.OK = false
				c.Details = err.Error()
				ok = false
			}
			checks = append(checks, c)
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}

func resumeEnvelope(res domain.Resume) map[string]any {
	return map[string]any{
		"resume_id":       res.ID,
		"filename":        res.Filename,
		"content_type":    res.ContentType,
		"status":          string(res.Status),
		"raw_text":        res.RawText,
		"clean_text":      res.CleanText,
		"parsed_json":     res.Parsed,
		"embedding_model": res.EmbeddingModel,
		"created_at":      res.CreatedAt,
		"updated_at":      res.UpdatedAt,
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument)
	}
	return nil
}

func validationDetails(err error) map[string]string {
	verrs := map[string]string{}
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			verrs[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return verrs
}
