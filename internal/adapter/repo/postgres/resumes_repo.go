package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// ResumeRepo persists and loads resumes using a minimal pgx pool.
type ResumeRepo struct{ Pool PgxPool }

// NewResumeRepo constructs a ResumeRepo with the given pool.
func NewResumeRepo(p PgxPool) *ResumeRepo { return &ResumeRepo{Pool: p} }

// Create stores a new resume row and returns its id (generates one if empty).
func (r *ResumeRepo) Create(ctx domain.Context, res domain.Resume) (string, error) {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "resumes"),
	)
	id := res.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	q := `INSERT INTO resumes (id, filename, content_type, storage_path, status, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.Pool.Exec(ctx, q, id, res.Filename, res.ContentType, res.StoragePath, res.Status, now, now)
	if err != nil {
		return "", fmt.Errorf("op=resume.create: %w", err)
	}
	return id, nil
}

// Get loads a resume by id or returns domain.ErrNotFound.
func (r *ResumeRepo) Get(ctx domain.Context, id string) (domain.Resume, error) {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "resumes"),
	)
	q := `SELECT id, filename, COALESCE(content_type,''), storage_path, status, raw_text, clean_text, parsed_json, embedding::text, embedding_model, created_at, updated_at FROM resumes WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var res domain.Resume
	var parsedJSON []byte
	var embText *string
	if err := row.Scan(&res.ID, &res.Filename, &res.ContentType, &res.StoragePath, &res.Status, &res.RawText, &res.CleanText, &parsedJSON, &embText, &res.EmbeddingModel, &res.CreatedAt, &res.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Resume{}, fmt.Errorf("op=resume.get: %w", domain.ErrNotFound)
		}
		return domain.Resume{}, fmt.Errorf("op=resume.get: %w", err)
	}
	if len(parsedJSON) > 0 {
		var parsed domain.ParsedResumeSections
		if err := json.Unmarshal(parsedJSON, &parsed); err == nil {
			res.Parsed = &parsed
		}
	}
	if embText != nil {
		if v, err := decodeVector(*embText); err == nil {
			res.Embedding = v
		}
	}
	return res, nil
}

// MarkProcessing flips status to PROCESSING at background start.
func (r *ResumeRepo) MarkProcessing(ctx domain.Context, id string) error {
	return r.setStatus(ctx, id, domain.ResumeProcessing)
}

// MarkExtracted persists raw text together with the EXTRACTED status.
func (r *ResumeRepo) MarkExtracted(ctx domain.Context, id, rawText string) error {
	return r.setStatusWithText(ctx, id, domain.ResumeExtracted, rawText)
}

// MarkNeedsOCR persists the (possibly empty) raw text with status NEEDS_OCR.
func (r *ResumeRepo) MarkNeedsOCR(ctx domain.Context, id, rawText string) error {
	return r.setStatusWithText(ctx, id, domain.ResumeNeedsOCR, rawText)
}

// MarkFailed records a diagnostic in place of raw text. Raw text committed by
// an earlier transition is preserved; the diagnostic only fills in when no
// text was committed yet.
func (r *ResumeRepo) MarkFailed(ctx domain.Context, id, diagnostic string) error {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.MarkFailed")
	defer span.End()
	q := `UPDATE resumes SET status=$2, raw_text=COALESCE(raw_text,$3), updated_at=$4 WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id, domain.ResumeFailed, diagnostic, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=resume.mark_failed: %w", err)
	}
	return nil
}

// MarkProcessed persists every derived field and the terminal PROCESSED
// status in a single atomic update.
func (r *ResumeRepo) MarkProcessed(ctx domain.Context, id, cleanText string, parsed domain.ParsedResumeSections, embedding []float32, model string) error {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.MarkProcessed")
	defer span.End()
	parsedJSON, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("op=resume.mark_processed: %w", err)
	}
	q := `UPDATE resumes SET status=$2, clean_text=$3, parsed_json=$4, embedding=$5::vector, embedding_model=$6, updated_at=$7 WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id, domain.ResumeProcessed, cleanText, parsedJSON, encodeVector(embedding), model, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=resume.mark_processed: %w", err)
	}
	return nil
}

// TopByEmbedding retrieves the k nearest PROCESSED resumes by cosine distance
// to the query vector (pgvector <=> operator; similarity = 1 - distance).
func (r *ResumeRepo) TopByEmbedding(ctx domain.Context, query []float32, k int) ([]domain.RankedResume, error) {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.TopByEmbedding")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.Int("knn.k", k),
	)
	q := `SELECT id, COALESCE(parsed_json,'{}'::jsonb), COALESCE(clean_text,''), COALESCE(embedding_model,''),
		1 - (embedding <=> $1::vector) AS semantic_similarity
	FROM resumes
	WHERE status=$2 AND embedding IS NOT NULL
	ORDER BY embedding <=> $1::vector ASC
	LIMIT $3`
	rows, err := r.Pool.Query(ctx, q, encodeVector(query), domain.ResumeProcessed, k)
	if err != nil {
		return nil, fmt.Errorf("op=resume.top_by_embedding: %w", err)
	}
	defer rows.Close()
	out := make([]domain.RankedResume, 0, k)
	for rows.Next() {
		var rr domain.RankedResume
		if err := rows.Scan(&rr.ID, &rr.ParsedJSON, &rr.CleanText, &rr.EmbeddingModel, &rr.Similarity); err != nil {
			return nil, fmt.Errorf("op=resume.top_by_embedding: %w", err)
		}
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=resume.top_by_embedding: %w", err)
	}
	return out, nil
}

func (r *ResumeRepo) setStatus(ctx domain.Context, id string, status domain.ResumeStatus) error {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.SetStatus")
	defer span.End()
	q := `UPDATE resumes SET status=$2, updated_at=$3 WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=resume.set_status: %w", err)
	}
	return nil
}

func (r *ResumeRepo) setStatusWithText(ctx domain.Context, id string, status domain.ResumeStatus, rawText string) error {
	tracer := otel.Tracer("repo.resumes")
	ctx, span := tracer.Start(ctx, "resumes.SetStatusWithText")
	defer span.End()
	q := `UPDATE resumes SET status=$2, raw_text=$3, updated_at=$4 WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id, status, rawText, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=resume.set_status_with_text: %w", err)
	}
	return nil
}
