package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// JobDescriptionRepo persists and loads job descriptions.
type JobDescriptionRepo struct{ Pool PgxPool }

// NewJobDescriptionRepo constructs a JobDescriptionRepo with the given pool.
func NewJobDescriptionRepo(p PgxPool) *JobDescriptionRepo { return &JobDescriptionRepo{Pool: p} }

// Create inserts a fully-populated job description and returns its id.
func (r *JobDescriptionRepo) Create(ctx domain.Context, jd domain.JobDescription) (string, error) {
	tracer := otel.Tracer("repo.job_descriptions")
	ctx, span := tracer.Start(ctx, "job_descriptions.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "job_descriptions"),
	)
	id := jd.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO job_descriptions (id, title, content, clean_text, embedding, embedding_model, status, created_at) VALUES ($1,$2,$3,$4,$5::vector,$6,$7,$8)`
	_, err := r.Pool.Exec(ctx, q, id, jd.Title, jd.Content, jd.CleanText, encodeVector(jd.Embedding), jd.EmbeddingModel, jd.Status, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=jobdesc.create: %w", err)
	}
	return id, nil
}

// Get loads a job description by id or returns domain.ErrNotFound.
func (r *JobDescriptionRepo) Get(ctx domain.Context, id string) (domain.JobDescription, error) {
	tracer := otel.Tracer("repo.job_descriptions")
	ctx, span := tracer.Start(ctx, "job_descriptions.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "job_descriptions"),
	)
	q := `SELECT id, COALESCE(title,''), content, clean_text, embedding::text, COALESCE(embedding_model,''), status, created_at FROM job_descriptions WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var jd domain.JobDescription
	var embText *string
	if err := row.Scan(&jd.ID, &jd.Title, &jd.Content, &jd.CleanText, &embText, &jd.EmbeddingModel, &jd.Status, &jd.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.JobDescription{}, fmt.Errorf("op=jobdesc.get: %w", domain.ErrNotFound)
		}
		return domain.JobDescription{}, fmt.Errorf("op=jobdesc.get: %w", err)
	}
	if embText != nil {
		v, err := decodeVector(*embText)
		if err != nil {
			return domain.JobDescription{}, fmt.Errorf("op=jobdesc.get: %w", err)
		}
		jd.Embedding = v
	}
	return jd, nil
}
