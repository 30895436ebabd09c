package usecase

import (
	"fmt"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/pkg/textx"
)

// JobDescriptionService creates and serves job descriptions. Unlike resumes,
// job descriptions are cleaned and embedded inline at creation time; CREATED
// is their terminal status and no background work follows.
type JobDescriptionService struct {
	Repo     domain.JobDescriptionRepository
	Embedder domain.Embedder
}

// NewJobDescriptionService constructs a JobDescriptionService.
func NewJobDescriptionService(repo domain.JobDescriptionRepository, emb domain.Embedder) JobDescriptionService {
	return JobDescriptionService{Repo: repo, Embedder: emb}
}

// Create normalizes and embeds the content synchronously and persists the
// fully-populated record.
func (s JobDescriptionService) Create(ctx domain.Context, title, content string) (domain.JobDescription, error) {
	if content == "" {
		return domain.JobDescription{}, fmt.Errorf("%w: content required", domain.ErrInvalidArgument)
	}
	clean := textx.Normalize(content)
	vec, err := s.Embedder.Embed(ctx, clean)
	if err != nil {
		return domain.JobDescription{}, fmt.Errorf("embed job description: %w", err)
	}
	jd := domain.JobDescription{
		Title:          title,
		Content:        content,
		CleanText:      clean,
		Embedding:      vec,
		EmbeddingModel: s.Embedder.ModelName(),
		Status:         domain.JobDescriptionCreated,
	}
	id, err := s.Repo.Create(ctx, jd)
	if err != nil {
		return domain.JobDescription{}, err
	}
	jd.ID = id
	return jd, nil
}

// Get loads a job description by id.
func (s JobDescriptionService) Get(ctx domain.Context, id string) (domain.JobDescription, error) {
	return s.Repo.Get(ctx, id)
}
