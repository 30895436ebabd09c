package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/internal/usecase"
)

func TestJobDescriptionCreate(t *testing.T) {
	t.Parallel()
	repo := &stubJDRepo{}
	svc := usecase.NewJobDescriptionService(repo, &stubEmbedder{vec: []float32{0.3, 0.4}, name: "all-MiniLM-L6-v2"})

	jd, err := svc.Create(context.Background(), "Backend Engineer", "We need\n\n  Go and   Python experience.")
	require.NoError(t, err)

	assert.Equal(t, "jd-1", jd.ID)
	assert.Equal(t, "Backend Engineer", jd.Title)
	assert.Equal(t, "We need\n\n  Go and   Python experience.", jd.Content)
	assert.Equal(t, "We need Go and Python experience.", jd.CleanText)
	assert.Equal(t, []float32{0.3, 0.4}, jd.Embedding)
	assert.Equal(t, "all-MiniLM-L6-v2", jd.EmbeddingModel)
	assert.Equal(t, domain.JobDescriptionCreated, jd.Status)
}

func TestJobDescriptionCreate_EmptyContent(t *testing.T) {
	t.Parallel()
	svc := usecase.NewJobDescriptionService(&stubJDRepo{}, &stubEmbedder{vec: []float32{1}})

	_, err := svc.Create(context.Background(), "Title", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestJobDescriptionCreate_EmbedFailureBlocksCreation(t *testing.T) {
	t.Parallel()
	repo := &stubJDRepo{}
	svc := usecase.NewJobDescriptionService(repo, &stubEmbedder{err: errBoom})

	_, err := svc.Create(context.Background(), "Title", "some content")
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, repo.jd.ID)
}

func TestJobDescriptionGet(t *testing.T) {
	t.Parallel()
	repo := &stubJDRepo{jd: domain.JobDescription{ID: "jd-1", Title: "Backend Engineer"}}
	svc := usecase.NewJobDescriptionService(repo, &stubEmbedder{vec: []float32{1}})

	got, err := svc.Get(context.Background(), "jd-1")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", got.Title)

	repo.err = domain.ErrNotFound
	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
