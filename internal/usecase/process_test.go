package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/internal/usecase"
)

const sampleResumeText = `Jane Doe
Senior Backend Engineer

SKILLS
Python, Go, Docker, Kubernetes, PostgreSQL

EXPERIENCE
- Built event-driven ingestion services in Go and Python handling millions of documents per day
- Operated Kubernetes clusters and Docker-based CI pipelines for a team of twelve engineers
- Designed PostgreSQL schemas and tuned queries for sub-millisecond lookups

EDUCATION
BSc Computer Science, State University
`

func task() domain.ProcessTaskPayload {
	return domain.ProcessTaskPayload{ResumeID: "r-1", StoragePath: "/uploads/r-1.pdf", Filename: "cv.pdf"}
}

func TestProcess_FullPipeline(t *testing.T) {
	t.Parallel()
	repo := &stubResumeRepo{}
	svc := usecase.NewProcessService(repo, &stubExtractor{text: sampleResumeText}, &stubEmbedder{vec: []float32{0.1, 0.2}, name: "all-MiniLM-L6-v2"})

	require.NoError(t, svc.Process(context.Background(), task()))

	assert.Equal(t, []domain.ResumeStatus{
		domain.ResumeProcessing,
		domain.ResumeExtracted,
		domain.ResumeProcessed,
	}, repo.statuses)
	assert.Equal(t, sampleResumeText, repo.rawText)
	assert.NotContains(t, repo.cleanText, "\n")
	assert.Contains(t, repo.parsed.Skills, "python")
	assert.Contains(t, repo.parsed.Skills, "docker")
	assert.True(t, repo.parsed.SectionsFound.Skills)
	assert.Equal(t, []float32{0.1, 0.2}, repo.embedding)
	assert.Equal(t, "all-MiniLM-L6-v2", repo.model)
}

func TestProcess_ShortTextNeedsOCR(t *testing.T) {
	t.Parallel()
	repo := &stubResumeRepo{}
	svc := usecase.NewProcessService(repo, &stubExtractor{text: "   scanned image, no text layer   "}, &stubEmbedder{vec: []float32{1}})

	require.NoError(t, svc.Process(context.Background(), task()))

	assert.Equal(t, []domain.ResumeStatus{domain.ResumeProcessing, domain.ResumeNeedsOCR}, repo.statuses)
	// The short raw text is still persisted for inspection.
	assert.Equal(t, "   scanned image, no text layer   ", repo.rawText)
}

func TestProcess_ShortTextBoundary(t *testing.T) {
	t.Parallel()

	repo := &stubResumeRepo{}
	exactly200 := strings.Repeat("a", 200)
	svc := usecase.NewProcessService(repo, &stubExtractor{text: exactly200}, &stubEmbedder{vec: []float32{1}})
	require.NoError(t, svc.Process(context.Background(), task()))
	assert.Equal(t, domain.ResumeProcessed, repo.statuses[len(repo.statuses)-1])

	repo = &stubResumeRepo{}
	svc = usecase.NewProcessService(repo, &stubExtractor{text: strings.Repeat("a", 199)}, &stubEmbedder{vec: []float32{1}})
	require.NoError(t, svc.Process(context.Background(), task()))
	assert.Equal(t, domain.ResumeNeedsOCR, repo.statuses[len(repo.statuses)-1])

	// The threshold counts characters, not bytes: 100 CJK characters are 300
	// bytes but still a too-short text layer.
	repo = &stubResumeRepo{}
	svc = usecase.NewProcessService(repo, &stubExtractor{text: strings.Repeat("世", 100)}, &stubEmbedder{vec: []float32{1}})
	require.NoError(t, svc.Process(context.Background(), task()))
	assert.Equal(t, domain.ResumeNeedsOCR, repo.statuses[len(repo.statuses)-1])

	repo = &stubResumeRepo{}
	svc = usecase.NewProcessService(repo, &stubExtractor{text: strings.Repeat("世", 200)}, &stubEmbedder{vec: []float32{1}})
	require.NoError(t, svc.Process(context.Background(), task()))
	assert.Equal(t, domain.ResumeProcessed, repo.statuses[len(repo.statuses)-1])
}

func TestProcess_ExtractionFailure(t *testing.T) {
	t.Parallel()
	repo := &stubResumeRepo{}
	svc := usecase.NewProcessService(repo, &stubExtractor{err: errBoom}, &stubEmbedder{vec: []float32{1}})

	require.NoError(t, svc.Process(context.Background(), task()))

	assert.Equal(t, []domain.ResumeStatus{domain.ResumeProcessing, domain.ResumeFailed}, repo.statuses)
	assert.Contains(t, repo.diagnostic, "extraction failed")
	assert.Contains(t, repo.diagnostic, "boom")
}

func TestProcess_EmbeddingFailure(t *testing.T) {
	t.Parallel()
	repo := &stubResumeRepo{}
	svc := usecase.NewProcessService(repo, &stubExtractor{text: sampleResumeText}, &stubEmbedder{err: errBoom})

	require.NoError(t, svc.Process(context.Background(), task()))

	assert.Equal(t, []domain.ResumeStatus{
		domain.ResumeProcessing,
		domain.ResumeExtracted,
		domain.ResumeFailed,
	}, repo.statuses)
	assert.Contains(t, repo.diagnostic, "processing failed")
}

func TestProcess_StatusWriteErrorPropagates(t *testing.T) {
	t.Parallel()
	repo := &stubResumeRepo{markErr: errBoom}
	svc := usecase.NewProcessService(repo, &stubExtractor{text: sampleResumeText}, &stubEmbedder{vec: []float32{1}})

	assert.Error(t, svc.Process(context.Background(), task()))
}
