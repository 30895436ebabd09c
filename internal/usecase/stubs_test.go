package usecase_test

import (
	"errors"
	"fmt"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// Shared hand-rolled stubs for the usecase tests.

type stubResumeRepo struct {
	created     []domain.Resume
	statuses    []domain.ResumeStatus
	rawText     string
	diagnostic  string
	cleanText   string
	parsed      domain.ParsedResumeSections
	embedding   []float32
	model       string
	topRows     []domain.RankedResume
	topCalls    int
	getResume   domain.Resume
	getErr      error
	markErr     error
}

func (r *stubResumeRepo) Create(_ domain.Context, res domain.Resume) (string, error) {
	r.created = append(r.created, res)
	if res.ID == "" {
		return fmt.Sprintf("generated-%d", len(r.created)), nil
	}
	return res.ID, nil
}

func (r *stubResumeRepo) Get(_ domain.Context, _ string) (domain.Resume, error) {
	if r.getErr != nil {
		return domain.Resume{}, r.getErr
	}
	return r.getResume, nil
}

func (r *stubResumeRepo) MarkProcessing(_ domain.Context, _ string) error {
	r.statuses = append(r.statuses, domain.ResumeProcessing)
	return r.markErr
}

func (r *stubResumeRepo) MarkExtracted(_ domain.Context, _ string, raw string) error {
	r.statuses = append(r.statuses, domain.ResumeExtracted)
	r.rawText = raw
	return r.markErr
}

func (r *stubResumeRepo) MarkNeedsOCR(_ domain.Context, _ string, raw string) error {
	r.statuses = append(r.statuses, domain.ResumeNeedsOCR)
	r.rawText = raw
	return r.markErr
}

func (r *stubResumeRepo) MarkFailed(_ domain.Context, _ string, diagnostic string) error {
	r.statuses = append(r.statuses, domain.ResumeFailed)
	r.diagnostic = diagnostic
	return r.markErr
}

func (r *stubResumeRepo) MarkProcessed(_ domain.Context, _ string, clean string, parsed domain.ParsedResumeSections, embedding []float32, model string) error {
	r.statuses = append(r.statuses, domain.ResumeProcessed)
	r.cleanText = clean
	r.parsed = parsed
	r.embedding = embedding
	r.model = model
	return r.markErr
}

func (r *stubResumeRepo) TopByEmbedding(_ domain.Context, _ []float32, k int) ([]domain.RankedResume, error) {
	r.topCalls++
	if k < len(r.topRows) {
		return r.topRows[:k], nil
	}
	return r.topRows, nil
}

type stubJDRepo struct {
	jd  domain.JobDescription
	err error
}

func (r *stubJDRepo) Create(_ domain.Context, jd domain.JobDescription) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.jd = jd
	if jd.ID == "" {
		return "jd-1", nil
	}
	return jd.ID, nil
}

func (r *stubJDRepo) Get(_ domain.Context, id string) (domain.JobDescription, error) {
	if r.err != nil {
		return domain.JobDescription{}, r.err
	}
	return r.jd, nil
}

type stubEmbedder struct {
	vec  []float32
	err  error
	name string
}

func (e *stubEmbedder) Embed(_ domain.Context, _ string) ([]float32, error) {
	return e.vec, e.err
}

func (e *stubEmbedder) ModelName() string {
	if e.name == "" {
		return "stub-model"
	}
	return e.name
}

type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) ExtractPath(_ domain.Context, _, _ string) (string, error) {
	return e.text, e.err
}

type stubQueue struct {
	payloads []domain.ProcessTaskPayload
	err      error
}

func (q *stubQueue) EnqueueProcess(_ domain.Context, p domain.ProcessTaskPayload) error {
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, p)
	return nil
}

type stubFileStore struct {
	saved map[string][]byte
	err   error
}

func (f *stubFileStore) Save(_ domain.Context, resumeID, _ string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[resumeID] = data
	return "/uploads/" + resumeID, nil
}

var errBoom = errors.New("boom")
