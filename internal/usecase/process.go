package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/internal/parser"
	"github.com/fairyhunter13/resume-matcher/pkg/textx"
)

// minExtractedTextLen gates the OCR fallback: documents whose extracted text
// trims to fewer characters (runes, not bytes) are assumed to be scans
// without a text layer.
const minExtractedTextLen = 200

// ProcessService drives a resume through the processing state machine:
// UPLOADED -> PROCESSING -> {EXTRACTED -> PROCESSED} | NEEDS_OCR | FAILED.
// Every transition is one atomically-persisted status+field update. Pipeline
// failures never propagate to any caller; they end up as the resume's
// terminal FAILED status with a diagnostic, observable only via polling.
type ProcessService struct {
	Repo      domain.ResumeRepository
	Extractor domain.TextExtractor
	Embedder  domain.Embedder
}

// NewProcessService constructs a ProcessService.
func NewProcessService(repo domain.ResumeRepository, ext domain.TextExtractor, emb domain.Embedder) ProcessService {
	return ProcessService{Repo: repo, Extractor: ext, Embedder: emb}
}

// Process runs the pipeline for one resume. The returned error reports
// infrastructure trouble (the status row could not be written); domain-level
// failures are swallowed into the FAILED or NEEDS_OCR status instead.
func (s ProcessService) Process(ctx domain.Context, task domain.ProcessTaskPayload) error {
	start := time.Now()
	observability.StartPipeline()
	final := domain.ResumeFailed
	defer func() { observability.FinishPipeline(string(final), time.Since(start)) }()

	id := task.ResumeID
	if err := s.Repo.MarkProcessing(ctx, id); err != nil {
		return err
	}

	raw, err := s.Extractor.ExtractPath(ctx, task.Filename, task.StoragePath)
	if err != nil {
		slog.Warn("extraction failed", slog.String("resume_id", id), slog.Any("error", err))
		return s.fail(ctx, id, fmt.Sprintf("extraction failed: %v", err))
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(raw)); n < minExtractedTextLen {
		final = domain.ResumeNeedsOCR
		slog.Info("text layer too short, needs OCR", slog.String("resume_id", id), slog.Int("chars", n))
		return s.Repo.MarkNeedsOCR(ctx, id, raw)
	}

	if err := s.Repo.MarkExtracted(ctx, id, raw); err != nil {
		return err
	}

	clean := textx.Normalize(raw)
	parsed := parser.Parse(clean)

	vec, err := s.Embedder.Embed(ctx, clean)
	if err != nil {
		slog.Warn("embedding failed", slog.String("resume_id", id), slog.Any("error", err))
		return s.fail(ctx, id, fmt.Sprintf("processing failed: %v", err))
	}

	if err := s.Repo.MarkProcessed(ctx, id, clean, parsed, vec, s.Embedder.ModelName()); err != nil {
		return err
	}
	final = domain.ResumeProcessed
	slog.Info("resume processed",
		slog.String("resume_id", id),
		slog.Int("skills", len(parsed.Skills)),
		slog.Bool("skills_section_found", parsed.SectionsFound.Skills))
	return nil
}

func (s ProcessService) fail(ctx domain.Context, id, diagnostic string) error {
	return s.Repo.MarkFailed(ctx, id, diagnostic)
}
