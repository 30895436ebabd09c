// Package domain defines the core entities, ports, and error taxonomy.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrExtractionFailed   = errors.New("extraction failed")
	ErrProcessingFailed   = errors.New("processing failed")
	ErrInternal           = errors.New("internal error")
)

// ResumeStatus is the lifecycle state of an uploaded resume document.
// UPLOADED -> PROCESSING -> {EXTRACTED -> PROCESSED} | NEEDS_OCR | FAILED.
// PROCESSED, NEEDS_OCR and FAILED are terminal; there is no automatic retry.
type ResumeStatus string

const (
	ResumeUploaded   ResumeStatus = "UPLOADED"
	ResumeProcessing ResumeStatus = "PROCESSING"
	ResumeExtracted  ResumeStatus = "EXTRACTED"
	ResumeProcessed  ResumeStatus = "PROCESSED"
	ResumeNeedsOCR   ResumeStatus = "NEEDS_OCR"
	ResumeFailed     ResumeStatus = "FAILED"
)

// JobDescriptionStatus is terminal at creation; job descriptions are cleaned
// and embedded inline, never by background work.
type JobDescriptionStatus string

// JobDescriptionCreated is the only job description status.
const JobDescriptionCreated JobDescriptionStatus = "CREATED"

// Resume is one uploaded document and everything the pipeline derived from it.
// Invariant: Status and the derived fields move together; PROCESSED implies
// CleanText, Parsed and Embedding are all non-nil.
type Resume struct {
	ID             string
	Filename       string
	ContentType    string
	StoragePath    string
	Status         ResumeStatus
	RawText        *string
	CleanText      *string
	Parsed         *ParsedResumeSections
	Embedding      []float32
	EmbeddingModel *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// JobDescription is one posted job ad, fully populated at creation time.
type JobDescription struct {
	ID             string
	Title          string
	Content        string
	CleanText      string
	Embedding      []float32
	EmbeddingModel string
	Status         JobDescriptionStatus
	CreatedAt      time.Time
}

// ParsedResumeSections is derived wholesale from a resume's clean text.
// SectionsFound reports whether a non-empty chunk was located per section,
// independent of whether extraction produced any bullets.
type ParsedResumeSections struct {
	Skills        []string      `json:"skills"`
	Education     []string      `json:"education"`
	Experience    []string      `json:"experience"`
	SectionsFound SectionsFound `json:"sections_found"`
}

// SectionsFound flags which labeled sections yielded a non-empty chunk.
type SectionsFound struct {
	Skills     bool `json:"skills"`
	Education  bool `json:"education"`
	Experience bool `json:"experience"`
}

// MatchResult is the per-resume outcome of a match request. Ephemeral:
// computed fresh on every request, never persisted.
type MatchResult struct {
	ResumeID            string   `json:"resume_id"`
	FinalScore          float64  `json:"final_score"`
	SemanticSimilarity  float64  `json:"semantic_similarity"`
	SkillsOverlap       float64  `json:"skills_overlap"`
	ExperienceAlignment float64  `json:"experience_alignment"`
	SkillsMatched       []string `json:"skills_matched"`
	SkillsMissing       []string `json:"skills_missing"`
	KeywordHits         []string `json:"keyword_hits_in_resume_text"`
	Models              Models   `json:"models"`
}

// Models records the embedding model identifiers used on each side of a match
// so results stay auditable across model-version changes.
type Models struct {
	JobDescriptionEmbeddingModel string `json:"jd_embedding_model"`
	ResumeEmbeddingModel         string `json:"resume_embedding_model"`
}

// RankedResume is a resume row returned by nearest-neighbor retrieval together
// with its cosine similarity (1 - distance) to the query embedding.
type RankedResume struct {
	ID             string
	ParsedJSON     []byte
	CleanText      string
	EmbeddingModel string
	Similarity     float64
}

// Repositories (ports)

// ResumeRepository persists resumes and drives the pipeline's status+field
// transitions; each Mark* call is one atomic update.
type ResumeRepository interface {
	Create(ctx Context, r Resume) (string, error)
	Get(ctx Context, id string) (Resume, error)
	// MarkProcessing flips status to PROCESSING at background start.
	MarkProcessing(ctx Context, id string) error
	// MarkExtracted persists raw text with status EXTRACTED.
	MarkExtracted(ctx Context, id, rawText string) error
	// MarkNeedsOCR persists the (possibly empty) raw text with status NEEDS_OCR.
	MarkNeedsOCR(ctx Context, id, rawText string) error
	// MarkFailed records a diagnostic in place of raw text unless raw text was
	// already committed by an earlier transition, which it preserves.
	MarkFailed(ctx Context, id, diagnostic string) error
	// MarkProcessed persists clean text, parsed sections, embedding and model
	// with status PROCESSED in one atomic update.
	MarkProcessed(ctx Context, id, cleanText string, parsed ParsedResumeSections, embedding []float32, model string) error
	// TopByEmbedding returns up to k PROCESSED resumes with non-null embeddings
	// ordered by ascending cosine distance to the query vector.
	TopByEmbedding(ctx Context, query []float32, k int) ([]RankedResume, error)
}

// JobDescriptionRepository persists and loads job descriptions.
type JobDescriptionRepository interface {
	Create(ctx Context, jd JobDescription) (string, error)
	Get(ctx Context, id string) (JobDescription, error)
}

// FileStore persists raw uploaded bytes keyed by resume id.
type FileStore interface {
	Save(ctx Context, resumeID, filename string, data []byte) (string, error)
}

// Queue schedules background resume processing. Enqueueing must not block the
// upload response beyond the publish itself.
type Queue interface {
	EnqueueProcess(ctx Context, payload ProcessTaskPayload) error
}

// Embedder turns text into a fixed-length unit-normalized vector.
// Implementations are stateless and safe for concurrent use; model resolution
// is lazily initialized once per process.
type Embedder interface {
	Embed(ctx Context, text string) ([]float32, error)
	ModelName() string
}

// TextExtractor converts a stored document to plain text. Selection is by file
// extension; unsupported extensions fail with ErrUnsupportedFormat.
type TextExtractor interface {
	ExtractPath(ctx Context, fileName, path string) (string, error)
}

// ProcessTaskPayload is the message handed to the processing worker.
type ProcessTaskPayload struct {
	ResumeID    string `json:"resume_id"`
	StoragePath string `json:"storage_path"`
	Filename    string `json:"filename"`
}

// Context aliases context.Context; adapters and usecases pass it through.
type Context = context.Context
