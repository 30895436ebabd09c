// Package usecase contains the application services: resume ingestion, job
// description creation, the document processing pipeline, and the match
// engine.
package usecase

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// ResumeService ingests uploaded resume files and serves resume reads.
type ResumeService struct {
	Repo  domain.ResumeRepository
	Files domain.FileStore
	Queue domain.Queue
}

// NewResumeService constructs a ResumeService.
func NewResumeService(repo domain.ResumeRepository, files domain.FileStore, queue domain.Queue) ResumeService {
	return ResumeService{Repo: repo, Files: files, Queue: queue}
}

// Upload stores the raw bytes, persists the UPLOADED row, and schedules
// background processing. It returns as soon as the task is published; the
// caller observes progress by polling the resume status.
func (s ResumeService) Upload(ctx domain.Context, filename, contentType string, data []byte) (domain.Resume, error) {
	if strings.TrimSpace(filename) == "" {
		return domain.Resume{}, fmt.Errorf("%w: missing filename", domain.ErrInvalidArgument)
	}
	id := uuid.New().String()
	path, err := s.Files.Save(ctx, id, filename, data)
	if err != nil {
		return domain.Resume{}, fmt.Errorf("store upload: %w", err)
	}
	res := domain.Resume{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		StoragePath: path,
		Status:      domain.ResumeUploaded,
	}
	if _, err := s.Repo.Create(ctx, res); err != nil {
		return domain.Resume{}, err
	}
	// Once the UPLOADED row is committed it is never rolled back; a failed
	// publish surfaces to the caller while the stored bytes stay in place.
	err = s.Queue.EnqueueProcess(ctx, domain.ProcessTaskPayload{
		ResumeID:    id,
		StoragePath: path,
		Filename:    filename,
	})
	if err != nil {
		return domain.Resume{}, err
	}
	return res, nil
}

// Get loads a full resume record by id.
func (s ResumeService) Get(ctx domain.Context, id string) (domain.Resume, error) {
	return s.Repo.Get(ctx, id)
}
