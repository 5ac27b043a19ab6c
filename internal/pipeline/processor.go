// Package pipeline implements the asynchronous text-extraction worker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diegopaiva1/file-search-poc/internal/model"
	"github.com/diegopaiva1/file-search-poc/internal/repository"
	"github.com/diegopaiva1/file-search-poc/pkg/extract"
	"github.com/diegopaiva1/file-search-poc/pkg/log"
	"github.com/diegopaiva1/file-search-poc/pkg/tasks"

	"gorm.io/gorm"
)

// defaultExtractTimeout bounds a single extraction attempt when the config
// does not say otherwise. A hung decoder is indistinguishable from a slow
// one, so expiry is treated exactly like a thrown extraction failure.
const defaultExtractTimeout = 2 * time.Minute

// BlobFetcher reads whole objects from the blob store.
type BlobFetcher interface {
	Get(ctx context.Context, objectName string) ([]byte, error)
}

// DocumentIndexer writes extracted content into the search index.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, doc model.EsDocument) error
}

// Processor consumes file-processing tasks and drives each job through
// PENDING → PROCESSING → COMPLETED or FAILED. Those are the only
// transitions; a terminal job is never touched again.
type Processor struct {
	repo      repository.FileRepository
	blobs     BlobFetcher
	extractor extract.Extractor
	indexer   DocumentIndexer
	timeout   time.Duration
}

// NewProcessor creates a Processor. A non-positive timeout falls back to
// the default.
func NewProcessor(repo repository.FileRepository, blobs BlobFetcher, extractor extract.Extractor, indexer DocumentIndexer, timeout time.Duration) *Processor {
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	return &Processor{
		repo:      repo,
		blobs:     blobs,
		extractor: extractor,
		indexer:   indexer,
		timeout:   timeout,
	}
}

// Process handles one task. Delivery is at-least-once, so a missing file,
// a missing job and an already-terminal job are all legitimate no-ops.
// A returned error means no terminal state was recorded and the task
// should be redelivered; every extraction-level fault instead ends the job
// FAILED with the cause captured verbatim.
func (p *Processor) Process(ctx context.Context, task tasks.FileProcessingTask) error {
	file, err := p.repo.FindByID(ctx, task.FileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("file %s no longer exists, dropping task", task.FileID)
			return nil
		}
		return err
	}

	job, err := p.repo.FindLatestJobByFileID(ctx, task.FileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("no processing job found for file %s, dropping task", task.FileID)
			return nil
		}
		return err
	}
	if job.Status.Terminal() {
		log.Infof("job %s for file %s is already %s, nothing to do", job.ID, file.ID, job.Status)
		return nil
	}

	if err := p.repo.MarkJobStatus(ctx, file.ID, job.ID, model.JobStatusProcessing, ""); err != nil {
		return err
	}

	text, err := p.extractText(ctx, file)
	if err != nil {
		return p.fail(ctx, file.ID, job.ID, err)
	}

	// Empty text (unsupported kind) completes without touching the index,
	// so such files can never match a search.
	if text != "" {
		doc := model.EsDocument{
			FileID:     file.ID,
			Filename:   file.OriginalName,
			Content:    text,
			UploadedAt: file.CreatedAt,
		}
		if err := p.indexer.IndexDocument(ctx, doc); err != nil {
			return p.fail(ctx, file.ID, job.ID, fmt.Errorf("failed to index extracted text: %w", err))
		}
	}

	if err := p.repo.CompleteJob(ctx, file.ID, job.ID, text); err != nil {
		return err
	}

	log.Infof("successfully processed file %s (%d characters extracted)", file.ID, len(text))
	return nil
}

// extractText fetches the object and runs the extractor under the
// processing timeout. A panic inside a decoder is converted into an error
// so the caller can still record a terminal FAILED state.
func (p *Processor) extractText(ctx context.Context, file *model.File) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text extraction panicked: %v", r)
		}
	}()

	data, err := p.blobs.Get(ctx, file.ObjectKey)
	if err != nil {
		return "", fmt.Errorf("failed to fetch object %q: %w", file.ObjectKey, err)
	}

	extractCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err = p.extractor.Extract(extractCtx, data, file.MimeType, file.OriginalName)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("text extraction timed out after %s", p.timeout)
		}
		return "", fmt.Errorf("text extraction failed: %w", err)
	}
	return text, nil
}

// fail records the terminal FAILED state on both the job and its file.
// Only if that write itself fails does the task bubble an error out for
// redelivery; the job must never be left parked in PROCESSING.
func (p *Processor) fail(ctx context.Context, fileID, jobID string, cause error) error {
	log.Errorf("processing failed for file %s: %v", fileID, cause)
	if err := p.repo.MarkJobStatus(ctx, fileID, jobID, model.JobStatusFailed, cause.Error()); err != nil {
		return fmt.Errorf("failed to record FAILED state for job %s: %w", jobID, err)
	}
	return nil
}
