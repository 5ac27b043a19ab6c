package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diegopaiva1/file-search-poc/internal/model"
	"github.com/diegopaiva1/file-search-poc/internal/repository"
	"github.com/diegopaiva1/file-search-poc/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrFileNotFound is returned when the referenced file id does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrEmptyFile is returned when an upload carries no bytes.
	ErrEmptyFile = errors.New("uploaded file must not be empty")
)

// BlobStore is the object-storage capability the service depends on.
type BlobStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
	Get(ctx context.Context, objectName string) ([]byte, error)
	Delete(ctx context.Context, objectName string) error
}

// TaskProducer enqueues extraction tasks onto the processing queue.
type TaskProducer interface {
	EnqueueExtraction(ctx context.Context, fileID string) error
}

// SearchIndex is the slice of the search backend the service needs: taking
// a deleted file's document out of the index.
type SearchIndex interface {
	DeleteDocument(ctx context.Context, fileID string) error
}

// FileService coordinates uploads and file management across the blob
// store, the metadata store and the processing queue.
type FileService interface {
	Upload(ctx context.Context, data []byte, originalName, mimeType string) (*model.UploadResult, error)
	GetByID(ctx context.Context, id string) (*model.File, error)
	List(ctx context.Context, limit, offset int) (*model.ListResponse, error)
	Download(ctx context.Context, id string) (*model.File, []byte, error)
	Delete(ctx context.Context, id string) error
}

type fileService struct {
	repo  repository.FileRepository
	blobs BlobStore
	queue TaskProducer
	index SearchIndex
}

// NewFileService creates a FileService with its injected collaborators.
func NewFileService(repo repository.FileRepository, blobs BlobStore, queue TaskProducer, index SearchIndex) FileService {
	return &fileService{
		repo:  repo,
		blobs: blobs,
		queue: queue,
		index: index,
	}
}

// Upload ingests raw bytes. Identical content is detected by fingerprint
// and converges on the already-stored record; new content is written to the
// blob store first, committed to the metadata store second, and only then
// queued for extraction.
//
// The blob store and the database have no shared commit, so the sequence is
// ordered to keep the database authoritative: a blob without a row is an
// orphan we compensate (or at worst log), a row without a blob would be a
// correctness violation and can never happen.
func (s *fileService) Upload(ctx context.Context, data []byte, originalName, mimeType string) (*model.UploadResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	hash := Fingerprint(data)

	// A concurrent upload of the same content can slip past the locking
	// read and win the unique-index race at commit time. One retry then
	// finds its row and resolves this request as a duplicate.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		result, raced, err := s.ingest(ctx, data, originalName, mimeType, hash)
		if raced {
			log.Warnf("concurrent upload of identical content detected (hash %s), retrying as duplicate", hash)
			lastErr = err
			continue
		}
		return result, err
	}
	return nil, fmt.Errorf("upload kept losing the dedup race: %w", lastErr)
}

func (s *fileService) ingest(ctx context.Context, data []byte, originalName, mimeType, hash string) (*model.UploadResult, bool, error) {
	tx, err := s.repo.BeginIngest(ctx)
	if err != nil {
		return nil, false, err
	}

	existing, err := tx.FindByHashForUpdate(hash)
	if err == nil {
		result, err := s.resolveDuplicate(ctx, tx, existing, originalName)
		return result, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		_ = tx.Rollback()
		return nil, false, err
	}

	// New content. The object is written before any row is committed; if
	// the write fails there is nothing to roll back in the database.
	objectKey := fmt.Sprintf("%d-%s", time.Now().UnixNano(), originalName)
	if err := s.blobs.Put(ctx, objectKey, data, mimeType); err != nil {
		_ = tx.Rollback()
		return nil, false, fmt.Errorf("blob store write failed: %w", err)
	}

	file := &model.File{
		ID:              uuid.NewString(),
		Filename:        originalName,
		OriginalName:    originalName,
		MimeType:        mimeType,
		SizeBytes:       int64(len(data)),
		ObjectKey:       objectKey,
		FileHash:        hash,
		LatestJobStatus: model.JobStatusPending,
	}
	job := &model.FileProcessingJob{
		ID:     uuid.NewString(),
		FileID: file.ID,
		Status: model.JobStatusPending,
	}

	if err = tx.CreateFile(file); err == nil {
		err = tx.CreateJob(job)
	}
	if err == nil {
		err = tx.Commit()
	} else {
		_ = tx.Rollback()
	}
	if err != nil {
		// The just-written object is now orphaned; take it back out.
		s.compensateBlob(ctx, objectKey)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, true, err
		}
		return nil, false, err
	}

	// Enqueue strictly after commit so the worker can only ever observe a
	// committed row. An enqueue failure is not compensated: the record
	// exists and simply stays PENDING until an operational sweep requeues it.
	if err := s.queue.EnqueueExtraction(ctx, file.ID); err != nil {
		log.Errorf("file %s committed but enqueue failed, record stays pending: %v", file.ID, err)
	}

	log.Infof("file uploaded and queued for processing: %s", file.ID)
	return &model.UploadResult{File: file, IsDuplicate: false}, false, nil
}

// resolveDuplicate finishes an ingestion that found an existing record for
// the same content. A new PENDING job is created only when the file has no
// job yet or its most recent one FAILED; a live or completed job means
// there is nothing to do.
func (s *fileService) resolveDuplicate(ctx context.Context, tx repository.IngestTx, existing *model.File, attemptedName string) (*model.UploadResult, error) {
	requeue := false
	latest, err := tx.FindLatestJob(existing.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			_ = tx.Rollback()
			return nil, err
		}
		requeue = true
	} else if latest.Status == model.JobStatusFailed {
		requeue = true
	}

	if requeue {
		job := &model.FileProcessingJob{
			ID:     uuid.NewString(),
			FileID: existing.ID,
			Status: model.JobStatusPending,
		}
		if err := tx.CreateJob(job); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		existing.LatestJobStatus = model.JobStatusPending
		existing.LatestJobErrorMessage = nil
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if requeue {
		if err := s.queue.EnqueueExtraction(ctx, existing.ID); err != nil {
			log.Errorf("requeued job for file %s committed but enqueue failed: %v", existing.ID, err)
		} else {
			log.Infof("requeued processing for existing file: %s", existing.ID)
		}
	}

	log.Infof("duplicate content, returning existing file %s (attempted filename %q)", existing.ID, attemptedName)
	return &model.UploadResult{
		File:              existing,
		IsDuplicate:       true,
		AttemptedFilename: attemptedName,
	}, nil
}

// compensateBlob deletes an orphaned object after a failed metadata commit.
// Best effort: a failure leaves an orphan blob behind, which is logged and
// accepted, never escalated.
func (s *fileService) compensateBlob(ctx context.Context, objectKey string) {
	if err := s.blobs.Delete(ctx, objectKey); err != nil {
		log.Errorf("failed to clean up blob %q after transaction failure, object is orphaned: %v", objectKey, err)
	}
}

func (s *fileService) GetByID(ctx context.Context, id string) (*model.File, error) {
	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

func (s *fileService) List(ctx context.Context, limit, offset int) (*model.ListResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	files, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []model.File{}
	}
	return &model.ListResponse{Files: files, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *fileService) Download(ctx context.Context, id string) (*model.File, []byte, error) {
	file, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.blobs.Get(ctx, file.ObjectKey)
	if err != nil {
		return nil, nil, err
	}
	return file, data, nil
}

// Delete removes the blob first and only then the metadata row (cascading
// its jobs). If the blob deletion fails, the row survives: an orphaned but
// still-listed file beats a metadata row pointing at nothing.
func (s *fileService) Delete(ctx context.Context, id string) error {
	file, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, file.ObjectKey); err != nil {
		return fmt.Errorf("blob store delete failed: %w", err)
	}

	if err := s.repo.Delete(ctx, file); err != nil {
		return err
	}

	// Best effort: a stale index entry only yields a hit that hydration
	// drops, so index cleanup does not gate the delete.
	if err := s.index.DeleteDocument(ctx, file.ID); err != nil {
		log.Warnf("failed to delete search index entry for file %s: %v", file.ID, err)
	}

	log.Infof("file deleted successfully: %s", id)
	return nil
}
