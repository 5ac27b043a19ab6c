// Package repository defines the data-access interfaces and their GORM
// implementations.
package repository

import (
	"context"

	"github.com/diegopaiva1/file-search-poc/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileRepository persists files and their processing jobs.
//
// MarkJobStatus and CompleteJob are the only ways to change a job's state:
// each updates the job row and the parent file's denormalized status
// columns in one transaction, so the two can never drift apart.
type FileRepository interface {
	// BeginIngest opens the transaction the ingestion sequence runs in.
	BeginIngest(ctx context.Context) (IngestTx, error)

	FindByID(ctx context.Context, id string) (*model.File, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.File, error)
	List(ctx context.Context, limit, offset int) ([]model.File, int64, error)
	Delete(ctx context.Context, file *model.File) error

	FindLatestJobByFileID(ctx context.Context, fileID string) (*model.FileProcessingJob, error)
	MarkJobStatus(ctx context.Context, fileID, jobID string, status model.JobStatus, errorMessage string) error
	CompleteJob(ctx context.Context, fileID, jobID, extractedText string) error
}

// IngestTx is one open ingestion transaction. The hash lookup takes a row
// lock, so two concurrent uploads of identical content serialize here and
// the second one observes the first one's row.
type IngestTx interface {
	FindByHashForUpdate(hash string) (*model.File, error)
	FindLatestJob(fileID string) (*model.FileProcessingJob, error)
	CreateFile(file *model.File) error
	CreateJob(job *model.FileProcessingJob) error
	Commit() error
	Rollback() error
}

// fileRepository is the GORM implementation of FileRepository.
type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository creates a FileRepository backed by the given database.
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) BeginIngest(ctx context.Context) (IngestTx, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &ingestTx{tx: tx}, nil
}

func (r *fileRepository) FindByID(ctx context.Context, id string) (*model.File, error) {
	var file model.File
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *fileRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.File, error) {
	var files []*model.File
	if len(ids) == 0 {
		return files, nil
	}
	err := r.db.WithContext(ctx).Omit("extracted_text").Where("id IN ?", ids).Find(&files).Error
	return files, err
}

// List returns a newest-first page without the extracted text payload.
func (r *fileRepository) List(ctx context.Context, limit, offset int) ([]model.File, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.File{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var files []model.File
	err := r.db.WithContext(ctx).
		Omit("extracted_text").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&files).Error
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

// Delete removes the file row and its processing-job history atomically.
func (r *fileRepository) Delete(ctx context.Context, file *model.File) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", file.ID).Delete(&model.FileProcessingJob{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", file.ID).Delete(&model.File{}).Error
	})
}

func (r *fileRepository) FindLatestJobByFileID(ctx context.Context, fileID string) (*model.FileProcessingJob, error) {
	var job model.FileProcessingJob
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkJobStatus sets the job status and mirrors it onto the file row in one
// transaction. An empty errorMessage stores NULL.
func (r *fileRepository) MarkJobStatus(ctx context.Context, fileID, jobID string, status model.JobStatus, errorMessage string) error {
	var errVal interface{}
	if errorMessage != "" {
		errVal = errorMessage
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.FileProcessingJob{}).
			Where("id = ?", jobID).
			Updates(map[string]interface{}{"status": status, "error_message": errVal}).Error
		if err != nil {
			return err
		}
		return tx.Model(&model.File{}).
			Where("id = ?", fileID).
			Updates(map[string]interface{}{
				"latest_job_status":        status,
				"latest_job_error_message": errVal,
			}).Error
	})
}

// CompleteJob persists the extracted text and marks job and file COMPLETED
// together.
func (r *fileRepository) CompleteJob(ctx context.Context, fileID, jobID, extractedText string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.FileProcessingJob{}).
			Where("id = ?", jobID).
			Updates(map[string]interface{}{"status": model.JobStatusCompleted, "error_message": nil}).Error
		if err != nil {
			return err
		}
		return tx.Model(&model.File{}).
			Where("id = ?", fileID).
			Updates(map[string]interface{}{
				"latest_job_status":        model.JobStatusCompleted,
				"latest_job_error_message": nil,
				"extracted_text":           extractedText,
			}).Error
	})
}

// ingestTx implements IngestTx over a started GORM transaction.
type ingestTx struct {
	tx *gorm.DB
}

func (t *ingestTx) FindByHashForUpdate(hash string) (*model.File, error) {
	var file model.File
	err := t.tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("file_hash = ?", hash).
		First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (t *ingestTx) FindLatestJob(fileID string) (*model.FileProcessingJob, error) {
	var job model.FileProcessingJob
	err := t.tx.
		Where("file_id = ?", fileID).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (t *ingestTx) CreateFile(file *model.File) error {
	return t.tx.Create(file).Error
}

// CreateJob inserts the job and refreshes the parent's denormalized status
// columns, keeping the mirror in step inside the same transaction.
func (t *ingestTx) CreateJob(job *model.FileProcessingJob) error {
	if err := t.tx.Create(job).Error; err != nil {
		return err
	}
	return t.tx.Model(&model.File{}).
		Where("id = ?", job.FileID).
		Updates(map[string]interface{}{
			"latest_job_status":        job.Status,
			"latest_job_error_message": nil,
		}).Error
}

func (t *ingestTx) Commit() error {
	return t.tx.Commit().Error
}

func (t *ingestTx) Rollback() error {
	return t.tx.Rollback().Error
}
