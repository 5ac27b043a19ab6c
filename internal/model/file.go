// Package model defines the Go structs mapped to database tables.
package model

import "time"

// JobStatus is the lifecycle state of a processing job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final. Terminal jobs are never
// mutated again; they can only be superseded by a newly created job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// File is the ORM model of the 'files' table. One row represents one
// logically distinct document: the unique file_hash guarantees that
// re-uploads of identical bytes converge on a single row regardless of
// filename. LatestJobStatus/LatestJobErrorMessage denormalize the newest
// processing job so listings do not need a join.
type File struct {
	ID                    string    `gorm:"type:char(36);primaryKey" json:"id"`
	Filename              string    `gorm:"type:varchar(255);not null" json:"filename"`
	OriginalName          string    `gorm:"column:original_name;type:varchar(255);not null" json:"originalName"`
	MimeType              string    `gorm:"column:mime_type;type:varchar(100);not null" json:"mimeType"`
	SizeBytes             int64     `gorm:"column:size_bytes;not null" json:"sizeBytes"`
	ObjectKey             string    `gorm:"column:object_key;type:varchar(500);not null" json:"-"`
	FileHash              string    `gorm:"column:file_hash;type:char(64);uniqueIndex;not null" json:"fileHash"`
	ExtractedText         *string   `gorm:"column:extracted_text;type:longtext" json:"-"`
	LatestJobStatus       JobStatus `gorm:"column:latest_job_status;type:varchar(20);not null;default:pending" json:"latestJobStatus"`
	LatestJobErrorMessage *string   `gorm:"column:latest_job_error_message;type:text" json:"latestJobErrorMessage"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName maps the model to its table.
func (File) TableName() string {
	return "files"
}

// FileProcessingJob is the ORM model of the 'file_processing_jobs' table.
// A file accumulates jobs over time (a failed extraction is retried by
// creating a fresh job); the newest one is authoritative.
type FileProcessingJob struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`
	FileID       string    `gorm:"column:file_id;type:char(36);index;not null" json:"fileId"`
	File         *File     `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Status       JobStatus `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	ErrorMessage *string   `gorm:"column:error_message;type:text" json:"errorMessage"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName maps the model to its table.
func (FileProcessingJob) TableName() string {
	return "file_processing_jobs"
}
