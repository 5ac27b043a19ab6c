package model

import "time"

// EsDocument is the document indexed into Elasticsearch once extraction
// completes. The document id equals FileID, so re-processing a file is an
// idempotent overwrite of its index entry.
type EsDocument struct {
	FileID     string    `json:"file_id"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SearchResultDTO is one ranked search hit returned to clients. It carries
// file metadata plus a highlighted snippet; the raw extracted text never
// leaves the server.
type SearchResultDTO struct {
	ID                    string    `json:"id"`
	Filename              string    `json:"filename"`
	OriginalName          string    `json:"originalName"`
	MimeType              string    `json:"mimeType"`
	SizeBytes             int64     `json:"sizeBytes"`
	LatestJobStatus       JobStatus `json:"latestJobStatus"`
	LatestJobErrorMessage *string   `json:"latestJobErrorMessage"`
	Snippet               string    `json:"snippet"`
	Score                 float64   `json:"score"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// SearchResponse is the paginated result of a full-text search. Total is
// the full match count, independent of the limit/offset window.
type SearchResponse struct {
	Files  []SearchResultDTO `json:"files"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// ListResponse is a newest-first page of stored files.
type ListResponse struct {
	Files  []File `json:"files"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// UploadResult is the outcome of an upload. IsDuplicate marks that the
// bytes were already stored; AttemptedFilename echoes the name used in this
// request so the caller can surface a rename notice when it differs from
// the stored one.
type UploadResult struct {
	*File
	IsDuplicate       bool   `json:"isDuplicate"`
	AttemptedFilename string `json:"attemptedFilename,omitempty"`
}
