// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// FileProcessingTask is the payload of one text-extraction task. The worker
// resolves the newest processing job for the file itself, so the payload
// only needs to reference the file.
type FileProcessingTask struct {
	FileID string `json:"file_id"`
}
