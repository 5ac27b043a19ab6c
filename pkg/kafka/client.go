// Package kafka provides the processing-task queue producer and consumer.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diegopaiva1/file-search-poc/internal/config"
	"github.com/diegopaiva1/file-search-poc/pkg/log"
	"github.com/diegopaiva1/file-search-poc/pkg/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// TaskProcessor is implemented by any service able to process one task.
// It decouples the consumer loop from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.FileProcessingTask) error
}

// Producer publishes file-processing tasks to the configured topic.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Producer for the configured brokers and topic.
func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// EnqueueExtraction publishes an extraction task for the given file.
func (p *Producer) EnqueueExtraction(ctx context.Context, fileID string) error {
	taskBytes, err := json.Marshal(tasks.FileProcessingTask{FileID: fileID})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fileID),
		Value: taskBytes,
	})
}

// Close releases the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// StartConsumer runs the consumer loop. Delivery is at-least-once: offsets
// are committed manually after the processor returns. A returned error
// leaves the offset uncommitted so Kafka redelivers; after three failed
// attempts (counted in Redis) the offset is committed to stop retrying.
func StartConsumer(cfg config.KafkaConfig, rdb *redis.Client, processor TaskProcessor) {
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "file-search-consumer"
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka consumer started, listening on topic '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("failed to read message from Kafka", err)
			break
		}

		var task tasks.FileProcessingTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("failed to parse Kafka message: %v, value: %s", err, string(m.Value))
			// Malformed message: commit so it cannot block the partition.
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("failed to commit malformed message: %v", err)
			}
			continue
		}

		log.Infof("processing file task: FileID=%s, offset=%d", task.FileID, m.Offset)
		if err := processor.Process(context.Background(), task); err != nil {
			log.Errorf("failed to process file task: FileID=%s, error: %v", task.FileID, err)
			attemptsKey := fmt.Sprintf("kafka:attempts:%s", task.FileID)
			attempts, incErr := rdb.Incr(context.Background(), attemptsKey).Result()
			if incErr == nil {
				_ = rdb.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()
			} else {
				// Redis unavailable: leave the offset alone and let Kafka retry.
				continue
			}
			if attempts >= 3 {
				log.Errorf("file task failed %d times, committing offset to stop retries: FileID=%s", attempts, task.FileID)
				if err := r.CommitMessages(context.Background(), m); err != nil {
					log.Errorf("failed to commit Kafka offset: %v", err)
				}
			}
		} else {
			_ = rdb.Del(context.Background(), fmt.Sprintf("kafka:attempts:%s", task.FileID)).Err()
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("failed to commit Kafka offset: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("failed to close Kafka consumer: %v", err)
	}
}
