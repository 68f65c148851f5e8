package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// NoticeProducer interface defines the contract for publishing notices
type NoticeProducer interface {
	PublishNotice(ctx context.Context, notice *ReservationNotice) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// KafkaProducerConfig contains configuration for the Kafka notice producer
type KafkaProducerConfig struct {
	Brokers          []string
	NoticeTopic      string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		NoticeTopic:      "reservation-notices",
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000,
	}
}

// KafkaNoticeProducer publishes reservation notices to Kafka
type KafkaNoticeProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
}

func NewKafkaNoticeProducer(config *KafkaProducerConfig) (NoticeProducer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = config.MaxMessageBytes

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps per-reservation ordering
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Printf("📤 Kafka notice producer created successfully")
	return &KafkaNoticeProducer{
		producer: producer,
		config:   config,
	}, nil
}

func (knp *KafkaNoticeProducer) PublishNotice(ctx context.Context, notice *ReservationNotice) error {
	messageBytes, err := notice.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     knp.config.NoticeTopic,
		Key:       sarama.StringEncoder(notice.PartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Timestamp: notice.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("notice_type"), Value: []byte(notice.Type)},
		},
	}

	partition, offset, err := knp.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send notice to Kafka: %w", err)
	}

	log.Printf("📤 Notice published - Topic: %s, Partition: %d, Offset: %d, Type: %s, Reservation: %s",
		knp.config.NoticeTopic, partition, offset, notice.Type, notice.ReservationID)

	return nil
}

func (knp *KafkaNoticeProducer) Close() error {
	if err := knp.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

func (knp *KafkaNoticeProducer) HealthCheck(ctx context.Context) error {
	if knp.producer == nil {
		return fmt.Errorf("producer not initialized")
	}
	return nil
}
