package deposits

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// RefundCommand instructs the payment provider gateway to return a deposit.
// CommandID equals the reservation ID, so the gateway can drop duplicates if
// a sweep pass is ever replayed.
type RefundCommand struct {
	CommandID        string    `json:"command_id"`
	ReservationID    string    `json:"reservation_id"`
	HolderRef        string    `json:"holder_ref"`
	PaymentReference string    `json:"payment_reference"`
	AmountCents      int64     `json:"amount_cents"`
	IssuedAt         time.Time `json:"issued_at"`
}

func (c *RefundCommand) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// RefundIssuer sends refund commands downstream.
type RefundIssuer interface {
	IssueRefund(ctx context.Context, cmd *RefundCommand) error
	Close() error
}

// KafkaRefundIssuerConfig configures the refund command producer
type KafkaRefundIssuerConfig struct {
	Brokers     []string
	RefundTopic string
	RetryMax    int
	TimeoutMs   int
}

func DefaultKafkaRefundIssuerConfig() *KafkaRefundIssuerConfig {
	return &KafkaRefundIssuerConfig{
		Brokers:     []string{"localhost:9092"},
		RefundTopic: "refund-commands",
		RetryMax:    3,
		TimeoutMs:   10000,
	}
}

// KafkaRefundIssuer publishes refund commands to Kafka
type KafkaRefundIssuer struct {
	producer sarama.SyncProducer
	config   *KafkaRefundIssuerConfig
}

func NewKafkaRefundIssuer(config *KafkaRefundIssuerConfig) (RefundIssuer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund producer: %w", err)
	}

	log.Printf("📤 Kafka refund issuer created successfully")
	return &KafkaRefundIssuer{
		producer: producer,
		config:   config,
	}, nil
}

func (kri *KafkaRefundIssuer) IssueRefund(ctx context.Context, cmd *RefundCommand) error {
	messageBytes, err := cmd.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal refund command: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     kri.config.RefundTopic,
		Key:       sarama.StringEncoder(cmd.ReservationID),
		Value:     sarama.ByteEncoder(messageBytes),
		Timestamp: cmd.IssuedAt,
	}

	partition, offset, err := kri.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send refund command to Kafka: %w", err)
	}

	log.Printf("📤 Refund command published - Partition: %d, Offset: %d, Reservation: %s, Amount: %d",
		partition, offset, cmd.ReservationID, cmd.AmountCents)

	return nil
}

func (kri *KafkaRefundIssuer) Close() error {
	if err := kri.producer.Close(); err != nil {
		return fmt.Errorf("failed to close refund producer: %w", err)
	}
	return nil
}
