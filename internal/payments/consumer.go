package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

type Consumer interface {
	StartConsumers(ctx context.Context, numWorkers int) error
	Stop() error
	HealthCheck(ctx context.Context) error
}

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	SessionTimeoutMs     int
	HeartbeatMs          int
	MaxProcessingTime    time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
	DeadLetterTopic      string
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              []string{"localhost:9092"},
		GroupID:              "reservio-payment-workers",
		Topics:               []string{"payment-events"},
		SessionTimeoutMs:     30000,
		HeartbeatMs:          3000,
		MaxProcessingTime:    5 * time.Minute,
		OffsetOldest:         true,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
		DeadLetterTopic:      "payment-events-dlq",
	}
}

// KafkaPaymentConsumer reads payment events off Kafka and feeds them to the
// Handler. Offsets are committed only after the handler returns, so a crash
// redelivers rather than drops; redeliveries are absorbed by the ledger.
// An event that exhausts its retries is parked on the dead-letter topic and
// committed past, never silently skipped.
type KafkaPaymentConsumer struct {
	consumerGroup sarama.ConsumerGroup
	dlqProducer   sarama.SyncProducer
	config        *ConsumerConfig
	handler       *Handler
	topics        []string
	ctx           context.Context
	cancel        context.CancelFunc
}

func NewKafkaPaymentConsumer(config *ConsumerConfig, handler *Handler) (Consumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Return.Successes = true

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	dlqProducer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		consumerGroup.Close()
		return nil, fmt.Errorf("failed to create dead-letter producer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &KafkaPaymentConsumer{
		consumerGroup: consumerGroup,
		dlqProducer:   dlqProducer,
		config:        config,
		handler:       handler,
		topics:        config.Topics,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func (kpc *KafkaPaymentConsumer) StartConsumers(ctx context.Context, numWorkers int) error {
	log.Printf("📥 Starting %d payment consumer workers for topics: %v", numWorkers, kpc.topics)

	go kpc.handleErrors()

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			kpc.runWorker(ctx, workerID)
		}(i)
	}

	log.Printf("📥 All %d payment consumer workers started", numWorkers)
	return nil
}

func (kpc *KafkaPaymentConsumer) runWorker(ctx context.Context, workerID int) {
	consumer := &consumerGroupHandler{
		consumer: kpc,
		workerID: workerID,
		handler:  kpc.handler,
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("📥 Payment worker %d shutting down", workerID)
			return
		default:
			err := kpc.consumerGroup.Consume(ctx, kpc.topics, consumer)
			if err != nil {
				log.Printf("📥 Payment worker %d error consuming messages: %v", workerID, err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (kpc *KafkaPaymentConsumer) deadLetter(message *sarama.ConsumerMessage, cause error) {
	log.Printf("📥 Payment consumer: dead-lettering event at %s/%d/%d: %v",
		message.Topic, message.Partition, message.Offset, cause)

	if kpc.dlqProducer == nil || kpc.config.DeadLetterTopic == "" {
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: kpc.config.DeadLetterTopic,
		Value: sarama.ByteEncoder(message.Value),
	}
	if len(message.Key) > 0 {
		msg.Key = sarama.ByteEncoder(message.Key)
	}
	if _, _, err := kpc.dlqProducer.SendMessage(msg); err != nil {
		log.Printf("📥 Payment consumer: failed to dead-letter event: %v", err)
	}
}

func (kpc *KafkaPaymentConsumer) handleErrors() {
	for err := range kpc.consumerGroup.Errors() {
		log.Printf("📥 Payment consumer group error: %v", err)
	}
}

func (kpc *KafkaPaymentConsumer) Stop() error {
	log.Println("📥 Stopping payment consumer...")
	kpc.cancel()

	if kpc.dlqProducer != nil {
		if err := kpc.dlqProducer.Close(); err != nil {
			log.Printf("📥 Failed to close dead-letter producer: %v", err)
		}
	}

	if err := kpc.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}

	log.Println("📥 Payment consumer stopped")
	return nil
}

func (kpc *KafkaPaymentConsumer) HealthCheck(ctx context.Context) error {
	select {
	case <-kpc.ctx.Done():
		return fmt.Errorf("consumer context is cancelled")
	default:
		if kpc.handler == nil {
			return fmt.Errorf("payment handler not configured")
		}
		return nil
	}
}

type consumerGroupHandler struct {
	consumer *KafkaPaymentConsumer
	workerID int
	handler  *Handler
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Printf("📥 Payment worker %d: consumer group session started", h.workerID)
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Printf("📥 Payment worker %d: consumer group session ended", h.workerID)
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := h.processMessage(session.Context(), message); err != nil {
				// Retries are spent. Park the event on the dead-letter
				// topic and commit past it; left unmarked it would still
				// be skipped once later offsets auto-commit, just
				// invisibly.
				h.consumer.deadLetter(message, err)
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event PaymentEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// A malformed event never gets better; mark it consumed via nil.
		log.Printf("📥 Payment worker %d: dropping malformed event at %s/%d/%d: %v",
			h.workerID, message.Topic, message.Partition, message.Offset, err)
		return nil
	}

	return h.executeWithRetry(ctx, &event)
}

func (h *consumerGroupHandler) executeWithRetry(ctx context.Context, event *PaymentEvent) error {
	maxRetries := h.consumer.config.MaxRetries
	backoff := h.consumer.config.RetryBackoffDuration

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := h.handler.Handle(ctx, event)
		if err == nil {
			if attempt > 0 {
				log.Printf("📥 Payment worker %d: processed event %s after %d retries", h.workerID, event.EventID, attempt)
			}
			return nil
		}

		if attempt == maxRetries {
			log.Printf("📥 Payment worker %d: giving up on event %s after %d attempts: %v",
				h.workerID, event.EventID, maxRetries, err)
			return err
		}

		// Exponential backoff
		delay := backoff * time.Duration(1<<attempt)

		select {
		case <-time.After(delay):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
