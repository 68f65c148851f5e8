package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"reservio/pkg/clock"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

type fakeGroupSession struct {
	ctx    context.Context
	marked []int64
}

func (s *fakeGroupSession) Claims() map[string][]int32 { return nil }
func (s *fakeGroupSession) MemberID() string           { return "worker-0" }
func (s *fakeGroupSession) GenerationID() int32        { return 1 }
func (s *fakeGroupSession) MarkOffset(topic string, partition int32, offset int64, metadata string) {
}
func (s *fakeGroupSession) Commit() {}
func (s *fakeGroupSession) ResetOffset(topic string, partition int32, offset int64, metadata string) {
}
func (s *fakeGroupSession) MarkMessage(msg *sarama.ConsumerMessage, metadata string) {
	s.marked = append(s.marked, msg.Offset)
}
func (s *fakeGroupSession) Context() context.Context { return s.ctx }

type fakeGroupClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeGroupClaim) Topic() string                            { return "payment-events" }
func (c *fakeGroupClaim) Partition() int32                         { return 0 }
func (c *fakeGroupClaim) InitialOffset() int64                     { return 0 }
func (c *fakeGroupClaim) HighWaterMarkOffset() int64               { return 0 }
func (c *fakeGroupClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func TestConsumeClaimDeadLettersExhaustedEvents(t *testing.T) {
	lifecycle := &fakeLifecycle{confirmErr: errors.New("database unavailable")}
	handler := NewHandler(lifecycle, newFakeLedger(), clock.NewSystem())

	cfg := DefaultConsumerConfig()
	cfg.MaxRetries = 1
	cfg.RetryBackoffDuration = time.Millisecond

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed()

	gh := &consumerGroupHandler{
		consumer: &KafkaPaymentConsumer{config: cfg, dlqProducer: producer, handler: handler},
		workerID: 0,
		handler:  handler,
	}

	payload, err := paymentEvent(OutcomeSucceeded).ToJSON()
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	claim := &fakeGroupClaim{messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- &sarama.ConsumerMessage{
		Topic:     "payment-events",
		Partition: 0,
		Offset:    42,
		Value:     payload,
	}
	close(claim.messages)

	session := &fakeGroupSession{ctx: context.Background()}
	if err := gh.ConsumeClaim(session, claim); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}

	if len(session.marked) != 1 || session.marked[0] != 42 {
		t.Fatalf("exhausted event was not committed past, marks = %v", session.marked)
	}
	if err := producer.Close(); err != nil {
		t.Fatalf("dead-letter publish not observed: %v", err)
	}
}
