package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-billsplit/internal/models"
)

const (
	EventPaymentCompleted = "payment.completed"
	EventBillUpdated      = "bill.updated"
)

// Producer streams bill lifecycle events so dashboards and downstream
// consumers can react without polling.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

// PublishPaymentCompleted streams a settled payment together with the
// bill state it produced.
func (p *Producer) PublishPaymentCompleted(bill models.Bill, payment models.Payment) error {
	event := models.BillEvent{
		Type:      EventPaymentCompleted,
		BillID:    bill.ID,
		Bill:      &bill,
		Payment:   &payment,
		Timestamp: time.Now(),
	}
	return p.publish(bill.ID, event)
}

// PublishBillUpdated streams a bill aggregate change (item added, bill
// opened or closed).
func (p *Producer) PublishBillUpdated(bill models.Bill) error {
	event := models.BillEvent{
		Type:      EventBillUpdated,
		BillID:    bill.ID,
		Bill:      &bill,
		Timestamp: time.Now(),
	}
	return p.publish(bill.ID, event)
}

func (p *Producer) publish(key string, event models.BillEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	fmt.Printf("Publishing to Kafka [%s]: %s\n", event.Type, string(msgBytes))

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	if p.Writer == nil {
		return nil
	}
	return p.Writer.Close()
}

// EnsureTopicExists creates the bill events topic if the broker does not
// have it yet.
func EnsureTopicExists(brokers []string, topic string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	return controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
