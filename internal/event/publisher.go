package event

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// Event types routed through the topic exchange. The email sender and other
// consumers bind on these keys; publishing is fire-and-forget and never
// feeds errors back into quiz processing.
const (
	SessionStarted   = "quiz.session.started"
	SessionCompleted = "quiz.session.completed"
	SessionsEvicted  = "quiz.sweep.sessions_evicted"
	TokensPurged     = "quiz.sweep.tokens_purged"
	SolveReminder    = "user.reminder.solve"
	DeletionWarning  = "user.warning.deletion"
	UserDeleted      = "user.deleted"
)

type EventPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewEventPublisher(amqpURL, exchange string) (*EventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &EventPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends the event with the event type as routing key. A nil
// publisher is a no-op so callers need no RabbitMQ-configured check.
func (p *EventPublisher) Publish(eventType string, payload interface{}) error {
	if p == nil {
		return nil
	}
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	log.Printf("[EVENT] %s: %v", eventType, payload)

	return p.channel.Publish(
		p.exchange,
		eventType, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *EventPublisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Publisher is what the services publish through; satisfied by
// *EventPublisher and by test doubles.
type Publisher interface {
	Publish(eventType string, payload interface{}) error
}

var _ Publisher = (*EventPublisher)(nil)

// Payload helper mirroring gin.H for event bodies.
type H map[string]interface{}

func (h H) String() string {
	b, err := json.Marshal(h)
	if err != nil {
		return fmt.Sprintf("%#v", map[string]interface{}(h))
	}
	return string(b)
}
