// Package notify publishes order confirmation events to the notification
// worker queue. The worker owns the actual email/SMS/WhatsApp delivery;
// this service only says what happened and on which channels.
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

const confirmationQueue = "order_confirmations"

// OrderConfirmation is the event consumed by the notification worker.
// Contact fields are set only for the channels the guest selected.
type OrderConfirmation struct {
	OrganisationID string   `json:"organisationId"`
	OrderNumber    string   `json:"orderNumber"`
	OrderType      string   `json:"orderType"`
	PaymentMethod  string   `json:"paymentMethod"`
	TotalAmount    string   `json:"totalAmount"`
	CurrencyCode   string   `json:"currencyCode"`
	Channels       []string `json:"channels"`
	Email          string   `json:"email,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	SmsPhone       string   `json:"smsPhone,omitempty"`
}

// Publisher emits order confirmation events.
type Publisher interface {
	PublishOrderConfirmation(event OrderConfirmation) error
	Close() error
}

// AMQPPublisher publishes confirmations to a durable queue.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(confirmationQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", confirmationQueue, err)
	}

	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

func (p *AMQPPublisher) PublishOrderConfirmation(event OrderConfirmation) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}

	err = p.channel.Publish("", confirmationQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish confirmation: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NopPublisher logs confirmations instead of publishing them. Used when
// no broker is configured (local development).
type NopPublisher struct{}

func (NopPublisher) PublishOrderConfirmation(event OrderConfirmation) error {
	log.Printf("order confirmation (no broker): %s channels=%v", event.OrderNumber, event.Channels)
	return nil
}

func (NopPublisher) Close() error { return nil }
