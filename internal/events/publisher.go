// Package events publishes sale and return events to RabbitMQ so other
// store systems (loyalty, stock dashboards) can follow the till.
package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"go-pos-console/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const (
	QueueSaleCompleted   = "pos.sale.completed"
	QueueReturnSubmitted = "pos.return.submitted"
)

type SaleCompleted struct {
	OrderID   int64           `json:"orderId"`
	Code      string          `json:"code"`
	Method    string          `json:"method"`
	Total     decimal.Decimal `json:"total"`
	Items     int             `json:"items"`
	Cashier   string          `json:"cashier"`
	DeviceID  string          `json:"deviceId"`
	CreatedAt time.Time       `json:"createdAt"`
}

type ReturnSubmitted struct {
	ReturnID    int64               `json:"returnId"`
	Code        string              `json:"code"`
	OrderID     int64               `json:"orderId"`
	ReturnType  models.ReturnType   `json:"returnType"`
	Reason      models.ReturnReason `json:"reason"`
	TotalRefund decimal.Decimal     `json:"totalRefund"`
	DeviceID    string              `json:"deviceId"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// Dialer opens a broker channel. Tests swap it out.
type Dialer func(url string) (Channel, func(), error)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends events to durable queues over one long-lived channel,
// dialled on first use and redialled after a failure. A nil *Publisher is
// valid and drops everything, which is what an empty RABBITMQ_URL gives you.
type Publisher struct {
	url  string
	dial Dialer

	mu       sync.Mutex
	ch       Channel
	closeFn  func()
	declared map[string]bool
}

// New returns nil when url is empty.
func New(url string) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url, dial: dialAMQP}
}

func dialAMQP(url string) (Channel, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, func() {
		_ = ch.Close()
		_ = conn.Close()
	}, nil
}

func (p *Publisher) SaleCompleted(ctx context.Context, e SaleCompleted) error {
	return p.publish(ctx, QueueSaleCompleted, e)
}

func (p *Publisher) ReturnSubmitted(ctx context.Context, e ReturnSubmitted) error {
	return p.publish(ctx, QueueReturnSubmitted, e)
}

// Close drops the broker connection. Publishing afterwards dials again.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.dropLocked()
	p.mu.Unlock()
}

func (p *Publisher) dropLocked() {
	if p.closeFn != nil {
		p.closeFn()
	}
	p.ch, p.closeFn, p.declared = nil, nil, nil
}

func (p *Publisher) channelLocked() (Channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}
	ch, closeFn, err := p.dial(p.url)
	if err != nil {
		return nil, err
	}
	p.ch, p.closeFn, p.declared = ch, closeFn, make(map[string]bool)
	return ch, nil
}

// publish logs and returns errors; callers are free to ignore them since
// the sale itself already succeeded on the backend.
func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.sendLocked(ctx, queue, pub)
	if err == nil {
		return nil
	}
	// A broken connection gets one fresh dial before giving up.
	p.dropLocked()
	if ctx.Err() == nil {
		err = p.sendLocked(ctx, queue, pub)
	}
	if err != nil {
		p.dropLocked()
		log.Printf("rabbitmq: publish to %s failed: %v", queue, err)
	}
	return err
}

func (p *Publisher) sendLocked(ctx context.Context, queue string, pub amqp.Publishing) error {
	ch, err := p.channelLocked()
	if err != nil {
		return err
	}
	if !p.declared[queue] {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return err
		}
		p.declared[queue] = true
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, pub)
}
