package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// AmqpPublisher publishes every event as a persistent JSON message. The
// connection is opened lazily and re-opened after failures.
type AmqpPublisher struct {
	url        string
	exchange   string
	routingKey string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAmqpPublisher returns a publisher for exchange. An empty routingKey
// publishes with the check name as key.
func NewAmqpPublisher(url, exchange, routingKey string) *AmqpPublisher {
	return &AmqpPublisher{url: url, exchange: exchange, routingKey: routingKey}
}

func (p *AmqpPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, errors.Wrap(err, "could not connect to amqp broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "could not open amqp channel")
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AmqpPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *AmqpPublisher) Notify(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	key := p.routingKey
	if key == "" {
		key = ev.Check
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.Publish(p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.At,
		MessageId:    ev.Cycle + "/" + ev.Check,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return errors.Wrap(err, "could not publish event")
	}

	log.WithFields(log.Fields{"kind": "notify", "name": "amqp", "check": ev.Check, "exchange": p.exchange}).Debug("event published")
	return nil
}

func (p *AmqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
