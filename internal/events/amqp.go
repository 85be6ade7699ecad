package events

import (
	"encoding/json"
	"log"

	"github.com/streadway/amqp"

	"github.com/unclebandit/mailmerge-backend/internal/model"
)

// DefaultExchange is the fanout exchange new delivery records are published
// to for out-of-process live viewers (see cmd/tail).
const DefaultExchange = "sent_mails"

// AMQPPublisher broadcasts records to a fanout exchange. Publish errors are
// logged and dropped; the ledger stays the source of truth.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		exchange, // name
		"fanout", // kind
		false,    // durable: live updates only, no backlog
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(rec model.SentMail) {
	body, err := json.Marshal(rec)
	if err != nil {
		log.Println("⚠️ failed to marshal record for broadcast:", err)
		return
	}

	err = p.ch.Publish(p.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		log.Println("⚠️ failed to broadcast record:", err)
	}
}

func (p *AMQPPublisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}

var _ Broadcaster = (*AMQPPublisher)(nil)
