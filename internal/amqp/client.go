package amqp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spese-insights/internal/core"
	"spese-insights/internal/log"

	"github.com/rabbitmq/amqp091-go"
)

// ErrInvalidMessage marks deliveries that can never be processed. They are
// rejected without requeue.
var ErrInvalidMessage = errors.New("invalid message")

// ExpenseHandler processes one decoded message. Returning an error wrapping
// ErrInvalidMessage drops the delivery; any other error requeues it.
type ExpenseHandler func(ctx context.Context, msg *ExpenseRecordedMessage, e core.Expense) error

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *log.Logger
}

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key equals the queue name on the direct exchange.
	err = c.channel.QueueBind(
		c.queueName,
		c.queueName,
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	// One unacknowledged delivery at a time keeps inserts ordered.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// PublishExpenseRecorded publishes msg as a persistent delivery.
func (c *Client) PublishExpenseRecorded(ctx context.Context, msg *ExpenseRecordedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.logger.InfoContext(ctx, "Published expense recorded message",
		log.FieldSourceRef, msg.ID,
		log.FieldOwnerID, msg.OwnerID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// errDeliveriesClosed reports that the broker closed the delivery channel
// while the consumer was still wanted.
var errDeliveriesClosed = errors.New("message channel closed")

// ConsumeExpenseRecorded delivers messages to handler until ctx is done or
// the channel closes. Deliveries are acknowledged manually.
func (c *Client) ConsumeExpenseRecorded(ctx context.Context, handler ExpenseHandler) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming expense messages",
		log.FieldOperation, log.OpConsume,
		"queue", c.queueName)

	return consumeDeliveries(ctx, c.logger, msgs, handler)
}

// consumeDeliveries settles each delivery by its outcome until ctx is done or
// msgs closes. A close observed after ctx is done is a shutdown, not a failure.
func consumeDeliveries(ctx context.Context, logger *log.Logger, msgs <-chan amqp091.Delivery, handler ExpenseHandler) error {
	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return errDeliveriesClosed
			}
			var ackErr error
			switch processDelivery(ctx, logger, delivery.Body, handler) {
			case outcomeAck:
				ackErr = delivery.Ack(false)
			case outcomeDrop:
				ackErr = delivery.Nack(false, false)
			case outcomeRequeue:
				ackErr = delivery.Nack(false, true)
			}
			if ackErr != nil {
				logger.WarnContext(ctx, "Failed to settle delivery", log.FieldError, ackErr.Error())
			}
		}
	}
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeDrop
	outcomeRequeue
)

// processDelivery decodes body, runs handler and decides how to settle the delivery.
func processDelivery(ctx context.Context, logger *log.Logger, body []byte, handler ExpenseHandler) outcome {
	msg, err := ExpenseRecordedMessageFromJSON(body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err.Error())
		return outcomeDrop
	}
	e, err := msg.Expense()
	if err != nil {
		logger.ErrorContext(ctx, "Rejected invalid expense message",
			log.FieldSourceRef, msg.ID,
			log.FieldError, err.Error())
		return outcomeDrop
	}

	if err := handler(ctx, msg, e); err != nil {
		if errors.Is(err, ErrInvalidMessage) {
			logger.ErrorContext(ctx, "Dropped unprocessable message",
				log.FieldSourceRef, msg.ID,
				log.FieldError, err.Error())
			return outcomeDrop
		}
		logger.ErrorContext(ctx, "Failed to handle message",
			log.FieldSourceRef, msg.ID,
			log.FieldError, err.Error())
		return outcomeRequeue
	}
	return outcomeAck
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
