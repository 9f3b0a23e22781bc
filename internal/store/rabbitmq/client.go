package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/suPer8Hu/image-creator/internal/ids"
)

const directReplyTo = "amq.rabbitmq.reply-to"

var ErrClosed = errors.New("rabbitmq: client closed")

// Client publishes requests to a queue and waits for replies on the
// broker's direct reply-to pseudo queue.
type Client struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	pubMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan []byte
	closed  bool
}

func Dial(url, queue string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := declareQueues(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	// must consume reply-to before publishing on the same channel
	replies, err := ch.Consume(directReplyTo, "", true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	c := &Client{
		conn:    conn,
		ch:      ch,
		queue:   queue,
		pending: make(map[string]chan []byte),
	}
	go c.dispatch(replies)
	return c, nil
}

func (c *Client) dispatch(replies <-chan amqp.Delivery) {
	for d := range replies {
		c.mu.Lock()
		waiter, ok := c.pending[d.CorrelationId]
		delete(c.pending, d.CorrelationId)
		c.mu.Unlock()
		if ok {
			waiter <- d.Body
		}
	}

	// channel gone: fail everyone still waiting
	c.mu.Lock()
	c.closed = true
	for id, waiter := range c.pending {
		close(waiter)
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

// Call publishes body and blocks until the reply arrives or ctx ends.
func (c *Client) Call(ctx context.Context, body []byte) ([]byte, error) {
	corrID := ids.New()
	waiter := make(chan []byte, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[corrID] = waiter
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, corrID)
		c.mu.Unlock()
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	c.pubMu.Lock()
	err := c.ch.PublishWithContext(pctx,
		"",      // default exchange
		c.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: corrID,
			ReplyTo:       directReplyTo,
			Body:          body,
			Timestamp:     time.Now(),
		},
	)
	c.pubMu.Unlock()
	cancel()
	if err != nil {
		forget()
		return nil, err
	}

	select {
	case out, ok := <-waiter:
		if !ok {
			return nil, ErrClosed
		}
		return out, nil
	case <-ctx.Done():
		forget()
		return nil, ctx.Err()
	}
}

func (c *Client) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
