package rabbitmq

import (
	"context"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler turns a request body into a reply body. A returned error means the
// request is unusable and it is dead-lettered without a reply.
type Handler func(ctx context.Context, body []byte) ([]byte, error)

type Server struct {
	URL         string
	Queue       string
	Concurrency int
	Handler     Handler
	Log         *zap.Logger
}

// Serve consumes the queue until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	conn, err := amqp.Dial(s.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := declareQueues(ch, s.Queue); err != nil {
		return err
	}

	//  strict concurrency control
	if err := ch.Qos(concurrency, 0, false); err != nil {
		return err
	}

	msgs, err := ch.Consume(s.Queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	log.Info("worker started", zap.String("queue", s.Queue), zap.Int("concurrency", concurrency))

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)
	var pubMu sync.Mutex

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				s.handle(ctx, ch, &pubMu, d, log.With(zap.Int("worker", workerID)))
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return nil

		case d, ok := <-msgs:
			if !ok {
				close(jobs)
				wg.Wait()
				return amqp.ErrClosed
			}
			jobs <- d
		}
	}
}

func (s *Server) handle(ctx context.Context, ch *amqp.Channel, pubMu *sync.Mutex, d amqp.Delivery, log *zap.Logger) {
	start := time.Now()
	log = log.With(zap.String("correlation_id", d.CorrelationId))

	reply, err := s.Handler(ctx, d.Body)
	if err != nil {
		log.Warn("bad request", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if d.ReplyTo != "" {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pubMu.Lock()
		err = ch.PublishWithContext(pctx, "", d.ReplyTo, false, false, amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: d.CorrelationId,
			Body:          reply,
			Timestamp:     time.Now(),
		})
		pubMu.Unlock()
		cancel()
		if err != nil {
			log.Error("reply failed", zap.Error(err))
		}
	}

	if err := d.Ack(false); err != nil {
		log.Error("ack failed", zap.Error(err))
	}
	if cost := time.Since(start); cost > 2*time.Second {
		log.Info("request timing", zap.Duration("total", cost))
	}
}
