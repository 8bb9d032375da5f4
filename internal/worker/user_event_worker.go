package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"loginify/internal/model"
	"loginify/internal/platform/rabbitmq"
)

var errMalformedEvent = errors.New("malformed user event")

const defaultRetryDelay = 2 * time.Second

type EventStore interface {
	Create(ctx context.Context, event *model.UserEvent) error
}

// UserEventWorker drains the user event queue into the audit table.
type UserEventWorker struct {
	conn      *amqp.Connection
	store     EventStore
	queueName string
	logger    *zap.Logger
	// retryDelay paces the single requeue of a delivery the store rejected.
	retryDelay time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewUserEventWorker(conn *amqp.Connection, store EventStore, queueName string, logger *zap.Logger) *UserEventWorker {
	return &UserEventWorker{
		conn:       conn,
		store:      store,
		queueName:  queueName,
		logger:     logger.Named("user_event_worker"),
		retryDelay: defaultRetryDelay,
	}
}

func (w *UserEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn("delivery channel closed")
					return
				}

				w.settle(workerCtx, d, w.handle(workerCtx, d.Body))
			}
		}
	}()

	w.logger.Info("worker started", zap.String("queue", w.queueName))
	return nil
}

// settle acks a persisted delivery. Malformed payloads are dropped at once;
// a store failure is requeued once after retryDelay and dropped if the
// redelivery fails too, which dead-letters it when the queue has a DLX.
func (w *UserEventWorker) settle(ctx context.Context, d amqp.Delivery, err error) {
	if err == nil {
		_ = d.Ack(false)
		return
	}

	requeue := !errors.Is(err, errMalformedEvent) && !d.Redelivered
	w.logger.Error("persist user event failed",
		zap.Bool("redelivered", d.Redelivered),
		zap.Bool("requeue", requeue),
		zap.Error(err),
	)
	if requeue {
		timer := time.NewTimer(w.retryDelay)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}
	_ = d.Nack(false, requeue)
}

func (w *UserEventWorker) handle(ctx context.Context, body []byte) error {
	var event model.UserEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	if event.Type == "" || event.Username == "" {
		return fmt.Errorf("%w: missing type or username", errMalformedEvent)
	}

	// the broker assigns no ids; let the table do it
	event.ID = 0
	return w.store.Create(ctx, &event)
}

func (w *UserEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
