package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"paperbase/internal/platform/rabbitmq"
)

// SearchCacheFlusher invalidates cached search results.
type SearchCacheFlusher interface {
	Flush(ctx context.Context) error
}

// CacheInvalidationWorker consumes document events and flushes the search
// cache, so ingests and deletions become visible without waiting out the TTL.
type CacheInvalidationWorker struct {
	conn      *amqp.Connection
	cache     SearchCacheFlusher
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCacheInvalidationWorker(conn *amqp.Connection, cache SearchCacheFlusher, queueName string) *CacheInvalidationWorker {
	return &CacheInvalidationWorker{
		conn:      conn,
		cache:     cache,
		queueName: queueName,
	}
}

func (w *CacheInvalidationWorker) Start(ctx context.Context) error {
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

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
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
					return
				}

				var event rabbitmq.DocumentEvent
				if err := json.Unmarshal(d.Body, &event); err != nil {
					log.Printf("worker decode document event failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.cache.Flush(workerCtx); err != nil {
					log.Printf("worker flush search cache failed: %v", err)
					_ = d.Nack(false, true)
					continue
				}

				log.Printf("search cache flushed after %s for document %s", event.Type, event.DocumentID)
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *CacheInvalidationWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
