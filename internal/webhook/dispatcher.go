package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Dispatcher queues webhook events and delivers them to every configured
// endpoint from a pool of worker goroutines.
type Dispatcher struct {
	endpoints []string
	secret    string
	logger    *slog.Logger
	queue     chan *QueuedDelivery
	workers   int
	wg        sync.WaitGroup
	done      chan struct{}
	mu        sync.RWMutex
	running   bool
}

// QueuedDelivery represents a delivery queued for processing.
type QueuedDelivery struct {
	UUID    string
	Event   string
	Payload []byte
	URL     string
}

// Config holds dispatcher configuration.
type Config struct {
	Endpoints []string // Target URLs; every event goes to each of them
	Secret    string   // HMAC signing secret
	Workers   int      // Number of concurrent delivery workers
	QueueSize int      // Buffered queue capacity
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   3,
		QueueSize: 100,
	}
}

// NewDispatcher creates a new webhook dispatcher.
func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		endpoints: cfg.Endpoints,
		secret:    cfg.Secret,
		logger:    logger,
		queue:     make(chan *QueuedDelivery, cfg.QueueSize),
		workers:   cfg.Workers,
		done:      make(chan struct{}),
	}
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting webhook dispatcher",
		"workers", d.workers,
		"endpoints", len(d.endpoints))

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the dispatcher and waits for workers to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("stopping webhook dispatcher")
	close(d.done)
	d.wg.Wait()
	d.logger.Info("webhook dispatcher stopped")
}

// DispatchEvent serializes the event payload and queues one delivery per
// configured endpoint. Returns an error only when serialization fails or the
// queue is full; delivery failures are handled by the workers.
func (d *Dispatcher) DispatchEvent(_ context.Context, event string, data any) error {
	if len(d.endpoints) == 0 {
		return nil
	}

	envelope := Envelope{
		UUID:      uuid.NewString(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	for _, url := range d.endpoints {
		delivery := &QueuedDelivery{
			UUID:    envelope.UUID,
			Event:   event,
			Payload: payload,
			URL:     url,
		}

		select {
		case d.queue <- delivery:
		default:
			d.logger.Warn("webhook queue full, dropping delivery",
				"category", "system",
				"event", event,
				"url", url)
			return errors.New("webhook queue full")
		}
	}

	return nil
}

// worker processes queued deliveries.
func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("webhook worker started", "worker_id", id)

	for {
		select {
		case <-d.done:
			d.logger.Debug("webhook worker stopping", "worker_id", id)
			return
		case <-ctx.Done():
			d.logger.Debug("webhook worker context cancelled", "worker_id", id)
			return
		case delivery := <-d.queue:
			d.processDelivery(ctx, delivery)
		}
	}
}
