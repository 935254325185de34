package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type DispatcherConfig struct {
	QueueSize      int
	MaxRetries     int
	RetryDelay     time.Duration
	PublishTimeout time.Duration
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:      256,
		MaxRetries:     3,
		RetryDelay:     200 * time.Millisecond,
		PublishTimeout: 5 * time.Second,
	}
}

// Dispatcher publishes events off the caller's goroutine. Emit never
// blocks; events are dropped when the queue is full.
type Dispatcher struct {
	publisher Publisher
	config    DispatcherConfig
	queue     chan Event

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewDispatcher(publisher Publisher, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultDispatcherConfig().QueueSize
	}
	return &Dispatcher{
		publisher: publisher,
		config:    cfg,
		queue:     make(chan Event, cfg.QueueSize),
		stopChan:  make(chan struct{}),
	}
}

// Emit queues event for publishing.
func (d *Dispatcher) Emit(event Event) {
	select {
	case d.queue <- event:
	default:
		log.Warn().
			Str("event_type", event.Type).
			Str("room_code", event.RoomCode).
			Msg("event queue full, dropping event")
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("event dispatcher already running")
	}
	d.running = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx)

	log.Info().Int("queue_size", d.config.QueueSize).Msg("event dispatcher started")
	return nil
}

// Stop drains queued events and waits for the worker to exit.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("event dispatcher not running")
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopChan)
	d.wg.Wait()

	log.Info().Msg("event dispatcher stopped")
	return nil
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopChan:
			for {
				select {
				case event := <-d.queue:
					d.publish(context.Background(), event)
				default:
					return
				}
			}
		case event := <-d.queue:
			d.publish(ctx, event)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, event Event) {
	var err error
	for attempt := 1; attempt <= d.config.MaxRetries+1; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, d.config.PublishTimeout)
		err = d.publisher.Publish(pctx, event)
		cancel()
		if err == nil {
			return
		}
		if attempt <= d.config.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.config.RetryDelay):
			}
		}
	}
	log.Error().
		Err(err).
		Str("event_type", event.Type).
		Str("event_id", event.ID.String()).
		Str("room_code", event.RoomCode).
		Msg("failed to publish room event")
}
