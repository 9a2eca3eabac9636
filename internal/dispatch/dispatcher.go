package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/storefront-eng/salesync/internal/connection"
	"github.com/storefront-eng/salesync/internal/model"
)

// Dispatcher decodes raw frames and routes them to consumers.
type Dispatcher struct {
	handlers Handlers
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

// NewDispatcher creates a Message Dispatcher.
func NewDispatcher(handlers Handlers, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: handlers,
		logger:   logger,
	}
}

// Start begins consuming frames from the given topic channels, one
// goroutine per channel.
func (d *Dispatcher) Start(ctx context.Context, inputs ...<-chan connection.RawFrame) error {
	d.ctx, d.cancel = context.WithCancel(ctx)

	for _, input := range inputs {
		d.wg.Add(1)
		go d.consumeLoop(input)
	}

	d.logger.Info("dispatcher started", "topics", len(inputs))
	return nil
}

// Stop gracefully shuts down the dispatcher.
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("dispatcher stop timed out")
		return ctx.Err()
	}
}

// Stats returns current counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Dispatcher) consumeLoop(input <-chan connection.RawFrame) {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case frame, ok := <-input:
			if !ok {
				return
			}
			d.Dispatch(frame)
		}
	}
}

// Dispatch decodes and routes a single frame. Within one topic, frames are
// dispatched in arrival order.
func (d *Dispatcher) Dispatch(frame connection.RawFrame) {
	d.count(func(s *Stats) { s.Received++ })

	var env envelope
	if err := json.Unmarshal(frame.Data, &env); err != nil || env.Type == "" {
		d.passthrough(frame, err)
		return
	}

	if d.handlers.Observer != nil {
		d.handlers.Observer(frame, env.Type)
	}

	switch env.Type {
	case TypeNotification:
		var n model.Notification
		if err := json.Unmarshal(env.Payload, &n); err != nil {
			d.passthrough(frame, err)
			return
		}
		if d.handlers.Notification != nil {
			d.handlers.Notification(n)
		}

	case TypeOrderUpdate:
		var u model.OrderUpdate
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			d.passthrough(frame, err)
			return
		}
		if d.handlers.OrderUpdate != nil {
			// The payload carries extra fields beyond orderId/status;
			// hand the raw payload along for consumers that want them.
			d.handlers.OrderUpdate(u, env.Payload)
		}

	case TypeSaleStarted:
		var w saleWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			d.passthrough(frame, err)
			return
		}
		if d.handlers.SaleStarted != nil {
			d.handlers.SaleStarted(w.toModel())
		}

	case TypeSaleEndingSoon:
		var w saleRefWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			d.passthrough(frame, err)
			return
		}
		if d.handlers.SaleEndingSoon != nil {
			d.handlers.SaleEndingSoon(w.saleID())
		}

	case TypeSaleExpired:
		var w saleRefWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			d.passthrough(frame, err)
			return
		}
		if d.handlers.SaleExpired != nil {
			d.handlers.SaleExpired(w.saleID())
		}

	case TypeSaleTimer:
		var w timerWire
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			d.passthrough(frame, err)
			return
		}
		if d.handlers.SaleTimer != nil {
			d.handlers.SaleTimer(w.SaleID, time.Duration(w.TimeRemaining)*time.Second)
		}

	default:
		// Unknown discriminator: ignore for forward compatibility.
		d.logger.Debug("ignoring unknown frame type", "type", env.Type, "topic", frame.Topic)
		d.count(func(s *Stats) { s.Unknown++ })
		return
	}

	d.count(func(s *Stats) { s.Routed++ })
}

// passthrough routes a frame that failed to decode to the unparsed handler.
// Malformed frames are a data problem, never a connection failure.
func (d *Dispatcher) passthrough(frame connection.RawFrame, err error) {
	d.logger.Warn("undecodable frame, passing raw payload through",
		"topic", frame.Topic,
		"len", len(frame.Data),
		"error", err,
	)
	d.count(func(s *Stats) { s.Unparsed++ })

	if d.handlers.Unparsed != nil {
		d.handlers.Unparsed(frame)
	}
}

func (d *Dispatcher) count(fn func(*Stats)) {
	d.mu.Lock()
	fn(&d.stats)
	d.mu.Unlock()
}
