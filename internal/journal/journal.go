// Package journal persists every dispatched push event to Postgres in
// append-only batches, for replay and offline debugging of sale timelines.
package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-eng/salesync/internal/connection"
)

// Config holds journal batching configuration.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: 5 * time.Second,
	}
}

// Metrics counts journal activity.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

type eventRow struct {
	ID         string
	Topic      string
	EventType  string
	Payload    []byte
	ReceivedAt int64
}

// batchConn is the part of pgxpool.Pool the journal uses. Tests substitute
// a fake so flush paths run without a live database.
type batchConn interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Journal batches push events and writes them to the events table.
type Journal struct {
	cfg    Config
	logger *slog.Logger

	db batchConn

	batch       []eventRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// New creates a Journal writing to the given pool.
func New(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}

	j := &Journal{
		cfg:    cfg,
		logger: logger,
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
	if db != nil {
		j.db = db
	}
	return j
}

// Start begins the periodic flush loop.
func (j *Journal) Start(ctx context.Context) error {
	j.ctx, j.cancel = context.WithCancel(ctx)
	j.flushTicker = time.NewTicker(j.cfg.FlushInterval)

	j.wg.Add(1)
	go j.flushLoop()

	j.logger.Info("event journal started",
		"batch_size", j.cfg.BatchSize,
		"flush_interval", j.cfg.FlushInterval,
	)
	return nil
}

// Stop drains the pending batch and shuts the journal down.
func (j *Journal) Stop(ctx context.Context) error {
	j.logger.Info("stopping event journal")

	if j.cancel != nil {
		j.cancel()
	}
	if j.flushTicker != nil {
		j.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("event journal stopped")
	case <-ctx.Done():
		j.logger.Warn("event journal stop timed out")
	}

	// Final drain runs on the caller's context; j.ctx is already canceled.
	j.flush(ctx)

	return nil
}

// Record queues one dispatched event for insertion. A batch reaching the
// configured size flushes immediately; otherwise the ticker flushes it.
func (j *Journal) Record(frame connection.RawFrame, eventType string) {
	row := j.transform(frame, eventType)

	j.batchMu.Lock()
	j.batch = append(j.batch, row)
	shouldFlush := len(j.batch) >= j.cfg.BatchSize
	j.batchMu.Unlock()

	if shouldFlush {
		ctx := j.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		j.flush(ctx)
	}
}

// Stats returns current metrics.
func (j *Journal) Stats() Metrics {
	j.batchMu.Lock()
	defer j.batchMu.Unlock()
	return j.metrics
}

// transform converts a raw frame into an events row.
func (j *Journal) transform(frame connection.RawFrame, eventType string) eventRow {
	payload := make([]byte, len(frame.Data))
	copy(payload, frame.Data)

	return eventRow{
		ID:         uuid.New().String(),
		Topic:      string(frame.Topic),
		EventType:  eventType,
		Payload:    payload,
		ReceivedAt: frame.ReceivedAt.UnixMicro(),
	}
}

func (j *Journal) flushLoop() {
	defer j.wg.Done()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-j.flushTicker.C:
			j.flush(j.ctx)
		}
	}
}

// flush writes the current batch to the database.
func (j *Journal) flush(ctx context.Context) {
	j.batchMu.Lock()
	if j.db == nil || len(j.batch) == 0 {
		j.batchMu.Unlock()
		return
	}

	batch := j.batch
	j.batch = make([]eventRow, 0, j.cfg.BatchSize)
	j.batchMu.Unlock()

	start := time.Now()

	conflicts, err := j.batchInsert(ctx, batch)
	if err != nil {
		j.logger.Error("batch insert failed", "error", err, "count", len(batch))
		j.batchMu.Lock()
		j.metrics.Errors++
		j.batchMu.Unlock()
		return
	}

	j.batchMu.Lock()
	j.metrics.Inserts += int64(len(batch) - conflicts)
	j.metrics.Conflicts += int64(conflicts)
	j.metrics.Flushes++
	j.batchMu.Unlock()

	j.logger.Debug("flushed events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (j *Journal) batchInsert(ctx context.Context, rows []eventRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO events (id, topic, event_type, payload, received_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, r.Topic, r.EventType, r.Payload, r.ReceivedAt)
	}

	results := j.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
