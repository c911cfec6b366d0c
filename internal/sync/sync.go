// Package sync periodically exports the dataset catalog and its compliance
// annotations as JSONL to external destinations.
package sync

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jiaofangliang/datahub/internal/store"
)

// Destination is a sync target (S3, git, etc.).
type Destination interface {
	// Write replaces the exported snapshot at the destination with data.
	Write(ctx context.Context, data []byte) error
}

// Result describes the outcome of one sync pass.
type Result struct {
	At     time.Time
	Bytes  int
	Failed int // destinations whose write failed
}

// Scheduler runs periodic syncs to one or more destinations.
type Scheduler struct {
	store           store.Store
	destinations    []Destination
	interval        time.Duration
	classifications []string
	logger          *slog.Logger

	mu   sync.Mutex
	last Result

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval. classifications is written into
// every export header.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, classifications []string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:           s,
		destinations:    destinations,
		interval:        interval,
		classifications: classifications,
		logger:          logger,
	}
}

// Start runs an initial sync immediately, then one on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Last returns the result of the most recent completed sync.
func (s *Scheduler) Last() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) run(ctx context.Context) {
	s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncOnce(ctx)
		}
	}
}

// SyncOnce exports the catalog and writes it to every destination.
// Destination failures are logged and counted, not returned.
func (s *Scheduler) SyncOnce(ctx context.Context) Result {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.store, &buf, s.classifications...); err != nil {
		s.logger.Error("sync export failed", "err", err)
		return Result{}
	}
	data := buf.Bytes()

	res := Result{At: time.Now().UTC(), Bytes: len(data)}
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			res.Failed++
			s.logger.Error("sync destination write failed", "destination", destinationName(i, dest), "err", err)
		}
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	s.logger.Info("sync completed", "destinations", len(s.destinations), "failed", res.Failed, "bytes", res.Bytes)
	return res
}

func destinationName(i int, d Destination) string {
	if n, ok := d.(fmt.Stringer); ok {
		return n.String()
	}
	return fmt.Sprintf("#%d", i)
}
