// Package retention removes uploads, generated PDFs and submission records
// once they outlive the configured TTL.
package retention

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/castlemilk/regresponse/internal/blob"
	"github.com/castlemilk/regresponse/internal/store"
)

// Report counts what one sweep removed, keyed by target name.
type Report map[string]int

// Total sums the report.
func (r Report) Total() int {
	n := 0
	for _, v := range r {
		n += v
	}
	return n
}

// Sweeper deletes expired artifacts on a fixed interval.
type Sweeper struct {
	ttl      time.Duration
	interval time.Duration
	buckets  map[string]blob.Bucket
	store    store.Store
	logger   *zap.Logger
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSweeper creates a sweeper. st may be nil to leave records alone.
func NewSweeper(ttl, interval time.Duration, buckets map[string]blob.Bucket, st store.Store, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		ttl:      ttl,
		interval: interval,
		buckets:  buckets,
		store:    st,
		logger:   logger,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Enabled reports whether a TTL is configured.
func (s *Sweeper) Enabled() bool {
	return s.ttl > 0
}

// SweepOnce removes everything older than the TTL. All targets are swept
// concurrently; the first failure is returned along with the partial report.
func (s *Sweeper) SweepOnce(ctx context.Context) (Report, error) {
	report := Report{}
	if !s.Enabled() {
		return report, nil
	}
	cutoff := s.now().Add(-s.ttl)

	var mu sync.Mutex
	record := func(name string, n int) {
		mu.Lock()
		report[name] = n
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b := s.buckets[name]
		g.Go(func() error {
			n, err := b.Sweep(gctx, cutoff)
			record(name, n)
			if err != nil {
				return fmt.Errorf("sweep %s: %w", name, err)
			}
			return nil
		})
	}
	if s.store != nil {
		g.Go(func() error {
			n, err := s.store.DeleteSubmissionsBefore(gctx, cutoff)
			record("submissions", n)
			if err != nil {
				return fmt.Errorf("sweep submissions: %w", err)
			}
			return nil
		})
	}

	err := g.Wait()
	return report, err
}

// Start runs SweepOnce every interval until Stop. It is a no-op when the
// sweeper is disabled.
func (s *Sweeper) Start() {
	if !s.Enabled() || s.interval <= 0 {
		return
	}
	s.wg.Add(1)
	go s.loop()
}

// Stop signals the background goroutine to exit and waits for it.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	report, err := s.SweepOnce(ctx)
	if err != nil {
		s.logger.Error("retention sweep failed", zap.Error(err), zap.Any("removed", report))
		return
	}
	if total := report.Total(); total > 0 {
		s.logger.Info("retention sweep", zap.Int("removed", total), zap.Any("by_target", report))
	}
}
