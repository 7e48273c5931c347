package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// syncPassTimeout bounds one full pass; a stuck upstream must not hold the
// pass lock forever.
const syncPassTimeout = 10 * time.Minute

// Scheduler runs sync passes on a fixed interval, starting with one
// immediately. A pass that is still running when the next tick fires is not
// stacked; the tick is skipped.
type Scheduler struct {
	syncer   *Syncer
	interval time.Duration
	passLock sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewScheduler(syncer *Syncer, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runPass()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runPass()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) runPass() {
	if !s.passLock.TryLock() {
		slog.Warn("Previous sync pass still running, skipping tick")
		return
	}
	defer s.passLock.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, syncPassTimeout)
	defer cancel()

	s.syncer.SyncAll(ctx)
}
