package team

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rapantix/internal/types"
)

// PollInterval is the team-mode polling period.
const PollInterval = 1500 * time.Millisecond

// Fetcher returns the current snapshot of a session.
type Fetcher func(ctx context.Context) (types.TeamState, error)

// Poller fetches a session snapshot on a fixed interval.
type Poller struct {
	interval time.Duration
	fetch    Fetcher
	log      *slog.Logger
}

func NewPoller(interval time.Duration, fetch Fetcher, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = PollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{interval: interval, fetch: fetch, log: logger.With("component", "poller")}
}

// Start polls until stop is called or ctx is done. Successful snapshots are
// delivered on the returned channel, which is closed when polling ends.
// Failed fetches are dropped; the next tick tries again. stop blocks until
// the polling goroutine has exited and may be called more than once.
func (p *Poller) Start(ctx context.Context) (<-chan types.TeamState, func()) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan types.TeamState, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			state, err := p.fetch(ctx)
			if err != nil {
				if ctx.Err() == nil {
					p.log.DebugContext(ctx, "poll failed", slog.String("error", err.Error()))
				}
				continue
			}

			select {
			case out <- state:
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return out, stop
}
