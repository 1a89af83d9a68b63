package lifecycle

import (
	"context"
	"log"
	"time"
)

// Sweeper runs Manager.Sweep on a fixed interval for the life of the
// process. It has no timing concept beyond the interval; per-record expiry
// is entirely the manager's call.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
}

func NewSweeper(manager *Manager, interval time.Duration) *Sweeper {
	return &Sweeper{manager: manager, interval: interval}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("lifecycle: sweeper running every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("lifecycle: sweeper stopped")
			return
		case <-ticker.C:
			s.manager.Sweep()
		}
	}
}
