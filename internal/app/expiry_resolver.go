package app

import (
	"context"
	"log"
	"time"

	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
)

const defaultSweepInterval = 30 * time.Second

// ExpiryResolver settles reservations past their deadline. The lifecycle
// engine implements it; the query service uses ExpireIfDue lazily on reads
// and the Sweeper drives ExpireDue on a schedule.
type ExpiryResolver interface {
	ExpireIfDue(ctx context.Context, id int) (domain.Slot, error)
	ExpireDue(ctx context.Context) (int, error)
}

// Sweeper periodically reverts expired reservations so no slot stays
// reserved past its deadline for longer than one interval, even on paths
// that never read it.
type Sweeper struct {
	resolver ExpiryResolver
	interval time.Duration
	logger   *log.Logger
}

func NewSweeper(resolver ExpiryResolver, interval time.Duration, logger *log.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		resolver: resolver,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.resolver.ExpireDue(ctx)
			if err != nil {
				s.logger.Printf("WARN: reservation sweep: %v", err)
				continue
			}
			if n > 0 {
				s.logger.Printf("reservation sweep reverted %d slot(s)", n)
			}
		}
	}
}
