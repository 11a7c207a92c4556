package authcore

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vetrina-app/authcore/cache"
)

// DefaultSweepInterval is how often the sweeper reaps expired codes.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes expired credential records. Verification
// checks expiry on its own, so the sweeper only bounds memory growth from
// abandoned issuances. It is an explicit task with a lifecycle, owned and
// cancelled by the process, not a fire-and-forget timer.
type Sweeper struct {
	store    cache.CredentialStore
	interval time.Duration
}

// NewSweeper creates a Sweeper. interval <= 0 selects DefaultSweepInterval.
func NewSweeper(store cache.CredentialStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		interval: interval,
	}
}

// Run sweeps on a ticker until ctx is cancelled. It always returns nil so
// it can sit in an errgroup without tearing the process down on cancel.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("Credential sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Credential sweeper stopped")
			return nil
		case <-ticker.C:
			removed, err := s.store.Sweep(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Credential sweep failed")
				continue
			}
			if removed > 0 {
				log.Debug().Int("removed", removed).Msg("Swept expired one-time codes")
			}
		}
	}
}
