/*
Package reaper periodically evicts idle rooms and sessions.

Expiry is silent: occupants are not notified, and the next operation against
an expired room or session fails with the ordinary not-found error.
*/
package reaper

import (
	"context"
	"time"

	"voxpair/internal/pkg/logx"
)

// Sweeper deletes entries idle for longer than ttl as of now.
type Sweeper interface {
	Name() string
	Sweep(now time.Time, ttl time.Duration) int
}

// Run sweeps every interval until ctx is canceled.
func Run(ctx context.Context, interval, ttl time.Duration, sweepers ...Sweeper) {
	logger := logx.Component("reaper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Dur("ttl", ttl).Msg("Reaper started.")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Reaper stopped.")
			return
		case now := <-ticker.C:
			for _, s := range sweepers {
				if n := s.Sweep(now, ttl); n > 0 {
					logger.Debug().Str("target", s.Name()).Int("removed", n).Msg("Sweep finished.")
				}
			}
		}
	}
}
