package orchestrator

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Watch repeats Run every interval until ctx is done. Passes that find no
// courses are retried on the next tick; an invalid choice stops the loop.
func (o *Orchestrator) Watch(ctx context.Context, choice int, every time.Duration) error {
	if every <= 0 {
		return errors.Errorf("watch interval must be positive, got %s", every)
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for pass := 1; ; pass++ {
		summary, err := o.Run(ctx, choice)
		switch {
		case errors.Is(err, ErrInvalidChoice):
			return err
		case err != nil:
			o.logger.Warn().Err(err).Int("pass", pass).Msg("Pass failed, retrying on next tick")
		default:
			o.logger.Info().
				Int("pass", pass).
				Int("succeeded", summary.Succeeded).
				Int("failed", len(summary.Failed)).
				Msgf("Pass complete, next in %s", every)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
