package uploader

import (
	"context"

	"github.com/rs/zerolog"
)

// Storage persists downloaded files. Keys are slash-separated paths relative
// to the download root, e.g. "CS101/Week 1/Slides.pdf".
type Storage interface {
	// Prepare makes sure a directory key can receive files. It is
	// idempotent and safe for concurrent callers.
	Prepare(ctx context.Context, dir string) error
	// Save writes data under key, replacing anything already there.
	Save(ctx context.Context, key string, data []byte) error
}

// Tee writes to a primary storage and copies every successful write to the
// mirrors. Mirror failures are logged and never fail the write.
type Tee struct {
	primary Storage
	mirrors []Storage
	logger  zerolog.Logger
}

// NewTee returns a Storage writing to primary and then to each mirror.
func NewTee(logger zerolog.Logger, primary Storage, mirrors ...Storage) *Tee {
	return &Tee{
		primary: primary,
		mirrors: mirrors,
		logger:  logger,
	}
}

func (t *Tee) Prepare(ctx context.Context, dir string) error {
	if err := t.primary.Prepare(ctx, dir); err != nil {
		return err
	}
	for _, m := range t.mirrors {
		if err := m.Prepare(ctx, dir); err != nil {
			t.logger.Warn().Err(err).Str("dir", dir).Msg("Mirror prepare failed")
		}
	}
	return nil
}

func (t *Tee) Save(ctx context.Context, key string, data []byte) error {
	if err := t.primary.Save(ctx, key, data); err != nil {
		return err
	}
	for _, m := range t.mirrors {
		if err := m.Save(ctx, key, data); err != nil {
			t.logger.Error().Err(err).Str("key", key).Msg("Mirror upload failed")
		}
	}
	return nil
}
