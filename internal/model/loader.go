package model

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type LoadOptions struct {
	ModelPath    string
	MetadataPath string
	LibraryPath  string
	// MaxRetries is the number of extra attempts after the first failure.
	MaxRetries   int
	RetryBackoff time.Duration
}

// Load opens the model, retrying with linear backoff, and warms it up.
func Load(ctx context.Context, opts LoadOptions, logger zerolog.Logger) (*Server, error) {
	metadata, err := LoadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	var server *Server
	err = retryLinear(ctx, opts.MaxRetries, opts.RetryBackoff, logger, func() error {
		s, err := NewServer(opts.ModelPath, metadata, opts.LibraryPath)
		if err != nil {
			return err
		}
		server = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := server.Warmup(); err != nil {
		server.Close()
		return nil, err
	}
	logger.Info().Str("model", opts.ModelPath).Strs("classes", metadata.Classes).Msg("model loaded")
	return server, nil
}

// retryLinear calls fn up to retries+1 times, waiting attempt*backoff
// between attempts.
func retryLinear(ctx context.Context, retries int, backoff time.Duration, logger zerolog.Logger, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * backoff
			logger.Warn().Err(lastErr).Int("attempt", attempt).Dur("backoff", wait).Msg("model load failed, retrying")

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("model load cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-timer.C:
			}
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("model load failed after %d attempts: %w", retries+1, lastErr)
}
