// Package modelsync downloads the fitted model artifact into place before
// the application loads it.
package modelsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/lox/tempcast/internal/metrics"
	"github.com/lox/tempcast/internal/sarima"
)

type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type Syncer struct {
	fetcher    Fetcher
	dest       string
	log        *zap.SugaredLogger
	newBackOff func() backoff.BackOff
}

func NewSyncer(fetcher Fetcher, dest string, log *zap.SugaredLogger) *Syncer {
	return &Syncer{
		fetcher: fetcher,
		dest:    dest,
		log:     log,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = 2 * time.Minute
			return bo
		},
	}
}

// Sync fetches the artifact, checks that it decodes as a model and writes it
// to the destination path. The previous file is only replaced on success.
func (s *Syncer) Sync(ctx context.Context) error {
	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		data, err := s.fetcher.Fetch(ctx)
		if err != nil {
			metrics.ModelSyncAttempts.WithLabelValues("error").Inc()
			s.log.Warnw("model fetch failed", "attempt", attempt, "error", err)
			return err
		}
		if _, err := sarima.Parse(data); err != nil {
			metrics.ModelSyncAttempts.WithLabelValues("invalid").Inc()
			return backoff.Permanent(fmt.Errorf("downloaded artifact: %w", err))
		}
		metrics.ModelSyncAttempts.WithLabelValues("ok").Inc()
		body = data
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		return fmt.Errorf("sync model: %w", err)
	}

	if err := writeFileAtomic(s.dest, body); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	s.log.Infow("model artifact synced", "source", s.fetcher, "dest", s.dest, "bytes", len(body), "attempts", attempt)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
