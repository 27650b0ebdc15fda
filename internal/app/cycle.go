package app

import (
	"context"
	"fmt"
	"time"

	"enrollment_notifier/internal/domain/browser"

	"github.com/sirupsen/logrus"
)

// Acquirer produces an authenticated browser session.
type Acquirer interface {
	Acquire(ctx context.Context) (browser.Driver, error)
}

// Capturer extracts the bearer token from a session.
type Capturer interface {
	Capture(ctx context.Context, d browser.Driver) string
}

// Ingestor processes the class listing with a token.
type Ingestor interface {
	Run(ctx context.Context, token string) (IngestStats, error)
}

// Cycle is one full poll: log in, grab the token, close the browser and ingest.
type Cycle struct {
	acquirer Acquirer
	capturer Capturer
	ingestor Ingestor
	logger   logrus.FieldLogger
}

func NewCycle(acquirer Acquirer, capturer Capturer, ingestor Ingestor, logger logrus.FieldLogger) *Cycle {
	return &Cycle{acquirer: acquirer, capturer: capturer, ingestor: ingestor, logger: logger}
}

// Run executes one cycle. The browser is always closed before ingestion starts.
func (c *Cycle) Run(ctx context.Context) error {
	start := time.Now()

	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	stats, err := c.ingestor.Run(ctx, token)
	c.logger.WithFields(logrus.Fields{
		"pages":      stats.Pages,
		"seen":       stats.Seen,
		"skipped":    stats.Skipped,
		"dispatched": stats.Dispatched,
		"deferred":   stats.Deferred,
		"failed":     stats.Failed,
		"duration":   time.Since(start).Round(time.Millisecond).String(),
	}).Info("Cycle finished")
	if err != nil {
		return fmt.Errorf("ingest classes: %w", err)
	}
	return nil
}

func (c *Cycle) token(ctx context.Context) (string, error) {
	d, err := c.acquirer.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire session: %w", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close browser session")
		}
	}()

	token := c.capturer.Capture(ctx, d)
	if token == "" {
		return "", ErrTokenMissing
	}
	return token, nil
}
