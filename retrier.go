package fognode

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// to allow testing
var (
	retrySleep    = time.Second
	maxRetrySleep = 30 * time.Second
)

// Retryable is a connection that Retry keeps open. Start blocks until the
// connection fails or ctx is done.
type Retryable interface {
	Open() error
	Close() error
	Start(ctx context.Context) error
	Name() string
}

// Retry opens r and restarts it after every failure until ctx is cancelled.
// Consecutive failures double the delay up to maxRetrySleep; it drops back to
// retrySleep once Open succeeds.
func Retry(ctx context.Context, r Retryable) error {
	delay := retrySleep
	for {
		if ctx.Err() != nil {
			closeRetryable(r)
			return ctx.Err()
		}
		err := r.Open()
		if err == nil {
			delay = retrySleep
			err = runRetryable(ctx, r)
		}
		if ctx.Err() != nil {
			closeRetryable(r)
			return ctx.Err()
		}
		log.WithField("err", err).
			WithField("retryIn", delay).
			Errorf("%s: reconnecting due to error", r.Name())
		closeRetryable(r)
		sleep(ctx, delay)
		delay = nextRetrySleep(delay)
	}
}

// runRetryable restarts r for as long as Start returns cleanly.
func runRetryable(ctx context.Context, r Retryable) error {
	for {
		if err := r.Start(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func nextRetrySleep(d time.Duration) time.Duration {
	d *= 2
	if d > maxRetrySleep {
		return maxRetrySleep
	}
	return d
}

func closeRetryable(r Retryable) {
	if err := r.Close(); err != nil {
		log.WithField("err", err).Warnf("%s: unable to close", r.Name())
	}
}
