package forwarder

import (
	"context"
	"time"

	"github.com/jd3nn1s/fognode"
)

// updates are forwarded at most this often; the rest are skipped
var forwardInterval = 100 * time.Millisecond

// latest hands status updates from the scheduler to a forwarder goroutine
// without ever blocking the scheduler.
type latest chan *fognode.Status

func newLatest() latest {
	return make(latest, 1)
}

func (l latest) offer(status *fognode.Status) error {
	// copy the status as it is processed on another go-routine
	statusCopy := *status
	select {
	case l <- &statusCopy:
		return nil
	default:
	}
	if !status.Decision.Actuate {
		return fognode.ErrForwarderBusy
	}
	// an actuation replaces whatever is pending
	select {
	case <-l:
	default:
	}
	select {
	case l <- &statusCopy:
		return nil
	default:
		return fognode.ErrForwarderBusy
	}
}

func (l latest) run(ctx context.Context, send func(context.Context, *fognode.Status) error) error {
	limiter := time.NewTicker(forwardInterval)
	defer limiter.Stop()
	for {
		select {
		case <-limiter.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case status := <-l:
			if err := send(ctx, status); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
