package fognode

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func noDelays() func() {
	origRetrySleep := retrySleep
	retrySleep = 0
	return func() {
		retrySleep = origRetrySleep
	}
}

type retryable struct {
	open        bool
	opens       int
	hasClosed   bool
	failOpens   int
	startedChan chan struct{}
	stopChan    chan error
}

func (r *retryable) Open() error {
	r.opens++
	if r.failOpens > 0 {
		r.failOpens--
		return errors.New("connection refused")
	}
	r.open = true
	return nil
}

func (r *retryable) Close() error {
	r.open = false
	r.hasClosed = true
	return nil
}

func (r *retryable) Start(ctx context.Context) error {
	r.startedChan <- struct{}{}
	select {
	case <-ctx.Done():
		r.open = false
		return ctx.Err()
	case err := <-r.stopChan:
		return err
	}
}

func (r *retryable) Name() string {
	return "retryable-test"
}

func TestRetry(t *testing.T) {
	defer noDelays()()
	r := retryable{
		startedChan: make(chan struct{}),
		stopChan:    make(chan error),
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	var retryErr error
	go func() {
		retryErr = Retry(ctx, &r)
		wg.Done()
	}()
	// wait for start to be called
	<-r.startedChan
	assert.True(t, r.open)

	// trigger start to exit with no error
	r.stopChan <- nil
	<-r.startedChan
	assert.True(t, r.open)
	assert.Equal(t, 1, r.opens)

	// emulate an error being returned from start
	r.stopChan <- errors.New("fake error")
	<-r.startedChan
	// check that it was closed and re-opened
	assert.True(t, r.hasClosed)
	assert.True(t, r.open)
	assert.Equal(t, 2, r.opens)

	cancel()
	wg.Wait()
	assert.Equal(t, context.Canceled, retryErr)
	assert.False(t, r.open)
}

func TestRetryFailedOpen(t *testing.T) {
	defer noDelays()()
	r := retryable{
		failOpens:   1,
		startedChan: make(chan struct{}),
		stopChan:    make(chan error),
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = Retry(ctx, &r)
		wg.Done()
	}()
	<-r.startedChan
	assert.Equal(t, 2, r.opens)
	assert.True(t, r.open)

	cancel()
	wg.Wait()
}

func TestRetryBacksOff(t *testing.T) {
	clock, restore := useFakeClock()
	defer restore()
	origRetrySleep, origMaxRetrySleep := retrySleep, maxRetrySleep
	retrySleep, maxRetrySleep = time.Second, 3*time.Second
	defer func() {
		retrySleep, maxRetrySleep = origRetrySleep, origMaxRetrySleep
	}()

	r := retryable{
		failOpens:   4,
		startedChan: make(chan struct{}),
		stopChan:    make(chan error),
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = Retry(ctx, &r)
		wg.Done()
	}()
	<-r.startedChan
	assert.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		3 * time.Second,
		3 * time.Second,
	}, clock.sleeps)

	// a successful open resets the delay
	r.stopChan <- errors.New("broker went away")
	<-r.startedChan
	assert.Equal(t, time.Second, clock.sleeps[4])
	assert.Equal(t, 6, r.opens)

	cancel()
	wg.Wait()
}
