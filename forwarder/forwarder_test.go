package forwarder

import (
	"context"
	"testing"
	"time"

	"github.com/jd3nn1s/fognode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastForwarding() func() {
	origInterval := forwardInterval
	forwardInterval = time.Millisecond
	return func() {
		forwardInterval = origInterval
	}
}

func testStatus(ticks uint64, actuate bool) *fognode.Status {
	return &fognode.Status{
		NodeID: "node-1",
		Summary: &fognode.Summary{
			VehicleID:         "vehicle-01",
			TimestampMs:       975,
			BrakeTempC:        200,
			BrakeTempRiseRate: 100,
		},
		Assessment: &fognode.HealthAssessment{
			ThermalStress:     1,
			BrakeHealth:       0.16,
			VehicleHealth:     0.54,
			VibrationRisk:     0.355,
			ThermalProtection: actuate,
			Actuation:         actuate,
			Confidence:        1,
		},
		Decision: fognode.Decision{Actuate: actuate, Cloud: true},
		Ticks:    ticks,
	}
}

func TestOfferNeverBlocks(t *testing.T) {
	l := newLatest()
	assert.NoError(t, l.offer(testStatus(1, false)))
	assert.Equal(t, fognode.ErrForwarderBusy, l.offer(testStatus(2, false)))

	status := <-l
	assert.Equal(t, uint64(1), status.Ticks)
}

func TestOfferActuationReplacesPending(t *testing.T) {
	l := newLatest()
	assert.NoError(t, l.offer(testStatus(1, false)))
	assert.NoError(t, l.offer(testStatus(2, true)))

	status := <-l
	assert.Equal(t, uint64(2), status.Ticks)
	assert.True(t, status.Decision.Actuate)
}

func TestOfferCopiesStatus(t *testing.T) {
	l := newLatest()
	status := testStatus(1, false)
	require.NoError(t, l.offer(status))
	status.Ticks = 99

	assert.Equal(t, uint64(1), (<-l).Ticks)
}

func TestRunStopsOnSendError(t *testing.T) {
	defer fastForwarding()()

	l := newLatest()
	require.NoError(t, l.offer(testStatus(1, false)))
	errSend := errors.New("send failed")
	err := l.run(context.Background(), func(_ context.Context, status *fognode.Status) error {
		return errSend
	})
	assert.Equal(t, errSend, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	defer fastForwarding()()

	ctx, cancel := context.WithCancel(context.Background())
	l := newLatest()
	var sent []uint64
	go func() {
		_ = l.offer(testStatus(1, false))
	}()
	err := l.run(ctx, func(_ context.Context, status *fognode.Status) error {
		sent = append(sent, status.Ticks)
		cancel()
		return nil
	})
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, []uint64{1}, sent)
}

func TestNewStatusFrame(t *testing.T) {
	frame := NewStatusFrame(testStatus(1, true))
	assert.Equal(t, int64(975), frame.TimestampMs)
	assert.Equal(t, float32(200), frame.BrakeTempC)
	assert.Equal(t, float32(100), frame.BrakeTempRiseRate)
	assert.Equal(t, float32(0.16), frame.BrakeHealth)
	assert.Equal(t, FlagThermalProtection|FlagActuation|FlagCloudSent, frame.Flags)
	assert.Equal(t, uint8(TypeActuation), frameType(testStatus(1, true)))
	assert.Equal(t, uint8(TypeStatus), frameType(testStatus(1, false)))

	empty := NewStatusFrame(&fognode.Status{})
	assert.Equal(t, StatusFrame{}, empty)
}
