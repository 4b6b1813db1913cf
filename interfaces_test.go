package fognode

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

type sourceStub struct {
	samples []*RawSample
	calls   int
	// called with the 1-based call number before returning
	onFetch func(call int)
}

func (s *sourceStub) Fetch(ctx context.Context) (*RawSample, error) {
	s.calls++
	if s.onFetch != nil {
		s.onFetch(s.calls)
	}
	if len(s.samples) == 0 {
		return nil, errors.New("bridge unreachable")
	}
	sample := s.samples[0]
	s.samples = s.samples[1:]
	if sample == nil {
		return nil, errors.New("bridge timeout")
	}
	return sample, nil
}

// endlessSource returns nominal samples forever
type endlessSource struct {
	ts int64
}

func (s *endlessSource) Fetch(ctx context.Context) (*RawSample, error) {
	s.ts += 25
	sample := nominalSample(s.ts)
	return &sample, nil
}

type actuatorStub struct {
	packets []ActuationPacket
	result  SendResult
}

func (a *actuatorStub) Actuate(ctx context.Context, pkt ActuationPacket) SendResult {
	a.packets = append(a.packets, pkt)
	return a.result
}

type cloudStub struct {
	packets []CloudPacket
	result  SendResult
}

func (c *cloudStub) Send(ctx context.Context, pkt CloudPacket) SendResult {
	c.packets = append(c.packets, pkt)
	return c.result
}

type forwarderStub struct {
	statuses []Status
	err      error
}

func (f *forwarderStub) Forward(status *Status) error {
	f.statuses = append(f.statuses, *status)
	return f.err
}

func (f *forwarderStub) Name() string {
	return "stub"
}

func nominalSample(ts int64) RawSample {
	return RawSample{
		DeviceID:    "esp32-01",
		VehicleID:   "vehicle-01",
		TimestampMs: ts,

		BrakeTempC:     90,
		EngineOilTempC: 95,

		MotorRPM:            3000,
		VibrationRMS:        0.3,
		DominantVibrationHz: 50,

		BatteryVoltageV:  12.6,
		OutputVoltageV:   12.4,
		BatteryHealthPct: 95,

		EngineRULPct:  90,
		BrakeRULPct:   90,
		BatteryRULPct: 90,

		BrakePadRemainingPct: 80,
		BrakeDiscScore:       0.9,
	}
}

func samplePtr(s RawSample) *RawSample {
	return &s
}

// fakeClock replaces the package clock and sleep hooks
type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func useFakeClock() (*fakeClock, func()) {
	origNow, origSleep := now, sleep
	c := &fakeClock{t: time.Unix(1700000000, 0)}
	now = func() time.Time {
		return c.t
	}
	sleep = func(ctx context.Context, d time.Duration) bool {
		c.sleeps = append(c.sleeps, d)
		c.t = c.t.Add(d)
		return true
	}
	return c, func() {
		now, sleep = origNow, origSleep
	}
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}
