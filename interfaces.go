package fognode

import (
	"context"
)

// SampleSource returns one reading per call. A failed fetch returns an error
// and the tick continues without a sample.
type SampleSource interface {
	Fetch(ctx context.Context) (*RawSample, error)
}

type Actuator interface {
	Actuate(ctx context.Context, pkt ActuationPacket) SendResult
}

type CloudSink interface {
	Send(ctx context.Context, pkt CloudPacket) SendResult
}

// Forwarder mirrors status updates to a secondary consumer. Forward must not
// block the scheduler; it returns ErrForwarderBusy when the update is skipped.
type Forwarder interface {
	Forward(status *Status) error
	Name() string
}
