package fognode

import (
	"context"
	"net"
	"time"

	"github.com/jd3nn1s/fognode/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeTimeout
	OutcomeTransportError
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeRejected:
		return "rejected"
	}
	return "unknown"
}

// SendResult is the outcome of one best-effort send. Nothing is retried.
type SendResult struct {
	Outcome    Outcome
	StatusCode int
	Err        error
}

func (r SendResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// ResultFrom classifies a completed HTTP exchange. err is the transport error,
// if any; statusCode is only consulted when err is nil.
func ResultFrom(statusCode int, err error) SendResult {
	if err != nil {
		return SendResult{Outcome: classifyError(err), StatusCode: statusCode, Err: err}
	}
	if statusCode < 200 || statusCode > 299 {
		return SendResult{
			Outcome:    OutcomeRejected,
			StatusCode: statusCode,
			Err:        errors.Errorf("peer responded with status %d", statusCode),
		}
	}
	return SendResult{Outcome: OutcomeSuccess, StatusCode: statusCode}
}

func classifyError(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}
	return OutcomeTransportError
}

const (
	targetActuator = "actuator"
	targetCloud    = "cloud"
)

// Dispatcher performs the two outbound sends of a tick.
type Dispatcher struct {
	actuator Actuator
	cloud    CloudSink
	metrics  *metrics.Metrics
}

func NewDispatcher(actuator Actuator, cloud CloudSink, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		actuator: actuator,
		cloud:    cloud,
		metrics:  m,
	}
}

// SendToActuator delivers the packet once. Failures are counted but not logged
// above debug: the actuation path is best effort.
func (d *Dispatcher) SendToActuator(ctx context.Context, pkt ActuationPacket) SendResult {
	start := time.Now()
	res := d.actuator.Actuate(ctx, pkt)
	d.metrics.Dispatch(targetActuator, res.Outcome.String(), time.Since(start))
	if !res.OK() {
		log.WithField("outcome", res.Outcome).
			WithField("err", res.Err).
			Debug("actuation packet dropped")
	}
	return res
}

func (d *Dispatcher) SendToCloud(ctx context.Context, pkt CloudPacket) SendResult {
	start := time.Now()
	res := d.cloud.Send(ctx, pkt)
	d.metrics.Dispatch(targetCloud, res.Outcome.String(), time.Since(start))
	switch res.Outcome {
	case OutcomeSuccess:
	case OutcomeRejected:
		log.WithField("status", res.StatusCode).
			WithField("vehicleID", pkt.VehicleID).
			WithField("err", res.Err).
			Warn("cloud rejected packet")
	default:
		log.WithField("outcome", res.Outcome).
			WithField("err", res.Err).
			Warn("cloud send failed")
	}
	return res
}
