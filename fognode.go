package fognode

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jd3nn1s/fognode/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrComputation marks a numeric fault in the pipeline. The loop stops
	// rather than act on a wrong safety decision.
	ErrComputation = errors.New("computation fault")

	ErrForwarderBusy = errors.New("forwarder busy")
)

// to allow testing
var (
	now   = time.Now
	sleep = func(ctx context.Context, d time.Duration) bool {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return true
		case <-ctx.Done():
			return false
		}
	}
)

// Status is the latest view of the node, shared with the status server and
// the forwarders. Summary and Assessment stay nil until the window first fills.
type Status struct {
	NodeID     string            `json:"node_id"`
	Sample     *RawSample        `json:"sample,omitempty"`
	Summary    *Summary          `json:"summary,omitempty"`
	Assessment *HealthAssessment `json:"assessment,omitempty"`
	Decision   Decision          `json:"decision"`

	WindowLen int `json:"window_len"`
	WindowCap int `json:"window_cap"`

	Ticks         uint64    `json:"ticks"`
	SamplesMissed uint64    `json:"samples_missed"`
	LastCloudSend time.Time `json:"last_cloud_send"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Node runs the sampling loop. The window and heartbeat belong to the loop
// goroutine; only the status snapshot is shared.
type Node struct {
	cfg        Config
	source     SampleSource
	dispatcher *Dispatcher
	forwarders []Forwarder
	metrics    *metrics.Metrics

	window    *Window
	heartbeat *Heartbeat

	mu     sync.RWMutex
	status Status
}

func NewNode(cfg Config, source SampleSource, dispatcher *Dispatcher, m *metrics.Metrics) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid node configuration")
	}
	window := NewWindow(cfg.WindowSize())
	return &Node{
		cfg:        cfg,
		source:     source,
		dispatcher: dispatcher,
		metrics:    m,
		window:     window,
		heartbeat:  NewHeartbeat(cfg.HeartbeatInterval),
		status: Status{
			NodeID:    uuid.NewString(),
			WindowCap: window.Cap(),
		},
	}, nil
}

func (n *Node) AddForwarder(f Forwarder) {
	n.forwarders = append(n.forwarders, f)
}

func (n *Node) Status() Status {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.status
}

// Run drives the loop on an absolute schedule anchored at its first tick. A
// late tick is followed immediately by the next one; ticks are never skipped
// or batched. Run returns nil when ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	log.WithField("windowSize", n.window.Cap()).
		WithField("samplePeriod", n.cfg.SamplePeriod).
		WithField("bridge", n.cfg.BridgeHost).
		Info("fog node running")

	next := now()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := n.Tick(ctx); err != nil {
			return errors.Wrap(err, "tick failed")
		}
		next = next.Add(n.cfg.SamplePeriod)
		wait := next.Sub(now())
		if wait <= 0 {
			n.metrics.TickOverrun()
			continue
		}
		if !sleep(ctx, wait) {
			return nil
		}
	}
}

// Tick fetches one sample and, once the window is full, assesses it and
// dispatches whatever the policy requires.
func (n *Node) Tick(ctx context.Context) error {
	sample, err := n.source.Fetch(ctx)
	if err != nil || sample == nil {
		log.WithField("err", err).Debug("no sample this tick")
		n.metrics.SampleMissed()
		sample = nil
	}
	n.window.Push(sample)
	n.metrics.Tick(n.window.Len())

	if !n.window.Full() {
		n.update(sample, nil, nil, Decision{})
		return nil
	}

	summary, err := Aggregate(n.window.Snapshot())
	if err != nil {
		return err
	}
	health := ComputeHealth(summary, n.cfg.Thresholds)
	if err := checkFinite(summary, health); err != nil {
		return err
	}
	n.metrics.Health(health.ThermalStress, health.BrakeHealth, health.VehicleHealth, health.VibrationRisk, health.Actuation)

	decision := n.heartbeat.Decide(health.Actuation, now())
	if decision.Actuate {
		n.dispatcher.SendToActuator(ctx, BuildActuationPacket(summary, health))
	}
	if decision.Cloud {
		n.dispatcher.SendToCloud(ctx, BuildCloudPacket(summary, health, n.cfg.Thresholds))
		n.heartbeat.Mark(now())
	}

	n.update(sample, &summary, &health, decision)
	return nil
}

func (n *Node) update(sample *RawSample, summary *Summary, health *HealthAssessment, decision Decision) {
	n.mu.Lock()
	n.status.Ticks++
	if sample == nil {
		n.status.SamplesMissed++
	} else {
		n.status.Sample = sample
	}
	if summary != nil {
		n.status.Summary = summary
		n.status.Assessment = health
	}
	n.status.Decision = decision
	n.status.WindowLen = n.window.Len()
	n.status.LastCloudSend = n.heartbeat.Last()
	n.status.UpdatedAt = now()
	st := n.status
	n.mu.Unlock()

	if summary == nil {
		return
	}
	for _, f := range n.forwarders {
		if err := f.Forward(&st); err != nil {
			if errors.Cause(err) == ErrForwarderBusy {
				n.metrics.ForwardDropped(f.Name())
				continue
			}
			log.WithField("err", err).Warnf("%s: unable to forward status", f.Name())
		}
	}
}

func checkFinite(s Summary, h HealthAssessment) error {
	values := map[string]float64{
		"brake_temp_c":          s.BrakeTempC,
		"brake_temp_rise_rate":  s.BrakeTempRiseRate,
		"engine_oil_temp_c":     s.EngineOilTempC,
		"motor_rpm":             s.MotorRPM,
		"engine_rpm_variance":   s.EngineRPMVariance,
		"vibration_rms":         s.VibrationRMS,
		"dominant_vibration_hz": s.DominantVibrationHz,
		"battery_voltage_v":     s.BatteryVoltageV,
		"output_voltage_v":      s.OutputVoltageV,
		"thermal_stress":        h.ThermalStress,
		"brake_health":          h.BrakeHealth,
		"vehicle_health":        h.VehicleHealth,
		"vibration_risk":        h.VibrationRisk,
		"vibration_ratio":       h.VibrationRatio,
		"confidence":            h.Confidence,
	}
	for name, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrComputation, "%s is %v", name, v)
		}
	}
	return nil
}

// Handle supervises a running Node.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Start runs the node on its own goroutine until ctx is cancelled, Stop is
// called, or a tick fails.
func (n *Node) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				h.setErr(errors.Wrapf(ErrComputation, "panic: %v", r))
			}
		}()
		if err := n.Run(ctx); err != nil {
			log.WithField("err", err).Error("fog node stopped")
			h.setErr(err)
		}
	}()
	return h
}

func (h *Handle) setErr(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) Running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Stop cancels the loop, waits for the current tick to finish and returns the
// error the loop stopped with, if any.
func (h *Handle) Stop() error {
	h.cancel()
	<-h.done
	return h.Err()
}
