package fognode

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// Thresholds are the fixed constants of the health model.
type Thresholds struct {
	BrakeMaxTempC float64
	MaxSafeRise   float64 // °C/s

	ProtectionTempC       float64
	ProtectionRiseRate    float64
	ProtectionBrakeHealth float64

	EmergencyScore float64
}

// Config is built once at startup and never changes while the node runs.
type Config struct {
	SamplePeriod      time.Duration
	Window            time.Duration
	HeartbeatInterval time.Duration

	SensorTimeout   time.Duration
	ActuatorTimeout time.Duration
	CloudTimeout    time.Duration

	BridgeHost     string
	CloudIngestURL string

	Thresholds Thresholds
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		BrakeMaxTempC:         220,
		MaxSafeRise:           6,
		ProtectionTempC:       180,
		ProtectionRiseRate:    3,
		ProtectionBrakeHealth: 0.4,
		EmergencyScore:        0.85,
	}
}

func DefaultConfig() Config {
	return Config{
		SamplePeriod:      25 * time.Millisecond,
		Window:            time.Second,
		HeartbeatInterval: time.Second,
		SensorTimeout:     300 * time.Millisecond,
		ActuatorTimeout:   300 * time.Millisecond,
		CloudTimeout:      2 * time.Second,
		BridgeHost:        "10.213.19.38",
		CloudIngestURL:    "https://fog-based-vehicle-monitoring.onrender.com/api/intelligence/insert",
		Thresholds:        DefaultThresholds(),
	}
}

// WindowSize is the number of samples a full window holds.
func (c Config) WindowSize() int {
	if c.SamplePeriod <= 0 {
		return 0
	}
	return int(c.Window / c.SamplePeriod)
}

func (c Config) Validate() error {
	if c.SamplePeriod <= 0 {
		return errors.Errorf("sample period must be positive, got %s", c.SamplePeriod)
	}
	if c.WindowSize() < 1 {
		return errors.Errorf("window %s is shorter than the sample period %s", c.Window, c.SamplePeriod)
	}
	if c.HeartbeatInterval <= 0 {
		return errors.Errorf("heartbeat interval must be positive, got %s", c.HeartbeatInterval)
	}
	if c.SensorTimeout <= 0 || c.ActuatorTimeout <= 0 || c.CloudTimeout <= 0 {
		return errors.New("network timeouts must be positive")
	}
	if c.BridgeHost == "" {
		return errors.New("bridge host is required")
	}
	u, err := url.Parse(c.CloudIngestURL)
	if err != nil {
		return errors.Wrapf(err, "invalid cloud ingest url %q", c.CloudIngestURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.Errorf("cloud ingest url %q must be absolute", c.CloudIngestURL)
	}
	th := c.Thresholds
	if th.BrakeMaxTempC <= 0 || th.MaxSafeRise <= 0 {
		return errors.New("brake max temperature and max safe rise must be positive")
	}
	return nil
}
