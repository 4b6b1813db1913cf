package config

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jd3nn1s/fognode"
	"github.com/jd3nn1s/fognode/forwarder"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// Duration reads "25ms" style strings from either file format.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Thresholds are pointers so that an explicit 0 in the file is kept; only
// absent keys take the default.
type Thresholds struct {
	BrakeMaxTempC         *float64 `toml:"brake_max_temp_c" yaml:"brake_max_temp_c"`
	MaxSafeRise           *float64 `toml:"max_safe_rise" yaml:"max_safe_rise"`
	ProtectionTempC       *float64 `toml:"protection_temp_c" yaml:"protection_temp_c"`
	ProtectionRiseRate    *float64 `toml:"protection_rise_rate" yaml:"protection_rise_rate"`
	ProtectionBrakeHealth *float64 `toml:"protection_brake_health" yaml:"protection_brake_health"`
	EmergencyScore        *float64 `toml:"emergency_score" yaml:"emergency_score"`
}

type Node struct {
	SamplePeriod      Duration   `toml:"sample_period" yaml:"sample_period"`
	Window            Duration   `toml:"window" yaml:"window"`
	HeartbeatInterval Duration   `toml:"heartbeat_interval" yaml:"heartbeat_interval"`
	SensorTimeout     Duration   `toml:"sensor_timeout" yaml:"sensor_timeout"`
	ActuatorTimeout   Duration   `toml:"actuator_timeout" yaml:"actuator_timeout"`
	CloudTimeout      Duration   `toml:"cloud_timeout" yaml:"cloud_timeout"`
	BridgeHost        string     `toml:"bridge_host" yaml:"bridge_host"`
	CloudIngestURL    string     `toml:"cloud_ingest_url" yaml:"cloud_ingest_url"`
	DeviceID          string     `toml:"device_id" yaml:"device_id"`
	VehicleID         string     `toml:"vehicle_id" yaml:"vehicle_id"`
	Thresholds        Thresholds `toml:"thresholds" yaml:"thresholds"`
}

type Status struct {
	Addr string `toml:"addr" yaml:"addr"`
}

type UDP struct {
	Server string `toml:"server" yaml:"server"`
	Port   int    `toml:"port" yaml:"port"`
}

type Redis struct {
	Addr      string   `toml:"addr" yaml:"addr"`
	Password  string   `toml:"password" yaml:"password"`
	DB        int      `toml:"db" yaml:"db"`
	KeyPrefix string   `toml:"key_prefix" yaml:"key_prefix"`
	TTL       Duration `toml:"ttl" yaml:"ttl"`
}

type MQTT struct {
	Broker      string   `toml:"broker" yaml:"broker"`
	ClientID    string   `toml:"client_id" yaml:"client_id"`
	Username    string   `toml:"username" yaml:"username"`
	Password    string   `toml:"password" yaml:"password"`
	TopicPrefix string   `toml:"topic_prefix" yaml:"topic_prefix"`
	Timeout     Duration `toml:"timeout" yaml:"timeout"`
}

// Config is the on-disk configuration. Forwarders are enabled by filling in
// their section.
type Config struct {
	LogLevel string `toml:"log_level" yaml:"log_level"`
	Node     Node   `toml:"node" yaml:"node"`
	Status   Status `toml:"status" yaml:"status"`
	UDP      UDP    `toml:"udp" yaml:"udp"`
	Redis    Redis  `toml:"redis" yaml:"redis"`
	MQTT     MQTT   `toml:"mqtt" yaml:"mqtt"`
}

// Load reads a TOML or YAML file, picked by extension. A relative path is
// resolved against the binary's directory when it does not exist in the
// working directory.
func Load(fileName string) (*Config, error) {
	path := fileName
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			dir, err := filepath.Abs(filepath.Dir(os.Args[0]))
			if err != nil {
				return nil, errors.Wrapf(err, "unable to determine binary location")
			}
			path = filepath.Join(dir, fileName)
		}
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()

	format := FormatTOML
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	return LoadFromReader(file, format)
}

func LoadFromReader(r io.Reader, format Format) (*Config, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config reader")
	}
	cfg := Config{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "unable to decode yaml configuration")
		}
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, errors.Wrap(err, "unable to decode toml configuration")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Errorf("unknown configuration keys: %v", undecoded)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := fognode.DefaultConfig()
	n := &c.Node

	defaultDuration(&n.SamplePeriod, def.SamplePeriod)
	defaultDuration(&n.Window, def.Window)
	defaultDuration(&n.HeartbeatInterval, def.HeartbeatInterval)
	defaultDuration(&n.SensorTimeout, def.SensorTimeout)
	defaultDuration(&n.ActuatorTimeout, def.ActuatorTimeout)
	defaultDuration(&n.CloudTimeout, def.CloudTimeout)
	if n.BridgeHost == "" {
		n.BridgeHost = def.BridgeHost
	}
	if n.CloudIngestURL == "" {
		n.CloudIngestURL = def.CloudIngestURL
	}
	if n.DeviceID == "" {
		n.DeviceID = "fognode-test"
	}
	if n.VehicleID == "" {
		n.VehicleID = "test-vehicle"
	}

	th := &n.Thresholds
	defaultFloat(&th.BrakeMaxTempC, def.Thresholds.BrakeMaxTempC)
	defaultFloat(&th.MaxSafeRise, def.Thresholds.MaxSafeRise)
	defaultFloat(&th.ProtectionTempC, def.Thresholds.ProtectionTempC)
	defaultFloat(&th.ProtectionRiseRate, def.Thresholds.ProtectionRiseRate)
	defaultFloat(&th.ProtectionBrakeHealth, def.Thresholds.ProtectionBrakeHealth)
	defaultFloat(&th.EmergencyScore, def.Thresholds.EmergencyScore)

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Status.Addr == "" {
		c.Status.Addr = ":9100"
	}
}

func defaultDuration(d *Duration, v time.Duration) {
	if d.Duration == 0 {
		d.Duration = v
	}
}

func defaultFloat(f **float64, v float64) {
	if *f == nil {
		*f = &v
	}
}

func (c *Config) validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	if err := c.NodeConfig().Validate(); err != nil {
		return errors.Wrap(err, "node")
	}
	if c.UDP.Server != "" && (c.UDP.Port <= 0 || c.UDP.Port > 65535) {
		return errors.Errorf("udp.port %d is out of range", c.UDP.Port)
	}
	return nil
}

func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func (c *Config) NodeConfig() fognode.Config {
	n := c.Node
	return fognode.Config{
		SamplePeriod:      n.SamplePeriod.Duration,
		Window:            n.Window.Duration,
		HeartbeatInterval: n.HeartbeatInterval.Duration,
		SensorTimeout:     n.SensorTimeout.Duration,
		ActuatorTimeout:   n.ActuatorTimeout.Duration,
		CloudTimeout:      n.CloudTimeout.Duration,
		BridgeHost:        n.BridgeHost,
		CloudIngestURL:    n.CloudIngestURL,
		Thresholds: fognode.Thresholds{
			BrakeMaxTempC:         *n.Thresholds.BrakeMaxTempC,
			MaxSafeRise:           *n.Thresholds.MaxSafeRise,
			ProtectionTempC:       *n.Thresholds.ProtectionTempC,
			ProtectionRiseRate:    *n.Thresholds.ProtectionRiseRate,
			ProtectionBrakeHealth: *n.Thresholds.ProtectionBrakeHealth,
			EmergencyScore:        *n.Thresholds.EmergencyScore,
		},
	}
}

func (c *Config) UDPConfig() (forwarder.UDPConfig, bool) {
	return forwarder.UDPConfig{
		Server: c.UDP.Server,
		Port:   c.UDP.Port,
	}, c.UDP.Server != ""
}

func (c *Config) RedisConfig() (forwarder.RedisConfig, bool) {
	return forwarder.RedisConfig{
		Addr:      c.Redis.Addr,
		Password:  c.Redis.Password,
		DB:        c.Redis.DB,
		KeyPrefix: c.Redis.KeyPrefix,
		TTL:       c.Redis.TTL.Duration,
	}, c.Redis.Addr != ""
}

func (c *Config) MQTTConfig() (forwarder.MQTTConfig, bool) {
	return forwarder.MQTTConfig{
		Broker:      c.MQTT.Broker,
		ClientID:    c.MQTT.ClientID,
		Username:    c.MQTT.Username,
		Password:    c.MQTT.Password,
		TopicPrefix: c.MQTT.TopicPrefix,
		Timeout:     c.MQTT.Timeout.Duration,
	}, c.MQTT.Broker != ""
}
