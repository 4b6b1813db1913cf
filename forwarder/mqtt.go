package forwarder

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jd3nn1s/fognode"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	qosStatus    byte = 0
	qosActuation byte = 1
)

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Timeout     time.Duration
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// to allow testing
var mqttConnect = func(opts *mqtt.ClientOptions, timeout time.Duration) (publisher, error) {
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, errors.New("timed out connecting to mqtt broker")
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return client, nil
}

// MQTTForwarder publishes the latest status (retained) and actuation events
// for local consumers such as an in-cab display.
type MQTTForwarder struct {
	Config MQTTConfig

	client  publisher
	pending latest
}

func NewMQTTForwarder(config MQTTConfig) *MQTTForwarder {
	if config.TopicPrefix == "" {
		config.TopicPrefix = "fognode"
	}
	if config.ClientID == "" {
		config.ClientID = "fognode"
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Second
	}
	return &MQTTForwarder{
		Config:  config,
		pending: newLatest(),
	}
}

func (m *MQTTForwarder) Name() string {
	return "mqtt"
}

func (m *MQTTForwarder) StatusTopic(vehicleID string) string {
	return m.Config.TopicPrefix + "/" + vehicleID + "/status"
}

func (m *MQTTForwarder) ActuationTopic(vehicleID string) string {
	return m.Config.TopicPrefix + "/" + vehicleID + "/actuation"
}

func (m *MQTTForwarder) Open() error {
	opts := mqtt.NewClientOptions().
		AddBroker(m.Config.Broker).
		SetClientID(m.Config.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectTimeout(m.Config.Timeout)
	if m.Config.Username != "" {
		opts.SetUsername(m.Config.Username)
	}
	if m.Config.Password != "" {
		opts.SetPassword(m.Config.Password)
	}
	client, err := mqttConnect(opts, m.Config.Timeout)
	if err != nil {
		return errors.Wrapf(err, "unable to connect to mqtt broker %s", m.Config.Broker)
	}
	log.WithField("broker", m.Config.Broker).Info("mqtt forwarder connected")
	m.client = client
	return nil
}

func (m *MQTTForwarder) Close() error {
	if m.client == nil {
		return nil
	}
	m.client.Disconnect(250)
	m.client = nil
	return nil
}

func (m *MQTTForwarder) Forward(status *fognode.Status) error {
	return m.pending.offer(status)
}

func (m *MQTTForwarder) Start(ctx context.Context) error {
	return m.pending.run(ctx, m.publish)
}

func (m *MQTTForwarder) publish(_ context.Context, status *fognode.Status) error {
	if m.client == nil {
		return errors.New("mqtt forwarder is not connected")
	}
	if status.Summary == nil {
		return nil
	}
	payload, err := json.Marshal(status)
	if err != nil {
		return errors.Wrap(err, "unable to encode status")
	}
	vehicleID := status.Summary.VehicleID
	if err := m.send(m.StatusTopic(vehicleID), qosStatus, true, payload); err != nil {
		return err
	}
	if status.Decision.Actuate {
		return m.send(m.ActuationTopic(vehicleID), qosActuation, false, payload)
	}
	return nil
}

func (m *MQTTForwarder) send(topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(m.Config.Timeout) {
		return errors.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "unable to publish to %s", topic)
	}
	return nil
}
