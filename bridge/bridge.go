package bridge

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/jd3nn1s/fognode"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	dataPath    = "/data"
	actuatePath = "/actuate"
)

// Client talks to the vehicle's sensor/actuator bridge over HTTP. Reads and
// actuation commands use separate clients so their timeouts stay independent.
type Client struct {
	sensor   *resty.Client
	actuator *resty.Client
}

func newRestyClient(host string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL("http://"+host).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
}

func New(host string, sensorTimeout, actuatorTimeout time.Duration) *Client {
	return &Client{
		sensor:   newRestyClient(host, sensorTimeout),
		actuator: newRestyClient(host, actuatorTimeout).SetHeader("Content-Type", "application/json"),
	}
}

func (c *Client) Fetch(ctx context.Context) (*fognode.RawSample, error) {
	wire := sample{}
	// the bridge does not always label its responses as JSON
	resp, err := c.sensor.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		ForceContentType("application/json").
		SetResult(&wire).
		Get(dataPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to fetch sample from bridge")
	}
	if resp.IsError() {
		return nil, errors.Errorf("bridge responded to %s with status %d", dataPath, resp.StatusCode())
	}
	s, err := wire.rawSample()
	if err != nil {
		return nil, errors.Wrap(err, "incomplete bridge sample")
	}
	return s, nil
}

func (c *Client) Actuate(ctx context.Context, pkt fognode.ActuationPacket) fognode.SendResult {
	log.WithField("confidence", pkt.DecisionConfidence).
		WithField("criticalClass", pkt.DecisionCriticalClass).
		Debug("sending actuation packet")
	resp, err := c.actuator.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetBody(pkt).
		Put(actuatePath)
	return fognode.ResultFrom(statusCode(resp), err)
}

func statusCode(resp *resty.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode()
}
