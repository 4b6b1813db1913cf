package cloud

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/jd3nn1s/fognode"
	"github.com/pkg/errors"
)

// Client posts packets to the cloud ingestion endpoint. Each packet is sent
// once; failed packets are dropped by the caller.
type Client struct {
	url  string
	http *resty.Client
}

func New(ingestURL string, timeout time.Duration) *Client {
	return &Client{
		url: ingestURL,
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
	}
}

func (c *Client) Send(ctx context.Context, pkt fognode.CloudPacket) fognode.SendResult {
	requestID := uuid.NewString()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID).
		SetBody(pkt).
		Post(c.url)

	res := fognode.ResultFrom(statusCode(resp), err)
	if res.Outcome == fognode.OutcomeRejected {
		res.Err = errors.Wrapf(res.Err, "request %s: %s", requestID, excerpt(resp.String(), maxBodyExcerpt))
	}
	return res
}

const maxBodyExcerpt = 120

// excerpt shortens s to at most n runes
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func statusCode(resp *resty.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode()
}
