package forwarder

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jd3nn1s/fognode"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// the status key expires when the node stops updating it
	TTL time.Duration
}

// RedisForwarder keeps the latest status under a per-vehicle key and
// publishes actuation events on a per-vehicle channel.
type RedisForwarder struct {
	Config RedisConfig

	client  *redis.Client
	pending latest
}

func NewRedisForwarder(config RedisConfig) *RedisForwarder {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "fognode:"
	}
	if config.TTL == 0 {
		config.TTL = 10 * time.Second
	}
	return &RedisForwarder{
		Config:  config,
		pending: newLatest(),
	}
}

func (r *RedisForwarder) Name() string {
	return "redis"
}

func (r *RedisForwarder) StatusKey(vehicleID string) string {
	return r.Config.KeyPrefix + vehicleID + ":status"
}

func (r *RedisForwarder) ActuationChannel(vehicleID string) string {
	return r.Config.KeyPrefix + vehicleID + ":actuation"
}

func (r *RedisForwarder) Open() error {
	client := redis.NewClient(&redis.Options{
		Addr:     r.Config.Addr,
		Password: r.Config.Password,
		DB:       r.Config.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return errors.Wrapf(err, "unable to ping redis at %s", r.Config.Addr)
	}
	log.WithField("addr", r.Config.Addr).Info("redis forwarder connected")
	r.client = client
	return nil
}

func (r *RedisForwarder) Close() error {
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

func (r *RedisForwarder) Forward(status *fognode.Status) error {
	return r.pending.offer(status)
}

func (r *RedisForwarder) Start(ctx context.Context) error {
	return r.pending.run(ctx, r.store)
}

func (r *RedisForwarder) store(ctx context.Context, status *fognode.Status) error {
	if r.client == nil {
		return errors.New("redis forwarder is not connected")
	}
	if status.Summary == nil {
		return nil
	}
	data, err := json.Marshal(status)
	if err != nil {
		return errors.Wrap(err, "unable to encode status")
	}
	vehicleID := status.Summary.VehicleID
	if err := r.client.Set(ctx, r.StatusKey(vehicleID), data, r.Config.TTL).Err(); err != nil {
		return errors.Wrapf(err, "unable to store status for %s", vehicleID)
	}
	if status.Decision.Actuate {
		if err := r.client.Publish(ctx, r.ActuationChannel(vehicleID), data).Err(); err != nil {
			return errors.Wrapf(err, "unable to publish actuation for %s", vehicleID)
		}
	}
	return nil
}
