package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jd3nn1s/fognode"
	"github.com/jd3nn1s/fognode/bridge"
	"github.com/jd3nn1s/fognode/cloud"
	"github.com/jd3nn1s/fognode/config"
	"github.com/jd3nn1s/fognode/forwarder"
	"github.com/jd3nn1s/fognode/metrics"
	"github.com/jd3nn1s/fognode/status"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var configFile = flag.String("config", "fognode.toml", "configuration file (.toml or .yaml)")
var testMode = flag.Bool("testmode", false, "generate test data instead of reading the bridge")
var printTelemetry = flag.Bool("print-telemetry", false, "print each assessment to stdout")

// printer writes every forwarded status to stdout
type printer struct{}

func (printer) Name() string {
	return "stdout"
}

func (printer) Forward(st *fognode.Status) error {
	fmt.Printf("%+v %+v %+v\n", *st.Summary, *st.Assessment, st.Decision)
	return nil
}

type retryableForwarder interface {
	fognode.Forwarder
	fognode.Retryable
}

func main() {
	log.SetLevel(log.InfoLevel)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal("unable to load configuration: ", err)
	}
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nodeCfg := cfg.NodeConfig()
	m := metrics.New(prometheus.DefaultRegisterer)

	br := bridge.New(nodeCfg.BridgeHost, nodeCfg.SensorTimeout, nodeCfg.ActuatorTimeout)
	var source fognode.SampleSource = br
	if *testMode {
		log.Info("test mode: generating synthetic samples")
		source = fognode.NewTestSource(cfg.Node.DeviceID, cfg.Node.VehicleID)
	}
	dispatcher := fognode.NewDispatcher(br, cloud.New(nodeCfg.CloudIngestURL, nodeCfg.CloudTimeout), m)

	node, err := fognode.NewNode(nodeCfg, source, dispatcher, m)
	if err != nil {
		log.Fatal("unable to create fog node: ", err)
	}

	var fwders []retryableForwarder
	if c, ok := cfg.UDPConfig(); ok {
		fwders = append(fwders, forwarder.NewUDPForwarder(c))
	}
	if c, ok := cfg.RedisConfig(); ok {
		fwders = append(fwders, forwarder.NewRedisForwarder(c))
	}
	if c, ok := cfg.MQTTConfig(); ok {
		fwders = append(fwders, forwarder.NewMQTTForwarder(c))
	}
	for _, f := range fwders {
		node.AddForwarder(f)
		go func(f retryableForwarder) {
			if err := fognode.Retry(ctx, f); err != nil && err != context.Canceled {
				log.Errorf("%s done: %v", f.Name(), err)
			}
		}(f)
	}
	if *printTelemetry {
		node.AddForwarder(printer{})
	}

	handle := node.Start(ctx)

	srv := status.NewServer(cfg.Status.Addr, node, handle, prometheus.DefaultGatherer)
	go func() {
		if err := srv.Start(); err != nil {
			log.WithField("err", err).Error("status server failed")
		}
	}()

	<-handle.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithField("err", err).Warn("unable to shut down status server")
	}

	if err := handle.Err(); err != nil {
		log.Error("fog node failed: ", err)
		os.Exit(1)
	}
	log.Info("fog node stopped")
}
