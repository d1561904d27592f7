// Command discoveryd is a reference process wiring the graph cache and
// gossip discovery transport together: it hosts
// one participant's Context, joins the discovery mesh, and serves
// Prometheus metrics and health checks. It exists to exercise this
// module's components end to end, the way storage-node/cmd/storage
// exercises the storage engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Postrantor/rmw-dds-common-go/internal/config"
	"github.com/Postrantor/rmw-dds-common-go/internal/contextholder"
	"github.com/Postrantor/rmw-dds-common-go/internal/discovery"
	"github.com/Postrantor/rmw-dds-common-go/internal/metrics"
	"github.com/Postrantor/rmw-dds-common-go/internal/model"
	"github.com/Postrantor/rmw-dds-common-go/internal/server"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	configPath := os.Getenv("DISCOVERYD_CONFIG")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	gid := participantGid()
	logger.Info("participant identity assigned",
		zap.String("gid", gid.ShortString()),
		zap.String("enclave", cfg.Participant.Enclave))

	transport, err := discovery.NewMemberlistTransport(discovery.MemberlistConfig{
		NodeName:       cfg.Discovery.NodeName,
		BindAddr:       cfg.Discovery.BindAddr,
		BindPort:       cfg.Discovery.BindPort,
		SeedNodes:      cfg.Discovery.SeedNodes,
		GossipInterval: cfg.Discovery.GossipInterval,
		ProbeTimeout:   cfg.Discovery.ProbeTimeout,
		ProbeInterval:  cfg.Discovery.ProbeInterval,
	}, logger)
	if err != nil {
		logger.Fatal("failed to start discovery transport", zap.Error(err))
	}

	ctxHolder := contextholder.New(gid, transport, logger)
	ctxHolder.Cache.AddParticipant(gid, cfg.Participant.Enclave)

	runCtx, cancel := context.WithCancel(context.Background())
	ctxHolder.Start(runCtx)

	if err := ctxHolder.PublishLocalChange(runCtx, model.ParticipantEntitiesInfo{Gid: gid}); err != nil {
		logger.Warn("failed to publish initial participant state", zap.Error(err))
	}

	var metricsSrv *server.MetricsServer
	if cfg.Metrics.Enabled {
		m := metrics.New(gid.ShortString())
		metricsSrv = server.New(server.Config{Port: cfg.Metrics.Port, Path: cfg.Metrics.Path}, m, ctxHolder.Cache, logger)
		if err := metricsSrv.Start(); err != nil {
			logger.Fatal("failed to start metrics server", zap.Error(err))
		}
	}

	logger.Info("discoveryd running",
		zap.String("node_name", cfg.Discovery.NodeName),
		zap.Int("discovery_port", cfg.Discovery.BindPort))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down gracefully...")
	cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Stop(); err != nil {
			logger.Error("failed to stop metrics server", zap.Error(err))
		}
	}

	if err := ctxHolder.Close(); err != nil {
		logger.Error("failed to close context", zap.Error(err))
	}
}

// participantGid derives a 24-byte Gid from a fresh UUID. A real DDS
// implementation assigns this from the wire protocol's own participant
// identity; this reference binary has no such middleware underneath it,
// so it mints one locally.
func participantGid() model.Gid {
	id := uuid.New()
	return model.GidFromBytes(id[:])
}

func initLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	return cfg.Build()
}
