// Command acpd runs an ACP accessory server.
//
// The server persists controller pairings, serves the pairing-management
// endpoint and advertises itself over mDNS. Its status flag follows the
// pairing store: the accessory advertises as available for setup until an
// admin controller is paired.
//
// Usage:
//
//	acpd [flags]
//
// Flags:
//
//	-config string   Configuration file path (YAML)
//	-port int        Listen port (overrides config)
//	-pin string      8-digit setup code (overrides config)
//	-storage string  Pairing store file path (overrides config)
//	-name string     Accessory name (overrides config)
//	-log string      Protocol log file path (CBOR stream)
//	-verbose         Log protocol events to stderr
//
// Examples:
//
//	# Start with a config file
//	acpd -config /etc/acp/accessory.yaml
//
//	# Start with flags only
//	acpd -pin 31147529 -port 8473 -storage /var/lib/acp/state.cbor
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acp-protocol/acp-go/pkg/config"
	"github.com/acp-protocol/acp-go/pkg/discovery"
	"github.com/acp-protocol/acp-go/pkg/event"
	"github.com/acp-protocol/acp-go/pkg/log"
	"github.com/acp-protocol/acp-go/pkg/pairing"
	"github.com/acp-protocol/acp-go/pkg/service"
	"github.com/acp-protocol/acp-go/pkg/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "acpd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "configuration file path (YAML)")
		port       = flag.Int("port", 0, "listen port (overrides config)")
		pin        = flag.String("pin", "", "8-digit setup code (overrides config)")
		storage    = flag.String("storage", "", "pairing store file path (overrides config)")
		name       = flag.String("name", "", "accessory name (overrides config)")
		logPath    = flag.String("log", "", "protocol log file path (CBOR stream)")
		verbose    = flag.Bool("verbose", false, "log protocol events to stderr")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath, *port, *pin, *storage, *name, *logPath)
	if err != nil {
		return err
	}

	logger, closeLogger, err := buildLogger(cfg.LogPath, *verbose)
	if err != nil {
		return err
	}
	defer closeLogger()

	store, err := pairing.NewFileStore(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("failed to open pairing store: %w", err)
	}

	identity, err := loadOrCreateIdentity(cfg.StoragePath + ".key")
	if err != nil {
		return err
	}

	emitter := event.NewEmitter()
	pairings := service.NewPairings(store, emitter, cfg)
	pairings.SetLogger(logger)

	server, err := transport.NewServer(transport.ServerConfig{
		Address:  fmt.Sprintf(":%d", cfg.Port),
		Pairings: pairings,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return err
	}
	slog.Info("accessory server listening", "addr", server.Addr())

	advertiser := discovery.NewAdvertiser(discovery.AccessoryInfo{
		Name:         cfg.Name,
		DeviceID:     identity.deviceID(),
		Model:        cfg.Model,
		Port:         cfg.Port,
		Category:     2,
		ConfigNumber: 1,
		StateNumber:  1,
	}, discovery.DefaultAdvertiserConfig())

	advertiser.BindEvents(emitter, store)
	if err := advertiser.Advertise(); err != nil {
		slog.Warn("mDNS advertisement failed", "err", err)
	} else {
		slog.Info("advertising service", "name", cfg.Name, "type", discovery.ServiceType)
	}
	defer advertiser.Stop()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}

// loadConfig loads the YAML configuration and applies flag overrides.
func loadConfig(path string, port int, pin, storage, name, logPath string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = &config.Config{
			Name:        config.DefaultName,
			Model:       config.DefaultModel,
			Port:        config.DefaultPort,
			StoragePath: config.DefaultStoragePath,
		}
	}

	if port != 0 {
		cfg.Port = port
	}
	if pin != "" {
		cfg.Pin = pin
	}
	if storage != "" {
		cfg.StoragePath = storage
	}
	if name != "" {
		cfg.Name = name
	}
	if logPath != "" {
		cfg.LogPath = logPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildLogger assembles the protocol logger from the configured sinks.
func buildLogger(logPath string, verbose bool) (log.Logger, func(), error) {
	var loggers []log.Logger
	closeLogger := func() {}

	if logPath != "" {
		fl, err := log.NewFileLogger(logPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open protocol log: %w", err)
		}
		loggers = append(loggers, fl)
		closeLogger = func() { _ = fl.Close() }
	}
	if verbose {
		loggers = append(loggers, log.NewSlogAdapter(slog.Default()))
	}

	if len(loggers) == 0 {
		return log.NoopLogger{}, closeLogger, nil
	}
	return log.NewMultiLogger(loggers...), closeLogger, nil
}
