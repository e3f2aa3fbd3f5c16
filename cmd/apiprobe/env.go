package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kbukum/apiguard/apiclient"
	"github.com/kbukum/apiguard/config"
	"github.com/kbukum/apiguard/credential"
	"github.com/kbukum/apiguard/logger"
	"github.com/kbukum/apiguard/observability"
)

// Env carries the dependencies of every command so tests can swap them.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer

	ConfigFile string
	EnvFile    string
	BaseURL    string

	// Transport, when set, replaces the HTTP transport of the client.
	Transport apiclient.Transport
	// Store, when set, replaces the configured credential backend.
	Store credential.Store
}

func defaultEnv() *Env {
	return &Env{Stdout: os.Stdout, Stderr: os.Stderr}
}

// probeConfig is the file/env configuration of apiprobe.
type probeConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
}

func (e *Env) loadConfig() (*probeConfig, error) {
	var opts []config.LoaderOption
	if e.ConfigFile != "" {
		opts = append(opts, config.WithConfigFile(e.ConfigFile))
	}
	if e.EnvFile != "" {
		opts = append(opts, config.WithEnvFile(e.EnvFile))
	}

	var cfg probeConfig
	if err := config.LoadConfig("apiprobe", &cfg, opts...); err != nil {
		return nil, err
	}
	if e.BaseURL != "" {
		cfg.Client.BaseURL = e.BaseURL
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// session is everything a command needs to talk to the API.
type session struct {
	cfg    *probeConfig
	log    *logger.Logger
	store  credential.Store
	client *apiclient.Client
	close  func(context.Context)
}

func (e *Env) open(ctx context.Context) (*session, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, e.Stderr)
	logger.SetGlobalLogger(log)

	s := &session{cfg: cfg, log: log, store: e.Store}
	var closers []func(context.Context)

	if s.store == nil {
		s.store, err = credential.Open(ctx, cfg.Client.Credential, log)
		if err != nil {
			return nil, fmt.Errorf("opening credential store: %w", err)
		}
		if c, ok := s.store.(io.Closer); ok {
			closers = append(closers, func(context.Context) { _ = c.Close() })
		}
	}

	opts := []apiclient.Option{apiclient.WithStore(s.store), apiclient.WithLogger(log)}
	if e.Transport != nil {
		opts = append(opts, apiclient.WithTransport(e.Transport))
	}
	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Tracing)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func(ctx context.Context) { _ = tp.Shutdown(ctx) })
		opts = append(opts, apiclient.WithTracer(tp.Tracer(observability.TracerName)))

		mcfg := observability.DefaultMeterConfig(cfg.Name)
		mcfg.ServiceVersion = cfg.Tracing.ServiceVersion
		mcfg.Environment = cfg.Environment
		mcfg.Endpoint = cfg.Tracing.Endpoint
		mcfg.Insecure = cfg.Tracing.Insecure
		mp, err := observability.InitMeter(ctx, &mcfg)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func(ctx context.Context) { _ = mp.Shutdown(ctx) })
		metrics, err := observability.NewClientMetrics(mp.Meter(observability.TracerName))
		if err != nil {
			return nil, err
		}
		opts = append(opts, apiclient.WithMetrics(metrics))
	}

	s.client, err = apiclient.New(cfg.Client, opts...)
	if err != nil {
		return nil, err
	}
	closers = append(closers, func(ctx context.Context) { _ = s.client.Flush(ctx) })

	s.close = func(ctx context.Context) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](ctx)
		}
	}
	return s, nil
}
