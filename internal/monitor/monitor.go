// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package monitor forwards crew lifecycle events to an external monitoring
// endpoint. Monitoring is optional: every failure here is logged and
// swallowed so a run never depends on it.
package monitor

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/story-crew/internal/crew"
	"github.com/pdiddy/story-crew/internal/httputil"
	"github.com/pdiddy/story-crew/pkg/types"
)

// Environment variables that gate monitoring.
const (
	EnvEnabled = "AGENT_MONITOR_ENABLED"
	EnvURL     = "AGENT_MONITOR_URL"
)

const (
	eventsPath = "/api/events"
	framework  = "story-crew"
)

// notifyTimeout bounds each event delivery. Tests shorten it.
var notifyTimeout = 2 * time.Second

// Plugin is a monitoring collaborator: it is installed once before the run
// and then observes lifecycle events.
type Plugin interface {
	crew.Observer
	Install(ctx context.Context) error
}

// Factory constructs a plugin bound to an endpoint. A nil Factory means no
// monitoring implementation is available.
type Factory func(endpoint string) (Plugin, error)

// Setup returns an installed plugin, or nil when monitoring is disabled,
// unconfigured, unavailable or fails to install.
func Setup(ctx context.Context, cfg types.MonitorConfig, factory Factory, logger *zap.Logger) Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if factory == nil {
		logger.Info("monitor plugin not available, monitoring disabled")
		return nil
	}
	if !cfg.Enabled {
		logger.Info("monitoring not enabled", zap.String("hint", "set "+EnvEnabled+"=true to enable"))
		return nil
	}
	if cfg.URL == "" {
		logger.Warn("monitoring enabled but endpoint not set, monitoring disabled", zap.String("env", EnvURL))
		return nil
	}

	p, err := factory(cfg.URL)
	if err != nil {
		logger.Error("creating monitor plugin", zap.String("url", cfg.URL), zap.Error(err))
		return nil
	}
	if err := p.Install(ctx); err != nil {
		logger.Error("installing monitor plugin", zap.String("url", cfg.URL), zap.Error(err))
		return nil
	}
	logger.Info("monitoring enabled", zap.String("url", cfg.URL))
	return p
}

// HTTPPlugin posts events as JSON to <endpoint>/api/events.
type HTTPPlugin struct {
	endpoint  string
	client    *httputil.Client
	logger    *zap.Logger
	installed atomic.Bool
}

// HTTPFactory returns a Factory producing HTTPPlugins that share client.
func HTTPFactory(client *httputil.Client, logger *zap.Logger) Factory {
	return func(endpoint string) (Plugin, error) {
		return NewHTTPPlugin(endpoint, client, logger)
	}
}

// NewHTTPPlugin validates endpoint and returns an uninstalled plugin.
func NewHTTPPlugin(endpoint string, client *httputil.Client, logger *zap.Logger) (*HTTPPlugin, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing monitor URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("monitor URL %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("monitor URL %q: missing host", endpoint)
	}
	if client == nil {
		client = &httputil.Client{MaxRetries: 1}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPPlugin{
		endpoint: strings.TrimRight(endpoint, "/") + eventsPath,
		client:   client,
		logger:   logger,
	}, nil
}

// installEvent announces the plugin to the monitoring service.
type installEvent struct {
	Type      string    `json:"type"`
	Framework string    `json:"framework"`
	Time      time.Time `json:"time"`
}

// Install registers with the monitoring service. Events are only sent after
// a successful install.
func (p *HTTPPlugin) Install(ctx context.Context) error {
	ev := installEvent{Type: "install", Framework: framework, Time: time.Now()}
	if err := p.client.PostJSON(ctx, p.endpoint, nil, ev, nil); err != nil {
		return fmt.Errorf("registering with %s: %w", p.endpoint, err)
	}
	p.installed.Store(true)
	return nil
}

// Notify sends ev. The first delivery failure is logged at warn level and
// stops all further events, so an unreachable monitor delays a run by at
// most one timeout.
func (p *HTTPPlugin) Notify(ctx context.Context, ev crew.Event) {
	if !p.installed.Load() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := p.client.PostJSON(ctx, p.endpoint, nil, ev, nil); err != nil {
		p.installed.Store(false)
		p.logger.Warn("sending monitor event",
			zap.String("type", string(ev.Type)),
			zap.String("run_id", ev.RunID),
			zap.Bool("monitoring_stopped", true),
			zap.Error(err))
	}
}
