// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/story-crew/internal/crew"
	"github.com/pdiddy/story-crew/internal/httputil"
	"github.com/pdiddy/story-crew/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	goleak.VerifyTestMain(m)
}

// collector is a fake monitoring service.
type collector struct {
	mu     sync.Mutex
	types  []string
	status int
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != eventsPath {
		http.NotFound(w, r)
		return
	}
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != 0 {
		w.WriteHeader(c.status)
		return
	}
	c.types = append(c.types, body["type"].(string))
}

func (c *collector) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.types...)
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

// countingFactory records whether it was called.
func countingFactory(calls *int, p Plugin, err error) Factory {
	return func(string) (Plugin, error) {
		*calls++
		return p, err
	}
}

func TestSetupDisabled(t *testing.T) {
	logger, logs := observedLogger()
	calls := 0

	p := Setup(context.Background(), types.MonitorConfig{URL: "http://localhost:1"}, countingFactory(&calls, nil, nil), logger)
	assert.Nil(t, p)
	assert.Zero(t, calls, "disabled monitoring must not construct a plugin")
	assert.Equal(t, 1, logs.FilterMessage("monitoring not enabled").Len())
}

func TestSetupUnavailable(t *testing.T) {
	logger, logs := observedLogger()
	p := Setup(context.Background(), types.MonitorConfig{Enabled: true, URL: "http://x"}, nil, logger)
	assert.Nil(t, p)
	assert.Equal(t, 1, logs.FilterMessage("monitor plugin not available, monitoring disabled").Len())
}

func TestSetupMissingURL(t *testing.T) {
	logger, logs := observedLogger()
	calls := 0

	p := Setup(context.Background(), types.MonitorConfig{Enabled: true}, countingFactory(&calls, nil, nil), logger)
	assert.Nil(t, p)
	assert.Zero(t, calls)
	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warn, 1)
	assert.Equal(t, EnvURL, warn[0].ContextMap()["env"])
}

func TestSetupFactoryError(t *testing.T) {
	logger, logs := observedLogger()
	calls := 0

	p := Setup(context.Background(), types.MonitorConfig{Enabled: true, URL: "http://x"}, countingFactory(&calls, nil, errors.New("boom")), logger)
	assert.Nil(t, p)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestSetupInstallFailure(t *testing.T) {
	svc := &collector{status: http.StatusServiceUnavailable}
	ts := httptest.NewServer(svc)
	defer ts.Close()

	logger, logs := observedLogger()
	client := &httputil.Client{HTTP: ts.Client(), MaxRetries: 1}
	p := Setup(context.Background(), types.MonitorConfig{Enabled: true, URL: ts.URL}, HTTPFactory(client, logger), logger)
	assert.Nil(t, p)
	assert.Equal(t, 1, logs.FilterMessage("installing monitor plugin").Len())
}

func TestHTTPPluginForwardsEvents(t *testing.T) {
	svc := &collector{}
	ts := httptest.NewServer(svc)
	defer ts.Close()

	client := &httputil.Client{HTTP: ts.Client(), MaxRetries: 1}
	p := Setup(context.Background(), types.MonitorConfig{Enabled: true, URL: ts.URL + "/"}, HTTPFactory(client, nil), nil)
	require.NotNil(t, p)

	p.Notify(context.Background(), crew.Event{Type: crew.EventRunStarted, RunID: "r1"})
	p.Notify(context.Background(), crew.Event{Type: crew.EventTaskCompleted, RunID: "r1", TaskID: "outline_task"})

	assert.Equal(t, []string{"install", "run_started", "task_completed"}, svc.received())
}

func TestHTTPPluginNotifyFailureIsLogged(t *testing.T) {
	svc := &collector{}
	ts := httptest.NewServer(svc)
	defer ts.Close()

	logger, logs := observedLogger()
	p, err := NewHTTPPlugin(ts.URL, &httputil.Client{HTTP: ts.Client(), MaxRetries: 1}, logger)
	require.NoError(t, err)
	require.NoError(t, p.Install(context.Background()))

	svc.mu.Lock()
	svc.status = http.StatusInternalServerError
	svc.mu.Unlock()

	assert.NotPanics(t, func() {
		p.Notify(context.Background(), crew.Event{Type: crew.EventRunFailed, RunID: "r2"})
	})
	assert.Equal(t, 1, logs.FilterMessage("sending monitor event").Len())

	svc.mu.Lock()
	svc.status = 0
	svc.mu.Unlock()
	p.Notify(context.Background(), crew.Event{Type: crew.EventRunStarted, RunID: "r3"})
	assert.Equal(t, []string{"install"}, svc.received(), "events after a failure are dropped")
	assert.Equal(t, 1, logs.FilterMessage("sending monitor event").Len())
}

func TestHTTPPluginHungMonitorCostsOneTimeout(t *testing.T) {
	orig := notifyTimeout
	notifyTimeout = 50 * time.Millisecond
	t.Cleanup(func() { notifyTimeout = orig })

	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["type"] == "install" {
			return
		}
		<-release
	}))
	defer ts.Close()
	defer close(release)

	logger, logs := observedLogger()
	p, err := NewHTTPPlugin(ts.URL, &httputil.Client{HTTP: ts.Client(), MaxRetries: 1}, logger)
	require.NoError(t, err)
	require.NoError(t, p.Install(context.Background()))

	start := time.Now()
	for _, typ := range []crew.EventType{crew.EventRunStarted, crew.EventTaskStarted, crew.EventTaskCompleted, crew.EventRunCompleted} {
		p.Notify(context.Background(), crew.Event{Type: typ, RunID: "r1"})
	}
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 3*notifyTimeout)
	assert.Equal(t, 1, logs.FilterMessage("sending monitor event").Len())
}

func TestHTTPPluginNotInstalledSendsNothing(t *testing.T) {
	svc := &collector{}
	ts := httptest.NewServer(svc)
	defer ts.Close()

	p, err := NewHTTPPlugin(ts.URL, &httputil.Client{HTTP: ts.Client()}, nil)
	require.NoError(t, err)
	p.Notify(context.Background(), crew.Event{Type: crew.EventRunStarted})
	assert.Empty(t, svc.received())
}

func TestNewHTTPPluginRejectsBadURL(t *testing.T) {
	for _, u := range []string{"localhost:8080", "ftp://host", "http://", "://bad"} {
		_, err := NewHTTPPlugin(u, nil, nil)
		assert.Error(t, err, u)
	}
}
