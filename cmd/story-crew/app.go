// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/story-crew/internal/crew"
	"github.com/pdiddy/story-crew/internal/httputil"
	"github.com/pdiddy/story-crew/internal/llm"
	"github.com/pdiddy/story-crew/internal/monitor"
	"github.com/pdiddy/story-crew/internal/secrets"
	"github.com/pdiddy/story-crew/internal/tools"
	"github.com/pdiddy/story-crew/pkg/types"
)

const (
	envPrefix      = "STORY_CREW"
	secretsDir     = ".secrets/"
	monitorTimeout = 10 * time.Second
)

// app carries the state shared by every command.
type app struct {
	cfg     types.Config
	logger  *zap.Logger
	secrets map[string]string
}

var cli = &app{logger: zap.NewNop()}

// setDefaults registers config defaults and environment bindings on v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.base_url", llm.DefaultBaseURL)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.max_retries", 5)
	v.SetDefault("llm.max_tool_turns", 8)
	v.SetDefault("llm.timeout", 5*time.Minute)
	v.SetDefault("llm.user_agent", "story-crew/"+version)
	v.SetDefault("output.dir", ".")
	v.SetDefault("calibration.db_path", "calibration.db")
	v.SetDefault("calibration.training_file", "training_data.json")
	v.SetDefault("calibration.iterations", 1)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm.api_key")
	_ = v.BindEnv("monitor.enabled", monitor.EnvEnabled)
	_ = v.BindEnv("monitor.url", monitor.EnvURL)
}

// loadConfig decodes v into a Config. The monitor switch is read as a
// string so any truthy value enables it.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Monitor.Enabled = truthy(v.GetString("monitor.enabled"))
	cfg.Monitor.URL = v.GetString("monitor.url")
	return cfg, nil
}

// truthy reports whether s enables a switch: any value except empty, 0,
// false, no and off.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func (a *app) init(cmd *cobra.Command, v *viper.Viper) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	s, err := secrets.Load(secretsDir, logger)
	if err != nil {
		return err
	}
	a.secrets = s
	a.cfg.LLM.APIKey = secrets.Resolve(s, secrets.AnthropicAPIKey, a.cfg.LLM.APIKey)
	return nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// definition loads the crew configuration from CrewDir or the built-in defaults.
func (a *app) definition() (*crew.Definition, error) {
	var fsys fs.FS = crew.Defaults()
	if a.cfg.CrewDir != "" {
		fsys = os.DirFS(a.cfg.CrewDir)
	}
	return crew.LoadDefinition(fsys)
}

// executor returns the Messages API executor.
func (a *app) executor() (crew.Executor, error) {
	if a.cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key not set: write it to %s%s or set %s_LLM_API_KEY",
			secretsDir, secrets.AnthropicAPIKey, envPrefix)
	}
	client := &httputil.Client{
		HTTP:       &http.Client{Timeout: a.cfg.LLM.Timeout},
		MaxRetries: a.cfg.LLM.MaxRetries,
		UserAgent:  a.cfg.LLM.UserAgent,
		Logger:     a.logger,
	}
	return llm.NewClaude(a.cfg.LLM, client, a.logger), nil
}

// newCrew builds the crew, installing the monitor plugin first when enabled.
func (a *app) newCrew(ctx context.Context) (*crew.Crew, crew.Executor, error) {
	def, err := a.definition()
	if err != nil {
		return nil, nil, err
	}
	exec, err := a.executor()
	if err != nil {
		return nil, nil, err
	}

	monitorClient := &httputil.Client{
		HTTP:       &http.Client{Timeout: monitorTimeout},
		MaxRetries: 1,
		UserAgent:  a.cfg.LLM.UserAgent,
		Logger:     a.logger,
	}
	opts := []crew.Option{
		crew.WithLogger(a.logger),
		crew.WithOutputDir(a.cfg.Output.Dir),
	}
	if p := monitor.Setup(ctx, a.cfg.Monitor, monitor.HTTPFactory(monitorClient, a.logger), a.logger); p != nil {
		opts = append(opts, crew.WithObserver(p))
	}

	c, err := crew.New(def, exec, tools.Default(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, exec, nil
}
