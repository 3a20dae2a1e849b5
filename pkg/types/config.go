// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "story-crew/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// LLMConfig holds settings for the executor that turns task prompts into text.
type LLMConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL is the Messages API endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// MaxTokens bounds each model response (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// MaxRetries is the number of retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxToolTurns caps tool-use round trips within one task (default 8).
	MaxToolTurns int `json:"max_tool_turns" yaml:"max_tool_turns" mapstructure:"max_tool_turns"`
}

// OutputConfig controls where pipeline artifacts are written.
type OutputConfig struct {
	// Dir is the directory for story_draft.md and story_final.md (default ".").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// MonitorConfig gates the optional monitoring plugin. Both fields come from
// AGENT_MONITOR_ENABLED and AGENT_MONITOR_URL.
type MonitorConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"-"`
	URL     string `json:"url" yaml:"url" mapstructure:"-"`
}

// CalibrationConfig holds settings for the train and test modes.
type CalibrationConfig struct {
	// DBPath is the SQLite database recording training examples and test scores.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// TrainingFile is the JSON export written after training (default training_data.json).
	TrainingFile string `json:"training_file" yaml:"training_file" mapstructure:"training_file"`

	// Iterations is the number of pipeline runs per train or test invocation (default 1).
	Iterations int `json:"iterations" yaml:"iterations" mapstructure:"iterations"`
}

// Config groups all settings for the story-crew CLI.
type Config struct {
	// CrewDir optionally points at a directory holding agents.yaml and
	// tasks.yaml. Empty means the embedded defaults.
	CrewDir     string            `json:"crew_dir" yaml:"crew_dir" mapstructure:"crew_dir"`
	LLM         LLMConfig         `json:"llm" yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `json:"output" yaml:"output" mapstructure:"output"`
	Monitor     MonitorConfig     `json:"monitor" yaml:"monitor" mapstructure:"monitor"`
	Calibration CalibrationConfig `json:"calibration" yaml:"calibration" mapstructure:"calibration"`
}
