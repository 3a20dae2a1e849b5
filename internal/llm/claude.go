// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm implements crew.Executor on the Anthropic Messages API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/story-crew/internal/crew"
	"github.com/pdiddy/story-crew/internal/httputil"
	"github.com/pdiddy/story-crew/internal/tools"
	"github.com/pdiddy/story-crew/pkg/types"
)

// DefaultBaseURL is the Messages API endpoint.
const DefaultBaseURL = "https://api.anthropic.com/v1/messages"

const (
	anthropicVersion    = "2023-06-01"
	defaultMaxTokens    = 4096
	defaultMaxToolTurns = 8
)

// ErrToolLoop is returned when a task keeps calling tools past MaxToolTurns.
var ErrToolLoop = errors.New("tool loop did not finish")

// systemPromptTmpl frames the model as the task's role.
var systemPromptTmpl = template.Must(template.New("system").Funcs(template.FuncMap{"join": strings.Join}).Parse(`You are {{.Role}}. {{.Backstory}}
Your personal goal is: {{.Goal}}
{{- if .Tools}}

You can use these tools when they help: {{join .Tools ", "}}. Call a tool only with the arguments its schema declares.
{{- end}}

Answer in the language of the task. Reply with the final deliverable only.`))

// Claude runs crew tasks against the Messages API, executing any tool calls
// the model makes with the task's tools.
type Claude struct {
	APIKey       string
	Model        string
	BaseURL      string
	MaxTokens    int
	MaxToolTurns int
	Client       *httputil.Client
	Logger       *zap.Logger
}

var _ crew.Executor = (*Claude)(nil)

// NewClaude returns an executor configured from cfg.
func NewClaude(cfg types.LLMConfig, client *httputil.Client, logger *zap.Logger) *Claude {
	return &Claude{
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		BaseURL:      cfg.BaseURL,
		MaxTokens:    cfg.MaxTokens,
		MaxToolTurns: cfg.MaxToolTurns,
		Client:       client,
		Logger:       logger,
	}
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	Tools     []toolDef `json:"tools,omitempty"`
}

type toolDef struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	InputSchema tools.InputSchema `json:"input_schema"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type response struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// Execute sends the task prompt with the role's system prompt and tools,
// runs requested tool calls until the model stops asking for them, and
// returns the final text.
func (c *Claude) Execute(ctx context.Context, req crew.Request) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("anthropic API key not set")
	}

	system, err := renderSystem(req)
	if err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}

	registry := tools.NewRegistry(req.Tools...)
	body := request{
		Model:     c.Model,
		MaxTokens: c.maxTokens(),
		System:    system,
		Messages:  []message{{Role: "user", Content: []contentBlock{{Type: "text", Text: req.Prompt}}}},
	}
	for _, t := range req.Tools {
		spec := t.Specification()
		body.Tools = append(body.Tools, toolDef{Name: spec.Name, Description: spec.Description, InputSchema: spec.Inputs})
	}

	log := c.logger().With(zap.String("task", req.Task.ID), zap.String("agent", req.Role.ID))
	for turn := 0; turn <= c.maxToolTurns(); turn++ {
		resp, err := c.send(ctx, body)
		if err != nil {
			return "", err
		}

		if resp.StopReason != "tool_use" {
			if resp.StopReason == "max_tokens" {
				log.Warn("response truncated at max_tokens", zap.Int("max_tokens", body.MaxTokens))
			}
			text := collectText(resp.Content)
			if text == "" {
				return "", fmt.Errorf("model returned no text (stop_reason %q)", resp.StopReason)
			}
			return text, nil
		}

		results := c.runTools(log, registry, resp.Content)
		body.Messages = append(body.Messages,
			message{Role: "assistant", Content: resp.Content},
			message{Role: "user", Content: results},
		)
	}
	return "", fmt.Errorf("%w after %d turns", ErrToolLoop, c.maxToolTurns())
}

// runTools executes every tool_use block and returns the matching
// tool_result blocks. Tool errors are reported back to the model.
func (c *Claude) runTools(log *zap.Logger, registry *tools.Registry, blocks []contentBlock) []contentBlock {
	var results []contentBlock
	for _, b := range blocks {
		if b.Type != "tool_use" {
			continue
		}
		var input tools.Input
		if len(b.Input) > 0 {
			if err := json.Unmarshal(b.Input, &input); err != nil {
				results = append(results, contentBlock{Type: "tool_result", ToolUseID: b.ID, Content: "invalid tool input: " + err.Error(), IsError: true})
				continue
			}
		}
		out, err := registry.Call(b.Name, input)
		if err != nil {
			log.Warn("tool call failed", zap.String("tool", b.Name), zap.Error(err))
			results = append(results, contentBlock{Type: "tool_result", ToolUseID: b.ID, Content: err.Error(), IsError: true})
			continue
		}
		log.Debug("tool called", zap.String("tool", b.Name))
		results = append(results, contentBlock{Type: "tool_result", ToolUseID: b.ID, Content: out})
	}
	return results
}

func (c *Claude) send(ctx context.Context, body request) (*response, error) {
	client := c.Client
	if client == nil {
		client = &httputil.Client{Logger: c.logger()}
	}
	headers := map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": anthropicVersion,
	}
	var resp response
	if err := client.PostJSON(ctx, c.baseURL(), headers, body, &resp); err != nil {
		return nil, fmt.Errorf("calling Messages API: %w", err)
	}
	return &resp, nil
}

func renderSystem(req crew.Request) (string, error) {
	var names []string
	for _, t := range req.Tools {
		names = append(names, t.Specification().Name)
	}
	var b strings.Builder
	err := systemPromptTmpl.Execute(&b, struct {
		Role, Goal, Backstory string
		Tools                 []string
	}{req.Role.Role, req.Role.Goal, req.Role.Backstory, names})
	return b.String(), err
}

func collectText(blocks []contentBlock) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && strings.TrimSpace(b.Text) != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func (c *Claude) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func (c *Claude) maxTokens() int {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

func (c *Claude) maxToolTurns() int {
	if c.MaxToolTurns <= 0 {
		return defaultMaxToolTurns
	}
	return c.MaxToolTurns
}

func (c *Claude) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
