// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crew runs an ordered list of role-bound tasks for one input record,
// passing each task's output to the tasks after it.
package crew

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/story-crew/internal/tools"
	"github.com/pdiddy/story-crew/pkg/types"
)

// Executor turns a rendered task prompt into the role's output. Model access,
// tool calling and any provider-level retries live behind this interface.
type Executor interface {
	Execute(ctx context.Context, req Request) (string, error)
}

// Request is everything an Executor needs for one task.
type Request struct {
	Role   types.Role
	Task   types.Task
	Prompt string
	Tools  []tools.Tool
}

// Crew executes a Definition. It is safe to Kickoff repeatedly but not
// concurrently: output files are shared between runs.
type Crew struct {
	def       *Definition
	executor  Executor
	registry  *tools.Registry
	observer  Observer
	logger    *zap.Logger
	outputDir string
	now       func() time.Time
}

// Option configures a Crew.
type Option func(*Crew)

// WithObserver registers o for lifecycle events. A nil observer is ignored.
func WithObserver(o Observer) Option {
	return func(c *Crew) { c.observer = o }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Crew) { c.logger = l }
}

// WithOutputDir sets the directory task output files are written to.
func WithOutputDir(dir string) Option {
	return func(c *Crew) { c.outputDir = dir }
}

// New returns a Crew for def. Every role's tools must be registered.
func New(def *Definition, executor Executor, registry *tools.Registry, opts ...Option) (*Crew, error) {
	if executor == nil {
		return nil, errors.New("crew: nil executor")
	}
	if registry == nil {
		registry = tools.Default()
	}
	for id, role := range def.Roles {
		if _, err := registry.Resolve(role.Tools); err != nil {
			return nil, fmt.Errorf("role %s: %w", id, err)
		}
	}

	c := &Crew{
		def:       def,
		executor:  executor,
		registry:  registry,
		logger:    zap.NewNop(),
		outputDir: ".",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Kickoff runs every task in order for inputs. Each task sees the inputs and
// the outputs of all tasks before it. The first failing task aborts the run
// and its error is returned; output files already written are left in place.
func (c *Crew) Kickoff(ctx context.Context, inputs map[string]string) (*types.RunResult, error) {
	res := &types.RunResult{
		RunID:     uuid.NewString(),
		Inputs:    maps.Clone(inputs),
		StartedAt: c.now(),
	}
	log := c.logger.With(zap.String("run_id", res.RunID))
	log.Info("crew run started", zap.Any("inputs", inputs))
	c.notify(ctx, Event{Type: EventRunStarted, RunID: res.RunID, Inputs: res.Inputs})

	data := make(map[string]any, len(inputs)+len(c.def.Tasks))
	for k, v := range inputs {
		data[k] = v
	}

	for _, task := range c.def.Tasks {
		out, err := c.runTask(ctx, log, res.RunID, task, data, res.Tasks)
		if err != nil {
			err = fmt.Errorf("task %s: %w", task.ID, err)
			log.Error("crew run failed", zap.String("task", task.ID), zap.Error(err))
			c.notify(ctx, Event{Type: EventRunFailed, RunID: res.RunID, TaskID: task.ID, Error: err.Error()})
			return nil, err
		}
		res.Tasks = append(res.Tasks, out)
		data[task.ID] = out.Raw
	}

	res.Raw = res.Tasks[len(res.Tasks)-1].Raw
	res.FinishedAt = c.now()
	log.Info("crew run completed", zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))
	c.notify(ctx, Event{Type: EventRunCompleted, RunID: res.RunID, Output: res.Raw})
	return res, nil
}

// KickoffForEach runs Kickoff for each input record in order. A failed
// record does not stop the others: its slot in the result is nil and its
// error is joined into the returned error.
func (c *Crew) KickoffForEach(ctx context.Context, inputs []map[string]string) ([]*types.RunResult, error) {
	results := make([]*types.RunResult, len(inputs))
	var errs []error
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("input %d: %w", i, err))
			continue
		}
		res, err := c.Kickoff(ctx, in)
		if err != nil {
			errs = append(errs, fmt.Errorf("input %d: %w", i, err))
			continue
		}
		results[i] = res
	}
	return results, errors.Join(errs...)
}

func (c *Crew) runTask(ctx context.Context, log *zap.Logger, runID string, task types.Task, data map[string]any, prior []types.TaskOutput) (types.TaskOutput, error) {
	if err := ctx.Err(); err != nil {
		return types.TaskOutput{}, err
	}

	role, err := renderRole(c.def.Roles[task.Agent], data)
	if err != nil {
		return types.TaskOutput{}, err
	}
	prompt, err := renderPrompt(task, data, prior)
	if err != nil {
		return types.TaskOutput{}, err
	}
	toolset, err := c.registry.Resolve(role.Tools)
	if err != nil {
		return types.TaskOutput{}, err
	}

	log = log.With(zap.String("task", task.ID), zap.String("agent", task.Agent))
	log.Info("task started")
	if role.Verbose {
		log.Debug("task prompt", zap.String("prompt", prompt))
	}
	c.notify(ctx, Event{Type: EventTaskStarted, RunID: runID, TaskID: task.ID, Agent: task.Agent})

	raw, err := c.executor.Execute(ctx, Request{Role: role, Task: task, Prompt: prompt, Tools: toolset})
	if err != nil {
		c.notify(ctx, Event{Type: EventTaskFailed, RunID: runID, TaskID: task.ID, Agent: task.Agent, Error: err.Error()})
		return types.TaskOutput{}, err
	}

	out := types.TaskOutput{TaskID: task.ID, Agent: task.Agent, Prompt: prompt, Raw: raw}
	if task.OutputFile != "" {
		path := filepath.Join(c.outputDir, task.OutputFile)
		if err := writeOutput(path, raw); err != nil {
			c.notify(ctx, Event{Type: EventTaskFailed, RunID: runID, TaskID: task.ID, Agent: task.Agent, Error: err.Error()})
			return types.TaskOutput{}, err
		}
		out.OutputFile = path
		log.Info("task output written", zap.String("path", path))
	}

	log.Info("task completed", zap.Int("output_chars", len([]rune(raw))))
	c.notify(ctx, Event{Type: EventTaskCompleted, RunID: runID, TaskID: task.ID, Agent: task.Agent, Output: raw})
	return out, nil
}

func writeOutput(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (c *Crew) notify(ctx context.Context, ev Event) {
	if c.observer == nil {
		return
	}
	ev.Time = c.now()
	c.observer.Notify(ctx, ev)
}
