// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Role is a named persona bound to one or more tasks. The text fields come
// from agents.yaml; Tools and AllowDelegation come from code-side overrides.
type Role struct {
	// ID is the configuration key (e.g. "story_ideator").
	ID string `json:"id" yaml:"-"`

	// Role is the persona title shown to the model.
	Role string `json:"role" yaml:"role"`

	// Goal describes what the role is trying to achieve.
	Goal string `json:"goal" yaml:"goal"`

	// Backstory gives the model additional persona context.
	Backstory string `json:"backstory" yaml:"backstory"`

	// Tools lists the tool names the role may call.
	Tools []string `json:"tools,omitempty" yaml:"-"`

	// AllowDelegation reports whether the role may hand work to other roles.
	AllowDelegation bool `json:"allow_delegation" yaml:"-"`

	// Verbose enables debug logging of the role's prompts and outputs.
	Verbose bool `json:"verbose" yaml:"-"`
}

// Task is one unit of work in the pipeline, assigned to exactly one role.
// Description and ExpectedOutput are text/template sources rendered against
// the run inputs and prior task outputs.
type Task struct {
	// ID is the configuration key (e.g. "outline_task").
	ID string `json:"id" yaml:"-"`

	Description    string `json:"description" yaml:"description"`
	ExpectedOutput string `json:"expected_output" yaml:"expected_output"`

	// Agent is the ID of the role that executes the task.
	Agent string `json:"agent" yaml:"agent"`

	// OutputFile, when set, receives the task's raw output after it succeeds.
	OutputFile string `json:"output_file,omitempty" yaml:"-"`
}

// TaskOutput is the result of one executed task.
type TaskOutput struct {
	TaskID     string `json:"task_id" yaml:"task_id"`
	Agent      string `json:"agent" yaml:"agent"`
	Prompt     string `json:"prompt" yaml:"prompt"`
	Raw        string `json:"raw" yaml:"raw"`
	OutputFile string `json:"output_file,omitempty" yaml:"output_file,omitempty"`
}

// RunResult is one end-to-end pipeline run for a single input record.
type RunResult struct {
	RunID      string            `json:"run_id" yaml:"run_id"`
	Inputs     map[string]string `json:"inputs" yaml:"inputs"`
	Tasks      []TaskOutput      `json:"tasks" yaml:"tasks"`
	StartedAt  time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time         `json:"finished_at" yaml:"finished_at"`

	// Raw is the final task's output.
	Raw string `json:"raw" yaml:"raw"`
}

// Output returns the output of the named task, if it ran.
func (r *RunResult) Output(taskID string) (TaskOutput, bool) {
	for _, t := range r.Tasks {
		if t.TaskID == taskID {
			return t, true
		}
	}
	return TaskOutput{}, false
}

// TrainingExample is one recorded task output from a training run.
type TrainingExample struct {
	Iteration    int       `json:"iteration"`
	RunID        string    `json:"run_id"`
	TaskID       string    `json:"task_id"`
	Agent        string    `json:"agent"`
	Output       string    `json:"output"`
	TrainingData string    `json:"training_data"`
	CreatedAt    time.Time `json:"created_at"`
}

// TaskScore is the evaluation score of one task output in a test run.
type TaskScore struct {
	Iteration int     `json:"iteration"`
	RunID     string  `json:"run_id"`
	TaskID    string  `json:"task_id"`
	Score     float64 `json:"score"`
}
