// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crew

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/story-crew/pkg/types"
)

const (
	agentsFile = "agents.yaml"
	tasksFile  = "tasks.yaml"
)

// Role and task identifiers of the story pipeline.
const (
	RoleIdeator = "story_ideator"
	RoleWriter  = "story_writer"
	RoleEditor  = "story_editor"

	TaskOutline = "outline_task"
	TaskWriting = "writing_task"
	TaskEditing = "editing_task"
)

// Output files written by the writing and editing tasks.
const (
	DraftFile = "story_draft.md"
	FinalFile = "story_final.md"
)

// ErrMissingConfig is returned when an override names a role or task that
// the loaded configuration does not define.
var ErrMissingConfig = errors.New("missing configuration")

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// Defaults returns the embedded agents.yaml and tasks.yaml.
func Defaults() fs.FS {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		panic(err)
	}
	return sub
}

// Config is the natural-language configuration of roles and tasks, keyed by
// identifier.
type Config struct {
	Agents map[string]types.Role
	Tasks  map[string]types.Task
}

// LoadConfig reads agents.yaml and tasks.yaml from fsys.
func LoadConfig(fsys fs.FS) (*Config, error) {
	var cfg Config
	if err := readYAML(fsys, agentsFile, &cfg.Agents); err != nil {
		return nil, err
	}
	if err := readYAML(fsys, tasksFile, &cfg.Tasks); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readYAML(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

// RoleOverride holds the code-side settings merged into a configured role.
type RoleOverride struct {
	ID              string
	Tools           []string
	AllowDelegation bool
	Verbose         bool
}

// TaskOverride holds the code-side settings merged into a configured task.
type TaskOverride struct {
	ID         string
	OutputFile string
}

// Overrides lists the roles and tasks to build. Task order is execution order.
type Overrides struct {
	Roles []RoleOverride
	Tasks []TaskOverride
}

// StoryOverrides is the fixed ideation, writing and editing pipeline.
func StoryOverrides() Overrides {
	return Overrides{
		Roles: []RoleOverride{
			{ID: RoleIdeator, Tools: []string{"writing_prompt_tool"}, Verbose: true},
			{ID: RoleWriter, Tools: []string{"word_count_tool", "style_analysis_tool"}, Verbose: true},
			{ID: RoleEditor, Tools: []string{"word_count_tool", "style_analysis_tool"}, Verbose: true},
		},
		Tasks: []TaskOverride{
			{ID: TaskOutline},
			{ID: TaskWriting, OutputFile: DraftFile},
			{ID: TaskEditing, OutputFile: FinalFile},
		},
	}
}

// Definition is a fully built pipeline: its roles and its ordered tasks.
type Definition struct {
	Roles map[string]types.Role
	Tasks []types.Task
}

// Build merges cfg with ov. Every overridden role and task must be present
// in cfg, every task must name a built role, and every template must parse.
func Build(cfg *Config, ov Overrides) (*Definition, error) {
	if len(ov.Tasks) == 0 {
		return nil, fmt.Errorf("no tasks to build")
	}

	def := &Definition{Roles: make(map[string]types.Role, len(ov.Roles))}

	for _, ro := range ov.Roles {
		role, ok := cfg.Agents[ro.ID]
		if !ok {
			return nil, fmt.Errorf("%w: agent %q not in %s", ErrMissingConfig, ro.ID, agentsFile)
		}
		role.ID = ro.ID
		role.Tools = append([]string(nil), ro.Tools...)
		role.AllowDelegation = ro.AllowDelegation
		role.Verbose = ro.Verbose
		def.Roles[ro.ID] = role
	}

	for _, to := range ov.Tasks {
		task, ok := cfg.Tasks[to.ID]
		if !ok {
			return nil, fmt.Errorf("%w: task %q not in %s", ErrMissingConfig, to.ID, tasksFile)
		}
		if _, ok := def.Roles[task.Agent]; !ok {
			return nil, fmt.Errorf("%w: task %q assigned to unknown agent %q", ErrMissingConfig, to.ID, task.Agent)
		}
		task.ID = to.ID
		task.OutputFile = to.OutputFile
		for name, src := range map[string]string{"description": task.Description, "expected_output": task.ExpectedOutput} {
			if _, err := template.New(name).Parse(src); err != nil {
				return nil, fmt.Errorf("task %q %s: %w", to.ID, name, err)
			}
		}
		def.Tasks = append(def.Tasks, task)
	}

	return def, nil
}

// LoadDefinition loads configuration from fsys and builds the story pipeline.
func LoadDefinition(fsys fs.FS) (*Definition, error) {
	cfg, err := LoadConfig(fsys)
	if err != nil {
		return nil, err
	}
	return Build(cfg, StoryOverrides())
}
