// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tools implements the stateless text tools available to crew roles
// and the schema each one declares to the model.
package tools

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ErrUnknownTool is returned when a call names a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Tool is a schema-described function callable by a role during a task.
type Tool interface {
	// Specification describes the tool's name and typed arguments.
	Specification() Specification

	// Call runs the tool. Input has already been validated and defaulted
	// when the call goes through a Registry.
	Call(Input) (string, error)
}

// Input holds the arguments of one tool call, keyed by parameter name.
type Input map[string]any

// Specification is the typed call contract a tool exposes. It serializes to
// the JSON-schema shape the Messages API expects for tool definitions.
type Specification struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Inputs      InputSchema `json:"input_schema"`
}

// InputSchema is a JSON-schema object describing a tool's arguments.
type InputSchema struct {
	Type       string                     `json:"type"`
	Required   []string                   `json:"required"`
	Properties map[string]ParameterObject `json:"properties"`
}

// ParameterObject describes one tool argument.
type ParameterObject struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// ValidationError reports arguments that are missing or have the wrong type.
type ValidationError struct {
	Tool          string
	FieldsMissing []string
	FieldsInvalid []string
}

func (v ValidationError) Error() string {
	var parts []string
	if len(v.FieldsMissing) > 0 {
		parts = append(parts, fmt.Sprintf("fields missing: %v", v.FieldsMissing))
	}
	if len(v.FieldsInvalid) > 0 {
		parts = append(parts, fmt.Sprintf("fields with wrong type: %v", v.FieldsInvalid))
	}
	return fmt.Sprintf("validation error for %s, %s", v.Tool, strings.Join(parts, ", "))
}

// Validate checks input against spec and returns a copy with defaults applied
// for absent optional arguments. Enum values are advertised to the model but
// not enforced here; each tool decides how to treat unknown values.
func Validate(spec Specification, input Input) (Input, error) {
	out := make(Input, len(spec.Inputs.Properties))
	for k, v := range input {
		out[k] = v
	}

	var missing, invalid []string
	for _, name := range spec.Inputs.Required {
		if _, ok := out[name]; !ok {
			missing = append(missing, name)
		}
	}

	names := make([]string, 0, len(spec.Inputs.Properties))
	for name := range spec.Inputs.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		param := spec.Inputs.Properties[name]
		v, ok := out[name]
		if !ok {
			if param.Default != nil {
				out[name] = param.Default
			}
			continue
		}
		if !matchesType(param.Type, v) {
			invalid = append(invalid, name)
		}
	}

	if len(missing) > 0 || len(invalid) > 0 {
		slices.Sort(missing)
		return nil, ValidationError{Tool: spec.Name, FieldsMissing: missing, FieldsInvalid: invalid}
	}
	return out, nil
}

func matchesType(typ string, v any) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "integer", "number":
		switch v.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := v.(bool)
		return ok
	default:
		return true
	}
}

// stringArg returns the string argument key, or def when it is absent or
// not a string.
func stringArg(input Input, key, def string) string {
	if s, ok := input[key].(string); ok {
		return s
	}
	return def
}
