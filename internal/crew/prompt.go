// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crew

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/story-crew/pkg/types"
)

// renderText executes src as a text/template against data. Referencing a key
// that is not in data is an error.
func renderText(name, src string, data map[string]any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// renderPrompt builds the prompt for task: its description, the expected
// output, and the outputs of every earlier task in order.
func renderPrompt(task types.Task, data map[string]any, prior []types.TaskOutput) (string, error) {
	desc, err := renderText(task.ID+".description", task.Description, data)
	if err != nil {
		return "", err
	}
	expected, err := renderText(task.ID+".expected_output", task.ExpectedOutput, data)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(desc)
	if expected != "" {
		fmt.Fprintf(&b, "\n\nExpected output:\n%s", expected)
	}
	if len(prior) > 0 {
		b.WriteString("\n\nContext from previous tasks:")
		for _, p := range prior {
			fmt.Fprintf(&b, "\n\n## %s (%s)\n\n%s", p.TaskID, p.Agent, strings.TrimSpace(p.Raw))
		}
	}
	return b.String(), nil
}

// renderRole renders the role's text fields, which may reference inputs.
func renderRole(role types.Role, data map[string]any) (types.Role, error) {
	var err error
	if role.Role, err = renderText(role.ID+".role", role.Role, data); err != nil {
		return role, err
	}
	if role.Goal, err = renderText(role.ID+".goal", role.Goal, data); err != nil {
		return role, err
	}
	if role.Backstory, err = renderText(role.ID+".backstory", role.Backstory, data); err != nil {
		return role, err
	}
	return role, nil
}
