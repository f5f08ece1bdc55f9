// Package prompt binds YAML prompt templates to a model and fixed sampling
// parameters. Templates carry an optional system prompt and a user prompt,
// both with named placeholders resolved through text/template.
package prompt

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Template is one loaded prompt file.
type Template struct {
	SystemPrompt string `yaml:"system_prompt"`
	UserPrompt   string `yaml:"user_prompt"`
}

// Load reads a prompt template from fsys at path.
func Load(fsys fs.FS, path string) (*Template, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("prompt: read %s: %w", path, err)
	}

	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("prompt: parse %s: %w", path, err)
	}
	if t.UserPrompt == "" {
		return nil, fmt.Errorf("prompt: %s has no user_prompt", path)
	}
	return &t, nil
}

// Render resolves named placeholders ({{.name}}) in tmpl. Unknown
// placeholders are an error; a string without delimiters passes through.
func Render(tmpl string, vars map[string]any) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("prompt: parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("prompt: render: %w", err)
	}
	return buf.String(), nil
}
