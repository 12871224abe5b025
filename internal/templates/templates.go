// Package templates holds the embedded files llmtxt writes into projects.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/example/llmtxt/internal/config"
)

//go:embed *.tmpl
var files embed.FS

var configTemplate = template.Must(template.ParseFS(files, "config.yaml.tmpl"))

// RenderConfig returns a commented config.yaml holding cfg's values.
func RenderConfig(cfg *config.Config) (string, error) {
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, cfg); err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return buf.String(), nil
}
