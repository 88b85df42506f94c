package notify

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Template names known to the registry.
const (
	TemplateResultDelivered = "result_delivered"
)

// Template is one named message shape with {placeholder} slots.
type Template struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// TemplateRegistry holds the embedded message templates keyed by name.
type TemplateRegistry struct {
	templates map[string]Template
}

// NewTemplateRegistry parses the embedded template file.
func NewTemplateRegistry() (*TemplateRegistry, error) {
	templates := make(map[string]Template)
	if err := yaml.Unmarshal(templatesYAML, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	return &TemplateRegistry{templates: templates}, nil
}

// Render fills a named template's placeholders. Placeholders without a
// matching var are left in place.
func (r *TemplateRegistry) Render(name string, vars map[string]string) (subject, body string, err error) {
	tpl, ok := r.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template: %s", name)
	}
	return substitute(tpl.Subject, vars), substitute(tpl.Body, vars), nil
}

func substitute(s string, vars map[string]string) string {
	for key, value := range vars {
		s = strings.ReplaceAll(s, "{"+key+"}", value)
	}
	return s
}
