package notify

import (
	"bytes"
	"errors"
	"text/template"
)

const DefaultTemplate = `[{{.SeverityLabel}} alert] {{.ModuleLabel}}
Subject: {{.Subject}}
Parameter: {{.Parameter}}
Value: {{.Value}} ({{.Direction}})
Limit: {{.Limit}}
Observed: {{.ObservedAt}}
Source: {{.Source}}
Suggestion: {{.Suggestion}}
{{ if .Link }}
Record: {{.Link}}
{{ end }}`

// TemplateData provides fields for rendering notification content.
type TemplateData struct {
	Module        string
	ModuleLabel   string
	Subject       string
	RecordID      string
	Parameter     string
	Value         string
	Direction     string
	Limit         string
	ObservedAt    string
	Source        string
	Severity      string
	SeverityLabel string
	Suggestion    string
	Link          string
}

// Template renders notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("alert-notification").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("alert template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
