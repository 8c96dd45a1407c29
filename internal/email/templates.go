package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type reminderEmailData struct {
	baseEmailData
	TaskTitle string
	LeadName  string
	DueDate   string
}

type digestEmailData struct {
	baseEmailData
	TotalLeads    int
	RevenueAtRisk string
	Entries       []DigestEntry
}

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func renderEmailTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
