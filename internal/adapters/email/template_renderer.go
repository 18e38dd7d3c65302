package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"conferencecentral/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

var funcs = map[string]any{"join": strings.Join}

// Each message name has three files: <name>_subject.txt, <name>.txt and <name>.html.
var (
	textTemplates = template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.txt"))
	htmlTemplates = htmltemplate.Must(htmltemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
)

type templateRenderer struct{}

// NewTemplateRenderer returns a renderer over the embedded templates.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return templateRenderer{}
}

func (templateRenderer) Render(name string, data any) (domain.EmailMessage, error) {
	subjectTmpl := textTemplates.Lookup(name + "_subject.txt")
	textTmpl := textTemplates.Lookup(name + ".txt")
	htmlTmpl := htmlTemplates.Lookup(name + ".html")
	if subjectTmpl == nil || textTmpl == nil || htmlTmpl == nil {
		return domain.EmailMessage{}, fmt.Errorf("email template %q is incomplete or missing", name)
	}
	var msg domain.EmailMessage
	var buf bytes.Buffer
	if err := subjectTmpl.Execute(&buf, data); err != nil {
		return domain.EmailMessage{}, fmt.Errorf("render %s subject: %w", name, err)
	}
	msg.Subject = strings.Join(strings.Fields(buf.String()), " ")
	buf.Reset()
	if err := textTmpl.Execute(&buf, data); err != nil {
		return domain.EmailMessage{}, fmt.Errorf("render %s text: %w", name, err)
	}
	msg.Text = buf.String()
	buf.Reset()
	if err := htmlTmpl.Execute(&buf, data); err != nil {
		return domain.EmailMessage{}, fmt.Errorf("render %s html: %w", name, err)
	}
	msg.HTML = buf.String()
	return msg, nil
}
