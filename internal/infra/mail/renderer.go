package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"enrollment_notifier/internal/domain/enrollment"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Renderer turns an enrollment notification into an HTML body.
type Renderer struct {
	tmpl       *template.Template
	senderName string
}

type enrollmentView struct {
	InstructorName string
	Date           string
	Location       string
	Students       []enrollment.StudentContact
	SenderName     string
}

// NewRenderer parses the embedded templates.
func NewRenderer(senderName string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/enrollment.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, senderName: senderName}, nil
}

// Render produces the notification body. html/template escapes every field.
func (r *Renderer) Render(n enrollment.Notification) (string, error) {
	var buf bytes.Buffer
	err := r.tmpl.ExecuteTemplate(&buf, "enrollment.gohtml", enrollmentView{
		InstructorName: n.InstructorName,
		Date:           n.Detail.Date,
		Location:       n.Detail.Location,
		Students:       n.Students,
		SenderName:     r.senderName,
	})
	if err != nil {
		return "", fmt.Errorf("render enrollment email: %w", err)
	}
	return buf.String(), nil
}
