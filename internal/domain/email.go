package domain

import "context"

// EmailMessage is one rendered message. At least one of HTML and Text is set.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailTemplateRenderer renders a named message template. The returned message has no recipient.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (EmailMessage, error)
}

// ConferenceCreatedEmailData feeds the "conference_created" template.
type ConferenceCreatedEmailData struct {
	Email        string
	DisplayName  string
	Name         string
	City         string
	Topics       []string
	StartDate    string
	EndDate      string
	MaxAttendees int
}
