package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"conferencecentral/internal/domain"
)

type confirmationEmailHandler struct {
	store    domain.EntityStore
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewConfirmationEmailHandler returns the handler for conference_confirmation_email jobs. It
// renders the "conference_created" template and sends it through the Mailer.
func NewConfirmationEmailHandler(store domain.EntityStore, mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.JobHandler {
	return &confirmationEmailHandler{store: store, mailer: mailer, renderer: renderer, logger: logger}
}

func (h *confirmationEmailHandler) Handle(ctx context.Context, job domain.Job) error {
	var msg domain.ConferenceConfirmationEmailJob
	if err := json.Unmarshal(job.Payload, &msg); err != nil {
		return fmt.Errorf("decode confirmation email job: %w", err)
	}
	key, err := domain.ParseKeyPath(msg.ConferenceKey)
	if err != nil {
		return fmt.Errorf("decode confirmation email job: %w", err)
	}
	conf, err := getConference(ctx, h.store, key)
	if err != nil {
		return err
	}
	data := &domain.ConferenceCreatedEmailData{
		Email:        msg.Email,
		DisplayName:  msg.DisplayName,
		Name:         conf.Name,
		City:         conf.City,
		Topics:       conf.Topics,
		StartDate:    formatDate(conf.StartDate),
		EndDate:      formatDate(conf.EndDate),
		MaxAttendees: conf.MaxAttendees,
	}
	email, err := h.renderer.Render("conference_created", data)
	if err != nil {
		return fmt.Errorf("render conference_created: %w", err)
	}
	email.To = msg.Email
	if err := h.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	h.logger.InfoContext(ctx, "confirmation email sent", "conference", msg.ConferenceKey)
	return nil
}
