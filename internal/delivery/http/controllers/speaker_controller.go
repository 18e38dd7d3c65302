package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
)

// emailRegex matches a simple email format (local@domain with at least one dot in domain).
var emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// CreateSpeakerRequest is the request body for POST /speakers.
type CreateSpeakerRequest struct {
	DisplayName string `json:"display_name"`
	MainEmail   string `json:"main_email"`
}

// Validate implements Validator.
func (c CreateSpeakerRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.DisplayName) == "" {
		errs = append(errs, "display_name is required")
	}
	if c.MainEmail != "" && !emailRegex.MatchString(c.MainEmail) {
		errs = append(errs, "main_email is not a valid email address")
	}
	return errs
}

// ListSpeakersResponse is a page of speakers.
type ListSpeakersResponse struct {
	Speakers   []SpeakerView          `json:"speakers"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

type SpeakerController struct {
	Logger  *slog.Logger
	Service domain.SpeakerService
}

func NewSpeakerController(logger *slog.Logger, svc domain.SpeakerService) *SpeakerController {
	return &SpeakerController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateSpeaker godoc
// @Summary Create a speaker
// @Tags speakers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param speaker body CreateSpeakerRequest true "Speaker"
// @Success 201 {object} helpers.APIResponse "data contains SpeakerView"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /speakers [post]
func (c *SpeakerController) CreateSpeaker(w http.ResponseWriter, r *http.Request) {
	var req CreateSpeakerRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := requireCaller(w, r); !ok {
		return
	}
	sp, err := c.Service.CreateSpeaker(r.Context(), strings.TrimSpace(req.DisplayName), req.MainEmail)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, SpeakerView{ID: sp.ID(), Speaker: sp})
}

// ListSpeakers godoc
// @Summary List speakers
// @Tags speakers
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains ListSpeakersResponse"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /speakers [get]
func (c *SpeakerController) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	params, err := helpers.ParsePagination(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	speakers, err := c.Service.ListSpeakers(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	page, meta := helpers.Paginate(speakerViews(speakers), params)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListSpeakersResponse{Speakers: page, Pagination: meta})
}

// GetSpeaker godoc
// @Summary Get a speaker
// @Tags speakers
// @Produce json
// @Param speakerId path int true "Speaker ID"
// @Success 200 {object} helpers.APIResponse "data contains SpeakerView"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /speakers/{speakerId} [get]
func (c *SpeakerController) GetSpeaker(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("speakerId"), 10, 64)
	if err != nil || id <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid speakerId")
		return
	}
	sp, err := c.Service.GetSpeaker(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SpeakerView{ID: sp.ID(), Speaker: sp})
}

// GetSpeakersByName godoc
// @Summary Find speakers by exact display name
// @Tags speakers
// @Produce json
// @Param name query string true "Display name"
// @Success 200 {object} helpers.APIResponse "data contains []SpeakerView"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /speakers/search [get]
func (c *SpeakerController) GetSpeakersByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "name is required")
		return
	}
	speakers, err := c.Service.GetSpeakersByName(r.Context(), name)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, speakerViews(speakers))
}
