package controllers

import (
	"log/slog"
	"net/http"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
)

// CreateConferenceRequest is the request body for POST /conferences.
type CreateConferenceRequest struct {
	domain.ConferenceForm
}

// Validate implements Validator.
func (c CreateConferenceRequest) Validate() []string {
	var errs []string
	if c.Name == nil || *c.Name == "" {
		errs = append(errs, "name is required")
	}
	if c.MaxAttendees != nil && *c.MaxAttendees < 0 {
		errs = append(errs, "max_attendees must not be negative")
	}
	return errs
}

// UpdateConferenceRequest is the request body for PATCH /conferences/{conferenceKey}. Omitted fields are unchanged.
type UpdateConferenceRequest struct {
	domain.ConferenceForm
}

// QueryConferencesRequest is the request body for POST /conferences/query.
type QueryConferencesRequest struct {
	Filters []domain.ConferenceQueryFilter `json:"filters"`
}

// SimilarConferencesRequest is the request body for POST /conferences/{conferenceKey}/similar.
// Field, operator and value are given together or not at all.
type SimilarConferencesRequest struct {
	domain.ConferenceQueryFilter
}

// Validate implements Validator.
func (s SimilarConferencesRequest) Validate() []string {
	set := 0
	for _, v := range []string{s.Field, s.Operator, s.Value} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return []string{"field, operator and value are required together"}
	}
	return nil
}

// ConferenceSuccessResponse is the success envelope for single-conference responses.
type ConferenceSuccessResponse struct {
	Data  ConferenceView    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ConferenceListSuccessResponse is the success envelope for conference lists.
type ConferenceListSuccessResponse struct {
	Data  []ConferenceView  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// RegistrationResponse reports whether a registration change took effect.
type RegistrationResponse struct {
	Registered bool `json:"registered"`
	Changed    bool `json:"changed"`
}

type ConferenceController struct {
	Logger   *slog.Logger
	Service  domain.ConferenceService
	Profiles domain.ProfileService
	Keys     KeyCodec
}

func NewConferenceController(logger *slog.Logger, svc domain.ConferenceService, profiles domain.ProfileService, keys KeyCodec) *ConferenceController {
	return &ConferenceController{
		Logger:   logger,
		Service:  svc,
		Profiles: profiles,
		Keys:     keys,
	}
}

func (c *ConferenceController) writeConference(w http.ResponseWriter, r *http.Request, status int, conf *domain.Conference) {
	view, err := conferenceView(c.Keys, conf)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, status, view)
}

func (c *ConferenceController) writeConferences(w http.ResponseWriter, r *http.Request, confs []*domain.Conference) {
	views, err := conferenceViews(c.Keys, confs)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, views)
}

// CreateConference godoc
// @Summary Create a conference
// @Description Creates a conference owned by the caller. Missing city and topics get defaults and seats_available starts at max_attendees. A confirmation email is queued for the caller.
// @Tags conferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conference body CreateConferenceRequest true "Conference fields"
// @Success 201 {object} controllers.ConferenceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /conferences [post]
func (c *ConferenceController) CreateConference(w http.ResponseWriter, r *http.Request) {
	var req CreateConferenceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	conf, err := c.Service.CreateConference(r.Context(), &req.ConferenceForm, caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writeConference(w, r, http.StatusCreated, conf)
}

// GetConference godoc
// @Summary Get a conference
// @Tags conferences
// @Produce json
// @Param conferenceKey path string true "Conference key"
// @Success 200 {object} controllers.ConferenceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{conferenceKey} [get]
func (c *ConferenceController) GetConference(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	conf, err := c.Service.GetConference(r.Context(), key)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writeConference(w, r, http.StatusOK, conf)
}

// UpdateConference godoc
// @Summary Update a conference
// @Description Only the organizer can update. Omitted fields are unchanged.
// @Tags conferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conferenceKey path string true "Conference key"
// @Param body body UpdateConferenceRequest true "Fields to update"
// @Success 200 {object} controllers.ConferenceSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{conferenceKey} [patch]
func (c *ConferenceController) UpdateConference(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	var req UpdateConferenceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	conf, err := c.Service.UpdateConference(r.Context(), key, &req.ConferenceForm, caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writeConference(w, r, http.StatusOK, conf)
}

// ListConferencesCreated godoc
// @Summary List conferences created by the caller
// @Tags conferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ConferenceListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /conferences/created [get]
func (c *ConferenceController) ListConferencesCreated(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	confs, err := c.Service.ListConferencesCreated(r.Context(), caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writeConferences(w, r, confs)
}

// QueryConferences godoc
// @Summary Query conferences
// @Description Filters use fields CITY, TOPIC, MONTH, MAX_ATTENDEES, SEATS_AVAILABLE and operators EQ, NE, GT, GTEQ, LT, LTEQ. Inequalities may name one field only. Results are ordered by name, or by the inequality field first.
// @Tags conferences
// @Accept json
// @Produce json
// @Param body body QueryConferencesRequest true "Filters"
// @Success 200 {object} controllers.ConferenceListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /conferences/query [post]
func (c *ConferenceController) QueryConferences(w http.ResponseWriter, r *http.Request) {
	var req QueryConferencesRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	confs, err := c.Service.QueryConferences(r.Context(), req.Filters)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writeConferences(w, r, confs)
}

// QuerySimilarConferences godoc
// @Summary Conferences by the same organizer
// @Description Returns the organizer's other conferences, optionally narrowed by one filter.
// @Tags conferences
// @Accept json
// @Produce json
// @Param conferenceKey path string true "Conference key"
// @Param body body SimilarConferencesRequest true "Optional filter"
// @Success 200 {object} controllers.ConferenceListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{conferenceKey}/similar [post]
func (c *ConferenceController) QuerySimilarConferences(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	var req SimilarConferencesRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	confs, err := c.Service.QuerySimilarConferences(r.Context(), key, req.ConferenceQueryFilter)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writeConferences(w, r, confs)
}

// RegisterForConference godoc
// @Summary Register the caller for a conference
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param conferenceKey path string true "Conference key"
// @Success 200 {object} helpers.APIResponse "data contains RegistrationResponse"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already registered or sold out)"
// @Router /conferences/{conferenceKey}/registration [post]
func (c *ConferenceController) RegisterForConference(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if err := c.Profiles.RegisterForConference(r.Context(), key, caller); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RegistrationResponse{Registered: true, Changed: true})
}

// UnregisterFromConference godoc
// @Summary Unregister the caller from a conference
// @Description changed is false when the caller was not registered.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param conferenceKey path string true "Conference key"
// @Success 200 {object} helpers.APIResponse "data contains RegistrationResponse"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{conferenceKey}/registration [delete]
func (c *ConferenceController) UnregisterFromConference(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	changed, err := c.Profiles.UnregisterFromConference(r.Context(), key, caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RegistrationResponse{Registered: false, Changed: changed})
}

// ListConferencesToAttend godoc
// @Summary List conferences the caller is registered for
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ConferenceListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /conferences/attending [get]
func (c *ConferenceController) ListConferencesToAttend(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	confs, err := c.Profiles.ListConferencesToAttend(r.Context(), caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writeConferences(w, r, confs)
}
