package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
	"conferencecentral/internal/query"
)

// CreateSessionRequest is the request body for POST /conferences/{conferenceKey}/sessions.
// date uses YYYY-MM-DD and start_time uses HH:MM.
type CreateSessionRequest struct {
	domain.SessionForm
}

// Validate implements Validator.
func (c CreateSessionRequest) Validate() []string {
	var errs []string
	if c.Name == nil || *c.Name == "" {
		errs = append(errs, "name is required")
	}
	if c.DurationMinutes != nil && *c.DurationMinutes < 0 {
		errs = append(errs, "duration_minutes must not be negative")
	}
	return errs
}

// UpdateSessionRequest is the request body for PATCH /sessions/{sessionKey}. Omitted fields are unchanged.
type UpdateSessionRequest struct {
	domain.SessionForm
}

// SessionLengthRequest is the request body for POST /conferences/{conferenceKey}/sessions/duration.
type SessionLengthRequest struct {
	Operator string `json:"operator"`
	Minutes  *int   `json:"minutes"`
}

// Validate implements Validator.
func (s SessionLengthRequest) Validate() []string {
	var errs []string
	if s.Operator == "" {
		errs = append(errs, "operator is required")
	}
	if s.Minutes == nil {
		errs = append(errs, "minutes is required")
	}
	return errs
}

// SessionTimeRequest is the request body for POST /conferences/{conferenceKey}/sessions/time.
// Sessions whose type is in excluded_types are left out.
type SessionTimeRequest struct {
	ExcludedTypes []string `json:"excluded_types"`
	Operator      string   `json:"operator"`
	Hour          *int     `json:"hour"`
}

// Validate implements Validator.
func (s SessionTimeRequest) Validate() []string {
	var errs []string
	if s.Operator == "" {
		errs = append(errs, "operator is required")
	}
	if s.Hour == nil {
		errs = append(errs, "hour is required")
	}
	return errs
}

// FeaturedSpeakerView is the featured speaker of a conference.
// swagger:model FeaturedSpeakerView
type FeaturedSpeakerView struct {
	ConferenceKey string    `json:"conference_key"`
	SpeakerID     int64     `json:"speaker_id"`
	SpeakerName   string    `json:"speaker_name"`
	SessionNames  []string  `json:"session_names"`
	ComputedAt    time.Time `json:"computed_at"`
}

// SessionSuccessResponse is the success envelope for single-session responses.
type SessionSuccessResponse struct {
	Data  SessionView       `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SessionListSuccessResponse is the success envelope for session lists.
type SessionListSuccessResponse struct {
	Data  []SessionView     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// FeaturedSpeakerSuccessResponse is the success envelope for GET featured-speaker. data is null when there is none.
type FeaturedSpeakerSuccessResponse struct {
	Data  *FeaturedSpeakerView `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type SessionController struct {
	Logger   *slog.Logger
	Service  domain.SessionService
	Featured domain.FeaturedSpeakerService
	Keys     KeyCodec
}

func NewSessionController(logger *slog.Logger, svc domain.SessionService, featured domain.FeaturedSpeakerService, keys KeyCodec) *SessionController {
	return &SessionController{
		Logger:   logger,
		Service:  svc,
		Featured: featured,
		Keys:     keys,
	}
}

func (c *SessionController) writeSession(w http.ResponseWriter, r *http.Request, status int, s *domain.Session) {
	view, err := sessionView(c.Keys, s)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, status, view)
}

func (c *SessionController) writeSessions(w http.ResponseWriter, r *http.Request, sessions []*domain.Session, err error) {
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	views, err := sessionViews(c.Keys, sessions)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, views)
}

// CreateSession godoc
// @Summary Create a session
// @Description Only the conference organizer can add sessions. A featured speaker recomputation is queued when speaker_id is set.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conferenceKey path string true "Conference key"
// @Param session body CreateSessionRequest true "Session fields"
// @Success 201 {object} controllers.SessionSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{conferenceKey}/sessions [post]
func (c *SessionController) CreateSession(w http.ResponseWriter, r *http.Request) {
	confKey, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	var req CreateSessionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	s, err := c.Service.CreateSession(r.Context(), &req.SessionForm, confKey, caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writeSession(w, r, http.StatusCreated, s)
}

// GetSession godoc
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param sessionKey path string true "Session key"
// @Success 200 {object} controllers.SessionSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /sessions/{sessionKey} [get]
func (c *SessionController) GetSession(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, c.Logger, c.Keys, "sessionKey", domain.KindSession)
	if !ok {
		return
	}
	s, err := c.Service.GetSession(r.Context(), key)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writeSession(w, r, http.StatusOK, s)
}

// UpdateSession godoc
// @Summary Update a session
// @Description Only the conference organizer can update. Omitted fields are unchanged.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionKey path string true "Session key"
// @Param body body UpdateSessionRequest true "Fields to update"
// @Success 200 {object} controllers.SessionSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not organizer)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /sessions/{sessionKey} [patch]
func (c *SessionController) UpdateSession(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, c.Logger, c.Keys, "sessionKey", domain.KindSession)
	if !ok {
		return
	}
	var req UpdateSessionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	s, err := c.Service.UpdateSession(r.Context(), key, &req.SessionForm, caller)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	c.writeSession(w, r, http.StatusOK, s)
}

// GetConferenceSessions godoc
// @Summary List a conference's sessions
// @Description Sessions in creation order.
// @Tags sessions
// @Produce json
// @Param conferenceKey path string true "Conference key"
// @Success 200 {object} controllers.SessionListSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{conferenceKey}/sessions [get]
func (c *SessionController) GetConferenceSessions(w http.ResponseWriter, r *http.Request) {
	confKey, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	sessions, err := c.Service.GetConferenceSessions(r.Context(), confKey)
	c.writeSessions(w, r, sessions, err)
}

// GetConferenceSessionsByType godoc
// @Summary List a conference's sessions of one type
// @Tags sessions
// @Produce json
// @Param conferenceKey path string true "Conference key"
// @Param type path string true "Session type"
// @Success 200 {object} controllers.SessionListSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{conferenceKey}/sessions/type/{type} [get]
func (c *SessionController) GetConferenceSessionsByType(w http.ResponseWriter, r *http.Request) {
	confKey, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	sessions, err := c.Service.GetConferenceSessionsByType(r.Context(), confKey, r.PathValue("type"))
	c.writeSessions(w, r, sessions, err)
}

// QuerySessionLength godoc
// @Summary Filter a conference's sessions by duration
// @Description operator is one of EQ, GT, GTEQ, LT, LTEQ. Sessions without a duration never match.
// @Tags sessions
// @Accept json
// @Produce json
// @Param conferenceKey path string true "Conference key"
// @Param body body SessionLengthRequest true "Comparison"
// @Success 200 {object} controllers.SessionListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{conferenceKey}/sessions/duration [post]
func (c *SessionController) QuerySessionLength(w http.ResponseWriter, r *http.Request) {
	confKey, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	var req SessionLengthRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	op, err := query.ParseOperator(req.Operator)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	sessions, err := c.Service.QuerySessionLength(r.Context(), confKey, op, *req.Minutes)
	c.writeSessions(w, r, sessions, err)
}

// QuerySessionTime godoc
// @Summary Filter a conference's sessions by start hour, excluding types
// @Description Combines an inequality on start time with an exclusion on session type.
// @Tags sessions
// @Accept json
// @Produce json
// @Param conferenceKey path string true "Conference key"
// @Param body body SessionTimeRequest true "Comparison and excluded types"
// @Success 200 {object} controllers.SessionListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /conferences/{conferenceKey}/sessions/time [post]
func (c *SessionController) QuerySessionTime(w http.ResponseWriter, r *http.Request) {
	confKey, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	var req SessionTimeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	op, err := query.ParseOperator(req.Operator)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	sessions, err := c.Service.QuerySessionTime(r.Context(), confKey, req.ExcludedTypes, op, *req.Hour)
	c.writeSessions(w, r, sessions, err)
}

// GetSessionsBySpeaker godoc
// @Summary List a speaker's sessions across conferences
// @Tags sessions
// @Produce json
// @Param speakerId path int true "Speaker ID"
// @Success 200 {object} controllers.SessionListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /speakers/{speakerId}/sessions [get]
func (c *SessionController) GetSessionsBySpeaker(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("speakerId"), 10, 64)
	if err != nil || id <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid speakerId")
		return
	}
	sessions, err := c.Service.GetSessionsBySpeaker(r.Context(), id)
	c.writeSessions(w, r, sessions, err)
}

// GetFeaturedSpeaker godoc
// @Summary Get a conference's featured speaker
// @Description Reads the cache only. data is null when no speaker is featured.
// @Tags sessions
// @Produce json
// @Param conferenceKey path string true "Conference key"
// @Success 200 {object} controllers.FeaturedSpeakerSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /conferences/{conferenceKey}/featured-speaker [get]
func (c *SessionController) GetFeaturedSpeaker(w http.ResponseWriter, r *http.Request) {
	confKey, ok := pathKey(w, r, c.Logger, c.Keys, "conferenceKey", domain.KindConference)
	if !ok {
		return
	}
	rec, found, err := c.Featured.GetFeaturedSpeaker(r.Context(), confKey)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if !found {
		helpers.WriteJSONSuccess(w, http.StatusOK, nil)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &FeaturedSpeakerView{
		ConferenceKey: r.PathValue("conferenceKey"),
		SpeakerID:     rec.SpeakerID,
		SpeakerName:   rec.SpeakerName,
		SessionNames:  rec.SessionNames,
		ComputedAt:    rec.ComputedAt,
	})
}
