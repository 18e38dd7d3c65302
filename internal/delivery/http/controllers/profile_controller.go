package controllers

import (
	"log/slog"
	"net/http"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
)

// SaveProfileRequest is the request body for PATCH /profile.
type SaveProfileRequest struct {
	domain.ProfileForm
}

// ProfileSuccessResponse is the success envelope for profile responses.
type ProfileSuccessResponse struct {
	Data  ProfileView       `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// AnnouncementResponse carries the current announcement; empty when none.
type AnnouncementResponse struct {
	Announcement string `json:"announcement"`
}

type ProfileController struct {
	Logger        *slog.Logger
	Service       domain.ProfileService
	Wishlist      domain.WishlistService
	Announcements domain.AnnouncementService
	Keys          KeyCodec
}

func NewProfileController(logger *slog.Logger, svc domain.ProfileService, wishlist domain.WishlistService, announcements domain.AnnouncementService, keys KeyCodec) *ProfileController {
	return &ProfileController{
		Logger:        logger,
		Service:       svc,
		Wishlist:      wishlist,
		Announcements: announcements,
		Keys:          keys,
	}
}

func (c *ProfileController) writeProfile(w http.ResponseWriter, r *http.Request, p *domain.Profile, err error) {
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	view, err := profileView(c.Keys, p)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Description Creates the profile on first use.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile [get]
func (c *ProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	p, err := c.Service.GetProfile(r.Context(), caller)
	c.writeProfile(w, r, p, err)
}

// SaveProfile godoc
// @Summary Update the caller's profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SaveProfileRequest true "display_name and tee_shirt_size, both optional"
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile [patch]
func (c *ProfileController) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req SaveProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	p, err := c.Service.SaveProfile(r.Context(), caller, &req.ProfileForm)
	c.writeProfile(w, r, p, err)
}

// GetWishlist godoc
// @Summary List the sessions in the caller's wishlist
// @Description Sessions in wishlist order. Keys of deleted sessions are skipped.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.SessionListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile/wishlist [get]
func (c *ProfileController) GetWishlist(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	sessions, err := c.Wishlist.ListWishlistedSessions(r.Context(), caller)
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

// AddSessionToWishlist godoc
// @Summary Add a session to the caller's wishlist
// @Description The caller must be registered for the session's conference.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param sessionKey path string true "Session key"
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not registered or already wishlisted)"
// @Router /profile/wishlist/{sessionKey} [post]
func (c *ProfileController) AddSessionToWishlist(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, c.Logger, c.Keys, "sessionKey", domain.KindSession)
	if !ok {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	p, err := c.Wishlist.AddSessionToWishlist(r.Context(), key, caller)
	c.writeProfile(w, r, p, err)
}

// RemoveSessionFromWishlist godoc
// @Summary Remove a session from the caller's wishlist
// @Description Removing a session that is not wishlisted is not an error.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Param sessionKey path string true "Session key"
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profile/wishlist/{sessionKey} [delete]
func (c *ProfileController) RemoveSessionFromWishlist(w http.ResponseWriter, r *http.Request) {
	key, ok := pathKey(w, r, c.Logger, c.Keys, "sessionKey", domain.KindSession)
	if !ok {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	p, err := c.Wishlist.RemoveSessionFromWishlist(r.Context(), key, caller)
	c.writeProfile(w, r, p, err)
}

// GetAnnouncement godoc
// @Summary Get the nearly sold out announcement
// @Tags announcements
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains AnnouncementResponse"
// @Router /announcement [get]
func (c *ProfileController) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	text, err := c.Announcements.GetAnnouncement(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AnnouncementResponse{Announcement: text})
}
