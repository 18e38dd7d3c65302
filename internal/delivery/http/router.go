package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"conferencecentral/internal/delivery/http/controllers"
	"conferencecentral/internal/delivery/http/middleware"
	"conferencecentral/internal/domain"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Conferences *controllers.ConferenceController
	Sessions    *controllers.SessionController
	Speakers    *controllers.SpeakerController
	Profiles    *controllers.ProfileController
}

// NewRouter initializes the HTTP router with all application routes, wrapped in
// request logging and CORS.
func NewRouter(c Controllers, verifier domain.TokenVerifier, allowedOrigins []string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Conferences
	mux.HandleFunc("POST /conferences", auth(c.Conferences.CreateConference))
	mux.HandleFunc("GET /conferences/created", auth(c.Conferences.ListConferencesCreated))
	mux.HandleFunc("GET /conferences/attending", auth(c.Conferences.ListConferencesToAttend))
	mux.HandleFunc("POST /conferences/query", c.Conferences.QueryConferences)
	mux.HandleFunc("GET /conferences/{conferenceKey}", c.Conferences.GetConference)
	mux.HandleFunc("PATCH /conferences/{conferenceKey}", auth(c.Conferences.UpdateConference))
	mux.HandleFunc("POST /conferences/{conferenceKey}/similar", c.Conferences.QuerySimilarConferences)
	mux.HandleFunc("POST /conferences/{conferenceKey}/registration", auth(c.Conferences.RegisterForConference))
	mux.HandleFunc("DELETE /conferences/{conferenceKey}/registration", auth(c.Conferences.UnregisterFromConference))

	// Sessions
	mux.HandleFunc("POST /conferences/{conferenceKey}/sessions", auth(c.Sessions.CreateSession))
	mux.HandleFunc("GET /conferences/{conferenceKey}/sessions", c.Sessions.GetConferenceSessions)
	mux.HandleFunc("GET /conferences/{conferenceKey}/sessions/type/{type}", c.Sessions.GetConferenceSessionsByType)
	mux.HandleFunc("POST /conferences/{conferenceKey}/sessions/duration", c.Sessions.QuerySessionLength)
	mux.HandleFunc("POST /conferences/{conferenceKey}/sessions/time", c.Sessions.QuerySessionTime)
	mux.HandleFunc("GET /conferences/{conferenceKey}/featured-speaker", c.Sessions.GetFeaturedSpeaker)
	mux.HandleFunc("GET /sessions/{sessionKey}", c.Sessions.GetSession)
	mux.HandleFunc("PATCH /sessions/{sessionKey}", auth(c.Sessions.UpdateSession))
	mux.HandleFunc("GET /speakers/{speakerId}/sessions", c.Sessions.GetSessionsBySpeaker)

	// Speakers
	mux.HandleFunc("POST /speakers", auth(c.Speakers.CreateSpeaker))
	mux.HandleFunc("GET /speakers", c.Speakers.ListSpeakers)
	mux.HandleFunc("GET /speakers/search", c.Speakers.GetSpeakersByName)
	mux.HandleFunc("GET /speakers/{speakerId}", c.Speakers.GetSpeaker)

	// Profile and wishlist
	mux.HandleFunc("GET /profile", auth(c.Profiles.GetProfile))
	mux.HandleFunc("PATCH /profile", auth(c.Profiles.SaveProfile))
	mux.HandleFunc("GET /profile/wishlist", auth(c.Profiles.GetWishlist))
	mux.HandleFunc("POST /profile/wishlist/{sessionKey}", auth(c.Profiles.AddSessionToWishlist))
	mux.HandleFunc("DELETE /profile/wishlist/{sessionKey}", auth(c.Profiles.RemoveSessionFromWishlist))

	mux.HandleFunc("GET /announcement", c.Profiles.GetAnnouncement)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.CORS(allowedOrigins, middleware.LoggingMiddleware(logger, mux))
}
