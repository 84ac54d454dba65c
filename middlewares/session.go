package middlewares

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/sessions"
	"github.com/authdiscovery/apiv1/utils"
)

type SessionGuard struct {
	tracker      *sessions.Tracker
	logger       *slog.Logger
	exposeErrors bool
}

func NewSessionGuard(tracker *sessions.Tracker, logger *slog.Logger, exposeErrors bool) *SessionGuard {
	return &SessionGuard{tracker: tracker, logger: logger, exposeErrors: exposeErrors}
}

// TrackSession attaches request metadata and logs activity of
// authenticated callers.
func (g *SessionGuard) TrackSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &models.SessionInfo{
			UserAgent:   r.UserAgent(),
			IPAddress:   ClientIP(r),
			Timestamp:   g.tracker.Now().UTC(),
			RequestPath: r.URL.Path,
			Method:      r.Method,
		}
		if cookie, err := r.Cookie(utils.SESSION_DATA_COOKIE); err == nil {
			if d, err := sessions.Decode(cookie.Value); err == nil {
				info.SessionID = d.SessionID
			}
		}
		if user, ok := UserFromContext(r.Context()); ok {
			g.logger.InfoContext(r.Context(), "session activity",
				"username", user.Username,
				"path", info.RequestPath,
				"ip", info.IPAddress,
				"session_id", info.SessionID,
			)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionInfoKey, info)))
	})
}

// ValidateSession rejects requests whose session cookie is unreadable or
// older than the tracker's maximum age. Requests without the cookie pass.
func (g *SessionGuard) ValidateSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(utils.SESSION_DATA_COOKIE)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		descriptor, err := sessions.Decode(cookie.Value)
		if err == nil {
			err = g.tracker.Validate(descriptor)
		}
		if user, ok := UserFromContext(r.Context()); ok && err == nil && !sessions.BelongsTo(descriptor, user.ID) {
			err = sessions.ErrInvalidSession
		}
		if err != nil {
			utils.RespondError(w, r, g.logger, sessions.AsAppError(err), g.exposeErrors)
			return
		}
		if meta := metaFromContext(r.Context()); meta != nil {
			meta.sessionID = descriptor.SessionID
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), &descriptor)))
	})
}
