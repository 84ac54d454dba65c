package middlewares

import (
	"context"
	"net/http"

	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/tokens"
	"github.com/didip/tollbooth/v6/libstring"
)

type ctxKey int

const (
	userKey ctxKey = iota
	claimsKey
	sessionKey
	sessionInfoKey
	requestMetaKey
)

// IPLookups is the order in which the client address is resolved.
var IPLookups = []string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

func ClaimsFromContext(ctx context.Context) (*tokens.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*tokens.Claims)
	return claims, ok && claims != nil
}

func WithSession(ctx context.Context, session *models.SessionDescriptor) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the validated session descriptor, if the
// client sent one.
func SessionFromContext(ctx context.Context) (*models.SessionDescriptor, bool) {
	session, ok := ctx.Value(sessionKey).(*models.SessionDescriptor)
	return session, ok && session != nil
}

func SessionInfoFromContext(ctx context.Context) (*models.SessionInfo, bool) {
	info, ok := ctx.Value(sessionInfoKey).(*models.SessionInfo)
	return info, ok && info != nil
}

// ClientIP resolves the caller's address.
func ClientIP(r *http.Request) string {
	return libstring.RemoteIP(IPLookups, 0, r)
}

// requestMeta is filled in by inner middlewares so the request logger,
// which runs outermost, can report who made the request.
type requestMeta struct {
	userID    string
	sessionID string
}

func metaFromContext(ctx context.Context) *requestMeta {
	meta, _ := ctx.Value(requestMetaKey).(*requestMeta)
	return meta
}
