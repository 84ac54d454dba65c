package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/authdiscovery/apiv1/dbhelper"
	"github.com/authdiscovery/apiv1/tokens"
	"github.com/authdiscovery/apiv1/utils"
)

var ErrMissingBearer = errors.New("missing bearer token")

func GetTokenFromAuthorizationHeader(authHeader string) (string, error) {
	if len(authHeader) == 0 {
		return "", ErrMissingBearer
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingBearer
	}
	return parts[1], nil
}

// TokenFromRequest returns the token in cookieName, falling back to the
// Authorization bearer header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token, err := GetTokenFromAuthorizationHeader(r.Header.Get("Authorization"))
	if err != nil {
		return ""
	}
	return token
}

type Authenticator struct {
	tokens       *tokens.Service
	store        dbhelper.UserStore
	logger       *slog.Logger
	exposeErrors bool
}

func NewAuthenticator(tokenService *tokens.Service, store dbhelper.UserStore, logger *slog.Logger, exposeErrors bool) *Authenticator {
	return &Authenticator{tokens: tokenService, store: store, logger: logger, exposeErrors: exposeErrors}
}

// IsAccessTokenAuthorized rejects requests without a valid access token and
// attaches the caller's user record and claims to the request context.
func (a *Authenticator) IsAccessTokenAuthorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.tokens.VerifyAccess(TokenFromRequest(r, utils.ACCESS_TOKEN_COOKIE))
		if err != nil {
			utils.RespondError(w, r, a.logger, err, a.exposeErrors)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), utils.STORE_TIMEOUT)
		user, err := a.store.FindByID(ctx, claims.UserID)
		cancel()
		if err != nil {
			if errors.Is(err, dbhelper.ErrUserNotFound) {
				err = utils.WrapError(utils.KindUnauthorized, utils.INVALID_ACCESS_TOKEN, err)
			} else {
				err = utils.WrapError(utils.KindInternal, utils.INTERNAL_SERVER_ERROR, err)
			}
			utils.RespondError(w, r, a.logger, err, a.exposeErrors)
			return
		}

		if meta := metaFromContext(r.Context()); meta != nil {
			meta.userID = user.ID
		}
		reqCtx := WithUser(r.Context(), user)
		reqCtx = context.WithValue(reqCtx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(reqCtx))
	})
}
