package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/authdiscovery/apiv1/credentials"
	"github.com/authdiscovery/apiv1/middlewares"
	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/sessions"
	"github.com/authdiscovery/apiv1/utils"
	"github.com/gorilla/mux"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64,excludes=@"`
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"fullName" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required_without=Identifier"`
	Identifier      string `json:"identifier" validate:"required_without=UsernameOrEmail"`
	Password        string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type AccountDetailsRequest struct {
	FullName string `json:"fullName" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

type RequestBody interface {
	RegisterRequest | LoginRequest | ChangePasswordRequest | AccountDetailsRequest
}

type LoginResponse struct {
	User         *models.User             `json:"user"`
	AccessToken  string                   `json:"accessToken"`
	RefreshToken string                   `json:"refreshToken"`
	Session      models.SessionDescriptor `json:"session"`
}

type LogoutResponse struct {
	Message    string    `json:"message"`
	LogoutTime time.Time `json:"logoutTime"`
	UserID     string    `json:"userId"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

func AuthRouter(s *mux.Router, h *Handler) {
	s.Handle("/register", chain(h.Register, h.throttle)).Methods(http.MethodPost)
	s.Handle("/login", chain(h.Login, h.throttle)).Methods(http.MethodPost)

	s.Handle("/logout", chain(h.Logout, h.auth.IsAccessTokenAuthorized, h.guard.TrackSession)).Methods(http.MethodPost)
	s.Handle("/refresh-token", chain(h.RefreshAccessToken, h.guard.ValidateSession)).Methods(http.MethodPost)
	s.Handle("/change-password", chain(h.ChangeCurrentPassword,
		h.auth.IsAccessTokenAuthorized, h.guard.TrackSession, h.sensitive.RateLimitSensitive)).Methods(http.MethodPost)
	s.Handle("/current-user", chain(h.GetCurrentUser, h.auth.IsAccessTokenAuthorized, h.guard.TrackSession)).Methods(http.MethodGet)
	s.Handle("/update-account-details", chain(h.UpdateAccountDetails,
		h.auth.IsAccessTokenAuthorized, h.guard.TrackSession)).Methods(http.MethodPut)
}

// DecodeValidBody decodes the JSON body into B and runs its validate tags.
func DecodeValidBody[B RequestBody](r *http.Request) (B, error) {
	decoder := json.NewDecoder(r.Body)
	var requestBody B
	err := decoder.Decode(&requestBody)
	if err != nil {
		return requestBody, err
	}
	err = validate.Struct(requestBody)
	if err != nil {
		return requestBody, err
	}
	return requestBody, nil
}

func invalidBody(message string, err error) error {
	return utils.WrapError(utils.KindInvalidInput, message, err)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	body, err := DecodeValidBody[RegisterRequest](r)
	if err != nil {
		h.fail(w, r, invalidBody(utils.ALL_FIELDS_REQUIRED, err))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), utils.STORE_TIMEOUT)
	defer cancel()
	user, err := h.verifier.Register(ctx, credentials.RegisterInput{
		Username: body.Username,
		Email:    body.Email,
		FullName: body.FullName,
		Password: body.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID, "username", user.Username)
	utils.WriteJSON(w, http.StatusCreated, "User registered successfully", user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := DecodeValidBody[LoginRequest](r)
	if err != nil {
		h.fail(w, r, invalidBody(utils.LOGIN_FIELDS_REQUIRED, err))
		return
	}
	identifier := body.UsernameOrEmail
	if identifier == "" {
		identifier = body.Identifier
	}

	ctx, cancel := context.WithTimeout(r.Context(), utils.STORE_TIMEOUT)
	defer cancel()
	user, err := h.verifier.Verify(ctx, identifier, body.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pair, err := h.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	session := h.sessions.Begin(user.ID, r.UserAgent(), middlewares.ClientIP(r))
	encoded, err := sessions.Encode(session)
	if err != nil {
		h.fail(w, r, utils.WrapError(utils.KindInternal, utils.INTERNAL_SERVER_ERROR, err))
		return
	}

	h.setCookie(w, utils.ACCESS_TOKEN_COOKIE, pair.AccessToken, h.tokens.AccessTTL(), true)
	h.setCookie(w, utils.REFRESH_TOKEN_COOKIE, pair.RefreshToken, h.tokens.RefreshTTL(), true)
	h.setCookie(w, utils.SESSION_DATA_COOKIE, encoded, h.sessions.MaxAge(), false)

	h.logger.InfoContext(r.Context(), "user logged in", "user_id", user.ID, "session_id", session.SessionID)
	utils.WriteJSON(w, http.StatusOK, "User logged in successfully", LoginResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Session:      session,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), utils.STORE_TIMEOUT)
	defer cancel()
	if err := h.tokens.Revoke(ctx, user.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	attrs := []any{"user_id", user.ID}
	if claims, ok := middlewares.ClaimsFromContext(r.Context()); ok {
		attrs = append(attrs, "token_id", claims.Id)
	}
	if info, ok := middlewares.SessionInfoFromContext(r.Context()); ok {
		attrs = append(attrs, "user_agent", info.UserAgent)
	}
	h.logger.Info("user logged out", attrs...)
	h.clearCookie(w, utils.ACCESS_TOKEN_COOKIE, true)
	h.clearCookie(w, utils.REFRESH_TOKEN_COOKIE, true)
	h.clearCookie(w, utils.SESSION_DATA_COOKIE, false)
	utils.WriteJSON(w, http.StatusOK, "User logged out successfully", LogoutResponse{
		Message:    "Session terminated successfully",
		LogoutTime: time.Now().UTC(),
		UserID:     user.ID,
	})
}

func (h *Handler) RefreshAccessToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := middlewares.TokenFromRequest(r, utils.REFRESH_TOKEN_COOKIE)
	if session, ok := middlewares.SessionFromContext(r.Context()); ok {
		claims, err := h.tokens.VerifyRefresh(refreshToken)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		// no access token here, so the session cookie is tied to the refresh token's owner
		if !sessions.BelongsTo(*session, claims.UserID) {
			h.fail(w, r, sessions.AsAppError(sessions.ErrInvalidSession))
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), utils.STORE_TIMEOUT)
	defer cancel()
	accessToken, err := h.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.setCookie(w, utils.ACCESS_TOKEN_COOKIE, accessToken, h.tokens.AccessTTL(), true)
	utils.WriteJSON(w, http.StatusOK, "Access token refreshed successfully", RefreshResponse{AccessToken: accessToken})
}

func (h *Handler) ChangeCurrentPassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	body, err := DecodeValidBody[ChangePasswordRequest](r)
	if err != nil {
		h.fail(w, r, invalidBody(utils.PASSWORD_FIELDS_REQUIRED, err))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), utils.STORE_TIMEOUT)
	defer cancel()
	if err := h.verifier.ChangePassword(ctx, user.ID, body.CurrentPassword, body.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "password changed", "user_id", user.ID)
	utils.WriteJSON(w, http.StatusOK, "Password changed successfully", struct{}{})
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Current user fetched successfully", user)
}

func (h *Handler) UpdateAccountDetails(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	body, err := DecodeValidBody[AccountDetailsRequest](r)
	if err != nil {
		h.fail(w, r, invalidBody(utils.ACCOUNT_FIELDS_REQUIRED, err))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), utils.STORE_TIMEOUT)
	defer cancel()
	updated, err := h.verifier.UpdateAccount(ctx, user.ID, body.FullName, body.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, "Account details updated successfully", updated)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: httpOnly,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}
