package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/authdiscovery/apiv1/config"
	"github.com/authdiscovery/apiv1/credentials"
	"github.com/authdiscovery/apiv1/dbhelper"
	"github.com/authdiscovery/apiv1/discovery"
	"github.com/authdiscovery/apiv1/middlewares"
	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/ratelimit"
	"github.com/authdiscovery/apiv1/sessions"
	"github.com/authdiscovery/apiv1/tokens"
	"github.com/authdiscovery/apiv1/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

var validate = validator.New()

const API_PREFIX = "/api/v1/users"

type Dependencies struct {
	Config   *config.Config
	Store    dbhelper.UserStore
	Verifier *credentials.Verifier
	Tokens   *tokens.Service
	Sessions *sessions.Tracker
	Limiter  ratelimit.Limiter
	Gate     *discovery.Gate
	Logger   *slog.Logger
}

type Handler struct {
	cfg       *config.Config
	verifier  *credentials.Verifier
	tokens    *tokens.Service
	sessions  *sessions.Tracker
	gate      *discovery.Gate
	logger    *slog.Logger
	startedAt time.Time

	auth      *middlewares.Authenticator
	guard     *middlewares.SessionGuard
	sensitive *middlewares.RateLimiter
	throttle  func(http.Handler) http.Handler
}

func newHandler(deps Dependencies) *Handler {
	expose := deps.Config.IsDevelopment()
	return &Handler{
		cfg:       deps.Config,
		verifier:  deps.Verifier,
		tokens:    deps.Tokens,
		sessions:  deps.Sessions,
		gate:      deps.Gate,
		logger:    deps.Logger,
		startedAt: time.Now(),
		auth:      middlewares.NewAuthenticator(deps.Tokens, deps.Store, deps.Logger, expose),
		guard:     middlewares.NewSessionGuard(deps.Sessions, deps.Logger, expose),
		sensitive: middlewares.NewRateLimiter(deps.Limiter, utils.SENSITIVE_MAX_REQUESTS, utils.SENSITIVE_WINDOW, deps.Logger, expose),
		throttle:  middlewares.Throttle(deps.Config.AuthThrottleRPS),
	}
}

func CreateRoutes(r *mux.Router, deps Dependencies) {
	h := newHandler(deps)
	logged := middlewares.RequestLogger(deps.Logger)
	r.Use(logged)
	// mux skips Use middleware when no route matches
	r.NotFoundHandler = logged(http.HandlerFunc(h.NotFound))
	HealthRouter(r, h)
	s := r.PathPrefix(API_PREFIX).Subrouter()
	AuthRouter(s, h)
	DiscoveryRouter(s, h)
}

// chain wraps f in mws; the first middleware runs first.
func chain(f http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
	var handler http.Handler = f
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	utils.RespondError(w, r, h.logger, err, h.cfg.IsDevelopment())
}

// currentUser returns the user attached by the access-token middleware.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middlewares.UserFromContext(r.Context())
	if !ok {
		h.fail(w, r, utils.NewError(utils.KindUnauthorized, utils.UNAUTHORIZED_REQUEST))
		return nil, false
	}
	return user, true
}
