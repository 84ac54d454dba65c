package middlewares

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/authdiscovery/apiv1/ratelimit"
	"github.com/authdiscovery/apiv1/utils"
	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
)

type RateLimiter struct {
	limiter      ratelimit.Limiter
	limit        int
	window       time.Duration
	logger       *slog.Logger
	exposeErrors bool
}

func NewRateLimiter(l ratelimit.Limiter, limit int, window time.Duration, logger *slog.Logger, exposeErrors bool) *RateLimiter {
	return &RateLimiter{limiter: l, limit: limit, window: window, logger: logger, exposeErrors: exposeErrors}
}

// RateLimitKey identifies the caller: the user ID when authenticated,
// otherwise the client address.
func RateLimitKey(r *http.Request) string {
	if user, ok := UserFromContext(r.Context()); ok {
		return utils.RATE_LIMIT_KEY_PREFIX + user.ID
	}
	return utils.RATE_LIMIT_KEY_PREFIX + ClientIP(r)
}

// RateLimitSensitive counts the request against the caller's window and
// answers 429 once the window is exhausted.
func (rl *RateLimiter) RateLimitSensitive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, err := rl.limiter.Admit(r.Context(), RateLimitKey(r), rl.limit, rl.window)
		if err != nil {
			utils.RespondError(w, r, rl.logger, utils.WrapError(utils.KindInternal, utils.INTERNAL_SERVER_ERROR, err), rl.exposeErrors)
			return
		}
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		h.Set("X-RateLimit-Reset", decision.ResetAt.UTC().Format(time.RFC3339))
		if !decision.Allowed {
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			rl.logger.WarnContext(r.Context(), "rate limit exceeded", "path", r.URL.Path, "key", RateLimitKey(r))
			utils.RespondError(w, r, rl.logger,
				utils.NewError(utils.KindRateLimited, utils.TOO_MANY_REQUESTS+" "+utils.RetryMessage(decision.RetryAfter)),
				rl.exposeErrors)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Throttle caps requests per second per client address on the public
// authentication routes.
func Throttle(requestsPerSecond float64) func(http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(requestsPerSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookups(IPLookups)
	lmt.SetMessageContentType("application/json")
	lmt.SetMessage(`{"statusCode":429,"success":false,"message":"Too many requests. Please slow down."}`)
	return func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	}
}
