// Package sessions creates the client-held session descriptor at login and
// checks its age on later requests. Expiry is measured from login time,
// never from last activity.
package sessions

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/utils"
	"github.com/google/uuid"
)

var (
	ErrSessionExpired = errors.New("session expired")
	ErrInvalidSession = errors.New("invalid session data")
)

type Tracker struct {
	maxAge time.Duration
	now    func() time.Time
}

func NewTracker(maxAge time.Duration) *Tracker {
	if maxAge <= 0 {
		maxAge = utils.SESSION_MAX_AGE
	}
	return &Tracker{maxAge: maxAge, now: time.Now}
}

// SetClock replaces the time source.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

func (t *Tracker) Now() time.Time {
	return t.now()
}

func (t *Tracker) MaxAge() time.Duration {
	return t.maxAge
}

func (t *Tracker) Begin(userID, userAgent, ipAddress string) models.SessionDescriptor {
	now := t.now().UTC()
	return models.SessionDescriptor{
		SessionID: fmt.Sprintf("sess_%d_%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")),
		UserID:    userID,
		LoginTime: now,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}
}

// BelongsTo reports whether d may be presented by userID. Descriptors
// without a user are accepted for anyone.
func BelongsTo(d models.SessionDescriptor, userID string) bool {
	return d.UserID == "" || d.UserID == userID
}

func (t *Tracker) Validate(d models.SessionDescriptor) error {
	if d.SessionID == "" || d.LoginTime.IsZero() {
		return ErrInvalidSession
	}
	if t.now().Sub(d.LoginTime) > t.maxAge {
		return ErrSessionExpired
	}
	return nil
}

// Encode renders d as a cookie-safe string.
func Encode(d models.SessionDescriptor) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func Decode(value string) (models.SessionDescriptor, error) {
	var d models.SessionDescriptor
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return d, nil
}

// AsAppError maps tracker errors onto the HTTP taxonomy.
func AsAppError(err error) *utils.AppError {
	if errors.Is(err, ErrSessionExpired) {
		return utils.WrapError(utils.KindUnauthorized, utils.SESSION_EXPIRED, err)
	}
	return utils.WrapError(utils.KindUnauthorized, utils.INVALID_SESSION, err)
}
