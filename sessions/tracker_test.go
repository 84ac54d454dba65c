package sessions

import (
	"strings"
	"testing"
	"time"

	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBegin(t *testing.T) {
	loginTime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(24 * time.Hour)
	tr.SetClock(func() time.Time { return loginTime })

	a := tr.Begin("u1", "curl/8.0", "10.0.0.1")
	b := tr.Begin("u1", "curl/8.0", "10.0.0.1")
	assert.True(t, strings.HasPrefix(a.SessionID, "sess_"))
	assert.NotEqual(t, a.SessionID, b.SessionID)
	assert.Equal(t, loginTime, a.LoginTime)
	assert.Equal(t, "curl/8.0", a.UserAgent)
	assert.Equal(t, "10.0.0.1", a.IPAddress)
	assert.True(t, BelongsTo(a, "u1"))
	assert.False(t, BelongsTo(a, "u2"))
	assert.True(t, BelongsTo(models.SessionDescriptor{SessionID: "s"}, "u2"))
}

func TestValidate(t *testing.T) {
	loginTime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTracker(24 * time.Hour)
	tr.SetClock(func() time.Time { return loginTime })
	d := tr.Begin("u1", "ua", "ip")

	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "fresh", elapsed: 0},
		{name: "just under a day", elapsed: 23*time.Hour + 59*time.Minute},
		{name: "exactly a day", elapsed: 24 * time.Hour},
		{name: "just over a day", elapsed: 24*time.Hour + time.Minute, wantErr: ErrSessionExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr.SetClock(func() time.Time { return loginTime.Add(tt.elapsed) })
			err := tr.Validate(d)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.ErrorIs(t, tr.Validate(models.SessionDescriptor{}), ErrInvalidSession)
}

func TestEncodeDecode(t *testing.T) {
	tr := NewTracker(0)
	assert.Equal(t, utils.SESSION_MAX_AGE, tr.MaxAge())

	d := tr.Begin("u1", "Mozilla/5.0", "192.168.1.4")
	encoded, err := Encode(d)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "=")

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, d.SessionID, decoded.SessionID)
	assert.True(t, d.LoginTime.Equal(decoded.LoginTime))
	assert.NoError(t, tr.Validate(decoded))
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode("%%%not-base64")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = Decode("bm90IGpzb24") // "not json"
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestAsAppError(t *testing.T) {
	expired := AsAppError(ErrSessionExpired)
	assert.Equal(t, utils.KindUnauthorized, expired.Kind)
	assert.Equal(t, utils.SESSION_EXPIRED, expired.Message)

	invalid := AsAppError(ErrInvalidSession)
	assert.Equal(t, utils.KindUnauthorized, invalid.Kind)
	assert.Equal(t, utils.INVALID_SESSION, invalid.Message)
}
