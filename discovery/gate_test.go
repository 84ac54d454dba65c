package discovery

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/authdiscovery/apiv1/dbhelper"
	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (*Gate, *models.User) {
	t.Helper()
	store := dbhelper.NewMemoryUserStore()
	user := &models.User{
		ID:           "3f1c2e9a-0000-4000-8000-0000000000a7",
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice",
		PasswordHash: "x",
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	gate := NewGate(store, Config{
		SecretKey:     "your-super-secret-key-12345",
		EncryptionKey: "enc",
		HMACSecret:    "hmac",
		Configured:    map[string]bool{"jwtSecret": true, "dbConnection": false},
	}, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return gate, user
}

func at(hour, minute int) func() time.Time {
	return func() time.Time { return time.Date(2024, 5, 10, hour, minute, 0, 0, time.UTC) }
}

func TestAccessCode(t *testing.T) {
	user := &models.User{ID: "3f1c2e9a-0000-4000-8000-0000000000a7", Username: "alice"}
	assert.Equal(t, "514a7", AccessCode(user, time.Date(2024, 5, 10, 14, 5, 0, 0, time.UTC), time.UTC))
	assert.Equal(t, "50a7", AccessCode(user, time.Date(2024, 5, 10, 0, 30, 0, 0, time.UTC), time.UTC))

	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "523a7", AccessCode(user, time.Date(2024, 5, 10, 14, 5, 0, 0, time.UTC), tokyo))

	unicode := &models.User{ID: "x1", Username: "żółw"}
	assert.Equal(t, "49x1", AccessCode(unicode, time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC), time.UTC))
}

func TestAdminPanel(t *testing.T) {
	gate, user := newTestGate(t)
	panel, err := gate.AdminPanel(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, MaintenanceCode, panel.SystemLogs.MaintenanceCode)
	assert.Equal(t, DiagnosticsEndpoint, panel.SystemLogs.DebugEndpoint)
	assert.EqualValues(t, 1, panel.DatabaseStats.TotalUsers)
	assert.Equal(t, "***CONFIGURED***", panel.SystemSecrets["jwtSecret"])
	assert.Equal(t, "NOT SET", panel.SystemSecrets["dbConnection"])
	assert.Equal(t, user.ID, panel.User.ID)
}

func TestDiagnostics(t *testing.T) {
	gate, user := newTestGate(t)
	gate.SetClock(at(14, 5))

	_, err := gate.Diagnostics(user, "DIAG_0000")
	require.Error(t, err)
	appErr := utils.AsAppError(err)
	assert.Equal(t, utils.KindForbidden, appErr.Kind)
	assert.Equal(t, "Check system logs for the current maintenance code", appErr.Hint)

	_, err = gate.Diagnostics(user, "")
	assert.Equal(t, utils.KindForbidden, utils.KindOf(err))

	diag, err := gate.Diagnostics(user, MaintenanceCode)
	require.NoError(t, err)
	assert.Equal(t, "514a7", diag.InternalNotes.Pattern)
}

func TestSecretKey(t *testing.T) {
	ctx := context.Background()
	gate, user := newTestGate(t)
	gate.SetClock(at(14, 59))

	diag, err := gate.Diagnostics(user, MaintenanceCode)
	require.NoError(t, err)
	code := diag.InternalNotes.Pattern

	secret, err := gate.SecretKey(ctx, user, code)
	require.NoError(t, err)
	assert.Equal(t, "your-super-secret-key-12345", secret.SecretKey)
	assert.Len(t, secret.DiscoveryPath, 5)

	// a code fetched at 14:59 is stale at 15:00
	gate.SetClock(at(15, 0))
	_, err = gate.SecretKey(ctx, user, code)
	require.Error(t, err)
	appErr := utils.AsAppError(err)
	assert.Equal(t, utils.KindForbidden, appErr.Kind)
	assert.Equal(t, "Access codes are time-sensitive and user-specific", appErr.Hint)

	_, err = gate.SecretKey(ctx, user, "")
	assert.Equal(t, utils.KindInvalidInput, utils.KindOf(err))
}

func TestSecretKey_CodeIsUserSpecific(t *testing.T) {
	gate, alice := newTestGate(t)
	gate.SetClock(at(9, 0))
	bob := &models.User{ID: "0000000000b2", Username: "bobby"}

	_, err := gate.SecretKey(context.Background(), bob, AccessCode(alice, at(9, 0)(), time.UTC))
	assert.Equal(t, utils.KindForbidden, utils.KindOf(err))
}

func TestVaultAndAnalytics(t *testing.T) {
	gate, user := newTestGate(t)
	gate.SetClock(at(12, 0))

	loginTime := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	vault := gate.Vault(user, &models.SessionDescriptor{SessionID: "s", LoginTime: loginTime})
	assert.Equal(t, loginTime, vault.AccessGrantedTo.LoginTime)
	assert.Equal(t, "enc", vault.VaultContents["encryptionKeys"]["aes256"])

	vault = gate.Vault(user, nil)
	assert.Equal(t, at(12, 0)(), vault.AccessGrantedTo.LoginTime)

	user.CreatedAt = time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)
	analytics := gate.Analytics(user, "10.0.0.9")
	assert.Equal(t, 2.0, analytics.AccountAgeDays)
	assert.Equal(t, "10.0.0.9", analytics.SecurityMetrics.LastKnownIP)
	assert.False(t, analytics.SecurityMetrics.ActiveSession)
}
