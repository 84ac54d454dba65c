// Package discovery implements the three-stage discovery ladder:
//
//	admin-panel        reveals the fixed maintenance code
//	system/diagnostics takes the maintenance code, reveals the access code
//	secret-key         takes the access code, reveals the configured secret
//
// Nothing about a caller's progress is stored. The access code is derived
// from the caller and the current hour every time it is handed out or
// checked, so a code fetched at 10:59 is rejected at 11:00.
package discovery

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"runtime"
	"time"
	"unicode/utf8"

	"github.com/authdiscovery/apiv1/dbhelper"
	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/utils"
)

const (
	MaintenanceCode     = "DIAG_7834"
	DiagnosticsEndpoint = "/system/diagnostics"
	SecretKeyEndpoint   = "/secret-key"
)

type Config struct {
	SecretKey     string
	EncryptionKey string
	HMACSecret    string
	// Location fixes the clock used for the hourly access-code bucket.
	Location *time.Location
	// Configured reports which deployment secrets are set, by name.
	Configured map[string]bool
}

type Gate struct {
	store     dbhelper.UserStore
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
	startedAt time.Time
}

func NewGate(store dbhelper.UserStore, cfg Config, logger *slog.Logger) *Gate {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	return &Gate{
		store:     store,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		startedAt: now,
	}
}

// SetClock replaces the time source.
func (g *Gate) SetClock(now func() time.Time) {
	g.now = now
}

// AccessCode derives the stage-three code for user at t: the username
// length, the hour of t in loc (not zero-padded) and the last two
// characters of the user ID, concatenated.
func AccessCode(user *models.User, t time.Time, loc *time.Location) string {
	suffix := user.ID
	if len(suffix) > 2 {
		suffix = suffix[len(suffix)-2:]
	}
	return fmt.Sprintf("%d%d%s", utf8.RuneCountInString(user.Username), t.In(loc).Hour(), suffix)
}

func (g *Gate) currentAccessCode(user *models.User) string {
	return AccessCode(user, g.now(), g.cfg.Location)
}

type ServerInfo struct {
	GoVersion     string  `json:"goVersion"`
	Platform      string  `json:"platform"`
	UptimeSeconds float64 `json:"uptime"`
	HeapAlloc     uint64  `json:"heapAlloc"`
	Sys           uint64  `json:"sys"`
	Goroutines    int     `json:"goroutines"`
}

type DatabaseStats struct {
	ConnectionStatus string `json:"connectionStatus"`
	TotalUsers       int64  `json:"totalUsers"`
	ActiveUsers      int64  `json:"activeUsers"`
}

type SystemLogs struct {
	LastMaintenance string `json:"lastMaintenance"`
	NextScheduled   string `json:"nextScheduled"`
	DebugEndpoint   string `json:"debugEndpoint"`
	MaintenanceCode string `json:"maintenanceCode"`
}

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

type AdminPanel struct {
	Message       string            `json:"message"`
	ServerInfo    ServerInfo        `json:"serverInfo"`
	DatabaseStats DatabaseStats     `json:"databaseStats"`
	SystemSecrets map[string]string `json:"systemSecrets"`
	AccessLevel   string            `json:"accessLevel"`
	User          UserSummary       `json:"user"`
	SystemLogs    SystemLogs        `json:"systemLogs"`
	Timestamp     time.Time         `json:"timestamp"`
}

// AdminPanel is stage one: any authenticated caller gets it, and it carries
// the maintenance code for stage two.
func (g *Gate) AdminPanel(ctx context.Context, user *models.User) (*AdminPanel, error) {
	total, active, err := g.store.CountUsers(ctx)
	if err != nil {
		return nil, utils.WrapError(utils.KindInternal, utils.INTERNAL_SERVER_ERROR, err)
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	secrets := make(map[string]string, len(g.cfg.Configured))
	for name, ok := range g.cfg.Configured {
		if ok {
			secrets[name] = "***CONFIGURED***"
		} else {
			secrets[name] = "NOT SET"
		}
	}

	return &AdminPanel{
		Message: "Welcome to the Admin Panel",
		ServerInfo: ServerInfo{
			GoVersion:     runtime.Version(),
			Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			UptimeSeconds: g.now().Sub(g.startedAt).Seconds(),
			HeapAlloc:     mem.HeapAlloc,
			Sys:           mem.Sys,
			Goroutines:    runtime.NumGoroutine(),
		},
		DatabaseStats: DatabaseStats{
			ConnectionStatus: "Connected",
			TotalUsers:       total,
			ActiveUsers:      active,
		},
		SystemSecrets: secrets,
		AccessLevel:   "ADMIN",
		User: UserSummary{
			ID:       user.ID,
			Username: user.Username,
			Role:     "authenticated_user",
		},
		SystemLogs: SystemLogs{
			LastMaintenance: "2024-01-15T10:30:00Z",
			NextScheduled:   "2024-02-15T02:00:00Z",
			DebugEndpoint:   DiagnosticsEndpoint,
			MaintenanceCode: MaintenanceCode,
		},
		Timestamp: g.now().UTC(),
	}, nil
}

type InternalNotes struct {
	Reminder    string `json:"reminder"`
	Pattern     string `json:"pattern"`
	Instruction string `json:"instruction"`
}

type Diagnostics struct {
	Message        string            `json:"message"`
	SystemHealth   map[string]string `json:"systemHealth"`
	SecurityStatus map[string]string `json:"securityStatus"`
	InternalNotes  InternalNotes     `json:"internalNotes"`
	Timestamp      time.Time         `json:"timestamp"`
}

// Diagnostics is stage two.
func (g *Gate) Diagnostics(user *models.User, maintenanceCode string) (*Diagnostics, error) {
	if maintenanceCode == "" || subtle.ConstantTimeCompare([]byte(maintenanceCode), []byte(MaintenanceCode)) != 1 {
		return nil, utils.NewError(utils.KindForbidden, "Valid maintenance code required").
			WithHint("Check system logs for the current maintenance code")
	}
	return &Diagnostics{
		Message: "System diagnostics accessed successfully",
		SystemHealth: map[string]string{
			"cpu":     "Normal",
			"memory":  "Optimal",
			"disk":    "Good",
			"network": "Stable",
		},
		SecurityStatus: map[string]string{
			"firewall":   "Active",
			"encryption": "AES-256",
			"lastScan":   "2024-01-20T14:22:00Z",
		},
		InternalNotes: InternalNotes{
			Reminder:    "Secret vault requires special access pattern",
			Pattern:     g.currentAccessCode(user),
			Instruction: "Use this pattern as 'accessCode' parameter in vault endpoint",
		},
		Timestamp: g.now().UTC(),
	}, nil
}

type Secret struct {
	Message        string      `json:"message"`
	SecretKey      string      `json:"secretKey"`
	Achievement    string      `json:"achievement"`
	DiscoveryPath  []string    `json:"discoveryPath"`
	User           UserSummary `json:"user"`
	UnlockedAt     time.Time   `json:"unlockedAt"`
	SpecialMessage string      `json:"specialMessage"`
}

// SecretKey is stage three.
func (g *Gate) SecretKey(ctx context.Context, user *models.User, accessCode string) (*Secret, error) {
	if accessCode == "" {
		return nil, utils.NewError(utils.KindInvalidInput, "Special access code needed for secret key").
			WithHint("Run system diagnostics to obtain the current access code")
	}
	if subtle.ConstantTimeCompare([]byte(accessCode), []byte(g.currentAccessCode(user))) != 1 {
		return nil, utils.NewError(utils.KindForbidden, "Access code is incorrect or expired").
			WithHint("Access codes are time-sensitive and user-specific")
	}
	g.logger.InfoContext(ctx, "secret key unlocked", "user_id", user.ID, "username", user.Username)
	return &Secret{
		Message:     "Congratulations! You've successfully navigated the discovery process!",
		SecretKey:   g.cfg.SecretKey,
		Achievement: "Master Investigator",
		DiscoveryPath: []string{
			"1. Investigated admin panel system logs",
			"2. Found hidden diagnostics endpoint",
			"3. Used maintenance code to access diagnostics",
			"4. Discovered dynamic access pattern",
			"5. Successfully accessed secret key",
		},
		User: UserSummary{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
		UnlockedAt:     g.now().UTC(),
		SpecialMessage: "Your investigative skills have proven worthy of this secret!",
	}, nil
}
