package discovery

import (
	"math"
	"time"

	"github.com/authdiscovery/apiv1/models"
)

type AccessGrant struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	LoginTime time.Time `json:"loginTime"`
}

type Vault struct {
	Message         string                       `json:"message"`
	VaultContents   map[string]map[string]string `json:"vaultContents"`
	SecurityLevel   string                       `json:"securityLevel"`
	AccessGrantedTo AccessGrant                  `json:"accessGrantedTo"`
	VaultVersion    string                       `json:"vaultVersion"`
}

// Vault needs authentication only and sits outside the ladder.
func (g *Gate) Vault(user *models.User, session *models.SessionDescriptor) *Vault {
	loginTime := g.now().UTC()
	if session != nil {
		loginTime = session.LoginTime
	}
	return &Vault{
		Message: "Access granted to secure vault",
		VaultContents: map[string]map[string]string{
			"apiKeys": {
				"stripe":   "sk_test_***REDACTED***",
				"sendgrid": "SG.***REDACTED***",
				"aws":      "AKIA***REDACTED***",
			},
			"databaseCredentials": {
				"host":     "***PROTECTED***",
				"username": "***PROTECTED***",
				"password": "***PROTECTED***",
			},
			"encryptionKeys": {
				"aes256": g.cfg.EncryptionKey,
				"hmac":   g.cfg.HMACSecret,
			},
		},
		SecurityLevel: "MAXIMUM",
		AccessGrantedTo: AccessGrant{
			UserID:    user.ID,
			Username:  user.Username,
			Email:     user.Email,
			LoginTime: loginTime,
		},
		VaultVersion: "2.1.0",
	}
}

type SecurityMetrics struct {
	LoginAttempts int    `json:"loginAttempts"`
	LastKnownIP   string `json:"lastKnownIP"`
	ActiveSession bool   `json:"activeSession"`
}

type Analytics struct {
	Message         string          `json:"message"`
	Profile         *models.User    `json:"profile"`
	AccountAgeDays  float64         `json:"accountAge"`
	SecurityMetrics SecurityMetrics `json:"securityMetrics"`
	PrivacyLevel    string          `json:"privacyLevel"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// Analytics summarises the caller's own account.
func (g *Gate) Analytics(user *models.User, ipAddress string) *Analytics {
	now := g.now().UTC()
	ageDays := now.Sub(user.CreatedAt).Hours() / 24
	return &Analytics{
		Message:        "Personal analytics dashboard",
		Profile:        user,
		AccountAgeDays: math.Round(ageDays*100) / 100,
		SecurityMetrics: SecurityMetrics{
			LoginAttempts: 1,
			LastKnownIP:   ipAddress,
			ActiveSession: user.HasLiveSession(),
		},
		PrivacyLevel: "PERSONAL",
		GeneratedAt:  now,
	}
}
