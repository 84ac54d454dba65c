package models

import "time"

// SessionDescriptor is held by the client and re-validated on every
// request. The server never stores it.
type SessionDescriptor struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId,omitempty"`
	LoginTime time.Time `json:"loginTime"`
	UserAgent string    `json:"userAgent"`
	IPAddress string    `json:"ipAddress"`
}

// SessionInfo is the per-request view attached by the session middleware.
type SessionInfo struct {
	SessionID   string    `json:"sessionId,omitempty"`
	UserAgent   string    `json:"userAgent"`
	IPAddress   string    `json:"ipAddress"`
	Timestamp   time.Time `json:"timestamp"`
	RequestPath string    `json:"requestPath"`
	Method      string    `json:"method"`
}
