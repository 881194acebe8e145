package session

import "time"

// Session records one authenticated device for a user. Sessions are never
// deleted; logout flips Active so login history survives.
type Session struct {
	ID         string
	UserID     string
	Token      string // the issued access token value, unique
	DeviceInfo string
	IPAddress  string
	UserAgent  string
	Active     bool
	CreatedAt  time.Time
	LastUsedAt time.Time
}
