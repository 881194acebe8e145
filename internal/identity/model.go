package identity

import "time"

// Auth methods a user can sign up with.
const (
	MethodEmail  = "email"
	MethodGoogle = "google"
	MethodGithub = "github"
	MethodPhone  = "phone"
)

// User represents a registered member of the skill-exchange platform.
type User struct {
	ID              string
	Email           string
	PhoneNumber     string // empty when not supplied
	PasswordHash    []byte // nil for federated-only accounts
	FirstName       string
	LastName        string
	ProfilePhotoURL string
	IsVerified      bool
	IsAvailable     bool
	AuthMethod      string
	LastLoginAt     time.Time
	LastLoginDevice string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName renders the user's full name for notification templates.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// OAuthAccount links a User to an external provider identity. The pair
// (Provider, ProviderUserID) is unique across all accounts.
type OAuthAccount struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	AccessToken    string
	RefreshToken   string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}
