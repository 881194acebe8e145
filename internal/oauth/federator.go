package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Providers supported for federated login.
const (
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubUserURL     = "https://api.github.com/user"
)

// ErrProviderRejected signals a non-2xx response or malformed payload from
// the provider's userinfo endpoint.
var ErrProviderRejected = errors.New("oauth provider rejected token")

// Profile is the provider-agnostic shape both Google and GitHub payloads
// normalize into.
type Profile struct {
	ProviderUserID string
	Email          string
	FirstName      string
	LastName       string
	AvatarURL      string
}

// Federator exchanges provider access tokens for normalized profiles.
type Federator struct {
	client    *http.Client
	googleURL string
	githubURL string
}

// NewFederator builds a federator whose outbound calls are bounded by the
// given timeout.
func NewFederator(timeout time.Duration) *Federator {
	return &Federator{
		client:    &http.Client{Timeout: timeout},
		googleURL: googleUserInfoURL,
		githubURL: githubUserURL,
	}
}

// ResolveIdentity fetches the user profile from the provider's userinfo
// endpoint with the supplied bearer token and normalizes it.
func (f *Federator) ResolveIdentity(ctx context.Context, provider, accessToken string) (Profile, error) {
	var url string
	switch provider {
	case ProviderGoogle:
		url = f.googleURL
	case ProviderGithub:
		url = f.githubURL
	default:
		return Profile{}, fmt.Errorf("unsupported oauth provider %q", provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Profile{}, fmt.Errorf("%w: %s returned %d", ErrProviderRejected, provider, resp.StatusCode)
	}

	switch provider {
	case ProviderGoogle:
		return decodeGoogle(resp.Body)
	default:
		return decodeGithub(resp.Body)
	}
}

func decodeGoogle(body io.Reader) (Profile, error) {
	var payload struct {
		ID         string `json:"id"`
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return Profile{}, fmt.Errorf("%w: decode google payload: %v", ErrProviderRejected, err)
	}
	if payload.ID == "" {
		return Profile{}, fmt.Errorf("%w: google payload missing id", ErrProviderRejected)
	}
	return Profile{
		ProviderUserID: payload.ID,
		Email:          payload.Email,
		FirstName:      payload.GivenName,
		LastName:       payload.FamilyName,
		AvatarURL:      payload.Picture,
	}, nil
}

func decodeGithub(body io.Reader) (Profile, error) {
	var payload struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return Profile{}, fmt.Errorf("%w: decode github payload: %v", ErrProviderRejected, err)
	}
	if payload.ID == 0 {
		return Profile{}, fmt.Errorf("%w: github payload missing id", ErrProviderRejected)
	}
	// GitHub has a single display name. First word is the first name, the
	// remainder the last name, empty when absent.
	first, last := splitName(payload.Name)
	return Profile{
		ProviderUserID: strconv.FormatInt(payload.ID, 10),
		Email:          payload.Email,
		FirstName:      first,
		LastName:       last,
		AvatarURL:      payload.AvatarURL,
	}, nil
}

func splitName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
