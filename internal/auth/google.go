package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/mmynk/hangout/internal/models"
	"github.com/mmynk/hangout/internal/storage"
)

const (
	GoogleAuthorizeEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenEndpoint     = "https://oauth2.googleapis.com/token"
	GoogleUserInfoAPI       = "https://openidconnect.googleapis.com/v1/userinfo"
)

var ErrGoogleEmailUnverified = errors.New("google account email is not verified")

// GoogleProfile is the subset of the OpenID userinfo response we use.
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleProvider runs the OAuth2 authorization code flow against Google.
type GoogleProvider struct {
	oauthConfig *oauth2.Config
	userInfoURL string
}

// GoogleOption customizes a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithGoogleEndpoints points the provider at different OAuth and userinfo
// URLs.
func WithGoogleEndpoints(endpoint oauth2.Endpoint, userInfoURL string) GoogleOption {
	return func(p *GoogleProvider) {
		p.oauthConfig.Endpoint = endpoint
		p.userInfoURL = userInfoURL
	}
}

// NewGoogleProvider creates a provider for the given OAuth client.
func NewGoogleProvider(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  GoogleAuthorizeEndpoint,
				TokenURL: GoogleTokenEndpoint,
			},
		},
		userInfoURL: GoogleUserInfoAPI,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthCodeURL returns the consent page URL carrying state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a token and fetches the profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	client := p.oauthConfig.Client(ctx, token)
	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed: %s", resp.Status)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if profile.Subject == "" {
		return nil, errors.New("user info has no subject")
	}
	return &profile, nil
}

// ResolveGoogleUser finds or creates the account for a Google profile.
// An existing password account with the same verified email is linked to
// the Google subject rather than duplicated.
func ResolveGoogleUser(ctx context.Context, users UserStorage, profile *GoogleProfile) (*models.User, error) {
	user, err := users.GetUserByGoogleID(ctx, profile.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if !profile.EmailVerified {
		return nil, ErrGoogleEmailUnverified
	}
	email, err := NormalizeEmail(profile.Email)
	if err != nil {
		return nil, err
	}

	user, err = users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		user.GoogleID = profile.Subject
		if user.Photo == "" {
			user.Photo = profile.Picture
		}
		user.UpdatedAt = time.Now().Unix()
		if err := users.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to link google account: %w", err)
		}
		return user, nil
	case errors.Is(err, storage.ErrNotFound):
		user = models.NewUser(email, profile.Name, "")
		user.GoogleID = profile.Subject
		user.Photo = profile.Picture
		if err := users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return user, nil
	default:
		return nil, err
	}
}
