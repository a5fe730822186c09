package teamleader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/oauth2"
)

var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://app.teamleader.eu/oauth2/authorize",
	TokenURL:  "https://app.teamleader.eu/oauth2/access_token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// ErrNotAuthenticated is returned when no token has been cached yet.
var ErrNotAuthenticated = errors.New("not authenticated with Teamleader, run 'teamtime auth login' first")

// Auth runs the authorization-code flow and keeps the cached token fresh.
type Auth struct {
	config *oauth2.Config
	store  TokenStore
	logger *slog.Logger
}

func NewAuth(clientID, clientSecret, redirectURL string, store TokenStore, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Auth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     Endpoint,
		},
		store:  store,
		logger: logger,
	}
}

// WithEndpoint points the flow at different authorize/token URLs.
func (a *Auth) WithEndpoint(e oauth2.Endpoint) *Auth {
	a.config.Endpoint = e
	return a
}

func (a *Auth) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and caches it.
func (a *Auth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := a.store.Save(token); err != nil {
		return nil, err
	}
	return token, nil
}

// AccessToken returns a valid bearer token, refreshing the cached one when it
// has expired.
func (a *Auth) AccessToken(ctx context.Context) (string, error) {
	cached, err := a.store.Load()
	if err != nil {
		return "", fmt.Errorf("loading cached token: %w", err)
	}
	if cached == nil {
		return "", ErrNotAuthenticated
	}

	token, err := a.config.TokenSource(ctx, cached).Token()
	if err != nil {
		return "", fmt.Errorf("token refresh failed (run 'teamtime auth login' to re-authenticate): %w", err)
	}

	if token.AccessToken != cached.AccessToken {
		a.logger.Debug("access token refreshed")
		if err := a.store.Save(token); err != nil {
			a.logger.Warn("failed to cache refreshed token", "error", err)
		}
	}
	return token.AccessToken, nil
}

// Status reports the cached token, if any.
func (a *Auth) Status() (*oauth2.Token, error) {
	return a.store.Load()
}
