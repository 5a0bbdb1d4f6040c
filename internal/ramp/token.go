package ramp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	apperrors "github.com/dvloznov/ramp-bills/internal/errors"
	"github.com/dvloznov/ramp-bills/internal/logger"
)

const (
	// DefaultTokenURL is the Ramp client-credentials endpoint.
	DefaultTokenURL = "https://api.ramp.com/developer/v1/token"

	// TokenKey is the credential store key holding the bearer token.
	TokenKey = "RAMP_API_TOKEN"
)

// DefaultScopes are the read-only scopes requested for the bills export.
var DefaultScopes = []string{"business:read", "transactions:read", "bills:read"}

// TokenStore persists a refreshed token.
type TokenStore interface {
	Set(key, value string) error
}

// TokenProvider exchanges client credentials for a bearer token.
type TokenProvider struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	HTTPClient   *http.Client
}

// NewTokenProvider builds a provider for the default Ramp token endpoint.
func NewTokenProvider(clientID, clientSecret string) *TokenProvider {
	return &TokenProvider{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     DefaultTokenURL,
		Scopes:       DefaultScopes,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Refresh performs one client-credentials exchange and writes the token to
// the store under TokenKey. The store is left untouched on any failure.
func (p *TokenProvider) Refresh(ctx context.Context, store TokenStore) (string, error) {
	log := logger.FromContext(ctx)

	if p.ClientID == "" || p.ClientSecret == "" {
		return "", apperrors.WrapError(nil, apperrors.ErrMissingCredential, "client ID or client secret is empty")
	}

	cfg := clientcredentials.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		TokenURL:     p.TokenURL,
		Scopes:       p.Scopes,
		// Basic auth with id and secret form-escaped first (RFC 6749 2.3.1).
		// For URL-safe Ramp credentials this is plain base64(id:secret).
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if p.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
	}

	log.Info().Str("token_url", cfg.TokenURL).Strs("scopes", cfg.Scopes).Msg("Requesting access token")

	tok, err := cfg.Token(ctx)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if apperrors.As(err, &rerr) && rerr.Response != nil {
			log.Error().
				Int("status", rerr.Response.StatusCode).
				Str("body", string(rerr.Body)).
				Msg("Failed to refresh token")
			return "", apperrors.WrapError(err, apperrors.ErrAuthRequestFailed,
				fmt.Sprintf("token endpoint returned status %d", rerr.Response.StatusCode))
		}
		log.Error().Err(err).Msg("Failed to refresh token")
		return "", apperrors.WrapError(err, apperrors.ErrAuthRequestFailed, "token request")
	}

	if err := store.Set(TokenKey, tok.AccessToken); err != nil {
		return "", apperrors.WrapError(err, apperrors.ErrStoreUnwritable, "persist "+TokenKey)
	}

	log.Info().Time("expiry", tok.Expiry).Msg("Access token refreshed and stored")
	return tok.AccessToken, nil
}
