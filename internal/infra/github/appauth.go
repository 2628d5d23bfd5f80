package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Assertion lifetime: issued-at is skewed into the past to absorb clock
// drift between us and the API; GitHub caps the expiry at ten minutes.
const (
	assertionSkew   = 60 * time.Second
	assertionExpiry = 10 * time.Minute
)

// AppAuthenticator exchanges a GitHub App identity plus private key for a
// short-lived installation access token. Tokens are not cached: each sync
// pass mints a fresh one.
type AppAuthenticator struct {
	httpClient *http.Client
	baseURL    string
}

// NewAppAuthenticator creates an authenticator against the given API base URL.
func NewAppAuthenticator(baseURL string, timeout time.Duration) *AppAuthenticator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AppAuthenticator{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// MintToken signs an RS256 app assertion and exchanges it for an
// installation token. Returns ErrAuthFailed when the key is unusable or the
// exchange does not yield a token.
func (a *AppAuthenticator) MintToken(ctx context.Context, appID, privateKeyPEM, installationID string) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", ErrAuthFailed.Wrap(fmt.Errorf("parse private key: %w", err))
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-assertionSkew)),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionExpiry)),
		Issuer:    appID,
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", ErrAuthFailed.Wrap(fmt.Errorf("sign assertion: %w", err))
	}

	url := fmt.Sprintf("%s/app/installations/%s/access_tokens", a.baseURL, installationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", ErrAuthFailed.Wrap(err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+assertion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", ErrAuthFailed.Wrap(err)
	}
	defer resp.Body.Close()

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", ErrAuthFailed.Wrap(fmt.Errorf("decode token response: %w", err))
	}

	if body.Token == "" {
		return "", ErrAuthFailed.Wrap(fmt.Errorf("token exchange returned status %d without a token", resp.StatusCode))
	}

	return body.Token, nil
}
