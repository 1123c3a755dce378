package fcm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenEndpoint is Google's OAuth2 token exchange endpoint
	DefaultTokenEndpoint = "https://oauth2.googleapis.com/token"

	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	assertionLifetime = time.Hour
	// refreshSkew is how close to expiry a cached token is still trusted
	refreshSkew = 60 * time.Second
)

// ExchangeError is returned when the token endpoint rejects an assertion.
// It is fatal for the current dispatch attempt and is not retried.
type ExchangeError struct {
	StatusCode int
	Body       string // truncated response body
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: HTTP %d: %s", e.StatusCode, e.Body)
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// TokenManager exchanges service-account credentials for bearer tokens and
// caches them per provider config. The cache is process-local; entries are
// lost on restart and simply re-exchanged.
type TokenManager struct {
	httpClient *http.Client
	TokenURL   string

	now func() time.Time // injectable for tests

	mu    sync.Mutex
	cache map[string]cachedToken
}

// NewTokenManager creates a TokenManager against the default token endpoint
func NewTokenManager(httpClient *http.Client) *TokenManager {
	return &TokenManager{
		httpClient: httpClient,
		TokenURL:   DefaultTokenEndpoint,
		now:        time.Now,
		cache:      make(map[string]cachedToken),
	}
}

// AccessToken returns a bearer token for the service account, reusing the
// cached token while it has more than 60 seconds of validity left. The cache
// lookup is the hot path and makes no network call.
func (m *TokenManager) AccessToken(ctx context.Context, account ServiceAccount) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.cache[account.ConfigID]; ok {
		if cached.expiresAt.Sub(m.now()) > refreshSkew {
			return cached.token, nil
		}
	}

	assertion, err := m.signAssertion(account)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}

	token, lifetime, err := m.exchange(ctx, assertion)
	if err != nil {
		return "", err
	}

	m.cache[account.ConfigID] = cachedToken{
		token:     token,
		expiresAt: m.now().Add(lifetime),
	}

	log.Printf("[TokenManager] Exchanged credential for config %s (valid %s)", account.ConfigID, lifetime)
	return token, nil
}

// assertionClaims adds the OAuth scope claim to the registered JWT claim set
type assertionClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// signAssertion builds the RS256-signed JWT presented to the token endpoint
func (m *TokenManager) signAssertion(account ServiceAccount) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(account.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}

	now := m.now()
	claims := assertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    account.ClientEmail,
			Audience:  jwt.ClaimStrings{m.TokenURL},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
		},
		Scope: messagingScope,
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
}

func (m *TokenManager) exchange(ctx context.Context, assertion string) (string, time.Duration, error) {
	form := url.Values{
		"grant_type": {jwtBearerGrant},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, &ExchangeError{StatusCode: resp.StatusCode, Body: truncateBody(string(body))}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", 0, fmt.Errorf("token response carried no access_token")
	}

	return payload.AccessToken, time.Duration(payload.ExpiresIn) * time.Second, nil
}
