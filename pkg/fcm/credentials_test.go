package fcm

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServiceAccount(t *testing.T) ServiceAccount {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	return ServiceAccount{
		ConfigID:    "cfg-1",
		ClientEmail: "dispatch@demo-project.iam.gserviceaccount.com",
		PrivateKey:  string(pemBytes),
		ProjectID:   "demo-project",
	}
}

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()

	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	return NewTokenManager(client)
}

func TestTokenManager_ExchangeAndCache(t *testing.T) {
	manager := newTestTokenManager(t)

	current := time.Unix(1700000000, 0)
	manager.now = func() time.Time { return current }

	var assertions []string
	httpmock.RegisterResponder("POST", DefaultTokenEndpoint,
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", req.PostFormValue("grant_type"))
			assertions = append(assertions, req.PostFormValue("assertion"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"access_token": "bearer-1",
				"expires_in":   3600,
			})
		})

	account := testServiceAccount(t)

	token, err := manager.AccessToken(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, "bearer-1", token)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	// Well inside the token lifetime: served from cache, no network call
	current = current.Add(30 * time.Minute)
	token, err = manager.AccessToken(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, "bearer-1", token)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	// Within 60 seconds of expiry: refreshed via a second exchange
	current = current.Add(30*time.Minute - 30*time.Second)
	_, err = manager.AccessToken(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())

	require.Len(t, assertions, 2)
}

func TestTokenManager_AssertionClaims(t *testing.T) {
	manager := newTestTokenManager(t)

	issuedAt := time.Unix(1700000000, 0)
	manager.now = func() time.Time { return issuedAt }

	var assertion string
	httpmock.RegisterResponder("POST", DefaultTokenEndpoint,
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			assertion = req.PostFormValue("assertion")
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"access_token": "bearer-1",
				"expires_in":   3600,
			})
		})

	account := testServiceAccount(t)
	_, err := manager.AccessToken(context.Background(), account)
	require.NoError(t, err)
	require.NotEmpty(t, assertion)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(assertion, claims)
	require.NoError(t, err)

	assert.Equal(t, account.ClientEmail, claims["iss"])
	audience, err := claims.GetAudience()
	require.NoError(t, err)
	require.Len(t, audience, 1)
	assert.Equal(t, DefaultTokenEndpoint, audience[0])
	assert.Equal(t, "https://www.googleapis.com/auth/firebase.messaging", claims["scope"])
	assert.EqualValues(t, issuedAt.Unix(), claims["iat"])
	assert.EqualValues(t, issuedAt.Add(time.Hour).Unix(), claims["exp"])
}

func TestTokenManager_ExchangeRejected(t *testing.T) {
	manager := newTestTokenManager(t)

	longBody := strings.Repeat("x", 500)
	httpmock.RegisterResponder("POST", DefaultTokenEndpoint,
		httpmock.NewStringResponder(http.StatusBadRequest, longBody))

	_, err := manager.AccessToken(context.Background(), testServiceAccount(t))
	require.Error(t, err)

	var exchangeErr *ExchangeError
	require.True(t, errors.As(err, &exchangeErr))
	assert.Equal(t, http.StatusBadRequest, exchangeErr.StatusCode)
	assert.Len(t, exchangeErr.Body, 200) // body is truncated before it can leak anywhere
}

func TestTokenManager_InvalidPrivateKey(t *testing.T) {
	manager := newTestTokenManager(t)

	account := testServiceAccount(t)
	account.PrivateKey = "not a pem key"

	_, err := manager.AccessToken(context.Background(), account)
	require.Error(t, err)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}
