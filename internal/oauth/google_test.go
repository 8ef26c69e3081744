package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"katalog/internal/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// discoveryServer serves a minimal OIDC discovery document whose token
// endpoint rejects every code.
func discoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                                srv.URL,
			"authorization_endpoint":                srv.URL + "/auth",
			"token_endpoint":                        srv.URL + "/token",
			"jwks_uri":                              srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewGoogleProvider_RequiresCredentials(t *testing.T) {
	_, err := oauth.NewGoogleProvider(context.Background(), oauth.GoogleConfig{ClientID: "id"})
	assert.Error(t, err)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	srv := discoveryServer(t)

	provider, err := oauth.NewGoogleProvider(context.Background(), oauth.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		BaseURL:      "https://shop.example.com/",
		Issuer:       srv.URL,
	})
	require.NoError(t, err)

	authURL, err := url.Parse(provider.AuthCodeURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/auth", authURL.Scheme+"://"+authURL.Host+authURL.Path)

	query := authURL.Query()
	assert.Equal(t, "state-123", query.Get("state"))
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "https://shop.example.com"+oauth.CallbackPath, query.Get("redirect_uri"))
	assert.Equal(t, "openid profile email", query.Get("scope"))
}

func TestGoogleProvider_ExchangeFailures(t *testing.T) {
	srv := discoveryServer(t)

	provider, err := oauth.NewGoogleProvider(context.Background(), oauth.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		BaseURL:      "https://shop.example.com",
		Issuer:       srv.URL,
	})
	require.NoError(t, err)

	_, err = provider.Exchange(context.Background(), "")
	assert.EqualError(t, err, "missing authorization code")

	_, err = provider.Exchange(context.Background(), "rejected-code")
	assert.ErrorContains(t, err, "failed to exchange token")
}
