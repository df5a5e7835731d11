package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier("test-secret")
	require.NoError(t, err)

	var gotOwner int64
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner, _ = OwnerFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := v.Issue(42, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(42), gotOwner)
}

func TestMiddlewareRejects(t *testing.T) {
	v, err := NewVerifier("test-secret")
	require.NoError(t, err)
	other, err := NewVerifier("other-secret")
	require.NoError(t, err)

	foreign, err := other.Issue(42, time.Hour)
	require.NoError(t, err)
	expired, err := v.Issue(42, -time.Minute)
	require.NoError(t, err)

	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for name, header := range map[string]string{
		"missing":     "",
		"not bearer":  "Basic abc",
		"bad signer":  "Bearer " + foreign,
		"expired":     "Bearer " + expired,
		"not a token": "Bearer nope",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/campaigns", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier(" ")
	assert.Error(t, err)
}
