package certs_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postalsys/certs/core/acmeaccount"
	"github.com/postalsys/certs/core/certs"
)

func newDispatcherService(t *testing.T) *certs.Service {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := certs.New(client, certs.Config{}, acmeaccount.Config{
		Environment:  "development",
		DirectoryURL: "https://acme.test/directory",
		Email:        "admin@example.com",
	})
	require.NoError(t, err)
	return svc
}

func seedChallenge(t *testing.T, svc *certs.Service, domain, token, keyAuth string) {
	t.Helper()

	ctx := context.Background()
	err := svc.Settings().Set(ctx, map[string]any{
		"domain:" + domain + ":data": map[string]any{"domain": domain},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Challenges().Set(ctx, domain, token, keyAuth))
}

func TestRouteHandler(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns stored key authorization", func(t *testing.T) {
		t.Parallel()

		svc := newDispatcherService(t)
		seedChallenge(t, svc, "example.com", "TKN", "abc.def")

		body, err := svc.RouteHandler(ctx, "example.com", "TKN")
		require.NoError(t, err)
		assert.Equal(t, "abc.def", body)
	})

	t.Run("unknown token reports challenge_not_found", func(t *testing.T) {
		t.Parallel()

		svc := newDispatcherService(t)

		_, err := svc.RouteHandler(ctx, "example.com", "missing")
		var structured *certs.Error
		require.ErrorAs(t, err, &structured)
		assert.Equal(t, certs.CodeChallengeNotFound, structured.Code)
		assert.Equal(t, http.StatusNotFound, structured.Status)
	})

	t.Run("token of 256 chars is accepted", func(t *testing.T) {
		t.Parallel()

		svc := newDispatcherService(t)
		token := strings.Repeat("a", 256)
		seedChallenge(t, svc, "example.com", token, "abc.def")

		body, err := svc.RouteHandler(ctx, "example.com", token)
		require.NoError(t, err)
		assert.Equal(t, "abc.def", body)
	})

	t.Run("token of 257 chars is rejected", func(t *testing.T) {
		t.Parallel()

		svc := newDispatcherService(t)

		_, err := svc.RouteHandler(ctx, "example.com", strings.Repeat("a", 257))
		var structured *certs.Error
		require.ErrorAs(t, err, &structured)
		assert.Equal(t, certs.CodeInputValidation, structured.Code)
		assert.Equal(t, http.StatusBadRequest, structured.Status)
		assert.Contains(t, structured.Details, "token")
	})

	t.Run("empty token is rejected", func(t *testing.T) {
		t.Parallel()

		svc := newDispatcherService(t)

		_, err := svc.RouteHandler(ctx, "example.com", "")
		var structured *certs.Error
		require.ErrorAs(t, err, &structured)
		assert.Equal(t, certs.CodeInputValidation, structured.Code)
	})

	t.Run("absent host is tolerated", func(t *testing.T) {
		t.Parallel()

		svc := newDispatcherService(t)

		_, err := svc.RouteHandler(ctx, "", "TKN")
		var structured *certs.Error
		require.ErrorAs(t, err, &structured)
		assert.Equal(t, certs.CodeChallengeNotFound, structured.Code)
	})

	t.Run("invalid host reports input_validation", func(t *testing.T) {
		t.Parallel()

		svc := newDispatcherService(t)

		_, err := svc.RouteHandler(ctx, "not a host", "TKN")
		var structured *certs.Error
		require.ErrorAs(t, err, &structured)
		assert.Equal(t, certs.CodeInputValidation, structured.Code)
		assert.Contains(t, structured.Details, "host")
	})

	t.Run("expired challenge reports challenge_not_found", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		svc, err := certs.New(client, certs.Config{ChallengeTTL: time.Second}, acmeaccount.Config{
			Environment:  "development",
			DirectoryURL: "https://acme.test/directory",
			Email:        "admin@example.com",
		})
		require.NoError(t, err)
		seedChallenge(t, svc, "example.com", "TKN", "abc.def")

		mr.FastForward(2 * time.Second)

		_, err = svc.RouteHandler(context.Background(), "example.com", "TKN")
		var structured *certs.Error
		require.ErrorAs(t, err, &structured)
		assert.Equal(t, certs.CodeChallengeNotFound, structured.Code)
	})
}

func TestHandler(t *testing.T) {
	t.Parallel()

	t.Run("serves key authorization as text", func(t *testing.T) {
		t.Parallel()

		svc := newDispatcherService(t)
		seedChallenge(t, svc, "example.com", "TKN", "abc.def")

		req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/TKN", nil)
		req.Host = "example.com:443"
		rec := httptest.NewRecorder()

		svc.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
		assert.Equal(t, "abc.def", rec.Body.String())
	})

	t.Run("renders structured errors as json", func(t *testing.T) {
		t.Parallel()

		svc := newDispatcherService(t)

		req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/missing", nil)
		req.Host = "example.com"
		rec := httptest.NewRecorder()

		svc.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, certs.CodeChallengeNotFound, payload.Code)
		assert.NotEmpty(t, payload.Error)
	})

	t.Run("paths outside the well-known prefix are not found", func(t *testing.T) {
		t.Parallel()

		svc := newDispatcherService(t)

		req := httptest.NewRequest(http.MethodGet, "/other", nil)
		rec := httptest.NewRecorder()

		svc.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
