package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"refinery-ops/internal/auth"
	"refinery-ops/internal/config"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), zap.New(core))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/equipment", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/v1/equipment", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("REFINERY_CONFIG", "")
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--subject", "op-1", "--role", "operator", "--ttl", "1h"})
	require.NoError(t, root.Execute())

	claims, err := auth.ParseJWT(strings.TrimSpace(out.String()), []byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Role)
	assert.Equal(t, "op-1", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCommandRejectsUnknownRole(t *testing.T) {
	t.Setenv("REFINERY_CONFIG", "")
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"token", "--subject", "op-1", "--role", "superuser"})
	assert.Error(t, root.Execute())
}

func TestBuildChannel(t *testing.T) {
	channel, err := buildChannel(config.AlertConfig{})
	require.NoError(t, err)
	assert.Nil(t, channel)

	channel, err = buildChannel(config.AlertConfig{WebhookURL: "http://hooks.local/alerts", NotifyTimeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, channel)
	assert.Equal(t, "webhook", channel.Name())
}
