package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/auth"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireSession(t *testing.T) {
	tokens := auth.NewTokenService("test-key", "food-delivery", time.Hour)
	customerToken, err := tokens.Issue("user-1", models.RoleCustomer)
	require.NoError(t, err)

	var seen auth.Session
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})
	handler := RequireSession(tokens, discardLogger())(testHandler)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedUser   string
	}{
		{name: "valid bearer token", header: "Bearer " + customerToken, expectedStatus: http.StatusOK, expectedUser: "user-1"},
		{name: "missing header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + customerToken, expectedStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", expectedStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer wrong", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = auth.Session{}
			req := httptest.NewRequest(http.MethodGet, "/api/order", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "success", w.Body.String())
				assert.Equal(t, tt.expectedUser, seen.UserID)
				return
			}
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, "UNAUTHORIZED", body["code"])
		})
	}
}

func TestRequireRole(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole(discardLogger(), models.RoleAdmin)(testHandler)

	tests := []struct {
		name           string
		session        *auth.Session
		expectedStatus int
	}{
		{name: "staff", session: &auth.Session{UserID: "s1", Role: models.RoleAdmin}, expectedStatus: http.StatusOK},
		{name: "customer", session: &auth.Session{UserID: "u1", Role: models.RoleCustomer}, expectedStatus: http.StatusForbidden},
		{name: "no session", session: nil, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/api/admin/orders/1/status", nil)
			if tt.session != nil {
				req = req.WithContext(auth.WithSession(req.Context(), *tt.session))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	handler := Logger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
