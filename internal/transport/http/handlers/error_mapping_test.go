package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anmol-chhetri-G/Security-Web/internal/usecase"
)

func respond(t *testing.T, err error, cases []ErrorCase) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "Something went wrong")

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return w, body
}

func TestAuthErrorMappings(t *testing.T) {
	tests := []struct {
		err     error
		cases   []ErrorCase
		status  int
		message string
	}{
		{usecase.ErrEmailTaken, signupErrorCases, http.StatusBadRequest, "Email already in use"},
		{usecase.ErrStoreUnavailable, signupErrorCases, http.StatusServiceUnavailable, "Database connection unavailable"},
		{usecase.ErrInvalidCredentials, loginErrorCases, http.StatusUnauthorized, "Invalid email or password"},
		{usecase.ErrInactiveAccount, loginErrorCases, http.StatusUnauthorized, "Account is deactivated"},
		{usecase.ErrStoreUnavailable, loginErrorCases, http.StatusServiceUnavailable, "Database connection unavailable"},
		{usecase.ErrInvalidRefreshToken, refreshErrorCases, http.StatusForbidden, "Invalid or expired refresh token"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.err), func(t *testing.T) {
			w, body := respond(t, tt.err, tt.cases)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if body["error"] != tt.message {
				t.Fatalf("message = %q, want %q", body["error"], tt.message)
			}
		})
	}
}

func TestRetryAfterMappings(t *testing.T) {
	w, body := respond(t, &usecase.RateLimitedError{RetryAfter: 90 * time.Second}, loginErrorCases)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "90" {
		t.Fatalf("Retry-After = %q, want 90", w.Header().Get("Retry-After"))
	}

	w, body = respond(t, &usecase.AccountLockedError{RetryAfter: 15 * time.Minute}, loginErrorCases)
	if w.Code != http.StatusLocked {
		t.Fatalf("status = %d, want 423", w.Code)
	}
	if body["retryAfter"] != float64(900) {
		t.Fatalf("retryAfter = %v, want 900", body["retryAfter"])
	}
}
