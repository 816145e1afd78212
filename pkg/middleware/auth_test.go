package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HelixDevelopment/cognigraph/pkg/config"
)

func TestAuthDisabledPassesThrough(t *testing.T) {
	auth := NewAuthService(config.AuthConfig{Enabled: false})

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", rec.Code)
	}
}

func TestAuthTokenRoundtrip(t *testing.T) {
	auth := NewAuthService(config.AuthConfig{
		Enabled:   true,
		SecretKey: "test-secret",
		Issuer:    "cognigraph",
		Expiry:    time.Hour,
	})

	token, err := auth.GenerateToken("user-1", "tester", []string{"admin", "reader"})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "tester" {
		t.Errorf("claims = %+v", claims)
	}
	if len(claims.Roles) != 2 {
		t.Errorf("Roles = %v, want 2 entries", claims.Roles)
	}
	if claims.Issuer != "cognigraph" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
}

func TestAuthRejectsWrongKey(t *testing.T) {
	signer := NewAuthService(config.AuthConfig{Enabled: true, SecretKey: "key-a"})
	verifier := NewAuthService(config.AuthConfig{Enabled: true, SecretKey: "key-b"})

	token, err := signer.GenerateToken("user-1", "tester", nil)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("token signed with a different key should fail validation")
	}
}

func TestAuthRejectsWrongIssuer(t *testing.T) {
	signer := NewAuthService(config.AuthConfig{Enabled: true, SecretKey: "key", Issuer: "other"})
	verifier := NewAuthService(config.AuthConfig{Enabled: true, SecretKey: "key", Issuer: "cognigraph"})

	token, err := signer.GenerateToken("user-1", "tester", nil)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("token with a mismatched issuer should fail validation")
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	auth := NewAuthService(config.AuthConfig{
		Enabled:   true,
		SecretKey: "key",
		Expiry:    -time.Hour,
	})

	token, err := auth.GenerateToken("user-1", "tester", nil)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := auth.ValidateToken(token); err == nil {
		t.Error("expired token should fail validation")
	}
}

func TestAuthMiddlewareHeaders(t *testing.T) {
	auth := NewAuthService(config.AuthConfig{Enabled: true, SecretKey: "key"})

	var gotClaims *Claims
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	token, err := auth.GenerateToken("user-9", "probe", nil)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token = %d, want 200", rec.Code)
	}
	if gotClaims == nil || gotClaims.UserID != "user-9" {
		t.Errorf("claims in context = %+v, want user-9", gotClaims)
	}
}

func TestClaimsFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := ClaimsFromContext(req.Context()); ok {
		t.Error("ClaimsFromContext on a bare context should report absence")
	}
}
