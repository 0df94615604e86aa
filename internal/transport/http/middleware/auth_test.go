package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookme/auth-service/internal/application/auth"
	"github.com/bookme/auth-service/internal/domain"
	"github.com/bookme/auth-service/internal/transport/http/response"
)

type stubVerifier struct {
	claims auth.TokenClaims
	err    error
}

func (s *stubVerifier) VerifyAccessToken(token string) (auth.TokenClaims, error) {
	if s.err != nil {
		return auth.TokenClaims{}, s.err
	}
	return s.claims, nil
}

func runAuth(t *testing.T, verifier TokenVerifier, authz string) (*httptest.ResponseRecorder, auth.TokenClaims, bool) {
	t.Helper()

	var got auth.TokenClaims
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		u, _ := UsernameFromContext(r.Context())
		role, _ := RoleFromContext(r.Context())
		got = auth.TokenClaims{Username: u, Role: role}
		w.WriteHeader(http.StatusOK)
	})

	h := Auth(verifier, response.WriteError)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, got, called
}

func TestAuth_NoHeader(t *testing.T) {
	t.Parallel()

	rec, _, called := runAuth(t, &stubVerifier{}, "")
	if called {
		t.Fatalf("handler must not run")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	t.Parallel()

	for _, h := range []string{"Basic abc", "Bearer", "Bearer   "} {
		rec, _, called := runAuth(t, &stubVerifier{}, h)
		if called {
			t.Fatalf("handler must not run for %q", h)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %q, got %d", h, rec.Code)
		}
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	t.Parallel()

	rec, _, called := runAuth(t, &stubVerifier{err: domain.ErrTokenInvalid()}, "Bearer bad")
	if called {
		t.Fatalf("handler must not run")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	rec, _, _ := runAuth(t, &stubVerifier{err: domain.ErrTokenExpired()}, "Bearer old")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_Success_InjectsUser(t *testing.T) {
	t.Parallel()

	v := &stubVerifier{claims: auth.TokenClaims{
		Username: "alice",
		Role:     "CUSTOMER",
		Exp:      time.Now().Add(time.Minute),
	}}

	rec, got, called := runAuth(t, v, "Bearer good")
	if !called {
		t.Fatalf("expected handler to run")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Username != "alice" || got.Role != "CUSTOMER" {
		t.Fatalf("context not populated: %+v", got)
	}
}

func TestAuth_CaseInsensitiveBearer(t *testing.T) {
	t.Parallel()

	v := &stubVerifier{claims: auth.TokenClaims{Username: "alice", Role: "CUSTOMER"}}
	rec, _, called := runAuth(t, v, "bearer good")
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected lowercase scheme accepted, code=%d", rec.Code)
	}
}
