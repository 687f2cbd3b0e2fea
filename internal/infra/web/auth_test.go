//go:build !integration

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuthManager_MintAndVerify(t *testing.T) {
	am := NewAuthManager("test-secret", time.Minute)

	token, err := am.Mint()
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	claims, err := am.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("want admin role, got %q", claims.Role)
	}

	t.Run("a token signed with another secret is rejected", func(t *testing.T) {
		other := NewAuthManager("other-secret", time.Minute)
		if _, err := other.Verify(token); err == nil {
			t.Error("want a verification error")
		}
	})

	t.Run("an expired token is rejected", func(t *testing.T) {
		// The constructor floors non-positive TTLs, so build the expired
		// issuer directly.
		short := &AuthManager{cfg: AuthConfig{HMACSecret: []byte("test-secret"), TTL: -time.Hour}}
		tok, err := short.Mint()
		if err != nil {
			t.Fatalf("Mint failed: %v", err)
		}
		if _, err := am.Verify(tok); err == nil {
			t.Error("want an expiry error")
		}
	})
}

func TestAuthManager_CheckSecret(t *testing.T) {
	am := NewAuthManager("test-secret", time.Minute)
	if !am.CheckSecret("test-secret") {
		t.Error("the configured secret should match")
	}
	if am.CheckSecret("wrong") {
		t.Error("a wrong secret must not match")
	}
	empty := NewAuthManager("", time.Minute)
	if empty.CheckSecret("") {
		t.Error("an unconfigured secret must never match")
	}
}

func TestAuthManager_RequireAdmin(t *testing.T) {
	am := NewAuthManager("test-secret", time.Minute)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guard := am.RequireAdmin(next)

	serve := func(authHeader string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("GET", "/api/v1/stats", nil)
		if authHeader != "" {
			r.Header.Set("Authorization", authHeader)
		}
		w := httptest.NewRecorder()
		guard.ServeHTTP(w, r)
		return w
	}

	t.Run("missing header is unauthorized", func(t *testing.T) {
		if got := serve("").Code; got != http.StatusUnauthorized {
			t.Errorf("want 401, got %d", got)
		}
	})

	t.Run("malformed header is unauthorized", func(t *testing.T) {
		if got := serve("Basic abc").Code; got != http.StatusUnauthorized {
			t.Errorf("want 401, got %d", got)
		}
	})

	t.Run("bad token is forbidden", func(t *testing.T) {
		if got := serve("Bearer not-a-token").Code; got != http.StatusForbidden {
			t.Errorf("want 403, got %d", got)
		}
	})

	t.Run("valid token passes through", func(t *testing.T) {
		token, err := am.Mint()
		if err != nil {
			t.Fatalf("Mint failed: %v", err)
		}
		if got := serve("Bearer " + token).Code; got != http.StatusNoContent {
			t.Errorf("want 204, got %d", got)
		}
	})
}
