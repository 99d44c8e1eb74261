package payments

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestSigner_SignedParams(t *testing.T) {
	s := NewSigner("ck-test", "cs-test")
	params := map[string]string{
		"oauth_consumer_key": "ck-test",
		"oauth_timestamp":    "1700000000",
		"oauth_nonce":        "abc123",
	}

	t.Run("deterministic", func(t *testing.T) {
		a := s.SignedParams("GET", "https://gateway.example/api/Auth/RequestToken", params)
		b := s.SignedParams("GET", "https://gateway.example/api/Auth/RequestToken", params)
		if a != b {
			t.Fatalf("same inputs produced %q and %q", a, b)
		}
	})

	t.Run("hmac-sha1 over base64", func(t *testing.T) {
		sig := s.SignedParams("GET", "https://gateway.example/api/Auth/RequestToken", params)
		raw, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			t.Fatalf("signature is not base64: %v", err)
		}
		if len(raw) != 20 {
			t.Fatalf("expected a 20-byte SHA1 digest, got %d bytes", len(raw))
		}
	})

	t.Run("method is case-insensitive", func(t *testing.T) {
		a := s.SignedParams("get", "https://gateway.example/x", params)
		b := s.SignedParams("GET", "https://gateway.example/x", params)
		if a != b {
			t.Fatal("lowercase method must sign identically to uppercase")
		}
	})

	t.Run("secret changes the signature", func(t *testing.T) {
		other := NewSigner("ck-test", "different-secret")
		a := s.SignedParams("GET", "https://gateway.example/x", params)
		b := other.SignedParams("GET", "https://gateway.example/x", params)
		if a == b {
			t.Fatal("different secrets must not collide")
		}
	})

	t.Run("parameter values change the signature", func(t *testing.T) {
		changed := map[string]string{
			"oauth_consumer_key": "ck-test",
			"oauth_timestamp":    "1700000001",
			"oauth_nonce":        "abc123",
		}
		a := s.SignedParams("GET", "https://gateway.example/x", params)
		b := s.SignedParams("GET", "https://gateway.example/x", changed)
		if a == b {
			t.Fatal("different parameters must not collide")
		}
	})
}

func TestBearer(t *testing.T) {
	got := Bearer("tok-123")
	if got != "Bearer tok-123" {
		t.Fatalf("unexpected header value %q", got)
	}
	if !strings.HasPrefix(got, "Bearer ") {
		t.Fatalf("missing scheme prefix: %q", got)
	}
}
