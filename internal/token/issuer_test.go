package token

import (
	"encoding/base64"
	"regexp"
	"testing"
	"time"
)

func TestAccessTokenShape(t *testing.T) {
	issuer := NewIssuer()

	token, err := issuer.AccessToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not URL-safe base64: %v", err)
	}
	if len(raw) != accessTokenBytes {
		t.Fatalf("expected %d bytes of entropy, got %d", accessTokenBytes, len(raw))
	}
}

func TestAccessTokenUniqueness(t *testing.T) {
	issuer := NewIssuer()
	seen := make(map[string]struct{}, 200)
	for i := 0; i < 200; i++ {
		token, err := issuer.AccessToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token minted: %s", token)
		}
		seen[token] = struct{}{}
	}
}

func TestOrderNumberFormat(t *testing.T) {
	issuer := NewIssuer()
	now := time.Date(2025, time.March, 9, 23, 59, 0, 0, time.FixedZone("east", 3*60*60))

	number := issuer.OrderNumber(now)

	pattern := regexp.MustCompile(`^ORD-20250309-[0-9A-F]{8}$`)
	if !pattern.MatchString(number) {
		t.Fatalf("unexpected order number %q", number)
	}
}

func TestOrderNumberUsesUTCDate(t *testing.T) {
	issuer := NewIssuer()
	// Local date is already March 10 in this zone, UTC date is still March 9.
	now := time.Date(2025, time.March, 10, 1, 30, 0, 0, time.FixedZone("east", 3*60*60))

	number := issuer.OrderNumber(now)

	if got := number[4:12]; got != "20250309" {
		t.Fatalf("expected UTC date 20250309, got %s", got)
	}
}
