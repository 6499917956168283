package token

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// accessTokenBytes yields 384 bits of entropy, comfortably above the 256-bit
// floor required for capability tokens.
const accessTokenBytes = 48

const orderNumberPrefix = "ORD"

// Issuer mints access tokens and order numbers. It holds no state and never
// checks uniqueness itself; the store's unique constraints are authoritative
// and callers reissue on collision.
type Issuer struct{}

// NewIssuer constructs Issuer.
func NewIssuer() *Issuer {
	return &Issuer{}
}

// AccessToken returns a URL-safe opaque capability token drawn from a
// cryptographically secure source.
func (Issuer) AccessToken() (string, error) {
	buf := make([]byte, accessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// OrderNumber returns a human-readable code in the form
// ORD-YYYYMMDD-XXXXXXXX where the suffix is 8 random hex characters.
func (Issuer) OrderNumber(now time.Time) string {
	u := uuid.New()
	suffix := strings.ToUpper(hex.EncodeToString(u[:4]))
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.UTC().Format("20060102"), suffix)
}
