// Package credentials describes the stored access token for display.
package credentials

import (
	"crypto/sha256"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"

	"github.com/wolfeidau/reception/internal/models"
)

// fingerprintLength is the number of base58 characters shown to users.
const fingerprintLength = 12

// Description is what can be shown about a credential without revealing it.
type Description struct {
	Fingerprint string
	IsJWT       bool
	Subject     string
	Issuer      string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the token carries an expiry before now.
func (d Description) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && !now.Before(d.ExpiresAt)
}

// Fingerprint returns a short base58 encoded SHA-256 prefix of cred.
func Fingerprint(cred models.Credential) string {
	if cred.IsZero() {
		return ""
	}

	hash := sha256.Sum256([]byte(cred.Token()))
	fp := base58.Encode(hash[:])
	if len(fp) > fingerprintLength {
		fp = fp[:fingerprintLength]
	}
	return fp
}

// Describe fingerprints cred and, when it happens to be a JWT, reads its
// registered claims. The signature is not verified, the token stays opaque to
// the session and this is display only.
func Describe(cred models.Credential) Description {
	d := Description{Fingerprint: Fingerprint(cred)}
	if cred.IsZero() {
		return d
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(cred.Token(), claims); err != nil {
		return d
	}

	d.IsJWT = true
	d.Subject = claims.Subject
	d.Issuer = claims.Issuer
	if claims.IssuedAt != nil {
		d.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		d.ExpiresAt = claims.ExpiresAt.Time
	}

	return d
}
