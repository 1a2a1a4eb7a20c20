package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// RecoveryTTL is how long a recovery link stays valid after the mail.
const RecoveryTTL = 7 * 24 * time.Hour

// NewRecoveryToken returns 32 random bytes, URL-safe encoded.
func NewRecoveryToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewCartToken identifies a guest cart; it grants no recovery rights.
func NewCartToken() string { return uuid.NewString() }

func (o *Order) MarkRecoverySent(token string, now time.Time) {
	o.RecoveryToken = token
	o.RecoveryEmailSentDate = &now
}

// RecoveryExpired reports whether the recovery link is past its TTL.
func (o *Order) RecoveryExpired(now time.Time) bool {
	return o.RecoveryEmailSentDate == nil || now.Sub(*o.RecoveryEmailSentDate) > RecoveryTTL
}
