package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrMissingSignature = errors.New("payments: missing webhook signature")
	ErrInvalidSignature = errors.New("payments: invalid webhook signature")
)

// Sign returns the hex HMAC-SHA512 of body keyed with secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the x-paystack-signature header value against body.
func VerifySignature(secret string, body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}
	if secret == "" {
		return ErrMissingSecret
	}
	expected, err := hex.DecodeString(Sign(secret, body))
	if err != nil {
		return err
	}
	provided, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(expected, provided) {
		return ErrInvalidSignature
	}
	return nil
}
