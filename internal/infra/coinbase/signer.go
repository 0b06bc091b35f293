package coinbase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Signer handles Coinbase API authentication signatures
type Signer struct {
	accessKey string
	secretKey string
}

// NewSigner creates a new Signer instance
func NewSigner(accessKey, secretKey string) *Signer {
	return &Signer{
		accessKey: accessKey,
		secretKey: secretKey,
	}
}

// GenerateHeaders creates the necessary headers for a request
// method: GET, POST, etc.
// path: /api/v3/brokerage/products/BTC-USD (no host, including query if any)
// body: json string (empty if none)
func (s *Signer) GenerateHeaders(method, path, body string) map[string]string {
	// Coinbase requirement: Unix timestamp in seconds
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// String to sign: timestamp + method + requestPath + body
	payload := timestamp + method + path + body

	sign := computeHmacSha256(payload, s.secretKey)

	headers := map[string]string{
		"CB-ACCESS-KEY":       s.accessKey,
		"CB-ACCESS-SIGN":      sign,
		"CB-ACCESS-TIMESTAMP": timestamp,
		"Content-Type":        "application/json",
	}

	return headers
}

func computeHmacSha256(message string, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}
