package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Signer produces and checks hex-encoded HMAC-SHA256 signatures over the
// canonical JSON form of a payload.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	return &Signer{secret: []byte(secret)}, nil
}

// CanonicalJSON renders v as JSON with object keys sorted at every level,
// so that semantically equal payloads always sign to the same bytes.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("normalizing payload: %w", err)
	}
	canonical, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing payload: %w", err)
	}
	return canonical, nil
}

// Sign returns the hex HMAC-SHA256 of the canonical JSON form of v.
func (s *Signer) Sign(v any) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether signature matches v. Comparison is constant time.
func (s *Signer) Verify(v any, signature string) (bool, error) {
	expected, err := s.Sign(v)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}
