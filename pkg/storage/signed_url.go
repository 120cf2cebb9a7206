package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DownloadSigner mints and checks HMAC download tokens so export files
// can be fetched without a session.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewDownloadSigner builds a signer. A non-positive TTL defaults to 24h.
func NewDownloadSigner(secret string, ttl time.Duration) *DownloadSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DownloadSigner{secret: []byte(secret), ttl: ttl}
}

// Sign returns a token binding the job ID to its file name.
func (s *DownloadSigner) Sign(jobID, name string) (string, time.Time, error) {
	if jobID == "" || name == "" {
		return "", time.Time{}, fmt.Errorf("job id and file name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}

	expires := time.Now().Add(s.ttl)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(name))
	payload := jobID + "|" + strconv.FormatInt(expires.Unix(), 10) + "|" + encoded
	token := payload + "|" + s.mac(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(token)), expires, nil
}

// Verify checks a token and returns the job ID and file name it carries.
func (s *DownloadSigner) Verify(token string) (jobID, name string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("malformed token")
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("malformed token")
	}

	payload := strings.Join(parts[:3], "|")
	if !hmac.Equal([]byte(s.mac(payload)), []byte(parts[3])) {
		return "", "", fmt.Errorf("invalid token signature")
	}

	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("malformed token")
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return "", "", fmt.Errorf("token expired")
	}

	decoded, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", "", fmt.Errorf("malformed token")
	}
	return parts[0], string(decoded), nil
}

func (s *DownloadSigner) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
