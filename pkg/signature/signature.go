package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	usecaseErrors "github.com/johnquangdev/transcript-studio/internal/usecase/errors"
)

// Sign returns the sha256 HMAC hex signature of payload
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC verifies a sha256 HMAC hex signature against payload and secret
func VerifyHMAC(secret string, payload []byte, signatureHex string) bool {
	if secret == "" || signatureHex == "" {
		return false
	}
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signatureHex))
}

// URLSigner issues expiring links for resources served by this API
type URLSigner struct {
	secret string
	now    func() time.Time
}

// NewURLSigner creates a signer with the given secret
func NewURLSigner(secret string) *URLSigner {
	return &URLSigner{secret: secret, now: time.Now}
}

// SignURL appends expires and sig query parameters to base+"/"+key
func (s *URLSigner) SignURL(base, key string, ttl time.Duration) string {
	expires := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", Sign(s.secret, payload(key, expires)))
	return fmt.Sprintf("%s/%s?%s", base, url.PathEscape(key), q.Encode())
}

// Verify checks the signature and expiry of a signed link
func (s *URLSigner) Verify(key, expiresParam, sig string) error {
	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		return usecaseErrors.ErrSignatureInvalid
	}
	if !VerifyHMAC(s.secret, payload(key, expires), sig) {
		return usecaseErrors.ErrSignatureInvalid
	}
	if s.now().Unix() > expires {
		return usecaseErrors.ErrSignatureExpired
	}
	return nil
}

func payload(key string, expires int64) []byte {
	return []byte(key + ":" + strconv.FormatInt(expires, 10))
}
