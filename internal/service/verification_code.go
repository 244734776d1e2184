package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// verificationTokenBytes is the amount of randomness in a code (256 bits).
const verificationTokenBytes = 32

// GenerateUniqueVerificationCode returns "<prefix>/<token>" where prefix is
// base64url(username + "-" + sha256hex(username)) and token is 32 random bytes
// in unpadded base64url. Only the token is secret; the prefix is informational.
func GenerateUniqueVerificationCode(username string) (string, error) {
	return generateVerificationCode(rand.Reader, username)
}

func generateVerificationCode(random io.Reader, username string) (string, error) {
	b := make([]byte, verificationTokenBytes)
	if _, err := io.ReadFull(random, b); err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	sum := sha256.Sum256([]byte(username))
	combined := username + "-" + hex.EncodeToString(sum[:])
	prefix := base64.URLEncoding.EncodeToString([]byte(combined))

	return prefix + "/" + token, nil
}

// BuildVerificationLink formats the link embedded in the email.
func BuildVerificationLink(scheme, hostname string, port int, verificationAPI, code string) string {
	return fmt.Sprintf("%s://%s:%d/%s?code=%s", scheme, hostname, port, verificationAPI, code)
}

// ExtractVerificationToken returns the random segment after the last '/'.
// It accepts either a bare code or a full verification link.
func ExtractVerificationToken(code string) (string, error) {
	i := strings.LastIndex(code, "/")
	if i < 0 || i == len(code)-1 {
		return "", fmt.Errorf("%w: no token segment", ErrInvalidVerificationCode)
	}
	return code[i+1:], nil
}
