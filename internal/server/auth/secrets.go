package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strconv"
)

var codeSpace = big.NewInt(900000)

// GenerateVerificationCode returns a cryptographically random six-digit
// code, uniform over [100000, 999999]. Low entropy is acceptable only
// because codes are short-lived.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// GenerateResetToken returns 32 random bytes, hex-encoded.
func GenerateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashSecret returns the sha256 hex digest of a one-time secret, used to
// compare stored vs presented secrets without retaining plaintext. Fast and
// deterministic on purpose; passwords use bcrypt instead.
func HashSecret(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
