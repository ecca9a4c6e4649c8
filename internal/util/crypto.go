package util

import (
	"crypto/rand"
	"encoding/hex"
)

// stateLength is the hex length of an OAuth state value (128 bits)
const stateLength = 32

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int64) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// CryptoRandomString generates a random hex string of the given length
func CryptoRandomString(length int) (string, error) {
	bytes, err := CryptoRandomBytes(int64((length + 1) / 2))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}

// NewState returns an opaque value for the OAuth state parameter
func NewState() (string, error) {
	return CryptoRandomString(stateLength)
}
