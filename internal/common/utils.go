// Package common provides utility functions shared between server components,
// mostly around random secrets and their at-rest hashes.
package common

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them as a hexadecimal string, so the final string length is twice
// the size. It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {

	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token secret.
// Only this digest is ever stored; the raw secret stays with the client.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Useful for removing plaintext passwords from memory after use. If the slice
// is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
