package auth

import (
	"crypto/rand"
	"encoding/hex"
)

func NewSessionID() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
