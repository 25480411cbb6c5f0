package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	accessKeyLen      = 24
	accessKeyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// GenerateAccessKey returns a random key from an alphabet without look-alike
// characters. Do not log the returned string.
func GenerateAccessKey() (string, error) {
	limit := big.NewInt(int64(len(accessKeyAlphabet)))
	key := make([]byte, accessKeyLen)
	for i := range key {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate access key: %w", err)
		}
		key[i] = accessKeyAlphabet[n.Int64()]
	}
	return string(key), nil
}

// HashAccessKey returns the bcrypt hash to put in ACCESS_KEY_HASH.
func HashAccessKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash access key: %w", err)
	}
	return string(hash), nil
}

func (s *Server) accessKeyRequired() bool {
	return s.cfg.AccessKey != "" || s.cfg.AccessKeyHash != ""
}

func (s *Server) accessKeyMatches(got string) bool {
	if s.cfg.AccessKey != "" && subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.AccessKey)) == 1 {
		return true
	}
	if s.cfg.AccessKeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.cfg.AccessKeyHash), []byte(got)) == nil
	}
	return false
}
