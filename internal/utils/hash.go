package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns a hex sha256 over parts. Parts are separated so that
// ("ab", "c") and ("a", "bc") hash differently.
func Hash(parts ...string) string {
	hash := sha256.New()
	for _, p := range parts {
		hash.Write([]byte(p))
		hash.Write([]byte{0})
	}
	return hex.EncodeToString(hash.Sum(nil))
}
