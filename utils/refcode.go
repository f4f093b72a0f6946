package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RefCodeAlphabet excludes characters that read ambiguously (0/O, 1/I).
const RefCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReferenceCode returns "<prefix>-<n random alphabet chars>".
func GenerateReferenceCode(prefix string, n int) (string, error) {
	if n <= 0 {
		n = 8
	}
	buf := make([]byte, n)
	max := big.NewInt(int64(len(RefCodeAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = RefCodeAlphabet[idx.Int64()]
	}
	if prefix == "" {
		return string(buf), nil
	}
	return fmt.Sprintf("%s-%s", prefix, string(buf)), nil
}
