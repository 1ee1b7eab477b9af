package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// NewNumericCode draws a code of exactly length decimal digits, uniformly over
// [0, 10^length). Leading zeros are kept.
func NewNumericCode(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate numeric code: %w", err)
	}
	s := n.String()
	if pad := length - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s, nil
}
