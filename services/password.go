package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	symbols      = "!@#$%&*"
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerLetters = "abcdefghijklmnopqrstuvwxyz"
	digits       = "0123456789"

	// OwnerPasswordLen is the length of passwords handed out by `foodscan owner add`.
	OwnerPasswordLen = 12
)

var passwordClasses = []string{upperLetters, lowerLetters, digits, symbols}

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// GeneratePassword returns a random password of length n (at least minPasswordLen) containing
// every character class. Do not log the result.
func GeneratePassword(n int) (string, error) {
	if n < minPasswordLen {
		n = minPasswordLen
	}
	out := make([]byte, 0, n)
	for _, class := range passwordClasses {
		i, err := randIndex(len(class))
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out = append(out, class[i])
	}
	all := strings.Join(passwordClasses, "")
	for len(out) < n {
		i, err := randIndex(len(all))
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out = append(out, all[i])
	}
	// Fisher-Yates so the class picks are not always in front
	for i := len(out) - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return "", fmt.Errorf("shuffle password: %w", err)
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}
