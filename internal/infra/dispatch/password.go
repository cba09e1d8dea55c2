package dispatch

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	passwordLength   = 26
	passwordAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	extraSuffix      = "123"
)

var alphabetSize = big.NewInt(int64(len(passwordAlphabet)))

func randomPassword(source io.Reader) (string, error) {
	out := make([]byte, passwordLength)
	for i := range out {
		n, err := rand.Int(source, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}

func encodeExtraPassword(password string) string {
	return password + extraSuffix
}
