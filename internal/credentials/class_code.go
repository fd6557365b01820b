package credentials

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/linnington/esheets-assets/internal/validation"
)

// GenerateClassCode generates a random classroom code in the format "XXXX-XXXX"
// drawn from the unambiguous class code alphabet
func GenerateClassCode() (string, error) {
	first, err := randomString(validation.ClassCodeAlphabet, 4)
	if err != nil {
		return "", err
	}

	second, err := randomString(validation.ClassCodeAlphabet, 4)
	if err != nil {
		return "", err
	}

	return first + "-" + second, nil
}

// randomString picks n random characters from chars
func randomString(chars string, n int) (string, error) {
	var b strings.Builder
	b.Grow(n)

	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			return "", err
		}
		b.WriteByte(chars[num.Int64()])
	}

	return b.String(), nil
}
