package provision

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/text/encoding/unicode"
)

// Character classes the generated password draws from. The symbol set
// is deliberately small to avoid characters that are awkward to type
// or that directory password filters commonly reject.
const (
	passwordUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordLower   = "abcdefghijklmnopqrstuvwxyz"
	passwordDigits  = "0123456789"
	passwordSymbols = "!@#$%"

	passwordMinLength = 12
	passwordMaxLength = 16
)

// GeneratePassword produces a random initial password of 12 to 16
// characters containing at least one uppercase letter, one lowercase
// letter, one digit and one symbol, satisfying default directory
// complexity policy. All randomness comes from crypto/rand.
func GeneratePassword() (string, error) {
	length, err := randomInt(passwordMaxLength - passwordMinLength + 1)
	if err != nil {
		return "", fmt.Errorf("generating password length: %w", err)
	}
	length += passwordMinLength

	// One character from each class guarantees complexity; the rest
	// are drawn from the full alphabet.
	all := passwordUpper + passwordLower + passwordDigits + passwordSymbols
	chars := make([]byte, 0, length)
	for _, class := range []string{passwordUpper, passwordLower, passwordDigits, passwordSymbols} {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	if err := shuffle(chars); err != nil {
		return "", err
	}
	return string(chars), nil
}

// EncodeUnicodePwd encodes a password for the directory's unicodePwd
// attribute: the password wrapped in double quotes, as UTF-16LE.
func EncodeUnicodePwd(password string) (string, error) {
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	encoded, err := encoder.String(`"` + password + `"`)
	if err != nil {
		return "", fmt.Errorf("encoding password: %w", err)
	}
	return encoded, nil
}

func randomChar(class string) (byte, error) {
	i, err := randomInt(len(class))
	if err != nil {
		return 0, fmt.Errorf("generating password character: %w", err)
	}
	return class[i], nil
}

// shuffle performs a Fisher-Yates shuffle driven by crypto/rand.
func shuffle(chars []byte) error {
	for i := len(chars) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return fmt.Errorf("shuffling password: %w", err)
		}
		chars[i], chars[j] = chars[j], chars[i]
	}
	return nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
