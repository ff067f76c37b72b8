// AngelaMos | 2026
// security.go

package core

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	CardKeySize     = chacha20poly1305.KeySize
	minCardDigits   = 12
	maxCardDigits   = 19
	CardMaskPrefix  = "****-****-****-"
	PlaceholderCard = CardMaskPrefix + "0000"
)

// CardCipher seals card numbers at rest. The stored form is nonce||ciphertext.
type CardCipher struct {
	aead cipher.AEAD
}

func NewCardCipher(key []byte) (*CardCipher, error) {
	if len(key) != CardKeySize {
		return nil, fmt.Errorf(
			"card key must be %d bytes, got %d",
			CardKeySize,
			len(key),
		)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create card cipher: %w", err)
	}

	return &CardCipher{aead: aead}, nil
}

// ParseCardKey decodes a base64 encoded card key.
func ParseCardKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode card key: %w", err)
	}
	if len(key) != CardKeySize {
		return nil, fmt.Errorf(
			"card key must decode to %d bytes, got %d",
			CardKeySize,
			len(key),
		)
	}
	return key, nil
}

func GenerateCardKey() (string, error) {
	key := make([]byte, CardKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func (c *CardCipher) Seal(cardNumber string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(cardNumber)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, []byte(cardNumber), nil), nil
}

func (c *CardCipher) Open(sealed []byte) (string, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns+c.aead.Overhead() {
		return "", fmt.Errorf("open card: ciphertext too short")
	}

	plain, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("open card: %w", err)
	}
	return string(plain), nil
}

// NormalizeCardNumber strips separators and checks the digit count.
func NormalizeCardNumber(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return "", Invalidf("card number must contain only digits")
		}
	}

	digits := b.String()
	if len(digits) < minCardDigits || len(digits) > maxCardDigits {
		return "", Invalidf(
			"card number must have %d to %d digits",
			minCardDigits,
			maxCardDigits,
		)
	}
	return digits, nil
}

func CardLast4(digits string) string {
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// MaskCard renders the only form of a card number any read path returns.
func MaskCard(last4 string) string {
	if last4 == "" {
		return PlaceholderCard
	}
	if len(last4) < 4 {
		last4 = strings.Repeat("0", 4-len(last4)) + last4
	}
	return CardMaskPrefix + last4
}
