// AngelaMos | 2026
// security_test.go

package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *CardCipher {
	t.Helper()

	encoded, err := GenerateCardKey()
	require.NoError(t, err)

	key, err := ParseCardKey(encoded)
	require.NoError(t, err)

	c, err := NewCardCipher(key)
	require.NoError(t, err)
	return c
}

func TestCardCipherSealOpen(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Seal("4111111111111111")
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, []byte("4111111111111111")))

	again, err := c.Seal("4111111111111111")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonces must differ")

	plain, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "4111111111111111", plain)
}

func TestCardCipherRejectsTampering(t *testing.T) {
	c := newTestCipher(t)

	sealed, err := c.Seal("5500000000000004")
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = c.Open(sealed)
	require.Error(t, err)

	_, err = c.Open([]byte("short"))
	require.Error(t, err)
}

func TestNewCardCipherKeySize(t *testing.T) {
	_, err := NewCardCipher([]byte("too-short"))
	require.Error(t, err)

	_, err = ParseCardKey("c2hvcnQ=")
	require.Error(t, err)
}

func TestNormalizeCardNumber(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain digits", raw: "4111111111111111", want: "4111111111111111"},
		{name: "spaces and dashes", raw: "4111 1111-1111 1111", want: "4111111111111111"},
		{name: "too short", raw: "41111111111", wantErr: true},
		{name: "too long", raw: "41111111111111111111", wantErr: true},
		{name: "letters", raw: "4111x11111111111", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCardNumber(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaskCard(t *testing.T) {
	assert.Equal(t, "****-****-****-1234", MaskCard(CardLast4("4000001234")))
	assert.Equal(t, PlaceholderCard, MaskCard(""))
	assert.Equal(t, "****-****-****-0042", MaskCard("42"))
}
