package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey  = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	otherKey = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"
)

func newTestSealer(t *testing.T, key string) *AESGCM {
	t.Helper()
	s, err := NewAESGCM(key)
	require.NoError(t, err)
	return s
}

func TestNewAESGCM_InvalidKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"not hex", "zzzz"},
		{"31 bytes", testKey[:62]},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewAESGCM(tt.key)
			assert.Error(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestSealOpen(t *testing.T) {
	s := newTestSealer(t, testKey)

	sealed, err := s.Seal("oauth-refresh-token")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, sealed, "oauth-refresh-token")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "oauth-refresh-token", opened)
}

func TestSeal_FreshNoncePerValue(t *testing.T) {
	s := newTestSealer(t, testKey)

	a, err := s.Seal("same")
	require.NoError(t, err)
	b, err := s.Seal("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSeal_EmptyStaysEmpty(t *testing.T) {
	s := newTestSealer(t, testKey)

	sealed, err := s.Seal("")
	require.NoError(t, err)
	assert.Empty(t, sealed)
}

func TestOpen_PassesPlaintextThrough(t *testing.T) {
	s := newTestSealer(t, testKey)

	opened, err := s.Open("legacy-access-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-access-token", opened)
}

func TestOpen_Failures(t *testing.T) {
	s := newTestSealer(t, testKey)
	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := newTestSealer(t, otherKey).Open(sealed)
		assert.ErrorContains(t, err, "failed to decrypt")
	})

	t.Run("tampered", func(t *testing.T) {
		last := sealed[len(sealed)-1:]
		flipped := "0"
		if last == "0" {
			flipped = "1"
		}
		_, err := s.Open(sealed[:len(sealed)-1] + flipped)
		assert.Error(t, err)
	})

	t.Run("not hex", func(t *testing.T) {
		_, err := s.Open(sealedPrefix + "xyz")
		assert.ErrorContains(t, err, "failed to decode")
	})

	t.Run("too short", func(t *testing.T) {
		_, err := s.Open(sealedPrefix + strings.Repeat("ab", 4))
		assert.ErrorIs(t, err, errCiphertextTooShort)
	})
}

func TestPlaintext(t *testing.T) {
	var p Plaintext

	sealed, err := p.Seal("token")
	require.NoError(t, err)
	assert.Equal(t, "token", sealed)

	opened, err := p.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "token", opened)
}
