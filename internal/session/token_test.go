package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeToken builds an unsigned JWT with the given exp claim. The
// signature segment is garbage on purpose: expiry parsing never
// verifies it.
func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]int64{"exp": exp.Unix()})
	require.NoError(t, err)

	enc := base64.RawURLEncoding
	return fmt.Sprintf("%s.%s.%s", enc.EncodeToString(header), enc.EncodeToString(payload), enc.EncodeToString([]byte("sig")))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := makeToken(t, exp)

	got, err := TokenExpiry(token)
	require.NoError(t, err)
	assert.Equal(t, exp.Unix(), got.Unix())
}

func TestIsTokenExpired(t *testing.T) {
	t.Run("future expiry", func(t *testing.T) {
		assert.False(t, IsTokenExpired(makeToken(t, time.Now().Add(time.Hour))))
	})

	t.Run("past expiry", func(t *testing.T) {
		assert.True(t, IsTokenExpired(makeToken(t, time.Now().Add(-time.Minute))))
	})

	t.Run("fail closed on garbage", func(t *testing.T) {
		for _, token := range []string{"", "not-a-jwt", "a.b", "a.!!!.c", "....."} {
			assert.True(t, IsTokenExpired(token), "token %q should count as expired", token)
		}
	})

	t.Run("fail closed on missing exp claim", func(t *testing.T) {
		enc := base64.RawURLEncoding
		header := enc.EncodeToString([]byte(`{"alg":"HS256"}`))
		payload := enc.EncodeToString([]byte(`{"sub":"u1"}`))
		assert.True(t, IsTokenExpired(header+"."+payload+".x"))
	})
}
