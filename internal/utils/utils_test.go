package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmail(t *testing.T) {
	valid := []string{"a@x.com", "alice.smith+mic@example.co.uk", "bob_1@sub.domain.org"}
	for _, s := range valid {
		assert.True(t, IsEmail(s), s)
	}
	invalid := []string{"", "plain", "a@x", "a@x.c", "@x.com", "a@", "a b@x.com", "Alice <a@x.com>", "a@.com", "a@x..com"}
	for _, s := range invalid {
		assert.False(t, IsEmail(s), s)
	}
}

func TestYouTubeVideoID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ": "dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?t=10":           "dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ":   "dQw4w9WgXcQ",
		"https://www.youtube.com/v/dQw4w9WgXcQ":       "dQw4w9WgXcQ",
		"https://vimeo.com/123456":                    "",
		"https://www.youtube.com/watch?v=short":       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, YouTubeVideoID(in), in)
	}
}

func TestIsDateAndToday(t *testing.T) {
	assert.True(t, IsDate("2025-07-04"))
	assert.False(t, IsDate("2025-13-01"))
	assert.False(t, IsDate("07/04/2025"))
	assert.False(t, IsDate(""))

	late := time.Date(2025, 6, 1, 23, 30, 0, 0, time.FixedZone("EDT", -4*3600))
	assert.Equal(t, "2025-06-02", Today(late))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "secret1"))
	assert.False(t, VerifyPassword(hash, "secret2"))
}

func TestAccessToken(t *testing.T) {
	tok, err := NewAccessToken("s3cret", Claims{UserID: 42, Username: "admin", Email: "a@x.com", Role: "admin"}, 5)
	require.NoError(t, err)
	assert.True(t, tok.Exp.After(time.Now()))

	c, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), c.UserID)
	assert.Equal(t, "admin", c.Username)
	assert.Equal(t, "admin", c.Role)

	_, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken("s3cret", Claims{UserID: 1}, -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
