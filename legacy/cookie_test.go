package legacy

import (
	"crypto/sha1"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *CookieCodec {
	t.Helper()
	codec, err := NewCookieCodec("foohash", 2*time.Hour)
	require.NoError(t, err)
	return codec
}

func TestCookiePackFormat(t *testing.T) {
	codec := newTestCodec(t)
	issued := time.Unix(1_540_000_000, 0)

	cookie := codec.Pack("42", "4", "10.0.0.1", issued, "6")

	value := "42:4:10.0.0.1:1540000000:6"
	sum := sha1.Sum([]byte(value + "-foohash"))
	hash := base64.StdEncoding.EncodeToString(sum[:])
	assert.Equal(t, value+":"+hash[:len(hash)-1], cookie)
	assert.Len(t, strings.Split(cookie, ":"), 6)
}

func TestCookieUnpack(t *testing.T) {
	codec := newTestCodec(t)
	issued := time.Unix(1_540_000_000, 0)
	cookie := codec.Pack("42", "4", "10.0.0.1", issued, "6")

	t.Run("valid cookie", func(t *testing.T) {
		ck, err := codec.Unpack(cookie)
		require.NoError(t, err)
		assert.Equal(t, "42", ck.SessionID)
		assert.Equal(t, "4", ck.UserID)
		assert.Equal(t, "10.0.0.1", ck.IPAddress)
		assert.Equal(t, "6", ck.Capabilities)
		assert.Equal(t, issued.Unix(), ck.IssuedAt.Unix())
		assert.Equal(t, issued.Add(2*time.Hour).Unix(), ck.ExpiresAt.Unix())
	})

	t.Run("too few fields", func(t *testing.T) {
		_, err := codec.Unpack("42:4:10.0.0.1:1540000000")
		assert.ErrorIs(t, err, ErrCookieMalformed)
	})

	t.Run("bad epoch", func(t *testing.T) {
		_, err := codec.Unpack("42:4:10.0.0.1:yesterday:6:abc")
		assert.ErrorIs(t, err, ErrCookieMalformed)
	})

	t.Run("tampered capabilities", func(t *testing.T) {
		tampered := strings.Replace(cookie, ":6:", ":14:", 1)
		_, err := codec.Unpack(tampered)
		assert.ErrorIs(t, err, ErrCookieHashMismatch)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewCookieCodec("barhash", 2*time.Hour)
		require.NoError(t, err)
		_, err = other.Unpack(cookie)
		assert.ErrorIs(t, err, ErrCookieHashMismatch)
	})
}

func TestCookieSessionRoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	sess := &session.Session{
		SessionID:     "42",
		User:          &session.User{UserID: "4", Username: "jdoe"},
		Authorization: permission.Authorization{Classic: permission.PrivilegeEmailVerified | permission.PrivilegeEditUsers},
		StartTime:     1_540_000_000,
		EndTime:       1_540_007_200,
		IPAddress:     "10.0.0.1",
	}

	cookie, err := codec.EncodeSession(sess)
	require.NoError(t, err)

	got, err := codec.DecodeSession(cookie)
	require.NoError(t, err)
	assert.Equal(t, sess.SessionID, got.SessionID)
	assert.Equal(t, "4", got.User.UserID)
	assert.Equal(t, sess.IPAddress, got.IPAddress)
	assert.Equal(t, sess.StartTime, got.StartTime)
	assert.Equal(t, sess.EndTime, got.EndTime)
	assert.Equal(t, sess.Authorization.Classic, got.Authorization.Classic)
}

func TestCookieIPv6RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	issued := time.Unix(1_540_000_000, 0)

	for _, ip := range []string{"2001:db8::1", "::1", "::ffff:10.0.0.1", ""} {
		cookie := codec.Pack("42", "4", ip, issued, "6")

		ck, err := codec.Unpack(cookie)
		require.NoError(t, err, ip)
		assert.Equal(t, "42", ck.SessionID)
		assert.Equal(t, "4", ck.UserID)
		assert.Equal(t, ip, ck.IPAddress)
		assert.Equal(t, "6", ck.Capabilities)
		assert.Equal(t, issued.Unix(), ck.IssuedAt.Unix())
	}

	cookie := codec.Pack("42", "4", "2001:db8::1", issued, "6")
	tampered := strings.Replace(cookie, "2001:db8::1", "2001:db8::2", 1)
	_, err := codec.Unpack(tampered)
	assert.ErrorIs(t, err, ErrCookieHashMismatch)
}

func TestCookieEncodeRequiresLegacyUserID(t *testing.T) {
	codec := newTestCodec(t)
	sess := &session.Session{
		SessionID: "sid",
		User:      &session.User{UserID: "not-numeric"},
		StartTime: 1,
		EndTime:   2,
	}
	_, err := codec.EncodeSession(sess)
	assert.ErrorIs(t, err, ErrUnsupportedPrincipal)

	clientOnly := &session.Session{
		SessionID: "sid",
		Client:    &session.Client{ClientID: "c-1", OwnerID: "4"},
		StartTime: 1,
		EndTime:   2,
	}
	cookie, err := codec.EncodeSession(clientOnly)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cookie, "sid:4:"))
}

func TestNewCookieCodecValidation(t *testing.T) {
	_, err := NewCookieCodec("", time.Hour)
	assert.Error(t, err)
	_, err = NewCookieCodec("x", 0)
	assert.Error(t, err)
}
