package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateToken("sess-1", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "sess-1", claims.SessionID)
	require.Equal(t, "pdfchat", claims.Issuer)
}

func TestParseTokenRejects(t *testing.T) {
	secret := []byte("secret")
	expired, err := GenerateToken("sess-1", secret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, secret)
	require.ErrorIs(t, err, jwtlib.ErrTokenExpired)

	good, err := GenerateToken("sess-1", secret, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(good, []byte("other"))
	require.Error(t, err)

	none := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, Claims{SessionID: "x"})
	raw, err := none.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(raw, secret)
	require.Error(t, err)
}
