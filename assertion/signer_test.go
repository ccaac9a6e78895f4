package assertion_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-oauth-quickstart/assertion"
	"github.com/stretchr/testify/require"
)

func TestLoadRSAPrivateKeyFromPEM(t *testing.T) {
	kp, err := assertion.GenerateRSAKeyPair("kid-1", 2048)
	require.NoError(t, err)
	rsaKey := kp.PrivateKey.(*rsa.PrivateKey)

	t.Run("pkcs8", func(t *testing.T) {
		pemData, err := kp.ExportPrivateKeyPEM()
		require.NoError(t, err)

		loaded, err := assertion.LoadRSAPrivateKeyFromPEM(pemData)
		require.NoError(t, err)
		require.True(t, rsaKey.Equal(loaded))
	})

	t.Run("pkcs1", func(t *testing.T) {
		pemData := string(pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(rsaKey),
		}))

		loaded, err := assertion.LoadRSAPrivateKeyFromPEM(pemData)
		require.NoError(t, err)
		require.True(t, rsaKey.Equal(loaded))
	})

	t.Run("escaped newlines", func(t *testing.T) {
		pemData, err := kp.ExportPrivateKeyPEM()
		require.NoError(t, err)

		loaded, err := assertion.LoadRSAPrivateKeyFromPEM(strings.ReplaceAll(pemData, "\n", `\n`))
		require.NoError(t, err)
		require.True(t, rsaKey.Equal(loaded))
	})

	t.Run("not pem", func(t *testing.T) {
		_, err := assertion.LoadRSAPrivateKeyFromPEM("not a key")
		require.Error(t, err)
	})
}

func TestKeyPairSigner_Sign(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	assertion.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { assertion.NowTimeFunc = time.Now })

	kp, err := assertion.GenerateRSAKeyPair("public-key-id", 2048)
	require.NoError(t, err)
	signer := assertion.NewKeyPairSigner(kp)

	signed, err := signer.Sign(assertion.NewClaims("client-1", "api.coze.com", 15*time.Minute))
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, signer.GetVerificationKey)
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, "public-key-id", parsed.Header["kid"])
	require.Equal(t, assertion.RS256, parsed.Header["alg"])

	require.Equal(t, "client-1", claims["iss"])
	require.Equal(t, "api.coze.com", claims["aud"])
	require.Equal(t, float64(now.Unix()), claims["iat"])
	require.Equal(t, float64(now.Add(15*time.Minute).Unix()), claims["exp"])
	require.NotEmpty(t, claims["jti"])
}

func TestNewClaims_UniqueJTI(t *testing.T) {
	a := assertion.NewClaims("c", "aud", time.Minute)
	b := assertion.NewClaims("c", "aud", time.Minute)
	require.NotEqual(t, a["jti"], b["jti"])
}
