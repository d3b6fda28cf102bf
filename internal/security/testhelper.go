package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"time"
)

// Issuer and audience of tokens minted by NewTestTokenProvider.
const (
	TestIssuer   = "sdr-auth-test"
	TestAudience = "sdr-api-test"
)

var testKey = sync.OnceValues(func() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
})

// NewTestTokenProvider returns an ES256 TokenProvider over a P-256 key generated once per test
// binary. Not for production use.
func NewTestTokenProvider() (*TokenProvider, error) {
	key, err := testKey()
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(key, nil, TestIssuer, TestAudience, 15*time.Minute), nil
}

// TestKeyPEM returns the test key pair as PKCS#8 and PKIX PEM, the formats JWT_PRIVATE_KEY and
// JWT_PUBLIC_KEY accept.
func TestKeyPEM() (privatePEM, publicPEM string, err error) {
	key, err := testKey()
	if err != nil {
		return "", "", err
	}
	priv, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", "", err
	}
	pub, err := x509.MarshalPKIXPublicKey(key.Public())
	if err != nil {
		return "", "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: priv})),
		string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})), nil
}
