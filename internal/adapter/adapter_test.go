package adapter_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCert writes a self-signed certificate and its key into dir.
func writeCert(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "storefront-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(priv)
	require.NoError(t, err)

	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath,
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyPath,
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certPath, keyPath
}

func TestMakeTLSConfig(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeCert(t, dir)

	t.Run("ServerAuthOnly", func(t *testing.T) {
		cfg, err := adapter.MakeTLSConfig(certPath, "", "")
		require.NoError(t, err)
		assert.NotNil(t, cfg.RootCAs)
		assert.Empty(t, cfg.Certificates)
	})

	t.Run("ClientCert", func(t *testing.T) {
		cfg, err := adapter.MakeTLSConfig(certPath, certPath, keyPath)
		require.NoError(t, err)
		assert.Len(t, cfg.Certificates, 1)
	})

	t.Run("CertWithoutKey", func(t *testing.T) {
		_, err := adapter.MakeTLSConfig(certPath, certPath, "")
		assert.Error(t, err)
	})

	t.Run("MissingCA", func(t *testing.T) {
		_, err := adapter.MakeTLSConfig(filepath.Join(dir, "none.pem"), "", "")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("InvalidCA", func(t *testing.T) {
		_, err := adapter.MakeTLSConfig(keyPath, "", "")
		assert.Error(t, err)
	})
}
