package server

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leslieo2/go-fullstack-starter/internal/config"
	"github.com/leslieo2/go-fullstack-starter/internal/observability"
	"github.com/leslieo2/go-fullstack-starter/internal/services"
)

type testDeps struct {
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

func newTestDeps(t *testing.T) testDeps {
	t.Helper()
	tracer, err := observability.NewTracer(config.DefaultTracingConfig())
	require.NoError(t, err)
	return testDeps{
		logger:  observability.NewNopLogger(),
		metrics: observability.NewMetrics(),
		tracer:  tracer,
	}
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) (*Server, testDeps) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	deps := newTestDeps(t)
	s, err := New(cfg, deps.logger, deps.metrics, deps.tracer, services.AddSharedServices(services.NewContainer()), opts...)
	require.NoError(t, err)
	return s, deps
}

func generateTestCertificates(t *testing.T) (string, string) {
	t.Helper()
	tmpDir := t.TempDir()

	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privKey.PublicKey, privKey)
	require.NoError(t, err)

	keyDER, err := x509.MarshalPKCS8PrivateKey(privKey)
	require.NoError(t, err)

	certFile := filepath.Join(tmpDir, "test-cert.pem")
	keyFile := filepath.Join(tmpDir, "test-key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}), 0o600))

	return certFile, keyFile
}
