package certs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalforge/forge-agent/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	logger, err := logging.NewLogger("error")
	if err != nil {
		panic(err)
	}
	return logger
}

// fakeMkcert writes the requested cert and key files so store behavior
// can be tested without the real binary.
func fakeMkcert(t *testing.T, calls *[][]string) runFunc {
	t.Helper()
	return func(ctx context.Context, args ...string) ([]byte, error) {
		*calls = append(*calls, args)
		for i, arg := range args {
			if (arg == "-cert-file" || arg == "-key-file") && i+1 < len(args) {
				require.NoError(t, os.WriteFile(args[i+1], []byte("pem"), 0o644))
			}
		}
		return []byte("Created a new certificate"), nil
	}
}

func newTestService(t *testing.T) (*Service, *[][]string) {
	t.Helper()
	dataDir := t.TempDir()
	svc := NewService(dataDir, filepath.Join(dataDir, "ssl"), testLogger())
	calls := &[][]string{}
	svc.run = fakeMkcert(t, calls)
	return svc, calls
}

func TestGenerateCertificate(t *testing.T) {
	svc, calls := newTestService(t)

	cert, err := svc.Generate(context.Background(), "myapp.sig", false)
	require.NoError(t, err)

	assert.Equal(t, "myapp.sig", cert.Domain)
	assert.Equal(t, filepath.Join(svc.sslDir, "myapp_sig.crt"), cert.CertPath)
	assert.Equal(t, filepath.Join(svc.sslDir, "myapp_sig.key"), cert.KeyPath)
	assert.False(t, cert.IsWildcard)
	assert.NotZero(t, cert.CreatedAt)

	require.Len(t, *calls, 1)
	assert.Equal(t, "myapp.sig", (*calls)[0][len((*calls)[0])-1])
}

func TestGenerateWildcardPassesBothNames(t *testing.T) {
	svc, calls := newTestService(t)

	cert, err := svc.Generate(context.Background(), "myapp.sig", true)
	require.NoError(t, err)
	assert.True(t, cert.IsWildcard)

	require.Len(t, *calls, 1)
	args := (*calls)[0]
	assert.Equal(t, "myapp.sig", args[len(args)-2])
	assert.Equal(t, "*.myapp.sig", args[len(args)-1])
}

func TestGenerateReplacesSameDomain(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Generate(context.Background(), "myapp.sig", false)
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "myapp.sig", true)
	require.NoError(t, err)

	certs, err := svc.List()
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.True(t, certs[0].IsWildcard)
}

func TestGenerateRejectsBadDomain(t *testing.T) {
	svc, calls := newTestService(t)

	_, err := svc.Generate(context.Background(), "not a domain!", false)
	require.Error(t, err)
	assert.Empty(t, *calls)
}

func TestGenerateSurfacesMkcertFailure(t *testing.T) {
	svc, _ := newTestService(t)
	svc.run = func(ctx context.Context, args ...string) ([]byte, error) {
		return []byte("ERROR: failed to generate"), errors.New("exit status 1")
	}

	_, err := svc.Generate(context.Background(), "myapp.sig", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate")
}

func TestListSkipsMissingFiles(t *testing.T) {
	svc, _ := newTestService(t)

	kept, err := svc.Generate(context.Background(), "keep.sig", false)
	require.NoError(t, err)
	gone, err := svc.Generate(context.Background(), "gone.sig", false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(gone.KeyPath))

	certs, err := svc.List()
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, kept.Domain, certs[0].Domain)
}

func TestDeleteRemovesFiles(t *testing.T) {
	svc, _ := newTestService(t)

	cert, err := svc.Generate(context.Background(), "myapp.sig", false)
	require.NoError(t, err)

	require.NoError(t, svc.Delete("myapp.sig"))

	_, err = os.Stat(cert.CertPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cert.KeyPath)
	assert.True(t, os.IsNotExist(err))

	require.Error(t, svc.Delete("myapp.sig"))
}

func TestStatusWhenMkcertMissing(t *testing.T) {
	svc, _ := newTestService(t)
	svc.run = func(ctx context.Context, args ...string) ([]byte, error) {
		return nil, errors.New("executable file not found")
	}

	status := svc.GetStatus(context.Background())
	assert.False(t, status.Installed)
	assert.False(t, status.CAInstalled)
}

func TestStatusWithInstalledCA(t *testing.T) {
	svc, _ := newTestService(t)
	caroot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(caroot, "rootCA.pem"), []byte("pem"), 0o644))

	svc.run = func(ctx context.Context, args ...string) ([]byte, error) {
		switch args[0] {
		case "-version":
			return []byte("v1.4.4\n"), nil
		case "-CAROOT":
			return []byte(caroot + "\n"), nil
		}
		return nil, errors.New("unexpected call")
	}

	status := svc.GetStatus(context.Background())
	assert.True(t, status.Installed)
	assert.Equal(t, "v1.4.4", status.Version)
	assert.True(t, status.CAInstalled)
	assert.Equal(t, caroot, status.CAPath)
}
