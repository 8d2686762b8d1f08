package nginx

import (
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

func newTestService(t *testing.T) *Service {
	t.Helper()
	dataDir := t.TempDir()
	return NewService(dataDir, filepath.Join(dataDir, "conf.d"), "signalforge-nginx", testLogger())
}

func TestCreateVhost(t *testing.T) {
	svc := newTestService(t)

	vhost, err := svc.Create(CreateVhostRequest{
		ServerName:   "myapp.sig",
		DocumentRoot: "/var/www/html/public",
		PHPEnabled:   true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, vhost.ID)
	assert.Equal(t, filepath.Join(svc.confDir, "myapp_sig.conf"), vhost.ConfigPath)

	content, err := os.ReadFile(vhost.ConfigPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "server_name myapp.sig;")
}

func TestCreateVhostDuplicateServerName(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(CreateVhostRequest{ServerName: "myapp.sig", DocumentRoot: "/var/www"})
	require.NoError(t, err)

	_, err = svc.Create(CreateVhostRequest{ServerName: "myapp.sig", DocumentRoot: "/var/www"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreateVhostRejectsBadServerName(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(CreateVhostRequest{ServerName: "bad name!", DocumentRoot: "/var/www"})
	require.Error(t, err)
}

func TestUpdateVhostRegeneratesConfig(t *testing.T) {
	svc := newTestService(t)

	vhost, err := svc.Create(CreateVhostRequest{
		ServerName:   "myapp.sig",
		DocumentRoot: "/var/www/html/public",
		PHPEnabled:   true,
	})
	require.NoError(t, err)

	vhost.PHPEnabled = false
	updated, err := svc.Update(vhost)
	require.NoError(t, err)

	content, err := os.ReadFile(updated.ConfigPath)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "fastcgi_pass")
}

func TestDeleteVhostRemovesConfig(t *testing.T) {
	svc := newTestService(t)

	vhost, err := svc.Create(CreateVhostRequest{ServerName: "myapp.sig", DocumentRoot: "/var/www"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(vhost.ID))

	_, err = os.Stat(vhost.ConfigPath)
	assert.True(t, os.IsNotExist(err))

	vhosts, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, vhosts)
}

func TestWriteConfigVerbatim(t *testing.T) {
	svc := newTestService(t)

	vhost, err := svc.Create(CreateVhostRequest{ServerName: "myapp.sig", DocumentRoot: "/var/www"})
	require.NoError(t, err)

	custom := "server { listen 8080; }\n"
	require.NoError(t, svc.WriteConfig(vhost.ID, custom))

	content, err := svc.ReadConfig(vhost.ID)
	require.NoError(t, err)
	assert.Equal(t, custom, content)
}
