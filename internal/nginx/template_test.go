package nginx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVhostConfigPlainHTTP(t *testing.T) {
	content, err := generateVhostConfig(Vhost{
		ServerName:   "myapp.sig",
		DocumentRoot: "/var/www/html/public",
	})
	require.NoError(t, err)

	assert.Contains(t, content, "listen 80;")
	assert.Contains(t, content, "server_name myapp.sig;")
	assert.Contains(t, content, "root /var/www/html/public;")
	assert.Contains(t, content, "try_files $uri $uri/ /index.php?$query_string;")
	assert.Contains(t, content, "deny all;")
	assert.NotContains(t, content, "listen 443")
	assert.NotContains(t, content, "fastcgi_pass")
}

func TestGenerateVhostConfigPHP(t *testing.T) {
	content, err := generateVhostConfig(Vhost{
		ServerName:   "myapp.sig",
		DocumentRoot: "/var/www/html/public",
		PHPEnabled:   true,
	})
	require.NoError(t, err)

	assert.Contains(t, content, "fastcgi_pass php:9000;")
	assert.Contains(t, content, "fastcgi_param SCRIPT_FILENAME $document_root$fastcgi_script_name;")
}

func TestGenerateVhostConfigSSL(t *testing.T) {
	content, err := generateVhostConfig(Vhost{
		ServerName:   "myapp.sig",
		DocumentRoot: "/var/www/html/public",
		SSLEnabled:   true,
		SSLCertPath:  "/ssl/myapp_sig.crt",
		SSLKeyPath:   "/ssl/myapp_sig.key",
	})
	require.NoError(t, err)

	assert.Contains(t, content, "return 301 https://myapp.sig$request_uri;")
	assert.Contains(t, content, "listen 443 ssl http2;")
	assert.Contains(t, content, "ssl_certificate /ssl/myapp_sig.crt;")
	assert.Contains(t, content, "ssl_certificate_key /ssl/myapp_sig.key;")
	assert.Contains(t, content, "ssl_protocols TLSv1.2 TLSv1.3;")

	// Redirect block first, TLS block second.
	assert.Equal(t, 2, strings.Count(content, "server {"))
}

func TestGenerateVhostConfigSSLWithoutCertPaths(t *testing.T) {
	content, err := generateVhostConfig(Vhost{
		ServerName:   "myapp.sig",
		DocumentRoot: "/var/www/html/public",
		SSLEnabled:   true,
	})
	require.NoError(t, err)

	assert.Contains(t, content, "listen 443 ssl http2;")
	assert.NotContains(t, content, "ssl_certificate ")
}
