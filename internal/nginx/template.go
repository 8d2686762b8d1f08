package nginx

import (
	"bytes"
	"fmt"
	"text/template"
)

// vhostTemplate renders a server block per vhost. SSL vhosts get a
// port 80 redirect plus a TLS block; plain vhosts serve on 80 directly.
var vhostTemplate = template.Must(template.New("vhost").Parse(`server {
    listen 80;
    server_name {{.ServerName}};
{{- if .SSLEnabled}}
    return 301 https://{{.ServerName}}$request_uri;
}

server {
    listen 443 ssl http2;
    server_name {{.ServerName}};
{{- if and .SSLCertPath .SSLKeyPath}}

    ssl_certificate {{.SSLCertPath}};
    ssl_certificate_key {{.SSLKeyPath}};
    ssl_protocols TLSv1.2 TLSv1.3;
    ssl_ciphers ECDHE-ECDSA-AES128-GCM-SHA256:ECDHE-RSA-AES128-GCM-SHA256;
    ssl_prefer_server_ciphers off;
{{- end}}
{{- end}}

    root {{.DocumentRoot}};
    index index.php index.html index.htm;

    location / {
        try_files $uri $uri/ /index.php?$query_string;
    }
{{- if .PHPEnabled}}

    location ~ \.php$ {
        fastcgi_pass php:9000;
        fastcgi_index index.php;
        fastcgi_param SCRIPT_FILENAME $document_root$fastcgi_script_name;
        include fastcgi_params;
    }
{{- end}}

    location ~ /\.ht {
        deny all;
    }

    access_log /var/log/nginx/access.log;
    error_log /var/log/nginx/error.log;
}
`))

func generateVhostConfig(vhost Vhost) (string, error) {
	var buf bytes.Buffer
	if err := vhostTemplate.Execute(&buf, vhost); err != nil {
		return "", fmt.Errorf("failed to render vhost config: %w", err)
	}
	return buf.String(), nil
}

// DefaultConfig is the catch-all server block written when the nginx
// container is first provisioned.
const DefaultConfig = `server {
    listen 80 default_server;
    listen [::]:80 default_server;

    root /var/www/html/public;
    index index.php index.html index.htm;

    server_name _;

    location / {
        try_files $uri $uri/ /index.php?$query_string;
    }

    location ~ \.php$ {
        fastcgi_pass php:9000;
        fastcgi_index index.php;
        fastcgi_param SCRIPT_FILENAME $document_root$fastcgi_script_name;
        include fastcgi_params;
    }

    location ~ /\.ht {
        deny all;
    }
}
`
