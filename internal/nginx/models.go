package nginx

type Vhost struct {
	ID           string `json:"id"`
	ServerName   string `json:"server_name"`
	DocumentRoot string `json:"document_root"`
	PHPEnabled   bool   `json:"php_enabled"`
	SSLEnabled   bool   `json:"ssl_enabled"`
	SSLCertPath  string `json:"ssl_cert_path,omitempty"`
	SSLKeyPath   string `json:"ssl_key_path,omitempty"`
	ConfigPath   string `json:"config_path"`
}

type CreateVhostRequest struct {
	ServerName   string `json:"server_name"`
	DocumentRoot string `json:"document_root"`
	PHPEnabled   bool   `json:"php_enabled"`
	SSLEnabled   bool   `json:"ssl_enabled"`
	SSLCertPath  string `json:"ssl_cert_path,omitempty"`
	SSLKeyPath   string `json:"ssl_key_path,omitempty"`
}

type TestResult struct {
	Success bool     `json:"success"`
	Output  string   `json:"output"`
	Errors  []string `json:"errors"`
}

type SaveConfigRequest struct {
	Content string `json:"content"`
}
