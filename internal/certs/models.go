package certs

type Status struct {
	Installed   bool   `json:"installed"`
	Version     string `json:"version,omitempty"`
	CAInstalled bool   `json:"ca_installed"`
	CAPath      string `json:"ca_path,omitempty"`
}

type Certificate struct {
	Domain     string `json:"domain"`
	CertPath   string `json:"cert_path"`
	KeyPath    string `json:"key_path"`
	CreatedAt  int64  `json:"created_at"`
	IsWildcard bool   `json:"is_wildcard"`
}

type GenerateRequest struct {
	Domain   string `json:"domain"`
	Wildcard bool   `json:"wildcard"`
}
