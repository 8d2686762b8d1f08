package dns

type Status struct {
	Installed     bool   `json:"installed"`
	Running       bool   `json:"running"`
	ConfigPath    string `json:"config_path,omitempty"`
	TLDConfigured bool   `json:"tld_configured"`
}

type Domain struct {
	Name       string `json:"name"`
	FullDomain string `json:"full_domain"`
	IPAddress  string `json:"ip_address"`
	InHosts    bool   `json:"in_hosts"`
	InDnsmasq  bool   `json:"in_dnsmasq"`
}

type TestResult struct {
	Domain    string `json:"domain"`
	Resolves  bool   `json:"resolves"`
	IPAddress string `json:"ip_address,omitempty"`
	Method    string `json:"method"`
}

type AddDomainRequest struct {
	Name      string `json:"name"`
	IPAddress string `json:"ip_address,omitempty"`
}
