package dns

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/signalforge/forge-agent/internal/logging"
	"github.com/signalforge/forge-agent/internal/validation"
	"go.uber.org/zap"
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type Service struct {
	dataDir string
	tld     string
	mu      sync.Mutex
	logger  *logging.Logger

	// Overridable for tests.
	hostsPath string
	confDirs  []string
	run       runFunc
	lookup    func(ctx context.Context, host string) ([]string, error)
	dial      func(ctx context.Context, addr string) error
}

func NewService(dataDir, tld string, logger *logging.Logger) *Service {
	return &Service{
		dataDir:   dataDir,
		tld:       tld,
		logger:    logger,
		hostsPath: "/etc/hosts",
		confDirs: []string{
			"/etc/dnsmasq.d",
			"/usr/local/etc/dnsmasq.d",
			"/opt/homebrew/etc/dnsmasq.d",
		},
		run: runCommand,
		lookup: func(ctx context.Context, host string) ([]string, error) {
			return net.DefaultResolver.LookupHost(ctx, host)
		},
		dial: func(ctx context.Context, addr string) error {
			dialer := net.Dialer{Timeout: 2 * time.Second}
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return err
			}
			return conn.Close()
		},
	}
}

func (s *Service) domainsFile() string {
	return filepath.Join(s.dataDir, "domains.json")
}

// FullDomain appends the configured TLD unless the name already
// carries it.
func (s *Service) FullDomain(name string) string {
	suffix := "." + s.tld
	if strings.HasSuffix(name, suffix) {
		return name
	}
	return name + suffix
}

func (s *Service) load() ([]Domain, error) {
	content, err := os.ReadFile(s.domainsFile())
	if err != nil {
		if os.IsNotExist(err) {
			return []Domain{}, nil
		}
		return nil, fmt.Errorf("failed to read domains: %w", err)
	}

	var domains []Domain
	if err := json.Unmarshal(content, &domains); err != nil {
		return nil, fmt.Errorf("failed to parse domains: %w", err)
	}
	return domains, nil
}

func (s *Service) save(domains []Domain) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	content, err := json.MarshalIndent(domains, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize domains: %w", err)
	}

	if err := os.WriteFile(s.domainsFile(), content, 0o644); err != nil {
		return fmt.Errorf("failed to write domains: %w", err)
	}
	return nil
}

func (s *Service) configDir() string {
	for _, dir := range s.confDirs {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}
	return ""
}

func (s *Service) GetStatus(ctx context.Context) Status {
	_, whichErr := s.run(ctx, "which", "dnsmasq")
	_, pgrepErr := s.run(ctx, "pgrep", "dnsmasq")

	status := Status{
		Installed: whichErr == nil,
		Running:   pgrepErr == nil,
	}

	if dir := s.configDir(); dir != "" {
		status.ConfigPath = dir
		if _, err := os.Stat(filepath.Join(dir, s.tld+".conf")); err == nil {
			status.TLDConfigured = true
		}
	}

	return status
}

// ConfigureTLD writes the wildcard address rule routing the whole TLD
// to localhost, then tries to restart dnsmasq. The restart is best
// effort; the caller is told to restart manually when both attempts
// fail.
func (s *Service) ConfigureTLD(ctx context.Context) (string, error) {
	dir := s.configDir()
	if dir == "" {
		return "", fmt.Errorf("dnsmasq config directory not found, install dnsmasq first")
	}

	content := fmt.Sprintf("# Route all .%s domains to localhost\naddress=/.%s/127.0.0.1\n", s.tld, s.tld)
	confPath := filepath.Join(dir, s.tld+".conf")

	if err := os.WriteFile(confPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write dnsmasq config: %w", err)
	}

	s.logger.Info("dnsmasq TLD configured",
		zap.String("tld", s.tld),
		zap.String("config", confPath),
	)

	if _, err := s.run(ctx, "systemctl", "restart", "dnsmasq"); err == nil {
		return fmt.Sprintf("dnsmasq configured for .%s TLD and restarted", s.tld), nil
	}
	if _, err := s.run(ctx, "brew", "services", "restart", "dnsmasq"); err == nil {
		return fmt.Sprintf("dnsmasq configured for .%s TLD and restarted", s.tld), nil
	}

	return "dnsmasq configured, restart it manually to apply", nil
}

func (s *Service) List() ([]Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Service) Add(name, ipAddress string) (Domain, error) {
	fullDomain := s.FullDomain(name)
	if err := validation.ValidateDomain(fullDomain); err != nil {
		return Domain{}, err
	}

	if ipAddress == "" {
		ipAddress = "127.0.0.1"
	}
	if err := validation.ValidateIP(ipAddress); err != nil {
		return Domain{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	domains, err := s.load()
	if err != nil {
		return Domain{}, err
	}

	for _, d := range domains {
		if d.FullDomain == fullDomain {
			return Domain{}, fmt.Errorf("domain '%s' already exists", fullDomain)
		}
	}

	hostsErr := s.addHostsEntry(fullDomain, ipAddress)
	if hostsErr != nil {
		s.logger.Warn("failed to update hosts file",
			zap.String("domain", fullDomain),
			zap.Error(hostsErr),
		)
	}

	domain := Domain{
		Name:       strings.TrimSuffix(fullDomain, "."+s.tld),
		FullDomain: fullDomain,
		IPAddress:  ipAddress,
		InHosts:    hostsErr == nil,
		// The wildcard TLD rule covers every name, individual dnsmasq
		// entries are never written.
		InDnsmasq: false,
	}

	domains = append(domains, domain)
	if err := s.save(domains); err != nil {
		return Domain{}, err
	}

	s.logger.Info("domain added",
		zap.String("domain", fullDomain),
		zap.String("ip", ipAddress),
	)
	return domain, nil
}

func (s *Service) Remove(name string) error {
	fullDomain := s.FullDomain(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	domains, err := s.load()
	if err != nil {
		return err
	}

	idx := -1
	for i, d := range domains {
		if d.FullDomain == fullDomain {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("domain not found: %s", fullDomain)
	}

	if err := s.removeHostsEntry(fullDomain); err != nil {
		s.logger.Warn("failed to clean hosts file",
			zap.String("domain", fullDomain),
			zap.Error(err),
		)
	}

	domains = append(domains[:idx], domains[idx+1:]...)
	if err := s.save(domains); err != nil {
		return err
	}

	s.logger.Info("domain removed", zap.String("domain", fullDomain))
	return nil
}

func (s *Service) addHostsEntry(domain, ip string) error {
	content, err := os.ReadFile(s.hostsPath)
	if err != nil {
		return fmt.Errorf("failed to read hosts file: %w", err)
	}

	for _, line := range strings.Split(string(content), "\n") {
		if hostsLineHasDomain(line, domain) {
			return nil
		}
	}

	updated := strings.TrimRight(string(content), "\n") + fmt.Sprintf("\n%s %s\n", ip, domain)
	if err := os.WriteFile(s.hostsPath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to update hosts file: %w", err)
	}
	return nil
}

func (s *Service) removeHostsEntry(domain string) error {
	content, err := os.ReadFile(s.hostsPath)
	if err != nil {
		return fmt.Errorf("failed to read hosts file: %w", err)
	}

	kept := []string{}
	for _, line := range strings.Split(string(content), "\n") {
		if !hostsLineHasDomain(line, domain) {
			kept = append(kept, line)
		}
	}

	if err := os.WriteFile(s.hostsPath, []byte(strings.Join(kept, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to update hosts file: %w", err)
	}
	return nil
}

func hostsLineHasDomain(line, domain string) bool {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		return false
	}
	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return false
	}
	for _, field := range fields[1:] {
		if field == domain {
			return true
		}
	}
	return false
}

// HostsEntries lists the hosts file entries under the managed TLD,
// whether or not this agent wrote them.
func (s *Service) HostsEntries() ([]Domain, error) {
	content, err := os.ReadFile(s.hostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read hosts file: %w", err)
	}
	return parseHostsEntries(string(content), s.tld), nil
}

func parseHostsEntries(content, tld string) []Domain {
	suffix := "." + tld
	entries := []Domain{}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}

		ip := fields[0]
		for _, name := range fields[1:] {
			if !strings.HasSuffix(name, suffix) {
				continue
			}
			entries = append(entries, Domain{
				Name:       strings.TrimSuffix(name, suffix),
				FullDomain: name,
				IPAddress:  ip,
				InHosts:    true,
			})
		}
	}

	return entries
}

// TestResolution checks whether a domain under the TLD actually
// resolves, first through the resolver, then by a TCP probe on port 80.
func (s *Service) TestResolution(ctx context.Context, name string) TestResult {
	fullDomain := s.FullDomain(name)

	if addrs, err := s.lookup(ctx, fullDomain); err == nil && len(addrs) > 0 {
		return TestResult{
			Domain:    fullDomain,
			Resolves:  true,
			IPAddress: addrs[0],
			Method:    "resolver",
		}
	}

	if err := s.dial(ctx, fullDomain+":80"); err == nil {
		return TestResult{
			Domain:    fullDomain,
			Resolves:  true,
			IPAddress: "127.0.0.1",
			Method:    "tcp_connect",
		}
	}

	return TestResult{Domain: fullDomain, Method: "none"}
}
