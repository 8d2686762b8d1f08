package certs

import (
	"context"
	"encoding/json"
	"fmt"
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

type runFunc func(ctx context.Context, args ...string) ([]byte, error)

func runMkcert(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "mkcert", args...).CombinedOutput()
}

type Service struct {
	dataDir string
	sslDir  string
	mu      sync.Mutex
	logger  *logging.Logger

	// run invokes mkcert; swapped out in tests.
	run runFunc
}

func NewService(dataDir, sslDir string, logger *logging.Logger) *Service {
	return &Service{
		dataDir: dataDir,
		sslDir:  sslDir,
		logger:  logger,
		run:     runMkcert,
	}
}

func (s *Service) certsFile() string {
	return filepath.Join(s.dataDir, "certificates.json")
}

func (s *Service) load() ([]Certificate, error) {
	content, err := os.ReadFile(s.certsFile())
	if err != nil {
		if os.IsNotExist(err) {
			return []Certificate{}, nil
		}
		return nil, fmt.Errorf("failed to read certificates: %w", err)
	}

	var certs []Certificate
	if err := json.Unmarshal(content, &certs); err != nil {
		return nil, fmt.Errorf("failed to parse certificates: %w", err)
	}
	return certs, nil
}

func (s *Service) save(certs []Certificate) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	content, err := json.MarshalIndent(certs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize certificates: %w", err)
	}

	if err := os.WriteFile(s.certsFile(), content, 0o644); err != nil {
		return fmt.Errorf("failed to write certificates: %w", err)
	}
	return nil
}

// GetStatus reports whether mkcert and its local CA are available.
func (s *Service) GetStatus(ctx context.Context) Status {
	version, err := s.run(ctx, "-version")
	if err != nil {
		return Status{}
	}

	status := Status{
		Installed: true,
		Version:   strings.TrimSpace(string(version)),
	}

	caroot, err := s.run(ctx, "-CAROOT")
	if err != nil {
		return status
	}

	caPath := strings.TrimSpace(string(caroot))
	if _, err := os.Stat(filepath.Join(caPath, "rootCA.pem")); err == nil {
		status.CAInstalled = true
		status.CAPath = caPath
	}

	return status
}

func (s *Service) InstallCA(ctx context.Context) error {
	output, err := s.run(ctx, "-install")
	if err != nil {
		return fmt.Errorf("failed to install mkcert CA: %s", strings.TrimSpace(string(output)))
	}

	s.logger.Info("mkcert CA installed")
	return nil
}

// Generate issues a certificate for the domain and records it,
// replacing any previous certificate for the same domain.
func (s *Service) Generate(ctx context.Context, domain string, wildcard bool) (Certificate, error) {
	if err := validation.ValidateDomain(domain); err != nil {
		return Certificate{}, err
	}

	if err := os.MkdirAll(s.sslDir, 0o755); err != nil {
		return Certificate{}, fmt.Errorf("failed to create ssl directory: %w", err)
	}

	base := strings.ReplaceAll(domain, ".", "_")
	certPath := filepath.Join(s.sslDir, base+".crt")
	keyPath := filepath.Join(s.sslDir, base+".key")

	args := []string{"-cert-file", certPath, "-key-file", keyPath, domain}
	if wildcard {
		args = append(args, "*."+domain)
	}

	if output, err := s.run(ctx, args...); err != nil {
		return Certificate{}, fmt.Errorf("failed to generate certificate: %s", strings.TrimSpace(string(output)))
	}

	cert := Certificate{
		Domain:     domain,
		CertPath:   certPath,
		KeyPath:    keyPath,
		CreatedAt:  time.Now().Unix(),
		IsWildcard: wildcard,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	certs, err := s.load()
	if err != nil {
		return Certificate{}, err
	}

	kept := certs[:0]
	for _, c := range certs {
		if c.Domain != domain {
			kept = append(kept, c)
		}
	}
	kept = append(kept, cert)

	if err := s.save(kept); err != nil {
		return Certificate{}, err
	}

	s.logger.Info("certificate generated",
		zap.String("domain", domain),
		zap.Bool("wildcard", wildcard),
	)
	return cert, nil
}

// List returns recorded certificates whose files still exist on disk.
func (s *Service) List() ([]Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	certs, err := s.load()
	if err != nil {
		return nil, err
	}

	valid := []Certificate{}
	for _, c := range certs {
		if fileExists(c.CertPath) && fileExists(c.KeyPath) {
			valid = append(valid, c)
		}
	}
	return valid, nil
}

func (s *Service) Get(domain string) (Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	certs, err := s.load()
	if err != nil {
		return Certificate{}, err
	}
	for _, c := range certs {
		if c.Domain == domain {
			return c, nil
		}
	}
	return Certificate{}, fmt.Errorf("certificate not found for domain: %s", domain)
}

func (s *Service) Delete(domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	certs, err := s.load()
	if err != nil {
		return err
	}

	idx := -1
	for i, c := range certs {
		if c.Domain == domain {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("certificate not found: %s", domain)
	}

	for _, path := range []string{certs[idx].CertPath, certs[idx].KeyPath} {
		if fileExists(path) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to delete certificate file: %w", err)
			}
		}
	}

	certs = append(certs[:idx], certs[idx+1:]...)
	if err := s.save(certs); err != nil {
		return err
	}

	s.logger.Info("certificate deleted", zap.String("domain", domain))
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
