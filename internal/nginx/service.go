package nginx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/signalforge/forge-agent/internal/logging"
	"github.com/signalforge/forge-agent/internal/validation"
	"go.uber.org/zap"
)

type Service struct {
	dataDir   string
	confDir   string
	container string
	mu        sync.Mutex
	logger    *logging.Logger
}

func NewService(dataDir, confDir, container string, logger *logging.Logger) *Service {
	return &Service{
		dataDir:   dataDir,
		confDir:   confDir,
		container: container,
		logger:    logger,
	}
}

func (s *Service) vhostsFile() string {
	return filepath.Join(s.dataDir, "vhosts.json")
}

func (s *Service) load() ([]Vhost, error) {
	content, err := os.ReadFile(s.vhostsFile())
	if err != nil {
		if os.IsNotExist(err) {
			return []Vhost{}, nil
		}
		return nil, fmt.Errorf("failed to read vhosts: %w", err)
	}

	var vhosts []Vhost
	if err := json.Unmarshal(content, &vhosts); err != nil {
		return nil, fmt.Errorf("failed to parse vhosts: %w", err)
	}
	return vhosts, nil
}

func (s *Service) save(vhosts []Vhost) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	content, err := json.MarshalIndent(vhosts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize vhosts: %w", err)
	}

	if err := os.WriteFile(s.vhostsFile(), content, 0o644); err != nil {
		return fmt.Errorf("failed to write vhosts: %w", err)
	}
	return nil
}

func (s *Service) List() ([]Vhost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Service) Get(id string) (Vhost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(id)
}

func (s *Service) find(id string) (Vhost, error) {
	vhosts, err := s.load()
	if err != nil {
		return Vhost{}, err
	}
	for _, v := range vhosts {
		if v.ID == id {
			return v, nil
		}
	}
	return Vhost{}, fmt.Errorf("vhost not found: %s", id)
}

func (s *Service) Create(req CreateVhostRequest) (Vhost, error) {
	if err := validation.ValidateDomain(req.ServerName); err != nil {
		return Vhost{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vhosts, err := s.load()
	if err != nil {
		return Vhost{}, err
	}

	for _, v := range vhosts {
		if v.ServerName == req.ServerName {
			return Vhost{}, fmt.Errorf("vhost with server name '%s' already exists", req.ServerName)
		}
	}

	if err := os.MkdirAll(s.confDir, 0o755); err != nil {
		return Vhost{}, fmt.Errorf("failed to create nginx conf directory: %w", err)
	}

	vhost := Vhost{
		ID:           uuid.New().String(),
		ServerName:   req.ServerName,
		DocumentRoot: req.DocumentRoot,
		PHPEnabled:   req.PHPEnabled,
		SSLEnabled:   req.SSLEnabled,
		SSLCertPath:  req.SSLCertPath,
		SSLKeyPath:   req.SSLKeyPath,
		ConfigPath:   filepath.Join(s.confDir, configFilename(req.ServerName)),
	}

	if err := s.writeConfigFile(vhost); err != nil {
		return Vhost{}, err
	}

	vhosts = append(vhosts, vhost)
	if err := s.save(vhosts); err != nil {
		return Vhost{}, err
	}

	s.logger.Info("vhost created",
		zap.String("vhost_id", vhost.ID),
		zap.String("server_name", vhost.ServerName),
	)
	return vhost, nil
}

func (s *Service) Update(vhost Vhost) (Vhost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vhosts, err := s.load()
	if err != nil {
		return Vhost{}, err
	}

	idx := -1
	for i, v := range vhosts {
		if v.ID == vhost.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Vhost{}, fmt.Errorf("vhost not found: %s", vhost.ID)
	}

	// Server name and config path are fixed at creation time.
	vhost.ServerName = vhosts[idx].ServerName
	vhost.ConfigPath = vhosts[idx].ConfigPath

	if err := s.writeConfigFile(vhost); err != nil {
		return Vhost{}, err
	}

	vhosts[idx] = vhost
	if err := s.save(vhosts); err != nil {
		return Vhost{}, err
	}

	s.logger.Info("vhost updated",
		zap.String("vhost_id", vhost.ID),
		zap.String("server_name", vhost.ServerName),
	)
	return vhost, nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vhosts, err := s.load()
	if err != nil {
		return err
	}

	idx := -1
	for i, v := range vhosts {
		if v.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("vhost not found: %s", id)
	}

	if _, statErr := os.Stat(vhosts[idx].ConfigPath); statErr == nil {
		if err := os.Remove(vhosts[idx].ConfigPath); err != nil {
			return fmt.Errorf("failed to delete vhost config: %w", err)
		}
	}

	serverName := vhosts[idx].ServerName
	vhosts = append(vhosts[:idx], vhosts[idx+1:]...)
	if err := s.save(vhosts); err != nil {
		return err
	}

	s.logger.Info("vhost deleted",
		zap.String("vhost_id", id),
		zap.String("server_name", serverName),
	)
	return nil
}

func (s *Service) writeConfigFile(vhost Vhost) error {
	content, err := generateVhostConfig(vhost)
	if err != nil {
		return err
	}
	if err := os.WriteFile(vhost.ConfigPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write vhost config: %w", err)
	}
	return nil
}

func (s *Service) ReadConfig(id string) (string, error) {
	vhost, err := s.Get(id)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(vhost.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("failed to read vhost config: %w", err)
	}
	return string(content), nil
}

// WriteConfig saves a hand-edited config verbatim. Callers are expected
// to run TestConfig before reloading.
func (s *Service) WriteConfig(id, content string) error {
	vhost, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := os.WriteFile(vhost.ConfigPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write vhost config: %w", err)
	}
	return nil
}

// TestConfig runs nginx -t inside the nginx container. nginx writes its
// diagnostics to stderr even on success.
func (s *Service) TestConfig(ctx context.Context) (TestResult, error) {
	cmd := exec.CommandContext(ctx, "docker", "exec", s.container, "nginx", "-t")

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			return TestResult{}, fmt.Errorf("failed to test nginx config: %w", runErr)
		}
	}

	errors := []string{}
	for _, line := range strings.Split(stderr.String(), "\n") {
		if strings.Contains(line, "error") || strings.Contains(line, "failed") {
			errors = append(errors, line)
		}
	}

	result := TestResult{
		Success: runErr == nil,
		Output:  stdout.String(),
		Errors:  errors,
	}
	if runErr != nil {
		result.Output = stderr.String()
	}

	s.logger.Debug("nginx config test",
		zap.Bool("success", result.Success),
		zap.Int("errors", len(errors)),
	)
	return result, nil
}

func (s *Service) Reload(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "exec", s.container, "nginx", "-s", "reload")

	output, err := cmd.CombinedOutput()
	if err != nil {
		s.logger.Warn("nginx reload failed",
			zap.String("container", s.container),
			zap.Error(err),
		)
		return fmt.Errorf("failed to reload nginx: %s", string(output))
	}

	s.logger.Info("nginx reloaded", zap.String("container", s.container))
	return nil
}

func configFilename(serverName string) string {
	return strings.ReplaceAll(serverName, ".", "_") + ".conf"
}
