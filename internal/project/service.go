package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/signalforge/forge-agent/internal/logging"
	"github.com/signalforge/forge-agent/internal/validation"
	"go.uber.org/zap"
)

// configDirName is the per-project directory holding the generated
// compose file, created inside the project root.
const configDirName = ".signalforge"

type Service struct {
	dataDir       string
	projectsDir   string
	networkSubnet string
	mu            sync.Mutex
	logger        *logging.Logger
}

func NewService(dataDir, projectsDir, networkSubnet string, logger *logging.Logger) *Service {
	logger.Debug("project service initialized",
		zap.String("data_dir", dataDir),
		zap.String("projects_dir", projectsDir),
	)
	return &Service{
		dataDir:       dataDir,
		projectsDir:   projectsDir,
		networkSubnet: networkSubnet,
		logger:        logger,
	}
}

func (s *Service) projectsFile() string {
	return filepath.Join(s.dataDir, "projects.json")
}

func (s *Service) load() ([]Project, error) {
	content, err := os.ReadFile(s.projectsFile())
	if err != nil {
		if os.IsNotExist(err) {
			return []Project{}, nil
		}
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}

	var projects []Project
	if err := json.Unmarshal(content, &projects); err != nil {
		return nil, fmt.Errorf("failed to parse projects: %w", err)
	}
	return projects, nil
}

func (s *Service) save(projects []Project) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	content, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize projects: %w", err)
	}

	if err := os.WriteFile(s.projectsFile(), content, 0o644); err != nil {
		return fmt.Errorf("failed to write projects: %w", err)
	}
	return nil
}

func (s *Service) List() ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Service) Get(id string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(id)
}

func (s *Service) find(id string) (Project, error) {
	projects, err := s.load()
	if err != nil {
		return Project{}, err
	}
	for _, p := range projects {
		if p.ID == id {
			return p, nil
		}
	}
	return Project{}, fmt.Errorf("project not found: %s", id)
}

func (s *Service) Create(req CreateProjectRequest) (Project, error) {
	if err := validation.ValidateName(req.Name); err != nil {
		return Project{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load()
	if err != nil {
		return Project{}, err
	}

	for _, p := range projects {
		if p.Name == req.Name {
			return Project{}, fmt.Errorf("project with name '%s' already exists", req.Name)
		}
	}

	rootPath := req.RootPath
	if rootPath == "" {
		rootPath = filepath.Join(s.projectsDir, req.Name)
	}

	configDir := filepath.Join(rootPath, configDirName)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return Project{}, fmt.Errorf("failed to create project config directory: %w", err)
	}

	now := time.Now().Unix()
	project := Project{
		ID:          uuid.New().String(),
		Name:        req.Name,
		RootPath:    rootPath,
		ComposePath: filepath.Join(configDir, "docker-compose.yml"),
		Services:    DefaultServices(),
		Volumes: []VolumeMapping{
			{HostPath: rootPath, ContainerPath: "/var/www/html", ReadOnly: false},
		},
		Environment: map[string]string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.writeComposeFile(project); err != nil {
		return Project{}, err
	}

	projects = append(projects, project)
	if err := s.save(projects); err != nil {
		return Project{}, err
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("name", project.Name),
		zap.String("root_path", project.RootPath),
	)
	return project, nil
}

func (s *Service) Update(project Project) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load()
	if err != nil {
		return Project{}, err
	}

	idx := -1
	for i, p := range projects {
		if p.ID == project.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Project{}, fmt.Errorf("project not found: %s", project.ID)
	}

	// Root and compose paths are fixed at creation time.
	project.RootPath = projects[idx].RootPath
	project.ComposePath = projects[idx].ComposePath
	project.CreatedAt = projects[idx].CreatedAt
	project.UpdatedAt = time.Now().Unix()

	if err := s.writeComposeFile(project); err != nil {
		return Project{}, err
	}

	projects[idx] = project
	if err := s.save(projects); err != nil {
		return Project{}, err
	}

	s.logger.Info("project updated",
		zap.String("project_id", project.ID),
		zap.String("name", project.Name),
	)
	return project, nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load()
	if err != nil {
		return err
	}

	idx := -1
	for i, p := range projects {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("project not found: %s", id)
	}

	// Only the generated config directory is removed, never the
	// project's own files.
	configDir := filepath.Join(projects[idx].RootPath, configDirName)
	if _, statErr := os.Stat(configDir); statErr == nil {
		if err := os.RemoveAll(configDir); err != nil {
			return fmt.Errorf("failed to remove project config: %w", err)
		}
	}

	name := projects[idx].Name
	projects = append(projects[:idx], projects[idx+1:]...)
	if err := s.save(projects); err != nil {
		return err
	}

	s.logger.Info("project deleted",
		zap.String("project_id", id),
		zap.String("name", name),
	)
	return nil
}

func (s *Service) writeComposeFile(project Project) error {
	content, err := s.GenerateCompose(project)
	if err != nil {
		return err
	}
	if err := os.WriteFile(project.ComposePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write docker-compose.yml: %w", err)
	}
	return nil
}

func (s *Service) ReadCompose(id string) (string, error) {
	project, err := s.Get(id)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(project.ComposePath)
	if err != nil {
		return "", fmt.Errorf("failed to read docker-compose.yml: %w", err)
	}
	return string(content), nil
}

// WriteCompose saves a hand-edited compose file after validating it
// parses as a compose project.
func (s *Service) WriteCompose(id, content string) error {
	project, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := validateCompose(filepath.Dir(project.ComposePath), content); err != nil {
		return err
	}

	if err := os.WriteFile(project.ComposePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write docker-compose.yml: %w", err)
	}

	s.logger.Info("compose file saved",
		zap.String("project_id", id),
	)
	return nil
}

func (s *Service) Up(ctx context.Context, id string) (string, error) {
	return s.compose(ctx, id, "up", "-d")
}

func (s *Service) Down(ctx context.Context, id string) (string, error) {
	return s.compose(ctx, id, "down")
}

func (s *Service) Restart(ctx context.Context, id string) (string, error) {
	return s.compose(ctx, id, "restart")
}

func (s *Service) Status(ctx context.Context, id string) (string, error) {
	return s.compose(ctx, id, "ps", "--format", "json")
}

func (s *Service) compose(ctx context.Context, id string, composeArgs ...string) (string, error) {
	project, err := s.Get(id)
	if err != nil {
		return "", err
	}

	args := append([]string{"compose", "-f", project.ComposePath}, composeArgs...)

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Dir = project.RootPath
	cmd.Env = []string{
		"PATH=/usr/local/bin:/usr/bin:/bin",
		"HOME=/tmp",
	}

	s.logger.Debug("running docker compose command",
		zap.String("project_id", id),
		zap.Strings("args", composeArgs),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		s.logger.Warn("docker compose command failed",
			zap.String("project_id", id),
			zap.Strings("args", composeArgs),
			zap.Error(err),
		)
		return "", fmt.Errorf("docker compose %s failed: %s", composeArgs[0], string(output))
	}

	return string(output), nil
}
