package project

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/cli"
	"gopkg.in/yaml.v3"
)

const networkName = "signalforge"

type composeService struct {
	Image         string   `yaml:"image"`
	ContainerName string   `yaml:"container_name"`
	Ports         []string `yaml:"ports,omitempty"`
	Volumes       []string `yaml:"volumes,omitempty"`
	Environment   []string `yaml:"environment,omitempty"`
	Networks      []string `yaml:"networks"`
	DependsOn     []string `yaml:"depends_on,omitempty"`
	Restart       string   `yaml:"restart"`
}

type composeNetwork struct {
	Driver string      `yaml:"driver"`
	IPAM   composeIPAM `yaml:"ipam"`
}

type composeIPAM struct {
	Config []map[string]string `yaml:"config"`
}

type composeDocument struct {
	Services map[string]composeService `yaml:"services"`
	Networks map[string]composeNetwork `yaml:"networks"`
	Volumes  map[string]any            `yaml:"volumes,omitempty"`
}

// dataVolumes maps database services to their named data volume and
// mount point, so toggling a service off also drops its volume entry.
var dataVolumes = map[string]struct{ volume, mount string }{
	"mysql":    {"mysql_data", "/var/lib/mysql"},
	"postgres": {"postgres_data", "/var/lib/postgresql/data"},
	"redis":    {"redis_data", "/data"},
}

// GenerateCompose renders the project's docker-compose.yml from its
// service toggles. Only enabled services appear in the output.
func (s *Service) GenerateCompose(project Project) (string, error) {
	doc := composeDocument{
		Services: make(map[string]composeService),
		Networks: map[string]composeNetwork{
			networkName: {
				Driver: "bridge",
				IPAM: composeIPAM{
					Config: []map[string]string{{"subnet": s.networkSubnet}},
				},
			},
		},
		Volumes: make(map[string]any),
	}

	enabled := make(map[string]bool)
	for _, svc := range project.Services {
		if svc.Enabled {
			enabled[svc.Name] = true
		}
	}

	slug := containerSlug(project.Name)

	for _, svc := range project.Services {
		if !svc.Enabled {
			continue
		}

		entry := composeService{
			Image:         svc.Image,
			ContainerName: slug + "-" + svc.Name,
			Networks:      []string{networkName},
			Restart:       "unless-stopped",
		}

		for _, port := range svc.Ports {
			entry.Ports = append(entry.Ports, fmt.Sprintf("%d:%d", port.Host, port.Container))
		}

		// nginx and php both mount the project root so the web server
		// and the interpreter see the same tree.
		if svc.Name == "nginx" || svc.Name == "php" {
			for _, vol := range project.Volumes {
				mapping := vol.HostPath + ":" + vol.ContainerPath
				if vol.ReadOnly {
					mapping += ":ro"
				}
				entry.Volumes = append(entry.Volumes, mapping)
			}
		}

		if data, ok := dataVolumes[svc.Name]; ok {
			entry.Volumes = append(entry.Volumes, data.volume+":"+data.mount)
			doc.Volumes[data.volume] = nil
		}

		for key, value := range svc.Environment {
			entry.Environment = append(entry.Environment, key+"="+value)
		}
		sort.Strings(entry.Environment)

		if svc.Name == "nginx" && enabled["php"] {
			entry.DependsOn = []string{"php"}
		}

		doc.Services[svc.Name] = entry
	}

	if len(doc.Volumes) == 0 {
		doc.Volumes = nil
	}

	content, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to render compose file: %w", err)
	}
	return string(content), nil
}

func containerSlug(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}

// validateCompose parses the candidate content as a compose project
// before it is allowed to replace the file on disk.
func validateCompose(dir, content string) error {
	tempFile, err := os.CreateTemp(dir, "compose-validate-*.yml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.WriteString(content); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	tempFile.Close()

	options, err := cli.NewProjectOptions(
		[]string{tempPath},
		cli.WithWorkingDirectory(dir),
		cli.WithResolvedPaths(false),
		cli.WithDiscardEnvFile,
	)
	if err != nil {
		return fmt.Errorf("invalid compose configuration: %w", err)
	}

	if _, err := cli.ProjectFromOptions(context.Background(), options); err != nil {
		return fmt.Errorf("invalid compose file: %w", err)
	}

	return nil
}
