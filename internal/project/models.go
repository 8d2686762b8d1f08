package project

type Project struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	RootPath    string            `json:"root_path"`
	ComposePath string            `json:"compose_path"`
	Services    []ServiceConfig   `json:"services"`
	Volumes     []VolumeMapping   `json:"volumes"`
	Environment map[string]string `json:"environment"`
	CreatedAt   int64             `json:"created_at"`
	UpdatedAt   int64             `json:"updated_at"`
}

type ServiceConfig struct {
	Name        string            `json:"name"`
	Image       string            `json:"image"`
	Enabled     bool              `json:"enabled"`
	Ports       []PortMapping     `json:"ports"`
	Environment map[string]string `json:"environment"`
}

type PortMapping struct {
	Host      int `json:"host"`
	Container int `json:"container"`
}

type VolumeMapping struct {
	HostPath      string `json:"host_path"`
	ContainerPath string `json:"container_path"`
	ReadOnly      bool   `json:"read_only"`
}

type CreateProjectRequest struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
}

type SaveComposeRequest struct {
	Content string `json:"content"`
}

// DefaultServices is the stack every new project starts from. Postgres
// ships disabled so mysql and postgres do not fight over the same apps.
func DefaultServices() []ServiceConfig {
	return []ServiceConfig{
		{
			Name:    "nginx",
			Image:   "nginx:latest",
			Enabled: true,
			Ports: []PortMapping{
				{Host: 80, Container: 80},
				{Host: 443, Container: 443},
			},
			Environment: map[string]string{},
		},
		{
			Name:    "php",
			Image:   "php:8.4-fpm",
			Enabled: true,
			Ports:   []PortMapping{},
			Environment: map[string]string{
				"PHP_MEMORY_LIMIT":        "256M",
				"PHP_POST_MAX_SIZE":       "100M",
				"PHP_UPLOAD_MAX_FILESIZE": "100M",
			},
		},
		{
			Name:    "mysql",
			Image:   "mysql:8",
			Enabled: true,
			Ports:   []PortMapping{{Host: 3306, Container: 3306}},
			Environment: map[string]string{
				"MYSQL_ROOT_PASSWORD": "secret",
				"MYSQL_DATABASE":      "app",
				"MYSQL_USER":          "app",
				"MYSQL_PASSWORD":      "secret",
			},
		},
		{
			Name:    "postgres",
			Image:   "postgres:17",
			Enabled: false,
			Ports:   []PortMapping{{Host: 5432, Container: 5432}},
			Environment: map[string]string{
				"POSTGRES_DB":       "app",
				"POSTGRES_USER":     "app",
				"POSTGRES_PASSWORD": "secret",
			},
		},
		{
			Name:        "redis",
			Image:       "redis:latest",
			Enabled:     true,
			Ports:       []PortMapping{{Host: 6379, Container: 6379}},
			Environment: map[string]string{},
		},
	}
}
