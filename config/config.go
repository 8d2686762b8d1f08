package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/fx"
)

type Config struct {
	AccessToken     string
	Port            string
	DataDir         string
	ProjectsDir     string
	SSLDir          string
	NginxConfDir    string
	NginxContainer  string
	EngineMode      string
	RefreshInterval time.Duration
	StopTimeout     int
	LogTailDefault  int
	TLD             string
	NetworkSubnet   string
	LogLevel        string
}

func NewConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}
	dataRoot := filepath.Join(home, "SignalforgeData")

	return &Config{
		AccessToken:     getEnv("ACCESS_TOKEN", ""),
		Port:            getEnv("PORT", "8090"),
		DataDir:         getEnv("DATA_DIR", dataRoot),
		ProjectsDir:     getEnv("PROJECTS_DIR", filepath.Join(dataRoot, "projects")),
		SSLDir:          getEnv("SSL_DIR", filepath.Join(dataRoot, "ssl")),
		NginxConfDir:    getEnv("NGINX_CONF_DIR", filepath.Join(dataRoot, "nginx", "conf.d")),
		NginxContainer:  getEnv("NGINX_CONTAINER", "signalforge-nginx"),
		EngineMode:      getEnv("ENGINE_MODE", "docker"),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Second),
		StopTimeout:     getEnvInt("STOP_TIMEOUT", 10),
		LogTailDefault:  getEnvInt("LOG_TAIL_DEFAULT", 100),
		TLD:             getEnv("TLD", "sig"),
		NetworkSubnet:   getEnv("NETWORK_SUBNET", "172.25.0.0/16"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.ProjectsDir, c.SSLDir, c.NginxConfDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

var Module = fx.Options(
	fx.Provide(NewConfig),
)
