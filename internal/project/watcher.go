package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/signalforge/forge-agent/internal/logging"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ServiceCountCache keeps per-project service counts current by
// watching each project's compose file for edits, so list responses
// never pay for a parse.
type ServiceCountCache struct {
	mu      sync.RWMutex
	counts  map[string]int
	dirs    map[string]string
	service *Service
	watcher *fsnotify.Watcher
	logger  *logging.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

type composeServiceList struct {
	Services map[string]any `yaml:"services"`
}

func NewServiceCountCache(service *Service, logger *logging.Logger) *ServiceCountCache {
	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceCountCache{
		counts:  make(map[string]int),
		dirs:    make(map[string]string),
		service: service,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *ServiceCountCache) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	c.watcher = watcher

	if err := c.Sync(); err != nil {
		c.logger.Warn("failed to load initial service counts", zap.Error(err))
	}

	go c.watchLoop()

	return nil
}

func (c *ServiceCountCache) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.watcher != nil {
		c.watcher.Close()
	}
}

func (c *ServiceCountCache) GetServiceCount(projectID string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count, exists := c.counts[projectID]
	return count, exists
}

// Sync reconciles watched directories and cached counts with the
// current project list. Called at startup and after project CRUD.
func (c *ServiceCountCache) Sync() error {
	projects, err := c.service.List()
	if err != nil {
		return err
	}

	current := make(map[string]string, len(projects))
	for _, p := range projects {
		current[p.ID] = filepath.Dir(p.ComposePath)
	}

	c.mu.Lock()
	for id, dir := range c.dirs {
		if _, exists := current[id]; !exists {
			if c.watcher != nil {
				c.watcher.Remove(dir)
			}
			delete(c.dirs, id)
			delete(c.counts, id)
		}
	}
	for id, dir := range current {
		if _, exists := c.dirs[id]; !exists {
			if c.watcher != nil {
				if err := c.watcher.Add(dir); err != nil {
					c.logger.Warn("failed to watch project directory",
						zap.String("dir", dir),
						zap.Error(err),
					)
				}
			}
			c.dirs[id] = dir
		}
	}
	c.mu.Unlock()

	for _, p := range projects {
		if err := c.loadCount(p.ID, p.ComposePath); err != nil {
			c.logger.Warn("failed to load service count",
				zap.String("project_id", p.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (c *ServiceCountCache) loadCount(projectID, composePath string) error {
	content, err := os.ReadFile(composePath)
	if err != nil {
		if os.IsNotExist(err) {
			c.mu.Lock()
			delete(c.counts, projectID)
			c.mu.Unlock()
			return nil
		}
		return fmt.Errorf("failed to read compose file: %w", err)
	}

	var doc composeServiceList
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("failed to parse compose file: %w", err)
	}

	c.mu.Lock()
	c.counts[projectID] = len(doc.Services)
	c.mu.Unlock()

	c.logger.Debug("service count loaded",
		zap.String("project_id", projectID),
		zap.Int("services", len(doc.Services)),
	)
	return nil
}

func (c *ServiceCountCache) watchLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.handleFileEvent(event)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (c *ServiceCountCache) handleFileEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".yml") && !strings.HasSuffix(event.Name, ".yaml") {
		return
	}

	dir := filepath.Dir(event.Name)

	c.mu.RLock()
	projectID := ""
	for id, watched := range c.dirs {
		if watched == dir {
			projectID = id
			break
		}
	}
	c.mu.RUnlock()

	if projectID == "" {
		return
	}

	c.logger.Debug("compose file changed",
		zap.String("file", event.Name),
		zap.String("op", event.Op.String()),
	)

	// Editors write in bursts; give the file a moment to settle.
	go func() {
		time.Sleep(100 * time.Millisecond)
		if err := c.loadCount(projectID, event.Name); err != nil {
			c.logger.Warn("failed to reload service count",
				zap.String("project_id", projectID),
				zap.Error(err),
			)
		}
	}()
}
