// Package preset holds the table of well-known images and the startup
// commands that keep them running in the foreground, plus user overrides
// loaded from ~/.sizer/images.json.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"
)

// Image describes one profilable image and how to keep it alive for the
// duration of a sampling window.
type Image struct {
	Name        string `json:"name"`
	Command     string `json:"command,omitempty"`
	Description string `json:"description"`
	Category    string `json:"category"`

	// StartupDelay gives slow-starting images (databases running initdb)
	// extra time before sampling begins.
	StartupDelay time.Duration `json:"startup_delay,omitempty"`
}

// Defaults returns the built-in image table in display order. Images with an
// empty Command rely on the generic keep-alive fallback chain.
func Defaults() []Image {
	return []Image{
		{Name: "nginx:latest", Command: "nginx -g 'daemon off;'", Description: "Nginx Web Server", Category: "Web Servers"},
		{Name: "httpd:latest", Command: "httpd-foreground", Description: "Apache HTTP Server", Category: "Web Servers"},
		{Name: "redis:latest", Command: "redis-server", Description: "Redis Cache", Category: "Databases"},
		{Name: "postgres:latest", Description: "PostgreSQL Database", Category: "Databases", StartupDelay: 5 * time.Second},
		{Name: "mysql:latest", Description: "MySQL Database", Category: "Databases"},
		{Name: "python:3.11", Command: "sleep 3600", Description: "Python 3.11", Category: "Languages"},
		{Name: "node:18", Command: "sleep 3600", Description: "Node.js 18", Category: "Languages"},
		{Name: "openjdk:17", Command: "jshell", Description: "OpenJDK 17", Category: "Languages"},
		{Name: "alpine:latest", Description: "Alpine Linux", Category: "Base Images"},
		{Name: "ubuntu:latest", Description: "Ubuntu Linux", Category: "Base Images"},
	}
}

// Command returns the known-good startup command for an image, or "" when
// none is registered and the caller should fall back to a keep-alive command.
func Command(imageName string) string {
	for _, img := range Defaults() {
		if img.Name == imageName {
			return img.Command
		}
	}
	return ""
}

// userConfig is the on-disk override file. JSONC is tolerated: comments and
// trailing commas are standardized away before decoding.
type userConfig struct {
	Images []Image `json:"images"`
}

// ConfigPath returns the path of the user override file.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sizer", "images.json")
}

// Load returns the image table with user overrides applied. Overrides are
// matched by image name: a matching entry replaces the built-in row, a new
// name is appended. A missing file yields the defaults.
func Load() ([]Image, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom is Load with an explicit path.
func LoadFrom(path string) ([]Image, error) {
	images := Defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return images, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image config: %w", err)
	}

	stdData, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to standardize image config: %w", err)
	}

	var cfg userConfig
	if err := json.Unmarshal(stdData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image config: %w", err)
	}

	for _, override := range cfg.Images {
		replaced := false
		for i := range images {
			if images[i].Name == override.Name {
				images[i] = override
				replaced = true
				break
			}
		}
		if !replaced {
			images = append(images, override)
		}
	}

	return images, nil
}

// Find returns the entry for an image name from a loaded table.
func Find(images []Image, name string) (Image, bool) {
	for _, img := range images {
		if img.Name == name {
			return img, true
		}
	}
	return Image{}, false
}
