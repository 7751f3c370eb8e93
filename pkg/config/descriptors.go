package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"servicedeck/pkg/models"

	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicateServiceID = errors.New("duplicate service id")
	ErrNoServices         = errors.New("at least one service must be defined")
)

type descriptorFile struct {
	Services []models.ServiceDescriptor `yaml:"services"`
}

// DefaultDescriptors lists the four services of the reference deployment.
func DefaultDescriptors() []models.ServiceDescriptor {
	return []models.ServiceDescriptor{
		{ID: "go", Name: "Go Service", Description: "System information and calculations", BaseURL: "/api/go", HealthEndpoint: "/health"},
		{ID: "python", Name: "Python Service", Description: "Data processing and analysis", BaseURL: "/api/python", HealthEndpoint: "/health"},
		{ID: "nodejs", Name: "Node.js Service", Description: "Session management and server stats", BaseURL: "/api/nodejs", HealthEndpoint: "/health"},
		{ID: "java", Name: "Java Service", Description: "Business logic processing", BaseURL: "/api/java", HealthEndpoint: "/health"},
	}
}

// LoadDescriptors reads service descriptors from a yaml file. An empty path or a missing file
// yields the defaults.
func LoadDescriptors(path string) ([]models.ServiceDescriptor, error) {
	if path == "" {
		return DefaultDescriptors(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultDescriptors(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read services: %w", err)
	}

	var file descriptorFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse services: %w", err)
	}
	if err := ValidateDescriptors(file.Services); err != nil {
		return nil, err
	}
	return file.Services, nil
}

// ValidateDescriptors checks ids are present and unique and every descriptor has a base URL.
func ValidateDescriptors(descriptors []models.ServiceDescriptor) error {
	if len(descriptors) == 0 {
		return ErrNoServices
	}

	seen := make(map[string]struct{}, len(descriptors))
	for i, d := range descriptors {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("service %d is missing an id", i)
		}
		if _, ok := seen[d.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateServiceID, d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.BaseURL == "" {
			return fmt.Errorf("service %s base_url is required", d.ID)
		}
	}
	return nil
}
