package modmeta

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is the optional YAML file accepted by create --meta-file.
type Manifest struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	URL         string `yaml:"url"`
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m.Name = strings.TrimSpace(m.Name)
	m.Version = strings.TrimSpace(m.Version)
	m.Image = strings.TrimSpace(m.Image)
	m.URL = strings.TrimSpace(m.URL)
	return &m, nil
}

// Input converts the manifest into assembler input.
func (m *Manifest) Input() Input {
	if m == nil {
		return Input{}
	}
	return Input{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		ImageURL:    m.Image,
		SourceURL:   m.URL,
	}
}

// Overlay returns base with every non-empty field of over applied on top.
func Overlay(base, over Input) Input {
	if over.Name != "" {
		base.Name = over.Name
	}
	if over.Version != "" {
		base.Version = over.Version
	}
	if over.Description != "" {
		base.Description = over.Description
	}
	if over.ImageURL != "" {
		base.ImageURL = over.ImageURL
	}
	if over.SourceURL != "" {
		base.SourceURL = over.SourceURL
	}
	return base
}
