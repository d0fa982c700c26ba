// Package config handles dmodeltool configuration loading and management.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config holds all tool settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Preview PreviewConfig `yaml:"preview"`
	Decode  DecodeConfig  `yaml:"decode"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds model conversion settings.
type ExportConfig struct {
	Format          string  `yaml:"format"`           // obj, gltf or glb
	FlipV           bool    `yaml:"flip_v"`           // Write V as 1-v
	CreateMaterials bool    `yaml:"create_materials"` // One material per surface id
	Scale           float32 `yaml:"scale"`            // Applied to positions on export
	OutputDir       string  `yaml:"output_dir"`
}

// PreviewConfig holds preview image settings.
type PreviewConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	View       string `yaml:"view"`   // front, side, top or iso
	Format     string `yaml:"format"` // webp, png or bmp
	Background string `yaml:"background"`
	Wireframe  bool   `yaml:"wireframe"`
}

// DecodeConfig holds decoder settings.
type DecodeConfig struct {
	// ValidateIndices rejects triangles that reference missing vertices.
	// The format does not require this, so it is off by default.
	ValidateIndices bool `yaml:"validate_indices"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Supported values.
var (
	ExportFormats  = []string{"obj", "gltf", "glb"}
	PreviewViews   = []string{"front", "side", "top", "iso"}
	PreviewFormats = []string{"webp", "png", "bmp"}
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Format:          "glb",
			FlipV:           true,
			CreateMaterials: true,
			Scale:           1.0,
			OutputDir:       ".",
		},
		Preview: PreviewConfig{
			Width:      512,
			Height:     512,
			View:       "iso",
			Format:     "webp",
			Background: "#202428",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks that enumerated settings hold known values.
func (c *Config) Validate() error {
	if !contains(ExportFormats, c.Export.Format) {
		return fmt.Errorf("export.format %q: must be one of %s", c.Export.Format, strings.Join(ExportFormats, ", "))
	}
	if c.Export.Scale <= 0 {
		return fmt.Errorf("export.scale must be positive, got %v", c.Export.Scale)
	}
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		return fmt.Errorf("preview size must be positive, got %dx%d", c.Preview.Width, c.Preview.Height)
	}
	if !contains(PreviewViews, c.Preview.View) {
		return fmt.Errorf("preview.view %q: must be one of %s", c.Preview.View, strings.Join(PreviewViews, ", "))
	}
	if !contains(PreviewFormats, c.Preview.Format) {
		return fmt.Errorf("preview.format %q: must be one of %s", c.Preview.Format, strings.Join(PreviewFormats, ", "))
	}
	if !isHexColor(c.Preview.Background) {
		return fmt.Errorf("preview.background %q: expected #RRGGBB", c.Preview.Background)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 16, 32)
	return err == nil
}
