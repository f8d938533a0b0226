// Package config handles psktool configuration loading and management.
package config

import "github.com/Faultbox/psk-tools/pkg/psk"

// Config holds all tool settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Format   FormatConfig   `yaml:"format"`
	Skeleton SkeletonConfig `yaml:"skeleton"`
	Export   ExportConfig   `yaml:"export"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// FormatConfig holds container format settings.
type FormatConfig struct {
	AcceptedVersions []int32 `yaml:"accepted_versions"` // Version tags accepted without warning
	StrictVersions   bool    `yaml:"strict_versions"`   // Reject files with other tags
	SaveVersion      int32   `yaml:"save_version"`      // Tag written by rewrite
}

// SkeletonConfig holds bone hierarchy settings.
type SkeletonConfig struct {
	RootConvention string `yaml:"root_convention"` // "self" or "negative"
}

// ExportConfig holds glTF export settings.
type ExportConfig struct {
	Binary         bool `yaml:"binary"`          // Write .glb instead of .gltf
	FlipHandedness bool `yaml:"flip_handedness"` // Conjugate non-root bone orientations
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Format: FormatConfig{
			AcceptedVersions: []int32{psk.VersionLegacy, psk.VersionRevised},
			StrictVersions:   false,
			SaveVersion:      psk.VersionLegacy,
		},
		Skeleton: SkeletonConfig{
			RootConvention: psk.RootSelf.String(),
		},
		Export: ExportConfig{
			Binary:         true,
			FlipHandedness: true,
		},
	}
}

// Accepts reports whether a version tag is in the accepted list.
func (f *FormatConfig) Accepts(version int32) bool {
	for _, v := range f.AcceptedVersions {
		if v == version {
			return true
		}
	}
	return false
}

// Validate checks values that cannot be checked by the YAML decoder.
func (c *Config) Validate() error {
	_, err := psk.ParseRootConvention(c.Skeleton.RootConvention)
	return err
}
