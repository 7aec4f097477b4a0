// Package config handles tool configuration loading and management.
package config

// Config holds all settings of the scene-batching tools.
type Config struct {
	Scene   SceneConfig   `yaml:"scene"`
	Render  RenderConfig  `yaml:"render"`
	Memory  MemoryConfig  `yaml:"memory"`
	Logging LoggingConfig `yaml:"logging"`
}

// SceneConfig holds document and replication settings.
type SceneConfig struct {
	Document   string `yaml:"document"` // path to the scene document
	Clones     int    `yaml:"clones"`
	CloneAxisX bool   `yaml:"clone_axis_x"`
	CloneAxisY bool   `yaml:"clone_axis_y"`
	CloneAxisZ bool   `yaml:"clone_axis_z"`
	// Percent of objects fed to the draw-item builder, 0..1.
	Percent float64 `yaml:"percent"`
}

// RenderConfig holds draw-item generation settings.
type RenderConfig struct {
	Technique       string `yaml:"technique"`
	Sorted          bool   `yaml:"sorted"`
	IgnoreMaterials bool   `yaml:"ignore_materials"`
	ColorizeDraws   bool   `yaml:"colorize_draws"`
	SearchBatch     uint32 `yaml:"search_batch"`
}

// MemoryConfig holds chunk allocator settings.
type MemoryConfig struct {
	MaxChunkMB uint64 `yaml:"max_chunk_mb"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scene: SceneConfig{
			Clones:     0,
			CloneAxisX: true,
			CloneAxisY: true,
			CloneAxisZ: true,
			Percent:    1.0,
		},
		Render: RenderConfig{
			Technique:       "per-draw",
			Sorted:          true,
			IgnoreMaterials: false,
			ColorizeDraws:   false,
			SearchBatch:     16,
		},
		Memory: MemoryConfig{
			MaxChunkMB: 256,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// CloneAxisMask packs the per-axis toggles into the loader's bitmask.
func (c *SceneConfig) CloneAxisMask() int {
	mask := 0
	if c.CloneAxisX {
		mask |= 1 << 0
	}
	if c.CloneAxisY {
		mask |= 1 << 1
	}
	if c.CloneAxisZ {
		mask |= 1 << 2
	}
	return mask
}
