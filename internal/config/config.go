package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML file. Flags and environment variables still
// take precedence where the CLI offers them.
type Config struct {
	OutDir   string         `yaml:"out_dir"`
	CacheDir string         `yaml:"cache_dir"`
	Captions CaptionsConfig `yaml:"captions"`
	Planner  PlannerConfig  `yaml:"planner"`
	Tools    ToolsConfig    `yaml:"tools"`
	Store    StoreConfig    `yaml:"store"`
	LLM      LLMConfig      `yaml:"llm"`
}

type CaptionsConfig struct {
	BucketSize int `yaml:"bucket_size"`
	// FontFiles are tried in order before the embedded font.
	FontFiles []string `yaml:"font_files"`
}

type PlannerConfig struct {
	Workers int `yaml:"workers"`
}

type ToolsConfig struct {
	FFmpeg       string `yaml:"ffmpeg"`
	FFprobe      string `yaml:"ffprobe"`
	WhisperBin   string `yaml:"whisper_bin"`
	WhisperModel string `yaml:"whisper_model"`
}

type StoreConfig struct {
	Database   string `yaml:"database"`
	LibraryDir string `yaml:"library_dir"`
}

type LLMConfig struct {
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
	MaxClips     int      `yaml:"max_clips"`
}

func Default() *Config {
	return &Config{
		OutDir:   "out",
		CacheDir: ".cache",
		Captions: CaptionsConfig{
			BucketSize: 2,
			FontFiles: []string{
				"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
				"/Library/Fonts/Arial Bold.ttf",
				"C:\\Windows\\Fonts\\arialbd.ttf",
			},
		},
		Planner: PlannerConfig{Workers: 4},
		Tools: ToolsConfig{
			FFmpeg:       "ffmpeg",
			FFprobe:      "ffprobe",
			WhisperBin:   ".cache/bin/whisper.cpp",
			WhisperModel: ".cache/models/ggml-base.bin",
		},
		Store: StoreConfig{
			Database:   ".cache/viralcut.db",
			LibraryDir: "library",
		},
		LLM: LLMConfig{
			Model:    "z-ai/glm-4.5-air:free",
			BaseURL:  "https://openrouter.ai",
			MaxClips: 8,
		},
	}
}

// Load reads path over the defaults. With an empty path the usual locations
// are searched; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func findConfigFile() string {
	candidates := []string{
		"./viralcut.yaml",
		"./viralcut.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".viralcut", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
