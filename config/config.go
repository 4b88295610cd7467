package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/boopesh07/VideoToShorts/internal/appdirs"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type AppConfig struct {
	Proxy       string   `toml:"proxy"`
	FfmpegPath  string   `toml:"ffmpeg_path"`
	FfprobePath string   `toml:"ffprobe_path"`
	YtdlpPath   string   `toml:"ytdlp_path"`
	ParsedProxy *url.URL `toml:"-"`
}

type LlmConfig struct {
	BaseUrl string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

type GladiaConfig struct {
	BaseUrl string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
}

// ShortsConfig holds the selection and extraction defaults. Requests may
// override target duration and max segments; the clip-length guardrails are
// operator policy and stay config-only.
type ShortsConfig struct {
	TargetDuration   float64 `toml:"target_duration"`
	ToleranceSeconds float64 `toml:"tolerance_seconds"`
	MinClipSeconds   float64 `toml:"min_clip_seconds"`
	MaxClipSeconds   float64 `toml:"max_clip_seconds"`
	MaxSegments      int     `toml:"max_segments"`
	VerticalCrop     bool    `toml:"vertical_crop"`
	// Strategy selects segment (range download per window) or full
	// (download once, trim locally). Full is the default because it
	// tolerates downloader limitations.
	Strategy string `toml:"strategy"`
}

type QueueConfig struct {
	Enabled       bool   `toml:"enabled"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Concurrency   int    `toml:"concurrency"`
}

type Config struct {
	Server ServerConfig `toml:"server"`
	App    AppConfig    `toml:"app"`
	Llm    LlmConfig    `toml:"llm"`
	Gladia GladiaConfig `toml:"gladia"`
	Shorts ShortsConfig `toml:"shorts"`
	Queue  QueueConfig  `toml:"queue"`
}

var Conf Config

var resolveConfigPath = func() (string, error) {
	dirs, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return dirs.ConfigFile, nil
}

func ResolveConfigPath() (string, error) {
	return resolveConfigPath()
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8888,
		},
		App: AppConfig{
			FfmpegPath:  "ffmpeg",
			FfprobePath: "ffprobe",
			YtdlpPath:   "yt-dlp",
		},
		Shorts: ShortsConfig{
			TargetDuration:   30,
			ToleranceSeconds: 3,
			MinClipSeconds:   15,
			MaxClipSeconds:   60,
			MaxSegments:      5,
			Strategy:         "full",
		},
		Queue: QueueConfig{
			RedisAddr:   "localhost:6379",
			Concurrency: 3,
		},
	}
}

// LoadOrCreateConfig reads the config file, writing the defaults first when
// it does not exist yet. Returns whether a new file was created.
func LoadOrCreateConfig() (bool, error) {
	configPath, err := resolveConfigPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		Conf = defaultConfig()
		if err := SaveConfig(); err != nil {
			return false, err
		}
		return true, finalizeConfig()
	}

	Conf = defaultConfig()
	if _, err := toml.DecodeFile(configPath, &Conf); err != nil {
		return false, fmt.Errorf("decode config %s: %w", configPath, err)
	}
	return false, finalizeConfig()
}

// SaveConfig writes Conf to the resolved config path, creating parent
// directories as needed.
func SaveConfig() error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(Conf)
}

// CheckConfig validates settings the pipeline cannot run without.
func CheckConfig() error {
	if Conf.Shorts.MinClipSeconds <= 0 || Conf.Shorts.MaxClipSeconds <= Conf.Shorts.MinClipSeconds {
		return fmt.Errorf("invalid clip length bounds: min=%.1f max=%.1f",
			Conf.Shorts.MinClipSeconds, Conf.Shorts.MaxClipSeconds)
	}
	if Conf.Shorts.TargetDuration <= 0 {
		return errors.New("target_duration must be positive")
	}
	if Conf.Shorts.MaxSegments <= 0 {
		return errors.New("max_segments must be positive")
	}
	if Conf.Shorts.Strategy != "full" && Conf.Shorts.Strategy != "segment" {
		return fmt.Errorf("unknown extraction strategy %q", Conf.Shorts.Strategy)
	}
	return nil
}

func finalizeConfig() error {
	if Conf.App.Proxy != "" {
		parsed, err := url.Parse(Conf.App.Proxy)
		if err != nil {
			return fmt.Errorf("parse proxy address: %w", err)
		}
		Conf.App.ParsedProxy = parsed
	}
	return nil
}
