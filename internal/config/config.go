package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/cheese-board/internal/obslog"
)

type AppConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	StockfishPath    string `yaml:"stockfish_path"`
	EngineDepth      int    `yaml:"engine_depth"`
	EngineMoveDelay  int    `yaml:"engine_move_delay_ms"`
	EngineSide       string `yaml:"engine_side"`
	EngineThreads    int    `yaml:"engine_threads"`
	EngineHashMB     int    `yaml:"engine_hash_mb"`
	EngineSkillLevel int    `yaml:"engine_skill_level"`
	EnginePreset     string `yaml:"engine_preset"`

	StartFEN    string `yaml:"start_fen"`
	MessagesDir string `yaml:"messages_dir"`
	PiecesDir   string `yaml:"pieces_dir"`

	Log LogConfig `yaml:"log"`
}

// LogConfig is the logging section (LOG_* env vars).
type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console | json
	Console bool   `yaml:"console"`
	Color   bool   `yaml:"color"`
	ToFile  bool   `yaml:"to_file"`
	File    string `yaml:"file"`
	Caller  bool   `yaml:"caller"`
}

// Options converts the section for obslog.Init.
func (l LogConfig) Options() obslog.Options {
	opts := obslog.Options{
		Level:   l.Level,
		Format:  l.Format,
		Console: l.Console,
		Color:   l.Color,
		Caller:  l.Caller,
	}
	if l.ToFile {
		opts.File = l.File
	}
	return opts
}

// MoveDelay is the pause before an engine reply is played on the board.
func (c *AppConfig) MoveDelay() time.Duration {
	return time.Duration(c.EngineMoveDelay) * time.Millisecond
}

func defaults() *AppConfig {
	return &AppConfig{
		HTTPAddr:        "127.0.0.1:8080",
		EngineDepth:     15,
		EngineMoveDelay: 1000,
		EngineSide:      "black",
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Console: true,
			File:    filepath.Join("logs", "chess-board.log"),
		},
	}
}

// Load reads the optional YAML file named by CHESS_CONFIG and then applies
// environment overrides.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CHESS_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		c.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("STOCKFISH_PATH")); v != "" {
		c.StockfishPath = v
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_DEPTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.EngineDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_MOVE_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.EngineMoveDelay = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_SIDE")); v != "" {
		c.EngineSide = v
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_THREADS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.EngineThreads = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_HASH_MB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.EngineHashMB = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_SKILL_LEVEL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.EngineSkillLevel = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_PRESET")); v != "" {
		c.EnginePreset = v
	}
	if v := strings.TrimSpace(os.Getenv("START_FEN")); v != "" {
		c.StartFEN = v
	}
	if v := strings.TrimSpace(os.Getenv("MESSAGES_DIR")); v != "" {
		c.MessagesDir = v
	}
	if v := strings.TrimSpace(os.Getenv("PIECES_DIR")); v != "" {
		c.PiecesDir = v
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		c.Log.Format = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FILE")); v != "" {
		c.Log.File = v
	}
	envBool("LOG_TO_CONSOLE", &c.Log.Console)
	envBool("LOG_COLOR", &c.Log.Color)
	envBool("LOG_TO_FILE", &c.Log.ToFile)
	envBool("LOG_CALLER", &c.Log.Caller)
}

func envBool(key string, dst *bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

// normalize folds case on enum-like values from both the file and the
// environment.
func (c *AppConfig) normalize() {
	c.EngineSide = strings.ToLower(strings.TrimSpace(c.EngineSide))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.EngineDepth <= 0 {
		return fmt.Errorf("engine depth must be > 0: %d", c.EngineDepth)
	}
	if c.EngineMoveDelay < 0 {
		return fmt.Errorf("engine move delay must be >= 0: %d", c.EngineMoveDelay)
	}
	switch c.EngineSide {
	case "white", "black", "both", "none":
	default:
		return fmt.Errorf("ENGINE_SIDE must be white, black, both or none: %q", c.EngineSide)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json: %q", c.Log.Format)
	}
	if c.Log.ToFile && strings.TrimSpace(c.Log.File) == "" {
		return errors.New("LOG_FILE is required when LOG_TO_FILE is set")
	}
	if c.EngineSkillLevel < 0 || c.EngineSkillLevel > 20 {
		return fmt.Errorf("skill level %d out of range 0-20", c.EngineSkillLevel)
	}
	return nil
}
