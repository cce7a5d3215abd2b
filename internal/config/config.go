package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	models "github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
)

// Config はサーバーの設定です。環境変数（開発時は .env ファイル）から読み込みます。
type Config struct {
	AppEnv         string   `env:"APP_ENV"`
	Port           string   `env:"PORT" envDefault:"8080"`
	JWTSecret      string   `env:"JWT_SECRET"`
	BypassAuth     bool     `env:"BYPASS_AUTH" envDefault:"false"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	BoardWidth     int `env:"BOARD_WIDTH" envDefault:"10"`
	BoardHeight    int `env:"BOARD_HEIGHT" envDefault:"20"`
	TickIntervalMs int `env:"TICK_INTERVAL_MS" envDefault:"1000"`

	MaxSessions          int           `env:"MAX_SESSIONS" envDefault:"100"`
	SessionIdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"15m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"30s"`
}

// Load は .env ファイル（本番環境以外）と環境変数から設定を読み込み、検証します。
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
		}
	}

	cfg, err := ParseEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv は環境変数だけから設定を読み込みます。
func ParseEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate は設定値の範囲を確認します。
func (c *Config) Validate() error {
	var errs []error
	// どのピースも空のボードの出現位置に収まる必要がある
	if !models.SpawnFits(c.BoardWidth, c.BoardHeight) {
		errs = append(errs, fmt.Errorf("board %dx%d is too small: every piece must fit at its spawn position", c.BoardWidth, c.BoardHeight))
	}
	if c.TickIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("TICK_INTERVAL_MS must be positive, got %d", c.TickIntervalMs))
	}
	if c.MaxSessions < 1 {
		errs = append(errs, fmt.Errorf("MAX_SESSIONS must be at least 1, got %d", c.MaxSessions))
	}
	if c.SessionIdleTimeout <= 0 || c.SessionSweepInterval <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT and SESSION_SWEEP_INTERVAL must be positive"))
	}
	if c.JWTSecret == "" && !c.BypassAuth {
		errs = append(errs, errors.New("JWT_SECRET is required unless BYPASS_AUTH=true"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// TickInterval は重力ティックの間隔を返します。
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// GameSettings はセッションマネージャー向けの設定に変換します。
func (c *Config) GameSettings() tetris.Settings {
	return tetris.Settings{
		BoardWidth:   c.BoardWidth,
		BoardHeight:  c.BoardHeight,
		TickInterval: c.TickInterval(),
		MaxSessions:  c.MaxSessions,
	}
}

// Addr はサーバーの待ち受けアドレスです。
func (c *Config) Addr() string {
	return ":" + c.Port
}
