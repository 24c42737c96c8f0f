package config

import (
	"fmt"
	"os"
	"time"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server ServerConfig `yaml:"server"`
	Camera CameraConfig `yaml:"camera"`
	Stream StreamConfig `yaml:"stream"`

	// Enabled はキャプチャの有効/無効
	Enabled bool `yaml:"enabled"`

	// HighQuality は高画質モード（高解像度・高fpsモードの解禁）
	HighQuality bool `yaml:"high_quality"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// CameraConfig はカメラデバイスの設定
type CameraConfig struct {
	// Device はデバイスパス (例: /dev/video0)。空の場合は自動検出する
	Device string `yaml:"device"`
}

// StreamConfig は永続化されるストリーム設定
// 利用者の意図を表し、実際に適用できなかった場合は
// 適用された値で自己修復される
type StreamConfig struct {
	Width     int `yaml:"width" json:"width"`
	Height    int `yaml:"height" json:"height"`
	Framerate int `yaml:"framerate" json:"framerate"`
	Quality   int `yaml:"quality" json:"quality"` // JPEG圧縮品質 (1-100)
}

// Load は設定を読み込む
// 環境変数による上書きをサポートするシンプルな実装
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsIntOrDefault("PORT", 8080),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // ストリーミング用にタイムアウト無効化
		},
		Camera: CameraConfig{
			Device: getEnvOrDefault("CAMERA_DEVICE", ""),
		},
		Stream: StreamConfig{
			Width:     getEnvAsIntOrDefault("STREAM_WIDTH", 1280),
			Height:    getEnvAsIntOrDefault("STREAM_HEIGHT", 720),
			Framerate: getEnvAsIntOrDefault("STREAM_FPS", 15),
			Quality:   getEnvAsIntOrDefault("STREAM_QUALITY", 80),
		},
		// バッテリー駆動デバイスを想定し、高画質モードはデフォルト無効
		Enabled:     getEnvAsBoolOrDefault("STREAM_ENABLED", true),
		HighQuality: getEnvAsBoolOrDefault("STREAM_HIGH_QUALITY", false),
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	if c.Stream.Width <= 0 || c.Stream.Height <= 0 {
		return fmt.Errorf("無効なストリーム解像度: %dx%d", c.Stream.Width, c.Stream.Height)
	}

	if c.Stream.Framerate <= 0 {
		return fmt.Errorf("無効なフレームレート: %d", c.Stream.Framerate)
	}

	if c.Stream.Quality < 1 || c.Stream.Quality > 100 {
		return fmt.Errorf("無効な圧縮品質: %d", c.Stream.Quality)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault は環境変数を真偽値として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
