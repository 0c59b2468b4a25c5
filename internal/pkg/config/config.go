// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию HTTP-сервера
type Server struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxUploadSizeMB int64         `json:"max_upload_size_mb" yaml:"max_upload_size_mb"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// Processing содержит конфигурацию загрузки и разбора
type Processing struct {
	TaskTimeout time.Duration `json:"task_timeout" yaml:"task_timeout"` // 0 - без ограничений
	SessionTTL  time.Duration `json:"session_ttl" yaml:"session_ttl"`
	// Количество одновременных чтений медиа из архива.
	MediaWorkers int `json:"media_workers" yaml:"media_workers"`
	// InitialDecodeLines — сколько строк разобрать сразу после загрузки; 0 означает весь текст.
	InitialDecodeLines int `json:"initial_decode_lines" yaml:"initial_decode_lines"`
	ExtendDecodeLines  int `json:"extend_decode_lines" yaml:"extend_decode_lines"`
}

// Viewer содержит параметры окна просмотра
type Viewer struct {
	InitialWindow      int    `json:"initial_window" yaml:"initial_window"`
	WindowStep         int    `json:"window_step" yaml:"window_step"`
	MediaOmittedMarker string `json:"media_omitted_marker" yaml:"media_omitted_marker"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text, json
}

// Config содержит конфигурацию приложения
type Config struct {
	Server     Server     `json:"server" yaml:"server"`
	Processing Processing `json:"processing" yaml:"processing"`
	Viewer     Viewer     `json:"viewer" yaml:"viewer"`
	Logging    Logging    `json:"logging" yaml:"logging"`
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем config.yml,
// затем переменные окружения (в том числе из .env файла).
func LoadConfig() (*Config, error) {
	return Load("config.yml")
}

// Load работает как LoadConfig, но читает YAML из указанного файла.
func Load(path string) (*Config, error) {
	// Без .env файла остаются обычные переменные окружения
	_ = godotenv.Load()

	cfg := defaultConfig()
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}
	return cfg, nil
}

// defaultConfig возвращает конфигурацию со значениями по умолчанию
func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxUploadSizeMB: DefaultMaxUploadSizeMB,
			CleanupInterval: DefaultCleanupInterval,
		},
		Processing: Processing{
			TaskTimeout:        DefaultTaskTimeout,
			SessionTTL:         DefaultSessionTTL,
			MediaWorkers:       DefaultMediaWorkers,
			InitialDecodeLines: DefaultInitialDecodeLines,
			ExtendDecodeLines:  DefaultExtendDecodeLines,
		},
		Viewer: Viewer{
			InitialWindow:      DefaultInitialWindow,
			WindowStep:         DefaultWindowStep,
			MediaOmittedMarker: DefaultMediaOmittedMarker,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// loadFromYAML накладывает значения из YAML-файла на cfg.
// Отсутствующий файл ошибкой не считается.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	return nil
}

// loadFromEnv накладывает переменные окружения на cfg
func loadFromEnv(cfg *Config) error {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.Viewer.MediaOmittedMarker = getEnv("MEDIA_OMITTED_MARKER", cfg.Viewer.MediaOmittedMarker)

	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("INITIAL_DECODE_LINES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый INITIAL_DECODE_LINES: %w", err)
		}
		cfg.Processing.InitialDecodeLines = n
	}

	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MaxUploadBytes возвращает ограничение размера загрузки в байтах
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadSizeMB << 20
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}

	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb должно быть положительным")
	}

	if c.Server.CleanupInterval <= 0 {
		return fmt.Errorf("server.cleanup_interval должно быть положительным")
	}

	if c.Processing.TaskTimeout < 0 {
		return fmt.Errorf("processing.task_timeout должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if c.Processing.SessionTTL <= 0 {
		return fmt.Errorf("processing.session_ttl должно быть положительным")
	}

	if c.Processing.MediaWorkers <= 0 {
		return fmt.Errorf("processing.media_workers должно быть положительным")
	}

	if c.Processing.InitialDecodeLines < 0 {
		return fmt.Errorf("processing.initial_decode_lines должно быть неотрицательным (0 для разбора всего текста)")
	}

	if c.Processing.ExtendDecodeLines <= 0 {
		return fmt.Errorf("processing.extend_decode_lines должно быть положительным")
	}

	if c.Viewer.InitialWindow <= 0 {
		return fmt.Errorf("viewer.initial_window должно быть положительным")
	}

	if c.Viewer.WindowStep <= 0 {
		return fmt.Errorf("viewer.window_step должно быть положительным")
	}

	if strings.TrimSpace(c.Viewer.MediaOmittedMarker) == "" {
		return fmt.Errorf("viewer.media_omitted_marker не может быть пустым")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format должен быть одним из: text, json")
	}

	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
