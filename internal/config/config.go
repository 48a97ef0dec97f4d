package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Spawn  SpawnConfig  `yaml:"spawn"`
	World  WorldConfig  `yaml:"world"`
	Server ServerConfig `yaml:"server"`
}

// SpawnConfig — параметры поиска безопасной позиции
type SpawnConfig struct {
	BubbleHeight    int `yaml:"bubble_height"`     // Высота пузыря воздуха над опорой
	RetryIntervalMs int `yaml:"retry_interval_ms"` // Интервал повторных попыток
	MinY            int `yaml:"min_y"`             // Нижняя граница вертикального скана
	MaxY            int `yaml:"max_y"`             // Верхняя граница вертикального скана
}

// WorldConfig — параметры мира демо-хоста
type WorldConfig struct {
	Seed         int64  `yaml:"seed"`
	SnapshotPath string `yaml:"snapshot_path"`
}

// ServerConfig — параметры служебных эндпоинтов
type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"`
}

// GetBubbleHeight возвращает высоту пузыря с поддержкой fallback значений
func (s *SpawnConfig) GetBubbleHeight() int {
	return getIntWithEnvFallback(s.BubbleHeight, "SPAWN_BUBBLE_HEIGHT", 2)
}

// GetRetryInterval возвращает интервал повторов с поддержкой fallback значений
func (s *SpawnConfig) GetRetryInterval() time.Duration {
	ms := getIntWithEnvFallback(s.RetryIntervalMs, "SPAWN_RETRY_INTERVAL_MS", 500)
	return time.Duration(ms) * time.Millisecond
}

// GetMinY возвращает нижнюю границу скана
func (s *SpawnConfig) GetMinY() int {
	return s.MinY // 0 — валидное значение по умолчанию
}

// GetMaxY возвращает верхнюю границу скана
func (s *SpawnConfig) GetMaxY() int {
	if s.MaxY > 0 {
		return s.MaxY
	}
	return 255
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getIntWithEnvFallback(s.MetricsPort, "SPAWN_METRICS_PORT", 2112)
}

// GetSeed возвращает сид мира
func (w *WorldConfig) GetSeed() int64 {
	if w.Seed != 0 {
		return w.Seed
	}
	return 1
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configValue > 0 {
		return configValue
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	// Используем дефолтное значение
	return defaultValue
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV SPAWN_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SPAWN_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
