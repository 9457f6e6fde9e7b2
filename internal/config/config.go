package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr    string `yaml:"listen_addr" json:"listen_addr"`
	UploadDir     string `yaml:"upload_dir" json:"upload_dir"`
	StorageDir    string `yaml:"storage_dir" json:"storage_dir"`
	MetaDSN       string `yaml:"meta_dsn" json:"meta_dsn"`
	AuthToken     string `yaml:"auth_token" json:"-"`
	MaxChunkBytes int64  `yaml:"max_chunk_bytes" json:"max_chunk_bytes"`
	GCTTLHours    int    `yaml:"gc_ttl_hours" json:"gc_ttl_hours"`
	GCIntervalMin int    `yaml:"gc_interval_min" json:"gc_interval_min"`
}

const (
	defaultListenAddr    = ":8005"
	defaultUploadDir     = "./uploads"
	defaultStorageDir    = "./storage"
	defaultMetaDSN       = "memory://"
	defaultMaxChunkBytes = 4 << 20 // 4 MiB, согласовано с фронтендом
	defaultGCTTLHours    = 24
	defaultGCIntervalMin = 30
)

// Load читает YAML-конфигурацию, применяет ENV-переопределения и дефолты.
// Отсутствие файла не ошибка: сервис стартует на дефолтах, это удобно для dev.
func Load() (*Config, error) {
	path := getenv("CONFIG_PATH", "./config.yaml")

	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		// работаем на дефолтах
	default:
		return nil, err
	}

	// ENV override
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.UploadDir = v
	}
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		c.StorageDir = v
	}
	if v := os.Getenv("META_DSN"); v != "" {
		c.MetaDSN = v
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		c.AuthToken = v
	}
	if v := envInt("GC_TTL_HOURS"); v > 0 {
		c.GCTTLHours = v
	}
	if v := envInt("GC_INTERVAL_MIN"); v > 0 {
		c.GCIntervalMin = v
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.UploadDir == "" {
		c.UploadDir = defaultUploadDir
	}
	if c.StorageDir == "" {
		c.StorageDir = defaultStorageDir
	}
	if c.MetaDSN == "" {
		c.MetaDSN = defaultMetaDSN
	}
	if c.MaxChunkBytes <= 0 {
		c.MaxChunkBytes = defaultMaxChunkBytes
	}
	if c.GCTTLHours <= 0 {
		c.GCTTLHours = defaultGCTTLHours
	}
	if c.GCIntervalMin <= 0 {
		c.GCIntervalMin = defaultGCIntervalMin
	}
}

func envInt(key string) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
