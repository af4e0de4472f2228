package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Storage  StorageConfig  `json:"storage"`
	JWT      JWTConfig      `json:"jwt"`
	SMTP     SMTPConfig     `json:"smtp"`
	Geocode  GeocodeConfig  `json:"geocode"`
	Log      LogConfig      `json:"log"`
}

type ServerConfig struct {
	Port string `json:"port"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// StorageConfig locates the JSON-file fallback store.
type StorageConfig struct {
	DataDir string `json:"data_dir"`
}

type JWTConfig struct {
	Secret          string `json:"secret"`
	ExpirationHours int    `json:"expiration_hours"`
}

type SMTPConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type GeocodeConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	CacheTTLMin    int    `json:"cache_ttl_minutes"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns the configuration used when no config file exists, so the
// process can serve the local demo mode with no external dependencies.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "5000"},
		Storage: StorageConfig{DataDir: "data"},
		JWT:     JWTConfig{Secret: "dev-secret-change-me", ExpirationHours: 24},
		Geocode: GeocodeConfig{
			BaseURL:        "https://nominatim.openstreetmap.org/search",
			TimeoutSeconds: 5,
			CacheTTLMin:    60,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig reads the JSON config at path, falling back to defaults when the
// file is absent.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
