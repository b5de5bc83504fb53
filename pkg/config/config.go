package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct, loaded from YAML with env
// overrides applied on top.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Export    ExportConfig    `yaml:"export"`
	Retention RetentionConfig `yaml:"retention"`
}

type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	TLS     TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type StorageConfig struct {
	DBPath string `yaml:"db_path"`
	// MaxCollectionSize caps one serialized collection; writes beyond it
	// fail loudly rather than silently dropping data.
	MaxCollectionSize SizeBytes `yaml:"max_collection_size"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	APIKeys []string `yaml:"api_keys"`
}

type ExportConfig struct {
	Wrike WrikeConfig `yaml:"wrike"`
}

// WrikeConfig points at the downstream project-creation endpoint. When
// Endpoint is empty the server uses the local stub creator.
type WrikeConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
}

// RetentionConfig controls the periodic cleanup runner.
type RetentionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	// MaxAge is how long records live before cleanup removes exports and
	// soft-deletes messages.
	MaxAge Duration `yaml:"max_age"`
	DryRun bool     `yaml:"dry_run"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	host := c.Server.Address
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Load reads and parses the YAML config at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadEffective loads the config file when present and applies VIZZYDB_*
// env overrides. A missing file is not an error; env and defaults apply.
// The second return reports whether any env override was used.
func LoadEffective(path string) (*Config, bool, error) {
	cfg := &Config{}
	if path != "" {
		if loaded, err := Load(path); err == nil {
			cfg = loaded
		} else if !os.IsNotExist(err) {
			return nil, false, err
		}
	}
	envUsed := false
	set := func(dst *string, env string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
			envUsed = true
		}
	}
	set(&cfg.Server.Address, "VIZZYDB_ADDRESS")
	if v := strings.TrimSpace(os.Getenv("VIZZYDB_PORT")); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
			envUsed = true
		}
	}
	set(&cfg.Storage.DBPath, "VIZZYDB_DB_PATH")
	set(&cfg.Logging.Level, "VIZZYDB_LOG_LEVEL")
	set(&cfg.Export.Wrike.Endpoint, "VIZZYDB_WRIKE_ENDPOINT")
	set(&cfg.Export.Wrike.Token, "VIZZYDB_WRIKE_TOKEN")
	if v := strings.TrimSpace(os.Getenv("VIZZYDB_API_KEYS")); v != "" {
		cfg.Security.APIKeys = strings.Split(v, ",")
		envUsed = true
	}
	return cfg, envUsed, nil
}

// ParseCommandFlags parses the server's command line. The returned map
// records which flags the user set explicitly so they can win over
// config/env values.
func ParseCommandFlags() (addr, db, cfgPath string, setFlags map[string]bool) {
	addrFlag := flag.String("addr", "", "listen address (host:port)")
	dbFlag := flag.String("db", "./data", "database path")
	cfgFlag := flag.String("config", "", "path to YAML config")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrFlag, *dbFlag, *cfgFlag, setFlags
}

// ResolveConfigPath picks the config file path: explicit flag wins, then
// the VIZZYDB_CONFIG env var, then ./vizzydb.yaml.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet && flagVal != "" {
		return flagVal
	}
	if v := strings.TrimSpace(os.Getenv("VIZZYDB_CONFIG")); v != "" {
		return v
	}
	return "vizzydb.yaml"
}
