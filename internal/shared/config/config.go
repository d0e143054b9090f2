package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// EnvPrefix is stripped from environment variables before they are mapped to config keys
const EnvPrefix = "ASKANON_"

type Config struct {
	AppEnv   AppEnv `koanf:"app_env"`
	HTTPPort string `koanf:"http_port"`
	BaseURL  string `koanf:"base_url"`

	StorageDriver    StorageDriver `koanf:"storage_driver"`
	StoragePath      string        `koanf:"storage_path"`
	SQLitePath       string        `koanf:"sqlite_path"`
	DatabaseURL      string        `koanf:"database_url"`
	DatabaseMaxConns int32         `koanf:"database_max_conns"`

	AuthHMACSecret    string `koanf:"auth_hmac_secret"`
	AuthPublicKeyFile string `koanf:"auth_public_key_file"`
	AuthIssuer        string `koanf:"auth_issuer"`
	AuthAudience      string `koanf:"auth_audience"`

	CSRFEnabled        bool     `koanf:"csrf_enabled"`
	CSRFKey            string   `koanf:"csrf_key"`
	CSRFTrustedOrigins []string `koanf:"-"`
	SecureCookies      bool     `koanf:"secure_cookies"`

	TelegramBotToken     string  `koanf:"telegram_bot_token"`
	TelegramAPIURL       string  `koanf:"telegram_api_url"`
	TelegramAdminChatIDs []int64 `koanf:"-"`

	SiteTitle string `koanf:"site_title"`
	SiteIntro string `koanf:"site_intro"`
}

// Load reads configuration from the first config file found in the working directory,
// a .env file and ASKANON_* environment variables
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is like Load but reads the given config file instead of searching for one
func LoadFile(configFile string) (*Config, error) {
	k := koanf.New(".")

	if configFile == "" {
		configFiles := []string{
			"config.yaml",
			"config.yml",
			"config.json",
			"config.toml",
		}

		configFile, _ = lo.Find(configFiles, func(file string) bool {
			_, err := os.Stat(file)
			return err == nil
		})
	}

	if configFile != "" {
		parser, err := parserFor(configFile)
		if err != nil {
			return nil, err
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// .env never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.With("context", "loading .env file").Wrap(err)
	}

	// Environment variables override config file values
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	appEnv, err := ParseAppEnv(k.String("app_env"))
	if err != nil {
		appEnv = AppEnvProduction
	}
	cfg.AppEnv = appEnv

	driver, err := ParseStorageDriver(k.String("storage_driver"))
	if err != nil {
		return nil, oops.With("storage_driver", k.String("storage_driver")).Wrap(err)
	}
	cfg.StorageDriver = driver

	switch v := k.Get("telegram_admin_chat_ids").(type) {
	case string:
		cfg.TelegramAdminChatIDs = ParseChatIDs(v)
	case []interface{}:
		cfg.TelegramAdminChatIDs = lo.FilterMap(v, func(item interface{}, _ int) (int64, bool) {
			switch val := item.(type) {
			case int64:
				return val, true
			case int:
				return int64(val), true
			case float64:
				return int64(val), true
			case string:
				id, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
				return id, err == nil
			default:
				return 0, false
			}
		})
	}

	switch v := k.Get("csrf_trusted_origins").(type) {
	case string:
		cfg.CSRFTrustedOrigins = ParseList(v)
	case []interface{}:
		cfg.CSRFTrustedOrigins = lo.FilterMap(v, func(item interface{}, _ int) (string, bool) {
			origin, ok := item.(string)
			origin = strings.TrimSpace(origin)
			return origin, ok && origin != ""
		})
	}

	if cfg.IsProduction() && !cfg.SecureCookies {
		slog.Warn("secure_cookies is off in production; cookies will be sent over plain HTTP")
	}

	if cfg.CSRFKey == "" {
		key, err := randomKey()
		if err != nil {
			return nil, oops.With("context", "generating csrf key").Wrap(err)
		}
		slog.Warn("No csrf_key configured, generated an ephemeral one; form tokens will not survive restarts")
		cfg.CSRFKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required settings are present
func (c *Config) Validate() error {
	if c.AuthHMACSecret == "" && c.AuthPublicKeyFile == "" {
		return apperrors.ErrMissingAuthKey
	}
	if c.StorageDriver == StorageDriverPostgres && c.DatabaseURL == "" {
		return apperrors.ErrMissingDatabaseURL
	}
	if len(c.CSRFKey) != 32 {
		return oops.With("length", len(c.CSRFKey)).Errorf("csrf_key must be exactly 32 bytes")
	}
	return nil
}

// TelegramEnabled reports whether the moderation bot should run
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// ParseList splits a comma-separated list, dropping empty entries
func ParseList(s string) []string {
	return lo.FilterMap(strings.Split(s, ","), func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	})
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.AppEnv == AppEnvProduction
}

// ParseChatIDs parses a comma-separated list of Telegram chat IDs into []int64
func ParseChatIDs(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (int64, bool) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		id, err := strconv.ParseInt(part, 10, 64)
		return id, err == nil
	})
}

func setDefaults(k *koanf.Koanf) {
	defaults := map[string]interface{}{
		"app_env":            "production",
		"http_port":          "8080",
		"storage_driver":     "file",
		"storage_path":       "./data",
		"sqlite_path":        "./data/askanon.db",
		"database_max_conns": 10,
		"csrf_enabled":       true,
		"secure_cookies":     false,
		"telegram_api_url":   "https://api.telegram.org",
		"site_title":         "Ask me anything",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}

func parserFor(configFile string) (koanf.Parser, error) {
	switch ext := filepath.Ext(configFile); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, oops.Errorf("unsupported config file extension: %s", ext)
	}
}

func randomKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
