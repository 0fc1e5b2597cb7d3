package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// ConfigEnv names the optional TOML file overlaying env defaults.
const ConfigEnv = "MOVIEHUB_CONFIG"

type AuthConfig struct {
	JWTSecret    string        `toml:"jwt_secret"`
	JWTIssuer    string        `toml:"jwt_issuer"`
	JWTDuration  time.Duration `toml:"jwt_ttl"`
	Username     string        `toml:"username"`
	Password     string        `toml:"password"`
	PasswordHash string        `toml:"password_hash"` // bcrypt; wins over Password when set
}

type MoviesConfig struct {
	UpstreamURL  string        `toml:"upstream_url"`
	CacheTTL     time.Duration `toml:"cache_ttl"`
	FetchTimeout time.Duration `toml:"fetch_timeout"`
	WarmOnStart  bool          `toml:"warm_on_start"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr           string       `toml:"addr"`
	TrustedProxies []string     `toml:"trusted_proxies"`
	Auth           AuthConfig   `toml:"auth"`
	Movies         MoviesConfig `toml:"movies"`
	Log            LogConfig    `toml:"log"`
}

type ClientConfig struct {
	APIURL    string    `toml:"api_url"`
	StorePath string    `toml:"store_path"`
	Log       LogConfig `toml:"log"`
}

// LoadServerConfig reads env vars with dev defaults, then overlays the TOML
// file named by path (or $MOVIEHUB_CONFIG) when there is one.
func LoadServerConfig(path string) (ServerConfig, error) {
	addr := getString("MOVIEHUB_ADDR", "")
	if addr == "" {
		addr = ":" + getString("PORT", "5001")
	}

	cfg := ServerConfig{
		Addr:           addr,
		TrustedProxies: []string{"127.0.0.1"},
		Auth: AuthConfig{
			// dev defaults (change for demo / production)
			JWTSecret:    getString("MOVIEHUB_JWT_SECRET", "dev-secret-change-me"),
			JWTIssuer:    getString("MOVIEHUB_JWT_ISSUER", "moviehub"),
			JWTDuration:  getDuration("MOVIEHUB_JWT_TTL", time.Hour),
			Username:     getString("MOVIEHUB_USERNAME", "admin"),
			Password:     getString("MOVIEHUB_PASSWORD", "1234"),
			PasswordHash: getString("MOVIEHUB_PASSWORD_HASH", ""),
		},
		Movies: MoviesConfig{
			UpstreamURL:  getString("MOVIEHUB_UPSTREAM_URL", defaultUpstreamURL),
			CacheTTL:     getDuration("MOVIEHUB_CACHE_TTL", time.Hour),
			FetchTimeout: getDuration("MOVIEHUB_FETCH_TIMEOUT", 10*time.Second),
			WarmOnStart:  getBool("MOVIEHUB_WARM_CACHE", true),
		},
		Log: LogConfig{
			Level:  getString("MOVIEHUB_LOG_LEVEL", "info"),
			Format: getString("MOVIEHUB_LOG_FORMAT", "text"),
		},
	}

	if err := overlayFile(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := ClientConfig{
		APIURL:    getString("MOVIEHUB_API", "http://localhost:5001/api"),
		StorePath: getString("MOVIEHUB_STORE", defaultStorePath()),
		Log: LogConfig{
			Level:  getString("MOVIEHUB_LOG_LEVEL", "warn"),
			Format: getString("MOVIEHUB_LOG_FORMAT", "text"),
		},
	}
	if err := overlayFile(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// kept in sync with movies.DefaultUpstreamURL; utils must not import internal packages
const defaultUpstreamURL = "https://gist.githubusercontent.com/saniyusuf/406b843afdfb9c6a86e25753fe2761f4/raw/523c324c7fcc36efab8224f9ebb7556c09b69a14/Film.JSON"

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./.moviehub-client.db"
	}
	return filepath.Join(home, ".moviehub", "client.db")
}

func overlayFile(path string, v any) error {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if _, err := toml.Decode(substituteEnvVars(string(data)), v); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match
	})
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
