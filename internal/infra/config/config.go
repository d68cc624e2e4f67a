package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/drone/envsubst"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Backend  BackendConfig  `yaml:"backend"`
	Location LocationConfig `yaml:"location"`
	View     ViewConfig     `yaml:"view"`
	Session  SessionConfig  `yaml:"session"`
	Maps     MapsConfig     `yaml:"maps"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// BackendConfig points at the profile data service.
type BackendConfig struct {
	BaseURL   string        `yaml:"baseUrl"`
	FetchMode string        `yaml:"fetchMode"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LocationConfig selects the position source and query options.
type LocationConfig struct {
	Provider     string        `yaml:"provider"`
	IPAPIBaseURL string        `yaml:"ipapiBaseUrl"`
	HighAccuracy bool          `yaml:"highAccuracy"`
	Timeout      time.Duration `yaml:"timeout"`
	MaximumAge   time.Duration `yaml:"maximumAge"`
}

// ViewConfig tunes the page flow.
type ViewConfig struct {
	IntroDelay   time.Duration `yaml:"introDelay"`
	MapWidth     int           `yaml:"mapWidth"`
	MapHeight    int           `yaml:"mapHeight"`
	ChartsAssets string        `yaml:"chartsAssets"`
}

// SessionConfig controls session lifetime and storage.
type SessionConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookieName"`
	Valkey     ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the shared session store.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// MapsConfig holds MapKit JS credentials.
type MapsConfig struct {
	TeamID         string        `yaml:"teamId"`
	KeyID          string        `yaml:"keyId"`
	PrivateKey     string        `yaml:"privateKey"`
	PrivateKeyPath string        `yaml:"privateKeyPath"`
	Origin         string        `yaml:"origin"`
	TokenTTL       time.Duration `yaml:"tokenTtl"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	expanded, err := envsubst.EvalEnv(string(data))
	if err != nil {
		return fmt.Errorf("expand config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("BACKEND_FETCH_MODE"); v != "" {
		cfg.Backend.FetchMode = v
	}
	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Timeout = parsed
		}
	}
	if v := os.Getenv("LOCATION_PROVIDER"); v != "" {
		cfg.Location.Provider = v
	}
	if v := os.Getenv("LOCATION_IPAPI_BASE_URL"); v != "" {
		cfg.Location.IPAPIBaseURL = v
	}
	if v := os.Getenv("LOCATION_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Location.Timeout = parsed
		}
	}
	if v := os.Getenv("VIEW_INTRO_DELAY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.View.IntroDelay = parsed
		}
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = parsed
		}
	}
	if v := os.Getenv("SESSION_VALKEY_ENABLED"); v != "" {
		cfg.Session.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("SESSION_VALKEY_ADDR"); v != "" {
		cfg.Session.Valkey.Addr = v
	}
	if v := os.Getenv("MAPKIT_TEAM_ID"); v != "" {
		cfg.Maps.TeamID = v
	}
	if v := os.Getenv("MAPKIT_KEY_ID"); v != "" {
		cfg.Maps.KeyID = v
	}
	if v := os.Getenv("MAPKIT_PRIVATE_KEY"); v != "" {
		cfg.Maps.PrivateKey = v
	}
	if v := os.Getenv("MAPKIT_PRIVATE_KEY_PATH"); v != "" {
		cfg.Maps.PrivateKeyPath = v
	}
	if v := os.Getenv("MAPKIT_ORIGIN"); v != "" {
		cfg.Maps.Origin = v
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             40,
			},
		},
		Backend: BackendConfig{
			BaseURL:   "http://localhost:8000",
			FetchMode: "get",
			Timeout:   10 * time.Second,
		},
		Location: LocationConfig{
			Provider:     "browser",
			IPAPIBaseURL: "http://ip-api.com",
			HighAccuracy: true,
			Timeout:      5 * time.Second,
			MaximumAge:   0,
		},
		View: ViewConfig{
			IntroDelay:   4 * time.Second,
			MapWidth:     800,
			MapHeight:    400,
			ChartsAssets: "https://go-echarts.github.io/go-echarts-assets/assets/",
		},
		Session: SessionConfig{
			TTL:        2 * time.Hour,
			CookieName: "genui_session",
			Valkey: ValkeyConfig{
				Enabled: false,
				Addr:    "",
				Prefix:  "genui:session",
			},
		},
		Maps: MapsConfig{
			TokenTTL: 30 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend.baseUrl cannot be empty")
	}
	switch strings.ToLower(c.Backend.FetchMode) {
	case "get", "post":
	default:
		return fmt.Errorf("backend.fetchMode must be get or post, got %q", c.Backend.FetchMode)
	}
	if c.Backend.Timeout < 0 {
		return errors.New("backend.timeout cannot be negative")
	}
	switch strings.ToLower(c.Location.Provider) {
	case "browser", "ipapi", "disabled":
	default:
		return fmt.Errorf("location.provider must be browser, ipapi or disabled, got %q", c.Location.Provider)
	}
	if c.Location.Timeout <= 0 {
		return errors.New("location.timeout must be positive")
	}
	if c.Location.MaximumAge < 0 {
		return errors.New("location.maximumAge cannot be negative")
	}
	if c.View.IntroDelay < 0 {
		return errors.New("view.introDelay cannot be negative")
	}
	if c.View.MapWidth <= 0 || c.View.MapHeight <= 0 {
		return errors.New("view.mapWidth and view.mapHeight must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("session.cookieName cannot be empty")
	}
	if c.Session.Valkey.Enabled && strings.TrimSpace(c.Session.Valkey.Addr) == "" {
		return errors.New("session.valkey.addr cannot be empty when valkey is enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}
