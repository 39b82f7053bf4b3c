package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gsj_gateway/internal/models"

	"github.com/spf13/viper"
)

// Login strategies understood by the portal package.
const (
	StrategyBrowser = "browser"
	StrategyForm    = "form"
)

const (
	envPrefix        = "GSJ"
	envUsername      = "GSJ_USERNAME"
	envPassword      = "GSJ_PASSWORD"
	defaultConfigDir = "configs"
	configName       = "config"
)

// Error reports a missing or invalid configuration value. It is fatal at startup.
type Error struct {
	Key string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Msg)
}

// Config is the typed application configuration.
type Config struct {
	Port      string          `mapstructure:"port"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Portal    PortalConfig    `mapstructure:"portal"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	API       APIConfig       `mapstructure:"api"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

// ServerConfig tunes the local HTTP server. WriteTimeout must outlast a cold login.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
	// Retention prunes older audit events; 0 keeps them forever.
	Retention time.Duration `mapstructure:"retention"`
}

// PortalConfig describes the remote portal and how to log in to it.
type PortalConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	LoginPath      string        `mapstructure:"login_path"`
	ReadPath       string        `mapstructure:"read_path"`
	WritePath      string        `mapstructure:"write_path"`
	DeviceName     string        `mapstructure:"device_name"`
	DeviceID       string        `mapstructure:"device_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	LoginStrategy  string        `mapstructure:"login_strategy"`
	SessionCookie  string        `mapstructure:"session_cookie"`
	CSRFCookie     string        `mapstructure:"csrf_cookie"`
	UserAgent      string        `mapstructure:"user_agent"`
	LoginTimeout   time.Duration `mapstructure:"login_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Browser        BrowserConfig `mapstructure:"browser"`
}

// BrowserConfig drives the headless Chromium login.
type BrowserConfig struct {
	ExecPath         string        `mapstructure:"exec_path"`
	Headless         bool          `mapstructure:"headless"`
	NoSandbox        bool          `mapstructure:"no_sandbox"`
	IdleWait         time.Duration `mapstructure:"idle_wait"`
	UsernameSelector string        `mapstructure:"username_selector"`
	PasswordSelector string        `mapstructure:"password_selector"`
	SubmitSelector   string        `mapstructure:"submit_selector"`
}

type SessionConfig struct {
	Persist          bool          `mapstructure:"persist"`
	MinLoginInterval time.Duration `mapstructure:"min_login_interval"`
}

type TelemetryConfig struct {
	// RecordInterval enables periodic TELEMETRY events when > 0.
	RecordInterval time.Duration `mapstructure:"record_interval"`
}

type APIConfig struct {
	JWTSecret   string   `mapstructure:"jwt_secret"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Credentials returns the configured portal account.
func (c PortalConfig) Credentials() models.Credentials {
	return models.Credentials{Username: c.Username, Password: c.Password}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("db.path", "gsj.db")
	v.SetDefault("db.retention", 30*24*time.Hour)

	v.SetDefault("portal.base_url", "http://gsj-energia.com")
	v.SetDefault("portal.login_path", "/login")
	v.SetDefault("portal.read_path", "/api/parameters/{name}")
	v.SetDefault("portal.write_path", "/api/devices/{id}/parameters")
	v.SetDefault("portal.device_name", "")
	v.SetDefault("portal.device_id", "")
	v.SetDefault("portal.username", "")
	v.SetDefault("portal.password", "")
	v.SetDefault("portal.login_strategy", StrategyBrowser)
	v.SetDefault("portal.session_cookie", "gsj_session")
	v.SetDefault("portal.csrf_cookie", "XSRF-TOKEN")
	v.SetDefault("portal.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("portal.login_timeout", 60*time.Second)
	v.SetDefault("portal.request_timeout", 15*time.Second)

	v.SetDefault("portal.browser.exec_path", "")
	v.SetDefault("portal.browser.headless", true)
	v.SetDefault("portal.browser.no_sandbox", true)
	v.SetDefault("portal.browser.idle_wait", 15*time.Second)
	v.SetDefault("portal.browser.username_selector", `input[name="username"]`)
	v.SetDefault("portal.browser.password_selector", `input[name="password"]`)
	v.SetDefault("portal.browser.submit_selector", `button[type="submit"]`)

	v.SetDefault("session.persist", false)
	v.SetDefault("session.min_login_interval", 0)

	v.SetDefault("telemetry.record_interval", 0)

	v.SetDefault("api.jwt_secret", "")
	v.SetDefault("api.cors_origins", []string{})
}

// Load reads config.yml from the given directories (default "configs"), applies
// GSJ_* environment overrides and validates the result. A missing file is not an error.
func Load(dirs ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if len(dirs) == 0 {
		dirs = []string{defaultConfigDir}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetConfigName(configName)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("portal.username", envUsername)
	_ = v.BindEnv("portal.password", envPassword)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the gateway cannot start without.
func (c *Config) Validate() error {
	p := c.Portal
	if strings.TrimSpace(p.Username) == "" {
		return &Error{Key: "portal.username", Msg: "missing (set " + envUsername + ")"}
	}
	if strings.TrimSpace(p.Password) == "" {
		return &Error{Key: "portal.password", Msg: "missing (set " + envPassword + ")"}
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &Error{Key: "portal.base_url", Msg: fmt.Sprintf("invalid url %q", p.BaseURL)}
	}
	if p.DeviceName == "" {
		return &Error{Key: "portal.device_name", Msg: "missing"}
	}
	if p.DeviceID == "" {
		return &Error{Key: "portal.device_id", Msg: "missing"}
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return &Error{Key: "log.format", Msg: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	switch p.LoginStrategy {
	case StrategyBrowser, StrategyForm:
	default:
		return &Error{Key: "portal.login_strategy", Msg: fmt.Sprintf("unknown strategy %q", p.LoginStrategy)}
	}
	if p.SessionCookie == "" {
		return &Error{Key: "portal.session_cookie", Msg: "missing"}
	}
	if c.DB.Retention < 0 {
		return &Error{Key: "db.retention", Msg: "must be >= 0"}
	}
	if c.Session.MinLoginInterval < 0 {
		return &Error{Key: "session.min_login_interval", Msg: "must be >= 0"}
	}
	return nil
}
