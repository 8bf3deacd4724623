// Package config provides the configuration of the app.
//
// Settings are read from a YAML file and can be overridden by environment variables.
// Environment variables can also be provided with .env files.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const envPrefix = "SRP_"

// Default values
const (
	AllianceIDDefault       = 99004116
	BaseURLDefault          = "http://localhost:8000"
	ConcurrencyLimitDefault = 5
	ESIRetryMaxDefault      = 3
	ESITimeoutDefault       = 30 * time.Second
	ListenAddressDefault    = ":8000"
	LookupCacheTTLDefault   = 24 * time.Hour
	LookupMaxItemsDefault   = 10_000
	UserAgentDefault        = "srp/1.0 (Warped Intentions)"
	minSessionSecretLength  = 32
)

type SSO struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type ESI struct {
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	RetryMax  int           `yaml:"retry_max"`
}

type Lookup struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
	MaxItems int           `yaml:"max_items"`
}

// Config is the configuration of the app.
type Config struct {
	ListenAddress string `yaml:"listen_address"`
	// Public URL of the app. The SSO callback is derived from it.
	BaseURL       string `yaml:"base_url"`
	SessionSecret string `yaml:"session_secret"`
	SSO           SSO    `yaml:"sso"`

	// Only members of this alliance can use the app.
	AllianceID int32 `yaml:"alliance_id"`
	// Characters which can manage claims in addition to directors.
	ManagerIDs []int32 `yaml:"manager_ids"`

	DatabasePath     string `yaml:"database_path"` // defaults to the user data dir
	LogFile          string `yaml:"log_file"`      // no log file when empty
	DisableLossStore bool   `yaml:"disable_loss_store"`
	ConcurrencyLimit int    `yaml:"concurrency_limit"`

	ESI    ESI    `yaml:"esi"`
	Lookup Lookup `yaml:"lookup"`
}

// Default returns a configuration with default values.
func Default() Config {
	return Config{
		ListenAddress:    ListenAddressDefault,
		BaseURL:          BaseURLDefault,
		AllianceID:       AllianceIDDefault,
		ConcurrencyLimit: ConcurrencyLimitDefault,
		ESI: ESI{
			UserAgent: UserAgentDefault,
			Timeout:   ESITimeoutDefault,
			RetryMax:  ESIRetryMaxDefault,
		},
		Lookup: Lookup{
			CacheTTL: LookupCacheTTLDefault,
			MaxItems: LookupMaxItemsDefault,
		},
	}
}

// LoadDotEnv loads environment variables from .env files if they exist.
// Variables which are already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load returns the configuration from a YAML file with environment overrides.
// A missing file is ignored when mustExist is false.
func Load(path string, mustExist bool) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && !mustExist:
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides settings with environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, p *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*p = v
		}
	}
	num := func(name string, p *int) {
		if v, ok := lookup(envPrefix + name); ok {
			x, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*p = x
		}
	}
	dur := func(name string, p *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			x, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*p = x
		}
	}
	str("LISTEN_ADDRESS", &c.ListenAddress)
	str("BASE_URL", &c.BaseURL)
	str("SESSION_SECRET", &c.SessionSecret)
	str("SSO_CLIENT_ID", &c.SSO.ClientID)
	str("SSO_CLIENT_SECRET", &c.SSO.ClientSecret)
	str("DATABASE_PATH", &c.DatabasePath)
	str("LOG_FILE", &c.LogFile)
	str("ESI_USER_AGENT", &c.ESI.UserAgent)
	num("ESI_RETRY_MAX", &c.ESI.RetryMax)
	num("CONCURRENCY_LIMIT", &c.ConcurrencyLimit)
	num("LOOKUP_MAX_ITEMS", &c.Lookup.MaxItems)
	dur("ESI_TIMEOUT", &c.ESI.Timeout)
	dur("LOOKUP_CACHE_TTL", &c.Lookup.CacheTTL)
	if v, ok := lookup(envPrefix + "ALLIANCE_ID"); ok {
		x, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sALLIANCE_ID: %w", envPrefix, err))
		} else {
			c.AllianceID = int32(x)
		}
	}
	if v, ok := lookup(envPrefix + "MANAGER_IDS"); ok {
		ids, err := parseIDs(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMANAGER_IDS: %w", envPrefix, err))
		} else {
			c.ManagerIDs = ids
		}
	}
	if v, ok := lookup(envPrefix + "DISABLE_LOSS_STORE"); ok {
		x, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDISABLE_LOSS_STORE: %w", envPrefix, err))
		} else {
			c.DisableLossStore = x
		}
	}
	return errors.Join(errs...)
}

// parseIDs parses a comma separated list of IDs.
func parseIDs(s string) ([]int32, error) {
	ids := make([]int32, 0)
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		x, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return nil, err
		}
		ids = append(ids, int32(x))
	}
	return ids, nil
}

// Validate reports all missing or invalid settings.
func (c Config) Validate() error {
	var errs []error
	if c.SSO.ClientID == "" {
		errs = append(errs, errors.New("missing SSO client ID"))
	}
	if c.SSO.ClientSecret == "" {
		errs = append(errs, errors.New("missing SSO client secret"))
	}
	if len(c.SessionSecret) < minSessionSecretLength {
		errs = append(errs, fmt.Errorf("session secret must have at least %d characters", minSessionSecretLength))
	}
	if c.AllianceID <= 0 {
		errs = append(errs, errors.New("missing alliance ID"))
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid base URL: %q", c.BaseURL))
	}
	if c.ListenAddress == "" {
		errs = append(errs, errors.New("missing listen address"))
	}
	if c.ESI.Timeout <= 0 {
		errs = append(errs, errors.New("ESI timeout must be positive"))
	}
	if c.Lookup.MaxItems < 0 {
		errs = append(errs, errors.New("lookup max items can not be negative"))
	}
	return errors.Join(errs...)
}

// CallbackURL returns the URL of the SSO callback.
func (c Config) CallbackURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/callback"
}

// IsSecure reports whether the app is served over HTTPS.
func (c Config) IsSecure() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}
