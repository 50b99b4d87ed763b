package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"lankasafe-hq/notify"
)

const (
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

type Config struct {
	Port        string
	StoreDriver string

	FirebaseCredentials string
	FirebaseProjectID   string

	SessionKey        string
	SessionName       string
	SessionSecure     bool
	AdminUsername     string
	AdminPasswordHash string

	OfficerEmailDomain string
	NotifyRelay        string
	EmailJSServiceID   string
	EmailJSTemplateID  string
	EmailJSPublicKey   string
	EmailJSPrivateKey  string
	SlackWebhookURL    string

	RedisAddr      string
	RedisPass      string
	RedisDB        int
	NotifyCooldown time.Duration

	MapsAPIKey string

	Timezone  string
	LogLevel  string
	LogFormat string

	DigestSchedule string
	SweepSchedule  string
	ClientURL      string

	Location *time.Location // computed from Timezone
}

// Load reads an optional .env file, then the environment, and applies defaults.
// It does not validate; call Validate before using the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:               "8080",
		StoreDriver:        DriverFirestore,
		AdminUsername:      "admin",
		OfficerEmailDomain: notify.DefaultDomain,
		NotifyRelay:        notify.RelayMailto,
		Timezone:           "Asia/Colombo",
		LogLevel:           "info",
		LogFormat:          "json",
		DigestSchedule:     "0 * * * *",
		SweepSchedule:      "* * * * *",
	}

	envOverride(&cfg.Port, "PORT")
	envOverride(&cfg.StoreDriver, "STORE_DRIVER")
	envOverride(&cfg.FirebaseCredentials, "FIREBASE_CREDENTIALS")
	envOverride(&cfg.FirebaseProjectID, "FIREBASE_PROJECT_ID")
	envOverride(&cfg.SessionKey, "SESSION_KEY")
	envOverride(&cfg.SessionName, "SESSION_NAME")
	envOverride(&cfg.AdminUsername, "ADMIN_USERNAME")
	envOverride(&cfg.AdminPasswordHash, "ADMIN_PASSWORD_HASH")
	envOverride(&cfg.OfficerEmailDomain, "OFFICER_EMAIL_DOMAIN")
	envOverride(&cfg.NotifyRelay, "NOTIFY_RELAY")
	envOverride(&cfg.EmailJSServiceID, "EMAILJS_SERVICE_ID")
	envOverride(&cfg.EmailJSTemplateID, "EMAILJS_TEMPLATE_ID")
	envOverride(&cfg.EmailJSPublicKey, "EMAILJS_PUBLIC_KEY")
	envOverride(&cfg.EmailJSPrivateKey, "EMAILJS_PRIVATE_KEY")
	envOverride(&cfg.SlackWebhookURL, "SLACK_WEBHOOK_URL")
	envOverride(&cfg.RedisAddr, "REDIS_ADDR")
	envOverride(&cfg.RedisPass, "REDIS_PASS")
	envOverride(&cfg.MapsAPIKey, "MAPS_API_KEY")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.LogFormat, "LOG_FORMAT")
	envOverride(&cfg.DigestSchedule, "DIGEST_SCHEDULE")
	envOverride(&cfg.SweepSchedule, "REACHABILITY_SWEEP_SCHEDULE")
	envOverrideAllowEmpty(&cfg.ClientURL, "CLIENT_URL")

	var errs []error
	errs = append(errs,
		envOverrideBool(&cfg.SessionSecure, "SESSION_SECURE"),
		envOverrideInt(&cfg.RedisDB, "REDIS_DB"),
		envOverrideDuration(&cfg.NotifyCooldown, "NOTIFY_COOLDOWN"),
	)
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.NotifyRelay = strings.ToLower(strings.TrimSpace(cfg.NotifyRelay))
	return cfg, nil
}

// Validate checks the loaded values and resolves Location.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverFirestore:
		// empty FIREBASE_CREDENTIALS means application default credentials
		if c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH is required when STORE_DRIVER=%s", DriverFirestore)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverFirestore, DriverMemory, c.StoreDriver)
	}

	switch c.NotifyRelay {
	case notify.RelayMailto:
	case notify.RelayEmailJS:
		if c.EmailJSServiceID == "" || c.EmailJSTemplateID == "" || c.EmailJSPublicKey == "" {
			return fmt.Errorf("EMAILJS_SERVICE_ID, EMAILJS_TEMPLATE_ID and EMAILJS_PUBLIC_KEY are required when NOTIFY_RELAY=emailjs")
		}
	case notify.RelaySlack:
		if c.SlackWebhookURL == "" {
			return fmt.Errorf("SLACK_WEBHOOK_URL is required when NOTIFY_RELAY=slack")
		}
	default:
		return fmt.Errorf("NOTIFY_RELAY must be mailto, emailjs or slack, got %q", c.NotifyRelay)
	}

	if c.NotifyCooldown < 0 {
		return fmt.Errorf("invalid NOTIFY_COOLDOWN %s: must be >= 0", c.NotifyCooldown)
	}
	if c.NotifyCooldown > 0 && c.RedisAddr == "" {
		return fmt.Errorf("NOTIFY_COOLDOWN needs REDIS_ADDR")
	}
	if strings.Contains(c.OfficerEmailDomain, "@") || c.OfficerEmailDomain == "" {
		return fmt.Errorf("invalid OFFICER_EMAIL_DOMAIN %q", c.OfficerEmailDomain)
	}

	for key, sched := range map[string]string{
		"DIGEST_SCHEDULE":             c.DigestSchedule,
		"REACHABILITY_SWEEP_SCHEDULE": c.SweepSchedule,
	} {
		if _, err := cron.ParseStandard(sched); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, sched, err)
		}
	}

	if strings.EqualFold(c.Timezone, "Local") {
		c.Location = time.Local
	} else {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
		}
		c.Location = loc
	}
	return nil
}

// RelayConfig is the notify relay selection carried by this config.
func (c Config) RelayConfig() notify.RelayConfig {
	return notify.RelayConfig{
		Kind:              c.NotifyRelay,
		EmailJSServiceID:  c.EmailJSServiceID,
		EmailJSTemplateID: c.EmailJSTemplateID,
		EmailJSPublicKey:  c.EmailJSPublicKey,
		EmailJSPrivateKey: c.EmailJSPrivateKey,
		SlackWebhookURL:   c.SlackWebhookURL,
	}
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideAllowEmpty(field *string, envKey string) {
	if val, ok := os.LookupEnv(envKey); ok {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

// envOverrideDuration accepts Go durations ("10m") or a bare number of seconds.
func envOverrideDuration(field *time.Duration, envKey string) error {
	val := os.Getenv(envKey)
	if val == "" {
		return nil
	}
	if secs, err := strconv.Atoi(val); err == nil {
		*field = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
	}
	*field = d
	return nil
}
