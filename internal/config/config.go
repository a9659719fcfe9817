package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hamed0406/apicanary/internal/domain"
)

type Config struct {
	// Probe inputs
	Endpoint       string // API_ENDPOINT, required
	Method         string // HTTP_METHOD
	ExpectedStatus int    // EXPECTED_STATUS
	Project        string // PROJECT_NAME
	Environment    string // ENVIRONMENT

	// Host and ambient settings
	Addr        string        // API bind address for `canary serve`
	LogDir      string        // logs directory
	LogLevel    string        // debug|info|warn|error
	HTTPTimeout time.Duration // per-invocation deadline applied by the host
	Schedule    string        // cron spec, e.g. "@every 5m"
	DatabaseURL string        // postgres://..., sqlite://path, or empty for memory

	SlackWebhook    string
	AlertOnRecovery bool
	AlertCooldown   time.Duration

	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string

	PublicAPIKeys []string
	AdminAPIKeys  []string

	// Warnings lists settings that were unusable and replaced by defaults.
	Warnings []string
}

var defaults = map[string]any{
	"HTTP_METHOD":       "GET",
	"EXPECTED_STATUS":   200,
	"PROJECT_NAME":      "unknown",
	"ENVIRONMENT":       "unknown",
	"API_ADDR":          "127.0.0.1:8080",
	"LOG_DIR":           "logs",
	"LOG_LEVEL":         "info",
	"HTTP_TIMEOUT_MS":   10000,
	"SCHEDULE":          "@every 5m",
	"ALERT_ON_RECOVERY": true,
	"ALERT_COOLDOWN_MS": 15 * 60 * 1000,
}

// FromEnv reads the process environment once. Malformed numbers fall back to
// their defaults rather than failing startup.
func FromEnv() Config {
	v := viper.New()
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	return load(v)
}

func load(v *viper.Viper) Config {
	var warnings []string
	expected := v.GetInt("EXPECTED_STATUS")
	if expected < 100 || expected > 599 {
		warnings = append(warnings, fmt.Sprintf("EXPECTED_STATUS=%q is not an HTTP status, using %d",
			v.GetString("EXPECTED_STATUS"), defaults["EXPECTED_STATUS"].(int)))
		expected = defaults["EXPECTED_STATUS"].(int)
	}

	timeoutMS := v.GetInt("HTTP_TIMEOUT_MS")
	if timeoutMS <= 0 {
		timeoutMS = defaults["HTTP_TIMEOUT_MS"].(int)
	}

	cooldownMS := v.GetInt("ALERT_COOLDOWN_MS")
	if cooldownMS < 0 {
		cooldownMS = defaults["ALERT_COOLDOWN_MS"].(int)
	}

	method := strings.ToUpper(strings.TrimSpace(v.GetString("HTTP_METHOD")))
	if method == "" {
		method = "GET"
	}

	return Config{
		Endpoint:       strings.TrimSpace(v.GetString("API_ENDPOINT")),
		Method:         method,
		ExpectedStatus: expected,
		Project:        orDefault(v.GetString("PROJECT_NAME"), "unknown"),
		Environment:    orDefault(v.GetString("ENVIRONMENT"), "unknown"),

		Addr:        v.GetString("API_ADDR"),
		LogDir:      v.GetString("LOG_DIR"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTPTimeout: time.Duration(timeoutMS) * time.Millisecond,
		Schedule:    orDefault(v.GetString("SCHEDULE"), "@every 5m"),
		DatabaseURL: v.GetString("DATABASE_URL"),

		SlackWebhook:    v.GetString("SLACK_WEBHOOK_URL"),
		AlertOnRecovery: v.GetBool("ALERT_ON_RECOVERY"),
		AlertCooldown:   time.Duration(cooldownMS) * time.Millisecond,

		InfluxURL:    v.GetString("INFLUX_URL"),
		InfluxToken:  v.GetString("INFLUX_TOKEN"),
		InfluxOrg:    v.GetString("INFLUX_ORG"),
		InfluxBucket: v.GetString("INFLUX_BUCKET"),

		PublicAPIKeys: splitKeys(v.GetString("PUBLIC_API_KEYS")),
		AdminAPIKeys:  splitKeys(v.GetString("ADMIN_API_KEYS")),

		Warnings: warnings,
	}
}

// Probe returns the immutable per-invocation probe settings.
func (c Config) Probe() domain.ProbeConfig {
	return domain.ProbeConfig{
		EndpointURL:    c.Endpoint,
		Method:         c.Method,
		ExpectedStatus: c.ExpectedStatus,
		ProjectTag:     c.Project,
		EnvironmentTag: c.Environment,
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func splitKeys(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
