// Package config loads runtime settings from a .env file and the process
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/authdiscovery/apiv1/utils"
	"github.com/joho/godotenv"
	"github.com/xlzd/gotp"
)

const devSecretLength = 32

type Config struct {
	Env  string
	Port string
	// DSN is the MySQL DSN. Empty selects the in-memory store.
	DSN string

	AccessKeys  utils.SigningKeys
	RefreshKeys utils.SigningKeys
	AccessTTL   time.Duration
	RefreshTTL  time.Duration

	SecretKey     string
	EncryptionKey string
	HMACSecret    string

	RedisAddr     string
	RedisPassword string

	DiscoveryLocation *time.Location
	LogFile           string
	AuthThrottleRPS   float64

	// GeneratedSecrets is set when signing secrets were generated for this
	// process because none were configured.
	GeneratedSecrets bool
}

// Load reads envFile if it exists and then builds a Config from the
// environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:           getenv(utils.APP_ENV, utils.ENV_DEVELOPMENT),
		Port:          getenv(utils.PORT, "8000"),
		DSN:           os.Getenv(utils.URI_KEY),
		SecretKey:     os.Getenv(utils.SECRET_KEY),
		EncryptionKey: getenv(utils.ENCRYPTION_KEY, "default-encryption-key-256bit"),
		HMACSecret:    getenv(utils.HMAC_SECRET, "default-hmac-secret-key"),
		RedisAddr:     os.Getenv(utils.REDIS_ADDR),
		RedisPassword: os.Getenv(utils.REDIS_PASSWORD),
		LogFile:       getenv(utils.LOG_FILE, "logs.txt"),
	}
	cfg.AccessKeys = utils.SigningKeys{
		Current:  []byte(os.Getenv(utils.ACCESS_TOKEN_SECRET)),
		Previous: []byte(os.Getenv(utils.ACCESS_TOKEN_SECRET_OLD)),
	}
	cfg.RefreshKeys = utils.SigningKeys{
		Current:  []byte(os.Getenv(utils.REFRESH_TOKEN_SECRET)),
		Previous: []byte(os.Getenv(utils.REFRESH_TOKEN_SECRET_OLD)),
	}

	var err error
	if cfg.AccessTTL, err = durationFromEnv(utils.ACCESS_TOKEN_EXPIRY, utils.ACCESS_TOKEN_DURATION); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = durationFromEnv(utils.REFRESH_TOKEN_EXPIRY, utils.REFRESH_TOKEN_DURATION); err != nil {
		return nil, err
	}

	tz := getenv(utils.DISCOVERY_TIMEZONE, "UTC")
	if cfg.DiscoveryLocation, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("%s: %w", utils.DISCOVERY_TIMEZONE, err)
	}

	cfg.AuthThrottleRPS = 5
	if v := os.Getenv(utils.AUTH_THROTTLE_RPS); v != "" {
		if cfg.AuthThrottleRPS, err = strconv.ParseFloat(v, 64); err != nil || cfg.AuthThrottleRPS <= 0 {
			return nil, fmt.Errorf("%s: invalid value %q", utils.AUTH_THROTTLE_RPS, v)
		}
	}

	if err := cfg.ensureSecrets(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == utils.ENV_PRODUCTION
}

func (c *Config) IsDevelopment() bool {
	return c.Env == utils.ENV_DEVELOPMENT
}

// Configured reports which deployment secrets were supplied, without
// revealing them.
func (c *Config) Configured() map[string]bool {
	return map[string]bool{
		"jwtSecret":    !c.GeneratedSecrets && len(c.AccessKeys.Current) > 0,
		"dbConnection": c.DSN != "",
		"redisConfig":  c.RedisAddr != "",
	}
}

func (c *Config) ensureSecrets() error {
	missing := []string{}
	if len(c.AccessKeys.Current) == 0 {
		missing = append(missing, utils.ACCESS_TOKEN_SECRET)
	}
	if len(c.RefreshKeys.Current) == 0 {
		missing = append(missing, utils.REFRESH_TOKEN_SECRET)
	}
	if c.SecretKey == "" {
		missing = append(missing, utils.SECRET_KEY)
	}
	if len(missing) == 0 {
		return nil
	}
	if c.IsProduction() {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if len(c.AccessKeys.Current) == 0 {
		c.AccessKeys.Current = []byte(gotp.RandomSecret(devSecretLength))
		c.GeneratedSecrets = true
	}
	if len(c.RefreshKeys.Current) == 0 {
		c.RefreshKeys.Current = []byte(gotp.RandomSecret(devSecretLength))
		c.GeneratedSecrets = true
	}
	if c.SecretKey == "" {
		c.SecretKey = "your-super-secret-key-12345"
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// ParseDuration accepts time.ParseDuration syntax plus a whole number of
// days such as "10d".
func ParseDuration(v string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}
