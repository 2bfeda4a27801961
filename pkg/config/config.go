package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	httpclient "github.com/natserract/mkto/pkg/http"
)

const (
	DefaultAPIVersion = "2_2"
	DefaultNamespace  = "http://www.marketo.com/mktows/"
	DefaultTimeout    = 30 * time.Second
)

type Config struct {
	AccessKey  string
	SecretKey  string
	Endpoint   string
	Host       string
	APIVersion string
	Namespace  string
	Timeout    time.Duration
	MaxTries   uint
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		AccessKey:  os.Getenv("MARKETO_ACCESS_KEY"),
		SecretKey:  os.Getenv("MARKETO_SECRET_KEY"),
		Endpoint:   os.Getenv("MARKETO_ENDPOINT"),
		Host:       os.Getenv("MARKETO_HOST"),
		APIVersion: getEnv("MARKETO_API_VERSION", DefaultAPIVersion),
		Namespace:  getEnv("MARKETO_NAMESPACE", DefaultNamespace),
		Timeout:    DefaultTimeout,
		MaxTries:   1,
	}

	if v := os.Getenv("MARKETO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("MARKETO_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("MARKETO_MAX_TRIES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("MARKETO_MAX_TRIES: %w", err)
		}
		cfg.MaxTries = uint(n)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.AccessKey == "" {
		return fmt.Errorf("MARKETO_ACCESS_KEY is required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("MARKETO_SECRET_KEY is required")
	}
	if c.Endpoint == "" && c.Host == "" {
		return fmt.Errorf("MARKETO_ENDPOINT or MARKETO_HOST is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("MARKETO_TIMEOUT must be positive")
	}
	if c.MaxTries == 0 {
		return fmt.Errorf("MARKETO_MAX_TRIES must be at least 1")
	}
	return nil
}

// SOAPEndpoint returns the explicit endpoint, or builds one from the host
// and API version, e.g. https://123-ABC-456.mktoapi.com/soap/mktows/2_2.
func (c *Config) SOAPEndpoint() (string, error) {
	if c.Endpoint != "" {
		return c.Endpoint, nil
	}
	version := c.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return httpclient.BuildURL("https://"+c.Host, "/soap/mktows/"+version, nil)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
