package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const (
	defaultAddr     = "0.0.0.0:3000"
	defaultNthOrder = 5
)

// Config holds the complete application configuration, loadable from
// environment variables (KART_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:3000" usage:"API server listen address"`
	CatalogFile string `default:"" usage:"Product seed file (.json or .json.gz); embedded seed when empty" flag:"catalog-file"`
	Discount    DiscountConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// DiscountConfig controls code issuance.
type DiscountConfig struct {
	NthOrder int `default:"5"  usage:"Orders per discount code slot (DISCOUNT_NTH_ORDER)" flag:"discount-nth-order"`
	Percent  int `default:"10" usage:"Default percent off for issued codes" flag:"discount-percent"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"http://localhost:5173" usage:"Allowed CORS origins (FRONTEND_ORIGIN)"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags, YAML
// config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "KART",
		Files:     []string{"config.yaml", "/etc/kart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the plain environment variables used by hosting
// platforms and the web client setup (PORT, DISCOUNT_NTH_ORDER,
// FRONTEND_ORIGIN) onto the KART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
	if v := os.Getenv("DISCOUNT_NTH_ORDER"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Discount.NthOrder = n
		}
	}
	if c.Discount.NthOrder < 1 {
		c.Discount.NthOrder = defaultNthOrder
	}
	if origin := os.Getenv("FRONTEND_ORIGIN"); origin != "" {
		c.CORS.Origins = strings.Split(origin, ",")
	}
}

func (c *Config) validate() error {
	if p := c.Discount.Percent; p < 1 || p > 100 {
		return errors.Errorf("discount percent must be between 1 and 100, got %d", p)
	}
	if c.RateLimit.Max < 1 {
		return errors.Errorf("rate limit max must be positive, got %d", c.RateLimit.Max)
	}
	if c.RateLimit.Window <= 0 {
		return errors.Errorf("rate limit window must be positive, got %s", c.RateLimit.Window)
	}
	return nil
}
