package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoaderConfig() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "KART",
		SkipFlags: true,
		SkipFiles: true,
	}
}

func clearPlatformEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "DISCOUNT_NTH_ORDER", "FRONTEND_ORIGIN"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearPlatformEnv(t)

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Addr)
	assert.Empty(t, cfg.CatalogFile)
	assert.Equal(t, 5, cfg.Discount.NthOrder)
	assert.Equal(t, 10, cfg.Discount.Percent)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.Origins)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_PlatformEnv(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("FRONTEND_ORIGIN", "https://shop.example.com")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8081", cfg.Addr)
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.CORS.Origins)
}

func TestLoadConfig_NthOrder(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{name: "unset", env: "", want: 5},
		{name: "positive", env: "3", want: 3},
		{name: "padded", env: " 7 ", want: 7},
		{name: "zero", env: "0", want: 5},
		{name: "negative", env: "-2", want: 5},
		{name: "not a number", env: "abc", want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPlatformEnv(t)
			t.Setenv("DISCOUNT_NTH_ORDER", tt.env)

			cfg, err := loadConfig(testLoaderConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Discount.NthOrder)
		})
	}
}

func TestApplyPlatformDefaults_NthOrderFloor(t *testing.T) {
	clearPlatformEnv(t)

	cfg := Config{Addr: defaultAddr, Discount: DiscountConfig{NthOrder: 0, Percent: 10}}
	cfg.applyPlatformDefaults()
	assert.Equal(t, defaultNthOrder, cfg.Discount.NthOrder)
}

func TestApplyPlatformDefaults_ExplicitAddrWins(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("PORT", "9000")

	cfg := Config{Addr: "127.0.0.1:4000", Discount: DiscountConfig{NthOrder: 5}}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "127.0.0.1:4000", cfg.Addr)
}

func TestLoadConfig_InvalidPercent(t *testing.T) {
	for _, percent := range []string{"0", "101"} {
		t.Run(percent, func(t *testing.T) {
			clearPlatformEnv(t)
			t.Setenv("KART_DISCOUNT_PERCENT", percent)

			_, err := loadConfig(testLoaderConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "discount percent")
		})
	}
}

func TestConfigValidate_RateLimit(t *testing.T) {
	cfg := Config{
		Discount:  DiscountConfig{NthOrder: 5, Percent: 10},
		RateLimit: RateLimitConfig{Max: 0, Window: time.Minute},
	}
	require.Error(t, cfg.validate())

	cfg.RateLimit = RateLimitConfig{Max: 10, Window: 0}
	require.Error(t, cfg.validate())

	cfg.RateLimit = RateLimitConfig{Max: 10, Window: time.Second}
	require.NoError(t, cfg.validate())
}
