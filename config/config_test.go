package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CART_STORE", "")
	t.Setenv("TAX_RATE", "")
	t.Setenv("DB_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, CartStorePostgres, cfg.Cart.Store)
	assert.InDelta(t, 0.10, cfg.Cart.TaxRate, 1e-9)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("OWNER_CHAT_ID", "42")
	t.Setenv("CART_STORE", "SQLite")
	t.Setenv("TAX_RATE", "0.05")
	t.Setenv("PUBLIC_URL", "https://scan.example.com/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, int64(42), cfg.Telegram.OwnerChatID)
	assert.Equal(t, CartStoreSQLite, cfg.Cart.Store)
	assert.InDelta(t, 0.05, cfg.Cart.TaxRate, 1e-9)
	assert.Equal(t, "https://scan.example.com", cfg.HTTP.PublicURL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foodscan.yaml")
	body := `
database:
  host: db.internal
  database: menu
cart:
  store: sqlite
  tax_rate: 0.2
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_NAME", "menu_prod")
	t.Setenv("CART_STORE", "")
	t.Setenv("TAX_RATE", "")
	t.Setenv("DB_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "menu_prod", cfg.DB.Database)
	assert.Equal(t, CartStoreSQLite, cfg.Cart.Store)
	assert.InDelta(t, 0.2, cfg.Cart.TaxRate, 1e-9)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"DB_PORT": "abc"}},
		{"bad owner chat", map[string]string{"OWNER_CHAT_ID": "me"}},
		{"unknown store", map[string]string{"CART_STORE": "redis"}},
		{"tax above one", map[string]string{"TAX_RATE": "1.5"}},
		{"missing file", map[string]string{"CONFIG_FILE": "/nonexistent/foodscan.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"CONFIG_FILE", "DB_PORT", "OWNER_CHAT_ID", "CART_STORE", "TAX_RATE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestAutoMigrate(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"0", false},
		{"", false},
		{"yes", false},
	}
	for _, tt := range tests {
		t.Setenv("AUTO_MIGRATE", tt.val)
		if got := AutoMigrate(); got != tt.want {
			t.Errorf("AutoMigrate() with %q = %v, want %v", tt.val, got, tt.want)
		}
	}
}
