package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	CartStorePostgres = "postgres"
	CartStoreSQLite   = "sqlite"
)

type Config struct {
	DB       DBConfig       `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Telegram TelegramConfig `yaml:"telegram"`
	Broker   BrokerConfig   `yaml:"broker"`
	Cart     CartConfig     `yaml:"cart"`
	Log      LogConfig      `yaml:"log"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	PublicURL string `yaml:"public_url"` // base URL printed into table QR codes
}

type TelegramConfig struct {
	Token        string `yaml:"token"`
	Username     string `yaml:"username"`      // bot username, for t.me deep links
	OwnerChatID  int64  `yaml:"owner_chat_id"` // chat that receives order cards
	RestaurantID string `yaml:"restaurant_id"` // default restaurant when /start has no table payload
}

type BrokerConfig struct {
	URL string `yaml:"url"` // empty disables RabbitMQ
}

type CartConfig struct {
	Store      string  `yaml:"store"` // postgres or sqlite
	SQLitePath string  `yaml:"sqlite_path"`
	TaxRate    float64 `yaml:"tax_rate"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads .env (if present), an optional YAML file named by CONFIG_FILE, and then environment
// variables. Environment always wins over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DB: DBConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "foodscan",
		},
		HTTP: HTTPConfig{
			Addr:      ":8080",
			PublicURL: "http://localhost:8080",
		},
		Cart: CartConfig{
			Store:      CartStorePostgres,
			SQLitePath: "foodscan-carts.db",
			TaxRate:    0.10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DB.Host = getEnv("DB_HOST", c.DB.Host)
	c.DB.User = getEnv("DB_USER", c.DB.User)
	c.DB.Password = getEnv("DB_PASSWORD", c.DB.Password)
	c.DB.Database = getEnv("DB_NAME", c.DB.Database)
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DB_PORT: %w", err)
		}
		c.DB.Port = port
	}

	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.PublicURL = strings.TrimRight(getEnv("PUBLIC_URL", c.HTTP.PublicURL), "/")

	c.Telegram.Token = getEnv("TOKEN", c.Telegram.Token)
	c.Telegram.Username = getEnv("BOT_USERNAME", c.Telegram.Username)
	c.Telegram.RestaurantID = getEnv("RESTAURANT_ID", c.Telegram.RestaurantID)
	if v := os.Getenv("OWNER_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("OWNER_CHAT_ID: %w", err)
		}
		c.Telegram.OwnerChatID = id
	}

	c.Broker.URL = getEnv("RABBITMQ_URL", c.Broker.URL)

	c.Cart.Store = strings.ToLower(getEnv("CART_STORE", c.Cart.Store))
	c.Cart.SQLitePath = getEnv("SQLITE_PATH", c.Cart.SQLitePath)
	if v := os.Getenv("TAX_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TAX_RATE: %w", err)
		}
		c.Cart.TaxRate = rate
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	return nil
}

func (c *Config) validate() error {
	if c.Cart.Store != CartStorePostgres && c.Cart.Store != CartStoreSQLite {
		return fmt.Errorf("unknown cart store %q", c.Cart.Store)
	}
	if c.Cart.TaxRate < 0 || c.Cart.TaxRate > 1 {
		return fmt.Errorf("tax rate must be in [0, 1]: %v", c.Cart.TaxRate)
	}
	return nil
}

// AutoMigrate reports whether AUTO_MIGRATE is set to 1 or true.
func AutoMigrate() bool {
	v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE"))
	return v == "1" || strings.EqualFold(v, "true")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
