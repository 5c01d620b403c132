// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек бота
type Config struct {
	Env                     string  `yaml:"env" env:"ENV" env-default:"local"`
	BotToken                string  `yaml:"bot_token" env:"BOT_TOKEN" validate:"required"`
	AdminIDs                []int64 `yaml:"admin_ids" env:"ADMIN_IDS" env-separator:","`
	StorageConnectionString string  `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" validate:"required"`
	MigrationsPath          string  `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	PaymentAddress          string  `yaml:"payment_address" env:"PAYMENT_ADDRESS" env-default:"@admin"`
	RedisConnection         `yaml:"redis_connection"`
	OpsServer               `yaml:"ops_server"`
	Panel                   `yaml:"panel"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"5s"`
}

// OpsServer структура для настройки служебного HTTP-сервера (healthz, metrics)
type OpsServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"OPS_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Panel структура с настройками подключения к панели XUI.
// Все поля опциональны: при неполных настройках бот работает без панели
// и выдаёт подменный конфиг.
type Panel struct {
	BaseURL   string `yaml:"base_url" env:"PANEL_URL"`
	Username  string `yaml:"username" env:"PANEL_USERNAME"`
	Password  string `yaml:"password" env:"PANEL_PASSWORD"`
	InboundID int    `yaml:"inbound_id" env:"PANEL_INBOUND_ID" env-default:"1"`
}

// Complete сообщает, заполнены ли все обязательные настройки панели.
func (p Panel) Complete() bool {
	return p.BaseURL != "" && p.Username != "" && p.Password != ""
}

// IsAdmin проверяет, входит ли идентификатор в список администраторов.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	panelState := "disabled"
	if c.Panel.Complete() {
		panelState = c.Panel.BaseURL
	}
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"AdminIDs: %v\n"+
			"Panel: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"OpsServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n",
		c.Env,
		c.StorageConnectionString,
		c.AdminIDs,
		panelState,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
	)
}
