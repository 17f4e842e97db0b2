package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const dotEnvFilename = ".env"

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"9000" validate:"required,numeric"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres" validate:"oneof=postgres sqlite"`
	PostgresDSN string `env:"POSTGRES_DSN" envDefault:"host=localhost user=feedhub password=feedhub dbname=feedhub port=5432 sslmode=disable TimeZone=UTC" validate:"required_if=DBDriver postgres"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"feedhub.db" validate:"required_if=DBDriver sqlite"`
	// 为空时不启用 Redis 缓存
	RedisAddr string `env:"REDIS_ADDR"`

	// 站点访问密码，两者都配置时才启用 Basic Auth
	BasicAuthUser string `env:"APP_BASIC_USER" validate:"required_with=BasicAuthPass"`
	BasicAuthPass string `env:"APP_BASIC_PASS" validate:"required_with=BasicAuthUser"`

	// 条目没有分类时使用的默认分类
	DefaultCategory     string `env:"DEFAULT_CATEGORY" envDefault:"DEFAULT" validate:"required"`
	DefaultCategorySlug string `env:"DEFAULT_CATEGORY_SLUG" envDefault:"default" validate:"required"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Debug    bool   `env:"DEBUG" envDefault:"false"`
}

// Load 读取 .env（如存在）和环境变量，校验失败时直接 panic
func Load() *Config {
	if err := godotenv.Load(dotEnvFilename); err != nil {
		if !os.IsNotExist(err) {
			panic(err)
		}
	}

	cfg, err := Parse()
	if err != nil {
		panic(err)
	}

	log.Printf("config loaded: port=%s db=%s redis=%t", cfg.AppPort, cfg.DBDriver, cfg.RedisAddr != "")
	return cfg
}

// Parse 只解析并校验环境变量，不读取 .env，便于测试
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DSN 返回当前数据库驱动对应的连接串
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.PostgresDSN
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
