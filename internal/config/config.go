package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config хранит все настройки приложения. Создается один раз при старте процесса
// и передается в компоненты явно.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Email        EmailConfig        `mapstructure:"email"`
	Verification VerificationConfig `mapstructure:"verification"`
	Push         PushConfig         `mapstructure:"push"`
}

// ServerConfig содержит настройки HTTP сервера, принимающего push-доставки
type ServerConfig struct {
	Port           string        `mapstructure:"port" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к БД.
// Для sqlite поле Name содержит путь или DSN файла.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=mysql postgres sqlite"`
	Hostname        string        `mapstructure:"hostname" validate:"required_unless=Driver sqlite"`
	Port            int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	Username        string        `mapstructure:"username" validate:"required_unless=Driver sqlite"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// PostgresConnectionString возвращает DSN в формате key=value для драйвера postgres.
func (d DatabaseConfig) PostgresConnectionString() string {
	port := d.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Hostname, port, d.Username, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig содержит настройки Redis, используемого как альтернативный источник сообщений.
// Если Channel пуст, подписка не запускается.
type RedisConfig struct {
	Mode       string   `mapstructure:"mode" validate:"omitempty,oneof=single sentinel cluster"`
	Addrs      []string `mapstructure:"addrs"`
	Addr       string   `mapstructure:"addr"`
	Password   string   `mapstructure:"password"`
	DB         int      `mapstructure:"db"`
	MasterName string   `mapstructure:"master_name"`
	Channel    string   `mapstructure:"channel"`
}

// Enabled сообщает, настроена ли подписка на Redis.
func (r RedisConfig) Enabled() bool {
	return r.Channel != "" && (r.Addr != "" || len(r.Addrs) > 0)
}

// EmailConfig selects the transactional email provider and holds its credentials.
type EmailConfig struct {
	Provider       string        `mapstructure:"provider" validate:"oneof=mailgun resend smtp noop"`
	From           string        `mapstructure:"from"`
	IncludeText    bool          `mapstructure:"include_text"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MailgunDomain  string        `mapstructure:"mailgun_domain" validate:"required_if=Provider mailgun"`
	MailgunAPIKey  string        `mapstructure:"mailgun_api_key" validate:"required_if=Provider mailgun"`
	MailgunAPIBase string        `mapstructure:"mailgun_api_base"`
	ResendAPIKey   string        `mapstructure:"resend_api_key" validate:"required_if=Provider resend"`
	SMTPHost       string        `mapstructure:"smtp_host" validate:"required_if=Provider smtp"`
	SMTPPort       int           `mapstructure:"smtp_port"`
	SMTPUsername   string        `mapstructure:"smtp_username"`
	SMTPPassword   string        `mapstructure:"smtp_password"`
	SMTPTLS        bool          `mapstructure:"smtp_tls"`
}

// VerificationConfig controls code expiry, link format and message wording.
type VerificationConfig struct {
	TTL                   time.Duration `mapstructure:"ttl" validate:"gt=0"`
	LinkScheme            string        `mapstructure:"link_scheme" validate:"oneof=http https"`
	LinkPort              int           `mapstructure:"link_port" validate:"gt=0,lte=65535"`
	CompanyName           string        `mapstructure:"company_name" validate:"required"`
	PropagateDecodeErrors bool          `mapstructure:"propagate_decode_errors"`
}

// PushConfig содержит настройки endpoint'а для push-подписки Pub/Sub
type PushConfig struct {
	Path         string `mapstructure:"path" validate:"startswith=/"`
	AuthSecret   string `mapstructure:"auth_secret"`
	AuthAudience string `mapstructure:"auth_audience"`
}

// FromAddress возвращает адрес отправителя: явный MAIL_FROM или noreply@{company}.com.
func (c *Config) FromAddress() string {
	if c.Email.From != "" {
		return c.Email.From
	}
	return fmt.Sprintf("noreply@%s.com", c.Verification.CompanyName)
}

// envBindings связывает ключи viper с переменными окружения.
var envBindings = map[string]string{
	"server.port":            "SERVER_PORT",
	"server.read_timeout":    "SERVER_READ_TIMEOUT",
	"server.write_timeout":   "SERVER_WRITE_TIMEOUT",
	"server.allowed_origins": "ALLOWED_ORIGINS",

	"database.driver":            "DB_DRIVER",
	"database.hostname":          "DB_HOSTNAME",
	"database.port":              "DB_PORT",
	"database.username":          "DB_USERNAME",
	"database.password":          "DB_PASSWORD",
	"database.name":              "DB_DATABASE_NAME",
	"database.sslmode":           "DB_SSLMODE",
	"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
	"database.query_timeout":     "DB_QUERY_TIMEOUT",

	"redis.mode":        "REDIS_MODE",
	"redis.addrs":       "REDIS_ADDRS",
	"redis.addr":        "REDIS_ADDR",
	"redis.password":    "REDIS_PASSWORD",
	"redis.db":          "REDIS_DB",
	"redis.master_name": "REDIS_MASTER_NAME",
	"redis.channel":     "REDIS_CHANNEL",

	"email.provider":         "EMAIL_PROVIDER",
	"email.from":             "MAIL_FROM",
	"email.include_text":     "EMAIL_INCLUDE_TEXT",
	"email.timeout":          "EMAIL_TIMEOUT",
	"email.mailgun_domain":   "MAILGUN_DOMAIN",
	"email.mailgun_api_key":  "MAILGUN_API_KEY",
	"email.mailgun_api_base": "MAILGUN_API_BASE",
	"email.resend_api_key":   "RESEND_API_KEY",
	"email.smtp_host":        "SMTP_HOST",
	"email.smtp_port":        "SMTP_PORT",
	"email.smtp_username":    "SMTP_USERNAME",
	"email.smtp_password":    "SMTP_PASSWORD",
	"email.smtp_tls":         "SMTP_TLS",

	"verification.ttl":                     "VERIFICATION_TTL",
	"verification.link_scheme":             "VERIFICATION_LINK_SCHEME",
	"verification.link_port":               "VERIFICATION_LINK_PORT",
	"verification.company_name":            "COMPANY_NAME",
	"verification.propagate_decode_errors": "HANDLER_PROPAGATE_DECODE_ERRORS",

	"push.path":          "PUSH_PATH",
	"push.auth_secret":   "PUSH_AUTH_SECRET",
	"push.auth_audience": "PUSH_AUTH_AUDIENCE",
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15*time.Second)
	vip.SetDefault("server.write_timeout", 30*time.Second)

	vip.SetDefault("database.driver", "mysql")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.max_open_conns", 10)
	vip.SetDefault("database.max_idle_conns", 5)
	vip.SetDefault("database.conn_max_lifetime", time.Hour)
	vip.SetDefault("database.query_timeout", 5*time.Second)

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("email.provider", "mailgun")
	vip.SetDefault("email.timeout", 10*time.Second)
	vip.SetDefault("email.smtp_port", 587)
	vip.SetDefault("email.smtp_tls", true)

	// Последняя ревизия обработчика использовала 2 минуты.
	vip.SetDefault("verification.ttl", 2*time.Minute)
	vip.SetDefault("verification.link_scheme", "http")
	vip.SetDefault("verification.link_port", 8000)
	vip.SetDefault("verification.company_name", "sourabhk")

	vip.SetDefault("push.path", "/pubsub/push")
	vip.SetDefault("push.auth_audience", "verification-mailer")
}

// Load загружает конфигурацию из переменных окружения и (необязательно) файла.
func Load(configPath string) (*Config, error) {
	vip := viper.New() // отдельный экземпляр, без глобального состояния

	setDefaults(vip)
	for key, env := range envBindings {
		if err := vip.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				log.Printf("[Config] file '%s' not found, using environment and defaults", configPath)
			} else {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные параметры.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Redis.Mode == "sentinel" && c.Redis.Channel != "" && c.Redis.MasterName == "" {
		return fmt.Errorf("invalid configuration: redis sentinel mode requires REDIS_MASTER_NAME")
	}
	return nil
}

// LogSummary печатает загруженные значения без секретов.
func (c *Config) LogSummary() {
	log.Printf("--- Loaded configuration ---")
	log.Printf("Database: driver=%s host=%s port=%d name=%s", c.Database.Driver, c.Database.Hostname, c.Database.Port, c.Database.Name)
	log.Printf("Email provider: %s (from=%s, include_text=%t)", c.Email.Provider, c.FromAddress(), c.Email.IncludeText)
	log.Printf("Verification TTL: %s", c.Verification.TTL)
	log.Printf("Push path: %s (auth=%t)", c.Push.Path, c.Push.AuthSecret != "")
	log.Printf("Redis channel: %q (enabled=%t)", c.Redis.Channel, c.Redis.Enabled())
	log.Printf("----------------------------")
}
