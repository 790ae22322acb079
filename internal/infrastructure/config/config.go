package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/cloudbilling/internal/shared/config"
)

const envPrefix = "CLOUDBILLING"

type Config struct {
	Server       sharedConfig.ServerConfig       `mapstructure:"server"`
	Database     sharedConfig.DatabaseConfig     `mapstructure:"database"`
	Logger       sharedConfig.LoggerConfig       `mapstructure:"logger"`
	Redis        sharedConfig.RedisConfig        `mapstructure:"redis"`
	Scheduler    sharedConfig.SchedulerConfig    `mapstructure:"scheduler"`
	Billing      sharedConfig.BillingConfig      `mapstructure:"billing"`
	Provisioning sharedConfig.ProvisioningConfig `mapstructure:"provisioning"`
	Stripe       sharedConfig.StripeConfig       `mapstructure:"stripe"`
	DNS          sharedConfig.DNSConfig          `mapstructure:"dns"`
	Email        sharedConfig.EmailConfig        `mapstructure:"email"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (or configPath when set), then applies
// CLOUDBILLING_* environment overrides. A missing config file is not an
// error: defaults and environment are enough to run.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.timezone", "UTC")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "cloudbilling")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.add_source", true)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("scheduler.batch_size", 50)
	v.SetDefault("scheduler.lock_ttl", 10*time.Minute)
	setJobDefaults(v, "billing_due", time.Minute, 5*time.Minute)
	setJobDefaults(v, "expiration", time.Minute, 5*time.Minute)
	setJobDefaults(v, "backorder_retry", 5*time.Minute, 10*time.Minute)
	setJobDefaults(v, "invoice_sync", 15*time.Minute, 10*time.Minute)
	setJobDefaults(v, "open_positions", time.Hour, 30*time.Minute)
	setJobDefaults(v, "renewal_reminders", time.Hour, 10*time.Minute)

	v.SetDefault("billing.currency", "EUR")
	v.SetDefault("billing.reminder_window", 72*time.Hour)
	v.SetDefault("billing.reminder_dedup_ttl", 45*24*time.Hour)
	v.SetDefault("billing.default_provider", "digitalocean")
	v.SetDefault("billing.invoice_days_until_due", 14)

	v.SetDefault("provisioning.digitalocean.enabled", true)
	v.SetDefault("provisioning.digitalocean.token", "")
	v.SetDefault("provisioning.digitalocean.default_region", "fra1")
	v.SetDefault("provisioning.digitalocean.default_server_type", "s-1vcpu-1gb")
	v.SetDefault("provisioning.digitalocean.image", "ubuntu-24-04-x64")

	v.SetDefault("stripe.secret_key", "")

	v.SetDefault("dns.provider", "")
	v.SetDefault("dns.zone", "")
	v.SetDefault("dns.ttl", 300)
	v.SetDefault("dns.aws_region", "us-east-1")

	v.SetDefault("email.smtp_host", "localhost")
	v.SetDefault("email.smtp_port", 1025)
	v.SetDefault("email.smtp_user", "")
	v.SetDefault("email.smtp_password", "")
	v.SetDefault("email.from_address", "billing@cloudbilling.local")
	v.SetDefault("email.from_name", "Cloud Billing")
}

func setJobDefaults(v *viper.Viper, job string, interval, timeout time.Duration) {
	v.SetDefault("scheduler."+job+".enabled", true)
	v.SetDefault("scheduler."+job+".interval", interval)
	v.SetDefault("scheduler."+job+".timeout", timeout)
}
