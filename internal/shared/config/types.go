package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Mode     string `mapstructure:"mode"`
	Timezone string `mapstructure:"timezone"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	AddSource  bool   `mapstructure:"add_source"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JobConfig controls a single periodic driver.
type JobConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SchedulerConfig struct {
	BatchSize        int           `mapstructure:"batch_size"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
	BillingDue       JobConfig     `mapstructure:"billing_due"`
	Expiration       JobConfig     `mapstructure:"expiration"`
	BackorderRetry   JobConfig     `mapstructure:"backorder_retry"`
	InvoiceSync      JobConfig     `mapstructure:"invoice_sync"`
	OpenPositions    JobConfig     `mapstructure:"open_positions"`
	RenewalReminders JobConfig     `mapstructure:"renewal_reminders"`
}

type BillingConfig struct {
	Currency            string        `mapstructure:"currency"`
	ReminderWindow      time.Duration `mapstructure:"reminder_window"`
	ReminderDedupTTL    time.Duration `mapstructure:"reminder_dedup_ttl"`
	DefaultProvider     string        `mapstructure:"default_provider"`
	InvoiceDaysUntilDue int64         `mapstructure:"invoice_days_until_due"`
}

type DigitalOceanConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	Token             string   `mapstructure:"token"`
	DefaultRegion     string   `mapstructure:"default_region"`
	DefaultServerType string   `mapstructure:"default_server_type"`
	Image             string   `mapstructure:"image"`
	SSHKeyFingerprint []string `mapstructure:"ssh_key_fingerprints"`
}

type ProvisioningConfig struct {
	DigitalOcean DigitalOceanConfig `mapstructure:"digitalocean"`
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

// DNSConfig selects the DNS backend: "digitalocean", "route53" or "" (disabled).
type DNSConfig struct {
	Provider     string `mapstructure:"provider"`
	Zone         string `mapstructure:"zone"`
	TTL          int    `mapstructure:"ttl"`
	HostedZoneID string `mapstructure:"hosted_zone_id"`
	AWSRegion    string `mapstructure:"aws_region"`
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}
