package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Detection DetectionConfig `mapstructure:"detection"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Policy    BotPolicyConfig `mapstructure:"policy"`
}

type ServerConfig struct {
	AdminPort   int    `mapstructure:"admin_port"`
	ProxyPort   int    `mapstructure:"proxy_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	Host        string `mapstructure:"host"`
	SecretKey   string `mapstructure:"secret_key"`
	BodyLimit   int    `mapstructure:"body_limit"`
}

type MetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	EnableLatency bool `mapstructure:"enable_latency"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type UpstreamConfig struct {
	URL      string        `mapstructure:"url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxConns int           `mapstructure:"max_conns"`
}

type DetectionConfig struct {
	TimingWindowTTL  time.Duration `mapstructure:"timing_window_ttl"`
	MaxWindows       int           `mapstructure:"max_windows"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	TrustedIPHeaders []string      `mapstructure:"trusted_ip_headers"`
}

type AuditConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	QueueSize    int           `mapstructure:"queue_size"`
	Workers      int           `mapstructure:"workers"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	Log      SinkConfig      `mapstructure:"log"`
	Redis    RedisSinkConfig `mapstructure:"redis"`
	Postgres SinkConfig      `mapstructure:"postgres"`
	Kafka    KafkaSinkConfig `mapstructure:"kafka"`
	Breaker  BreakerConfig   `mapstructure:"breaker"`
}

type SinkConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type RedisSinkConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RecentLimit int64         `mapstructure:"recent_limit"`
	CounterTTL  time.Duration `mapstructure:"counter_ttl"`
}

type KafkaSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	Topic   string `mapstructure:"topic"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

var (
	globalConfig Config
	loaded       *viper.Viper
)

func Load(configPath string) error {
	v := viper.New()
	setDefaultValues(v)
	if err := loadConfigFile(v, configPath, "config", &globalConfig); err != nil {
		return fmt.Errorf("could not load main config file: %w", err)
	}
	if err := globalConfig.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy configuration: %w", err)
	}
	loaded = v
	return nil
}

func loadConfigFile(v *viper.Viper, configPath, fileName string, out interface{}) error {
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("server.admin_port", 8080)
	v.SetDefault("server.proxy_port", 8081)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.body_limit", 8*1024*1024)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.enable_latency", true)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("upstream.max_conns", 512)

	v.SetDefault("detection.timing_window_ttl", 60*time.Second)
	v.SetDefault("detection.max_windows", 100000)
	v.SetDefault("detection.sweep_interval", 10*time.Second)
	v.SetDefault("detection.trusted_ip_headers", []string{"CF-Connecting-IP"})

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.queue_size", 10000)
	v.SetDefault("audit.workers", 4)
	v.SetDefault("audit.write_timeout", 2*time.Second)
	v.SetDefault("audit.log.enabled", true)
	v.SetDefault("audit.redis.recent_limit", 500)
	v.SetDefault("audit.redis.counter_ttl", 30*24*time.Hour)
	v.SetDefault("audit.kafka.topic", "botgate.decisions")
	v.SetDefault("audit.breaker.max_requests", 1)
	v.SetDefault("audit.breaker.interval", 60*time.Second)
	v.SetDefault("audit.breaker.timeout", 30*time.Second)
	v.SetDefault("audit.breaker.failure_threshold", 5)

	setPolicyDefaults(v, "policy")
}

func GetConfig() *Config {
	return &globalConfig
}
