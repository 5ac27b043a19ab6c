// Package config loads and holds the application configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Conf is the global configuration, populated by Init.
var Conf Config

// Config mirrors the structure of config.yaml.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Extractor     ExtractorConfig     `mapstructure:"extractor"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig groups all datastore connection settings.
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig holds the MySQL connection settings.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig holds the processing-queue settings.
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// ElasticsearchConfig holds the search backend settings.
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig holds the object storage settings.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// ExtractorConfig selects and configures the text-extraction backend.
// Mode is "native" (in-process decoders) or "tika" (remote Tika server).
type ExtractorConfig struct {
	Mode           string `mapstructure:"mode"`
	TikaServerURL  string `mapstructure:"tika_server_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Init reads the YAML file at configPath into Conf. Missing or malformed
// configuration is fatal: the process must not start half-wired.
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("failed to read config file: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("failed to unmarshal config: %w", err))
	}

	if err := Conf.Validate(); err != nil {
		panic(err)
	}
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	missing := func(key string) error {
		return fmt.Errorf("missing required config value: %s", key)
	}

	if c.Database.MySQL.DSN == "" {
		return missing("database.mysql.dsn")
	}
	if c.Database.Redis.Addr == "" {
		return missing("database.redis.addr")
	}
	if c.MinIO.Endpoint == "" {
		return missing("minio.endpoint")
	}
	if c.MinIO.BucketName == "" {
		return missing("minio.bucket_name")
	}
	if c.Elasticsearch.Addresses == "" {
		return missing("elasticsearch.addresses")
	}
	if c.Elasticsearch.IndexName == "" {
		return missing("elasticsearch.index_name")
	}
	if c.Kafka.Brokers == "" {
		return missing("kafka.brokers")
	}
	if c.Kafka.Topic == "" {
		return missing("kafka.topic")
	}
	if c.Extractor.Mode == "tika" && c.Extractor.TikaServerURL == "" {
		return missing("extractor.tika_server_url")
	}
	return nil
}
