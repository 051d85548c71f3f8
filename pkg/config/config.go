package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Dataset      DatasetConfig
	SQLite       SQLiteConfig
	Redis        RedisConfig
	Diagnostic   DiagnosticConfig
	Contributors ContributorsConfig
	RateLimit    RateLimitConfig
	Logging      LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type DatasetConfig struct {
	BaseURL        string
	ManifestPath   string
	LogsPath       string
	FetchTimeout   int
	EnrichKeywords bool
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type DiagnosticConfig struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	RelayURL    string
	TimeoutSec  int
	CacheTTLSec int
	ScanDelayMS int
}

type ContributorsConfig struct {
	Owner      string
	Repo       string
	APIBaseURL string
	TimeoutSec int
	CacheTTLSec int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/histpatch")

	viper.SetEnvPrefix("HISTPATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("dataset.baseURL", "https://patchnotes-of-history.example.com")
	viper.SetDefault("dataset.manifestPath", "logs/manifest.json")
	viper.SetDefault("dataset.logsPath", "logs")
	viper.SetDefault("dataset.fetchTimeout", 15)
	viper.SetDefault("dataset.enrichKeywords", true)

	viper.SetDefault("sqlite.path", "./data/histpatch.db")

	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("diagnostic.provider", "openai")
	viper.SetDefault("diagnostic.model", "gpt-4o-mini")
	viper.SetDefault("diagnostic.temperature", 0.8)
	viper.SetDefault("diagnostic.maxTokens", 512)
	viper.SetDefault("diagnostic.timeoutSec", 45)
	viper.SetDefault("diagnostic.cacheTTLSec", 3600)
	viper.SetDefault("diagnostic.scanDelayMS", 900)

	viper.SetDefault("contributors.owner", "histpatch")
	viper.SetDefault("contributors.repo", "histpatch")
	viper.SetDefault("contributors.apiBaseURL", "https://api.github.com")
	viper.SetDefault("contributors.timeoutSec", 10)
	viper.SetDefault("contributors.cacheTTLSec", 1800)

	viper.SetDefault("ratelimit.requestsPerMinute", 120)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
