package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	sharedConfig "vendorflow/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Email     sharedConfig.EmailConfig     `mapstructure:"email"`
	Firecrawl sharedConfig.FirecrawlConfig `mapstructure:"firecrawl"`
	Vapi      sharedConfig.VapiConfig      `mapstructure:"vapi"`
	LLM       sharedConfig.LLMConfig       `mapstructure:"llm"`
	Semantic  sharedConfig.SemanticConfig  `mapstructure:"semantic"`
	Pipeline  sharedConfig.PipelineConfig  `mapstructure:"pipeline"`
	Telemetry sharedConfig.TelemetryConfig `mapstructure:"telemetry"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// A missing config file is tolerated so the service can run from env vars alone.
func Load(env string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	v.SetEnvPrefix("VENDORFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "vendorflow_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("email.provider", "resend")
	v.SetDefault("email.from_address", "quotes@vendorflow.local")
	v.SetDefault("email.from_name", "Vendorflow Maintenance")
	v.SetDefault("email.reply_domain", "vendorflow.local")
	v.SetDefault("email.resend_base_url", "https://api.resend.com")
	v.SetDefault("email.smtp_host", "localhost")
	v.SetDefault("email.smtp_port", 1025)

	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev")
	v.SetDefault("vapi.base_url", "https://api.vapi.ai")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")

	v.SetDefault("semantic.embedding_base_url", "https://api.openai.com/v1")
	v.SetDefault("semantic.embedding_model", "text-embedding-3-small")
	v.SetDefault("semantic.vector_base_url", "http://localhost:6333")
	v.SetDefault("semantic.collection", "vendors")
	v.SetDefault("semantic.min_score", 0.75)
	v.SetDefault("semantic.limit", 5)

	v.SetDefault("pipeline.max_outreach_vendors", 3)
	v.SetDefault("pipeline.auto_outreach", false)
	v.SetDefault("pipeline.outreach_expiry_hours", 72)
	v.SetDefault("pipeline.discovery_soft_deadline_seconds", 590)
	v.SetDefault("pipeline.search_limit", 8)
	v.SetDefault("pipeline.extract_poll_interval", 2*time.Second)
	v.SetDefault("pipeline.extract_timeout", 10*time.Minute)
	v.SetDefault("pipeline.call_poll_interval", 20*time.Second)
	v.SetDefault("pipeline.call_timeout", 10*time.Minute)
	v.SetDefault("pipeline.calls_per_hour", 20)
	v.SetDefault("pipeline.calls_per_day", 100)
	v.SetDefault("pipeline.run_lock_ttl", 2*time.Minute)
	v.SetDefault("pipeline.quote_validity_days", 30)

	v.SetDefault("telemetry.service_name", "vendorflow")
}
