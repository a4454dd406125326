package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
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
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// EmailConfig selects the outbound provider ("resend" or "smtp") and holds the
// settings shared by both.
type EmailConfig struct {
	Provider      string `mapstructure:"provider"`
	FromAddress   string `mapstructure:"from_address"`
	FromName      string `mapstructure:"from_name"`
	ReplyDomain   string `mapstructure:"reply_domain"`
	WebhookSecret string `mapstructure:"webhook_secret"`

	ResendAPIKey  string `mapstructure:"resend_api_key"`
	ResendBaseURL string `mapstructure:"resend_base_url"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
}

type FirecrawlConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type VapiConfig struct {
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	AssistantID   string `mapstructure:"assistant_id"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
}

type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type SemanticConfig struct {
	EmbeddingAPIKey  string  `mapstructure:"embedding_api_key"`
	EmbeddingBaseURL string  `mapstructure:"embedding_base_url"`
	EmbeddingModel   string  `mapstructure:"embedding_model"`
	VectorBaseURL    string  `mapstructure:"vector_base_url"`
	VectorAPIKey     string  `mapstructure:"vector_api_key"`
	Collection       string  `mapstructure:"collection"`
	MinScore         float64 `mapstructure:"min_score"`
	Limit            int     `mapstructure:"limit"`
}

// PipelineConfig holds the tunables of the sourcing pipeline.
type PipelineConfig struct {
	MaxOutreachVendors           int           `mapstructure:"max_outreach_vendors"`
	AutoOutreach                 bool          `mapstructure:"auto_outreach"`
	OutreachExpiryHours          int           `mapstructure:"outreach_expiry_hours"`
	DiscoverySoftDeadlineSeconds int           `mapstructure:"discovery_soft_deadline_seconds"`
	SearchLimit                  int           `mapstructure:"search_limit"`
	ExtractPollInterval          time.Duration `mapstructure:"extract_poll_interval"`
	ExtractTimeout               time.Duration `mapstructure:"extract_timeout"`
	CallPollInterval             time.Duration `mapstructure:"call_poll_interval"`
	CallTimeout                  time.Duration `mapstructure:"call_timeout"`
	CallsPerHour                 int           `mapstructure:"calls_per_hour"`
	CallsPerDay                  int           `mapstructure:"calls_per_day"`
	RunLockTTL                   time.Duration `mapstructure:"run_lock_ttl"`
	QuoteValidityDays            int           `mapstructure:"quote_validity_days"`
}

func (p *PipelineConfig) OutreachExpiry() time.Duration {
	return time.Duration(p.OutreachExpiryHours) * time.Hour
}

func (p *PipelineConfig) QuoteValidity() time.Duration {
	return time.Duration(p.QuoteValidityDays) * 24 * time.Hour
}

func (p *PipelineConfig) DiscoverySoftDeadline() time.Duration {
	return time.Duration(p.DiscoverySoftDeadlineSeconds) * time.Second
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}
