// Package config loads the notification pipeline configuration: template
// tables per channel, delivery endpoints, and infrastructure settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/render"
	"stream-notify/internal/usecase/notify"
	pkgconfig "stream-notify/pkg/config"
)

// Duration decodes YAML duration strings like "30s" or "24h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration for the notification service.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Queue     QueueConfig     `yaml:"queue"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Templates TemplatesConfig `yaml:"templates"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AppConfig holds process-wide rendering settings.
type AppConfig struct {
	// SubjectPrefix is prepended literally to every mail subject.
	SubjectPrefix string `yaml:"subject_prefix"`

	// BaseURL qualifies fragment-only link targets in notification content.
	BaseURL string `yaml:"base_url"`

	// ReplyDomain is the mail ingest domain tokenized comment reply
	// addresses are built on. Empty disables the COMMENT reply policy.
	ReplyDomain string `yaml:"reply_domain"`

	// Globals are template values available to every render, under the
	// per-event properties.
	Globals map[string]any `yaml:"globals"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the unread-count cache settings.
type RedisConfig struct {
	Addr      string   `yaml:"addr"`
	Password  string   `yaml:"password"`
	DB        int      `yaml:"db"`
	UnreadTTL Duration `yaml:"unread_ttl"`
}

// SMTPConfig holds mail relay settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// WebhookConfig holds the outbound webhook client settings and the endpoint
// list.
type WebhookConfig struct {
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	Timeout           Duration `yaml:"timeout"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`

	// Endpoints are the webhook destinations. URLs may contain template
	// markers and are therefore stored URL-encoded.
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// EndpointConfig is one webhook destination.
type EndpointConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// QueueConfig bounds the in-process work item queue.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// DispatchConfig tunes the dispatcher.
type DispatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// MetricsConfig holds the Prometheus exposition settings.
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// TemplatesConfig carries the per-channel template tables. Mail bodies are
// named resources loaded from Dir; subjects, in-app messages and webhook
// payloads are short inline templates.
type TemplatesConfig struct {
	// Dir is the directory named template resources are loaded from. Each
	// file registers under its name without the extension.
	Dir string `yaml:"dir"`

	Mail    map[string]MailTemplateConfig `yaml:"mail"`
	InApp   map[string]string             `yaml:"inapp"`
	Webhook map[string]string             `yaml:"webhook"`

	// InAppAggregate lists the kinds whose repeat events fold into the
	// recipient's existing unread alert, with the message template used
	// for the folded row.
	InAppAggregate map[string]string `yaml:"inapp_aggregate"`
}

// MailTemplateConfig is the per-kind mail template bundle.
type MailTemplateConfig struct {
	Subject     string `yaml:"subject"`
	TextBody    string `yaml:"text_body"`
	HTMLBody    string `yaml:"html_body"`
	ReplyPolicy string `yaml:"reply_policy"`
}

// Load reads and validates the configuration file. Credentials can be
// overridden by environment variables so they stay out of the file:
// DATABASE_URL, REDIS_PASSWORD, SMTP_PASSWORD, WEBHOOK_PASSWORD.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path comes from the CLI flag, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Queue.Capacity <= 0 {
		c.Queue.Capacity = 1024
	}
	if c.Dispatch.MaxConcurrent <= 0 {
		c.Dispatch.MaxConcurrent = 10
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = 9090
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Redis.UnreadTTL == 0 {
		c.Redis.UnreadTTL = Duration(24 * time.Hour)
	}
}

func (c *Config) applyEnvOverrides() {
	c.Database.URL = pkgconfig.GetEnvString("DATABASE_URL", c.Database.URL)
	c.Redis.Password = pkgconfig.GetEnvString("REDIS_PASSWORD", c.Redis.Password)
	c.SMTP.Password = pkgconfig.GetEnvString("SMTP_PASSWORD", c.SMTP.Password)
	c.Webhook.Password = pkgconfig.GetEnvString("WEBHOOK_PASSWORD", c.Webhook.Password)
}

// Validate checks the loaded configuration. Template tables keyed by unknown
// kinds are rejected so typos surface at startup, not as silently
// undelivered notifications.
func (c *Config) Validate() error {
	var errs []string

	for kind := range c.Templates.Mail {
		if !knownKind(kind) {
			errs = append(errs, fmt.Sprintf("mail template for unknown kind %q", kind))
		}
	}
	for kind := range c.Templates.InApp {
		if !knownKind(kind) {
			errs = append(errs, fmt.Sprintf("inapp template for unknown kind %q", kind))
		}
	}
	for kind := range c.Templates.Webhook {
		if !knownKind(kind) {
			errs = append(errs, fmt.Sprintf("webhook template for unknown kind %q", kind))
		}
	}
	for kind := range c.Templates.InAppAggregate {
		if !knownKind(kind) {
			errs = append(errs, fmt.Sprintf("inapp aggregate template for unknown kind %q", kind))
		}
	}

	for kind, tmpl := range c.Templates.Mail {
		if tmpl.Subject == "" {
			errs = append(errs, fmt.Sprintf("mail template %s: subject is required", kind))
		}
		if tmpl.TextBody == "" {
			errs = append(errs, fmt.Sprintf("mail template %s: text_body is required", kind))
		}
		switch notify.ReplyPolicy(tmpl.ReplyPolicy) {
		case "", notify.ReplyPolicyNone, notify.ReplyPolicyActor, notify.ReplyPolicyCommentToken:
		default:
			errs = append(errs, fmt.Sprintf("mail template %s: unknown reply policy %q", kind, tmpl.ReplyPolicy))
		}
	}

	for _, endpoint := range c.Webhook.Endpoints {
		if endpoint.Name == "" || endpoint.URL == "" {
			errs = append(errs, "webhook endpoint: name and url are required")
		}
	}

	if err := pkgconfig.ValidatePositiveDuration(c.Redis.UnreadTTL.Std()); err != nil {
		errs = append(errs, fmt.Sprintf("redis unread_ttl: %v", err))
	}
	if err := pkgconfig.ValidateNonNegativeDuration(c.Webhook.Timeout.Std()); err != nil {
		errs = append(errs, fmt.Sprintf("webhook timeout: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func knownKind(kind string) bool {
	for _, known := range entity.KnownKinds() {
		if string(known) == kind {
			return true
		}
	}
	return false
}

// MailTemplates converts the mail table to the notifier's form.
func (c *Config) MailTemplates() map[entity.Kind]notify.MailTemplate {
	templates := make(map[entity.Kind]notify.MailTemplate, len(c.Templates.Mail))
	for kind, tmpl := range c.Templates.Mail {
		policy := notify.ReplyPolicy(tmpl.ReplyPolicy)
		if policy == "" {
			policy = notify.ReplyPolicyNone
		}
		templates[entity.Kind(kind)] = notify.MailTemplate{
			Subject:     tmpl.Subject,
			TextBody:    tmpl.TextBody,
			HTMLBody:    tmpl.HTMLBody,
			ReplyPolicy: policy,
		}
	}
	return templates
}

// InAppTemplates converts the in-app table to the notifier's form.
func (c *Config) InAppTemplates() map[entity.Kind]string {
	templates := make(map[entity.Kind]string, len(c.Templates.InApp))
	for kind, tmpl := range c.Templates.InApp {
		templates[entity.Kind(kind)] = tmpl
	}
	return templates
}

// InAppAggregateTemplates converts the in-app aggregate table to the
// notifier's form.
func (c *Config) InAppAggregateTemplates() map[entity.Kind]string {
	templates := make(map[entity.Kind]string, len(c.Templates.InAppAggregate))
	for kind, tmpl := range c.Templates.InAppAggregate {
		templates[entity.Kind(kind)] = tmpl
	}
	return templates
}

// WebhookTemplates converts the webhook payload table to the notifier's form.
func (c *Config) WebhookTemplates() map[entity.Kind]string {
	templates := make(map[entity.Kind]string, len(c.Templates.Webhook))
	for kind, tmpl := range c.Templates.Webhook {
		templates[entity.Kind(kind)] = tmpl
	}
	return templates
}

// WebhookEndpoints converts the endpoint list to the notifier's form.
func (c *Config) WebhookEndpoints() []notify.Endpoint {
	endpoints := make([]notify.Endpoint, 0, len(c.Webhook.Endpoints))
	for _, e := range c.Webhook.Endpoints {
		endpoints = append(endpoints, notify.Endpoint{Name: e.Name, EncodedURL: e.URL})
	}
	return endpoints
}

// RegisterTemplates loads every file in the templates directory into the
// engine as a named resource. The resource name is the file name without its
// extension, so templates/comment-text.tmpl registers as "comment-text".
func (c *Config) RegisterTemplates(engine *render.Engine) error {
	if c.Templates.Dir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.Templates.Dir)
	if err != nil {
		return fmt.Errorf("read templates dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		// #nosec G304 -- the directory comes from the config file
		body, err := os.ReadFile(filepath.Join(c.Templates.Dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read template %s: %w", entry.Name(), err)
		}
		if err := engine.Register(name, string(body)); err != nil {
			return fmt.Errorf("register template %s: %w", name, err)
		}
	}
	return nil
}
