package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Kafka struct {
		Brokers         []string `yaml:"brokers"`
		AuditTopic      string   `yaml:"audit_topic"`
		ExecutionsTopic string   `yaml:"executions_topic"`
		LogsTopic       string   `yaml:"logs_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Predictions struct {
			Topic      string        `yaml:"topic"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"predictions"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Generator struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		Token          string        `yaml:"token"`
		Portfolios     []string      `yaml:"portfolios"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"generator"`
	Governance Governance `yaml:"governance"`
}

// Governance is the operator policy block. It is loaded, validated, and
// applied as one snapshot; a block failing validation is never used in part.
type Governance struct {
	Thresholds ThresholdsYAML `yaml:"thresholds"`
	Weights    struct {
		SuccessRate     float64 `yaml:"success_rate"`
		SampleSize      float64 `yaml:"sample_size"`
		Effectiveness   float64 `yaml:"effectiveness"`
		RuleCheck       float64 `yaml:"rule_check"`
		ModelSelfReport float64 `yaml:"model_self_report"`
	} `yaml:"weights"`
	Impact struct {
		Fallback string          `yaml:"fallback"`
		Rows     []ImpactRowYAML `yaml:"rows"`
	} `yaml:"impact"`
	Constraints struct {
		MaxSimultaneous    int     `yaml:"max_simultaneous"`
		AvailableResources string  `yaml:"available_resources"`
		UrgencyBias        float64 `yaml:"urgency_bias"`
	} `yaml:"constraints"`
	Escalation struct {
		Cutoffs struct {
			Medium   float64 `yaml:"medium"`
			High     float64 `yaml:"high"`
			Critical float64 `yaml:"critical"`
		} `yaml:"cutoffs"`
		Alerts struct {
			OnCritical      bool `yaml:"on_critical"`
			OnHigh          bool `yaml:"on_high"`
			OnLevelIncrease bool `yaml:"on_level_increase"`
		} `yaml:"alerts"`
	} `yaml:"escalation"`
	Deferral struct {
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"deferral"`
	DispatchInterval time.Duration `yaml:"dispatch_interval"`
}

// ThresholdsYAML mirrors models.ThresholdConfig for YAML loading.
type ThresholdsYAML struct {
	Version                  string         `yaml:"version"`
	Global                   int            `yaml:"global"`
	PerType                  map[string]int `yaml:"per_type"`
	PerImpact                map[string]int `yaml:"per_impact"`
	BusinessHoursOnly        bool           `yaml:"business_hours_only"`
	MaxActionsPerHour        int            `yaml:"max_actions_per_hour"`
	MaxActionsPerDay         int            `yaml:"max_actions_per_day"`
	AlwaysRequireApproval    []string       `yaml:"always_require_approval"`
	RequiresLegalReview      []string       `yaml:"requires_legal_review"`
	RequiresComplianceReview []string       `yaml:"requires_compliance_review"`
	LowConfidenceFloor       int            `yaml:"low_confidence_floor"`
}

// ImpactRowYAML is one operator-defined impact policy row.
type ImpactRowYAML struct {
	Type     string `yaml:"type"`
	Severity string `yaml:"severity"`
	Exposure string `yaml:"exposure"`
	Level    string `yaml:"level"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("GENERATOR_TOKEN"); v != "" {
		c.Generator.Token = v
	}
	if v := os.Getenv("GENERATOR_WS_URL"); v != "" {
		c.Generator.WebSocketURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_AUDIT_TOPIC"); v != "" {
		c.Kafka.AuditTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Kafka.AuditTopic == "" {
		return fmt.Errorf("kafka.audit_topic is required")
	}
	if c.Generator.WebSocketURL == "" {
		return fmt.Errorf("generator.websocket_url is required")
	}
	if c.Governance.Thresholds.Version == "" {
		return fmt.Errorf("governance.thresholds.version is required")
	}
	if c.Governance.Thresholds.Global < 0 || c.Governance.Thresholds.Global > 100 {
		return fmt.Errorf("governance.thresholds.global must be in [0,100], got %d", c.Governance.Thresholds.Global)
	}
	if b := c.Governance.Constraints.UrgencyBias; b < 0 || b > 1 {
		return fmt.Errorf("governance.constraints.urgency_bias must be in [0,1], got %v", b)
	}
	cut := c.Governance.Escalation.Cutoffs
	if !(cut.Medium <= cut.High && cut.High <= cut.Critical) {
		return fmt.Errorf("governance.escalation.cutoffs must be ordered medium <= high <= critical")
	}
	return nil
}
