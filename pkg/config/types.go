package config

import "fmt"

// Config is the full service configuration. Values resolve in three layers:
// defaults, then the yaml file, then MESSAGEWALL_* environment variables;
// command-line flags win over everything (merged by the caller).
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Publish   PublishConfig   `yaml:"publish"`
	Notify    NotifyConfig    `yaml:"notify"`
	Rebuild   RebuildConfig   `yaml:"rebuild"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP front door settings.
type ServerConfig struct {
	Address   string `yaml:"address"`
	Port      int    `yaml:"port" validate:"gte=0,lte=65535"`
	Transport string `yaml:"transport" validate:"omitempty,oneof=nethttp fasthttp"`
}

// StorageConfig holds the store location.
type StorageConfig struct {
	DBPath string `yaml:"db_path" validate:"required"`
}

// PublishConfig holds the snapshot publisher settings. StateKey is the fixed
// object name clients poll.
type PublishConfig struct {
	Dir      string `yaml:"dir" validate:"required"`
	StateKey string `yaml:"state_key" validate:"required"`
}

// NotifyConfig selects the posted-event backend.
type NotifyConfig struct {
	Backend string      `yaml:"backend" validate:"oneof=inproc kafka noop"`
	Buffer  int         `yaml:"buffer" validate:"gte=0"`
	Kafka   KafkaConfig `yaml:"kafka" validate:"required_if=Backend kafka"`
}

// KafkaConfig holds the Kafka notifier settings. Topic doubles as the bus
// name and defaults to "default".
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Group   string   `yaml:"group"`
}

// RebuildConfig controls the cron snapshot rebuilder.
type RebuildConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// RateLimitConfig throttles posting clients.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" validate:"gte=0"`
	Burst int     `yaml:"burst" validate:"gte=0"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Addr renders the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Default returns a Config pre-filled with the stated defaults. Unmarshaling
// a yaml file on top only changes keys the file actually sets.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.Transport = "nethttp"
	cfg.Storage.DBPath = "./.wall"
	cfg.Publish.Dir = "./.wall/public"
	cfg.Publish.StateKey = "state.json"
	cfg.Notify.Backend = "inproc"
	cfg.Notify.Buffer = 64
	cfg.Notify.Kafka.Topic = "default"
	cfg.Notify.Kafka.Group = "messagewall-snapshot"
	cfg.Rebuild.Enabled = true
	cfg.Rebuild.Cron = "* * * * *"
	cfg.RateLimit.RPS = 5
	cfg.RateLimit.Burst = 10
	return cfg
}
