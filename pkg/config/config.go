package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EffectiveConfigResult is the resolved configuration plus the values and
// provenance callers care about at startup.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "defaults", "config", "env" or "flags"
}

// Load reads a yaml config file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values along with which flags were explicitly set.
func ParseCommandFlags() (addr, dbPath, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.wall", "store path")
	cfgPtr := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()
	setFlags = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dbPtr, *cfgPtr, setFlags
}

// ResolveConfigPath picks the config file path: explicit flag wins, then the
// MESSAGEWALL_CONFIG env var, then the flag default.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet {
		return flagVal
	}
	if p := os.Getenv("MESSAGEWALL_CONFIG"); p != "" {
		return p
	}
	return flagVal
}

// LoadEffective loads the file at path when it exists, applies env
// overrides and reports where the effective values came from.
func LoadEffective(path string) (EffectiveConfigResult, error) {
	cfg := Default()
	source := "defaults"
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, lerr := Load(path)
			if lerr != nil {
				return EffectiveConfigResult{}, lerr
			}
			cfg = loaded
			source = "config"
		}
	}
	if applyEnvOverrides(cfg) {
		source = "env"
	}
	return EffectiveConfigResult{
		Config: cfg,
		Addr:   cfg.Addr(),
		DBPath: cfg.Storage.DBPath,
		Source: source,
	}, nil
}

// applyEnvOverrides mutates cfg from MESSAGEWALL_* variables and reports
// whether any were used.
func applyEnvOverrides(cfg *Config) bool {
	used := false
	parseList := func(v string) []string {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("MESSAGEWALL_ADDR"); v != "" {
		used = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, perr := strconv.Atoi(p); perr == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	} else {
		if host := os.Getenv("MESSAGEWALL_ADDRESS"); host != "" {
			used = true
			cfg.Server.Address = host
		}
		if port := os.Getenv("MESSAGEWALL_PORT"); port != "" {
			if pi, err := strconv.Atoi(port); err == nil {
				used = true
				cfg.Server.Port = pi
			}
		}
	}
	if v := os.Getenv("MESSAGEWALL_TRANSPORT"); v != "" {
		used = true
		cfg.Server.Transport = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("MESSAGEWALL_DB_PATH"); v != "" {
		used = true
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("MESSAGEWALL_PUBLISH_DIR"); v != "" {
		used = true
		cfg.Publish.Dir = v
	}
	if v := os.Getenv("MESSAGEWALL_NOTIFY_BACKEND"); v != "" {
		used = true
		cfg.Notify.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("MESSAGEWALL_KAFKA_BROKERS"); v != "" {
		used = true
		cfg.Notify.Kafka.Brokers = parseList(v)
	}
	if v := os.Getenv("MESSAGEWALL_BUS_NAME"); v != "" {
		used = true
		cfg.Notify.Kafka.Topic = v
	}
	if v := os.Getenv("MESSAGEWALL_REBUILD_CRON"); v != "" {
		used = true
		cfg.Rebuild.Cron = v
	}
	if v := os.Getenv("MESSAGEWALL_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			used = true
			cfg.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("MESSAGEWALL_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			used = true
			cfg.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("MESSAGEWALL_LOG_LEVEL"); v != "" {
		used = true
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	return used
}
