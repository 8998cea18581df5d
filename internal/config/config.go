package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"go.yaml.in/yaml/v3"
	kerrors "k8s.io/apimachinery/pkg/util/errors"
)

const (
	// DefaultPath is read when DNS_TAGGER_CONFIG is unset; it may be absent.
	DefaultPath = "configs/dns-tagger.yaml"

	DefaultProvider  = "route53"
	DefaultTagKey    = "dns-alias"
	DefaultTableName = "dns-tagger-associations"
	DefaultRecordTTL = 300
)

// Environment variables read by Load.
const (
	EnvPath      = "DNS_TAGGER_CONFIG"
	EnvTagKey    = "DNS_TAGGER_TAG_KEY"
	EnvTableName = "DNS_TAGGER_TABLE_NAME"
	EnvRecordTTL = "DNS_TAGGER_RECORD_TTL"
	EnvRegion    = "DNS_TAGGER_REGION"
)

// Config holds the tagger's settings: which tag carries the alias, where
// associations are kept, and which DNS provider applies the records.
type Config struct {
	Provider  string            `yaml:"provider"`
	TagKey    string            `yaml:"tag_key"`
	TableName string            `yaml:"table_name"`
	RecordTTL int64             `yaml:"record_ttl"`
	Region    string            `yaml:"region"` // empty means the SDK default chain
	Settings  map[string]string `yaml:"settings"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Provider:  DefaultProvider,
		TagKey:    DefaultTagKey,
		TableName: DefaultTableName,
		RecordTTL: DefaultRecordTTL,
		Settings:  map[string]string{},
	}
}

// Load reads the file named by DNS_TAGGER_CONFIG (or DefaultPath, which may
// be missing), applies environment overrides and validates the result.
func Load() (*Config, error) {
	path := os.Getenv(EnvPath)
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads the configuration file at path on top of the defaults.
// ${VAR} references in string values are expanded.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Provider = os.ExpandEnv(cfg.Provider)
	cfg.TagKey = os.ExpandEnv(cfg.TagKey)
	cfg.TableName = os.ExpandEnv(cfg.TableName)
	cfg.Region = os.ExpandEnv(cfg.Region)
	if cfg.Settings == nil {
		cfg.Settings = map[string]string{}
	}
	for k, v := range cfg.Settings {
		cfg.Settings[k] = os.ExpandEnv(v)
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvTagKey); ok && v != "" {
		c.TagKey = v
	}
	if v, ok := lookup(EnvTableName); ok && v != "" {
		c.TableName = v
	}
	if v, ok := lookup(EnvRegion); ok && v != "" {
		c.Region = v
	}
	if v, ok := lookup(EnvRecordTTL); ok && v != "" {
		ttl, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvRecordTTL, v, err)
		}
		c.RecordTTL = ttl
	}
	return nil
}

// Validate reports every missing or out-of-range field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Provider == "" {
		errs = append(errs, fmt.Errorf("config: missing required field 'provider'"))
	}
	if c.TagKey == "" {
		errs = append(errs, fmt.Errorf("config: missing required field 'tag_key'"))
	}
	if c.TableName == "" {
		errs = append(errs, fmt.Errorf("config: missing required field 'table_name'"))
	}
	if c.RecordTTL <= 0 {
		errs = append(errs, fmt.Errorf("config: 'record_ttl' must be positive, got %d", c.RecordTTL))
	}
	return kerrors.NewAggregate(errs)
}
