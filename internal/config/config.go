package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/studio1767/filerelay/internal/remote"
)

// ConfigError lists every problem found in a configuration.
type ConfigError struct {
	File     string
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.File, strings.Join(e.Problems, "; "))
}

// Endpoint is a remote store plus the id of the credential used to log in.
type Endpoint struct {
	remote.Endpoint `yaml:",inline"`
	Credential      string `yaml:"credential"`
}

type Config struct {
	Program string

	Source      Endpoint
	Destination Endpoint

	Staging struct {
		Directory string
		Cleanup   bool
	}

	Select struct {
		Prefix string
		Suffix string
	}

	Encryption struct {
		Enabled   bool
		Recipient string
		Armor     bool
	}

	Notify struct {
		DistributionList []string `yaml:"distribution_list"`
		From             string
		AttachReport     bool `yaml:"attach_report"`
		SMTP             struct {
			Host       string
			Port       int
			Credential string
			TLS        string
		} `yaml:"smtp"`
	}

	Watermark struct {
		Path   string
		Policy string
	}

	Lock struct {
		Path string
	}

	Secrets struct {
		File      string
		EnvPrefix string `yaml:"env_prefix"`
	}

	Logging struct {
		Directory string
		Level     string
	}
}

const (
	PolicyNow      = "now"
	PolicyMaxMtime = "max_mtime"
)

// Load reads the yaml file at fpath. ${VAR} references are expanded from the
// environment first.
func Load(fpath string) (*Config, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, &ConfigError{File: fpath, Problems: []string{err.Error()}}
	}
	return Parse(fpath, data)
}

func Parse(name string, data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, &ConfigError{File: name, Problems: []string{err.Error()}}
	}

	cfg.applyDefaults()

	if problems := cfg.validate(); len(problems) > 0 {
		return nil, &ConfigError{File: name, Problems: problems}
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Program == "" {
		cfg.Program = "filerelay"
	}
	if cfg.Staging.Directory == "" {
		cfg.Staging.Directory = "staging"
	}
	if cfg.Watermark.Path == "" {
		cfg.Watermark.Path = "last_run.txt"
	}
	if cfg.Watermark.Policy == "" {
		cfg.Watermark.Policy = PolicyNow
	}
	if cfg.Lock.Path == "" {
		cfg.Lock.Path = cfg.Watermark.Path + ".lock"
	}
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = "FILERELAY_"
	}
	if cfg.Logging.Directory == "" {
		cfg.Logging.Directory = "log"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Notify.SMTP.Port == 0 {
		cfg.Notify.SMTP.Port = 587
	}
	for _, ep := range []*Endpoint{&cfg.Source, &cfg.Destination} {
		if ep.Timeout == 0 {
			ep.Timeout = 30 * time.Second
		}
	}
}

func (cfg *Config) validate() []string {
	var problems []string

	problems = append(problems, validateEndpoint("source", cfg.Source)...)
	problems = append(problems, validateEndpoint("destination", cfg.Destination)...)

	if cfg.Select.Prefix == "" && cfg.Select.Suffix == "" {
		problems = append(problems, "select: a prefix or a suffix is required")
	}

	if cfg.Encryption.Enabled && cfg.Encryption.Recipient == "" {
		problems = append(problems, "encryption.recipient: required when encryption is enabled")
	}

	if cfg.Watermark.Policy != PolicyNow && cfg.Watermark.Policy != PolicyMaxMtime {
		problems = append(problems, fmt.Sprintf("watermark.policy: must be '%s' or '%s', not '%s'",
			PolicyNow, PolicyMaxMtime, cfg.Watermark.Policy))
	}

	if cfg.Notify.SMTP.Host != "" {
		if cfg.Notify.From == "" {
			problems = append(problems, "notify.from: required when notify.smtp.host is set")
		}
		switch cfg.Notify.SMTP.TLS {
		case "", "mandatory", "opportunistic", "none", "ssl":
		default:
			problems = append(problems, fmt.Sprintf("notify.smtp.tls: unknown mode '%s'", cfg.Notify.SMTP.TLS))
		}
	}
	for _, addr := range cfg.Notify.DistributionList {
		if !strings.Contains(addr, "@") {
			problems = append(problems, fmt.Sprintf("notify.distribution_list: '%s' is not an email address", addr))
		}
	}

	return problems
}

func validateEndpoint(name string, ep Endpoint) []string {
	var problems []string

	if _, err := remote.ForProtocol(ep.Protocol); err != nil {
		problems = append(problems, fmt.Sprintf("%s.protocol: must be one of %s",
			name, strings.Join(remote.Protocols(), ", ")))
		return problems
	}

	switch ep.Protocol {
	case "s3":
		if ep.Bucket == "" {
			problems = append(problems, fmt.Sprintf("%s.bucket: required for s3", name))
		}
	case "file":
		if ep.Directory == "" {
			problems = append(problems, fmt.Sprintf("%s.directory: required for file", name))
		}
	default:
		if ep.Host == "" {
			problems = append(problems, fmt.Sprintf("%s.host: required for %s", name, ep.Protocol))
		}
		if ep.Credential == "" {
			problems = append(problems, fmt.Sprintf("%s.credential: required for %s", name, ep.Protocol))
		}
	}

	if ep.Port < 0 || ep.Port > 65535 {
		problems = append(problems, fmt.Sprintf("%s.port: %d is out of range", name, ep.Port))
	}

	return problems
}
