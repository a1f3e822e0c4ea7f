package pa

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk description of a system: its identity, listeners,
// DNS-SD behaviour and the printers it exposes. It doubles as the
// persisted-state document: Save writes it to disk. System does not call
// Save, so nothing is written back on shutdown.
type Config struct {
	System   SystemConfig    `yaml:"system"`
	Listen   []string        `yaml:"listen"`
	DNSSD    DNSSDConfig     `yaml:"dnssd"`
	Printers []PrinterConfig `yaml:"printers"`
}

// Duration wraps time.Duration so it can be written as a plain string like
// "24h" or "90m" in the YAML config instead of a raw nanosecond count.
type Duration time.Duration

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("job_retention: %w", err)
	}
	*d = Duration(parsed)
	return nil
}

// SystemConfig names the system itself.
type SystemConfig struct {
	Name         string   `yaml:"name"`
	UUID         string   `yaml:"uuid,omitempty"`
	JobRetention Duration `yaml:"job_retention"`
	LogJSON      bool     `yaml:"log_json"`
	LogFile      string   `yaml:"log_file,omitempty"`
}

// DNSSDConfig toggles and parameterises DNS-SD advertisement.
type DNSSDConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Domain   string `yaml:"domain,omitempty"`
	Backend  string `yaml:"backend,omitempty"` // "zeroconf" (default) or "mdns"
	Location string `yaml:"location,omitempty"` // geo: URI, see LOC record support
}

// PrinterConfig binds a driver and a device URI to an advertised printer.
type PrinterConfig struct {
	Name          string `yaml:"name"`
	UUID          string `yaml:"uuid,omitempty"`
	Driver        string `yaml:"driver"`
	DeviceURI     string `yaml:"device_uri"`
	Location      string `yaml:"location,omitempty"`
	Note          string `yaml:"note,omitempty"`
	Geo           string `yaml:"geo,omitempty"` // geo: URI
	Resolution    string `yaml:"resolution,omitempty"`
	MaxActiveJobs int    `yaml:"max_active_jobs,omitempty"`
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.System.JobRetention == 0 {
		cfg.System.JobRetention = Duration(24 * time.Hour)
	}
	return &cfg, nil
}

// Save writes the configuration back to path, used to persist system state
// across restarts.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
