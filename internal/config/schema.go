package config

import "time"

// Config is the full configuration for a discovery run.
type Config struct {
	Seeds       []SeedConfig      `yaml:"seeds,omitempty"`
	Sweep       SweepConfig       `yaml:"sweep"`
	Walk        WalkConfig        `yaml:"walk"`
	Boundary    BoundaryConfig    `yaml:"boundary"`
	Exclude     ExcludeConfig     `yaml:"exclude"`
	Database    DatabaseConfig    `yaml:"database"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

// SeedConfig names a starting device. Address is dialed instead of Name
// when set; otherwise Name must resolve.
type SeedConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address,omitempty"`
}

// SweepConfig lists networks scanned for reachable SSH endpoints that are
// added to the seed list before the walk starts.
type SweepConfig struct {
	Networks []string `yaml:"networks,omitempty"`
}

// WalkConfig tunes the traversal itself. MaxDepth and RetryAttempts are
// pointers because zero is a meaningful value for both: max_depth 0 walks
// only the seed devices, retry_attempts 0 dials each device exactly once.
// nil means unset and takes the default.
type WalkConfig struct {
	MaxDepth              *int     `yaml:"max_depth,omitempty"`
	ConcurrentConnections int      `yaml:"concurrent_connections"`
	DiscoveryTimeout      Duration `yaml:"discovery_timeout,omitempty"` // zero = unbounded
	ConnectTimeout        Duration `yaml:"connect_timeout"`
	CommandTimeout        Duration `yaml:"command_timeout"`
	RetryAttempts         *int     `yaml:"retry_attempts,omitempty"`
	RetryBackoff          Duration `yaml:"retry_backoff"`
}

// BoundaryConfig controls where the walk stops expanding.
type BoundaryConfig struct {
	// SitePattern is a shell glob matched case-insensitively against
	// device hostnames. Matching devices are walked but their neighbors
	// are not followed.
	SitePattern string `yaml:"site_pattern,omitempty"`

	// CollectSite walks through boundary devices instead of stopping,
	// pulling in the whole site behind them.
	CollectSite bool `yaml:"collect_site"`
}

// ExcludeConfig lists device classes that are recorded but never walked.
type ExcludeConfig struct {
	Capabilities []string `yaml:"capabilities,omitempty"`
	Platforms    []string `yaml:"platforms,omitempty"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CredentialsConfig holds SSH login material. Password may be left empty
// in the file and supplied via NETWALKER_SSH_PASSWORD instead.
type CredentialsConfig struct {
	Username   string `yaml:"username"`
	Password   string `yaml:"password,omitempty"`
	SSHKeyPath string `yaml:"ssh_key_path,omitempty"`
	Passphrase string `yaml:"passphrase,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
