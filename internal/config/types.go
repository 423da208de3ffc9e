package config

// CurrentVersion is the only supported config schema version.
const CurrentVersion = 1

// Binary sources.
const (
	BinarySourceDirect = "direct"
	BinarySourceDocker = "docker"
)

// Config represents the modsync configuration, merged across layers.
type Config struct {
	Version      int    `koanf:"version" yaml:"version"`
	CacheDir     string `koanf:"cache_dir" yaml:"cache_dir,omitempty"`
	BinarySource string `koanf:"binary_source" yaml:"binary_source"`
	// PostUpdateOptions enables extra toolchain steps, e.g. "gomodTidy".
	PostUpdateOptions []string `koanf:"post_update_options" yaml:"post_update_options,omitempty"`
	// Compatibility maps a toolchain name ("go") to a version constraint.
	Compatibility map[string]string `koanf:"compatibility" yaml:"compatibility,omitempty"`
	AppMode       bool              `koanf:"app_mode" yaml:"app_mode"`
	Container     Container         `koanf:"container" yaml:"container"`
	HostRules     []HostRule        `koanf:"host_rules" yaml:"host_rules,omitempty"`
}

// Container configures docker mode.
type Container struct {
	Image string `koanf:"image" yaml:"image"`
	// Tags are candidate image tags for range constraints.
	Tags []string `koanf:"tags" yaml:"tags,omitempty"`
}

// HostRule supplies a token for a host. Token takes precedence over
// TokenEnv, which names an environment variable holding the token.
type HostRule struct {
	HostType string `koanf:"host_type" yaml:"host_type,omitempty"`
	BaseURL  string `koanf:"base_url" yaml:"base_url,omitempty"`
	Token    string `koanf:"token" yaml:"token,omitempty"`
	TokenEnv string `koanf:"token_env" yaml:"token_env,omitempty"`
}

// Redacted returns a copy safe to print: literal tokens are masked.
func (c Config) Redacted() Config {
	out := c
	out.HostRules = make([]HostRule, len(c.HostRules))
	for i, r := range c.HostRules {
		if r.Token != "" {
			r.Token = "********"
		}
		out.HostRules[i] = r
	}
	if len(c.HostRules) == 0 {
		out.HostRules = nil
	}
	return out
}
