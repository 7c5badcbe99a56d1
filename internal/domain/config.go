package domain

// ConfigFileName is the base name of the configuration file. The loader
// accepts either a TOML or a YAML extension.
const ConfigFileName = "taskprobe"

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Target   TargetConfig   `toml:"target" yaml:"target"`
	Registry RegistryLayout `toml:"registry" yaml:"registry"`
	Poll     PollConfig     `toml:"poll" yaml:"poll"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// TargetConfig holds default connection settings from the [target] section.
type TargetConfig struct {
	Executable string `toml:"executable,omitempty" yaml:"executable,omitempty"` // Path to the target ELF
	Remote     string `toml:"remote,omitempty" yaml:"remote,omitempty"`         // gdbserver address (host:port)
}

// PollConfig holds the poll-site breakpoint settings from the [poll] section.
// Breakpoints installed at these locations refresh the panel and resume the
// target without halting the user.
type PollConfig struct {
	Locations []string `toml:"locations,omitempty" yaml:"locations,omitempty"`
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Path  string `toml:"path,omitempty" yaml:"path,omitempty"`   // Log file path ("" = state dir default)
	Level string `toml:"level,omitempty" yaml:"level,omitempty"` // debug, info, warn, error
}

// NewDefaultConfig returns the configuration used when no config file exists.
func NewDefaultConfig() *Config {
	return &Config{
		Registry: DefaultRegistryLayout(),
		Log:      LogConfig{Level: "info"},
	}
}
